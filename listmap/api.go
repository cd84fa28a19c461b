// Package listmap is a client for the LIST (Land Information System
// Tasmania) ArcGIS REST services: layer metadata, raster tiles and
// place-name lookups.
package listmap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// BaseURL is the root of the LIST ArcGIS REST API.
const BaseURL = "https://services.thelist.tas.gov.au/arcgis/rest/services/"

// Client talks to the LIST API. The zero value is not usable; construct
// one with NewClient.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the public LIST API. Every request made
// through it carries a per-request deadline, so a stalled tile fetch
// surfaces as an error rather than blocking a whole batch.
func NewClient() *Client {
	return &Client{
		baseURL: BaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientURL returns a client against another service root, used by
// tests to point at a stub server.
func NewClientURL(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// get performs a GET request against a path below the service root.
// The JSON response format is the default; params may override it.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	query := url.Values{"f": []string{"json"}}
	for key, values := range params {
		query[key] = values
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
