package listmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-spatial/geom"
)

var (
	// ErrLocationNotFound is returned when no place name matches a
	// location description exactly (case-insensitively).
	ErrLocationNotFound = errors.New("location not found")
	// ErrInvalidGeoURI is returned for malformed geo: literals.
	ErrInvalidGeoURI = errors.New("invalid geo URI")
)

// A geo URI carries decimal-degree latitude,longitude per RFC 5870.
var geoURIRe = regexp.MustCompile(`^geo:(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)$`)

// directional coordinates as returned by the geometry service, e.g. 41.5S
var directionalRe = regexp.MustCompile(`([-.\d]+)([NSEW])`)

// ResolveLocation turns a location description into service-native (metre)
// coordinates. A "geo:" prefixed description is parsed as literal
// decimal-degree coordinates; anything else is looked up as a place name.
func (c *Client) ResolveLocation(ctx context.Context, description string) (geom.Point, error) {
	if strings.HasPrefix(description, "geo:") {
		return c.fromDecimalDegrees(ctx, description)
	}
	return c.fromPlacename(ctx, description)
}

func (c *Client) fromPlacename(ctx context.Context, placename string) (geom.Point, error) {
	data, err := c.get(ctx, "Public/PlacenamePoints/MapServer/find", url.Values{
		"searchText": []string{placename},
		"layers":     []string{"0"},
	})
	if err != nil {
		return geom.Point{}, err
	}

	var found struct {
		Results []struct {
			Value    string `json:"value"`
			Geometry struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &found); err != nil {
		return geom.Point{}, fmt.Errorf("parsing place name results: %w", err)
	}

	for _, place := range found.Results {
		if strings.EqualFold(place.Value, placename) {
			return geom.Point{place.Geometry.X, place.Geometry.Y}, nil
		}
	}
	return geom.Point{}, fmt.Errorf("%w: %q", ErrLocationNotFound, placename)
}

// fromDecimalDegrees projects the decimal-degree coordinates of a geo URI
// into the service CRS via the geometry service.
func (c *Client) fromDecimalDegrees(ctx context.Context, uri string) (geom.Point, error) {
	m := geoURIRe.FindStringSubmatch(uri)
	if m == nil {
		return geom.Point{}, fmt.Errorf("%w: %q", ErrInvalidGeoURI, uri)
	}
	coordinates, err := json.Marshal([]string{m[1] + "," + m[2]})
	if err != nil {
		return geom.Point{}, err
	}

	data, err := c.get(ctx, "Utilities/Geometry/GeometryServer/fromGeoCoordinateString", url.Values{
		"sr":             []string{"3857"},
		"conversionType": []string{"DD"},
		"strings":        []string{string(coordinates)},
	})
	if err != nil {
		return geom.Point{}, err
	}

	var converted struct {
		Coordinates [][2]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &converted); err != nil {
		return geom.Point{}, fmt.Errorf("parsing converted coordinates: %w", err)
	}
	if len(converted.Coordinates) == 0 {
		return geom.Point{}, fmt.Errorf("%w: %q", ErrInvalidGeoURI, uri)
	}
	return geom.Point(converted.Coordinates[0]), nil
}

// GeoURI formats service-native coordinates as a geo URI for display on
// the printed sheet.
func (c *Client) GeoURI(ctx context.Context, point geom.Point) (string, error) {
	coordinates, err := json.Marshal([][2]float64{point})
	if err != nil {
		return "", err
	}
	data, err := c.get(ctx, "Utilities/Geometry/GeometryServer/toGeoCoordinateString", url.Values{
		"sr":             []string{"3857"},
		"conversionType": []string{"DD"},
		"coordinates":    []string{string(coordinates)},
	})
	if err != nil {
		return "", err
	}

	var converted struct {
		Strings []string `json:"strings"`
	}
	if err := json.Unmarshal(data, &converted); err != nil || len(converted.Strings) == 0 {
		return "", fmt.Errorf("parsing geo coordinate string: %w", err)
	}

	// Convert directional coordinates (41.5S 146.7E) to signed values.
	matches := directionalRe.FindAllStringSubmatch(converted.Strings[0], -1)
	if len(matches) != 2 {
		return "", fmt.Errorf("unexpected geo coordinate string %q", converted.Strings[0])
	}
	parts := make([]string, 2)
	for i, m := range matches {
		if m[2] == "S" || m[2] == "W" {
			parts[i] = "-" + m[1]
		} else {
			parts[i] = m[1]
		}
	}
	return "geo:" + parts[0] + "," + parts[1], nil
}
