package listmap

import (
	"context"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/perimeterx/marshmallow"
	"golang.org/x/exp/slices"

	"tastopo/mapgrid"
)

// tileServiceInfo is the slice of an ArcGIS MapServer metadata document
// this client cares about. The services return many more keys; marshmallow
// keeps the parse lenient the same way the full documents are handled by
// their own tooling.
type tileServiceInfo struct {
	TileInfo tileInfo `validate:"required" json:"tileInfo"`
}

type tileInfo struct {
	Rows   int        `validate:"required,min=1" json:"rows"`
	Cols   int        `validate:"required,min=1,eqfield=Rows" json:"cols"`
	DPI    int        `default:"96" json:"dpi"`
	Origin tileOrigin `json:"origin"`
	LODs   []lod      `validate:"required,min=1,dive" json:"lods"`
}

type tileOrigin struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type lod struct {
	Level      int     `validate:"min=0" json:"level"`
	Resolution float64 `validate:"required,gt=0" json:"resolution"`
	Scale      float64 `validate:"required,gt=0" json:"scale"`
}

func (info *tileServiceInfo) UnmarshalJSON(data []byte) error {
	if err := defaults.Set(info); err != nil {
		return err
	}
	if _, err := marshmallow.Unmarshal(data, info, marshmallow.WithExcludeKnownFieldsFromMap(true)); err != nil {
		return err
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(info)
}

// Layer fetches the tile scheme metadata of a basemap layer and returns
// its descriptor. The descriptor is immutable; fetch it once per layer
// per run.
func (c *Client) Layer(ctx context.Context, name string) (mapgrid.Layer, error) {
	data, err := c.get(ctx, "Basemaps/"+name+"/MapServer", nil)
	if err != nil {
		return mapgrid.Layer{}, fmt.Errorf("fetching %q metadata: %w", name, err)
	}

	var info tileServiceInfo
	if err := info.UnmarshalJSON(data); err != nil {
		return mapgrid.Layer{}, fmt.Errorf("parsing %q metadata: %w", name, err)
	}

	lods := slices.Clone(info.TileInfo.LODs)
	slices.SortFunc(lods, func(a, b lod) int { return a.Level - b.Level })
	resolutions := make([]float64, len(lods))
	for i, l := range lods {
		if l.Level != i {
			return mapgrid.Layer{}, fmt.Errorf("layer %q: level table has a gap at %d", name, i)
		}
		resolutions[i] = l.Resolution
	}

	layer := mapgrid.Layer{
		Name:        name,
		Origin:      [2]float64{info.TileInfo.Origin.X, info.TileInfo.Origin.Y},
		TileSize:    info.TileInfo.Cols,
		Resolutions: resolutions,
	}
	if err := layer.Valid(); err != nil {
		return mapgrid.Layer{}, err
	}
	return layer, nil
}

// GetTile fetches the raw bytes of one tile. Non-2xx responses are fatal
// for this single call; the batch above decides what to do with the gap.
func (c *Client) GetTile(ctx context.Context, ref mapgrid.TileRef) ([]byte, error) {
	path := fmt.Sprintf("Basemaps/%s/MapServer/tile/%d/%d/%d", ref.Layer, ref.Level, ref.Row, ref.Col)
	data, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("tile %v: %w", ref, err)
	}
	return data, nil
}
