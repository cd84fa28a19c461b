// Package mapgrid computes which tiles of a tiled raster service cover a
// requested real-world window, and at which zoom level.
// It is pure geometry: no I/O happens here.
package mapgrid

import (
	"errors"
	"fmt"

	"github.com/go-spatial/geom"
)

var (
	// ErrInvalidScale is returned for non-positive map scales.
	ErrInvalidScale = errors.New("map scale must be positive")
	// ErrInvalidGrid is returned when a tile grid is requested for a
	// non-positive pixel size or an unknown level.
	ErrInvalidGrid = errors.New("invalid tile grid request")
)

// Layer describes a tiled raster source: where its tile grid is anchored,
// how big its (square) tiles are and which resolutions it offers.
// A Layer is built once from service metadata and read-only afterwards.
type Layer struct {
	// Name is the service identifier of the layer, e.g. "Topographic".
	Name string
	// Origin is the corner of the (0, 0) tile in the service's native
	// projected CRS, in metres. For ArcGIS tile caches this is the
	// top-left corner of the scheme, so all of the covered area lies
	// south (and east) of it.
	Origin geom.Point
	// TileSize is the edge length of a tile in pixels.
	TileSize int
	// Resolutions holds the metres-per-pixel cell size per level,
	// indexed by level. Values strictly decrease as the level increases.
	Resolutions []float64
}

// Resolution returns the metres-per-pixel cell size at the given level.
func (l Layer) Resolution(level int) (float64, error) {
	if level < 0 || level >= len(l.Resolutions) {
		return 0, fmt.Errorf("%w: layer %q has no level %d", ErrInvalidGrid, l.Name, level)
	}
	return l.Resolutions[level], nil
}

// MaxLevel returns the finest level index of the layer.
func (l Layer) MaxLevel() int {
	return len(l.Resolutions) - 1
}

// Valid checks the layer invariants: a positive tile size and a
// strictly decreasing, positive resolution table.
func (l Layer) Valid() error {
	if l.TileSize < 1 {
		return fmt.Errorf("layer %q: tile size %d is not positive", l.Name, l.TileSize)
	}
	if len(l.Resolutions) == 0 {
		return fmt.Errorf("layer %q: no resolutions", l.Name)
	}
	for level, res := range l.Resolutions {
		if res <= 0 {
			return fmt.Errorf("layer %q: resolution %v at level %d is not positive", l.Name, res, level)
		}
		if level > 0 && res >= l.Resolutions[level-1] {
			return fmt.Errorf("layer %q: resolutions do not decrease at level %d", l.Name, level)
		}
	}
	return nil
}
