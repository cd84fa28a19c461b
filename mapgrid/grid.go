package mapgrid

import (
	"fmt"
	"math"

	"github.com/go-spatial/geom"
)

// TileRef addresses one tile of a layer on the wire.
// Row is the wire row, which increases southward (downward).
type TileRef struct {
	Layer string
	Level int
	Col   int
	Row   int
}

func (r TileRef) String() string {
	return fmt.Sprintf("%s/%d/%d/%d", r.Layer, r.Level, r.Row, r.Col)
}

// TileGrid is the minimal set of tiles covering a requested window,
// plus the sub-tile pixel offset needed to crop the stitched canvas back
// to exactly that window.
type TileGrid struct {
	Layer Layer
	Level int
	// Start holds the column and the logical row of the grid's
	// south-western tile. Logical rows increase northward from the
	// layer origin and are negative south of it.
	Start [2]int
	// Shape is the number of columns and rows of the grid.
	Shape [2]int
	// PixelOrigin is the top-left offset, in pixels, at which the
	// requested window starts within the stitched canvas.
	// Both components are within [0, TileSize).
	PixelOrigin [2]int
	// Size is the requested window in pixels.
	Size [2]int
}

// ComputeGrid determines the tiles of a layer level needed to cover a
// window of sizePixels centred on centre. The window rarely aligns with
// tile boundaries, so the grid is padded with the fractional overflow on
// each side and PixelOrigin records where to crop.
func ComputeGrid(layer Layer, level int, centre geom.Point, sizePixels [2]int) (TileGrid, error) {
	if sizePixels[0] < 1 || sizePixels[1] < 1 {
		return TileGrid{}, fmt.Errorf("%w: size %dx%d", ErrInvalidGrid, sizePixels[0], sizePixels[1])
	}
	res, err := layer.Resolution(level)
	if err != nil {
		return TileGrid{}, err
	}

	// Window corners relative to the layer origin, in tile units.
	span := float64(layer.TileSize) * res
	halfW := float64(sizePixels[0]) * res / 2
	halfH := float64(sizePixels[1]) * res / 2
	lowX := (centre.X() - layer.Origin.X() - halfW) / span
	highX := (centre.X() - layer.Origin.X() + halfW) / span
	lowY := (centre.Y() - layer.Origin.Y() - halfH) / span
	highY := (centre.Y() - layer.Origin.Y() + halfH) / span

	colsLowOver, colsHighOver := overflow(lowX, highX)
	rowsLowOver, rowsHighOver := overflow(lowY, highY)

	grid := TileGrid{
		Layer: layer,
		Level: level,
		Start: [2]int{int(math.Floor(lowX)), int(math.Floor(lowY))},
		Shape: [2]int{
			int(math.Round(highX - lowX + colsLowOver + colsHighOver)),
			int(math.Round(highY - lowY + rowsLowOver + rowsHighOver)),
		},
		PixelOrigin: [2]int{
			// The left overflow and the top overflow locate the crop.
			int(math.Round(colsLowOver * float64(layer.TileSize))),
			int(math.Round(rowsHighOver * float64(layer.TileSize))),
		},
		Size: sizePixels,
	}

	// A window edge within half a pixel of a tile boundary rounds the
	// crop offset onto the next tile; snap the grid to that tile so the
	// offsets stay sub-tile.
	if grid.PixelOrigin[0] == layer.TileSize {
		grid.PixelOrigin[0] = 0
		grid.Start[0]++
		grid.Shape[0]--
	}
	if grid.PixelOrigin[1] == layer.TileSize {
		grid.PixelOrigin[1] = 0
		grid.Shape[1]--
	}
	return grid, nil
}

func frac(v float64) float64 {
	return v - math.Floor(v)
}

// overflow returns the fractional tile margins below low and above high.
// An aligned edge still gets a whole-tile margin on the high side, so the
// window interior is always strictly covered.
func overflow(low, high float64) (lowOver, highOver float64) {
	return frac(low), 1 - frac(high)
}

// WireRow converts a logical (northward) grid row to the row the service
// numbers tiles by, which starts at the origin and increases southward.
func (g TileGrid) WireRow(logicalRow int) int {
	return -1 - logicalRow
}

// Tiles returns the grid's tile references for the layer the grid was
// computed for, in raster-scan fetch order: the northernmost (topmost
// wire) row first, columns west to east within each row. The stitcher
// relies on this order for placement.
func (g TileGrid) Tiles() []TileRef {
	return g.TilesFor(g.Layer.Name)
}

// TilesFor returns the same tile sequence addressed to another layer
// sharing the grid's tiling scheme, e.g. a relief overlay of the base map.
func (g TileGrid) TilesFor(layer string) []TileRef {
	refs := make([]TileRef, 0, g.Shape[0]*g.Shape[1])
	for row := g.Start[1] + g.Shape[1] - 1; row >= g.Start[1]; row-- {
		for col := g.Start[0]; col < g.Start[0]+g.Shape[0]; col++ {
			refs = append(refs, TileRef{
				Layer: layer,
				Level: g.Level,
				Col:   col,
				Row:   g.WireRow(row),
			})
		}
	}
	return refs
}
