// Package raster assembles fetched map tiles into a single pixel buffer
// and composites layers into the final image.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // some layers serve JPEG tiles
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

// ErrDimensionMismatch is returned when two rasters that must share pixel
// dimensions do not.
var ErrDimensionMismatch = errors.New("raster dimensions do not match")

// CorruptTileError reports a tile whose bytes could not be decoded into a
// tile-sized image. A corrupt tile fails the whole stitch: skipping it
// would shift every subsequent raster-scan placement.
type CorruptTileError struct {
	Index int
	Cause error
}

func (e *CorruptTileError) Error() string {
	return fmt.Sprintf("corrupt tile at position %d: %v", e.Index, e.Cause)
}

func (e *CorruptTileError) Unwrap() error {
	return e.Cause
}

// Raster is a decoded image with known dimensions. The zero value is not
// usable; construct one via Decode, Stitch, Blend or New.
type Raster struct {
	Pix *image.RGBA
}

// New returns an empty (transparent black) raster of the given size.
func New(width, height int) *Raster {
	return &Raster{Pix: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Decode reads a PNG or JPEG byte blob into a raster.
func Decode(data []byte) (*Raster, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	pix := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(pix, pix.Bounds(), img, bounds.Min, draw.Src)
	return &Raster{Pix: pix}, nil
}

func (r *Raster) Width() int  { return r.Pix.Rect.Dx() }
func (r *Raster) Height() int { return r.Pix.Rect.Dy() }

// EncodePNG serialises the raster as PNG bytes.
func (r *Raster) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.Pix); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Stitch pastes tile byte blobs onto a canvas of shape columns x rows in
// raster-scan order (matching the fetch order), then crops the canvas at
// pixelOrigin to outputSize. The crop discards the sub-tile margin of
// grids that do not align with tile boundaries and is what makes the
// result match the requested window to within a pixel.
// The returned raster is freshly allocated and owned by the caller.
func Stitch(tiles [][]byte, shape, pixelOrigin, outputSize [2]int, tileSize int) (*Raster, error) {
	columns, rows := shape[0], shape[1]
	if len(tiles) != columns*rows {
		return nil, fmt.Errorf("got %d tiles for a %dx%d grid", len(tiles), columns, rows)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, columns*tileSize, rows*tileSize))
	for i, data := range tiles {
		tile, err := Decode(data)
		if err != nil {
			return nil, &CorruptTileError{Index: i, Cause: err}
		}
		if tile.Width() != tileSize || tile.Height() != tileSize {
			return nil, &CorruptTileError{
				Index: i,
				Cause: fmt.Errorf("tile is %dx%d, want %dx%d", tile.Width(), tile.Height(), tileSize, tileSize),
			}
		}
		x := (i % columns) * tileSize
		y := (i / columns) * tileSize
		draw.Draw(canvas, image.Rect(x, y, x+tileSize, y+tileSize), tile.Pix, image.Point{}, draw.Src)
	}

	window := image.Rect(pixelOrigin[0], pixelOrigin[1], pixelOrigin[0]+outputSize[0], pixelOrigin[1]+outputSize[1])
	if !window.In(canvas.Bounds()) {
		return nil, fmt.Errorf("crop window %v exceeds the %v canvas", window, canvas.Bounds())
	}
	out := New(outputSize[0], outputSize[1])
	draw.Draw(out.Pix, out.Pix.Bounds(), canvas, window.Min, draw.Src)
	return out, nil
}

// Blend composites overlay onto base with the given opacity, a per-pixel
// linear interpolation between the two. Both rasters must share pixel
// dimensions. The inputs are left untouched.
func Blend(base, overlay *Raster, opacity float64) (*Raster, error) {
	if opacity < 0 || opacity > 1 {
		return nil, fmt.Errorf("opacity %v is outside [0, 1]", opacity)
	}
	if base.Width() != overlay.Width() || base.Height() != overlay.Height() {
		return nil, fmt.Errorf("%w: base %dx%d, overlay %dx%d", ErrDimensionMismatch,
			base.Width(), base.Height(), overlay.Width(), overlay.Height())
	}

	out := New(base.Width(), base.Height())
	draw.Draw(out.Pix, out.Pix.Bounds(), base.Pix, image.Point{}, draw.Src)
	mask := image.NewUniform(alpha16(opacity))
	draw.DrawMask(out.Pix, out.Pix.Bounds(), overlay.Pix, image.Point{}, mask, image.Point{}, draw.Over)
	return out, nil
}

func alpha16(opacity float64) color.Alpha16 {
	return color.Alpha16{A: uint16(math.Round(opacity * 0xffff))}
}
