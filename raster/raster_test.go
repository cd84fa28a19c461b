package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidTile(t *testing.T, size int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func TestDecode(t *testing.T) {
	r, err := Decode(solidTile(t, 16, red))
	require.NoError(t, err)
	assert.Equal(t, 16, r.Width())
	assert.Equal(t, 16, r.Height())
	assert.Equal(t, red, r.Pix.RGBAAt(7, 7))

	_, err = Decode([]byte("not an image"))
	require.Error(t, err)
}

// Stitching a 2x2 grid of solid tiles and cropping at the pixel origin
// must map output pixel (x, y) exactly onto canvas pixel (x+dx, y+dy).
func TestStitchCropIsExact(t *testing.T) {
	const tileSize = 8
	tiles := [][]byte{
		solidTile(t, tileSize, red),
		solidTile(t, tileSize, green),
		solidTile(t, tileSize, blue),
		solidTile(t, tileSize, white),
	}

	out, err := Stitch(tiles, [2]int{2, 2}, [2]int{3, 5}, [2]int{10, 9}, tileSize)
	require.NoError(t, err)
	require.Equal(t, 10, out.Width())
	require.Equal(t, 9, out.Height())

	// Corners of the crop land in the four different tiles.
	assert.Equal(t, red, out.Pix.RGBAAt(0, 0))
	assert.Equal(t, green, out.Pix.RGBAAt(9, 0))
	assert.Equal(t, blue, out.Pix.RGBAAt(0, 8))
	assert.Equal(t, white, out.Pix.RGBAAt(9, 8))

	// The tile boundary sits between output x 4 and 5 (canvas x 7 and 8),
	// so the crop is exact and not off by one.
	assert.Equal(t, red, out.Pix.RGBAAt(4, 0))
	assert.Equal(t, green, out.Pix.RGBAAt(5, 0))
	assert.Equal(t, red, out.Pix.RGBAAt(0, 2))
	assert.Equal(t, blue, out.Pix.RGBAAt(0, 3))
}

func TestStitchCorruptTile(t *testing.T) {
	const tileSize = 8
	tiles := [][]byte{
		solidTile(t, tileSize, red),
		solidTile(t, tileSize, green),
		[]byte("garbage"),
		solidTile(t, tileSize, white),
	}

	_, err := Stitch(tiles, [2]int{2, 2}, [2]int{0, 0}, [2]int{16, 16}, tileSize)
	var corrupt *CorruptTileError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, 2, corrupt.Index)
}

func TestStitchWrongTileSize(t *testing.T) {
	tiles := [][]byte{solidTile(t, 8, red), solidTile(t, 4, green)}

	_, err := Stitch(tiles, [2]int{2, 1}, [2]int{0, 0}, [2]int{16, 8}, 8)
	var corrupt *CorruptTileError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, 1, corrupt.Index)
}

func TestStitchTileCountMismatch(t *testing.T) {
	tiles := [][]byte{solidTile(t, 8, red)}
	_, err := Stitch(tiles, [2]int{2, 2}, [2]int{0, 0}, [2]int{16, 16}, 8)
	require.Error(t, err)
}

func solidRaster(size [2]int, c color.RGBA) *Raster {
	r := New(size[0], size[1])
	for i := 0; i < len(r.Pix.Pix); i += 4 {
		r.Pix.Pix[i], r.Pix.Pix[i+1], r.Pix.Pix[i+2], r.Pix.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return r
}

func TestBlendBoundaryOpacities(t *testing.T) {
	base := solidRaster([2]int{6, 4}, red)
	overlay := solidRaster([2]int{6, 4}, blue)

	// Opacity 0 leaves the base untouched, 1 replaces it entirely.
	out, err := Blend(base, overlay, 0)
	require.NoError(t, err)
	assert.Equal(t, base.Pix.Pix, out.Pix.Pix)

	out, err = Blend(base, overlay, 1)
	require.NoError(t, err)
	assert.Equal(t, overlay.Pix.Pix, out.Pix.Pix)

	// The inputs are not mutated.
	assert.Equal(t, red, base.Pix.RGBAAt(0, 0))
	assert.Equal(t, blue, overlay.Pix.RGBAAt(0, 0))
}

func TestBlendInterpolates(t *testing.T) {
	base := solidRaster([2]int{6, 4}, red)
	overlay := solidRaster([2]int{6, 4}, blue)

	out, err := Blend(base, overlay, 0.5)
	require.NoError(t, err)
	got := out.Pix.RGBAAt(3, 2)
	assert.InDelta(t, 127, got.R, 2)
	assert.InDelta(t, 0, got.G, 0)
	assert.InDelta(t, 128, got.B, 2)
	assert.EqualValues(t, 255, got.A)
}

func TestBlendDimensionMismatch(t *testing.T) {
	base := solidRaster([2]int{6, 4}, red)
	overlay := solidRaster([2]int{6, 5}, blue)
	_, err := Blend(base, overlay, 0.5)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestBlendInvalidOpacity(t *testing.T) {
	base := solidRaster([2]int{2, 2}, red)
	overlay := solidRaster([2]int{2, 2}, blue)
	for _, opacity := range []float64{-0.1, 1.1} {
		_, err := Blend(base, overlay, opacity)
		require.Error(t, err)
	}
}

func TestEncodePNGRoundTrip(t *testing.T) {
	r := solidRaster([2]int{5, 7}, green)
	data, err := r.EncodePNG()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 5, decoded.Width())
	assert.Equal(t, 7, decoded.Height())
	assert.Equal(t, green, decoded.Pix.RGBAAt(2, 3))
}
