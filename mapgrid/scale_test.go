package mapgrid

import (
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLayer halves its resolution per level, like the service schemes do.
func testLayer(levels int, finest float64) Layer {
	resolutions := make([]float64, levels)
	for i := range resolutions {
		resolutions[i] = finest * float64(int(1)<<(levels-1-i))
	}
	return Layer{
		Name:        "Topographic",
		Origin:      geom.Point{0, 0},
		TileSize:    256,
		Resolutions: resolutions,
	}
}

func TestResolveExtent(t *testing.T) {
	layer := testLayer(20, 0.298582141)

	_, extent, err := DefaultScaleConfig().Resolve(layer, 25000, [2]float64{294.86, 193.67}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 294.86*25, extent[0], 1e-9)
	assert.InDelta(t, 193.67*25, extent[1], 1e-9)
}

func TestResolveInvalidScale(t *testing.T) {
	layer := testLayer(20, 0.298582141)
	for _, scale := range []float64{0, -25000} {
		_, _, err := DefaultScaleConfig().Resolve(layer, scale, [2]float64{210, 297}, 0)
		require.ErrorIs(t, err, ErrInvalidScale)
	}
}

// Larger scale denominators are more zoomed out and must never resolve to
// a finer level than a smaller denominator does.
func TestResolveMonotonic(t *testing.T) {
	layer := testLayer(20, 0.298582141)
	config := DefaultScaleConfig()
	sheetMm := [2]float64{294.86, 193.67}

	previousLevel := layer.MaxLevel() + 1
	for scale := float64(1000); scale <= 1_000_000; scale *= 1.1 {
		level, _, err := config.Resolve(layer, scale, sheetMm, 0)
		require.NoError(t, err)
		assert.LessOrEqual(t, level, previousLevel, "scale 1:%.0f", scale)
		assert.GreaterOrEqual(t, level, 0)
		assert.LessOrEqual(t, level, layer.MaxLevel())
		previousLevel = level
	}
}

func TestResolveZoomAdjust(t *testing.T) {
	layer := testLayer(20, 0.298582141)
	config := DefaultScaleConfig()
	sheetMm := [2]float64{294.86, 193.67}

	level, _, err := config.Resolve(layer, 50000, sheetMm, 0)
	require.NoError(t, err)
	finer, _, err := config.Resolve(layer, 50000, sheetMm, 1)
	require.NoError(t, err)
	coarser, _, err := config.Resolve(layer, 50000, sheetMm, -1)
	require.NoError(t, err)

	assert.Equal(t, level+1, finer)
	assert.Equal(t, level-1, coarser)
}

// The boundary fraction decides which of the two adjacent levels a scale
// between them lands on.
func TestResolveBoundaryFraction(t *testing.T) {
	layer := testLayer(20, 0.298582141)
	sheetMm := [2]float64{294.86, 193.67}
	// 2^10.15 and 2^10.45 times the reference scale, either side of the
	// default 0.3 boundary.
	config := DefaultScaleConfig()
	justBelow := config.ReferenceScale*1136.2 - 1 // raw level ~10.15
	justAbove := config.ReferenceScale*1398.8 - 1 // raw level ~10.45

	below, _, err := config.Resolve(layer, justBelow, sheetMm, 0)
	require.NoError(t, err)
	above, _, err := config.Resolve(layer, justAbove, sheetMm, 0)
	require.NoError(t, err)

	assert.Equal(t, layer.MaxLevel()-10, below)
	assert.Equal(t, layer.MaxLevel()-11, above)
}

func TestPixelSize(t *testing.T) {
	assert.Equal(t, [2]int{600, 400}, PixelSize([2]float64{6000, 4000}, 10))
}
