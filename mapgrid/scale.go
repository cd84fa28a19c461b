package mapgrid

import (
	"fmt"
	"math"

	"github.com/creasty/defaults"
)

// ScaleConfig holds the tunables that map a continuous print scale onto the
// discrete level table of a tile service. The defaults are calibrated
// against the LIST basemap level list; deviate only after checking the
// service's published LODs.
type ScaleConfig struct {
	// ReferenceScale is the scale denominator of the finest level of the
	// service the config is calibrated for.
	ReferenceScale float64 `default:"1128.497176"`
	// BoundaryFraction splits the gap between two adjacent levels.
	// A raw level whose fractional part exceeds it is biased to the
	// coarser neighbour, which keeps output sharpness consistent for
	// scales that sit near a resolution boundary.
	BoundaryFraction float64 `default:"0.3"`
}

// DefaultScaleConfig returns a ScaleConfig with the calibrated defaults.
func DefaultScaleConfig() ScaleConfig {
	var c ScaleConfig
	if err := defaults.Set(&c); err != nil {
		panic(err)
	}
	return c
}

// Resolve converts a requested print scale and physical sheet size into a
// concrete level of the layer and the real-world extent of the sheet.
//
// Level indexing direction: a higher level index means a finer resolution,
// so a larger scale denominator (a more zoomed-out map) resolves to a lower
// level index. The mapping is monotonic in scale. zoomAdjust shifts the
// chosen level by whole steps after boundary correction, positive is finer.
func (c ScaleConfig) Resolve(layer Layer, scale float64, sheetMm [2]float64, zoomAdjust int) (level int, extentMetres [2]float64, err error) {
	if scale <= 0 {
		return 0, [2]float64{}, fmt.Errorf("%w: got %v", ErrInvalidScale, scale)
	}

	extentMetres = [2]float64{
		sheetMm[0] * scale / 1000,
		sheetMm[1] * scale / 1000,
	}

	// Number of doublings the requested scale sits above the finest level.
	rawLevel := math.Log2((scale + 1) / c.ReferenceScale)
	steps := int(math.Floor(rawLevel))
	if rawLevel-math.Floor(rawLevel) > c.BoundaryFraction {
		steps++
	}

	level = layer.MaxLevel() - steps + zoomAdjust
	if level < 0 {
		level = 0
	}
	if level > layer.MaxLevel() {
		level = layer.MaxLevel()
	}
	return level, extentMetres, nil
}

// PixelSize converts a metre extent to pixels at the given resolution.
func PixelSize(extentMetres [2]float64, resolution float64) [2]int {
	return [2]int{
		int(math.Round(extentMetres[0] / resolution)),
		int(math.Round(extentMetres[1] / resolution)),
	}
}
