package mapgrid

import (
	"fmt"
	"math"
)

// GridSpacing chooses the on-paper spacing, in millimetres, of the
// kilometre reference grid for a map at the given scale. The spacing is
// the smallest whole-kilometre multiple that is at least minSpacingMm on
// paper, so grids stay legible at coarse scales.
func GridSpacing(scale, minSpacingMm float64) (float64, error) {
	if scale <= 0 {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidScale, scale)
	}
	mmPerKm := 1_000_000 / scale
	multiplier := math.Ceil(minSpacingMm / mmPerKm)
	return multiplier * mmPerKm, nil
}

// GridInterval returns the real-world distance between grid lines in
// kilometres for the spacing chosen by GridSpacing.
func GridInterval(scale, minSpacingMm float64) (float64, error) {
	spacing, err := GridSpacing(scale, minSpacingMm)
	if err != nil {
		return 0, err
	}
	return spacing * scale / 1_000_000, nil
}

// Offsets lists the positions of grid lines across a viewport of the
// given length, at the given spacing, excluding both borders.
func Offsets(length, spacing float64) []float64 {
	if spacing <= 0 {
		return nil
	}
	var offsets []float64
	for pos := spacing; pos < length; pos += spacing {
		offsets = append(offsets, pos)
	}
	return offsets
}
