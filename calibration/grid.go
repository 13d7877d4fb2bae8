package calibration

import (
	"fmt"
	"math"
)

// gridStep is the candidate spacing in °C, matching the thermode's
// temperature resolution.
const gridStep = 0.1

// gridWidth maps the integer-truncated prior std to the grid half-width in
// °C. Calibration only ever runs with prior stds under 4 °C; a wider prior
// needs an explicit new case here rather than a silently larger stimulus
// range.
func gridWidth(tempStd float64) (float64, error) {
	switch int(tempStd) {
	case 0:
		return 1.0, nil // e.g. 38.0 ± 1.0
	case 1:
		return 2.0, nil
	case 2:
		return 3.0, nil
	case 3:
		return 4.0, nil
	}
	return 0, fmt.Errorf("%w: temp std %.2f outside supported range [0, 4)", ErrInvalidParameters, tempStd)
}

// newGrid returns the inclusive candidate range [min, max] at gridStep
// spacing, endpoints exact.
func newGrid(min, max float64) []float64 {
	n := int(math.Round((max-min)/gridStep)) + 1
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = min + (max-min)*float64(i)/float64(n-1)
	}
	return grid
}

// round1 rounds to one decimal place, the resolution temperatures are
// presented at.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
