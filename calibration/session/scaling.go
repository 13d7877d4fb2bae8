package session

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scale is a linear psychometric mapping between stimulus temperature and
// VAS rating, least-squares fitted through observed (temperature, rating)
// pairs. It derives presentation temperatures for VAS targets that were not
// estimated directly (10, 30, 50, …).
type Scale struct {
	Intercept float64 `json:"intercept"` // extrapolated VAS at 0 °C
	Slope     float64 `json:"slope"`     // VAS units per °C
}

// FitScale fits a Scale through the given temperatures and ratings.
// At least two points with distinct temperatures are required.
func FitScale(temps, ratings []float64) (Scale, error) {
	if len(temps) != len(ratings) {
		return Scale{}, fmt.Errorf("session: %d temperatures vs %d ratings", len(temps), len(ratings))
	}
	if len(temps) < 2 {
		return Scale{}, fmt.Errorf("session: need at least two points to fit a scale, got %d", len(temps))
	}
	alpha, beta := stat.LinearRegression(temps, ratings, nil, false)
	if beta == 0 || math.IsNaN(beta) || math.IsInf(beta, 0) {
		return Scale{}, fmt.Errorf("session: degenerate scale fit, slope %v", beta)
	}
	return Scale{Intercept: alpha, Slope: beta}, nil
}

// Rating returns the VAS rating the scale predicts for a temperature.
func (s Scale) Rating(temp float64) float64 {
	return s.Intercept + s.Slope*temp
}

// Temperature returns the temperature predicted to elicit the given rating.
func (s Scale) Temperature(vas float64) float64 {
	return (vas - s.Intercept) / s.Slope
}
