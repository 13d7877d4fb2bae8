package session

import (
	"context"
	"math/rand"

	"github.com/visserle/mpad-pilot/calibration"
)

// SimulatedSubject answers stimulus questions from a linear psychometric
// model with Gaussian perception noise: a stimulus reads as painful when its
// perceived temperature reaches the subject's threshold for the asked VAS
// level.
type SimulatedSubject struct {
	Threshold float64 // °C eliciting VAS 0 (pain threshold)
	Span      float64 // °C between VAS 0 and VAS 100
	Noise     float64 // std of the per-trial perception noise in °C

	rng *rand.Rand
}

// NewSimulatedSubject creates a subject with the given psychometric line.
// The seed makes simulated runs reproducible.
func NewSimulatedSubject(threshold, span, noise float64, seed int64) *SimulatedSubject {
	return &SimulatedSubject{
		Threshold: threshold,
		Span:      span,
		Noise:     noise,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Respond implements Responder.
func (s *SimulatedSubject) Respond(ctx context.Context, vasValue int, temperature float64, trial int) (calibration.Response, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	target := s.Threshold + s.Span*float64(vasValue)/100
	perceived := temperature + s.rng.NormFloat64()*s.Noise
	if perceived >= target {
		return calibration.Painful, nil
	}
	return calibration.NotPainful, nil
}
