package calibration

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// MaxTemp is the advisory ceiling in °C. Reaching it logs a warning, but the
// chosen temperature is never clamped: silently lowering the stimulus would
// change what the subject is actually presented, so aborting is the caller's
// call.
const MaxTemp = 48.0

// Config configures an Estimator.
// Zero values produce the experiment's defaults; see field comments.
type Config struct {
	VASValue        int          `json:"vas_value"`        // target VAS level; labels logs and results, not used in the update math
	Trials          int          `json:"trials"`           // zero → 7
	TempStart       float64      `json:"temp_start"`       // °C, zero → 38.0
	TempStd         float64      `json:"temp_std"`         // °C, std of the Gaussian prior, zero → 3.5
	LikelihoodStd   float64      `json:"likelihood_std"`   // °C, std of the trial likelihood, zero → 1.0
	ReductionFactor float64      `json:"reduction_factor"` // per-trial likelihood-std decay, zero → 0.9
	Logger          *slog.Logger `json:"-"`                // nil → slog.Default()
}

// Estimator recursively estimates the temperature eliciting a target VAS
// level. It holds a probability mass function over a fixed 0.1 °C grid of
// candidate temperatures; each binary trial response multiplies in a
// Gaussian-CDF likelihood and the posterior MAP becomes the next stimulus.
//
// An Estimator is not safe for concurrent use. Each calibration run owns
// exactly one instance per VAS target and drives it through exactly
// Trials() calls to ConductTrial.
type Estimator struct {
	vasValue        int
	trials          int
	tempStart       float64
	tempStd         float64
	likelihoodStd   float64
	reductionFactor float64
	logger          *slog.Logger

	grid        []float64 // fixed support, never regenerated after construction
	prior       []float64 // current belief; replaced by the posterior each trial
	currentTemp float64

	// Per-trial diagnostics, append-only.
	temps       []float64 // chosen temperatures, seeded with the start value
	priors      [][]float64
	likelihoods [][]float64
	posteriors  [][]float64
}

// New creates an Estimator from the given config.
// Zero-value fields are filled with defaults; invalid values return an error
// wrapping ErrInvalidParameters.
func New(cfg Config) (*Estimator, error) {
	// Zero → experiment defaults.
	if cfg.Trials == 0 {
		cfg.Trials = 7
	}
	if cfg.TempStart == 0 {
		cfg.TempStart = 38.0
	}
	if cfg.TempStd == 0 {
		cfg.TempStd = 3.5
	}
	if cfg.LikelihoodStd == 0 {
		cfg.LikelihoodStd = 1.0
	}
	if cfg.ReductionFactor == 0 {
		cfg.ReductionFactor = 0.9
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Trials < 1 {
		return nil, fmt.Errorf("%w: trials %d must be positive", ErrInvalidParameters, cfg.Trials)
	}
	if cfg.TempStd < 0 {
		return nil, fmt.Errorf("%w: temp std %.2f must be positive", ErrInvalidParameters, cfg.TempStd)
	}
	if cfg.LikelihoodStd < 0 {
		return nil, fmt.Errorf("%w: likelihood std %.2f must be positive", ErrInvalidParameters, cfg.LikelihoodStd)
	}
	if cfg.ReductionFactor < 0 || cfg.ReductionFactor >= 1 {
		return nil, fmt.Errorf("%w: reduction factor %.2f out of range (0, 1)", ErrInvalidParameters, cfg.ReductionFactor)
	}

	width, err := gridWidth(cfg.TempStd)
	if err != nil {
		return nil, err
	}
	grid := newGrid(cfg.TempStart-width, cfg.TempStart+width)

	// Gaussian prior sampled at the grid points, renormalized to a pmf.
	prior := make([]float64, len(grid))
	dist := distuv.Normal{Mu: cfg.TempStart, Sigma: cfg.TempStd}
	for i, t := range grid {
		prior[i] = dist.Prob(t)
	}
	floats.Scale(1/floats.Sum(prior), prior)

	return &Estimator{
		vasValue:        cfg.VASValue,
		trials:          cfg.Trials,
		tempStart:       cfg.TempStart,
		tempStd:         cfg.TempStd,
		likelihoodStd:   cfg.LikelihoodStd,
		reductionFactor: cfg.ReductionFactor,
		logger:          cfg.Logger,
		grid:            grid,
		prior:           prior,
		currentTemp:     cfg.TempStart, // MAP of the symmetric prior is its mean
		temps:           []float64{cfg.TempStart},
	}, nil
}

// ConductTrial updates the belief with the subject's response to the current
// temperature. trial is the 0-based index and must be inside the budget; the
// estimator otherwise trusts the caller to sequence indices 0..Trials()-1,
// so misordered calls are the caller's bug to catch (see Completed).
func (e *Estimator) ConductTrial(resp Response, trial int) error {
	if !resp.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidResponse, int(resp))
	}
	if trial < 0 || trial >= e.trials {
		return fmt.Errorf("%w: trial %d, budget %d", ErrTrialOutOfRange, trial, e.trials)
	}

	// A painful response means the stimulus was at or over the target VAS,
	// so the likelihood puts its mass on cooler candidates; a not-painful
	// response puts it on warmer ones.
	likelihood := make([]float64, len(e.grid))
	dist := distuv.Normal{Mu: e.currentTemp, Sigma: e.likelihoodStd}
	for i, t := range e.grid {
		if resp == Painful {
			likelihood[i] = 1 - dist.CDF(t)
		} else {
			likelihood[i] = dist.CDF(t)
		}
	}

	relation := "over"
	if resp == NotPainful {
		relation = "under"
	}
	e.logger.Info("calibration trial",
		"trial", trial+1,
		"trials", e.trials,
		"temperature", e.currentTemp,
		"relation", relation,
		"vas", e.vasValue)

	// Tighten the likelihood as evidence accumulates; the next trial uses
	// the reduced std.
	e.likelihoodStd *= e.reductionFactor

	posterior := make([]float64, len(e.grid))
	floats.MulTo(posterior, likelihood, e.prior)
	mass := floats.Sum(posterior)
	if mass <= 0 || math.IsNaN(mass) {
		// Grid too narrow or likelihood too peaked; surface it instead of
		// propagating NaNs. History stays valid up to the previous trial.
		return fmt.Errorf("%w: trial %d", ErrPosteriorUnderflow, trial)
	}
	floats.Scale(1/mass, posterior)

	e.currentTemp = round1(e.grid[floats.MaxIdx(posterior)])
	e.checkCeiling()

	e.priors = append(e.priors, e.prior)
	e.likelihoods = append(e.likelihoods, likelihood)
	e.posteriors = append(e.posteriors, posterior)
	e.temps = append(e.temps, e.currentTemp)

	// Today's posterior is tomorrow's prior.
	e.prior = append([]float64(nil), posterior...)
	return nil
}

// checkCeiling is the post-condition check on the chosen temperature: an
// advisory warning once it reaches MaxTemp. The value itself is left alone.
func (e *Estimator) checkCeiling() {
	if e.currentTemp >= MaxTemp {
		e.logger.Warn("maximum temperature reached",
			"max_temp", MaxTemp,
			"temperature", e.currentTemp,
			"vas", e.vasValue)
	}
}

// GetEstimate returns the most recently chosen temperature in °C, rounded
// to one decimal place. After the final trial this is the calibration
// result for the VAS target.
func (e *Estimator) GetEstimate() float64 {
	return e.temps[len(e.temps)-1]
}

// Steps returns the successive differences between chosen temperatures,
// one entry per completed trial.
func (e *Estimator) Steps() []float64 {
	steps := make([]float64, len(e.temps)-1)
	for i := range steps {
		steps[i] = e.temps[i+1] - e.temps[i]
	}
	return steps
}

// ValidateSteps reports whether the temperature reversed direction at least
// once during the run. A walk that only ever moved one way suggests the
// true threshold lies outside the grid, so the estimate should be flagged
// for review.
func (e *Estimator) ValidateSteps() bool {
	allUp, allDown := true, true
	for _, s := range e.Steps() {
		if s < 0 {
			allUp = false
		}
		if s > 0 {
			allDown = false
		}
	}
	return !(allUp || allDown)
}

// CurrentTemperature returns the temperature to present on the next trial.
func (e *Estimator) CurrentTemperature() float64 {
	return e.currentTemp
}

// Completed returns the number of completed trials. The estimator does not
// enforce call ordering; callers can assert their own sequencing against
// this count.
func (e *Estimator) Completed() int {
	return len(e.temps) - 1
}

// Trials returns the trial budget.
func (e *Estimator) Trials() int {
	return e.trials
}

// VASValue returns the target VAS level this instance estimates for.
func (e *Estimator) VASValue() int {
	return e.vasValue
}

// LikelihoodStd returns the std the next trial's likelihood will use.
func (e *Estimator) LikelihoodStd() float64 {
	return e.likelihoodStd
}

// Grid returns a copy of the candidate temperature grid.
func (e *Estimator) Grid() []float64 {
	return append([]float64(nil), e.grid...)
}

// History returns a copy of the chosen temperatures, starting with the
// construction-time seed.
func (e *Estimator) History() []float64 {
	return append([]float64(nil), e.temps...)
}

// Priors returns copies of the pre-update prior of each completed trial.
func (e *Estimator) Priors() [][]float64 {
	return copyRows(e.priors)
}

// Likelihoods returns copies of the likelihood of each completed trial.
func (e *Estimator) Likelihoods() [][]float64 {
	return copyRows(e.likelihoods)
}

// Posteriors returns copies of the posterior of each completed trial.
func (e *Estimator) Posteriors() [][]float64 {
	return copyRows(e.posteriors)
}

func copyRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
