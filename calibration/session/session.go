package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/visserle/mpad-pilot/calibration"
)

// Responder supplies the subject's judgment of one presented stimulus.
// Implementations block until a response is available (a keypress, a replay
// script, a simulated subject) or ctx is done.
type Responder interface {
	Respond(ctx context.Context, vasValue int, temperature float64, trial int) (calibration.Response, error)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, vasValue int, temperature float64, trial int) (calibration.Response, error)

// Respond implements Responder.
func (f ResponderFunc) Respond(ctx context.Context, vasValue int, temperature float64, trial int) (calibration.Response, error) {
	return f(ctx, vasValue, temperature, trial)
}

// Config configures a calibration session.
// Zero values produce the experiment's defaults; see field comments.
type Config struct {
	TempStartVAS70        float64      `json:"temp_start_vas70"`       // °C, zero → 40.0
	TempStdVAS70          float64      `json:"temp_std_vas70"`         // zero → 3.5
	TrialsVAS70           int          `json:"trials_vas70"`           // zero → 7
	VAS0Offset            float64      `json:"vas0_offset"`            // °C below the VAS-70 estimate to seed VAS 0, zero → 3.0
	TempStdVAS0           float64      `json:"temp_std_vas0"`          // zero → 3.5
	TrialsVAS0            int          `json:"trials_vas0"`            // zero → 7
	PreexposureCorrection float64      `json:"preexposure_correction"` // °C knocked off the VAS-70 start after a painful pre-exposure, zero → 0.5
	MinSpan               float64      `json:"min_span"`               // minimum VAS-70 − VAS-0 distance in °C, zero → 1.0
	Logger                *slog.Logger `json:"-"`                      // nil → slog.Default()
}

// Estimate is the outcome of a single VAS target estimation.
type Estimate struct {
	VASValue    int       `json:"vas_value"`
	Temperature float64   `json:"temperature"` // °C
	StepsValid  bool      `json:"steps_valid"` // false when the walk never reversed direction
	History     []float64 `json:"history"`     // chosen temperature per trial, seed included
}

// Result is the outcome of a full calibration session.
type Result struct {
	RunID  string   `json:"run_id"`
	VAS70  Estimate `json:"vas70"`
	VAS0   Estimate `json:"vas0"`
	SpanOK bool     `json:"span_ok"` // estimates at least MinSpan apart
}

// Scale fits the psychometric temperature↔VAS line through the session's
// two estimates.
func (r Result) Scale() (Scale, error) {
	return FitScale(
		[]float64{r.VAS0.Temperature, r.VAS70.Temperature},
		[]float64{float64(r.VAS0.VASValue), float64(r.VAS70.VASValue)},
	)
}

// Runner drives a calibration session against a Responder.
type Runner struct {
	cfg Config
}

// NewRunner creates a Runner with the given config. Zero-value fields are
// filled with the experiment's defaults; estimator-level validation happens
// when Run constructs the estimators.
func NewRunner(cfg Config) *Runner {
	if cfg.TempStartVAS70 == 0 {
		cfg.TempStartVAS70 = 40.0
	}
	if cfg.TempStdVAS70 == 0 {
		cfg.TempStdVAS70 = 3.5
	}
	if cfg.TrialsVAS70 == 0 {
		cfg.TrialsVAS70 = 7
	}
	if cfg.VAS0Offset == 0 {
		cfg.VAS0Offset = 3.0
	}
	if cfg.TempStdVAS0 == 0 {
		cfg.TempStdVAS0 = 3.5
	}
	if cfg.TrialsVAS0 == 0 {
		cfg.TrialsVAS0 = 7
	}
	if cfg.PreexposureCorrection == 0 {
		cfg.PreexposureCorrection = 0.5
	}
	if cfg.MinSpan == 0 {
		cfg.MinSpan = 1.0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{cfg: cfg}
}

// Run executes the session: the VAS-70 estimation first, then the VAS-0
// estimation seeded from its result. preexposurePainful applies the
// configured start-temperature correction before the VAS-70 run, mirroring
// the pre-exposure feedback question.
//
// Partial state is not returned on error; the Responder sees each stimulus
// exactly once, in order.
func (r *Runner) Run(ctx context.Context, responder Responder, preexposurePainful bool) (Result, error) {
	res := Result{RunID: uuid.New().String()}

	start70 := r.cfg.TempStartVAS70
	if preexposurePainful {
		start70 -= r.cfg.PreexposureCorrection
		r.cfg.Logger.Info("pre-exposure was painful, lowering VAS 70 start",
			"correction", r.cfg.PreexposureCorrection,
			"temp_start", start70)
	}

	vas70, err := r.estimate(ctx, responder, 70, start70, r.cfg.TempStdVAS70, r.cfg.TrialsVAS70)
	if err != nil {
		return Result{}, err
	}
	res.VAS70 = vas70

	vas0, err := r.estimate(ctx, responder, 0, vas70.Temperature-r.cfg.VAS0Offset, r.cfg.TempStdVAS0, r.cfg.TrialsVAS0)
	if err != nil {
		return Result{}, err
	}
	res.VAS0 = vas0

	res.SpanOK = res.VAS70.Temperature-res.VAS0.Temperature >= r.cfg.MinSpan
	if !res.SpanOK {
		r.cfg.Logger.Warn("VAS 70 and VAS 0 estimates are too close together",
			"vas70", res.VAS70.Temperature,
			"vas0", res.VAS0.Temperature,
			"min_span", r.cfg.MinSpan)
	}
	return res, nil
}

// estimate runs one full estimator for a VAS target.
func (r *Runner) estimate(ctx context.Context, responder Responder, vasValue int, tempStart, tempStd float64, trials int) (Estimate, error) {
	est, err := calibration.New(calibration.Config{
		VASValue:  vasValue,
		Trials:    trials,
		TempStart: tempStart,
		TempStd:   tempStd,
		Logger:    r.cfg.Logger,
	})
	if err != nil {
		return Estimate{}, fmt.Errorf("session: vas %d estimator: %w", vasValue, err)
	}

	for trial := 0; trial < est.Trials(); trial++ {
		if err := ctx.Err(); err != nil {
			return Estimate{}, err
		}
		resp, err := responder.Respond(ctx, vasValue, est.CurrentTemperature(), trial)
		if err != nil {
			return Estimate{}, fmt.Errorf("session: vas %d trial %d: %w", vasValue, trial, err)
		}
		if err := est.ConductTrial(resp, trial); err != nil {
			return Estimate{}, fmt.Errorf("session: vas %d trial %d: %w", vasValue, trial, err)
		}
	}

	out := Estimate{
		VASValue:    vasValue,
		Temperature: est.GetEstimate(),
		StepsValid:  est.ValidateSteps(),
		History:     est.History(),
	}
	if !out.StepsValid {
		r.cfg.Logger.Error("calibration steps were all in the same direction",
			"vas", vasValue,
			"history", out.History)
	}
	r.cfg.Logger.Info("calibration estimate",
		"vas", vasValue,
		"temperature", out.Temperature)
	return out, nil
}
