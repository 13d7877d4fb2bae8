package calibration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
)

const epsilon = 1e-9

func assertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %.6f, want %.6f (diff %.6f)", name, got, want, math.Abs(got-want))
	}
}

func mustEstimator(t *testing.T, cfg Config) *Estimator {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}

// captureHandler records every slog record it sees, for warn-path tests.
type captureHandler struct {
	records *[]slog.Record
}

func (h captureHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h captureHandler) Handle(_ context.Context, r slog.Record) error {
	*h.records = append(*h.records, r)
	return nil
}
func (h captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h captureHandler) WithGroup(string) slog.Handler      { return h }

// scenarioCfg is the configuration of the concrete reference scenario:
// VAS 50, start 40.0 °C, prior std 3.0 → grid 36.0–44.0 step 0.1.
func scenarioCfg(trials int) Config {
	return Config{
		VASValue:  50,
		Trials:    trials,
		TempStart: 40.0,
		TempStd:   3.0,
	}
}

// --- New ---

func TestNewDefaults(t *testing.T) {
	e := mustEstimator(t, Config{})
	if e.Trials() != 7 {
		t.Errorf("Trials = %d, want 7", e.Trials())
	}
	assertFloat(t, "CurrentTemperature", e.CurrentTemperature(), 38.0)
	assertFloat(t, "LikelihoodStd", e.LikelihoodStd(), 1.0)
	assertFloat(t, "reductionFactor", e.reductionFactor, 0.9)
	// temp_std 3.5 → width 4 → 34.0–42.0
	grid := e.Grid()
	assertFloat(t, "grid min", grid[0], 34.0)
	assertFloat(t, "grid max", grid[len(grid)-1], 42.0)
}

func TestNewInvalidTrials(t *testing.T) {
	_, err := New(Config{Trials: -1})
	if !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("New(trials=-1) err = %v, want ErrInvalidParameters", err)
	}
}

func TestNewInvalidLikelihoodStd(t *testing.T) {
	_, err := New(Config{LikelihoodStd: -0.5})
	if !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("New(likelihoodStd=-0.5) err = %v, want ErrInvalidParameters", err)
	}
}

func TestNewInvalidReductionFactor(t *testing.T) {
	for _, rf := range []float64{-0.1, 1.0, 1.5} {
		_, err := New(Config{ReductionFactor: rf})
		if !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("New(reductionFactor=%v) err = %v, want ErrInvalidParameters", rf, err)
		}
	}
}

func TestNewTempStdOutOfRange(t *testing.T) {
	// The width lookup only covers int(std) 0..3.
	for _, std := range []float64{4.0, 5.5, -1.0} {
		_, err := New(Config{TempStd: std})
		if !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("New(tempStd=%v) err = %v, want ErrInvalidParameters", std, err)
		}
	}
}

// --- Grid and prior ---

func TestGridSpacingAndBounds(t *testing.T) {
	e := mustEstimator(t, scenarioCfg(3))
	grid := e.Grid()
	if len(grid) != 81 {
		t.Fatalf("len(grid) = %d, want 81", len(grid))
	}
	assertFloat(t, "grid[0]", grid[0], 36.0)
	assertFloat(t, "grid[80]", grid[80], 44.0)
	for i := 1; i < len(grid); i++ {
		assertFloat(t, "grid spacing", grid[i]-grid[i-1], 0.1)
	}
}

func TestPriorNormalized(t *testing.T) {
	e := mustEstimator(t, scenarioCfg(3))
	var sum float64
	for _, p := range e.prior {
		if p < 0 {
			t.Fatalf("negative prior mass %v", p)
		}
		sum += p
	}
	assertFloat(t, "sum(prior)", sum, 1.0)
}

func TestHistorySeededWithStart(t *testing.T) {
	e := mustEstimator(t, scenarioCfg(3))
	hist := e.History()
	if len(hist) != 1 {
		t.Fatalf("len(History) = %d, want 1", len(hist))
	}
	assertFloat(t, "History[0]", hist[0], 40.0)
	if e.Completed() != 0 {
		t.Errorf("Completed = %d, want 0", e.Completed())
	}
	if len(e.Priors()) != 0 || len(e.Likelihoods()) != 0 || len(e.Posteriors()) != 0 {
		t.Error("diagnostic sequences should start empty")
	}
}

// --- ConductTrial ---

// Reference trajectory for painful, not painful, painful from 40.0 °C:
// a painful response means the stimulus was over the target, so the
// estimate first steps down, then back up, then down again.
func TestConductTrialReferenceScenario(t *testing.T) {
	e := mustEstimator(t, scenarioCfg(3))
	script := []Response{Painful, NotPainful, Painful}
	want := []float64{38.6, 39.4, 38.9}

	for trial, resp := range script {
		if err := e.ConductTrial(resp, trial); err != nil {
			t.Fatalf("ConductTrial(%d): %v", trial, err)
		}
		assertFloat(t, "CurrentTemperature", e.CurrentTemperature(), want[trial])
	}

	assertFloat(t, "GetEstimate", e.GetEstimate(), 38.9)
	if est := e.GetEstimate(); est <= 36.0 || est >= 44.0 {
		t.Errorf("estimate %.1f outside open grid interval (36.0, 44.0)", est)
	}
	if !e.ValidateSteps() {
		t.Error("ValidateSteps = false, want true (direction reversed)")
	}
	if got := e.History(); len(got) != 4 {
		t.Errorf("len(History) = %d, want 4", len(got))
	}
}

func TestConductTrialAllPainful(t *testing.T) {
	e := mustEstimator(t, scenarioCfg(5))
	want := []float64{38.6, 37.5, 36.6, 36.0, 36.0}

	for trial := 0; trial < 5; trial++ {
		if err := e.ConductTrial(Painful, trial); err != nil {
			t.Fatalf("ConductTrial(%d): %v", trial, err)
		}
		assertFloat(t, "CurrentTemperature", e.CurrentTemperature(), want[trial])
	}

	// Monotone walk toward the lower grid bound, no reversal.
	steps := e.Steps()
	for i, s := range steps {
		if s > 0 {
			t.Errorf("steps[%d] = %v, want non-positive", i, s)
		}
	}
	assertFloat(t, "final estimate", e.GetEstimate(), 36.0)
	if e.ValidateSteps() {
		t.Error("ValidateSteps = true, want false (all steps one direction)")
	}
}

func TestPosteriorsNormalized(t *testing.T) {
	e := mustEstimator(t, scenarioCfg(3))
	script := []Response{Painful, NotPainful, Painful}
	for trial, resp := range script {
		if err := e.ConductTrial(resp, trial); err != nil {
			t.Fatalf("ConductTrial(%d): %v", trial, err)
		}
	}
	for i, post := range e.Posteriors() {
		var sum float64
		for _, p := range post {
			sum += p
		}
		assertFloat(t, "sum(posterior)", sum, 1.0)
		// Stored prior of the next trial equals this posterior.
		if i+1 < len(e.Priors()) {
			prior := e.Priors()[i+1]
			for j := range post {
				assertFloat(t, "posterior→prior recursion", prior[j], post[j])
			}
		}
	}
}

func TestLikelihoodMonotone(t *testing.T) {
	painful := mustEstimator(t, scenarioCfg(1))
	if err := painful.ConductTrial(Painful, 0); err != nil {
		t.Fatal(err)
	}
	lik := painful.Likelihoods()[0]
	for i := 1; i < len(lik); i++ {
		if lik[i] > lik[i-1]+epsilon {
			t.Fatalf("painful likelihood increased at %d: %v > %v", i, lik[i], lik[i-1])
		}
	}

	notPainful := mustEstimator(t, scenarioCfg(1))
	if err := notPainful.ConductTrial(NotPainful, 0); err != nil {
		t.Fatal(err)
	}
	lik = notPainful.Likelihoods()[0]
	for i := 1; i < len(lik); i++ {
		if lik[i] < lik[i-1]-epsilon {
			t.Fatalf("not-painful likelihood decreased at %d: %v < %v", i, lik[i], lik[i-1])
		}
	}
}

func TestLikelihoodStdDecay(t *testing.T) {
	e := mustEstimator(t, scenarioCfg(5))
	for trial := 0; trial < 5; trial++ {
		if err := e.ConductTrial(Painful, trial); err != nil {
			t.Fatal(err)
		}
		want := math.Pow(0.9, float64(trial+1))
		assertFloat(t, "LikelihoodStd", e.LikelihoodStd(), want)
	}
}

func TestHistoryGrowth(t *testing.T) {
	e := mustEstimator(t, scenarioCfg(5))
	for trial := 0; trial < 5; trial++ {
		if err := e.ConductTrial(Painful, trial); err != nil {
			t.Fatal(err)
		}
		if got := len(e.History()); got != trial+2 {
			t.Errorf("after trial %d: len(History) = %d, want %d", trial, got, trial+2)
		}
		if e.Completed() != trial+1 {
			t.Errorf("Completed = %d, want %d", e.Completed(), trial+1)
		}
		if len(e.Priors()) != trial+1 || len(e.Likelihoods()) != trial+1 || len(e.Posteriors()) != trial+1 {
			t.Errorf("after trial %d: diagnostics lengths %d/%d/%d, want %d",
				trial, len(e.Priors()), len(e.Likelihoods()), len(e.Posteriors()), trial+1)
		}
	}
}

func TestGetEstimateIdempotent(t *testing.T) {
	e := mustEstimator(t, scenarioCfg(2))
	if err := e.ConductTrial(Painful, 0); err != nil {
		t.Fatal(err)
	}
	first := e.GetEstimate()
	second := e.GetEstimate()
	assertFloat(t, "repeated GetEstimate", second, first)
	if e.Completed() != 1 {
		t.Errorf("Completed = %d, want 1 (reads must not advance state)", e.Completed())
	}
}

// --- Error paths ---

func TestConductTrialInvalidResponse(t *testing.T) {
	e := mustEstimator(t, scenarioCfg(3))
	for _, resp := range []Response{0, 3, -1} {
		err := e.ConductTrial(resp, 0)
		if !errors.Is(err, ErrInvalidResponse) {
			t.Errorf("ConductTrial(resp=%d) err = %v, want ErrInvalidResponse", int(resp), err)
		}
	}
	if e.Completed() != 0 {
		t.Errorf("Completed = %d, want 0 after rejected trials", e.Completed())
	}
}

func TestConductTrialIndexOutOfRange(t *testing.T) {
	e := mustEstimator(t, scenarioCfg(3))
	for _, trial := range []int{-1, 3, 7} {
		err := e.ConductTrial(Painful, trial)
		if !errors.Is(err, ErrTrialOutOfRange) {
			t.Errorf("ConductTrial(trial=%d) err = %v, want ErrTrialOutOfRange", trial, err)
		}
	}
	if e.Completed() != 0 {
		t.Errorf("Completed = %d, want 0 after rejected trials", e.Completed())
	}
}

func TestConductTrialPosteriorUnderflow(t *testing.T) {
	e := mustEstimator(t, scenarioCfg(3))
	// Force the defensive path: with no prior mass anywhere the posterior
	// cannot be normalized.
	for i := range e.prior {
		e.prior[i] = 0
	}
	err := e.ConductTrial(Painful, 0)
	if !errors.Is(err, ErrPosteriorUnderflow) {
		t.Fatalf("err = %v, want ErrPosteriorUnderflow", err)
	}
	if e.Completed() != 0 {
		t.Errorf("Completed = %d, want 0 (failed trial must not append history)", e.Completed())
	}
}

// --- Ceiling ---

func TestCeilingWarningNotClamped(t *testing.T) {
	var records []slog.Record
	logger := slog.New(captureHandler{records: &records})

	// Start near the ceiling; every not-painful response pushes the MAP up.
	e := mustEstimator(t, Config{
		VASValue:  70,
		Trials:    4,
		TempStart: 47.5,
		TempStd:   1.0,
		Logger:    logger,
	})

	want := []float64{48.0, 48.4, 48.8, 49.1}
	for trial := 0; trial < 4; trial++ {
		if err := e.ConductTrial(NotPainful, trial); err != nil {
			t.Fatalf("ConductTrial(%d): %v", trial, err)
		}
		assertFloat(t, "CurrentTemperature", e.CurrentTemperature(), want[trial])
	}

	// The value crossed MaxTemp and was not clamped.
	if e.GetEstimate() < MaxTemp {
		t.Errorf("estimate %.1f, want >= MaxTemp %.1f (advisory only, no clamping)", e.GetEstimate(), MaxTemp)
	}

	warns := 0
	for _, r := range records {
		if r.Level == slog.LevelWarn {
			warns++
		}
	}
	if warns != 4 {
		t.Errorf("warn records = %d, want 4 (one per trial at or above the ceiling)", warns)
	}
}

// --- ValidateSteps edge cases ---

func TestValidateStepsNoTrials(t *testing.T) {
	e := mustEstimator(t, scenarioCfg(3))
	if e.ValidateSteps() {
		t.Error("ValidateSteps = true with no trials, want false")
	}
}

// --- Accessor isolation ---

func TestAccessorsReturnCopies(t *testing.T) {
	e := mustEstimator(t, scenarioCfg(3))
	if err := e.ConductTrial(Painful, 0); err != nil {
		t.Fatal(err)
	}

	e.Grid()[0] = -1
	e.History()[0] = -1
	e.Priors()[0][0] = -1
	e.Likelihoods()[0][0] = -1
	e.Posteriors()[0][0] = -1

	assertFloat(t, "grid[0]", e.Grid()[0], 36.0)
	assertFloat(t, "History[0]", e.History()[0], 40.0)
	if e.Priors()[0][0] == -1 || e.Likelihoods()[0][0] == -1 || e.Posteriors()[0][0] == -1 {
		t.Error("diagnostic accessors must return copies")
	}
}
