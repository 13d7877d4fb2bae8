package calibration

import "errors"

// Sentinel errors for the calibration package.
// Use errors.Is to check: errors.Is(err, calibration.ErrTrialOutOfRange)
var (
	ErrInvalidParameters  = errors.New("calibration: estimator parameters out of bounds")
	ErrInvalidResponse    = errors.New("calibration: invalid response")
	ErrTrialOutOfRange    = errors.New("calibration: trial index out of range")
	ErrPosteriorUnderflow = errors.New("calibration: posterior probability mass vanished")
)
