// Package calibration implements the recursive Bayesian estimator used to
// locate the stimulus temperature that elicits a target VAS (Visual Analog
// Scale) pain level.
//
// An Estimator holds a discretized probability distribution over candidate
// temperatures. After each trial the subject reports whether the presented
// temperature was painful at the target VAS level; the estimator updates its
// belief with a Gaussian-CDF likelihood and presents the posterior MAP
// temperature on the next trial. Today's posterior becomes tomorrow's prior.
//
// Basic usage:
//
//	est, err := calibration.New(calibration.Config{
//	    VASValue:  50,
//	    Trials:    7,
//	    TempStart: 40.0,
//	    TempStd:   3.5,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for trial := 0; trial < est.Trials(); trial++ {
//	    resp := askSubject(est.CurrentTemperature()) // Painful or NotPainful
//	    if err := est.ConductTrial(resp, trial); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
//	fmt.Printf("VAS %d estimate: %.1f °C\n", est.VASValue(), est.GetEstimate())
//
// The calibration/session subpackage chains two estimators into the full
// calibration session used by the experiment.
package calibration
