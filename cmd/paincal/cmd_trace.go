package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/visserle/mpad-pilot/calibration"
	"github.com/visserle/mpad-pilot/internal/logging"
)

var (
	traceVAS       int
	traceStart     float64
	traceStd       float64
	traceResponses string
	traceFull      bool
)

// traceOutput is the JSON shape written by `paincal trace`.
type traceOutput struct {
	VASValue    int         `json:"vas_value"`
	Grid        []float64   `json:"grid,omitempty"`
	History     []float64   `json:"history"`
	Steps       []float64   `json:"steps"`
	StepsValid  bool        `json:"steps_valid"`
	Estimate    float64     `json:"estimate"`
	Priors      [][]float64 `json:"priors,omitempty"`
	Likelihoods [][]float64 `json:"likelihoods,omitempty"`
	Posteriors  [][]float64 `json:"posteriors,omitempty"`
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Run one estimator from scripted responses and dump its trajectory",
	Long: `trace feeds a comma-separated response script (y/n or
painful/not_painful) to a single estimator and writes the resulting
trajectory as JSON. With --full the per-trial prior, likelihood, and
posterior arrays are included.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		parts := strings.Split(traceResponses, ",")
		if traceResponses == "" || len(parts) == 0 {
			return fmt.Errorf("trace: --responses is required, e.g. --responses y,n,y")
		}
		responses := make([]calibration.Response, len(parts))
		for i, p := range parts {
			r, err := calibration.ParseResponse(p)
			if err != nil {
				return fmt.Errorf("trace: %w", err)
			}
			responses[i] = r
		}

		logger := logging.New(logLevel, os.Stderr)
		est, err := calibration.New(calibration.Config{
			VASValue:  traceVAS,
			Trials:    len(responses),
			TempStart: traceStart,
			TempStd:   traceStd,
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("trace: %w", err)
		}

		for trial, resp := range responses {
			if err := est.ConductTrial(resp, trial); err != nil {
				return fmt.Errorf("trace: %w", err)
			}
		}

		out := traceOutput{
			VASValue:   est.VASValue(),
			History:    est.History(),
			Steps:      est.Steps(),
			StepsValid: est.ValidateSteps(),
			Estimate:   est.GetEstimate(),
		}
		if traceFull {
			out.Grid = est.Grid()
			out.Priors = est.Priors()
			out.Likelihoods = est.Likelihoods()
			out.Posteriors = est.Posteriors()
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	traceCmd.Flags().IntVar(&traceVAS, "vas", 50, "VAS target label")
	traceCmd.Flags().Float64Var(&traceStart, "start", 40.0, "start temperature in °C")
	traceCmd.Flags().Float64Var(&traceStd, "std", 3.5, "prior std in °C")
	traceCmd.Flags().StringVar(&traceResponses, "responses", "", "comma-separated response script, e.g. y,n,y")
	traceCmd.Flags().BoolVar(&traceFull, "full", false, "include per-trial prior/likelihood/posterior arrays")
}
