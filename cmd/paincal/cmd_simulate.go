package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/visserle/mpad-pilot/calibration/session"
	"github.com/visserle/mpad-pilot/internal/config"
	"github.com/visserle/mpad-pilot/internal/logging"
)

var (
	simSeed        int64
	simPreexposure bool
	simJSON        bool
	simTargets     []float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a full calibration session against a simulated subject",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if simSeed != 0 {
			cfg.Simulation.Seed = simSeed
		}
		logger := logging.New(cfg.LogLevel, os.Stderr)

		subject := session.NewSimulatedSubject(
			cfg.Simulation.Threshold,
			cfg.Simulation.Span,
			cfg.Simulation.Noise,
			cfg.Simulation.Seed,
		)
		runner := session.NewRunner(cfg.SessionConfig(logger))

		res, err := runner.Run(cmd.Context(), subject, simPreexposure)
		if err != nil {
			return fmt.Errorf("simulate: %w", err)
		}

		if simJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		fmt.Printf("Run %s\n", res.RunID)
		fmt.Printf("VAS 70: %.1f °C (steps valid: %v)\n", res.VAS70.Temperature, res.VAS70.StepsValid)
		fmt.Printf("VAS 0:  %.1f °C (steps valid: %v)\n", res.VAS0.Temperature, res.VAS0.StepsValid)
		fmt.Printf("Span OK: %v\n", res.SpanOK)

		if len(simTargets) > 0 {
			scale, err := res.Scale()
			if err != nil {
				return fmt.Errorf("simulate: %w", err)
			}
			for _, vas := range simTargets {
				fmt.Printf("VAS %.0f: %.1f °C\n", vas, scale.Temperature(vas))
			}
		}
		return nil
	},
}

func init() {
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "simulated subject seed (overrides config)")
	simulateCmd.Flags().BoolVar(&simPreexposure, "preexposure-painful", false, "apply the pre-exposure start-temperature correction")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "output the session result as JSON")
	simulateCmd.Flags().Float64SliceVar(&simTargets, "targets", nil, "extra VAS targets to derive temperatures for, e.g. 10,30,50")
}
