// Command paincal is the companion CLI for the pain-calibration library.
// It runs simulated calibration sessions and single-estimator traces
// without any device or GUI attached.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgPath  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "paincal",
	Short: "Bayesian pain-calibration toolkit",
	Long: `paincal drives the recursive Bayesian VAS temperature estimator
without hardware: full simulated sessions against a psychometric subject
model, and single-estimator traces from scripted responses.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML experiment config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(traceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
