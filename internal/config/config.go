// Package config loads the experiment configuration for the paincal CLI.
// Settings come from a YAML file layered over built-in defaults; a zero
// value anywhere means "use the default", matching the convention of the
// library packages.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/visserle/mpad-pilot/calibration/session"
)

// SessionConfig holds the calibration session parameters.
// Zero values fall through to the session package defaults.
type SessionConfig struct {
	TempStartVAS70        float64 `yaml:"temp_start_vas70"`
	TempStdVAS70          float64 `yaml:"temp_std_vas70"`
	TrialsVAS70           int     `yaml:"trials_vas70"`
	VAS0Offset            float64 `yaml:"vas0_offset"`
	TempStdVAS0           float64 `yaml:"temp_std_vas0"`
	TrialsVAS0            int     `yaml:"trials_vas0"`
	PreexposureCorrection float64 `yaml:"preexposure_correction"`
	MinSpan               float64 `yaml:"min_span"`
}

// SimulationConfig configures the simulated subject used by
// `paincal simulate`.
type SimulationConfig struct {
	Threshold float64 `yaml:"threshold"` // °C at VAS 0, zero → 39.0
	Span      float64 `yaml:"span"`      // °C from VAS 0 to VAS 100, zero → 4.0
	Noise     float64 `yaml:"noise"`     // perception noise std in °C, zero → 0.3
	Seed      int64   `yaml:"seed"`      // zero → 1
}

// Config is the root of the experiment configuration file.
type Config struct {
	Session    SessionConfig    `yaml:"session"`
	Simulation SimulationConfig `yaml:"simulation"`
	LogLevel   string           `yaml:"log_level"` // "info" (default), "debug", "warn", "error"
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path and layers it over the defaults.
// An empty path returns Default.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	// Session zeros are resolved by session.NewRunner; only the CLI-local
	// settings need filling here.
	if c.Simulation.Threshold == 0 {
		c.Simulation.Threshold = 39.0
	}
	if c.Simulation.Span == 0 {
		c.Simulation.Span = 4.0
	}
	if c.Simulation.Noise == 0 {
		c.Simulation.Noise = 0.3
	}
	if c.Simulation.Seed == 0 {
		c.Simulation.Seed = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// SessionConfig converts the file settings into the session package config.
func (c *Config) SessionConfig(logger *slog.Logger) session.Config {
	return session.Config{
		TempStartVAS70:        c.Session.TempStartVAS70,
		TempStdVAS70:          c.Session.TempStdVAS70,
		TrialsVAS70:           c.Session.TrialsVAS70,
		VAS0Offset:            c.Session.VAS0Offset,
		TempStdVAS0:           c.Session.TempStdVAS0,
		TrialsVAS0:            c.Session.TrialsVAS0,
		PreexposureCorrection: c.Session.PreexposureCorrection,
		MinSpan:               c.Session.MinSpan,
		Logger:                logger,
	}
}
