// Package config holds the tunable matching parameters. The core never
// reads configuration from ambient globals; a Config value is threaded
// explicitly into every entry point.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config carries the five tunables consumed by the matching core.
type Config struct {
	// AutoMatchThreshold is the confidence total at or above which a
	// pairing is auto-matched rather than suggested.
	AutoMatchThreshold int `yaml:"auto_match_threshold"`

	// DateToleranceDays bounds how far apart dates may be before a
	// same-amount pair classifies as a timing difference.
	DateToleranceDays int `yaml:"date_tolerance_days"`

	// FeePercent and FeeFixed estimate the processing fee when a
	// transaction does not carry its actual fee in metadata.
	FeePercent float64 `yaml:"fee_percent"`
	FeeFixed   float64 `yaml:"fee_fixed"`
}

// Default returns the stock parameters.
func Default() Config {
	return Config{
		AutoMatchThreshold: 85,
		DateToleranceDays:  3,
		FeePercent:         2.9,
		FeeFixed:           0.30,
	}
}

// Load builds a Config from defaults, an optional YAML file, and
// RECONCILER_* environment variables, in that order of precedence.
// An empty path skips the file step.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v, ok := lookupInt("RECONCILER_AUTO_MATCH_THRESHOLD"); ok {
		cfg.AutoMatchThreshold = v
	}
	if v, ok := lookupInt("RECONCILER_DATE_TOLERANCE_DAYS"); ok {
		cfg.DateToleranceDays = v
	}
	if v, ok := lookupFloat("RECONCILER_FEE_PERCENT"); ok {
		cfg.FeePercent = v
	}
	if v, ok := lookupFloat("RECONCILER_FEE_FIXED"); ok {
		cfg.FeeFixed = v
	}
}

func lookupInt(key string) (int, bool) {
	s, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func lookupFloat(key string) (float64, bool) {
	s, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
