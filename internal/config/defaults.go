package config

import "github.com/runnerr0/retrace/internal/extract"

// Default returns the built-in configuration used when no config file
// is present.
func Default() *Config {
	return &Config{
		Output: Output{Directory: ""},
		Labels: map[string]string{},
		Limits: Limits{TimestampWarnings: extract.DefaultWarnLimit},
	}
}
