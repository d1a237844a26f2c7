// Package config loads retrace configuration from a YAML file and
// merges it with defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/retrace/config.yaml"

// Config holds all retrace configuration.
type Config struct {
	Output Output `yaml:"output"`
	// Labels maps engine identifiers (gecko, chromium, webkit) to
	// display labels substituted for the engine defaults.
	Labels map[string]string `yaml:"labels"`
	Limits Limits            `yaml:"limits"`
}

type Output struct {
	// Directory is prepended to derived output filenames when the
	// caller gives no explicit output path.
	Directory string `yaml:"directory"`
}

type Limits struct {
	// TimestampWarnings is the per-category validation-failure count
	// at which an extractor aborts early.
	TimestampWarnings int `yaml:"timestamp_warnings"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Limits.TimestampWarnings <= 0 {
		cfg.Limits.TimestampWarnings = Default().Limits.TimestampWarnings
	}

	return cfg, nil
}

// LoadOrDefault loads the config from path, or from the default path
// when path is empty. A missing default file is not an error; defaults
// apply. A missing explicit file is.
func LoadOrDefault(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		expanded, err := expandPath(DefaultConfigPath)
		if err != nil {
			return Default(), nil
		}
		path = expanded
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return Default(), nil
	}

	return Load(path)
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
