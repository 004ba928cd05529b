// Package config loads cmd/datomdb's YAML configuration file, modeled on
// the teacher pack's yaml.v3-based resource loading (cuemby-warren's
// apply command).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend names a storage.Store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendBadger Backend = "badger"
)

// LogLevel mirrors internal/dlog.Level as a YAML-friendly string.
type LogLevel string

// Config is cmd/datomdb's on-disk configuration.
type Config struct {
	Backend  Backend  `yaml:"backend"`
	DataDir  string   `yaml:"dataDir"`
	LogLevel LogLevel `yaml:"logLevel"`
	JSONLogs bool     `yaml:"jsonLogs"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Backend:  BackendMemory,
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file at path.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects a Config that Load or a hand-built caller got wrong.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendBadger:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.Backend == BackendBadger && c.DataDir == "" {
		return fmt.Errorf("config: dataDir is required for the badger backend")
	}
	return nil
}
