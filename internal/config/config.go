package config

import (
	"fmt"
	"time"
)

type Config struct {
	Backend BackendConfig
	Journal JournalConfig
	Dev     DevConfig
	Log     LogConfig
}

type BackendConfig struct {
	BaseURL string
	Timeout string
}

type JournalConfig struct {
	// DataDir is where the session journal lives. ":memory:" keeps it
	// in-memory for the lifetime of the process.
	DataDir string
}

type DevConfig struct {
	Port int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL: "http://127.0.0.1:8000",
			Timeout: "30s",
		},
		Journal: JournalConfig{
			DataDir: ":memory:",
		},
		Dev: DevConfig{
			Port: 8000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/smartshop/config.json, then applies SMARTSHOP_*
// environment variable overrides.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if _, err := time.ParseDuration(cfg.Backend.Timeout); err != nil {
		return Config{}, fmt.Errorf("invalid backend.timeout %q: %w", cfg.Backend.Timeout, err)
	}

	return cfg, nil
}

// BackendTimeout returns the request timeout as a duration. Load has
// already validated the string.
func (c Config) BackendTimeout() time.Duration {
	d, err := time.ParseDuration(c.Backend.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
