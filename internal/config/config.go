// Package config defines drivescore configuration and its loading rules.
//
// Conventions:
// - New() returns a Config holding defaults.
// - Load(ctx, path) layers defaults, an optional YAML file and DRIVESCORE_* env vars.
// - Validation failures wrap ErrInvalidConfig; provider failures wrap ErrLoadConfig.
package config

// Config contains process configuration. Scoring policy is fixed and is
// deliberately absent here.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address for `serve`, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxSamples caps the number of samples accepted in one HTTP session.
	MaxSamples int `koanf:"max_samples"`

	// Tail is how many trailing raw scores `score` prints per file.
	Tail int `koanf:"tail"`

	// Workers is how many logs `score` scores in parallel; 0 means one per CPU.
	Workers int `koanf:"workers"`

	// MetricsEnabled toggles Prometheus recording.
	MetricsEnabled bool `koanf:"metrics_enabled"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		MaxSamples:     1_000_000,
		Tail:           10,
		Workers:        0,
		MetricsEnabled: true,
	}
}
