package session

import (
	"github.com/okian/drivescore/pkg/logger"
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithLogger sets a custom logger for the aggregator.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetricsEnabled toggles Prometheus recording for scored sessions.
func WithMetricsEnabled(enabled bool) Option {
	return func(a *Aggregator) {
		a.metricsEnabled = enabled
	}
}

// WithIDGenerator overrides how session IDs are produced.
func WithIDGenerator(gen func() string) Option {
	return func(a *Aggregator) {
		if gen != nil {
			a.newID = gen
		}
	}
}
