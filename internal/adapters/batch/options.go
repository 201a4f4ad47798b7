package batch

import (
	"github.com/okian/drivescore/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workerCount = n
		}
	}
}

// WithCapacity sets the maximum number of pending jobs.
func WithCapacity(capacity int) Option {
	return func(p *Pool) {
		if capacity > 0 {
			p.capacity = capacity
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
