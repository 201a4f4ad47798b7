package batch

import "errors"

// Sentinel kinds for batch errors.
var (
	ErrStopped = errors.New("batch pool stopped")
)
