package model

import "errors"

// Sentinel error kinds shared across layers.
var (
	// ErrInvalidSample marks a record that cannot be turned into clean sample data.
	ErrInvalidSample = errors.New("invalid sample data")

	// ErrTooManySamples marks a session above the configured sample cap.
	ErrTooManySamples = errors.New("too many samples")
)
