// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
)

// Sample is one recorded vehicle-control log record.
type Sample struct {
	SteeringAngle float64 `json:"steering_angle"` // degrees, signed
	Throttle      float64 `json:"throttle"`       // unitless, source dependent range
	Reverse       float64 `json:"reverse"`        // > 0 means reverse engaged
	Speed         float64 `json:"speed"`          // same unit as the speed limit
}

// ScoredSample is a Sample with its computed raw score.
type ScoredSample struct {
	Sample
	RawScore float64 `json:"raw_score"`
}

// SessionResult is the outcome of scoring one ordered session.
type SessionResult struct {
	ID              string         `json:"session_id"`
	Samples         []ScoredSample `json:"-"`
	RawScores       []float64      `json:"raw_scores"`
	TotalRaw        float64        `json:"total_raw"`
	TotalMax        float64        `json:"total_max"`
	NormalizedScore float64        `json:"normalized_score"`
}

// Validate reports whether every numeric field holds a finite value.
func (s Sample) Validate() error {
	fields := [...]struct {
		name string
		v    float64
	}{
		{"steering_angle", s.SteeringAngle},
		{"throttle", s.Throttle},
		{"reverse", s.Reverse},
		{"speed", s.Speed},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidSample, f.name, f.v)
		}
	}
	return nil
}
