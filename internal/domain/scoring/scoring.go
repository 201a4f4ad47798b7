// Package scoring computes the per-sample driving safety score.
//
// Score is a pure function of a sample and the speed of the sample recorded
// right before it. All thresholds are fixed policy constants.
package scoring

import (
	"math"

	"github.com/okian/drivescore/internal/domain/model"
)

// Speed policy.
const (
	SpeedLimit         = 30.0
	speedWeight        = 30.0
	outOfRangePenalty  = 10.0
	smoothnessLimit    = 5.0
	smoothnessBonus    = 3.0
	speedChangePerUnit = 1.0
)

// Steering policy, in degrees.
const (
	SteeringUTurn      = 25.0
	laneKeepingLimit   = 5.0
	laneKeepingBonus   = 10.0
	turnBonus          = 5.0
	sharpTurnPerDegree = 0.5
)

// Throttle and reverse policy.
const (
	throttleFactor = 1.0
	reversePenalty = 5.0
)

// PreviousSpeed carries the speed of the preceding sample in session order,
// or nothing for the first sample.
type PreviousSpeed struct {
	value float64
	ok    bool
}

// NoPreviousSpeed marks the first sample of a session.
var NoPreviousSpeed = PreviousSpeed{} //nolint:gochecknoglobals // immutable zero marker

// PrevSpeed wraps the speed of the preceding sample.
func PrevSpeed(v float64) PreviousSpeed {
	return PreviousSpeed{value: v, ok: true}
}

// Value returns the carried speed and whether one is present.
func (p PreviousSpeed) Value() (float64, bool) {
	return p.value, p.ok
}

// Terms holds the individual additive contributions of one sample.
type Terms struct {
	Speed      float64 `json:"speed"`
	Smoothness float64 `json:"smoothness"`
	Steering   float64 `json:"steering"`
	Throttle   float64 `json:"throttle"`
	Reverse    float64 `json:"reverse"`
}

// Total sums the terms in their fixed evaluation order.
func (t Terms) Total() float64 {
	total := 0.0
	total += t.Speed
	total += t.Smoothness
	total += t.Steering
	total += t.Throttle
	total += t.Reverse
	return total
}

// Breakdown evaluates every scoring term for s.
func Breakdown(s model.Sample, prev PreviousSpeed) Terms {
	return Terms{
		Speed:      speedTerm(s.Speed),
		Smoothness: smoothnessTerm(s.Speed, prev),
		Steering:   steeringTerm(s.SteeringAngle),
		Throttle:   s.Throttle * throttleFactor,
		Reverse:    reverseTerm(s.Reverse),
	}
}

// Score returns the raw score of s. It never fails.
func Score(s model.Sample, prev PreviousSpeed) float64 {
	return Breakdown(s, prev).Total()
}

// speedTerm rewards speeds inside (0, SpeedLimit] proportionally. A stopped
// sample is penalized like an overspeeding one.
func speedTerm(speed float64) float64 {
	if speed > 0 && speed <= SpeedLimit {
		return (speed / SpeedLimit) * speedWeight
	}
	return -outOfRangePenalty
}

func smoothnessTerm(speed float64, prev PreviousSpeed) float64 {
	p, ok := prev.Value()
	if !ok {
		return 0
	}
	diff := math.Abs(speed - p)
	if diff > smoothnessLimit {
		return -diff * speedChangePerUnit
	}
	return smoothnessBonus
}

func steeringTerm(angle float64) float64 {
	a := math.Abs(angle)
	switch {
	case a < laneKeepingLimit:
		return laneKeepingBonus
	case a <= SteeringUTurn:
		return turnBonus
	default:
		return -a * sharpTurnPerDegree
	}
}

func reverseTerm(reverse float64) float64 {
	if reverse > 0 {
		return -reversePenalty
	}
	return 0
}
