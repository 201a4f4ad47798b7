// Package session folds the per-sample scorer over an ordered driving
// session and reduces the raw scores to one normalized score.
package session

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/okian/drivescore/internal/domain/model"
	"github.com/okian/drivescore/internal/domain/scoring"
	"github.com/okian/drivescore/pkg/logger"
	"github.com/okian/drivescore/pkg/metrics"
)

// Normalization constants.
const (
	// MaxScorePerSample is a fixed calibration constant. A single sample can
	// score above it; the normalized value is clamped instead.
	MaxScorePerSample = 50.0
	minNormalized     = 0.0
	maxNormalized     = 100.0
)

// Aggregator scores whole sessions.
type Aggregator struct {
	logger         logger.Logger
	metricsEnabled bool
	newID          func() string
}

// NewAggregator creates an aggregator with configuration options.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		logger:         logger.Get().Named("session"),
		metricsEnabled: true,
		newID:          func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate scores samples in order. It fails on the first sample holding
// non-finite data and returns no partial result.
func (a *Aggregator) Aggregate(ctx context.Context, samples []model.Sample) (model.SessionResult, error) {
	res, err := Fold(samples)
	if err != nil {
		if a.metricsEnabled {
			metrics.RecordInvalidSample()
			metrics.RecordErrorByComponent("session", "invalid_sample")
		}
		a.logger.Warn(ctx, "session rejected", logger.Error(err))
		return model.SessionResult{}, err
	}
	res.ID = a.newID()

	if a.metricsEnabled {
		for _, raw := range res.RawScores {
			metrics.RecordSampleScored()
			metrics.RecordRawScore(raw)
		}
		metrics.RecordSessionScored(res.NormalizedScore, len(res.RawScores))
	}
	a.logger.Debug(ctx, "session scored",
		logger.String("session_id", res.ID),
		logger.Int("samples", len(res.RawScores)),
		logger.Float64("total_raw", res.TotalRaw),
		logger.Float64("normalized_score", res.NormalizedScore),
	)
	return res, nil
}

// Fold runs the scorer over samples, carrying the previous speed forward,
// and normalizes the total. An empty session scores 0.
func Fold(samples []model.Sample) (model.SessionResult, error) {
	res := model.SessionResult{
		Samples:   make([]model.ScoredSample, 0, len(samples)),
		RawScores: make([]float64, 0, len(samples)),
	}

	prev := scoring.NoPreviousSpeed
	for i, s := range samples {
		if err := s.Validate(); err != nil {
			return model.SessionResult{}, fmt.Errorf("sample %d: %w", i, err)
		}
		raw := scoring.Score(s, prev)
		if math.IsInf(raw, 0) || math.IsNaN(raw) || math.IsInf(res.TotalRaw+raw, 0) {
			return model.SessionResult{}, fmt.Errorf("sample %d: %w: raw score overflows", i, model.ErrInvalidSample)
		}
		res.Samples = append(res.Samples, model.ScoredSample{Sample: s, RawScore: raw})
		res.RawScores = append(res.RawScores, raw)
		res.TotalRaw += raw
		prev = scoring.PrevSpeed(s.Speed)
	}

	res.TotalMax = float64(len(samples)) * MaxScorePerSample
	res.NormalizedScore = Normalize(res.TotalRaw, len(samples))
	return res, nil
}

// Normalize scales totalRaw against n samples worth of MaxScorePerSample
// and clamps into [0, 100]. A NaN ratio clamps to 100.
func Normalize(totalRaw float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	totalMax := float64(n) * MaxScorePerSample
	v := totalRaw / totalMax * 100
	switch {
	case math.IsNaN(v), v > maxNormalized:
		return maxNormalized
	case v < minNormalized:
		return minNormalized
	default:
		return v
	}
}
