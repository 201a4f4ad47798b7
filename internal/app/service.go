// Package service wires ingestion, session aggregation, stats and logging
// into the operations exposed by the CLI and the HTTP API.
package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/okian/drivescore/internal/adapters/ingest"
	"github.com/okian/drivescore/internal/domain/model"
	"github.com/okian/drivescore/internal/domain/session"
	"github.com/okian/drivescore/pkg/logger"
)

const defaultMaxSamples = 1_000_000

// Service scores driving sessions and keeps running statistics.
type Service struct {
	mu sync.RWMutex

	aggregator *session.Aggregator

	// Configuration
	maxSamples     int
	metricsEnabled bool

	// Stats
	sessionsScored int64
	samplesScored  int64
	sessionsFailed int64
	lastScore      float64
	lastSessionID  string
	lastScoredAt   time.Time
	startedAt      time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxSamples caps the number of samples accepted per session.
func WithMaxSamples(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSamples = n
		}
	}
}

// WithMetricsEnabled toggles Prometheus recording in the aggregator.
func WithMetricsEnabled(enabled bool) Option {
	return func(s *Service) {
		s.metricsEnabled = enabled
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxSamples:     defaultMaxSamples,
		metricsEnabled: true,
		startedAt:      time.Now(),
		logger:         logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.aggregator = session.NewAggregator(
		session.WithLogger(s.logger),
		session.WithMetricsEnabled(s.metricsEnabled),
	)
	return s
}

// MaxSamples returns the per-session sample cap.
func (s *Service) MaxSamples() int {
	return s.maxSamples
}

// ScoreSamples scores one ordered session.
func (s *Service) ScoreSamples(ctx context.Context, samples []model.Sample) (model.SessionResult, error) {
	if len(samples) > s.maxSamples {
		s.recordFailure()
		return model.SessionResult{}, fmt.Errorf("%w: %d exceeds limit %d", model.ErrTooManySamples, len(samples), s.maxSamples)
	}

	res, err := s.aggregator.Aggregate(ctx, samples)
	if err != nil {
		s.recordFailure()
		return model.SessionResult{}, fmt.Errorf("score session: %w", err)
	}

	s.mu.Lock()
	s.sessionsScored++
	s.samplesScored += int64(len(samples))
	s.lastScore = res.NormalizedScore
	s.lastSessionID = res.ID
	s.lastScoredAt = time.Now()
	s.mu.Unlock()

	s.logger.Info(ctx, "session scored",
		logger.String("session_id", res.ID),
		logger.Int("samples", len(samples)),
		logger.Float64("normalized_score", res.NormalizedScore),
	)
	return res, nil
}

// ScoreReader decodes a recorded log from r and scores it as one session.
func (s *Service) ScoreReader(ctx context.Context, r io.Reader) (model.SessionResult, error) {
	samples, err := ingest.DecodeAll(r)
	if err != nil {
		s.recordFailure()
		return model.SessionResult{}, fmt.Errorf("decode log: %w", err)
	}
	return s.ScoreSamples(ctx, samples)
}

// ScoreFile scores the log stored at path as one session.
func (s *Service) ScoreFile(ctx context.Context, path string) (model.SessionResult, error) {
	samples, err := ingest.DecodeFile(path)
	if err != nil {
		s.recordFailure()
		return model.SessionResult{}, err
	}
	return s.ScoreSamples(ctx, samples)
}

func (s *Service) recordFailure() {
	s.mu.Lock()
	s.sessionsFailed++
	s.mu.Unlock()
}

// GetStats returns a snapshot of service statistics.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"sessionsScored": s.sessionsScored,
		"samplesScored":  s.samplesScored,
		"sessionsFailed": s.sessionsFailed,
		"maxSamples":     s.maxSamples,
		"uptimeSeconds":  int64(time.Since(s.startedAt).Seconds()),
	}
	if s.sessionsScored > 0 {
		stats["lastScore"] = s.lastScore
		stats["lastSessionId"] = s.lastSessionID
		stats["lastScoredAt"] = s.lastScoredAt.UTC().Format(time.RFC3339)
	}
	return stats
}
