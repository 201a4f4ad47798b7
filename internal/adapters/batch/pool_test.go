package batch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/drivescore/internal/adapters/batch"
	"github.com/okian/drivescore/internal/domain/model"
	"github.com/okian/drivescore/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type mockScorer struct {
	mu     sync.Mutex
	scores map[string]float64
	errs   map[string]error
	calls  int
}

func (m *mockScorer) ScoreFile(_ context.Context, path string) (model.SessionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err, ok := m.errs[path]; ok {
		return model.SessionResult{}, err
	}
	return model.SessionResult{ID: path, NormalizedScore: m.scores[path]}, nil
}

func TestPool_ScoreFiles(t *testing.T) {
	convey.Convey("Given a pool with several workers", t, func() {
		scorer := &mockScorer{
			scores: map[string]float64{"a.log": 50, "b.log": 40, "c.log": 75},
			errs:   map[string]error{"bad.log": model.ErrInvalidSample},
		}
		pool := batch.NewPool(scorer, batch.WithWorkers(3))

		convey.Convey("When scoring several logs", func() {
			results, err := pool.ScoreFiles(context.Background(), []string{"a.log", "b.log", "bad.log", "c.log"})

			convey.Convey("Then results keep input order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(results, convey.ShouldHaveLength, 4)
				convey.So(results[0].Session.NormalizedScore, convey.ShouldEqual, 50.0)
				convey.So(results[1].Session.NormalizedScore, convey.ShouldEqual, 40.0)
				convey.So(results[3].Session.NormalizedScore, convey.ShouldEqual, 75.0)
				convey.So(results[3].Path, convey.ShouldEqual, "c.log")
				convey.So(scorer.calls, convey.ShouldEqual, 4)
			})

			convey.Convey("And a failing log keeps its own error", func() {
				convey.So(errors.Is(results[2].Err, model.ErrInvalidSample), convey.ShouldBeTrue)
				convey.So(results[0].Err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When there are no logs", func() {
			results, err := pool.ScoreFiles(context.Background(), nil)

			convey.Convey("Then nothing is scored", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(results, convey.ShouldBeEmpty)
			})
		})
	})

	convey.Convey("Given a pool with a small capacity", t, func() {
		scorer := &mockScorer{scores: map[string]float64{}}
		paths := make([]string, 50)
		for i := range paths {
			paths[i] = fmt.Sprintf("log-%02d", i)
			scorer.scores[paths[i]] = float64(i)
		}
		pool := batch.NewPool(scorer, batch.WithCapacity(1), batch.WithWorkers(2))

		convey.Convey("When more logs than capacity are submitted", func() {
			results, err := pool.ScoreFiles(context.Background(), paths)

			convey.Convey("Then every log is still scored in order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(results, convey.ShouldHaveLength, 50)
				convey.So(scorer.calls, convey.ShouldEqual, 50)
				for i, r := range results {
					convey.So(r.Path, convey.ShouldEqual, paths[i])
					convey.So(r.Session.NormalizedScore, convey.ShouldEqual, float64(i))
				}
			})
		})
	})

	convey.Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		pool := batch.NewPool(&mockScorer{}, batch.WithLogger(logger.Named("test")))

		convey.Convey("When scoring", func() {
			_, err := pool.ScoreFiles(ctx, []string{"a"})

			convey.Convey("Then the pool reports it stopped", func() {
				convey.So(errors.Is(err, batch.ErrStopped), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given default options", t, func() {
		pool := batch.NewPool(&mockScorer{}, batch.WithWorkers(0))

		convey.Convey("Then at least one worker is configured", func() {
			convey.So(pool.Workers(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
