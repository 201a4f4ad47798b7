package batch

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/okian/drivescore/internal/domain/model"
	"github.com/okian/drivescore/pkg/logger"
)

const defaultCapacity = 1024

// Scorer scores one recorded log as a session.
type Scorer interface {
	ScoreFile(ctx context.Context, path string) (model.SessionResult, error)
}

// Result pairs a job with its outcome.
type Result struct {
	Index   int
	Path    string
	Session model.SessionResult
	Err     error
}

// Pool runs a fixed set of workers over a bounded job queue.
type Pool struct {
	scorer      Scorer
	workerCount int
	capacity    int
	logger      logger.Logger
}

// NewPool creates a pool. Defaults to runtime.NumCPU() workers.
func NewPool(scorer Scorer, opts ...Option) *Pool {
	p := &Pool{
		scorer:      scorer,
		workerCount: runtime.NumCPU(),
		capacity:    defaultCapacity,
		logger:      logger.Get().Named("batch"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int {
	return p.workerCount
}

// ScoreFiles scores every path and returns results in input order.
// A failing log does not stop the others; its error is kept on its Result.
// Paths are fed into the bounded queue while workers drain it, so any
// number of logs fits.
func (p *Pool) ScoreFiles(ctx context.Context, paths []string) ([]Result, error) {
	if len(paths) == 0 {
		return []Result{}, nil
	}

	q := newJobQueue(p.capacity)
	go func() {
		defer q.close()
		for i, path := range paths {
			if !q.enqueue(ctx, Job{Index: i, Path: path}) {
				return
			}
		}
	}()

	workers := p.workerCount
	if workers > len(paths) {
		workers = len(paths)
	}

	results := make([]Result, len(paths))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			p.run(ctx, name, q.dequeue(), results)
		}("worker-" + strconv.Itoa(i))
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("%w: %w", ErrStopped, err)
	}
	return results, nil
}

// run drains jobs until the queue is closed or ctx is done. Each job writes
// only its own slot in results.
func (p *Pool) run(ctx context.Context, name string, jobs <-chan Job, results []Result) {
	log := p.logger.Named(name)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			res, err := p.scorer.ScoreFile(ctx, job.Path)
			if err != nil {
				log.Error(ctx, "scoring log failed",
					logger.String("path", job.Path),
					logger.Error(err),
				)
			}
			results[job.Index] = Result{Index: job.Index, Path: job.Path, Session: res, Err: err}
		}
	}
}
