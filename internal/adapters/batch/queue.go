// Package batch scores many recorded logs concurrently. Each log is one
// session; sessions are independent so they may run in parallel while the
// fold inside each session stays sequential.
package batch

import (
	"context"
	"sync"

	"github.com/okian/drivescore/pkg/metrics"
)

// Job is one log waiting to be scored.
type Job struct {
	Index int
	Path  string
}

// jobQueue is a bounded job queue over a buffered channel.
type jobQueue struct {
	jobs   chan Job
	mu     sync.RWMutex
	closed bool
}

func newJobQueue(capacity int) *jobQueue {
	return &jobQueue{jobs: make(chan Job, capacity)}
}

// enqueue adds a job, waiting for room. It returns false when the queue is
// closed or ctx is done.
func (q *jobQueue) enqueue(ctx context.Context, j Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("batch", "closed")
		return false
	}

	select {
	case q.jobs <- j:
		return true
	case <-ctx.Done():
		metrics.RecordErrorByComponent("batch", "context_cancelled")
		return false
	}
}

func (q *jobQueue) dequeue() <-chan Job {
	return q.jobs
}

func (q *jobQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	close(q.jobs)
	q.closed = true
}
