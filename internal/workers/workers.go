// Package workers wraps the bounded background goroutine pool.
//
// Background work is fire-and-forget from the caller's point of view, but the
// pool is drained at shutdown so no scheduled task is lost on a clean exit.
package workers

import (
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

type Pool struct {
	inner  *ants.Pool
	logger *zap.SugaredLogger
}

func New(size int, log *zap.SugaredLogger) (*Pool, error) {
	inner, err := ants.NewPool(size, ants.WithPanicHandler(func(v interface{}) {
		log.Errorf("background task panic: %v", v)
	}))
	if err != nil {
		return nil, err
	}
	return &Pool{inner: inner, logger: log}, nil
}

// Submit schedules a task. It blocks when all workers are busy, which bounds
// outstanding background work without an unbounded queue.
func (p *Pool) Submit(task func()) error {
	return p.inner.Submit(task)
}

// Release drains the pool: running tasks get until the timeout to finish.
func (p *Pool) Release(timeout time.Duration) {
	if err := p.inner.ReleaseTimeout(timeout); err != nil {
		p.logger.Warnf("background pool did not drain in %v: %v", timeout, err)
	}
}
