// Package diagram turns mermaid sources in preview HTML into rendered SVG.
// Renders go through a single-consumer Queue so the backend is never
// invoked concurrently.
package diagram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrQueueClosed is returned for jobs submitted after Close.
var ErrQueueClosed = errors.New("diagram: queue closed")

// Result is the outcome of one render.
type Result struct {
	SVG string
	Err error
}

type job struct {
	ctx    context.Context
	source string
	done   chan Result
}

// Queue drains render jobs one at a time. Job N+1 starts only after job
// N's result has been delivered and the pause has elapsed.
type Queue struct {
	backend Backend
	pause   time.Duration
	timeout time.Duration

	jobs      chan job
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewQueue starts the consumer goroutine. timeout bounds each render; zero
// means no limit.
func NewQueue(backend Backend, pause, timeout time.Duration) *Queue {
	q := &Queue{
		backend: backend,
		pause:   pause,
		timeout: timeout,
		jobs:    make(chan job),
		quit:    make(chan struct{}),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// Submit enqueues source and returns a channel that receives exactly one
// Result when the render completes.
func (q *Queue) Submit(ctx context.Context, source string) <-chan Result {
	done := make(chan Result, 1)
	j := job{ctx: ctx, source: source, done: done}
	select {
	case q.jobs <- j:
	case <-q.quit:
		done <- Result{Err: ErrQueueClosed}
	case <-ctx.Done():
		done <- Result{Err: ctx.Err()}
	}
	return done
}

// Close stops the consumer. Pending Submit calls fail with ErrQueueClosed.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.quit) })
	q.wg.Wait()
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.quit:
			return
		case j := <-q.jobs:
			j.done <- q.render(j)
			if q.pause > 0 {
				select {
				case <-time.After(q.pause):
				case <-q.quit:
					return
				}
			}
		}
	}
}

func (q *Queue) render(j job) (res Result) {
	if err := j.ctx.Err(); err != nil {
		return Result{Err: err}
	}
	ctx := j.ctx
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("diagram backend panic: %v", r)}
		}
	}()
	svg, err := q.backend.Render(ctx, j.source)
	return Result{SVG: svg, Err: err}
}
