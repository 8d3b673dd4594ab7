// Package keyqueue runs functions one at a time per key while letting
// different keys proceed in parallel.
package keyqueue

import (
	"context"
	"sync"
)

type job struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

type worker struct {
	jobs    chan job
	pending int
}

type Queue struct {
	mu      sync.Mutex
	workers map[string]*worker
}

func New() *Queue {
	return &Queue{workers: make(map[string]*worker)}
}

// Do runs fn after every earlier call for the same key has finished and
// returns its error. If ctx ends while waiting, Do returns ctx.Err() and fn
// is skipped.
func (q *Queue) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}

	q.mu.Lock()
	w, ok := q.workers[key]
	if !ok {
		w = &worker{jobs: make(chan job, 16)}
		q.workers[key] = w
		go q.run(key, w)
	}
	w.pending++
	q.mu.Unlock()

	select {
	case w.jobs <- j:
	case <-ctx.Done():
		q.finish(key, w)
		return ctx.Err()
	}

	return <-j.done
}

func (q *Queue) run(key string, w *worker) {
	for j := range w.jobs {
		if err := j.ctx.Err(); err != nil {
			j.done <- err
		} else {
			j.done <- j.fn(j.ctx)
		}
		if q.finish(key, w) {
			return
		}
	}
}

// finish drops one pending job and retires the worker once none remain.
func (q *Queue) finish(key string, w *worker) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	w.pending--
	if w.pending > 0 {
		return false
	}
	if q.workers[key] == w {
		delete(q.workers, key)
	}
	close(w.jobs)
	return true
}

// Len reports the number of keys with queued or running work.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.workers)
}
