// Package eventloop runs posted callbacks one at a time, in posting order, on a single goroutine.
package eventloop

import (
	"context"
	"sync"
)

type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	wg      sync.WaitGroup
}

func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post schedules fn on the loop. It never blocks and may be called from any goroutine,
// including from a callback already running on the loop.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Go runs work off the loop and posts then(result) back onto it.
// Wait blocks until every such continuation has run.
func Go[T any](l *Loop, work func() T, then func(T)) {
	l.wg.Add(1)
	go func() {
		v := work()
		l.Post(func() {
			defer l.wg.Done()
			then(v)
		})
	}()
}

// Run executes callbacks until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		if len(batch) > 0 {
			for _, fn := range batch {
				fn()
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

// Wait blocks until all work started with Go has completed on the loop.
// Calling it from the loop goroutine deadlocks.
func (l *Loop) Wait() {
	l.wg.Wait()
}
