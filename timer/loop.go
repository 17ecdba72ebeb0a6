package timer

import (
	"context"
	"log"
	"sync"
	"time"
)

// Loop is the production scheduler: a single goroutine runs every posted
// function and every fired timer callback, one at a time.
//
// Posted work and timer callbacks travel on separate channels. Post may drop
// work when its queue stays full; a fired timer waits for the loop instead,
// so a countdown or scan tick is never lost while the loop is busy.
type Loop struct {
	ch     chan func()
	timers chan func()
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
}

// NewLoop creates a loop with the given queue size. Run must be called for
// anything to execute.
func NewLoop(size int) *Loop {
	return &Loop{
		ch:     make(chan func(), size),
		timers: make(chan func()),
		done:   make(chan struct{}),
	}
}

// Run drains the queue and the fired timers until ctx is done. It must be
// called at most once.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.stopped = true
			l.mu.Unlock()
			close(l.done)
			return
		case fn := <-l.ch:
			fn()
		case fn := <-l.timers:
			fn()
		}
	}
}

// Post enqueues fn. If the queue stays full for a short while the function is
// dropped and logged rather than blocking the caller.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	stopped := l.stopped
	l.mu.Unlock()
	if stopped {
		return false
	}

	select {
	case l.ch <- fn:
		return true
	case <-time.After(150 * time.Millisecond):
		log.Printf("loop post timeout: dropping work")
		return false
	}
}

// AfterFunc schedules fn on the loop goroutine after delay. The returned token
// must be called from the loop goroutine; once called, fn never runs, even if
// the underlying timer already fired and fn is waiting for the loop.
func (l *Loop) AfterFunc(delay time.Duration, fn func()) Token {
	canceled := false
	t := time.AfterFunc(delay, func() {
		select {
		case l.timers <- func() {
			if canceled {
				return
			}
			canceled = true
			fn()
		}:
		case <-l.done:
		}
	})
	return func() {
		canceled = true
		t.Stop()
	}
}
