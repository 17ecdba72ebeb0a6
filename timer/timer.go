// Package timer contains the scheduling primitives shared by every phase:
// the Scheduler abstraction, the single pending-callback Handle and the two
// scheduler implementations (Loop for the running app, Virtual for tests and
// headless renders).
//
// Maintenance notes:
//   - Handle is not safe for concurrent use. Every Set and Clear must happen on
//     the scheduler's own goroutine (the Loop goroutine, or the goroutine
//     driving a Virtual). Callbacks scheduled through a Scheduler already run
//     there.
//   - Set replaces the stored token without canceling it. Phase entry points
//     must Clear before they schedule, otherwise two loops can end up drawing
//     on the same surface.
package timer

import "time"

// Token cancels the scheduled callback it was returned for. Calling it more
// than once, or after the callback ran, is a no-op.
type Token func()

// Scheduler runs fn once after delay.
type Scheduler interface {
	AfterFunc(delay time.Duration, fn func()) Token
}

// Handle holds at most one outstanding scheduled callback.
type Handle struct {
	token Token
}

// Set stores the latest token, replacing any previous one.
func (h *Handle) Set(t Token) {
	h.token = t
}

// Clear cancels the stored callback, if any, and empties the handle.
func (h *Handle) Clear() {
	if h.token == nil {
		return
	}
	h.token()
	h.token = nil
}

// Pending reports whether a token is stored.
func (h *Handle) Pending() bool {
	return h.token != nil
}

// Millis converts a fractional millisecond value into a Duration.
func Millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
