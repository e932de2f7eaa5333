// Package ratelimit implements sliding-window admission control for swipes and messages.
//
// It is a courtesy throttle that keeps a misbehaving session from flooding the
// store. It is not a security boundary.
package ratelimit

import (
	"sync"
	"time"
)

// Result is the outcome of one admission attempt.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter admits at most max events inside any window-long interval.
// Timestamps of admitted events are kept in arrival order.
type Limiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	events []time.Time
	now    func() time.Time
}

// NewLimiter creates a limiter with the wall clock.
func NewLimiter(max int, window time.Duration) *Limiter {
	return newLimiterWithClock(max, window, time.Now)
}

func newLimiterWithClock(max int, window time.Duration, now func() time.Time) *Limiter {
	return &Limiter{
		max:    max,
		window: window,
		now:    now,
	}
}

// TryAcquire drops expired timestamps, then admits and records the attempt
// when fewer than max remain. A rejection reports how long until the oldest
// timestamp leaves the window.
func (l *Limiter) TryAcquire() Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	// events older than (or exactly at) the cutoff have left the window
	drop := 0
	for drop < len(l.events) && !l.events[drop].After(cutoff) {
		drop++
	}
	if drop > 0 {
		l.events = append(l.events[:0], l.events[drop:]...)
	}

	if len(l.events) < l.max {
		l.events = append(l.events, now)
		return Result{Allowed: true}
	}

	retry := l.events[0].Add(l.window).Sub(now)
	if retry <= 0 {
		retry = time.Millisecond
	}
	return Result{Allowed: false, RetryAfter: retry}
}

// setRule swaps in a new max and window. Held timestamps are kept and judged
// against the new window on the next acquire.
func (l *Limiter) setRule(max int, window time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.max = max
	l.window = window
}

// idle reports whether every held timestamp has left the window at now.
func (l *Limiter) idle(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return true
	}
	return !l.events[len(l.events)-1].After(now.Add(-l.window))
}

// Len returns the number of timestamps currently held.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
