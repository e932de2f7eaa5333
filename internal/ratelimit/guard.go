package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oggyb/buddyup/internal/domain"
	"github.com/oggyb/buddyup/internal/metrics"
)

// Action is a class of user activity with its own window and limit.
type Action string

const (
	ActionSwipe         Action = "swipe"
	ActionSuperLike     Action = "super_like"
	ActionMessageBurst  Action = "message_burst"
	ActionMessageMinute Action = "message_minute"
)

// Rule is a (maxEvents, window) pair. A rule with Max <= 0 admits everything.
type Rule struct {
	Max    int
	Window time.Duration
}

// Backend holds the per-key windows.
type Backend interface {
	Acquire(ctx context.Context, key string, rule Rule) (Result, error)
}

// Guard applies one limiter per (action, user).
type Guard struct {
	backend Backend
	rules   map[Action]Rule
	log     *slog.Logger
}

func NewGuard(backend Backend, rules map[Action]Rule, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}
	return &Guard{backend: backend, rules: rules, log: log}
}

// Allow checks every action in order and returns *domain.RateLimitedError on the
// first rejection. Backend failures are logged and admitted.
func (g *Guard) Allow(ctx context.Context, userID string, actions ...Action) error {
	if g == nil || g.backend == nil {
		return nil
	}
	for _, action := range actions {
		rule, ok := g.rules[action]
		if !ok || rule.Max <= 0 || rule.Window <= 0 {
			continue
		}

		res, err := g.backend.Acquire(ctx, key(action, userID), rule)
		if err != nil {
			g.log.Warn("rate limit backend failed, admitting", "action", action, "user", userID, "err", err)
			continue
		}
		if !res.Allowed {
			metrics.RateLimited.WithLabelValues(string(action)).Inc()
			return &domain.RateLimitedError{Action: string(action), RetryAfter: res.RetryAfter}
		}
	}
	return nil
}

func key(action Action, userID string) string {
	return "rate:" + string(action) + ":" + userID
}

// MemoryBackend keeps one Limiter per key in process memory. Keys whose
// window has emptied are swept at most once per sweepEvery.
type MemoryBackend struct {
	mu         sync.Mutex
	limiters   map[string]*Limiter
	now        func() time.Time
	sweepEvery time.Duration
	lastSweep  time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		limiters:   make(map[string]*Limiter),
		now:        time.Now,
		sweepEvery: time.Minute,
	}
}

// Acquire runs under the backend lock so a sweep never drops a limiter that
// is about to record an event.
func (b *MemoryBackend) Acquire(_ context.Context, key string, rule Rule) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if now.Sub(b.lastSweep) >= b.sweepEvery {
		b.sweep(now)
		b.lastSweep = now
	}

	l, ok := b.limiters[key]
	if !ok {
		l = newLimiterWithClock(rule.Max, rule.Window, b.now)
		b.limiters[key] = l
	} else {
		l.setRule(rule.Max, rule.Window)
	}
	return l.TryAcquire(), nil
}

func (b *MemoryBackend) sweep(now time.Time) {
	for k, l := range b.limiters {
		if l.idle(now) {
			delete(b.limiters, k)
		}
	}
}

// Keys is the number of windows currently held.
func (b *MemoryBackend) Keys() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.limiters)
}
