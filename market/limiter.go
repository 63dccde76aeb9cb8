package market

import (
	"context"
	"sync"
	"time"
)

// Limiter paces calls to an external API. Wait blocks until the next call may go out.
type Limiter interface {
	Wait(ctx context.Context) error
}

// IntervalLimiter enforces a fixed minimum spacing between successive calls.
// The first call passes immediately. Callers are served one at a time.
type IntervalLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func NewIntervalLimiter(interval time.Duration) *IntervalLimiter {
	return &IntervalLimiter{interval: interval}
}

func (l *IntervalLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() {
		if delay := time.Until(l.last.Add(l.interval)); delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	l.last = time.Now()
	return nil
}

// NoDelay never waits. Used in tests and when pacing is disabled.
type NoDelay struct{}

func (NoDelay) Wait(ctx context.Context) error { return ctx.Err() }

// NewLimiter returns NoDelay for a zero interval and an IntervalLimiter otherwise.
func NewLimiter(interval time.Duration) Limiter {
	if interval <= 0 {
		return NoDelay{}
	}
	return NewIntervalLimiter(interval)
}

// Pause waits a fixed delay on every call. It separates units of work (for
// example backfill windows) rather than spacing call starts.
type Pause struct {
	delay time.Duration
}

func (p Pause) Wait(ctx context.Context) error {
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewPause returns NoDelay for a zero delay and a Pause otherwise.
func NewPause(delay time.Duration) Limiter {
	if delay <= 0 {
		return NoDelay{}
	}
	return Pause{delay: delay}
}
