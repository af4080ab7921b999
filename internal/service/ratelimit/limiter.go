package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket protecting calls to the upstream data
// source. Capacity is `burst` tokens, refilled at `rate` tokens per
// second. The wait returned by Acquire is advisory: the caller is
// responsible for pausing before proceeding.
type Limiter struct {
	mu     sync.Mutex
	tokens float64
	rate   float64
	burst  float64
	last   time.Time
}

// New creates a full bucket.
func New(rate, burst float64) *Limiter {
	return &Limiter{
		tokens: burst,
		rate:   rate,
		burst:  burst,
		last:   time.Now(),
	}
}

// Acquire consumes one token if available and returns zero. Otherwise
// it drains the bucket and returns the time needed to accrue one
// token.
func (l *Limiter) Acquire() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(l.last).Seconds()
	l.tokens += elapsed * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.last = now

	if l.tokens >= 1 {
		l.tokens -= 1
		return 0
	}

	wait := (1 - l.tokens) / l.rate
	l.tokens = 0
	return time.Duration(wait * float64(time.Second))
}

// Wait acquires a token and sleeps out the advisory wait, honouring
// context cancellation.
func (l *Limiter) Wait(ctx context.Context) error {
	d := l.Acquire()
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
