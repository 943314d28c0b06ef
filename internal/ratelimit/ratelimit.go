package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Limiter spaces consecutive actions by a delay drawn from [min, max].
// The first action never waits. A zero range disables pacing.
type Limiter struct {
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	now        func() time.Time
}

func New(minDelay, maxDelay time.Duration) *Limiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Limiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		now:      time.Now,
	}
}

func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}

	if !l.lastAction.IsZero() {
		delay := l.delay()
		if elapsed := l.now().Sub(l.lastAction); elapsed < delay {
			timer := time.NewTimer(delay - elapsed)
			defer timer.Stop()

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	l.lastAction = l.now()
	return ctx.Err()
}

func (l *Limiter) delay() time.Duration {
	if l.minDelay == l.maxDelay {
		return l.minDelay
	}
	return l.minDelay + time.Duration(rand.Int63n(int64(l.maxDelay-l.minDelay)))
}
