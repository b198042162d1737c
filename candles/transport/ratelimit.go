package transport

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// TokenBucketLimiter is a ready-made RateLimiter for embedders that don't bring
// their own: one token bucket per limit ID, all sharing the same rps/burst
// settings.
type TokenBucketLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

// NewTokenBucketLimiter constructs a limiter allowing rps requests per second with
// the given burst capacity, per named bucket.
func NewTokenBucketLimiter(rps float64, burst int) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		buckets: map[string]*rate.Limiter{},
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

// Execute blocks until the bucket for limitID allows another call, then runs fn.
func (l *TokenBucketLimiter) Execute(ctx context.Context, limitID string, fn func() error) error {
	if err := l.bucket(limitID).Wait(ctx); err != nil {
		return err
	}
	return fn()
}

func (l *TokenBucketLimiter) bucket(limitID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[limitID]
	if !ok {
		b = rate.NewLimiter(l.rps, l.burst)
		l.buckets[limitID] = b
	}
	return b
}
