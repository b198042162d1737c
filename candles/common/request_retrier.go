package common

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// RetryStrategy controls retries of one-shot exchange requests: how many attempts,
// how long to sleep between them, and how quickly the sleep grows.
type RetryStrategy struct {
	Attempts            int
	FirstSleepTime      time.Duration
	SleepTimeMultiplier float64
}

func (s RetryStrategy) withDefaults() RetryStrategy {
	if s.Attempts == 0 {
		s.Attempts = 3
	}
	if s.FirstSleepTime == 0 {
		s.FirstSleepTime = 1 * time.Second
	}
	if s.SleepTimeMultiplier == 0.0 {
		s.SleepTimeMultiplier = 2.0
	}
	return s
}

// RetryFetch runs fn under the given retry strategy. Non-retryable errors (user
// errors, parse errors) break out immediately; a venue-suggested Retry-After
// overrides the computed sleep. Cancellation wins over any pending sleep.
func RetryFetch(ctx context.Context, logger zerolog.Logger, strategy RetryStrategy, fn func() ([]Candle, error)) ([]Candle, error) {
	var (
		err       error
		candles   []Candle
		s         = strategy.withDefaults()
		sleepTime = s.FirstSleepTime
		attempts  = s.Attempts
	)
	for attempts > 0 {
		if candles, err = fn(); err == nil {
			return candles, nil
		}
		if !IsRetryable(err) {
			break
		}
		if retryAfter := RetryAfterOf(err); retryAfter > 0 {
			sleepTime = retryAfter
		}
		attempts--
		if attempts == 0 {
			break
		}
		logger.Debug().Err(err).Int("attempts_left", attempts).Dur("sleep", sleepTime).Msg("candle request failed, retrying")
		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		sleepTime = time.Duration(int64(math.Round(float64(sleepTime) * s.SleepTimeMultiplier)))
	}
	return nil, err
}
