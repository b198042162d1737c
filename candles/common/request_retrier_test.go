package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRetryFetchSucceedsFirstTry(t *testing.T) {
	calls := 0
	cs, err := RetryFetch(context.Background(), zerolog.Nop(), RetryStrategy{}, func() ([]Candle, error) {
		calls++
		return []Candle{{OpenTime: 1700000000}}, nil
	})
	require.NoError(t, err)
	require.Len(t, cs, 1)
	require.Equal(t, 1, calls)
}

func TestRetryFetchRetriesRetryableErrors(t *testing.T) {
	calls := 0
	cs, err := RetryFetch(context.Background(), zerolog.Nop(), RetryStrategy{FirstSleepTime: time.Millisecond}, func() ([]Candle, error) {
		calls++
		if calls < 3 {
			return nil, TransportError{Retryable: true, Err: errors.New("boom")}
		}
		return []Candle{{OpenTime: 1700000000}}, nil
	})
	require.NoError(t, err)
	require.Len(t, cs, 1)
	require.Equal(t, 3, calls)
}

func TestRetryFetchStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	_, err := RetryFetch(context.Background(), zerolog.Nop(), RetryStrategy{FirstSleepTime: time.Millisecond}, func() ([]Candle, error) {
		calls++
		return nil, ErrInvalidPair
	})
	require.ErrorIs(t, err, ErrInvalidPair)
	require.Equal(t, 1, calls)
}

func TestRetryFetchExhaustsAttempts(t *testing.T) {
	calls := 0
	boom := TransportError{Retryable: true, Err: errors.New("boom")}
	_, err := RetryFetch(context.Background(), zerolog.Nop(), RetryStrategy{Attempts: 2, FirstSleepTime: time.Millisecond}, func() ([]Candle, error) {
		calls++
		return nil, boom
	})
	require.Error(t, err)
	require.True(t, IsRetryable(err))
	require.Equal(t, 2, calls)
}

func TestRetryFetchHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := RetryFetch(ctx, zerolog.Nop(), RetryStrategy{FirstSleepTime: time.Minute}, func() ([]Candle, error) {
		return nil, TransportError{Retryable: true, Err: errors.New("boom")}
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryFetchHonorsRetryAfter(t *testing.T) {
	// FirstSleepTime is an hour; the test only finishes promptly because the
	// venue-suggested backoff takes precedence.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	calls := 0
	cs, err := RetryFetch(ctx, zerolog.Nop(), RetryStrategy{FirstSleepTime: time.Hour}, func() ([]Candle, error) {
		calls++
		if calls == 1 {
			return nil, TransportError{Retryable: true, RetryAfter: time.Millisecond, Err: errors.New("rate limited")}
		}
		return []Candle{{OpenTime: 1700000000}}, nil
	})
	require.NoError(t, err)
	require.Len(t, cs, 1)
	require.Equal(t, 2, calls)
}

func TestIsRetryable(t *testing.T) {
	require.True(t, IsRetryable(TransportError{Retryable: true, Err: errors.New("boom")}))
	require.False(t, IsRetryable(TransportError{Err: errors.New("boom")}))
	require.False(t, IsRetryable(ErrInvalidPair))
	require.False(t, IsRetryable(nil))
}

func TestRetryAfterOf(t *testing.T) {
	require.Equal(t, 11*time.Second, RetryAfterOf(TransportError{Retryable: true, RetryAfter: 11 * time.Second, Err: errors.New("boom")}))
	require.Equal(t, time.Duration(0), RetryAfterOf(errors.New("boom")))
}
