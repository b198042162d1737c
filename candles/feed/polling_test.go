package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// sleepRecorder replaces a feed's sleep: it records requested durations without
// actually sleeping and terminates the strategy loop after maxSleeps.
type sleepRecorder struct {
	mu        sync.Mutex
	durations []time.Duration
	maxSleeps int
	done      chan struct{}
}

func newSleepRecorder(maxSleeps int) *sleepRecorder {
	return &sleepRecorder{maxSleeps: maxSleeps, done: make(chan struct{})}
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations = append(r.durations, d)
	if len(r.durations) >= r.maxSleeps {
		select {
		case <-r.done:
		default:
			close(r.done)
		}
		return false
	}
	return true
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.durations))
	copy(out, r.durations)
	return out
}

func TestPollingFillsThenRefreshesIncrementally(t *testing.T) {
	// The clock reads base+330, i.e. 30s into the candle opening at base+300.
	alignedNow := base + 5*60

	var mu sync.Mutex
	var starts []int
	fa := &fakeAdapter{}
	fa.fetchFunc = func(ctx context.Context, startTime, limit int) ([]common.Candle, error) {
		mu.Lock()
		starts = append(starts, startTime)
		n := len(starts)
		mu.Unlock()
		if n == 1 {
			// Initial fill: one full window.
			return contiguous(startTime, limit), nil
		}
		// Steady state: final version of the last complete candle plus the
		// just-opened one.
		return []common.Candle{candleAt(startTime, 999), candleAt(startTime+60, 1000)}, nil
	}

	f := newTestFeed(t, fa, &fakeTransport{}, WithCapacity(5))
	rec := newSleepRecorder(2)
	f.sleepFunc = rec.sleep

	require.NoError(t, f.Start(ModePolling))
	<-rec.done
	require.NoError(t, f.Stop())

	// First fetch covers the whole ring; second starts at the last stored candle.
	require.Equal(t, []int{alignedNow - 5*60, alignedNow - 60}, starts)

	snapshot := f.Snapshot()
	require.Equal(t, []int{base + 60, base + 120, base + 180, base + 240, base + 300}, opensOf(snapshot))
	require.Equal(t, common.JSONFloat64(999), snapshot[3].ClosePrice) // refreshed in place
	require.True(t, f.Ready())

	// Steady-state cadence is half the interval.
	require.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second}, rec.recorded())
}

func TestPollingSleepsOneSecondAfterAFailedTick(t *testing.T) {
	fa := &fakeAdapter{fetchFunc: func(ctx context.Context, startTime, limit int) ([]common.Candle, error) {
		return nil, common.TransportError{Status: 500, Retryable: true, Err: context.DeadlineExceeded}
	}}
	f := newTestFeed(t, fa, &fakeTransport{})
	rec := newSleepRecorder(1)
	f.sleepFunc = rec.sleep

	require.NoError(t, f.Start(ModePolling))
	<-rec.done
	require.NoError(t, f.Stop())

	require.Equal(t, []time.Duration{time.Second}, rec.recorded())
	require.Empty(t, f.Snapshot())
}

func TestPollingSingleCandleRefetchesItsOwnOpenTime(t *testing.T) {
	// The ring holds only the candle that opened at the aligned now; the next
	// tick starts from that same open time.
	alignedNow := base + 5*60

	var mu sync.Mutex
	var starts []int
	fa := &fakeAdapter{}
	fa.fetchFunc = func(ctx context.Context, startTime, limit int) ([]common.Candle, error) {
		mu.Lock()
		starts = append(starts, startTime)
		mu.Unlock()
		return []common.Candle{candleAt(alignedNow, 1)}, nil
	}

	f := newTestFeed(t, fa, &fakeTransport{}, WithCapacity(5))
	rec := newSleepRecorder(2)
	f.sleepFunc = rec.sleep

	require.NoError(t, f.Start(ModePolling))
	<-rec.done
	require.NoError(t, f.Stop())

	require.Equal(t, []int{alignedNow - 5*60, alignedNow}, starts)
	require.Equal(t, []int{alignedNow}, opensOf(f.Snapshot()))
}
