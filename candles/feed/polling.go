package feed

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marianogappa/candle-feeds/candles/common"
	"github.com/marianogappa/candle-feeds/candles/metrics"
)

// errorSleepFloor is how long the polling loop waits after a failed tick before
// trying again, regardless of the interval.
const errorSleepFloor = time.Second

// poller is the REST polling strategy: fill the ring once, then repeatedly
// re-fetch from the last complete candle onwards at half-interval cadence.
type poller struct {
	f      *Feed
	labels prometheus.Labels
}

func newPoller(f *Feed) *poller {
	return &poller{
		f: f,
		labels: prometheus.Labels{
			"exchange": f.exchange,
			"pair":     f.pair.String(),
			"interval": string(f.interval),
		},
	}
}

func (p *poller) run(ctx context.Context) {
	f := p.f
	for ctx.Err() == nil {
		err := p.tick(ctx)
		if ctx.Err() != nil {
			return
		}
		sleep := p.cadence()
		if err != nil {
			f.logger.Warn().Err(err).Msg("poll tick failed")
			sleep = errorSleepFloor
		}
		if !f.sleepFunc(ctx, sleep) {
			return
		}
	}
}

// cadence is half the candle interval, floored at one second so sub-2s intervals
// don't hammer the venue.
func (p *poller) cadence() time.Duration {
	d := p.f.interval.Duration() / 2
	if d < time.Second {
		d = time.Second
	}
	return d
}

// tick fetches the window the ring is missing: the full capacity when empty, and
// from the last complete candle onwards (inclusive, so the still-open candle keeps
// getting refreshed) once populated.
func (p *poller) tick(ctx context.Context) error {
	f := p.f
	metrics.PollTicksTotal.With(p.labels).Inc()

	secs := f.interval.Seconds()
	nowAligned := f.interval.AlignTimeDown(f.timeNowFunc())

	var start int
	last, ok := f.store.LastOpenTime()
	switch {
	case !ok:
		start = nowAligned - f.store.Capacity()*secs
	case last+secs <= nowAligned:
		// The last stored candle is complete; refetch from it inclusive so a
		// previously merged in-progress version gets its final values.
		start = last
	case f.store.Len() > 1:
		start = last - secs
	default:
		// A single just-opened candle: its own open time is the best start we
		// have, and refetching it is harmless.
		start = last
	}

	cs, err := f.adapter.FetchCandles(ctx, f.transport, f.pair, f.interval, start, f.store.Capacity())
	if err != nil {
		return err
	}
	sanitized := f.sanitize(cs)
	f.store.MergeAll(sanitized)
	metrics.MergesTotal.With(p.labels).Add(float64(len(sanitized)))
	f.logger.Debug().Int("fetched", len(cs)).Int("merged", len(sanitized)).Msg("poll tick")
	return nil
}

// pollOnce is the one-shot fetch behind Feed.Fetch: retried per the feed's retry
// strategy, clipped to [startTime, endTime], sanitized.
func (p *poller) pollOnce(ctx context.Context, startTime, endTime, limit int) ([]common.Candle, error) {
	f := p.f
	cs, err := common.RetryFetch(ctx, f.logger, f.retryStrategy, func() ([]common.Candle, error) {
		return f.adapter.FetchCandles(ctx, f.transport, f.pair, f.interval, startTime, limit)
	})
	if err != nil {
		return nil, err
	}
	clipped := cs[:0:0]
	for _, c := range cs {
		if c.OpenTime >= startTime && c.OpenTime <= endTime {
			clipped = append(clipped, c)
		}
	}
	return f.sanitize(clipped), nil
}
