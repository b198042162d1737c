package feed

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marianogappa/candle-feeds/candles/common"
	"github.com/marianogappa/candle-feeds/candles/metrics"
)

const (
	backoffFloor = time.Second
	backoffCap   = 30 * time.Second
)

// streamer is the websocket strategy: prefill the ring over REST, then hold a
// subscription open, merging every pushed candle and repairing any gap the stream
// leaves behind with a targeted REST backfill. Sessions that die are redialled
// with capped exponential backoff.
type streamer struct {
	f      *Feed
	labels prometheus.Labels
}

func newStreamer(f *Feed) *streamer {
	return &streamer{
		f: f,
		labels: prometheus.Labels{
			"exchange": f.exchange,
			"pair":     f.pair.String(),
			"interval": string(f.interval),
		},
	}
}

func (st *streamer) run(ctx context.Context) {
	f := st.f
	st.prefill(ctx)

	backoff := backoffFloor
	for ctx.Err() == nil {
		processed, err := st.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			f.logger.Warn().Err(err).Msg("stream session ended")
		} else {
			f.logger.Info().Msg("stream session ended cleanly")
		}
		metrics.ReconnectsTotal.With(st.labels).Inc()

		if processed {
			backoff = backoffFloor
		}
		f.logger.Debug().Dur("backoff", backoff).Msg("reconnecting")
		if !f.sleepFunc(ctx, backoff) {
			return
		}
		if !processed {
			backoff *= 2
			if backoff > backoffCap {
				backoff = backoffCap
			}
		}
	}
}

// prefill seeds the ring with one full REST window so consumers aren't staring at
// an empty feed until capacity-many intervals have streamed by. Failure is logged,
// not fatal: the stream still runs and the ring fills the slow way.
func (st *streamer) prefill(ctx context.Context) {
	f := st.f
	if f.store.Len() > 0 {
		return
	}
	secs := f.interval.Seconds()
	start := f.interval.AlignTimeDown(f.timeNowFunc()) - f.store.Capacity()*secs
	cs, err := f.adapter.FetchCandles(ctx, f.transport, f.pair, f.interval, start, f.store.Capacity())
	if err != nil {
		f.logger.Warn().Err(err).Msg("stream prefill failed; continuing with empty ring")
		return
	}
	sanitized := f.sanitize(cs)
	f.store.MergeAll(sanitized)
	metrics.MergesTotal.With(st.labels).Add(float64(len(sanitized)))
	f.logger.Debug().Int("candles", len(sanitized)).Msg("stream prefill done")
}

// session runs one dial-subscribe-consume cycle. It returns whether at least one
// candle was merged (resets the reconnect backoff) and the error that ended the
// session, nil when the context did.
func (st *streamer) session(ctx context.Context) (processed bool, err error) {
	f := st.f

	wsURL, err := f.adapter.WSURL(ctx, f.transport)
	if err != nil {
		return false, err
	}
	sess, err := f.transport.Dial(ctx, wsURL)
	if err != nil {
		return false, err
	}
	defer sess.Close()

	payload, err := f.adapter.WSSubscribePayload(f.pair, f.interval)
	if err != nil {
		return false, err
	}
	if err := sess.Send(payload); err != nil {
		return false, err
	}
	f.logger.Debug().Str("url", wsURL).Msg("subscribed")

	for {
		select {
		case <-ctx.Done():
			return processed, nil
		case frame, ok := <-sess.Messages():
			if !ok {
				return processed, sess.Err()
			}
			res, perr := f.adapter.ParseWSMessage(frame)
			if perr != nil {
				// Unparseable frames are dropped, never fatal: control frames
				// and venue notices flow on the same channel as candles.
				metrics.ParseErrorsTotal.With(st.labels).Inc()
				f.logger.Debug().Err(perr).Msg("dropping unparseable frame")
				continue
			}
			if res.Pong != nil {
				if err := sess.Send(res.Pong); err != nil {
					return processed, err
				}
			}
			cs := res.Candles
			if len(cs) > 1 {
				cs = f.sanitize(cs)
			}
			for _, c := range cs {
				st.merge(ctx, c)
				processed = true
			}
		}
	}
}

// merge puts one pushed candle into the ring, first backfilling over REST when the
// candle opens more than one interval past the stored tail (missed candles during
// a disconnect, or a venue that pushed nothing for a while).
func (st *streamer) merge(ctx context.Context, c common.Candle) {
	f := st.f
	secs := f.interval.Seconds()

	if last, ok := f.store.LastOpenTime(); ok && c.OpenTime > last+secs {
		gap := (c.OpenTime-last)/secs - 1
		f.logger.Info().Int("missing", gap).Int("from", last+secs).Msg("stream gap detected; backfilling")
		metrics.BackfillsTotal.With(st.labels).Inc()
		cs, err := f.adapter.FetchCandles(ctx, f.transport, f.pair, f.interval, last+secs, gap+1)
		if err != nil {
			// The ring keeps a gap until the next repair opportunity; better
			// than blocking the stream.
			f.logger.Warn().Err(err).Msg("gap backfill failed")
		} else {
			sanitized := f.sanitize(cs)
			f.store.MergeAll(sanitized)
			metrics.MergesTotal.With(st.labels).Add(float64(len(sanitized)))
		}
	}

	f.store.Merge(c)
	metrics.MergesTotal.With(st.labels).Inc()
}
