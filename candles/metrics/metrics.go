// Package metrics exposes prometheus counters for the collection engine. A feed
// that logs frequent parse errors or reconnects is a venue API change waiting to
// be noticed; these counters are how that surfaces.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var feedLabels = []string{"exchange", "pair", "interval"}

var (
	// MergesTotal counts candles merged into feed stores.
	MergesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "candle_feeds",
		Name:      "merges_total",
		Help:      "Number of candles merged into feed stores.",
	}, feedLabels)

	// ParseErrorsTotal counts dropped unparseable REST responses and stream frames.
	ParseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "candle_feeds",
		Name:      "parse_errors_total",
		Help:      "Number of venue responses or frames dropped as unparseable.",
	}, feedLabels)

	// ReconnectsTotal counts streaming session re-establishments.
	ReconnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "candle_feeds",
		Name:      "reconnects_total",
		Help:      "Number of websocket reconnections.",
	}, feedLabels)

	// BackfillsTotal counts REST backfills issued to repair stream gaps.
	BackfillsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "candle_feeds",
		Name:      "backfills_total",
		Help:      "Number of REST backfills issued after detecting a stream gap.",
	}, feedLabels)

	// PollTicksTotal counts polling strategy fetch ticks.
	PollTicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "candle_feeds",
		Name:      "poll_ticks_total",
		Help:      "Number of polling fetch ticks.",
	}, feedLabels)
)
