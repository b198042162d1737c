// Package feed implements the collection engine's public facade: one Feed per
// (exchange, trading pair, interval) triple, owning a bounded candle ring and the
// strategy that populates it, either by websocket streaming or by REST polling.
package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/marianogappa/candle-feeds/candles/cache"
	"github.com/marianogappa/candle-feeds/candles/common"
	"github.com/marianogappa/candle-feeds/candles/processor"
	"github.com/marianogappa/candle-feeds/candles/registry"
	"github.com/marianogappa/candle-feeds/candles/store"
	"github.com/marianogappa/candle-feeds/candles/transport"
)

// Mode selects the collection strategy for a feed.
type Mode string

const (
	// ModeAuto streams iff the adapter declares the interval streamable, else polls.
	ModeAuto Mode = "auto"
	// ModeStreaming forces the websocket strategy; Start fails with ErrNotSupported
	// if the venue doesn't stream the interval.
	ModeStreaming Mode = "streaming"
	// ModePolling forces the REST polling strategy.
	ModePolling Mode = "polling"
)

const (
	// DefaultCapacity is the ring capacity when none is configured.
	DefaultCapacity = 150

	// DefaultFetchLimit is the limit for one-shot Fetch calls when none is given.
	DefaultFetchLimit = 500

	defaultShutdownTimeout = 5 * time.Second
)

// Feed is one live collection session. Created idle; Start launches the selected
// strategy; Stop cancels it. Stop-then-start-with-a-different-mode is allowed.
type Feed struct {
	exchange string
	pair     common.Pair
	interval common.Interval

	adapter       common.Adapter
	store         *store.Store
	transport     common.Transport
	ownsTransport bool
	fetchCache    *cache.MemoryCache
	logger        zerolog.Logger
	retryStrategy common.RetryStrategy

	timeNowFunc     func() time.Time
	sleepFunc       func(ctx context.Context, d time.Duration) bool
	shutdownTimeout time.Duration

	mu      sync.Mutex
	running bool
	mode    Mode
	cancel  context.CancelFunc
	done    chan struct{}
}

type options struct {
	capacity        int
	netcfg          common.NetworkConfig
	transport       common.Transport
	transportOpts   transport.Options
	hostBundle      *transport.HostBundle
	fetchCache      *cache.MemoryCache
	logger          zerolog.Logger
	timeNowFunc     func() time.Time
	shutdownTimeout time.Duration
	retryStrategy   common.RetryStrategy
}

// Option configures a Feed at construction time.
type Option func(*options)

// WithCapacity sets the ring capacity N.
func WithCapacity(n int) Option { return func(o *options) { o.capacity = n } }

// WithNetworkConfig sets the network config the adapter is resolved with; it
// governs every URL the adapter produces.
func WithNetworkConfig(cfg common.NetworkConfig) Option { return func(o *options) { o.netcfg = cfg } }

// WithTransport injects a ready-made transport; the feed will not close it.
func WithTransport(t common.Transport) Option { return func(o *options) { o.transport = t } }

// WithTransportOptions configures the built-in transport.
func WithTransportOptions(topts transport.Options) Option {
	return func(o *options) { o.transportOpts = topts }
}

// WithHostTransport delegates rate limiting and websocket sessions to a host
// framework's transport bundle.
func WithHostTransport(bundle *transport.HostBundle) Option {
	return func(o *options) { o.hostBundle = bundle }
}

// WithCache consults the given cache before one-shot Fetch calls hit the venue.
func WithCache(c *cache.MemoryCache) Option { return func(o *options) { o.fetchCache = c } }

// WithLogger sets the feed's logger; the default discards everything.
func WithLogger(logger zerolog.Logger) Option { return func(o *options) { o.logger = logger } }

// WithClock overrides the feed's time source. Used by tests.
func WithClock(now func() time.Time) Option { return func(o *options) { o.timeNowFunc = now } }

// WithShutdownTimeout bounds how long Stop waits for the strategy to wind down.
func WithShutdownTimeout(d time.Duration) Option { return func(o *options) { o.shutdownTimeout = d } }

// WithRetryStrategy configures retries of one-shot REST requests.
func WithRetryStrategy(s common.RetryStrategy) Option { return func(o *options) { o.retryStrategy = s } }

// New constructs an idle feed: resolves the adapter from the registry, allocates
// the ring, and builds the transport. No collection starts until Start.
//
// * Fails with ErrUnknownExchange if no adapter is registered under exchange.
// * Fails with ErrMalformedPair if the pair isn't canonical BASE-QUOTE.
// * Fails with ErrUnsupportedInterval if the interval is unknown or the venue
//   doesn't offer it over REST.
func New(exchange, pairStr, intervalStr string, opts ...Option) (*Feed, error) {
	o := &options{
		capacity:        DefaultCapacity,
		netcfg:          common.Production(),
		logger:          zerolog.Nop(),
		timeNowFunc:     time.Now,
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	pair, err := common.ParsePair(pairStr)
	if err != nil {
		return nil, err
	}
	interval, err := common.ParseInterval(intervalStr)
	if err != nil {
		return nil, err
	}
	adapter, err := registry.Resolve(exchange, o.netcfg)
	if err != nil {
		return nil, err
	}
	if _, ok := adapter.SupportedIntervals()[interval]; !ok {
		return nil, fmt.Errorf("%w: %v does not offer %v", common.ErrUnsupportedInterval, adapter.Name(), interval)
	}

	logger := o.logger.With().
		Str("exchange", adapter.Name()).
		Str("pair", pair.String()).
		Str("interval", string(interval)).
		Logger()

	f := &Feed{
		exchange:        adapter.Name(),
		pair:            pair,
		interval:        interval,
		adapter:         adapter,
		store:           store.New(o.capacity, interval.Seconds()),
		fetchCache:      o.fetchCache,
		logger:          logger,
		retryStrategy:   o.retryStrategy,
		timeNowFunc:     o.timeNowFunc,
		sleepFunc:       sleepCtx,
		shutdownTimeout: o.shutdownTimeout,
	}
	if o.transport != nil {
		f.transport = o.transport
	} else {
		f.transport = transport.New(o.transportOpts, o.hostBundle, logger)
		f.ownsTransport = true
	}
	return f, nil
}

// Start launches the collection strategy for the given mode. Idempotent: a second
// Start while running is a no-op.
//
// * Fails with ErrNotSupported when ModeStreaming is requested but the adapter
//   doesn't stream the feed's interval.
func (f *Feed) Start(mode Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return nil
	}

	streamable := f.adapter.WSSupportedIntervals()[f.interval]
	selected := mode
	switch mode {
	case ModeAuto, "":
		selected = ModePolling
		if streamable {
			selected = ModeStreaming
		}
	case ModeStreaming:
		if !streamable {
			return fmt.Errorf("%w: %v does not stream %v", common.ErrNotSupported, f.exchange, f.interval)
		}
	case ModePolling:
	default:
		return fmt.Errorf("invalid mode %q", mode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	f.cancel = cancel
	f.done = done
	f.mode = selected
	f.running = true

	f.logger.Info().Str("mode", string(selected)).Msg("starting feed")
	go func() {
		defer close(done)
		if selected == ModeStreaming {
			newStreamer(f).run(ctx)
		} else {
			newPoller(f).run(ctx)
		}
	}()
	return nil
}

// Stop cancels the strategy and releases the owned transport's pooled resources.
// It waits up to the shutdown timeout for the strategy to wind down; exceeding it
// logs and returns. Idempotent.
func (f *Feed) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return nil
	}
	f.cancel()
	select {
	case <-f.done:
	case <-time.After(f.shutdownTimeout):
		f.logger.Warn().Dur("timeout", f.shutdownTimeout).Msg("strategy did not stop within shutdown timeout")
	}
	f.running = false
	if f.ownsTransport {
		if err := f.transport.Close(); err != nil {
			f.logger.Warn().Err(err).Msg("error closing transport")
		}
	}
	f.logger.Info().Msg("feed stopped")
	return nil
}

// Fetch is a one-shot REST query that doesn't touch the steady state of a running
// strategy: results are merged into the ring (so an explicit Fetch can populate an
// idle feed or fill gaps) and the sanitized sequence is returned.
//
// endTime defaults to now rounded down to the interval; startTime defaults to
// endTime - limit*interval; limit defaults to 500. Transport errors surface to the
// caller; an empty result fails with ErrNoCandles.
func (f *Feed) Fetch(ctx context.Context, startTime, endTime, limit int) ([]common.Candle, error) {
	secs := f.interval.Seconds()
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	if endTime <= 0 {
		endTime = f.interval.AlignTimeDown(f.timeNowFunc())
	}
	if startTime <= 0 {
		startTime = endTime - limit*secs
	}

	if cs, ok := f.cachedRange(startTime, endTime, limit); ok {
		f.store.MergeAll(cs)
		return cs, nil
	}

	cs, err := newPoller(f).pollOnce(ctx, startTime, endTime, limit)
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, common.ErrNoCandles
	}
	f.store.MergeAll(cs)
	f.cachePut(cs)
	return cs, nil
}

func (f *Feed) cachedRange(startTime, endTime, limit int) ([]common.Candle, bool) {
	if f.fetchCache == nil {
		return nil, false
	}
	cs, err := f.fetchCache.Get(cache.Key{Exchange: f.exchange, Pair: f.pair}, f.interval, startTime)
	if err != nil {
		return nil, false
	}
	want := (endTime-startTime)/f.interval.Seconds() + 1
	if want > limit {
		want = limit
	}
	if len(cs) < want {
		return nil, false
	}
	return cs[:want], true
}

func (f *Feed) cachePut(cs []common.Candle) {
	if f.fetchCache == nil {
		return
	}
	if err := f.fetchCache.Put(cache.Key{Exchange: f.exchange, Pair: f.pair}, f.interval, cs); err != nil {
		f.logger.Debug().Err(err).Msg("ignoring error putting into fetch cache")
	}
}

// Snapshot returns a copy of the ring, oldest first.
func (f *Feed) Snapshot() []common.Candle { return f.store.Snapshot() }

// Ready returns true iff the ring is at least 90% full and gap-free.
func (f *Feed) Ready() bool { return f.store.Ready() }

// FirstOpenTime returns the oldest candle's OpenTime, and false when empty.
func (f *Feed) FirstOpenTime() (int, bool) { return f.store.FirstOpenTime() }

// LastOpenTime returns the most recent candle's OpenTime, and false when empty.
func (f *Feed) LastOpenTime() (int, bool) { return f.store.LastOpenTime() }

// Add merges one candle directly into the ring. Used by tests.
func (f *Feed) Add(c common.Candle) { f.store.Merge(c) }

// Exchange returns the feed's resolved uppercase exchange name.
func (f *Feed) Exchange() string { return f.exchange }

// Pair returns the feed's canonical trading pair.
func (f *Feed) Pair() common.Pair { return f.pair }

// Interval returns the feed's candle interval.
func (f *Feed) Interval() common.Interval { return f.interval }

// Mode returns the strategy selected by the last Start, or "" before any Start.
func (f *Feed) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// Running reports whether a strategy is currently active.
func (f *Feed) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *Feed) sanitize(cs []common.Candle) []common.Candle {
	return processor.Sanitize(cs, f.interval.Seconds())
}

// sleepCtx sleeps for d unless the context ends first; returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
