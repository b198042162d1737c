package common

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// HTTPClient is the minimal REST surface adapters consume. The built-in
// implementation lives in the transport package; a host framework may supply its
// own.
type HTTPClient interface {
	// Get executes a GET against rawURL with the given query params and returns the
	// response body. HTTP status >= 400 surfaces as a TransportError carrying the
	// status code and body.
	Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error)

	// Post executes a POST with an empty body. A few venues require it, e.g. KuCoin's
	// websocket token endpoint.
	Post(ctx context.Context, rawURL string, params url.Values) ([]byte, error)
}

// Session is a live websocket connection. It is owned by a single strategy
// goroutine and is not safe for concurrent sends.
type Session interface {
	// Send writes one text frame.
	Send(frame []byte) error

	// Messages returns the channel of incoming frames. It is closed when the
	// session ends, either via Close or an I/O error; consult Err afterwards.
	Messages() <-chan []byte

	// Err reports why Messages closed, or nil after a clean Close.
	Err() error

	Close() error
}

// WSDialer opens websocket sessions.
type WSDialer interface {
	Dial(ctx context.Context, rawURL string) (Session, error)
}

// Transport bundles the REST and websocket surfaces a feed needs, plus a Close
// that releases pooled resources.
type Transport interface {
	HTTPClient
	WSDialer
	Close() error
}

// TimestampUnit declares how a venue represents timestamps on the wire. The shared
// request helpers convert from internal UNIX seconds.
type TimestampUnit int

const (
	// TimestampSeconds is UNIX seconds, e.g. KuCoin, Bitstamp.
	TimestampSeconds TimestampUnit = iota
	// TimestampMillis is UNIX milliseconds, e.g. Binance, OKX, Bybit.
	TimestampMillis
	// TimestampISO8601 is an RFC3339 string, e.g. Coinbase.
	TimestampISO8601
)

// Format renders a UNIX-seconds timestamp in the unit's wire representation.
func (u TimestampUnit) Format(ts int) string {
	switch u {
	case TimestampMillis:
		return fmt.Sprintf("%v", int64(ts)*1000)
	case TimestampISO8601:
		return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", ts)
	}
}

// WSResult is the outcome of parsing one websocket frame.
//
// Candles is empty for non-candle frames (heartbeats, subscription acks, errors the
// venue reports in-band). Pong, when non-nil, is a control reply the venue expects
// the session to send back before reading further frames.
type WSResult struct {
	Candles []Candle
	Pong    []byte
}

// Adapter is the per-venue capability surface. Implementations are stateless with
// respect to candle data; they hold the network config they were resolved with and
// translate between the venue's wire formats and the Candle record.
//
// Adapters without streaming support embed NoWebsocket, which fails the ws
// operations explicitly rather than silently returning empty results.
type Adapter interface {
	// Name is the uppercase name of the exchange, e.g. "BINANCE".
	Name() string

	// FormatPair translates the canonical pair into the venue's symbol. Pure function.
	FormatPair(pair Pair) string

	// SupportedIntervals is the set of intervals the venue offers over REST, mapped
	// to their duration in seconds.
	SupportedIntervals() map[Interval]int

	// WSSupportedIntervals is the subset of SupportedIntervals the venue streams.
	// Empty or nil for REST-only venues.
	WSSupportedIntervals() map[Interval]bool

	// RESTURL resolves the base URL for an endpoint class per the adapter's network
	// config.
	//
	// * Fails with ErrNotSupported if testnet is selected on a venue without one.
	RESTURL(class EndpointClass) (string, error)

	// RESTParams shapes the candles query for the venue. startTime <= 0 means "from
	// the venue's default lookback".
	//
	// * Fails with ErrUnsupportedInterval if the venue lacks the interval.
	RESTParams(pair Pair, interval Interval, startTime int, limit int) (url.Values, error)

	// ParseRESTResponse decodes the venue's candles payload. Returned candles are in
	// ascending OpenTime order or a permutation thereof; callers sanitize.
	//
	// * Fails with ErrInvalidPair if the venue rejected the symbol.
	// * Fails with a ParseError if the payload doesn't match the expected shape.
	ParseRESTResponse(bs []byte) ([]Candle, error)

	// WSURL resolves the websocket URL. Venues that require a pre-connection token
	// fetch do it here, which is why an HTTPClient is supplied; a failed token fetch
	// surfaces as a TransportError and triggers reconnect.
	WSURL(ctx context.Context, hc HTTPClient) (string, error)

	// WSSubscribePayload shapes the frame that subscribes to candle updates for the
	// pair/interval.
	WSSubscribePayload(pair Pair, interval Interval) ([]byte, error)

	// ParseWSMessage decodes one frame. Non-candle frames yield an empty WSResult and
	// no error; a required control reply is indicated via WSResult.Pong.
	ParseWSMessage(frame []byte) (WSResult, error)

	// FetchCandles orchestrates RESTURL + RESTParams + the transport call +
	// ParseRESTResponse. Most adapters delegate to the FetchCandles helper.
	FetchCandles(ctx context.Context, hc HTTPClient, pair Pair, interval Interval, startTime int, limit int) ([]Candle, error)
}

// FetchCandles is the default orchestration of an adapter's REST capability; it is
// what adapters' FetchCandles methods delegate to.
func FetchCandles(ctx context.Context, a Adapter, hc HTTPClient, pair Pair, interval Interval, startTime int, limit int) ([]Candle, error) {
	base, err := a.RESTURL(EndpointCandles)
	if err != nil {
		return nil, err
	}
	params, err := a.RESTParams(pair, interval, startTime, limit)
	if err != nil {
		return nil, err
	}
	bs, err := hc.Get(ctx, base, params)
	if err != nil {
		return nil, err
	}
	return a.ParseRESTResponse(bs)
}

// NoWebsocket supplies the streaming surface for REST-only venues: declared
// unsupported, and failing explicitly when invoked.
type NoWebsocket struct{}

// WSSupportedIntervals returns nil: nothing is streamable.
func (NoWebsocket) WSSupportedIntervals() map[Interval]bool { return nil }

// WSURL fails with ErrNotSupported.
func (NoWebsocket) WSURL(context.Context, HTTPClient) (string, error) {
	return "", fmt.Errorf("%w: streaming", ErrNotSupported)
}

// WSSubscribePayload fails with ErrNotSupported.
func (NoWebsocket) WSSubscribePayload(Pair, Interval) ([]byte, error) {
	return nil, fmt.Errorf("%w: streaming", ErrNotSupported)
}

// ParseWSMessage fails with ErrNotSupported.
func (NoWebsocket) ParseWSMessage([]byte) (WSResult, error) {
	return WSResult{}, fmt.Errorf("%w: streaming", ErrNotSupported)
}
