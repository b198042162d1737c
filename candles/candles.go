// Package candles is the entry point of the candle-feeds collection engine: live
// OHLCV candlestick feeds from crypto exchanges over a single interface, streamed
// where the venue supports it and polled where it doesn't.
//
// Importing this package registers every supported exchange adapter.
package candles

import (
	"github.com/marianogappa/candle-feeds/candles/feed"
	"github.com/marianogappa/candle-feeds/candles/registry"

	// Adapter registrations.
	_ "github.com/marianogappa/candle-feeds/candles/binance"
	_ "github.com/marianogappa/candle-feeds/candles/bitfinex"
	_ "github.com/marianogappa/candle-feeds/candles/bitstamp"
	_ "github.com/marianogappa/candle-feeds/candles/bybit"
	_ "github.com/marianogappa/candle-feeds/candles/coinbase"
	_ "github.com/marianogappa/candle-feeds/candles/kucoin"
	_ "github.com/marianogappa/candle-feeds/candles/okx"
)

// NewFeed constructs an idle feed for the exchange, canonical BASE-QUOTE pair and
// canonical interval, e.g. NewFeed("BINANCE", "BTC-USDT", "1m"). Call Start on the
// result to begin collecting, or Fetch for a one-shot query.
func NewFeed(exchange, pair, interval string, opts ...feed.Option) (*feed.Feed, error) {
	return feed.New(exchange, pair, interval, opts...)
}

// ListExchanges returns the names of all registered exchanges, sorted.
func ListExchanges() []string {
	return registry.List()
}
