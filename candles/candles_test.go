package candles

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marianogappa/candle-feeds/candles/common"
	"github.com/marianogappa/candle-feeds/candles/feed"
)

func TestListExchanges(t *testing.T) {
	require.Equal(t, []string{
		"BINANCE",
		"BITFINEX",
		"BITSTAMP",
		"BYBIT",
		"COINBASE",
		"KUCOIN",
		"OKX",
	}, ListExchanges())
}

func TestNewFeedResolvesEveryExchange(t *testing.T) {
	for _, exchange := range ListExchanges() {
		t.Run(exchange, func(t *testing.T) {
			f, err := NewFeed(exchange, "BTC-USDT", "1m")
			require.NoError(t, err)
			require.Equal(t, exchange, f.Exchange())
			require.False(t, f.Running())
		})
	}
}

func TestNewFeedValidation(t *testing.T) {
	_, err := NewFeed("NOSUCHVENUE", "BTC-USDT", "1m")
	require.ErrorIs(t, err, common.ErrUnknownExchange)

	_, err = NewFeed("BINANCE", "BTCUSDT", "1m")
	require.ErrorIs(t, err, common.ErrMalformedPair)

	// Coinbase doesn't offer 3m.
	_, err = NewFeed("COINBASE", "BTC-USD", "3m")
	require.ErrorIs(t, err, common.ErrUnsupportedInterval)
}

func TestForcedStreamingOnRESTOnlyVenue(t *testing.T) {
	f, err := NewFeed("BITSTAMP", "BTC-USD", "1m")
	require.NoError(t, err)
	require.ErrorIs(t, f.Start(feed.ModeStreaming), common.ErrNotSupported)
}
