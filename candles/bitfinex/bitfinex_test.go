package bitfinex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/marianogappa/candle-feeds/candles/common"
	"github.com/marianogappa/candle-feeds/candles/transport"
)

var btcusd = common.Pair{Base: "BTC", Quote: "USD"}

// With sort=1 rows come oldest-first, as [mts, open, close, high, low, volume].
const candlesFixture = `[
  [1626868560000, 31540.72, 31576.13, 31584.30, 31540.72, 0.19263938],
  [1626868620000, 31576.13, 31540.72, 31576.14, 31540.72, 0.13923067]
]`

func TestFormatPair(t *testing.T) {
	e := NewBitfinex(common.Production())
	require.Equal(t, "tBTCUSD", e.FormatPair(btcusd))
	// Bitfinex calls Tether UST.
	require.Equal(t, "tBTCUST", e.FormatPair(common.Pair{Base: "BTC", Quote: "USDT"}))
}

func TestNoStreaming(t *testing.T) {
	e := NewBitfinex(common.Production())
	require.Empty(t, e.WSSupportedIntervals())
	_, err := e.WSURL(context.Background(), nil)
	require.ErrorIs(t, err, common.ErrNotSupported)
}

func TestRESTParams(t *testing.T) {
	e := NewBitfinex(common.Production())
	params, err := e.RESTParams(btcusd, common.Interval1m, 1626868560, 2)
	require.NoError(t, err)
	require.Equal(t, "1", params.Get("sort"))
	require.Equal(t, "2", params.Get("limit"))
	require.Equal(t, "1626868560000", params.Get("start"))

	_, err = e.RESTParams(btcusd, common.Interval3m, 0, 0)
	require.ErrorIs(t, err, common.ErrUnsupportedInterval)
}

func TestParseRESTResponse(t *testing.T) {
	e := NewBitfinex(common.Production())
	candles, err := e.ParseRESTResponse([]byte(candlesFixture))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	require.Equal(t, common.Candle{
		OpenTime:     1626868560,
		OpenPrice:    31540.72,
		ClosePrice:   31576.13,
		HighestPrice: 31584.3,
		LowestPrice:  31540.72,
		Volume:       0.19263938,
	}, candles[0])
	require.Equal(t, 1626868620, candles[1].OpenTime)
}

func TestParseRESTResponseErrors(t *testing.T) {
	e := NewBitfinex(common.Production())

	_, err := e.ParseRESTResponse([]byte(`["error", 10020, "symbol: invalid"]`))
	require.ErrorIs(t, err, common.ErrInvalidPair)

	_, err = e.ParseRESTResponse([]byte(`["error", 10100, "ratelimit: error"]`))
	var pe common.ParseError
	require.ErrorAs(t, err, &pe)
}

func TestFetchCandlesComposesPathURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/candles/trade:1m:tBTCUSD/hist", r.URL.Path)
		require.Equal(t, "1", r.URL.Query().Get("sort"))
		w.Write([]byte(candlesFixture))
	}))
	defer ts.Close()

	e := NewBitfinex(common.ForTesting())
	e.overrideAPIURL(ts.URL + "/")
	hc := transport.NewClient(transport.Options{}, zerolog.Nop())
	defer hc.Close()

	candles, err := e.FetchCandles(context.Background(), hc, btcusd, common.Interval1m, 1626868560, 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)
}
