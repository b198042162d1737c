package coinbase

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

// Rows come newest-first, as [time, low, high, open, close, volume].
const candlesFixture = `[
  [1626868620, 31540.72, 31576.14, 31576.13, 31540.72, 0.13923067],
  [1626868560, 31540.72, 31584.30, 31540.72, 31576.13, 0.19263938]
]`

func TestFormatPair(t *testing.T) {
	e := NewCoinbase(common.Production())
	require.Equal(t, "BTC-USD", e.FormatPair(btcusd))
}

func TestNoStreaming(t *testing.T) {
	e := NewCoinbase(common.Production())
	require.Empty(t, e.WSSupportedIntervals())
	_, err := e.WSURL(context.Background(), nil)
	require.ErrorIs(t, err, common.ErrNotSupported)
}

func TestRESTParams(t *testing.T) {
	e := NewCoinbase(common.Production())
	params, err := e.RESTParams(btcusd, common.Interval1m, 1626868560, 2)
	require.NoError(t, err)
	require.Equal(t, "60", params.Get("granularity"))
	require.Equal(t, "2021-07-21T11:56:00Z", params.Get("start"))
	require.Equal(t, "2021-07-21T11:57:00Z", params.Get("end"))

	_, err = e.RESTParams(btcusd, common.Interval3m, 0, 0)
	require.ErrorIs(t, err, common.ErrUnsupportedInterval)
}

func TestParseRESTResponse(t *testing.T) {
	e := NewCoinbase(common.Production())
	candles, err := e.ParseRESTResponse([]byte(candlesFixture))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	require.Equal(t, common.Candle{
		OpenTime:     1626868560,
		OpenPrice:    31540.72,
		HighestPrice: 31584.3,
		LowestPrice:  31540.72,
		ClosePrice:   31576.13,
		Volume:       0.19263938,
	}, candles[0])
	require.Equal(t, 1626868620, candles[1].OpenTime)
}

func TestFetchCandlesComposesProductURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products/BTC-USD/candles", r.URL.Path)
		w.Write([]byte(candlesFixture))
	}))
	defer ts.Close()

	e := NewCoinbase(common.ForTesting())
	e.overrideAPIURL(ts.URL + "/")
	hc := transport.NewClient(transport.Options{}, zerolog.Nop())
	defer hc.Close()

	candles, err := e.FetchCandles(context.Background(), hc, btcusd, common.Interval1m, 1626868560, 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)
}

func TestFetchCandlesUnknownProduct(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"NotFound"}`))
	}))
	defer ts.Close()

	e := NewCoinbase(common.ForTesting())
	e.overrideAPIURL(ts.URL + "/")
	hc := transport.NewClient(transport.Options{}, zerolog.Nop())
	defer hc.Close()

	_, err := e.FetchCandles(context.Background(), hc, btcusd, common.Interval1m, 1626868560, 2)
	require.ErrorIs(t, err, common.ErrInvalidPair)
}
