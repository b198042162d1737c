package bitfinex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// Bitfinex returns candlesticks as arrays of numbers with close before high and
// low, and millisecond timestamps:
//
// [
//   [1626868560000, 31540.72, 31576.13, 31584.3, 31540.72, 0.19263938],
//   [1626868620000, 31576.13, 31540.72, 31576.14, 31540.72, 0.13923067]
// ]
//
// Each row is [mts, open, close, high, low, volume]. With sort=1 the rows come
// oldest-first. Errors come as ["error", code, "message"] arrays.

// RESTParams shapes the candles query; sort=1 requests ascending order so no
// reversal is needed.
func (e *Bitfinex) RESTParams(pair common.Pair, interval common.Interval, startTime int, limit int) (url.Values, error) {
	if _, ok := intervalCodes[interval]; !ok {
		return nil, fmt.Errorf("%w: %v on %v", common.ErrUnsupportedInterval, interval, e.Name())
	}
	params := url.Values{}
	params.Set("sort", "1")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if startTime > 0 {
		params.Set("start", common.TimestampMillis.Format(startTime))
	}
	return params, nil
}

// ParseRESTResponse decodes the candles payload, which shares its array-of-arrays
// shape with the venue's error responses.
func (e *Bitfinex) ParseRESTResponse(bs []byte) ([]common.Candle, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(bs, &raw); err != nil {
		return nil, common.ParseError{Exchange: e.Name(), Err: err}
	}
	if len(raw) >= 3 {
		var label string
		if json.Unmarshal(raw[0], &label) == nil && label == "error" {
			var code int
			var msg string
			_ = json.Unmarshal(raw[1], &code)
			_ = json.Unmarshal(raw[2], &msg)
			if strings.Contains(msg, "symbol: invalid") {
				return nil, common.ErrInvalidPair
			}
			return nil, common.ParseError{Exchange: e.Name(), Err: fmt.Errorf("error code %v: %v", code, msg)}
		}
	}

	candles := make([]common.Candle, 0, len(raw))
	for _, rowRaw := range raw {
		var row []float64
		if err := json.Unmarshal(rowRaw, &row); err != nil {
			return nil, common.ParseError{Exchange: e.Name(), Err: err}
		}
		if len(row) < 6 {
			return nil, common.ParseError{Exchange: e.Name(), Err: fmt.Errorf("candle row had %v fields, expected 6", len(row))}
		}
		candles = append(candles, common.Candle{
			OpenTime:     int(row[0]) / 1000,
			OpenPrice:    common.JSONFloat64(row[1]),
			ClosePrice:   common.JSONFloat64(row[2]),
			HighestPrice: common.JSONFloat64(row[3]),
			LowestPrice:  common.JSONFloat64(row[4]),
			Volume:       common.JSONFloat64(row[5]),
		})
	}
	return candles, nil
}

// FetchCandles composes the timeframe-and-symbol-scoped candles URL itself, e.g.
// candles/trade:1m:tBTCUSD/hist.
func (e *Bitfinex) FetchCandles(ctx context.Context, hc common.HTTPClient, pair common.Pair, interval common.Interval, startTime int, limit int) ([]common.Candle, error) {
	base, err := e.RESTURL(common.EndpointCandles)
	if err != nil {
		return nil, err
	}
	params, err := e.RESTParams(pair, interval, startTime, limit)
	if err != nil {
		return nil, err
	}
	code := intervalCodes[interval]
	bs, err := hc.Get(ctx, fmt.Sprintf("%vtrade:%v:%v/hist", base, code, e.FormatPair(pair)), params)
	if err != nil {
		return nil, err
	}
	return e.ParseRESTResponse(bs)
}
