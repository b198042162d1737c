package coinbase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// Coinbase returns candlesticks newest-first as arrays of numbers, with low before
// high and open after both:
//
// [
//   [1626868560, 31540.72, 31584.3, 1.0, 31576.13, 0.19263938],
//   [1626868500, 31576.13, 31576.14, 31540.72, 31540.72, 0.13923067]
// ]
//
// Each row is [time, low, high, open, close, volume]. Unknown products return a
// 404 with {"message":"NotFound"}.

// RESTParams shapes the candles query; start/end are RFC3339 and the range is
// capped at Coinbase's 300-candle page.
func (e *Coinbase) RESTParams(pair common.Pair, interval common.Interval, startTime int, limit int) (url.Values, error) {
	code, ok := intervalCodes[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %v on %v", common.ErrUnsupportedInterval, interval, e.Name())
	}
	params := url.Values{}
	params.Set("granularity", code)
	if startTime > 0 {
		if limit <= 0 || limit > 300 {
			limit = 300
		}
		params.Set("start", common.TimestampISO8601.Format(startTime))
		params.Set("end", common.TimestampISO8601.Format(startTime+(limit-1)*interval.Seconds()))
	}
	return params, nil
}

// ParseRESTResponse decodes the candles payload and reverses it into ascending
// order.
func (e *Coinbase) ParseRESTResponse(bs []byte) ([]common.Candle, error) {
	var raw [][]float64
	if err := json.Unmarshal(bs, &raw); err != nil {
		var errResp struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(bs, &errResp) == nil && errResp.Message == "NotFound" {
			return nil, common.ErrInvalidPair
		}
		return nil, common.ParseError{Exchange: e.Name(), Err: err}
	}

	candles := make([]common.Candle, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			return nil, common.ParseError{Exchange: e.Name(), Err: fmt.Errorf("candle row had %v fields, expected 6", len(row))}
		}
		candles = append(candles, common.Candle{
			OpenTime:     int(row[0]),
			LowestPrice:  common.JSONFloat64(row[1]),
			HighestPrice: common.JSONFloat64(row[2]),
			OpenPrice:    common.JSONFloat64(row[3]),
			ClosePrice:   common.JSONFloat64(row[4]),
			Volume:       common.JSONFloat64(row[5]),
		})
	}
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// FetchCandles composes the product-scoped candles URL itself, since the product
// id lives in the path rather than the query.
func (e *Coinbase) FetchCandles(ctx context.Context, hc common.HTTPClient, pair common.Pair, interval common.Interval, startTime int, limit int) ([]common.Candle, error) {
	base, err := e.RESTURL(common.EndpointCandles)
	if err != nil {
		return nil, err
	}
	params, err := e.RESTParams(pair, interval, startTime, limit)
	if err != nil {
		return nil, err
	}
	bs, err := hc.Get(ctx, base+e.FormatPair(pair)+"/candles", params)
	if err != nil {
		var te common.TransportError
		if errors.As(err, &te) && te.Status == http.StatusNotFound {
			return nil, common.ErrInvalidPair
		}
		return nil, err
	}
	return e.ParseRESTResponse(bs)
}
