package bitstamp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// Bitstamp is the only supported venue that already returns candlesticks
// oldest-first, as objects with every value stringified:
//
// {
//   "data": {
//     "pair": "BTC/USD",
//     "ohlc": [
//       {"timestamp":"1626868560","open":"31540.72","high":"31584.30","low":"31540.72","close":"31576.13","volume":"0.19263938"}
//     ]
//   }
// }
//
// Unknown markets return a 404 page.

type response struct {
	Data struct {
		Pair string  `json:"pair"`
		OHLC []entry `json:"ohlc"`
	} `json:"data"`
}

type entry struct {
	Timestamp string `json:"timestamp"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

// RESTParams shapes the ohlc query; start is UNIX seconds.
func (e *Bitstamp) RESTParams(pair common.Pair, interval common.Interval, startTime int, limit int) (url.Values, error) {
	code, ok := intervalCodes[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %v on %v", common.ErrUnsupportedInterval, interval, e.Name())
	}
	params := url.Values{}
	params.Set("step", code)
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	params.Set("limit", strconv.Itoa(limit))
	if startTime > 0 {
		params.Set("start", common.TimestampSeconds.Format(startTime))
	}
	return params, nil
}

// ParseRESTResponse decodes the ohlc payload; no reversal needed.
func (e *Bitstamp) ParseRESTResponse(bs []byte) ([]common.Candle, error) {
	var resp response
	if err := json.Unmarshal(bs, &resp); err != nil {
		return nil, common.ParseError{Exchange: e.Name(), Err: err}
	}

	candles := make([]common.Candle, 0, len(resp.Data.OHLC))
	for _, en := range resp.Data.OHLC {
		candle, err := en.toCandle()
		if err != nil {
			return nil, common.ParseError{Exchange: e.Name(), Err: err}
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// FetchCandles composes the market-scoped ohlc URL itself, since the market symbol
// lives in the path rather than the query.
func (e *Bitstamp) FetchCandles(ctx context.Context, hc common.HTTPClient, pair common.Pair, interval common.Interval, startTime int, limit int) ([]common.Candle, error) {
	base, err := e.RESTURL(common.EndpointCandles)
	if err != nil {
		return nil, err
	}
	params, err := e.RESTParams(pair, interval, startTime, limit)
	if err != nil {
		return nil, err
	}
	bs, err := hc.Get(ctx, base+e.FormatPair(pair)+"/", params)
	if err != nil {
		var te common.TransportError
		if errors.As(err, &te) && te.Status == http.StatusNotFound {
			return nil, common.ErrInvalidPair
		}
		return nil, err
	}
	return e.ParseRESTResponse(bs)
}

func (en entry) toCandle() (common.Candle, error) {
	ts, err := strconv.Atoi(en.Timestamp)
	if err != nil {
		return common.Candle{}, fmt.Errorf("ohlc field timestamp: %v", err)
	}
	fields := [5]struct {
		name  string
		value string
	}{
		{"open", en.Open},
		{"high", en.High},
		{"low", en.Low},
		{"close", en.Close},
		{"volume", en.Volume},
	}
	var parsed [5]float64
	for i, f := range fields {
		parsed[i], err = strconv.ParseFloat(f.value, 64)
		if err != nil {
			return common.Candle{}, fmt.Errorf("ohlc field %q: %v", f.name, err)
		}
	}
	return common.Candle{
		OpenTime:     ts,
		OpenPrice:    common.JSONFloat64(parsed[0]),
		HighestPrice: common.JSONFloat64(parsed[1]),
		LowestPrice:  common.JSONFloat64(parsed[2]),
		ClosePrice:   common.JSONFloat64(parsed[3]),
		Volume:       common.JSONFloat64(parsed[4]),
	}, nil
}
