package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// KuCoin returns candlesticks newest-first with second-granularity timestamps, and
// in an unusual field order: close comes before high and low.
//
// {
//   "code": "200000",
//   "data": [
//     ["1566789720","10411.5","10401.9","10411.5","10396.3","29.11357276","302889.301529914"],
//     ["1566789660","10416","10411.5","10422.3","10411.5","15.61781842","162703.708997029"]
//   ]
// }
//
// Each row is [time, open, close, high, low, volume, turnover].

const (
	successCode     = "200000"
	errCodeBadParam = "400100"

	invalidPairMsg = "This pair is not provided at present"
)

type response struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}

// RESTParams shapes the /market/candles query; startAt/endAt are UNIX seconds.
func (e *Kucoin) RESTParams(pair common.Pair, interval common.Interval, startTime int, limit int) (url.Values, error) {
	code, ok := intervalCodes[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %v on %v", common.ErrUnsupportedInterval, interval, e.Name())
	}
	params := url.Values{}
	params.Set("symbol", e.FormatPair(pair))
	params.Set("type", code)
	if startTime > 0 {
		params.Set("startAt", common.TimestampSeconds.Format(startTime))
		if limit > 0 {
			params.Set("endAt", common.TimestampSeconds.Format(startTime+limit*interval.Seconds()))
		}
	}
	return params, nil
}

// ParseRESTResponse decodes the candles payload and reverses it into ascending
// order.
func (e *Kucoin) ParseRESTResponse(bs []byte) ([]common.Candle, error) {
	var resp response
	if err := json.Unmarshal(bs, &resp); err != nil {
		return nil, common.ParseError{Exchange: e.Name(), Err: err}
	}
	if resp.Code != successCode {
		if resp.Code == errCodeBadParam && strings.Contains(resp.Msg, invalidPairMsg) {
			return nil, common.ErrInvalidPair
		}
		return nil, common.ParseError{Exchange: e.Name(), Err: fmt.Errorf("error code %v: %v", resp.Code, resp.Msg)}
	}

	candles := make([]common.Candle, 0, len(resp.Data))
	for _, row := range resp.Data {
		candle, err := parseRow(row)
		if err != nil {
			return nil, common.ParseError{Exchange: e.Name(), Err: err}
		}
		candles = append(candles, candle)
	}
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// FetchCandles delegates to the shared REST orchestration.
func (e *Kucoin) FetchCandles(ctx context.Context, hc common.HTTPClient, pair common.Pair, interval common.Interval, startTime int, limit int) ([]common.Candle, error) {
	return common.FetchCandles(ctx, e, hc, pair, interval, startTime, limit)
}

func parseRow(row []string) (common.Candle, error) {
	if len(row) < 7 {
		return common.Candle{}, fmt.Errorf("candle row had %v fields, expected 7", len(row))
	}
	ts, err := strconv.Atoi(row[0])
	if err != nil {
		return common.Candle{}, fmt.Errorf("candle field time: %v", err)
	}
	var values [6]float64
	for i := 1; i <= 6; i++ {
		values[i-1], err = strconv.ParseFloat(row[i], 64)
		if err != nil {
			return common.Candle{}, fmt.Errorf("candle field %v: %v", i, err)
		}
	}
	return common.Candle{
		OpenTime:     ts,
		OpenPrice:    common.JSONFloat64(values[0]),
		ClosePrice:   common.JSONFloat64(values[1]),
		HighestPrice: common.JSONFloat64(values[2]),
		LowestPrice:  common.JSONFloat64(values[3]),
		Volume:       common.JSONFloat64(values[4]),
		QuoteVolume:  common.JSONFloat64(values[5]),
	}, nil
}
