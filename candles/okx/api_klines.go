package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// OKX returns candlesticks newest-first, so the parsed slice is reversed before
// returning. Volume in the quote currency sits at index 7 (volCcyQuote).
//
// {
//   "code": "0",
//   "msg": "",
//   "data": [
//     ["1597026383085","8533.02","8553.74","8527.17","8548.26","45247","386239317","386239317","1"],
//     ["1597026383085","8533.02","8553.74","8527.17","8548.26","45247","386239317","386239317","1"]
//   ]
// }

const errCodeInstrumentDoesNotExist = "51001"

type response struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}

// RESTParams shapes the /market/candles query. OKX's "before" parameter is
// exclusive and returns newer records, so it is set to one millisecond before the
// requested start.
func (e *OKX) RESTParams(pair common.Pair, interval common.Interval, startTime int, limit int) (url.Values, error) {
	code, ok := intervalCodes[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %v on %v", common.ErrUnsupportedInterval, interval, e.Name())
	}
	params := url.Values{}
	params.Set("instId", e.FormatPair(pair))
	params.Set("bar", code)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if startTime > 0 {
		params.Set("before", strconv.FormatInt(int64(startTime)*1000-1, 10))
	}
	return params, nil
}

// ParseRESTResponse decodes the candles payload and reverses it into ascending
// order.
func (e *OKX) ParseRESTResponse(bs []byte) ([]common.Candle, error) {
	var resp response
	if err := json.Unmarshal(bs, &resp); err != nil {
		return nil, common.ParseError{Exchange: e.Name(), Err: err}
	}
	if resp.Code != "0" {
		if resp.Code == errCodeInstrumentDoesNotExist {
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
func (e *OKX) FetchCandles(ctx context.Context, hc common.HTTPClient, pair common.Pair, interval common.Interval, startTime int, limit int) ([]common.Candle, error) {
	return common.FetchCandles(ctx, e, hc, pair, interval, startTime, limit)
}

func parseRow(row []string) (common.Candle, error) {
	if len(row) < 6 {
		return common.Candle{}, fmt.Errorf("candle row had %v fields, expected at least 6", len(row))
	}
	millis, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return common.Candle{}, fmt.Errorf("candle field ts: %v", err)
	}
	var prices [5]float64
	for i := 1; i <= 5; i++ {
		prices[i-1], err = strconv.ParseFloat(row[i], 64)
		if err != nil {
			return common.Candle{}, fmt.Errorf("candle field %v: %v", i, err)
		}
	}
	candle := common.Candle{
		OpenTime:     int(millis) / 1000,
		OpenPrice:    common.JSONFloat64(prices[0]),
		HighestPrice: common.JSONFloat64(prices[1]),
		LowestPrice:  common.JSONFloat64(prices[2]),
		ClosePrice:   common.JSONFloat64(prices[3]),
		Volume:       common.JSONFloat64(prices[4]),
	}
	if len(row) >= 8 {
		quoteVolume, err := strconv.ParseFloat(row[7], 64)
		if err != nil {
			return common.Candle{}, fmt.Errorf("candle field volCcyQuote: %v", err)
		}
		candle.QuoteVolume = common.JSONFloat64(quoteVolume)
	}
	return candle, nil
}
