package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// Bybit returns candlesticks newest-first with millisecond timestamps.
//
// {
//   "retCode": 0,
//   "retMsg": "OK",
//   "result": {
//     "category": "spot",
//     "symbol": "BTCUSDT",
//     "list": [
//       ["1670608800000","17071","17073","17027","17055.5","268611","4.74691704"],
//       ["1670605200000","17071.3","17071.8","17061","17071","762.1","44.39018912"]
//     ]
//   }
// }
//
// Each row is [startTime, open, high, low, close, volume, turnover].

const errCodeInvalidSymbol = 10001

type response struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category string     `json:"category"`
		Symbol   string     `json:"symbol"`
		List     [][]string `json:"list"`
	} `json:"result"`
}

// RESTParams shapes the /v5/market/kline query.
func (e *Bybit) RESTParams(pair common.Pair, interval common.Interval, startTime int, limit int) (url.Values, error) {
	code, ok := intervalCodes[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %v on %v", common.ErrUnsupportedInterval, interval, e.Name())
	}
	params := url.Values{}
	params.Set("category", "spot")
	params.Set("symbol", e.FormatPair(pair))
	params.Set("interval", code)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if startTime > 0 {
		params.Set("start", common.TimestampMillis.Format(startTime))
	}
	return params, nil
}

// ParseRESTResponse decodes the kline payload and reverses it into ascending
// order.
func (e *Bybit) ParseRESTResponse(bs []byte) ([]common.Candle, error) {
	var resp response
	if err := json.Unmarshal(bs, &resp); err != nil {
		return nil, common.ParseError{Exchange: e.Name(), Err: err}
	}
	if resp.RetCode != 0 {
		if resp.RetCode == errCodeInvalidSymbol {
			return nil, common.ErrInvalidPair
		}
		return nil, common.ParseError{Exchange: e.Name(), Err: fmt.Errorf("error code %v: %v", resp.RetCode, resp.RetMsg)}
	}

	candles := make([]common.Candle, 0, len(resp.Result.List))
	for _, row := range resp.Result.List {
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
func (e *Bybit) FetchCandles(ctx context.Context, hc common.HTTPClient, pair common.Pair, interval common.Interval, startTime int, limit int) ([]common.Candle, error) {
	return common.FetchCandles(ctx, e, hc, pair, interval, startTime, limit)
}

func parseRow(row []string) (common.Candle, error) {
	if len(row) < 7 {
		return common.Candle{}, fmt.Errorf("kline row had %v fields, expected 7", len(row))
	}
	millis, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return common.Candle{}, fmt.Errorf("kline field startTime: %v", err)
	}
	var values [6]float64
	for i := 1; i <= 6; i++ {
		values[i-1], err = strconv.ParseFloat(row[i], 64)
		if err != nil {
			return common.Candle{}, fmt.Errorf("kline field %v: %v", i, err)
		}
	}
	return common.Candle{
		OpenTime:     int(millis) / 1000,
		OpenPrice:    common.JSONFloat64(values[0]),
		HighestPrice: common.JSONFloat64(values[1]),
		LowestPrice:  common.JSONFloat64(values[2]),
		ClosePrice:   common.JSONFloat64(values[3]),
		Volume:       common.JSONFloat64(values[4]),
		QuoteVolume:  common.JSONFloat64(values[5]),
	}, nil
}
