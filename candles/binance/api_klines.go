package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// Binance uses the strategy of having candlesticks on multiples of an hour or a day,
// and truncating the requested startTime to the immediately previous tick on that
// schedule. The params below therefore pass startTime through untouched.
//
// [
//   [
//     1499040000000,      // Open time
//     "0.01634790",       // Open
//     "0.80000000",       // High
//     "0.01575800",       // Low
//     "0.01577100",       // Close
//     "148976.11427815",  // Volume
//     1499644799999,      // Close time
//     "2434.19055334",    // Quote asset volume
//     308,                // Number of trades
//     "1756.87402397",    // Taker buy base asset volume
//     "28.46694368",      // Taker buy quote asset volume
//     "17928899.62484339" // Ignore.
//   ]
// ]

const (
	errCodeInvalidSymbol   = -1121
	errCodeInvalidInterval = -1120
)

type errorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// RESTParams shapes the /klines query.
func (b *Binance) RESTParams(pair common.Pair, interval common.Interval, startTime int, limit int) (url.Values, error) {
	code, ok := intervalCodes[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %v on %v", common.ErrUnsupportedInterval, interval, b.Name())
	}
	params := url.Values{}
	params.Set("symbol", b.FormatPair(pair))
	params.Set("interval", code)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if startTime > 0 {
		params.Set("startTime", common.TimestampMillis.Format(startTime))
	}
	return params, nil
}

// ParseRESTResponse decodes the /klines payload, which is either an array of kline
// arrays or an error object with a negative code.
func (b *Binance) ParseRESTResponse(bs []byte) ([]common.Candle, error) {
	var errResp errorResponse
	if json.Unmarshal(bs, &errResp) == nil && errResp.Code != 0 {
		switch errResp.Code {
		case errCodeInvalidSymbol:
			return nil, common.ErrInvalidPair
		case errCodeInvalidInterval:
			return nil, common.ErrUnsupportedInterval
		}
		return nil, common.ParseError{Exchange: b.Name(), Err: fmt.Errorf("error code %v: %v", errResp.Code, errResp.Msg)}
	}

	var raw [][]interface{}
	if err := json.Unmarshal(bs, &raw); err != nil {
		return nil, common.ParseError{Exchange: b.Name(), Err: err}
	}
	candles := make([]common.Candle, 0, len(raw))
	for _, e := range raw {
		candle, err := parseKline(e)
		if err != nil {
			return nil, common.ParseError{Exchange: b.Name(), Err: err}
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// FetchCandles delegates to the shared REST orchestration.
func (b *Binance) FetchCandles(ctx context.Context, hc common.HTTPClient, pair common.Pair, interval common.Interval, startTime int, limit int) ([]common.Candle, error) {
	return common.FetchCandles(ctx, b, hc, pair, interval, startTime, limit)
}

func parseKline(e []interface{}) (common.Candle, error) {
	if len(e) < 11 {
		return common.Candle{}, fmt.Errorf("kline had %v fields, expected at least 11", len(e))
	}
	openTimeMillis, err := numField(e, 0)
	if err != nil {
		return common.Candle{}, err
	}
	open, err := strFloatField(e, 1)
	if err != nil {
		return common.Candle{}, err
	}
	high, err := strFloatField(e, 2)
	if err != nil {
		return common.Candle{}, err
	}
	low, err := strFloatField(e, 3)
	if err != nil {
		return common.Candle{}, err
	}
	closePrice, err := strFloatField(e, 4)
	if err != nil {
		return common.Candle{}, err
	}
	volume, err := strFloatField(e, 5)
	if err != nil {
		return common.Candle{}, err
	}
	quoteVolume, err := strFloatField(e, 7)
	if err != nil {
		return common.Candle{}, err
	}
	tradeCount, err := numField(e, 8)
	if err != nil {
		return common.Candle{}, err
	}
	takerBuyBase, err := strFloatField(e, 9)
	if err != nil {
		return common.Candle{}, err
	}
	takerBuyQuote, err := strFloatField(e, 10)
	if err != nil {
		return common.Candle{}, err
	}
	return common.Candle{
		OpenTime:            int(openTimeMillis) / 1000,
		OpenPrice:           common.JSONFloat64(open),
		HighestPrice:        common.JSONFloat64(high),
		LowestPrice:         common.JSONFloat64(low),
		ClosePrice:          common.JSONFloat64(closePrice),
		Volume:              common.JSONFloat64(volume),
		QuoteVolume:         common.JSONFloat64(quoteVolume),
		TradeCount:          int(tradeCount),
		TakerBuyBaseVolume:  common.JSONFloat64(takerBuyBase),
		TakerBuyQuoteVolume: common.JSONFloat64(takerBuyQuote),
	}, nil
}

func numField(e []interface{}, i int) (float64, error) {
	f, ok := e[i].(float64)
	if !ok {
		return 0, fmt.Errorf("kline field %v: expected a number, had %T", i, e[i])
	}
	return f, nil
}

func strFloatField(e []interface{}, i int) (float64, error) {
	s, ok := e[i].(string)
	if !ok {
		return 0, fmt.Errorf("kline field %v: expected a string, had %T", i, e[i])
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("kline field %v: %v", i, err)
	}
	return f, nil
}
