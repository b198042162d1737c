package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// WSURL resolves the kline stream URL; no token fetch required.
func (b *Binance) WSURL(ctx context.Context, hc common.HTTPClient) (string, error) {
	if b.wsURL != "" {
		return b.wsURL, nil
	}
	if b.netcfg.EnvironmentFor(common.EndpointCandles) == common.EnvTestnet {
		return testnetWSURL, nil
	}
	return productionWSURL, nil
}

type wsSubscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

// WSSubscribePayload shapes the SUBSCRIBE frame for the pair's kline stream, e.g.
// btcusdt@kline_1m.
func (b *Binance) WSSubscribePayload(pair common.Pair, interval common.Interval) ([]byte, error) {
	code, ok := intervalCodes[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %v on %v", common.ErrUnsupportedInterval, interval, b.Name())
	}
	stream := fmt.Sprintf("%v@kline_%v", strings.ToLower(b.FormatPair(pair)), code)
	return json.Marshal(wsSubscribeRequest{Method: "SUBSCRIBE", Params: []string{stream}, ID: 1})
}

type wsKlineEvent struct {
	EventType       string  `json:"e"`
	EventTimeMillis int64   `json:"E"`
	Kline           wsKline `json:"k"`
}

type wsKline struct {
	StartTimeMillis     int64  `json:"t"`
	CloseTimeMillis     int64  `json:"T"`
	LastTradeID         int64  `json:"L"`
	Interval            string `json:"i"`
	OpenPrice           string `json:"o"`
	HighestPrice        string `json:"h"`
	LowestPrice         string `json:"l"`
	ClosePrice          string `json:"c"`
	Volume              string `json:"v"`
	QuoteVolume         string `json:"q"`
	TradeCount          int    `json:"n"`
	TakerBuyBaseVolume  string `json:"V"`
	TakerBuyQuoteVolume string `json:"Q"`
	IsClosed            bool   `json:"x"`
}

// ParseWSMessage decodes one stream frame. Subscription acks and non-kline events
// yield an empty result; Binance pushes the in-progress candle repeatedly until it
// closes, which is exactly the overwrite-by-open-time semantics stores implement.
func (b *Binance) ParseWSMessage(frame []byte) (common.WSResult, error) {
	var event wsKlineEvent
	if err := json.Unmarshal(frame, &event); err != nil {
		return common.WSResult{}, common.ParseError{Exchange: b.Name(), Err: err}
	}
	if event.EventType != "kline" {
		return common.WSResult{}, nil
	}
	candle, err := event.Kline.toCandle()
	if err != nil {
		return common.WSResult{}, common.ParseError{Exchange: b.Name(), Err: err}
	}
	return common.WSResult{Candles: []common.Candle{candle}}, nil
}

func (k wsKline) toCandle() (common.Candle, error) {
	fields := [8]struct {
		name  string
		value string
	}{
		{"o", k.OpenPrice},
		{"h", k.HighestPrice},
		{"l", k.LowestPrice},
		{"c", k.ClosePrice},
		{"v", k.Volume},
		{"q", k.QuoteVolume},
		{"V", k.TakerBuyBaseVolume},
		{"Q", k.TakerBuyQuoteVolume},
	}
	var parsed [8]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f.value, 64)
		if err != nil {
			return common.Candle{}, fmt.Errorf("kline field %q: %v", f.name, err)
		}
		parsed[i] = v
	}
	return common.Candle{
		OpenTime:            int(k.StartTimeMillis) / 1000,
		OpenPrice:           common.JSONFloat64(parsed[0]),
		HighestPrice:        common.JSONFloat64(parsed[1]),
		LowestPrice:         common.JSONFloat64(parsed[2]),
		ClosePrice:          common.JSONFloat64(parsed[3]),
		Volume:              common.JSONFloat64(parsed[4]),
		QuoteVolume:         common.JSONFloat64(parsed[5]),
		TakerBuyBaseVolume:  common.JSONFloat64(parsed[6]),
		TakerBuyQuoteVolume: common.JSONFloat64(parsed[7]),
		TradeCount:          k.TradeCount,
	}, nil
}
