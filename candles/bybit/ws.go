package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// WSURL resolves the public spot stream URL; no token fetch required.
func (e *Bybit) WSURL(ctx context.Context, hc common.HTTPClient) (string, error) {
	if e.wsURL != "" {
		return e.wsURL, nil
	}
	if e.netcfg.EnvironmentFor(common.EndpointCandles) == common.EnvTestnet {
		return testnetWSURL, nil
	}
	return productionWSURL, nil
}

type wsRequest struct {
	Op   string   `json:"op"`
	Args []string `json:"args,omitempty"`
}

// WSSubscribePayload shapes the subscription frame for the kline topic, e.g.
// kline.1.BTCUSDT.
func (e *Bybit) WSSubscribePayload(pair common.Pair, interval common.Interval) ([]byte, error) {
	code, ok := intervalCodes[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %v on %v", common.ErrUnsupportedInterval, interval, e.Name())
	}
	return json.Marshal(wsRequest{Op: "subscribe", Args: []string{fmt.Sprintf("kline.%v.%v", code, e.FormatPair(pair))}})
}

type wsPush struct {
	Topic string    `json:"topic"`
	Op    string    `json:"op"`
	Data  []wsKline `json:"data"`
}

type wsKline struct {
	StartMillis int64  `json:"start"`
	Open        string `json:"open"`
	High        string `json:"high"`
	Low         string `json:"low"`
	Close       string `json:"close"`
	Volume      string `json:"volume"`
	Turnover    string `json:"turnover"`
	Confirm     bool   `json:"confirm"`
}

// ParseWSMessage decodes one frame. Subscription acks carry an "op" and no data;
// a server ping gets a pong reply. Kline pushes carry one or more kline objects,
// confirmed or still in progress.
func (e *Bybit) ParseWSMessage(frame []byte) (common.WSResult, error) {
	var push wsPush
	if err := json.Unmarshal(frame, &push); err != nil {
		return common.WSResult{}, common.ParseError{Exchange: e.Name(), Err: err}
	}
	if push.Op == "ping" {
		pong, err := json.Marshal(wsRequest{Op: "pong"})
		if err != nil {
			return common.WSResult{}, err
		}
		return common.WSResult{Pong: pong}, nil
	}
	if len(push.Data) == 0 {
		return common.WSResult{}, nil
	}
	candles := make([]common.Candle, 0, len(push.Data))
	for _, k := range push.Data {
		candle, err := k.toCandle()
		if err != nil {
			return common.WSResult{}, common.ParseError{Exchange: e.Name(), Err: err}
		}
		candles = append(candles, candle)
	}
	return common.WSResult{Candles: candles}, nil
}

func (k wsKline) toCandle() (common.Candle, error) {
	fields := [6]struct {
		name  string
		value string
	}{
		{"open", k.Open},
		{"high", k.High},
		{"low", k.Low},
		{"close", k.Close},
		{"volume", k.Volume},
		{"turnover", k.Turnover},
	}
	var parsed [6]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f.value, 64)
		if err != nil {
			return common.Candle{}, fmt.Errorf("kline field %q: %v", f.name, err)
		}
		parsed[i] = v
	}
	return common.Candle{
		OpenTime:     int(k.StartMillis) / 1000,
		OpenPrice:    common.JSONFloat64(parsed[0]),
		HighestPrice: common.JSONFloat64(parsed[1]),
		LowestPrice:  common.JSONFloat64(parsed[2]),
		ClosePrice:   common.JSONFloat64(parsed[3]),
		Volume:       common.JSONFloat64(parsed[4]),
		QuoteVolume:  common.JSONFloat64(parsed[5]),
	}, nil
}
