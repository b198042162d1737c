package okx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// WSURL resolves the business websocket endpoint, where OKX hosts the candle
// channels; no token fetch required.
func (e *OKX) WSURL(ctx context.Context, hc common.HTTPClient) (string, error) {
	if e.wsURL != "" {
		return e.wsURL, nil
	}
	if e.netcfg.EnvironmentFor(common.EndpointCandles) == common.EnvTestnet {
		return "", fmt.Errorf("%w: testnet", common.ErrNotSupported)
	}
	return productionWSURL, nil
}

type wsSubscribeArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type wsSubscribeRequest struct {
	Op   string           `json:"op"`
	Args []wsSubscribeArg `json:"args"`
}

// WSSubscribePayload shapes the subscription frame for the candle channel, e.g.
// channel candle1m for instId BTC-USDT.
func (e *OKX) WSSubscribePayload(pair common.Pair, interval common.Interval) ([]byte, error) {
	code, ok := intervalCodes[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %v on %v", common.ErrUnsupportedInterval, interval, e.Name())
	}
	return json.Marshal(wsSubscribeRequest{
		Op:   "subscribe",
		Args: []wsSubscribeArg{{Channel: "candle" + code, InstID: e.FormatPair(pair)}},
	})
}

type wsPush struct {
	Event string         `json:"event"`
	Arg   wsSubscribeArg `json:"arg"`
	Data  [][]string     `json:"data"`
}

// ParseWSMessage decodes one frame. OKX health checks are literal "ping"/"pong"
// text frames; a received ping gets a pong reply. Subscription acks and error
// events carry an "event" field and yield an empty result.
func (e *OKX) ParseWSMessage(frame []byte) (common.WSResult, error) {
	if bytes.Equal(frame, []byte("ping")) {
		return common.WSResult{Pong: []byte("pong")}, nil
	}
	if bytes.Equal(frame, []byte("pong")) {
		return common.WSResult{}, nil
	}
	var push wsPush
	if err := json.Unmarshal(frame, &push); err != nil {
		return common.WSResult{}, common.ParseError{Exchange: e.Name(), Err: err}
	}
	if push.Event != "" || len(push.Data) == 0 {
		return common.WSResult{}, nil
	}
	candles := make([]common.Candle, 0, len(push.Data))
	for _, row := range push.Data {
		candle, err := parseRow(row)
		if err != nil {
			return common.WSResult{}, common.ParseError{Exchange: e.Name(), Err: err}
		}
		candles = append(candles, candle)
	}
	return common.WSResult{Candles: candles}, nil
}
