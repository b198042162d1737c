package kucoin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// KuCoin hands out websocket endpoints dynamically: the client POSTs to
// bullet-public, receives a token plus a list of instance servers, and connects to
// one of them with the token as a query parameter.

type bulletResponse struct {
	Code string `json:"code"`
	Data struct {
		Token           string `json:"token"`
		InstanceServers []struct {
			Endpoint string `json:"endpoint"`
			Protocol string `json:"protocol"`
		} `json:"instanceServers"`
	} `json:"data"`
}

// WSURL fetches a bullet-public token and composes the endpoint URL. Failures
// surface to the streaming strategy, which treats them like any dial error and
// backs off before retrying.
func (e *Kucoin) WSURL(ctx context.Context, hc common.HTTPClient) (string, error) {
	if e.wsURL != "" {
		return e.wsURL, nil
	}
	if e.netcfg.EnvironmentFor(common.EndpointCandles) == common.EnvTestnet {
		return "", fmt.Errorf("%w: testnet", common.ErrNotSupported)
	}
	base := productionAPIURL
	if e.apiURL != "" {
		base = e.apiURL
	}
	bs, err := hc.Post(ctx, base+"bullet-public", nil)
	if err != nil {
		return "", err
	}
	var resp bulletResponse
	if err := json.Unmarshal(bs, &resp); err != nil {
		return "", common.ParseError{Exchange: e.Name(), Err: err}
	}
	if resp.Code != successCode || resp.Data.Token == "" || len(resp.Data.InstanceServers) == 0 {
		return "", common.ParseError{Exchange: e.Name(), Err: fmt.Errorf("bullet-public returned code %v with %v servers", resp.Code, len(resp.Data.InstanceServers))}
	}
	return resp.Data.InstanceServers[0].Endpoint + "?token=" + resp.Data.Token, nil
}

type wsRequest struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Topic    string `json:"topic,omitempty"`
	Response bool   `json:"response,omitempty"`
}

// WSSubscribePayload shapes the subscription frame for the candles topic, e.g.
// /market/candles:BTC-USDT_1min.
func (e *Kucoin) WSSubscribePayload(pair common.Pair, interval common.Interval) ([]byte, error) {
	code, ok := intervalCodes[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %v on %v", common.ErrUnsupportedInterval, interval, e.Name())
	}
	return json.Marshal(wsRequest{
		ID:       "1",
		Type:     "subscribe",
		Topic:    fmt.Sprintf("/market/candles:%v_%v", e.FormatPair(pair), code),
		Response: true,
	})
}

type wsMessage struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Subject string `json:"subject"`
	Data    struct {
		Symbol  string   `json:"symbol"`
		Candles []string `json:"candles"`
	} `json:"data"`
}

// ParseWSMessage decodes one frame. Welcome and ack frames yield an empty result;
// a server ping gets a pong reply carrying the same id. Candle updates arrive as
// trade.candles.update messages with the same row shape as the REST endpoint.
func (e *Kucoin) ParseWSMessage(frame []byte) (common.WSResult, error) {
	var msg wsMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		return common.WSResult{}, common.ParseError{Exchange: e.Name(), Err: err}
	}
	switch msg.Type {
	case "ping":
		pong, err := json.Marshal(wsRequest{ID: msg.ID, Type: "pong"})
		if err != nil {
			return common.WSResult{}, err
		}
		return common.WSResult{Pong: pong}, nil
	case "message":
	default:
		return common.WSResult{}, nil
	}
	if len(msg.Data.Candles) == 0 {
		return common.WSResult{}, nil
	}
	candle, err := parseRow(msg.Data.Candles)
	if err != nil {
		return common.WSResult{}, common.ParseError{Exchange: e.Name(), Err: err}
	}
	return common.WSResult{Candles: []common.Candle{candle}}, nil
}
