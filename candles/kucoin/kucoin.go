// Package kucoin implements the exchange adapter for KuCoin spot markets.
package kucoin

import (
	"fmt"

	"github.com/marianogappa/candle-feeds/candles/common"
	"github.com/marianogappa/candle-feeds/candles/registry"
)

const productionAPIURL = "https://api.kucoin.com/api/v1/"

func init() {
	registry.Register("KUCOIN", func(cfg common.NetworkConfig) (common.Adapter, error) {
		return NewKucoin(cfg), nil
	})
}

// Kucoin struct enables requesting candlesticks from KuCoin, over REST or over its
// candles websocket topic. The websocket endpoint is not static: it is handed out
// by the bullet-public token endpoint at connect time.
type Kucoin struct {
	netcfg common.NetworkConfig
	apiURL string // set by tests; also used as the bullet-public base
	wsURL  string // set by tests, bypassing the token fetch
}

// NewKucoin is the constructor for Kucoin.
func NewKucoin(cfg common.NetworkConfig) *Kucoin {
	return &Kucoin{netcfg: cfg}
}

// Name returns the uppercase name of the exchange.
func (e *Kucoin) Name() string { return "KUCOIN" }

// FormatPair translates the canonical pair into KuCoin's symbol, which happens to
// match it, e.g. BTC-USDT.
func (e *Kucoin) FormatPair(pair common.Pair) string {
	return pair.Base + "-" + pair.Quote
}

var intervalCodes = map[common.Interval]string{
	common.Interval1m:  "1min",
	common.Interval3m:  "3min",
	common.Interval5m:  "5min",
	common.Interval15m: "15min",
	common.Interval30m: "30min",
	common.Interval1h:  "1hour",
	common.Interval2h:  "2hour",
	common.Interval4h:  "4hour",
	common.Interval6h:  "6hour",
	common.Interval8h:  "8hour",
	common.Interval12h: "12hour",
	common.Interval1d:  "1day",
	common.Interval1w:  "1week",
}

// SupportedIntervals returns the types KuCoin offers; no 3d or 1M.
func (e *Kucoin) SupportedIntervals() map[common.Interval]int {
	out := make(map[common.Interval]int, len(intervalCodes))
	for interval := range intervalCodes {
		out[interval] = interval.Seconds()
	}
	return out
}

// WSSupportedIntervals mirrors SupportedIntervals; every type has a candles topic.
func (e *Kucoin) WSSupportedIntervals() map[common.Interval]bool {
	out := make(map[common.Interval]bool, len(intervalCodes))
	for interval := range intervalCodes {
		out[interval] = true
	}
	return out
}

// RESTURL resolves the endpoint URL. KuCoin's sandbox was retired, so testnet
// fails with ErrNotSupported.
func (e *Kucoin) RESTURL(class common.EndpointClass) (string, error) {
	if e.netcfg.EnvironmentFor(class) == common.EnvTestnet {
		return "", fmt.Errorf("%w: testnet", common.ErrNotSupported)
	}
	base := productionAPIURL
	if e.apiURL != "" {
		base = e.apiURL
	}
	switch class {
	case common.EndpointCandles:
		return base + "market/candles", nil
	case common.EndpointTicker:
		return base + "market/orderbook/level1", nil
	case common.EndpointTrades:
		return base + "market/histories", nil
	}
	return "", fmt.Errorf("%w: endpoint class %q", common.ErrNotSupported, class)
}

func (e *Kucoin) overrideAPIURL(u string) { e.apiURL = u }
func (e *Kucoin) overrideWSURL(u string)  { e.wsURL = u }
