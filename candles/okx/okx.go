// Package okx implements the exchange adapter for OKX spot markets.
package okx

import (
	"fmt"

	"github.com/marianogappa/candle-feeds/candles/common"
	"github.com/marianogappa/candle-feeds/candles/registry"
)

const (
	productionAPIURL = "https://www.okx.com/api/v5/market/"
	productionWSURL  = "wss://ws.okx.com:8443/ws/v5/business"
)

func init() {
	registry.Register("OKX", func(cfg common.NetworkConfig) (common.Adapter, error) {
		return NewOKX(cfg), nil
	})
}

// OKX struct enables requesting candlesticks from OKX, over REST or over its
// candle websocket channel.
type OKX struct {
	netcfg common.NetworkConfig
	apiURL string // set by tests
	wsURL  string // set by tests
}

// NewOKX is the constructor for OKX.
func NewOKX(cfg common.NetworkConfig) *OKX {
	return &OKX{netcfg: cfg}
}

// Name returns the uppercase name of the exchange.
func (e *OKX) Name() string { return "OKX" }

// FormatPair translates the canonical pair into OKX's instId, which happens to
// match it, e.g. BTC-USDT.
func (e *OKX) FormatPair(pair common.Pair) string {
	return pair.Base + "-" + pair.Quote
}

// OKX uppercases the hour-and-above bar codes.
var intervalCodes = map[common.Interval]string{
	common.Interval1m:  "1m",
	common.Interval3m:  "3m",
	common.Interval5m:  "5m",
	common.Interval15m: "15m",
	common.Interval30m: "30m",
	common.Interval1h:  "1H",
	common.Interval2h:  "2H",
	common.Interval4h:  "4H",
	common.Interval6h:  "6H",
	common.Interval12h: "12H",
	common.Interval1d:  "1D",
	common.Interval1w:  "1W",
	common.Interval1M:  "1M",
}

// SupportedIntervals returns the bar sizes OKX offers; no 8h or 3d.
func (e *OKX) SupportedIntervals() map[common.Interval]int {
	out := make(map[common.Interval]int, len(intervalCodes))
	for interval := range intervalCodes {
		out[interval] = interval.Seconds()
	}
	return out
}

// WSSupportedIntervals mirrors SupportedIntervals; every bar has a candle channel.
func (e *OKX) WSSupportedIntervals() map[common.Interval]bool {
	out := make(map[common.Interval]bool, len(intervalCodes))
	for interval := range intervalCodes {
		out[interval] = true
	}
	return out
}

// RESTURL resolves the endpoint URL. OKX has no public market-data sandbox, so
// testnet fails with ErrNotSupported.
func (e *OKX) RESTURL(class common.EndpointClass) (string, error) {
	if e.netcfg.EnvironmentFor(class) == common.EnvTestnet {
		return "", fmt.Errorf("%w: testnet", common.ErrNotSupported)
	}
	base := productionAPIURL
	if e.apiURL != "" {
		base = e.apiURL
	}
	switch class {
	case common.EndpointCandles:
		return base + "candles", nil
	case common.EndpointTicker:
		return base + "ticker", nil
	case common.EndpointTrades:
		return base + "trades", nil
	}
	return "", fmt.Errorf("%w: endpoint class %q", common.ErrNotSupported, class)
}

func (e *OKX) overrideAPIURL(u string) { e.apiURL = u }
func (e *OKX) overrideWSURL(u string)  { e.wsURL = u }
