// Package bybit implements the exchange adapter for Bybit spot markets via its v5
// unified API.
package bybit

import (
	"fmt"
	"strings"

	"github.com/marianogappa/candle-feeds/candles/common"
	"github.com/marianogappa/candle-feeds/candles/registry"
)

const (
	productionAPIURL = "https://api.bybit.com/v5/market/"
	testnetAPIURL    = "https://api-testnet.bybit.com/v5/market/"
	productionWSURL  = "wss://stream.bybit.com/v5/public/spot"
	testnetWSURL     = "wss://stream-testnet.bybit.com/v5/public/spot"
)

func init() {
	registry.Register("BYBIT", func(cfg common.NetworkConfig) (common.Adapter, error) {
		return NewBybit(cfg), nil
	})
}

// Bybit struct enables requesting candlesticks from Bybit, over REST or over its
// kline websocket topic.
type Bybit struct {
	netcfg common.NetworkConfig
	apiURL string // set by tests
	wsURL  string // set by tests
}

// NewBybit is the constructor for Bybit.
func NewBybit(cfg common.NetworkConfig) *Bybit {
	return &Bybit{netcfg: cfg}
}

// Name returns the uppercase name of the exchange.
func (e *Bybit) Name() string { return "BYBIT" }

// FormatPair translates the canonical pair into Bybit's concatenated uppercase
// symbol, e.g. BTC-USDT becomes BTCUSDT.
func (e *Bybit) FormatPair(pair common.Pair) string {
	return strings.ToUpper(pair.Base + pair.Quote)
}

// Bybit encodes minute intervals as bare minute counts, and day/week/month as
// single letters.
var intervalCodes = map[common.Interval]string{
	common.Interval1m:  "1",
	common.Interval3m:  "3",
	common.Interval5m:  "5",
	common.Interval15m: "15",
	common.Interval30m: "30",
	common.Interval1h:  "60",
	common.Interval2h:  "120",
	common.Interval4h:  "240",
	common.Interval6h:  "360",
	common.Interval12h: "720",
	common.Interval1d:  "D",
	common.Interval1w:  "W",
	common.Interval1M:  "M",
}

// SupportedIntervals returns the intervals Bybit offers; no 8h or 3d.
func (e *Bybit) SupportedIntervals() map[common.Interval]int {
	out := make(map[common.Interval]int, len(intervalCodes))
	for interval := range intervalCodes {
		out[interval] = interval.Seconds()
	}
	return out
}

// WSSupportedIntervals mirrors SupportedIntervals; every interval has a kline
// topic.
func (e *Bybit) WSSupportedIntervals() map[common.Interval]bool {
	out := make(map[common.Interval]bool, len(intervalCodes))
	for interval := range intervalCodes {
		out[interval] = true
	}
	return out
}

// RESTURL resolves the endpoint URL per the adapter's network config; testnet maps
// to api-testnet.bybit.com.
func (e *Bybit) RESTURL(class common.EndpointClass) (string, error) {
	base := productionAPIURL
	if e.netcfg.EnvironmentFor(class) == common.EnvTestnet {
		base = testnetAPIURL
	}
	if e.apiURL != "" {
		base = e.apiURL
	}
	switch class {
	case common.EndpointCandles:
		return base + "kline", nil
	case common.EndpointTicker:
		return base + "tickers", nil
	case common.EndpointTrades:
		return base + "recent-trade", nil
	}
	return "", fmt.Errorf("%w: endpoint class %q", common.ErrNotSupported, class)
}

func (e *Bybit) overrideAPIURL(u string) { e.apiURL = u }
func (e *Bybit) overrideWSURL(u string)  { e.wsURL = u }
