// Package coinbase implements the exchange adapter for Coinbase Exchange spot
// markets. Coinbase has no public candle stream, so this adapter is REST-only.
package coinbase

import (
	"fmt"

	"github.com/marianogappa/candle-feeds/candles/common"
	"github.com/marianogappa/candle-feeds/candles/registry"
)

const (
	productionAPIURL = "https://api.exchange.coinbase.com/"
	sandboxAPIURL    = "https://api-public.sandbox.exchange.coinbase.com/"
)

func init() {
	registry.Register("COINBASE", func(cfg common.NetworkConfig) (common.Adapter, error) {
		return NewCoinbase(cfg), nil
	})
}

// Coinbase struct enables requesting candlesticks from Coinbase Exchange.
type Coinbase struct {
	common.NoWebsocket
	netcfg common.NetworkConfig
	apiURL string // set by tests
}

// NewCoinbase is the constructor for Coinbase.
func NewCoinbase(cfg common.NetworkConfig) *Coinbase {
	return &Coinbase{netcfg: cfg}
}

// Name returns the uppercase name of the exchange.
func (e *Coinbase) Name() string { return "COINBASE" }

// FormatPair translates the canonical pair into Coinbase's product id, which
// happens to match it, e.g. BTC-USD.
func (e *Coinbase) FormatPair(pair common.Pair) string {
	return pair.Base + "-" + pair.Quote
}

// Coinbase takes granularity in seconds and only offers six of them.
var intervalCodes = map[common.Interval]string{
	common.Interval1m:  "60",
	common.Interval5m:  "300",
	common.Interval15m: "900",
	common.Interval1h:  "3600",
	common.Interval6h:  "21600",
	common.Interval1d:  "86400",
}

// SupportedIntervals returns the six granularities Coinbase offers.
func (e *Coinbase) SupportedIntervals() map[common.Interval]int {
	out := make(map[common.Interval]int, len(intervalCodes))
	for interval := range intervalCodes {
		out[interval] = interval.Seconds()
	}
	return out
}

// RESTURL resolves the products base URL; testnet maps to the public sandbox. The
// candles path includes the product id, so FetchCandles composes the full URL.
func (e *Coinbase) RESTURL(class common.EndpointClass) (string, error) {
	base := productionAPIURL
	if e.netcfg.EnvironmentFor(class) == common.EnvTestnet {
		base = sandboxAPIURL
	}
	if e.apiURL != "" {
		base = e.apiURL
	}
	switch class {
	case common.EndpointCandles, common.EndpointTicker, common.EndpointTrades:
		return base + "products/", nil
	}
	return "", fmt.Errorf("%w: endpoint class %q", common.ErrNotSupported, class)
}

func (e *Coinbase) overrideAPIURL(u string) { e.apiURL = u }
