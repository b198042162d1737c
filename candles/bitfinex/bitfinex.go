// Package bitfinex implements the exchange adapter for Bitfinex spot markets.
// Candles are fetched over the public v2 REST API; this adapter is REST-only.
package bitfinex

import (
	"fmt"
	"strings"

	"github.com/marianogappa/candle-feeds/candles/common"
	"github.com/marianogappa/candle-feeds/candles/registry"
)

const productionAPIURL = "https://api-pub.bitfinex.com/v2/"

func init() {
	registry.Register("BITFINEX", func(cfg common.NetworkConfig) (common.Adapter, error) {
		return NewBitfinex(cfg), nil
	})
}

// Bitfinex struct enables requesting candlesticks from Bitfinex.
type Bitfinex struct {
	common.NoWebsocket
	netcfg common.NetworkConfig
	apiURL string // set by tests
}

// NewBitfinex is the constructor for Bitfinex.
func NewBitfinex(cfg common.NetworkConfig) *Bitfinex {
	return &Bitfinex{netcfg: cfg}
}

// Name returns the uppercase name of the exchange.
func (e *Bitfinex) Name() string { return "BITFINEX" }

// FormatPair translates the canonical pair into Bitfinex's trading symbol, e.g.
// BTC-USD becomes tBTCUSD. Bitfinex calls Tether "UST" rather than "USDT".
func (e *Bitfinex) FormatPair(pair common.Pair) string {
	quote := strings.ToUpper(pair.Quote)
	if quote == "USDT" {
		quote = "UST"
	}
	return "t" + strings.ToUpper(pair.Base) + quote
}

// Bitfinex uppercases the day-and-above timeframes.
var intervalCodes = map[common.Interval]string{
	common.Interval1m:  "1m",
	common.Interval5m:  "5m",
	common.Interval15m: "15m",
	common.Interval30m: "30m",
	common.Interval1h:  "1h",
	common.Interval6h:  "6h",
	common.Interval12h: "12h",
	common.Interval1d:  "1D",
	common.Interval1w:  "1W",
	common.Interval1M:  "1M",
}

// SupportedIntervals returns the timeframes Bitfinex offers that map onto the
// canonical catalog; its 3h and 14D timeframes have no canonical name.
func (e *Bitfinex) SupportedIntervals() map[common.Interval]int {
	out := make(map[common.Interval]int, len(intervalCodes))
	for interval := range intervalCodes {
		out[interval] = interval.Seconds()
	}
	return out
}

// RESTURL resolves the candles base URL. Bitfinex has no public sandbox, so
// testnet fails with ErrNotSupported. The candles path includes the timeframe and
// symbol, so FetchCandles composes the full URL.
func (e *Bitfinex) RESTURL(class common.EndpointClass) (string, error) {
	if e.netcfg.EnvironmentFor(class) == common.EnvTestnet {
		return "", fmt.Errorf("%w: testnet", common.ErrNotSupported)
	}
	base := productionAPIURL
	if e.apiURL != "" {
		base = e.apiURL
	}
	switch class {
	case common.EndpointCandles:
		return base + "candles/", nil
	case common.EndpointTicker:
		return base + "ticker/", nil
	case common.EndpointTrades:
		return base + "trades/", nil
	}
	return "", fmt.Errorf("%w: endpoint class %q", common.ErrNotSupported, class)
}

func (e *Bitfinex) overrideAPIURL(u string) { e.apiURL = u }
