// Package bitstamp implements the exchange adapter for Bitstamp spot markets.
// Bitstamp has no public candle stream, so this adapter is REST-only.
package bitstamp

import (
	"fmt"
	"strings"

	"github.com/marianogappa/candle-feeds/candles/common"
	"github.com/marianogappa/candle-feeds/candles/registry"
)

const productionAPIURL = "https://www.bitstamp.net/api/v2/"

func init() {
	registry.Register("BITSTAMP", func(cfg common.NetworkConfig) (common.Adapter, error) {
		return NewBitstamp(cfg), nil
	})
}

// Bitstamp struct enables requesting candlesticks from Bitstamp.
type Bitstamp struct {
	common.NoWebsocket
	netcfg common.NetworkConfig
	apiURL string // set by tests
}

// NewBitstamp is the constructor for Bitstamp.
func NewBitstamp(cfg common.NetworkConfig) *Bitstamp {
	return &Bitstamp{netcfg: cfg}
}

// Name returns the uppercase name of the exchange.
func (e *Bitstamp) Name() string { return "BITSTAMP" }

// FormatPair translates the canonical pair into Bitstamp's concatenated lowercase
// market symbol, e.g. BTC-USD becomes btcusd.
func (e *Bitstamp) FormatPair(pair common.Pair) string {
	return strings.ToLower(pair.Base + pair.Quote)
}

// Bitstamp takes the step in seconds.
var intervalCodes = map[common.Interval]string{
	common.Interval1m:  "60",
	common.Interval3m:  "180",
	common.Interval5m:  "300",
	common.Interval15m: "900",
	common.Interval30m: "1800",
	common.Interval1h:  "3600",
	common.Interval2h:  "7200",
	common.Interval4h:  "14400",
	common.Interval6h:  "21600",
	common.Interval12h: "43200",
	common.Interval1d:  "86400",
	common.Interval3d:  "259200",
}

// SupportedIntervals returns the steps Bitstamp offers; no 8h, 1w or 1M.
func (e *Bitstamp) SupportedIntervals() map[common.Interval]int {
	out := make(map[common.Interval]int, len(intervalCodes))
	for interval := range intervalCodes {
		out[interval] = interval.Seconds()
	}
	return out
}

// RESTURL resolves the ohlc base URL. Bitstamp has no sandbox, so testnet fails
// with ErrNotSupported. The ohlc path includes the market symbol, so FetchCandles
// composes the full URL.
func (e *Bitstamp) RESTURL(class common.EndpointClass) (string, error) {
	if e.netcfg.EnvironmentFor(class) == common.EnvTestnet {
		return "", fmt.Errorf("%w: testnet", common.ErrNotSupported)
	}
	base := productionAPIURL
	if e.apiURL != "" {
		base = e.apiURL
	}
	switch class {
	case common.EndpointCandles:
		return base + "ohlc/", nil
	case common.EndpointTicker:
		return base + "ticker/", nil
	case common.EndpointTrades:
		return base + "transactions/", nil
	}
	return "", fmt.Errorf("%w: endpoint class %q", common.ErrNotSupported, class)
}

func (e *Bitstamp) overrideAPIURL(u string) { e.apiURL = u }
