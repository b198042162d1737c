// Package binance implements the exchange adapter for Binance spot markets.
package binance

import (
	"fmt"
	"strings"

	"github.com/marianogappa/candle-feeds/candles/common"
	"github.com/marianogappa/candle-feeds/candles/registry"
)

const (
	productionAPIURL = "https://api.binance.com/api/v3/"
	testnetAPIURL    = "https://testnet.binance.vision/api/v3/"
	productionWSURL  = "wss://stream.binance.com:9443/ws"
	testnetWSURL     = "wss://testnet.binance.vision/ws"
)

func init() {
	registry.Register("BINANCE", func(cfg common.NetworkConfig) (common.Adapter, error) {
		return NewBinance(cfg), nil
	})
}

// Binance struct enables requesting candlesticks from Binance, over REST or over
// its kline websocket stream.
type Binance struct {
	netcfg common.NetworkConfig
	apiURL string // set by tests
	wsURL  string // set by tests
}

// NewBinance is the constructor for Binance.
func NewBinance(cfg common.NetworkConfig) *Binance {
	return &Binance{netcfg: cfg}
}

// Name returns the uppercase name of the exchange.
func (b *Binance) Name() string { return "BINANCE" }

// FormatPair translates the canonical pair into Binance's concatenated uppercase
// symbol, e.g. BTC-USDT becomes BTCUSDT.
func (b *Binance) FormatPair(pair common.Pair) string {
	return strings.ToUpper(pair.Base + pair.Quote)
}

// Binance uses the canonical interval names on the wire.
var intervalCodes = map[common.Interval]string{
	common.Interval1m:  "1m",
	common.Interval3m:  "3m",
	common.Interval5m:  "5m",
	common.Interval15m: "15m",
	common.Interval30m: "30m",
	common.Interval1h:  "1h",
	common.Interval2h:  "2h",
	common.Interval4h:  "4h",
	common.Interval6h:  "6h",
	common.Interval8h:  "8h",
	common.Interval12h: "12h",
	common.Interval1d:  "1d",
	common.Interval3d:  "3d",
	common.Interval1w:  "1w",
	common.Interval1M:  "1M",
}

// SupportedIntervals returns every canonical interval; Binance offers them all.
func (b *Binance) SupportedIntervals() map[common.Interval]int {
	out := make(map[common.Interval]int, len(intervalCodes))
	for interval := range intervalCodes {
		out[interval] = interval.Seconds()
	}
	return out
}

// WSSupportedIntervals mirrors SupportedIntervals; Binance streams every interval
// it offers over REST.
func (b *Binance) WSSupportedIntervals() map[common.Interval]bool {
	out := make(map[common.Interval]bool, len(intervalCodes))
	for interval := range intervalCodes {
		out[interval] = true
	}
	return out
}

// RESTURL resolves the endpoint URL per the adapter's network config; testnet maps
// to testnet.binance.vision.
func (b *Binance) RESTURL(class common.EndpointClass) (string, error) {
	base := productionAPIURL
	if b.netcfg.EnvironmentFor(class) == common.EnvTestnet {
		base = testnetAPIURL
	}
	if b.apiURL != "" {
		base = b.apiURL
	}
	switch class {
	case common.EndpointCandles:
		return base + "klines", nil
	case common.EndpointTicker:
		return base + "ticker/24hr", nil
	case common.EndpointTrades:
		return base + "trades", nil
	}
	return "", fmt.Errorf("%w: endpoint class %q", common.ErrNotSupported, class)
}

func (b *Binance) overrideAPIURL(u string) { b.apiURL = u }
func (b *Binance) overrideWSURL(u string)  { b.wsURL = u }
