// Package common contains the candle record, the adapter contract and shared code
// across the feeds super-package.
package common

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Candle is the generic OHLCV record for all supported exchanges.
//
// OpenTime identifies the candle: two candles are considered the same record iff
// their OpenTime values match. Prices and volumes for the currently-elapsing
// interval keep changing until the interval closes; "updating" such a candle means
// replacing the record at its OpenTime.
type Candle struct {
	// OpenTime is the UNIX timestamp (i.e. seconds since UTC Epoch) at which the candle's interval starts.
	OpenTime int `json:"t"`

	// OpenPrice is the price at which the candle opened.
	OpenPrice JSONFloat64 `json:"o"`

	// HighestPrice is the highest price reached during the candle duration.
	HighestPrice JSONFloat64 `json:"h"`

	// LowestPrice is the lowest price reached during the candle duration.
	LowestPrice JSONFloat64 `json:"l"`

	// ClosePrice is the price at which the candle closed, or the last traded price if still in progress.
	ClosePrice JSONFloat64 `json:"c"`

	// Volume is the base-asset volume traded during the candle duration.
	Volume JSONFloat64 `json:"v"`

	// QuoteVolume is the quote-asset volume. Zero when the venue doesn't report it.
	QuoteVolume JSONFloat64 `json:"qv,omitempty"`

	// TradeCount is the number of trades during the candle duration. Zero when the venue doesn't report it.
	TradeCount int `json:"n,omitempty"`

	// TakerBuyBaseVolume is the taker-buy base-asset volume. Zero when the venue doesn't report it.
	TakerBuyBaseVolume JSONFloat64 `json:"tbb,omitempty"`

	// TakerBuyQuoteVolume is the taker-buy quote-asset volume. Zero when the venue doesn't report it.
	TakerBuyQuoteVolume JSONFloat64 `json:"tbq,omitempty"`
}

// Equal returns true iff the two candles identify the same record, i.e. same OpenTime.
func (c Candle) Equal(other Candle) bool {
	return c.OpenTime == other.OpenTime
}

// Validate checks the price/volume invariants of a well-formed candle.
func (c Candle) Validate() error {
	lo := c.OpenPrice
	if c.ClosePrice < lo {
		lo = c.ClosePrice
	}
	hi := c.OpenPrice
	if c.ClosePrice > hi {
		hi = c.ClosePrice
	}
	if c.LowestPrice > lo {
		return fmt.Errorf("candle at %v has low %v above min(open, close) %v", c.OpenTime, c.LowestPrice, lo)
	}
	if c.HighestPrice < hi {
		return fmt.Errorf("candle at %v has high %v below max(open, close) %v", c.OpenTime, c.HighestPrice, hi)
	}
	if c.LowestPrice > c.HighestPrice {
		return fmt.Errorf("candle at %v has low %v above high %v", c.OpenTime, c.LowestPrice, c.HighestPrice)
	}
	if c.Volume < 0 {
		return fmt.Errorf("candle at %v has negative volume %v", c.OpenTime, c.Volume)
	}
	return nil
}

// Pair is the canonical representation of a trading pair, e.g. BTC/USDT. Adapters
// translate it into whatever symbol the venue accepts on the wire.
type Pair struct {
	Base  string // e.g. "BTC" in BTC-USDT
	Quote string // e.g. "USDT" in BTC-USDT
}

// ParsePair parses the canonical uppercase BASE-QUOTE form, e.g. "BTC-USDT".
func ParsePair(s string) (Pair, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Pair{}, fmt.Errorf("%w: %q", ErrMalformedPair, s)
	}
	return Pair{Base: strings.ToUpper(parts[0]), Quote: strings.ToUpper(parts[1])}, nil
}

func (p Pair) String() string {
	return fmt.Sprintf("%v-%v", p.Base, p.Quote)
}

// JSONFloat64 exists only for the purpose of marshalling floats in a nicer way.
type JSONFloat64 float64

// MarshalJSON overrides the marshalling of floats in a nicer way.
func (jf JSONFloat64) MarshalJSON() ([]byte, error) {
	f := float64(jf)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, errors.New("unsupported value")
	}
	bs := []byte(fmt.Sprintf("%.12f", f))
	var i int
	for i = len(bs) - 1; i >= 0; i-- {
		if bs[i] == '0' {
			continue
		}
		if bs[i] == '.' {
			return bs[:i], nil
		}
		break
	}
	return bs[:i+1], nil
}
