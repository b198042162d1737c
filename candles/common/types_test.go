package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		input string
		want  Pair
		err   bool
	}{
		{input: "BTC-USDT", want: Pair{Base: "BTC", Quote: "USDT"}},
		{input: "eth-usd", want: Pair{Base: "ETH", Quote: "USD"}},
		{input: "BTCUSDT", err: true},
		{input: "BTC-", err: true},
		{input: "-USDT", err: true},
		{input: "BTC-USDT-PERP", err: true},
		{input: "", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			pair, err := ParsePair(tt.input)
			if tt.err {
				require.ErrorIs(t, err, ErrMalformedPair)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, pair)
		})
	}
}

func TestPairString(t *testing.T) {
	require.Equal(t, "BTC-USDT", Pair{Base: "BTC", Quote: "USDT"}.String())
}

func TestCandleEqual(t *testing.T) {
	a := Candle{OpenTime: 1700000000, ClosePrice: 100}
	b := Candle{OpenTime: 1700000000, ClosePrice: 101}
	c := Candle{OpenTime: 1700000060, ClosePrice: 100}
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestCandleValidate(t *testing.T) {
	tests := []struct {
		name   string
		candle Candle
		err    bool
	}{
		{
			name:   "well-formed",
			candle: Candle{OpenTime: 1700000000, OpenPrice: 10, HighestPrice: 12, LowestPrice: 9, ClosePrice: 11, Volume: 5},
		},
		{
			name:   "low above open and close",
			candle: Candle{OpenTime: 1700000000, OpenPrice: 10, HighestPrice: 12, LowestPrice: 11, ClosePrice: 11.5, Volume: 5},
			err:    true,
		},
		{
			name:   "high below open and close",
			candle: Candle{OpenTime: 1700000000, OpenPrice: 10, HighestPrice: 9.5, LowestPrice: 9, ClosePrice: 9.8, Volume: 5},
			err:    true,
		},
		{
			name:   "negative volume",
			candle: Candle{OpenTime: 1700000000, OpenPrice: 10, HighestPrice: 12, LowestPrice: 9, ClosePrice: 11, Volume: -1},
			err:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.candle.Validate()
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestJSONFloat64Marshal(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{value: 1, want: "1"},
		{value: 10, want: "10"},
		{value: 1.5, want: "1.5"},
		{value: 0.000001, want: "0.000001"},
		{value: 0.5, want: "0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			bs, err := json.Marshal(JSONFloat64(tt.value))
			require.NoError(t, err)
			require.Equal(t, tt.want, string(bs))
		})
	}
}
