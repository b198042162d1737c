package registry

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marianogappa/candle-feeds/candles/common"
)

type stubAdapter struct {
	common.NoWebsocket
	name   string
	netcfg common.NetworkConfig
}

func (a *stubAdapter) Name() string                        { return a.name }
func (a *stubAdapter) FormatPair(pair common.Pair) string  { return pair.Base + pair.Quote }
func (a *stubAdapter) SupportedIntervals() map[common.Interval]int {
	return map[common.Interval]int{common.Interval1m: 60}
}
func (a *stubAdapter) RESTURL(common.EndpointClass) (string, error) { return "http://stub", nil }
func (a *stubAdapter) RESTParams(common.Pair, common.Interval, int, int) (url.Values, error) {
	return url.Values{}, nil
}
func (a *stubAdapter) ParseRESTResponse([]byte) ([]common.Candle, error) { return nil, nil }
func (a *stubAdapter) FetchCandles(context.Context, common.HTTPClient, common.Pair, common.Interval, int, int) ([]common.Candle, error) {
	return nil, nil
}

func TestRegisterAndResolve(t *testing.T) {
	Register("stubone", func(cfg common.NetworkConfig) (common.Adapter, error) {
		return &stubAdapter{name: "STUBONE", netcfg: cfg}, nil
	})

	adapter, err := Resolve("STUBONE", common.Production())
	require.NoError(t, err)
	require.Equal(t, "STUBONE", adapter.Name())

	// Resolution is case-insensitive.
	adapter, err = Resolve("stubOne", common.Production())
	require.NoError(t, err)
	require.Equal(t, "STUBONE", adapter.Name())
}

func TestResolveUnknownExchange(t *testing.T) {
	_, err := Resolve("NOSUCHVENUE", common.Production())
	require.ErrorIs(t, err, common.ErrUnknownExchange)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("stubdup", func(cfg common.NetworkConfig) (common.Adapter, error) {
		return &stubAdapter{name: "STUBDUP"}, nil
	})
	require.Panics(t, func() {
		Register("STUBDUP", func(cfg common.NetworkConfig) (common.Adapter, error) {
			return &stubAdapter{name: "STUBDUP"}, nil
		})
	})
}

func TestRegisterNilFactoryPanics(t *testing.T) {
	require.Panics(t, func() { Register("stubnil", nil) })
}

func TestListIsSorted(t *testing.T) {
	Register("stubz", func(cfg common.NetworkConfig) (common.Adapter, error) {
		return &stubAdapter{name: "STUBZ"}, nil
	})
	Register("stuba", func(cfg common.NetworkConfig) (common.Adapter, error) {
		return &stubAdapter{name: "STUBA"}, nil
	})

	names := List()
	require.Contains(t, names, "STUBA")
	require.Contains(t, names, "STUBZ")
	require.IsIncreasing(t, names)
}
