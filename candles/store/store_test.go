package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marianogappa/candle-feeds/candles/common"
)

func opensOf(candles []common.Candle) []int {
	out := make([]int, len(candles))
	for i, c := range candles {
		out[i] = c.OpenTime
	}
	return out
}

func TestMergeAppendsAndEvicts(t *testing.T) {
	base := 1700000000
	s := New(3, 60)
	s.Merge(common.Candle{OpenTime: base})
	s.Merge(common.Candle{OpenTime: base + 60})
	s.Merge(common.Candle{OpenTime: base + 120})
	require.Equal(t, []int{base, base + 60, base + 120}, opensOf(s.Snapshot()))

	s.Merge(common.Candle{OpenTime: base + 180})
	require.Equal(t, []int{base + 60, base + 120, base + 180}, opensOf(s.Snapshot()))
	require.Equal(t, 3, s.Len())
}

func TestMergeOverwritesInProgressCandle(t *testing.T) {
	s := New(3, 60)
	s.Merge(common.Candle{OpenTime: 1700000000, ClosePrice: 100})
	s.Merge(common.Candle{OpenTime: 1700000000, ClosePrice: 101})
	snapshot := s.Snapshot()
	require.Len(t, snapshot, 1)
	require.Equal(t, common.JSONFloat64(101), snapshot[0].ClosePrice)
}

func TestMergeIsIdempotent(t *testing.T) {
	s := New(3, 60)
	c := common.Candle{OpenTime: 1700000000, ClosePrice: 100}
	s.Merge(c)
	s.Merge(c)
	require.Equal(t, []common.Candle{c}, s.Snapshot())
}

func TestMergeOutOfOrder(t *testing.T) {
	base := 1700000000
	s := New(5, 60)
	s.Merge(common.Candle{OpenTime: base + 120})
	s.Merge(common.Candle{OpenTime: base}) // prepend
	s.Merge(common.Candle{OpenTime: base + 60}) // insert in the middle
	require.Equal(t, []int{base, base + 60, base + 120}, opensOf(s.Snapshot()))
}

func TestMergeDropsTooOldCandleAtCapacity(t *testing.T) {
	base := 1700000000
	s := New(2, 60)
	s.Merge(common.Candle{OpenTime: base + 60})
	s.Merge(common.Candle{OpenTime: base + 120})
	s.Merge(common.Candle{OpenTime: base}) // older than everything, ring full
	require.Equal(t, []int{base + 60, base + 120}, opensOf(s.Snapshot()))
}

func TestFirstAndLastOpenTime(t *testing.T) {
	s := New(3, 60)
	_, ok := s.FirstOpenTime()
	require.False(t, ok)
	_, ok = s.LastOpenTime()
	require.False(t, ok)

	base := 1700000000
	s.Merge(common.Candle{OpenTime: base})
	s.Merge(common.Candle{OpenTime: base + 60})
	first, ok := s.FirstOpenTime()
	require.True(t, ok)
	require.Equal(t, base, first)
	last, ok := s.LastOpenTime()
	require.True(t, ok)
	require.Equal(t, base+60, last)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(3, 60)
	s.Merge(common.Candle{OpenTime: 1700000000, ClosePrice: 100})
	snapshot := s.Snapshot()
	snapshot[0].ClosePrice = 999
	require.Equal(t, common.JSONFloat64(100), s.Snapshot()[0].ClosePrice)
}

func TestReady(t *testing.T) {
	base := 1700000000
	s := New(10, 60)
	require.False(t, s.Ready())

	// 8 of 10: below the 90% threshold.
	for i := 0; i < 8; i++ {
		s.Merge(common.Candle{OpenTime: base + i*60})
	}
	require.False(t, s.Ready())

	// 9 contiguous of 10: ready.
	s.Merge(common.Candle{OpenTime: base + 8*60})
	require.True(t, s.Ready())

	// A gap makes it not ready regardless of count.
	s.Merge(common.Candle{OpenTime: base + 10*60})
	require.False(t, s.Ready())
}

func TestNewClampsCapacity(t *testing.T) {
	s := New(0, 60)
	require.Equal(t, 1, s.Capacity())
}
