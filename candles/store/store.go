// Package store implements the bounded, chronologically-ordered ring of the most
// recent candles that every feed owns.
//
// Invariants at rest: unique strictly-increasing OpenTime across the ring, all
// consecutive pairs exactly one interval apart (except while the most recent candle
// is still in progress and being overwritten in place), size never above capacity.
package store

import (
	"sort"
	"sync"

	"github.com/marianogappa/candle-feeds/candles/common"
	"github.com/marianogappa/candle-feeds/candles/processor"
)

// Store is the bounded ordered ring. One strategy goroutine writes; any number of
// readers take snapshots. All mutations go through Merge.
type Store struct {
	mu           sync.RWMutex
	capacity     int
	intervalSecs int
	candles      []common.Candle
}

// New constructs an empty store with the given capacity, for candles of the given
// interval.
func New(capacity int, intervalSecs int) *Store {
	if capacity <= 0 {
		capacity = 1
	}
	return &Store{capacity: capacity, intervalSecs: intervalSecs, candles: make([]common.Candle, 0, capacity)}
}

// Merge inserts one candle preserving the ring's invariants:
//
//   - matching OpenTime: the existing record is overwritten (this is how the
//     in-progress candle evolves);
//   - newer than everything: appended, evicting the oldest at capacity;
//   - older than everything: prepended, unless at capacity, in which case it is
//     dropped, since the ring holds the most-recent N;
//   - otherwise: inserted at its ordered position.
//
// Merge is idempotent: merging the same candle twice leaves the store unchanged.
func (s *Store) Merge(c common.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.candles)
	i := sort.Search(n, func(i int) bool { return s.candles[i].OpenTime >= c.OpenTime })

	switch {
	case i < n && s.candles[i].OpenTime == c.OpenTime:
		s.candles[i] = c
	case i == n:
		s.candles = append(s.candles, c)
		if len(s.candles) > s.capacity {
			s.candles = s.candles[1:]
		}
	case i == 0:
		if n >= s.capacity {
			return
		}
		s.candles = append([]common.Candle{c}, s.candles...)
	default:
		s.candles = append(s.candles, common.Candle{})
		copy(s.candles[i+1:], s.candles[i:])
		s.candles[i] = c
		if len(s.candles) > s.capacity {
			s.candles = s.candles[1:]
		}
	}
}

// MergeAll merges a sequence in order.
func (s *Store) MergeAll(candles []common.Candle) {
	for _, c := range candles {
		s.Merge(c)
	}
}

// Snapshot returns a copy of the ring, oldest first, safe to iterate without locks.
func (s *Store) Snapshot() []common.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]common.Candle, len(s.candles))
	copy(out, s.candles)
	return out
}

// Len returns the current number of candles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.candles)
}

// Capacity returns the ring's capacity N.
func (s *Store) Capacity() int { return s.capacity }

// FirstOpenTime returns the oldest candle's OpenTime, and false when empty.
func (s *Store) FirstOpenTime() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.candles) == 0 {
		return 0, false
	}
	return s.candles[0].OpenTime, true
}

// LastOpenTime returns the most recent candle's OpenTime, and false when empty.
func (s *Store) LastOpenTime() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.candles) == 0 {
		return 0, false
	}
	return s.candles[len(s.candles)-1].OpenTime, true
}

// Ready returns true iff the ring is at least 90% full and gap-free. A feed whose
// venue disconnected reports false until the ring recovers.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	required := (s.capacity*9 + 9) / 10 // ceil(0.9 * N)
	if len(s.candles) < required {
		return false
	}
	return processor.IsSortedEquidistant(s.candles, s.intervalSecs)
}
