// Package processor contains the pure functions that clean candle sequences before
// they reach a feed's store.
//
// Exchanges occasionally return gaps, duplicate updates for the in-progress candle,
// or sequences shifted by one tick after maintenance. Sanitize reduces whatever
// came off the wire to a clean contiguous segment; IsSortedEquidistant is the
// invariant check the store's readiness is built on.
package processor

import (
	"sort"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// Sanitize sorts candles by ascending OpenTime, drops duplicate OpenTimes keeping
// the later occurrence in input order, and returns the longest maximal run whose
// consecutive OpenTime differences equal intervalSecs. When several runs tie on
// length, the most recent one wins.
//
// A single-candle input is returned as-is; an empty input stays empty. Sanitize is
// idempotent and never grows its input.
func Sanitize(candles []common.Candle, intervalSecs int) []common.Candle {
	if len(candles) <= 1 {
		return candles
	}

	// Later occurrences win: the streaming strategy re-delivers the in-progress
	// candle under the same OpenTime until it's final.
	byOpenTime := make(map[int]common.Candle, len(candles))
	for _, c := range candles {
		byOpenTime[c.OpenTime] = c
	}
	deduped := make([]common.Candle, 0, len(byOpenTime))
	for _, c := range byOpenTime {
		deduped = append(deduped, c)
	}
	sort.Slice(deduped, func(i, j int) bool { return deduped[i].OpenTime < deduped[j].OpenTime })

	// Scan for the longest equidistant run; >= prefers the later run on ties.
	bestStart, bestLen := 0, 1
	runStart := 0
	for i := 1; i <= len(deduped); i++ {
		if i < len(deduped) && deduped[i].OpenTime-deduped[i-1].OpenTime == intervalSecs {
			continue
		}
		if runLen := i - runStart; runLen >= bestLen {
			bestStart, bestLen = runStart, runLen
		}
		runStart = i
	}
	return deduped[bestStart : bestStart+bestLen]
}

// IsSortedEquidistant returns true iff the candles are strictly ordered by
// OpenTime and every consecutive pair differs by exactly intervalSecs.
func IsSortedEquidistant(candles []common.Candle, intervalSecs int) bool {
	for i := 1; i < len(candles); i++ {
		if candles[i].OpenTime-candles[i-1].OpenTime != intervalSecs {
			return false
		}
	}
	return true
}
