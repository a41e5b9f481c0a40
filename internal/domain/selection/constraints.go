package selection

import (
	"math/bits"

	"github.com/samber/lo"
)

// BestSplitDifference returns the smallest level-sum difference over every
// way of splitting levels into two equal sides. For four players there are
// three splits.
func BestSplitDifference(levels []int) int {
	n := len(levels)
	if n < 2 || n%2 != 0 {
		return 0
	}
	total := lo.Sum(levels)
	best := total
	// Fix the first player on side A so mirrored splits are not counted twice.
	for mask := 1; mask < 1<<n; mask += 2 {
		if bits.OnesCount(uint(mask)) != n/2 {
			continue
		}
		side := 0
		for i := range n {
			if mask&(1<<i) != 0 {
				side += levels[i]
			}
		}
		diff := side - (total - side)
		if diff < 0 {
			diff = -diff
		}
		best = min(best, diff)
	}
	return best
}

// IsBalanced reports whether some split keeps the sides within maxDiff.
func IsBalanced(levels []int, maxDiff int) bool {
	return BestSplitDifference(levels) <= maxDiff
}

// Spread returns max-min over the values, or 0 for an empty input.
func Spread(values []int) int {
	if len(values) == 0 {
		return 0
	}
	return lo.Max(values) - lo.Min(values)
}

// GamesSpread returns the pool-wide games spread.
func GamesSpread(games map[string]int) int {
	return Spread(lo.Values(games))
}

// ProjectedSpread returns the pool-wide games spread after each of ids plays
// one more game.
func ProjectedSpread(games map[string]int, ids ...string) int {
	if len(games) == 0 {
		return 0
	}
	bump := lo.Associate(ids, func(id string) (string, struct{}) { return id, struct{}{} })
	first := true
	var lowest, highest int
	for id, g := range games {
		if _, ok := bump[id]; ok {
			g++
		}
		if first {
			lowest, highest, first = g, g, false
			continue
		}
		lowest = min(lowest, g)
		highest = max(highest, g)
	}
	return highest - lowest
}

// GamesCeiling returns the tolerated spread after committing a team. Once the
// pool is already at the configured maximum the ceiling is relaxed to 2. A
// pool already above that, after a late registration or tightened rules, may
// keep its spread but not widen it.
func GamesCeiling(currentSpread, maxDifference int) int {
	if currentSpread >= maxDifference {
		return max(maxDifference, 2, currentSpread)
	}
	return maxDifference
}
