package selection

import (
	"cmp"
	"math/rand"
	"slices"

	"github.com/okian/rally/internal/domain/priority"
)

// TeamCandidateStrategy proposes one candidate fill of need seats from pool.
// variation distinguishes successive proposals from the same strategy; a nil
// result means the strategy has nothing new to offer.
type TeamCandidateStrategy interface {
	Name() string
	Candidate(pool []priority.View, need, variation int, rng *rand.Rand) []priority.View
}

// DefaultStrategies returns the portfolio tried round-robin by the selector.
func DefaultStrategies() []TeamCandidateStrategy {
	return []TeamCandidateStrategy{
		PrioritySlice{},
		WaitingGames{},
		SkillDiversity{},
		RandomShuffle{},
	}
}

// PrioritySlice walks the combinations of the pool, ordered by priority, in
// lexicographic order.
type PrioritySlice struct{}

func (PrioritySlice) Name() string { return "priority_slice" }

func (PrioritySlice) Candidate(pool []priority.View, need, variation int, _ *rand.Rand) []priority.View {
	if need <= 0 || need > len(pool) {
		return nil
	}
	sorted := byScore(pool)
	idx := unrankCombination(len(sorted), need, variation)
	if idx == nil {
		return nil
	}
	out := make([]priority.View, len(idx))
	for i, j := range idx {
		out[i] = sorted[j]
	}
	return out
}

// WaitingGames favours the longest waiting, least played participants and
// rotates the last seat through the rest of the pool.
type WaitingGames struct{}

func (WaitingGames) Name() string { return "waiting_games" }

func (WaitingGames) Candidate(pool []priority.View, need, variation int, _ *rand.Rand) []priority.View {
	if need <= 0 || need > len(pool) {
		return nil
	}
	sorted := byWaiting(pool)
	last := need - 1 + variation
	if last >= len(sorted) {
		return nil
	}
	out := slices.Clone(sorted[:need-1])
	return append(out, sorted[last])
}

// SkillDiversity takes a priority window and picks alternately from the
// lowest and highest levels in it, which tends to produce even sides.
type SkillDiversity struct{}

func (SkillDiversity) Name() string { return "skill_diversity" }

func (SkillDiversity) Candidate(pool []priority.View, need, variation int, _ *rand.Rand) []priority.View {
	if need <= 0 || need > len(pool) {
		return nil
	}
	size := need + variation
	if size > len(pool) {
		return nil
	}
	window := slices.Clone(byScore(pool)[:size])
	slices.SortStableFunc(window, func(a, b priority.View) int {
		return cmp.Compare(a.Participant.Level, b.Participant.Level)
	})

	out := make([]priority.View, 0, need)
	low, high := 0, len(window)-1
	for len(out) < need {
		if len(out)%2 == 0 {
			out = append(out, window[low])
			low++
		} else {
			out = append(out, window[high])
			high--
		}
	}
	return out
}

// RandomShuffle draws a uniformly random fill. It returns nil without a
// random source.
type RandomShuffle struct{}

func (RandomShuffle) Name() string { return "random" }

func (RandomShuffle) Candidate(pool []priority.View, need, _ int, rng *rand.Rand) []priority.View {
	if rng == nil || need <= 0 || need > len(pool) {
		return nil
	}
	out := make([]priority.View, 0, need)
	for _, j := range rng.Perm(len(pool))[:need] {
		out = append(out, pool[j])
	}
	return out
}

func byScore(pool []priority.View) []priority.View {
	sorted := slices.Clone(pool)
	slices.SortStableFunc(sorted, func(a, b priority.View) int {
		return cmp.Compare(a.Score, b.Score)
	})
	return sorted
}

// byWaiting orders by waiting games desc, then games played asc.
func byWaiting(pool []priority.View) []priority.View {
	sorted := slices.Clone(pool)
	slices.SortStableFunc(sorted, func(a, b priority.View) int {
		if c := cmp.Compare(b.WaitingGames, a.WaitingGames); c != 0 {
			return c
		}
		return cmp.Compare(a.Games(), b.Games())
	})
	return sorted
}

// binomialCap bounds binomial so it never overflows; rank values are far
// below it.
const binomialCap = 1 << 40

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	k = min(k, n-k)
	result := 1
	for i := 1; i <= k; i++ {
		result = result * (n - k + i) / i
		if result >= binomialCap {
			return binomialCap
		}
	}
	return result
}

// unrankCombination returns the rank-th k-subset of [0,n) in lexicographic
// order, or nil when rank is out of range.
func unrankCombination(n, k, rank int) []int {
	if rank < 0 || rank >= binomial(n, k) {
		return nil
	}
	out := make([]int, 0, k)
	start := 0
	for slot := range k {
		for i := start; i < n; i++ {
			c := binomial(n-i-1, k-slot-1)
			if rank < c {
				out = append(out, i)
				start = i + 1
				break
			}
			rank -= c
		}
	}
	return out
}
