// Package report checks allocations after the fact and derives the numbers
// used on dashboards. Nothing here fails; problems are reported as data.
package report

import (
	"fmt"
	"math"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/selection"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// ViolationKind classifies a validation finding.
type ViolationKind string

// Violation kinds. Unbalanced is only ever a warning.
const (
	TeamSize             ViolationKind = "team_size"
	LevelSpread          ViolationKind = "level_spread"
	DuplicateParticipant ViolationKind = "duplicate_participant"
	Unbalanced           ViolationKind = "unbalanced"
)

// Violation is one finding about one court.
type Violation struct {
	Kind    ViolationKind `json:"kind"`
	CourtID string        `json:"court_id"`
	Message string        `json:"message"`
}

// ValidationResult collects the findings for an allocation.
type ValidationResult struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
	Warnings   []Violation `json:"warnings,omitempty"`
}

// Validator checks allocations against the rules.
type Validator struct {
	rules          model.Rules
	maxLevelSpread int
}

// NewValidator creates a validator with default rules.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		rules:          model.DefaultRules(),
		maxLevelSpread: DefaultMaxLevelSpread,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SetRules replaces the rules.
func (v *Validator) SetRules(rules model.Rules) {
	v.rules = rules
}

// ValidateAllocation checks team sizes, level gaps, duplicate assignments and
// side balance.
func (v *Validator) ValidateAllocation(allocs []model.GameAllocation) ValidationResult {
	res := ValidationResult{}
	assigned := make(map[string]string)

	for _, a := range allocs {
		if len(a.Players) != v.rules.PlayersPerCourt {
			res.Violations = append(res.Violations, Violation{
				Kind:    TeamSize,
				CourtID: a.CourtID,
				Message: fmt.Sprintf("%d players, want %d", len(a.Players), v.rules.PlayersPerCourt),
			})
		}

		for _, p := range a.Players {
			if court, ok := assigned[p.ID]; ok {
				res.Violations = append(res.Violations, Violation{
					Kind:    DuplicateParticipant,
					CourtID: a.CourtID,
					Message: fmt.Sprintf("participant %s already on court %s", p.ID, court),
				})
				continue
			}
			assigned[p.ID] = a.CourtID
		}

		if len(a.Players) == 0 {
			continue
		}
		levels := lo.Map(a.Players, func(p model.Participant, _ int) int { return p.Level })
		if spread := selection.Spread(levels); spread > v.maxLevelSpread {
			res.Violations = append(res.Violations, Violation{
				Kind:    LevelSpread,
				CourtID: a.CourtID,
				Message: fmt.Sprintf("level spread %d exceeds %d", spread, v.maxLevelSpread),
			})
		}
		if diff := selection.BestSplitDifference(levels); diff > v.rules.MaxSkillDifference {
			res.Warnings = append(res.Warnings, Violation{
				Kind:    Unbalanced,
				CourtID: a.CourtID,
				Message: fmt.Sprintf("best split differs by %d", diff),
			})
		}
	}

	res.Valid = len(res.Violations) == 0
	return res
}

// AllocationStats summarises one game's allocation.
type AllocationStats struct {
	Courts         int         `json:"courts"`
	TotalPlayers   int         `json:"total_players"`
	MeanLevel      float64     `json:"mean_level"`
	LevelHistogram map[int]int `json:"level_histogram"`
	// BalanceScore is 10 when every court has the same average level and
	// drops by 2 per level of standard deviation.
	BalanceScore float64 `json:"balance_score"`
}

// AllocationStats computes the summary for allocs.
func (v *Validator) AllocationStats(allocs []model.GameAllocation) AllocationStats {
	players := lo.FlatMap(allocs, func(a model.GameAllocation, _ int) []model.Participant { return a.Players })
	st := AllocationStats{
		Courts:         len(allocs),
		TotalPlayers:   len(players),
		LevelHistogram: make(map[int]int),
		BalanceScore:   10,
	}
	if len(players) == 0 {
		return st
	}
	for _, p := range players {
		st.LevelHistogram[p.Level]++
	}

	st.MeanLevel = stat.Mean(lo.Map(players, func(p model.Participant, _ int) float64 { return float64(p.Level) }), nil)
	averages := lo.Map(allocs, func(a model.GameAllocation, _ int) float64 { return a.AverageLevel })
	_, variance := stat.PopMeanVariance(averages, nil)
	st.BalanceScore = clamp(10-2*math.Sqrt(variance), 0, 10)
	return st
}

// RotationStats summarises how evenly the pool is rotating.
type RotationStats struct {
	Participants int     `json:"participants"`
	MinGames     int     `json:"min_games"`
	MaxGames     int     `json:"max_games"`
	GamesSpread  int     `json:"games_spread"`
	Fairness     float64 `json:"fairness"`
	// MeanWaitRounds counts rounds since each participant last played; those
	// who never played count the whole session.
	MeanWaitRounds float64 `json:"mean_wait_rounds"`
	// BackToBackRatio is the share of participants who played in the round
	// before currentRound.
	BackToBackRatio    float64 `json:"back_to_back_ratio"`
	RotationEfficiency float64 `json:"rotation_efficiency"`
}

// RotationStats computes rotation figures for the pool as of currentRound.
func (v *Validator) RotationStats(participants []model.Participant, currentRound int) RotationStats {
	st := RotationStats{
		Participants:       len(participants),
		Fairness:           10,
		RotationEfficiency: 10,
	}
	if len(participants) == 0 {
		return st
	}

	games := lo.Map(participants, func(p model.Participant, _ int) int { return p.GamesPlayed })
	st.MinGames, st.MaxGames = lo.Min(games), lo.Max(games)
	st.GamesSpread = st.MaxGames - st.MinGames
	st.Fairness = math.Max(0, 10-2*float64(st.GamesSpread))

	waits := lo.Map(participants, func(p model.Participant, _ int) float64 {
		if !p.HasPlayed() {
			return float64(currentRound)
		}
		return float64(currentRound - p.LastPlayedRound)
	})
	st.MeanWaitRounds = stat.Mean(waits, nil)

	backToBack := lo.CountBy(participants, func(p model.Participant) bool {
		return p.HasPlayed() && p.LastPlayedRound == currentRound-1
	})
	st.BackToBackRatio = float64(backToBack) / float64(len(participants))

	_, variance := stat.PopMeanVariance(lo.Map(games, func(g int, _ int) float64 { return float64(g) }), nil)
	st.RotationEfficiency = clamp(10-variance-4*st.BackToBackRatio, 0, 10)
	return st
}

func clamp(x, low, high float64) float64 {
	return math.Min(math.Max(x, low), high)
}
