package model

import "fmt"

// Rule defaults.
const (
	DefaultMaxSkillDifference = 3
	DefaultPlayersPerCourt    = 4
	DefaultMaxGamesDifference = 2
	DefaultMinGamesByRoundTwo = 1
)

// Rules is the tunable record of the allocation engine. It is read and
// replaced as a unit.
type Rules struct {
	// MaxSkillDifference bounds the level-sum difference between the two
	// sides of a team.
	MaxSkillDifference int `json:"max_skill_difference"`
	// PlayersPerCourt is the team size.
	PlayersPerCourt int `json:"players_per_court"`
	// MaxGamesDifference is the tolerated pool-wide games spread.
	MaxGamesDifference int `json:"max_games_difference"`
	// MinGamesByRoundTwo is the number of games everyone should have once
	// round two starts.
	MinGamesByRoundTwo int `json:"min_games_by_round_two"`
	// EnforceEveryTwoRounds forces anyone who sat out the previous two
	// rounds onto a court.
	EnforceEveryTwoRounds bool `json:"enforce_every_two_rounds"`
}

// DefaultRules returns the default rule set.
func DefaultRules() Rules {
	return Rules{
		MaxSkillDifference:    DefaultMaxSkillDifference,
		PlayersPerCourt:       DefaultPlayersPerCourt,
		MaxGamesDifference:    DefaultMaxGamesDifference,
		MinGamesByRoundTwo:    DefaultMinGamesByRoundTwo,
		EnforceEveryTwoRounds: true,
	}
}

// Validate range-checks every field.
func (r Rules) Validate() error {
	switch {
	case r.MaxSkillDifference < 0 || r.MaxSkillDifference > 2*MaxLevel-2:
		return fmt.Errorf("%w: max_skill_difference %d out of range [0,%d]", ErrInvalidRules, r.MaxSkillDifference, 2*MaxLevel-2)
	case r.PlayersPerCourt < 2 || r.PlayersPerCourt > 8 || r.PlayersPerCourt%2 != 0:
		return fmt.Errorf("%w: players_per_court %d must be even and within [2,8]", ErrInvalidRules, r.PlayersPerCourt)
	case r.MaxGamesDifference < 1 || r.MaxGamesDifference > 10:
		return fmt.Errorf("%w: max_games_difference %d out of range [1,10]", ErrInvalidRules, r.MaxGamesDifference)
	case r.MinGamesByRoundTwo < 0 || r.MinGamesByRoundTwo > 10:
		return fmt.Errorf("%w: min_games_by_round_two %d out of range [0,10]", ErrInvalidRules, r.MinGamesByRoundTwo)
	}
	return nil
}
