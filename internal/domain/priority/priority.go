// Package priority ranks participants for the next game. Lower scores are
// more eligible.
package priority

import (
	"context"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/round"
	"github.com/okian/rally/pkg/logger"

	"github.com/samber/lo"
)

// Rule weights. Each weight dominates the ones below it so the additive score
// orders participants almost lexicographically.
const (
	runawayPenalty     = 10_000
	unplayedPenalty    = 5_000
	gamesPlayedWeight  = 1_000
	waitingBonus       = 100
	mustPlayBonus      = 500
	balanceBonus       = 300
	manualPriorityStep = 250
)

// View is the per-invocation ranking of one participant.
type View struct {
	Participant  model.Participant
	WaitingGames int
	// CanPlay is true when putting the participant on court keeps the pool
	// fair.
	CanPlay bool
	// MustPlay marks participants caught by the second-round rule.
	MustPlay bool
	Round    int
	Score    float64
}

// ID is a shorthand for the participant id.
func (v View) ID() string { return v.Participant.ID }

// Games is a shorthand for the participant's games played.
func (v View) Games() int { return v.Participant.GamesPlayed }

// Engine computes priority views.
type Engine struct {
	rules  model.Rules
	logger logger.Logger
}

// NewEngine creates an engine with default rules.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules:  model.DefaultRules(),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetRules replaces the rule set.
func (e *Engine) SetRules(rules model.Rules) {
	e.rules = rules
}

// Compute scores every participant for game, with courts active courts.
// Views are returned in input order.
func (e *Engine) Compute(ctx context.Context, participants []model.Participant, game, courts int) ([]View, error) {
	current, err := round.Calculate(game, courts)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, nil
	}

	games := lo.Map(participants, func(p model.Participant, _ int) int { return p.GamesPlayed })
	poolMin, poolMax := lo.Min(games), lo.Max(games)
	anyUnplayed := poolMin == 0

	views := make([]View, len(participants))
	for i, p := range participants {
		v := View{
			Participant:  p,
			WaitingGames: WaitingGames(p, game, courts),
			Round:        current,
		}

		var score float64
		if p.GamesPlayed > poolMin+1 {
			score += runawayPenalty
		}
		if anyUnplayed && p.GamesPlayed >= 1 {
			score += unplayedPenalty
		}
		score += float64(p.GamesPlayed * gamesPlayedWeight)
		score -= float64(v.WaitingGames * waitingBonus)

		if e.mustPlay(p, current) {
			v.MustPlay = true
			score -= mustPlayBonus
		}

		atMin := p.GamesPlayed == poolMin
		balancing := poolMax-poolMin >= e.rules.MaxGamesDifference && atMin
		if balancing {
			score -= balanceBonus
		}

		if p.RotationPriority != nil {
			score -= float64(*p.RotationPriority * manualPriorityStep)
		}

		v.Score = score
		v.CanPlay = v.MustPlay || balancing || p.GamesPlayed <= poolMin+1
		views[i] = v
	}

	e.logger.Debug(ctx, "priorities computed",
		logger.Int("game", game),
		logger.Int("round", current),
		logger.Int("participants", len(views)),
		logger.Int("poolMin", poolMin),
		logger.Int("poolMax", poolMax),
	)
	return views, nil
}

// mustPlay applies the second-round rule.
func (e *Engine) mustPlay(p model.Participant, current int) bool {
	if current < 2 {
		return false
	}
	if p.GamesPlayed < e.rules.MinGamesByRoundTwo {
		return true
	}
	return e.rules.EnforceEveryTwoRounds && p.LastPlayedRound <= current-2
}

// WaitingGames counts the games elapsed since p last played.
func WaitingGames(p model.Participant, game, courts int) int {
	if !p.HasPlayed() {
		if game <= 1 {
			return 0
		}
		return game - 1
	}
	last := round.FirstGame(p.LastPlayedRound, courts)
	return max(0, game-last-1)
}
