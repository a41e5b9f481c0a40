// Package allocation runs one scheduling invocation: rank the pool, fill each
// active court in order from what is left, and remember the teams.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/pairing"
	"github.com/okian/rally/internal/domain/priority"
	"github.com/okian/rally/internal/domain/round"
	"github.com/okian/rally/internal/domain/selection"
	"github.com/okian/rally/pkg/logger"
	"github.com/okian/rally/pkg/metrics"

	"github.com/samber/lo"
)

// Engine allocates teams to courts. It owns the session's pairing history and
// is not safe for concurrent use.
type Engine struct {
	rules           model.Rules
	rng             *rand.Rand
	maxCombinations int
	logger          logger.Logger

	priority *priority.Engine
	selector *selection.Selector
	history  *pairing.Tracker
}

// NewEngine creates an engine with default rules and an empty history.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules:           model.DefaultRules(),
		maxCombinations: selection.DefaultMaxCombinations,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.priority = priority.NewEngine(
		priority.WithRules(e.rules),
		priority.WithLogger(e.logger),
	)
	selOpts := []selection.Option{
		selection.WithRules(e.rules),
		selection.WithMaxCombinations(e.maxCombinations),
		selection.WithLogger(e.logger),
	}
	if e.rng != nil {
		selOpts = append(selOpts, selection.WithRand(e.rng))
	}
	e.selector = selection.NewSelector(selOpts...)
	e.history = pairing.NewTracker()
	return e
}

// Rules returns the current rules.
func (e *Engine) Rules() model.Rules {
	return e.rules
}

// SetRules validates and replaces the rules. History is kept.
func (e *Engine) SetRules(rules model.Rules) error {
	if err := rules.Validate(); err != nil {
		return err
	}
	e.rules = rules
	e.priority.SetRules(rules)
	e.selector.SetRules(rules)
	return nil
}

// History exposes the pairing history for reporting.
func (e *Engine) History() *pairing.Tracker {
	return e.history
}

// Reset clears the pairing history for a new session.
func (e *Engine) Reset() {
	e.history.Reset()
	metrics.UpdatePairingHistorySize(0)
}

// Allocate assigns teams for game to the active courts, in court order. A
// court that cannot be filled is skipped, so the result may be shorter than
// the court list or empty. The only error is round.ErrInvalidArgument for a
// non-positive game.
func (e *Engine) Allocate(ctx context.Context, participants []model.Participant, courts []model.Court, game int) ([]model.GameAllocation, error) {
	if game <= 0 {
		return nil, fmt.Errorf("game %d: %w", game, round.ErrInvalidArgument)
	}
	start := time.Now()

	active := model.ActiveCourts(courts)
	if len(active) == 0 {
		metrics.RecordCourtSkipped(metrics.ReasonNoCourts)
		e.logger.Debug(ctx, "no active courts", logger.Int("game", game))
		return nil, nil
	}

	size := e.rules.PlayersPerCourt
	if len(participants) < size {
		for range active {
			metrics.RecordCourtSkipped(metrics.ReasonInsufficientPool)
		}
		e.logger.Debug(ctx, "pool too small",
			logger.Int("game", game),
			logger.Int("participants", len(participants)),
			logger.Int("playersPerCourt", size),
		)
		return nil, nil
	}

	views, err := e.priority.Compute(ctx, participants, game, len(active))
	if err != nil {
		return nil, err
	}
	current := views[0].Round

	games := make(map[string]int, len(participants))
	for _, p := range participants {
		games[p.ID] = p.GamesPlayed
	}

	remaining := views
	allocs := make([]model.GameAllocation, 0, len(active))
	for _, court := range active {
		team, err := e.selector.Select(ctx, selection.Request{
			Court:   court,
			Game:    game,
			Courts:  len(active),
			Pool:    remaining,
			Games:   games,
			History: e.history,
		})
		if team.Evaluated > 0 {
			metrics.RecordCombinationsEvaluated(team.Evaluated)
		}
		if err != nil {
			metrics.RecordCourtSkipped(skipReason(err))
			e.logger.Debug(ctx, "court left empty",
				logger.String("court", court.ID),
				logger.Int("game", game),
				logger.Error(err),
			)
			continue
		}

		ids := team.IDs()
		e.history.RecordTeamPairing(ids, game, court.ID)
		for _, id := range ids {
			games[id]++
		}
		remaining = lo.Reject(remaining, func(v priority.View, _ int) bool {
			return lo.Contains(ids, v.ID())
		})

		players := team.Participants()
		allocs = append(allocs, model.GameAllocation{
			CourtID:      court.ID,
			CourtName:    court.Name,
			Players:      players,
			AverageLevel: averageLevel(players),
			Game:         game,
			Round:        current,
			Balanced:     team.Balanced,
			Score:        team.Score,
		})
	}

	metrics.RecordAllocation(len(allocs), time.Since(start))
	metrics.UpdatePairingHistorySize(e.history.Len())
	e.logger.Info(ctx, "game allocated",
		logger.Int("game", game),
		logger.Int("round", current),
		logger.Int("courts", len(allocs)),
		logger.Int("activeCourts", len(active)),
	)
	return allocs, nil
}

func averageLevel(players []model.Participant) float64 {
	if len(players) == 0 {
		return 0
	}
	return float64(lo.SumBy(players, func(p model.Participant) int { return p.Level })) / float64(len(players))
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, selection.ErrInsufficientPool):
		return metrics.ReasonInsufficientPool
	default:
		return metrics.ReasonConstraintUnsatisfiable
	}
}
