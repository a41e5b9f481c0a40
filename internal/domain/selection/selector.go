// Package selection picks the team for one court out of the remaining pool.
// The search is heuristic: a bounded number of candidate teams is proposed by
// a portfolio of strategies and the best scoring one that honours the
// constraints wins.
package selection

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/pairing"
	"github.com/okian/rally/internal/domain/priority"
	"github.com/okian/rally/pkg/logger"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Composite score weights.
const (
	waitingWeight         = 10
	gamesVarianceWeight   = 50
	splitDifferenceWeight = 10
	repeatWeight          = 20
	priorityDivisor       = 100
	preferredPairWeight   = 8
	avoidedPairWeight     = 25
)

// repeatLimit is the number of prior uses that keeps a team out of the
// first pass.
const repeatLimit = 2

// Request is the input for selecting one court's team.
type Request struct {
	Court model.Court
	Game  int
	// Courts is the active court count used for round arithmetic.
	Courts int
	// Pool holds the views still available in this invocation.
	Pool []priority.View
	// Games maps every participant of the pool, committed or not, to the
	// games they will have played once this invocation's teams are counted.
	Games   map[string]int
	History *pairing.Tracker
}

// Team is a selected team.
type Team struct {
	Members         []priority.View
	Key             string
	Score           float64
	Balanced        bool
	SplitDifference int
	Repeats         int
	// Evaluated is the number of distinct candidate teams scored.
	Evaluated int
}

// IDs returns the member ids in seat order.
func (t Team) IDs() []string {
	return lo.Map(t.Members, func(v priority.View, _ int) string { return v.ID() })
}

// Participants returns the member snapshots in seat order.
func (t Team) Participants() []model.Participant {
	return lo.Map(t.Members, func(v priority.View, _ int) model.Participant { return v.Participant })
}

// Selector chooses teams. It is not safe for concurrent use.
type Selector struct {
	rules           model.Rules
	rng             *rand.Rand
	maxCombinations int
	strategies      []TeamCandidateStrategy
	logger          logger.Logger
}

// NewSelector creates a selector with default rules, the default strategy
// portfolio and a time-seeded random source.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		rules:           model.DefaultRules(),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		maxCombinations: DefaultMaxCombinations,
		strategies:      DefaultStrategies(),
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRules replaces the rules.
func (s *Selector) SetRules(rules model.Rules) {
	s.rules = rules
}

// Select returns the best team for req.Court. It fails with
// ErrInsufficientPool when fewer participants than seats remain and with
// ErrConstraintUnsatisfiable when no candidate honours the hard constraints.
func (s *Selector) Select(ctx context.Context, req Request) (Team, error) {
	size := s.rules.PlayersPerCourt
	if len(req.Pool) < size {
		return Team{}, fmt.Errorf("court %s: %d remaining for %d seats: %w",
			req.Court.ID, len(req.Pool), size, ErrInsufficientPool)
	}
	if req.History == nil {
		req.History = pairing.NewTracker()
	}

	sorted := byScore(req.Pool)
	eligible := s.eligible(sorted, req.Games)

	team, ok := s.selectBestTeam(req, eligible)
	evaluated := team.Evaluated
	if !ok && len(eligible) < len(sorted) {
		team, ok = s.selectBestTeam(req, sorted)
		evaluated += team.Evaluated
	}
	if !ok {
		s.logger.Debug(ctx, "court skipped",
			logger.String("court", req.Court.ID),
			logger.Int("game", req.Game),
			logger.Int("evaluated", evaluated),
		)
		return Team{Evaluated: evaluated}, fmt.Errorf("court %s game %d: %w",
			req.Court.ID, req.Game, ErrConstraintUnsatisfiable)
	}
	team.Evaluated = evaluated

	s.logger.Debug(ctx, "team selected",
		logger.String("court", req.Court.ID),
		logger.Int("game", req.Game),
		logger.String("team", team.Key),
		logger.Float64("score", team.Score),
		logger.Bool("balanced", team.Balanced),
		logger.Int("evaluated", evaluated),
	)
	return team, nil
}

// eligible admits candidates, best score first, while committing them keeps
// the projected spread within an adaptive threshold. Candidates at the pool
// minimum are always admitted.
func (s *Selector) eligible(sorted []priority.View, games map[string]int) []priority.View {
	size := s.rules.PlayersPerCourt
	spread := GamesSpread(games)
	threshold := 3
	if spread >= 2 {
		threshold = 2
	}
	poolMin := 0
	if len(games) > 0 {
		poolMin = lo.Min(lo.Values(games))
	}

	out := lo.Filter(sorted, func(v priority.View, _ int) bool {
		g, ok := games[v.ID()]
		if !ok {
			g = v.Games()
		}
		return g == poolMin || ProjectedSpread(games, v.ID()) <= threshold
	})
	if len(out) < size {
		return sorted[:size]
	}
	return out
}

// selectBestTeam searches pool, anchoring must-play participants first.
func (s *Selector) selectBestTeam(req Request, pool []priority.View) (Team, bool) {
	size := s.rules.PlayersPerCourt
	mustPlay := func(v priority.View, _ int) bool { return v.MustPlay }
	must, rest := lo.Filter(pool, mustPlay), lo.Reject(pool, mustPlay)

	evaluated := 0
	switch {
	case len(must) >= size:
		team, ok := s.search(req, nil, must)
		if ok {
			return team, true
		}
		evaluated += team.Evaluated
	case len(must) > 0:
		team, ok := s.search(req, must, byWaiting(rest))
		if ok {
			return team, true
		}
		evaluated += team.Evaluated
	}

	team, ok := s.search(req, nil, pool)
	team.Evaluated += evaluated
	return team, ok
}

type evaluation struct {
	team          Team
	consecutive   bool
	withinCeiling bool
}

// search proposes candidate teams made of anchors plus a fill from pool and
// returns the best one. The first pass rejects unbalanced and over-repeated
// teams; the second only keeps the hard constraints.
func (s *Selector) search(req Request, anchors, pool []priority.View) (Team, bool) {
	need := s.rules.PlayersPerCourt - len(anchors)
	if need < 0 || need > len(pool) {
		return Team{}, false
	}

	seen := make(map[string]struct{})
	var candidates []evaluation
	add := func(fill []priority.View) {
		members := append(append(make([]priority.View, 0, len(anchors)+len(fill)), anchors...), fill...)
		key := pairing.Key(lo.Map(members, func(v priority.View, _ int) string { return v.ID() }))
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		candidates = append(candidates, s.evaluate(req, members, key))
	}

	if need == len(pool) {
		add(pool)
	} else {
		if len(anchors) > 0 {
			add(pool[:need])
		}
		for attempt := range s.maxCombinations {
			strategy := s.strategies[attempt%len(s.strategies)]
			if fill := strategy.Candidate(pool, need, attempt/len(s.strategies), s.rng); fill != nil {
				add(fill)
			}
		}
	}

	strict := func(e evaluation) bool {
		return !e.consecutive && e.withinCeiling && e.team.Balanced && e.team.Repeats < repeatLimit
	}
	relaxed := func(e evaluation) bool {
		return !e.consecutive && e.withinCeiling
	}
	for _, accept := range []func(evaluation) bool{strict, relaxed} {
		if best, ok := bestOf(candidates, accept); ok {
			best.Evaluated = len(candidates)
			return best, true
		}
	}
	return Team{Evaluated: len(candidates)}, false
}

func bestOf(candidates []evaluation, accept func(evaluation) bool) (Team, bool) {
	var (
		best  Team
		found bool
	)
	for _, c := range candidates {
		if !accept(c) {
			continue
		}
		if !found || c.team.Score > best.Score {
			best, found = c.team, true
		}
	}
	return best, found
}

// evaluate scores a candidate team and checks the hard constraints.
func (s *Selector) evaluate(req Request, members []priority.View, key string) evaluation {
	ids := lo.Map(members, func(v priority.View, _ int) string { return v.ID() })
	levels := lo.Map(members, func(v priority.View, _ int) int { return v.Participant.Level })
	games := lo.Map(members, func(v priority.View, _ int) float64 { return float64(v.Games()) })

	waiting := lo.SumBy(members, func(v priority.View) int { return v.WaitingGames })
	priorities := lo.SumBy(members, func(v priority.View) float64 { return v.Score })
	_, variance := stat.PopMeanVariance(games, nil)
	split := BestSplitDifference(levels)
	repeats := req.History.Count(ids)
	preferred, avoided := preferencePairs(members)

	score := float64(waitingWeight*waiting) -
		gamesVarianceWeight*variance -
		float64(splitDifferenceWeight*split) -
		float64(repeatWeight*repeats) -
		priorities/priorityDivisor +
		float64(preferredPairWeight*preferred) -
		float64(avoidedPairWeight*avoided)

	ceiling := GamesCeiling(GamesSpread(req.Games), s.rules.MaxGamesDifference)
	return evaluation{
		team: Team{
			Members:         members,
			Key:             key,
			Score:           score,
			Balanced:        split <= s.rules.MaxSkillDifference,
			SplitDifference: split,
			Repeats:         repeats,
		},
		consecutive:   req.History.IsConsecutiveSameTeamOnSameCourt(ids, req.Court.ID, req.Game, req.Courts),
		withinCeiling: ProjectedSpread(req.Games, ids...) <= ceiling,
	}
}

// preferencePairs counts member pairs where either side avoids the other, and
// the remaining pairs where either side prefers the other.
func preferencePairs(members []priority.View) (preferred, avoided int) {
	for i := range members {
		for j := i + 1; j < len(members); j++ {
			a, b := members[i].Participant, members[j].Participant
			ka, okA := a.Preference(b.ID)
			kb, okB := b.Preference(a.ID)
			switch {
			case (okA && ka == model.Avoided) || (okB && kb == model.Avoided):
				avoided++
			case okA || okB:
				preferred++
			}
		}
	}
	return preferred, avoided
}
