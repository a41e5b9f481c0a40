package simulation

import (
	"fmt"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/pairing"
	"github.com/okian/rally/internal/domain/selection"

	"github.com/samber/lo"
)

// Checks applied to every simulated game.
const (
	CheckTeamSize     = "team_size"
	CheckDuplicate    = "duplicate_participant"
	CheckUnknown      = "unknown_participant"
	CheckRepeat       = "consecutive_repeat"
	CheckGamesSpread  = "games_spread"
	CheckUnplayed     = "unplayed_after_round_two"
	CheckLostProgress = "lost_progress"
)

// Failure is one broken invariant.
type Failure struct {
	Game   int    `json:"game"`
	Check  string `json:"check"`
	Detail string `json:"detail"`
}

func (f Failure) String() string {
	return fmt.Sprintf("game %d: %s: %s", f.Game, f.Check, f.Detail)
}

// verifier carries what the checks need between games.
type verifier struct {
	rules       model.Rules
	roster      map[string]bool
	lastOnCourt map[string]string
}

func newVerifier(rules model.Rules, participants []model.Participant) *verifier {
	return &verifier{
		rules:       rules,
		roster:      lo.Associate(participants, func(p model.Participant) (string, bool) { return p.ID, true }),
		lastOnCourt: make(map[string]string),
	}
}

// checkGame verifies the allocations of one game and remembers the teams.
func (v *verifier) checkGame(game int, allocs []model.GameAllocation) []Failure {
	var failures []Failure
	seen := make(map[string]bool)
	for _, a := range allocs {
		ids := a.PlayerIDs()
		if len(ids) != v.rules.PlayersPerCourt {
			failures = append(failures, Failure{game, CheckTeamSize,
				fmt.Sprintf("court %s has %d players, want %d", a.CourtName, len(ids), v.rules.PlayersPerCourt)})
		}
		for _, id := range ids {
			if !v.roster[id] {
				failures = append(failures, Failure{game, CheckUnknown, fmt.Sprintf("%s on court %s", id, a.CourtName)})
			}
			if seen[id] {
				failures = append(failures, Failure{game, CheckDuplicate, fmt.Sprintf("%s placed twice", id)})
			}
			seen[id] = true
		}

		key := pairing.Key(ids)
		if v.lastOnCourt[a.CourtID] == key {
			failures = append(failures, Failure{game, CheckRepeat, fmt.Sprintf("court %s kept team %s", a.CourtName, key)})
		}
		v.lastOnCourt[a.CourtID] = key
	}
	return failures
}

// checkSpread verifies the pool-wide games spread once a game is applied.
func (v *verifier) checkSpread(game int, participants []model.Participant) []Failure {
	games := lo.Associate(participants, func(p model.Participant) (string, int) { return p.ID, p.GamesPlayed })
	spread := selection.GamesSpread(games)
	if bound := max(v.rules.MaxGamesDifference, 2); spread > bound {
		return []Failure{{game, CheckGamesSpread, fmt.Sprintf("spread %d exceeds %d", spread, bound)}}
	}
	return nil
}

// checkPlayed verifies that nobody is still waiting for a first game once
// two full rounds went by. Sessions with more players than two rounds of
// seats are exempt.
func (v *verifier) checkPlayed(game, courts int, participants []model.Participant) []Failure {
	if game != 2*courts || len(participants) > 2*courts*v.rules.PlayersPerCourt {
		return nil
	}
	waiting := lo.FilterMap(participants, func(p model.Participant, _ int) (string, bool) {
		return p.ID, !p.HasPlayed()
	})
	if len(waiting) == 0 {
		return nil
	}
	return []Failure{{game, CheckUnplayed, fmt.Sprintf("%d still waiting: %v", len(waiting), waiting)}}
}
