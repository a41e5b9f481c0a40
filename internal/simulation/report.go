package simulation

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/pairing"
	"github.com/okian/rally/internal/domain/report"
)

// GameSummary is the outcome of one allocated game.
type GameSummary struct {
	Game         int      `json:"game"`
	Round        int      `json:"round"`
	Teams        []string `json:"teams"`
	Unbalanced   int      `json:"unbalanced"`
	BalanceScore float64  `json:"balance_score"`
}

// Report is the result of a simulated session.
type Report struct {
	Players int   `json:"players"`
	Courts  int   `json:"courts"`
	Games   int   `json:"games"`
	Seed    int64 `json:"seed"`

	Played      int     `json:"played"`
	Idle        int     `json:"idle"`
	Allocations int     `json:"allocations"`
	Unbalanced  int     `json:"unbalanced"`
	MeanBalance float64 `json:"mean_balance"`

	Rotation     report.RotationStats `json:"rotation"`
	Participants []model.Participant  `json:"participants"`
	History      []GameSummary        `json:"history"`
	Failures     []Failure            `json:"failures"`
	Duration     time.Duration        `json:"duration"`
}

// Passed reports whether every check held.
func (r *Report) Passed() bool {
	return len(r.Failures) == 0
}

func summarize(res gameResult) GameSummary {
	s := GameSummary{
		Game:         res.Game,
		Round:        res.Round,
		BalanceScore: res.Stats.BalanceScore,
	}
	for _, a := range res.Allocations {
		s.Teams = append(s.Teams, pairing.Key(a.PlayerIDs()))
		if !a.Balanced {
			s.Unbalanced++
		}
	}
	return s
}

// WriteText renders the report as aligned text.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "players\t%d\n", r.Players)
	fmt.Fprintf(tw, "courts\t%d\n", r.Courts)
	fmt.Fprintf(tw, "games\t%d played, %d idle of %d\n", r.Played, r.Idle, r.Games)
	fmt.Fprintf(tw, "seed\t%d\n", r.Seed)
	fmt.Fprintf(tw, "allocations\t%d (%d unbalanced)\n", r.Allocations, r.Unbalanced)
	fmt.Fprintf(tw, "mean balance\t%.2f\n", r.MeanBalance)
	fmt.Fprintf(tw, "games spread\t%d (min %d, max %d)\n", r.Rotation.GamesSpread, r.Rotation.MinGames, r.Rotation.MaxGames)
	fmt.Fprintf(tw, "fairness\t%.2f\n", r.Rotation.Fairness)
	fmt.Fprintf(tw, "rotation efficiency\t%.2f\n", r.Rotation.RotationEfficiency)
	fmt.Fprintf(tw, "duration\t%s\n\n", r.Duration.Round(time.Microsecond))

	fmt.Fprintln(tw, "name\tlevel\tgames\tlast round")
	ps := slices.Clone(r.Participants)
	slices.SortStableFunc(ps, func(a, b model.Participant) int { return b.GamesPlayed - a.GamesPlayed })
	for _, p := range ps {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", p.Name, p.Level, p.GamesPlayed, p.LastPlayedRound)
	}

	if len(r.Failures) > 0 {
		fmt.Fprintf(tw, "\n%d failures\n", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Fprintf(tw, "  %s\n", f)
		}
	}
	return tw.Flush()
}
