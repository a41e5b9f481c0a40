package simulation

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"runtime"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/okian/rally/pkg/logger"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// SweepSummary is the outcome of one seed within a sweep.
type SweepSummary struct {
	Seed        int64   `json:"seed"`
	Played      int     `json:"played"`
	Idle        int     `json:"idle"`
	GamesSpread int     `json:"games_spread"`
	MeanBalance float64 `json:"mean_balance"`
	Failures    int     `json:"failures"`
}

// SweepReport aggregates a sweep over consecutive seeds.
type SweepReport struct {
	Runs        int            `json:"runs"`
	Workers     int            `json:"workers"`
	Failed      []int64        `json:"failed"`
	WorstSpread int            `json:"worst_spread"`
	Seeds       []SweepSummary `json:"seeds"`
	Duration    time.Duration  `json:"duration"`
}

// Passed reports whether every seed passed.
func (r *SweepReport) Passed() bool {
	return len(r.Failed) == 0
}

// Sweep runs base once per seed in [base.Seed, base.Seed+runs) on a pool of
// workers. Seeds are queued up front and each worker drains the queue until
// it is empty or ctx ends. A worker count of zero uses one per CPU.
func Sweep(ctx context.Context, base Config, runs, workers int) (*SweepReport, error) {
	if runs < 1 {
		return nil, fmt.Errorf("%w: runs %d must be positive", ErrInvalidConfig, runs)
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, runs)
	log := base.logger()
	start := time.Now()

	jobs := make(chan int64, runs)
	for i := range runs {
		seed := base.Seed + int64(i)
		if seed == 0 {
			seed = base.Seed + int64(runs)
		}
		jobs <- seed
	}
	close(jobs)

	results := make(chan SweepSummary, runs)
	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() error {
			for seed := range jobs {
				cfg := base
				cfg.Seed = seed
				cfg.Logger = logger.Nop()
				rep, err := Run(gctx, cfg)
				if err != nil {
					return fmt.Errorf("worker %d seed %d: %w", w, seed, err)
				}
				results <- SweepSummary{
					Seed:        seed,
					Played:      rep.Played,
					Idle:        rep.Idle,
					GamesSpread: rep.Rotation.GamesSpread,
					MeanBalance: rep.MeanBalance,
					Failures:    len(rep.Failures),
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)

	out := &SweepReport{Runs: runs, Workers: workers}
	for s := range results {
		out.Seeds = append(out.Seeds, s)
	}
	slices.SortFunc(out.Seeds, func(a, b SweepSummary) int { return cmp.Compare(a.Seed, b.Seed) })
	out.Failed = lo.FilterMap(out.Seeds, func(s SweepSummary, _ int) (int64, bool) { return s.Seed, s.Failures > 0 })
	out.WorstSpread = lo.Max(lo.Map(out.Seeds, func(s SweepSummary, _ int) int { return s.GamesSpread }))
	out.Duration = time.Since(start)

	log.Info(ctx, "sweep finished",
		logger.Int("runs", runs),
		logger.Int("workers", workers),
		logger.Int("failed", len(out.Failed)),
		logger.Int("worstSpread", out.WorstSpread),
	)
	return out, nil
}

// WriteText renders one line per seed.
func (r *SweepReport) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "seed\tplayed\tidle\tspread\tbalance\tfailures")
	for _, s := range r.Seeds {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%.2f\t%d\n", s.Seed, s.Played, s.Idle, s.GamesSpread, s.MeanBalance, s.Failures)
	}
	fmt.Fprintf(tw, "\n%d runs on %d workers, %d failed, worst spread %d, %s\n",
		r.Runs, r.Workers, len(r.Failed), r.WorstSpread, r.Duration.Round(time.Millisecond))
	return tw.Flush()
}
