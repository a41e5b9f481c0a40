package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/okian/rally/internal/config"
	"github.com/okian/rally/internal/simulation"
	"github.com/okian/rally/pkg/logger"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

var errChecksFailed = errors.New("simulation checks failed")

func newSimulateCmd() *cobra.Command {
	cfg := simulation.DefaultConfig()
	var (
		asJSON  bool
		runs    int
		workers int
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a session and verify the rotation",
		Long: heredoc.Doc(`
			simulate runs a whole session in-process: it registers the
			players with seeded levels, allocates and completes every game
			and checks team sizes, duplicate placements, back-to-back teams
			and the games spread after each one.

			With --runs above one the session is repeated over consecutive
			seeds on a pool of workers and one line per seed is printed.

			Rules come from the usual configuration. The command exits
			non-zero when any check fails.`),
		Example: heredoc.Doc(`
			rally simulate --players 14 --courts 3 --games 20 --seed 7
			rally simulate --runs 100 --workers 8
			RALLY_MAX_GAMES_DIFFERENCE=1 rally simulate --json`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			loaded, err := config.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			// Logs go to stderr so the report can be piped.
			log, err := logger.New(cmd.ErrOrStderr(), loaded.LogLevel)
			if err != nil {
				return err
			}
			cfg.Logger = log
			cfg.Rules = loaded.Rules()

			if runs > 1 {
				rep, err := simulation.Sweep(ctx, cfg, runs, workers)
				if err != nil {
					return err
				}
				if err := writeReport(cmd, asJSON, rep); err != nil {
					return err
				}
				if !rep.Passed() {
					return fmt.Errorf("%w: seeds %v", errChecksFailed, rep.Failed)
				}
				return nil
			}

			rep, err := simulation.Run(ctx, cfg)
			if err != nil {
				return err
			}
			if err := writeReport(cmd, asJSON, rep); err != nil {
				return err
			}
			if !rep.Passed() {
				return fmt.Errorf("%w: %d failures", errChecksFailed, len(rep.Failures))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.Players, "players", cfg.Players, "number of players on the roster")
	flags.IntVar(&cfg.Courts, "courts", cfg.Courts, "number of courts")
	flags.IntVar(&cfg.Games, "games", cfg.Games, "number of games to play")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "seed for levels, ids and team search (non-zero)")
	flags.BoolVar(&cfg.Verbose, "verbose", false, "log every game")
	flags.BoolVar(&asJSON, "json", false, "print the report as JSON")
	flags.IntVar(&runs, "runs", 1, "number of consecutive seeds to simulate")
	flags.IntVar(&workers, "workers", 0, "concurrent sessions for --runs (0 uses one per CPU)")
	return cmd
}

type textReport interface {
	WriteText(w io.Writer) error
}

func writeReport(cmd *cobra.Command, asJSON bool, rep textReport) error {
	var err error
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		err = enc.Encode(rep)
	} else {
		err = rep.WriteText(cmd.OutOrStdout())
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
