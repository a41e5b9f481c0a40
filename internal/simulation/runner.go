// Package simulation drives a whole rotation session in-process and checks
// the allocation invariants game by game.
package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	service "github.com/okian/rally/internal/app"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/pkg/logger"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

type gameResult = service.GameResult

// Run simulates cfg.Games games. Invariant breaks are collected in the report;
// an error means the session itself could not run.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.logger().Named("simulation")
	start := time.Now()

	svc := service.New(
		service.WithRules(cfg.Rules),
		service.WithRandomSeed(cfg.Seed),
		service.WithIDGenerator(idGenerator(cfg.Seed)),
		service.WithLogger(log),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSession, err)
	}
	defer svc.Stop()

	participants, err := seedRoster(ctx, svc, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSession, err)
	}
	log.Info(ctx, "simulation started",
		logger.Int("players", cfg.Players),
		logger.Int("courts", cfg.Courts),
		logger.Int("games", cfg.Games),
		logger.Any("seed", cfg.Seed),
	)

	rep := &Report{Players: cfg.Players, Courts: cfg.Courts, Games: cfg.Games, Seed: cfg.Seed}
	v := newVerifier(cfg.Rules, participants)
	for range cfg.Games {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation interrupted: %w", err)
		}
		if err := playGame(ctx, svc, cfg, v, rep, log); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSession, err)
		}
	}

	final, err := svc.Participants(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSession, err)
	}
	rep.Participants = final
	rep.Rotation = svc.Stats(ctx).Rotation
	if len(rep.History) > 0 {
		rep.MeanBalance = stat.Mean(lo.Map(rep.History, func(g GameSummary, _ int) float64 { return g.BalanceScore }), nil)
	}
	rep.Duration = time.Since(start)

	log.Info(ctx, "simulation finished",
		logger.Int("played", rep.Played),
		logger.Int("idle", rep.Idle),
		logger.Int("failures", len(rep.Failures)),
		logger.Int("gamesSpread", rep.Rotation.GamesSpread),
		logger.Float64("meanBalance", rep.MeanBalance),
	)
	return rep, nil
}

// playGame allocates and completes one game, collecting check failures.
func playGame(ctx context.Context, svc *service.Service, cfg Config, v *verifier, rep *Report, log logger.Logger) error {
	res, err := svc.NextGame(ctx)
	if err != nil {
		return err
	}
	if len(res.Allocations) == 0 {
		rep.Idle++
		log.Warn(ctx, "no court could be filled", logger.Int("game", res.Game))
		return nil
	}

	rep.Failures = append(rep.Failures, v.checkGame(res.Game, res.Allocations)...)
	applied, err := svc.CompleteGame(ctx, res.Game)
	if err != nil {
		return err
	}
	if !applied {
		rep.Failures = append(rep.Failures, Failure{res.Game, CheckLostProgress, "completion was not applied"})
	}

	participants, err := svc.Participants(ctx)
	if err != nil {
		return err
	}
	rep.Failures = append(rep.Failures, v.checkSpread(res.Game, participants)...)
	rep.Failures = append(rep.Failures, v.checkPlayed(res.Game, cfg.Courts, participants)...)

	summary := summarize(res)
	rep.Played++
	rep.Allocations += len(res.Allocations)
	rep.Unbalanced += summary.Unbalanced
	rep.History = append(rep.History, summary)
	if cfg.Verbose {
		log.Info(ctx, "game played",
			logger.Int("game", res.Game),
			logger.Int("round", res.Round),
			logger.Strings("teams", summary.Teams),
			logger.Float64("balance", summary.BalanceScore),
		)
	}
	return nil
}

// seedRoster registers cfg.Players participants with seeded levels and
// cfg.Courts active courts.
func seedRoster(ctx context.Context, svc *service.Service, cfg Config) ([]model.Participant, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	participants := make([]model.Participant, 0, cfg.Players)
	for i := range cfg.Players {
		level := model.MinLevel + rng.Intn(model.MaxLevel-model.MinLevel+1)
		p, err := svc.AddParticipant(ctx, fmt.Sprintf("Player %02d", i+1), level)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	for i := range cfg.Courts {
		if _, err := svc.AddCourt(ctx, fmt.Sprintf("Court %d", i+1)); err != nil {
			return nil, err
		}
	}
	return participants, nil
}

// idGenerator derives stable ids from the seed so runs can be replayed.
func idGenerator(seed int64) func() string {
	n := 0
	return func() string {
		n++
		return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "rally/%d/%d", seed, n)).String()
	}
}
