// Package service runs a rotation session: it owns the roster, serialises
// calls into the allocation engine and applies completed games back onto the
// participants.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/okian/rally/internal/adapters/repository"
	"github.com/okian/rally/internal/domain/allocation"
	"github.com/okian/rally/internal/domain/ledger"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/report"
	"github.com/okian/rally/internal/domain/round"
	"github.com/okian/rally/internal/domain/selection"
	"github.com/okian/rally/pkg/logger"
	"github.com/okian/rally/pkg/metrics"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Service implements the API dependencies for a rotation session.
type Service struct {
	mu sync.Mutex

	// Core components
	roster    repository.Store
	engine    *allocation.Engine
	validator *report.Validator
	completed ledger.Ledger

	// Configuration
	rules           model.Rules
	maxCombinations int
	maxLevelSpread  int
	seed            int64
	newID           func() string

	// State
	started  bool
	nextGame int
	pending  map[int][]model.GameAllocation

	logger logger.Logger
}

// ParticipantUpdate carries the fields to change; nil fields are left alone.
type ParticipantUpdate struct {
	Name  *string `json:"name,omitempty"`
	Level *int    `json:"level,omitempty"`
	// RotationPriority replaces the manual override. ClearPriority removes it.
	RotationPriority *int                `json:"rotation_priority,omitempty"`
	ClearPriority    bool                `json:"clear_priority,omitempty"`
	Preferences      *[]model.Preference `json:"preferences,omitempty"`
}

// GameResult is the outcome of allocating one game.
type GameResult struct {
	Game        int                     `json:"game"`
	Round       int                     `json:"round"`
	Allocations []model.GameAllocation  `json:"allocations"`
	Validation  report.ValidationResult `json:"validation"`
	Stats       report.AllocationStats  `json:"stats"`
}

// Stats describes the session for monitoring.
type Stats struct {
	Started        bool                 `json:"started"`
	Participants   int                  `json:"participants"`
	Courts         int                  `json:"courts"`
	ActiveCourts   int                  `json:"active_courts"`
	NextGame       int                  `json:"next_game"`
	NextRound      int                  `json:"next_round"`
	PendingGames   []int                `json:"pending_games"`
	CompletedGames int                  `json:"completed_games"`
	PairingHistory int                  `json:"pairing_history"`
	Rules          model.Rules          `json:"rules"`
	Rotation       report.RotationStats `json:"rotation"`
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		rules:           model.DefaultRules(),
		maxCombinations: selection.DefaultMaxCombinations,
		maxLevelSpread:  report.DefaultMaxLevelSpread,
		newID:           uuid.NewString,
		nextGame:        1,
		pending:         make(map[int][]model.GameAllocation),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the session components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.GetOr(logger.Nop())
	}

	if s.roster == nil {
		s.roster = repository.NewMemoryStore()
	}
	// Built once so a restart keeps pairing history and completed games.
	if s.engine == nil {
		s.engine = allocation.NewEngine(
			allocation.WithRules(s.rules),
			allocation.WithMaxCombinations(s.maxCombinations),
			allocation.WithSeed(s.seed),
			allocation.WithLogger(s.logger.Named("allocation")),
		)
	}
	if s.validator == nil {
		s.validator = report.NewValidator(
			report.WithRules(s.rules),
			report.WithMaxLevelSpread(s.maxLevelSpread),
		)
	}
	if s.completed == nil {
		s.completed = ledger.NewInMemoryLedger()
	}

	s.started = true
	s.logger.Info(ctx, "rotation service started",
		logger.Int("playersPerCourt", s.rules.PlayersPerCourt),
		logger.Int("maxCombinations", s.maxCombinations),
		logger.Bool("seeded", s.seed != 0),
	)
	return nil
}

// Stop shuts the session down. State is kept until the next Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "rotation service stopped")
}

func (s *Service) checkStarted() error {
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// AddParticipant registers a participant with a fresh id.
func (s *Service) AddParticipant(ctx context.Context, name string, level int) (model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkStarted(); err != nil {
		return model.Participant{}, err
	}

	name, err := cleanName(name)
	if err != nil {
		return model.Participant{}, err
	}
	if err := checkLevel(level); err != nil {
		return model.Participant{}, err
	}

	p := model.Participant{ID: s.newID(), Name: name, Level: level}
	if err := s.roster.AddParticipant(ctx, p); err != nil {
		return model.Participant{}, mapStoreErr(err)
	}
	s.logger.Debug(ctx, "participant added", logger.String("id", p.ID), logger.Int("level", level))
	return p, nil
}

// UpdateParticipant applies upd to the participant.
func (s *Service) UpdateParticipant(ctx context.Context, id string, upd ParticipantUpdate) (model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkStarted(); err != nil {
		return model.Participant{}, err
	}

	if upd.Preferences != nil {
		if err := s.checkPreferences(ctx, id, *upd.Preferences); err != nil {
			return model.Participant{}, err
		}
	}

	p, err := s.roster.UpdateParticipant(ctx, id, func(p *model.Participant) error {
		if upd.Name != nil {
			name, err := cleanName(*upd.Name)
			if err != nil {
				return err
			}
			p.Name = name
		}
		if upd.Level != nil {
			if err := checkLevel(*upd.Level); err != nil {
				return err
			}
			p.Level = *upd.Level
		}
		switch {
		case upd.ClearPriority:
			p.RotationPriority = nil
		case upd.RotationPriority != nil:
			v := *upd.RotationPriority
			p.RotationPriority = &v
		}
		if upd.Preferences != nil {
			p.Preferences = slices.Clone(*upd.Preferences)
		}
		return nil
	})
	if err != nil {
		return model.Participant{}, mapStoreErr(err)
	}
	return p, nil
}

// RemoveParticipant drops a participant from the roster. Games already
// allocated to them are unaffected.
func (s *Service) RemoveParticipant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkStarted(); err != nil {
		return err
	}
	return mapStoreErr(s.roster.RemoveParticipant(ctx, id))
}

// Participants lists the roster in registration order.
func (s *Service) Participants(ctx context.Context) ([]model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkStarted(); err != nil {
		return nil, err
	}
	return s.roster.Participants(ctx), nil
}

// AddCourt adds an active court.
func (s *Service) AddCourt(ctx context.Context, name string) (model.Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkStarted(); err != nil {
		return model.Court{}, err
	}

	name, err := cleanName(name)
	if err != nil {
		return model.Court{}, err
	}
	c := model.Court{ID: s.newID(), Name: name, Active: true}
	if err := s.roster.AddCourt(ctx, c); err != nil {
		return model.Court{}, mapStoreErr(err)
	}
	return c, nil
}

// SetCourtActive switches a court on or off for future games.
func (s *Service) SetCourtActive(ctx context.Context, id string, active bool) (model.Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkStarted(); err != nil {
		return model.Court{}, err
	}

	c, err := s.roster.UpdateCourt(ctx, id, func(c *model.Court) error {
		c.Active = active
		return nil
	})
	return c, mapStoreErr(err)
}

// Courts lists the courts in creation order.
func (s *Service) Courts(ctx context.Context) ([]model.Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkStarted(); err != nil {
		return nil, err
	}
	return s.roster.Courts(ctx), nil
}

// NextGame allocates the next game index. The index only advances when at
// least one court received a team; the allocation stays pending until
// CompleteGame is called for it.
func (s *Service) NextGame(ctx context.Context) (GameResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkStarted(); err != nil {
		return GameResult{}, err
	}

	game := s.nextGame
	allocs, err := s.engine.Allocate(ctx, s.roster.Participants(ctx), s.roster.Courts(ctx), game)
	if err != nil {
		metrics.RecordErrorByComponent("service", "allocate")
		return GameResult{}, fmt.Errorf("allocate game %d: %w", game, err)
	}

	res := GameResult{
		Game:        game,
		Allocations: allocs,
		Validation:  s.validator.ValidateAllocation(allocs),
		Stats:       s.validator.AllocationStats(allocs),
	}
	for _, v := range slices.Concat(res.Validation.Violations, res.Validation.Warnings) {
		metrics.RecordValidationFinding(string(v.Kind))
	}
	if !res.Validation.Valid {
		s.logger.Warn(ctx, "allocation failed validation",
			logger.Int("game", game),
			logger.Any("violations", res.Validation.Violations),
		)
	}
	if len(allocs) == 0 {
		return res, nil
	}

	res.Round = allocs[0].Round
	s.pending[game] = allocs
	s.nextGame++
	metrics.UpdateBalanceScore(res.Stats.BalanceScore)
	return res, nil
}

// CompleteGame applies a pending game's results: every allocated participant
// gains a game and records the game's round. Completing a game twice is a
// no-op that reports applied=false.
func (s *Service) CompleteGame(ctx context.Context, game int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkStarted(); err != nil {
		return false, err
	}

	if s.completed.Seen(game) {
		metrics.RecordGameCompleted(true)
		return false, nil
	}
	allocs, ok := s.pending[game]
	if !ok {
		return false, fmt.Errorf("game %d: %w", game, ErrUnknownGame)
	}

	for _, a := range allocs {
		for _, id := range a.PlayerIDs() {
			_, err := s.roster.UpdateParticipant(ctx, id, func(p *model.Participant) error {
				p.GamesPlayed++
				p.LastPlayedRound = a.Round
				return nil
			})
			if errors.Is(err, repository.ErrNotFound) {
				continue // removed after the allocation
			}
			if err != nil {
				return false, fmt.Errorf("complete game %d: %w", game, err)
			}
		}
	}
	delete(s.pending, game)
	s.completed.SeenAndRecord(ctx, game)
	metrics.RecordGameCompleted(false)

	rot := s.validator.RotationStats(s.roster.Participants(ctx), s.upcomingRound(ctx))
	metrics.UpdateRotationQuality(rot.GamesSpread, rot.Fairness, rot.RotationEfficiency)
	s.logger.Info(ctx, "game completed",
		logger.Int("game", game),
		logger.Int("courts", len(allocs)),
		logger.Int("gamesSpread", rot.GamesSpread),
	)
	return true, nil
}

// ResetSession zeroes every participant's games, forgets pairing history and
// completed games, and restarts numbering at game 1. The roster is kept.
func (s *Service) ResetSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkStarted(); err != nil {
		return err
	}

	s.roster.UpdateParticipants(ctx, func(p *model.Participant) {
		p.GamesPlayed = 0
		p.LastPlayedRound = 0
	})
	s.engine.Reset()
	s.completed.Reset()
	clear(s.pending)
	s.nextGame = 1
	metrics.RecordSessionReset()
	s.logger.Info(ctx, "session reset")
	return nil
}

// Rules returns the active rules.
func (s *Service) Rules(_ context.Context) model.Rules {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rules
}

// SetRules validates and replaces the rules for future games.
func (s *Service) SetRules(ctx context.Context, rules model.Rules) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkStarted(); err != nil {
		return err
	}

	if err := s.engine.SetRules(rules); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	s.validator.SetRules(rules)
	s.rules = rules
	s.logger.Info(ctx, "rules updated", logger.Any("rules", rules))
	return nil
}

// Stats returns session statistics for monitoring.
func (s *Service) Stats(ctx context.Context) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Started:  s.started,
		NextGame: s.nextGame,
		Rules:    s.rules,
	}
	if !s.started {
		return st
	}

	participants := s.roster.Participants(ctx)
	courts := s.roster.Courts(ctx)
	st.Participants = len(participants)
	st.Courts = len(courts)
	st.ActiveCourts = len(model.ActiveCourts(courts))
	st.NextRound = s.upcomingRound(ctx)
	st.PendingGames = lo.Keys(s.pending)
	slices.Sort(st.PendingGames)
	st.CompletedGames = s.completed.Size()
	st.PairingHistory = s.engine.History().Len()
	st.Rotation = s.validator.RotationStats(participants, st.NextRound)
	return st
}

// upcomingRound is the round of the next game under the current courts.
func (s *Service) upcomingRound(ctx context.Context) int {
	active := max(len(model.ActiveCourts(s.roster.Courts(ctx))), 1)
	r, err := round.Calculate(s.nextGame, active)
	if err != nil {
		return 0
	}
	return r
}

func (s *Service) checkPreferences(ctx context.Context, id string, prefs []model.Preference) error {
	for _, pref := range prefs {
		if pref.OtherID == id {
			return fmt.Errorf("preference toward self: %w", ErrInvalidInput)
		}
		if pref.Kind != model.Preferred && pref.Kind != model.Avoided {
			return fmt.Errorf("preference kind %q: %w", pref.Kind, ErrInvalidInput)
		}
		if _, err := s.roster.Participant(ctx, pref.OtherID); err != nil {
			return fmt.Errorf("preference toward %s: %w", pref.OtherID, ErrInvalidInput)
		}
	}
	return nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("name must not be empty: %w", ErrInvalidInput)
	}
	return name, nil
}

func checkLevel(level int) error {
	if level < model.MinLevel || level > model.MaxLevel {
		return fmt.Errorf("level %d outside %d..%d: %w", level, model.MinLevel, model.MaxLevel, ErrInvalidInput)
	}
	return nil
}

func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return err
	}
}
