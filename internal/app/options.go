package service

import (
	"github.com/okian/rally/internal/adapters/repository"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRules sets the initial scheduling rules. Invalid rules are ignored.
func WithRules(rules model.Rules) Option {
	return func(s *Service) {
		if rules.Validate() == nil {
			s.rules = rules
		}
	}
}

// WithMaxCombinations sets how many candidate teams are tried per court.
func WithMaxCombinations(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCombinations = n
		}
	}
}

// WithMaxLevelSpread sets the level gap the validator tolerates.
func WithMaxLevelSpread(spread int) Option {
	return func(s *Service) {
		if spread >= 0 {
			s.maxLevelSpread = spread
		}
	}
}

// WithRandomSeed pins the candidate search. 0 seeds from the clock.
func WithRandomSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithStore sets the roster store. A fresh in-memory store is used otherwise.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.roster = store
		}
	}
}

// WithIDGenerator replaces the id source for new participants and courts.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
