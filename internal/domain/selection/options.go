package selection

import (
	"math/rand"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/pkg/logger"
)

// DefaultMaxCombinations bounds the candidate attempts per court.
const DefaultMaxCombinations = 100

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithRules sets the rules used for team size and constraints. Invalid rules
// are ignored.
func WithRules(rules model.Rules) Option {
	return func(s *Selector) {
		if rules.Validate() == nil {
			s.rules = rules
		}
	}
}

// WithRand pins the random source used by the random strategy.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithMaxCombinations sets how many candidate attempts are made per court.
func WithMaxCombinations(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.maxCombinations = n
		}
	}
}

// WithStrategies replaces the candidate strategy portfolio.
func WithStrategies(strategies ...TeamCandidateStrategy) Option {
	return func(s *Selector) {
		if len(strategies) > 0 {
			s.strategies = strategies
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		}
	}
}
