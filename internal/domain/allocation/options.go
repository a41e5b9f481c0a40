package allocation

import (
	"math/rand"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRules sets the initial rules. Invalid rules are ignored.
func WithRules(rules model.Rules) Option {
	return func(e *Engine) {
		if rules.Validate() == nil {
			e.rules = rules
		}
	}
}

// WithRand pins the random source of the candidate search.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithSeed pins the random source to seed. Zero keeps a time-seeded source.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		if seed != 0 {
			e.rng = rand.New(rand.NewSource(seed))
		}
	}
}

// WithMaxCombinations sets how many candidate teams are tried per court.
func WithMaxCombinations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxCombinations = n
		}
	}
}

// WithLogger sets the logger shared with the sub-components.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
