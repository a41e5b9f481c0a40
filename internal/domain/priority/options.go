package priority

import (
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRules sets the rules the engine scores against.
func WithRules(rules model.Rules) Option {
	return func(e *Engine) {
		if rules.Validate() == nil {
			e.rules = rules
		}
	}
}

// WithLogger sets the logger used for debug traces.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
