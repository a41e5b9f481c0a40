package report

import "github.com/okian/rally/internal/domain/model"

// DefaultMaxLevelSpread is the tolerated max-min level gap inside a team.
const DefaultMaxLevelSpread = 6

// Option applies a configuration option to the Validator.
type Option func(*Validator)

// WithRules sets team size and skill difference. Invalid rules are ignored.
func WithRules(rules model.Rules) Option {
	return func(v *Validator) {
		if rules.Validate() == nil {
			v.rules = rules
		}
	}
}

// WithMaxLevelSpread sets the tolerated level gap inside a team.
func WithMaxLevelSpread(spread int) Option {
	return func(v *Validator) {
		if spread >= 0 && spread <= model.MaxLevel-model.MinLevel {
			v.maxLevelSpread = spread
		}
	}
}
