// Package config defines service configuration and its loading.
//
// Values are layered: defaults from New, then an optional YAML file named by
// RALLY_CONFIG, then RALLY_ prefixed environment variables.
package config

import (
	"fmt"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/report"
	"github.com/okian/rally/internal/domain/selection"
	"github.com/okian/rally/pkg/logger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	MaxSkillDifference    int  `koanf:"max_skill_difference"`
	PlayersPerCourt       int  `koanf:"players_per_court"`
	MaxGamesDifference    int  `koanf:"max_games_difference"`
	MinGamesByRoundTwo    int  `koanf:"min_games_by_round_two"`
	EnforceEveryTwoRounds bool `koanf:"enforce_every_two_rounds"`

	// MaxCombinations bounds the candidate teams tried per court.
	MaxCombinations int `koanf:"max_combinations"`

	// MaxLevelSpread is the level gap inside a team the validator tolerates.
	MaxLevelSpread int `koanf:"max_level_spread"`

	// RandomSeed pins the candidate search. 0 seeds from the clock.
	RandomSeed int64 `koanf:"random_seed"`
}

// New creates a Config with defaults.
func New() *Config {
	rules := model.DefaultRules()
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		MaxSkillDifference:    rules.MaxSkillDifference,
		PlayersPerCourt:       rules.PlayersPerCourt,
		MaxGamesDifference:    rules.MaxGamesDifference,
		MinGamesByRoundTwo:    rules.MinGamesByRoundTwo,
		EnforceEveryTwoRounds: rules.EnforceEveryTwoRounds,
		MaxCombinations:       selection.DefaultMaxCombinations,
		MaxLevelSpread:        report.DefaultMaxLevelSpread,
	}
}

// Rules returns the scheduling rules carried by the config.
func (c *Config) Rules() model.Rules {
	return model.Rules{
		MaxSkillDifference:    c.MaxSkillDifference,
		PlayersPerCourt:       c.PlayersPerCourt,
		MaxGamesDifference:    c.MaxGamesDifference,
		MinGamesByRoundTwo:    c.MinGamesByRoundTwo,
		EnforceEveryTwoRounds: c.EnforceEveryTwoRounds,
	}
}

// Validate checks the values Load cannot fix up.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty: %w", ErrInvalidConfig)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w: %w", ErrInvalidConfig, err)
	}
	if err := c.Rules().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.MaxCombinations <= 0 {
		return fmt.Errorf("max_combinations %d must be positive: %w", c.MaxCombinations, ErrInvalidConfig)
	}
	if c.MaxLevelSpread < 0 || c.MaxLevelSpread > model.MaxLevel-model.MinLevel {
		return fmt.Errorf("max_level_spread %d out of range: %w", c.MaxLevelSpread, ErrInvalidConfig)
	}
	return nil
}
