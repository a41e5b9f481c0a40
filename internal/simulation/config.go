package simulation

import (
	"fmt"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/pkg/logger"
)

// Config holds configuration for a simulated session.
type Config struct {
	Players int   // Number of participants on the roster
	Courts  int   // Number of active courts
	Games   int   // Number of games to allocate and complete
	Seed    int64 // Seeds levels, ids and the candidate search
	Rules   model.Rules
	Verbose bool // Log every allocation

	// Logger receives progress logs. The global logger is used when nil.
	Logger logger.Logger
}

// DefaultConfig returns a small session that fills two courts with spare
// players.
func DefaultConfig() Config {
	return Config{
		Players: 12,
		Courts:  2,
		Games:   10,
		Seed:    1,
		Rules:   model.DefaultRules(),
	}
}

// Validate checks that the session can be simulated.
func (c Config) Validate() error {
	switch {
	case c.Players < 1:
		return fmt.Errorf("%w: players %d must be positive", ErrInvalidConfig, c.Players)
	case c.Courts < 1:
		return fmt.Errorf("%w: courts %d must be positive", ErrInvalidConfig, c.Courts)
	case c.Games < 1:
		return fmt.Errorf("%w: games %d must be positive", ErrInvalidConfig, c.Games)
	case c.Seed == 0:
		return fmt.Errorf("%w: seed must be non-zero", ErrInvalidConfig)
	}
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) logger() logger.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logger.GetOr(logger.Nop())
}
