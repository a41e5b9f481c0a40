package simulation

import "errors"

var (
	// ErrInvalidConfig reports a simulation config that cannot run.
	ErrInvalidConfig = errors.New("invalid simulation config")
	// ErrSession wraps failures of the underlying session service.
	ErrSession = errors.New("simulation session failed")
)
