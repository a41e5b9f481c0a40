package selection

import "errors"

// Sentinel error kinds for this package. Neither is fatal to an invocation;
// the court in question is skipped.
var (
	ErrInsufficientPool        = errors.New("insufficient pool")
	ErrConstraintUnsatisfiable = errors.New("no team satisfies constraints")
)
