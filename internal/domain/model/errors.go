package model

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidRules = errors.New("invalid rules")
)
