package repository

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)
