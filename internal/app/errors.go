package service

import "errors"

// Sentinel error kinds returned by the Service. The HTTP layer maps them to
// status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnknownGame  = errors.New("unknown game")
	ErrNotStarted   = errors.New("service not started")
)
