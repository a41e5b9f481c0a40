// Package repository holds the session roster: the canonical participant and
// court lists the scheduler reads snapshots from.
package repository

import (
	"context"

	"github.com/okian/rally/internal/domain/model"
)

// Store provides read/write access to the roster. Lists come back in
// insertion order, which is the order the scheduler sees.
type Store interface {
	// AddParticipant inserts p. Returns ErrDuplicate for a known id.
	AddParticipant(ctx context.Context, p model.Participant) error
	// UpdateParticipant applies fn to a copy of the participant and stores
	// the result unless fn fails. Returns ErrNotFound for an unknown id.
	UpdateParticipant(ctx context.Context, id string, fn func(*model.Participant) error) (model.Participant, error)
	// UpdateParticipants applies fn to every participant in one write.
	UpdateParticipants(ctx context.Context, fn func(*model.Participant))
	RemoveParticipant(ctx context.Context, id string) error
	Participant(ctx context.Context, id string) (model.Participant, error)
	Participants(ctx context.Context) []model.Participant

	AddCourt(ctx context.Context, c model.Court) error
	UpdateCourt(ctx context.Context, id string, fn func(*model.Court) error) (model.Court, error)
	Courts(ctx context.Context) []model.Court

	// Count returns the number of participants.
	Count(ctx context.Context) int
}
