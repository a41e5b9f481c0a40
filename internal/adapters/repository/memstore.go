package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/pkg/metrics"

	"github.com/samber/lo"
)

// Snapshot is an immutable view of the roster published after every write.
type Snapshot struct {
	Version      uint64
	Participants []model.Participant
	Courts       []model.Court
}

// MemoryStore is an in-memory Store. Writes are serialised; reads are served
// from the latest published snapshot without taking the lock.
type MemoryStore struct {
	mu           sync.Mutex
	participants []model.Participant
	index        map[string]int // id -> position in participants
	courts       []model.Court
	courtIdx     map[string]int

	version  uint64
	snapshot atomic.Pointer[Snapshot]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		index:    make(map[string]int),
		courtIdx: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.publishSnapshot()
	return s
}

// Snapshot returns the latest published roster.
func (s *MemoryStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

func (s *MemoryStore) AddParticipant(_ context.Context, p model.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[p.ID]; ok {
		metrics.RecordErrorByComponent("repository", "duplicate")
		return fmt.Errorf("participant %s: %w", p.ID, ErrDuplicate)
	}
	s.index[p.ID] = len(s.participants)
	s.participants = append(s.participants, cloneParticipant(p))
	s.publishSnapshot()
	return nil
}

func (s *MemoryStore) UpdateParticipant(_ context.Context, id string, fn func(*model.Participant) error) (model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Participant{}, fmt.Errorf("participant %s: %w", id, ErrNotFound)
	}
	p := cloneParticipant(s.participants[i])
	if err := fn(&p); err != nil {
		return model.Participant{}, err
	}
	p.ID = id
	s.participants[i] = p
	s.publishSnapshot()
	return cloneParticipant(p), nil
}

func (s *MemoryStore) UpdateParticipants(_ context.Context, fn func(*model.Participant)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.participants {
		id := s.participants[i].ID
		fn(&s.participants[i])
		s.participants[i].ID = id
	}
	s.publishSnapshot()
}

func (s *MemoryStore) RemoveParticipant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("participant %s: %w", id, ErrNotFound)
	}
	s.participants = slices.Delete(s.participants, i, i+1)
	delete(s.index, id)
	for j := i; j < len(s.participants); j++ {
		s.index[s.participants[j].ID] = j
	}
	s.publishSnapshot()
	return nil
}

func (s *MemoryStore) Participant(_ context.Context, id string) (model.Participant, error) {
	snap := s.snapshot.Load()
	p, ok := lo.Find(snap.Participants, func(p model.Participant) bool { return p.ID == id })
	if !ok {
		return model.Participant{}, fmt.Errorf("participant %s: %w", id, ErrNotFound)
	}
	return cloneParticipant(p), nil
}

func (s *MemoryStore) Participants(_ context.Context) []model.Participant {
	return lo.Map(s.snapshot.Load().Participants, func(p model.Participant, _ int) model.Participant {
		return cloneParticipant(p)
	})
}

func (s *MemoryStore) AddCourt(_ context.Context, c model.Court) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courtIdx[c.ID]; ok {
		return fmt.Errorf("court %s: %w", c.ID, ErrDuplicate)
	}
	s.courtIdx[c.ID] = len(s.courts)
	s.courts = append(s.courts, c)
	s.publishSnapshot()
	return nil
}

func (s *MemoryStore) UpdateCourt(_ context.Context, id string, fn func(*model.Court) error) (model.Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.courtIdx[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Court{}, fmt.Errorf("court %s: %w", id, ErrNotFound)
	}
	c := s.courts[i]
	if err := fn(&c); err != nil {
		return model.Court{}, err
	}
	c.ID = id
	s.courts[i] = c
	s.publishSnapshot()
	return c, nil
}

func (s *MemoryStore) Courts(_ context.Context) []model.Court {
	return slices.Clone(s.snapshot.Load().Courts)
}

func (s *MemoryStore) Count(_ context.Context) int {
	return len(s.snapshot.Load().Participants)
}

// publishSnapshot must be called with s.mu held.
func (s *MemoryStore) publishSnapshot() {
	s.version++
	snap := &Snapshot{
		Version:      s.version,
		Participants: lo.Map(s.participants, func(p model.Participant, _ int) model.Participant { return cloneParticipant(p) }),
		Courts:       slices.Clone(s.courts),
	}
	s.snapshot.Store(snap)
	metrics.UpdatePool(len(snap.Participants), len(model.ActiveCourts(snap.Courts)))
}

func cloneParticipant(p model.Participant) model.Participant {
	if p.RotationPriority != nil {
		v := *p.RotationPriority
		p.RotationPriority = &v
	}
	p.Preferences = slices.Clone(p.Preferences)
	return p
}
