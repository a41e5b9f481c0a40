package repository

import "github.com/okian/rally/internal/domain/model"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithCourts seeds the store with courts. Courts with an empty or repeated id
// are dropped.
func WithCourts(courts ...model.Court) Option {
	return func(s *MemoryStore) {
		for _, c := range courts {
			if c.ID == "" {
				continue
			}
			if _, ok := s.courtIdx[c.ID]; ok {
				continue
			}
			s.courtIdx[c.ID] = len(s.courts)
			s.courts = append(s.courts, c)
		}
	}
}
