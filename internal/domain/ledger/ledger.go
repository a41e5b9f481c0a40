// Package ledger remembers which games have had their results applied so a
// retried completion is a no-op.
package ledger

import (
	"context"
	"sync"
)

// Ledger records completed game indices.
type Ledger interface {
	// SeenAndRecord atomically checks whether game was already recorded and
	// records it if not. It returns true for a repeat.
	SeenAndRecord(ctx context.Context, game int) bool

	Seen(game int) bool
	Size() int
	Reset()
}

const defaultMaxSize = 10_000

// inMemoryLedger keeps recorded games in a set. With a bound, the oldest
// recorded games are evicted first.
type inMemoryLedger struct {
	mu      sync.Mutex
	seen    map[int]struct{}
	order   []int // insertion order, used for eviction
	maxSize int   // 0 or negative = unbounded
}

// NewInMemoryLedger creates a ledger.
func NewInMemoryLedger(opts ...Option) Ledger {
	l := &inMemoryLedger{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.seen = make(map[int]struct{})
	return l
}

func (l *inMemoryLedger) SeenAndRecord(_ context.Context, game int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[game]; ok {
		return true
	}
	if l.maxSize > 0 && len(l.seen) >= l.maxSize {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.seen, oldest)
	}
	l.seen[game] = struct{}{}
	l.order = append(l.order, game)
	return false
}

func (l *inMemoryLedger) Seen(game int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[game]
	return ok
}

func (l *inMemoryLedger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

func (l *inMemoryLedger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.seen)
	l.order = l.order[:0]
}
