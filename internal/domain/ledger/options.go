package ledger

// Option applies a configuration option to the ledger.
type Option func(*inMemoryLedger)

// WithMaxSize bounds how many games are remembered. Zero or a negative value
// removes the bound.
func WithMaxSize(n int) Option {
	return func(l *inMemoryLedger) {
		l.maxSize = n
	}
}
