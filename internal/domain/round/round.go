// Package round maps game indexes onto rounds. A round is a block of
// courtsCount consecutive games that are played concurrently.
package round

import "fmt"

// Calculate returns the 1-based round that game belongs to when courts
// games are played per round.
func Calculate(game, courts int) (int, error) {
	if game <= 0 || courts <= 0 {
		return 0, fmt.Errorf("%w: game=%d courts=%d", ErrInvalidArgument, game, courts)
	}
	return (game-1)/courts + 1, nil
}

// Range returns the inclusive game-index range covered by round.
func Range(round, courts int) (start, end int, err error) {
	if round <= 0 || courts <= 0 {
		return 0, 0, fmt.Errorf("%w: round=%d courts=%d", ErrInvalidArgument, round, courts)
	}
	return (round-1)*courts + 1, round * courts, nil
}

// FirstGame returns the first game index of round, or 0 for round 0 (never
// played).
func FirstGame(round, courts int) int {
	if round <= 0 || courts <= 0 {
		return 0
	}
	return (round-1)*courts + 1
}
