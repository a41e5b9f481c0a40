// Package pairing tracks which exact teams have played, how often, and on
// which court they were last seen.
package pairing

import (
	"slices"
	"strings"

	"github.com/okian/rally/internal/domain/round"
)

const keySeparator = ","

// Key returns the canonical key for a team. The order of ids does not matter.
func Key(ids []string) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted) // order-independent
	return strings.Join(sorted, keySeparator)
}

// Record is the usage history of one team.
type Record struct {
	Key       string `json:"key"`
	Count     int    `json:"count"`
	LastGame  int    `json:"last_game"`
	LastCourt string `json:"last_court"`
}

// courtUse is the most recent team seen on a court.
type courtUse struct {
	key  string
	game int
}

// Tracker holds the pairing history of a session. It is not safe for
// concurrent use; callers serialise access.
type Tracker struct {
	records map[string]*Record
	courts  map[string]courtUse
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		records: make(map[string]*Record),
		courts:  make(map[string]courtUse),
	}
}

// RecordTeamPairing upserts the team's record and marks it as the latest team
// on courtID.
func (t *Tracker) RecordTeamPairing(ids []string, game int, courtID string) Record {
	key := Key(ids)
	rec, ok := t.records[key]
	if !ok {
		rec = &Record{Key: key}
		t.records[key] = rec
	}
	rec.Count++
	rec.LastGame = game
	rec.LastCourt = courtID

	t.courts[courtID] = courtUse{key: key, game: game}
	return *rec
}

// IsConsecutiveSameTeamOnSameCourt reports whether assigning the team to
// courtID for game would repeat it back to back. That is the case when the
// team already played in the same round (on any court), or when it is still
// the latest team seen on courtID no matter how many games went by.
func (t *Tracker) IsConsecutiveSameTeamOnSameCourt(ids []string, courtID string, game, courts int) bool {
	key := Key(ids)
	rec, ok := t.records[key]
	if !ok {
		return false
	}

	current, errCur := round.Calculate(game, courts)
	last, errLast := round.Calculate(rec.LastGame, courts)
	if errCur == nil && errLast == nil && current == last {
		return true
	}

	if rec.LastCourt != courtID {
		return false
	}
	latest, ok := t.courts[courtID]
	return ok && latest.key == key
}

// Count returns how many times the team has been recorded.
func (t *Tracker) Count(ids []string) int {
	if rec, ok := t.records[Key(ids)]; ok {
		return rec.Count
	}
	return 0
}

// Record returns a copy of the team's history.
func (t *Tracker) Record(ids []string) (Record, bool) {
	rec, ok := t.records[Key(ids)]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Records returns a copy of every record, most used first.
func (t *Tracker) Records() []Record {
	out := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, *rec)
	}
	slices.SortFunc(out, func(a, b Record) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out
}

// Len returns the number of distinct teams recorded.
func (t *Tracker) Len() int {
	return len(t.records)
}

// Reset clears all history. It is called when a new session starts.
func (t *Tracker) Reset() {
	clear(t.records)
	clear(t.courts)
}
