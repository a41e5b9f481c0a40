// Package model contains domain models passed between layers.
package model

// PreferenceKind tells whether a participant wants to share a court with
// another participant or keep away from them.
type PreferenceKind string

// Preference kinds.
const (
	Preferred PreferenceKind = "preferred"
	Avoided   PreferenceKind = "avoided"
)

// Level bounds for a participant's skill level.
const (
	MinLevel = 1
	MaxLevel = 10
)

// Preference is one side of a pairwise preference. The other side records its
// own preference; nothing enforces symmetry.
type Preference struct {
	OtherID string         `json:"other_id"`
	Kind    PreferenceKind `json:"kind"`
}

// Participant is a snapshot of a person in the rotation pool.
type Participant struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Level           int    `json:"level"`
	GamesPlayed     int    `json:"games_played"`
	LastPlayedRound int    `json:"last_played_round"` // 0 = never played
	// RotationPriority is a manual override; higher values move the
	// participant up the queue.
	RotationPriority *int         `json:"rotation_priority,omitempty"`
	Preferences      []Preference `json:"preferences,omitempty"`
}

// HasPlayed reports whether the participant has a recorded round.
func (p Participant) HasPlayed() bool {
	return p.LastPlayedRound > 0
}

// Preference returns the participant's preference toward other, if any.
func (p Participant) Preference(other string) (PreferenceKind, bool) {
	for _, pref := range p.Preferences {
		if pref.OtherID == other {
			return pref.Kind, true
		}
	}
	return "", false
}

// Court is a playing surface. Only active courts receive teams.
type Court struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// GameAllocation is the team assigned to one court for one game.
type GameAllocation struct {
	CourtID      string        `json:"court_id"`
	CourtName    string        `json:"court_name"`
	Players      []Participant `json:"players"`
	AverageLevel float64       `json:"average_level"`
	Game         int           `json:"game"`
	Round        int           `json:"round"`
	// Balanced is true when at least one split into two sides stays within
	// the configured skill difference.
	Balanced bool    `json:"balanced"`
	Score    float64 `json:"score"`
}

// PlayerIDs returns the ids of the allocated players in seat order.
func (a GameAllocation) PlayerIDs() []string {
	ids := make([]string, len(a.Players))
	for i, p := range a.Players {
		ids[i] = p.ID
	}
	return ids
}

// ActiveCourts filters courts down to the active ones, keeping input order.
func ActiveCourts(courts []Court) []Court {
	active := make([]Court, 0, len(courts))
	for _, c := range courts {
		if c.Active {
			active = append(active, c)
		}
	}
	return active
}
