// internal/game/types.go
//
// Core type definitions for the StarMatch puzzle engine.
// Defines:
//   - Status: derived state of a round (active/won/lost).
//   - NumberStatus: how a single play number should be drawn.
//   - Snapshot: read-only copy of a round handed to the rendering surface.

package game

import "time"

const (
	MinNumber    = 1  // smallest play number
	MaxNumber    = 9  // largest play number, also the star bound
	RoundSeconds = 10 // countdown length of a fresh round
)

// Status is never stored on a Round; it is recomputed from the available
// numbers and the countdown on every read.
type Status string

const (
	StatusActive Status = "active"
	StatusWon    Status = "won"
	StatusLost   Status = "lost"
)

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool { return s == StatusWon || s == StatusLost }

// NumberStatus is the display state of one play number.
//   - "used":      matched in an earlier clear, no longer playable.
//   - "candidate": selected, and the selection does not exceed the stars.
//   - "wrong":     selected, and the selection sums past the stars.
//   - "available": playable and not selected.
type NumberStatus string

const (
	NumberUsed      NumberStatus = "used"
	NumberCandidate NumberStatus = "candidate"
	NumberWrong     NumberStatus = "wrong"
	NumberAvailable NumberStatus = "available"
)

// NumberView pairs a play number with its display state.
type NumberView struct {
	Number int          `json:"number"`
	Status NumberStatus `json:"status"`
}

// Snapshot is an immutable view of a round at one instant.
type Snapshot struct {
	ID          string       `json:"id"`
	Target      int          `json:"target"`      // stars to match
	Available   []int        `json:"available"`   // ascending
	Candidates  []int        `json:"candidates"`  // in toggle order
	SecondsLeft int          `json:"secondsLeft"`
	Status      Status       `json:"status"`
	Numbers     []NumberView `json:"numbers"`     // 1..9
	StartedAt   time.Time    `json:"startedAt"`
}

// Matched is how many play numbers have been cleared.
func (s Snapshot) Matched() int { return MaxNumber - MinNumber + 1 - len(s.Available) }
