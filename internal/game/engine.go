// internal/game/engine.go
//
// Core game engine for a single StarMatch round.
// Responsibilities:
//   - Deal a fresh round: random star target, numbers 1..9, 10 second countdown.
//   - Toggle candidate numbers and clear them once they sum to the stars.
//   - Re-deal the star target from the remaining numbers via the sampler.
//   - Count down, and derive active → won/lost from the board and the clock.
//
// Notes:
//   - Invalid moves (used numbers, finished rounds) are ignored, never errors.
//   - A selection that overshoots the stars stays selected and is reported
//     as "wrong" until the player untoggles it.
//   - Every exported method takes the round lock, so ticks and toggles are
//     applied one at a time.
package game

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/starmatch/internal/sampler"
)

// Round is the authoritative state of one puzzle round.
type Round struct {
	ID        string
	StartedAt time.Time

	mu          sync.Mutex
	src         sampler.Source
	target      int
	available   [MaxNumber + 1]bool // index by play number; slot 0 unused
	candidates  []int
	secondsLeft int
	onFinish    func(Snapshot)
	reported    bool // onFinish already delivered

	clock clock
}

// NewRound deals a round with a star target drawn uniformly from 1..9.
// A nil src falls back to sampler.Default().
func NewRound(src sampler.Source) *Round {
	if src == nil {
		src = sampler.Default()
	}
	return newRound(MinNumber+src.IntN(MaxNumber-MinNumber+1), src)
}

// NewRoundWithTarget deals a round with a fixed star target.
// Returns false if target is outside 1..9.
func NewRoundWithTarget(target int, src sampler.Source) (*Round, bool) {
	if target < MinNumber || target > MaxNumber {
		return nil, false
	}
	if src == nil {
		src = sampler.Default()
	}
	return newRound(target, src), true
}

func newRound(target int, src sampler.Source) *Round {
	r := &Round{
		ID:          uuid.NewString(),
		StartedAt:   time.Now().UTC(),
		src:         src,
		target:      target,
		candidates:  []int{},
		secondsLeft: RoundSeconds,
	}
	for n := MinNumber; n <= MaxNumber; n++ {
		r.available[n] = true
	}
	return r
}

// OnFinish registers fn to be called once, outside the round lock, when the
// round first turns won or lost.
func (r *Round) OnFinish(fn func(Snapshot)) {
	r.mu.Lock()
	r.onFinish = fn
	r.mu.Unlock()
}

// Toggle flips n in or out of the candidate selection.
//
// Ignored when the round is over or n is not available. When the selection
// sums exactly to the stars, the selected numbers are consumed and a new
// target is sampled from what remains (bound 9). If nothing remains the
// target is left as is; the round then reads as won.
//
// Returns the status after the move.
func (r *Round) Toggle(n int) Status {
	r.mu.Lock()
	if r.statusLocked() != StatusActive || !r.isAvailable(n) {
		st := r.statusLocked()
		r.mu.Unlock()
		return st
	}

	if i := indexOf(r.candidates, n); i >= 0 {
		r.candidates = append(r.candidates[:i], r.candidates[i+1:]...)
	} else {
		r.candidates = append(r.candidates, n)
	}

	if sum(r.candidates) == r.target {
		for _, c := range r.candidates {
			r.available[c] = false
		}
		r.candidates = []int{}
		if next, ok := sampler.Sample(r.availableLocked(), MaxNumber, r.src); ok {
			r.target = next
		}
	}
	return r.unlockAndReport()
}

// Tick advances the countdown by one second, floored at zero.
// Ignored once the round is won or lost.
func (r *Round) Tick() Status {
	r.mu.Lock()
	if r.statusLocked() != StatusActive {
		st := r.statusLocked()
		r.mu.Unlock()
		return st
	}
	if r.secondsLeft > 0 {
		r.secondsLeft--
	}
	return r.unlockAndReport()
}

// Status derives the round state: won once every number is used, lost once
// the clock hits zero without a win, otherwise active.
func (r *Round) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusLocked()
}

// NumberStatus reports how play number n should be drawn.
func (r *Round) NumberStatus(n int) NumberStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.numberStatusLocked(n)
}

// Target returns the current star count.
func (r *Round) Target() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

// SecondsLeft returns the remaining countdown.
func (r *Round) SecondsLeft() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.secondsLeft
}

// Snapshot copies the round for display.
func (r *Round) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Round) snapshotLocked() Snapshot {
	nums := make([]NumberView, 0, MaxNumber)
	for n := MinNumber; n <= MaxNumber; n++ {
		nums = append(nums, NumberView{Number: n, Status: r.numberStatusLocked(n)})
	}
	return Snapshot{
		ID:          r.ID,
		Target:      r.target,
		Available:   r.availableLocked(),
		Candidates:  append([]int{}, r.candidates...),
		SecondsLeft: r.secondsLeft,
		Status:      r.statusLocked(),
		Numbers:     nums,
		StartedAt:   r.StartedAt,
	}
}

// unlockAndReport releases the lock and, on the first transition into a
// terminal state, delivers the finish callback.
func (r *Round) unlockAndReport() Status {
	st := r.statusLocked()
	var fn func(Snapshot)
	var snap Snapshot
	if st.Terminal() && !r.reported {
		r.reported = true
		fn = r.onFinish
		snap = r.snapshotLocked()
	}
	r.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
	return st
}

func (r *Round) statusLocked() Status {
	if len(r.availableLocked()) == 0 {
		return StatusWon
	}
	if r.secondsLeft == 0 {
		return StatusLost
	}
	return StatusActive
}

func (r *Round) numberStatusLocked(n int) NumberStatus {
	if !r.isAvailable(n) {
		return NumberUsed
	}
	if indexOf(r.candidates, n) >= 0 {
		if sum(r.candidates) > r.target {
			return NumberWrong
		}
		return NumberCandidate
	}
	return NumberAvailable
}

// isAvailable treats numbers outside 1..9 as used.
func (r *Round) isAvailable(n int) bool {
	return n >= MinNumber && n <= MaxNumber && r.available[n]
}

func (r *Round) availableLocked() []int {
	out := make([]int, 0, MaxNumber)
	for n := MinNumber; n <= MaxNumber; n++ {
		if r.available[n] {
			out = append(out, n)
		}
	}
	return out
}

func indexOf(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

func sum(xs []int) int {
	t := 0
	for _, x := range xs {
		t += x
	}
	return t
}
