package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/starmatch/internal/sampler"
)

// scriptedSource returns idx for every draw, clamped into range.
type scriptedSource struct{ idx int }

func (s scriptedSource) IntN(n int) int {
	if s.idx >= n {
		return n - 1
	}
	return s.idx
}

func mustRound(t *testing.T, target int, src sampler.Source) *Round {
	t.Helper()
	r, ok := NewRoundWithTarget(target, src)
	require.True(t, ok)
	return r
}

// solve picks numbers from avail that sum to target, or nil.
func solve(avail []int, target int) []int {
	for mask := 1; mask < 1<<len(avail); mask++ {
		var pick []int
		s := 0
		for i, n := range avail {
			if mask&(1<<i) != 0 {
				pick = append(pick, n)
				s += n
			}
		}
		if s == target {
			return pick
		}
	}
	return nil
}

func TestNewRoundDeal(t *testing.T) {
	for i := 0; i < 50; i++ {
		r := NewRound(sampler.Seeded(uint64(i)))
		s := r.Snapshot()
		assert.GreaterOrEqual(t, s.Target, MinNumber)
		assert.LessOrEqual(t, s.Target, MaxNumber)
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, s.Available)
		assert.Empty(t, s.Candidates)
		assert.Equal(t, RoundSeconds, s.SecondsLeft)
		assert.Equal(t, StatusActive, s.Status)
		assert.NotEmpty(t, s.ID)
	}
}

func TestNewRoundWithTargetRejectsOutOfRange(t *testing.T) {
	_, ok := NewRoundWithTarget(0, nil)
	assert.False(t, ok)
	_, ok = NewRoundWithTarget(10, nil)
	assert.False(t, ok)
}

func TestToggleClearsMatchedCandidates(t *testing.T) {
	r := mustRound(t, 5, scriptedSource{idx: 0})

	assert.Equal(t, StatusActive, r.Toggle(2))
	assert.Equal(t, NumberCandidate, r.NumberStatus(2))
	r.Toggle(3)

	s := r.Snapshot()
	assert.Equal(t, []int{1, 4, 5, 6, 7, 8, 9}, s.Available)
	assert.Empty(t, s.Candidates)
	assert.Equal(t, NumberUsed, r.NumberStatus(2))
	assert.Equal(t, NumberUsed, r.NumberStatus(3))

	pool := sampler.Sums([]int{1, 4, 5, 6, 7, 8, 9}, MaxNumber)
	assert.Contains(t, pool, s.Target)
	assert.Equal(t, pool[0], s.Target, "scripted source picks the first pool entry")
}

func TestToggleNewTargetAlwaysReachable(t *testing.T) {
	src := sampler.Seeded(99)
	for i := 0; i < 100; i++ {
		r := mustRound(t, 5, src)
		r.Toggle(2)
		r.Toggle(3)
		s := r.Snapshot()
		require.GreaterOrEqual(t, s.Target, 1)
		require.LessOrEqual(t, s.Target, 9)
		require.NotNil(t, solve(s.Available, s.Target), "target %d from %v", s.Target, s.Available)
	}
}

func TestToggleTwiceRestoresSelection(t *testing.T) {
	r := mustRound(t, 9, nil)
	r.Toggle(1)
	r.Toggle(4)
	before := r.Snapshot().Candidates

	r.Toggle(2)
	r.Toggle(2)
	assert.Equal(t, before, r.Snapshot().Candidates)
	assert.Equal(t, NumberAvailable, r.NumberStatus(2))
}

func TestOverTargetSelectionStaysFlagged(t *testing.T) {
	r := mustRound(t, 3, nil)
	r.Toggle(2)
	r.Toggle(5)

	s := r.Snapshot()
	assert.Equal(t, []int{2, 5}, s.Candidates, "overshoot is not cleared automatically")
	assert.Equal(t, NumberWrong, r.NumberStatus(2))
	assert.Equal(t, NumberWrong, r.NumberStatus(5))
	assert.Equal(t, NumberAvailable, r.NumberStatus(1))

	// dropping 2 leaves {5}: still over
	r.Toggle(2)
	assert.Equal(t, NumberWrong, r.NumberStatus(5))

	// dropping 5 and picking 1+2 clears
	r.Toggle(5)
	r.Toggle(1)
	r.Toggle(2)
	s = r.Snapshot()
	assert.Empty(t, s.Candidates)
	assert.NotContains(t, s.Available, 1)
	assert.NotContains(t, s.Available, 2)
	assert.Contains(t, s.Available, 5)
}

func TestToggleIgnoresUsedAndOutOfRange(t *testing.T) {
	r := mustRound(t, 4, scriptedSource{idx: 0})
	r.Toggle(4)
	before := r.Snapshot()
	require.NotContains(t, before.Available, 4)

	r.Toggle(4)
	r.Toggle(0)
	r.Toggle(10)
	r.Toggle(-3)
	assert.Equal(t, before, r.Snapshot())
	assert.Equal(t, NumberUsed, r.NumberStatus(0))
	assert.Equal(t, NumberUsed, r.NumberStatus(12))
}

func TestTenTicksLoseTheRound(t *testing.T) {
	r := mustRound(t, 9, nil)
	for i := 0; i < RoundSeconds-1; i++ {
		assert.Equal(t, StatusActive, r.Tick())
	}
	assert.Equal(t, StatusLost, r.Tick())
	assert.Equal(t, 0, r.SecondsLeft())

	// terminal: nothing moves
	assert.Equal(t, StatusLost, r.Tick())
	assert.Equal(t, 0, r.SecondsLeft())
	before := r.Snapshot()
	r.Toggle(9)
	assert.Equal(t, before, r.Snapshot())
}

// play clears the whole board by always matching the current target.
func play(t *testing.T, r *Round) {
	t.Helper()
	for r.Status() == StatusActive {
		s := r.Snapshot()
		pick := solve(s.Available, s.Target)
		require.NotNil(t, pick, "target %d unreachable from %v", s.Target, s.Available)
		for _, n := range pick {
			r.Toggle(n)
		}
	}
}

func TestWinStopsTheCountdown(t *testing.T) {
	r := NewRound(sampler.Seeded(5))
	r.Tick()
	r.Tick()
	play(t, r)

	require.Equal(t, StatusWon, r.Status())
	assert.Empty(t, r.Snapshot().Available)
	for i := 0; i < 20; i++ {
		assert.Equal(t, StatusWon, r.Tick())
	}
	assert.Equal(t, RoundSeconds-2, r.SecondsLeft())
}

func TestOnFinishFiresOnce(t *testing.T) {
	t.Run("won", func(t *testing.T) {
		r := NewRound(sampler.Seeded(11))
		var got []Snapshot
		r.OnFinish(func(s Snapshot) { got = append(got, s) })
		play(t, r)
		r.Tick()
		r.Toggle(1)
		require.Len(t, got, 1)
		assert.Equal(t, StatusWon, got[0].Status)
		assert.Equal(t, 9, got[0].Matched())
	})
	t.Run("lost", func(t *testing.T) {
		r := mustRound(t, 9, nil)
		calls := 0
		r.OnFinish(func(s Snapshot) {
			calls++
			assert.Equal(t, StatusLost, s.Status)
			assert.Equal(t, 0, s.Matched())
		})
		for i := 0; i < RoundSeconds+5; i++ {
			r.Tick()
		}
		assert.Equal(t, 1, calls)
	})
}

func TestSnapshotNumbers(t *testing.T) {
	r := mustRound(t, 6, nil)
	r.Toggle(4)
	s := r.Snapshot()
	require.Len(t, s.Numbers, 9)
	for i, nv := range s.Numbers {
		assert.Equal(t, i+1, nv.Number)
	}
	assert.Equal(t, NumberCandidate, s.Numbers[3].Status)
	assert.Equal(t, NumberAvailable, s.Numbers[0].Status)

	// snapshot is a copy
	s.Candidates[0] = 7
	assert.Equal(t, []int{4}, r.Snapshot().Candidates)
}
