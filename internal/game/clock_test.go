package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestClockRunsRoundToLoss(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := mustRound(t, 9, nil)
	done := make(chan Snapshot, 1)
	r.OnFinish(func(s Snapshot) { done <- s })
	r.StartClock(time.Millisecond)

	select {
	case s := <-done:
		assert.Equal(t, StatusLost, s.Status)
		assert.Equal(t, 0, s.SecondsLeft)
	case <-time.After(5 * time.Second):
		t.Fatal("round never timed out")
	}
	require.Eventually(t, func() bool { return !r.Ticking() }, time.Second, time.Millisecond)
	r.Stop()
}

func TestStopHaltsTicksDeterministically(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := mustRound(t, 9, nil)
	r.StartClock(time.Millisecond)
	require.Eventually(t, func() bool { return r.SecondsLeft() < RoundSeconds }, time.Second, time.Millisecond)

	r.Stop()
	assert.False(t, r.Ticking())
	frozen := r.SecondsLeft()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, frozen, r.SecondsLeft(), "no tick after Stop returns")
}

func TestStartClockIsSingleShot(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := mustRound(t, 9, nil)
	r.StartClock(time.Hour)
	r.StartClock(time.Hour)
	assert.True(t, r.Ticking())
	r.Stop()
	r.Stop()

	// a stopped round never restarts
	r.StartClock(time.Millisecond)
	assert.False(t, r.Ticking())
}

func TestStopWithoutStart(t *testing.T) {
	r := mustRound(t, 9, nil)
	r.Stop()
	assert.False(t, r.Ticking())
}

func TestClockDoesNotStartOnFinishedRound(t *testing.T) {
	r := mustRound(t, 9, nil)
	for i := 0; i < RoundSeconds; i++ {
		r.Tick()
	}
	r.StartClock(time.Millisecond)
	assert.False(t, r.Ticking())
}
