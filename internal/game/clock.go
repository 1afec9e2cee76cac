package game

import (
	"sync"
	"time"
)

// clock is the countdown handle owned by a Round. At most one ticker
// goroutine runs per round; Stop waits for it to exit.
type clock struct {
	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	stopped bool
}

// StartClock arms the countdown: Tick is called every interval until the
// round is won or lost, or Stop is called. Later calls are no-ops, as is a
// call on a round that already finished or was stopped.
func (r *Round) StartClock(interval time.Duration) {
	c := &r.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || c.stop != nil || r.Status().Terminal() {
		return
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go r.runClock(interval, c.stop, c.done)
}

func (r *Round) runClock(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			// a Stop racing with this tick wins
			select {
			case <-stop:
				return
			default:
			}
			if r.Tick().Terminal() {
				return
			}
		}
	}
}

// Stop cancels the countdown and returns once its goroutine has exited, so
// no tick lands on the round afterwards. Safe to call more than once, and
// on a round whose clock never started.
//
// Must not be called from an OnFinish callback.
func (r *Round) Stop() {
	c := &r.clock
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	stop, done := c.stop, c.done
	c.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Ticking reports whether the countdown goroutine is still running.
func (r *Round) Ticking() bool {
	c := &r.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}
