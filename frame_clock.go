package fidmag

import (
	"time"
)

// FrameClock measures wall time between frames.
type FrameClock struct {
	Time time.Time
	Dt   time.Duration

	now func() time.Time
}

func NewFrameClock() *FrameClock {
	return newFrameClockAt(time.Now)
}

func newFrameClockAt(now func() time.Time) *FrameClock {
	return &FrameClock{Time: now(), now: now}
}

// Tick advances the clock and returns the elapsed time since the previous tick.
func (c *FrameClock) Tick() time.Duration {
	now := c.now()
	c.Dt = now.Sub(c.Time)
	c.Time = now
	return c.Dt
}

// Step returns the simulation step in seconds. A positive fixed step wins;
// otherwise the measured Dt is used, clamped to maxDt.
func (c *FrameClock) Step(fixed, maxDt float32) float32 {
	if fixed > 0 {
		return fixed
	}
	dt := float32(c.Dt.Seconds())
	if dt < 0 {
		return 0
	}
	if maxDt > 0 && dt > maxDt {
		return maxDt
	}
	return dt
}

// Limiter sleeps out the rest of a frame budget.
type Limiter struct {
	budget time.Duration
	last   time.Time
	sleep  func(time.Duration)
	now    func() time.Time
}

// NewLimiter returns a limiter for fps frames per second. fps <= 0 disables it.
func NewLimiter(fps int) *Limiter {
	l := &Limiter{sleep: time.Sleep, now: time.Now}
	if fps > 0 {
		l.budget = time.Second / time.Duration(fps)
	}
	l.last = l.now()
	return l
}

// Wait blocks until one frame budget has passed since the previous Wait.
func (l *Limiter) Wait() {
	if l.budget == 0 {
		return
	}
	if elapsed := l.now().Sub(l.last); elapsed < l.budget {
		l.sleep(l.budget - elapsed)
	}
	l.last = l.now()
}
