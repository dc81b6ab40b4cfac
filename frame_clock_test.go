package fidmag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestFrameClock_Tick(t *testing.T) {
	fc := &fakeClock{t: time.Unix(100, 0)}
	clock := newFrameClockAt(fc.now)

	fc.advance(16 * time.Millisecond)
	assert.Equal(t, 16*time.Millisecond, clock.Tick())

	fc.advance(40 * time.Millisecond)
	clock.Tick()
	assert.Equal(t, 40*time.Millisecond, clock.Dt)
	assert.Equal(t, fc.t, clock.Time)
}

func TestFrameClock_Step(t *testing.T) {
	fc := &fakeClock{t: time.Unix(0, 0)}
	clock := newFrameClockAt(fc.now)

	fc.advance(20 * time.Millisecond)
	clock.Tick()

	tests := []struct {
		name  string
		fixed float32
		max   float32
		want  float32
	}{
		{"measured", 0, 0.05, 0.02},
		{"fixed wins", 0.001, 0.05, 0.001},
		{"clamped", 0, 0.01, 0.01},
		{"no clamp", 0, 0, 0.02},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, clock.Step(tt.fixed, tt.max), 1e-6)
		})
	}
}

func TestLimiter_Wait(t *testing.T) {
	fc := &fakeClock{t: time.Unix(0, 0)}
	var slept []time.Duration
	l := &Limiter{
		budget: 10 * time.Millisecond,
		now:    fc.now,
		sleep: func(d time.Duration) {
			slept = append(slept, d)
			fc.advance(d)
		},
	}
	l.last = fc.now()

	fc.advance(4 * time.Millisecond)
	l.Wait()
	fc.advance(12 * time.Millisecond)
	l.Wait()

	assert.Equal(t, []time.Duration{6 * time.Millisecond}, slept)
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(0)
	l.sleep = func(time.Duration) { t.Fatal("disabled limiter slept") }
	l.Wait()
}
