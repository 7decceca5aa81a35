package vendfall

import "time"

// Default delta-time bounds, equivalent to 1000 FPS and 15 FPS.
const (
	DefaultMinDt = 0.001
	DefaultMaxDt = 1.0 / 15.0
)

// ClampDelta returns the elapsed seconds between prev and now clamped to
// [minDt, maxDt]. A clock that runs backwards yields minDt.
func ClampDelta(prev, now time.Time, minDt, maxDt float64) float64 {
	dt := now.Sub(prev).Seconds()
	if !isFinite(dt) || dt < minDt {
		return minDt
	}
	if dt > maxDt {
		return maxDt
	}
	return dt
}

// Clock turns successive wall-clock timestamps into clamped simulation deltas.
// The zero value is not usable; create one with NewClock.
type Clock struct {
	minDt, maxDt float64
	last         time.Time
	started      bool
}

// NewClock creates a Clock clamped to [minDt, maxDt]. Invalid bounds fall
// back to the defaults.
func NewClock(minDt, maxDt float64) *Clock {
	if minDt <= 0 || maxDt <= 0 || minDt > maxDt {
		minDt, maxDt = DefaultMinDt, DefaultMaxDt
	}
	return &Clock{minDt: minDt, maxDt: maxDt}
}

// Tick records now and returns the clamped delta since the previous Tick.
// The first Tick returns the minimum delta.
func (c *Clock) Tick(now time.Time) float64 {
	if !c.started {
		c.started = true
		c.last = now
		return c.minDt
	}
	dt := ClampDelta(c.last, now, c.minDt, c.maxDt)
	c.last = now
	return dt
}

// Reset forgets the previous timestamp, e.g. after the host resumes from a
// stall.
func (c *Clock) Reset() {
	c.started = false
}

// Bounds returns the clamp range.
func (c *Clock) Bounds() (minDt, maxDt float64) {
	return c.minDt, c.maxDt
}

// FixedStep accumulates variable deltas and reports how many fixed steps of
// Step seconds should run. MaxSteps caps the catch-up work per call.
type FixedStep struct {
	Step     float64
	MaxSteps int

	accumulator float64
}

// Advance adds dt to the accumulator and returns the number of whole steps
// to simulate. Leftover time past MaxSteps is discarded.
func (f *FixedStep) Advance(dt float64) int {
	if f.Step <= 0 || !isFinite(dt) || dt <= 0 {
		return 0
	}
	f.accumulator += dt
	n := 0
	for f.accumulator >= f.Step {
		f.accumulator -= f.Step
		n++
		if f.MaxSteps > 0 && n >= f.MaxSteps {
			f.accumulator = 0
			break
		}
	}
	return n
}

// Alpha returns the fraction of a step left in the accumulator, for render
// interpolation.
func (f *FixedStep) Alpha() float64 {
	if f.Step <= 0 {
		return 0
	}
	return f.accumulator / f.Step
}
