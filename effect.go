package vendfall

import (
	"fmt"

	"github.com/tanema/gween/ease"
)

// ExitEffect is the effect a scene plays between its trigger firing and the
// handoff to the next scene. Durations are measured in ticks.
type ExitEffect interface {
	// Start rewinds the effect to its first tick.
	Start()
	// Tick advances the effect by one tick.
	Tick()
	// Duration is the total number of ticks the effect plays.
	Duration() int
	// Intensity is the overlay strength in [0, 1] for the current tick.
	Intensity() float64
}

// FlashEffect is a full-screen flash: intensity ramps up over Up ticks, holds
// at 1 for Hold ticks, then ramps down over Down ticks. Ramps use
// ease-in-out-quad.
type FlashEffect struct {
	Up, Hold, Down int

	tick      int
	intensity float64
	rampUp    *TweenGroup
	rampDown  *TweenGroup
}

// NewFlashEffect validates the phase lengths and returns a flash.
func NewFlashEffect(up, hold, down int) (*FlashEffect, error) {
	if up < 0 || hold < 0 || down < 0 {
		return nil, fmt.Errorf("%w: flash phases %d/%d/%d", ErrInvalidConfig, up, hold, down)
	}
	f := &FlashEffect{Up: up, Hold: hold, Down: down}
	if up > 0 {
		f.rampUp = TweenValue(&f.intensity, 0, 1, float32(up), ease.InOutQuad)
	}
	if down > 0 {
		f.rampDown = TweenValue(&f.intensity, 1, 0, float32(down), ease.InOutQuad)
	}
	f.Start()
	return f, nil
}

// Start implements ExitEffect.
func (f *FlashEffect) Start() {
	f.tick = 0
	f.rampDown.Reset()
	f.intensity = 1
	f.rampUp.Reset()
}

// Tick implements ExitEffect.
func (f *FlashEffect) Tick() {
	f.tick++
	switch {
	case f.tick <= f.Up:
		f.rampUp.Update(1)
	case f.tick <= f.Up+f.Hold:
		f.intensity = 1
	case f.tick <= f.Duration():
		f.rampDown.Update(1)
	default:
		f.intensity = 0
	}
}

// Duration implements ExitEffect.
func (f *FlashEffect) Duration() int { return f.Up + f.Hold + f.Down }

// Intensity implements ExitEffect.
func (f *FlashEffect) Intensity() float64 { return clamp(f.intensity, 0, 1) }

// DelayEffect waits a fixed number of ticks with no overlay.
type DelayEffect struct {
	Ticks int
}

// NewDelayEffect validates ticks and returns a delay.
func NewDelayEffect(ticks int) (*DelayEffect, error) {
	if ticks < 0 {
		return nil, fmt.Errorf("%w: delay %d", ErrInvalidConfig, ticks)
	}
	return &DelayEffect{Ticks: ticks}, nil
}

// Start implements ExitEffect.
func (d *DelayEffect) Start() {}

// Tick implements ExitEffect.
func (d *DelayEffect) Tick() {}

// Duration implements ExitEffect.
func (d *DelayEffect) Duration() int { return d.Ticks }

// Intensity implements ExitEffect.
func (d *DelayEffect) Intensity() float64 { return 0 }
