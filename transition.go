package vendfall

import "fmt"

// TransitionState is the lifecycle phase of a scene instance.
type TransitionState uint8

const (
	// Running is normal simulation with the trigger evaluated every tick.
	Running TransitionState = iota
	// TriggerArmed is the tick on which the trigger fired and the exit
	// effect started.
	TriggerArmed
	// TransitioningOut is the exit effect playing; simulation continues.
	TransitioningOut
	// HandoffComplete is terminal: the effect has finished and the surface
	// passes to the next scene.
	HandoffComplete
)

func (s TransitionState) String() string {
	switch s {
	case Running:
		return "running"
	case TriggerArmed:
		return "trigger-armed"
	case TransitioningOut:
		return "transitioning-out"
	case HandoffComplete:
		return "handoff-complete"
	default:
		return fmt.Sprintf("TransitionState(%d)", uint8(s))
	}
}

// Transition drives one scene instance through its lifecycle. If the trigger
// fires on tick T, the state reaches HandoffComplete on tick T+Duration of the
// exit effect; a zero-duration effect completes on tick T itself.
type Transition struct {
	effect  ExitEffect
	state   TransitionState
	tick    int
	armedAt int
	elapsed int
}

// NewTransition creates a Transition in the Running state. A nil effect is
// treated as an immediate handoff.
func NewTransition(effect ExitEffect) *Transition {
	if effect == nil {
		effect = &DelayEffect{}
	}
	return &Transition{effect: effect, armedAt: -1}
}

// Advance moves the machine forward one tick. triggered is the scene's
// trigger predicate for this tick and is ignored outside Running. It returns
// the new state.
func (t *Transition) Advance(triggered bool) TransitionState {
	t.tick++
	switch t.state {
	case Running:
		if !triggered {
			return t.state
		}
		t.state = TriggerArmed
		t.armedAt = t.tick
		t.elapsed = 0
		t.effect.Start()
		if t.effect.Duration() <= 0 {
			t.state = HandoffComplete
		}
	case TriggerArmed, TransitioningOut:
		t.effect.Tick()
		t.elapsed++
		if t.elapsed >= t.effect.Duration() {
			t.state = HandoffComplete
		} else {
			t.state = TransitioningOut
		}
	}
	return t.state
}

// State returns the current state.
func (t *Transition) State() TransitionState { return t.state }

// Tick returns how many times Advance has been called.
func (t *Transition) Tick() int { return t.tick }

// ArmedAt returns the tick the trigger fired on, or -1 if it has not.
func (t *Transition) ArmedAt() int { return t.armedAt }

// Progress returns how much of the exit effect has played, in [0, 1].
func (t *Transition) Progress() float64 {
	switch t.state {
	case Running:
		return 0
	case HandoffComplete:
		return 1
	}
	d := t.effect.Duration()
	if d <= 0 {
		return 1
	}
	return clamp(float64(t.elapsed)/float64(d), 0, 1)
}

// Intensity returns the exit effect overlay strength, zero while Running.
func (t *Transition) Intensity() float64 {
	if t.state == Running {
		return 0
	}
	return t.effect.Intensity()
}

// Effect returns the exit effect.
func (t *Transition) Effect() ExitEffect { return t.effect }
