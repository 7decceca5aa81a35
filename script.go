package vendfall

import (
	"encoding/json"
	"errors"
	"fmt"
)

// scriptStep is a single action in a playback script.
type scriptStep struct {
	Action string    `json:"action"`
	Label  string    `json:"label,omitempty"`
	Frames int       `json:"frames,omitempty"`
	Count  int       `json:"count,omitempty"`
	Scene  SceneKind `json:"scene,omitempty"`
}

// script is the top-level JSON structure for a playback script.
type script struct {
	Steps []scriptStep `json:"steps"`
}

// ErrScriptTimeout is returned when an "until" step runs out of frames.
var ErrScriptTimeout = errors.New("vendfall: script step timed out")

// ScriptRunner sequences dispense inputs, waits and screenshots across ticks
// for headless playback and automated visual checks.
//
// Supported actions:
//
//	{"action": "wait", "frames": 30}
//	{"action": "dispense", "count": 3}
//	{"action": "until", "scene": "dispenser", "frames": 900}
//	{"action": "screenshot", "label": "landed"}
type ScriptRunner struct {
	// OnScreenshot is called for every screenshot step. Backends that cannot
	// capture leave it nil.
	OnScreenshot func(label string)

	steps     []scriptStep
	cursor    int
	waitCount int
	until     *scriptStep
	done      bool
}

// LoadScript parses a JSON playback script.
func LoadScript(data []byte) (*ScriptRunner, error) {
	var sc script
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range sc.Steps {
		switch st.Action {
		case "wait", "dispense", "until", "screenshot":
		default:
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: sc.Steps}, nil
}

// Done reports whether all steps have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Step advances the runner by one tick. Call it before Director.Tick.
func (r *ScriptRunner) Step(d *Director) error {
	if r.done {
		return nil
	}
	if r.until != nil {
		if d.Scene().Kind() != r.until.Scene {
			if r.until.Frames > 0 {
				r.waitCount--
				if r.waitCount < 0 {
					return fmt.Errorf("%w: until %v", ErrScriptTimeout, r.until.Scene)
				}
			}
			return nil
		}
		r.until = nil
		r.waitCount = 0
	}
	if r.waitCount > 0 {
		r.waitCount--
		return nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return nil
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		if r.OnScreenshot != nil {
			r.OnScreenshot(st.Label)
		}
	case "dispense":
		n := max(st.Count, 1)
		for range n {
			d.Dispense()
		}
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this tick counts as one
		}
	case "until":
		r.until = &st
		r.waitCount = st.Frames
		return r.Step(d)
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && r.until == nil {
		r.done = true
	}
	return nil
}

// RunScript drives d headlessly with a fixed dt until r finishes, d halts or
// maxTicks is reached.
func RunScript(d *Director, r *ScriptRunner, dt float64, maxTicks int) error {
	for i := 0; i < maxTicks && !r.Done(); i++ {
		if err := r.Step(d); err != nil {
			return err
		}
		if err := d.Tick(dt); err != nil {
			return err
		}
		if err := d.Render(); err != nil {
			return err
		}
	}
	if !r.Done() {
		return fmt.Errorf("%w: %d ticks", ErrScriptTimeout, maxTicks)
	}
	return nil
}
