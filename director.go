package vendfall

import (
	"fmt"
	"log/slog"
	"time"
)

// Handoff creates and starts the scene that follows the current one. The
// Director calls CreateNextScene, AttachToSurface and Start exactly once
// each, in that order, per transition.
//
//go:generate go tool mockgen -destination=mocks/handoff_mock.go -package=mocks . Handoff
type Handoff interface {
	CreateNextScene(current Scene) (Scene, error)
	AttachToSurface(next Scene, s Surface) error
	Start(next Scene) error
}

// SceneChain is the default Handoff. It builds scenes in the order of
// Config.Sequence.
type SceneChain struct {
	cfg  *Config
	opts SceneOptions
	pos  int
}

// NewSceneChain returns a chain over cfg.Sequence.
func NewSceneChain(cfg *Config, opts SceneOptions) (*SceneChain, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SceneChain{cfg: cfg, opts: opts.withDefaults()}, nil
}

// First builds the first scene of the sequence.
func (c *SceneChain) First() (Scene, error) {
	c.pos = 0
	return NewScene(c.cfg.Sequence[0], c.cfg, c.opts)
}

// CreateNextScene implements Handoff.
func (c *SceneChain) CreateNextScene(current Scene) (Scene, error) {
	if current == nil {
		return nil, fmt.Errorf("%w: no current scene", ErrNoNextScene)
	}
	seq := c.cfg.Sequence
	if c.pos >= len(seq) || seq[c.pos] != current.Kind() {
		// The chain did not build current; resume after its first occurrence.
		c.pos = -1
		for i, k := range seq {
			if k == current.Kind() {
				c.pos = i
				break
			}
		}
		if c.pos < 0 {
			return nil, fmt.Errorf("%w: %v is not in the sequence", ErrNoNextScene, current.Kind())
		}
	}
	if c.pos+1 >= len(seq) {
		return nil, fmt.Errorf("%w: %v is last", ErrNoNextScene, current.Kind())
	}
	next, err := NewScene(seq[c.pos+1], c.cfg, c.opts)
	if err != nil {
		return nil, err
	}
	c.pos++
	return next, nil
}

// AttachToSurface implements Handoff.
func (c *SceneChain) AttachToSurface(next Scene, s Surface) error {
	return next.AttachToSurface(s)
}

// Start implements Handoff.
func (c *SceneChain) Start(next Scene) error {
	next.Start()
	return nil
}

// DirectorOptions configures a Director.
type DirectorOptions struct {
	Logger  *slog.Logger
	Handoff Handoff
	Debug   bool
}

// Director owns the active scene and its transition machine, and performs the
// one-way surface handoff between scenes. It is single-threaded: Tick and
// Render must be called from the same goroutine.
type Director struct {
	logger  *slog.Logger
	handoff Handoff

	scene      Scene
	transition *Transition
	frame      Frame

	tick        int
	pending     int
	handoffs    int
	handedOff   bool
	skipped     int
	renderFails int

	halted bool
	err    error

	debug bool
	stats debugStats
}

// NewDirector attaches first to surface (unless it already has one), starts
// it and returns a Director driving it.
func NewDirector(first Scene, surface Surface, opts DirectorOptions) (*Director, error) {
	if first == nil {
		return nil, fmt.Errorf("%w: nil first scene", ErrInvalidConfig)
	}
	if opts.Handoff == nil {
		return nil, fmt.Errorf("%w: nil handoff", ErrInvalidConfig)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if first.Surface() == nil {
		if err := first.AttachToSurface(surface); err != nil {
			return nil, fmt.Errorf("attach %v: %w", first.Kind(), err)
		}
	}
	first.Start()
	d := &Director{
		logger:     logger.With("component", "vendfall"),
		handoff:    opts.Handoff,
		scene:      first,
		transition: NewTransition(first.ExitEffect()),
		debug:      opts.Debug,
	}
	d.logger.Info("director started", "scene", first.Kind().String(), "scene_id", first.ID().String())
	return d, nil
}

// Dispense queues a manual dispense for the next Tick. Scenes that do not
// dispense ignore it.
func (d *Director) Dispense() {
	d.pending++
}

// Tick runs one simulation tick: input delivery, scene update, trigger
// evaluation, transition advance and, when the exit effect has finished,
// the handoff. After a fatal fault every Tick returns ErrHalted.
func (d *Director) Tick(dt float64) error {
	if d.halted {
		return fmt.Errorf("%w: %w", ErrHalted, d.err)
	}
	d.tick++
	var t0 time.Time
	if d.debug {
		t0 = time.Now()
	}

	if disp, ok := d.scene.(Dispenser); ok {
		for ; d.pending > 0; d.pending-- {
			disp.Dispense()
		}
	}
	d.pending = 0

	d.scene.Update(dt)

	triggered := false
	if d.transition.State() == Running {
		triggered = d.scene.EvaluateTrigger()
	}
	prev := d.transition.State()
	state := d.transition.Advance(triggered)
	if state != prev {
		d.logger.Debug("transition", "scene", d.scene.Kind().String(), "from", prev.String(), "to", state.String(), "tick", d.tick)
	}

	if state == HandoffComplete {
		if err := d.performHandoff(); err != nil {
			d.halt(err)
			return fmt.Errorf("%w: %w", ErrHalted, err)
		}
	}

	if d.debug {
		d.stats.updateTime = time.Since(t0)
	}
	return nil
}

func (d *Director) performHandoff() error {
	old := d.scene
	surface := old.Surface()
	if surface == nil {
		return fmt.Errorf("%v handoff: %w", old.Kind(), ErrNoSurface)
	}
	next, err := d.handoff.CreateNextScene(old)
	if err != nil {
		return fmt.Errorf("%v handoff: create: %w", old.Kind(), err)
	}
	if next == nil {
		return fmt.Errorf("%v handoff: %w", old.Kind(), ErrNoNextScene)
	}
	if err := d.handoff.AttachToSurface(next, surface); err != nil {
		return fmt.Errorf("%v handoff: attach: %w", old.Kind(), err)
	}
	if err := d.handoff.Start(next); err != nil {
		return fmt.Errorf("%v handoff: start: %w", old.Kind(), err)
	}
	old.Stop()

	d.scene = next
	d.transition = NewTransition(next.ExitEffect())
	d.handoffs++
	d.handedOff = true
	d.logger.Info("handoff",
		"from", old.Kind().String(), "from_id", old.ID().String(),
		"to", next.Kind().String(), "to_id", next.ID().String(),
		"tick", d.tick)
	return nil
}

func (d *Director) halt(err error) {
	d.halted = true
	d.err = err
	d.logger.Error("director halted", "scene", d.scene.Kind().String(), "scene_id", d.scene.ID().String(), "err", err)
}

// Render snapshots the active scene and hands the frame to its surface. A
// surface with zero area skips the frame. Render errors are logged and the
// frame dropped; a missing surface halts the Director.
func (d *Director) Render() error {
	if d.halted {
		return fmt.Errorf("%w: %w", ErrHalted, d.err)
	}
	surface := d.scene.Surface()
	if surface == nil {
		err := fmt.Errorf("%v render: %w", d.scene.Kind(), ErrNoSurface)
		d.halt(err)
		return fmt.Errorf("%w: %w", ErrHalted, err)
	}
	if w, h := surface.Size(); w <= 0 || h <= 0 {
		d.skipped++
		return nil
	}

	var t0 time.Time
	if d.debug {
		t0 = time.Now()
	}
	f := &d.frame
	f.Reset()
	d.scene.Snapshot(f)
	f.Tick = d.tick
	f.Transition = TransitionView{
		State:    d.transition.State(),
		Progress: d.transition.Progress(),
		Flash:    d.transition.Intensity(),
	}
	if d.handedOff {
		f.Events = append(f.Events, Event{Kind: EventHandoff, Name: d.scene.Kind().String()})
		d.handedOff = false
	}

	if err := surface.Render(f); err != nil {
		d.renderFails++
		d.logger.Warn("render failed", "scene", d.scene.Kind().String(), "tick", d.tick, "err", err)
	}

	if d.debug {
		d.stats.renderTime = time.Since(t0)
		d.stats.particles = len(f.Particles)
		d.stats.bodies = len(f.Bodies)
		d.stats.clouds = len(f.Clouds)
		d.debugLog()
	}
	return nil
}

// Scene returns the active scene.
func (d *Director) Scene() Scene { return d.scene }

// State returns the active scene's transition state.
func (d *Director) State() TransitionState { return d.transition.State() }

// Transition returns the active scene's transition machine.
func (d *Director) Transition() *Transition { return d.transition }

// Frame returns the most recently rendered frame.
func (d *Director) Frame() *Frame { return &d.frame }

// Ticks returns the number of ticks run.
func (d *Director) Ticks() int { return d.tick }

// Handoffs returns the number of completed handoffs.
func (d *Director) Handoffs() int { return d.handoffs }

// Skipped returns how many frames were skipped for a zero-area surface.
func (d *Director) Skipped() int { return d.skipped }

// RenderFailures returns how many surface renders returned an error.
func (d *Director) RenderFailures() int { return d.renderFails }

// Halted reports whether a fatal fault stopped the Director.
func (d *Director) Halted() bool { return d.halted }

// Err returns the fatal fault, or nil.
func (d *Director) Err() error { return d.err }

// SetDebugMode enables or disables per-tick timing and entity counts at
// Debug level.
func (d *Director) SetDebugMode(enabled bool) {
	d.debug = enabled
}
