// Package vendfall is a small scene-sequenced 2D animation engine telling the
// story of a vending machine: a car crashes into it, it falls through the sky,
// lands in a side view, and finally settles as an interactive dispenser.
//
// The engine is backend-agnostic. Scenes simulate and write a [Frame]; a
// [Surface] draws it. The ebitenview and termview packages provide windowed
// and terminal surfaces.
//
// # Quick start
//
// Build the default scene chain and drive it from any loop:
//
//	cfg, _ := vendfall.DefaultConfig()
//	chain, _ := vendfall.NewSceneChain(cfg, vendfall.SceneOptions{})
//	first, _ := chain.First()
//	dir, _ := vendfall.NewDirector(first, surface, vendfall.DirectorOptions{Handoff: chain})
//
//	clock := vendfall.NewClock(cfg.Clock.MinDt, cfg.Clock.MaxDt)
//	for {
//		if err := dir.Tick(clock.Tick(time.Now())); err != nil {
//			return err
//		}
//		dir.Render()
//	}
//
// # Scenes and transitions
//
// Exactly one [Scene] is active at a time. Each tick the [Director] delivers
// queued input, updates the scene, evaluates its exit trigger and advances
// its [Transition]. When the scene's [ExitEffect] finishes, the Director
// hands the drawing surface to the next scene exactly once and stops the old
// one. Handoff is one-way; scenes never reference each other.
//
// A zero-duration effect hands off on the trigger tick. An effect of D ticks
// armed on tick T hands off on tick T+D.
//
// # Physics
//
// [Kernel] integrates [Particle] and [Body] values with a variable timestep.
// Particle velocities are in pixels per reference frame (60 by default) so
// per-frame tuning ports directly; body velocities are in pixels per second.
// Collisions are approximate: floor reflection with restitution, wall
// clamping, friction on ground contact and symmetric overlapping-pair
// velocity averaging. Energy is not conserved.
//
// # Configuration
//
// Every tuning constant lives in an embedded YAML document. [LoadConfig]
// overlays a user document on top of it and validates the result; invalid
// values fail with [ErrInvalidConfig] before any scene runs.
//
// # Faults
//
// Non-finite entity state is reset to the last valid state and logged.
// Render errors drop a frame. A missing surface at handoff or render is fatal:
// the Director halts and every later Tick returns [ErrHalted].
package vendfall
