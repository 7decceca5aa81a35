package vendfall

import "errors"

var (
	// ErrInvalidConfig is wrapped by every configuration validation failure.
	ErrInvalidConfig = errors.New("vendfall: invalid config")

	// ErrNonFinite reports an entity whose numeric state contains NaN or Inf.
	ErrNonFinite = errors.New("vendfall: non-finite entity state")

	// ErrNoSurface reports a handoff or attach without a drawing surface.
	ErrNoSurface = errors.New("vendfall: surface unavailable")

	// ErrAlreadyAttached reports a second AttachToSurface on the same scene.
	ErrAlreadyAttached = errors.New("vendfall: scene already attached to a surface")

	// ErrNoNextScene reports that the sequence has no successor for a scene.
	ErrNoNextScene = errors.New("vendfall: no next scene")

	// ErrHalted is returned by Director.Tick after a fatal fault.
	ErrHalted = errors.New("vendfall: director halted")
)
