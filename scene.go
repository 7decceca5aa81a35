package vendfall

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"
)

// SceneKind names a scene type in the sequence.
type SceneKind uint8

const (
	SceneCrash SceneKind = iota
	SceneSkyfall
	SceneSideview
	SceneDispenser
	sceneKindCount
)

var sceneKindNames = [...]string{"crash", "skyfall", "sideview", "dispenser"}

func (k SceneKind) String() string {
	if k.valid() {
		return sceneKindNames[k]
	}
	return fmt.Sprintf("SceneKind(%d)", uint8(k))
}

func (k SceneKind) valid() bool { return k < sceneKindCount }

// MarshalText implements encoding.TextMarshaler.
func (k SceneKind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("%w: scene kind %d", ErrInvalidConfig, uint8(k))
	}
	return []byte(sceneKindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SceneKind) UnmarshalText(b []byte) error {
	for i, name := range sceneKindNames {
		if name == string(b) {
			*k = SceneKind(i)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown scene kind %q", ErrInvalidConfig, b)
}

// Scene is one animated scene. A Director drives exactly one scene at a time;
// scenes never reference each other.
type Scene interface {
	ID() uuid.UUID
	Kind() SceneKind
	// Update advances the simulation by dt seconds. It is a no-op before
	// Start and after Stop.
	Update(dt float64)
	// EvaluateTrigger reports whether the scene's exit condition holds.
	EvaluateTrigger() bool
	// ExitEffect is the effect played between trigger and handoff.
	ExitEffect() ExitEffect
	// AttachToSurface gives the scene its drawing surface. It fails with
	// ErrNoSurface for a nil surface and ErrAlreadyAttached on a second call.
	AttachToSurface(s Surface) error
	// Surface returns the attached surface, or nil.
	Surface() Surface
	Start()
	Stop()
	// Snapshot writes the scene's render state into f.
	Snapshot(f *Frame)
}

// Dispenser is implemented by scenes that accept a manual dispense input.
type Dispenser interface {
	// Dispense drops one item and reports whether the scene accepted it.
	Dispense() bool
}

// SceneOptions carries the ambient collaborators every scene takes.
type SceneOptions struct {
	Logger *slog.Logger
	// Rand drives spawn randomness. Tests pass a seeded generator.
	Rand *rand.Rand
}

func (o SceneOptions) withDefaults() SceneOptions {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return o
}

// NewScene builds a scene of the given kind from cfg.
func NewScene(kind SceneKind, cfg *Config, opts SceneOptions) (Scene, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	switch kind {
	case SceneCrash:
		return NewCrashScene(cfg.Canvas, cfg.Crash, opts)
	case SceneSkyfall:
		return NewSkyfallScene(cfg.Canvas, cfg.Skyfall, opts)
	case SceneSideview:
		return NewSideviewScene(cfg.Canvas, cfg.Sideview, opts)
	case SceneDispenser:
		return NewDispenserScene(cfg.Canvas, cfg.Dispenser, opts)
	default:
		return nil, fmt.Errorf("%w: scene kind %v", ErrInvalidConfig, kind)
	}
}

// sceneBase holds the bookkeeping shared by every scene: identity, surface
// ownership, lifecycle flags and the per-tick event list.
type sceneBase struct {
	id     uuid.UUID
	kind   SceneKind
	logger *slog.Logger
	rng    *rand.Rand

	width, height float64
	ref           float64

	surface Surface
	started bool
	stopped bool

	ticks  int
	time   float64
	events []Event
	pools  []trackedPool
}

type trackedPool struct {
	name  string
	stats func() PoolStats
}

func newSceneBase(kind SceneKind, canvas CanvasConfig, opts SceneOptions) (sceneBase, error) {
	if canvas.Width <= 0 || canvas.Height <= 0 || canvas.ReferenceRate <= 0 {
		return sceneBase{}, fmt.Errorf("%w: canvas %vx%v @%v", ErrInvalidConfig, canvas.Width, canvas.Height, canvas.ReferenceRate)
	}
	opts = opts.withDefaults()
	id := uuid.New()
	return sceneBase{
		id:     id,
		kind:   kind,
		logger: opts.Logger.With("scene", kind.String(), "scene_id", id.String()),
		rng:    opts.Rand,
		width:  canvas.Width,
		height: canvas.Height,
		ref:    canvas.ReferenceRate,
		events: make([]Event, 0, 8),
	}, nil
}

func (s *sceneBase) ID() uuid.UUID   { return s.id }
func (s *sceneBase) Kind() SceneKind { return s.kind }
func (s *sceneBase) Surface() Surface {
	return s.surface
}

func (s *sceneBase) AttachToSurface(surface Surface) error {
	if surface == nil {
		return ErrNoSurface
	}
	if s.surface != nil {
		return ErrAlreadyAttached
	}
	s.surface = surface
	return nil
}

func (s *sceneBase) Start() {
	if s.started {
		return
	}
	s.started = true
	s.logger.Debug("scene started")
}

// Stop ends ticking and releases the surface. A stopped scene cannot restart.
func (s *sceneBase) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.surface = nil
	s.logger.Debug("scene stopped", "ticks", s.ticks)
}

// Started reports whether Start has been called.
func (s *sceneBase) Started() bool { return s.started }

// Stopped reports whether Stop has been called.
func (s *sceneBase) Stopped() bool { return s.stopped }

// Ticks returns how many updates the scene has run.
func (s *sceneBase) Ticks() int { return s.ticks }

// begin starts a tick. It reports false when the scene should not simulate.
func (s *sceneBase) begin(dt float64) bool {
	if !s.started || s.stopped || !validDt(dt) {
		return false
	}
	s.ticks++
	s.time += dt
	s.events = s.events[:0]
	return true
}

func (s *sceneBase) emit(kind EventKind, pos Vec2, name string) {
	s.events = append(s.events, Event{Kind: kind, Pos: pos, Name: name})
}

// frames converts dt into reference frames.
func (s *sceneBase) frames(dt float64) float64 { return dt * s.ref }

// chance reports a per-frame probability p scaled to dt.
func (s *sceneBase) chance(p, dt float64) bool {
	return s.rng.Float64() < p*s.frames(dt)
}

func (s *sceneBase) snapshotBase(f *Frame) {
	f.Scene = s.kind
	f.SceneID = s.id
	f.Width = s.width
	f.Height = s.height
	f.Time = s.time
	f.Events = append(f.Events, s.events...)
}

func (s *sceneBase) newParticles(capacity int, what string) (*ParticlePool, error) {
	pp, err := NewParticlePool(capacity, s.logger.With("entity", what))
	if err != nil {
		return nil, fmt.Errorf("%s %s pool: %w", s.kind, what, err)
	}
	s.track(what, pp.Stats)
	return pp, nil
}

// track registers a pool for debug pressure reports.
func (s *sceneBase) track(name string, stats func() PoolStats) {
	s.pools = append(s.pools, trackedPool{name: name, stats: stats})
}

func (s *sceneBase) eachPool(fn func(name string, st PoolStats)) {
	for _, p := range s.pools {
		fn(p.name, p.stats())
	}
}

// particleKernel is the kernel scenes use for particles: no world bounds,
// velocities in px per reference frame.
func (s *sceneBase) particleKernel() Kernel {
	return Kernel{ReferenceRate: s.ref, Left: 0, Right: s.width, Floor: s.height}
}
