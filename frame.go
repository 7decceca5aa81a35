package vendfall

import "github.com/google/uuid"

// Surface is a drawing target owned by exactly one scene at a time.
//
//go:generate go tool mockgen -destination=mocks/surface_mock.go -package=mocks . Surface
type Surface interface {
	// Size returns the current drawable area in pixels. A zero area means
	// the host has reclaimed the surface and frames are skipped.
	Size() (width, height int)
	// Render draws one frame. The frame is read-only and only valid for the
	// duration of the call.
	Render(f *Frame) error
}

// HeroView is the pose of a scene's hero object.
type HeroView struct {
	Pos      Vec2
	Rotation float64
	Scale    float64
	Size     Vec2
	Color    Color
	OnGround bool
	Visible  bool
}

// PropView is a static or scripted scene object that is not simulated by
// the kernel, like the parked machine, the road or the ground strip.
type PropView struct {
	Kind     PropKind
	Bounds   Rect
	Rotation float64
	Color    Color
}

// PropKind tells renderers what a prop depicts.
type PropKind uint8

const (
	PropGround PropKind = iota
	PropRoad
	PropMachine
	PropCar
	PropSky
)

// ParticleView is the render state of one particle.
type ParticleView struct {
	Kind     ParticleKind
	Pos      Vec2
	Size     float64
	Rotation float64
	Color    Color // alpha already multiplied by life
}

// BodyView is the render state of one falling body.
type BodyView struct {
	Kind     BodyKind
	Pos      Vec2
	Size     float64
	Rotation float64
	Color    Color
	OnGround bool
}

// CloudView is the render state of one cloud.
type CloudView struct {
	Pos        Vec2
	Size       float64
	Opacity    float64
	Layer      int
	Dispersing bool
}

// PortalView is the swirling portal drawn by the crash scene.
type PortalView struct {
	Active   bool
	Center   Vec2
	Size     float64
	Rotation float64
}

// TransitionView is the transition machine state for overlays.
type TransitionView struct {
	State    TransitionState
	Progress float64
	Flash    float64
}

// EventKind identifies a scene event surfaced to renderers.
type EventKind uint8

const (
	EventImpact EventKind = iota
	EventLanded
	EventDispensed
	EventWeather
	EventHandoff
)

func (k EventKind) String() string {
	switch k {
	case EventImpact:
		return "impact"
	case EventLanded:
		return "landed"
	case EventDispensed:
		return "dispensed"
	case EventWeather:
		return "weather"
	case EventHandoff:
		return "handoff"
	default:
		return "unknown"
	}
}

// Event is something that happened during the tick, for sound and overlays.
type Event struct {
	Kind EventKind
	Pos  Vec2
	Name string
}

// Frame is the read-only snapshot a renderer receives each tick. Slices are
// reused between frames; renderers must not retain them.
type Frame struct {
	Tick    int
	Scene   SceneKind
	SceneID uuid.UUID
	Width   float64
	Height  float64
	Time    float64 // seconds since the scene started

	Background Color
	Hero       HeroView
	Props      []PropView
	Particles  []ParticleView
	Bodies     []BodyView
	Clouds     []CloudView
	Portal     PortalView

	// Shake is the camera shake amplitude in px; renderers turn it into an
	// offset with a Jitter.
	Shake    float64
	Progress float64
	Weather  string
	Caption  string

	Transition TransitionView
	Events     []Event
}

// Reset clears f for reuse, keeping slice capacity.
func (f *Frame) Reset() {
	props, parts, bodies, clouds, events := f.Props[:0], f.Particles[:0], f.Bodies[:0], f.Clouds[:0], f.Events[:0]
	*f = Frame{}
	f.Props, f.Particles, f.Bodies, f.Clouds, f.Events = props, parts, bodies, clouds, events
}

// AppendParticles snapshots every particle in pp into f.
func (f *Frame) AppendParticles(pp *ParticlePool) {
	if pp == nil {
		return
	}
	for i := range pp.p.items {
		p := &pp.p.items[i]
		f.Particles = append(f.Particles, ParticleView{
			Kind:     p.Kind,
			Pos:      p.Pos,
			Size:     p.Size,
			Rotation: p.Rotation,
			Color:    p.Color.WithAlpha(p.Color.A * p.Alpha()),
		})
	}
}

// AppendBodies snapshots every body in bp into f.
func (f *Frame) AppendBodies(bp *BodyPool) {
	if bp == nil {
		return
	}
	for i := range bp.p.items {
		b := &bp.p.items[i]
		f.Bodies = append(f.Bodies, BodyView{
			Kind:     b.Kind,
			Pos:      b.Pos,
			Size:     b.Size,
			Rotation: b.Rotation,
			Color:    b.Color,
			OnGround: b.OnGround,
		})
	}
}

// AppendClouds snapshots every cloud in cp into f.
func (f *Frame) AppendClouds(cp *CloudPool) {
	if cp == nil {
		return
	}
	for i := range cp.p.items {
		c := &cp.p.items[i]
		f.Clouds = append(f.Clouds, CloudView{
			Pos:        c.Pos,
			Size:       c.Size,
			Opacity:    c.Opacity,
			Layer:      c.Layer,
			Dispersing: c.Dispersing,
		})
	}
}
