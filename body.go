package vendfall

import (
	"log/slog"
)

// BodyKind tells renderers what a body depicts.
type BodyKind uint8

const (
	BodyItem    BodyKind = iota // dispensed drink
	BodyGift                    // gift box dropped during snow
	BodyMachine                 // the vending machine hero
	BodyCar                     // the car in the crash scene
)

// Body is a simulated falling item. Position is the center; Size is the
// collision diameter; velocities are in px/s and Spin in rad/s.
//
// Kinematic bodies move at constant velocity and ignore gravity, bounds and
// pairwise collisions.
type Body struct {
	Kind       BodyKind
	Pos, Vel   Vec2
	Rotation   float64
	Spin       float64
	Size       float64
	Bounciness float64
	Friction   float64
	Color      Color
	Kinematic  bool
	OnGround   bool

	last    bodyState
	hasLast bool
}

type bodyState struct {
	pos, vel       Vec2
	rotation, spin float64
	onGround       bool
}

func (b *Body) state() bodyState {
	return bodyState{pos: b.Pos, vel: b.Vel, rotation: b.Rotation, spin: b.Spin, onGround: b.OnGround}
}

func (b *Body) setState(s bodyState) {
	b.Pos, b.Vel, b.Rotation, b.Spin, b.OnGround = s.pos, s.vel, s.rotation, s.spin, s.onGround
}

// Bounds returns the square of side Size centered on Pos.
func (b *Body) Bounds() Rect {
	return Rect{X: b.Pos.X - b.Size/2, Y: b.Pos.Y - b.Size/2, Width: b.Size, Height: b.Size}
}

// Offscreen reports whether b lies entirely left of, right of or below view.
func (b *Body) Offscreen(view Rect) bool {
	r := b.Bounds()
	return r.X+r.Width < view.X || r.X > view.X+view.Width || r.Y > view.Y+view.Height
}

// commit records the current state as the last valid one.
func (b *Body) commit() {
	b.last = b.state()
	b.hasLast = true
}

// restore rolls back to the last valid state, if any.
func (b *Body) restore() {
	if b.hasLast {
		b.setState(b.last)
	}
}

func (b *Body) finite() bool {
	return b.Pos.Finite() && b.Vel.Finite() && isFinite(b.Rotation) && isFinite(b.Spin)
}

// Speed returns the magnitude of the body's velocity.
func (b *Body) Speed() float64 { return b.Vel.Len() }

// Resting reports whether the body is on the ground with no residual motion.
func (b *Body) Resting() bool {
	return b.OnGround && b.Vel.X == 0 && b.Vel.Y == 0
}

// Disturb applies an impulse and lifts the body off the ground if the
// impulse points upward.
func (b *Body) Disturb(impulse Vec2) {
	b.Vel = b.Vel.Add(impulse)
	if impulse.Y < 0 {
		b.OnGround = false
	}
}

// NewBody returns b with its current state committed as the last valid one.
// Bodies built outside a pool should go through NewBody so the kernel has a
// state to freeze at.
func NewBody(b Body) *Body {
	b.commit()
	return &b
}

// BodyPool is a bounded pool of falling bodies. When the pool is full the
// oldest bodies are evicted.
type BodyPool struct {
	p      *pool[Body]
	logger *slog.Logger
	faults int

	ptrs []*Body
}

// NewBodyPool creates a pool holding at most capacity bodies.
func NewBodyPool(capacity int, logger *slog.Logger) (*BodyPool, error) {
	p, err := newPool[Body](capacity, EvictOldest)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BodyPool{p: p, logger: logger, ptrs: make([]*Body, 0, capacity)}, nil
}

// Spawn adds a body, evicting the oldest if the pool is full. Bodies with
// non-finite state or a non-positive size are rejected.
func (bp *BodyPool) Spawn(b Body) (Handle, bool) {
	if !b.finite() || b.Size <= 0 {
		return 0, false
	}
	b.commit()
	return bp.p.spawn(b)
}

// UpdateAll integrates every body, then resolves pairwise collisions. It
// returns the union of contacts and the number of pairwise collisions.
func (bp *BodyPool) UpdateAll(k Kernel, dt float64) (Contact, int) {
	var all Contact
	bp.p.each(func(h Handle, b *Body) {
		c, err := k.IntegrateBody(b, dt)
		if err != nil {
			bp.faults++
			bp.logger.Warn("body fault", "handle", uint64(h), "err", err)
			return
		}
		all |= c
	})
	bp.ptrs = bp.ptrs[:0]
	for i := range bp.p.items {
		bp.ptrs = append(bp.ptrs, &bp.p.items[i])
	}
	hits := k.ResolveCollisions(bp.ptrs)
	clear(bp.ptrs)
	bp.ptrs = bp.ptrs[:0]
	return all, hits
}

// CullOffscreen removes bodies that have left view and returns the count.
// Bodies above view are still falling in and are kept.
func (bp *BodyPool) CullOffscreen(view Rect) int {
	return bp.p.retain(func(b *Body) bool { return !b.Offscreen(view) })
}

// Each calls fn for every body in insertion order.
func (bp *BodyPool) Each(fn func(b *Body)) {
	bp.p.each(func(_ Handle, b *Body) { fn(b) })
}

// Get returns the body with handle h if it has not been evicted.
func (bp *BodyPool) Get(h Handle) (*Body, bool) { return bp.p.get(h) }

// Len returns the number of bodies.
func (bp *BodyPool) Len() int { return len(bp.p.items) }

// Cap returns the pool capacity.
func (bp *BodyPool) Cap() int { return bp.p.capacity }

// Faults returns the number of integration faults so far.
func (bp *BodyPool) Faults() int { return bp.faults }

// Stats returns occupancy and overflow counters.
func (bp *BodyPool) Stats() PoolStats { return bp.p.stats() }

// Clear removes every body.
func (bp *BodyPool) Clear() { bp.p.reset() }
