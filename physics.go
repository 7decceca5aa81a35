package vendfall

import (
	"fmt"
	"math"
)

// DefaultReferenceRate is the frame rate the per-frame tuning constants were
// authored at. Per-frame factors are raised to dt*ReferenceRate so they hold
// at any tick rate.
const DefaultReferenceRate = 60.0

// Contact is a bitset describing what a body touched during one integration.
type Contact uint8

const (
	ContactFloor  Contact = 1 << iota // body struck the floor this tick
	ContactWall                       // body struck the left or right bound
	ContactLanded                     // body settled onto the floor this tick
)

// Has reports whether all bits in flag are set.
func (c Contact) Has(flag Contact) bool { return c&flag == flag }

// Kernel integrates particles and falling bodies. It holds the world bounds
// and the shared coefficients; per-entity coefficients (bounciness, friction,
// drag) live on the entities themselves.
//
// The kernel is deterministic given entity state and dt and never panics.
type Kernel struct {
	// Gravity is the downward acceleration for bodies in px/s².
	Gravity float64
	// ReferenceRate scales per-frame factors (drag, damping) and particle
	// velocities, which are expressed in px per reference frame.
	ReferenceRate float64
	// Floor is the y coordinate bodies rest on.
	Floor float64
	// Left and Right are the horizontal bounds bodies bounce off.
	Left, Right float64
	// Drag is the per-reference-frame velocity retention for bodies in the
	// air. 0 or 1 disables drag.
	Drag float64
	// SettleSpeed is the vertical speed (px/s) below which a floor bounce
	// ends and the body is marked on the ground.
	SettleSpeed float64
	// GroundDamping is the per-reference-frame horizontal retention while a
	// body is on the ground.
	GroundDamping float64
	// RestSpeed is the horizontal speed (px/s) below which a grounded body
	// stops sliding.
	RestSpeed float64
	// SpinDamping scales rotation speed on every floor strike.
	SpinDamping float64
	// CollisionLoss scales both velocities after a pairwise collision.
	CollisionLoss float64
}

// Validate rejects coefficients that would make integration diverge.
func (k Kernel) Validate() error {
	switch {
	case !isFinite(k.Gravity):
		return fmt.Errorf("%w: gravity %v", ErrInvalidConfig, k.Gravity)
	case k.ReferenceRate <= 0 || !isFinite(k.ReferenceRate):
		return fmt.Errorf("%w: reference rate %v", ErrInvalidConfig, k.ReferenceRate)
	case k.Right <= k.Left:
		return fmt.Errorf("%w: bounds [%v, %v]", ErrInvalidConfig, k.Left, k.Right)
	case k.Drag < 0 || k.Drag > 1:
		return fmt.Errorf("%w: drag %v outside [0, 1]", ErrInvalidConfig, k.Drag)
	case k.GroundDamping < 0 || k.GroundDamping > 1:
		return fmt.Errorf("%w: ground damping %v outside [0, 1]", ErrInvalidConfig, k.GroundDamping)
	case k.CollisionLoss < 0 || k.CollisionLoss > 1:
		return fmt.Errorf("%w: collision loss %v outside [0, 1]", ErrInvalidConfig, k.CollisionLoss)
	case k.SettleSpeed < 0 || k.RestSpeed < 0:
		return fmt.Errorf("%w: negative settle/rest speed", ErrInvalidConfig)
	}
	return nil
}

// perFrame raises a per-reference-frame factor to the number of reference
// frames covered by dt. Factors of 0 or 1 leave values untouched.
func (k Kernel) perFrame(factor, dt float64) float64 {
	if factor <= 0 || factor >= 1 {
		return 1
	}
	return math.Pow(factor, dt*k.ReferenceRate)
}

// IntegrateParticle advances p by dt seconds. A particle whose state is or
// becomes non-finite is restored to its state before the call and
// ErrNonFinite is returned; callers decide whether to drop it.
func (k Kernel) IntegrateParticle(p *Particle, dt float64) error {
	if !validDt(dt) {
		return nil
	}
	if !p.finite() {
		return ErrNonFinite
	}
	prev := *p

	p.Pos = p.Pos.Add(p.Vel.Scale(dt * k.ReferenceRate))
	p.Rotation += p.Spin * dt

	if p.Attraction != 0 {
		p.Vel = p.Vel.Add(p.Focus.Sub(p.Pos).Scale(p.Attraction * dt))
	}
	p.Vel.Y += p.Gravity * dt
	p.Vel.X *= k.perFrame(p.Drag.X, dt)
	p.Vel.Y *= k.perFrame(p.Drag.Y, dt)

	p.Life -= p.Decay * dt
	if p.Life < 0 {
		p.Life = 0
	}

	if !p.finite() {
		*p = prev
		return ErrNonFinite
	}
	return nil
}

// IntegrateBody advances b by dt seconds: gravity, drag, position, then floor
// and wall resolution. A body that cannot be resolved is frozen at its last
// valid state and ErrNonFinite is returned.
func (k Kernel) IntegrateBody(b *Body, dt float64) (Contact, error) {
	if !validDt(dt) {
		return 0, nil
	}
	if !b.finite() {
		b.restore()
		return 0, ErrNonFinite
	}
	prev := b.state()

	var contact Contact
	if b.Kinematic {
		b.Pos = b.Pos.Add(b.Vel.Scale(dt))
		b.Rotation += b.Spin * dt
	} else {
		contact = k.stepDynamic(b, dt)
	}

	if !b.finite() {
		b.setState(prev)
		return 0, ErrNonFinite
	}
	b.commit()
	return contact, nil
}

func (k Kernel) stepDynamic(b *Body, dt float64) Contact {
	if b.OnGround {
		b.Vel.Y = 0
	} else {
		b.Vel.Y += k.Gravity * dt
	}
	if !b.OnGround {
		damp := k.perFrame(k.Drag, dt)
		b.Vel = b.Vel.Scale(damp)
	}

	b.Pos = b.Pos.Add(b.Vel.Scale(dt))
	b.Rotation += b.Spin * dt

	var contact Contact
	half := b.Size / 2

	if b.Pos.Y+half >= k.Floor && b.Vel.Y > 0 {
		b.Pos.Y = k.Floor - half
		b.Vel.Y *= -b.Bounciness
		b.Vel.X *= b.Friction
		if k.SpinDamping > 0 {
			b.Spin *= k.SpinDamping
		}
		contact |= ContactFloor
		if math.Abs(b.Vel.Y) < k.SettleSpeed {
			b.Vel.Y = 0
			if !b.OnGround {
				contact |= ContactLanded
			}
			b.OnGround = true
		}
	}

	if b.Pos.X-half <= k.Left && b.Vel.X < 0 {
		b.Pos.X = k.Left + half
		b.Vel.X *= -b.Bounciness
		contact |= ContactWall
	} else if b.Pos.X+half >= k.Right && b.Vel.X > 0 {
		b.Pos.X = k.Right - half
		b.Vel.X *= -b.Bounciness
		contact |= ContactWall
	}

	if b.OnGround {
		// Collisions can push a resting body below the floor.
		if b.Pos.Y+half > k.Floor {
			b.Pos.Y = k.Floor - half
		}
		b.Vel.X *= k.perFrame(k.GroundDamping, dt)
		if math.Abs(b.Vel.X) < k.RestSpeed {
			b.Vel.X = 0
			b.Spin = 0
		}
	}
	return contact
}

// ResolvePair separates a and b if they overlap and exchanges their
// velocities with a 50/50 averaged elastic response scaled by
// CollisionLoss. The response is not mass-weighted and does not conserve
// momentum. It reports whether the pair collided.
func (k Kernel) ResolvePair(a, b *Body) bool {
	if a.Kinematic || b.Kinematic {
		return false
	}
	delta := a.Pos.Sub(b.Pos)
	minDist := (a.Size + b.Size) / 2
	n, dist := delta.Normalize()
	if dist >= minDist || dist == 0 {
		return false
	}
	pa, pb := a.state(), b.state()

	overlap := minDist - dist
	push := n.Scale(overlap * 0.5)
	a.Pos = a.Pos.Add(push)
	b.Pos = b.Pos.Sub(push)

	av, bv := a.Vel, b.Vel
	a.Vel = Vec2{
		X: (av.X+bv.X)*0.5 + n.X*math.Abs(bv.X-av.X)*0.5,
		Y: (av.Y+bv.Y)*0.5 + n.Y*math.Abs(bv.Y-av.Y)*0.5,
	}
	b.Vel = Vec2{
		X: (av.X+bv.X)*0.5 - n.X*math.Abs(av.X-bv.X)*0.5,
		Y: (av.Y+bv.Y)*0.5 - n.Y*math.Abs(av.Y-bv.Y)*0.5,
	}
	a.Vel = a.Vel.Scale(k.CollisionLoss)
	b.Vel = b.Vel.Scale(k.CollisionLoss)

	if !a.finite() || !b.finite() {
		a.setState(pa)
		b.setState(pb)
		return false
	}
	k.disturb(a)
	k.disturb(b)
	a.commit()
	b.commit()
	return true
}

// disturb lifts a grounded body off the floor when a collision sends it
// upward faster than the settle threshold.
func (k Kernel) disturb(b *Body) {
	if b.OnGround && b.Vel.Y < -k.SettleSpeed {
		b.OnGround = false
	}
}

// ResolveCollisions runs ResolvePair over every unordered pair in bodies,
// in index order, and returns the number of collisions.
func (k Kernel) ResolveCollisions(bodies []*Body) int {
	hits := 0
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			if k.ResolvePair(bodies[i], bodies[j]) {
				hits++
			}
		}
	}
	return hits
}

func validDt(dt float64) bool {
	return dt > 0 && isFinite(dt)
}
