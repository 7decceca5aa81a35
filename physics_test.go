package vendfall

import (
	"errors"
	"math"
	"testing"
)

const dt60 = 1.0 / 60

func testKernel() Kernel {
	return Kernel{
		Gravity:       800,
		ReferenceRate: DefaultReferenceRate,
		Floor:         400,
		Left:          0,
		Right:         600,
		SettleSpeed:   30,
		GroundDamping: 0.9,
		RestSpeed:     6,
		CollisionLoss: 1,
	}
}

func TestKernelValidate(t *testing.T) {
	if err := testKernel().Validate(); err != nil {
		t.Fatalf("valid kernel: %v", err)
	}
	bad := []func(k *Kernel){
		func(k *Kernel) { k.ReferenceRate = 0 },
		func(k *Kernel) { k.Right = k.Left },
		func(k *Kernel) { k.Drag = 1.5 },
		func(k *Kernel) { k.GroundDamping = -0.1 },
		func(k *Kernel) { k.Gravity = math.Inf(1) },
		func(k *Kernel) { k.SettleSpeed = -1 },
	}
	for i, mutate := range bad {
		k := testKernel()
		mutate(&k)
		if err := k.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("case %d: err = %v, want ErrInvalidConfig", i, err)
		}
	}
}

func TestFloorReflection(t *testing.T) {
	k := testKernel()
	b := NewBody(Body{Pos: Vec2{300, 385}, Vel: Vec2{120, 600}, Size: 20, Bounciness: 0.3, Friction: 0.8})

	impactVy := b.Vel.Y + k.Gravity*dt60
	impactVx := b.Vel.X
	contact, err := k.IntegrateBody(b, dt60)
	if err != nil {
		t.Fatal(err)
	}
	if !contact.Has(ContactFloor) {
		t.Fatalf("contact = %b, want floor", contact)
	}
	assertNear(t, "vy", b.Vel.Y, -0.3*impactVy)
	assertNear(t, "vx", b.Vel.X, 0.8*impactVx)
	assertNear(t, "y", b.Pos.Y, 390)
	if b.OnGround {
		t.Error("fast impact should bounce, not settle")
	}
}

func TestFallingBodyScenario(t *testing.T) {
	k := testKernel()
	b := NewBody(Body{Pos: Vec2{300, 0}, Size: 0, Bounciness: 0.3, Friction: 1})

	var bounces int
	lastImpact := math.Inf(1)
	for tick := 0; tick < 2000 && !b.OnGround; tick++ {
		impact := b.Vel.Y + k.Gravity*dt60
		contact, err := k.IntegrateBody(b, dt60)
		if err != nil {
			t.Fatal(err)
		}
		if !contact.Has(ContactFloor) {
			continue
		}
		bounces++
		if impact >= lastImpact {
			t.Fatalf("bounce %d impact %v did not decay from %v", bounces, impact, lastImpact)
		}
		lastImpact = impact
		if !contact.Has(ContactLanded) {
			assertNearTol(t, "rebound", math.Abs(b.Vel.Y), 0.3*impact, 1e-9)
		}
	}
	if !b.OnGround {
		t.Fatal("body never reached the ground")
	}
	if bounces > 10 {
		t.Errorf("bounces = %d, want a bounded count", bounces)
	}
	assertNear(t, "rest y", b.Pos.Y, 400)
}

func TestRestingBodyStaysPut(t *testing.T) {
	k := testKernel()
	b := NewBody(Body{Pos: Vec2{100, 390}, Size: 20, Bounciness: 0.3, Friction: 0.8, OnGround: true})
	before := b.Pos
	for range 600 {
		if _, err := k.IntegrateBody(b, dt60); err != nil {
			t.Fatal(err)
		}
	}
	if b.Pos != before {
		t.Errorf("resting body moved from %v to %v", before, b.Pos)
	}
	if !b.Resting() {
		t.Error("body should be resting")
	}
}

func TestGroundSlideStops(t *testing.T) {
	k := testKernel()
	b := NewBody(Body{Pos: Vec2{100, 390}, Vel: Vec2{50, 0}, Size: 20, OnGround: true, Spin: 3})
	for range 300 {
		k.IntegrateBody(b, dt60)
	}
	if b.Vel.X != 0 || b.Spin != 0 {
		t.Errorf("vel %v spin %v, want stopped", b.Vel, b.Spin)
	}
}

func TestWallBounce(t *testing.T) {
	k := testKernel()
	b := NewBody(Body{Pos: Vec2{595, 100}, Vel: Vec2{600, 0}, Size: 20, Bounciness: 0.5})
	contact, _ := k.IntegrateBody(b, dt60)
	if !contact.Has(ContactWall) {
		t.Fatalf("contact = %b, want wall", contact)
	}
	assertNear(t, "x", b.Pos.X, 590)
	assertNear(t, "vx", b.Vel.X, -300)
}

func TestKinematicBodyIgnoresGravity(t *testing.T) {
	k := testKernel()
	b := NewBody(Body{Pos: Vec2{0, 0}, Vel: Vec2{60, 0}, Size: 10, Kinematic: true})
	k.IntegrateBody(b, 0.5)
	assertNear(t, "x", b.Pos.X, 30)
	assertNear(t, "y", b.Pos.Y, 0)
}

func TestNonFiniteBodyRestored(t *testing.T) {
	k := testKernel()
	b := NewBody(Body{Pos: Vec2{10, 10}, Size: 10})
	b.Vel = Vec2{math.NaN(), 0}
	if _, err := k.IntegrateBody(b, dt60); !errors.Is(err, ErrNonFinite) {
		t.Fatalf("err = %v, want ErrNonFinite", err)
	}
	if !b.finite() {
		t.Error("body not restored to a finite state")
	}
	assertNear(t, "x", b.Pos.X, 10)
}

func TestInvalidDtIsNoop(t *testing.T) {
	k := testKernel()
	b := NewBody(Body{Pos: Vec2{10, 10}, Vel: Vec2{5, 5}, Size: 10})
	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		k.IntegrateBody(b, dt)
	}
	if b.Pos != (Vec2{10, 10}) {
		t.Errorf("pos = %v, want unchanged", b.Pos)
	}
}

func TestResolvePairSymmetric(t *testing.T) {
	k := testKernel()
	k.CollisionLoss = 0.8
	mk := func() (*Body, *Body) {
		a := NewBody(Body{Pos: Vec2{100, 100}, Vel: Vec2{50, -10}, Size: 20})
		b := NewBody(Body{Pos: Vec2{112, 105}, Vel: Vec2{-30, 20}, Size: 20})
		return a, b
	}

	a1, b1 := mk()
	if !k.ResolvePair(a1, b1) {
		t.Fatal("overlapping pair did not collide")
	}
	a2, b2 := mk()
	if !k.ResolvePair(b2, a2) {
		t.Fatal("swapped pair did not collide")
	}

	sep1 := a1.Pos.Sub(b1.Pos).Len()
	sep2 := a2.Pos.Sub(b2.Pos).Len()
	assertNear(t, "separation", sep1, sep2)
	assertNear(t, "separation distance", sep1, 20)
	assertNear(t, "a.vx", a1.Vel.X, a2.Vel.X)
	assertNear(t, "a.vy", a1.Vel.Y, a2.Vel.Y)
	assertNear(t, "b.vx", b1.Vel.X, b2.Vel.X)
	assertNear(t, "b.vy", b1.Vel.Y, b2.Vel.Y)
}

func TestResolvePairApart(t *testing.T) {
	k := testKernel()
	a := NewBody(Body{Pos: Vec2{0, 0}, Size: 10})
	b := NewBody(Body{Pos: Vec2{50, 0}, Size: 10})
	if k.ResolvePair(a, b) {
		t.Error("distant pair collided")
	}
	c := NewBody(Body{Pos: Vec2{50, 0}, Size: 10})
	if k.ResolvePair(b, c) {
		t.Error("coincident pair should be skipped")
	}
}

func TestResolveCollisionsCounts(t *testing.T) {
	k := testKernel()
	bodies := []*Body{
		NewBody(Body{Pos: Vec2{0, 0}, Size: 10}),
		NewBody(Body{Pos: Vec2{5, 0}, Size: 10}),
		NewBody(Body{Pos: Vec2{200, 0}, Size: 10}),
	}
	if n := k.ResolveCollisions(bodies); n != 1 {
		t.Errorf("collisions = %d, want 1", n)
	}
}

func TestIntegrateParticle(t *testing.T) {
	k := Kernel{ReferenceRate: 60, Right: 600, Floor: 600}
	p := Particle{Pos: Vec2{0, 0}, Vel: Vec2{2, 0}, Life: 1, MaxLife: 1, Decay: 3, Gravity: 60, Drag: Vec2{X: 0.5}}
	if err := k.IntegrateParticle(&p, dt60); err != nil {
		t.Fatal(err)
	}
	// One reference frame: position moves by one frame of velocity.
	assertNear(t, "x", p.Pos.X, 2)
	assertNear(t, "vx", p.Vel.X, 1)
	assertNear(t, "vy", p.Vel.Y, 1)
	assertNear(t, "life", p.Life, 0.95)
}

func TestIntegrateParticleNonFinite(t *testing.T) {
	k := Kernel{ReferenceRate: 60, Right: 600}
	p := Particle{Pos: Vec2{1, 1}, Vel: Vec2{math.Inf(1), 0}, Life: 1}
	if err := k.IntegrateParticle(&p, dt60); !errors.Is(err, ErrNonFinite) {
		t.Errorf("err = %v, want ErrNonFinite", err)
	}
}

func TestPerFrameIsRateIndependent(t *testing.T) {
	k := Kernel{ReferenceRate: 60}
	one := k.perFrame(0.9, 1.0/30)
	two := k.perFrame(0.9, 1.0/60) * k.perFrame(0.9, 1.0/60)
	assertNear(t, "30 vs 2x60", one, two)
	assertNear(t, "disabled", k.perFrame(0, 1), 1)
}
