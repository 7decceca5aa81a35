package vendfall

import (
	"testing"
)

// --- Kernel Benchmarks ---

func BenchmarkIntegrateBody(b *testing.B) {
	k := testKernel()
	body := NewBody(Body{Pos: Vec2{300, 0}, Size: 20, Bounciness: 0.3, Friction: 0.8})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if body.OnGround {
			body.Pos.Y = 0
			body.OnGround = false
		}
		k.IntegrateBody(body, dt60)
	}
}

func BenchmarkParticlePool_300(b *testing.B) {
	k := Kernel{ReferenceRate: 60, Right: 600, Floor: 600}
	pp, _ := NewParticlePool(300, nil)
	rng := testRand()
	refill := func() {
		for pp.Len() < pp.Cap() {
			pp.Spawn(Particle{
				Pos:   Vec2{rng.Float64() * 600, rng.Float64() * 600},
				Vel:   Vec2{Spread(rng, 2), Spread(rng, 2)},
				Life:  1,
				Decay: 0.5,
				Drag:  Vec2{0.98, 0.98},
			})
		}
	}
	refill()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		pp.UpdateAll(k, dt60)
		pp.CullDead()
		refill()
	}
}

func BenchmarkBodyPoolCollisions_40(b *testing.B) {
	k := testKernel()
	k.CollisionLoss = 0.8
	bp, _ := NewBodyPool(40, nil)
	rng := testRand()
	for range 40 {
		bp.Spawn(Body{
			Pos:        Vec2{rng.Float64() * 600, rng.Float64() * 400},
			Size:       20,
			Bounciness: 0.6,
			Friction:   0.8,
		})
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		bp.UpdateAll(k, dt60)
	}
}

// --- Scene Benchmarks ---

func BenchmarkDispenserTick(b *testing.B) {
	cfg, err := DefaultConfig()
	if err != nil {
		b.Fatal(err)
	}
	s, err := NewDispenserScene(cfg.Canvas, cfg.Dispenser, testOptions())
	if err != nil {
		b.Fatal(err)
	}
	s.Start()
	for !s.Landed() {
		s.Update(dt60)
	}
	var f Frame

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.Update(dt60)
		f.Reset()
		s.Snapshot(&f)
	}
}
