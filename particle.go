package vendfall

import (
	"log/slog"
)

// ParticleKind tells renderers how to draw a particle. It has no effect on
// simulation.
type ParticleKind uint8

const (
	ParticleDust     ParticleKind = iota // ambient floating mote
	ParticleSparkle                      // dispense / weather sparkle
	ParticleDebris                       // impact debris (rotated square)
	ParticlePortal                       // portal spiral mote
	ParticleRain                         // rain streak
	ParticleSnow                         // snow flake
)

// Particle is an ephemeral visual unit. Velocities are in px per reference
// frame; Gravity is added to Vel.Y per second; Decay is life lost per second.
// Alpha derives from Life/MaxLife.
type Particle struct {
	Kind     ParticleKind
	Pos, Vel Vec2
	Life     float64
	MaxLife  float64
	Size     float64
	Color    Color
	Rotation float64
	Spin     float64 // radians per second

	Decay   float64
	Gravity float64
	// Drag is the per-reference-frame velocity retention per axis. Zero
	// components mean no drag.
	Drag Vec2
	// Attraction pulls the particle toward Focus; zero disables it.
	Focus      Vec2
	Attraction float64
}

// Alpha returns Life/MaxLife in [0, 1].
func (p *Particle) Alpha() float64 {
	if p.MaxLife <= 0 {
		return 0
	}
	return clamp(p.Life/p.MaxLife, 0, 1)
}

// Dead reports whether the particle's life is exhausted.
func (p *Particle) Dead() bool {
	return p.Life <= 0
}

func (p *Particle) finite() bool {
	return p.Pos.Finite() && p.Vel.Finite() &&
		isFinite(p.Life) && isFinite(p.Rotation) && isFinite(p.Spin)
}

// ParticlePool is a bounded pool of particles. New particles are silently
// dropped when the pool is full.
type ParticlePool struct {
	p      *pool[Particle]
	logger *slog.Logger
	faults int
}

// NewParticlePool creates a pool holding at most capacity particles.
func NewParticlePool(capacity int, logger *slog.Logger) (*ParticlePool, error) {
	p, err := newPool[Particle](capacity, DropNewest)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ParticlePool{p: p, logger: logger}, nil
}

// Spawn adds a particle. MaxLife defaults to Life and Life is clamped into
// [0, MaxLife]. Particles with non-finite state are rejected.
func (pp *ParticlePool) Spawn(p Particle) (Handle, bool) {
	if !p.finite() {
		return 0, false
	}
	if p.MaxLife <= 0 {
		p.MaxLife = p.Life
	}
	p.Life = clamp(p.Life, 0, p.MaxLife)
	return pp.p.spawn(p)
}

// UpdateAll integrates every live particle. A particle whose integration
// faults is killed and culled with the rest.
func (pp *ParticlePool) UpdateAll(k Kernel, dt float64) {
	pp.p.each(func(h Handle, p *Particle) {
		if err := k.IntegrateParticle(p, dt); err != nil {
			pp.faults++
			pp.logger.Warn("particle fault", "handle", uint64(h), "err", err)
			p.Life = 0
		}
	})
}

// CullDead removes particles whose life is exhausted and returns the count.
func (pp *ParticlePool) CullDead() int {
	return pp.p.retain(func(p *Particle) bool { return !p.Dead() })
}

// Each calls fn for every particle in insertion order. Spawns from fn are
// deferred until Each returns.
func (pp *ParticlePool) Each(fn func(p *Particle)) {
	pp.p.each(func(_ Handle, p *Particle) { fn(p) })
}

// Get returns the particle with handle h if it is still live.
func (pp *ParticlePool) Get(h Handle) (*Particle, bool) { return pp.p.get(h) }

// Len returns the number of live particles.
func (pp *ParticlePool) Len() int { return len(pp.p.items) }

// CountKind returns the number of live particles of kind k.
func (pp *ParticlePool) CountKind(k ParticleKind) int {
	n := 0
	for i := range pp.p.items {
		if pp.p.items[i].Kind == k {
			n++
		}
	}
	return n
}

// Cap returns the pool capacity.
func (pp *ParticlePool) Cap() int { return pp.p.capacity }

// Faults returns the number of particles killed by integration faults.
func (pp *ParticlePool) Faults() int { return pp.faults }

// Stats returns occupancy and overflow counters.
func (pp *ParticlePool) Stats() PoolStats { return pp.p.stats() }

// Clear removes every particle.
func (pp *ParticlePool) Clear() { pp.p.reset() }
