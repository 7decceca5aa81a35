package vendfall

import (
	"errors"
	"fmt"
	"math"
)

var (
	peachColor = RGB8(244, 208, 186).WithAlpha(0.8)
	crashColor = RGB8(218, 165, 152).WithAlpha(0.7)
	hazeColor  = RGB8(173, 216, 230).WithAlpha(0.3)
)

// SideviewScene shows the machine from the side, dropping out of a portal
// onto the ground under real gravity. The scene exits once the machine has
// rested on the ground for a configured number of ticks.
type SideviewScene struct {
	sceneBase
	cfg SideviewConfig

	hero        *Body
	heroKernel  Kernel
	kernel      Kernel
	particles   *ParticlePool
	clouds      *CloudPool
	effect      *DelayEffect
	struck      bool
	groundTicks int
	settle      float64
	bounces     int
}

// NewSideviewScene validates cfg and builds the scene.
func NewSideviewScene(canvas CanvasConfig, cfg SideviewConfig, opts SceneOptions) (*SideviewScene, error) {
	if err := errors.Join(cfg.validate(canvas)...); err != nil {
		return nil, err
	}
	base, err := newSceneBase(SceneSideview, canvas, opts)
	if err != nil {
		return nil, err
	}
	s := &SideviewScene{sceneBase: base, cfg: cfg}
	if s.particles, err = s.newParticles(cfg.ParticleCap, "particles"); err != nil {
		return nil, err
	}
	if s.clouds, err = NewCloudPool(cfg.MaxClouds, canvas.ReferenceRate); err != nil {
		return nil, fmt.Errorf("sideview clouds: %w", err)
	}
	s.track("clouds", s.clouds.Stats)
	if s.effect, err = NewDelayEffect(cfg.Delay); err != nil {
		return nil, err
	}

	s.kernel = s.particleKernel()
	s.heroKernel = Kernel{
		Gravity:       cfg.Gravity,
		ReferenceRate: canvas.ReferenceRate,
		Floor:         cfg.Floor,
		Left:          0,
		Right:         canvas.Width,
		SettleSpeed:   cfg.SettleSpeed,
		GroundDamping: 0.9,
		RestSpeed:     6,
		SpinDamping:   0.5,
	}
	if err := s.heroKernel.Validate(); err != nil {
		return nil, fmt.Errorf("sideview kernel: %w", err)
	}
	s.hero = NewBody(Body{
		Kind:       BodyMachine,
		Pos:        Vec2{canvas.Width / 2, cfg.StartY},
		Vel:        Vec2{0, canvas.ReferenceRate},
		Spin:       Spread(s.rng, 0.015) * canvas.ReferenceRate,
		Size:       cfg.HeroSize.Y,
		Bounciness: cfg.Bounciness,
		Friction:   cfg.Friction,
		Color:      machineColor,
	})

	for range cfg.PortalBurst {
		s.spawnPortalMote(Vec2{s.hero.Pos.X + Spread(s.rng, 20), 60})
	}
	for range cfg.Clouds {
		s.spawnCloud(30 + s.rng.Float64()*120)
	}
	for range cfg.RainCount {
		s.spawnRain(s.rng.Float64() * s.height)
	}
	return s, nil
}

func (s *SideviewScene) spawnPortalMote(pos Vec2) {
	angle := s.rng.Float64() * 2 * math.Pi
	speed := 1 + s.rng.Float64()*3
	s.particles.Spawn(Particle{
		Kind:  ParticlePortal,
		Pos:   pos,
		Vel:   Vec2{math.Cos(angle) * speed, math.Sin(angle) * speed},
		Life:  0.5 + s.rng.Float64(),
		Size:  2 + s.rng.Float64()*4,
		Color: peachColor,
		Decay: 1,
		Drag:  Vec2{0.98, 0.98},
	})
}

func (s *SideviewScene) spawnCloud(y float64) {
	s.clouds.Spawn(Cloud{
		Pos:        Vec2{s.rng.Float64() * s.width, y},
		Size:       30 + s.rng.Float64()*40,
		Opacity:    100.0 / 255,
		Drift:      Vec2{Spread(s.rng, 0.1), s.rng.Float64() * 0.05},
		Wrap:       true,
		WrapWidth:  s.width,
		WrapHeight: s.height,
	})
}

func (s *SideviewScene) spawnRain(y float64) {
	s.particles.Spawn(Particle{
		Kind:  ParticleRain,
		Pos:   Vec2{s.rng.Float64() * s.width, y},
		Vel:   Vec2{0, 1 + s.rng.Float64()*2},
		Life:  1,
		Size:  8 + s.rng.Float64()*12,
		Color: hazeColor,
	})
}

// Update implements Scene.
func (s *SideviewScene) Update(dt float64) {
	if !s.begin(dt) {
		return
	}
	frames := s.frames(dt)

	contact, err := s.heroKernel.IntegrateBody(s.hero, dt)
	if err != nil {
		s.logger.Warn("hero fault", "entity", "hero", "err", err)
	}
	if contact.Has(ContactFloor) {
		s.bounces++
		if !s.struck {
			s.struck = true
			s.land()
		}
	}
	if contact.Has(ContactLanded) {
		s.hero.Rotation = 0
		s.hero.Spin = 0
		s.emit(EventLanded, s.hero.Pos, "")
		s.logger.Info("machine landed", "tick", s.ticks, "bounces", s.bounces)
	}
	if s.hero.OnGround {
		s.groundTicks++
		// Gentle settle wobble for the first few ticks on the ground.
		if s.groundTicks < 45 {
			s.settle += math.Sin(float64(s.groundTicks)*0.2) * 0.3
		}
	}

	s.particles.UpdateAll(s.kernel, dt)
	s.particles.Each(func(p *Particle) {
		if p.Kind == ParticleRain && p.Pos.Y > s.height {
			p.Pos.Y = -p.Size
			p.Pos.X = s.rng.Float64() * s.width
		}
		if p.Kind == ParticleRain {
			p.Pos.X += math.Sin(s.time*0.5+p.Pos.X*0.008) * 0.2 * frames
		}
	})
	s.particles.CullDead()

	s.clouds.UpdateAll(dt)
	s.clouds.CullDead()
	if s.clouds.Len() < s.cfg.MaxClouds && s.chance(s.cfg.CloudChance, dt) {
		s.spawnCloud(40 + s.rng.Float64()*100)
	}
}

// land throws crash particles and a dispersing puff where the machine hit.
func (s *SideviewScene) land() {
	base := Vec2{s.hero.Pos.X, s.hero.Pos.Y + 20}
	for range s.cfg.CrashBurst {
		s.particles.Spawn(Particle{
			Kind:    ParticleDebris,
			Pos:     Vec2{base.X + Spread(s.rng, 30), base.Y},
			Vel:     Vec2{Spread(s.rng, 4), -s.rng.Float64() * 6},
			Life:    1.0/3 + s.rng.Float64()*2/3,
			Size:    1 + s.rng.Float64()*3,
			Color:   crashColor,
			Decay:   1,
			Gravity: 0.2 * s.ref,
			Drag:    Vec2{X: 0.99},
		})
	}
	s.clouds.Spawn(Cloud{
		Pos:           Vec2{s.hero.Pos.X + Spread(s.rng, 40), s.hero.Pos.Y - 30},
		Size:          50,
		Opacity:       150.0 / 255,
		Dispersing:    true,
		DisperseRate:  1 + s.rng.Float64(),
		DisperseDecay: 0.985,
		Expansion:     1,
		FadeRate:      2.0 / 255,
		Rise:          0.3,
	})
	s.emit(EventImpact, base, "")
}

// Hero returns the machine body.
func (s *SideviewScene) Hero() *Body { return s.hero }

// GroundTicks returns how many ticks the machine has been on the ground.
func (s *SideviewScene) GroundTicks() int { return s.groundTicks }

// Bounces returns how many times the machine has struck the floor.
func (s *SideviewScene) Bounces() int { return s.bounces }

// Particles returns the particle pool.
func (s *SideviewScene) Particles() *ParticlePool { return s.particles }

// Clouds returns the cloud pool.
func (s *SideviewScene) Clouds() *CloudPool { return s.clouds }

// EvaluateTrigger implements Scene.
func (s *SideviewScene) EvaluateTrigger() bool {
	return s.hero.OnGround && s.groundTicks >= s.cfg.LandedTicks
}

// ExitEffect implements Scene.
func (s *SideviewScene) ExitEffect() ExitEffect { return s.effect }

// Snapshot implements Scene.
func (s *SideviewScene) Snapshot(f *Frame) {
	s.snapshotBase(f)
	f.Background = skyColor
	f.Props = append(f.Props, PropView{
		Kind:   PropGround,
		Bounds: Rect{X: 0, Y: s.cfg.Floor, Width: s.width, Height: s.height - s.cfg.Floor},
		Color:  groundColor,
	})
	rest := s.cfg.Floor - s.hero.Size/2
	fall := clamp((s.hero.Pos.Y-s.cfg.StartY)/(rest-s.cfg.StartY), 0, 1)
	f.Hero = HeroView{
		Pos:      Vec2{s.hero.Pos.X, s.hero.Pos.Y + s.settle},
		Rotation: s.hero.Rotation,
		Scale:    0.2 + fall*0.8,
		Size:     s.cfg.HeroSize,
		Color:    s.hero.Color,
		OnGround: s.hero.OnGround,
		Visible:  true,
	}
	f.AppendParticles(s.particles)
	f.AppendClouds(s.clouds)
	f.Progress = fall
	f.Caption = "SIDE VIEW"
}
