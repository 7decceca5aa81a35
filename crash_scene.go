package vendfall

import (
	"errors"
	"fmt"
	"math"
)

var (
	roadColor    = RGB8(120, 120, 130)
	carColor     = RGB8(200, 80, 80)
	machineColor = RGB8(218, 165, 152)
	debrisColor  = RGB8(180, 180, 190)
	portalColor  = RGB8(180, 140, 255)
	nightSky     = RGB8(30, 30, 50)
)

// CrashScene drives a car into the parked vending machine. The impact throws
// debris and shakes the camera; a portal then opens over the machine and the
// scene exits with a white flash.
type CrashScene struct {
	sceneBase
	cfg CrashConfig

	car    *Body
	kernel Kernel
	debris *ParticlePool
	motes  *ParticlePool
	effect *FlashEffect

	hit        bool
	crashTimer int
	shake      float64

	portal PortalView
}

// NewCrashScene validates cfg and builds the scene.
func NewCrashScene(canvas CanvasConfig, cfg CrashConfig, opts SceneOptions) (*CrashScene, error) {
	if err := errors.Join(cfg.validate()...); err != nil {
		return nil, err
	}
	base, err := newSceneBase(SceneCrash, canvas, opts)
	if err != nil {
		return nil, err
	}
	s := &CrashScene{sceneBase: base, cfg: cfg}

	if s.debris, err = s.newParticles(cfg.DebrisCap, "debris"); err != nil {
		return nil, err
	}
	if s.motes, err = s.newParticles(cfg.PortalCap, "portal"); err != nil {
		return nil, err
	}
	if s.effect, err = NewFlashEffect(cfg.Flash.Up, cfg.Flash.Hold, cfg.Flash.Down); err != nil {
		return nil, fmt.Errorf("crash flash: %w", err)
	}

	s.kernel = s.particleKernel()
	s.car = NewBody(Body{
		Kind:      BodyCar,
		Pos:       Vec2{cfg.CarStartX + cfg.CarSize.X/2, cfg.Road - cfg.CarSize.Y/2},
		Vel:       Vec2{cfg.CarSpeed * canvas.ReferenceRate, 0},
		Size:      cfg.CarSize.X,
		Color:     carColor,
		Kinematic: true,
	})
	s.portal.Center = cfg.PortalCenter
	return s, nil
}

// carBounds returns the car's rectangle.
func (s *CrashScene) carBounds() Rect {
	w, h := s.cfg.CarSize.X, s.cfg.CarSize.Y
	return Rect{X: s.car.Pos.X - w/2, Y: s.car.Pos.Y - h/2, Width: w, Height: h}
}

// Update implements Scene.
func (s *CrashScene) Update(dt float64) {
	if !s.begin(dt) {
		return
	}
	frames := s.frames(dt)

	if !s.hit {
		if _, err := s.kernel.IntegrateBody(s.car, dt); err != nil {
			s.logger.Warn("car fault", "entity", "car", "err", err)
		}
		if s.carBounds().Intersects(s.cfg.Machine) {
			s.impact()
		}
	} else {
		s.crashTimer++
		if s.crashTimer < s.cfg.ShakeRamp {
			s.shake = s.cfg.Shake * float64(s.cfg.ShakeRamp-s.crashTimer) / float64(s.cfg.ShakeRamp)
		} else {
			s.shake *= math.Pow(s.cfg.ShakeDecay, frames)
		}
		if s.crashTimer > s.cfg.PortalDelay {
			s.portal.Active = true
			s.portal.Size += s.cfg.PortalGrowth * dt
			s.portal.Rotation += s.cfg.PortalSpin * dt
			if s.portal.Size > s.cfg.PortalMin && s.chance(s.cfg.PortalRate, dt) {
				s.spawnMote()
			}
		}
	}

	s.debris.UpdateAll(s.kernel, dt)
	s.motes.UpdateAll(s.kernel, dt)
	s.debris.CullDead()
	s.motes.CullDead()
}

// impact stops the car against the machine and throws debris.
func (s *CrashScene) impact() {
	s.hit = true
	s.car.Vel = Vec2{}
	s.car.Pos.X = s.cfg.Machine.X - s.cfg.CarSize.X/2
	s.shake = s.cfg.Shake

	point := Vec2{s.cfg.Machine.X, s.cfg.Road - s.cfg.CarSize.Y/2}
	n := min(s.cfg.DebrisBurst, s.debris.Cap()-s.debris.Len())
	for range n {
		s.debris.Spawn(Particle{
			Kind: ParticleDebris,
			Pos:  point,
			Vel: Vec2{
				X: Spread(s.rng, s.cfg.DebrisSpeed.X),
				Y: Spread(s.rng, s.cfg.DebrisSpeed.Y) - s.cfg.DebrisLift,
			},
			Life:     s.cfg.DebrisLife.Rand(s.rng),
			Size:     3 + s.rng.Float64()*5,
			Color:    debrisColor,
			Spin:     Spread(s.rng, 10),
			Decay:    2,
			Gravity:  s.cfg.Gravity / s.ref,
			Drag:     Vec2{X: 0.95},
			Rotation: s.rng.Float64() * 2 * math.Pi,
		})
	}
	s.emit(EventImpact, point, "")
	s.logger.Info("car hit machine", "tick", s.ticks, "debris", n)
}

// spawnMote adds a portal particle somewhere inside the portal that spirals
// into its center.
func (s *CrashScene) spawnMote() {
	angle := s.rng.Float64() * 2 * math.Pi
	dist := s.rng.Float64() * s.portal.Size * 0.8
	dir := Vec2{math.Cos(angle), math.Sin(angle)}
	speed := s.cfg.PortalSpeed.Rand(s.rng)
	s.motes.Spawn(Particle{
		Kind:       ParticlePortal,
		Pos:        s.portal.Center.Add(dir.Scale(dist)),
		Vel:        dir.Scale(-speed),
		Life:       1,
		MaxLife:    1,
		Size:       2 + s.rng.Float64()*3,
		Color:      portalColor,
		Decay:      2,
		Focus:      s.portal.Center,
		Attraction: s.cfg.PortalPull,
	})
}

// Hit reports whether the car has struck the machine.
func (s *CrashScene) Hit() bool { return s.hit }

// CrashTimer is the number of ticks since impact.
func (s *CrashScene) CrashTimer() int { return s.crashTimer }

// Shake returns the current shake amplitude.
func (s *CrashScene) Shake() float64 { return s.shake }

// Debris returns the debris pool.
func (s *CrashScene) Debris() *ParticlePool { return s.debris }

// Motes returns the portal particle pool.
func (s *CrashScene) Motes() *ParticlePool { return s.motes }

// Portal returns the portal state.
func (s *CrashScene) Portal() PortalView { return s.portal }

// EvaluateTrigger implements Scene.
func (s *CrashScene) EvaluateTrigger() bool {
	return s.hit && s.crashTimer >= s.cfg.TriggerTicks
}

// ExitEffect implements Scene.
func (s *CrashScene) ExitEffect() ExitEffect { return s.effect }

// Snapshot implements Scene.
func (s *CrashScene) Snapshot(f *Frame) {
	s.snapshotBase(f)
	f.Background = nightSky
	f.Props = append(f.Props,
		PropView{Kind: PropRoad, Bounds: Rect{X: 0, Y: s.cfg.Road, Width: s.width, Height: s.height - s.cfg.Road}, Color: roadColor},
		PropView{Kind: PropCar, Bounds: s.carBounds(), Color: carColor},
	)
	m := s.cfg.Machine
	f.Hero = HeroView{
		Pos:     m.Center(),
		Scale:   1,
		Size:    Vec2{m.Width, m.Height},
		Color:   machineColor,
		Visible: true,
	}
	if s.hit {
		// The machine tips slightly while the shake lasts.
		f.Hero.Rotation = s.shake * 0.004
	}
	f.AppendParticles(s.debris)
	f.AppendParticles(s.motes)
	f.Portal = s.portal
	f.Shake = s.shake
	if s.cfg.TriggerTicks > 0 && s.hit {
		f.Progress = clamp(float64(s.crashTimer)/float64(s.cfg.TriggerTicks), 0, 1)
	}
	f.Caption = "BEFOREBORN"
}
