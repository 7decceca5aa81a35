package vendfall

import (
	"errors"
	"fmt"
	"math"

	"github.com/tanema/gween/ease"
)

var (
	skyColor    = RGB8(176, 196, 222)
	groundColor = RGB8(101, 134, 118)
	rainColor   = RGB8(173, 216, 230).WithAlpha(0.6)
	dustColor   = RGB8(255, 255, 255).WithAlpha(0.4)
)

// SkyfallScene shows the machine from above as it tumbles through layered
// clouds toward the ground. It has no body physics: a fall-progress scalar
// drives pose, scale, shake and cloud dispersal.
type SkyfallScene struct {
	sceneBase
	cfg SkyfallConfig

	progress float64
	spin     float64
	hero     HeroView
	shake    float64

	groundAlpha float64
	groundFade  *TweenGroup

	clouds   *CloudPool
	ambient  *ParticlePool
	kernel   Kernel
	effect   *DelayEffect
	disperse int
}

// NewSkyfallScene validates cfg and builds the scene with its cloud layers.
func NewSkyfallScene(canvas CanvasConfig, cfg SkyfallConfig, opts SceneOptions) (*SkyfallScene, error) {
	if err := errors.Join(cfg.validate()...); err != nil {
		return nil, err
	}
	base, err := newSceneBase(SceneSkyfall, canvas, opts)
	if err != nil {
		return nil, err
	}
	s := &SkyfallScene{sceneBase: base, cfg: cfg, spin: cfg.Spin}
	if s.clouds, err = NewCloudPool(cfg.CloudCap, canvas.ReferenceRate); err != nil {
		return nil, fmt.Errorf("skyfall clouds: %w", err)
	}
	s.track("clouds", s.clouds.Stats)
	if s.ambient, err = s.newParticles(cfg.ParticleCap, "ambient"); err != nil {
		return nil, err
	}
	if s.effect, err = NewDelayEffect(cfg.Delay); err != nil {
		return nil, err
	}
	s.kernel = s.particleKernel()
	s.hero = HeroView{
		Pos:     Vec2{s.width / 2, s.height / 2},
		Scale:   1.2,
		Size:    Vec2{80, 120},
		Color:   machineColor,
		Visible: true,
	}
	s.seedClouds()
	return s, nil
}

func (s *SkyfallScene) seedClouds() {
	center := s.hero.Pos
	for layer := 0; layer < s.cfg.CloudLayers; layer++ {
		for i := 0; i < s.cfg.CloudsPerLayer; i++ {
			angle := float64(i)/float64(s.cfg.CloudsPerLayer)*2*math.Pi + float64(layer)*0.4
			dist := 120 + float64(layer)*80 + s.rng.Float64()*60
			s.spawnCloud(Vec2{
				X: center.X + math.Cos(angle)*dist,
				Y: center.Y + math.Sin(angle)*dist*0.7,
			}, layer)
		}
	}
	for i := 0; i < s.cfg.BackClouds; i++ {
		s.spawnCloud(Vec2{s.rng.Float64() * s.width, s.rng.Float64() * s.height}, 2)
	}
}

func (s *SkyfallScene) spawnCloud(pos Vec2, layer int) {
	size := 60 + s.rng.Float64()*60 - float64(layer)*10
	s.clouds.Spawn(Cloud{
		Pos:          pos,
		Size:         size,
		Opacity:      0.5 + s.rng.Float64()*0.3,
		Layer:        layer,
		Sway:         0.2 + s.rng.Float64()*0.3,
		Phase:        s.rng.Float64() * 2 * math.Pi,
		Breathe:      0.05,
		DisperseRate: 8,
		Expansion:    2.4,
		FadeAccel:    3.0 / 255,
	})
}

// Update implements Scene.
func (s *SkyfallScene) Update(dt float64) {
	if !s.begin(dt) {
		return
	}
	frames := s.frames(dt)

	s.progress += s.cfg.FallRate * frames
	fp := math.Min(s.progress, 1)

	s.hero.Rotation += s.spin * frames
	s.spin *= math.Pow(s.cfg.SpinDecay, frames)
	s.hero.Pos.X += math.Sin(fp*math.Pi*8) * 3.2 * frames
	s.hero.Pos.Y += math.Cos(fp*math.Pi*5.2) * 2 * frames
	s.hero.Scale = math.Max(0.05, 1.2-fp*1.1)

	if fp > s.cfg.ShakeFrom {
		s.shake = (fp - s.cfg.ShakeFrom) * s.cfg.ShakeGain
	}
	if s.groundFade == nil && fp >= 0.5 && s.cfg.GroundFade > 0 {
		s.groundFade = TweenValue(&s.groundAlpha, s.groundAlpha, 1, float32(s.cfg.GroundFade), ease.InQuad)
	}
	s.groundFade.Update(float32(frames))

	if fp < s.cfg.DisperseBefore {
		s.disperse += s.clouds.DisperseNear(s.hero.Pos, s.cfg.DisperseRadius, 2)
	}
	s.clouds.UpdateAll(dt)
	s.clouds.CullDead()

	s.ambient.UpdateAll(s.kernel, dt)
	s.ambient.Each(func(p *Particle) {
		if p.Kind == ParticleRain && p.Pos.Y > s.height {
			p.Life = 0
		}
	})
	s.ambient.CullDead()
	s.refill()
}

// refill keeps the ambient motes and rain at their fixed counts.
func (s *SkyfallScene) refill() {
	for s.ambient.CountKind(ParticleDust) < s.cfg.AmbientCount {
		if _, ok := s.ambient.Spawn(Particle{
			Kind:  ParticleDust,
			Pos:   Vec2{s.rng.Float64() * s.width, s.rng.Float64() * s.height},
			Vel:   Vec2{Spread(s.rng, 0.5), Spread(s.rng, 0.5) - 0.3},
			Life:  1 + s.rng.Float64()*2,
			Size:  1 + s.rng.Float64()*2,
			Color: dustColor,
			Decay: 1,
		}); !ok {
			break
		}
	}
	for s.ambient.CountKind(ParticleRain) < s.cfg.RainCount {
		if _, ok := s.ambient.Spawn(Particle{
			Kind:  ParticleRain,
			Pos:   Vec2{s.rng.Float64() * s.width, -s.rng.Float64() * s.height * 0.5},
			Vel:   Vec2{0.5, 8 + s.rng.Float64()*4},
			Life:  1,
			Size:  8 + s.rng.Float64()*8,
			Color: rainColor,
		}); !ok {
			break
		}
	}
}

// Progress returns the fall progress; it passes 1 when the machine lands.
func (s *SkyfallScene) Progress() float64 { return s.progress }

// Hero returns the machine pose.
func (s *SkyfallScene) Hero() HeroView { return s.hero }

// Clouds returns the cloud pool.
func (s *SkyfallScene) Clouds() *CloudPool { return s.clouds }

// Ambient returns the ambient particle pool.
func (s *SkyfallScene) Ambient() *ParticlePool { return s.ambient }

// Dispersed returns how many clouds the machine has broken through.
func (s *SkyfallScene) Dispersed() int { return s.disperse }

// EvaluateTrigger implements Scene.
func (s *SkyfallScene) EvaluateTrigger() bool { return s.progress >= 1 }

// ExitEffect implements Scene.
func (s *SkyfallScene) ExitEffect() ExitEffect { return s.effect }

// Snapshot implements Scene.
func (s *SkyfallScene) Snapshot(f *Frame) {
	s.snapshotBase(f)
	f.Background = skyColor
	if s.groundAlpha > 0 {
		f.Props = append(f.Props, PropView{
			Kind:   PropGround,
			Bounds: Rect{Width: s.width, Height: s.height},
			Color:  groundColor.WithAlpha(clamp(s.groundAlpha, 0, 1)),
		})
	}
	f.Hero = s.hero
	f.AppendClouds(s.clouds)
	f.AppendParticles(s.ambient)
	f.Shake = s.shake
	f.Progress = clamp(s.progress, 0, 1)
	f.Caption = "FALLING"
}
