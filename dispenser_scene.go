package vendfall

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tanema/gween/ease"
)

// lofiPalette is the item, burst and gift palette.
var lofiPalette = []Color{
	RGB8(255, 154, 158), // pink
	RGB8(255, 206, 239), // light pink
	RGB8(163, 196, 243), // light blue
	RGB8(144, 219, 244), // sky blue
	RGB8(255, 183, 197), // rose
	RGB8(207, 186, 240), // lavender
	RGB8(255, 218, 193), // peach
	RGB8(181, 234, 215), // mint
	RGB8(255, 223, 186), // cream
	RGB8(186, 225, 255), // baby blue
}

var moteColor = RGB8(255, 255, 255).WithAlpha(0.4)

// skyFadeFrames is the sky cross-fade length after a weather change.
const skyFadeFrames = 90

// DispenserScene is the last scene: the machine drops onto the floor and then
// dispenses drinks forever, on a timer and on demand. Drinks and gift boxes
// are kernel bodies that bounce, slide and collide with each other. It never
// triggers a transition.
type DispenserScene struct {
	sceneBase
	cfg DispenserConfig

	machine       *Body
	machineKernel Kernel
	landed        bool

	items      *BodyPool
	itemKernel Kernel
	gifts      *BodyPool
	giftKernel Kernel

	particles *ParticlePool
	kernel    Kernel
	effect    *DelayEffect

	untilDispense time.Duration
	dispensed     int
	collisions    int

	weather      string
	weatherIdx   int
	sky          Color
	skyFade      *TweenGroup
	weatherTimer float64
	weatherSpan  float64
	weatherCount int
}

// NewDispenserScene validates cfg and builds the scene.
func NewDispenserScene(canvas CanvasConfig, cfg DispenserConfig, opts SceneOptions) (*DispenserScene, error) {
	if err := errors.Join(cfg.validate(canvas)...); err != nil {
		return nil, err
	}
	base, err := newSceneBase(SceneDispenser, canvas, opts)
	if err != nil {
		return nil, err
	}
	s := &DispenserScene{sceneBase: base, cfg: cfg}

	if s.items, err = NewBodyPool(cfg.ItemCap, s.logger.With("entity", "item")); err != nil {
		return nil, fmt.Errorf("dispenser items: %w", err)
	}
	if s.gifts, err = NewBodyPool(cfg.GiftCap, s.logger.With("entity", "gift")); err != nil {
		return nil, fmt.Errorf("dispenser gifts: %w", err)
	}
	s.track("items", s.items.Stats)
	s.track("gifts", s.gifts.Stats)
	if s.particles, err = s.newParticles(cfg.ParticleCap, "particles"); err != nil {
		return nil, err
	}
	s.effect = &DelayEffect{}
	s.kernel = s.particleKernel()

	s.machineKernel = Kernel{
		Gravity:       cfg.MachineGravity,
		ReferenceRate: canvas.ReferenceRate,
		Floor:         cfg.Floor + cfg.MachineOverlap,
		Left:          0,
		Right:         canvas.Width,
		SettleSpeed:   cfg.MachineSettle,
	}
	s.itemKernel = Kernel{
		Gravity:       cfg.ItemGravity,
		ReferenceRate: canvas.ReferenceRate,
		Floor:         cfg.Floor,
		Left:          0,
		Right:         canvas.Width,
		SettleSpeed:   cfg.SettleSpeed,
		GroundDamping: cfg.GroundDamping,
		RestSpeed:     cfg.RestSpeed,
		SpinDamping:   cfg.SpinDamping,
		CollisionLoss: cfg.CollisionLoss,
	}
	s.giftKernel = s.itemKernel
	s.giftKernel.Gravity = cfg.GiftGravity
	s.giftKernel.SettleSpeed = cfg.GiftSettle
	for _, k := range []Kernel{s.machineKernel, s.itemKernel, s.giftKernel} {
		if err := k.Validate(); err != nil {
			return nil, fmt.Errorf("dispenser kernel: %w", err)
		}
	}

	s.machine = NewBody(Body{
		Kind:       BodyMachine,
		Pos:        Vec2{canvas.Width / 2, cfg.MachineStartY + cfg.MachineSize.Y/2},
		Size:       cfg.MachineSize.Y,
		Bounciness: cfg.MachineBounce,
		Friction:   1,
		Color:      machineColor,
	})
	s.weatherIdx = s.rng.IntN(len(cfg.Weathers))
	s.weather = cfg.Weathers[s.weatherIdx]
	s.sky = weatherSky(s.weather)
	s.weatherSpan = float64(cfg.WeatherFirst)
	return s, nil
}

// Update implements Scene.
func (s *DispenserScene) Update(dt float64) {
	if !s.begin(dt) {
		return
	}
	s.updateWeather(dt)
	s.skyFade.Update(float32(s.frames(dt)))

	if !s.landed {
		contact, err := s.machineKernel.IntegrateBody(s.machine, dt)
		if err != nil {
			s.logger.Warn("machine fault", "entity", "machine", "err", err)
		}
		if contact.Has(ContactLanded) {
			s.land()
		}
	} else {
		s.untilDispense -= time.Duration(dt * float64(time.Second))
		if s.untilDispense <= 0 {
			s.Dispense()
		}
		_, hits := s.items.UpdateAll(s.itemKernel, dt)
		s.collisions += hits
		s.items.CullOffscreen(s.view())
	}

	if s.weather == s.cfg.GiftWeather && s.chance(s.cfg.GiftChance, dt) {
		s.dropGift()
	}
	s.gifts.UpdateAll(s.giftKernel, dt)
	s.gifts.CullOffscreen(s.view())

	s.particles.UpdateAll(s.kernel, dt)
	s.particles.CullDead()
	if s.chance(s.cfg.AmbientChance, dt) {
		s.particles.Spawn(Particle{
			Kind:  ParticleDust,
			Pos:   Vec2{s.rng.Float64() * s.width, s.rng.Float64() * s.height},
			Vel:   Vec2{Spread(s.rng, 1), Spread(s.rng, 1) - 1},
			Life:  1 + s.rng.Float64()*2,
			Size:  1 + s.rng.Float64()*3,
			Color: moteColor,
			Decay: 0.02 * s.ref,
		})
	}
}

func (s *DispenserScene) land() {
	s.landed = true
	s.untilDispense = s.cfg.Interval.Rand(s.rng)
	foot := Vec2{s.machine.Pos.X, s.machine.Pos.Y + s.machine.Size/2}
	for range s.cfg.LandingBurst {
		s.particles.Spawn(Particle{
			Kind:  ParticleSparkle,
			Pos:   Vec2{foot.X + Spread(s.rng, s.cfg.MachineSize.X/2), foot.Y},
			Vel:   Vec2{Spread(s.rng, 4), -2 - s.rng.Float64()*5},
			Life:  1 + s.rng.Float64()*2,
			Size:  2 + s.rng.Float64()*5,
			Color: s.pick(),
			Decay: 0.02 * s.ref,
		})
	}
	s.emit(EventLanded, foot, "")
	s.logger.Info("machine landed", "tick", s.ticks)
}

func (s *DispenserScene) updateWeather(dt float64) {
	s.weatherTimer += s.frames(dt)
	if s.weatherTimer < s.weatherSpan {
		return
	}
	prev := s.weather
	if n := len(s.cfg.Weathers); n > 1 {
		s.weatherIdx = (s.weatherIdx + 1 + s.rng.IntN(n-1)) % n
		s.weather = s.cfg.Weathers[s.weatherIdx]
		s.skyFade = TweenColor(&s.sky, s.sky, weatherSky(s.weather), skyFadeFrames, ease.InOutQuad)
	}
	s.weatherTimer = 0
	s.weatherSpan = s.cfg.WeatherInterval.Rand(s.rng)
	s.weatherCount++
	for range s.cfg.WeatherBurst {
		s.particles.Spawn(Particle{
			Kind:  ParticleSparkle,
			Pos:   Vec2{s.rng.Float64() * s.width, s.rng.Float64() * 200},
			Vel:   Vec2{Spread(s.rng, 3), Spread(s.rng, 2)},
			Life:  1 + s.rng.Float64()*2,
			Size:  2 + s.rng.Float64()*4,
			Color: s.pick(),
			Decay: 0.02 * s.ref,
		})
	}
	s.emit(EventWeather, Vec2{}, s.weather)
	s.logger.Info("weather changed", "from", prev, "to", s.weather)
}

// Dispense implements Dispenser. It drops one drink from the slot and
// reports false until the machine has landed.
func (s *DispenserScene) Dispense() bool {
	if !s.landed || s.stopped {
		return false
	}
	s.untilDispense = s.cfg.Interval.Rand(s.rng)

	slot := s.cfg.Slot
	pos := Vec2{slot.X + s.rng.Float64()*slot.Width, slot.Y + s.rng.Float64()*slot.Height}
	color := s.pick()
	s.items.Spawn(Body{
		Kind:       BodyItem,
		Pos:        pos,
		Vel:        Vec2{Spread(s.rng, s.cfg.ItemSway), s.cfg.ItemFall.Rand(s.rng)},
		Spin:       Spread(s.rng, s.cfg.ItemSpin),
		Size:       s.cfg.ItemSize.Rand(s.rng),
		Bounciness: s.cfg.ItemBounce,
		Friction:   s.cfg.ItemFriction,
		Color:      color,
	})
	for range s.cfg.Sparkles {
		s.particles.Spawn(Particle{
			Kind:  ParticleSparkle,
			Pos:   Vec2{slot.X + s.rng.Float64()*slot.Width, slot.Y + s.rng.Float64()*slot.Height},
			Vel:   Vec2{Spread(s.rng, 2.5), Spread(s.rng, 2) - 1},
			Life:  1 + s.rng.Float64()*2,
			Size:  1 + s.rng.Float64()*4,
			Color: color,
			Decay: 0.02 * s.ref,
		})
	}
	s.dispensed++
	s.emit(EventDispensed, pos, "")
	return true
}

func (s *DispenserScene) dropGift() {
	s.gifts.Spawn(Body{
		Kind:       BodyGift,
		Pos:        Vec2{s.rng.Float64() * s.width, -20},
		Vel:        Vec2{Spread(s.rng, 1.5) * s.ref, (1 + s.rng.Float64()*2) * s.ref},
		Spin:       Spread(s.rng, 0.075) * s.ref,
		Size:       15,
		Bounciness: s.cfg.GiftBounce,
		Friction:   s.cfg.GiftFriction,
		Color:      s.pick(),
	})
}

func (s *DispenserScene) view() Rect {
	return Rect{Width: s.width, Height: s.height}
}

func (s *DispenserScene) pick() Color {
	return lofiPalette[s.rng.IntN(len(lofiPalette))]
}

// Landed reports whether the machine has settled on the floor.
func (s *DispenserScene) Landed() bool { return s.landed }

// Machine returns the machine body.
func (s *DispenserScene) Machine() *Body { return s.machine }

// Items returns the dispensed drinks.
func (s *DispenserScene) Items() *BodyPool { return s.items }

// Gifts returns the gift boxes.
func (s *DispenserScene) Gifts() *BodyPool { return s.gifts }

// Particles returns the particle pool.
func (s *DispenserScene) Particles() *ParticlePool { return s.particles }

// Dispensed returns how many drinks have been dispensed.
func (s *DispenserScene) Dispensed() int { return s.dispensed }

// Collisions returns how many drink-drink collisions have been resolved.
func (s *DispenserScene) Collisions() int { return s.collisions }

// Sky returns the current sky tint, mid cross-fade after a weather change.
func (s *DispenserScene) Sky() Color { return s.sky }

// Weather returns the current weather name.
func (s *DispenserScene) Weather() string { return s.weather }

// WeatherChanges returns how many times the weather has changed.
func (s *DispenserScene) WeatherChanges() int { return s.weatherCount }

// EvaluateTrigger implements Scene. The dispenser is terminal.
func (s *DispenserScene) EvaluateTrigger() bool { return false }

// ExitEffect implements Scene.
func (s *DispenserScene) ExitEffect() ExitEffect { return s.effect }

// Snapshot implements Scene.
func (s *DispenserScene) Snapshot(f *Frame) {
	s.snapshotBase(f)
	f.Background = s.sky
	f.Props = append(f.Props, PropView{
		Kind:   PropGround,
		Bounds: Rect{X: 0, Y: s.cfg.Floor, Width: s.width, Height: s.height - s.cfg.Floor},
		Color:  RGB8(180, 160, 150),
	})
	f.Hero = HeroView{
		Pos:      s.machine.Pos,
		Scale:    1,
		Size:     s.cfg.MachineSize,
		Color:    s.machine.Color,
		OnGround: s.landed,
		Visible:  true,
	}
	f.AppendBodies(s.items)
	f.AppendBodies(s.gifts)
	f.AppendParticles(s.particles)
	f.Weather = s.weather
	if s.weatherSpan > 0 {
		f.Progress = clamp(s.weatherTimer/s.weatherSpan, 0, 1)
	}
	f.Caption = "TAO BIN"
}

// weatherSky returns the sky tint for a weather name.
func weatherSky(name string) Color {
	switch {
	case strings.Contains(name, "Night") || strings.Contains(name, "Starry"):
		return RGB8(40, 44, 80)
	case strings.Contains(name, "Rain") || strings.Contains(name, "Thunder"):
		return RGB8(120, 130, 150)
	case strings.Contains(name, "Snow"):
		return RGB8(220, 228, 240)
	case strings.Contains(name, "Sunset") || strings.Contains(name, "Dawn"):
		return RGB8(255, 180, 150)
	case strings.Contains(name, "Autumn"):
		return RGB8(230, 180, 130)
	case strings.Contains(name, "Spring"):
		return RGB8(200, 235, 200)
	default:
		return RGB8(200, 220, 255)
	}
}
