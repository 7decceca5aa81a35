package vendfall

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed scenes.yaml
var defaultScenesYAML []byte

// Config holds the tuning for every scene in the sequence. Tick counts and
// "per frame" rates are in reference frames (see CanvasConfig.ReferenceRate).
type Config struct {
	Canvas    CanvasConfig    `yaml:"canvas"`
	Clock     ClockConfig     `yaml:"clock"`
	Crash     CrashConfig     `yaml:"crash"`
	Skyfall   SkyfallConfig   `yaml:"skyfall"`
	Sideview  SideviewConfig  `yaml:"sideview"`
	Dispenser DispenserConfig `yaml:"dispenser"`
	Sequence  []SceneKind     `yaml:"sequence"`
}

// CanvasConfig is the fixed drawing area shared by every scene.
type CanvasConfig struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	ReferenceRate float64 `yaml:"reference_rate"`
}

// ClockConfig bounds the per-tick delta in seconds.
type ClockConfig struct {
	MinDt float64 `yaml:"min_dt"`
	MaxDt float64 `yaml:"max_dt"`
}

// FlashConfig is a flash exit effect in ticks.
type FlashConfig struct {
	Up   int `yaml:"up"`
	Hold int `yaml:"hold"`
	Down int `yaml:"down"`
}

// DurationRange is a randomized interval.
type DurationRange struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// Rand returns a duration in [Min, Max].
func (r DurationRange) Rand(rng *rand.Rand) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rng.Int64N(int64(r.Max-r.Min)+1))
}

// CrashConfig tunes the car crash and portal scene.
type CrashConfig struct {
	CarStartX    float64     `yaml:"car_start_x"`
	CarSpeed     float64     `yaml:"car_speed"`
	CarSize      Vec2        `yaml:"car_size"`
	Road         float64     `yaml:"road"`
	Machine      Rect        `yaml:"machine"`
	DebrisCap    int         `yaml:"debris_cap"`
	DebrisBurst  int         `yaml:"debris_burst"`
	DebrisSpeed  Vec2        `yaml:"debris_speed"`
	DebrisLift   float64     `yaml:"debris_lift"`
	DebrisLife   Range       `yaml:"debris_life"`
	Gravity      float64     `yaml:"gravity"`
	Shake        float64     `yaml:"shake"`
	ShakeRamp    int         `yaml:"shake_ramp"`
	ShakeDecay   float64     `yaml:"shake_decay"`
	PortalDelay  int         `yaml:"portal_delay"`
	PortalCenter Vec2        `yaml:"portal_center"`
	PortalGrowth float64     `yaml:"portal_growth"`
	PortalSpin   float64     `yaml:"portal_spin"`
	PortalCap    int         `yaml:"portal_cap"`
	PortalRate   float64     `yaml:"portal_rate"`
	PortalMin    float64     `yaml:"portal_min"`
	PortalPull   float64     `yaml:"portal_pull"`
	PortalSpeed  Range       `yaml:"portal_speed"`
	TriggerTicks int         `yaml:"trigger_ticks"`
	Flash        FlashConfig `yaml:"flash"`
}

// SkyfallConfig tunes the scene where the machine falls toward the camera.
type SkyfallConfig struct {
	FallRate       float64 `yaml:"fall_rate"`
	Spin           float64 `yaml:"spin"`
	SpinDecay      float64 `yaml:"spin_decay"`
	CloudLayers    int     `yaml:"cloud_layers"`
	CloudsPerLayer int     `yaml:"clouds_per_layer"`
	BackClouds     int     `yaml:"back_clouds"`
	CloudCap       int     `yaml:"cloud_cap"`
	DisperseRadius float64 `yaml:"disperse_radius"`
	DisperseBefore float64 `yaml:"disperse_before"`
	AmbientCount   int     `yaml:"ambient_count"`
	RainCount      int     `yaml:"rain_count"`
	ParticleCap    int     `yaml:"particle_cap"`
	ShakeFrom      float64 `yaml:"shake_from"`
	ShakeGain      float64 `yaml:"shake_gain"`
	GroundFade     int     `yaml:"ground_fade"`
	Delay          int     `yaml:"delay"`
}

// SideviewConfig tunes the side-on landing scene.
type SideviewConfig struct {
	Gravity     float64 `yaml:"gravity"`
	Floor       float64 `yaml:"floor"`
	StartY      float64 `yaml:"start_y"`
	HeroSize    Vec2    `yaml:"hero_size"`
	Bounciness  float64 `yaml:"bounciness"`
	Friction    float64 `yaml:"friction"`
	SettleSpeed float64 `yaml:"settle_speed"`
	LandedTicks int     `yaml:"landed_ticks"`
	Clouds      int     `yaml:"clouds"`
	MaxClouds   int     `yaml:"max_clouds"`
	CloudChance float64 `yaml:"cloud_chance"`
	RainCount   int     `yaml:"rain_count"`
	PortalBurst int     `yaml:"portal_burst"`
	CrashBurst  int     `yaml:"crash_burst"`
	ParticleCap int     `yaml:"particle_cap"`
	Delay       int     `yaml:"delay"`
}

// DispenserConfig tunes the terminal vending scene.
type DispenserConfig struct {
	Floor           float64       `yaml:"floor"`
	MachineSize     Vec2          `yaml:"machine_size"`
	MachineStartY   float64       `yaml:"machine_start_y"`
	MachineOverlap  float64       `yaml:"machine_overlap"`
	MachineGravity  float64       `yaml:"machine_gravity"`
	MachineBounce   float64       `yaml:"machine_bounce"`
	MachineSettle   float64       `yaml:"machine_settle"`
	LandingBurst    int           `yaml:"landing_burst"`
	Interval        DurationRange `yaml:"interval"`
	Slot            Rect          `yaml:"slot"`
	ItemCap         int           `yaml:"item_cap"`
	ItemGravity     float64       `yaml:"item_gravity"`
	ItemSize        Range         `yaml:"item_size"`
	ItemFall        Range         `yaml:"item_fall"`
	ItemSway        float64       `yaml:"item_sway"`
	ItemSpin        float64       `yaml:"item_spin"`
	ItemBounce      float64       `yaml:"item_bounce"`
	ItemFriction    float64       `yaml:"item_friction"`
	SettleSpeed     float64       `yaml:"settle_speed"`
	GroundDamping   float64       `yaml:"ground_damping"`
	RestSpeed       float64       `yaml:"rest_speed"`
	SpinDamping     float64       `yaml:"spin_damping"`
	CollisionLoss   float64       `yaml:"collision_loss"`
	Sparkles        int           `yaml:"sparkles"`
	AmbientChance   float64       `yaml:"ambient_chance"`
	ParticleCap     int           `yaml:"particle_cap"`
	WeatherFirst    int           `yaml:"weather_first"`
	WeatherInterval Range         `yaml:"weather_interval"`
	WeatherBurst    int           `yaml:"weather_burst"`
	Weathers        []string      `yaml:"weathers"`
	GiftWeather     string        `yaml:"gift_weather"`
	GiftChance      float64       `yaml:"gift_chance"`
	GiftCap         int           `yaml:"gift_cap"`
	GiftGravity     float64       `yaml:"gift_gravity"`
	GiftBounce      float64       `yaml:"gift_bounce"`
	GiftFriction    float64       `yaml:"gift_friction"`
	GiftSettle      float64       `yaml:"gift_settle"`
}

// DefaultConfig returns the embedded tuning.
func DefaultConfig() (*Config, error) {
	return LoadConfig(nil)
}

// LoadConfig parses YAML tuning on top of the embedded defaults and
// validates the result.
func LoadConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultScenesYAML, &cfg); err != nil {
		return nil, fmt.Errorf("parse embedded scenes.yaml: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse scene config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		bad("canvas %vx%v", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.ReferenceRate <= 0 {
		bad("canvas.reference_rate %v", c.Canvas.ReferenceRate)
	}
	if c.Clock.MinDt <= 0 || c.Clock.MaxDt <= 0 || c.Clock.MinDt > c.Clock.MaxDt {
		bad("clock [%v, %v]", c.Clock.MinDt, c.Clock.MaxDt)
	}
	if len(c.Sequence) == 0 {
		bad("sequence is empty")
	}
	for i, k := range c.Sequence {
		if !k.valid() {
			bad("sequence[%d] %v", i, k)
		}
	}

	errs = append(errs, c.Crash.validate()...)
	errs = append(errs, c.Skyfall.validate()...)
	errs = append(errs, c.Sideview.validate(c.Canvas)...)
	errs = append(errs, c.Dispenser.validate(c.Canvas)...)
	return errors.Join(errs...)
}

type checker struct {
	section string
	errs    []error
}

func (c *checker) positive(name string, v float64) {
	if !(v > 0) || !isFinite(v) {
		c.errs = append(c.errs, fmt.Errorf("%w: %s.%s must be positive, got %v", ErrInvalidConfig, c.section, name, v))
	}
}

// floor requires a ground line inside the canvas.
func (c *checker) floor(canvas CanvasConfig, v float64) {
	if !(v > 0) || v > canvas.Height {
		c.errs = append(c.errs, fmt.Errorf("%w: %s.floor %v outside canvas height %v", ErrInvalidConfig, c.section, v, canvas.Height))
	}
}

func (c *checker) capacity(name string, v int) {
	if v <= 0 {
		c.errs = append(c.errs, fmt.Errorf("%w: %s.%s capacity must be positive, got %d", ErrInvalidConfig, c.section, name, v))
	}
}

func (c *checker) ticks(name string, v int) {
	if v < 0 {
		c.errs = append(c.errs, fmt.Errorf("%w: %s.%s must not be negative, got %d", ErrInvalidConfig, c.section, name, v))
	}
}

func (c *checker) unit(name string, v float64) {
	if !(v > 0 && v < 1) {
		c.errs = append(c.errs, fmt.Errorf("%w: %s.%s must be in (0, 1), got %v", ErrInvalidConfig, c.section, name, v))
	}
}

func (c *checker) fraction(name string, v float64) {
	if !(v >= 0 && v <= 1) {
		c.errs = append(c.errs, fmt.Errorf("%w: %s.%s must be in [0, 1], got %v", ErrInvalidConfig, c.section, name, v))
	}
}

func (c *checker) span(name string, r Range) {
	if !isFinite(r.Min) || !isFinite(r.Max) || r.Min > r.Max {
		c.errs = append(c.errs, fmt.Errorf("%w: %s.%s range [%v, %v]", ErrInvalidConfig, c.section, name, r.Min, r.Max))
	}
}

func (c *checker) flash(f FlashConfig) {
	c.ticks("flash.up", f.Up)
	c.ticks("flash.hold", f.Hold)
	c.ticks("flash.down", f.Down)
}

func (c CrashConfig) validate() []error {
	ck := checker{section: "crash"}
	ck.positive("car_speed", c.CarSpeed)
	ck.positive("car_size.x", c.CarSize.X)
	ck.positive("car_size.y", c.CarSize.Y)
	ck.positive("machine.width", c.Machine.Width)
	ck.positive("machine.height", c.Machine.Height)
	ck.capacity("debris_cap", c.DebrisCap)
	ck.capacity("portal_cap", c.PortalCap)
	ck.ticks("debris_burst", c.DebrisBurst)
	ck.span("debris_life", c.DebrisLife)
	ck.span("portal_speed", c.PortalSpeed)
	ck.unit("shake_decay", c.ShakeDecay)
	ck.ticks("shake_ramp", c.ShakeRamp)
	ck.ticks("portal_delay", c.PortalDelay)
	ck.ticks("trigger_ticks", c.TriggerTicks)
	ck.flash(c.Flash)
	return ck.errs
}

func (c SkyfallConfig) validate() []error {
	ck := checker{section: "skyfall"}
	ck.positive("fall_rate", c.FallRate)
	ck.unit("spin_decay", c.SpinDecay)
	ck.capacity("cloud_cap", c.CloudCap)
	ck.capacity("particle_cap", c.ParticleCap)
	ck.ticks("cloud_layers", c.CloudLayers)
	ck.ticks("clouds_per_layer", c.CloudsPerLayer)
	ck.ticks("back_clouds", c.BackClouds)
	ck.ticks("ambient_count", c.AmbientCount)
	ck.ticks("rain_count", c.RainCount)
	ck.fraction("disperse_before", c.DisperseBefore)
	ck.fraction("shake_from", c.ShakeFrom)
	ck.ticks("ground_fade", c.GroundFade)
	ck.ticks("delay", c.Delay)
	return ck.errs
}

func (c SideviewConfig) validate(canvas CanvasConfig) []error {
	ck := checker{section: "sideview"}
	ck.floor(canvas, c.Floor)
	if !(c.StartY+c.HeroSize.Y/2 < c.Floor) {
		ck.errs = append(ck.errs, fmt.Errorf("%w: sideview.start_y %v must leave the hero above floor %v", ErrInvalidConfig, c.StartY, c.Floor))
	}
	ck.positive("gravity", c.Gravity)
	ck.positive("hero_size.x", c.HeroSize.X)
	ck.positive("hero_size.y", c.HeroSize.Y)
	ck.unit("bounciness", c.Bounciness)
	ck.unit("friction", c.Friction)
	ck.positive("settle_speed", c.SettleSpeed)
	ck.capacity("particle_cap", c.ParticleCap)
	ck.capacity("max_clouds", c.MaxClouds)
	ck.ticks("landed_ticks", c.LandedTicks)
	ck.ticks("clouds", c.Clouds)
	ck.ticks("rain_count", c.RainCount)
	ck.fraction("cloud_chance", c.CloudChance)
	ck.ticks("delay", c.Delay)
	return ck.errs
}

func (c DispenserConfig) validate(canvas CanvasConfig) []error {
	ck := checker{section: "dispenser"}
	ck.floor(canvas, c.Floor)
	if !(c.MachineStartY+c.MachineSize.Y < c.Floor+c.MachineOverlap) {
		ck.errs = append(ck.errs, fmt.Errorf("%w: dispenser.machine_start_y %v must leave the machine above floor %v", ErrInvalidConfig, c.MachineStartY, c.Floor))
	}
	ck.positive("machine_size.x", c.MachineSize.X)
	ck.positive("machine_size.y", c.MachineSize.Y)
	ck.positive("machine_gravity", c.MachineGravity)
	ck.unit("machine_bounce", c.MachineBounce)
	ck.positive("machine_settle", c.MachineSettle)
	ck.capacity("item_cap", c.ItemCap)
	ck.capacity("particle_cap", c.ParticleCap)
	ck.capacity("gift_cap", c.GiftCap)
	ck.positive("item_gravity", c.ItemGravity)
	ck.span("item_size", c.ItemSize)
	ck.span("item_fall", c.ItemFall)
	ck.span("weather_interval", c.WeatherInterval)
	ck.unit("item_bounce", c.ItemBounce)
	ck.unit("item_friction", c.ItemFriction)
	ck.unit("ground_damping", c.GroundDamping)
	ck.unit("spin_damping", c.SpinDamping)
	ck.unit("collision_loss", c.CollisionLoss)
	ck.unit("gift_bounce", c.GiftBounce)
	ck.unit("gift_friction", c.GiftFriction)
	ck.positive("gift_gravity", c.GiftGravity)
	ck.fraction("ambient_chance", c.AmbientChance)
	ck.fraction("gift_chance", c.GiftChance)
	ck.ticks("sparkles", c.Sparkles)
	ck.ticks("landing_burst", c.LandingBurst)
	ck.ticks("weather_first", c.WeatherFirst)
	ck.ticks("weather_burst", c.WeatherBurst)
	if c.ItemSize.Min <= 0 {
		ck.positive("item_size.min", c.ItemSize.Min)
	}
	if c.Interval.Min <= 0 || c.Interval.Max < c.Interval.Min {
		ck.errs = append(ck.errs, fmt.Errorf("%w: dispenser.interval [%v, %v]", ErrInvalidConfig, c.Interval.Min, c.Interval.Max))
	}
	if len(c.Weathers) == 0 {
		ck.errs = append(ck.errs, fmt.Errorf("%w: dispenser.weathers is empty", ErrInvalidConfig))
	}
	seen := make(map[string]bool, len(c.Weathers))
	for i, w := range c.Weathers {
		if w == "" || seen[w] {
			ck.errs = append(ck.errs, fmt.Errorf("%w: dispenser.weathers[%d] %q is empty or repeated", ErrInvalidConfig, i, w))
		}
		seen[w] = true
	}
	return ck.errs
}
