package vendfall

import (
	"errors"
	"log/slog"
	"testing"
)

type fakeSurface struct {
	w, h   int
	frames int
}

func (f *fakeSurface) Size() (int, int)    { return f.w, f.h }
func (f *fakeSurface) Render(*Frame) error { f.frames++; return nil }

func testOptions() SceneOptions {
	return SceneOptions{Logger: slog.New(slog.DiscardHandler), Rand: testRand()}
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func newTestScene(t *testing.T, kind SceneKind) Scene {
	t.Helper()
	s, err := NewScene(kind, testConfig(t), testOptions())
	if err != nil {
		t.Fatalf("NewScene(%v): %v", kind, err)
	}
	return s
}

func hasEvent(events []Event, kind EventKind) bool {
	for _, e := range events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func TestSceneAttach(t *testing.T) {
	for k := SceneCrash; k < sceneKindCount; k++ {
		t.Run(k.String(), func(t *testing.T) {
			s := newTestScene(t, k)
			if s.Kind() != k {
				t.Errorf("Kind = %v", s.Kind())
			}
			if err := s.AttachToSurface(nil); !errors.Is(err, ErrNoSurface) {
				t.Errorf("nil surface: err = %v", err)
			}
			surf := &fakeSurface{w: 600, h: 600}
			if err := s.AttachToSurface(surf); err != nil {
				t.Fatal(err)
			}
			if err := s.AttachToSurface(surf); !errors.Is(err, ErrAlreadyAttached) {
				t.Errorf("second attach: err = %v", err)
			}
			s.Start()
			s.Stop()
			if s.Surface() != nil {
				t.Error("stopped scene kept its surface")
			}
		})
	}
}

func TestSceneIDsUnique(t *testing.T) {
	a := newTestScene(t, SceneCrash)
	b := newTestScene(t, SceneCrash)
	if a.ID() == b.ID() {
		t.Error("two scenes share an ID")
	}
}

func TestSceneUpdateNeedsStart(t *testing.T) {
	s, _ := NewCrashScene(testConfig(t).Canvas, testConfig(t).Crash, testOptions())
	s.Update(dt60)
	if s.Ticks() != 0 {
		t.Errorf("ticks before start = %d", s.Ticks())
	}
	s.Start()
	s.Update(dt60)
	s.Stop()
	s.Update(dt60)
	if s.Ticks() != 1 {
		t.Errorf("ticks = %d, want 1", s.Ticks())
	}
}

func TestNewSceneRejects(t *testing.T) {
	cfg := testConfig(t)
	if _, err := NewScene(SceneCrash, nil, testOptions()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("nil config: err = %v", err)
	}
	if _, err := NewScene(SceneKind(9), cfg, testOptions()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("bad kind: err = %v", err)
	}
	bad := cfg.Crash
	bad.DebrisCap = 0
	if _, err := NewCrashScene(cfg.Canvas, bad, testOptions()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("bad crash config: err = %v", err)
	}
	if _, err := NewSkyfallScene(CanvasConfig{}, cfg.Skyfall, testOptions()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("bad canvas: err = %v", err)
	}
}

func TestCrashSceneTiming(t *testing.T) {
	cfg := testConfig(t)
	s, err := NewCrashScene(cfg.Canvas, cfg.Crash, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	s.Start()

	hitAt, triggerAt := 0, 0
	for tick := 1; tick <= 200 && triggerAt == 0; tick++ {
		s.Update(dt60)
		if s.Hit() && hitAt == 0 {
			hitAt = tick
			if s.Debris().Len() != cfg.Crash.DebrisBurst {
				t.Errorf("debris = %d, want %d", s.Debris().Len(), cfg.Crash.DebrisBurst)
			}
			if !hasEvent(s.events, EventImpact) {
				t.Error("no impact event")
			}
			assertNear(t, "shake", s.Shake(), cfg.Crash.Shake)
		}
		if s.EvaluateTrigger() {
			triggerAt = tick
		}
	}
	if hitAt != 32 {
		t.Errorf("hit at tick %d, want 32", hitAt)
	}
	if triggerAt != hitAt+cfg.Crash.TriggerTicks {
		t.Errorf("trigger at tick %d, want %d", triggerAt, hitAt+cfg.Crash.TriggerTicks)
	}
	if !s.Portal().Active {
		t.Error("portal not open by trigger time")
	}
	if s.Shake() >= cfg.Crash.Shake {
		t.Errorf("shake %v did not decay", s.Shake())
	}
	if s.ExitEffect().Duration() != 25 {
		t.Errorf("flash duration = %d, want 25", s.ExitEffect().Duration())
	}
}

func TestSkyfallSceneTrigger(t *testing.T) {
	cfg := testConfig(t)
	s, err := NewSkyfallScene(cfg.Canvas, cfg.Skyfall, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	startScale := s.Hero().Scale
	for tick := 1; tick <= 16; tick++ {
		s.Update(dt60)
		if s.EvaluateTrigger() {
			t.Fatalf("triggered early at tick %d", tick)
		}
	}
	s.Update(dt60)
	if !s.EvaluateTrigger() {
		t.Fatalf("not triggered at tick 17, progress %v", s.Progress())
	}
	if s.Hero().Scale >= startScale {
		t.Errorf("hero scale %v did not shrink from %v", s.Hero().Scale, startScale)
	}
	if n := s.Ambient().CountKind(ParticleDust); n != cfg.Skyfall.AmbientCount {
		t.Errorf("dust = %d, want %d", n, cfg.Skyfall.AmbientCount)
	}
	if n := s.Ambient().CountKind(ParticleRain); n != cfg.Skyfall.RainCount {
		t.Errorf("rain = %d, want %d", n, cfg.Skyfall.RainCount)
	}
	if s.Clouds().Len() > cfg.Skyfall.CloudCap {
		t.Errorf("clouds %d exceed cap", s.Clouds().Len())
	}
}

func TestSideviewSceneLands(t *testing.T) {
	cfg := testConfig(t)
	s, err := NewSideviewScene(cfg.Canvas, cfg.Sideview, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	s.Start()

	landed := false
	for tick := 1; tick <= 600 && !s.EvaluateTrigger(); tick++ {
		s.Update(dt60)
		if hasEvent(s.events, EventLanded) {
			landed = true
		}
	}
	if !s.EvaluateTrigger() {
		t.Fatal("machine never came to rest")
	}
	if !landed {
		t.Error("no landed event")
	}
	if s.Bounces() < 2 {
		t.Errorf("bounces = %d, want a few decaying bounces", s.Bounces())
	}
	rest := cfg.Sideview.Floor - cfg.Sideview.HeroSize.Y/2
	assertNear(t, "rest y", s.Hero().Pos.Y, rest)
	if s.Hero().Rotation != 0 {
		t.Errorf("rotation = %v after landing", s.Hero().Rotation)
	}
}

func TestDispenserScene(t *testing.T) {
	cfg := testConfig(t)
	s, err := NewDispenserScene(cfg.Canvas, cfg.Dispenser, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	if s.Dispense() {
		t.Error("dispensed before landing")
	}

	for tick := 1; tick <= 300 && !s.Landed(); tick++ {
		s.Update(dt60)
	}
	if !s.Landed() {
		t.Fatal("machine never landed")
	}
	rest := cfg.Dispenser.Floor + cfg.Dispenser.MachineOverlap - cfg.Dispenser.MachineSize.Y/2
	assertNear(t, "machine y", s.Machine().Pos.Y, rest)

	if !s.Dispense() {
		t.Fatal("Dispense rejected after landing")
	}
	if s.Dispensed() != 1 || s.Items().Len() != 1 {
		t.Errorf("dispensed %d, items %d", s.Dispensed(), s.Items().Len())
	}
	if !hasEvent(s.events, EventDispensed) {
		t.Error("no dispensed event")
	}

	// The interval timer keeps dispensing on its own.
	for range 60 {
		s.Update(dt60)
	}
	if s.Dispensed() < 2 {
		t.Errorf("dispensed = %d after one second, want timed drops", s.Dispensed())
	}
	if s.EvaluateTrigger() {
		t.Error("dispenser scene triggered")
	}
}

func TestDispenserItemsBounded(t *testing.T) {
	cfg := testConfig(t)
	s, _ := NewDispenserScene(cfg.Canvas, cfg.Dispenser, testOptions())
	s.Start()
	for !s.Landed() {
		s.Update(dt60)
	}
	for range 100 {
		s.Dispense()
		s.Update(dt60)
		if s.Items().Len() > cfg.Dispenser.ItemCap {
			t.Fatalf("items %d exceed cap %d", s.Items().Len(), cfg.Dispenser.ItemCap)
		}
		if s.Particles().Len() > cfg.Dispenser.ParticleCap {
			t.Fatalf("particles %d exceed cap", s.Particles().Len())
		}
	}
	if s.Items().Len() != cfg.Dispenser.ItemCap {
		t.Errorf("items = %d, want full pool", s.Items().Len())
	}
	if s.Items().Stats().Evicted == 0 {
		t.Error("full item pool did not evict")
	}
}

func TestDispenserWeather(t *testing.T) {
	cfg := testConfig(t)
	s, _ := NewDispenserScene(cfg.Canvas, cfg.Dispenser, testOptions())
	s.Start()
	first := s.Weather()
	for range cfg.Dispenser.WeatherFirst + 1 {
		s.Update(dt60)
	}
	if s.WeatherChanges() != 1 {
		t.Fatalf("weather changes = %d, want 1", s.WeatherChanges())
	}
	if s.Weather() == first {
		t.Errorf("weather stayed %q", first)
	}
}

func TestDispenserWeatherAlwaysChanges(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dispenser.Weathers = []string{"Snow Fall", "Clear Sky"}
	cfg.Dispenser.WeatherFirst = 1
	cfg.Dispenser.WeatherInterval = Range{Min: 1, Max: 1}
	s, err := NewDispenserScene(cfg.Canvas, cfg.Dispenser, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	prev := s.Weather()
	for tick := 1; tick <= 20; tick++ {
		s.Update(dt60)
		if s.Weather() == prev {
			t.Fatalf("tick %d: weather stayed %q", tick, prev)
		}
		prev = s.Weather()
	}
	if s.WeatherChanges() != 20 {
		t.Errorf("weather changes = %d, want 20", s.WeatherChanges())
	}
}

func TestDispenserSkyCrossFades(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dispenser.Weathers = []string{"Snow Fall", "Starry Night"}
	cfg.Dispenser.WeatherFirst = 1
	cfg.Dispenser.WeatherInterval = Range{Min: 1000, Max: 1000}
	s, err := NewDispenserScene(cfg.Canvas, cfg.Dispenser, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	from := weatherSky(s.Weather())
	assertNear(t, "initial sky", s.Sky().R, from.R)

	s.Update(dt60)
	to := weatherSky(s.Weather())
	lo, hi := min(from.R, to.R), max(from.R, to.R)
	if r := s.Sky().R; r <= lo || r >= hi {
		t.Errorf("sky R = %v, want strictly between %v and %v", r, lo, hi)
	}
	for range skyFadeFrames {
		s.Update(dt60)
	}
	assertNearTol(t, "faded R", s.Sky().R, to.R, 1e-6)
	assertNearTol(t, "faded B", s.Sky().B, to.B, 1e-6)

	var f Frame
	s.Snapshot(&f)
	if f.Background != s.Sky() {
		t.Errorf("background = %v, want sky %v", f.Background, s.Sky())
	}
}

func TestSceneConstructorsRejectPlacement(t *testing.T) {
	cfg := testConfig(t)

	side := cfg.Sideview
	side.StartY = side.Floor - side.HeroSize.Y/2
	if _, err := NewSideviewScene(cfg.Canvas, side, testOptions()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("hero resting at start: err = %v", err)
	}
	side = cfg.Sideview
	side.Floor = cfg.Canvas.Height + 1
	if _, err := NewSideviewScene(cfg.Canvas, side, testOptions()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("floor below canvas: err = %v", err)
	}

	disp := cfg.Dispenser
	disp.MachineStartY = disp.Floor
	if _, err := NewDispenserScene(cfg.Canvas, disp, testOptions()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("machine below floor: err = %v", err)
	}
	disp = cfg.Dispenser
	disp.Weathers = []string{"Snow Fall", "Snow Fall"}
	if _, err := NewDispenserScene(cfg.Canvas, disp, testOptions()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("repeated weather: err = %v", err)
	}
}

func TestSideviewSnapshotFinite(t *testing.T) {
	cfg := testConfig(t)
	s, err := NewSideviewScene(cfg.Canvas, cfg.Sideview, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	var f Frame
	for tick := range 400 {
		s.Update(dt60)
		f.Reset()
		s.Snapshot(&f)
		if !isFinite(f.Hero.Scale) || !isFinite(f.Progress) {
			t.Fatalf("tick %d: scale %v progress %v", tick, f.Hero.Scale, f.Progress)
		}
		if f.Progress < 0 || f.Progress > 1 {
			t.Fatalf("tick %d: progress %v outside [0, 1]", tick, f.Progress)
		}
	}
}

func TestSceneSnapshot(t *testing.T) {
	s := newTestScene(t, SceneDispenser)
	s.Start()
	s.Update(dt60)
	var f Frame
	s.Snapshot(&f)
	if f.Scene != SceneDispenser || f.SceneID != s.ID() {
		t.Errorf("frame scene = %v %v", f.Scene, f.SceneID)
	}
	if f.Width != 600 || f.Height != 600 {
		t.Errorf("frame size = %vx%v", f.Width, f.Height)
	}
	if !f.Hero.Visible || f.Weather == "" {
		t.Errorf("hero %+v weather %q", f.Hero, f.Weather)
	}

	f.Reset()
	if len(f.Props) != 0 || f.Caption != "" || cap(f.Props) == 0 {
		t.Error("Reset did not clear the frame while keeping capacity")
	}
}

func TestSceneChain(t *testing.T) {
	cfg := testConfig(t)
	chain, err := NewSceneChain(cfg, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	cur, err := chain.First()
	if err != nil {
		t.Fatal(err)
	}
	want := []SceneKind{SceneSkyfall, SceneSideview, SceneDispenser}
	for _, k := range want {
		next, err := chain.CreateNextScene(cur)
		if err != nil {
			t.Fatalf("after %v: %v", cur.Kind(), err)
		}
		if next.Kind() != k {
			t.Fatalf("next = %v, want %v", next.Kind(), k)
		}
		cur = next
	}
	if _, err := chain.CreateNextScene(cur); !errors.Is(err, ErrNoNextScene) {
		t.Errorf("after last: err = %v", err)
	}
	if _, err := chain.CreateNextScene(nil); !errors.Is(err, ErrNoNextScene) {
		t.Errorf("nil current: err = %v", err)
	}
}

func TestSceneChainResyncs(t *testing.T) {
	cfg := testConfig(t)
	chain, _ := NewSceneChain(cfg, testOptions())
	chain.First()
	next, err := chain.CreateNextScene(newTestScene(t, SceneSideview))
	if err != nil {
		t.Fatal(err)
	}
	if next.Kind() != SceneDispenser {
		t.Errorf("next = %v, want dispenser", next.Kind())
	}

	cfg.Sequence = []SceneKind{SceneCrash, SceneSkyfall}
	chain, _ = NewSceneChain(cfg, testOptions())
	if _, err := chain.CreateNextScene(newTestScene(t, SceneDispenser)); !errors.Is(err, ErrNoNextScene) {
		t.Errorf("scene outside sequence: err = %v", err)
	}
}
