package vendfall_test

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"github.com/phanxgames/vendfall"
	"github.com/phanxgames/vendfall/mocks"
)

const dt = 1.0 / 60

// stubScene triggers once it has been updated triggerAt times. A zero
// triggerAt never triggers.
type stubScene struct {
	id        uuid.UUID
	kind      vendfall.SceneKind
	triggerAt int
	effect    vendfall.ExitEffect

	surface vendfall.Surface
	started bool
	stopped bool
	updates int
}

func newStub(kind vendfall.SceneKind, triggerAt, effectTicks int) *stubScene {
	return &stubScene{
		id:        uuid.New(),
		kind:      kind,
		triggerAt: triggerAt,
		effect:    &vendfall.DelayEffect{Ticks: effectTicks},
	}
}

func (s *stubScene) ID() uuid.UUID                   { return s.id }
func (s *stubScene) Kind() vendfall.SceneKind        { return s.kind }
func (s *stubScene) ExitEffect() vendfall.ExitEffect { return s.effect }
func (s *stubScene) Surface() vendfall.Surface       { return s.surface }
func (s *stubScene) Start()                          { s.started = true }

func (s *stubScene) Update(float64) {
	if s.started && !s.stopped {
		s.updates++
	}
}

func (s *stubScene) EvaluateTrigger() bool {
	return s.triggerAt > 0 && s.updates >= s.triggerAt
}

func (s *stubScene) AttachToSurface(surface vendfall.Surface) error {
	if surface == nil {
		return vendfall.ErrNoSurface
	}
	if s.surface != nil {
		return vendfall.ErrAlreadyAttached
	}
	s.surface = surface
	return nil
}

func (s *stubScene) Stop() {
	s.stopped = true
	s.surface = nil
}

func (s *stubScene) Snapshot(f *vendfall.Frame) {
	f.Scene = s.kind
	f.SceneID = s.id
}

type stubDispenser struct {
	*stubScene
	dispensed int
}

func (s *stubDispenser) Dispense() bool {
	s.dispensed++
	return true
}

func quietLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// expectHandoff records one in-order handoff from cur to next that
// delegates to the scenes themselves.
func expectHandoff(h *mocks.MockHandoff, cur, next vendfall.Scene, surface vendfall.Surface) {
	gomock.InOrder(
		h.EXPECT().CreateNextScene(cur).Return(next, nil).Times(1),
		h.EXPECT().AttachToSurface(next, surface).DoAndReturn(
			func(n vendfall.Scene, s vendfall.Surface) error { return n.AttachToSurface(s) },
		).Times(1),
		h.EXPECT().Start(next).DoAndReturn(
			func(n vendfall.Scene) error { n.Start(); return nil },
		).Times(1),
	)
}

func TestDirectorHandoffAtTriggerPlusDuration(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mocks.NewMockSurface(ctrl)
	handoff := mocks.NewMockHandoff(ctrl)

	first := newStub(vendfall.SceneCrash, 5, 3)
	next := newStub(vendfall.SceneSkyfall, 0, 0)
	expectHandoff(handoff, first, next, surface)

	d, err := vendfall.NewDirector(first, surface, vendfall.DirectorOptions{Logger: quietLogger(), Handoff: handoff})
	if err != nil {
		t.Fatal(err)
	}
	if !first.started || first.Surface() != surface {
		t.Fatal("first scene not attached and started")
	}

	for tick := 1; tick <= 7; tick++ {
		if err := d.Tick(dt); err != nil {
			t.Fatal(err)
		}
		if d.Handoffs() != 0 {
			t.Fatalf("handoff at tick %d, before 8", tick)
		}
	}
	if d.State() != vendfall.TransitioningOut {
		t.Errorf("state = %v, want transitioning-out", d.State())
	}
	if err := d.Tick(dt); err != nil {
		t.Fatal(err)
	}
	if d.Handoffs() != 1 {
		t.Fatalf("handoffs = %d at tick 8, want 1", d.Handoffs())
	}
	if d.Scene() != next || d.State() != vendfall.Running {
		t.Errorf("scene = %v state = %v", d.Scene().Kind(), d.State())
	}
	if !first.stopped || first.Surface() != nil {
		t.Error("old scene still owns the surface")
	}
	if next.Surface() != surface || !next.started {
		t.Error("next scene not attached and started")
	}

	// The new scene never triggers, so no further handoff calls happen.
	for range 50 {
		if err := d.Tick(dt); err != nil {
			t.Fatal(err)
		}
	}
	if d.Handoffs() != 1 {
		t.Errorf("handoffs = %d, want exactly 1", d.Handoffs())
	}
}

func TestDirectorZeroDurationHandsOffOnTriggerTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mocks.NewMockSurface(ctrl)
	handoff := mocks.NewMockHandoff(ctrl)

	first := newStub(vendfall.SceneSideview, 2, 0)
	next := newStub(vendfall.SceneDispenser, 0, 0)
	expectHandoff(handoff, first, next, surface)

	d, _ := vendfall.NewDirector(first, surface, vendfall.DirectorOptions{Logger: quietLogger(), Handoff: handoff})
	d.Tick(dt)
	if d.Handoffs() != 0 {
		t.Fatal("handoff before trigger")
	}
	d.Tick(dt)
	if d.Handoffs() != 1 {
		t.Fatalf("handoffs = %d on trigger tick, want 1", d.Handoffs())
	}
}

func TestDirectorEmitsHandoffEventOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mocks.NewMockSurface(ctrl)
	handoff := mocks.NewMockHandoff(ctrl)
	surface.EXPECT().Size().Return(600, 600).AnyTimes()
	surface.EXPECT().Render(gomock.Any()).Return(nil).Times(2)

	first := newStub(vendfall.SceneCrash, 1, 0)
	next := newStub(vendfall.SceneSkyfall, 0, 0)
	expectHandoff(handoff, first, next, surface)

	d, _ := vendfall.NewDirector(first, surface, vendfall.DirectorOptions{Logger: quietLogger(), Handoff: handoff})
	d.Tick(dt)

	count := func() int {
		n := 0
		for _, e := range d.Frame().Events {
			if e.Kind == vendfall.EventHandoff {
				n++
			}
		}
		return n
	}
	if err := d.Render(); err != nil {
		t.Fatal(err)
	}
	if count() != 1 {
		t.Errorf("handoff events = %d, want 1", count())
	}
	if d.Frame().Scene != vendfall.SceneSkyfall || d.Frame().Tick != 1 {
		t.Errorf("frame scene %v tick %d", d.Frame().Scene, d.Frame().Tick)
	}
	d.Tick(dt)
	d.Render()
	if count() != 0 {
		t.Errorf("handoff event repeated")
	}
}

func TestDirectorMissingSurfaceAtHandoffHalts(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mocks.NewMockSurface(ctrl)
	// No handoff calls are expected.
	handoff := mocks.NewMockHandoff(ctrl)

	first := newStub(vendfall.SceneCrash, 1, 0)
	d, _ := vendfall.NewDirector(first, surface, vendfall.DirectorOptions{Logger: quietLogger(), Handoff: handoff})
	first.surface = nil

	err := d.Tick(dt)
	if !errors.Is(err, vendfall.ErrHalted) || !errors.Is(err, vendfall.ErrNoSurface) {
		t.Fatalf("err = %v, want ErrHalted wrapping ErrNoSurface", err)
	}
	if !d.Halted() || !errors.Is(d.Err(), vendfall.ErrNoSurface) {
		t.Errorf("halted = %v err = %v", d.Halted(), d.Err())
	}
	if err := d.Tick(dt); !errors.Is(err, vendfall.ErrHalted) {
		t.Errorf("later tick err = %v", err)
	}
	if err := d.Render(); !errors.Is(err, vendfall.ErrHalted) {
		t.Errorf("render err = %v", err)
	}
	if first.updates != 1 {
		t.Errorf("halted director kept updating: %d", first.updates)
	}
}

func TestDirectorHandoffFailureHalts(t *testing.T) {
	tests := []struct {
		name   string
		expect func(h *mocks.MockHandoff, cur, next vendfall.Scene)
		want   error
	}{
		{
			name: "no next scene",
			expect: func(h *mocks.MockHandoff, cur, _ vendfall.Scene) {
				h.EXPECT().CreateNextScene(cur).Return(nil, vendfall.ErrNoNextScene)
			},
			want: vendfall.ErrNoNextScene,
		},
		{
			name: "nil next scene",
			expect: func(h *mocks.MockHandoff, cur, _ vendfall.Scene) {
				h.EXPECT().CreateNextScene(cur).Return(nil, nil)
			},
			want: vendfall.ErrNoNextScene,
		},
		{
			name: "attach fails",
			expect: func(h *mocks.MockHandoff, cur, next vendfall.Scene) {
				gomock.InOrder(
					h.EXPECT().CreateNextScene(cur).Return(next, nil),
					h.EXPECT().AttachToSurface(next, gomock.Any()).Return(vendfall.ErrAlreadyAttached),
				)
			},
			want: vendfall.ErrAlreadyAttached,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			surface := mocks.NewMockSurface(ctrl)
			handoff := mocks.NewMockHandoff(ctrl)
			first := newStub(vendfall.SceneCrash, 1, 0)
			tt.expect(handoff, first, newStub(vendfall.SceneSkyfall, 0, 0))

			d, _ := vendfall.NewDirector(first, surface, vendfall.DirectorOptions{Logger: quietLogger(), Handoff: handoff})
			err := d.Tick(dt)
			if !errors.Is(err, vendfall.ErrHalted) || !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want ErrHalted wrapping %v", err, tt.want)
			}
			if first.stopped {
				t.Error("old scene stopped after a failed handoff")
			}
		})
	}
}

func TestDirectorSkipsZeroAreaSurface(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mocks.NewMockSurface(ctrl)
	handoff := mocks.NewMockHandoff(ctrl)
	surface.EXPECT().Size().Return(0, 0).Times(2)
	surface.EXPECT().Render(gomock.Any()).Times(0)

	d, _ := vendfall.NewDirector(newStub(vendfall.SceneCrash, 0, 0), surface, vendfall.DirectorOptions{Logger: quietLogger(), Handoff: handoff})
	for range 2 {
		d.Tick(dt)
		if err := d.Render(); err != nil {
			t.Fatalf("Render: %v", err)
		}
	}
	if d.Skipped() != 2 {
		t.Errorf("skipped = %d, want 2", d.Skipped())
	}
	if d.Halted() {
		t.Error("zero-area surface halted the director")
	}
}

func TestDirectorRenderErrorIsTransient(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mocks.NewMockSurface(ctrl)
	handoff := mocks.NewMockHandoff(ctrl)
	surface.EXPECT().Size().Return(600, 600).AnyTimes()
	gomock.InOrder(
		surface.EXPECT().Render(gomock.Any()).Return(errors.New("device lost")),
		surface.EXPECT().Render(gomock.Any()).Return(nil),
	)

	d, _ := vendfall.NewDirector(newStub(vendfall.SceneCrash, 0, 0), surface, vendfall.DirectorOptions{Logger: quietLogger(), Handoff: handoff})
	for range 2 {
		if err := d.Tick(dt); err != nil {
			t.Fatal(err)
		}
		if err := d.Render(); err != nil {
			t.Fatalf("Render: %v", err)
		}
	}
	if d.RenderFailures() != 1 {
		t.Errorf("render failures = %d, want 1", d.RenderFailures())
	}
}

func TestDirectorRenderWithoutSurfaceHalts(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mocks.NewMockSurface(ctrl)
	first := newStub(vendfall.SceneCrash, 0, 0)
	d, _ := vendfall.NewDirector(first, surface, vendfall.DirectorOptions{Logger: quietLogger(), Handoff: mocks.NewMockHandoff(ctrl)})
	first.surface = nil
	if err := d.Render(); !errors.Is(err, vendfall.ErrHalted) || !errors.Is(err, vendfall.ErrNoSurface) {
		t.Fatalf("err = %v", err)
	}
	if err := d.Tick(dt); !errors.Is(err, vendfall.ErrHalted) {
		t.Errorf("tick after halt: %v", err)
	}
}

func TestDirectorDeliversDispense(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mocks.NewMockSurface(ctrl)
	disp := &stubDispenser{stubScene: newStub(vendfall.SceneDispenser, 0, 0)}
	d, _ := vendfall.NewDirector(disp, surface, vendfall.DirectorOptions{Logger: quietLogger(), Handoff: mocks.NewMockHandoff(ctrl)})

	d.Dispense()
	d.Dispense()
	d.Dispense()
	d.Tick(dt)
	if disp.dispensed != 3 {
		t.Errorf("dispensed = %d, want 3", disp.dispensed)
	}
	d.Tick(dt)
	if disp.dispensed != 3 {
		t.Errorf("queue not drained: %d", disp.dispensed)
	}
}

func TestDirectorDropsDispenseForOtherScenes(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mocks.NewMockSurface(ctrl)
	handoff := mocks.NewMockHandoff(ctrl)
	first := newStub(vendfall.SceneCrash, 2, 0)
	disp := &stubDispenser{stubScene: newStub(vendfall.SceneDispenser, 0, 0)}
	expectHandoff(handoff, first, disp, surface)

	d, _ := vendfall.NewDirector(first, surface, vendfall.DirectorOptions{Logger: quietLogger(), Handoff: handoff})
	d.Dispense()
	d.Tick(dt)
	d.Tick(dt)
	d.Tick(dt)
	if disp.dispensed != 0 {
		t.Errorf("input queued before the dispenser reached it: %d", disp.dispensed)
	}
}

func TestNewDirectorValidates(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mocks.NewMockSurface(ctrl)
	handoff := mocks.NewMockHandoff(ctrl)

	if _, err := vendfall.NewDirector(nil, surface, vendfall.DirectorOptions{Handoff: handoff}); !errors.Is(err, vendfall.ErrInvalidConfig) {
		t.Errorf("nil scene: err = %v", err)
	}
	if _, err := vendfall.NewDirector(newStub(vendfall.SceneCrash, 0, 0), surface, vendfall.DirectorOptions{}); !errors.Is(err, vendfall.ErrInvalidConfig) {
		t.Errorf("nil handoff: err = %v", err)
	}
	if _, err := vendfall.NewDirector(newStub(vendfall.SceneCrash, 0, 0), nil, vendfall.DirectorOptions{Handoff: handoff}); !errors.Is(err, vendfall.ErrNoSurface) {
		t.Errorf("nil surface: err = %v", err)
	}
}

func TestDirectorPlaysFullSequence(t *testing.T) {
	ctrl := gomock.NewController(t)
	surface := mocks.NewMockSurface(ctrl)
	surface.EXPECT().Size().Return(600, 600).AnyTimes()
	surface.EXPECT().Render(gomock.Any()).Return(nil).AnyTimes()

	cfg, err := vendfall.DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	opts := vendfall.SceneOptions{Logger: quietLogger(), Rand: rand.New(rand.NewPCG(3, 4))}
	chain, err := vendfall.NewSceneChain(cfg, opts)
	if err != nil {
		t.Fatal(err)
	}
	first, err := chain.First()
	if err != nil {
		t.Fatal(err)
	}
	d, err := vendfall.NewDirector(first, surface, vendfall.DirectorOptions{Logger: quietLogger(), Handoff: chain, Debug: true})
	if err != nil {
		t.Fatal(err)
	}

	var seen []vendfall.SceneKind
	for range 2000 {
		if k := d.Scene().Kind(); len(seen) == 0 || seen[len(seen)-1] != k {
			seen = append(seen, k)
		}
		if err := d.Tick(dt); err != nil {
			t.Fatal(err)
		}
		if err := d.Render(); err != nil {
			t.Fatal(err)
		}
	}
	want := []vendfall.SceneKind{vendfall.SceneCrash, vendfall.SceneSkyfall, vendfall.SceneSideview, vendfall.SceneDispenser}
	if len(seen) != len(want) {
		t.Fatalf("scenes = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("scenes = %v, want %v", seen, want)
		}
	}
	if d.Handoffs() != 3 {
		t.Errorf("handoffs = %d, want 3", d.Handoffs())
	}
	if d.Halted() {
		t.Errorf("halted: %v", d.Err())
	}
}
