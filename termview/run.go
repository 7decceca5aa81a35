package termview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/phanxgames/vendfall"
)

// Options configures Run.
type Options struct {
	Config *vendfall.Config
	Logger *slog.Logger
	Script *vendfall.ScriptRunner
	// Screen overrides the terminal screen. Tests pass a simulation screen.
	Screen tcell.Screen
	// Sound overrides audio. Nil initialises beep and falls back to silence.
	Sound Sound
	// TPS is the tick rate; zero uses the canvas reference rate.
	TPS int
	// FixedStep runs the simulation at exactly 1/TPS seconds per tick,
	// catching up with several ticks when the terminal falls behind.
	FixedStep bool
	Seed      uint64
	Debug     bool
}

// maxCatchUp bounds the fixed-step ticks run for one wall-clock tick.
const maxCatchUp = 5

// Run plays the scene chain in the terminal until ctx is cancelled, the user
// quits with q, Escape or Ctrl-C, the script finishes or the Director halts.
// Space, Enter or d dispenses.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = vendfall.DefaultConfig(); err != nil {
			return err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	screen := opts.Screen
	if screen == nil {
		var err error
		if screen, err = tcell.NewScreen(); err != nil {
			return fmt.Errorf("termview: %w", err)
		}
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("termview: %w", err)
	}
	defer screen.Fini()

	sound := opts.Sound
	if sound == nil {
		s, err := NewSound()
		if err != nil {
			logger.Warn("audio unavailable", "err", err)
		}
		defer s.Close()
		sound = s
	}

	chain, err := vendfall.NewSceneChain(cfg, vendfall.SceneOptions{Logger: logger})
	if err != nil {
		return err
	}
	first, err := chain.First()
	if err != nil {
		return err
	}
	dir, err := vendfall.NewDirector(first, NewSurface(screen, opts.Seed), vendfall.DirectorOptions{
		Logger:  logger,
		Handoff: chain,
		Debug:   opts.Debug,
	})
	if err != nil {
		return err
	}

	tps := opts.TPS
	if tps <= 0 {
		tps = int(cfg.Canvas.ReferenceRate)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tcell.Event, 16)
	go pollEvents(ctx, screen, events)

	ticker := time.NewTicker(time.Second / time.Duration(tps))
	defer ticker.Stop()
	clock := vendfall.NewClock(cfg.Clock.MinDt, cfg.Clock.MaxDt)
	var fixed *vendfall.FixedStep
	if opts.FixedStep {
		fixed = &vendfall.FixedStep{Step: 1 / float64(tps), MaxSteps: maxCatchUp}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if handleEvent(ev, dir, screen) == actionQuit {
				return nil
			}
		case now := <-ticker.C:
			dt, steps := clock.Tick(now), 1
			if fixed != nil {
				steps, dt = fixed.Advance(dt), fixed.Step
			}
			for range steps {
				done, err := step(dir, opts.Script, sound, dt)
				if done || err != nil {
					return err
				}
			}
		}
	}
}

// step runs one simulation tick and renders it. It reports done once the
// script has finished.
func step(dir *vendfall.Director, script *vendfall.ScriptRunner, sound Sound, dt float64) (bool, error) {
	if script != nil {
		if err := script.Step(dir); err != nil {
			return true, err
		}
		if script.Done() {
			return true, nil
		}
	}
	if err := dir.Tick(dt); err != nil {
		return true, err
	}
	if err := dir.Render(); err != nil {
		return true, err
	}
	for _, e := range dir.Frame().Events {
		sound.Play(e)
	}
	return false, nil
}

type action int

const (
	actionNone action = iota
	actionQuit
	actionDispense
)

func handleEvent(ev tcell.Event, dir *vendfall.Director, screen tcell.Screen) action {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q':
			return actionQuit
		case ev.Key() == tcell.KeyEnter || ev.Rune() == ' ' || ev.Rune() == 'd':
			dir.Dispense()
			return actionDispense
		}
	case *tcell.EventResize:
		screen.Sync()
	}
	return actionNone
}

// pollEvents forwards screen events until the screen is finalised or ctx is
// done.
func pollEvents(ctx context.Context, screen tcell.Screen, out chan<- tcell.Event) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}
