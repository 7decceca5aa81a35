package ebitenview

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/vendfall"
)

// RunConfig configures the window created by Run.
type RunConfig struct {
	Title         string
	Config        *vendfall.Config
	Logger        *slog.Logger
	Script        *vendfall.ScriptRunner
	ShowFPS       bool
	Debug         bool
	ScreenshotDir string
	Seed          uint64
}

// Game adapts a vendfall.Director to ebiten.Game. Space, Enter or a left
// click dispenses; Escape quits.
type Game struct {
	dir     *vendfall.Director
	surface *Surface
	clock   *vendfall.Clock
	script  *vendfall.ScriptRunner
	shots   *screenshotter
	fps     *fpsOverlay
	logger  *slog.Logger

	width, height int
	lastDt        float64
}

// NewGame builds the scene chain from cfg and a Director drawing to a new
// Surface.
func NewGame(rc RunConfig) (*Game, error) {
	cfg := rc.Config
	if cfg == nil {
		var err error
		if cfg, err = vendfall.DefaultConfig(); err != nil {
			return nil, err
		}
	}
	logger := rc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	chain, err := vendfall.NewSceneChain(cfg, vendfall.SceneOptions{Logger: logger})
	if err != nil {
		return nil, err
	}
	first, err := chain.First()
	if err != nil {
		return nil, err
	}
	w, h := int(cfg.Canvas.Width), int(cfg.Canvas.Height)
	surface := NewSurface(w, h, rc.Seed)
	dir, err := vendfall.NewDirector(first, surface, vendfall.DirectorOptions{
		Logger:  logger,
		Handoff: chain,
		Debug:   rc.Debug,
	})
	if err != nil {
		return nil, err
	}

	g := &Game{
		dir:     dir,
		surface: surface,
		clock:   vendfall.NewClock(cfg.Clock.MinDt, cfg.Clock.MaxDt),
		script:  rc.Script,
		logger:  logger,
		width:   w,
		height:  h,
	}
	if rc.ScreenshotDir != "" {
		g.shots = &screenshotter{dir: rc.ScreenshotDir, logger: logger}
		if g.script != nil {
			g.script.OnScreenshot = g.shots.Queue
		}
	}
	if rc.ShowFPS {
		g.fps = newFPSOverlay()
	}
	return g, nil
}

// Director returns the Director driven by the game.
func (g *Game) Director() *vendfall.Director { return g.dir }

// Update implements ebiten.Game. A halted Director ends the run.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) ||
		inpututil.IsKeyJustPressed(ebiten.KeyEnter) ||
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.dir.Dispense()
	}
	if g.script != nil {
		if err := g.script.Step(g.dir); err != nil {
			return err
		}
		if g.script.Done() && (g.shots == nil || len(g.shots.queue) == 0) {
			return ebiten.Termination
		}
	}

	g.lastDt = g.clock.Tick(time.Now())
	if err := g.dir.Tick(g.lastDt); err != nil {
		return err
	}
	if g.fps != nil {
		g.fps.update(g.lastDt)
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.surface.bind(screen, ebiten.IsWindowMinimized())
	defer g.surface.bind(nil, false)
	if err := g.dir.Render(); err != nil {
		// Update reports the halt on its next call.
		return
	}
	if g.fps != nil {
		g.fps.draw(screen)
	}
	if g.shots != nil {
		g.shots.flush(screen)
	}
}

// Layout implements ebiten.Game.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// Run opens a window and plays the scene chain until the window closes, the
// script finishes or the Director halts.
func Run(rc RunConfig) error {
	g, err := NewGame(rc)
	if err != nil {
		return err
	}
	title := rc.Title
	if title == "" {
		title = "vendfall"
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("ebitenview: %w", err)
	}
	return nil
}
