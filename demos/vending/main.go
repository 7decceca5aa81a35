// vending plays the vending machine story in a window. Space or a click
// dispenses once the machine has landed.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/phanxgames/vendfall"
	"github.com/phanxgames/vendfall/ebitenview"
)

func main() {
	configPath := flag.String("config", "", "YAML file overlaid on the default tuning")
	scriptPath := flag.String("script", "", "JSON playback script")
	shots := flag.String("screenshots", "screenshots", "directory for script screenshots")
	fps := flag.Bool("fps", false, "show FPS/TPS overlay")
	debug := flag.Bool("debug", false, "log per-tick stats")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	var script *vendfall.ScriptRunner
	if *scriptPath != "" {
		data, err := os.ReadFile(*scriptPath)
		if err != nil {
			log.Fatal(err)
		}
		if script, err = vendfall.LoadScript(data); err != nil {
			log.Fatal(err)
		}
	}

	if err := ebitenview.Run(ebitenview.RunConfig{
		Title:         "Vendfall",
		Config:        cfg,
		Logger:        logger,
		Script:        script,
		ShowFPS:       *fps,
		Debug:         *debug,
		ScreenshotDir: *shots,
	}); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(path string) (*vendfall.Config, error) {
	if path == "" {
		return vendfall.DefaultConfig()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return vendfall.LoadConfig(data)
}
