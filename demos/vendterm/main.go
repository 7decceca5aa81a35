// vendterm plays the vending machine story in the terminal. Logs go to a
// file so they do not corrupt the screen.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phanxgames/vendfall"
	"github.com/phanxgames/vendfall/termview"
)

func main() {
	configPath := flag.String("config", "", "YAML file overlaid on the default tuning")
	scriptPath := flag.String("script", "", "JSON playback script")
	logPath := flag.String("log", "vendterm.log", "log file")
	tps := flag.Int("tps", 30, "ticks per second")
	fixed := flag.Bool("fixed", false, "simulate at a fixed 1/tps step")
	debug := flag.Bool("debug", false, "log per-tick stats")
	flag.Parse()

	logFile, err := os.Create(*logPath)
	if err != nil {
		log.Fatal(err)
	}
	defer logFile.Close()
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level}))

	cfg, err := vendfall.DefaultConfig()
	if err != nil {
		log.Fatal(err)
	}
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		if cfg, err = vendfall.LoadConfig(data); err != nil {
			log.Fatal(err)
		}
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := termview.Run(ctx, termview.Options{
		Config:    cfg,
		Logger:    logger,
		Script:    script,
		TPS:       *tps,
		FixedStep: *fixed,
		Debug:     *debug,
	}); err != nil {
		logger.Error("vendterm stopped", "err", err)
		log.Fatal(err)
	}
}
