// Package main provides the sniptext command line entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dkorbelainen/sniptext/internal/capture"
	"github.com/dkorbelainen/sniptext/internal/clipboard"
	"github.com/dkorbelainen/sniptext/internal/config"
	"github.com/dkorbelainen/sniptext/internal/engine"
	"github.com/dkorbelainen/sniptext/internal/hotkey"
	"github.com/dkorbelainen/sniptext/internal/notify"
	"github.com/dkorbelainen/sniptext/pkg/logging"
)

const version = "0.1.0"

func main() {
	// Optional .env for SNIPTEXT_* overrides.
	godotenv.Load()

	configPath := flag.String("config", config.DefaultPath(), "path to the configuration file")
	verbose := flag.Bool("v", false, "enable debug logging")
	captureNow := flag.Bool("capture-now", false, "capture one region and exit instead of running the daemon")
	engineName := flag.String("engine", "", "override the configured OCR engine (tesseract, ollama, ensemble)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("sniptext " + version)
		return
	}

	logCfg := logging.DefaultLogConfig()
	if *verbose {
		logCfg.Level = "debug"
	}
	if err := logging.SetupLogger(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "sniptext: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sniptext: %v\n", err)
		os.Exit(1)
	}
	if *engineName != "" {
		cfg.OCREngine = *engineName
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "sniptext: %v\n", err)
		os.Exit(1)
	}

	// The config may lower or raise the level unless -v forced debug.
	if !*verbose && cfg.LogLevel != logCfg.Level {
		logCfg.Level = cfg.LogLevel
		if err := logging.SetupLogger(logCfg); err != nil {
			fmt.Fprintf(os.Stderr, "sniptext: %v\n", err)
			os.Exit(1)
		}
	}

	log := logging.GetLogger("main")
	log.Info().
		Str("version", version).
		Str("engine", cfg.OCREngine).
		Str("language", cfg.OCRLanguage).
		Bool("adaptive", cfg.AdaptiveEnsemble).
		Msg("Starting sniptext")

	server := capture.ResolveDisplayServer(cfg.DisplayServer)
	app := &app{
		cfg:      cfg,
		grabber:  capture.New(server, cfg.CaptureSelectCommand, cfg.CaptureCommand),
		clip:     clipboard.New(server, cfg.ClipboardCopyCommand, cfg.ClipboardPasteCommand),
		notifier: notify.New(cfg.NotifyCommand, cfg.NotificationEnabled),
		engine:   engine.New(cfg),
		log:      log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *captureNow {
		os.Exit(app.captureOnce(ctx))
	}

	chord, err := hotkey.ParseChord(cfg.Hotkey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sniptext: %v\n", err)
		os.Exit(1)
	}

	// Daemon mode reads trigger lines from stdin; a global keyboard
	// hook can feed the same daemon through another Source.
	log.Info().Str("hotkey", chord.String()).Msg("Daemon mode: every line on stdin triggers a capture")
	daemon := hotkey.NewDaemon(hotkey.NewLineSource(chord, os.Stdin), chord, app.handleTrigger)
	if err := daemon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Daemon stopped")
		os.Exit(1)
	}
	log.Info().Msg("Shutting down")
}

// app ties the desktop collaborators to the recognition engine.
type app struct {
	cfg      *config.Config
	grabber  *capture.Provider
	clip     *clipboard.Manager
	notifier *notify.Notifier
	engine   *engine.Engine
	log      zerolog.Logger
}

// handleTrigger runs one capture round: select, recognize, copy,
// notify. Errors are logged, never fatal; the daemon keeps running.
func (a *app) handleTrigger(ctx context.Context) {
	text, err := a.recognizeRegion(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("Capture round failed")
		return
	}
	if text == "" {
		return
	}

	if err := a.clip.Copy(ctx, text); err != nil {
		a.log.Error().Err(err).Msg("Could not copy recognized text")
		return
	}
	a.notifier.Notify(ctx, fmt.Sprintf("Copied %d characters", utf8.RuneCountInString(text)))
}

// captureOnce runs a single capture round and prints the text.
func (a *app) captureOnce(ctx context.Context) int {
	text, err := a.recognizeRegion(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("Capture failed")
		return 1
	}
	if text == "" {
		return 0
	}

	if err := a.clip.Copy(ctx, text); err != nil {
		a.log.Warn().Err(err).Msg("Could not copy recognized text")
	}
	fmt.Println(text)
	return 0
}

// recognizeRegion captures a region and runs recognition. An empty
// string with nil error means the user cancelled or no text was found.
func (a *app) recognizeRegion(ctx context.Context) (string, error) {
	img, err := a.grabber.CaptureRegion(ctx)
	if err != nil {
		return "", err
	}
	if img == nil {
		a.log.Info().Msg("Capture cancelled")
		return "", nil
	}

	out, err := a.engine.Recognize(ctx, img)
	if err != nil {
		return "", err
	}
	if out.Text == "" {
		a.log.Warn().Msg("No text recognized")
		return "", nil
	}

	a.log.Info().
		Str("request_id", out.RequestID).
		Str("strategy", out.Strategy.String()).
		Strs("backends", out.Backends).
		Msg("Recognition finished")
	return out.Text, nil
}
