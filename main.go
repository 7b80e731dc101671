package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkoval/voicekey/config"
	"github.com/dkoval/voicekey/gemini"
	"github.com/dkoval/voicekey/history"
	"github.com/dkoval/voicekey/hotkey"
	"github.com/dkoval/voicekey/internal/app"
	"github.com/dkoval/voicekey/internal/types"
	"github.com/dkoval/voicekey/notify"
	"github.com/dkoval/voicekey/recorder"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	closeLog := setupLogging()
	defer closeLog()

	slog.Info("starting voicekey", "version", version, "commit", commit)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	notifier := notify.New(!cfg.DisableNotifications)

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrNoAPIKey) {
			notifier.Error("Configuration error", "Set your Gemini API key in the config file or the GEMINI_API_KEY environment variable.")
		}
		return fmt.Errorf("validate config: %w", err)
	}

	audioDir, err := cfg.AudioPath()
	if err != nil {
		return fmt.Errorf("prepare audio dir: %w", err)
	}

	rec, err := recorder.New()
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}

	var hist app.History
	if !cfg.DisableHistory {
		path, err := cfg.HistoryPath()
		if err != nil {
			return fmt.Errorf("prepare history dir: %w", err)
		}
		store, err := history.New(path, cfg.HistoryTTL())
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				slog.Warn("close history store", "error", err)
			}
		}()
		hist = store
		logRecent(store, 3)
	}

	a := app.New(cfg, rec, gemini.NewClient(cfg.APIKey), notifier, hist, audioDir)
	defer a.Close()

	listener := hotkey.NewListener(hotkey.NewDispatcher(cfg.DebounceWindow(), a.Actions()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("ready",
		"trigger", "F9",
		"primary_model", cfg.PrimaryModel,
		"secondary_model", cfg.SecondaryModel,
		"prompt_mode", types.ModeAssistant,
		"debounce", cfg.DebounceWindow(),
	)

	if err := listenKeys(ctx, listener, notifier); err != nil {
		return err
	}

	slog.Info("shutting down")
	return nil
}

// logRecent surfaces the tail of the result journal in the startup log.
func logRecent(store *history.Store, n int) {
	entries, err := store.Recent(n)
	if err != nil {
		slog.Warn("read result history", "error", err)
		return
	}
	for _, e := range entries {
		slog.Info("recent result",
			"time", e.Time.Format(time.RFC3339),
			"model", e.Model,
			"mode", e.Mode,
			"failure", e.Failure,
		)
	}
}

// keyListener is the blocking hook pump, implemented by *hotkey.Listener.
type keyListener interface {
	Run(ctx context.Context) error
}

// errorNotifier is the failure-reporting slice of the notifier.
type errorNotifier interface {
	Error(title, body string)
}

// listenKeys pumps the global hook until ctx is cancelled. A hook failure is
// fatal; the user is told before the process exits.
func listenKeys(ctx context.Context, l keyListener, n errorNotifier) error {
	if err := l.Run(ctx); err != nil {
		n.Error("Startup error", "Global keyboard hook failed: "+err.Error()+". Check input monitoring permissions.")
		return fmt.Errorf("keyboard listener: %w", err)
	}
	return nil
}

// setupLogging sends structured logs to stderr and, when possible, to an
// append-only file under the user config dir. Returns a close func for the
// file handle.
func setupLogging() func() {
	out := io.Writer(os.Stderr)
	closeFn := func() {}

	if path, err := config.LogPath(); err == nil {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600); err == nil {
			out = io.MultiWriter(os.Stderr, f)
			closeFn = func() { f.Close() }
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, nil)))
	return closeFn
}
