// Package app wires the hotkey dispatcher, recording session, settings and
// submission pipeline together.
package app

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/dkoval/voicekey/clipboard"
	"github.com/dkoval/voicekey/config"
	"github.com/dkoval/voicekey/gemini"
	"github.com/dkoval/voicekey/history"
	"github.com/dkoval/voicekey/hotkey"
	"github.com/dkoval/voicekey/recorder"
)

// AI is the remote service boundary, implemented by *gemini.Client.
type AI interface {
	UploadFile(ctx context.Context, data []byte, displayName string) (gemini.File, error)
	GenerateContent(ctx context.Context, model, prompt string, file gemini.File) (string, error)
	DeleteFile(ctx context.Context, name string) error
}

// Recorder is the capture boundary, implemented by *recorder.Session.
type Recorder interface {
	Start() error
	Stop() ([]int16, error)
	Recording() bool
	OnFatal(func(error))
	Close()
}

// Notifier is the user-feedback boundary, implemented by *notify.Notifier.
type Notifier interface {
	Info(title, body string)
	Success(title, body string)
	Error(title, body string)
}

// History records submission outcomes. May be nil when history is disabled.
type History interface {
	Put(history.Entry) error
}

// App owns the shared recording/settings state behind a single lock and
// dispatches the three hotkey actions.
type App struct {
	mu       sync.Mutex
	settings settings

	cfg      *config.Config
	rec      Recorder
	ai       AI
	notifier Notifier
	hist     History
	audioDir string

	// Collaborators injectable for tests.
	clip func(string) error
	now  func() time.Time
}

// New wires the application together. audioDir is where finished recordings
// are persisted.
func New(cfg *config.Config, rec Recorder, ai AI, notifier Notifier, hist History, audioDir string) *App {
	a := &App{
		cfg:      cfg,
		rec:      rec,
		ai:       ai,
		notifier: notifier,
		hist:     hist,
		audioDir: audioDir,
		clip:     clipboard.SetText,
		now:      time.Now,
	}

	// Hard device errors reset the session to idle on their own; the user
	// just needs to hear about it.
	rec.OnFatal(func(err error) {
		a.notifier.Error("Recording failed", err.Error())
	})

	return a
}

// Actions exposes the three hotkey actions to the dispatcher.
func (a *App) Actions() hotkey.Actions {
	return hotkey.Actions{
		ToggleRecording:  a.ToggleRecording,
		TogglePromptMode: a.TogglePromptMode,
		ToggleModel:      a.ToggleModel,
	}
}

// ToggleRecording starts a recording when idle and stops-and-submits when
// active. Returns whether an action was performed.
func (a *App) ToggleRecording() bool {
	if a.rec.Recording() {
		return a.stopAndSubmit()
	}
	return a.startRecording()
}

func (a *App) startRecording() bool {
	if err := a.rec.Start(); err != nil {
		if errors.Is(err, recorder.ErrAlreadyRecording) {
			slog.Warn("start requested while already recording")
			return false
		}
		slog.Error("start recording", "error", err)
		a.notifier.Error("Recording error", err.Error())
		return false
	}

	slog.Info("recording started")
	a.notifier.Info("Recording started", "Speak now…")
	return true
}

// stopAndSubmit finalizes the take, persists the WAV artifact and hands it to
// a detached submission goroutine. The settings snapshot is taken at stop
// time; toggles after this instant affect only later submissions.
func (a *App) stopAndSubmit() bool {
	samples, err := a.rec.Stop()
	switch {
	case errors.Is(err, recorder.ErrNotRecording):
		slog.Warn("stop requested while not recording")
		return false
	case errors.Is(err, recorder.ErrNoAudio):
		slog.Error("recording stopped with no audio captured")
		a.notifier.Error("Recording error", "No audio was captured.")
		return true // the stop itself was performed
	case err != nil:
		slog.Error("stop recording", "error", err)
		a.notifier.Error("Recording error", err.Error())
		return true
	}

	snap := a.snapshot()
	name := recorder.ArtifactName(a.now())
	path := filepath.Join(a.audioDir, name)

	if err := recorder.WriteWAV(path, samples, recorder.SampleRate); err != nil {
		slog.Error("save recording", "path", path, "error", err)
		a.notifier.Error("Processing error", "Could not save recording: "+err.Error())
		return true
	}

	slog.Info("recording saved", "file", name, "samples", len(samples),
		"model", snap.ModelName, "mode", snap.Mode)
	a.notifier.Info("Recording saved", name+", sending to Gemini…")

	// Fire-and-forget: the dispatcher stays responsive and a new recording
	// may start immediately. The process accepts losing in-flight
	// submissions if it exits before they finish.
	go a.submit(context.Background(), snap, path, name)
	return true
}

// Close forces any active recording to stop (signal plus bounded join)
// before the process exits, and releases the capture device.
func (a *App) Close() {
	if a.rec.Recording() {
		slog.Warn("recording in progress at shutdown, forcing stop")
	}
	a.rec.Close()
}
