package app

import (
	"log/slog"

	"github.com/dkoval/voicekey/internal/types"
)

// settings holds the two two-valued toggles. Guarded by App.mu, the same
// lock as the recording state; both are low-frequency.
type settings struct {
	model types.Model
	mode  types.PromptMode
}

// TogglePromptMode flips between Assistant and Transcribe.
func (a *App) TogglePromptMode() bool {
	a.mu.Lock()
	a.settings.mode = a.settings.mode.Toggle()
	mode := a.settings.mode
	a.mu.Unlock()

	slog.Info("prompt mode changed", "mode", mode)
	a.notifier.Info("Mode changed", "Prompt mode: "+mode.String())
	return true
}

// ToggleModel flips between the primary and secondary model.
func (a *App) ToggleModel() bool {
	a.mu.Lock()
	a.settings.model = a.settings.model.Toggle()
	name := a.cfg.ModelName(a.settings.model)
	a.mu.Unlock()

	slog.Info("model changed", "model", name)
	a.notifier.Info("Model changed", "AI model: "+name)
	return true
}

// snapshot captures the settings in effect right now. Called at stop time so
// the values apply to that submission.
func (a *App) snapshot() types.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return types.Snapshot{
		ModelName: a.cfg.ModelName(a.settings.model),
		Mode:      a.settings.mode,
		Prompt:    a.cfg.Prompt(a.settings.mode),
	}
}
