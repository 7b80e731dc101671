package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dkoval/voicekey/gemini"
	"github.com/dkoval/voicekey/history"
	"github.com/dkoval/voicekey/internal/types"
)

// submit runs one detached submission: upload, generate, clipboard,
// notification, history. Errors are surfaced to the user and never retried;
// re-triggering the recording is on them.
func (a *App) submit(ctx context.Context, snap types.Snapshot, path, name string) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("read recording for upload", "path", path, "error", err)
		a.notifier.Error("Processing error", "Could not read recording: "+err.Error())
		a.record(history.Entry{
			Model: snap.ModelName, Mode: snap.Mode.String(), Audio: name,
			Failure: gemini.KindTransport.String(), Detail: err.Error(),
		})
		return
	}

	uploadStart := time.Now()
	file, err := a.ai.UploadFile(ctx, data, name)
	if err != nil {
		a.reportFailure(snap, name, err)
		return
	}
	slog.Info("audio uploaded", "file", file.Name, "elapsed", time.Since(uploadStart))

	// Cleanup runs exactly once per submission, whatever generation does.
	// Failure to delete is logged, never escalated.
	defer func() {
		if err := a.ai.DeleteFile(ctx, file.Name); err != nil {
			slog.Warn("delete uploaded audio", "file", file.Name, "error", err)
		}
	}()

	genStart := time.Now()
	text, err := a.ai.GenerateContent(ctx, snap.ModelName, snap.Prompt, file)
	if err != nil {
		a.reportFailure(snap, name, err)
		return
	}
	slog.Info("generation complete", "model", snap.ModelName, "mode", snap.Mode,
		"elapsed", time.Since(genStart), "chars", len(text))

	// A clipboard failure must never mask a successful generation: the text
	// still reaches the user through the notification.
	if err := a.clip(text); err != nil {
		slog.Error("copy result to clipboard", "error", err)
		a.notifier.Error("Response (clipboard failed)", text)
	} else {
		a.notifier.Success("Response", text)
	}

	a.record(history.Entry{
		Model: snap.ModelName, Mode: snap.Mode.String(), Audio: name, Text: text,
	})
}

// reportFailure maps a submission error onto its distinct user-visible
// message and records it.
func (a *App) reportFailure(snap types.Snapshot, name string, err error) {
	kind := gemini.KindOf(err)
	slog.Error("submission failed", "kind", kind.String(), "model", snap.ModelName, "error", err)

	var apiErr *gemini.Error
	if errors.As(err, &apiErr) {
		for _, r := range apiErr.SafetyRatings {
			slog.Warn("safety rating", "category", r.Category, "probability", r.Probability)
		}
	}

	a.notifier.Error(failureMessage(kind, snap.ModelName, apiErr, err))

	a.record(history.Entry{
		Model: snap.ModelName, Mode: snap.Mode.String(), Audio: name,
		Failure: kind.String(), Detail: err.Error(),
	})
}

func failureMessage(kind gemini.Kind, model string, apiErr *gemini.Error, err error) (title, body string) {
	switch kind {
	case gemini.KindPermissionDenied:
		return "Gemini API error", fmt.Sprintf("Access denied: invalid API key or no permission for model %q.", model)
	case gemini.KindInvalidModel:
		return "Gemini API error", fmt.Sprintf("Model %q not found or invalid.", model)
	case gemini.KindQuotaExceeded:
		return "Gemini API error", "API request limit reached."
	case gemini.KindBlocked:
		reason := "unspecified"
		if apiErr != nil && apiErr.Reason != "" {
			reason = apiErr.Reason
		}
		return "Gemini error", fmt.Sprintf("Request blocked by safety filter (reason: %s).", reason)
	case gemini.KindEmpty:
		return "Gemini error", "Received an empty response from the model."
	default:
		return "Submission error", err.Error()
	}
}

// record persists an outcome when history is enabled.
func (a *App) record(e history.Entry) {
	if a.hist == nil {
		return
	}
	if err := a.hist.Put(e); err != nil {
		slog.Warn("record history entry", "error", err)
	}
}
