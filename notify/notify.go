// Package notify delivers best-effort desktop notifications.
package notify

import (
	"log/slog"
	"unicode/utf8"

	"github.com/gen2brain/beeep"
)

const appName = "Voicekey"

// maxBody keeps notification bodies short enough for every desktop toast.
const maxBody = 200

// Notifier shows desktop notifications. Failures are logged, never escalated.
type Notifier struct {
	enabled bool
}

// New creates a Notifier.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled}
}

// Info shows an informational notification.
func (n *Notifier) Info(title, body string) {
	n.show(title, body)
}

// Success shows a result notification, typically the generated text.
func (n *Notifier) Success(title, body string) {
	n.show(title, body)
}

// Error shows a failure notification.
func (n *Notifier) Error(title, body string) {
	n.show("⚠ "+title, body)
}

func (n *Notifier) show(title, body string) {
	if !n.enabled {
		return
	}
	if err := beeep.Notify(appName+": "+title, truncate(body), ""); err != nil {
		slog.Warn("show notification", "title", title, "error", err)
	}
}

// truncate caps the body at maxBody runes. Bodies are routinely Cyrillic, so
// cutting on bytes could split a rune.
func truncate(body string) string {
	if utf8.RuneCountInString(body) <= maxBody {
		return body
	}
	runes := []rune(body)
	return string(runes[:maxBody]) + "…"
}
