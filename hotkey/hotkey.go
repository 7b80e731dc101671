// Package hotkey interprets global key events into user actions.
//
// A single trigger key (F9) drives everything; the modifier state at the
// instant of the trigger press selects the action. The dispatcher is fed from
// one goroutine (the hook listener) and must stay fast: action callbacks hand
// real work off and return immediately.
package hotkey

import (
	"log/slog"
	"time"
)

// Key identifies the keys the dispatcher cares about. Everything else is
// KeyOther and only logged.
type Key int

const (
	KeyOther Key = iota
	KeyTrigger
	KeyShift
	KeyCtrl
)

// DefaultDebounce is the minimum interval between two accepted trigger
// presses when the config doesn't say otherwise.
const DefaultDebounce = 600 * time.Millisecond

// Actions are invoked on the dispatcher goroutine. Each returns whether an
// action was actually performed; only a performed action arms the debounce
// window.
type Actions struct {
	ToggleRecording  func() bool
	TogglePromptMode func() bool
	ToggleModel      func() bool
}

// Dispatcher consumes (key, edge) events and maintains modifier state.
// It is not safe for concurrent use; feed it from a single goroutine.
type Dispatcher struct {
	actions  Actions
	debounce time.Duration
	now      func() time.Time // injectable for tests

	shift        bool
	ctrl         bool
	lastAccepted time.Time
}

// NewDispatcher creates a dispatcher with the given debounce window.
// A non-positive window falls back to DefaultDebounce.
func NewDispatcher(debounce time.Duration, actions Actions) *Dispatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Dispatcher{
		actions:  actions,
		debounce: debounce,
		now:      time.Now,
	}
}

// KeyDown processes a key press edge.
func (d *Dispatcher) KeyDown(key Key) {
	switch key {
	case KeyShift:
		d.shift = true
		return
	case KeyCtrl:
		d.ctrl = true
		return
	case KeyTrigger:
		d.trigger()
	default:
		// Non-trigger, non-modifier keys pass through untouched.
	}
}

// KeyUp processes a key release edge. Releases never trigger actions; they
// only clear modifier flags.
func (d *Dispatcher) KeyUp(key Key) {
	switch key {
	case KeyShift:
		d.shift = false
	case KeyCtrl:
		d.ctrl = false
	}
}

func (d *Dispatcher) trigger() {
	now := d.now()
	if now.Sub(d.lastAccepted) < d.debounce {
		slog.Debug("trigger press ignored by debounce")
		return
	}

	var performed bool
	switch {
	case d.shift && !d.ctrl:
		performed = d.actions.TogglePromptMode()
	case d.ctrl && !d.shift:
		performed = d.actions.ToggleModel()
	case !d.shift && !d.ctrl:
		performed = d.actions.ToggleRecording()
	default:
		// Unsupported combination (e.g. Shift+Ctrl+trigger). Ignored without
		// arming the debounce window.
		slog.Debug("trigger pressed with unsupported modifier combination, ignoring",
			"shift", d.shift, "ctrl", d.ctrl)
		return
	}

	if performed {
		d.lastAccepted = now
	}
}
