package hotkey

import (
	"context"
	"errors"
	"log/slog"

	hook "github.com/robotn/gohook"
)

// ErrHookClosed indicates the global hook event stream terminated on its own,
// usually because the platform refused the hook (missing accessibility or
// input privileges).
var ErrHookClosed = errors.New("global key hook event stream closed")

// Listener drains the global keyboard hook and feeds the dispatcher.
// The hook is non-suppressing: events still reach other applications.
type Listener struct {
	dispatcher *Dispatcher
	trigger    uint16
	shift      map[uint16]bool
	ctrl       map[uint16]bool
}

// NewListener binds the F9 trigger and the Shift/Ctrl modifiers.
func NewListener(d *Dispatcher) *Listener {
	return &Listener{
		dispatcher: d,
		trigger:    hook.Keycode["f9"],
		shift:      keycodes("shift", "lshift", "rshift"),
		ctrl:       keycodes("ctrl", "lctrl", "rctrl"),
	}
}

// Run installs the hook and pumps events into the dispatcher until ctx is
// cancelled. It blocks; run it on its own goroutine. Returns ErrHookClosed
// if the event stream dies before ctx does.
func (l *Listener) Run(ctx context.Context) error {
	events := hook.Start()
	defer hook.End()

	slog.Info("global key hook installed",
		"trigger", "f9", "modifiers", "shift, ctrl")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return ErrHookClosed
			}
			switch ev.Kind {
			case hook.KeyDown:
				l.dispatcher.KeyDown(l.classify(ev.Keycode))
			case hook.KeyUp:
				l.dispatcher.KeyUp(l.classify(ev.Keycode))
			}
		}
	}
}

func (l *Listener) classify(code uint16) Key {
	switch {
	case code == l.trigger:
		return KeyTrigger
	case l.shift[code]:
		return KeyShift
	case l.ctrl[code]:
		return KeyCtrl
	default:
		return KeyOther
	}
}

// keycodes resolves named keys to their hook keycodes, skipping names the
// platform table doesn't define.
func keycodes(names ...string) map[uint16]bool {
	m := make(map[uint16]bool, len(names))
	for _, name := range names {
		if code, ok := hook.Keycode[name]; ok && code != 0 {
			m[code] = true
		}
	}
	return m
}
