package hotkey

import (
	"testing"
	"time"
)

// recordedActions counts dispatched actions and lets tests control whether an
// action reports itself as performed.
type recordedActions struct {
	recording  int
	promptMode int
	model      int
	performed  bool
}

func (r *recordedActions) actions() Actions {
	return Actions{
		ToggleRecording:  func() bool { r.recording++; return r.performed },
		TogglePromptMode: func() bool { r.promptMode++; return r.performed },
		ToggleModel:      func() bool { r.model++; return r.performed },
	}
}

// testDispatcher returns a dispatcher on a fake clock the test can advance.
func testDispatcher(rec *recordedActions) (*Dispatcher, *time.Time) {
	d := NewDispatcher(DefaultDebounce, rec.actions())
	now := time.Unix(1000, 0)
	d.now = func() time.Time { return now }
	return d, &now
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name           string
		press          []Key // pressed and held before the trigger
		wantRecording  int
		wantPromptMode int
		wantModel      int
	}{
		{"no modifiers toggles recording", nil, 1, 0, 0},
		{"shift toggles prompt mode", []Key{KeyShift}, 0, 1, 0},
		{"ctrl toggles model", []Key{KeyCtrl}, 0, 0, 1},
		{"shift+ctrl is a no-op", []Key{KeyShift, KeyCtrl}, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordedActions{performed: true}
			d, _ := testDispatcher(rec)

			for _, k := range tt.press {
				d.KeyDown(k)
			}
			d.KeyDown(KeyTrigger)

			if rec.recording != tt.wantRecording {
				t.Errorf("recording toggles = %d, want %d", rec.recording, tt.wantRecording)
			}
			if rec.promptMode != tt.wantPromptMode {
				t.Errorf("prompt mode toggles = %d, want %d", rec.promptMode, tt.wantPromptMode)
			}
			if rec.model != tt.wantModel {
				t.Errorf("model toggles = %d, want %d", rec.model, tt.wantModel)
			}
		})
	}
}

func TestDebounceBurst(t *testing.T) {
	rec := &recordedActions{performed: true}
	d, now := testDispatcher(rec)

	// A burst of presses inside the window: only the first is accepted.
	d.KeyDown(KeyTrigger)
	for i := 0; i < 5; i++ {
		*now = now.Add(100 * time.Millisecond)
		d.KeyDown(KeyTrigger)
	}

	if rec.recording != 1 {
		t.Errorf("recording toggles after burst = %d, want 1", rec.recording)
	}

	// Past the window the next press is accepted again.
	*now = now.Add(DefaultDebounce)
	d.KeyDown(KeyTrigger)
	if rec.recording != 2 {
		t.Errorf("recording toggles after window = %d, want 2", rec.recording)
	}
}

func TestDebounceArmsOnlyOnPerformedAction(t *testing.T) {
	rec := &recordedActions{performed: false}
	d, now := testDispatcher(rec)

	// Action reports not-performed: the window must not arm.
	d.KeyDown(KeyTrigger)
	rec.performed = true
	*now = now.Add(100 * time.Millisecond)
	d.KeyDown(KeyTrigger)

	if rec.recording != 2 {
		t.Errorf("recording toggles = %d, want 2 (unperformed press must not debounce)", rec.recording)
	}
}

func TestInvalidComboDoesNotArmDebounce(t *testing.T) {
	rec := &recordedActions{performed: true}
	d, now := testDispatcher(rec)

	// Shift+Ctrl+trigger is ignored and must not suppress the valid press
	// that follows inside what would have been the window.
	d.KeyDown(KeyShift)
	d.KeyDown(KeyCtrl)
	d.KeyDown(KeyTrigger)
	d.KeyUp(KeyShift)
	d.KeyUp(KeyCtrl)

	*now = now.Add(100 * time.Millisecond)
	d.KeyDown(KeyTrigger)

	if rec.recording != 1 {
		t.Errorf("recording toggles = %d, want 1", rec.recording)
	}
}

func TestReleaseClearsModifier(t *testing.T) {
	rec := &recordedActions{performed: true}
	d, now := testDispatcher(rec)

	d.KeyDown(KeyShift)
	d.KeyUp(KeyShift)
	d.KeyDown(KeyTrigger)

	if rec.promptMode != 0 {
		t.Errorf("prompt mode toggles = %d, want 0 after shift release", rec.promptMode)
	}
	if rec.recording != 1 {
		t.Errorf("recording toggles = %d, want 1", rec.recording)
	}

	// Releases themselves never trigger actions.
	*now = now.Add(DefaultDebounce)
	d.KeyUp(KeyTrigger)
	if rec.recording != 1 {
		t.Errorf("recording toggles after trigger release = %d, want 1", rec.recording)
	}
}

func TestOtherKeysIgnored(t *testing.T) {
	rec := &recordedActions{performed: true}
	d, _ := testDispatcher(rec)

	d.KeyDown(KeyOther)
	d.KeyUp(KeyOther)

	if rec.recording+rec.promptMode+rec.model != 0 {
		t.Error("non-trigger keys must not dispatch actions")
	}
}
