package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/dkoval/voicekey/history"
	"github.com/dkoval/voicekey/hotkey"
)

type fakeListener struct {
	err error
}

func (f *fakeListener) Run(context.Context) error { return f.err }

type recordedNotifier struct {
	titles []string
	bodies []string
}

func (r *recordedNotifier) Error(title, body string) {
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, body)
}

func TestListenKeysReportsHookFailure(t *testing.T) {
	n := &recordedNotifier{}

	err := listenKeys(context.Background(), &fakeListener{err: hotkey.ErrHookClosed}, n)
	if !errors.Is(err, hotkey.ErrHookClosed) {
		t.Fatalf("listenKeys = %v, want wrapped ErrHookClosed", err)
	}

	if len(n.titles) != 1 || n.titles[0] != "Startup error" {
		t.Fatalf("notifications = %v, want one Startup error", n.titles)
	}
	if !strings.Contains(n.bodies[0], "keyboard hook") {
		t.Errorf("notification body = %q, want mention of the keyboard hook", n.bodies[0])
	}
}

func TestListenKeysQuietOnCleanExit(t *testing.T) {
	n := &recordedNotifier{}

	if err := listenKeys(context.Background(), &fakeListener{}, n); err != nil {
		t.Fatalf("listenKeys = %v, want nil", err)
	}
	if len(n.titles) != 0 {
		t.Errorf("notifications = %v, want none on clean exit", n.titles)
	}
}

func TestLogRecentWritesJournalTail(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	store, err := history.New(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Put(history.Entry{Model: "model-pro", Mode: "Assistant", Text: "hi"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	logRecent(store, 3)

	out := buf.String()
	if !strings.Contains(out, "recent result") {
		t.Errorf("log output %q, want a recent result line", out)
	}
	if !strings.Contains(out, "model-pro") {
		t.Errorf("log output %q, want the entry's model", out)
	}
}
