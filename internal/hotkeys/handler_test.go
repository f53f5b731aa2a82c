package hotkeys

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/steward/internal/store"
)

type recordingDispatcher struct {
	calls []string
	err   error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, name string) error {
	d.calls = append(d.calls, name)
	return d.err
}

type staticSource struct {
	binds []store.Keybind
	err   error
}

func (s *staticSource) ListKeybinds(context.Context) ([]store.Keybind, error) {
	return s.binds, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolve(t *testing.T) {
	plan, skipped := Resolve([]store.Keybind{
		{KeyCombination: "Mod4-Mod1-s", Command: "open_settings"},
		{KeyCombination: "Mod4-t", Command: "tile"},
		{KeyCombination: "Mod4-", Command: "show_main"},
		{KeyCombination: "Hyper-x", Command: "show_main"},
		{KeyCombination: "control-Mod1-h", Command: "hide_main"},
		{KeyCombination: "Mod4-Mod1-S", Command: "quit"},
	})

	want := []Binding{
		{KeyCombination: "Mod4-Mod1-S", Command: "quit"},
		{KeyCombination: "control-Mod1-h", Command: "hide_main"},
	}
	if len(plan) != len(want) {
		t.Fatalf("plan = %+v, want %+v", plan, want)
	}
	for i := range want {
		if plan[i] != want[i] {
			t.Fatalf("plan[%d] = %+v, want %+v", i, plan[i], want[i])
		}
	}

	reasons := map[string]string{}
	for _, s := range skipped {
		reasons[s.KeyCombination] = s.Reason
	}
	if reasons["Mod4-t"] != "unknown command" {
		t.Fatalf("Mod4-t reason = %q", reasons["Mod4-t"])
	}
	if reasons["Mod4-"] != "malformed key combination" || reasons["Hyper-x"] != "malformed key combination" {
		t.Fatalf("unexpected reasons: %v", reasons)
	}
	if reasons["Mod4-Mod1-s"] != "duplicate key combination" {
		t.Fatalf("expected case-insensitive duplicate, got %v", reasons)
	}
}

func TestHandler_LoadWithoutX11(t *testing.T) {
	d := &recordingDispatcher{}
	src := &staticSource{binds: []store.Keybind{
		{KeyCombination: "Mod4-Mod1-s", Command: "open_settings"},
		{KeyCombination: "Mod4-t", Command: "tile"},
	}}
	h := NewHandler(nil, d, src, discardLogger())

	if err := h.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	bound := h.Bound()
	if len(bound) != 1 || bound[0].Command != "open_settings" {
		t.Fatalf("Bound() = %+v", bound)
	}

	if !h.Trigger("Mod4-Mod1-s") {
		t.Fatalf("expected Trigger to find the binding")
	}
	if h.Trigger("Mod4-t") {
		t.Fatalf("expected skipped binding not to trigger")
	}
	if len(d.calls) != 1 || d.calls[0] != "open_settings" {
		t.Fatalf("dispatched %v", d.calls)
	}
}

func TestHandler_ReloadPicksUpChanges(t *testing.T) {
	d := &recordingDispatcher{}
	src := &staticSource{}
	h := NewHandler(nil, d, src, discardLogger())

	h.Reload()
	if len(h.Bound()) != 0 {
		t.Fatalf("expected no bindings")
	}

	src.binds = []store.Keybind{{KeyCombination: "Mod4-h", Command: "hide_main"}}
	h.Reload()
	if len(h.Bound()) != 1 {
		t.Fatalf("expected reload to bind Mod4-h, got %+v", h.Bound())
	}
}

func TestHandler_LoadErrorKeepsPrevious(t *testing.T) {
	src := &staticSource{binds: []store.Keybind{{KeyCombination: "Mod4-h", Command: "hide_main"}}}
	h := NewHandler(nil, &recordingDispatcher{}, src, discardLogger())
	if err := h.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	src.err = errors.New("database is locked")
	if err := h.Load(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if len(h.Bound()) != 1 {
		t.Fatalf("expected previous bindings to survive a failed load")
	}
}

func TestHandler_DispatchFailureIsLogged(t *testing.T) {
	d := &recordingDispatcher{err: errors.New("session has terminated")}
	src := &staticSource{binds: []store.Keybind{{KeyCombination: "Mod4-m", Command: "show_main"}}}
	h := NewHandler(nil, d, src, discardLogger())
	if err := h.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if !h.Trigger("Mod4-m") {
		t.Fatalf("expected binding")
	}
	if len(d.calls) != 1 {
		t.Fatalf("dispatched %v", d.calls)
	}
}
