package palette

import (
	"context"
	"errors"
	"testing"

	"github.com/1broseidon/steward/internal/command"
)

type fakeClient struct {
	status    *command.Status
	statusErr error
	calls     []string
	caller    string
	regions   []command.RegionSpec
}

func (f *fakeClient) GetStatus() (*command.Status, error) { return f.status, f.statusErr }

func (f *fakeClient) OpenOrFocusSettings() error { return f.record("open") }
func (f *fakeClient) ShowMain() error            { return f.record("show") }
func (f *fakeClient) HideMain() error            { return f.record("hide") }
func (f *fakeClient) ReloadKeybinds() error      { return f.record("reload") }
func (f *fakeClient) Quit() error                { return f.record("quit") }

func (f *fakeClient) record(call string) error {
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeClient) ConfigureToolbarClickThrough(caller string, regions []command.RegionSpec) error {
	f.caller = caller
	f.regions = regions
	return f.record("regions")
}

type fakeBackend struct {
	pick   func(items []Item) (Item, error)
	prompt string
	shown  []Item
}

func (f *fakeBackend) Show(ctx context.Context, prompt string, items []Item, message string) (Item, error) {
	f.prompt = prompt
	f.shown = items
	return f.pick(items)
}

func (f *fakeBackend) Capabilities() Capabilities { return Capabilities{} }

func pickAction(action string) func([]Item) (Item, error) {
	return func(items []Item) (Item, error) {
		for _, it := range items {
			if it.Action == action {
				return it, nil
			}
		}
		return Item{}, errors.New("not offered: " + action)
	}
}

func TestItems_TogglesMainEntry(t *testing.T) {
	l := NewLauncher(&fakeBackend{}, &fakeClient{}, "")

	active := l.Items(&command.Status{MainState: "active"})
	if !hasAction(active, command.HideMain) || hasAction(active, command.ShowMain) {
		t.Fatalf("active main should offer hide only: %#v", active)
	}

	hidden := l.Items(&command.Status{MainState: "hidden"})
	if !hasAction(hidden, command.ShowMain) || hasAction(hidden, command.HideMain) {
		t.Fatalf("hidden main should offer show only: %#v", hidden)
	}

	for _, it := range hidden {
		if it.IsHeader && it.Action != "" {
			t.Fatalf("header %q must not carry an action", it.Label)
		}
	}
}

func TestRun_ExecutesSelection(t *testing.T) {
	tests := []struct {
		action string
		call   string
	}{
		{command.OpenSettings, "open"},
		{command.HideMain, "hide"},
		{actionReloadKeybinds, "reload"},
		{command.Quit, "quit"},
	}
	for _, tt := range tests {
		client := &fakeClient{status: &command.Status{MainState: "active"}}
		backend := &fakeBackend{pick: pickAction(tt.action)}
		got, err := NewLauncher(backend, client, "").Run(context.Background())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.action, err)
		}
		if got != tt.action {
			t.Fatalf("%s: returned %q", tt.action, got)
		}
		if len(client.calls) != 1 || client.calls[0] != tt.call {
			t.Fatalf("%s: calls = %v, want [%s]", tt.action, client.calls, tt.call)
		}
		if backend.prompt != "steward" {
			t.Fatalf("unexpected prompt %q", backend.prompt)
		}
	}
}

func TestRun_ToolbarPassthroughSendsEmptyRegions(t *testing.T) {
	client := &fakeClient{status: &command.Status{MainState: "active", Regions: 3}}
	backend := &fakeBackend{pick: pickAction(actionToolbarPassthrough)}

	if _, err := NewLauncher(backend, client, "overlay").Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.caller != "overlay" {
		t.Fatalf("caller = %q, want overlay", client.caller)
	}
	if client.regions == nil || len(client.regions) != 0 {
		t.Fatalf("expected empty region set, got %#v", client.regions)
	}
}

func TestRun_CancelDoesNothing(t *testing.T) {
	client := &fakeClient{status: &command.Status{MainState: "hidden"}}
	backend := &fakeBackend{pick: func([]Item) (Item, error) { return Item{}, ErrCancelled }}

	got, err := NewLauncher(backend, client, "").Run(context.Background())
	if err != nil || got != "" {
		t.Fatalf("Run() = %q, %v; want empty, nil", got, err)
	}
	if len(client.calls) != 0 {
		t.Fatalf("expected no calls, got %v", client.calls)
	}
}

func TestRun_DaemonUnreachable(t *testing.T) {
	client := &fakeClient{statusErr: errors.New("connection refused")}
	backend := &fakeBackend{pick: pickAction(command.Quit)}

	if _, err := NewLauncher(backend, client, "").Run(context.Background()); err == nil {
		t.Fatal("expected error when daemon is unreachable")
	}
	if backend.shown != nil {
		t.Fatal("palette should not be shown without a daemon")
	}
}

func TestExecute_UnknownAction(t *testing.T) {
	if err := NewLauncher(&fakeBackend{}, &fakeClient{}, "").Execute("bogus"); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func hasAction(items []Item, action string) bool {
	for _, it := range items {
		if it.Action == action {
			return true
		}
	}
	return false
}
