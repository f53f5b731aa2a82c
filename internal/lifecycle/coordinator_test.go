package lifecycle

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/steward/internal/platform"
	"github.com/1broseidon/steward/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from   State
		event  Event
		to     State
		action Action
	}{
		{StateActive, EventCloseRequested, StateHidden, ActionHide},
		{StateHidden, EventCloseRequested, StateHidden, ActionNone},
		{StateActive, EventShown, StateActive, ActionNone},
		{StateHidden, EventShown, StateActive, ActionNone},
		{StateActive, EventDestroyed, StateTerminated, ActionCascade},
		{StateHidden, EventDestroyed, StateTerminated, ActionCascade},
		{StateTerminated, EventShown, StateTerminated, ActionNone},
		{StateTerminated, EventCloseRequested, StateTerminated, ActionNone},
		{StateTerminated, EventDestroyed, StateTerminated, ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.event.String(), func(t *testing.T) {
			to, action := Transition(tt.from, tt.event)
			assert.Equal(t, tt.to, to)
			assert.Equal(t, tt.action, action)
		})
	}
}

type session struct {
	backend *platform.Headless
	reg     *window.Registry
	coord   *Coordinator
}

func newSession(t *testing.T) *session {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := platform.NewHeadless()
	reg := window.NewRegistry(backend, logger)
	mainCfg := window.Config{Title: "Steward", Width: 800, Height: 600, Center: true, Resizable: true, Decorations: true, Visible: true}

	require.NoError(t, reg.OpenOrFocus("main", window.KindMain, mainCfg))
	require.NoError(t, reg.OpenOrFocus("settings", window.KindSettings, window.Config{Width: 800, Height: 700, Visible: true}))

	coord := New(reg, Config{
		MainLabel:  "main",
		MainWindow: mainCfg,
		Dependents: []string{"settings"},
		Logger:     logger,
	})
	coord.Start(backend)

	return &session{backend: backend, reg: reg, coord: coord}
}

func (s *session) id(t *testing.T, label string) platform.WindowID {
	t.Helper()
	h, ok := s.reg.Get(label)
	require.True(t, ok, "window %q not registered", label)
	return h.ID
}

func TestCloseRequestOnMainHides(t *testing.T) {
	s := newSession(t)
	mainID := s.id(t, "main")

	s.backend.RequestClose(mainID)

	assert.Equal(t, StateHidden, s.coord.State())
	h, ok := s.reg.Get("main")
	require.True(t, ok)
	assert.False(t, h.Visible)

	w, ok := s.backend.Window(mainID)
	require.True(t, ok, "main window must not be destroyed")
	assert.False(t, w.Visible)

	require.NoError(t, s.coord.ShowMain())
	assert.Equal(t, StateActive, s.coord.State())
	h, _ = s.reg.Get("main")
	assert.True(t, h.Visible)
	assert.Equal(t, mainID, h.ID)
	assert.Equal(t, 2, s.backend.Created())
}

func TestCloseRequestOnOtherWindowCloses(t *testing.T) {
	s := newSession(t)
	settingsID := s.id(t, "settings")

	var destroyed []string
	s.coord.OnWindowDestroyed(func(label string) { destroyed = append(destroyed, label) })

	s.backend.RequestClose(settingsID)

	_, ok := s.reg.Get("settings")
	assert.False(t, ok)
	assert.False(t, s.backend.Exists(settingsID))
	assert.Equal(t, StateActive, s.coord.State())
	assert.Equal(t, []string{"settings"}, destroyed)
}

func TestMainDestroyCascades(t *testing.T) {
	s := newSession(t)
	settingsID := s.id(t, "settings")

	terminated := 0
	s.coord.OnTerminated(func() { terminated++ })

	s.backend.Vanish(s.id(t, "main"))

	assert.Equal(t, StateTerminated, s.coord.State())
	assert.Equal(t, 0, s.reg.Len())
	assert.False(t, s.backend.Exists(settingsID))
	assert.Equal(t, 1, terminated)
}

func TestMainDestroyWithoutDependents(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.reg.Close("settings"))

	s.backend.Vanish(s.id(t, "main"))

	assert.Equal(t, StateTerminated, s.coord.State())
	assert.Equal(t, 0, s.reg.Len())
}

func TestTerminatedIsAbsorbing(t *testing.T) {
	s := newSession(t)
	terminated := 0
	s.coord.OnTerminated(func() { terminated++ })

	require.NoError(t, s.coord.Quit())
	require.NoError(t, s.coord.Quit())

	assert.Equal(t, StateTerminated, s.coord.State())
	assert.Equal(t, 1, terminated)
	assert.ErrorIs(t, s.coord.ShowMain(), ErrTerminated)
	assert.ErrorIs(t, s.coord.HideMain(), ErrTerminated)
	assert.Equal(t, 0, s.backend.Count())
}

func TestOtherWindowDestroyForgetsOnlyThatWindow(t *testing.T) {
	s := newSession(t)
	var destroyed []string
	s.coord.OnWindowDestroyed(func(label string) { destroyed = append(destroyed, label) })

	s.backend.Vanish(s.id(t, "settings"))

	assert.Equal(t, []string{"main"}, s.reg.Labels())
	assert.Equal(t, StateActive, s.coord.State())
	assert.Equal(t, []string{"settings"}, destroyed)
}

func TestHideMainThenShow(t *testing.T) {
	s := newSession(t)

	require.NoError(t, s.coord.HideMain())
	assert.Equal(t, StateHidden, s.coord.State())
	require.NoError(t, s.coord.HideMain())

	require.NoError(t, s.coord.ShowMain())
	w, ok := s.backend.Window(s.id(t, "main"))
	require.True(t, ok)
	assert.True(t, w.Visible)
	assert.True(t, w.Focused)
}

func TestShowMainAfterCloseWithFocusFailure(t *testing.T) {
	s := newSession(t)
	mainID := s.id(t, "main")

	s.backend.RequestClose(mainID)
	require.Equal(t, StateHidden, s.coord.State())

	s.backend.FocusErr = errors.New("window manager refused activation")
	require.NoError(t, s.coord.ShowMain())

	assert.Equal(t, StateActive, s.coord.State())
	h, ok := s.reg.Get("main")
	require.True(t, ok)
	assert.True(t, h.Visible)
	w, ok := s.backend.Window(mainID)
	require.True(t, ok)
	assert.True(t, w.Visible)
}

func TestRecreatedWindowRunsDestroyListeners(t *testing.T) {
	s := newSession(t)
	s.reg.OnVanished(s.coord.WindowDropped)
	var destroyed []string
	s.coord.OnWindowDestroyed(func(label string) { destroyed = append(destroyed, label) })

	old := s.id(t, "settings")
	s.backend.Drop(old)
	require.NoError(t, s.reg.OpenOrFocus("settings", window.KindSettings, window.Config{Width: 800, Height: 700, Visible: true}))

	assert.Equal(t, []string{"settings"}, destroyed)
	assert.NotEqual(t, old, s.id(t, "settings"))
	assert.Equal(t, StateActive, s.coord.State())
}

func TestStartSubscribesOnce(t *testing.T) {
	s := newSession(t)
	s.coord.Start(s.backend)

	terminated := 0
	s.coord.OnTerminated(func() { terminated++ })
	s.backend.Vanish(s.id(t, "main"))

	assert.Equal(t, 1, terminated)
}

func TestUnknownWindowEventsIgnored(t *testing.T) {
	s := newSession(t)

	s.backend.RequestClose(platform.WindowID(999))
	s.backend.Vanish(platform.WindowID(999))

	assert.Equal(t, StateActive, s.coord.State())
	assert.Equal(t, 2, s.reg.Len())
}

func TestWindowGoneWithoutEventCascades(t *testing.T) {
	s := newSession(t)
	mainID := s.id(t, "main")
	terminated := 0
	s.coord.OnTerminated(func() { terminated++ })

	s.backend.Drop(mainID)
	s.coord.WindowGone(mainID)

	assert.Equal(t, StateTerminated, s.coord.State())
	assert.Equal(t, 1, terminated)
	assert.Equal(t, 0, s.reg.Len())

	s.coord.WindowGone(mainID)
	assert.Equal(t, 1, terminated)
}
