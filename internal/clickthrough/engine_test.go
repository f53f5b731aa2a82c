package clickthrough

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/1broseidon/steward/internal/platform"
	"github.com/1broseidon/steward/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	backend *platform.Headless
	reg     *window.Registry
	engine  *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := platform.NewHeadless()
	reg := window.NewRegistry(backend, logger)

	require.NoError(t, reg.OpenOrFocus("toolbar", window.KindToolbar, window.Config{
		Width: 480, Height: 64, Visible: true, AlwaysOnTop: true, ClickThrough: true,
	}))
	require.NoError(t, reg.OpenOrFocus("main", window.KindMain, window.Config{
		Width: 800, Height: 600, Visible: true,
	}))

	return &fixture{
		backend: backend,
		reg:     reg,
		engine:  NewEngine(reg, backend, logger),
	}
}

func (f *fixture) appliedRegions(t *testing.T, label string) []platform.Rect {
	t.Helper()
	h, ok := f.reg.Get(label)
	require.True(t, ok)
	w, ok := f.backend.Window(h.ID)
	require.True(t, ok)
	return w.Regions
}

func TestRegionContainsHalfOpen(t *testing.T) {
	r := Region{X: 10, Y: 20, Width: 100, Height: 50}

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"origin corner", Point{10, 20}, true},
		{"interior", Point{60, 45}, true},
		{"last pixel", Point{109, 69}, true},
		{"far corner", Point{110, 70}, false},
		{"right edge", Point{110, 30}, false},
		{"bottom edge", Point{30, 70}, false},
		{"left of origin", Point{9, 20}, false},
		{"above origin", Point{10, 19}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Contains(tt.p))
		})
	}
}

func TestRegionSetNegativeOffsetsAndOverlap(t *testing.T) {
	set := RegionSet{
		{X: -20, Y: -20, Width: 30, Height: 30},
		{X: 0, Y: 0, Width: 50, Height: 50},
	}

	assert.True(t, set.Contains(Point{-20, -20}))
	assert.True(t, set.Contains(Point{5, 5}))
	assert.True(t, set.Contains(Point{49, 49}))
	assert.False(t, set.Contains(Point{50, 50}))
	assert.False(t, set.Contains(Point{-21, 0}))
}

func TestRegionSetValidate(t *testing.T) {
	idx, err := RegionSet{{Width: 1, Height: 1}, {Width: 0, Height: 5}}.Validate()
	assert.Error(t, err)
	assert.Equal(t, 1, idx)

	idx, err = RegionSet{{Width: 3, Height: -1}}.Validate()
	assert.Error(t, err)
	assert.Equal(t, 0, idx)

	idx, err = RegionSet{}.Validate()
	assert.NoError(t, err)
	assert.Equal(t, -1, idx)
}

func TestHitTestScenario(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.engine.SetRegions("toolbar", RegionSet{{X: 0, Y: 0, Width: 100, Height: 50}}))

	assert.True(t, f.engine.HitTest(Point{50, 25}))
	assert.False(t, f.engine.HitTest(Point{150, 25}))
	assert.True(t, f.engine.HitTest(Point{0, 0}))
	assert.False(t, f.engine.HitTest(Point{100, 50}))

	assert.Equal(t, []platform.Rect{{X: 0, Y: 0, Width: 100, Height: 50}}, f.appliedRegions(t, "toolbar"))
}

func TestHitTestDeterministic(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.SetRegions("toolbar", RegionSet{{X: 5, Y: 5, Width: 10, Height: 10}}))

	for i := 0; i < 100; i++ {
		require.True(t, f.engine.HitTest(Point{7, 7}))
		require.False(t, f.engine.HitTest(Point{15, 15}))
	}
}

func TestEmptySetIsFullyClickThrough(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.engine.HitTest(Point{0, 0}))

	require.NoError(t, f.engine.SetRegions("toolbar", RegionSet{{X: 0, Y: 0, Width: 480, Height: 64}}))
	require.NoError(t, f.engine.SetRegions("toolbar", nil))

	for _, p := range []Point{{0, 0}, {100, 30}, {479, 63}, {-5, -5}} {
		assert.False(t, f.engine.HitTest(p), "point %+v", p)
	}
	applied := f.appliedRegions(t, "toolbar")
	assert.NotNil(t, applied)
	assert.Empty(t, applied)
}

func TestSetRegionsRejectsNonClickThroughTarget(t *testing.T) {
	f := newFixture(t)
	original := RegionSet{{X: 0, Y: 0, Width: 100, Height: 50}}
	require.NoError(t, f.engine.SetRegions("toolbar", original))

	err := f.engine.SetRegions("main", RegionSet{{X: 0, Y: 0, Width: 10, Height: 10}})
	assert.ErrorIs(t, err, window.InvalidTarget)

	err = f.engine.SetRegions("settings", RegionSet{{X: 0, Y: 0, Width: 10, Height: 10}})
	assert.ErrorIs(t, err, window.InvalidTarget)

	assert.Equal(t, original, f.engine.Regions())
	assert.Nil(t, f.appliedRegions(t, "main"))
}

func TestSetRegionsRejectsInvalidRegion(t *testing.T) {
	f := newFixture(t)
	original := RegionSet{{X: 0, Y: 0, Width: 100, Height: 50}}
	require.NoError(t, f.engine.SetRegions("toolbar", original))

	err := f.engine.SetRegions("toolbar", RegionSet{{X: 0, Y: 0, Width: 10, Height: 10}, {X: 5, Y: 5, Width: 0, Height: 3}})
	require.Error(t, err)
	assert.ErrorIs(t, err, window.InvalidRegion)
	assert.Contains(t, err.Error(), "region 1")

	assert.Equal(t, original, f.engine.Regions())
	assert.Equal(t, original.Rects(), f.appliedRegions(t, "toolbar"))
}

func TestSetRegionsKeepsOldSetWhenPlatformFails(t *testing.T) {
	f := newFixture(t)
	original := RegionSet{{X: 0, Y: 0, Width: 100, Height: 50}}
	require.NoError(t, f.engine.SetRegions("toolbar", original))

	f.backend.ShapeErr = errors.New("BadMatch")
	err := f.engine.SetRegions("toolbar", RegionSet{{X: 200, Y: 0, Width: 10, Height: 10}})
	require.Error(t, err)

	assert.Equal(t, original, f.engine.Regions())
	assert.True(t, f.engine.HitTest(Point{50, 25}))
	assert.False(t, f.engine.HitTest(Point{205, 5}))
}

func TestSetRegionsCopiesInput(t *testing.T) {
	f := newFixture(t)
	regions := RegionSet{{X: 0, Y: 0, Width: 100, Height: 50}}
	require.NoError(t, f.engine.SetRegions("toolbar", regions))

	regions[0].Width = 1
	assert.True(t, f.engine.HitTest(Point{50, 25}))

	got := f.engine.Regions()
	got[0].X = 999
	assert.True(t, f.engine.HitTest(Point{0, 0}))
}

func TestReapplyPushesActiveSet(t *testing.T) {
	f := newFixture(t)
	set := RegionSet{{X: 0, Y: 0, Width: 40, Height: 40}, {X: 300, Y: 0, Width: 64, Height: 64}}
	require.NoError(t, f.engine.SetRegions("toolbar", set))

	h, _ := f.reg.Get("toolbar")
	require.NoError(t, f.backend.ApplyInputRegions(h.ID, nil))

	require.NoError(t, f.engine.Reapply("toolbar"))
	assert.Equal(t, set.Rects(), f.appliedRegions(t, "toolbar"))

	assert.ErrorIs(t, f.engine.Reapply("main"), window.InvalidTarget)
}

func TestResetOnlyAffectsBoundLabel(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.SetRegions("toolbar", RegionSet{{X: 0, Y: 0, Width: 10, Height: 10}}))

	f.engine.Reset("main")
	assert.True(t, f.engine.HitTest(Point{1, 1}))

	f.engine.Reset("toolbar")
	assert.False(t, f.engine.HitTest(Point{1, 1}))
	assert.Empty(t, f.engine.Regions())
}

func TestConcurrentReadersSeeWholeSets(t *testing.T) {
	f := newFixture(t)

	// Set A covers both probes, set B covers neither; a reader that sees
	// exactly one probe inside observed a torn update.
	setA := RegionSet{{X: 0, Y: 0, Width: 10, Height: 10}, {X: 100, Y: 0, Width: 10, Height: 10}}
	setB := RegionSet{{X: 200, Y: 0, Width: 10, Height: 10}}
	require.NoError(t, f.engine.SetRegions("toolbar", setA))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	torn := make(chan struct{}, 1)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				set := f.engine.Regions()
				if set.Contains(Point{5, 5}) != set.Contains(Point{105, 5}) {
					select {
					case torn <- struct{}{}:
					default:
					}
				}
				_ = f.engine.HitTest(Point{5, 5})
			}
		}()
	}

	for i := 0; i < 200; i++ {
		next := setA
		if i%2 == 0 {
			next = setB
		}
		require.NoError(t, f.engine.SetRegions("toolbar", next))
	}
	close(stop)
	wg.Wait()

	select {
	case <-torn:
		t.Fatal("reader observed a partially applied region set")
	default:
	}
}
