package x11

import (
	"math"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/stretchr/testify/assert"
)

func TestToXRectanglesClampsAndDropsEmpty(t *testing.T) {
	got := toXRectangles([]Rect{
		{X: 0, Y: 0, Width: 100, Height: 50},
		{X: -40000, Y: 10, Width: 10, Height: 10},
		{X: 32000, Y: 0, Width: 2000, Height: 5},
	})

	want := []xproto.Rectangle{
		{X: 0, Y: 0, Width: 100, Height: 50},
		{X: 32000, Y: 0, Width: math.MaxInt16 - 32000, Height: 5},
	}
	assert.Equal(t, want, got)
}

func TestToXRectanglesEmptyInputGivesEmptyShape(t *testing.T) {
	got := toXRectangles(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSizeHintsFixedSizePinsBounds(t *testing.T) {
	hints := sizeHints(WindowOptions{Width: 320, Height: 48, MinWidth: 10, MaxWidth: 900})

	assert.Equal(t, uint(320), hints.MinWidth)
	assert.Equal(t, uint(320), hints.MaxWidth)
	assert.Equal(t, uint(48), hints.MinHeight)
	assert.Equal(t, uint(48), hints.MaxHeight)
	assert.NotZero(t, hints.Flags&icccm.SizeHintPMinSize)
	assert.NotZero(t, hints.Flags&icccm.SizeHintPMaxSize)
}

func TestSizeHintsResizableUnbounded(t *testing.T) {
	hints := sizeHints(WindowOptions{Width: 800, Height: 600, Resizable: true})

	assert.Zero(t, hints.Flags&icccm.SizeHintPMinSize)
	assert.Zero(t, hints.Flags&icccm.SizeHintPMaxSize)
	assert.Equal(t, uint(800), hints.Width)
}

func TestSizeHintsResizableWithBounds(t *testing.T) {
	hints := sizeHints(WindowOptions{
		Width: 800, Height: 700, Resizable: true,
		MinWidth: 600, MinHeight: 500, MaxWidth: 1000, MaxHeight: 800,
	})

	assert.Equal(t, uint(600), hints.MinWidth)
	assert.Equal(t, uint(500), hints.MinHeight)
	assert.Equal(t, uint(1000), hints.MaxWidth)
	assert.Equal(t, uint(800), hints.MaxHeight)
}

func TestClipMonitor(t *testing.T) {
	mon := Monitor{X: 0, Y: 0, Width: 1920, Height: 1080}

	clipped := clipMonitor(mon, 0, 32, 1920, 1048)
	assert.Equal(t, Monitor{X: 0, Y: 32, Width: 1920, Height: 1048}, clipped)

	disjoint := clipMonitor(mon, 3000, 0, 100, 100)
	assert.Equal(t, mon, disjoint)
}
