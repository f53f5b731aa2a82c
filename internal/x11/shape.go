package x11

import (
	"errors"
	"math"

	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
)

// ErrNoInputShape is returned when the server lacks SHAPE input regions.
var ErrNoInputShape = errors.New("x11: SHAPE input regions not supported by server")

// Rect is a window-local rectangle.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// SetInputShape replaces the input shape of a window with the union of rects.
// Pointer events outside the union go to whatever is beneath the window; an
// empty list makes the whole window click-through.
func (c *Connection) SetInputShape(wid xproto.Window, rects []Rect) error {
	if !c.inputShape {
		return ErrNoInputShape
	}
	return shape.RectanglesChecked(
		c.XUtil.Conn(),
		shape.SoSet,
		shape.SkInput,
		xproto.ClipOrderingUnsorted,
		wid,
		0, 0,
		toXRectangles(rects),
	).Check()
}

// ResetInputShape restores the default input shape (the whole window).
func (c *Connection) ResetInputShape(wid xproto.Window) error {
	if !c.inputShape {
		return ErrNoInputShape
	}
	return shape.MaskChecked(c.XUtil.Conn(), shape.SoSet, shape.SkInput, wid, 0, 0, 0).Check()
}

// toXRectangles clamps rects into the 16-bit X protocol coordinate space,
// dropping any that end up empty.
func toXRectangles(rects []Rect) []xproto.Rectangle {
	out := make([]xproto.Rectangle, 0, len(rects))
	for _, r := range rects {
		x := clamp(r.X, math.MinInt16, math.MaxInt16)
		y := clamp(r.Y, math.MinInt16, math.MaxInt16)
		w := clamp(r.X+r.Width, math.MinInt16, math.MaxInt16) - x
		h := clamp(r.Y+r.Height, math.MinInt16, math.MaxInt16) - y
		if w <= 0 || h <= 0 {
			continue
		}
		out = append(out, xproto.Rectangle{
			X:      int16(x),
			Y:      int16(y),
			Width:  uint16(w),
			Height: uint16(h),
		})
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
