// Package clickthrough keeps the interactive regions of the toolbar overlay
// and decides which pointer positions the window captures. Everything outside
// the regions passes through to the windows beneath.
package clickthrough

import (
	"fmt"

	"github.com/1broseidon/steward/internal/platform"
)

// Point is a window-local pointer position.
type Point struct {
	X int
	Y int
}

// Region is an interactive rectangle in window-local coordinates. It covers
// X <= px < X+Width and Y <= py < Y+Height.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether p falls inside the region.
func (r Region) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Validate checks that the region has a positive area.
func (r Region) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("width and height must be positive, got %dx%d", r.Width, r.Height)
	}
	return nil
}

// RegionSet is an ordered list of regions. Regions may overlap.
type RegionSet []Region

// Contains reports whether p lies in at least one region. An empty set
// contains nothing, which makes the whole window click-through.
func (s RegionSet) Contains(p Point) bool {
	for _, r := range s {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// Validate returns the index and reason of the first invalid region.
func (s RegionSet) Validate() (int, error) {
	for i, r := range s {
		if err := r.Validate(); err != nil {
			return i, err
		}
	}
	return -1, nil
}

// Clone returns an independent copy; nil stays nil.
func (s RegionSet) Clone() RegionSet {
	if s == nil {
		return nil
	}
	return append(make(RegionSet, 0, len(s)), s...)
}

// Rects converts the set for the platform input shaper.
func (s RegionSet) Rects() []platform.Rect {
	rects := make([]platform.Rect, len(s))
	for i, r := range s {
		rects[i] = platform.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	}
	return rects
}
