package viewability

import (
	"math"

	"golang.org/x/net/html"
)

// Rect is an axis-aligned box in viewport pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) area() float64 {
	return r.Width * r.Height
}

func (r Rect) expand(margin float64) Rect {
	return Rect{
		X:      r.X - margin,
		Y:      r.Y - margin,
		Width:  r.Width + 2*margin,
		Height: r.Height + 2*margin,
	}
}

// intersect returns the overlap of a and b and whether they touch at all. Edge-adjacent
// boxes intersect with an empty overlap.
func intersect(a, b Rect) (Rect, bool) {
	left := math.Max(a.X, b.X)
	top := math.Max(a.Y, b.Y)
	right := math.Min(a.X+a.Width, b.X+b.Width)
	bottom := math.Min(a.Y+a.Height, b.Y+b.Height)
	if right < left || bottom < top {
		return Rect{}, false
	}
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}, true
}

// IntersectionEntry is one visibility sample for an observed element.
type IntersectionEntry struct {
	Target            *html.Node
	IntersectionRatio float64
	IsIntersecting    bool
}

// ComputeEntry derives an entry from the target's bounding box and the viewport. The
// viewport is grown by rootMargin on every side before intersecting.
func ComputeEntry(target *html.Node, bounds, viewport Rect, rootMargin float64) IntersectionEntry {
	entry := IntersectionEntry{Target: target}

	overlap, ok := intersect(bounds, viewport.expand(rootMargin))
	if !ok {
		return entry
	}
	entry.IsIntersecting = true

	if bounds.area() <= 0 {
		// zero-area targets are fully visible as soon as they touch the root
		entry.IntersectionRatio = 1
		return entry
	}
	entry.IntersectionRatio = math.Min(1, overlap.area()/bounds.area())
	return entry
}
