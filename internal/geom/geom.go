// Package geom holds the 2D primitives shared by every simulation component.
package geom

import "math"

// Vec2 is a position or velocity in world units.
type Vec2 struct {
	X float64 `json:"x" msgpack:"x" yaml:"x"`
	Y float64 `json:"y" msgpack:"y" yaml:"y"`
}

// V is shorthand for constructing a Vec2.
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{X: v.X * f, Y: v.Y * f}
}

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns the unit vector of v, or the zero vector when v has no
// length.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// IsZero reports whether both components are exactly zero.
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Finite reports whether both components are finite numbers.
func (v Vec2) Finite() bool {
	return isFinite(v.X) && isFinite(v.Y)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vec2) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Direction returns the unit vector pointing from a to b and the distance
// between them. Coincident points yield the zero vector.
func Direction(from, to Vec2) (Vec2, float64) {
	delta := to.Sub(from)
	d := delta.Len()
	if d == 0 {
		return Vec2{}, 0
	}
	return delta.Scale(1 / d), d
}

// Clamp limits value to the range [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Bounds is an axis-aligned rectangle anchored at the origin.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the bounds.
func (b Bounds) Center() Vec2 {
	return Vec2{X: b.Width / 2, Y: b.Height / 2}
}

// ClampInset clamps p to the bounds shrunk by margin on every side.
func (b Bounds) ClampInset(p Vec2, margin float64) Vec2 {
	return Vec2{
		X: Clamp(p.X, margin, b.Width-margin),
		Y: Clamp(p.Y, margin, b.Height-margin),
	}
}

// Contains reports whether p lies inside the bounds shrunk by margin.
func (b Bounds) Contains(p Vec2, margin float64) bool {
	return p.X >= margin && p.X <= b.Width-margin && p.Y >= margin && p.Y <= b.Height-margin
}

// Sanitize replaces a non-finite vector with fallback. The second return value
// reports whether a replacement happened.
func Sanitize(v, fallback Vec2) (Vec2, bool) {
	if v.Finite() {
		return v, false
	}
	return fallback, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
