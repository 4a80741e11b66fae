package model

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the concrete type behind a Value.
type Kind int

const (
	KindScalar Kind = iota
	KindVec2
	KindVec3
	KindColor
)

// String returns the lowercase kind name used in documents and diagnostics.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVec2:
		return "vec2"
	case KindVec3:
		return "vec3"
	case KindColor:
		return "color"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a sealed interface over the animatable value types.
// Only Scalar, Vec2, Vec3, and Color implement it.
//
// Values are immutable: every operation returns a new value. This is what
// lets FrameState be shared across goroutines without copying.
type Value interface {
	animValue() // sealed

	Kind() Kind

	// Lerp linearly interpolates toward other. If other has a different
	// kind the receiver is returned unchanged; kind mismatches are caught
	// at load time, so this is a belt-and-braces fallback, not an API.
	Lerp(other Value, t float64) Value

	// Components returns the value as a flat float slice
	// (scalar=1, vec2=2, vec3=3, color=4 components).
	Components() []float64
}

// Scalar is a single float value (opacity, rotation, zoom...).
type Scalar float64

// Vec2 is a 2D point or direction in composition pixels.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec3 is a 3D point (camera position, 3D layer position).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Color is a straight (non-premultiplied) RGBA color, components in [0,1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

func (Scalar) animValue() {}
func (Vec2) animValue()   {}
func (Vec3) animValue()   {}
func (Color) animValue()  {}

func (Scalar) Kind() Kind { return KindScalar }
func (Vec2) Kind() Kind   { return KindVec2 }
func (Vec3) Kind() Kind   { return KindVec3 }
func (Color) Kind() Kind  { return KindColor }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Lerp implements Value.
func (s Scalar) Lerp(other Value, t float64) Value {
	o, ok := other.(Scalar)
	if !ok {
		return s
	}
	return Scalar(lerp(float64(s), float64(o), t))
}

// Lerp implements Value.
func (v Vec2) Lerp(other Value, t float64) Value {
	o, ok := other.(Vec2)
	if !ok {
		return v
	}
	return Vec2{lerp(v.X, o.X, t), lerp(v.Y, o.Y, t)}
}

// Lerp implements Value.
func (v Vec3) Lerp(other Value, t float64) Value {
	o, ok := other.(Vec3)
	if !ok {
		return v
	}
	return Vec3{lerp(v.X, o.X, t), lerp(v.Y, o.Y, t), lerp(v.Z, o.Z, t)}
}

// Lerp implements Value. Channels interpolate independently in straight
// alpha; downstream compositing premultiplies.
func (c Color) Lerp(other Value, t float64) Value {
	o, ok := other.(Color)
	if !ok {
		return c
	}
	return Color{lerp(c.R, o.R, t), lerp(c.G, o.G, t), lerp(c.B, o.B, t), lerp(c.A, o.A, t)}
}

func (s Scalar) Components() []float64 { return []float64{float64(s)} }
func (v Vec2) Components() []float64   { return []float64{v.X, v.Y} }
func (v Vec3) Components() []float64   { return []float64{v.X, v.Y, v.Z} }
func (c Color) Components() []float64  { return []float64{c.R, c.G, c.B, c.A} }

// FromComponents rebuilds a value of the given kind from a flat float slice.
// Missing components are zero; extra components are ignored.
func FromComponents(kind Kind, comps []float64) Value {
	at := func(i int) float64 {
		if i < len(comps) {
			return comps[i]
		}
		return 0
	}
	switch kind {
	case KindScalar:
		return Scalar(at(0))
	case KindVec2:
		return Vec2{at(0), at(1)}
	case KindVec3:
		return Vec3{at(0), at(1), at(2)}
	case KindColor:
		return Color{at(0), at(1), at(2), at(3)}
	default:
		return Scalar(0)
	}
}

// ZeroValue returns the additive identity for a kind. Used as the placeholder
// when a reference is missing and the property declares no default.
func ZeroValue(kind Kind) Value {
	return FromComponents(kind, nil)
}

// Add returns a + b component-wise. Kind mismatch returns a.
func Add(a, b Value) Value {
	if a.Kind() != b.Kind() {
		return a
	}
	ac, bc := a.Components(), b.Components()
	out := make([]float64, len(ac))
	for i := range ac {
		out[i] = ac[i] + bc[i]
	}
	return FromComponents(a.Kind(), out)
}

// Sub returns a - b component-wise. Kind mismatch returns a.
func Sub(a, b Value) Value {
	if a.Kind() != b.Kind() {
		return a
	}
	ac, bc := a.Components(), b.Components()
	out := make([]float64, len(ac))
	for i := range ac {
		out[i] = ac[i] - bc[i]
	}
	return FromComponents(a.Kind(), out)
}

// ScaleValue returns v scaled by s component-wise.
func ScaleValue(v Value, s float64) Value {
	c := v.Components()
	out := make([]float64, len(c))
	for i := range c {
		out[i] = c[i] * s
	}
	return FromComponents(v.Kind(), out)
}

// MarshalJSON renders Scalar as a bare number.
func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(s))
}
