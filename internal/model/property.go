package model

import (
	"fmt"
	"strings"
)

// PropertyPath addresses a property anywhere in a project:
// composition id, layer id, property name ("transform.position", "opacity",
// "camera.zoom", ...). Paths are the only form of cross-property reference;
// links never hold live pointers, so graph rebuilds and cycle detection stay
// simple array operations over a flat property table.
type PropertyPath struct {
	Comp     string `json:"comp"`
	Layer    string `json:"layer"`
	Property string `json:"property"`
}

// String renders the canonical "comp/layer/property" form used in
// diagnostics and cycle reports.
func (p PropertyPath) String() string {
	return p.Comp + "/" + p.Layer + "/" + p.Property
}

// ParsePropertyPath parses the canonical "comp/layer/property" form.
func ParsePropertyPath(s string) (PropertyPath, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return PropertyPath{}, fmt.Errorf("invalid property path %q: want comp/layer/property", s)
	}
	return PropertyPath{Comp: parts[0], Layer: parts[1], Property: parts[2]}, nil
}

// Link is a pickwhip-style driver: the owning property's value derives from
// the target property's value, optionally remapped by a mapping expression
// (the source value is bound as `value` inside the expression).
type Link struct {
	Target  PropertyPath
	Mapping string // optional expression source text
}

// Property is one animatable property. It is read-only input to the
// evaluator: the editing layer owns mutation.
//
// Value resolution precedence, highest first: Link (driver), Expression,
// keyframes, Default.
type Property struct {
	// Name is the property name within its layer ("opacity",
	// "transform.position", ...).
	Name string

	// Default is returned when there are no keyframes and no driver.
	// Its kind fixes the kind of the whole property.
	Default Value

	// Keyframes are sorted by strictly increasing frame. May be empty.
	Keyframes []Keyframe

	// Expression is optional procedural source text evaluated in the
	// sandbox; the keyframed/static value is bound as `value`.
	Expression string

	// Link is the optional pickwhip driver.
	Link *Link
}

// Animated reports whether the property has at least one keyframe.
func (p *Property) Animated() bool { return len(p.Keyframes) > 0 }

// Kind returns the value kind of the property.
func (p *Property) Kind() Kind {
	if p.Default != nil {
		return p.Default.Kind()
	}
	if len(p.Keyframes) > 0 {
		return p.Keyframes[0].Value.Kind()
	}
	return KindScalar
}
