package model

import "fmt"

// LayerKind is the closed set of layer variants. The evaluator only needs
// the shared transform/visibility surface; kind-specific payloads (shape
// paths, text runs, footage references) ride along opaquely for the
// renderer downstream.
type LayerKind int

const (
	LayerSolid LayerKind = iota
	LayerImage
	LayerVideo
	LayerText
	LayerShape
	LayerSpline
	LayerNull
	LayerAdjustment
	LayerPrecomp
	LayerAudio
	LayerLight
	LayerCamera
	LayerDepth
	LayerMatte
	LayerParticles
	LayerGenerator
	LayerEffect
	LayerGroup
	LayerGuide
)

// layerKindNames is the single registry of document spellings. The CUE
// document schema derives its kind disjunction from LayerKindNames, so the
// set a document may use and the set the model can represent cannot drift.
var layerKindNames = [...]string{
	LayerSolid:      "solid",
	LayerImage:      "image",
	LayerVideo:      "video",
	LayerText:       "text",
	LayerShape:      "shape",
	LayerSpline:     "spline",
	LayerNull:       "null",
	LayerAdjustment: "adjustment",
	LayerPrecomp:    "precomp",
	LayerAudio:      "audio",
	LayerLight:      "light",
	LayerCamera:     "camera",
	LayerDepth:      "depth",
	LayerMatte:      "matte",
	LayerParticles:  "particles",
	LayerGenerator:  "generator",
	LayerEffect:     "effect",
	LayerGroup:      "group",
	LayerGuide:      "guide",
}

// LayerKindNames returns every document spelling in declaration order.
func LayerKindNames() []string {
	names := make([]string, len(layerKindNames))
	copy(names, layerKindNames[:])
	return names
}

// String returns the document spelling of the kind.
func (k LayerKind) String() string {
	if k >= 0 && int(k) < len(layerKindNames) {
		return layerKindNames[k]
	}
	return fmt.Sprintf("layer(%d)", int(k))
}

// ParseLayerKind parses a document spelling.
func ParseLayerKind(s string) (LayerKind, error) {
	for k, n := range layerKindNames {
		if n == s {
			return LayerKind(k), nil
		}
	}
	return LayerSolid, fmt.Errorf("unknown layer kind %q", s)
}

// MarshalJSON renders the kind as its document spelling.
func (k LayerKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// Transform is the animatable transform property block every layer carries.
type Transform struct {
	Anchor   *Property // Vec2, defaults to layer center semantics downstream
	Position *Property // Vec2
	Scale    *Property // Vec2, percent (100 = unscaled)
	Rotation *Property // Scalar, degrees
}

// Layer is one layer of a composition. Visibility at frame f is
// StartFrame <= f < EndFrame.
type Layer struct {
	ID   string
	Name string
	Kind LayerKind

	StartFrame int
	EndFrame   int

	Transform Transform
	Opacity   *Property // Scalar, percent

	// Extra holds kind- and effect-specific animatable properties keyed
	// by name ("fill.color", "stroke.width", "audio.level", ...).
	Extra map[string]*Property

	// Particles is set only on LayerParticles layers.
	Particles *ParticleSystemConfig

	// Source is an opaque footage/precomp reference resolved downstream.
	Source string
}

// VisibleAt reports whether the layer is active at the given frame.
func (l *Layer) VisibleAt(frame int) bool {
	return frame >= l.StartFrame && frame < l.EndFrame
}

// PropertyByName resolves a property name on this layer, covering the
// transform block, opacity, and Extra. Returns nil when absent.
func (l *Layer) PropertyByName(name string) *Property {
	switch name {
	case "transform.anchor":
		return l.Transform.Anchor
	case "transform.position":
		return l.Transform.Position
	case "transform.scale":
		return l.Transform.Scale
	case "transform.rotation":
		return l.Transform.Rotation
	case "opacity":
		return l.Opacity
	}
	if l.Extra != nil {
		return l.Extra[name]
	}
	return nil
}
