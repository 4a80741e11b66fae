package model

// Camera is the per-composition camera rig. All three properties are
// optional; a missing camera yields an identity view and a default
// perspective projection.
type Camera struct {
	Position *Property // Vec3
	Target   *Property // Vec3
	Zoom     *Property // Scalar, focal length in pixels
}

// PropertyByName resolves a camera property name. Returns nil when absent.
func (c *Camera) PropertyByName(name string) *Property {
	if c == nil {
		return nil
	}
	switch name {
	case "camera.position":
		return c.Position
	case "camera.target":
		return c.Target
	case "camera.zoom":
		return c.Zoom
	}
	return nil
}

// Composition is a timed stack of layers plus an optional camera.
type Composition struct {
	ID     string
	Name   string
	Width  int
	Height int

	// DurationFrames is the composition length; frames outside
	// [0, DurationFrames) still evaluate (scrubbing past the end is
	// legal), layer visibility just excludes everything.
	DurationFrames int

	Layers []*Layer
	Camera *Camera
}

// LayerByID resolves a layer by id. Returns nil when absent.
func (c *Composition) LayerByID(id string) *Layer {
	for _, l := range c.Layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// LayerByName resolves a layer by display name (first match wins, matching
// the expression-language layer(name) accessor).
func (c *Composition) LayerByName(name string) *Layer {
	for _, l := range c.Layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// Project is the complete read-only input to the evaluator.
type Project struct {
	Name string

	// Seed is the project-wide random seed; every deterministic RNG
	// stream (expressions, particles) derives from it.
	Seed int64

	// FPS converts frames to seconds for the expression `time` binding.
	FPS float64

	Compositions []*Composition
}

// CompByID resolves a composition by id. Returns nil when absent.
func (p *Project) CompByID(id string) *Composition {
	for _, c := range p.Compositions {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Main returns the first composition, the one evaluate() renders.
// Returns nil for an empty project.
func (p *Project) Main() *Composition {
	if len(p.Compositions) == 0 {
		return nil
	}
	return p.Compositions[0]
}

// Resolve returns the property a path points at, or nil when the
// composition, layer, or property is missing. Camera properties use the
// reserved layer id "camera".
func (p *Project) Resolve(path PropertyPath) *Property {
	comp := p.CompByID(path.Comp)
	if comp == nil {
		return nil
	}
	if path.Layer == "camera" {
		return comp.Camera.PropertyByName(path.Property)
	}
	layer := comp.LayerByID(path.Layer)
	if layer == nil {
		return nil
	}
	return layer.PropertyByName(path.Property)
}
