package expr

import (
	"github.com/latticefx/motion/internal/canon"
	"github.com/latticefx/motion/internal/interp"
	"github.com/latticefx/motion/internal/model"
)

// DefaultMaxSteps bounds one expression evaluation. Each AST node visit
// and each builtin call costs one step; the grammar has no loops, so the
// budget only bites on pathologically large or deeply recursive source.
const DefaultMaxSteps = 10000

// Context is the read-only snapshot an expression evaluates against.
// Constructed fresh per evaluation call, never mutated, never retained.
//
// Determinism contract: everything an expression can observe is in this
// struct, and the only randomness is the RNG stream derived from
// (LayerID, PropertyPath, ProjectSeed, call index). No wall clock, no
// call-order state.
type Context struct {
	Frame       float64
	FPS         float64
	ProjectSeed int64

	LayerID      string
	PropertyPath string

	// Value is the upstream value: the keyframed sample for a property
	// expression, or the source property's value for a link mapping.
	Value model.Value

	// Property backs the thisProperty accessors (numKeys, key(n),
	// valueAtTime, velocity) and the loop/motion helpers. Optional.
	Property *model.Property

	// Layer and Comp back the thisLayer / thisComp accessors. Optional.
	Layer *model.Layer
	Comp  *model.Composition

	// Audio is the feature row for this frame (zeroes when absent).
	Audio model.AudioFrame

	// MaxSteps overrides DefaultMaxSteps when positive.
	MaxSteps int
}

// time in seconds. A zero FPS (malformed context) counts as 30 to avoid
// dividing by zero inside user code.
func (c *Context) time() float64 {
	fps := c.FPS
	if fps <= 0 {
		fps = 30
	}
	return c.Frame / fps
}

func (c *Context) fps() float64 {
	if c.FPS <= 0 {
		return 30
	}
	return c.FPS
}

// rngBase derives the per-(layer, property, project) seed every RNG call
// splits from. Stream identity is a pure function of the key.
func (c *Context) rngBase() uint64 {
	seed, err := canon.SeedBytes(canon.DomainRNGStream, map[string]any{
		"layer":    c.LayerID,
		"property": c.PropertyPath,
		"seed":     c.ProjectSeed,
	})
	if err != nil {
		// Unreachable: the key above is always canonical-marshalable.
		return uint64(c.ProjectSeed)
	}
	return seed
}

// sampleSelf samples the owning property's raw keyframe value at a frame.
func (c *Context) sampleSelf(frame float64) Value {
	if c.Property == nil {
		return fromModel(c.Value)
	}
	return fromModel(interp.Sample(c.Property, frame))
}

// layerObject builds the accessor object for a layer: transform values
// sampled at the context frame plus name and kind.
func (c *Context) layerObject(l *model.Layer) Object {
	obj := mapObject{
		"name":  Str(l.Name),
		"kind":  Str(l.Kind.String()),
		"index": Number(0),
	}
	sample := func(p *model.Property) Value {
		if p == nil {
			return Number(0)
		}
		return fromModel(interp.Sample(p, c.Frame))
	}
	obj["anchor"] = sample(l.Transform.Anchor)
	obj["position"] = sample(l.Transform.Position)
	obj["scale"] = sample(l.Transform.Scale)
	obj["rotation"] = sample(l.Transform.Rotation)
	obj["opacity"] = sample(l.Opacity)
	if c.Comp != nil {
		for i, cl := range c.Comp.Layers {
			if cl == l {
				obj["index"] = Number(i + 1)
			}
		}
	}
	return obj
}

// compObject builds the thisComp accessor object.
func (c *Context) compObject() Object {
	if c.Comp == nil {
		return mapObject{}
	}
	comp := c.Comp
	return mapObject{
		"width":    Number(comp.Width),
		"height":   Number(comp.Height),
		"duration": Number(comp.DurationFrames),
		"fps":      Number(c.fps()),
		"layer": &builtinFunc{name: "layer", fn: func(ev *evaluator, pos int, args []Value) (Value, error) {
			if len(args) != 1 {
				return nil, runtimeErr(pos, "layer() takes one argument (name or index)")
			}
			switch key := args[0].(type) {
			case Str:
				if l := comp.LayerByName(string(key)); l != nil {
					return ev.ctx.layerObject(l), nil
				}
				return nil, runtimeErr(pos, "no layer named %q", string(key))
			case Number:
				i := int(key)
				if i < 1 || i > len(comp.Layers) {
					return nil, runtimeErr(pos, "layer index %d out of range", i)
				}
				return ev.ctx.layerObject(comp.Layers[i-1]), nil
			default:
				return nil, runtimeErr(pos, "layer() wants a name or index, got %s", typeName(args[0]))
			}
		}},
	}
}

// propertyObject builds the thisProperty accessor object.
func (c *Context) propertyObject() Object {
	obj := mapObject{
		"value":   fromModel(c.Value),
		"numKeys": Number(0),
	}
	p := c.Property
	if p == nil {
		return obj
	}
	obj["numKeys"] = Number(len(p.Keyframes))
	obj["velocity"] = fromModel(interp.Velocity(p, c.Frame))
	obj["key"] = &builtinFunc{name: "key", fn: func(ev *evaluator, pos int, args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, runtimeErr(pos, "key() takes one argument")
		}
		n, ok := args[0].(Number)
		if !ok {
			return nil, runtimeErr(pos, "key() wants an index, got %s", typeName(args[0]))
		}
		i := int(n)
		if i < 1 || i > len(p.Keyframes) {
			return nil, runtimeErr(pos, "key index %d out of range (numKeys=%d)", i, len(p.Keyframes))
		}
		kf := p.Keyframes[i-1]
		return mapObject{
			"frame": Number(kf.Frame),
			"time":  Number(float64(kf.Frame) / ev.ctx.fps()),
			"value": fromModel(kf.Value),
		}, nil
	}}
	obj["valueAtTime"] = &builtinFunc{name: "valueAtTime", fn: func(ev *evaluator, pos int, args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, runtimeErr(pos, "valueAtTime() takes one argument (seconds)")
		}
		t, ok := args[0].(Number)
		if !ok {
			return nil, runtimeErr(pos, "valueAtTime() wants seconds, got %s", typeName(args[0]))
		}
		return fromModel(interp.Sample(p, float64(t)*ev.ctx.fps())), nil
	}}
	return obj
}

// audioObject exposes the precomputed feature row.
func (c *Context) audioObject() Object {
	return mapObject{
		"amplitude":        Number(c.Audio.Amplitude),
		"bass":             Number(c.Audio.Bass),
		"mid":              Number(c.Audio.Mid),
		"high":             Number(c.Audio.High),
		"beat":             Number(c.Audio.Beat),
		"spectralCentroid": Number(c.Audio.SpectralCentroid),
	}
}
