package project

import (
	"fmt"

	"github.com/latticefx/motion/internal/model"
)

// Document mirrors the on-disk project format. Field names match the
// schema; see schema.cue for the authoritative shape.
type Document struct {
	Name         string         `yaml:"name" json:"name"`
	Seed         int64          `yaml:"seed" json:"seed"`
	FPS          float64        `yaml:"fps" json:"fps"`
	Compositions []compDoc      `yaml:"compositions" json:"compositions"`
}

type compDoc struct {
	ID       string     `yaml:"id" json:"id"`
	Name     string     `yaml:"name" json:"name"`
	Width    int        `yaml:"width" json:"width"`
	Height   int        `yaml:"height" json:"height"`
	Duration int        `yaml:"duration" json:"duration"`
	Layers   []layerDoc `yaml:"layers" json:"layers"`
	Camera   *cameraDoc `yaml:"camera" json:"camera"`
}

type cameraDoc struct {
	Position *propertyDoc `yaml:"position" json:"position"`
	Target   *propertyDoc `yaml:"target" json:"target"`
	Zoom     *propertyDoc `yaml:"zoom" json:"zoom"`
}

type layerDoc struct {
	ID         string                  `yaml:"id" json:"id"`
	Name       string                  `yaml:"name" json:"name"`
	Kind       string                  `yaml:"kind" json:"kind"`
	Start      int                     `yaml:"start" json:"start"`
	End        int                     `yaml:"end" json:"end"`
	Transform  *transformDoc           `yaml:"transform" json:"transform"`
	Opacity    *propertyDoc            `yaml:"opacity" json:"opacity"`
	Properties map[string]*propertyDoc `yaml:"properties" json:"properties"`
	Particles  *particlesDoc           `yaml:"particles" json:"particles"`
	Source     string                  `yaml:"source" json:"source"`
}

type transformDoc struct {
	Anchor   *propertyDoc `yaml:"anchor" json:"anchor"`
	Position *propertyDoc `yaml:"position" json:"position"`
	Scale    *propertyDoc `yaml:"scale" json:"scale"`
	Rotation *propertyDoc `yaml:"rotation" json:"rotation"`
}

type propertyDoc struct {
	Value      any           `yaml:"value" json:"value"`
	Keyframes  []keyframeDoc `yaml:"keyframes" json:"keyframes"`
	Expression string        `yaml:"expression" json:"expression"`
	Link       *linkDoc      `yaml:"link" json:"link"`
}

type keyframeDoc struct {
	Frame   int      `yaml:"frame" json:"frame"`
	Value   any      `yaml:"value" json:"value"`
	Mode    string   `yaml:"mode" json:"mode"`
	EaseOut *easeDoc `yaml:"ease_out" json:"ease_out"`
	EaseIn  *easeDoc `yaml:"ease_in" json:"ease_in"`
}

type easeDoc struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

type linkDoc struct {
	Target  string `yaml:"target" json:"target"`
	Mapping string `yaml:"mapping" json:"mapping"`
}

type particlesDoc struct {
	Seed    int64      `yaml:"seed" json:"seed"`
	Emitter emitterDoc `yaml:"emitter" json:"emitter"`
	Forces  []forceDoc `yaml:"forces" json:"forces"`

	Collisions []collisionDoc `yaml:"collisions" json:"collisions"`

	Lifetime struct {
		Frames   float64 `yaml:"frames" json:"frames"`
		Variance float64 `yaml:"variance" json:"variance"`
	} `yaml:"lifetime" json:"lifetime"`

	SubEmitters []subEmitterDoc `yaml:"sub_emitters" json:"sub_emitters"`
	Flocking    *flockingDoc    `yaml:"flocking" json:"flocking"`

	MaxParticles       int `yaml:"max_particles" json:"max_particles"`
	CheckpointInterval int `yaml:"checkpoint_interval" json:"checkpoint_interval"`
}

type emitterDoc struct {
	Shape         string     `yaml:"shape" json:"shape"`
	Position      []float64  `yaml:"position" json:"position"`
	Extent        []float64  `yaml:"extent" json:"extent"`
	Rate          float64    `yaml:"rate" json:"rate"`
	Direction     float64    `yaml:"direction" json:"direction"`
	Spread        float64    `yaml:"spread" json:"spread"`
	Speed         float64    `yaml:"speed" json:"speed"`
	SpeedVariance float64    `yaml:"speed_variance" json:"speed_variance"`
	Size          float64    `yaml:"size" json:"size"`
	SizeVariance  float64    `yaml:"size_variance" json:"size_variance"`
	Color         []float64  `yaml:"color" json:"color"`
}

type forceDoc struct {
	Kind      string    `yaml:"kind" json:"kind"`
	Strength  float64   `yaml:"strength" json:"strength"`
	Direction []float64 `yaml:"direction" json:"direction"`
	Center    []float64 `yaml:"center" json:"center"`
	Radius    float64   `yaml:"radius" json:"radius"`
	Frequency float64   `yaml:"frequency" json:"frequency"`
}

type collisionDoc struct {
	Normal   []float64 `yaml:"normal" json:"normal"`
	Offset   float64   `yaml:"offset" json:"offset"`
	Bounce   float64   `yaml:"bounce" json:"bounce"`
	Friction float64   `yaml:"friction" json:"friction"`
}

type subEmitterDoc struct {
	Count    int       `yaml:"count" json:"count"`
	Speed    float64   `yaml:"speed" json:"speed"`
	Inherit  float64   `yaml:"inherit" json:"inherit"`
	Lifetime float64   `yaml:"lifetime" json:"lifetime"`
	Size     float64   `yaml:"size" json:"size"`
	Color    []float64 `yaml:"color" json:"color"`
}

type flockingDoc struct {
	Separation float64 `yaml:"separation" json:"separation"`
	Alignment  float64 `yaml:"alignment" json:"alignment"`
	Cohesion   float64 `yaml:"cohesion" json:"cohesion"`
	Radius     float64 `yaml:"radius" json:"radius"`
	MaxSpeed   float64 `yaml:"max_speed" json:"max_speed"`
}

// decodeValue converts a document value (number or 2/3/4-element list) into
// a typed model value. The list length selects the kind.
func decodeValue(raw any, where string) (model.Value, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case int:
		return model.Scalar(v), nil
	case int64:
		return model.Scalar(v), nil
	case float64:
		return model.Scalar(v), nil
	case []any:
		comps := make([]float64, len(v))
		for i, c := range v {
			f, err := asFloat(c)
			if err != nil {
				return nil, loadErr(ErrCodeParse, where, "component %d: %v", i, err)
			}
			comps[i] = f
		}
		switch len(comps) {
		case 2:
			return model.Vec2{X: comps[0], Y: comps[1]}, nil
		case 3:
			return model.Vec3{X: comps[0], Y: comps[1], Z: comps[2]}, nil
		case 4:
			return model.Color{R: comps[0], G: comps[1], B: comps[2], A: comps[3]}, nil
		default:
			return nil, loadErr(ErrCodeParse, where, "value lists must have 2, 3, or 4 components, got %d", len(comps))
		}
	default:
		return nil, loadErr(ErrCodeParse, where, "unsupported value type %T", raw)
	}
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

func vec2Of(comps []float64) model.Vec2 {
	var v model.Vec2
	if len(comps) > 0 {
		v.X = comps[0]
	}
	if len(comps) > 1 {
		v.Y = comps[1]
	}
	return v
}

func colorOf(comps []float64) model.Color {
	var c model.Color
	for i, f := range comps {
		switch i {
		case 0:
			c.R = f
		case 1:
			c.G = f
		case 2:
			c.B = f
		case 3:
			c.A = f
		}
	}
	return c
}
