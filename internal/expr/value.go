package expr

import (
	"fmt"

	"github.com/latticefx/motion/internal/model"
)

// Value is the sealed runtime value set of the expression language.
type Value interface{ exprVal() }

// Number is a float scalar.
type Number float64

// Str is a string (layer names, loop modes).
type Str string

// Bool is a boolean.
type Bool bool

// Vec is a small float vector; position/scale/color values cross the
// boundary as Vec.
type Vec []float64

// Object is a read-only property bag (thisLayer, thisComp, ...).
type Object interface {
	Value
	get(name string) (Value, bool)
}

// builtinFunc is a native function exposed to expressions. Builtins
// receive the evaluator so RNG-consuming helpers can advance the call
// index deterministically.
type builtinFunc struct {
	name string
	fn   func(ev *evaluator, pos int, args []Value) (Value, error)
}

func (Number) exprVal()       {}
func (Str) exprVal()          {}
func (Bool) exprVal()         {}
func (Vec) exprVal()          {}
func (*builtinFunc) exprVal() {}

// mapObject is the one Object implementation: a fixed field map.
type mapObject map[string]Value

func (mapObject) exprVal() {}

func (o mapObject) get(name string) (Value, bool) {
	v, ok := o[name]
	return v, ok
}

// typeName names a value for error messages.
func typeName(v Value) string {
	switch v.(type) {
	case Number:
		return "number"
	case Str:
		return "string"
	case Bool:
		return "bool"
	case Vec:
		return "vector"
	case *builtinFunc:
		return "function"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// fromModel converts an animatable value into the expression domain.
func fromModel(v model.Value) Value {
	if v == nil {
		return Number(0)
	}
	if s, ok := v.(model.Scalar); ok {
		return Number(s)
	}
	return Vec(v.Components())
}

// toModel converts an expression result back to an animatable value of the
// given kind. Numbers broadcast across all components of vector kinds, the
// way a scalar expression on a position property means "both axes".
func toModel(v Value, kind model.Kind) (model.Value, error) {
	switch val := v.(type) {
	case Number:
		if kind == model.KindScalar {
			return model.Scalar(val), nil
		}
		comps := model.ZeroValue(kind).Components()
		for i := range comps {
			comps[i] = float64(val)
		}
		return model.FromComponents(kind, comps), nil
	case Bool:
		n := 0.0
		if val {
			n = 1
		}
		return toModel(Number(n), kind)
	case Vec:
		return model.FromComponents(kind, val), nil
	default:
		return nil, fmt.Errorf("expression produced %s, want a numeric value", typeName(v))
	}
}

// truthy implements condition semantics: zero, false, and the empty string
// are false; everything else is true.
func truthy(v Value) bool {
	switch val := v.(type) {
	case Number:
		return val != 0
	case Bool:
		return bool(val)
	case Str:
		return val != ""
	case Vec:
		return len(val) > 0
	default:
		return true
	}
}
