package expr

import (
	"math"

	"github.com/latticefx/motion/internal/model"
)

// Run evaluates a compiled program against a context. The error, when
// non-nil, is always an *Error; callers decide the fallback policy (the
// frame evaluator substitutes the last good value and keeps going).
func Run(prog *Program, ctx *Context) (Value, error) {
	maxSteps := ctx.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	ev := &evaluator{ctx: ctx, budget: maxSteps, rngBase: ctx.rngBase()}
	return ev.eval(prog.root)
}

// RunAs evaluates and converts the result to an animatable value of the
// given kind.
func RunAs(prog *Program, ctx *Context, kind model.Kind) (model.Value, error) {
	out, err := Run(prog, ctx)
	if err != nil {
		return nil, err
	}
	mv, err := toModel(out, kind)
	if err != nil {
		return nil, &Error{Code: ErrRuntime, Pos: -1, Message: err.Error()}
	}
	return mv, nil
}

// Eval is the convenience compile-and-run entry point.
func Eval(src string, ctx *Context) (Value, error) {
	prog, err := Compile(src)
	if err != nil {
		return nil, err
	}
	return Run(prog, ctx)
}

type evaluator struct {
	ctx    *Context
	budget int

	// rngBase seeds every RNG stream; callIndex distinguishes the n-th
	// RNG-consuming call within this evaluation. Both are derived, not
	// stateful across evaluations.
	rngBase   uint64
	callIndex uint64
}

// step spends budget. Exhaustion surfaces as ErrTimeout for this one
// property; the rest of the frame is unaffected.
func (ev *evaluator) step(pos int) error {
	ev.budget--
	if ev.budget < 0 {
		return &Error{Code: ErrTimeout, Pos: pos, Message: "expression exceeded its step budget"}
	}
	return nil
}

func (ev *evaluator) eval(n node) (Value, error) {
	if err := ev.step(n.pos()); err != nil {
		return nil, err
	}

	switch nd := n.(type) {
	case *numberLit:
		return Number(nd.val), nil
	case *stringLit:
		return Str(nd.val), nil
	case *arrayLit:
		vec := make(Vec, 0, len(nd.elems))
		for _, el := range nd.elems {
			v, err := ev.eval(el)
			if err != nil {
				return nil, err
			}
			num, ok := v.(Number)
			if !ok {
				return nil, runtimeErr(el.pos(), "array elements must be numbers, got %s", typeName(v))
			}
			vec = append(vec, float64(num))
		}
		return vec, nil
	case *ident:
		return ev.resolve(nd)
	case *unary:
		return ev.evalUnary(nd)
	case *binary:
		return ev.evalBinary(nd)
	case *conditional:
		cond, err := ev.eval(nd.cond)
		if err != nil {
			return nil, err
		}
		if truthy(cond) {
			return ev.eval(nd.then)
		}
		return ev.eval(nd.els)
	case *member:
		obj, err := ev.eval(nd.obj)
		if err != nil {
			return nil, err
		}
		o, ok := obj.(Object)
		if !ok {
			return nil, runtimeErr(nd.at, "%s has no members", typeName(obj))
		}
		v, ok := o.get(nd.name)
		if !ok {
			return nil, runtimeErr(nd.at, "unknown member %q", nd.name)
		}
		return v, nil
	case *index:
		obj, err := ev.eval(nd.obj)
		if err != nil {
			return nil, err
		}
		idxVal, err := ev.eval(nd.idx)
		if err != nil {
			return nil, err
		}
		vec, ok := obj.(Vec)
		if !ok {
			return nil, runtimeErr(nd.at, "cannot index %s", typeName(obj))
		}
		num, ok := idxVal.(Number)
		if !ok {
			return nil, runtimeErr(nd.at, "index must be a number")
		}
		i := int(num)
		if i < 0 || i >= len(vec) {
			return nil, runtimeErr(nd.at, "index %d out of range (len=%d)", i, len(vec))
		}
		return Number(vec[i]), nil
	case *call:
		callee, err := ev.eval(nd.callee)
		if err != nil {
			return nil, err
		}
		fn, ok := callee.(*builtinFunc)
		if !ok {
			return nil, runtimeErr(nd.at, "%s is not callable", typeName(callee))
		}
		args := make([]Value, len(nd.args))
		for i, a := range nd.args {
			args[i], err = ev.eval(a)
			if err != nil {
				return nil, err
			}
		}
		return fn.fn(ev, nd.at, args)
	default:
		return nil, runtimeErr(n.pos(), "unsupported expression node")
	}
}

// resolve looks up a bare identifier: context bindings first, then the
// builtin table. Unknown names are runtime errors, not silent zeros;
// a typo'd accessor should show up in diagnostics.
func (ev *evaluator) resolve(id *ident) (Value, error) {
	switch id.name {
	case "time":
		return Number(ev.ctx.time()), nil
	case "frame":
		return Number(ev.ctx.Frame), nil
	case "value":
		return fromModel(ev.ctx.Value), nil
	case "thisLayer":
		if ev.ctx.Layer == nil {
			return mapObject{}, nil
		}
		return ev.ctx.layerObject(ev.ctx.Layer), nil
	case "thisComp":
		return ev.ctx.compObject(), nil
	case "thisProperty":
		return ev.ctx.propertyObject(), nil
	case "audio":
		return ev.ctx.audioObject(), nil
	case "PI":
		return Number(math.Pi), nil
	case "E":
		return Number(math.E), nil
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	}
	if fn, ok := builtins[id.name]; ok {
		return fn, nil
	}
	return nil, runtimeErr(id.at, "unknown name %q", id.name)
}

func (ev *evaluator) evalUnary(n *unary) (Value, error) {
	v, err := ev.eval(n.operand)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case tokMinus:
		switch val := v.(type) {
		case Number:
			return -val, nil
		case Vec:
			out := make(Vec, len(val))
			for i, f := range val {
				out[i] = -f
			}
			return out, nil
		}
		return nil, runtimeErr(n.at, "cannot negate %s", typeName(v))
	case tokNot:
		return Bool(!truthy(v)), nil
	}
	return nil, runtimeErr(n.at, "unsupported unary operator")
}

func (ev *evaluator) evalBinary(n *binary) (Value, error) {
	// Short-circuit logic first.
	switch n.op {
	case tokAnd, tokOr:
		left, err := ev.eval(n.left)
		if err != nil {
			return nil, err
		}
		if n.op == tokAnd && !truthy(left) {
			return Bool(false), nil
		}
		if n.op == tokOr && truthy(left) {
			return Bool(true), nil
		}
		right, err := ev.eval(n.right)
		if err != nil {
			return nil, err
		}
		return Bool(truthy(right)), nil
	}

	left, err := ev.eval(n.left)
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(n.right)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case tokEq:
		return Bool(valueEq(left, right)), nil
	case tokNe:
		return Bool(!valueEq(left, right)), nil
	}

	// String concatenation rides on +.
	if n.op == tokPlus {
		if ls, ok := left.(Str); ok {
			if rs, ok := right.(Str); ok {
				return ls + rs, nil
			}
		}
	}

	lv, lIsVec := left.(Vec)
	rv, rIsVec := right.(Vec)
	ln, lIsNum := left.(Number)
	rn, rIsNum := right.(Number)

	switch {
	case lIsNum && rIsNum:
		return numericOp(n, float64(ln), float64(rn))
	case lIsVec && rIsVec:
		if len(lv) != len(rv) {
			return nil, runtimeErr(n.at, "vector length mismatch: %d vs %d", len(lv), len(rv))
		}
		return vecZip(n, lv, rv)
	case lIsVec && rIsNum:
		return vecBroadcast(n, lv, float64(rn), false)
	case lIsNum && rIsVec:
		return vecBroadcast(n, rv, float64(ln), true)
	default:
		return nil, runtimeErr(n.at, "operator %q not defined for %s and %s", n.text(), typeName(left), typeName(right))
	}
}

func (n *binary) text() string {
	names := map[tokenKind]string{
		tokPlus: "+", tokMinus: "-", tokStar: "*", tokSlash: "/",
		tokPercent: "%", tokCaret: "^", tokLt: "<", tokLe: "<=",
		tokGt: ">", tokGe: ">=",
	}
	return names[n.op]
}

func numericOp(n *binary, a, b float64) (Value, error) {
	switch n.op {
	case tokPlus:
		return Number(a + b), nil
	case tokMinus:
		return Number(a - b), nil
	case tokStar:
		return Number(a * b), nil
	case tokSlash:
		if b == 0 {
			return nil, runtimeErr(n.at, "division by zero")
		}
		return Number(a / b), nil
	case tokPercent:
		if b == 0 {
			return nil, runtimeErr(n.at, "modulo by zero")
		}
		return Number(math.Mod(a, b)), nil
	case tokCaret:
		return Number(math.Pow(a, b)), nil
	case tokLt:
		return Bool(a < b), nil
	case tokLe:
		return Bool(a <= b), nil
	case tokGt:
		return Bool(a > b), nil
	case tokGe:
		return Bool(a >= b), nil
	}
	return nil, runtimeErr(n.at, "unsupported operator")
}

func vecZip(n *binary, a, b Vec) (Value, error) {
	out := make(Vec, len(a))
	for i := range a {
		v, err := numericOp(n, a[i], b[i])
		if err != nil {
			return nil, err
		}
		num, ok := v.(Number)
		if !ok {
			return nil, runtimeErr(n.at, "operator %q not defined for vectors", n.text())
		}
		out[i] = float64(num)
	}
	return out, nil
}

func vecBroadcast(n *binary, v Vec, s float64, scalarLeft bool) (Value, error) {
	out := make(Vec, len(v))
	for i := range v {
		a, b := v[i], s
		if scalarLeft {
			a, b = s, v[i]
		}
		r, err := numericOp(n, a, b)
		if err != nil {
			return nil, err
		}
		num, ok := r.(Number)
		if !ok {
			return nil, runtimeErr(n.at, "operator %q not defined for vectors", n.text())
		}
		out[i] = float64(num)
	}
	return out, nil
}

func valueEq(a, b Value) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Vec:
		bv, ok := b.(Vec)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}
