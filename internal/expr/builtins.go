package expr

import (
	"math"

	"github.com/latticefx/motion/internal/detrand"
	"github.com/latticefx/motion/internal/interp"
	"github.com/latticefx/motion/internal/model"
)

// builtins is the global function table. Everything here is pure given the
// context; the RNG helpers advance the evaluator's call index so the n-th
// random draw of an expression is the same on every evaluation.
var builtins map[string]*builtinFunc

func init() {
	builtins = map[string]*builtinFunc{}

	reg := func(name string, fn func(ev *evaluator, pos int, args []Value) (Value, error)) {
		builtins[name] = &builtinFunc{name: name, fn: fn}
	}

	math1 := func(name string, f func(float64) float64) {
		reg(name, func(ev *evaluator, pos int, args []Value) (Value, error) {
			return mapNumeric(name, pos, args, 1, func(xs []float64) float64 { return f(xs[0]) })
		})
	}
	math2 := func(name string, f func(a, b float64) float64) {
		reg(name, func(ev *evaluator, pos int, args []Value) (Value, error) {
			return mapNumeric(name, pos, args, 2, func(xs []float64) float64 { return f(xs[0], xs[1]) })
		})
	}

	math1("abs", math.Abs)
	math1("floor", math.Floor)
	math1("ceil", math.Ceil)
	math1("round", math.Round)
	math1("sqrt", math.Sqrt)
	math1("sin", math.Sin)
	math1("cos", math.Cos)
	math1("tan", math.Tan)
	math1("asin", math.Asin)
	math1("acos", math.Acos)
	math1("atan", math.Atan)
	math1("exp", math.Exp)
	math1("log", math.Log)
	math1("degreesToRadians", func(d float64) float64 { return d * math.Pi / 180 })
	math1("radiansToDegrees", func(r float64) float64 { return r * 180 / math.Pi })
	math2("atan2", math.Atan2)
	math2("pow", math.Pow)
	math2("min", math.Min)
	math2("max", math.Max)

	reg("clamp", biClamp)
	reg("lerp", biLerp)
	reg("linear", biLinear)
	reg("length", biLength)
	reg("normalize", biNormalize)
	reg("random", biRandom)
	reg("jitter", biJitter)
	reg("repeatAfter", biRepeatAfter)
	reg("repeatBefore", biRepeatBefore)
	reg("inertia", makeOvershoot("inertia", 0.1, 2.5, 4, false))
	reg("bounce", makeOvershoot("bounce", 0.15, 3, 5, true))
	reg("elastic", makeOvershoot("elastic", 0.3, 5, 6, false))
}

// mapNumeric applies a float function component-wise; vectors map, numbers
// stay numbers. Exactly arity numeric arguments, vectors allowed in the
// first position only.
func mapNumeric(name string, pos int, args []Value, arity int, f func([]float64) float64) (Value, error) {
	if len(args) != arity {
		return nil, runtimeErr(pos, "%s() takes %d argument(s), got %d", name, arity, len(args))
	}
	if vec, ok := args[0].(Vec); ok {
		rest := make([]float64, arity)
		for i := 1; i < arity; i++ {
			n, ok := args[i].(Number)
			if !ok {
				return nil, runtimeErr(pos, "%s() argument %d must be a number", name, i+1)
			}
			rest[i] = float64(n)
		}
		out := make(Vec, len(vec))
		for i, c := range vec {
			rest[0] = c
			out[i] = f(rest)
		}
		return out, nil
	}
	xs := make([]float64, arity)
	for i, a := range args {
		n, ok := a.(Number)
		if !ok {
			return nil, runtimeErr(pos, "%s() argument %d must be a number, got %s", name, i+1, typeName(a))
		}
		xs[i] = float64(n)
	}
	return Number(f(xs)), nil
}

func argNumber(name string, pos int, args []Value, i int) (float64, error) {
	if i >= len(args) {
		return 0, runtimeErr(pos, "%s() missing argument %d", name, i+1)
	}
	n, ok := args[i].(Number)
	if !ok {
		return 0, runtimeErr(pos, "%s() argument %d must be a number, got %s", name, i+1, typeName(args[i]))
	}
	return float64(n), nil
}

func optNumber(name string, pos int, args []Value, i int, def float64) (float64, error) {
	if i >= len(args) {
		return def, nil
	}
	return argNumber(name, pos, args, i)
}

func biClamp(ev *evaluator, pos int, args []Value) (Value, error) {
	return mapNumeric("clamp", pos, args, 3, func(xs []float64) float64 {
		return math.Max(xs[1], math.Min(xs[2], xs[0]))
	})
}

func biLerp(ev *evaluator, pos int, args []Value) (Value, error) {
	if len(args) != 3 {
		return nil, runtimeErr(pos, "lerp() takes 3 arguments")
	}
	t, err := argNumber("lerp", pos, args, 2)
	if err != nil {
		return nil, err
	}
	return mix(pos, args[0], args[1], t)
}

// biLinear is the range-remap helper: linear(t, tMin, tMax, v1, v2) maps t
// from [tMin,tMax] to [v1,v2], clamped. The 3-argument form maps [0,1].
func biLinear(ev *evaluator, pos int, args []Value) (Value, error) {
	var t, tMin, tMax float64
	var v1, v2 Value
	var err error
	switch len(args) {
	case 3:
		if t, err = argNumber("linear", pos, args, 0); err != nil {
			return nil, err
		}
		tMin, tMax, v1, v2 = 0, 1, args[1], args[2]
	case 5:
		if t, err = argNumber("linear", pos, args, 0); err != nil {
			return nil, err
		}
		if tMin, err = argNumber("linear", pos, args, 1); err != nil {
			return nil, err
		}
		if tMax, err = argNumber("linear", pos, args, 2); err != nil {
			return nil, err
		}
		v1, v2 = args[3], args[4]
	default:
		return nil, runtimeErr(pos, "linear() takes 3 or 5 arguments, got %d", len(args))
	}
	if tMax == tMin {
		return v1, nil
	}
	u := (t - tMin) / (tMax - tMin)
	u = math.Max(0, math.Min(1, u))
	return mix(pos, v1, v2, u)
}

func mix(pos int, a, b Value, t float64) (Value, error) {
	an, aIsNum := a.(Number)
	bn, bIsNum := b.(Number)
	if aIsNum && bIsNum {
		return Number(float64(an) + (float64(bn)-float64(an))*t), nil
	}
	av, aIsVec := a.(Vec)
	bv, bIsVec := b.(Vec)
	if aIsVec && bIsVec && len(av) == len(bv) {
		out := make(Vec, len(av))
		for i := range av {
			out[i] = av[i] + (bv[i]-av[i])*t
		}
		return out, nil
	}
	return nil, runtimeErr(pos, "cannot interpolate %s with %s", typeName(a), typeName(b))
}

func biLength(ev *evaluator, pos int, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, runtimeErr(pos, "length() takes 1 argument")
	}
	vec, ok := args[0].(Vec)
	if !ok {
		return nil, runtimeErr(pos, "length() wants a vector, got %s", typeName(args[0]))
	}
	sum := 0.0
	for _, c := range vec {
		sum += c * c
	}
	return Number(math.Sqrt(sum)), nil
}

func biNormalize(ev *evaluator, pos int, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, runtimeErr(pos, "normalize() takes 1 argument")
	}
	vec, ok := args[0].(Vec)
	if !ok {
		return nil, runtimeErr(pos, "normalize() wants a vector, got %s", typeName(args[0]))
	}
	sum := 0.0
	for _, c := range vec {
		sum += c * c
	}
	l := math.Sqrt(sum)
	out := make(Vec, len(vec))
	if l < 1e-12 {
		return out, nil
	}
	for i, c := range vec {
		out[i] = c / l
	}
	return out, nil
}

// nextStream returns the RNG stream for the current call index and
// advances it. The stream is a pure function of (layer, property,
// project seed, call index), never of evaluation order.
func (ev *evaluator) nextStream() *detrand.Source {
	s := detrand.Split(ev.rngBase, ev.callIndex)
	ev.callIndex++
	return s
}

// biRandom: random() → [0,1), random(hi) → [0,hi), random(lo,hi) → [lo,hi).
func biRandom(ev *evaluator, pos int, args []Value) (Value, error) {
	rng := ev.nextStream()
	switch len(args) {
	case 0:
		return Number(rng.Float64()), nil
	case 1:
		hi, err := argNumber("random", pos, args, 0)
		if err != nil {
			return nil, err
		}
		return Number(rng.Range(0, hi)), nil
	case 2:
		lo, err := argNumber("random", pos, args, 0)
		if err != nil {
			return nil, err
		}
		hi, err := argNumber("random", pos, args, 1)
		if err != nil {
			return nil, err
		}
		return Number(rng.Range(lo, hi)), nil
	default:
		return nil, runtimeErr(pos, "random() takes at most 2 arguments")
	}
}

// biJitter is the wiggle helper: value plus smooth value-noise.
// jitter(freq, amp) samples one octave of lattice noise per component at
// time*freq, seeded from this call's stream, and adds amp * noise to the
// upstream value. Same context, same result; different project seed,
// different noise.
func biJitter(ev *evaluator, pos int, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, runtimeErr(pos, "jitter() takes 2 arguments (freq, amp)")
	}
	freq, err := argNumber("jitter", pos, args, 0)
	if err != nil {
		return nil, err
	}
	amp, err := argNumber("jitter", pos, args, 1)
	if err != nil {
		return nil, err
	}

	streamSeed := ev.nextStream().State()
	t := ev.ctx.time() * freq
	k := math.Floor(t)
	frac := t - k

	noiseAt := func(lattice int64, comp int) float64 {
		return detrand.Split(streamSeed, uint64(lattice)*16+uint64(comp)).Signed()
	}
	// Smootherstep between lattice points keeps the jitter C1-continuous.
	s := frac * frac * frac * (frac*(frac*6-15) + 10)

	base := fromModel(ev.ctx.Value)
	switch v := base.(type) {
	case Number:
		n0 := noiseAt(int64(k), 0)
		n1 := noiseAt(int64(k)+1, 0)
		return Number(float64(v) + amp*(n0+(n1-n0)*s)), nil
	case Vec:
		out := make(Vec, len(v))
		for i, c := range v {
			n0 := noiseAt(int64(k), i)
			n1 := noiseAt(int64(k)+1, i)
			out[i] = c + amp*(n0+(n1-n0)*s)
		}
		return out, nil
	default:
		return nil, runtimeErr(pos, "jitter() needs a numeric upstream value")
	}
}

// loopSpan describes the keyframed range of the owning property.
type loopSpan struct {
	first, last   float64
	firstV, lastV Value
}

func (ev *evaluator) span() (*loopSpan, *model.Property) {
	p := ev.ctx.Property
	if p == nil || len(p.Keyframes) < 2 {
		return nil, p // nothing to loop over; helper is a no-op
	}
	first := float64(p.Keyframes[0].Frame)
	last := float64(p.Keyframes[len(p.Keyframes)-1].Frame)
	return &loopSpan{
		first:  first,
		last:   last,
		firstV: fromModel(interp.Sample(p, first)),
		lastV:  fromModel(interp.Sample(p, last)),
	}, p
}

// biRepeatAfter extends the animation past the last keyframe:
// repeatAfter("cycle" | "pingpong" | "offset" | "continue").
func biRepeatAfter(ev *evaluator, pos int, args []Value) (Value, error) {
	return repeatHelper(ev, pos, args, "repeatAfter", false)
}

// biRepeatBefore mirrors repeatAfter for frames before the first keyframe.
func biRepeatBefore(ev *evaluator, pos int, args []Value) (Value, error) {
	return repeatHelper(ev, pos, args, "repeatBefore", true)
}

func repeatHelper(ev *evaluator, pos int, args []Value, name string, before bool) (Value, error) {
	mode := "cycle"
	if len(args) > 1 {
		return nil, runtimeErr(pos, "%s() takes at most 1 argument", name)
	}
	if len(args) == 1 {
		s, ok := args[0].(Str)
		if !ok {
			return nil, runtimeErr(pos, "%s() mode must be a string", name)
		}
		mode = string(s)
	}
	switch mode {
	case "cycle", "pingpong", "offset", "continue":
	default:
		return nil, runtimeErr(pos, "%s(): unknown mode %q", name, mode)
	}

	span, p := ev.span()
	frame := ev.ctx.Frame
	if span == nil || (!before && frame <= span.last) || (before && frame >= span.first) {
		return ev.ctx.sampleSelf(frame), nil
	}

	period := span.last - span.first
	if period <= 0 {
		return ev.ctx.sampleSelf(frame), nil
	}

	switch mode {
	case "cycle":
		return ev.ctx.sampleSelf(wrapFrame(frame, span, false)), nil
	case "pingpong":
		return ev.ctx.sampleSelf(wrapFrame(frame, span, true)), nil
	case "offset":
		var cycles float64
		if before {
			cycles = -math.Ceil((span.first - frame) / period)
		} else {
			cycles = math.Floor((frame - span.first) / period)
		}
		base := ev.ctx.sampleSelf(wrapFrame(frame, span, false))
		return offsetBy(pos, base, span.firstV, span.lastV, cycles)
	case "continue":
		edge := span.last
		if before {
			edge = span.first
		}
		// Velocity just inside the keyframed range, extrapolated.
		inward := 0.5
		if before {
			inward = -0.5
		}
		vel := fromModel(interp.Velocity(p, edge-inward))
		edgeVal := span.lastV
		if before {
			edgeVal = span.firstV
		}
		return extrapolate(pos, edgeVal, vel, frame-edge)
	}
	return ev.ctx.sampleSelf(frame), nil
}

// wrapFrame maps a frame outside the keyframed range back inside it.
func wrapFrame(frame float64, span *loopSpan, pingpong bool) float64 {
	period := span.last - span.first
	rel := math.Mod(frame-span.first, period)
	if rel < 0 {
		rel += period
	}
	if pingpong {
		phase := math.Mod(frame-span.first, 2*period)
		if phase < 0 {
			phase += 2 * period
		}
		if phase > period {
			phase = 2*period - phase
		}
		rel = phase
	}
	return span.first + rel
}

// offsetBy returns base + (last-first)*cycles, component-wise.
func offsetBy(pos int, base, firstV, lastV Value, cycles float64) (Value, error) {
	switch b := base.(type) {
	case Number:
		f, fOk := firstV.(Number)
		l, lOk := lastV.(Number)
		if !fOk || !lOk {
			return nil, runtimeErr(pos, "offset loop needs numeric keyframes")
		}
		return Number(float64(b) + (float64(l)-float64(f))*cycles), nil
	case Vec:
		f, fOk := firstV.(Vec)
		l, lOk := lastV.(Vec)
		if !fOk || !lOk || len(f) != len(b) || len(l) != len(b) {
			return nil, runtimeErr(pos, "offset loop needs matching vector keyframes")
		}
		out := make(Vec, len(b))
		for i := range b {
			out[i] = b[i] + (l[i]-f[i])*cycles
		}
		return out, nil
	default:
		return nil, runtimeErr(pos, "offset loop needs a numeric value")
	}
}

// extrapolate returns edge + vel*dt, component-wise.
func extrapolate(pos int, edge, vel Value, dt float64) (Value, error) {
	switch e := edge.(type) {
	case Number:
		v, ok := vel.(Number)
		if !ok {
			return nil, runtimeErr(pos, "continue loop needs a numeric velocity")
		}
		return Number(float64(e) + float64(v)*dt), nil
	case Vec:
		v, ok := vel.(Vec)
		if !ok || len(v) != len(e) {
			return nil, runtimeErr(pos, "continue loop needs a matching velocity vector")
		}
		out := make(Vec, len(e))
		for i := range e {
			out[i] = e[i] + v[i]*dt
		}
		return out, nil
	default:
		return nil, runtimeErr(pos, "continue loop needs a numeric value")
	}
}

// makeOvershoot builds the post-keyframe motion helpers. After the last
// keyframe the value oscillates around the final pose, driven by the
// arrival velocity and damped exponentially; before it, the helper is the
// identity. rectify folds the oscillation to one side (bounce).
//
// All three accept optional (amplitude, frequency, decay) overrides.
func makeOvershoot(name string, defAmp, defFreq, defDecay float64, rectify bool) func(ev *evaluator, pos int, args []Value) (Value, error) {
	return func(ev *evaluator, pos int, args []Value) (Value, error) {
		amp, err := optNumber(name, pos, args, 0, defAmp)
		if err != nil {
			return nil, err
		}
		freq, err := optNumber(name, pos, args, 1, defFreq)
		if err != nil {
			return nil, err
		}
		decay, err := optNumber(name, pos, args, 2, defDecay)
		if err != nil {
			return nil, err
		}

		p := ev.ctx.Property
		frame := ev.ctx.Frame
		if p == nil || len(p.Keyframes) == 0 {
			return fromModel(ev.ctx.Value), nil
		}
		last := float64(p.Keyframes[len(p.Keyframes)-1].Frame)
		if frame <= last {
			return ev.ctx.sampleSelf(frame), nil
		}

		t := (frame - last) / ev.ctx.fps() // seconds past the last key
		osc := math.Sin(freq*2*math.Pi*t) * math.Exp(-decay*t)
		if rectify {
			osc = math.Abs(osc)
		}

		// Arrival velocity, in units per second.
		vel := fromModel(interp.Velocity(p, last-0.5))
		edge := ev.ctx.sampleSelf(last)
		scale := amp * osc * ev.ctx.fps()
		switch e := edge.(type) {
		case Number:
			v, ok := vel.(Number)
			if !ok {
				return nil, runtimeErr(pos, "%s() needs a numeric property", name)
			}
			return Number(float64(e) + float64(v)*scale), nil
		case Vec:
			v, ok := vel.(Vec)
			if !ok || len(v) != len(e) {
				return nil, runtimeErr(pos, "%s() needs a matching velocity vector", name)
			}
			out := make(Vec, len(e))
			for i := range e {
				out[i] = e[i] + v[i]*scale
			}
			return out, nil
		default:
			return nil, runtimeErr(pos, "%s() needs a numeric property", name)
		}
	}
}
