// Package interp samples keyframed properties. Sampling is a pure function
// of (property, frame): no caches, no state, identical results in any call
// order, the one place in the evaluator where determinism is free.
package interp

import (
	"math"

	"github.com/latticefx/motion/internal/model"
)

// Default bezier handles reproduce linear timing: a cubic bezier through
// (1/3,1/3) and (2/3,2/3) is the identity on [0,1].
var (
	defaultEaseOut = model.Ease{X: 1.0 / 3, Y: 1.0 / 3}
	defaultEaseIn  = model.Ease{X: 2.0 / 3, Y: 2.0 / 3}
)

// Sample returns the property's keyframed value at a frame.
//
// Zero keyframes → Default. Before the first keyframe → first value.
// After the last → last value. Between two keyframes the span's mode
// decides: hold, linear lerp, or bezier-eased lerp.
func Sample(p *model.Property, frame float64) model.Value {
	kfs := p.Keyframes
	if len(kfs) == 0 {
		if p.Default != nil {
			return p.Default
		}
		return model.Scalar(0)
	}
	if frame <= float64(kfs[0].Frame) {
		return kfs[0].Value
	}
	last := kfs[len(kfs)-1]
	if frame >= float64(last.Frame) {
		return last.Value
	}

	// Binary search for the span: prev is the last key at or before frame.
	lo, hi := 0, len(kfs)-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if float64(kfs[mid].Frame) <= frame {
			lo = mid
		} else {
			hi = mid
		}
	}
	prev, next := kfs[lo], kfs[hi]

	t := (frame - float64(prev.Frame)) / float64(next.Frame-prev.Frame)

	switch prev.Mode {
	case model.InterpHold:
		return prev.Value
	case model.InterpBezier:
		t = easeBezier(prev.EaseOut, next.EaseIn, t)
	}
	return prev.Value.Lerp(next.Value, t)
}

// Velocity returns the per-frame rate of change at a frame, by central
// difference over a half-frame window. Used for the expression
// thisProperty.velocity accessor and the motion-blur hint on layers.
func Velocity(p *model.Property, frame float64) model.Value {
	const h = 0.5
	before := Sample(p, frame-h)
	after := Sample(p, frame+h)
	return model.ScaleValue(model.Sub(after, before), 1/(2*h))
}

// easeBezier remaps linear span progress t through the cubic timing curve
// defined by the outgoing and incoming handles.
func easeBezier(out, in *model.Ease, t float64) float64 {
	p1 := defaultEaseOut
	if out != nil {
		p1 = *out
	}
	p2 := defaultEaseIn
	if in != nil {
		p2 = *in
	}
	u := solveBezierX(p1.X, p2.X, t)
	return bezierAxis(p1.Y, p2.Y, u)
}

// bezierAxis evaluates one axis of a cubic bezier anchored at 0 and 1.
func bezierAxis(c1, c2, u float64) float64 {
	inv := 1 - u
	return 3*inv*inv*u*c1 + 3*inv*u*u*c2 + u*u*u
}

func bezierAxisDeriv(c1, c2, u float64) float64 {
	inv := 1 - u
	return 3*inv*inv*c1 + 6*inv*u*(c2-c1) + 3*u*u*(1-c2)
}

// solveBezierX finds u such that x(u) = target. Newton iterations with a
// bisection fallback when the derivative degenerates (flat handles).
func solveBezierX(x1, x2, target float64) float64 {
	if target <= 0 {
		return 0
	}
	if target >= 1 {
		return 1
	}

	u := target
	for i := 0; i < 8; i++ {
		d := bezierAxisDeriv(x1, x2, u)
		if math.Abs(d) < 1e-9 {
			break
		}
		err := bezierAxis(x1, x2, u) - target
		if math.Abs(err) < 1e-9 {
			return u
		}
		u -= err / d
		if u < 0 || u > 1 {
			break
		}
	}

	lo, hi := 0.0, 1.0
	u = target
	for i := 0; i < 48; i++ {
		x := bezierAxis(x1, x2, u)
		if math.Abs(x-target) < 1e-9 {
			return u
		}
		if x < target {
			lo = u
		} else {
			hi = u
		}
		u = (lo + hi) / 2
	}
	return u
}
