package model

import "fmt"

// InterpMode selects how the span between a keyframe and its successor is
// sampled.
type InterpMode int

const (
	// InterpHold keeps the outgoing keyframe's value for the whole span.
	InterpHold InterpMode = iota
	// InterpLinear interpolates at constant speed.
	InterpLinear
	// InterpBezier remaps time through a cubic-bezier easing curve built
	// from the outgoing key's out-handle and the incoming key's in-handle.
	InterpBezier
)

// String returns the document spelling of the mode.
func (m InterpMode) String() string {
	switch m {
	case InterpHold:
		return "hold"
	case InterpLinear:
		return "linear"
	case InterpBezier:
		return "bezier"
	default:
		return fmt.Sprintf("interp(%d)", int(m))
	}
}

// ParseInterpMode parses a document spelling. Empty defaults to linear.
func ParseInterpMode(s string) (InterpMode, error) {
	switch s {
	case "hold":
		return InterpHold, nil
	case "linear", "":
		return InterpLinear, nil
	case "bezier":
		return InterpBezier, nil
	default:
		return InterpLinear, fmt.Errorf("unknown interpolation mode %q", s)
	}
}

// Ease is one bezier handle of the timing curve, expressed in the unit
// square: X is the fraction of the span's duration, Y the fraction of the
// span's value delta. (1/3, 1/3) out and (2/3, 2/3) in reproduce linear.
type Ease struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Keyframe is an authored (frame, value) pair. Frames within one property
// are strictly increasing; the loader rejects anything else.
type Keyframe struct {
	Frame int
	Value Value
	Mode  InterpMode

	// EaseOut shapes the span leaving this key, EaseIn the span entering
	// it. Nil means the linear-equivalent default handle. Only consulted
	// when the span's mode is InterpBezier.
	EaseOut *Ease
	EaseIn  *Ease
}
