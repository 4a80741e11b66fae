package harness

import (
	"fmt"
	"math"
	"strings"
)

// AssertionError reports one failed assertion with enough context to debug
// it without re-running the scenario.
type AssertionError struct {
	Type     string
	Frame    int
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s at frame %d failed\n", e.Type, e.Frame)
	fmt.Fprintf(&b, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&b, "  Actual:   %s", e.Actual)
	return b.String()
}

func checkAssertion(result *Result, a Assertion) error {
	rec := result.Record(a.Frame)
	if rec == nil {
		return fmt.Errorf("frame %d was not recorded", a.Frame)
	}

	switch a.Type {
	case AssertPropertyValue:
		return assertPropertyValue(rec, a)
	case AssertLayerVisible:
		return assertLayerVisible(rec, a)
	case AssertParticleCount:
		return assertParticleCount(rec, a)
	case AssertDiagnostic:
		return assertDiagnostic(rec, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertPropertyValue(rec *FrameRecord, a Assertion) error {
	layer := rec.layer(a.Layer)
	if layer == nil {
		return &AssertionError{
			Type:     AssertPropertyValue,
			Frame:    a.Frame,
			Expected: fmt.Sprintf("layer %q visible with property %q", a.Layer, a.Property),
			Actual:   "layer not visible at this frame",
		}
	}

	value, ok := layer.Values[a.Property]
	if !ok {
		return &AssertionError{
			Type:     AssertPropertyValue,
			Frame:    a.Frame,
			Expected: fmt.Sprintf("property %q on layer %q", a.Property, a.Layer),
			Actual:   "property not resolved",
		}
	}

	got := value.Components()
	if len(got) != len(a.Value) {
		return &AssertionError{
			Type:     AssertPropertyValue,
			Frame:    a.Frame,
			Expected: fmt.Sprintf("%s/%s = %v", a.Layer, a.Property, a.Value),
			Actual:   fmt.Sprintf("%v (component count mismatch)", got),
		}
	}
	for i := range got {
		if math.Abs(got[i]-a.Value[i]) > a.Tolerance {
			return &AssertionError{
				Type:     AssertPropertyValue,
				Frame:    a.Frame,
				Expected: fmt.Sprintf("%s/%s = %v (tolerance %g)", a.Layer, a.Property, a.Value, a.Tolerance),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
	}
	return nil
}

func assertLayerVisible(rec *FrameRecord, a Assertion) error {
	visible := rec.layer(a.Layer) != nil
	if visible == a.Visible {
		return nil
	}
	return &AssertionError{
		Type:     AssertLayerVisible,
		Frame:    a.Frame,
		Expected: fmt.Sprintf("layer %q visible=%v", a.Layer, a.Visible),
		Actual:   fmt.Sprintf("visible=%v", visible),
	}
}

func assertParticleCount(rec *FrameRecord, a Assertion) error {
	snap := rec.particles(a.Layer)
	if snap == nil {
		return &AssertionError{
			Type:     AssertParticleCount,
			Frame:    a.Frame,
			Expected: fmt.Sprintf("particle snapshot for layer %q", a.Layer),
			Actual:   "no snapshot (layer hidden, not a particle layer, or config invalid)",
		}
	}
	if len(snap.Particles) != a.Count {
		return &AssertionError{
			Type:     AssertParticleCount,
			Frame:    a.Frame,
			Expected: fmt.Sprintf("%d particle(s) on layer %q", a.Count, a.Layer),
			Actual:   fmt.Sprintf("%d particle(s)", len(snap.Particles)),
		}
	}
	return nil
}

func assertDiagnostic(rec *FrameRecord, a Assertion) error {
	for _, d := range rec.Diagnostics {
		if string(d.Code) != a.Code {
			continue
		}
		if a.Layer != "" && d.LayerID != a.Layer {
			continue
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertDiagnostic,
		Frame:    a.Frame,
		Expected: fmt.Sprintf("diagnostic %s", a.Code),
		Actual:   fmt.Sprintf("%d diagnostic(s), none matching", len(rec.Diagnostics)),
	}
}
