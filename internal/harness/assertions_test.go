package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticefx/motion/internal/engine"
	"github.com/latticefx/motion/internal/model"
)

func recordedResult() *Result {
	r := NewResult()
	r.Frames = append(r.Frames, FrameRecord{
		Frame: 10,
		State: &model.FrameState{
			Frame:  10,
			CompID: "main",
			Layers: []model.EvaluatedLayer{
				{
					LayerID: "bg",
					Kind:    model.LayerSolid,
					Opacity: 50,
					Values: map[string]model.Value{
						"opacity":            model.Scalar(50),
						"transform.position": model.Vec2{X: 10, Y: 20},
					},
				},
			},
			Particles: []model.ParticleSnapshot{
				{LayerID: "sparks", Frame: 10, Particles: make([]model.Particle, 3)},
			},
		},
		Diagnostics: []engine.Diagnostic{
			{
				Severity: engine.SeverityWarning,
				Code:     engine.CodeExpressionRuntime,
				Property: "main/bg/opacity",
				Message:  "boom",
			},
		},
	})
	return r
}

func TestAssertPropertyValue(t *testing.T) {
	r := recordedResult()

	ok := Assertion{Type: AssertPropertyValue, Frame: 10, Layer: "bg", Property: "opacity", Value: []float64{50}}
	assert.NoError(t, checkAssertion(r, ok))

	vec := Assertion{Type: AssertPropertyValue, Frame: 10, Layer: "bg", Property: "transform.position", Value: []float64{10, 20}}
	assert.NoError(t, checkAssertion(r, vec))

	tol := Assertion{Type: AssertPropertyValue, Frame: 10, Layer: "bg", Property: "opacity", Value: []float64{50.4}, Tolerance: 0.5}
	assert.NoError(t, checkAssertion(r, tol))

	wrong := Assertion{Type: AssertPropertyValue, Frame: 10, Layer: "bg", Property: "opacity", Value: []float64{60}}
	err := checkAssertion(r, wrong)
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertPropertyValue, ae.Type)
	assert.Equal(t, 10, ae.Frame)

	arity := Assertion{Type: AssertPropertyValue, Frame: 10, Layer: "bg", Property: "opacity", Value: []float64{50, 0}}
	assert.Error(t, checkAssertion(r, arity))

	missing := Assertion{Type: AssertPropertyValue, Frame: 10, Layer: "bg", Property: "nope", Value: []float64{0}}
	assert.Error(t, checkAssertion(r, missing))

	hidden := Assertion{Type: AssertPropertyValue, Frame: 10, Layer: "gone", Property: "opacity", Value: []float64{0}}
	assert.Error(t, checkAssertion(r, hidden))
}

func TestAssertLayerVisible(t *testing.T) {
	r := recordedResult()

	assert.NoError(t, checkAssertion(r, Assertion{Type: AssertLayerVisible, Frame: 10, Layer: "bg", Visible: true}))
	assert.NoError(t, checkAssertion(r, Assertion{Type: AssertLayerVisible, Frame: 10, Layer: "gone", Visible: false}))
	assert.Error(t, checkAssertion(r, Assertion{Type: AssertLayerVisible, Frame: 10, Layer: "gone", Visible: true}))
}

func TestAssertParticleCount(t *testing.T) {
	r := recordedResult()

	assert.NoError(t, checkAssertion(r, Assertion{Type: AssertParticleCount, Frame: 10, Layer: "sparks", Count: 3}))
	assert.Error(t, checkAssertion(r, Assertion{Type: AssertParticleCount, Frame: 10, Layer: "sparks", Count: 4}))
	assert.Error(t, checkAssertion(r, Assertion{Type: AssertParticleCount, Frame: 10, Layer: "bg", Count: 0}),
		"layers without a snapshot fail rather than read as zero")
}

func TestAssertDiagnostic(t *testing.T) {
	r := recordedResult()

	assert.NoError(t, checkAssertion(r, Assertion{Type: AssertDiagnostic, Frame: 10, Code: "EXPRESSION_RUNTIME"}))
	assert.Error(t, checkAssertion(r, Assertion{Type: AssertDiagnostic, Frame: 10, Code: "MISSING_REFERENCE"}))
	assert.Error(t, checkAssertion(r, Assertion{Type: AssertDiagnostic, Frame: 10, Code: "EXPRESSION_RUNTIME", Layer: "other"}),
		"layer filter must match when set")
}

func TestAssertionError_Message(t *testing.T) {
	err := &AssertionError{Type: AssertParticleCount, Frame: 7, Expected: "3 particle(s)", Actual: "5 particle(s)"}
	msg := err.Error()
	assert.Contains(t, msg, "particle_count at frame 7")
	assert.Contains(t, msg, "Expected: 3 particle(s)")
	assert.Contains(t, msg, "Actual:   5 particle(s)")
}
