package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticefx/motion/internal/graph"
	"github.com/latticefx/motion/internal/model"
)

func scalarProp(name string, def float64, kfs ...model.Keyframe) *model.Property {
	return &model.Property{Name: name, Default: model.Scalar(def), Keyframes: kfs}
}

func vec2Prop(name string, x, y float64, kfs ...model.Keyframe) *model.Property {
	return &model.Property{Name: name, Default: model.Vec2{X: x, Y: y}, Keyframes: kfs}
}

// testProject builds a two-layer comp: a solid and a text layer whose
// opacity is linked to the solid's.
func testProject() *model.Project {
	solid := &model.Layer{
		ID: "solid1", Name: "Background", Kind: model.LayerSolid,
		StartFrame: 0, EndFrame: 100,
		Opacity: scalarProp("opacity", 100,
			model.Keyframe{Frame: 0, Value: model.Scalar(0), Mode: model.InterpLinear},
			model.Keyframe{Frame: 50, Value: model.Scalar(100), Mode: model.InterpLinear},
		),
	}
	text := &model.Layer{
		ID: "text1", Name: "Title", Kind: model.LayerText,
		StartFrame: 10, EndFrame: 90,
		Opacity: &model.Property{
			Name:    "opacity",
			Default: model.Scalar(100),
			Link: &model.Link{
				Target:  model.PropertyPath{Comp: "main", Layer: "solid1", Property: "opacity"},
				Mapping: "value / 2",
			},
		},
	}
	return &model.Project{
		Name: "test", Seed: 7, FPS: 30,
		Compositions: []*model.Composition{{
			ID: "main", Name: "Main", Width: 1920, Height: 1080, DurationFrames: 100,
			Layers: []*model.Layer{solid, text},
		}},
	}
}

func evaluate(t *testing.T, e *Evaluator, p *model.Project, frame int) (*model.FrameState, []Diagnostic) {
	t.Helper()
	state, diags, err := e.Evaluate(context.Background(), frame, p, nil)
	require.NoError(t, err)
	return state, diags
}

func TestEvaluate_KeyframedOpacity(t *testing.T) {
	state, diags := evaluate(t, New(), testProject(), 25)
	assert.Empty(t, diags)

	require.Len(t, state.Layers, 2)
	assert.Equal(t, "solid1", state.Layers[0].LayerID)
	assert.InDelta(t, 50, state.Layers[0].Opacity, 1e-9)
}

func TestEvaluate_LinkWithMapping(t *testing.T) {
	state, diags := evaluate(t, New(), testProject(), 25)
	assert.Empty(t, diags)

	// Title opacity = Background opacity / 2.
	assert.InDelta(t, 25, state.Layers[1].Opacity, 1e-9)
}

func TestEvaluate_Deterministic(t *testing.T) {
	a, _ := evaluate(t, New(), testProject(), 40)
	b, _ := evaluate(t, New(), testProject(), 40)
	assert.Equal(t, a, b, "independent evaluators, equal inputs, equal states")
}

func TestEvaluate_ScrubOrderIndependent(t *testing.T) {
	p := testProject()
	p.Compositions[0].Layers = append(p.Compositions[0].Layers, &model.Layer{
		ID: "sparks", Name: "Sparks", Kind: model.LayerParticles,
		StartFrame: 0, EndFrame: 100,
		Particles: &model.ParticleSystemConfig{
			Seed:     3,
			Emitter:  model.EmitterConfig{Rate: 1, Speed: 4, Spread: 90},
			Lifetime: model.LifetimeConfig{Frames: 50},
		},
	})

	sequential := New()
	var want *model.FrameState
	for _, f := range []int{60} {
		want, _ = evaluate(t, sequential, p, f)
	}

	scrubbed := New()
	for _, f := range []int{83, 12, 47} {
		evaluate(t, scrubbed, p, f)
	}
	got, _ := evaluate(t, scrubbed, p, 60)

	assert.Equal(t, want, got, "scrub order must not leak into results")
}

func TestEvaluate_LayerVisibilityWindow(t *testing.T) {
	p := testProject()

	state, _ := evaluate(t, New(), p, 5)
	require.Len(t, state.Layers, 1, "text layer starts at frame 10")
	assert.Equal(t, "solid1", state.Layers[0].LayerID)

	state, _ = evaluate(t, New(), p, 90)
	require.Len(t, state.Layers, 1, "text layer ends before frame 90")

	state, _ = evaluate(t, New(), p, 10)
	assert.Len(t, state.Layers, 2)
}

func TestEvaluate_WorldMatrixComposition(t *testing.T) {
	p := testProject()
	solid := p.Compositions[0].Layers[0]
	solid.Transform = model.Transform{
		Anchor:   vec2Prop("transform.anchor", 10, 20),
		Position: vec2Prop("transform.position", 60, 40),
		Scale:    vec2Prop("transform.scale", 200, 50),
		Rotation: scalarProp("transform.rotation", 0),
	}

	state, _ := evaluate(t, New(), p, 0)
	world := state.Layers[0].World

	// T(60,40) · R(0) · S(2, 0.5) · T(-10,-20)
	origin := world.MulPoint(model.Vec3{X: 10, Y: 20})
	assert.InDelta(t, 60, origin.X, 1e-9, "anchor maps to position")
	assert.InDelta(t, 40, origin.Y, 1e-9)

	probe := world.MulPoint(model.Vec3{X: 11, Y: 22})
	assert.InDelta(t, 62, probe.X, 1e-9, "x scales by 2")
	assert.InDelta(t, 41, probe.Y, 1e-9, "y scales by 0.5")
}

func TestEvaluate_VelocityCentralDifference(t *testing.T) {
	p := testProject()
	solid := p.Compositions[0].Layers[0]
	solid.Transform.Position = vec2Prop("transform.position", 0, 0,
		model.Keyframe{Frame: 0, Value: model.Vec2{}, Mode: model.InterpLinear},
		model.Keyframe{Frame: 10, Value: model.Vec2{X: 100, Y: 50}, Mode: model.InterpLinear},
	)

	state, _ := evaluate(t, New(), p, 5)
	assert.InDelta(t, 10, state.Layers[0].Velocity.X, 1e-9)
	assert.InDelta(t, 5, state.Layers[0].Velocity.Y, 1e-9)

	// Static past the last keyframe.
	state, _ = evaluate(t, New(), p, 50)
	assert.InDelta(t, 0, state.Layers[0].Velocity.X, 1e-9)
}

func TestEvaluate_ExpressionOverKeyframes(t *testing.T) {
	p := testProject()
	solid := p.Compositions[0].Layers[0]
	solid.Opacity.Expression = "value * 0.5"

	state, diags := evaluate(t, New(), p, 50)
	assert.Empty(t, diags)
	assert.InDelta(t, 50, state.Layers[0].Opacity, 1e-9, "keyframed 100 halved")
}

func TestEvaluate_ExpressionErrorFallsBack(t *testing.T) {
	p := testProject()
	solid := p.Compositions[0].Layers[0]
	solid.Opacity.Expression = "noSuchFunction(1)"

	state, diags := evaluate(t, New(), p, 50)
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Equal(t, CodeExpressionRuntime, diags[0].Code)
	assert.Equal(t, "main/solid1/opacity", diags[0].Property)
	assert.InDelta(t, 100, state.Layers[0].Opacity, 1e-9, "keyframed value survives")
}

func TestEvaluate_ExpressionTimeoutDiagnostic(t *testing.T) {
	p := testProject()
	solid := p.Compositions[0].Layers[0]
	solid.Opacity.Expression = "1+1+1+1+1+1+1+1+1+1+1+1"

	_, diags, err := New(WithMaxExpressionSteps(3)).Evaluate(context.Background(), 50, p, nil)
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	assert.Equal(t, CodeExpressionTimeout, diags[0].Code)
}

func TestEvaluate_MissingLinkDegrades(t *testing.T) {
	p := testProject()
	text := p.Compositions[0].Layers[1]
	text.Opacity.Link.Target = model.PropertyPath{Comp: "main", Layer: "deleted", Property: "opacity"}

	state, diags := evaluate(t, New(), p, 25)
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Equal(t, CodeMissingReference, diags[0].Code)
	// The property falls back to its own (keyframed/default) value.
	assert.InDelta(t, 100, state.Layers[1].Opacity, 1e-9)
}

func TestEvaluate_CycleIsFatal(t *testing.T) {
	p := testProject()
	solid := p.Compositions[0].Layers[0]
	text := p.Compositions[0].Layers[1]
	text.Opacity.Link.Mapping = ""
	solid.Opacity.Link = &model.Link{
		Target: model.PropertyPath{Comp: "main", Layer: "text1", Property: "opacity"},
	}

	_, _, err := New().Evaluate(context.Background(), 25, p, nil)
	require.Error(t, err)
	assert.True(t, graph.IsCycleError(err))
}

func TestEvaluate_ParticleConfigInvalidIsLayerScoped(t *testing.T) {
	p := testProject()
	p.Compositions[0].Layers = append(p.Compositions[0].Layers, &model.Layer{
		ID: "sparks", Name: "Sparks", Kind: model.LayerParticles,
		StartFrame: 0, EndFrame: 100,
		Particles: &model.ParticleSystemConfig{
			Emitter:  model.EmitterConfig{Rate: -1},
			Lifetime: model.LifetimeConfig{Frames: 30},
		},
	})

	state, diags := evaluate(t, New(), p, 25)
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, CodeParticleConfigInvalid, diags[0].Code)
	assert.Equal(t, "sparks", diags[0].LayerID)

	assert.Empty(t, state.Particles, "bad layer contributes no particles")
	assert.Len(t, state.Layers, 3, "other layers still evaluate")
}

func TestEvaluate_AudioRowLookup(t *testing.T) {
	audio := &model.AudioFeatures{Frames: make([]model.AudioFrame, 100)}
	audio.Frames[25] = model.AudioFrame{Amplitude: 0.8, Beat: 1}

	p := testProject()
	state, _, err := New().Evaluate(context.Background(), 25, p, audio)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, state.Audio.Amplitude, 1e-12)
	assert.InDelta(t, 1, state.Audio.Beat, 1e-12)

	// Out of range and absent audio read as silence.
	state, _, err = New().Evaluate(context.Background(), 500, p, audio)
	require.NoError(t, err)
	assert.Zero(t, state.Audio.Amplitude)
}

func TestEvaluate_AudioReactiveExpression(t *testing.T) {
	audio := &model.AudioFeatures{Frames: make([]model.AudioFrame, 100)}
	audio.Frames[25] = model.AudioFrame{Bass: 0.5}

	p := testProject()
	solid := p.Compositions[0].Layers[0]
	solid.Opacity.Expression = "audio.bass * 100"

	state, _, err := New().Evaluate(context.Background(), 25, p, audio)
	require.NoError(t, err)
	assert.InDelta(t, 50, state.Layers[0].Opacity, 1e-9)
}

func TestEvaluate_DefaultCamera(t *testing.T) {
	state, _ := evaluate(t, New(), testProject(), 0)

	assert.Equal(t, model.Mat4Identity(), state.Camera.View)
	assert.InDelta(t, 1080, state.Camera.Zoom, 1e-9)
	assert.NotEqual(t, model.Mat4{}, state.Camera.Projection)
}

func TestEvaluate_AnimatedCamera(t *testing.T) {
	p := testProject()
	p.Compositions[0].Camera = &model.Camera{
		Position: &model.Property{Name: "camera.position", Default: model.Vec3{X: 0, Y: 0, Z: -500}},
		Target:   &model.Property{Name: "camera.target", Default: model.Vec3{}},
		Zoom:     scalarProp("camera.zoom", 800),
	}

	state, _ := evaluate(t, New(), p, 0)
	assert.Equal(t, model.Vec3{Z: -500}, state.Camera.Position)
	assert.InDelta(t, 800, state.Camera.Zoom, 1e-9)
	assert.NotEqual(t, model.Mat4Identity(), state.Camera.View)

	// The view maps the target onto the -Z axis through the eye.
	viewTarget := state.Camera.View.MulPoint(model.Vec3{})
	assert.InDelta(t, 0, viewTarget.X, 1e-9)
	assert.InDelta(t, 0, viewTarget.Y, 1e-9)
	assert.InDelta(t, -500, viewTarget.Z, 1e-9)
}

func TestEvaluate_UnknownCompFails(t *testing.T) {
	_, _, err := New().EvaluateComp(context.Background(), 0, testProject(), "nope", nil)
	require.Error(t, err)
}

func TestGraphCache_ReusesByStructure(t *testing.T) {
	cache := NewGraphCache()
	p := testProject()

	g1, err := cache.Get(p)
	require.NoError(t, err)

	// Keyframe edits do not change structure.
	p.Compositions[0].Layers[0].Opacity.Keyframes[1].Value = model.Scalar(80)
	g2, err := cache.Get(p)
	require.NoError(t, err)
	assert.Same(t, g1, g2)

	// A structural edit (new expression) rebuilds.
	p.Compositions[0].Layers[0].Opacity.Expression = "value"
	g3, err := cache.Get(p)
	require.NoError(t, err)
	assert.NotSame(t, g1, g3)
}

func TestEvaluate_GoldenLayers(t *testing.T) {
	layer := &model.Layer{
		ID: "hero", Name: "Hero", Kind: model.LayerSolid,
		StartFrame: 0, EndFrame: 10,
		Transform: model.Transform{
			Anchor:   vec2Prop("transform.anchor", 10, 20),
			Position: vec2Prop("transform.position", 60, 40),
			Scale:    vec2Prop("transform.scale", 200, 50),
			Rotation: scalarProp("transform.rotation", 0),
		},
		Opacity: scalarProp("opacity", 75),
		Extra: map[string]*model.Property{
			"fill.color": {Name: "fill.color", Default: model.Color{R: 1, G: 0, B: 0.5, A: 1}},
		},
	}
	p := &model.Project{
		Name: "golden", Seed: 1, FPS: 30,
		Compositions: []*model.Composition{{
			ID: "main", Name: "Main", Width: 100, Height: 100, DurationFrames: 10,
			Layers: []*model.Layer{layer},
		}},
	}

	state, diags := evaluate(t, New(), p, 0)
	require.Empty(t, diags)

	data, err := json.MarshalIndent(state.Layers, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "frame_state_layers", data)
}
