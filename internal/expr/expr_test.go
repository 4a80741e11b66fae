package expr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticefx/motion/internal/model"
)

func testCtx() *Context {
	return &Context{
		Frame:        30,
		FPS:          30,
		ProjectSeed:  7,
		LayerID:      "L1",
		PropertyPath: "main/L1/opacity",
		Value:        model.Scalar(50),
	}
}

func evalNumber(t *testing.T, src string, ctx *Context) float64 {
	t.Helper()
	out, err := Eval(src, ctx)
	require.NoError(t, err, "source: %s", src)
	n, ok := out.(Number)
	require.True(t, ok, "expected number, got %T (source: %s)", out, src)
	return float64(n)
}

func TestEval_Arithmetic(t *testing.T) {
	ctx := testCtx()
	cases := map[string]float64{
		"1 + 2 * 3":        7,
		"(1 + 2) * 3":      9,
		"2 ^ 3 ^ 2":        512, // right-associative
		"10 % 3":           1,
		"-4 + 1":           -3,
		"7 / 2":            3.5,
		"1 < 2 ? 10 : 20":  10,
		"1 > 2 ? 10 : 20":  20,
		"min(3, 9)":        3,
		"clamp(150, 0, 1)": 1,
		"abs(-5)":          5,
	}
	for src, want := range cases {
		assert.InDelta(t, want, evalNumber(t, src, ctx), 1e-12, "source: %s", src)
	}
}

func TestEval_ContextBindings(t *testing.T) {
	ctx := testCtx()
	assert.InDelta(t, 30, evalNumber(t, "frame", ctx), 1e-12)
	assert.InDelta(t, 1, evalNumber(t, "time", ctx), 1e-12, "frame 30 at 30fps is 1s")
	assert.InDelta(t, 50, evalNumber(t, "value", ctx), 1e-12)
	assert.InDelta(t, 100, evalNumber(t, "value * 2", ctx), 1e-12)
}

func TestEval_VectorOps(t *testing.T) {
	ctx := testCtx()
	out, err := Eval("[1, 2] + [10, 20]", ctx)
	require.NoError(t, err)
	assert.Equal(t, Vec{11, 22}, out)

	out, err = Eval("[3, 4] * 2", ctx)
	require.NoError(t, err)
	assert.Equal(t, Vec{6, 8}, out)

	assert.InDelta(t, 5, evalNumber(t, "length([3, 4])", ctx), 1e-12)
	assert.InDelta(t, 4, evalNumber(t, "[1,2,3][0] + [1,2,3][2]", ctx), 1e-12)
}

func TestEval_UnknownNameIsRuntimeError(t *testing.T) {
	_, err := Eval("wiggle(2, 20)", testCtx())
	require.Error(t, err)
	var ee *Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrRuntime, ee.Code)
}

func TestEval_ParseError(t *testing.T) {
	_, err := Eval("1 + ", testCtx())
	var ee *Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrParse, ee.Code)
}

func TestCompile_NestingDepthBounded(t *testing.T) {
	// Deeply nested source must come back as a parse error, never take
	// down the process with it.
	cases := map[string]string{
		"parens":   strings.Repeat("(", 200000) + "1" + strings.Repeat(")", 200000),
		"unary":    strings.Repeat("-", 200000) + "1",
		"brackets": strings.Repeat("[", 200000) + "1" + strings.Repeat("]", 200000),
	}
	for name, src := range cases {
		_, err := Compile(src)
		require.Error(t, err, name)
		var ee *Error
		require.ErrorAs(t, err, &ee, name)
		assert.Equal(t, ErrParse, ee.Code, name)
	}

	// Ordinary nesting stays well inside the bound.
	src := strings.Repeat("(", 50) + "1" + strings.Repeat(")", 50)
	out, err := Eval(src, testCtx())
	require.NoError(t, err)
	assert.Equal(t, Number(1), out)
}

func TestEval_DivisionByZero(t *testing.T) {
	_, err := Eval("1 / 0", testCtx())
	var ee *Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrRuntime, ee.Code)
}

func TestEval_StepBudget(t *testing.T) {
	// A huge flat expression exhausts a tiny budget.
	src := "1" + strings.Repeat(" + 1", 500)
	ctx := testCtx()
	ctx.MaxSteps = 100
	_, err := Eval(src, ctx)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))

	// Same source under the default budget completes.
	ctx2 := testCtx()
	out, err := Eval(src, ctx2)
	require.NoError(t, err)
	assert.Equal(t, Number(501), out)
}

func TestEval_RandomIsDeterministic(t *testing.T) {
	a := evalNumber(t, "random()", testCtx())
	b := evalNumber(t, "random()", testCtx())
	assert.Equal(t, a, b, "same context must reproduce the same draw")

	other := testCtx()
	other.ProjectSeed = 8
	c := evalNumber(t, "random()", other)
	assert.NotEqual(t, a, c, "different project seed, different draw")

	otherProp := testCtx()
	otherProp.PropertyPath = "main/L1/transform.rotation"
	d := evalNumber(t, "random()", otherProp)
	assert.NotEqual(t, a, d, "different property, different stream")
}

func TestEval_RandomCallIndexSeparation(t *testing.T) {
	out, err := Eval("[random(), random()]", testCtx())
	require.NoError(t, err)
	vec := out.(Vec)
	assert.NotEqual(t, vec[0], vec[1], "successive draws must differ")
}

func TestEval_JitterDeterministic(t *testing.T) {
	a := evalNumber(t, "jitter(2, 20)", testCtx())
	b := evalNumber(t, "jitter(2, 20)", testCtx())
	assert.Equal(t, a, b)

	other := testCtx()
	other.ProjectSeed = 99
	c := evalNumber(t, "jitter(2, 20)", other)
	assert.NotEqual(t, a, c)

	// Noise is bounded by the amplitude around the upstream value.
	assert.InDelta(t, 50, a, 20.0+1e-9)
}

func TestEval_AudioAccessors(t *testing.T) {
	ctx := testCtx()
	ctx.Audio = model.AudioFrame{Amplitude: 0.5, Bass: 0.25, Beat: 1}
	assert.InDelta(t, 0.5, evalNumber(t, "audio.amplitude", ctx), 1e-12)
	assert.InDelta(t, 100, evalNumber(t, "audio.beat > 0 ? 100 : 0", ctx), 1e-12)
	assert.InDelta(t, 12.5, evalNumber(t, "audio.bass * 50", ctx), 1e-12)
}

func keyframedCtx(frame float64) *Context {
	ctx := testCtx()
	ctx.Frame = frame
	ctx.Property = &model.Property{
		Name:    "opacity",
		Default: model.Scalar(0),
		Keyframes: []model.Keyframe{
			{Frame: 0, Value: model.Scalar(0), Mode: model.InterpLinear},
			{Frame: 10, Value: model.Scalar(100), Mode: model.InterpLinear},
		},
	}
	ctx.Value = model.Scalar(100) // clamped sample past the last key
	return ctx
}

func TestEval_ThisPropertyAccessors(t *testing.T) {
	ctx := keyframedCtx(5)
	ctx.Value = model.Scalar(50)
	assert.InDelta(t, 2, evalNumber(t, "thisProperty.numKeys", ctx), 1e-12)
	assert.InDelta(t, 0, evalNumber(t, "thisProperty.key(1).value", ctx), 1e-12)
	assert.InDelta(t, 100, evalNumber(t, "thisProperty.key(2).value", ctx), 1e-12)
	// valueAtTime takes seconds: 10 frames at 30fps.
	assert.InDelta(t, 100, evalNumber(t, "thisProperty.valueAtTime(10/30)", ctx), 1e-12)
	assert.InDelta(t, 10, evalNumber(t, "thisProperty.velocity", ctx), 1e-9)
}

func TestEval_RepeatAfterCycle(t *testing.T) {
	// Keyframes 0..10 ramp 0..100; frame 15 cycles back to frame 5.
	ctx := keyframedCtx(15)
	assert.InDelta(t, 50, evalNumber(t, `repeatAfter("cycle")`, ctx), 1e-9)

	// Inside the keyframed range the helper is the identity.
	inside := keyframedCtx(5)
	inside.Value = model.Scalar(50)
	assert.InDelta(t, 50, evalNumber(t, `repeatAfter("cycle")`, inside), 1e-9)
}

func TestEval_RepeatAfterPingpong(t *testing.T) {
	// frame 15 reflects to frame 5; frame 25 wraps to frame 5 again.
	assert.InDelta(t, 50, evalNumber(t, `repeatAfter("pingpong")`, keyframedCtx(15)), 1e-9)
	assert.InDelta(t, 50, evalNumber(t, `repeatAfter("pingpong")`, keyframedCtx(25)), 1e-9)
}

func TestEval_RepeatAfterOffset(t *testing.T) {
	// One full period past the ramp: value continues climbing.
	assert.InDelta(t, 150, evalNumber(t, `repeatAfter("offset")`, keyframedCtx(15)), 1e-9)
	assert.InDelta(t, 250, evalNumber(t, `repeatAfter("offset")`, keyframedCtx(25)), 1e-9)
}

func TestEval_RepeatAfterContinue(t *testing.T) {
	// Slope is 10/frame; five frames past the last key adds 50.
	assert.InDelta(t, 150, evalNumber(t, `repeatAfter("continue")`, keyframedCtx(15)), 1e-6)
}

func TestEval_RepeatBeforeCycle(t *testing.T) {
	assert.InDelta(t, 50, evalNumber(t, `repeatBefore("cycle")`, keyframedCtx(-5)), 1e-9)
}

func TestEval_RepeatUnknownMode(t *testing.T) {
	_, err := Eval(`repeatAfter("bogus")`, keyframedCtx(15))
	require.Error(t, err)
}

func TestEval_OvershootHelpersContinuousAtBoundary(t *testing.T) {
	for _, helper := range []string{"inertia()", "bounce()", "elastic()"} {
		// At the last keyframe the helper equals the keyframed value.
		at := keyframedCtx(10)
		assert.InDelta(t, 100, evalNumber(t, helper, at), 1e-6, helper)

		// Immediately after, it stays near the final pose.
		after := keyframedCtx(10.01)
		v := evalNumber(t, helper, after)
		assert.InDelta(t, 100, v, 25, helper)

		// Deterministic.
		again := evalNumber(t, helper, keyframedCtx(10.01))
		assert.Equal(t, v, again, helper)
	}
}

func TestEval_ThisCompAndLayerAccessors(t *testing.T) {
	layer := &model.Layer{
		ID: "L1", Name: "Title", Kind: model.LayerText,
		StartFrame: 0, EndFrame: 100,
		Transform: model.Transform{
			Position: &model.Property{Name: "transform.position", Default: model.Vec2{X: 10, Y: 20}},
		},
		Opacity: &model.Property{Name: "opacity", Default: model.Scalar(80)},
	}
	comp := &model.Composition{
		ID: "main", Name: "Main", Width: 1920, Height: 1080, DurationFrames: 100,
		Layers: []*model.Layer{layer},
	}
	ctx := testCtx()
	ctx.Layer = layer
	ctx.Comp = comp

	assert.InDelta(t, 1920, evalNumber(t, "thisComp.width", ctx), 1e-12)
	assert.InDelta(t, 80, evalNumber(t, `thisComp.layer("Title").opacity`, ctx), 1e-12)
	assert.InDelta(t, 80, evalNumber(t, "thisComp.layer(1).opacity", ctx), 1e-12)
	assert.InDelta(t, 10, evalNumber(t, "thisLayer.position[0]", ctx), 1e-12)

	_, err := Eval(`thisComp.layer("Missing").opacity`, ctx)
	require.Error(t, err)
}

func TestRunAs_BroadcastAndConvert(t *testing.T) {
	prog, err := Compile("value * 2")
	require.NoError(t, err)

	ctx := testCtx()
	ctx.Value = model.Vec2{X: 3, Y: 4}
	out, err := RunAs(prog, ctx, model.KindVec2)
	require.NoError(t, err)
	assert.Equal(t, model.Vec2{X: 6, Y: 8}, out)

	// A scalar result broadcasts across vector components.
	prog2, err := Compile("5")
	require.NoError(t, err)
	out, err = RunAs(prog2, ctx, model.KindVec2)
	require.NoError(t, err)
	assert.Equal(t, model.Vec2{X: 5, Y: 5}, out)
}

func TestRunAs_StringResultIsError(t *testing.T) {
	prog, err := Compile(`"hello"`)
	require.NoError(t, err)
	_, err = RunAs(prog, testCtx(), model.KindScalar)
	require.Error(t, err)
}
