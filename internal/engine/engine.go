package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/latticefx/motion/internal/expr"
	"github.com/latticefx/motion/internal/graph"
	"github.com/latticefx/motion/internal/interp"
	"github.com/latticefx/motion/internal/model"
	"github.com/latticefx/motion/internal/particles"
)

// velocityDelta is the central-difference half-step used for per-layer
// motion-blur velocity.
const velocityDelta = 0.5

// Evaluator evaluates frames of a project. It carries no per-frame state:
// both caches are keyed by content hashes, so a cold cache and a warm one
// produce identical FrameStates.
type Evaluator struct {
	graphs      *GraphCache
	checkpoints particles.CheckpointCache
	maxSteps    int
	log         *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithGraphCache shares a graph cache across evaluators.
func WithGraphCache(c *GraphCache) Option {
	return func(e *Evaluator) { e.graphs = c }
}

// WithCheckpointCache sets the particle checkpoint cache, typically a
// durable store.Store. Defaults to an in-memory cache.
func WithCheckpointCache(c particles.CheckpointCache) Option {
	return func(e *Evaluator) { e.checkpoints = c }
}

// WithMaxExpressionSteps overrides the per-expression step budget.
func WithMaxExpressionSteps(n int) Option {
	return func(e *Evaluator) { e.maxSteps = n }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) { e.log = l }
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		graphs:      NewGraphCache(),
		checkpoints: particles.NewMemoryCache(),
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate computes the FrameState of the project's main composition.
// See EvaluateComp for semantics.
func (e *Evaluator) Evaluate(ctx context.Context, frame int, p *model.Project, audio *model.AudioFeatures) (*model.FrameState, []Diagnostic, error) {
	main := p.Main()
	if main == nil {
		return nil, nil, fmt.Errorf("project %q has no compositions", p.Name)
	}
	return e.EvaluateComp(ctx, frame, p, main.ID, audio)
}

// EvaluateComp computes the complete FrameState of one composition at one
// frame. Pure: equal inputs produce structurally equal results regardless
// of call order or cache warmth. Recoverable problems come back as
// diagnostics; only a dependency cycle (or an unknown composition) fails
// the call outright.
func (e *Evaluator) EvaluateComp(ctx context.Context, frame int, p *model.Project, compID string, audio *model.AudioFeatures) (*model.FrameState, []Diagnostic, error) {
	comp := p.CompByID(compID)
	if comp == nil {
		return nil, nil, fmt.Errorf("no composition %q in project %q", compID, p.Name)
	}

	g, err := e.graphs.Get(p)
	if err != nil {
		return nil, nil, err
	}

	var diags []Diagnostic
	for _, ml := range g.MissingLinks() {
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeMissingReference,
			Property: ml.From.String(),
			Message:  fmt.Sprintf("link target %s does not resolve; using default value", ml.Target),
		})
	}

	audioRow := audio.At(frame)

	pass := &resolvePass{
		eval:  e,
		proj:  p,
		graph: g,
		audio: audioRow,
	}
	resolved := pass.resolveAll(float64(frame), &diags)

	// Two silent passes at the half-frames feed the central-difference
	// velocity. Expression failures there fall back the same way but are
	// not re-reported.
	before := pass.resolveAll(float64(frame)-velocityDelta, nil)
	after := pass.resolveAll(float64(frame)+velocityDelta, nil)

	state := &model.FrameState{
		Frame:  frame,
		CompID: comp.ID,
		Audio:  model.EvaluatedAudio{Frame: frame, AudioFrame: audioRow},
	}

	for _, layer := range comp.Layers {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if !layer.VisibleAt(frame) {
			continue
		}

		el := e.evaluateLayer(comp, layer, g, resolved, before, after)
		state.Layers = append(state.Layers, el)

		if layer.Particles != nil {
			snap, err := e.evaluateParticles(layer, frame)
			if err != nil {
				diags = append(diags, Diagnostic{
					Severity: SeverityError,
					Code:     CodeParticleConfigInvalid,
					LayerID:  layer.ID,
					Message:  err.Error(),
				})
				continue
			}
			state.Particles = append(state.Particles, snap)
		}
	}

	state.Camera = e.evaluateCamera(comp, g, resolved)

	return state, diags, nil
}

// resolvePass resolves every graph property at one fractional frame.
type resolvePass struct {
	eval  *Evaluator
	proj  *model.Project
	graph *graph.Graph
	audio model.AudioFrame
}

// resolveAll walks the topological order. With diags == nil failures
// degrade silently (used by the velocity half-frame passes).
func (rp *resolvePass) resolveAll(frame float64, diags *[]Diagnostic) []model.Value {
	g := rp.graph
	resolved := make([]model.Value, g.Len())

	for _, id := range g.Order() {
		n := g.Node(id)
		base := interp.Sample(n.Prop, frame)

		if driver, ok := g.Driver(id); ok {
			resolved[id] = rp.applyLink(frame, n, resolved[driver], base, diags)
			continue
		}
		if n.Prop.Expression != "" {
			resolved[id] = rp.applyExpression(frame, n, base, diags)
			continue
		}
		resolved[id] = base
	}
	return resolved
}

// applyLink resolves a linked property: the already-resolved source value,
// optionally passed through the mapping expression, coerced to the target
// kind. Mapping failures degrade to the target's own keyframed value.
func (rp *resolvePass) applyLink(frame float64, n graph.Node, src, base model.Value, diags *[]Diagnostic) model.Value {
	link := n.Prop.Link
	if link.Mapping == "" {
		return coerce(src, base.Kind())
	}

	out, err := rp.run(frame, n, link.Mapping, src, base.Kind())
	if err != nil {
		rp.report(diags, n, err)
		return base
	}
	return out
}

// applyExpression resolves a property-level expression over the keyframed
// base value. Failures degrade to the base value.
func (rp *resolvePass) applyExpression(frame float64, n graph.Node, base model.Value, diags *[]Diagnostic) model.Value {
	out, err := rp.run(frame, n, n.Prop.Expression, base, base.Kind())
	if err != nil {
		rp.report(diags, n, err)
		return base
	}
	return out
}

func (rp *resolvePass) run(frame float64, n graph.Node, source string, value model.Value, kind model.Kind) (model.Value, error) {
	prog, err := expr.Compile(source)
	if err != nil {
		return nil, err
	}

	comp := rp.proj.CompByID(n.Path.Comp)
	var layer *model.Layer
	if comp != nil && n.Path.Layer != "camera" {
		layer = comp.LayerByID(n.Path.Layer)
	}

	ectx := &expr.Context{
		Frame:        frame,
		FPS:          rp.proj.FPS,
		ProjectSeed:  rp.proj.Seed,
		LayerID:      n.Path.Layer,
		PropertyPath: n.Path.String(),
		Value:        value,
		Property:     n.Prop,
		Layer:        layer,
		Comp:         comp,
		Audio:        rp.audio,
		MaxSteps:     rp.eval.maxSteps,
	}
	return expr.RunAs(prog, ectx, kind)
}

func (rp *resolvePass) report(diags *[]Diagnostic, n graph.Node, err error) {
	if diags == nil {
		return
	}
	code := CodeExpressionRuntime
	var ee *expr.Error
	if errors.As(err, &ee) {
		switch ee.Code {
		case expr.ErrParse:
			code = CodeExpressionParse
		case expr.ErrTimeout:
			code = CodeExpressionTimeout
		}
	}
	rp.eval.log.Debug("expression degraded to keyframed value",
		"property", n.Path.String(), "error", err)
	*diags = append(*diags, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Property: n.Path.String(),
		Message:  err.Error(),
	})
}

// evaluateLayer composes one visible layer's resolved values into an
// EvaluatedLayer: world matrix, opacity, motion-blur velocity, and the full
// value map.
func (e *Evaluator) evaluateLayer(comp *model.Composition, layer *model.Layer, g *graph.Graph, resolved, before, after []model.Value) model.EvaluatedLayer {
	lookup := func(vals []model.Value, name string, def model.Value) model.Value {
		path := model.PropertyPath{Comp: comp.ID, Layer: layer.ID, Property: name}
		if id, ok := g.Lookup(path); ok {
			return vals[id]
		}
		return def
	}

	anchor := asVec2(lookup(resolved, "transform.anchor", model.Vec2{}))
	position := asVec2(lookup(resolved, "transform.position", model.Vec2{}))
	scale := asVec2(lookup(resolved, "transform.scale", model.Vec2{X: 100, Y: 100}))
	rotation := asScalar(lookup(resolved, "transform.rotation", model.Scalar(0)))
	opacity := asScalar(lookup(resolved, "opacity", model.Scalar(100)))

	// World = T(position) · R(rotation) · S(scale) · T(-anchor).
	// Scale is authored in percent.
	world := model.Mat4Translate(model.Vec3{X: position.X, Y: position.Y})
	world = model.Mat4Mul(world, model.Mat4RotateZ(rotation))
	world = model.Mat4Mul(world, model.Mat4Scale(model.Vec3{X: scale.X / 100, Y: scale.Y / 100, Z: 1}))
	world = model.Mat4Mul(world, model.Mat4Translate(model.Vec3{X: -anchor.X, Y: -anchor.Y}))

	posBefore := asVec2(lookup(before, "transform.position", model.Vec2{}))
	posAfter := asVec2(lookup(after, "transform.position", model.Vec2{}))
	velocity := posAfter.Sub(posBefore).Scale(1 / (2 * velocityDelta))

	values := map[string]model.Value{
		"transform.anchor":   anchor,
		"transform.position": position,
		"transform.scale":    scale,
		"transform.rotation": model.Scalar(rotation),
		"opacity":            model.Scalar(clamp(opacity, 0, 100)),
	}
	for name := range layer.Extra {
		path := model.PropertyPath{Comp: comp.ID, Layer: layer.ID, Property: name}
		if id, ok := g.Lookup(path); ok {
			values[name] = resolved[id]
		}
	}

	return model.EvaluatedLayer{
		LayerID:  layer.ID,
		Name:     layer.Name,
		Kind:     layer.Kind,
		World:    world,
		Opacity:  clamp(opacity, 0, 100),
		Velocity: velocity,
		Values:   values,
	}
}

// evaluateCamera resolves the comp camera into view/projection matrices.
// A missing camera yields the identity view and a default perspective.
func (e *Evaluator) evaluateCamera(comp *model.Composition, g *graph.Graph, resolved []model.Value) model.EvaluatedCamera {
	w := float64(comp.Width)
	h := float64(comp.Height)
	if h <= 0 {
		h = 1
	}

	// Default rig: centered on the comp, pulled back by the focal length.
	zoom := h
	position := model.Vec3{X: w / 2, Y: h / 2, Z: -zoom}
	target := model.Vec3{X: w / 2, Y: h / 2, Z: 0}

	cam := model.EvaluatedCamera{}
	if comp.Camera == nil {
		cam.View = model.Mat4Identity()
	} else {
		lookup := func(name string, def model.Value) model.Value {
			path := model.PropertyPath{Comp: comp.ID, Layer: "camera", Property: name}
			if id, ok := g.Lookup(path); ok {
				return resolved[id]
			}
			return def
		}
		position = asVec3(lookup("camera.position", position))
		target = asVec3(lookup("camera.target", target))
		zoom = asScalar(lookup("camera.zoom", model.Scalar(zoom)))
		if zoom <= 0 {
			zoom = h
		}
		cam.View = model.Mat4LookAt(position, target, model.Vec3{Y: 1})
	}

	fovY := 2 * math.Atan2(h/2, zoom)
	cam.Projection = model.Mat4Perspective(fovY, w/h, 0.1, 10000)
	cam.Position = position
	cam.Target = target
	cam.Zoom = zoom
	return cam
}

// evaluateParticles builds the layer's particle system over the shared
// checkpoint cache and evaluates it at the frame.
func (e *Evaluator) evaluateParticles(layer *model.Layer, frame int) (model.ParticleSnapshot, error) {
	sys, err := particles.NewSystem(layer.ID, layer.Particles, e.checkpoints)
	if err != nil {
		return model.ParticleSnapshot{}, err
	}
	return sys.EvaluateAtFrame(frame)
}

// coerce converts a resolved value to the target kind. Scalars broadcast
// across components; between vector kinds components map by index, missing
// ones fill with zero (alpha fills with one).
func coerce(v model.Value, kind model.Kind) model.Value {
	if v.Kind() == kind {
		return v
	}
	src := v.Components()
	want := len(model.ZeroValue(kind).Components())

	comps := make([]float64, want)
	for i := range comps {
		switch {
		case len(src) == 1:
			comps[i] = src[0]
		case i < len(src):
			comps[i] = src[i]
		case kind == model.KindColor && i == 3:
			comps[i] = 1
		}
	}
	return model.FromComponents(kind, comps)
}

func asVec2(v model.Value) model.Vec2 {
	if v2, ok := v.(model.Vec2); ok {
		return v2
	}
	c := coerce(v, model.KindVec2).(model.Vec2)
	return c
}

func asVec3(v model.Value) model.Vec3 {
	if v3, ok := v.(model.Vec3); ok {
		return v3
	}
	return coerce(v, model.KindVec3).(model.Vec3)
}

func asScalar(v model.Value) float64 {
	if s, ok := v.(model.Scalar); ok {
		return float64(s)
	}
	return v.Components()[0]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
