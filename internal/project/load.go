// Package project loads and validates project documents into the read-only
// model the evaluator consumes. Documents are YAML or JSON; every document
// is checked against the embedded CUE schema first, then decoded and
// subjected to semantic validation (keyframe monotonicity, link path
// syntax). A project that loads evaluates without structural errors.
package project

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/latticefx/motion/internal/model"
)

//go:embed schema.cue
var schemaSrc string

// Load reads, validates, and builds a project from a document file.
func Load(path string) (*model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, loadErr(ErrCodeNotFound, "", "project document not found: %s", path)
		}
		return nil, loadErr(ErrCodeNotFound, "", "reading %s: %v", path, err)
	}
	return Parse(path, data)
}

// Parse validates document bytes against the schema and builds the model.
// The filename is used only for error positions.
func Parse(filename string, data []byte) (*model.Project, error) {
	if err := validateSchema(filename, data); err != nil {
		return nil, err
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, loadErr(ErrCodeParse, "", "decoding %s: %v", filename, err)
	}

	return build(&doc)
}

// validateSchema unifies the document with the embedded schema. YAML is a
// superset of JSON, so one extraction path covers both formats.
func validateSchema(filename string, data []byte) error {
	cctx := cuecontext.New()

	schema := cctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal: compiling project schema: %w", err)
	}

	// Narrow #LayerKind to the model's registry so a document cannot name
	// a kind the model cannot represent, and vice versa.
	kinds := cctx.CompileString(layerKindConstraint(), cue.Filename("layerkinds.cue"))
	if err := kinds.Err(); err != nil {
		return fmt.Errorf("internal: compiling layer kind constraint: %w", err)
	}
	schema = schema.Unify(kinds)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal: narrowing layer kinds: %w", err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return loadErr(ErrCodeParse, "", "parsing %s: %v", filename, err)
	}
	docVal := cctx.BuildFile(file)
	if err := docVal.Err(); err != nil {
		return loadErr(ErrCodeParse, "", "building %s: %v", filename, err)
	}

	unified := schema.Unify(docVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return loadErr(ErrCodeSchema, "", "%v", err)
	}
	return nil
}

// layerKindConstraint renders the model's layer kind registry as a CUE
// disjunction unified into the schema's #LayerKind.
func layerKindConstraint() string {
	names := model.LayerKindNames()
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	return "#LayerKind: " + strings.Join(quoted, " | ")
}

// build converts a validated document into the evaluator model.
func build(doc *Document) (*model.Project, error) {
	p := &model.Project{
		Name: doc.Name,
		Seed: doc.Seed,
		FPS:  doc.FPS,
	}
	if p.FPS <= 0 {
		p.FPS = 30
	}

	for _, cd := range doc.Compositions {
		comp := &model.Composition{
			ID:             cd.ID,
			Name:           cd.Name,
			Width:          cd.Width,
			Height:         cd.Height,
			DurationFrames: cd.Duration,
		}

		for _, ld := range cd.Layers {
			layer, err := buildLayer(cd, ld)
			if err != nil {
				return nil, err
			}
			comp.Layers = append(comp.Layers, layer)
		}

		if cd.Camera != nil {
			cam := &model.Camera{}
			var err error
			where := cd.ID + "/camera"
			if cam.Position, err = buildProperty("camera.position", cd.Camera.Position, where); err != nil {
				return nil, err
			}
			if cam.Target, err = buildProperty("camera.target", cd.Camera.Target, where); err != nil {
				return nil, err
			}
			if cam.Zoom, err = buildProperty("camera.zoom", cd.Camera.Zoom, where); err != nil {
				return nil, err
			}
			comp.Camera = cam
		}

		p.Compositions = append(p.Compositions, comp)
	}

	return p, nil
}

func buildLayer(cd compDoc, ld layerDoc) (*model.Layer, error) {
	where := cd.ID + "/" + ld.ID

	kind, err := model.ParseLayerKind(ld.Kind)
	if err != nil {
		return nil, loadErr(ErrCodeLayerKind, where, "%v", err)
	}

	end := ld.End
	if end == 0 {
		end = cd.Duration
	}

	layer := &model.Layer{
		ID:         ld.ID,
		Name:       ld.Name,
		Kind:       kind,
		StartFrame: ld.Start,
		EndFrame:   end,
		Source:     ld.Source,
	}

	if ld.Transform != nil {
		if layer.Transform.Anchor, err = buildProperty("transform.anchor", ld.Transform.Anchor, where); err != nil {
			return nil, err
		}
		if layer.Transform.Position, err = buildProperty("transform.position", ld.Transform.Position, where); err != nil {
			return nil, err
		}
		if layer.Transform.Scale, err = buildProperty("transform.scale", ld.Transform.Scale, where); err != nil {
			return nil, err
		}
		if layer.Transform.Rotation, err = buildProperty("transform.rotation", ld.Transform.Rotation, where); err != nil {
			return nil, err
		}
	}
	if layer.Opacity, err = buildProperty("opacity", ld.Opacity, where); err != nil {
		return nil, err
	}

	if len(ld.Properties) > 0 {
		layer.Extra = make(map[string]*model.Property, len(ld.Properties))
		for name, pd := range ld.Properties {
			prop, err := buildProperty(name, pd, where)
			if err != nil {
				return nil, err
			}
			layer.Extra[name] = prop
		}
	}

	if ld.Particles != nil {
		layer.Particles = buildParticles(ld.Particles)
	}

	return layer, nil
}

func buildProperty(name string, pd *propertyDoc, where string) (*model.Property, error) {
	if pd == nil {
		return nil, nil
	}
	path := where + "/" + name

	def, err := decodeValue(pd.Value, path)
	if err != nil {
		return nil, err
	}

	prop := &model.Property{
		Name:       name,
		Default:    def,
		Expression: pd.Expression,
	}

	for i, kd := range pd.Keyframes {
		val, err := decodeValue(kd.Value, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		mode, err := model.ParseInterpMode(kd.Mode)
		if err != nil {
			return nil, loadErr(ErrCodeKeyframeData, path, "keyframe %d: %v", i, err)
		}
		kf := model.Keyframe{Frame: kd.Frame, Value: val, Mode: mode}
		if kd.EaseOut != nil {
			kf.EaseOut = &model.Ease{X: kd.EaseOut.X, Y: kd.EaseOut.Y}
		}
		if kd.EaseIn != nil {
			kf.EaseIn = &model.Ease{X: kd.EaseIn.X, Y: kd.EaseIn.Y}
		}
		prop.Keyframes = append(prop.Keyframes, kf)
	}

	if pd.Link != nil {
		target, err := model.ParsePropertyPath(pd.Link.Target)
		if err != nil {
			return nil, loadErr(ErrCodeReference, path, "link target: %v", err)
		}
		prop.Link = &model.Link{Target: target, Mapping: pd.Link.Mapping}
	}

	if prop.Default == nil {
		if len(prop.Keyframes) > 0 {
			prop.Default = model.ZeroValue(prop.Keyframes[0].Value.Kind())
		} else {
			prop.Default = model.Scalar(0)
		}
	}

	if err := validateProperty(prop, path); err != nil {
		return nil, err
	}
	return prop, nil
}

func buildParticles(pd *particlesDoc) *model.ParticleSystemConfig {
	shape, _ := model.ParseEmitterShape(pd.Emitter.Shape)

	cfg := &model.ParticleSystemConfig{
		Seed: pd.Seed,
		Emitter: model.EmitterConfig{
			Shape:         shape,
			Position:      vec2Of(pd.Emitter.Position),
			Extent:        vec2Of(pd.Emitter.Extent),
			Rate:          pd.Emitter.Rate,
			Direction:     pd.Emitter.Direction,
			Spread:        pd.Emitter.Spread,
			Speed:         pd.Emitter.Speed,
			SpeedVariance: pd.Emitter.SpeedVariance,
			Size:          pd.Emitter.Size,
			SizeVariance:  pd.Emitter.SizeVariance,
			Color:         colorOf(pd.Emitter.Color),
		},
		Lifetime: model.LifetimeConfig{
			Frames:   pd.Lifetime.Frames,
			Variance: pd.Lifetime.Variance,
		},
		MaxParticles:       pd.MaxParticles,
		CheckpointInterval: pd.CheckpointInterval,
	}

	for _, fd := range pd.Forces {
		kind, _ := model.ParseForceKind(fd.Kind)
		cfg.Forces = append(cfg.Forces, model.ForceField{
			Kind:      kind,
			Strength:  fd.Strength,
			Direction: vec2Of(fd.Direction),
			Center:    vec2Of(fd.Center),
			Radius:    fd.Radius,
			Frequency: fd.Frequency,
		})
	}
	for _, cdoc := range pd.Collisions {
		cfg.Collisions = append(cfg.Collisions, model.CollisionPlane{
			Normal:   vec2Of(cdoc.Normal),
			Offset:   cdoc.Offset,
			Bounce:   cdoc.Bounce,
			Friction: cdoc.Friction,
		})
	}
	for _, sd := range pd.SubEmitters {
		cfg.SubEmitters = append(cfg.SubEmitters, model.SubEmitterConfig{
			Count:    sd.Count,
			Speed:    sd.Speed,
			Inherit:  sd.Inherit,
			Lifetime: sd.Lifetime,
			Size:     sd.Size,
			Color:    colorOf(sd.Color),
		})
	}
	if pd.Flocking != nil {
		cfg.Flocking = &model.FlockingConfig{
			Separation: pd.Flocking.Separation,
			Alignment:  pd.Flocking.Alignment,
			Cohesion:   pd.Flocking.Cohesion,
			Radius:     pd.Flocking.Radius,
			MaxSpeed:   pd.Flocking.MaxSpeed,
		}
	}
	return cfg
}
