package particles

import (
	"github.com/latticefx/motion/internal/canon"
	"github.com/latticefx/motion/internal/model"
)

// DefaultCheckpointInterval is K: a checkpoint every 30 simulated frames.
const DefaultCheckpointInterval = 30

// DefaultMaxParticles caps a system that does not declare its own cap.
const DefaultMaxParticles = 10000

// Validate rejects configs the simulation cannot run deterministically.
// Invalid values fail loudly here instead of being clamped mid-simulation;
// a validated config never errors later.
func Validate(cfg *model.ParticleSystemConfig) error {
	if cfg == nil {
		return configErr("config is nil")
	}
	if cfg.Emitter.Rate < 0 {
		return configErr("emission rate must be >= 0, got %v", cfg.Emitter.Rate)
	}
	if cfg.Lifetime.Frames <= 0 {
		return configErr("lifetime must be > 0 frames, got %v", cfg.Lifetime.Frames)
	}
	if cfg.Lifetime.Variance < 0 {
		return configErr("lifetime variance must be >= 0, got %v", cfg.Lifetime.Variance)
	}
	if cfg.MaxParticles < 0 {
		return configErr("max particles must be >= 0, got %d", cfg.MaxParticles)
	}
	if cfg.CheckpointInterval < 0 {
		return configErr("checkpoint interval must be >= 0, got %d", cfg.CheckpointInterval)
	}
	for i, f := range cfg.Forces {
		if f.Strength < 0 && f.Kind != model.ForceGravity {
			return configErr("force %d (%s): strength must be >= 0", i, f.Kind)
		}
	}
	for i, c := range cfg.Collisions {
		if c.Normal.Len() < 1e-9 {
			return configErr("collision plane %d has a zero normal", i)
		}
		if c.Bounce < 0 || c.Bounce > 1 {
			return configErr("collision plane %d: bounce must be in [0,1]", i)
		}
		if c.Friction < 0 || c.Friction > 1 {
			return configErr("collision plane %d: friction must be in [0,1]", i)
		}
	}
	for i, s := range cfg.SubEmitters {
		if s.Count < 0 {
			return configErr("sub-emitter %d: count must be >= 0", i)
		}
		if s.Lifetime <= 0 {
			return configErr("sub-emitter %d: lifetime must be > 0", i)
		}
	}
	if fl := cfg.Flocking; fl != nil && fl.Radius < 0 {
		return configErr("flocking radius must be >= 0")
	}
	return nil
}

// Hash computes the checkpoint cache key: a canonical hash over every
// simulation-affecting field. CheckpointInterval is deliberately excluded
// since it changes replay cost, never results. Anything downstream of the
// simulation (layer transforms, render settings) is excluded too.
func Hash(cfg *model.ParticleSystemConfig) (string, error) {
	forces := make([]any, len(cfg.Forces))
	for i, f := range cfg.Forces {
		forces[i] = map[string]any{
			"kind":      f.Kind.String(),
			"strength":  f.Strength,
			"direction": []float64{f.Direction.X, f.Direction.Y},
			"center":    []float64{f.Center.X, f.Center.Y},
			"radius":    f.Radius,
			"frequency": f.Frequency,
		}
	}
	collisions := make([]any, len(cfg.Collisions))
	for i, c := range cfg.Collisions {
		collisions[i] = map[string]any{
			"normal":   []float64{c.Normal.X, c.Normal.Y},
			"offset":   c.Offset,
			"bounce":   c.Bounce,
			"friction": c.Friction,
		}
	}
	subs := make([]any, len(cfg.SubEmitters))
	for i, s := range cfg.SubEmitters {
		subs[i] = map[string]any{
			"count":    int64(s.Count),
			"speed":    s.Speed,
			"inherit":  s.Inherit,
			"lifetime": s.Lifetime,
			"size":     s.Size,
			"color":    []float64{s.Color.R, s.Color.G, s.Color.B, s.Color.A},
		}
	}
	doc := map[string]any{
		"seed": cfg.Seed,
		"emitter": map[string]any{
			"shape":          cfg.Emitter.Shape.String(),
			"position":       []float64{cfg.Emitter.Position.X, cfg.Emitter.Position.Y},
			"extent":         []float64{cfg.Emitter.Extent.X, cfg.Emitter.Extent.Y},
			"rate":           cfg.Emitter.Rate,
			"direction":      cfg.Emitter.Direction,
			"spread":         cfg.Emitter.Spread,
			"speed":          cfg.Emitter.Speed,
			"speed_variance": cfg.Emitter.SpeedVariance,
			"size":           cfg.Emitter.Size,
			"size_variance":  cfg.Emitter.SizeVariance,
			"color":          []float64{cfg.Emitter.Color.R, cfg.Emitter.Color.G, cfg.Emitter.Color.B, cfg.Emitter.Color.A},
		},
		"forces":     forces,
		"collisions": collisions,
		"lifetime": map[string]any{
			"frames":   cfg.Lifetime.Frames,
			"variance": cfg.Lifetime.Variance,
		},
		"sub_emitters":  subs,
		"max_particles": int64(maxParticles(cfg)),
	}
	if fl := cfg.Flocking; fl != nil {
		doc["flocking"] = map[string]any{
			"separation": fl.Separation,
			"alignment":  fl.Alignment,
			"cohesion":   fl.Cohesion,
			"radius":     fl.Radius,
			"max_speed":  fl.MaxSpeed,
		}
	}
	return canon.HashValue(canon.DomainParticleConfig, doc)
}

func maxParticles(cfg *model.ParticleSystemConfig) int {
	if cfg.MaxParticles > 0 {
		return cfg.MaxParticles
	}
	return DefaultMaxParticles
}

func checkpointInterval(cfg *model.ParticleSystemConfig) int {
	if cfg.CheckpointInterval > 0 {
		return cfg.CheckpointInterval
	}
	return DefaultCheckpointInterval
}
