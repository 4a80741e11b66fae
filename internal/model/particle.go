package model

import "fmt"

// EmitterShape selects where new particles are born.
type EmitterShape int

const (
	EmitterPoint EmitterShape = iota
	EmitterLine
	EmitterCircle
	EmitterBox
)

var emitterShapeNames = map[EmitterShape]string{
	EmitterPoint:  "point",
	EmitterLine:   "line",
	EmitterCircle: "circle",
	EmitterBox:    "box",
}

func (s EmitterShape) String() string {
	if n, ok := emitterShapeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("emitter(%d)", int(s))
}

// ParseEmitterShape parses a document spelling. Empty defaults to point.
func ParseEmitterShape(s string) (EmitterShape, error) {
	if s == "" {
		return EmitterPoint, nil
	}
	for k, n := range emitterShapeNames {
		if n == s {
			return k, nil
		}
	}
	return EmitterPoint, fmt.Errorf("unknown emitter shape %q", s)
}

// ForceKind selects a force-field model.
type ForceKind int

const (
	ForceGravity ForceKind = iota
	ForceWind
	ForceTurbulence
	ForceVortex
)

var forceKindNames = map[ForceKind]string{
	ForceGravity:    "gravity",
	ForceWind:       "wind",
	ForceTurbulence: "turbulence",
	ForceVortex:     "vortex",
}

func (k ForceKind) String() string {
	if n, ok := forceKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("force(%d)", int(k))
}

// ParseForceKind parses a document spelling.
func ParseForceKind(s string) (ForceKind, error) {
	for k, n := range forceKindNames {
		if n == s {
			return k, nil
		}
	}
	return ForceGravity, fmt.Errorf("unknown force kind %q", s)
}

// EmitterConfig describes particle birth: shape, placement, rate, and the
// initial velocity / size / color distribution sampled from the seeded RNG.
type EmitterConfig struct {
	Shape    EmitterShape
	Position Vec2
	// Extent is the line half-length, circle radius, or box half-size,
	// depending on Shape. Ignored for point emitters.
	Extent Vec2

	// Rate is particles per frame. Fractional rates accumulate.
	Rate float64

	// Direction is the emission angle in degrees, Spread the half-angle
	// of the cone around it.
	Direction float64
	Spread    float64

	Speed         float64
	SpeedVariance float64

	Size         float64
	SizeVariance float64

	Color Color
}

// ForceField is one force applied every step, in config order.
type ForceField struct {
	Kind     ForceKind
	Strength float64
	// Direction is used by wind; Center and Radius by vortex;
	// Frequency by turbulence.
	Direction Vec2
	Center    Vec2
	Radius    float64
	Frequency float64
}

// CollisionPlane is a half-plane particles bounce off:
// points with Normal·p < Offset are inside the wall.
type CollisionPlane struct {
	Normal   Vec2
	Offset   float64
	Bounce   float64 // velocity retained along the normal, [0,1]
	Friction float64 // velocity lost tangentially, [0,1]
}

// LifetimeConfig bounds particle age in frames.
type LifetimeConfig struct {
	Frames   float64
	Variance float64
}

// SubEmitterConfig spawns a burst when a parent particle dies.
type SubEmitterConfig struct {
	Count    int
	Speed    float64
	Inherit  float64 // fraction of parent velocity inherited
	Lifetime float64 // frames
	Size     float64
	Color    Color
}

// FlockingConfig enables boids steering (separation/alignment/cohesion).
type FlockingConfig struct {
	Separation float64
	Alignment  float64
	Cohesion   float64
	Radius     float64
	MaxSpeed   float64
}

// ParticleSystemConfig is the complete, immutable description of one
// particle layer's simulation. Its canonical hash keys the checkpoint
// cache: two configs with equal simulation-affecting fields share
// checkpoints, and nothing outside this struct can influence the sim.
type ParticleSystemConfig struct {
	Seed        int64
	Emitter     EmitterConfig
	Forces      []ForceField
	Collisions  []CollisionPlane
	Lifetime    LifetimeConfig
	SubEmitters []SubEmitterConfig
	Flocking    *FlockingConfig

	// MaxParticles caps the live set; emission stops at the cap.
	MaxParticles int

	// CheckpointInterval is K, the checkpoint cadence in frames.
	// Zero means the default (30). Excluded from the config hash:
	// it changes replay cost, never results.
	CheckpointInterval int
}

// Particle is one live particle. Pure value type; snapshots copy it, never
// alias it.
type Particle struct {
	ID       uint64  `json:"id"`
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Age      float64 `json:"age"`
	Lifetime float64 `json:"lifetime"`
	Size     float64 `json:"size"`
	Color    Color   `json:"color"`
	// Generation is 0 for emitter-born particles, parent+1 for
	// sub-emitted ones.
	Generation int `json:"generation"`
}

// ParticleSnapshot is the evaluated particle state of one layer at one
// frame. Immutable once returned.
type ParticleSnapshot struct {
	LayerID    string     `json:"layer_id"`
	Frame      int        `json:"frame"`
	ConfigHash string     `json:"config_hash"`
	Particles  []Particle `json:"particles"`
}
