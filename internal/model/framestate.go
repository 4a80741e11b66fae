package model

// EvaluatedLayer is one visible layer's resolved state at a frame.
type EvaluatedLayer struct {
	LayerID string    `json:"layer_id"`
	Name    string    `json:"name"`
	Kind    LayerKind `json:"kind"`

	// World is the composed anchor/scale/rotation/position transform.
	World Mat4 `json:"world"`

	// Opacity is the resolved opacity in percent.
	Opacity float64 `json:"opacity"`

	// Velocity is the position delta per frame (central difference),
	// carried for motion-blur sampling downstream.
	Velocity Vec2 `json:"velocity"`

	// Values holds every resolved animatable value by property name,
	// including the transform components the matrix was built from.
	Values map[string]Value `json:"values"`
}

// EvaluatedCamera is the resolved camera at a frame.
type EvaluatedCamera struct {
	View       Mat4    `json:"view"`
	Projection Mat4    `json:"projection"`
	Position   Vec3    `json:"position"`
	Target     Vec3    `json:"target"`
	Zoom       float64 `json:"zoom"`
}

// EvaluatedAudio is the audio feature row the frame maps to.
type EvaluatedAudio struct {
	Frame int `json:"frame"`
	AudioFrame
}

// FrameState is the sole output of the evaluator: the complete visual and
// physical state of one frame. Immutable once returned; two evaluations
// with identical inputs produce structurally equal FrameStates regardless
// of scrub order, caching, or concurrency.
type FrameState struct {
	Frame     int                `json:"frame"`
	CompID    string             `json:"comp_id"`
	Layers    []EvaluatedLayer   `json:"layers"`
	Camera    EvaluatedCamera    `json:"camera"`
	Particles []ParticleSnapshot `json:"particles"`
	Audio     EvaluatedAudio     `json:"audio"`
}
