package harness

import (
	"github.com/latticefx/motion/internal/engine"
	"github.com/latticefx/motion/internal/model"
)

// FrameRecord is one recorded evaluation: the frame state plus the
// diagnostics that rode alongside it.
type FrameRecord struct {
	Frame       int                 `json:"frame"`
	State       *model.FrameState   `json:"state"`
	Diagnostics []engine.Diagnostic `json:"diagnostics,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates every assertion held.
	Pass bool `json:"pass"`

	// Frames holds one record per entry in the scenario's frames list, in
	// scenario order.
	Frames []FrameRecord `json:"frames"`

	// Errors lists assertion failures. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates an empty passing result.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError records an assertion failure and marks the result failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Record returns the record for a frame, or nil. Scenario validation
// guarantees asserted frames exist, so nil only shows up on caller bugs.
func (r *Result) Record(frame int) *FrameRecord {
	for i := range r.Frames {
		if r.Frames[i].Frame == frame {
			return &r.Frames[i]
		}
	}
	return nil
}

// layer finds a visible layer in a record's state by id.
func (rec *FrameRecord) layer(id string) *model.EvaluatedLayer {
	for i := range rec.State.Layers {
		if rec.State.Layers[i].LayerID == id {
			return &rec.State.Layers[i]
		}
	}
	return nil
}

// particles finds a layer's particle snapshot in a record's state.
func (rec *FrameRecord) particles(layerID string) *model.ParticleSnapshot {
	for i := range rec.State.Particles {
		if rec.State.Particles[i].LayerID == layerID {
			return &rec.State.Particles[i]
		}
	}
	return nil
}
