package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/latticefx/motion/internal/canon"
)

// snapshotMap digests a run into the restricted value set canonical JSON
// accepts. The digest carries the salient per-layer results rather than the
// full frame state; golden files stay reviewable while still pinning the
// evaluator's observable behavior.
func snapshotMap(scenario *Scenario, result *Result) map[string]any {
	frames := make([]any, 0, len(result.Frames))
	for _, rec := range result.Frames {
		layers := make([]any, 0, len(rec.State.Layers))
		for _, layer := range rec.State.Layers {
			layers = append(layers, map[string]any{
				"layer_id": layer.LayerID,
				"kind":     layer.Kind.String(),
				"opacity":  layer.Opacity,
				"velocity": []float64{layer.Velocity.X, layer.Velocity.Y},
			})
		}

		frame := map[string]any{
			"frame":  rec.Frame,
			"layers": layers,
		}
		if len(rec.State.Particles) > 0 {
			counts := make(map[string]any, len(rec.State.Particles))
			for _, snap := range rec.State.Particles {
				counts[snap.LayerID] = len(snap.Particles)
			}
			frame["particles"] = counts
		}
		if len(rec.Diagnostics) > 0 {
			diags := make([]any, 0, len(rec.Diagnostics))
			for _, d := range rec.Diagnostics {
				diags = append(diags, d.String())
			}
			frame["diagnostics"] = diags
		}
		frames = append(frames, frame)
	}

	return map[string]any{
		"scenario": scenario.Name,
		"frames":   frames,
	}
}

// RunWithGolden executes a scenario and compares its digest against the
// golden file testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
//
// Returns an error when execution or an assertion fails; a digest mismatch
// fails the test through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if !result.Pass {
		return fmt.Errorf("scenario %q failed: %v", scenario.Name, result.Errors)
	}

	data, err := canon.Marshal(snapshotMap(scenario, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
