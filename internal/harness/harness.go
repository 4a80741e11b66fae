package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/latticefx/motion/internal/engine"
	"github.com/latticefx/motion/internal/model"
	"github.com/latticefx/motion/internal/project"
)

// Harness executes scenarios. Each Run gets a fresh evaluator, so scenarios
// are isolated from each other; within a run, the scrub list deliberately
// shares caches with the recorded frames.
type Harness struct {
	log *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.log = l }
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{log: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario: loads its project, evaluates the scrub and
// recorded frames, and checks every assertion. Assertion failures land in
// the Result; the error return covers execution failures (bad document,
// link cycle, unknown composition).
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes a scenario. See the package-level Run.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	p, err := project.Load(scenario.Project)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	var audio *model.AudioFeatures
	if scenario.Audio != "" {
		if audio, err = project.LoadAudio(scenario.Audio); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}
	}

	compID := scenario.Comp
	if compID == "" {
		compID = p.Main().ID
	}

	eval := engine.New(engine.WithLogger(h.log))

	for _, frame := range scenario.Scrub {
		if _, _, err := eval.EvaluateComp(ctx, frame, p, compID, audio); err != nil {
			return nil, fmt.Errorf("scenario %q: scrub frame %d: %w", scenario.Name, frame, err)
		}
	}

	result := NewResult()
	for _, frame := range scenario.Frames {
		state, diags, err := eval.EvaluateComp(ctx, frame, p, compID, audio)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: frame %d: %w", scenario.Name, frame, err)
		}
		result.Frames = append(result.Frames, FrameRecord{
			Frame:       frame,
			State:       state,
			Diagnostics: diags,
		})
	}

	for i, a := range scenario.Assertions {
		if err := checkAssertion(result, a); err != nil {
			result.AddError(fmt.Sprintf("assertion %d: %v", i, err))
		}
	}

	h.log.Debug("scenario finished",
		"scenario", scenario.Name,
		"frames", len(result.Frames),
		"pass", result.Pass)

	return result, nil
}
