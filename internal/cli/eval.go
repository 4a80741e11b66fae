package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/latticefx/motion/internal/engine"
	"github.com/latticefx/motion/internal/model"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	Frame int
	Comp  string
	Audio string
}

// EvalResult is the payload of a successful eval run.
type EvalResult struct {
	State       *model.FrameState   `json:"state"`
	Diagnostics []engine.Diagnostic `json:"diagnostics,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(opts *RootOptions) *cobra.Command {
	evalOpts := &EvalOptions{}

	cmd := &cobra.Command{
		Use:   "eval <project>",
		Short: "Evaluate one frame of a composition",
		Long: `Eval computes the complete frame state of one composition at one frame:
layer transforms, resolved property values, velocities, camera matrices,
and particle snapshots. Evaluation is pure, so the same frame always
produces the same state no matter what was evaluated before it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, evalOpts, cmd, args[0])
		},
	}

	cmd.Flags().IntVarP(&evalOpts.Frame, "frame", "f", 0, "frame to evaluate")
	cmd.Flags().StringVarP(&evalOpts.Comp, "comp", "c", "", "composition id (default: first composition)")
	cmd.Flags().StringVar(&evalOpts.Audio, "audio", "", "audio feature file for audio-reactive expressions")

	return cmd
}

func runEval(opts *RootOptions, evalOpts *EvalOptions, cmd *cobra.Command, path string) error {
	formatter := newFormatter(opts, cmd)

	p, err := loadProject(path, formatter)
	if err != nil {
		return err
	}
	audio, err := loadAudio(evalOpts.Audio)
	if err != nil {
		formatter.Error("E001", err.Error(), nil)
		return err
	}

	eval, closeStore, err := newEvaluator(opts)
	if err != nil {
		formatter.Error("E201", err.Error(), nil)
		return err
	}
	defer closeStore()

	compID := evalOpts.Comp
	if compID == "" {
		compID = p.Main().ID
	}
	formatter.VerboseLog("evaluating %s/%s at frame %d", p.Name, compID, evalOpts.Frame)

	state, diags, err := eval.EvaluateComp(cmd.Context(), evalOpts.Frame, p, compID, audio)
	if err != nil {
		formatter.Error("E104", err.Error(), nil)
		return WrapExitError(ExitFailure, "evaluating frame", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(EvalResult{State: state, Diagnostics: diags})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Frame %d of %s: %d visible layer(s)\n", state.Frame, state.CompID, len(state.Layers))
	for _, layer := range state.Layers {
		fmt.Fprintf(&b, "  %s (%s) opacity=%.4g\n", layer.LayerID, layer.Kind, layer.Opacity)
	}
	for _, d := range diags {
		fmt.Fprintf(&b, "  %s\n", d)
	}
	return formatter.Success(strings.TrimRight(b.String(), "\n"))
}
