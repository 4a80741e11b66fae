package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/latticefx/motion/internal/engine"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	Start   int
	End     int
	Comp    string
	Audio   string
	OutDir  string
	Workers int
}

// RenderResult is the payload of a successful render run.
type RenderResult struct {
	Session     string              `json:"session"`
	Comp        string              `json:"comp"`
	Start       int                 `json:"start"`
	End         int                 `json:"end"`
	Frames      int                 `json:"frames"`
	OutDir      string              `json:"out_dir,omitempty"`
	Diagnostics []engine.Diagnostic `json:"diagnostics,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(opts *RootOptions) *cobra.Command {
	renderOpts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render <project>",
		Short: "Evaluate a frame range and write per-frame state files",
		Long: `Render evaluates every frame in [start, end] and writes each frame's
state as JSON into the output directory. Frames are independent, so they
run on a worker pool; determinism guarantees the parallel result is
identical to a sequential pass.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, renderOpts, cmd, args[0])
		},
	}

	cmd.Flags().IntVar(&renderOpts.Start, "start", 0, "first frame (inclusive)")
	cmd.Flags().IntVar(&renderOpts.End, "end", -1, "last frame (inclusive, default: composition duration - 1)")
	cmd.Flags().StringVarP(&renderOpts.Comp, "comp", "c", "", "composition id (default: first composition)")
	cmd.Flags().StringVar(&renderOpts.Audio, "audio", "", "audio feature file for audio-reactive expressions")
	cmd.Flags().StringVarP(&renderOpts.OutDir, "out", "o", "", "output directory for frame state files (default: evaluate only)")
	cmd.Flags().IntVar(&renderOpts.Workers, "workers", runtime.NumCPU(), "parallel evaluation workers")

	return cmd
}

func runRender(opts *RootOptions, renderOpts *RenderOptions, cmd *cobra.Command, path string) error {
	formatter := newFormatter(opts, cmd)

	p, err := loadProject(path, formatter)
	if err != nil {
		return err
	}
	audio, err := loadAudio(renderOpts.Audio)
	if err != nil {
		formatter.Error("E001", err.Error(), nil)
		return err
	}

	compID := renderOpts.Comp
	if compID == "" {
		compID = p.Main().ID
	}
	comp := p.CompByID(compID)
	if comp == nil {
		msg := fmt.Sprintf("no composition %q in project %q", compID, p.Name)
		formatter.Error("E103", msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	start, end := renderOpts.Start, renderOpts.End
	if end < 0 {
		end = comp.DurationFrames - 1
	}
	if start < 0 || end < start {
		msg := fmt.Sprintf("invalid frame range [%d, %d]", start, end)
		formatter.Error("E001", msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	if renderOpts.OutDir != "" {
		if err := os.MkdirAll(renderOpts.OutDir, 0o755); err != nil {
			formatter.Error("E001", err.Error(), nil)
			return WrapExitError(ExitCommandError, "creating output directory", err)
		}
	}

	eval, closeStore, err := newEvaluator(opts)
	if err != nil {
		formatter.Error("E201", err.Error(), nil)
		return err
	}
	defer closeStore()

	session := uuid.NewString()
	workers := renderOpts.Workers
	if workers < 1 {
		workers = 1
	}
	formatter.VerboseLog("render session %s: %s/%s frames %d..%d, %d worker(s)",
		session, p.Name, compID, start, end, workers)

	var (
		mu    sync.Mutex
		diags []engine.Diagnostic
	)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(workers)
	for frame := start; frame <= end; frame++ {
		frame := frame
		g.Go(func() error {
			state, frameDiags, err := eval.EvaluateComp(ctx, frame, p, compID, audio)
			if err != nil {
				return fmt.Errorf("frame %d: %w", frame, err)
			}
			if len(frameDiags) > 0 {
				mu.Lock()
				diags = append(diags, frameDiags...)
				mu.Unlock()
			}
			if renderOpts.OutDir == "" {
				return nil
			}
			data, err := json.MarshalIndent(state, "", "  ")
			if err != nil {
				return fmt.Errorf("frame %d: encoding state: %w", frame, err)
			}
			out := filepath.Join(renderOpts.OutDir, fmt.Sprintf("frame_%05d.json", frame))
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("frame %d: %w", frame, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		formatter.Error("E104", err.Error(), nil)
		return WrapExitError(ExitFailure, "rendering", err)
	}

	result := RenderResult{
		Session:     session,
		Comp:        compID,
		Start:       start,
		End:         end,
		Frames:      end - start + 1,
		OutDir:      renderOpts.OutDir,
		Diagnostics: dedupeDiagnostics(diags),
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	text := fmt.Sprintf("Rendered %d frame(s) of %s (session %s)", result.Frames, result.Comp, result.Session)
	for _, d := range result.Diagnostics {
		text += "\n  " + d.String()
	}
	return formatter.Success(text)
}

// dedupeDiagnostics collapses the per-frame diagnostic stream: a broken
// expression repeats on every frame, one report is enough. Order is made
// deterministic because workers finish in arbitrary order.
func dedupeDiagnostics(diags []engine.Diagnostic) []engine.Diagnostic {
	seen := make(map[engine.Diagnostic]struct{}, len(diags))
	var out []engine.Diagnostic
	for _, d := range diags {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
