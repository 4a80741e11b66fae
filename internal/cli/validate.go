package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/latticefx/motion/internal/graph"
)

// ValidateResult is the payload of a successful validate run.
type ValidateResult struct {
	Project      string   `json:"project"`
	Compositions int      `json:"compositions"`
	Properties   int      `json:"properties"`
	GraphHash    string   `json:"graph_hash"`
	MissingLinks []string `json:"missing_links,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <project>",
		Short: "Validate a project document and its dependency graph",
		Long: `Validate loads a project document, checks it against the schema, and
builds the property dependency graph. Schema violations and malformed
keyframe tracks fail the load; a link cycle fails the graph build.
Links whose target no longer resolves are reported as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd, args[0])
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command, path string) error {
	formatter := newFormatter(opts, cmd)

	p, err := loadProject(path, formatter)
	if err != nil {
		return err
	}
	formatter.VerboseLog("loaded project %q from %s", p.Name, path)

	g, err := graph.Build(p)
	if err != nil {
		var ce *graph.CycleError
		if errors.As(err, &ce) {
			formatter.Error("E104", err.Error(), cyclePath(ce))
			return NewExitError(ExitFailure, err.Error())
		}
		formatter.Error("E104", err.Error(), nil)
		return WrapExitError(ExitFailure, "building dependency graph", err)
	}

	result := ValidateResult{
		Project:      p.Name,
		Compositions: len(p.Compositions),
		Properties:   g.Len(),
		GraphHash:    g.Hash(),
	}
	for _, ml := range g.MissingLinks() {
		result.MissingLinks = append(result.MissingLinks,
			fmt.Sprintf("%s -> %s", ml.From, ml.Target))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Project %q is valid.\n", result.Project)
	fmt.Fprintf(&b, "  Compositions: %d\n", result.Compositions)
	fmt.Fprintf(&b, "  Properties:   %d\n", result.Properties)
	fmt.Fprintf(&b, "  Graph hash:   %s", result.GraphHash)
	for _, ml := range result.MissingLinks {
		fmt.Fprintf(&b, "\n  Warning: missing link %s", ml)
	}
	return formatter.Success(b.String())
}

func cyclePath(ce *graph.CycleError) []string {
	out := make([]string, len(ce.Path))
	for i, p := range ce.Path {
		out[i] = p.String()
	}
	return out
}
