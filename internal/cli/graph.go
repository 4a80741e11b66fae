package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/latticefx/motion/internal/graph"
)

// GraphNode describes one property in the inspection output.
type GraphNode struct {
	Path       string `json:"path"`
	Driver     string `json:"driver,omitempty"`
	Mapping    string `json:"mapping,omitempty"`
	Expression string `json:"expression,omitempty"`
}

// GraphResult is the payload of a successful graph run.
type GraphResult struct {
	Project      string      `json:"project"`
	Hash         string      `json:"hash"`
	Order        []GraphNode `json:"order"`
	MissingLinks []string    `json:"missing_links,omitempty"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <project>",
		Short: "Inspect the property dependency graph",
		Long: `Graph builds the project's property dependency graph and prints its
evaluation order: every driver appears before the properties it feeds.
The hash is the graph's structural identity; it changes only when
properties, links, or expressions change, never on a keyframe edit.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, cmd, args[0])
		},
	}
	return cmd
}

func runGraph(opts *RootOptions, cmd *cobra.Command, path string) error {
	formatter := newFormatter(opts, cmd)

	p, err := loadProject(path, formatter)
	if err != nil {
		return err
	}

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

	result := GraphResult{Project: p.Name, Hash: g.Hash()}
	for _, id := range g.Order() {
		n := g.Node(id)
		gn := GraphNode{Path: n.Path.String(), Expression: n.Prop.Expression}
		if src, ok := g.Driver(id); ok {
			gn.Driver = g.Node(src).Path.String()
			gn.Mapping = n.Prop.Link.Mapping
		}
		result.Order = append(result.Order, gn)
	}
	for _, ml := range g.MissingLinks() {
		result.MissingLinks = append(result.MissingLinks,
			fmt.Sprintf("%s -> %s", ml.From, ml.Target))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Graph %s (%d properties)\n", result.Hash, len(result.Order))
	for i, gn := range result.Order {
		fmt.Fprintf(&b, "  %3d. %s", i, gn.Path)
		if gn.Driver != "" {
			fmt.Fprintf(&b, "  <- %s", gn.Driver)
			if gn.Mapping != "" {
				fmt.Fprintf(&b, "  [%s]", gn.Mapping)
			}
		}
		if gn.Expression != "" {
			fmt.Fprintf(&b, "  expr: %s", gn.Expression)
		}
		b.WriteByte('\n')
	}
	for _, ml := range result.MissingLinks {
		fmt.Fprintf(&b, "  Warning: missing link %s\n", ml)
	}
	return formatter.Success(strings.TrimRight(b.String(), "\n"))
}
