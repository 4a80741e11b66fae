package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/latticefx/motion/internal/store"
)

// NewCheckpointsCommand creates the checkpoints command group.
func NewCheckpointsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "Inspect and maintain the durable checkpoint store",
		Long: `Checkpoints manages the SQLite store of particle simulation snapshots.
Rows are keyed by the particle config hash, so a config edit strands its
old rows; prune removes them. Requires --checkpoint-db.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newCheckpointsListCommand(opts))
	cmd.AddCommand(newCheckpointsPruneCommand(opts))

	return cmd
}

func newCheckpointsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List stored checkpoints grouped by config hash",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts, cmd)

			s, err := openCheckpointStore(opts, formatter)
			if err != nil {
				return err
			}
			defer s.Close()

			summaries, err := s.ListCheckpoints(cmd.Context())
			if err != nil {
				formatter.Error("E201", err.Error(), nil)
				return WrapExitError(ExitFailure, "listing checkpoints", err)
			}

			if formatter.Format == "json" {
				if summaries == nil {
					summaries = []store.CheckpointSummary{}
				}
				return formatter.Success(summaries)
			}

			if len(summaries) == 0 {
				return formatter.Success("No checkpoints stored.")
			}
			var b strings.Builder
			fmt.Fprintf(&b, "%d config hash(es):", len(summaries))
			for _, cs := range summaries {
				fmt.Fprintf(&b, "\n  %s  %d row(s), frames %d..%d, %d bytes",
					cs.ConfigHash, cs.Count, cs.MinFrame, cs.MaxFrame, cs.Bytes)
			}
			return formatter.Success(b.String())
		},
	}
}

func newCheckpointsPruneCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "prune <config-hash>",
		Short:         "Delete all checkpoints for a config hash",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts, cmd)

			s, err := openCheckpointStore(opts, formatter)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.PruneCheckpoints(cmd.Context(), args[0])
			if err != nil {
				formatter.Error("E201", err.Error(), nil)
				return WrapExitError(ExitFailure, "pruning checkpoints", err)
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]any{
					"config_hash": args[0],
					"pruned":      n,
				})
			}
			return formatter.Success(fmt.Sprintf("Pruned %d checkpoint(s) for %s.", n, args[0]))
		},
	}
}

func openCheckpointStore(opts *RootOptions, formatter *OutputFormatter) (*store.Store, error) {
	if opts.CheckpointDB == "" {
		msg := "checkpoints requires --checkpoint-db"
		formatter.Error("E201", msg, nil)
		return nil, NewExitError(ExitCommandError, msg)
	}
	s, err := store.Open(opts.CheckpointDB)
	if err != nil {
		formatter.Error("E201", err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "opening checkpoint store", err)
	}
	return s, nil
}
