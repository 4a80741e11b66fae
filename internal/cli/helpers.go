package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/latticefx/motion/internal/engine"
	"github.com/latticefx/motion/internal/model"
	"github.com/latticefx/motion/internal/project"
	"github.com/latticefx/motion/internal/store"
)

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// loadProject loads a project document, mapping load failures onto the
// command error exit code.
func loadProject(path string, formatter *OutputFormatter) (*model.Project, error) {
	p, err := project.Load(path)
	if err != nil {
		var le *project.LoadError
		if errors.As(err, &le) {
			formatter.Error(le.Code, le.Error(), nil)
			return nil, NewExitError(ExitCommandError, le.Error())
		}
		formatter.Error("E001", err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "loading project", err)
	}
	return p, nil
}

// newEvaluator builds an evaluator, backed by the durable checkpoint store
// when --checkpoint-db is set. The returned closer is a no-op for the
// in-memory case.
func newEvaluator(opts *RootOptions) (*engine.Evaluator, func() error, error) {
	if opts.CheckpointDB == "" {
		return engine.New(), func() error { return nil }, nil
	}
	s, err := store.Open(opts.CheckpointDB)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "opening checkpoint store", err)
	}
	return engine.New(engine.WithCheckpointCache(s)), s.Close, nil
}

// loadAudio loads optional audio features. Empty path means no audio.
func loadAudio(path string) (*model.AudioFeatures, error) {
	if path == "" {
		return nil, nil
	}
	audio, err := project.LoadAudio(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading audio features", err)
	}
	return audio, nil
}
