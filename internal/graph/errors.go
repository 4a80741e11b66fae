package graph

import (
	"errors"
	"strings"

	"github.com/latticefx/motion/internal/model"
)

// CycleError reports a property-link cycle. A cycle is fatal for the whole
// evaluation: no topological order exists, so no dependent value is
// trustworthy.
//
// Path is closed (the first property appears again at the end), so a
// two-property cycle renders as "A -> B -> A".
type CycleError struct {
	Path []model.PropertyPath
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, p := range e.Path {
		parts[i] = p.String()
	}
	return "property link cycle: " + strings.Join(parts, " -> ")
}

// IsCycleError reports whether err is (or wraps) a CycleError.
func IsCycleError(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}
