package project

import (
	"errors"
	"fmt"
)

// Error code constants, unified across load and validation failures.
const (
	ErrCodeNotFound = "E005" // document path not found
	ErrCodeParse    = "E001" // document does not parse
	ErrCodeSchema   = "E006" // document violates the schema

	ErrCodeKeyframeData = "E101" // non-monotonic or malformed keyframes
	ErrCodeLayerKind    = "E102" // unknown layer kind
	ErrCodeReference    = "E103" // malformed link target path
)

// LoadError is a load-time failure. Load-time failures are fatal: a
// document that loads never produces evaluation-time structure errors.
type LoadError struct {
	Code    string
	Path    string // document position, "comp/layer/property" style
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidKeyframe reports whether err is a keyframe data rejection.
func IsInvalidKeyframe(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Code == ErrCodeKeyframeData
}

func loadErr(code, path, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}
