package particles

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid particle system configuration. It is
// raised at construction/validation time, never mid-simulation: a config
// that validates will simulate to any frame without further errors.
//
// Fatal for the owning particle layer only; other layers in the frame
// still evaluate.
type ConfigError struct {
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid particle config: %s", e.Reason)
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func configErr(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}
