package engine

import "fmt"

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DiagnosticCode categorizes evaluation diagnostics.
type DiagnosticCode string

const (
	// CodeMissingReference marks a link whose target no longer resolves.
	// The linking property degrades to its default value.
	CodeMissingReference DiagnosticCode = "MISSING_REFERENCE"

	// CodeExpressionRuntime marks a runtime failure inside user expression
	// code. The property degrades to its keyframed value rather than a
	// last-good value: the evaluator carries no cross-frame state, so the
	// fallback is the same whatever frames were evaluated before, in
	// whatever order.
	CodeExpressionRuntime DiagnosticCode = "EXPRESSION_RUNTIME"

	// CodeExpressionTimeout marks an expression that exhausted its step
	// budget. Same fallback as a runtime failure.
	CodeExpressionTimeout DiagnosticCode = "EXPRESSION_TIMEOUT"

	// CodeExpressionParse marks an expression that does not parse.
	CodeExpressionParse DiagnosticCode = "EXPRESSION_PARSE"

	// CodeParticleConfigInvalid marks a particle layer whose config failed
	// validation. That layer evaluates with no particles; others proceed.
	CodeParticleConfigInvalid DiagnosticCode = "PARTICLE_CONFIG_INVALID"
)

// Diagnostic is one recoverable problem found while evaluating a frame.
// Diagnostics ride alongside the FrameState; they are never thrown.
type Diagnostic struct {
	Severity Severity       `json:"severity"`
	Code     DiagnosticCode `json:"code"`

	// Property is the affected property path, when the problem is
	// property-scoped ("comp/layer/property").
	Property string `json:"property,omitempty"`

	// LayerID is the affected layer, when the problem is layer-scoped.
	LayerID string `json:"layer_id,omitempty"`

	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	scope := d.Property
	if scope == "" {
		scope = d.LayerID
	}
	if scope == "" {
		return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s %s [%s]: %s", d.Severity, d.Code, scope, d.Message)
}
