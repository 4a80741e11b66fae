package harness

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: a project document, the frames
// to evaluate, and the assertions that must hold on the results.
type Scenario struct {
	// Name uniquely identifies the scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Project is the project document path, relative to the scenario file.
	Project string `yaml:"project"`

	// Comp selects the composition. Empty means the first composition.
	Comp string `yaml:"comp,omitempty"`

	// Audio is an optional audio feature file, relative to the scenario file.
	Audio string `yaml:"audio,omitempty"`

	// Frames lists the frames to evaluate and record, in order.
	Frames []int `yaml:"frames"`

	// Scrub lists warm-up frames evaluated before the recorded ones. Their
	// results are discarded; purity guarantees they change nothing.
	Scrub []int `yaml:"scrub,omitempty"`

	// Assertions validate the recorded frame states.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Assertion is one declarative check against a recorded frame.
type Assertion struct {
	// Type selects the check: property_value, layer_visible,
	// particle_count, or diagnostic.
	Type string `yaml:"type"`

	// Frame is the recorded frame the assertion applies to. It must appear
	// in the scenario's frames list.
	Frame int `yaml:"frame"`

	// Layer scopes the assertion to one layer (all types except diagnostic,
	// where it is optional).
	Layer string `yaml:"layer,omitempty"`

	// Property names the resolved value to check (property_value).
	Property string `yaml:"property,omitempty"`

	// Value holds the expected components (property_value). A scalar is a
	// one-element list.
	Value []float64 `yaml:"value,omitempty"`

	// Tolerance is the per-component comparison tolerance (property_value).
	// Zero means exact.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Visible is the expected visibility (layer_visible).
	Visible bool `yaml:"visible"`

	// Count is the expected particle count (particle_count).
	Count int `yaml:"count"`

	// Code is the expected diagnostic code (diagnostic).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertPropertyValue = "property_value"
	AssertLayerVisible  = "layer_visible"
	AssertParticleCount = "particle_count"
	AssertDiagnostic    = "diagnostic"
)

// LoadScenario reads and validates a scenario file. The project and audio
// paths are resolved relative to the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if s.Project != "" && !filepath.IsAbs(s.Project) {
		s.Project = filepath.Join(dir, s.Project)
	}
	if s.Audio != "" && !filepath.IsAbs(s.Audio) {
		s.Audio = filepath.Join(dir, s.Audio)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks structural requirements before execution.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if s.Project == "" {
		return fmt.Errorf("scenario %q has no project", s.Name)
	}
	if len(s.Frames) == 0 {
		return fmt.Errorf("scenario %q evaluates no frames", s.Name)
	}

	recorded := make(map[int]bool, len(s.Frames))
	for _, f := range s.Frames {
		if f < 0 {
			return fmt.Errorf("scenario %q: negative frame %d", s.Name, f)
		}
		recorded[f] = true
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, recorded); err != nil {
			return fmt.Errorf("scenario %q: assertion %d: %w", s.Name, i, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion, recorded map[int]bool) error {
	if !recorded[a.Frame] {
		return fmt.Errorf("frame %d is not in the frames list", a.Frame)
	}
	switch a.Type {
	case AssertPropertyValue:
		if a.Layer == "" || a.Property == "" {
			return fmt.Errorf("property_value needs layer and property")
		}
		if len(a.Value) == 0 {
			return fmt.Errorf("property_value needs an expected value")
		}
	case AssertLayerVisible:
		if a.Layer == "" {
			return fmt.Errorf("layer_visible needs a layer")
		}
	case AssertParticleCount:
		if a.Layer == "" {
			return fmt.Errorf("particle_count needs a layer")
		}
	case AssertDiagnostic:
		if a.Code == "" {
			return fmt.Errorf("diagnostic needs a code")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
