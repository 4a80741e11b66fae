package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ResolvesRelativePaths(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "linked_opacity.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "linked_opacity", s.Name)
	assert.NotEmpty(t, s.Description)
	assert.Equal(t, filepath.Join("testdata", "projects", "demo.yaml"), s.Project)
	assert.Equal(t, []int{0, 25, 50}, s.Frames)
	assert.Equal(t, []int{50, 10}, s.Scrub)
	assert.Len(t, s.Assertions, 6)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadScenario_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{nope"), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing scenario")
}

func TestScenarioValidate(t *testing.T) {
	base := func() *Scenario {
		return &Scenario{
			Name:    "ok",
			Project: "demo.yaml",
			Frames:  []int{0, 10},
			Assertions: []Assertion{
				{Type: AssertLayerVisible, Frame: 10, Layer: "a", Visible: true},
			},
		}
	}
	require.NoError(t, base().Validate())

	cases := map[string]func(*Scenario){
		"no name":              func(s *Scenario) { s.Name = "" },
		"no project":           func(s *Scenario) { s.Project = "" },
		"no frames":            func(s *Scenario) { s.Frames = nil },
		"negative frame":       func(s *Scenario) { s.Frames = []int{-1} },
		"unrecorded frame":     func(s *Scenario) { s.Assertions[0].Frame = 99 },
		"unknown type":         func(s *Scenario) { s.Assertions[0].Type = "trace_contains" },
		"visible needs layer":  func(s *Scenario) { s.Assertions[0].Layer = "" },
		"value needs property": func(s *Scenario) { s.Assertions[0] = Assertion{Type: AssertPropertyValue, Frame: 10, Layer: "a"} },
		"value needs value":    func(s *Scenario) { s.Assertions[0] = Assertion{Type: AssertPropertyValue, Frame: 10, Layer: "a", Property: "opacity"} },
		"diagnostic needs code": func(s *Scenario) {
			s.Assertions[0] = Assertion{Type: AssertDiagnostic, Frame: 10}
		},
	}
	for name, mutate := range cases {
		s := base()
		mutate(s)
		assert.Error(t, s.Validate(), name)
	}
}
