package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoScenario(t *testing.T) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "linked_opacity.yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_PassingScenario(t *testing.T) {
	result, err := Run(demoScenario(t))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Frames, 3)
	assert.Equal(t, 25, result.Frames[1].Frame)
	assert.Equal(t, "main", result.Frames[1].State.CompID)
}

func TestRun_FailedAssertionDoesNotError(t *testing.T) {
	s := demoScenario(t)
	s.Assertions = append(s.Assertions, Assertion{
		Type:     AssertPropertyValue,
		Frame:    25,
		Layer:    "bg",
		Property: "opacity",
		Value:    []float64{99},
	})

	result, err := Run(s)
	require.NoError(t, err, "assertion failures land in the result, not the error")
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "property_value at frame 25")
}

func TestRun_ScrubDoesNotChangeResults(t *testing.T) {
	scrubbed := demoScenario(t)

	plain := demoScenario(t)
	plain.Scrub = nil

	a, err := Run(scrubbed)
	require.NoError(t, err)
	b, err := Run(plain)
	require.NoError(t, err)

	require.Len(t, b.Frames, len(a.Frames))
	for i := range a.Frames {
		assert.Equal(t, a.Frames[i].State, b.Frames[i].State,
			"frame %d differs with scrub warm-up", a.Frames[i].Frame)
	}
}

func TestRun_MissingProjectErrors(t *testing.T) {
	s := demoScenario(t)
	s.Project = filepath.Join(t.TempDir(), "gone.yaml")

	_, err := Run(s)
	require.Error(t, err)
}

func TestRun_UnknownCompErrors(t *testing.T) {
	s := demoScenario(t)
	s.Comp = "nope"

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}
