package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidProject(t *testing.T) {
	path := writeProject(t, demoProjectYAML)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), `Project "demo" is valid.`)
	assert.Contains(t, buf.String(), "Graph hash:")
}

func TestValidate_ValidProjectJSON(t *testing.T) {
	path := writeProject(t, demoProjectYAML)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result ValidateResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "demo", result.Project)
	assert.Equal(t, 1, result.Compositions)
	assert.NotEmpty(t, result.GraphHash)
	assert.Empty(t, result.MissingLinks)
}

func TestValidate_MissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/project.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "E005")
}

func TestValidate_CycleFailsWithExitFailure(t *testing.T) {
	path := writeProject(t, cycleProjectYAML)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "cycle")
}

func TestValidate_DanglingLinkIsWarning(t *testing.T) {
	path := writeProject(t, danglingLinkProjectYAML)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute(), "a dangling link degrades, it does not fail validation")
	assert.Contains(t, buf.String(), "missing link main/a/opacity -> main/gone/opacity")
}
