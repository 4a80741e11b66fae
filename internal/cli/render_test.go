package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticefx/motion/internal/model"
)

func TestRender_WritesFrameFiles(t *testing.T) {
	path := writeProject(t, demoProjectYAML)
	outDir := filepath.Join(t.TempDir(), "frames")

	buf := &bytes.Buffer{}
	cmd := NewRenderCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--start", "0", "--end", "9", "--out", outDir, "--workers", "4"})

	require.NoError(t, cmd.Execute())

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result RenderResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 10, result.Frames)
	_, err = uuid.Parse(result.Session)
	assert.NoError(t, err, "session token is a uuid")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 10)

	raw, err := os.ReadFile(filepath.Join(outDir, "frame_00005.json"))
	require.NoError(t, err)
	var state model.FrameState
	require.NoError(t, json.Unmarshal(raw, &state))
	assert.Equal(t, 5, state.Frame)
	assert.Equal(t, "main", state.CompID)
}

func TestRender_ParallelMatchesSequential(t *testing.T) {
	path := writeProject(t, demoProjectYAML)

	render := func(workers int) map[string]string {
		outDir := filepath.Join(t.TempDir(), "frames")
		cmd := NewRenderCommand(&RootOptions{Format: "json"})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{path,
			"--start", "0", "--end", "19",
			"--out", outDir,
			"--workers", fmt.Sprint(workers),
		})
		require.NoError(t, cmd.Execute())

		frames := map[string]string{}
		entries, err := os.ReadDir(outDir)
		require.NoError(t, err)
		for _, e := range entries {
			raw, err := os.ReadFile(filepath.Join(outDir, e.Name()))
			require.NoError(t, err)
			frames[e.Name()] = string(raw)
		}
		return frames
	}

	assert.Equal(t, render(1), render(8),
		"worker count must not change any frame's bytes")
}

func TestRender_DefaultEndIsCompDuration(t *testing.T) {
	path := writeProject(t, demoProjectYAML)

	buf := &bytes.Buffer{}
	cmd := NewRenderCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result RenderResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 0, result.Start)
	assert.Equal(t, 59, result.End, "demo comp duration is 60 frames")
}

func TestRender_InvalidRangeFails(t *testing.T) {
	path := writeProject(t, demoProjectYAML)

	cmd := NewRenderCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{path, "--start", "10", "--end", "5"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRender_CycleFails(t *testing.T) {
	path := writeProject(t, cycleProjectYAML)

	cmd := NewRenderCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{path, "--end", "3"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
