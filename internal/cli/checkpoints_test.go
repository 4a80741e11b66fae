package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticefx/motion/internal/store"
)

// populateCheckpoints runs an eval against a fresh store and returns the
// database path.
func populateCheckpoints(t *testing.T) string {
	t.Helper()
	path := writeProject(t, demoProjectYAML)
	db := filepath.Join(t.TempDir(), "checkpoints.db")

	cmd := NewEvalCommand(&RootOptions{Format: "json", CheckpointDB: db})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{path, "--frame", "40"})
	require.NoError(t, cmd.Execute())
	return db
}

func TestCheckpoints_List(t *testing.T) {
	db := populateCheckpoints(t)

	buf := &bytes.Buffer{}
	cmd := NewCheckpointsCommand(&RootOptions{Format: "json", CheckpointDB: db})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"list"})

	require.NoError(t, cmd.Execute())

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var summaries []store.CheckpointSummary
	require.NoError(t, json.Unmarshal(data, &summaries))
	require.Len(t, summaries, 1, "one particle config in the demo project")
	assert.NotEmpty(t, summaries[0].ConfigHash)
	assert.Equal(t, 4, summaries[0].Count, "interval 10, frame 40: checkpoints at 10, 20, 30, 40")
	assert.Equal(t, 10, summaries[0].MinFrame)
	assert.Equal(t, 40, summaries[0].MaxFrame)
}

func TestCheckpoints_Prune(t *testing.T) {
	db := populateCheckpoints(t)

	list := func() []store.CheckpointSummary {
		buf := &bytes.Buffer{}
		cmd := NewCheckpointsCommand(&RootOptions{Format: "json", CheckpointDB: db})
		cmd.SetOut(buf)
		cmd.SetArgs([]string{"list"})
		require.NoError(t, cmd.Execute())

		var resp Response
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		data, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		var summaries []store.CheckpointSummary
		require.NoError(t, json.Unmarshal(data, &summaries))
		return summaries
	}

	before := list()
	require.Len(t, before, 1)

	buf := &bytes.Buffer{}
	cmd := NewCheckpointsCommand(&RootOptions{Format: "json", CheckpointDB: db})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"prune", before[0].ConfigHash})
	require.NoError(t, cmd.Execute())

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)

	assert.Empty(t, list(), "all rows for the hash are gone")
}

func TestCheckpoints_RequiresDatabaseFlag(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCheckpointsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"list"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "--checkpoint-db")
}

func TestCheckpoints_PruneUnknownHashIsZero(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	buf := &bytes.Buffer{}
	cmd := NewCheckpointsCommand(&RootOptions{Format: "text", CheckpointDB: db})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"prune", "deadbeef"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Pruned 0 checkpoint(s)")
}
