package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracePrintsFrames(t *testing.T) {
	dbPath := archiveRun(t, "trace-1", "4")

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", dbPath, "--session", "trace-1")
	require.NoError(t, err)

	assert.Contains(t, out, "session trace-1")
	assert.Contains(t, out, "4 frame(s)")
}

func TestTraceLimit(t *testing.T) {
	dbPath := archiveRun(t, "trace-limit", "6")

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", dbPath, "--session", "trace-limit", "--limit", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "6 frame(s)")
	assert.Contains(t, out, "... 4 more")
}

func TestTraceSeqRange(t *testing.T) {
	dbPath := archiveRun(t, "trace-range", "8")

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "json"}),
		"--db", dbPath, "--session", "trace-range", "--from-seq", "3", "--to-seq", "5")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(3), data["total"])

	frames, ok := data["frames"].([]any)
	require.True(t, ok)
	require.Len(t, frames, 3)
	assert.Equal(t, float64(3), frames[0].(map[string]any)["seq"])
	assert.Equal(t, float64(5), frames[2].(map[string]any)["seq"])
}

func TestTraceOpenEndedRange(t *testing.T) {
	dbPath := archiveRun(t, "trace-open", "5")

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", dbPath, "--session", "trace-open", "--from-seq", "4")
	require.NoError(t, err)

	assert.Contains(t, out, "2 frame(s)")
}

func TestTraceJSON(t *testing.T) {
	dbPath := archiveRun(t, "trace-json", "3")

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "json"}),
		"--db", dbPath, "--session", "trace-json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "trace-json", data["session"])
	assert.Equal(t, float64(3), data["total"])
	frames, ok := data["frames"].([]any)
	require.True(t, ok)
	require.Len(t, frames, 3)
	first := frames[0].(map[string]any)
	assert.Equal(t, float64(1), first["seq"])
	assert.NotEmpty(t, first["trace_hash"])
}

func TestTraceUnknownSession(t *testing.T) {
	dbPath := archiveRun(t, "trace-known", "1")

	_, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", dbPath, "--session", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceMissingDatabaseDirectory(t *testing.T) {
	_, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", filepath.Join(t.TempDir(), "missing", "nested.db"), "--session", "x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
