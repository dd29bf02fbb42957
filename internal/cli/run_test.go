package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// archiveRun executes a short run into a fresh database and returns the
// database path.
func archiveRun(t *testing.T, session string, frames string) string {
	t.Helper()
	graphPath := writeTestGraph(t, validGraphSource)
	dbPath := filepath.Join(t.TempDir(), "kinetic.db")

	_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		graphPath, "--db", dbPath, "--session", session, "--frames", frames)
	require.NoError(t, err)
	return dbPath
}

func TestRunWithoutArchive(t *testing.T) {
	graphPath := writeTestGraph(t, validGraphSource)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		graphPath, "--frames", "3", "--session", "run-plain")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Executed 3 frame(s)")
	assert.Contains(t, out, "session: run-plain")
	assert.Contains(t, out, "last trace: ")
	assert.NotContains(t, out, "archived")
}

func TestRunArchivesSession(t *testing.T) {
	dbPath := archiveRun(t, "run-archived", "5")

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}),
		"--db", dbPath, "--session", "run-archived")
	require.NoError(t, err)
	assert.Contains(t, out, "5 frame(s)")
}

func TestRunJSONSummary(t *testing.T) {
	graphPath := writeTestGraph(t, validGraphSource)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}),
		graphPath, "--frames", "2", "--session", "run-json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "run-json", data["session"])
	assert.Equal(t, float64(2), data["frames"])
	assert.Equal(t, false, data["archived"])
	assert.NotEmpty(t, data["last_trace"])
}

func TestRunGeneratedToken(t *testing.T) {
	graphPath := writeTestGraph(t, validGraphSource)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}),
		graphPath, "--frames", "1")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data := resp.Data.(map[string]any)
	assert.NotEmpty(t, data["session"])
}

func TestRunRejectsBadFlags(t *testing.T) {
	graphPath := writeTestGraph(t, validGraphSource)

	_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		graphPath, "--frames", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		graphPath, "--fps", "-30")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunInvalidGraph(t *testing.T) {
	graphPath := writeTestGraph(t, invalidGraphSource)

	_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		graphPath, "--frames", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
