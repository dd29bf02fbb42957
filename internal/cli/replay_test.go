package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinetic-lang/kinetic/internal/store"
)

func TestReplayVerifiesArchivedRun(t *testing.T) {
	dbPath := archiveRun(t, "replay-ok", "5")

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}),
		"--db", dbPath, "--session", "replay-ok")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Replay verified: 5 frame(s) matched")
	assert.Contains(t, out, "session: replay-ok")
}

func TestReplayJSON(t *testing.T) {
	dbPath := archiveRun(t, "replay-json", "3")

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "json"}),
		"--db", dbPath, "--session", "replay-json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["verified"])
	assert.Equal(t, float64(3), data["frames_checked"])
}

func TestReplayReportsDivergence(t *testing.T) {
	dbPath := archiveRun(t, "replay-bad", "3")

	// Tamper with one archived hash so the re-execution cannot match.
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	_, err = st.DB().ExecContext(context.Background(),
		`UPDATE frames SET trace_hash = 'tampered' WHERE session_token = 'replay-bad' AND seq = 2`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}),
		"--db", dbPath, "--session", "replay-bad")
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Replay diverged on 1 of 3 frame(s)")
	assert.Contains(t, out, "archived tampered")
}

func TestReplayUnknownSession(t *testing.T) {
	dbPath := archiveRun(t, "replay-known", "1")

	_, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}),
		"--db", dbPath, "--session", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
