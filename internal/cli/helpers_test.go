package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const validGraphSource = `graph: {
	name: "cli_test"
	blocks: {
		t: {type: "time.root", params: {mode: "cyclic", period_ms: 2000}}
		p: {type: "field.particles", params: {count: 3}}
		c: {type: "const.vec2", params: {value: [3, 4]}}
		draw: {type: "render.points", params: {name: "points"}}
	}
	edges: [
		{from: "c.out", to: "draw.pos"},
		{from: "p.index", to: "draw.size"},
	]
}
`

// invalidGraphSource has no time-root block and a dangling edge target.
const invalidGraphSource = `graph: {
	name: "broken"
	blocks: {
		c: {type: "const.vec2", params: {value: [1, 2]}}
	}
	edges: [
		{from: "c.out", to: "draw.pos"},
	]
}
`

func writeTestGraph(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.cue")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

// execute runs a command with captured stdout/stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
