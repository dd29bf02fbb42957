package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"compile", "validate", "run", "trace", "replay", "test"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestRootCommandRejectsInvalidFormat(t *testing.T) {
	graphPath := writeTestGraph(t, validGraphSource)

	cmd := NewRootCommand()
	_, err := execute(t, cmd, "--format", "xml", "validate", graphPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "boom")))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitFailure, GetExitCode(WrapExitError(ExitFailure, "wrapped", assert.AnError)))
}
