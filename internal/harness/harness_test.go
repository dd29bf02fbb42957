package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBroadcastScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/broadcast_points.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.NotEmpty(t, result.ProgramHash)
	require.Len(t, result.Frames, 2)

	assert.Equal(t, int64(1), result.Frames[0].Seq)
	assert.Equal(t, int64(2), result.Frames[1].Seq)
	assert.NotEmpty(t, result.Frames[0].Hash)
	assert.NotEmpty(t, result.Frames[1].Hash)
	// Nothing in the graph reads time, but the trace embeds the resolved
	// time context, so the two frames still hash differently.
	assert.NotEqual(t, result.Frames[0].Hash, result.Frames[1].Hash)
}

func TestRunBroadcastGolden(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/broadcast_points.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunRingWrapScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/ring_wrap.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Frames, 3)
}

func TestRunRecordsAssertionFailures(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_count",
		Description: "expects more elements than the pass draws",
		Graph:       "testdata/graphs/broadcast.cue",
		Frames:      []FrameStep{{AtMs: 0}},
		Assertions: []Assertion{
			{Type: AssertPassCount, Pass: "points", Frame: 0, Count: 5},
			{Type: AssertElementNear, Pass: "nope", Frame: 0, Element: 0, Values: []float64{1}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "assertion[0] pass_count")
	assert.Contains(t, result.Errors[0], "drew 3 elements, expected 5")
	assert.Contains(t, result.Errors[1], "assertion[1] element_near")
	assert.Contains(t, result.Errors[1], `no render pass "nope"`)
}

func TestRunStagesChannels(t *testing.T) {
	scenario := &Scenario{
		Name:        "staged_gain",
		Description: "channel staging lands on the following frame",
		Graph:       "testdata/graphs/broadcast.cue",
		Frames: []FrameStep{
			{AtMs: 0, Stage: map[string][]float64{"gain": {0.5}}},
			{AtMs: 16},
		},
		Assertions: []Assertion{
			{Type: AssertPassCount, Pass: "points", Frame: 1, Count: 3},
			{Type: AssertDeterministic},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunLoadFailure(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing_graph",
		Description: "graph file does not exist",
		Graph:       "testdata/graphs/does_not_exist.cue",
		Frames:      []FrameStep{{AtMs: 0}},
		Assertions:  []Assertion{{Type: AssertDeterministic}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load graph")
}
