package harness

import (
	"fmt"
	"sort"

	"github.com/kinetic-lang/kinetic/internal/blocks"
	"github.com/kinetic-lang/kinetic/internal/compiler"
	"github.com/kinetic-lang/kinetic/internal/engine"
	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// defaultSessionToken keeps traces stable when a scenario does not pin one.
const defaultSessionToken = "test-session-default"

// Run compiles a scenario's graph, drives the runtime through its frame
// script, and evaluates its assertions. Load and compile failures are
// scenario authoring errors and return an error; assertion failures are
// recorded on the Result.
func Run(scenario *Scenario) (*Result, error) {
	doc, err := graph.LoadFile(scenario.Graph)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}

	prog, err := compiler.Compile(doc, blocks.DefaultRegistry())
	if err != nil {
		return nil, fmt.Errorf("compile graph: %w", err)
	}

	result := NewResult()
	result.ProgramHash = prog.Hash

	result.Frames, err = executeFrames(prog, scenario)
	if err != nil {
		return nil, err
	}

	for _, msg := range CheckInvariants(result) {
		result.AddError(msg)
	}
	evaluateAssertions(result, scenario, prog)

	return result, nil
}

// executeFrames runs the scripted frame sequence against a fresh session
// and preserves each frame as a canonical trace.
func executeFrames(prog *ir.Program, scenario *Scenario) ([]FrameTrace, error) {
	token := scenario.SessionToken
	if token == "" {
		token = defaultSessionToken
	}
	sess := engine.NewSession(prog,
		engine.WithTokenGenerator(engine.NewFixedGenerator(token)))

	traces := make([]FrameTrace, 0, len(scenario.Frames))
	for i, step := range scenario.Frames {
		for _, name := range sortedChannels(step.Stage) {
			sess.Channels().Stage(name, step.Stage[name]...)
		}

		frame, err := sess.ExecuteFrame(step.AtMs)
		if err != nil {
			return nil, fmt.Errorf("frame %d (at %gms): %w", i, step.AtMs, err)
		}

		hash, err := frame.TraceHash()
		if err != nil {
			return nil, fmt.Errorf("frame %d (at %gms): %w", i, step.AtMs, err)
		}

		traces = append(traces, FrameTrace{
			Seq:      frame.Seq,
			AtMs:     step.AtMs,
			Hash:     hash,
			Snapshot: frame.Snapshot(),
		})
	}
	return traces, nil
}

// sortedChannels returns staging keys in stable order.
func sortedChannels(stage map[string][]float64) []string {
	names := make([]string, 0, len(stage))
	for name := range stage {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// evaluateAssertions checks every scenario assertion against the executed
// frames, recording failures on the result.
func evaluateAssertions(result *Result, scenario *Scenario, prog *ir.Program) {
	for i, a := range scenario.Assertions {
		var err error
		switch a.Type {
		case AssertPassCount:
			err = assertPassCount(result.Frames, a)
		case AssertElementNear:
			err = assertElementNear(result.Frames, a)
		case AssertTimeField:
			err = assertTimeField(result.Frames, a)
		case AssertDeterministic:
			err = assertDeterministic(result.Frames, scenario, prog)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			result.AddError((&AssertionError{Index: i, Type: a.Type, Message: err.Error()}).Error())
		}
	}
}

// assertDeterministic re-executes the whole scenario against a fresh
// session and requires every frame's trace hash to match the first run.
func assertDeterministic(frames []FrameTrace, scenario *Scenario, prog *ir.Program) error {
	rerun, err := executeFrames(prog, scenario)
	if err != nil {
		return fmt.Errorf("rerun failed: %w", err)
	}
	for i := range frames {
		if rerun[i].Hash != frames[i].Hash {
			return fmt.Errorf("frame %d diverged between runs: %s vs %s",
				i, frames[i].Hash, rerun[i].Hash)
		}
	}
	return nil
}
