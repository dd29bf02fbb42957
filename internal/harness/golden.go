package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

// goldenDoc converts a result into the canonical form stored in golden
// files. Frame traces are embedded without their hash or program fields:
// goldens compare the full trace content, and keeping volatile hashes out
// lets small graphs carry hand-checked goldens.
func goldenDoc(scenarioName, sessionToken string, result *Result) ir.Dict {
	frames := make(ir.List, 0, len(result.Frames))
	for _, ft := range result.Frames {
		trace := make(ir.Dict, len(ft.Snapshot))
		for k, v := range ft.Snapshot {
			if k == "program" {
				continue
			}
			trace[k] = v
		}
		frames = append(frames, ir.Dict{
			"at_ms": ir.Number(ft.AtMs),
			"seq":   ir.Number(ft.Seq),
			"trace": trace,
		})
	}

	if sessionToken == "" {
		sessionToken = defaultSessionToken
	}
	return ir.Dict{
		"scenario_name": ir.String(scenarioName),
		"session_token": ir.String(sessionToken),
		"frames":        frames,
	}
}

// RunWithGolden executes a scenario and compares its frame traces against
// the golden file testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if scenario execution fails; trace divergence fails the
// test through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	data, err := ir.MarshalCanonical(goldenDoc(scenario.Name, scenario.SessionToken, result))
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result, nil
}
