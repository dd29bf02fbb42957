// Package harness provides conformance testing for compiled animations.
//
// The harness loads a graph document, compiles it, drives the runtime
// through a scripted sequence of frames, and validates the resulting
// frame traces.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	graph: graphs/ring.cue
//	frames:
//	  - at_ms: 0
//	  - at_ms: 500
//	    stage:
//	      level: [0.5]
//	assertions:
//	  - type: pass_count
//	    pass: points
//	    frame: 0
//	    count: 8
//	  - type: element_near
//	    pass: points
//	    frame: 1
//	    element: 2
//	    values: [100, 0]
//	  - type: time_field
//	    frame: 1
//	    field: phase
//	    value: 0.25
//	  - type: deterministic
//
// # Assertion Types
//
//   - pass_count: a render pass draws exactly N elements on a frame
//   - element_near: one element's position components match within tolerance
//   - time_field: a resolved time quantity matches on a frame
//   - deterministic: a fresh run of the whole scenario reproduces every
//     frame's trace hash
//
// # Deterministic Testing
//
// Scenarios execute with a fixed session token and the logical frame
// clock, so identical scenarios produce identical traces across runs.
// Golden snapshots (RunWithGolden) serialize frame traces with canonical
// JSON and compare them with goldie; regenerate with:
//
//	go test ./internal/harness -update
package harness
