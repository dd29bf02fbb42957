package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test: a graph to compile, a scripted
// frame sequence to execute, and assertions over the resulting traces.
type Scenario struct {
	// Name uniquely identifies this scenario. Doubles as the golden file
	// name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Graph is the path to the CUE graph document, relative to the
	// scenario file unless absolute.
	Graph string `yaml:"graph"`

	// SessionToken is an optional fixed token for deterministic traces.
	// If empty, defaults to "test-session-default".
	SessionToken string `yaml:"session_token,omitempty"`

	// Frames is the scripted frame sequence.
	Frames []FrameStep `yaml:"frames"`

	// Assertions validate the executed frames.
	Assertions []Assertion `yaml:"assertions"`
}

// FrameStep drives one frame: optional channel staging, then execution at
// an absolute timeline position.
type FrameStep struct {
	// AtMs is the absolute time the frame executes at.
	AtMs float64 `yaml:"at_ms"`

	// Stage holds channel values to stage before the frame. Keys are
	// channel names, values are component lists.
	Stage map[string][]float64 `yaml:"stage,omitempty"`
}

// Assertion validates one aspect of the executed frames.
type Assertion struct {
	// Type selects the check: pass_count, element_near, time_field,
	// or deterministic.
	Type string `yaml:"type"`

	// Frame is the zero-based index into the scenario's frame list.
	Frame int `yaml:"frame,omitempty"`

	// Pass names the render pass (pass_count, element_near).
	Pass string `yaml:"pass,omitempty"`

	// Count is the expected element count (pass_count).
	Count int `yaml:"count,omitempty"`

	// Element is the element index (element_near).
	Element int `yaml:"element,omitempty"`

	// Values are the expected position components (element_near).
	Values []float64 `yaml:"values,omitempty"`

	// Field names the time quantity (time_field): abs_ms, phase,
	// progress, wrap, or energy.
	Field string `yaml:"field,omitempty"`

	// Value is the expected time quantity (time_field).
	Value float64 `yaml:"value,omitempty"`

	// Tolerance is the permitted absolute difference for float
	// comparisons. Zero means the default of 1e-9.
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// Assertion type constants.
const (
	AssertPassCount     = "pass_count"
	AssertElementNear   = "element_near"
	AssertTimeField     = "time_field"
	AssertDeterministic = "deterministic"
)

// timeFields are the snapshot keys time_field may reference.
var timeFields = map[string]bool{
	"abs_ms":   true,
	"phase":    true,
	"progress": true,
	"wrap":     true,
	"energy":   true,
}

// LoadScenario reads and parses a scenario YAML file. The graph path is
// resolved relative to the scenario file's directory. Returns an error if
// the file is malformed, contains unknown fields (typos), or is missing
// required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Graph != "" && !filepath.IsAbs(scenario.Graph) {
		scenario.Graph = filepath.Join(filepath.Dir(path), scenario.Graph)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Graph == "" {
		return fmt.Errorf("graph is required")
	}
	if _, err := os.Stat(s.Graph); os.IsNotExist(err) {
		return fmt.Errorf("graph file not found: %s", s.Graph)
	}

	if len(s.Frames) == 0 {
		return fmt.Errorf("frames list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, len(s.Frames)); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, frameCount int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Frame < 0 || a.Frame >= frameCount {
		return fmt.Errorf("assertions[%d]: frame %d out of range (%d frames)", index, a.Frame, frameCount)
	}
	if a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
	}

	switch a.Type {
	case AssertPassCount:
		if a.Pass == "" {
			return fmt.Errorf("assertions[%d]: pass is required for pass_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for pass_count", index)
		}
	case AssertElementNear:
		if a.Pass == "" {
			return fmt.Errorf("assertions[%d]: pass is required for element_near", index)
		}
		if a.Element < 0 {
			return fmt.Errorf("assertions[%d]: element must be non-negative for element_near", index)
		}
		if len(a.Values) == 0 {
			return fmt.Errorf("assertions[%d]: values list is required for element_near", index)
		}
	case AssertTimeField:
		if !timeFields[a.Field] {
			return fmt.Errorf("assertions[%d]: unknown time field %q for time_field", index, a.Field)
		}
	case AssertDeterministic:
		// No extra fields.
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
