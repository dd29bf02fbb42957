package harness

import (
	"fmt"
	"math"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

// defaultTolerance bounds float comparisons when a scenario does not set
// its own.
const defaultTolerance = 1e-9

// AssertionError reports one failed assertion with enough context to find
// it in the scenario file.
type AssertionError struct {
	Index   int
	Type    string
	Message string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion[%d] %s: %s", e.Index, e.Type, e.Message)
}

// assertPassCount verifies a render pass drew exactly the expected number
// of elements on one frame.
func assertPassCount(frames []FrameTrace, a Assertion) error {
	pass, err := findPass(frames, a.Frame, a.Pass)
	if err != nil {
		return err
	}
	count, err := snapshotNumber(pass, "count")
	if err != nil {
		return err
	}
	if int(count) != a.Count {
		return fmt.Errorf("pass %q drew %d elements, expected %d", a.Pass, int(count), a.Count)
	}
	return nil
}

// assertElementNear verifies one element's position components on one
// frame, within tolerance.
func assertElementNear(frames []FrameTrace, a Assertion) error {
	pass, err := findPass(frames, a.Frame, a.Pass)
	if err != nil {
		return err
	}

	positions, err := snapshotList(pass, "positions")
	if err != nil {
		return err
	}
	count, err := snapshotNumber(pass, "count")
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("pass %q is empty", a.Pass)
	}

	stride := len(positions) / int(count)
	if a.Element >= int(count) {
		return fmt.Errorf("element %d out of range (pass %q has %d)", a.Element, a.Pass, int(count))
	}
	if len(a.Values) > stride {
		return fmt.Errorf("expected %d components, positions have stride %d", len(a.Values), stride)
	}

	tol := a.Tolerance
	if tol == 0 {
		tol = defaultTolerance
	}
	base := a.Element * stride
	for i, want := range a.Values {
		got, err := listNumber(positions, base+i)
		if err != nil {
			return err
		}
		if math.Abs(got-want) > tol {
			return fmt.Errorf("element %d component %d: got %g, expected %g (tolerance %g)",
				a.Element, i, got, want, tol)
		}
	}
	return nil
}

// assertTimeField verifies a resolved time quantity on one frame.
func assertTimeField(frames []FrameTrace, a Assertion) error {
	got, err := snapshotNumber(frames[a.Frame].Snapshot, a.Field)
	if err != nil {
		return err
	}
	tol := a.Tolerance
	if tol == 0 {
		tol = defaultTolerance
	}
	if math.Abs(got-a.Value) > tol {
		return fmt.Errorf("%s = %g, expected %g (tolerance %g)", a.Field, got, a.Value, tol)
	}
	return nil
}

// findPass locates a named render pass inside one frame's trace.
func findPass(frames []FrameTrace, frame int, name string) (ir.Dict, error) {
	passes, err := snapshotList(frames[frame].Snapshot, "passes")
	if err != nil {
		return nil, err
	}
	for _, entry := range passes {
		pass, ok := entry.(ir.Dict)
		if !ok {
			return nil, fmt.Errorf("malformed pass entry %T in trace", entry)
		}
		if n, _ := pass["name"].(ir.String); string(n) == name {
			return pass, nil
		}
	}
	return nil, fmt.Errorf("frame %d has no render pass %q", frame, name)
}

func snapshotNumber(d ir.Dict, key string) (float64, error) {
	n, ok := d[key].(ir.Number)
	if !ok {
		return 0, fmt.Errorf("trace field %q is %T, expected number", key, d[key])
	}
	return float64(n), nil
}

func snapshotList(d ir.Dict, key string) (ir.List, error) {
	l, ok := d[key].(ir.List)
	if !ok {
		return nil, fmt.Errorf("trace field %q is %T, expected list", key, d[key])
	}
	return l, nil
}

func listNumber(l ir.List, idx int) (float64, error) {
	if idx >= len(l) {
		return 0, fmt.Errorf("trace list index %d out of range (%d values)", idx, len(l))
	}
	n, ok := l[idx].(ir.Number)
	if !ok {
		return 0, fmt.Errorf("trace list value %d is %T, expected number", idx, l[idx])
	}
	return float64(n), nil
}
