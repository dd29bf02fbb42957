package harness

import (
	"fmt"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

// CheckInvariants verifies runtime guarantees that must hold for every
// program, independent of scenario assertions:
//
//   - frame sequence numbers strictly increase
//   - energy never decreases, and increases only on a wrap frame
//   - wrap is a 0/1 pulse
//   - every pass buffer length is a whole multiple of its element count
//
// Violations indicate a runtime defect, not a scenario authoring mistake.
func CheckInvariants(result *Result) []string {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, "invariant: "+fmt.Sprintf(format, args...))
	}

	var prevSeq int64
	prevEnergy := 0.0
	for i, ft := range result.Frames {
		if ft.Seq <= prevSeq {
			fail("frame %d: seq %d does not advance past %d", i, ft.Seq, prevSeq)
		}
		prevSeq = ft.Seq

		wrap, err := snapshotNumber(ft.Snapshot, "wrap")
		if err != nil {
			fail("frame %d: %v", i, err)
			continue
		}
		if wrap != 0 && wrap != 1 {
			fail("frame %d: wrap pulse is %g, expected 0 or 1", i, wrap)
		}

		energy, err := snapshotNumber(ft.Snapshot, "energy")
		if err != nil {
			fail("frame %d: %v", i, err)
			continue
		}
		switch {
		case energy < prevEnergy:
			fail("frame %d: energy regressed from %g to %g", i, prevEnergy, energy)
		case energy > prevEnergy && wrap != 1:
			fail("frame %d: energy grew to %g without a wrap pulse", i, energy)
		}
		prevEnergy = energy

		checkPassShapes(i, ft, fail)
	}
	return errs
}

func checkPassShapes(i int, ft FrameTrace, fail func(string, ...any)) {
	passes, err := snapshotList(ft.Snapshot, "passes")
	if err != nil {
		fail("frame %d: %v", i, err)
		return
	}
	for _, entry := range passes {
		pass, ok := entry.(ir.Dict)
		if !ok {
			fail("frame %d: malformed pass entry %T", i, entry)
			continue
		}
		name, _ := pass["name"].(ir.String)
		count, err := snapshotNumber(pass, "count")
		if err != nil {
			fail("frame %d pass %q: %v", i, name, err)
			continue
		}
		for _, key := range []string{"positions", "colors", "sizes"} {
			raw, present := pass[key]
			if !present {
				continue
			}
			buf, ok := raw.(ir.List)
			if !ok {
				fail("frame %d pass %q: %s is %T, expected list", i, name, key, raw)
				continue
			}
			if count == 0 || len(buf)%int(count) != 0 {
				fail("frame %d pass %q: %s holds %d values for %d elements",
					i, name, key, len(buf), int(count))
			}
		}
	}
}
