package engine

import (
	"math"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

// Snapshot converts a frame into the canonical trace form. Floats are
// rounded to nine decimal places before hashing; replay verification
// compares hashes, and full-precision trig output is not portable across
// math library versions.
func (f *Frame) Snapshot() ir.Dict {
	passes := make(ir.List, 0, len(f.Passes))
	for _, p := range f.Passes {
		pd := ir.Dict{
			"name":      ir.String(p.Name),
			"count":     ir.Number(p.Count),
			"positions": bufferList(p.Positions),
			"colors":    bufferList(p.Colors),
		}
		if p.Sizes != nil {
			pd["sizes"] = bufferList(p.Sizes)
		} else {
			pd["size_uniform"] = ir.Number(round9(p.SizeUniform))
		}
		passes = append(passes, pd)
	}

	return ir.Dict{
		"seq":      ir.Number(f.Seq),
		"program":  ir.String(f.ProgramHash),
		"abs_ms":   ir.Number(round9(f.Time.AbsMs)),
		"phase":    ir.Number(round9(f.Time.Phase)),
		"progress": ir.Number(round9(f.Time.Progress)),
		"wrap":     ir.Number(f.Time.Wrap),
		"energy":   ir.Number(f.Time.Energy),
		"passes":   passes,
	}
}

// TraceHash computes the content hash of the frame's canonical snapshot.
func (f *Frame) TraceHash() (string, error) {
	return ir.TraceHash(f.Snapshot())
}

func bufferList(b *Buffer) ir.List {
	out := make(ir.List, len(b.Data))
	for i, v := range b.Data {
		out[i] = ir.Number(round9(v))
	}
	return out
}

func round9(x float64) float64 {
	return math.Round(x*1e9) / 1e9
}
