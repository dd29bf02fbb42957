package blocks

import (
	"math"

	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// Oscillator blocks. Each takes a normalized phase (signal or field) and
// produces a waveform scaled by amp and shifted by offset. The cardinality
// axis is variable: wiring a per-particle phase field yields a field output.

func waveSineSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type: "wave.sine",
		Inputs: []graph.PortSpec{
			{Name: "phase", Type: graph.FlexSignal(ir.PayloadScalar, ir.UnitNormalized), Default: ir.Number(0)},
		},
		Outputs: []graph.PortSpec{
			{Name: "out", Type: graph.FlexSignal(ir.PayloadScalar, ir.UnitNone)},
		},
		Lower: lowerWaveSine,
	}
}

func waveSawSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type: "wave.saw",
		Inputs: []graph.PortSpec{
			{Name: "phase", Type: graph.FlexSignal(ir.PayloadScalar, ir.UnitNormalized), Default: ir.Number(0)},
		},
		Outputs: []graph.PortSpec{
			{Name: "out", Type: graph.FlexSignal(ir.PayloadScalar, ir.UnitNone)},
		},
		Lower: func(in graph.LowerInput) (graph.LowerResult, error) {
			return lowerShaped(in, func(e *emitter, phase ir.ExprID, t ir.CanonicalType) ir.ExprID {
				return e.apply(ir.FnSaw, t, phase)
			})
		},
	}
}

func wavePulseSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type: "wave.pulse",
		Inputs: []graph.PortSpec{
			{Name: "phase", Type: graph.FlexSignal(ir.PayloadScalar, ir.UnitNormalized), Default: ir.Number(0)},
		},
		Outputs: []graph.PortSpec{
			{Name: "out", Type: graph.FlexSignal(ir.PayloadScalar, ir.UnitNone)},
		},
		Lower: lowerWavePulse,
	}
}

func lowerWaveSine(in graph.LowerInput) (graph.LowerResult, error) {
	return lowerShaped(in, func(e *emitter, phase ir.ExprID, t ir.CanonicalType) ir.ExprID {
		radType := t
		radType.Unit = ir.UnitRadians
		twoPi := e.constScalar(2*math.Pi, ir.UnitNone)
		rad := e.apply(ir.FnMul, radType, phase, twoPi)
		return e.apply(ir.FnSin, t, rad)
	})
}

func lowerWavePulse(in graph.LowerInput) (graph.LowerResult, error) {
	width, err := paramNumber(in.Params, "width", 0.5)
	if err != nil {
		return graph.LowerResult{}, err
	}
	return lowerShaped(in, func(e *emitter, phase ir.ExprID, t ir.CanonicalType) ir.ExprID {
		w := e.constScalar(width, ir.UnitNormalized)
		return e.apply(ir.FnPulse, t, phase, w)
	})
}

// lowerShaped shares the amp/offset scaffolding across oscillators: the
// shape callback produces the raw waveform, then out = shape*amp + offset.
func lowerShaped(in graph.LowerInput, shape func(e *emitter, phase ir.ExprID, t ir.CanonicalType) ir.ExprID) (graph.LowerResult, error) {
	phase, err := requireInput(in, "phase")
	if err != nil {
		return graph.LowerResult{}, err
	}
	amp, err := paramNumber(in.Params, "amp", 1)
	if err != nil {
		return graph.LowerResult{}, err
	}
	offset, err := paramNumber(in.Params, "offset", 0)
	if err != nil {
		return graph.LowerResult{}, err
	}

	// Output cardinality follows the phase input.
	outType := ir.Signal(ir.PayloadScalar, ir.UnitNone)
	if pt, ok := in.InputTypes["phase"]; ok && pt.TryField() {
		outType = ir.Field(ir.PayloadScalar, ir.UnitNone, pt.Extent.Cardinality.Instance)
	}

	e := newEmitter(in)
	out := shape(e, phase, outType)
	if amp != 1 {
		out = e.apply(ir.FnScale, outType, out, e.constScalar(amp, ir.UnitNone))
	}
	if offset != 0 {
		out = e.apply(ir.FnAdd, outType, out, e.constScalar(offset, ir.UnitNone))
	}

	return graph.LowerResult{Exprs: e.exprs, Outputs: map[string]ir.ExprID{"out": out}}, nil
}
