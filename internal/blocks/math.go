package blocks

import (
	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// Arithmetic blocks are payload-generic and cardinality-flexible: they apply
// lane-wise over fields and plainly over signals, with signals broadcast
// when mixed. The output type follows the block's instance context.

func mathAddSpec() *graph.BlockSpec {
	return binaryMathSpec("math.add", ir.FnAdd)
}

func mathMulSpec() *graph.BlockSpec {
	return binaryMathSpec("math.mul", ir.FnMul)
}

func binaryMathSpec(tag string, fn ir.PureFunc) *graph.BlockSpec {
	return &graph.BlockSpec{
		Type:           tag,
		GenericPayload: true,
		Inputs: []graph.PortSpec{
			{Name: "a", Type: graph.FlexSignal(ir.PayloadAny, ir.UnitNone), Default: ir.Number(0)},
			{Name: "b", Type: graph.FlexSignal(ir.PayloadAny, ir.UnitNone), Default: ir.Number(0)},
		},
		Outputs: []graph.PortSpec{
			{Name: "out", Type: graph.FlexSignal(ir.PayloadAny, ir.UnitNone)},
		},
		Lower: func(in graph.LowerInput) (graph.LowerResult, error) {
			return lowerBinary(in, fn)
		},
	}
}

// mathSumSpec combines however many writers feed its single input: the port
// declares the sum combine policy, so the linker merges multi-writer wiring
// deterministically before lowering ever runs.
func mathSumSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type:           "math.sum",
		GenericPayload: true,
		Inputs: []graph.PortSpec{
			{Name: "in", Type: graph.FlexSignal(ir.PayloadAny, ir.UnitNone), Default: ir.Number(0), Combine: graph.CombineSum},
		},
		Outputs: []graph.PortSpec{
			{Name: "out", Type: graph.FlexSignal(ir.PayloadAny, ir.UnitNone)},
		},
		Lower: func(in graph.LowerInput) (graph.LowerResult, error) {
			src, err := requireInput(in, "in")
			if err != nil {
				return graph.LowerResult{}, err
			}
			// Pure passthrough: combining already happened at the port.
			return graph.LowerResult{Outputs: map[string]ir.ExprID{"out": src}}, nil
		},
	}
}

func mathScaleSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type:           "math.scale",
		GenericPayload: true,
		Inputs: []graph.PortSpec{
			{Name: "in", Type: graph.FlexSignal(ir.PayloadAny, ir.UnitNone), Default: ir.Number(0)},
			{Name: "factor", Type: graph.FlexSignal(ir.PayloadScalar, ir.UnitNone), Default: ir.Number(1)},
		},
		Outputs: []graph.PortSpec{
			{Name: "out", Type: graph.FlexSignal(ir.PayloadAny, ir.UnitNone)},
		},
		Lower: func(in graph.LowerInput) (graph.LowerResult, error) {
			a, err := requireInput(in, "in")
			if err != nil {
				return graph.LowerResult{}, err
			}
			f, err := requireInput(in, "factor")
			if err != nil {
				return graph.LowerResult{}, err
			}
			e := newEmitter(in)
			out := e.apply(ir.FnScale, mathOutType(in), a, f)
			return graph.LowerResult{Exprs: e.exprs, Outputs: map[string]ir.ExprID{"out": out}}, nil
		},
	}
}

func mathMixSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type:           "math.mix",
		GenericPayload: true,
		Inputs: []graph.PortSpec{
			{Name: "a", Type: graph.FlexSignal(ir.PayloadAny, ir.UnitNone), Default: ir.Number(0)},
			{Name: "b", Type: graph.FlexSignal(ir.PayloadAny, ir.UnitNone), Default: ir.Number(1)},
			{Name: "t", Type: graph.FlexSignal(ir.PayloadScalar, ir.UnitNormalized), Default: ir.Number(0.5)},
		},
		Outputs: []graph.PortSpec{
			{Name: "out", Type: graph.FlexSignal(ir.PayloadAny, ir.UnitNone)},
		},
		Lower: func(in graph.LowerInput) (graph.LowerResult, error) {
			a, err := requireInput(in, "a")
			if err != nil {
				return graph.LowerResult{}, err
			}
			b, err := requireInput(in, "b")
			if err != nil {
				return graph.LowerResult{}, err
			}
			tt, err := requireInput(in, "t")
			if err != nil {
				return graph.LowerResult{}, err
			}
			e := newEmitter(in)
			out := e.apply(ir.FnMix, mathOutType(in), a, b, tt)
			return graph.LowerResult{Exprs: e.exprs, Outputs: map[string]ir.ExprID{"out": out}}, nil
		},
	}
}

// gateSpec passes a value through while an event is firing, zero otherwise.
// The one builtin consumer of event-typed wiring.
func gateSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type:           "math.gate",
		GenericPayload: true,
		Inputs: []graph.PortSpec{
			{Name: "in", Type: graph.FlexSignal(ir.PayloadAny, ir.UnitNone), Default: ir.Number(0)},
			{Name: "event", Type: ir.Event()},
		},
		Outputs: []graph.PortSpec{
			{Name: "out", Type: graph.FlexSignal(ir.PayloadAny, ir.UnitNone)},
		},
		Lower: func(in graph.LowerInput) (graph.LowerResult, error) {
			src, err := requireInput(in, "in")
			if err != nil {
				return graph.LowerResult{}, err
			}
			ev, err := requireInput(in, "event")
			if err != nil {
				return graph.LowerResult{}, err
			}
			e := newEmitter(in)
			out := e.apply(ir.FnGate, mathOutType(in), src, ev)
			return graph.LowerResult{Exprs: e.exprs, Outputs: map[string]ir.ExprID{"out": out}}, nil
		},
	}
}

func lowerBinary(in graph.LowerInput, fn ir.PureFunc) (graph.LowerResult, error) {
	a, err := requireInput(in, "a")
	if err != nil {
		return graph.LowerResult{}, err
	}
	b, err := requireInput(in, "b")
	if err != nil {
		return graph.LowerResult{}, err
	}
	e := newEmitter(in)
	out := e.apply(fn, mathOutType(in), a, b)
	return graph.LowerResult{Exprs: e.exprs, Outputs: map[string]ir.ExprID{"out": out}}, nil
}

// mathOutType derives the output type from the resolved payload and the
// block's instance context: field when any input was a field, else signal.
func mathOutType(in graph.LowerInput) ir.CanonicalType {
	payload := in.Payload
	if payload == "" || payload == ir.PayloadAny {
		payload = ir.PayloadScalar
	}
	if in.Instance != 0 {
		return ir.Field(payload, ir.UnitNone, in.Instance)
	}
	return ir.Signal(payload, ir.UnitNone)
}
