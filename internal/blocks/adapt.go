package blocks

import (
	"fmt"
	"math"

	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// Adapter blocks are inserted by normalization when an edge's source type
// does not match its destination port. Every adapter is pure and stateless,
// and transforms extent only through the closed set
// {preserve, broadcast one->many, reduce many->one}.

// AdaptBroadcast is the type tag of the one->many adapter.
const AdaptBroadcast = "adapt.broadcast"

// AdaptReduce is the type tag of the many->one adapter.
const AdaptReduce = "adapt.reduce"

// AdaptRadToNorm / AdaptNormToRad convert scalar angle units (preserve extent).
const (
	AdaptRadToNorm = "adapt.rad2norm"
	AdaptNormToRad = "adapt.norm2rad"
)

func adaptBroadcastSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type:           AdaptBroadcast,
		GenericPayload: true,
		Inputs: []graph.PortSpec{
			{Name: "in", Type: ir.Signal(ir.PayloadAny, ir.UnitNone)},
		},
		Outputs: []graph.PortSpec{
			{Name: "out", Type: graph.FieldOf(ir.PayloadAny, ir.UnitNone)},
		},
		Lower: lowerBroadcast,
	}
}

func lowerBroadcast(in graph.LowerInput) (graph.LowerResult, error) {
	src, err := requireInput(in, "in")
	if err != nil {
		return graph.LowerResult{}, err
	}
	if in.Instance == 0 {
		return graph.LowerResult{}, fmt.Errorf("block %s: broadcast target instance unresolved", in.BlockID)
	}
	srcType, ok := in.InputTypes["in"]
	if !ok {
		return graph.LowerResult{}, fmt.Errorf("block %s: input type missing", in.BlockID)
	}

	outType := ir.Field(srcType.Payload, srcType.Unit, in.Instance)
	e := newEmitter(in)
	// FnFirst over one operand is the identity; only the type changes.
	// The evaluator broadcasts signal operands lane-wise.
	out := e.apply(ir.FnFirst, outType, src)
	return graph.LowerResult{Exprs: e.exprs, Outputs: map[string]ir.ExprID{"out": out}}, nil
}

func adaptReduceSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type:           AdaptReduce,
		GenericPayload: true,
		Inputs: []graph.PortSpec{
			{Name: "in", Type: graph.FieldOf(ir.PayloadAny, ir.UnitNone)},
		},
		Outputs: []graph.PortSpec{
			{Name: "out", Type: ir.Signal(ir.PayloadAny, ir.UnitNone)},
		},
		Lower: lowerReduce,
	}
}

func lowerReduce(in graph.LowerInput) (graph.LowerResult, error) {
	src, err := requireInput(in, "in")
	if err != nil {
		return graph.LowerResult{}, err
	}
	srcType, ok := in.InputTypes["in"]
	if !ok {
		return graph.LowerResult{}, fmt.Errorf("block %s: input type missing", in.BlockID)
	}

	outType := ir.Signal(srcType.Payload, srcType.Unit)
	e := newEmitter(in)
	// FnAvg with a field operand and a signal result averages across lanes.
	out := e.apply(ir.FnAvg, outType, src)
	return graph.LowerResult{Exprs: e.exprs, Outputs: map[string]ir.ExprID{"out": out}}, nil
}

func adaptRadToNormSpec() *graph.BlockSpec {
	return unitAdapterSpec(AdaptRadToNorm, ir.UnitRadians, ir.UnitNormalized, 1/(2*math.Pi))
}

func adaptNormToRadSpec() *graph.BlockSpec {
	return unitAdapterSpec(AdaptNormToRad, ir.UnitNormalized, ir.UnitRadians, 2*math.Pi)
}

func unitAdapterSpec(tag string, from, to ir.Unit, factor float64) *graph.BlockSpec {
	return &graph.BlockSpec{
		Type: tag,
		Inputs: []graph.PortSpec{
			{Name: "in", Type: graph.FlexSignal(ir.PayloadScalar, from)},
		},
		Outputs: []graph.PortSpec{
			{Name: "out", Type: graph.FlexSignal(ir.PayloadScalar, to)},
		},
		Lower: func(in graph.LowerInput) (graph.LowerResult, error) {
			src, err := requireInput(in, "in")
			if err != nil {
				return graph.LowerResult{}, err
			}
			outType := ir.Signal(ir.PayloadScalar, to)
			if st, ok := in.InputTypes["in"]; ok && st.TryField() {
				outType = ir.Field(ir.PayloadScalar, to, st.Extent.Cardinality.Instance)
			}
			e := newEmitter(in)
			out := e.apply(ir.FnMul, outType, src, e.constScalar(factor, ir.UnitNone))
			return graph.LowerResult{Exprs: e.exprs, Outputs: map[string]ir.ExprID{"out": out}}, nil
		},
	}
}
