package blocks

import (
	"fmt"

	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// constSpec is the payload-generic constant source. The payload comes from
// edge context (normalization phase a), from the target port when the block
// was materialized as a default source (phase a'), or from an explicit
// "payload" parameter.
func constSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type:           "const",
		GenericPayload: true,
		Outputs: []graph.PortSpec{
			{Name: "out", Type: ir.Signal(ir.PayloadAny, ir.UnitNone)},
		},
		Lower: lowerConst,
	}
}

// Fixed-payload constant variants for authoring convenience.
func constColorSpec() *graph.BlockSpec {
	return fixedConstSpec("const.color", ir.PayloadColor)
}

func constVec2Spec() *graph.BlockSpec {
	return fixedConstSpec("const.vec2", ir.PayloadVec2)
}

func fixedConstSpec(tag string, p ir.Payload) *graph.BlockSpec {
	return &graph.BlockSpec{
		Type: tag,
		Outputs: []graph.PortSpec{
			{Name: "out", Type: ir.Signal(p, ir.UnitNone)},
		},
		Lower: func(in graph.LowerInput) (graph.LowerResult, error) {
			return lowerConstWithPayload(in, p)
		},
	}
}

func lowerConst(in graph.LowerInput) (graph.LowerResult, error) {
	return lowerConstWithPayload(in, in.Payload)
}

func lowerConstWithPayload(in graph.LowerInput, payload ir.Payload) (graph.LowerResult, error) {
	if payload == ir.PayloadAny || payload == "" {
		return graph.LowerResult{}, fmt.Errorf("block %s: constant payload unresolved", in.BlockID)
	}
	stride := payload.Stride()

	vals := make([]float64, stride)
	if raw, ok := in.Params["value"]; ok {
		given, err := ir.AsNumbers(raw)
		if err != nil {
			return graph.LowerResult{}, fmt.Errorf("block %s: %w", in.BlockID, err)
		}
		switch {
		case len(given) == stride:
			copy(vals, given)
		case len(given) == 1:
			for i := range vals {
				vals[i] = given[0]
			}
		default:
			return graph.LowerResult{}, fmt.Errorf(
				"block %s: value has %d components, payload %s needs %d",
				in.BlockID, len(given), payload, stride)
		}
	}

	e := newEmitter(in)
	out := e.emit(ir.Expr{
		Kind:  ir.ExprConst,
		Type:  ir.Signal(payload, ir.UnitNone),
		Const: vals,
	})
	return graph.LowerResult{Exprs: e.exprs, Outputs: map[string]ir.ExprID{"out": out}}, nil
}
