package blocks

import (
	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// stateAccumulateSpec is the declared state boundary: it integrates its
// input across frames through a committed state slot.
//
// The output is the slot's PREVIOUS committed value (ExprStateRead), which
// is what makes feedback cycles through this block legal: nothing in the
// current frame depends on the current frame's write. The write itself is a
// deferred slot update - add(state, in) - resolved by the orchestrator after
// the cycle's other members have lowered.
func stateAccumulateSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type:          "state.accumulate",
		StateBoundary: true,
		Inputs: []graph.PortSpec{
			{Name: "in", Type: graph.FlexSignal(ir.PayloadScalar, ir.UnitNone), Default: ir.Number(0)},
		},
		Outputs: []graph.PortSpec{
			{Name: "out", Type: graph.FlexSignal(ir.PayloadScalar, ir.UnitNone)},
		},
		Lower: lowerAccumulate,
	}
}

func lowerAccumulate(in graph.LowerInput) (graph.LowerResult, error) {
	initial, err := paramNumber(in.Params, "initial", 0)
	if err != nil {
		return graph.LowerResult{}, err
	}

	stateType := ir.Signal(ir.PayloadScalar, ir.UnitNone)
	elemCount := 1
	if in.Instance != 0 {
		stateType = ir.Field(ir.PayloadScalar, ir.UnitNone, in.Instance)
		elemCount = in.InstanceCount
	}

	e := newEmitter(in)
	read := e.emit(ir.Expr{
		Kind: ir.ExprStateRead,
		Type: stateType,
		Slot: in.NextSlot,
	})

	slot := graph.SlotRequest{
		Name:       "acc",
		Type:       stateType,
		ElemCount:  elemCount,
		Init:       []float64{initial},
		Update:     ir.FnAdd,
		UpdatePort: "in",
		ReadExpr:   read,
		Commit:     true,
		Port:       "out",
	}

	return graph.LowerResult{
		Exprs:   e.exprs,
		Outputs: map[string]ir.ExprID{"out": read},
		Slots:   []graph.SlotRequest{slot},
	}, nil
}
