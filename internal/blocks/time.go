package blocks

import (
	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// timeRootSpec is the single time-root block. Its params select the global
// time model; the compiler's time-topology pass reads them through
// TimeModelFromParams. Outputs are the canonical time reads.
func timeRootSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type:      "time.root",
		TimeRoot:  true,
		TimeModel: TimeModelFromParams,
		Outputs: []graph.PortSpec{
			{Name: "ms", Type: ir.Signal(ir.PayloadScalar, ir.UnitMilliseconds)},
			{Name: "delta", Type: ir.Signal(ir.PayloadScalar, ir.UnitMilliseconds)},
			{Name: "phase", Type: ir.Signal(ir.PayloadScalar, ir.UnitNormalized)},
			{Name: "progress", Type: ir.Signal(ir.PayloadScalar, ir.UnitNormalized)},
			{Name: "wrap", Type: ir.Event()},
			{Name: "energy", Type: ir.Signal(ir.PayloadScalar, ir.UnitNone)},
		},
		Lower: lowerTimeRoot,
	}
}

// TimeModelFromParams derives the global time model from a time-root block's
// parameters. Exposed so the compiler's time-topology pass shares one parse.
func TimeModelFromParams(params ir.Dict) (ir.TimeModel, error) {
	mode, err := paramString(params, "mode", "infinite")
	if err != nil {
		return ir.TimeModel{}, err
	}
	switch mode {
	case "finite":
		dur, err := paramNumber(params, "duration_ms", 1000)
		if err != nil {
			return ir.TimeModel{}, err
		}
		return ir.TimeModel{Kind: ir.TimeFinite, DurationMs: dur}, nil
	case "cyclic":
		period, err := paramNumber(params, "period_ms", 1000)
		if err != nil {
			return ir.TimeModel{}, err
		}
		return ir.TimeModel{Kind: ir.TimeCyclic, PeriodMs: period}, nil
	default:
		return ir.TimeModel{Kind: ir.TimeInfinite}, nil
	}
}

func lowerTimeRoot(in graph.LowerInput) (graph.LowerResult, error) {
	e := newEmitter(in)

	timeRead := func(f ir.TimeField, t ir.CanonicalType) ir.ExprID {
		return e.emit(ir.Expr{Kind: ir.ExprTimeRead, Type: t, Time: f})
	}

	outputs := map[string]ir.ExprID{
		"ms":       timeRead(ir.TimeAbsolute, ir.Signal(ir.PayloadScalar, ir.UnitMilliseconds)),
		"delta":    timeRead(ir.TimeDelta, ir.Signal(ir.PayloadScalar, ir.UnitMilliseconds)),
		"phase":    timeRead(ir.TimePhase, ir.Signal(ir.PayloadScalar, ir.UnitNormalized)),
		"progress": timeRead(ir.TimeProgress, ir.Signal(ir.PayloadScalar, ir.UnitNormalized)),
		"wrap":     timeRead(ir.TimeWrap, ir.Event()),
		"energy":   timeRead(ir.TimeEnergy, ir.Signal(ir.PayloadScalar, ir.UnitNone)),
	}

	return graph.LowerResult{Exprs: e.exprs, Outputs: outputs}, nil
}
