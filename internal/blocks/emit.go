package blocks

import (
	"fmt"

	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// emitter accumulates expressions during one Lower call. Emitted ids are
// absolute: the orchestrator told us via LowerInput.Base which index the
// first node will receive, so lowering stays pure while still able to
// reference its own nodes.
type emitter struct {
	base  ir.ExprID
	exprs []ir.Expr
}

func newEmitter(in graph.LowerInput) *emitter {
	return &emitter{base: in.Base}
}

func (e *emitter) emit(x ir.Expr) ir.ExprID {
	id := e.base + ir.ExprID(len(e.exprs))
	e.exprs = append(e.exprs, x)
	return id
}

// constScalar emits a scalar constant.
func (e *emitter) constScalar(v float64, u ir.Unit) ir.ExprID {
	return e.emit(ir.Expr{
		Kind:  ir.ExprConst,
		Type:  ir.Signal(ir.PayloadScalar, u),
		Const: []float64{v},
	})
}

// apply emits a pure-function application.
func (e *emitter) apply(fn ir.PureFunc, t ir.CanonicalType, args ...ir.ExprID) ir.ExprID {
	return e.emit(ir.Expr{Kind: ir.ExprApply, Type: t, Fn: fn, Args: args})
}

// paramNumber reads a numeric parameter with a default.
func paramNumber(params ir.Dict, name string, def float64) (float64, error) {
	v, ok := params[name]
	if !ok {
		return def, nil
	}
	n, err := ir.AsNumber(v)
	if err != nil {
		return 0, fmt.Errorf("param %q: %w", name, err)
	}
	return n, nil
}

// paramString reads a string parameter with a default.
func paramString(params ir.Dict, name, def string) (string, error) {
	v, ok := params[name]
	if !ok {
		return def, nil
	}
	s, err := ir.AsString(v)
	if err != nil {
		return "", fmt.Errorf("param %q: %w", name, err)
	}
	return s, nil
}

// requireInput fetches a resolved input reference, erroring on absence.
// Absence indicates an orchestrator defect, not a user mistake: normalization
// guarantees every non-optional port resolves before lowering runs.
func requireInput(in graph.LowerInput, port string) (ir.ExprID, error) {
	id, ok := in.Inputs[port]
	if !ok {
		return ir.InvalidExpr, fmt.Errorf("block %s: input %q not resolved before lowering", in.BlockID, port)
	}
	return id, nil
}
