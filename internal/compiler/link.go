package compiler

import (
	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// combineFn maps a multi-writer combine policy to the pure function that
// merges the writer list. CombineError has no function: multiple writers
// into such a port are a diagnostic.
func combineFn(p graph.CombinePolicy) (ir.PureFunc, bool) {
	switch p {
	case graph.CombineSum:
		return ir.FnAdd, true
	case graph.CombineAvg:
		return ir.FnAvg, true
	case graph.CombineMin:
		return ir.FnMin, true
	case graph.CombineMax:
		return ir.FnMax, true
	case graph.CombineFirst:
		return ir.FnFirst, true
	case graph.CombineLast:
		return ir.FnLast, true
	default:
		return "", false
	}
}

// resolveInput rewrites one input port to a concrete expression reference.
//
// The writer list comes from EdgesInto, which sorts by the stable edge
// ordering key - never insertion order - so "first" and "last" policies are
// meaningful. Multiple writers combine through one Apply node; a lone writer
// resolves directly.
func (lw *lowering) resolveInput(blockID string, port graph.PortSpec) (ir.ExprID, ir.CanonicalType, bool) {
	ref := graph.PortRef{Block: blockID, Port: port.Name}
	edges := lw.c.doc.EdgesInto(ref)

	var (
		writers []ir.ExprID
		t       ir.CanonicalType
	)
	for _, e := range edges {
		xid, ok := lw.outputs[e.From]
		if !ok {
			lw.c.diags.add(ErrDanglingReference, blockID, port.Name,
				"writer %s produced no value", e.From)
			continue
		}
		if len(writers) == 0 {
			t = lw.c.outTypes[e.From]
		}
		writers = append(writers, xid)
	}

	switch len(writers) {
	case 0:
		// Unconnected ports were either defaulted or diagnosed during
		// normalization; optional ports are legitimately absent.
		return ir.InvalidExpr, ir.CanonicalType{}, false
	case 1:
		return writers[0], t, true
	}

	fn, ok := combineFn(port.Combine)
	if !ok {
		lw.c.diags.add(ErrDanglingReference, blockID, port.Name,
			"%d writers into a port without a combine policy", len(writers))
		return writers[0], t, true
	}
	combined := lw.emit(ir.Expr{Kind: ir.ExprApply, Type: t, Fn: fn, Args: writers})
	return combined, t, true
}
