package engine

import "github.com/kinetic-lang/kinetic/internal/ir"

// materialize fills a pooled buffer from a field expression, one lane per
// instance element. The buffer stride is the materialization's declared
// stride; a disagreement with the expression's payload is a compiled
// program defect.
func (ev *evaluator) materialize(mat ir.Materialization, pool *BufferPool) (*Buffer, error) {
	inst, err := ev.prog.InstanceByID(mat.Instance)
	if err != nil {
		return nil, err
	}
	if int(mat.Expr) < 0 || int(mat.Expr) >= len(ev.prog.Exprs) {
		return nil, NewMissingExpressionError(ev.frame, int32(mat.Expr))
	}
	if stride := ev.prog.Exprs[mat.Expr].Type.Payload.Stride(); stride != mat.Stride {
		return nil, NewStrideMismatchError(ev.frame, int32(mat.Expr), stride, mat.Stride)
	}

	buf := pool.Claim(mat.Stride, inst.Count)
	for lane := 0; lane < inst.Count; lane++ {
		v, err := ev.evalLane(mat.Expr, lane)
		if err != nil {
			return nil, err
		}
		copy(buf.At(lane), v[:mat.Stride])
	}
	return buf, nil
}
