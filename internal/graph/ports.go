package graph

import "github.com/kinetic-lang/kinetic/internal/ir"

// Well-known axis variables used in port declarations. A port type carrying
// VarCardinality accepts either a signal or a field; normalization resolves
// the axis from the block's instance context before lowering.
const (
	VarCardinality ir.TypeVar = 1
)

// FlexSignal declares a port that accepts a signal or a field of the given
// payload; the cardinality axis is left variable for inference.
func FlexSignal(p ir.Payload, u ir.Unit) ir.CanonicalType {
	t := ir.Signal(p, u)
	t.Extent.Cardinality.Var = VarCardinality
	return t
}

// FieldOf declares a strictly-many port whose instance reference is resolved
// from the block's context during normalization (placeholder instance 0).
func FieldOf(p ir.Payload, u ir.Unit) ir.CanonicalType {
	return ir.Field(p, u, 0)
}
