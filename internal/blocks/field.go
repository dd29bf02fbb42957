package blocks

import (
	"fmt"
	"math"

	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// fieldParticlesSpec declares a population of particles and exposes its
// per-element intrinsics. Every field in a graph traces back to an instance
// declared here (or by another instance-declaring block type).
func fieldParticlesSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type: "field.particles",
		Outputs: []graph.PortSpec{
			{Name: "index", Type: graph.FieldOf(ir.PayloadScalar, ir.UnitNone)},
			{Name: "norm", Type: graph.FieldOf(ir.PayloadScalar, ir.UnitNormalized)},
			{Name: "rand", Type: graph.FieldOf(ir.PayloadScalar, ir.UnitNormalized)},
		},
		DeclareInstance: declareParticles,
		Lower:           lowerParticles,
	}
}

func declareParticles(params ir.Dict) (graph.InstanceDecl, error) {
	count, err := paramNumber(params, "count", 0)
	if err != nil {
		return graph.InstanceDecl{}, err
	}
	if count < 1 || count != math.Trunc(count) {
		return graph.InstanceDecl{}, fmt.Errorf("count must be a positive integer, got %v", count)
	}
	layout, err := paramString(params, "layout", "linear")
	if err != nil {
		return graph.InstanceDecl{}, err
	}
	domain, err := paramString(params, "domain", "particles")
	if err != nil {
		return graph.InstanceDecl{}, err
	}
	return graph.InstanceDecl{Domain: domain, Count: int(count), Layout: layout}, nil
}

func lowerParticles(in graph.LowerInput) (graph.LowerResult, error) {
	if in.Instance == 0 {
		return graph.LowerResult{}, fmt.Errorf("block %s: instance not declared before lowering", in.BlockID)
	}

	e := newEmitter(in)
	intrinsic := func(k ir.IntrinsicKind, u ir.Unit) ir.ExprID {
		return e.emit(ir.Expr{
			Kind:      ir.ExprIntrinsic,
			Type:      ir.Field(ir.PayloadScalar, u, in.Instance),
			Intrinsic: k,
			Instance:  in.Instance,
		})
	}

	outputs := map[string]ir.ExprID{
		"index": intrinsic(ir.IntrinsicIndex, ir.UnitNone),
		"norm":  intrinsic(ir.IntrinsicNormalized, ir.UnitNormalized),
		"rand":  intrinsic(ir.IntrinsicHash, ir.UnitNormalized),
	}
	return graph.LowerResult{Exprs: e.exprs, Outputs: outputs}, nil
}

// fieldPolarSpec converts per-element (angle, radius) into vec2 positions.
// angle is normalized (turns); radius is in pixels.
func fieldPolarSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type: "field.polar",
		Inputs: []graph.PortSpec{
			{Name: "angle", Type: graph.FlexSignal(ir.PayloadScalar, ir.UnitNormalized), Default: ir.Number(0)},
			{Name: "radius", Type: graph.FlexSignal(ir.PayloadScalar, ir.UnitPixels), Default: ir.Number(100)},
		},
		Outputs: []graph.PortSpec{
			{Name: "pos", Type: graph.FlexSignal(ir.PayloadVec2, ir.UnitPixels)},
		},
		Lower: lowerPolar,
	}
}

func lowerPolar(in graph.LowerInput) (graph.LowerResult, error) {
	angle, err := requireInput(in, "angle")
	if err != nil {
		return graph.LowerResult{}, err
	}
	radius, err := requireInput(in, "radius")
	if err != nil {
		return graph.LowerResult{}, err
	}

	scalarType := ir.Signal(ir.PayloadScalar, ir.UnitNone)
	outType := ir.Signal(ir.PayloadVec2, ir.UnitPixels)
	if in.Instance != 0 {
		scalarType = ir.Field(ir.PayloadScalar, ir.UnitNone, in.Instance)
		outType = ir.Field(ir.PayloadVec2, ir.UnitPixels, in.Instance)
	}

	e := newEmitter(in)
	twoPi := e.constScalar(2*math.Pi, ir.UnitNone)
	rad := e.apply(ir.FnMul, scalarType, angle, twoPi)
	x := e.apply(ir.FnMul, scalarType, e.apply(ir.FnCos, scalarType, rad), radius)
	y := e.apply(ir.FnMul, scalarType, e.apply(ir.FnSin, scalarType, rad), radius)
	pos := e.apply(ir.FnVec, outType, x, y)

	return graph.LowerResult{Exprs: e.exprs, Outputs: map[string]ir.ExprID{"pos": pos}}, nil
}
