package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

func TestDefaultRegistry_AllBuiltinsPresent(t *testing.T) {
	r := DefaultRegistry()
	for _, tag := range []string{
		"time.root", "const", "wave.sine", "math.add", "math.sum",
		"field.particles", "field.polar", "state.accumulate",
		"input.channel", "render.points",
		AdaptBroadcast, AdaptReduce, AdaptRadToNorm, AdaptNormToRad,
	} {
		_, ok := r.Lookup(tag)
		assert.True(t, ok, "builtin %q missing", tag)
	}
}

func TestDefaultRegistry_ExactlyOneTimeRoot(t *testing.T) {
	r := DefaultRegistry()
	roots := 0
	for _, tag := range r.Types() {
		spec, _ := r.Lookup(tag)
		if spec.TimeRoot {
			roots++
		}
	}
	assert.Equal(t, 1, roots)
}

func TestTimeModelFromParams(t *testing.T) {
	m, err := TimeModelFromParams(ir.Dict{"mode": ir.String("cyclic"), "period_ms": ir.Number(1000)})
	require.NoError(t, err)
	assert.Equal(t, ir.TimeModel{Kind: ir.TimeCyclic, PeriodMs: 1000}, m)

	m, err = TimeModelFromParams(ir.Dict{"mode": ir.String("finite"), "duration_ms": ir.Number(500)})
	require.NoError(t, err)
	assert.Equal(t, ir.TimeModel{Kind: ir.TimeFinite, DurationMs: 500}, m)

	m, err = TimeModelFromParams(ir.Dict{})
	require.NoError(t, err)
	assert.Equal(t, ir.TimeModel{Kind: ir.TimeInfinite}, m)

	_, err = TimeModelFromParams(ir.Dict{"mode": ir.Number(3)})
	assert.Error(t, err)
}

func TestLowerTimeRoot_EmitsAllTimeReads(t *testing.T) {
	res, err := lowerTimeRoot(graph.LowerInput{BlockID: "t", Base: 0})
	require.NoError(t, err)

	require.Len(t, res.Exprs, 6)
	assert.Len(t, res.Outputs, 6)

	wrap := res.Exprs[res.Outputs["wrap"]]
	assert.Equal(t, ir.ExprTimeRead, wrap.Kind)
	assert.Equal(t, ir.TimeWrap, wrap.Time)
	assert.Equal(t, ir.KindEvent, wrap.Type.Kind(), "wrap pulse is an event")

	phase := res.Exprs[res.Outputs["phase"]]
	assert.Equal(t, ir.TimePhase, phase.Time)
	assert.Equal(t, ir.UnitNormalized, phase.Type.Unit)
}

func TestLowerConst_ScalarAndBroadcastFill(t *testing.T) {
	in := graph.LowerInput{
		BlockID: "c",
		Payload: ir.PayloadColor,
		Params:  ir.Dict{"value": ir.Number(0.5)},
	}
	res, err := lowerConst(in)
	require.NoError(t, err)
	require.Len(t, res.Exprs, 1)
	assert.Equal(t, []float64{0.5, 0.5, 0.5, 0.5}, res.Exprs[0].Const, "single value fills all components")

	in.Params = ir.Dict{"value": ir.List{ir.Number(1), ir.Number(0)}}
	_, err = lowerConst(in)
	require.Error(t, err, "2 components cannot fill a color")
	assert.Contains(t, err.Error(), "components")
}

func TestLowerConst_UnresolvedPayloadIsDefect(t *testing.T) {
	_, err := lowerConst(graph.LowerInput{BlockID: "c", Payload: ir.PayloadAny})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolved")
}

func TestLowerWaveSine_BaseOffsetsAreAbsolute(t *testing.T) {
	in := graph.LowerInput{
		BlockID:    "w",
		Base:       10,
		Inputs:     map[string]ir.ExprID{"phase": 3},
		InputTypes: map[string]ir.CanonicalType{"phase": ir.Signal(ir.PayloadScalar, ir.UnitNormalized)},
	}
	res, err := lowerWaveSine(in)
	require.NoError(t, err)

	// Emitted: const(2pi)=10, mul=11, sin=12.
	require.Len(t, res.Exprs, 3)
	out := res.Outputs["out"]
	assert.Equal(t, ir.ExprID(12), out)
	sin := res.Exprs[2]
	assert.Equal(t, ir.FnSin, sin.Fn)
	assert.Equal(t, []ir.ExprID{11}, sin.Args)
	mul := res.Exprs[1]
	assert.Equal(t, []ir.ExprID{3, 10}, mul.Args, "operands reference input and own const absolutely")
}

func TestLowerWaveSine_AmpOffsetParams(t *testing.T) {
	in := graph.LowerInput{
		BlockID:    "w",
		Params:     ir.Dict{"amp": ir.Number(2), "offset": ir.Number(1)},
		Inputs:     map[string]ir.ExprID{"phase": 0},
		InputTypes: map[string]ir.CanonicalType{"phase": ir.Signal(ir.PayloadScalar, ir.UnitNormalized)},
		Base:       1,
	}
	res, err := lowerWaveSine(in)
	require.NoError(t, err)
	// const 2pi, mul, sin, const amp, scale, const offset, add
	assert.Len(t, res.Exprs, 7)
	last := res.Exprs[len(res.Exprs)-1]
	assert.Equal(t, ir.FnAdd, last.Fn)
}

func TestLowerWave_FieldPhaseYieldsFieldOutput(t *testing.T) {
	fieldPhase := ir.Field(ir.PayloadScalar, ir.UnitNormalized, 2)
	in := graph.LowerInput{
		BlockID:    "w",
		Inputs:     map[string]ir.ExprID{"phase": 0},
		InputTypes: map[string]ir.CanonicalType{"phase": fieldPhase},
		Instance:   2,
	}
	res, err := lowerWaveSine(in)
	require.NoError(t, err)
	out := res.Exprs[res.Outputs["out"]-in.Base]
	assert.True(t, out.Type.TryField())
	assert.Equal(t, ir.InstanceID(2), out.Type.Extent.Cardinality.Instance)
}

func TestLowerParticles(t *testing.T) {
	decl, err := declareParticles(ir.Dict{"count": ir.Number(16), "layout": ir.String("ring")})
	require.NoError(t, err)
	assert.Equal(t, graph.InstanceDecl{Domain: "particles", Count: 16, Layout: "ring"}, decl)

	_, err = declareParticles(ir.Dict{"count": ir.Number(0)})
	assert.Error(t, err)
	_, err = declareParticles(ir.Dict{"count": ir.Number(2.5)})
	assert.Error(t, err)

	res, err := lowerParticles(graph.LowerInput{BlockID: "p", Instance: 1, InstanceCount: 16})
	require.NoError(t, err)
	require.Len(t, res.Exprs, 3)
	idx := res.Exprs[res.Outputs["index"]]
	assert.Equal(t, ir.ExprIntrinsic, idx.Kind)
	assert.Equal(t, ir.IntrinsicIndex, idx.Intrinsic)
	assert.True(t, idx.Type.TryField())
}

func TestLowerAccumulate_DeferredUpdate(t *testing.T) {
	in := graph.LowerInput{
		BlockID:  "acc",
		Params:   ir.Dict{"initial": ir.Number(5)},
		Inputs:   map[string]ir.ExprID{}, // input cut at the state boundary
		NextSlot: 3,
	}
	res, err := lowerAccumulate(in)
	require.NoError(t, err)

	require.Len(t, res.Slots, 1)
	slot := res.Slots[0]
	assert.Equal(t, ir.FnAdd, slot.Update)
	assert.Equal(t, "in", slot.UpdatePort)
	assert.True(t, slot.Commit)
	assert.Equal(t, []float64{5}, slot.Init)

	read := res.Exprs[0]
	assert.Equal(t, ir.ExprStateRead, read.Kind)
	assert.Equal(t, ir.SlotID(3), read.Slot, "state read targets the pre-assigned slot")
	assert.Equal(t, res.Outputs["out"], slot.ReadExpr)
}

func TestLowerInputChannel(t *testing.T) {
	res, err := lowerInputChannel(graph.LowerInput{
		BlockID: "in",
		Params:  ir.Dict{"name": ir.String("energy")},
		Payload: ir.PayloadScalar,
	})
	require.NoError(t, err)
	expr := res.Exprs[res.Outputs["out"]]
	assert.Equal(t, ir.ExprExternalRead, expr.Kind)
	assert.Equal(t, "energy", expr.Channel)
	assert.True(t, expr.Type.TrySignal())

	res, err = lowerInputChannel(graph.LowerInput{
		BlockID: "trig",
		Params:  ir.Dict{"name": ir.String("pad"), "discrete": ir.Boolean(true)},
	})
	require.NoError(t, err)
	assert.True(t, res.Exprs[0].Type.TryEvent())

	_, err = lowerInputChannel(graph.LowerInput{BlockID: "x", Params: ir.Dict{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLowerRenderPoints_Requests(t *testing.T) {
	in := graph.LowerInput{
		BlockID:  "draw",
		Instance: 1,
		Inputs:   map[string]ir.ExprID{"pos": 4, "color": 5},
		InputTypes: map[string]ir.CanonicalType{
			"pos":   ir.Field(ir.PayloadVec2, ir.UnitPixels, 1),
			"color": ir.Signal(ir.PayloadColor, ir.UnitNone),
		},
		NextMat: 0,
	}
	res, err := lowerRenderPoints(in)
	require.NoError(t, err)

	require.Len(t, res.Steps, 3, "pos mat, color mat, render pass (no size input)")
	pass := res.Steps[2]
	assert.Equal(t, graph.StepRender, pass.Kind)
	assert.Equal(t, ir.MatID(0), pass.Position)
	assert.Equal(t, ir.MatID(1), pass.Color)
	assert.Equal(t, ir.MatID(-1), pass.SizeMat)
	assert.Equal(t, 4.0, pass.SizeUniform)

	// With a size input connected, a third materialization appears.
	in.Inputs["size"] = 6
	in.InputTypes["size"] = ir.Field(ir.PayloadScalar, ir.UnitPixels, 1)
	res, err = lowerRenderPoints(in)
	require.NoError(t, err)
	require.Len(t, res.Steps, 4)
	assert.Equal(t, ir.MatID(2), res.Steps[3].SizeMat)
}

func TestLowerBroadcastAndReduce(t *testing.T) {
	bres, err := lowerBroadcast(graph.LowerInput{
		BlockID:    "b",
		Instance:   2,
		Inputs:     map[string]ir.ExprID{"in": 1},
		InputTypes: map[string]ir.CanonicalType{"in": ir.Signal(ir.PayloadScalar, ir.UnitPixels)},
	})
	require.NoError(t, err)
	out := bres.Exprs[0]
	assert.True(t, out.Type.TryField())
	assert.Equal(t, ir.UnitPixels, out.Type.Unit, "broadcast preserves payload and unit")

	rres, err := lowerReduce(graph.LowerInput{
		BlockID:    "r",
		Inputs:     map[string]ir.ExprID{"in": 1},
		InputTypes: map[string]ir.CanonicalType{"in": ir.Field(ir.PayloadScalar, ir.UnitNone, 2)},
	})
	require.NoError(t, err)
	assert.True(t, rres.Exprs[0].Type.TrySignal())
	assert.Equal(t, ir.FnAvg, rres.Exprs[0].Fn)
}
