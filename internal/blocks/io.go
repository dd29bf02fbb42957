package blocks

import (
	"fmt"

	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// inputChannelSpec reads a named external channel. Unknown channels resolve
// to a neutral default at runtime - they never fail compilation or a frame.
// A "discrete: true" parameter makes the output an event instead of a
// signal (e.g. a trigger pad).
func inputChannelSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type:           "input.channel",
		GenericPayload: true,
		Outputs: []graph.PortSpec{
			{Name: "out", Type: ir.Signal(ir.PayloadAny, ir.UnitNone)},
		},
		OutputTypes: channelOutputTypes,
		Lower:       lowerInputChannel,
	}
}

// channelOutputTypes retypes the output as an event when "discrete" is set,
// so event-consuming ports downstream type-check before lowering.
func channelOutputTypes(params ir.Dict) (map[string]ir.CanonicalType, error) {
	raw, ok := params["discrete"]
	if !ok {
		return nil, nil
	}
	discrete, err := ir.AsBool(raw)
	if err != nil {
		return nil, fmt.Errorf("param %q: %w", "discrete", err)
	}
	if !discrete {
		return nil, nil
	}
	return map[string]ir.CanonicalType{"out": ir.Event()}, nil
}

func lowerInputChannel(in graph.LowerInput) (graph.LowerResult, error) {
	name, err := paramString(in.Params, "name", "")
	if err != nil {
		return graph.LowerResult{}, err
	}
	if name == "" {
		return graph.LowerResult{}, fmt.Errorf("block %s: channel name is required", in.BlockID)
	}

	discrete := false
	if raw, ok := in.Params["discrete"]; ok {
		discrete, err = ir.AsBool(raw)
		if err != nil {
			return graph.LowerResult{}, fmt.Errorf("block %s: %w", in.BlockID, err)
		}
	}

	var t ir.CanonicalType
	if discrete {
		t = ir.Event()
	} else {
		payload := in.Payload
		if payload == "" || payload == ir.PayloadAny {
			payload = ir.PayloadScalar
		}
		t = ir.Signal(payload, ir.UnitNone)
	}

	e := newEmitter(in)
	out := e.emit(ir.Expr{Kind: ir.ExprExternalRead, Type: t, Channel: name})
	return graph.LowerResult{Exprs: e.exprs, Outputs: map[string]ir.ExprID{"out": out}}, nil
}

// renderPointsSpec assembles a point-sprite render pass: per-element
// positions plus color and size, which may be per-element fields or plain
// signals (broadcast during materialization).
func renderPointsSpec() *graph.BlockSpec {
	return &graph.BlockSpec{
		Type: "render.points",
		Inputs: []graph.PortSpec{
			{Name: "pos", Type: graph.FieldOf(ir.PayloadVec2, ir.UnitPixels)},
			{Name: "color", Type: graph.FlexSignal(ir.PayloadColor, ir.UnitNone), Default: ir.List{ir.Number(1), ir.Number(1), ir.Number(1), ir.Number(1)}},
			{Name: "size", Type: graph.FlexSignal(ir.PayloadScalar, ir.UnitPixels), Optional: true},
		},
		Lower: lowerRenderPoints,
	}
}

func lowerRenderPoints(in graph.LowerInput) (graph.LowerResult, error) {
	pos, err := requireInput(in, "pos")
	if err != nil {
		return graph.LowerResult{}, err
	}
	color, err := requireInput(in, "color")
	if err != nil {
		return graph.LowerResult{}, err
	}
	if in.Instance == 0 {
		return graph.LowerResult{}, fmt.Errorf("block %s: render pass has no instance context", in.BlockID)
	}
	name, err := paramString(in.Params, "name", in.BlockID)
	if err != nil {
		return graph.LowerResult{}, err
	}
	sizeUniform, err := paramNumber(in.Params, "size", 4)
	if err != nil {
		return graph.LowerResult{}, err
	}

	posMat := in.NextMat
	colorMat := in.NextMat + 1
	steps := []graph.StepRequest{
		{Kind: graph.StepMaterialize, Expr: pos, Instance: in.Instance},
		{Kind: graph.StepMaterialize, Expr: color, Instance: in.Instance},
	}

	sizeMat := ir.MatID(-1)
	if size, connected := in.Inputs["size"]; connected {
		sizeMat = in.NextMat + 2
		steps = append(steps, graph.StepRequest{Kind: graph.StepMaterialize, Expr: size, Instance: in.Instance})
	}

	steps = append(steps, graph.StepRequest{
		Kind:        graph.StepRender,
		Name:        name,
		Instance:    in.Instance,
		Position:    posMat,
		Color:       colorMat,
		SizeMat:     sizeMat,
		SizeUniform: sizeUniform,
	})

	return graph.LowerResult{Outputs: map[string]ir.ExprID{}, Steps: steps}, nil
}
