package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// reservedChannelPrefix guards the namespace of compiler-derived time
// values. Reading them as external channels would bypass the time model.
const reservedChannelPrefix = "time."

// lowering accumulates the program tables while the orchestrator applies
// each block's effects description. Blocks themselves never touch this
// state: they return a LowerResult and the orchestrator applies it, which
// keeps every Lower function referentially transparent.
type lowering struct {
	c *compilation

	exprs   []ir.Expr
	slots   []ir.SlotMeta
	origins []ir.SlotOrigin
	mats    []ir.Materialization
	passes  []ir.RenderPassSpec

	outputs map[graph.PortRef]ir.ExprID

	writes   []writeReq
	commits  []ir.SlotID
	deferred []deferredWrite

	// classOffset tracks the next free cell per storage class, so slot
	// offsets within a class never overlap.
	classOffset map[ir.StorageClass]int
}

type writeReq struct {
	slot ir.SlotID
	expr ir.ExprID
}

// deferredWrite is a slot whose write expression could not be named at
// lowering time: the owning block sits on a state boundary, so its input
// edge was cut from the topological order and resolves only after every
// block has lowered.
type deferredWrite struct {
	block string
	slot  ir.SlotID
	req   graph.SlotRequest
}

// lower runs every block's pure Lower function in topological order (with
// edges into state boundaries cut), applies the returned effects, resolves
// deferred state writes, and assembles the schedule.
func (c *compilation) lower() (*ir.Program, error) {
	lw := &lowering{
		c:           c,
		outputs:     make(map[graph.PortRef]ir.ExprID),
		classOffset: make(map[ir.StorageClass]int),
	}

	for _, id := range c.topoOrder() {
		if err := lw.lowerBlock(id); err != nil {
			return nil, err
		}
	}
	if err := lw.resolveDeferred(); err != nil {
		return nil, err
	}

	prog := &ir.Program{
		Exprs:            lw.exprs,
		Slots:            lw.slots,
		Materializations: lw.mats,
		Passes:           lw.passes,
		SlotOrigins:      lw.origins,
	}
	prog.Schedule = buildSchedule(lw.exprs, lw.writes, lw.mats, lw.passes, lw.commits)
	return prog, nil
}

// topoOrder returns block ids in dependency order. Edges INTO state-boundary
// blocks are cut: their outputs are previous-frame reads, so consumers never
// wait on them and every legal cycle breaks open. Ties resolve by block id.
func (c *compilation) topoOrder() []string {
	indeg := make(map[string]int, len(c.doc.Blocks))
	succ := make(map[string][]string)
	for i := range c.doc.Blocks {
		if _, ok := c.specs[c.doc.Blocks[i].ID]; ok {
			indeg[c.doc.Blocks[i].ID] = 0
		}
	}
	for _, e := range c.doc.Edges {
		if spec, ok := c.specs[e.To.Block]; ok && spec.StateBoundary {
			continue
		}
		indeg[e.To.Block]++
		succ[e.From.Block] = append(succ[e.From.Block], e.To.Block)
	}

	var ready []string
	for id, d := range indeg {
		if d == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]string, 0, len(indeg))
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, next := range succ[id] {
			indeg[next]--
			if indeg[next] == 0 {
				ready = append(ready, next)
			}
		}
	}
	// Blocks left with positive in-degree sit in an uncut cycle, which the
	// cycle pass already rejected; lowering never runs in that case.
	return order
}

func (lw *lowering) lowerBlock(id string) error {
	c := lw.c
	b := c.doc.BlockByID(id)
	spec := c.specs[id]

	inputs := make(map[string]ir.ExprID)
	inputTypes := make(map[string]ir.CanonicalType)
	if !spec.StateBoundary {
		for _, port := range spec.Inputs {
			xid, t, ok := lw.resolveInput(id, port)
			if !ok {
				continue
			}
			inputs[port.Name] = xid
			inputTypes[port.Name] = t
		}
	}

	inst := c.instOf[id]
	in := graph.LowerInput{
		BlockID:       id,
		Params:        b.Params,
		Payload:       lw.effectivePayload(b),
		Inputs:        inputs,
		InputTypes:    inputTypes,
		Instance:      inst,
		InstanceCount: c.instCount[inst],
		Base:          ir.ExprID(len(lw.exprs)),
		NextSlot:      ir.SlotID(len(lw.slots)),
		NextMat:       ir.MatID(len(lw.mats)),
	}

	res, err := spec.Lower(in)
	if err != nil {
		c.diags.add(ErrBadParam, id, "", "%v", err)
		return nil
	}
	return lw.apply(id, in, res)
}

func (lw *lowering) effectivePayload(b *graph.Block) ir.Payload {
	if p, ok := lw.c.payloads[b.ID]; ok {
		return p
	}
	return b.Payload
}

func (lw *lowering) emit(e ir.Expr) ir.ExprID {
	id := ir.ExprID(len(lw.exprs))
	lw.exprs = append(lw.exprs, e)
	return id
}

// apply folds one block's effects description into the program tables. The
// orchestrator owns every table mutation; contract violations (forward
// operand references, out-of-range ids) are programming errors in the block
// library, returned as plain errors rather than graph diagnostics.
func (lw *lowering) apply(blockID string, in graph.LowerInput, res graph.LowerResult) error {
	for i, e := range res.Exprs {
		id := in.Base + ir.ExprID(i)
		if !e.OperandsBelow(id) {
			return fmt.Errorf("block %s: expression %d references operands at or above itself", blockID, i)
		}
		lw.checkExpr(blockID, e)
		lw.exprs = append(lw.exprs, e)
	}

	for port, xid := range res.Outputs {
		if xid < 0 || int(xid) >= len(lw.exprs) {
			return fmt.Errorf("block %s: output %q references expression %d of %d", blockID, port, xid, len(lw.exprs))
		}
		lw.outputs[graph.PortRef{Block: blockID, Port: port}] = xid
	}

	for i, req := range res.Slots {
		if err := lw.allocateSlot(blockID, in.NextSlot+ir.SlotID(i), req); err != nil {
			return err
		}
	}

	matIdx := 0
	for _, step := range res.Steps {
		switch step.Kind {
		case graph.StepMaterialize:
			if step.Expr < 0 || int(step.Expr) >= len(lw.exprs) {
				return fmt.Errorf("block %s: materialization references expression %d of %d", blockID, step.Expr, len(lw.exprs))
			}
			id := in.NextMat + ir.MatID(matIdx)
			matIdx++
			lw.mats = append(lw.mats, ir.Materialization{
				ID:       id,
				Instance: step.Instance,
				Expr:     step.Expr,
				Stride:   lw.exprs[step.Expr].Type.Payload.Stride(),
			})
		case graph.StepRender:
			if int(step.Position) >= len(lw.mats) || int(step.Color) >= len(lw.mats) || int(step.SizeMat) >= len(lw.mats) {
				return fmt.Errorf("block %s: render pass references an unallocated materialization", blockID)
			}
			lw.passes = append(lw.passes, ir.RenderPassSpec{
				ID:          ir.PassID(len(lw.passes)),
				Name:        step.Name,
				Instance:    step.Instance,
				Position:    step.Position,
				Color:       step.Color,
				SizeMat:     step.SizeMat,
				SizeUniform: step.SizeUniform,
			})
		default:
			return fmt.Errorf("block %s: unknown step request kind %q", blockID, step.Kind)
		}
	}
	return nil
}

// checkExpr accumulates per-node diagnostics: unknown or arity-mismatched
// pure functions, and reads of reserved channel names. Blocks stay opaque to
// the compiler, so the reserved-namespace rule is enforced here on the
// lowered output rather than on block parameters.
func (lw *lowering) checkExpr(blockID string, e ir.Expr) {
	switch e.Kind {
	case ir.ExprApply:
		arity, known := ir.FuncArity(e.Fn)
		switch {
		case !known:
			lw.c.diags.add(ErrUnknownPureFunc, blockID, "", "unknown pure function %q", e.Fn)
		case arity >= 0 && len(e.Args) != arity:
			lw.c.diags.add(ErrUnknownPureFunc, blockID, "",
				"pure function %q takes %d argument(s), got %d", e.Fn, arity, len(e.Args))
		case arity < 0 && len(e.Args) == 0:
			lw.c.diags.add(ErrUnknownPureFunc, blockID, "",
				"pure function %q needs at least one argument", e.Fn)
		}
	case ir.ExprExternalRead:
		if strings.HasPrefix(e.Channel, reservedChannelPrefix) {
			lw.c.diags.add(ErrReservedChannelType, blockID, "",
				"channel %q reads a reserved name; time values come from the time root", e.Channel)
		}
	}
}

func (lw *lowering) allocateSlot(blockID string, id ir.SlotID, req graph.SlotRequest) error {
	stride := req.Type.Payload.Stride()
	if stride == 0 {
		return fmt.Errorf("block %s: slot %q has unresolved payload %q", blockID, req.Name, req.Type.Payload)
	}
	elems := req.ElemCount
	if elems < 1 {
		elems = 1
	}

	init := req.Init
	switch {
	case init == nil:
	case len(init) == stride:
	case len(init) == 1 && stride > 1:
		full := make([]float64, stride)
		for i := range full {
			full[i] = init[0]
		}
		init = full
	default:
		return fmt.Errorf("block %s: slot %q init has %d components, stride is %d", blockID, req.Name, len(init), stride)
	}

	class := req.Type.Payload.Class()
	meta := ir.SlotMeta{
		ID:            id,
		Class:         class,
		Stride:        stride,
		ElemCount:     elems,
		Offset:        lw.classOffset[class],
		ContinuityKey: blockID + "/" + req.Name,
		Init:          init,
	}
	lw.classOffset[class] += meta.Span()
	lw.slots = append(lw.slots, meta)

	if req.Port != "" {
		lw.origins = append(lw.origins, ir.SlotOrigin{Slot: id, Block: blockID, Port: req.Port})
	}

	if req.Update != "" {
		lw.deferred = append(lw.deferred, deferredWrite{block: blockID, slot: id, req: req})
	} else {
		if req.WriteExpr < 0 || int(req.WriteExpr) >= len(lw.exprs) {
			return fmt.Errorf("block %s: slot %q write references expression %d of %d", blockID, req.Name, req.WriteExpr, len(lw.exprs))
		}
		lw.writes = append(lw.writes, writeReq{slot: id, expr: req.WriteExpr})
	}
	if req.Commit {
		lw.commits = append(lw.commits, id)
	}
	return nil
}

// resolveDeferred materializes the postponed state writes. Every block has
// lowered by now, so the inputs the state boundary cut away resolve like any
// other port; the write becomes Update(previous state, resolved input),
// appended at the end of the table where the DAG invariant holds trivially.
func (lw *lowering) resolveDeferred() error {
	for _, d := range lw.deferred {
		spec := lw.c.specs[d.block]
		port, ok := spec.Input(d.req.UpdatePort)
		if !ok {
			return fmt.Errorf("block %s: deferred update references unknown port %q", d.block, d.req.UpdatePort)
		}
		if d.req.ReadExpr < 0 || int(d.req.ReadExpr) >= len(lw.exprs) {
			return fmt.Errorf("block %s: deferred update read expression %d out of range", d.block, d.req.ReadExpr)
		}

		src, _, resolved := lw.resolveInput(d.block, port)
		if !resolved {
			continue // missing writer already diagnosed
		}
		update := ir.Expr{
			Kind: ir.ExprApply,
			Type: d.req.Type,
			Fn:   d.req.Update,
			Args: []ir.ExprID{d.req.ReadExpr, src},
		}
		lw.checkExpr(d.block, update)
		write := lw.emit(update)
		lw.writes = append(lw.writes, writeReq{slot: d.slot, expr: write})
	}
	return nil
}
