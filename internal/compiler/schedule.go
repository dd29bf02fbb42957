package compiler

import (
	"sort"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

// buildSchedule assembles the final ordered step list:
//
//  1. slot writes that do not depend on any discrete value
//  2. slot writes that do (after event evaluation)
//  3. field materializations
//  4. render-pass assembly
//  5. state commits
//
// Commits run at the very end so state reads during the frame observe the
// PREVIOUS frame's committed value: the one-frame-delay discipline that
// makes state-boundary cycles legal. Within each group, slot id order keeps
// the schedule deterministic; writes never read the current store, so the
// order carries no semantic weight.
func buildSchedule(exprs []ir.Expr, writes []writeReq, mats []ir.Materialization, passes []ir.RenderPassSpec, commits []ir.SlotID) []ir.Step {
	dep := eventDependence(exprs)

	sort.Slice(writes, func(i, j int) bool { return writes[i].slot < writes[j].slot })
	sorted := append([]ir.SlotID(nil), commits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	steps := make([]ir.Step, 0, 2*len(writes)+len(mats)+len(passes)+len(sorted))
	for _, w := range writes {
		if !dep[w.expr] {
			steps = append(steps, ir.Step{Kind: ir.StepWriteSlot, Slot: w.slot, Expr: w.expr})
		}
	}
	for _, w := range writes {
		if dep[w.expr] {
			steps = append(steps, ir.Step{Kind: ir.StepWriteSlot, Slot: w.slot, Expr: w.expr, EventDependent: true})
		}
	}
	for _, m := range mats {
		steps = append(steps, ir.Step{Kind: ir.StepMaterializeField, Mat: m.ID})
	}
	for _, p := range passes {
		steps = append(steps, ir.Step{Kind: ir.StepRenderPass, Pass: p.ID})
	}
	for _, slot := range sorted {
		steps = append(steps, ir.Step{Kind: ir.StepCommitState, Slot: slot})
	}
	return steps
}

// eventDependence marks every expression that is event-typed or transitively
// consumes one. A single forward pass suffices: operands always precede
// their consumers in the table.
func eventDependence(exprs []ir.Expr) []bool {
	dep := make([]bool, len(exprs))
	for i, e := range exprs {
		d := e.Type.TryEvent()
		for _, a := range e.Args {
			if a >= 0 && int(a) < i && dep[a] {
				d = true
			}
		}
		dep[i] = d
	}
	return dep
}
