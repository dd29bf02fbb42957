// Package graph contains the authoring-side model of a Kinetic graph: blocks,
// edges, and loaded documents, plus the block-registry contract the compiler
// consumes.
//
// The registry contract is the boundary to the external block library. The
// compiler never inspects what a block computes - it only sees the block's
// declared ports and its pure Lower function, which maps resolved inputs and
// parameters to emitted IR plus requested effects (slots, instances, steps).
// Lowering functions must not mutate shared compiler state; all effects are
// described in the LowerResult and applied by the orchestrator.
package graph
