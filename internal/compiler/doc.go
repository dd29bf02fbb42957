// Package compiler turns a normalized graph document into an immutable,
// deterministically-ordered Program.
//
// The pipeline is a fixed sequence of passes: normalization (generic payload
// resolution, default materialization, adapter insertion), type graph, time
// topology, cycle validation, lowering, link resolution, and schedule
// construction. Analysis passes accumulate every violation they find and the
// compiler reports the complete ErrorList at once; nothing fails fast
// mid-pass. Lowering treats block types as opaque contracts supplied by the
// registry: each block emits a pure effects description and the orchestrator
// alone mutates the program tables.
package compiler
