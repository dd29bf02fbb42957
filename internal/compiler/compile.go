package compiler

import (
	"fmt"
	"log/slog"

	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// compilation is the shared state threaded through the passes. Each pass
// reads what earlier passes resolved and appends diagnostics; none of them
// fails fast.
type compilation struct {
	doc   *graph.Document
	reg   *graph.Registry
	diags *diagnostics

	// specs maps block id to its registry entry. Blocks with unknown types
	// are absent; later passes skip them.
	specs map[string]*graph.BlockSpec

	// payloads holds the resolved payload of each payload-generic block.
	payloads map[string]ir.Payload

	// overrides caches per-block OutputTypes results.
	overrides map[string]map[string]ir.CanonicalType

	// instances and the per-block instance context inferred from them.
	instances []ir.Instance
	instOf    map[string]ir.InstanceID
	instCount map[ir.InstanceID]int

	// outTypes holds the fully-substituted type of every output port.
	outTypes map[graph.PortRef]ir.CanonicalType

	time ir.TimeModel
}

func newCompilation(doc *graph.Document, reg *graph.Registry) *compilation {
	// Work on a copy: normalization adds synthetic blocks and rewires edges,
	// and the caller's document must stay untouched.
	work := &graph.Document{
		Name:   doc.Name,
		Blocks: append([]graph.Block(nil), doc.Blocks...),
		Edges:  append([]graph.Edge(nil), doc.Edges...),
	}
	work.SortBlocks()

	return &compilation{
		doc:       work,
		reg:       reg,
		diags:     &diagnostics{},
		specs:     make(map[string]*graph.BlockSpec),
		payloads:  make(map[string]ir.Payload),
		overrides: make(map[string]map[string]ir.CanonicalType),
		instOf:    make(map[string]ir.InstanceID),
		instCount: make(map[ir.InstanceID]int),
		outTypes:  make(map[graph.PortRef]ir.CanonicalType),
	}
}

// Compile turns a graph document into an immutable Program, or returns an
// ErrorList carrying every diagnostic from every analysis pass. It never
// partially succeeds: a non-nil Program means zero diagnostics.
//
// The analysis passes (normalization, type graph, time topology, cycle
// validation) always all run, accumulating violations. Lowering runs only on
// a clean analysis; a broken graph would just cascade noise through it.
func Compile(doc *graph.Document, reg *graph.Registry) (*ir.Program, error) {
	c := newCompilation(doc, reg)

	c.normalize()
	c.checkTypes()
	c.checkTime()
	c.checkCycles()

	var prog *ir.Program
	if c.diags.empty() {
		var err error
		prog, err = c.lower()
		if err != nil {
			// Orchestrator contract violations (a block library emitting a
			// malformed effects description) are programming errors, not
			// graph diagnostics.
			return nil, fmt.Errorf("lowering: %w", err)
		}
	}

	if !c.diags.empty() {
		c.diags.list.Sort()
		return nil, c.diags.list
	}

	prog.Name = c.doc.Name
	prog.Time = c.time
	prog.Instances = c.instances

	hash, err := ir.ProgramHash(prog)
	if err != nil {
		return nil, fmt.Errorf("hashing program: %w", err)
	}
	prog.Hash = hash

	slog.Debug("compiled program",
		"name", prog.Name,
		"hash", prog.Hash,
		"exprs", len(prog.Exprs),
		"slots", len(prog.Slots),
		"steps", len(prog.Schedule))

	return prog, nil
}
