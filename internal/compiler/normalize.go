package compiler

import (
	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// normalize produces a graph where every input port has at least one writer
// and every port type is concretely resolvable. Sub-passes, in order:
//
//	(a)  resolve payload-generic blocks from edge context
//	(b)  materialize default-source blocks for unconnected defaulted inputs
//	(a') re-resolve the new generics from the TARGET port's declared type -
//	     an explicit second phase, not an accidental re-run: the synthetic
//	     sources have no edge context to infer from
//	     declare instances and infer per-block instance contexts
//	(c)  insert adapters, matched purely on CanonicalType patterns
func (c *compilation) normalize() {
	c.resolveSpecs()
	c.pruneDanglingEdges()
	c.resolvePayloads()
	c.materializeDefaults()
	c.declareInstances()
	c.resolveOverrides()
	c.inferContexts()
	c.insertAdapters()
}

func (c *compilation) resolveSpecs() {
	for i := range c.doc.Blocks {
		b := &c.doc.Blocks[i]
		spec, ok := c.reg.Lookup(b.Type)
		if !ok {
			c.diags.add(ErrUnknownBlockType, b.ID, "", "unknown block type %q", b.Type)
			continue
		}
		c.specs[b.ID] = spec
	}
}

// pruneDanglingEdges drops edges whose endpoints do not exist so later
// passes can trust every edge. Edges touching unknown-type blocks are
// dropped silently; the UnknownBlockType diagnostic already covers them.
func (c *compilation) pruneDanglingEdges() {
	kept := c.doc.Edges[:0]
	for _, e := range c.doc.Edges {
		if !c.validEndpoint(e.From, false) || !c.validEndpoint(e.To, true) {
			continue
		}
		kept = append(kept, e)
	}
	c.doc.Edges = kept
}

func (c *compilation) validEndpoint(ref graph.PortRef, isInput bool) bool {
	b := c.doc.BlockByID(ref.Block)
	if b == nil {
		c.diags.add(ErrDanglingReference, ref.Block, ref.Port,
			"edge references non-existent block %q", ref.Block)
		return false
	}
	spec, ok := c.specs[b.ID]
	if !ok {
		return false // unknown type already diagnosed
	}
	if isInput {
		if _, ok := spec.Input(ref.Port); !ok {
			c.diags.add(ErrDanglingReference, ref.Block, ref.Port,
				"block type %q has no input port %q", b.Type, ref.Port)
			return false
		}
	} else {
		if _, ok := spec.Output(ref.Port); !ok {
			c.diags.add(ErrDanglingReference, ref.Block, ref.Port,
				"block type %q has no output port %q", b.Type, ref.Port)
			return false
		}
	}
	return true
}

// resolvePayloads runs payload inference to a fixpoint: a concrete payload
// on either side of an edge resolves a payload-generic block on the other
// side. Payload-generic ports declare PayloadAny; anything else is concrete.
func (c *compilation) resolvePayloads() {
	// Explicit seeds win over inference.
	for i := range c.doc.Blocks {
		b := &c.doc.Blocks[i]
		spec, ok := c.specs[b.ID]
		if !ok || !spec.GenericPayload {
			continue
		}
		if b.Payload != "" && b.Payload != ir.PayloadAny {
			c.payloads[b.ID] = b.Payload
			continue
		}
		if raw := b.Param("payload"); raw != nil {
			name, err := ir.AsString(raw)
			if err != nil {
				c.diags.add(ErrBadParam, b.ID, "", "param \"payload\": %v", err)
				continue
			}
			p := ir.Payload(name)
			if p.Stride() == 0 {
				c.diags.add(ErrBadParam, b.ID, "", "unknown payload %q", name)
				continue
			}
			c.payloads[b.ID] = p
		}
	}

	for changed := true; changed; {
		changed = false
		for _, e := range c.doc.Edges {
			src := c.portPayload(e.From, false)
			dst := c.portPayload(e.To, true)
			if src != ir.PayloadAny && dst == ir.PayloadAny {
				if c.seedPayload(e.To.Block, src) {
					changed = true
				}
			}
			if dst != ir.PayloadAny && src == ir.PayloadAny {
				if c.seedPayload(e.From.Block, dst) {
					changed = true
				}
			}
		}
	}
}

// portPayload returns the effective payload a port declares: the concrete
// spec payload, or the block's resolved payload when the port is generic.
func (c *compilation) portPayload(ref graph.PortRef, isInput bool) ir.Payload {
	spec, ok := c.specs[ref.Block]
	if !ok {
		return ir.PayloadAny
	}
	var port graph.PortSpec
	if isInput {
		port, _ = spec.Input(ref.Port)
	} else {
		port, _ = spec.Output(ref.Port)
	}
	if port.Type.Payload != ir.PayloadAny {
		return port.Type.Payload
	}
	if p, ok := c.payloads[ref.Block]; ok {
		return p
	}
	return ir.PayloadAny
}

func (c *compilation) seedPayload(blockID string, p ir.Payload) bool {
	spec, ok := c.specs[blockID]
	if !ok || !spec.GenericPayload {
		return false
	}
	if _, resolved := c.payloads[blockID]; resolved {
		return false
	}
	c.payloads[blockID] = p
	return true
}

// materializeDefaults creates a synthetic constant source for every
// unconnected input port that declares a default, and wires it in with a
// normal edge. The synthetic block's payload comes from the target port's
// declared type (phase a'), never from edge inference; a default wired to a
// still-generic target is ineligible rather than chased through chains.
func (c *compilation) materializeDefaults() {
	ids := make([]string, 0, len(c.doc.Blocks))
	for _, b := range c.doc.Blocks {
		ids = append(ids, b.ID)
	}

	for _, id := range ids {
		spec, ok := c.specs[id]
		if !ok {
			continue
		}
		for _, port := range spec.Inputs {
			ref := graph.PortRef{Block: id, Port: port.Name}
			if len(c.doc.EdgesInto(ref)) > 0 {
				continue
			}
			if port.Default == nil {
				if !port.Optional {
					c.diags.add(ErrDanglingReference, id, port.Name,
						"required input is unconnected and declares no default")
				}
				continue
			}
			c.materializeDefault(id, port)
		}
	}
}

func (c *compilation) materializeDefault(blockID string, port graph.PortSpec) {
	if port.Type.Extent.Temporality.Discrete {
		c.diags.add(ErrIneligibleDefault, blockID, port.Name,
			"event ports cannot take a constant default")
		return
	}

	payload := port.Type.Payload
	if payload == ir.PayloadAny {
		// One level of re-resolution only: a generic port on a resolved
		// generic block is fine, an unresolved chain is not.
		p, ok := c.payloads[blockID]
		if !ok {
			c.diags.add(ErrIneligibleDefault, blockID, port.Name,
				"default target port is payload-generic and unresolved")
			return
		}
		payload = p
	}
	if payload.Class() != ir.ClassNumeric {
		c.diags.add(ErrIneligibleDefault, blockID, port.Name,
			"cannot default a %s-class port with a constant", payload.Class())
		return
	}

	constSpec, ok := c.reg.Lookup("const")
	if !ok {
		c.diags.add(ErrIneligibleDefault, blockID, port.Name,
			"registry has no constant source block type")
		return
	}

	synthID := blockID + "." + port.Name + ".default"
	synth := graph.Block{
		ID:        synthID,
		Type:      "const",
		Params:    ir.Dict{"value": port.Default},
		Payload:   payload,
		Synthetic: true,
	}
	if err := c.doc.AddBlock(synth); err != nil {
		c.diags.add(ErrIneligibleDefault, blockID, port.Name, "%v", err)
		return
	}
	c.specs[synthID] = constSpec
	c.payloads[synthID] = payload
	c.doc.Edges = append(c.doc.Edges, graph.Edge{
		From: graph.PortRef{Block: synthID, Port: "out"},
		To:   graph.PortRef{Block: blockID, Port: port.Name},
	})
}

// declareInstances invokes each instance-declaring block once, in block-id
// order, so instance ids are stable across compiles of the same document.
func (c *compilation) declareInstances() {
	for i := range c.doc.Blocks {
		b := &c.doc.Blocks[i]
		spec, ok := c.specs[b.ID]
		if !ok || spec.DeclareInstance == nil {
			continue
		}
		decl, err := spec.DeclareInstance(b.Params)
		if err != nil {
			c.diags.add(ErrBadParam, b.ID, "", "%v", err)
			continue
		}
		id := ir.InstanceID(len(c.instances) + 1)
		c.instances = append(c.instances, ir.Instance{
			ID:     id,
			Domain: decl.Domain,
			Count:  decl.Count,
			Layout: decl.Layout,
		})
		c.instOf[b.ID] = id
		c.instCount[id] = decl.Count
	}
}

func (c *compilation) resolveOverrides() {
	for i := range c.doc.Blocks {
		b := &c.doc.Blocks[i]
		spec, ok := c.specs[b.ID]
		if !ok || spec.OutputTypes == nil {
			continue
		}
		ov, err := spec.OutputTypes(b.Params)
		if err != nil {
			c.diags.add(ErrBadParam, b.ID, "", "%v", err)
			continue
		}
		if ov != nil {
			c.overrides[b.ID] = ov
		}
	}
}

// inferContexts propagates instance contexts along edges to a fixpoint and
// records the substituted type of every output port. A block's context is
// its own declared instance, or the instance carried by any field-typed
// input; two different instances meeting at one block have no conversion
// path between their populations.
func (c *compilation) inferContexts() {
	conflicted := make(map[string]bool)

	for changed := true; changed; {
		changed = false
		c.recomputeOutTypes()
		for _, e := range c.doc.Edges {
			t, ok := c.outTypes[e.From]
			if !ok || !t.TryField() {
				continue
			}
			dstSpec := c.specs[e.To.Block]
			if dstSpec == nil {
				continue
			}
			port, ok := dstSpec.Input(e.To.Port)
			if !ok {
				continue
			}
			// A strictly-one port reduces the field instead of adopting
			// its instance; only field-accepting ports set the context.
			if card := port.Type.Extent.Cardinality; card.Var == 0 && !card.Many {
				continue
			}
			inst := t.Extent.Cardinality.Instance
			dst := e.To.Block
			switch current := c.instOf[dst]; {
			case current == 0:
				c.instOf[dst] = inst
				changed = true
			case current != inst && !conflicted[dst]:
				conflicted[dst] = true
				c.diags.add(ErrNoConversionPath, dst, e.To.Port,
					"fields over different instances (%d and %d) meet at one block",
					current, inst)
			}
		}
	}
}

func (c *compilation) recomputeOutTypes() {
	for i := range c.doc.Blocks {
		b := &c.doc.Blocks[i]
		spec, ok := c.specs[b.ID]
		if !ok {
			continue
		}
		for _, port := range spec.Outputs {
			ref := graph.PortRef{Block: b.ID, Port: port.Name}
			c.outTypes[ref] = c.substituteOutput(b.ID, port)
		}
	}
}

// substituteOutput instantiates a declared output port type against the
// block's resolved payload and instance context.
func (c *compilation) substituteOutput(blockID string, port graph.PortSpec) ir.CanonicalType {
	if ov := c.overrides[blockID]; ov != nil {
		if t, ok := ov[port.Name]; ok {
			return t
		}
	}
	return c.substitute(blockID, port.Type)
}

// substituteInput instantiates a declared input port type; this is the type
// an edge's destination expects. Cardinality variables are deliberately kept:
// a flexible port accepts either extent without an adapter (the evaluator
// broadcasts signal operands lane-wise), so only strictly-many placeholder
// instances resolve here.
func (c *compilation) substituteInput(blockID string, port graph.PortSpec) ir.CanonicalType {
	t := port.Type
	if t.Payload == ir.PayloadAny {
		if p, ok := c.payloads[blockID]; ok {
			t.Payload = p
		}
	}
	card := &t.Extent.Cardinality
	if card.Var == 0 && card.Many && card.Instance == 0 {
		card.Instance = c.instOf[blockID]
	}
	return t
}

func (c *compilation) substitute(blockID string, t ir.CanonicalType) ir.CanonicalType {
	if t.Payload == ir.PayloadAny {
		if p, ok := c.payloads[blockID]; ok {
			t.Payload = p
		}
	}
	inst := c.instOf[blockID]
	card := &t.Extent.Cardinality
	switch {
	case card.Var != 0:
		// Cardinality-flexible port: a field in context, a signal otherwise.
		card.Var = 0
		if inst != 0 {
			card.Many = true
			card.Instance = inst
		}
	case card.Many && card.Instance == 0:
		// Strictly-many port with a placeholder instance reference.
		card.Instance = inst
	}
	return t
}

// insertAdapters rewires every type-mismatched edge through a synthetic
// adapter block when a single registered conversion exists. Mismatches with
// no conversion path are left in place for the type-graph pass to report;
// this pass only inserts, it never diagnoses.
func (c *compilation) insertAdapters() {
	edges := append([]graph.Edge(nil), c.doc.Edges...)
	rewired := c.doc.Edges[:0]

	for _, e := range edges {
		srcT, okSrc := c.outTypes[e.From]
		dstSpec := c.specs[e.To.Block]
		if !okSrc || dstSpec == nil {
			rewired = append(rewired, e)
			continue
		}
		port, _ := dstSpec.Input(e.To.Port)
		dstT := c.substituteInput(e.To.Block, port)

		tag, ok := conversion(srcT, dstT)
		if !ok || tag == "" {
			rewired = append(rewired, e)
			continue
		}
		adapted, ok := c.insertAdapter(e, srcT, dstT, tag)
		if !ok {
			rewired = append(rewired, e)
			continue
		}
		rewired = append(rewired, adapted...)
	}
	c.doc.Edges = rewired
}

func (c *compilation) insertAdapter(e graph.Edge, srcT, dstT ir.CanonicalType, tag string) ([]graph.Edge, bool) {
	spec, ok := c.reg.Lookup(tag)
	if !ok {
		return nil, false // type graph reports the remaining mismatch
	}

	id := e.To.Block + "." + e.To.Port + ".adapt." + e.From.Block + "." + e.From.Port
	synth := graph.Block{ID: id, Type: tag, Payload: srcT.Payload, Synthetic: true}
	if err := c.doc.AddBlock(synth); err != nil {
		return nil, false
	}
	c.specs[id] = spec
	c.payloads[id] = srcT.Payload

	var outT ir.CanonicalType
	switch tag {
	case "adapt.broadcast":
		inst := dstT.Extent.Cardinality.Instance
		c.instOf[id] = inst
		outT = ir.Field(srcT.Payload, srcT.Unit, inst)
	case "adapt.reduce":
		outT = ir.Signal(srcT.Payload, srcT.Unit)
	default:
		// Unit adapters preserve extent.
		outT = srcT
		outT.Unit = dstT.Unit
		if srcT.TryField() {
			c.instOf[id] = srcT.Extent.Cardinality.Instance
		}
	}
	c.outTypes[graph.PortRef{Block: id, Port: "out"}] = outT

	return []graph.Edge{
		{From: e.From, To: graph.PortRef{Block: id, Port: "in"}},
		{From: graph.PortRef{Block: id, Port: "out"}, To: e.To, Order: e.Order},
	}, true
}
