package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

// PortRef names one port of one block, e.g. {Block: "osc", Port: "phase"}.
type PortRef struct {
	Block string `json:"block"`
	Port  string `json:"port"`
}

// String renders the "block.port" form used in graph documents.
func (r PortRef) String() string { return r.Block + "." + r.Port }

// ParsePortRef parses the "block.port" form. Block ids may not contain dots.
func ParsePortRef(s string) (PortRef, error) {
	idx := strings.Index(s, ".")
	if idx <= 0 || idx == len(s)-1 {
		return PortRef{}, fmt.Errorf("invalid port reference %q: want \"block.port\"", s)
	}
	return PortRef{Block: s[:idx], Port: s[idx+1:]}, nil
}

// Block is an authored graph node: a typed block invocation with parameters.
type Block struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"`
	Params ir.Dict `json:"params,omitempty"`

	// Payload is the resolved payload for payload-generic block types.
	// Set during normalization; PayloadAny until then.
	Payload ir.Payload `json:"payload,omitempty"`

	// Synthetic marks blocks materialized by normalization (default sources
	// and adapters) rather than authored by the user.
	Synthetic bool `json:"synthetic,omitempty"`
}

// Param returns a named parameter, or nil when absent.
func (b *Block) Param(name string) ir.Value {
	if b.Params == nil {
		return nil
	}
	v, ok := b.Params[name]
	if !ok {
		return nil
	}
	return v
}

// Edge connects one output port to one input port. Order is the
// deterministic ordering key used to break ties when multiple writers feed
// one input; lower orders combine first.
type Edge struct {
	From  PortRef `json:"from"`
	To    PortRef `json:"to"`
	Order int     `json:"order,omitempty"`
}

// Document is a loaded graph: the unit the compiler consumes.
// Blocks are kept sorted by ID so compilation order never depends on
// map iteration or source ordering accidents.
type Document struct {
	Name   string  `json:"name"`
	Blocks []Block `json:"blocks"`
	Edges  []Edge  `json:"edges"`
}

// SortBlocks restores the sorted-by-ID invariant after insertion.
func (d *Document) SortBlocks() {
	sort.Slice(d.Blocks, func(i, j int) bool { return d.Blocks[i].ID < d.Blocks[j].ID })
}

// BlockByID returns a pointer to the named block, or nil.
func (d *Document) BlockByID(id string) *Block {
	for i := range d.Blocks {
		if d.Blocks[i].ID == id {
			return &d.Blocks[i]
		}
	}
	return nil
}

// AddBlock inserts a block and re-sorts. Errors on duplicate id.
func (d *Document) AddBlock(b Block) error {
	if d.BlockByID(b.ID) != nil {
		return fmt.Errorf("duplicate block id %q", b.ID)
	}
	d.Blocks = append(d.Blocks, b)
	d.SortBlocks()
	return nil
}

// EdgesInto returns the edges targeting one input port, sorted by the
// deterministic ordering key (Order, then source block id, then source port).
func (d *Document) EdgesInto(to PortRef) []Edge {
	var edges []Edge
	for _, e := range d.Edges {
		if e.To == to {
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if a.From.Block != b.From.Block {
			return a.From.Block < b.From.Block
		}
		return a.From.Port < b.From.Port
	})
	return edges
}

// Canonical converts the document to a canonical-JSON-able Dict for
// content hashing (ir.GraphHash).
func (d *Document) Canonical() ir.Dict {
	blocks := make(ir.Dict, len(d.Blocks))
	for _, b := range d.Blocks {
		entry := ir.Dict{"type": ir.String(b.Type)}
		if len(b.Params) > 0 {
			entry["params"] = b.Params
		}
		blocks[b.ID] = entry
	}
	edges := make(ir.List, len(d.Edges))
	for i, e := range d.Edges {
		edges[i] = ir.Dict{
			"from":  ir.String(e.From.String()),
			"to":    ir.String(e.To.String()),
			"order": ir.Number(e.Order),
		}
	}
	return ir.Dict{
		"name":   ir.String(d.Name),
		"blocks": blocks,
		"edges":  edges,
	}
}
