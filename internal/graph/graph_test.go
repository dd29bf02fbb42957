package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

func TestParsePortRef(t *testing.T) {
	ref, err := ParsePortRef("osc.phase")
	require.NoError(t, err)
	assert.Equal(t, PortRef{Block: "osc", Port: "phase"}, ref)
	assert.Equal(t, "osc.phase", ref.String())

	// Port names may themselves contain dots; the block id may not.
	ref, err = ParsePortRef("a.b.c")
	require.NoError(t, err)
	assert.Equal(t, PortRef{Block: "a", Port: "b.c"}, ref)

	for _, bad := range []string{"", "noport", ".port", "block."} {
		_, err := ParsePortRef(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestDocument_AddBlock(t *testing.T) {
	doc := &Document{Name: "g"}
	require.NoError(t, doc.AddBlock(Block{ID: "b", Type: "const"}))
	require.NoError(t, doc.AddBlock(Block{ID: "a", Type: "const"}))

	assert.Equal(t, "a", doc.Blocks[0].ID, "blocks stay sorted by id")
	assert.Error(t, doc.AddBlock(Block{ID: "a", Type: "other"}), "duplicate id")
}

func TestDocument_EdgesInto_DeterministicOrder(t *testing.T) {
	to := PortRef{Block: "mix", Port: "in"}
	doc := &Document{
		Edges: []Edge{
			{From: PortRef{"z", "out"}, To: to, Order: 0},
			{From: PortRef{"a", "out"}, To: to, Order: 1},
			{From: PortRef{"m", "out"}, To: to, Order: 0},
			{From: PortRef{"m", "aux"}, To: to, Order: 0},
			{From: PortRef{"x", "out"}, To: PortRef{"other", "in"}},
		},
	}

	edges := doc.EdgesInto(to)
	require.Len(t, edges, 4)

	// Sorted by (order, from block, from port) - never insertion order.
	assert.Equal(t, PortRef{"m", "aux"}, edges[0].From)
	assert.Equal(t, PortRef{"m", "out"}, edges[1].From)
	assert.Equal(t, PortRef{"z", "out"}, edges[2].From)
	assert.Equal(t, PortRef{"a", "out"}, edges[3].From)
}

func TestDocument_Canonical_StableHash(t *testing.T) {
	mkDoc := func() *Document {
		return &Document{
			Name: "demo",
			Blocks: []Block{
				{ID: "t", Type: "time.root", Params: ir.Dict{"mode": ir.String("cyclic"), "period_ms": ir.Number(1000)}},
				{ID: "w", Type: "wave.sine"},
			},
			Edges: []Edge{{From: PortRef{"t", "phase"}, To: PortRef{"w", "phase"}}},
		}
	}

	h1, err := ir.GraphHash(mkDoc().Canonical())
	require.NoError(t, err)
	h2, err := ir.GraphHash(mkDoc().Canonical())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	changed := mkDoc()
	changed.Edges[0].Order = 5
	h3, err := ir.GraphHash(changed.Canonical())
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3, "edge ordering keys are part of graph identity")
}
