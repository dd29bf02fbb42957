package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

const demoGraph = `
graph: {
	name: "pulse-ring"
	blocks: {
		t: {
			type: "time.root"
			params: { mode: "cyclic", period_ms: 1000 }
		}
		osc: { type: "wave.sine" }
		ring: {
			type: "field.particles"
			params: { count: 16, layout: "ring" }
		}
	}
	edges: [
		{ from: "t.phase", to: "osc.phase" },
		{ from: "osc.out", to: "ring.radius", order: 2 },
	]
}
`

func TestLoadSource_ParsesDocument(t *testing.T) {
	doc, err := LoadSource("demo", demoGraph)
	require.NoError(t, err)

	assert.Equal(t, "pulse-ring", doc.Name, "name in document wins over file name")
	require.Len(t, doc.Blocks, 3)

	// Blocks sorted by id.
	assert.Equal(t, "osc", doc.Blocks[0].ID)
	assert.Equal(t, "ring", doc.Blocks[1].ID)
	assert.Equal(t, "t", doc.Blocks[2].ID)

	tb := doc.BlockByID("t")
	require.NotNil(t, tb)
	assert.Equal(t, "time.root", tb.Type)
	assert.Equal(t, ir.String("cyclic"), tb.Param("mode"))
	assert.Equal(t, ir.Number(1000), tb.Param("period_ms"))
	assert.Nil(t, tb.Param("missing"))

	require.Len(t, doc.Edges, 2)
	assert.Equal(t, Edge{From: PortRef{"t", "phase"}, To: PortRef{"osc", "phase"}}, doc.Edges[0])
	assert.Equal(t, 2, doc.Edges[1].Order)
}

func TestLoadSource_ListAndBoolParams(t *testing.T) {
	doc, err := LoadSource("g", `
graph: {
	blocks: {
		c: {
			type: "const"
			params: { value: [1.0, 0.5, 0.25], loop: true }
		}
	}
}
`)
	require.NoError(t, err)
	c := doc.BlockByID("c")
	require.NotNil(t, c)
	assert.Equal(t, ir.List{ir.Number(1), ir.Number(0.5), ir.Number(0.25)}, c.Param("value"))
	assert.Equal(t, ir.Boolean(true), c.Param("loop"))
}

func TestLoadSource_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"no_graph", `foo: 1`, "no top-level graph"},
		{"no_blocks", `graph: { edges: [] }`, "blocks struct is required"},
		{"empty_blocks", `graph: { blocks: {} }`, "declares no blocks"},
		{"missing_type", `graph: { blocks: { a: { params: {} } } }`, "type is required"},
		{"bad_edge_ref", `graph: { blocks: { a: { type: "const" } }, edges: [ { from: "a", to: "b.in" } ] }`, "invalid port reference"},
		{"missing_edge_to", `graph: { blocks: { a: { type: "const" } }, edges: [ { from: "a.out" } ] }`, "from and to are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSource("g", tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadSource_CUESyntaxError(t *testing.T) {
	_, err := LoadSource("g", `graph: { blocks: { a: { type: } } }`)
	require.Error(t, err)
}
