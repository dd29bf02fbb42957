package graph

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

// LoadError is a graph-document loading failure with CUE position info.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadFile loads a graph document from a .cue file.
//
// Expected shape:
//
//	graph: {
//		name?: string
//		blocks: { <id>: { type: string, params?: {...} } }
//		edges: [ { from: "blk.port", to: "blk.port", order?: int }, ... ]
//	}
func LoadFile(path string) (*Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return LoadSource(name, string(src))
}

// LoadSource compiles CUE source text and parses the graph document in it.
func LoadSource(name, src string) (*Document, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	graphVal := v.LookupPath(cue.ParsePath("graph"))
	if !graphVal.Exists() {
		return nil, &LoadError{Field: "graph", Message: "document has no top-level graph struct", Pos: v.Pos()}
	}
	return LoadValue(name, graphVal)
}

// LoadValue parses a graph document from a CUE value (the graph struct).
func LoadValue(name string, v cue.Value) (*Document, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	doc := &Document{Name: name}

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		n, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		doc.Name = n
	}

	blocks, err := parseBlocks(v)
	if err != nil {
		return nil, err
	}
	doc.Blocks = blocks
	doc.SortBlocks()

	edges, err := parseEdges(v)
	if err != nil {
		return nil, err
	}
	doc.Edges = edges

	if len(doc.Blocks) == 0 {
		return nil, &LoadError{Field: "blocks", Message: "graph declares no blocks", Pos: v.Pos()}
	}

	return doc, nil
}

func parseBlocks(v cue.Value) ([]Block, error) {
	blocksVal := v.LookupPath(cue.ParsePath("blocks"))
	if !blocksVal.Exists() {
		return nil, &LoadError{Field: "blocks", Message: "blocks struct is required", Pos: v.Pos()}
	}

	iter, err := blocksVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var blocks []Block
	for iter.Next() {
		id := iter.Label()
		blockVal := iter.Value()

		typeVal := blockVal.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return nil, &LoadError{Field: "blocks." + id, Message: "type is required", Pos: blockVal.Pos()}
		}
		typeTag, err := typeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		block := Block{ID: id, Type: typeTag, Payload: ir.PayloadAny}

		if paramsVal := blockVal.LookupPath(cue.ParsePath("params")); paramsVal.Exists() {
			params, err := parseParams(id, paramsVal)
			if err != nil {
				return nil, err
			}
			block.Params = params
		}

		blocks = append(blocks, block)
	}
	return blocks, nil
}

func parseParams(blockID string, v cue.Value) (ir.Dict, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	params := make(ir.Dict)
	for iter.Next() {
		key := iter.Label()
		val, err := cueToValue(iter.Value())
		if err != nil {
			return nil, &LoadError{
				Field:   fmt.Sprintf("blocks.%s.params.%s", blockID, key),
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		params[key] = val
	}
	return params, nil
}

// cueToValue converts a concrete CUE value into an ir.Value.
// Only the kinds a block parameter may hold are supported.
func cueToValue(v cue.Value) (ir.Value, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		return ir.String(s), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, err
		}
		return ir.Boolean(b), nil
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return ir.Number(f), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		var list ir.List
		for iter.Next() {
			elem, err := cueToValue(iter.Value())
			if err != nil {
				return nil, err
			}
			list = append(list, elem)
		}
		return list, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, err
		}
		dict := make(ir.Dict)
		for iter.Next() {
			elem, err := cueToValue(iter.Value())
			if err != nil {
				return nil, err
			}
			dict[iter.Label()] = elem
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported parameter kind %s", v.Kind())
	}
}

func parseEdges(v cue.Value) ([]Edge, error) {
	edgesVal := v.LookupPath(cue.ParsePath("edges"))
	if !edgesVal.Exists() {
		return nil, nil // a graph of unconnected defaulted blocks is legal
	}

	iter, err := edgesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var edges []Edge
	idx := 0
	for iter.Next() {
		edgeVal := iter.Value()
		edge, err := parseEdge(idx, edgeVal)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
		idx++
	}
	return edges, nil
}

func parseEdge(idx int, v cue.Value) (Edge, error) {
	fromVal := v.LookupPath(cue.ParsePath("from"))
	toVal := v.LookupPath(cue.ParsePath("to"))
	if !fromVal.Exists() || !toVal.Exists() {
		return Edge{}, &LoadError{
			Field:   fmt.Sprintf("edges[%d]", idx),
			Message: "from and to are required",
			Pos:     v.Pos(),
		}
	}

	fromStr, err := fromVal.String()
	if err != nil {
		return Edge{}, formatCUEError(err)
	}
	toStr, err := toVal.String()
	if err != nil {
		return Edge{}, formatCUEError(err)
	}

	from, err := ParsePortRef(fromStr)
	if err != nil {
		return Edge{}, &LoadError{Field: fmt.Sprintf("edges[%d].from", idx), Message: err.Error(), Pos: fromVal.Pos()}
	}
	to, err := ParsePortRef(toStr)
	if err != nil {
		return Edge{}, &LoadError{Field: fmt.Sprintf("edges[%d].to", idx), Message: err.Error(), Pos: toVal.Pos()}
	}

	edge := Edge{From: from, To: to}
	if orderVal := v.LookupPath(cue.ParsePath("order")); orderVal.Exists() {
		order, err := orderVal.Int64()
		if err != nil {
			return Edge{}, formatCUEError(err)
		}
		edge.Order = int(order)
	}
	return edge, nil
}

// formatCUEError converts a CUE error into a LoadError carrying the first
// available source position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &LoadError{Field: "cue", Message: firstErr.Error(), Pos: positions[0]}
	}
	return &LoadError{Field: "cue", Message: firstErr.Error()}
}
