package compiler

import (
	"strings"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

// checkTime validates the time topology: exactly one time-root block, which
// supplies the single global time model every canonical time read derives
// from.
func (c *compilation) checkTime() {
	var roots []string
	for i := range c.doc.Blocks {
		b := &c.doc.Blocks[i]
		spec, ok := c.specs[b.ID]
		if ok && spec.TimeRoot {
			roots = append(roots, b.ID)
		}
	}

	switch len(roots) {
	case 0:
		c.diags.add(ErrMissingTimeRoot, "", "", "graph has no time-root block")
		return
	case 1:
	default:
		c.diags.add(ErrMultipleTimeRoots, "", "",
			"graph has %d time-root blocks (%s); exactly one is required",
			len(roots), strings.Join(roots, ", "))
		return
	}

	root := c.doc.BlockByID(roots[0])
	spec := c.specs[root.ID]
	if spec.TimeModel == nil {
		c.time = ir.TimeModel{Kind: ir.TimeInfinite}
		return
	}
	model, err := spec.TimeModel(root.Params)
	if err != nil {
		c.diags.add(ErrBadParam, root.ID, "", "%v", err)
		return
	}
	c.time = model
}
