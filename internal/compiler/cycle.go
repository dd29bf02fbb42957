package compiler

import (
	"sort"
	"strings"
)

// checkCycles runs strongly-connected-component analysis over the block
// dependency graph: one node per block, one edge per connection.
//
// A non-trivial SCC (size > 1, or a self-loop) is a feedback loop. Feedback
// is legal only when at least one member block is a declared state boundary:
// that block's output is previous-frame state, so nothing in the current
// frame actually depends on the current frame's write and the loop resolves
// under the one-frame-delay discipline. The boundary is an explicit spec
// flag, never inferred.
func (c *compilation) checkCycles() {
	deps := c.dependencyGraph()
	for _, scc := range tarjanSCC(deps) {
		if len(scc) == 1 && !hasSelfLoop(scc[0], deps) {
			continue
		}
		if c.hasStateBoundary(scc) {
			continue
		}
		path := reconstructCyclePath(scc, deps)
		c.diags.add(ErrIllegalCycle, scc[0], "",
			"feedback loop without a state boundary: %s", strings.Join(path, " -> "))
	}
}

// dependencyGraph maps block id to the blocks its outputs feed.
type dependencyGraph map[string][]string

func (c *compilation) dependencyGraph() dependencyGraph {
	deps := make(dependencyGraph, len(c.doc.Blocks))
	for i := range c.doc.Blocks {
		if _, ok := c.specs[c.doc.Blocks[i].ID]; ok {
			deps[c.doc.Blocks[i].ID] = nil
		}
	}
	for _, e := range c.doc.Edges {
		deps[e.From.Block] = append(deps[e.From.Block], e.To.Block)
	}
	return deps
}

func (c *compilation) hasStateBoundary(scc []string) bool {
	for _, id := range scc {
		if spec, ok := c.specs[id]; ok && spec.StateBoundary {
			return true
		}
	}
	return false
}

func hasSelfLoop(node string, deps dependencyGraph) bool {
	for _, n := range deps[node] {
		if n == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Roots are visited in sorted order so the SCC list is deterministic.
func tarjanSCC(deps dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range deps[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(deps))
	for node := range deps {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// reconstructCyclePath walks edges within one SCC from its first member
// back to itself, producing a readable a -> b -> a trace for the diagnostic.
func reconstructCyclePath(scc []string, deps dependencyGraph) []string {
	if len(scc) == 1 {
		return []string{scc[0], scc[0]}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range deps[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
