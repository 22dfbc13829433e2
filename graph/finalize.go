package graph

import "sort"

// Finalize assigns ExecOrder to every module reachable from entries by a
// depth-first post-order traversal over static edges only, breaking ties
// by source order. This is the Go version of the memoized DFS level
// calculation in the teacher's app/plugin_topology.go (memo/visiting maps
// over a dependency graph), adapted from "assign a level per node" to
// "assign a post-order index per node".
func Finalize(g *ModuleGraph, entries []*Module) {
	order := 0
	visited := make(map[string]bool)
	visiting := make(map[string]bool) // cycle guard: a module mid-DFS is skipped, not revisited

	// Entries are DFS'd in a deterministic order themselves so repeated
	// finalize passes over identical input are reproducible.
	sortedEntries := append([]*Module(nil), entries...)
	sort.Slice(sortedEntries, func(i, j int) bool { return sortedEntries[i].ID < sortedEntries[j].ID })

	var visit func(m *Module)
	visit = func(m *Module) {
		if m == nil || visited[m.ID] || visiting[m.ID] {
			return
		}
		visiting[m.ID] = true

		children := g.DependenciesOf(m)
		sort.SliceStable(children, func(i, j int) bool {
			return sourceOrder(m, children[i].ID) < sourceOrder(m, children[j].ID)
		})
		for _, child := range children {
			visit(child)
		}

		visiting[m.ID] = false
		visited[m.ID] = true
		m.ExecOrder = order
		order++
	}

	for _, e := range sortedEntries {
		visit(e)
	}
}

// sourceOrder returns the position at which parent's dependency list
// references childID, used to break ties between sibling static imports
// in the order they appear in the source file.
func sourceOrder(parent *Module, childID string) int {
	for _, dep := range parent.Dependencies {
		if dep.ResolvedID != nil && dep.ResolvedID.ID == childID {
			return dep.Order
		}
	}
	return 0
}
