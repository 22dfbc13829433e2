package graph

import (
	"sync"

	"github.com/go-lynx/bundler/bundlererr"
)

// ModuleGraph accumulates finished modules for one build, keyed by URI.
// It is written only by the coordinator (single consumer, per spec.md
// §5's "ModuleGraph is written only by the coordinator") and read freely
// after quiescence; the mutex below guards the rebuild path, which may
// invalidate entries concurrently with reads from a previous build's
// consumers.
type ModuleGraph struct {
	mu sync.RWMutex

	modules map[string]*Module
	// reverse maps a URI to the URIs of modules that depend on it,
	// maintained incrementally on Insert so reverse_dependencies_of is
	// O(1) rather than a full scan. Grounded on the teacher's adjacency-
	// list DependencyGraph in app/plugin_topology.go.
	reverse map[string]map[string]struct{}
}

// New returns an empty ModuleGraph.
func New() *ModuleGraph {
	return &ModuleGraph{
		modules: make(map[string]*Module),
		reverse: make(map[string]map[string]struct{}),
	}
}

// Insert adds a finished module to the graph. Duplicate insertion of the
// same URI is an invariant violation: spec.md §3 guarantees a URI appears
// at most once as a key in the graph during a single build.
func (g *ModuleGraph) Insert(m *Module) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.modules[m.ID]; exists {
		return bundlererr.Fatal(bundlererr.InvariantViolation,
			"duplicate module insertion for "+m.ID, nil)
	}
	g.modules[m.ID] = m

	for _, dep := range m.Dependencies {
		if dep.ResolvedID == nil || dep.ResolvedID.External || dep.ResolvedID.Ignored {
			continue
		}
		g.addReverseEdge(dep.ResolvedID.ID, m.ID)
	}
	for _, dep := range m.DynImports {
		if dep.ResolvedID == nil || dep.ResolvedID.External || dep.ResolvedID.Ignored {
			continue
		}
		g.addReverseEdge(dep.ResolvedID.ID, m.ID)
	}
	return nil
}

func (g *ModuleGraph) addReverseEdge(dependeeURI, dependentURI string) {
	set, ok := g.reverse[dependeeURI]
	if !ok {
		set = make(map[string]struct{})
		g.reverse[dependeeURI] = set
	}
	set[dependentURI] = struct{}{}
}

// ModuleByID returns the module for id, or nil if absent.
func (g *ModuleGraph) ModuleByID(id string) *Module {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.modules[id]
}

// Len returns the number of finished modules in the graph.
func (g *ModuleGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.modules)
}

// All returns every module in the graph; order is unspecified.
func (g *ModuleGraph) All() []*Module {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Module, 0, len(g.modules))
	for _, m := range g.modules {
		out = append(out, m)
	}
	return out
}

// DependenciesOf returns the finished, non-external, non-dynamic
// dependencies of m, i.e. the static edges finalize traverses.
func (g *ModuleGraph) DependenciesOf(m *Module) []*Module {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.resolveStaticLocked(m)
}

func (g *ModuleGraph) resolveStaticLocked(m *Module) []*Module {
	out := make([]*Module, 0, len(m.Dependencies))
	for _, dep := range m.Dependencies {
		if dep.ResolvedID == nil || dep.ResolvedID.External || dep.ResolvedID.Ignored {
			continue
		}
		if dm, ok := g.modules[dep.ResolvedID.ID]; ok {
			out = append(out, dm)
		}
	}
	return out
}

// DynamicDependenciesOf returns the finished dynamic-import targets of m.
func (g *ModuleGraph) DynamicDependenciesOf(m *Module) []*Module {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Module, 0, len(m.DynImports))
	for _, dep := range m.DynImports {
		if dep.ResolvedID == nil || dep.ResolvedID.External || dep.ResolvedID.Ignored {
			continue
		}
		if dm, ok := g.modules[dep.ResolvedID.ID]; ok {
			out = append(out, dm)
		}
	}
	return out
}

// ReverseDependenciesOf returns every module that depends (statically or
// dynamically) on id.
func (g *ModuleGraph) ReverseDependenciesOf(id string) []*Module {
	g.mu.RLock()
	defer g.mu.RUnlock()
	set := g.reverse[id]
	out := make([]*Module, 0, len(set))
	for uri := range set {
		if m, ok := g.modules[uri]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Invalidate removes id from the graph and its reverse index, used by
// rebuild to drop stale entries before re-running the spawn-and-drain
// protocol.
func (g *ModuleGraph) Invalidate(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.modules, id)
	delete(g.reverse, id)
	for _, set := range g.reverse {
		delete(set, id)
	}
}
