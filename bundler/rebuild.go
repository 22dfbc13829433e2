package bundler

import (
	"context"

	"github.com/google/uuid"

	"github.com/go-lynx/bundler/graph"
	"github.com/go-lynx/bundler/task"
)

// Rebuild invalidates changedURI and every module transitively depending
// on it (the reverse-dependency closure), then re-runs the spawn-and-
// drain protocol seeded with the invalidated set. Returns the URIs that
// were rebuilt. Per spec.md §4.4 and §9's resolution of the "rebuild
// invalidation depth" open question in favor of the principled
// reverse-dependency closure.
func (b *Bundler) Rebuild(ctx context.Context, changedURI string) ([]string, error) {
	rebuildID := uuid.NewString()
	b.logger.Infof("rebuild %s: changed %s", rebuildID, changedURI)

	invalidated := b.invalidationClosure(changedURI)

	// Reuse the Context (visited-set, in-flight counter, result channel,
	// worker pool) from the most recent Build rather than starting over:
	// the rest of the visited-set survives a rebuild, per spec.md §3 and
	// §4.4 step 2. A Rebuild with no prior Build behaves like a first
	// build over just the invalidated set.
	if b.tctx == nil {
		b.tctx = task.NewContext(b.driver, b.parser, task.NewPool(b.opts.MaxWorkers), b.opts.ResolverDedup, b.logger, b.metric)
	}
	tctx := b.tctx
	errs := make(map[string][]error)

	for _, uri := range invalidated {
		b.graph.Invalidate(uri)
		// Step 2: remove invalidated URIs from the visited-set so their
		// reseeded Task is treated as newly discovered rather than a
		// duplicate spawn attempt; unrelated URIs (e.g. a shared,
		// unchanged dependency) stay visited and are not re-spawned.
		tctx.Forget(uri)
	}

	type seed struct {
		rid     *graph.ResolvedId
		isEntry bool
	}
	var seeds []seed
	for _, uri := range invalidated {
		isEntry := b.entryURIs[uri]
		rid, err := b.driver.ResolveID(ctx, uri, "", isEntry)
		if err != nil {
			errs[uri] = append(errs[uri], err)
			continue
		}
		if rid == nil || rid.External || rid.Ignored {
			continue
		}
		seeds = append(seeds, seed{rid: rid, isEntry: isEntry})
	}
	for _, s := range seeds {
		tctx.Spawn(ctx, s.rid, s.isEntry)
	}

	if err := b.drain(ctx, tctx, errs); err != nil {
		return nil, err
	}

	var entries []*graph.Module
	for _, m := range b.graph.All() {
		if m.IsEntry {
			entries = append(entries, m)
		}
	}
	graph.Finalize(b.graph, entries)

	rebuilt := make([]string, 0, len(invalidated))
	for _, uri := range invalidated {
		if b.graph.ModuleByID(uri) != nil {
			rebuilt = append(rebuilt, uri)
		}
	}
	b.logger.Infof("rebuild %s: finished, %d uris rebuilt", rebuildID, len(rebuilt))
	return rebuilt, nil
}

// invalidationClosure returns changedURI plus every module that
// transitively depends on it (reverse BFS over the current graph).
func (b *Bundler) invalidationClosure(changedURI string) []string {
	seen := map[string]bool{changedURI: true}
	queue := []string{changedURI}
	order := []string{changedURI}

	for len(queue) > 0 {
		uri := queue[0]
		queue = queue[1:]
		for _, dependent := range b.graph.ReverseDependenciesOf(uri) {
			if seen[dependent.ID] {
				continue
			}
			seen[dependent.ID] = true
			queue = append(queue, dependent.ID)
			order = append(order, dependent.ID)
		}
	}
	return order
}
