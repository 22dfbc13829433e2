// Package resolver implements the per-module DependencyIdResolver:
// a concurrent-safe cache of specifier -> ResolvedId for a single
// importer, delegating misses to the plugin driver's resolve_id hook.
package resolver

import (
	"context"
	"sync"

	"github.com/go-lynx/bundler/graph"
	"golang.org/x/sync/singleflight"
)

// Driver is the subset of *plugin.Driver the resolver needs, expressed
// as an interface so this package does not import plugin. No import cycle
// is at stake (plugin does not import this package); the interface keeps
// the dependency direction one-way and testable.
type Driver interface {
	ResolveID(ctx context.Context, specifier, importer string, isEntry bool) (*graph.ResolvedId, error)
}

// IDResolver amortizes repeated resolution of the same specifier within
// one module. It deliberately does not serialize cache misses by
// default: spec.md §4.2 treats resolve_id as pure over (specifier,
// importer), so two concurrent misses invoking the hook twice is
// considered harmless, and a coarse lock would serialize the hot path.
type IDResolver struct {
	driver   Driver
	moduleID string
	isEntry  bool
	cache    sync.Map // specifier -> *graph.ResolvedId
	dedup    bool
	flight   singleflight.Group
}

// New builds an IDResolver for one module. When dedup is true, cache
// misses are coalesced through a singleflight.Group keyed on the
// specifier instead of racing — the dedup primitive spec.md §9
// explicitly names as the tool to reach for if an implementation wants
// this, in preference to a coarse lock across the hook call.
func New(driver Driver, moduleID string, isEntry bool, dedup bool) *IDResolver {
	return &IDResolver{driver: driver, moduleID: moduleID, isEntry: isEntry, dedup: dedup}
}

// Resolve returns the ResolvedId for specifier, consulting the local
// cache first and the driver's resolve_id hook on a miss.
func (r *IDResolver) Resolve(ctx context.Context, specifier string) (*graph.ResolvedId, error) {
	if v, ok := r.cache.Load(specifier); ok {
		return v.(*graph.ResolvedId), nil
	}

	if r.dedup {
		v, err, _ := r.flight.Do(specifier, func() (interface{}, error) {
			// A caller that missed the cache just before an earlier flight
			// stored its result must not invoke the hook a second time.
			if v, ok := r.cache.Load(specifier); ok {
				return v.(*graph.ResolvedId), nil
			}
			return r.resolveAndCache(ctx, specifier)
		})
		if err != nil {
			return nil, err
		}
		return v.(*graph.ResolvedId), nil
	}

	return r.resolveAndCache(ctx, specifier)
}

func (r *IDResolver) resolveAndCache(ctx context.Context, specifier string) (*graph.ResolvedId, error) {
	rid, err := r.driver.ResolveID(ctx, specifier, r.moduleID, r.isEntry)
	if err != nil {
		return nil, err
	}
	// Last writer wins on a race; both writers hold an equivalent value
	// since resolution is assumed pure, per spec.md §4.2.
	r.cache.Store(specifier, rid)
	return rid, nil
}

// ResolvedIDs returns a snapshot of every specifier this resolver has
// resolved so far, to be attached to the finished Module.
func (r *IDResolver) ResolvedIDs() map[string]*graph.ResolvedId {
	out := make(map[string]*graph.ResolvedId)
	r.cache.Range(func(k, v interface{}) bool {
		out[k.(string)] = v.(*graph.ResolvedId)
		return true
	})
	return out
}
