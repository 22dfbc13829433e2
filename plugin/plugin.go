// Package plugin implements the hook contract: an ordered plugin list, a
// driver that dispatches first-wins and all-apply hooks, and the built-in
// default resolver and loader-map plugin. Plugins are polymorphic over an
// optional capability set, mirroring the teacher's Metadata/Lifecycle/
// DependencyAware split in plugins/plugin.go.
package plugin

import (
	"context"

	"github.com/go-lynx/bundler/ast"
	"github.com/go-lynx/bundler/graph"
)

// Plugin is the marker every plugin value must satisfy. A plugin is
// otherwise polymorphic: it implements whichever of ResolverPlugin,
// LoaderPlugin, TransformerPlugin, BuildLifecyclePlugin it supports, and
// the driver type-switches each hook dispatch against that set.
type Plugin interface {
	Name() string
}

// ResolverPlugin implements the resolve_id hook.
type ResolverPlugin interface {
	Plugin
	// ResolveID returns nil, nil when this plugin declines to resolve the
	// specifier (falls through to the next plugin).
	ResolveID(ctx context.Context, specifier string, importer string, isEntry bool) (*graph.ResolvedId, error)
}

// LoaderPlugin implements the load hook.
type LoaderPlugin interface {
	Plugin
	// Load returns (nil, false, nil) to decline, letting the next plugin
	// (or the default file-read fallback) try.
	Load(ctx context.Context, id string) (*graph.ModuleSource, bool, error)
}

// TransformerPlugin implements the transform hook. Unlike resolve_id and
// load, every TransformerPlugin runs, in order; each receives the
// previous plugin's output.
type TransformerPlugin interface {
	Plugin
	Transform(ctx context.Context, program *ast.Program, id string) (*ast.Program, error)
}

// BuildLifecyclePlugin implements the build_start/build_end
// notifications. All registered lifecycle plugins run; an error is
// reported but does not abort the build by default.
type BuildLifecyclePlugin interface {
	Plugin
	BuildStart(ctx context.Context) error
	BuildEnd(ctx context.Context) error
}
