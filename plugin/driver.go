package plugin

import (
	"context"
	"fmt"

	"github.com/go-lynx/bundler/ast"
	"github.com/go-lynx/bundler/bundlererr"
	"github.com/go-lynx/bundler/graph"
	"github.com/go-lynx/bundler/internal/diag"
	"github.com/go-lynx/bundler/internal/log"
)

// Driver holds the ordered plugin list and dispatches hooks. It is
// constructed once per bundler instance and is immutable across builds:
// every Task holds the same *Driver and only ever calls its hook methods,
// never mutates the plugin list. Grounded on the teacher's read-only
// capability dispatch in plugins/plugin.go / app/plugin_manager.go.
type Driver struct {
	plugins  []Plugin
	fallback ResolverPlugin // the default resolver, consulted last
	diag     *diag.Sink
	log      *log.Logger
}

// NewDriver builds a Driver over plugins, in the given order. fallback is
// consulted only after every plugin in plugins has declined resolve_id.
func NewDriver(plugins []Plugin, fallback ResolverPlugin, sink *diag.Sink, logger *log.Logger) *Driver {
	if sink == nil {
		sink = diag.NewSink(nil)
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Driver{plugins: plugins, fallback: fallback, diag: sink, log: logger}
}

// Diagnostics exposes the driver's diagnostics sink so other components
// (e.g. the options parser) can push warnings through the same channel.
func (d *Driver) Diagnostics() *diag.Sink { return d.diag }

// ResolveID dispatches the resolve_id hook: first-wins across the
// configured plugins, falling back to the default resolver, per spec.md
// §4.1.
func (d *Driver) ResolveID(ctx context.Context, specifier, importer string, isEntry bool) (*graph.ResolvedId, error) {
	for _, p := range d.plugins {
		rp, ok := p.(ResolverPlugin)
		if !ok {
			continue
		}
		rid, err := rp.ResolveID(ctx, specifier, importer, isEntry)
		if err != nil {
			return nil, bundlererr.New(bundlererr.ResolveFailure, specifier,
				fmt.Sprintf("plugin %q: %v", p.Name(), err), err)
		}
		if rid != nil {
			return rid, nil
		}
	}
	if d.fallback != nil {
		rid, err := d.fallback.ResolveID(ctx, specifier, importer, isEntry)
		if err != nil {
			return nil, bundlererr.New(bundlererr.ResolveFailure, specifier, err.Error(), err)
		}
		if rid != nil {
			return rid, nil
		}
	}
	return nil, bundlererr.New(bundlererr.ResolveFailure, specifier,
		"no plugin nor the default resolver could resolve this specifier", nil)
}

// Load dispatches the load hook: first-wins across configured plugins.
// Callers pass a non-nil fallback to implement "default reads the file
// at id as UTF-8" when no plugin claims the id.
func (d *Driver) Load(ctx context.Context, id string, fallback func(context.Context, string) (*graph.ModuleSource, error)) (*graph.ModuleSource, error) {
	for _, p := range d.plugins {
		lp, ok := p.(LoaderPlugin)
		if !ok {
			continue
		}
		src, handled, err := lp.Load(ctx, id)
		if err != nil {
			return nil, bundlererr.New(bundlererr.LoadFailure, id,
				fmt.Sprintf("plugin %q: %v", p.Name(), err), err)
		}
		if handled {
			return src, nil
		}
	}
	if fallback == nil {
		return nil, bundlererr.New(bundlererr.LoadFailure, id, "no loader plugin claimed this module and no fallback was configured", nil)
	}
	src, err := fallback(ctx, id)
	if err != nil {
		return nil, bundlererr.New(bundlererr.LoadFailure, id, err.Error(), err)
	}
	return src, nil
}

// Transform dispatches the transform hook: all-apply, strictly sequential,
// each plugin's output feeding the next, per spec.md §4.1's determinism
// requirement.
func (d *Driver) Transform(ctx context.Context, program *ast.Program, id string) (*ast.Program, error) {
	for _, p := range d.plugins {
		tp, ok := p.(TransformerPlugin)
		if !ok {
			continue
		}
		out, err := tp.Transform(ctx, program, id)
		if err != nil {
			return nil, bundlererr.New(bundlererr.TransformFailure, id,
				fmt.Sprintf("plugin %q: %v", p.Name(), err), err)
		}
		program = out
	}
	return program, nil
}

// BuildStart runs every lifecycle plugin's BuildStart notification.
// Errors are logged, not propagated: spec.md §4.1 says lifecycle errors
// "are reported but do not abort the build by default".
func (d *Driver) BuildStart(ctx context.Context) {
	for _, p := range d.plugins {
		lp, ok := p.(BuildLifecyclePlugin)
		if !ok {
			continue
		}
		if err := lp.BuildStart(ctx); err != nil {
			d.log.Warnf("plugin %q build_start: %v", p.Name(), err)
			d.diag.Warnf("plugin."+p.Name(), "build_start failed", map[string]any{"error": err.Error()})
		}
	}
}

// BuildEnd runs every lifecycle plugin's BuildEnd notification.
func (d *Driver) BuildEnd(ctx context.Context) {
	for _, p := range d.plugins {
		lp, ok := p.(BuildLifecyclePlugin)
		if !ok {
			continue
		}
		if err := lp.BuildEnd(ctx); err != nil {
			d.log.Warnf("plugin %q build_end: %v", p.Name(), err)
			d.diag.Warnf("plugin."+p.Name(), "build_end failed", map[string]any{"error": err.Error()})
		}
	}
}
