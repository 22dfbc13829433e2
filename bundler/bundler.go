package bundler

import (
	"os"

	"github.com/go-lynx/bundler/graph"
	"github.com/go-lynx/bundler/internal/diag"
	"github.com/go-lynx/bundler/internal/log"
	"github.com/go-lynx/bundler/internal/metrics"
	"github.com/go-lynx/bundler/internal/trace"
	"github.com/go-lynx/bundler/plugin"
	"github.com/go-lynx/bundler/task"
)

// Bundler owns one plugin driver, its configuration, and the mutable
// state (graph, visited-set) that persists across build/rebuild calls
// on the same instance.
type Bundler struct {
	opts   Options
	driver *plugin.Driver
	parser task.Parser
	logger *log.Logger
	metric *metrics.Collectors
	diag   *diag.Sink

	graph *graph.ModuleGraph

	// tctx is the task.Context built by the most recent Build and reused
	// by every subsequent Rebuild: its visited-set, in-flight counter,
	// result channel, and worker pool all persist across rebuilds rather
	// than starting over, per spec.md §3's "visited-URI set (shared
	// during build); cleared/diffed on rebuild" and §4.4 rebuild step 2
	// ("remove invalidated URIs from the visited-set"). Build itself
	// replaces tctx with a fresh one, since a full build's visited-set
	// lives for one build.
	tctx *task.Context

	// entryURIs is the resolved URI set from the most recent Build,
	// needed by Rebuild to preserve is_entry across a re-resolved entry
	// module: Rebuild looks each invalidated URI up here and passes the
	// answer as is_entry both to resolve_id and to the re-spawned Task,
	// whose module's IsEntry then decides finalize's root set.
	entryURIs map[string]bool
}

// New constructs a Bundler. plugins are consulted in the given order for
// resolve_id/load/transform/build_start/build_end; the default resolver
// is appended automatically, mirroring spec.md §4.1's "fall back to the
// default resolver". The automatic loader-map plugin (when opts.Loader
// is non-empty) and every entry in opts.Plugins (§6's loader option and
// this repo's named-built-in mechanism) are constructed through a
// plugin.Registry rather than directly, so a single factory governs how
// built-ins receive shared dependencies like the diagnostics sink.
func New(opts Options, parser task.Parser, plugins ...plugin.Plugin) (*Bundler, error) {
	logger := log.Nop()
	sink := diag.NewSink(func(e diag.Event) {
		logger.Warnf("[%s] %s: %v", e.Component, e.Message, e.Fields)
	})

	registry := plugin.NewRegistry()

	if len(opts.Loader) > 0 {
		p, err := registry.Build("loader-map", map[string]any{"loader": opts.Loader, "diag": sink})
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, p)
	}

	for _, pc := range opts.Plugins {
		config := make(map[string]any, len(pc.Config)+1)
		for k, v := range pc.Config {
			config[k] = v
		}
		config["diag"] = sink
		p, err := registry.Build(pc.Name, config)
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, p)
	}

	fallback := plugin.NewDefaultResolver(opts.root(), opts.Alias, nil)
	driver := plugin.NewDriver(plugins, fallback, sink, logger)

	trace.EnableFromEnv(os.Stderr)

	return &Bundler{
		opts:   opts,
		driver: driver,
		parser: parser,
		logger: logger,
		metric: metrics.New(),
		diag:   sink,
		graph:  graph.New(),
	}, nil
}

// Graph returns the bundler's current module graph.
func (b *Bundler) Graph() *graph.ModuleGraph { return b.graph }

// Metrics exposes the Prometheus collectors a host can scrape via
// Metrics().Gatherer().
func (b *Bundler) Metrics() *metrics.Collectors { return b.metric }

// Diagnostics exposes the driver's diagnostics sink.
func (b *Bundler) Diagnostics() *diag.Sink { return b.diag }
