// Package bundler wires PluginDriver, DependencyIdResolver, Task, and
// ModuleGraph into the Bundle coordinator's build/rebuild/resolve
// operations, and exposes the host-facing Options configuration object.
package bundler

// Mode selects Dev vs Prod plugin behavior, per spec.md §6.
type Mode int

const (
	Dev Mode = iota
	Prod
)

// Options is the configuration object a host translates its own user
// configuration into before calling New, per spec.md §6's table. The
// host-language binding layer that performs that translation is out of
// scope; Options is the Go-level shape it would construct.
type Options struct {
	// Entries lists entry specifiers; seeded as is_entry=true.
	Entries []string

	// Minify passes through to code-gen (out of core scope).
	Minify bool

	// Root is the base directory for the default resolver; defaults to
	// the process working directory.
	Root string

	// OutDir is the target directory for code-gen (out of core scope);
	// defaults to "<cwd>/dist".
	OutDir string

	// EntryFileNames is an output filename template (out of core scope).
	EntryFileNames string

	// Loader maps a file extension to a loader kind string {"DataURI",
	// "Json", "Text"}; unrecognized kinds are dropped with a diagnostics
	// warning rather than silently (spec.md §9's open question).
	Loader map[string]string

	// InlineStyle is a plugin-layer flag.
	InlineStyle bool

	// Alias maps a specifier prefix to a replacement, consulted by the
	// default resolver before filesystem lookup.
	Alias map[string]string

	// Refresh is the React-refresh plugin flag.
	Refresh bool

	// SourceMap is a code-gen flag.
	SourceMap bool

	// Mode affects plugin selection.
	Mode Mode

	// MaxWorkers bounds the task worker pool; zero selects a
	// GOMAXPROCS-derived default.
	MaxWorkers int

	// ResolverDedup enables the optional singleflight dedup mode on each
	// module's DependencyIdResolver (spec.md §9's "if an implementation
	// wishes to dedup" note). Default false: concurrent misses race.
	ResolverDedup bool

	// Plugins names additional built-in plugins to construct through
	// plugin.Registry by name, in the given order, appended after the
	// automatic loader-map plugin. New builds a fresh registry holding
	// only "loader-map", so that is the only name accepted here; any
	// other name makes New return an error.
	Plugins []PluginConfig
}

// PluginConfig names one built-in plugin and its raw configuration, to
// be constructed via plugin.Registry.Build.
type PluginConfig struct {
	Name   string
	Config map[string]any
}

func (o Options) root() string {
	if o.Root != "" {
		return o.Root
	}
	return "."
}

func (o Options) outDir() string {
	if o.OutDir != "" {
		return o.OutDir
	}
	return "./dist"
}
