package plugin

import (
	"fmt"
	"sync"

	"github.com/go-lynx/bundler/internal/diag"
)

// Constructor builds a named plugin from its raw configuration. Config
// keys are plugin-specific except for "diag", which the driver's wiring
// (bundler.New) conventionally sets to the shared *diag.Sink so built-in
// plugins can report warnings through the same channel as the rest of
// the driver.
type Constructor func(config map[string]any) (Plugin, error)

// Registry is a name -> constructor factory for built-in plugins,
// grounded on the teacher's factory/plugin_factory.go TypedPluginFactory.
// The source bundler ships react-refresh/svg/css plugins as named
// variants (spec.md §9); those are individual production plugins and out
// of this repo's scope (spec.md §1). The registry does not reserve their
// names: NewRegistry registers only "loader-map", and Register accepts
// any name not yet taken. bundler.New builds its own registry and consults it to
// build both the automatic loader-map plugin (when Options.Loader is
// set) and any additional built-ins a host names in Options.Plugins.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry returns a Registry pre-populated with this repo's built-ins.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]Constructor)}
	r.mustRegister("loader-map", func(config map[string]any) (Plugin, error) {
		raw, _ := config["loader"].(map[string]string)
		sink, _ := config["diag"].(*diag.Sink)
		return NewLoaderMapPlugin(raw, sink), nil
	})
	return r
}

func (r *Registry) mustRegister(name string, ctor Constructor) {
	if err := r.Register(name, ctor); err != nil {
		panic(err)
	}
}

// Register adds a named constructor. Registering a name twice is an
// error, mirroring the teacher's duplicate-plugin-name panic in
// boot/plugin_load.go's pluginCheck, but returned rather than panicking
// since callers may register third-party plugins at runtime.
func (r *Registry) Register(name string, ctor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.constructors[name]; exists {
		return fmt.Errorf("plugin %q already registered", name)
	}
	r.constructors[name] = ctor
	return nil
}

// Build constructs the named plugin from config.
func (r *Registry) Build(name string, config map[string]any) (Plugin, error) {
	r.mu.RLock()
	ctor, ok := r.constructors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no plugin registered under name %q", name)
	}
	return ctor(config)
}

// Names returns every registered plugin name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		out = append(out, name)
	}
	return out
}
