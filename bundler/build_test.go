package bundler

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/go-lynx/bundler/ast"
	"github.com/go-lynx/bundler/graph"
)

// fakeModule describes one module in an in-memory fake filesystem used
// to drive end-to-end build scenarios without a real JS parser, per
// spec.md's framing of the parser as an opaque external service.
type fakeModule struct {
	staticImports  []string // specifiers resolved and spawned eagerly
	dynamicLiteral []string // import("literal") sites
	dynamicOpaque  int      // count of import(nonLiteral) sites
}

type fakeWorld struct {
	modules map[string]fakeModule
}

func (w *fakeWorld) resolverPlugin() *fakeResolver { return &fakeResolver{world: w} }
func (w *fakeWorld) loaderPlugin() *fakeLoader      { return &fakeLoader{world: w} }

type fakeResolver struct{ world *fakeWorld }

func (r *fakeResolver) Name() string { return "fake-resolver" }
func (r *fakeResolver) ResolveID(_ context.Context, specifier, _ string, _ bool) (*graph.ResolvedId, error) {
	if strings.HasPrefix(specifier, "ext:") {
		return &graph.ResolvedId{ID: specifier, External: true, Kind: graph.StaticImport}, nil
	}
	if _, ok := r.world.modules[specifier]; ok {
		return &graph.ResolvedId{ID: specifier, Kind: graph.StaticImport}, nil
	}
	return nil, nil // decline; falls through to the default resolver, which will fail too
}

type fakeLoader struct{ world *fakeWorld }

func (l *fakeLoader) Name() string { return "fake-loader" }
func (l *fakeLoader) Load(_ context.Context, id string) (*graph.ModuleSource, bool, error) {
	m, ok := l.world.modules[id]
	if !ok {
		return nil, false, nil
	}
	return &graph.ModuleSource{ID: id, Content: encodeFakeModule(m)}, true, nil
}

func encodeFakeModule(m fakeModule) string {
	var b strings.Builder
	for _, s := range m.staticImports {
		fmt.Fprintf(&b, "import:%s\n", s)
	}
	for _, s := range m.dynamicLiteral {
		fmt.Fprintf(&b, "dynamic-literal:%s\n", s)
	}
	for i := 0; i < m.dynamicOpaque; i++ {
		b.WriteString("dynamic-opaque:\n")
	}
	return b.String()
}

// fakeParser decodes encodeFakeModule's format back into an ast.Program.
func fakeParser(source *graph.ModuleSource) (*ast.Program, error) {
	program := &ast.Program{}
	order := 0
	for _, line := range strings.Split(source.Content, "\n") {
		switch {
		case strings.HasPrefix(line, "import:"):
			spec := strings.TrimPrefix(line, "import:")
			program.Statements = append(program.Statements, ast.ImportDecl{Source: spec, Order: order})
		case strings.HasPrefix(line, "dynamic-literal:"):
			spec := strings.TrimPrefix(line, "dynamic-literal:")
			v := spec
			program.Body = append(program.Body, &ast.Node{Kind: "call", Call: &ast.Call{Callee: ast.CalleeImport, ArgLiteral: &v, Order: order}})
		case strings.HasPrefix(line, "dynamic-opaque:"):
			program.Body = append(program.Body, &ast.Node{Kind: "call", Call: &ast.Call{Callee: ast.CalleeImport, Order: order}})
		default:
			continue
		}
		order++
	}
	return program, nil
}

func newTestBundler(t *testing.T, world *fakeWorld, entries ...string) *Bundler {
	t.Helper()
	b, err := New(Options{Entries: entries, Root: t.TempDir()}, fakeParser, world.resolverPlugin(), world.loaderPlugin())
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestBuildSingleEntryNoImports(t *testing.T) {
	world := &fakeWorld{modules: map[string]fakeModule{"a.js": {}}}
	b := newTestBundler(t, world, "a.js")

	result, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Graph.Len() != 1 {
		t.Fatalf("expected 1 module, got %d", result.Graph.Len())
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
	a := result.Graph.ModuleByID("a.js")
	if a.ExecOrder != 0 {
		t.Errorf("exec_order(a) = %d, want 0", a.ExecOrder)
	}
}

func TestBuildLinearChain(t *testing.T) {
	world := &fakeWorld{modules: map[string]fakeModule{
		"a.js": {staticImports: []string{"b.js"}},
		"b.js": {staticImports: []string{"c.js"}},
		"c.js": {},
	}}
	b := newTestBundler(t, world, "a.js")

	result, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Graph.Len() != 3 {
		t.Fatalf("expected 3 modules, got %d", result.Graph.Len())
	}
	c, bm, a := result.Graph.ModuleByID("c.js"), result.Graph.ModuleByID("b.js"), result.Graph.ModuleByID("a.js")
	if c.ExecOrder != 0 || bm.ExecOrder != 1 || a.ExecOrder != 2 {
		t.Fatalf("unexpected exec orders: c=%d b=%d a=%d", c.ExecOrder, bm.ExecOrder, a.ExecOrder)
	}
}

func TestBuildDiamondDedupesSharedDependency(t *testing.T) {
	world := &fakeWorld{modules: map[string]fakeModule{
		"a.js": {staticImports: []string{"b.js", "c.js"}},
		"b.js": {staticImports: []string{"d.js"}},
		"c.js": {staticImports: []string{"d.js"}},
		"d.js": {},
	}}
	b := newTestBundler(t, world, "a.js")

	result, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Graph.Len() != 4 {
		t.Fatalf("expected 4 modules, got %d", result.Graph.Len())
	}
	d := result.Graph.ModuleByID("d.js")
	if d.ExecOrder != 0 {
		t.Errorf("exec_order(d) = %d, want 0", d.ExecOrder)
	}
	a := result.Graph.ModuleByID("a.js")
	if a.ExecOrder != 3 {
		t.Errorf("exec_order(a) = %d, want 3", a.ExecOrder)
	}
}

func TestBuildCycleTerminates(t *testing.T) {
	world := &fakeWorld{modules: map[string]fakeModule{
		"a.js": {staticImports: []string{"b.js"}},
		"b.js": {staticImports: []string{"a.js"}},
	}}
	b := newTestBundler(t, world, "a.js")

	result, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Graph.Len() != 2 {
		t.Fatalf("expected 2 modules, got %d", result.Graph.Len())
	}
}

func TestBuildDynamicLiteralImport(t *testing.T) {
	world := &fakeWorld{modules: map[string]fakeModule{
		"a.js": {dynamicLiteral: []string{"b.js"}},
		"b.js": {},
	}}
	b := newTestBundler(t, world, "a.js")

	result, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Graph.Len() != 2 {
		t.Fatalf("expected 2 modules, got %d", result.Graph.Len())
	}
	a := result.Graph.ModuleByID("a.js")
	if len(a.DynImports) != 1 || a.DynImports[0].ResolvedID == nil || a.DynImports[0].ResolvedID.ID != "b.js" {
		t.Fatalf("unexpected dyn imports: %+v", a.DynImports)
	}
	if len(a.Dependencies) != 0 {
		t.Fatalf("dynamic import must not count toward the static closure, got %+v", a.Dependencies)
	}
}

func TestBuildDynamicOpaqueImportRecordedNotResolved(t *testing.T) {
	world := &fakeWorld{modules: map[string]fakeModule{
		"a.js": {dynamicOpaque: 1},
	}}
	b := newTestBundler(t, world, "a.js")

	result, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Graph.Len() != 1 {
		t.Fatalf("expected only a.js, got %d modules", result.Graph.Len())
	}
	if len(result.Errors) != 0 {
		t.Fatalf("opaque dynamic import must not be an error, got %v", result.Errors)
	}
	a := result.Graph.ModuleByID("a.js")
	if len(a.DynImports) != 1 || a.DynImports[0].ResolvedID != nil {
		t.Fatalf("expected one unresolved opaque dyn import, got %+v", a.DynImports)
	}
}

func TestBuildResolveFailureStillProducesGraph(t *testing.T) {
	world := &fakeWorld{modules: map[string]fakeModule{
		"a.js": {staticImports: []string{"./nope"}},
	}}
	b := newTestBundler(t, world, "a.js")

	result, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Graph.Len() != 1 {
		t.Fatalf("expected a.js alone in the graph, got %d modules", result.Graph.Len())
	}
	errs := result.Errors["a.js"]
	if len(errs) != 1 {
		t.Fatalf("expected one ResolveFailure for a.js, got %v", result.Errors)
	}
	if result.Err() == nil {
		t.Fatal("expected BuildResult.Err() to report the aggregated failure")
	}
}

func TestBuildZeroEntriesIsEmptyGraph(t *testing.T) {
	world := &fakeWorld{modules: map[string]fakeModule{}}
	b := newTestBundler(t, world)

	result, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Graph.Len() != 0 {
		t.Fatalf("expected an empty graph, got %d modules", result.Graph.Len())
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
}

func TestBuildExternalSpecifierNoNode(t *testing.T) {
	world := &fakeWorld{modules: map[string]fakeModule{
		"a.js": {staticImports: []string{"ext:react"}},
	}}
	b := newTestBundler(t, world, "a.js")

	result, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Graph.Len() != 1 {
		t.Fatalf("expected only a.js, got %d modules", result.Graph.Len())
	}
	a := result.Graph.ModuleByID("a.js")
	if len(a.Dependencies) != 1 || !a.Dependencies[0].ResolvedID.External {
		t.Fatalf("expected an external dependency edge, got %+v", a.Dependencies)
	}
}

func TestRebuildInvalidatesReverseDependencyClosure(t *testing.T) {
	world := &fakeWorld{modules: map[string]fakeModule{
		"a.js": {staticImports: []string{"b.js"}},
		"b.js": {staticImports: []string{"c.js"}},
		"c.js": {},
	}}
	b := newTestBundler(t, world, "a.js")

	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}

	rebuilt, err := b.Rebuild(context.Background(), "c.js")
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]bool{"c.js": true, "b.js": true, "a.js": true}
	if len(rebuilt) != len(want) {
		t.Fatalf("expected %d rebuilt uris, got %v", len(want), rebuilt)
	}
	for _, uri := range rebuilt {
		if !want[uri] {
			t.Errorf("unexpected uri in rebuilt set: %s", uri)
		}
	}
}

// TestRebuildPartialInvalidationLeavesSharedDependencyAlone covers the
// diamond case where the invalidated closure does not reach every module
// in the graph: rebuilding "b.js" must not touch "c.js" or re-spawn the
// still-visited, unchanged shared dependency "d.js". A regression here
// shows up as graph.Insert rejecting a duplicate "d.js" as an
// InvariantViolation, which Rebuild would then report as an error.
func TestRebuildPartialInvalidationLeavesSharedDependencyAlone(t *testing.T) {
	world := &fakeWorld{modules: map[string]fakeModule{
		"a.js": {staticImports: []string{"b.js", "c.js"}},
		"b.js": {staticImports: []string{"d.js"}},
		"c.js": {staticImports: []string{"d.js"}},
		"d.js": {},
	}}
	b := newTestBundler(t, world, "a.js")

	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}

	rebuilt, err := b.Rebuild(context.Background(), "b.js")
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]bool{"b.js": true, "a.js": true}
	if len(rebuilt) != len(want) {
		t.Fatalf("expected %d rebuilt uris, got %v", len(want), rebuilt)
	}
	for _, uri := range rebuilt {
		if !want[uri] {
			t.Errorf("unexpected uri in rebuilt set: %s", uri)
		}
	}
	for _, uri := range rebuilt {
		if uri == "c.js" {
			t.Fatalf("c.js should not have been rebuilt")
		}
	}

	if b.Graph().Len() != 4 {
		t.Fatalf("expected the graph to still have 4 modules, got %d", b.Graph().Len())
	}
	if b.Graph().ModuleByID("d.js") == nil {
		t.Fatalf("expected d.js to still be present in the graph")
	}
}

func TestResolveWithoutFullBuild(t *testing.T) {
	world := &fakeWorld{modules: map[string]fakeModule{"a.js": {}}}
	b := newTestBundler(t, world)

	res, err := b.Resolve(context.Background(), "a.js", "")
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Path != "a.js" {
		t.Fatalf("unexpected resolve result: %+v", res)
	}

	res, err = b.Resolve(context.Background(), "ext:react", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.OK {
		t.Fatalf("expected external specifier to report ok=false, got %+v", res)
	}
}

// TestNewBuildsOptionsLoaderThroughRegistry covers New's wiring of
// plugin.Registry: the automatic loader-map plugin (from Options.Loader)
// is built through the registry with the bundler's shared diagnostics
// sink, so its unknown-kind warning shows up in b.Diagnostics().
func TestNewBuildsOptionsLoaderThroughRegistry(t *testing.T) {
	world := &fakeWorld{modules: map[string]fakeModule{"a.js": {}}}
	b, err := New(Options{
		Entries: []string{"a.js"},
		Root:    t.TempDir(),
		Loader:  map[string]string{".svg": "Bogus"},
	}, fakeParser, world.resolverPlugin(), world.loaderPlugin())
	if err != nil {
		t.Fatal(err)
	}

	if len(b.Diagnostics().Events()) != 1 {
		t.Fatalf("expected the registry-built loader-map plugin to warn through the shared sink, got %+v", b.Diagnostics().Events())
	}
}

// TestNewBuildsNamedPluginFromOptions covers Options.Plugins reaching a
// built-in through the same plugin.Registry path as the automatic
// loader-map plugin.
func TestNewBuildsNamedPluginFromOptions(t *testing.T) {
	world := &fakeWorld{modules: map[string]fakeModule{"a.js": {}}}
	b, err := New(Options{
		Entries: []string{"a.js"},
		Root:    t.TempDir(),
		Plugins: []PluginConfig{
			{Name: "loader-map", Config: map[string]any{"loader": map[string]string{".svg": "Bogus"}}},
		},
	}, fakeParser, world.resolverPlugin(), world.loaderPlugin())
	if err != nil {
		t.Fatal(err)
	}

	if len(b.Diagnostics().Events()) != 1 {
		t.Fatalf("expected the named built-in plugin to warn through the shared sink, got %+v", b.Diagnostics().Events())
	}
}

func TestNewRejectsUnknownPluginName(t *testing.T) {
	world := &fakeWorld{modules: map[string]fakeModule{"a.js": {}}}
	_, err := New(Options{
		Entries: []string{"a.js"},
		Root:    t.TempDir(),
		Plugins: []PluginConfig{{Name: "nope"}},
	}, fakeParser, world.resolverPlugin(), world.loaderPlugin())
	if err == nil {
		t.Fatal("expected New to propagate a registry Build error for an unknown plugin name")
	}
}
