// Package task implements the per-module Task pipeline: load, parse,
// transform, pre-scan, full scan, spawn children, finish. Grounded on
// the teacher's per-task goroutine patterns in app/plugin_lifecycle.go
// and app/error_recovery.go, generalized from plugin-loading units to
// module-processing units.
package task

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/go-lynx/bundler/ast"
	"github.com/go-lynx/bundler/graph"
	"github.com/go-lynx/bundler/internal/log"
	"github.com/go-lynx/bundler/internal/metrics"
)

// Driver is the subset of *plugin.Driver a Task needs.
type Driver interface {
	ResolveID(ctx context.Context, specifier, importer string, isEntry bool) (*graph.ResolvedId, error)
	Load(ctx context.Context, id string, fallback func(context.Context, string) (*graph.ModuleSource, error)) (*graph.ModuleSource, error)
	Transform(ctx context.Context, program *ast.Program, id string) (*ast.Program, error)
}

// Parser is the external, opaque parse(source, id) -> AST service.
type Parser func(source *graph.ModuleSource) (*ast.Program, error)

// DefaultLoad reads id as a UTF-8 file, the driver's documented fallback
// when no loader plugin claims a module.
var DefaultLoad = func(_ context.Context, id string) (*graph.ModuleSource, error) {
	return defaultLoadFile(id)
}

// Result is what a Task posts on the shared channel: either a finished
// module, or a fatal-for-this-module error. DepErrors holds per-specifier
// ResolveFailures discovered while building an otherwise-successful
// module (spec.md's scenario 6: the module is still produced, but each
// unresolved specifier is reported).
type Result struct {
	URI       string
	Module    *graph.Module
	Err       error
	DepErrors []error
}

// Context is the shared state every Task reads or atomically mutates:
// the plugin driver, the visited-set, the in-flight counter, the result
// channel, and the worker pool. One Context is built per Build, handed to
// every Task spawned during it, and reused by later Rebuilds.
type Context struct {
	Driver   Driver
	Parser   Parser
	Pool     *Pool
	Results  chan Result
	Visited  *sync.Map // URI -> struct{}
	InFlight *atomic.Int64
	Dedup    bool // resolver single-flight dedup mode, Options.ResolverDedup
	Log      *log.Logger
	Metrics  *metrics.Collectors
	tidSeq   atomic.Int64
}

// NewContext builds a fresh Context. The result channel is buffered to
// 4096 results; a send blocks while that buffer is full, until the
// coordinator receives.
func NewContext(driver Driver, parser Parser, pool *Pool, dedup bool, logger *log.Logger, m *metrics.Collectors) *Context {
	if logger == nil {
		logger = log.Nop()
	}
	return &Context{
		Driver:   driver,
		Parser:   parser,
		Pool:     pool,
		Results:  make(chan Result, 4096),
		Visited:  &sync.Map{},
		InFlight: &atomic.Int64{},
		Dedup:    dedup,
		Log:      logger,
		Metrics:  m,
	}
}

// Spawn attempts to take responsibility for rid and, if it is newly
// claimed, launches a goroutine running its Task. It returns false
// without doing anything if rid is external/ignored (no node is
// produced, spec.md §4.3) or already visited (spec.md's spawn-policy
// dedup rule: atomically check-and-insert into the shared visited-set
// before spawning).
func (c *Context) Spawn(ctx context.Context, rid *graph.ResolvedId, isEntry bool) bool {
	if rid == nil || rid.External || rid.Ignored {
		return false
	}
	if _, loaded := c.Visited.LoadOrStore(rid.ID, struct{}{}); loaded {
		return false
	}

	// Increment strictly precedes spawn, per spec.md §4.4's termination
	// correctness argument.
	c.InFlight.Add(1)
	if c.Metrics != nil {
		c.Metrics.TasksInFlight.Inc()
	}

	t := &Task{ctx: c, rid: rid, isEntry: isEntry, tid: c.tidSeq.Add(1)}
	go t.run(ctx)
	return true
}

// Finish is called by the coordinator after consuming one Result from
// the channel; it decrements the in-flight counter strictly after
// consumption, per spec.md §4.4.
func (c *Context) Finish() {
	c.InFlight.Add(-1)
	if c.Metrics != nil {
		c.Metrics.TasksInFlight.Dec()
		c.Metrics.TasksCompleted.Inc()
	}
}

// Quiescent reports whether the in-flight counter is zero; it does not
// look at the channel. Callers must only trust this as the termination
// condition after confirming the channel has no
// pending sends (i.e. checked with a non-blocking receive that found it
// empty immediately after observing InFlight == 0).
func (c *Context) Quiescent() bool {
	return c.InFlight.Load() == 0
}

// Forget removes id from the visited-set, so a subsequent Spawn for the
// same URI is treated as newly discovered rather than a duplicate. Used
// by rebuild to invalidate a URI without disturbing the rest of the
// shared visited-set, per spec.md §4.4 rebuild step 2.
func (c *Context) Forget(id string) {
	c.Visited.Delete(id)
}
