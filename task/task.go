package task

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-lynx/bundler/ast"
	"github.com/go-lynx/bundler/bundlererr"
	"github.com/go-lynx/bundler/graph"
	"github.com/go-lynx/bundler/internal/trace"
	"github.com/go-lynx/bundler/resolver"
)

// Task processes exactly one ResolvedId: load, parse, transform, scan,
// spawn children, finish. Steps are numbered per spec.md §4.3.
type Task struct {
	ctx     *Context
	rid     *graph.ResolvedId
	isEntry bool
	tid     int64
}

// run executes the full pipeline and always posts exactly one Result,
// panic or not: the deferred recover below converts a panicking hook into
// a per-module TransformFailure rather than crashing the build, grounded on the teacher's
// recover-inside-goroutine idiom in app/error_recovery.go.
func (t *Task) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			t.post(Result{URI: t.rid.ID, Err: bundlererr.New(bundlererr.TransformFailure, t.rid.ID,
				fmt.Sprintf("panic: %v", r), nil)})
		}
	}()

	if t.ctx.Pool != nil {
		if err := t.ctx.Pool.Acquire(ctx); err != nil {
			t.post(Result{URI: t.rid.ID, Err: bundlererr.Fatal(bundlererr.HostFailure, "worker pool acquire: "+err.Error(), err)})
			return
		}
		defer t.ctx.Pool.Release()
	}

	trace.Begin("task:"+t.rid.ID, t.tid)
	defer trace.End("task:"+t.rid.ID, t.tid)

	result := t.pipeline(ctx)
	t.post(result)
}

func (t *Task) post(r Result) {
	if r.URI == "" {
		r.URI = t.rid.ID
	}
	// The result channel is unbounded in spec terms (spec.md §5:
	// "producers never block"); in Go this is a large buffered channel,
	// so a blocking send here only ever waits on the coordinator's drain
	// loop, never on backpressure from other producers.
	t.ctx.Results <- r
}

func (t *Task) pipeline(ctx context.Context) Result {
	// Step 1: instantiate a local DependencyIdResolver keyed on this
	// module's id. Children resolved through it always pass is_entry=false
	// per spec.md §4.2's contract.
	res := resolver.New(t.ctx.Driver, t.rid.ID, false, t.ctx.Dedup)

	// Step 2: load.
	source, err := t.ctx.Driver.Load(ctx, t.rid.ID, DefaultLoad)
	if err != nil {
		return Result{Err: err}
	}

	// Step 3: parse (external service).
	if t.ctx.Parser == nil {
		return Result{Err: bundlererr.New(bundlererr.ParseFailure, t.rid.ID, "no parser configured", nil)}
	}
	program, err := t.ctx.Parser(source)
	if err != nil {
		return Result{Err: bundlererr.New(bundlererr.ParseFailure, t.rid.ID, err.Error(), err)}
	}

	// Step 4: transform (all-apply, sequential).
	program, err = t.ctx.Driver.Transform(ctx, program, t.rid.ID)
	if err != nil {
		return Result{Err: err}
	}

	var depErrors []error
	var dependencies []graph.Dependency
	var dynImports []graph.Dependency

	// Step 5: pre-scan, fast fan-out over top-level declarations.
	statements := preScan(program)
	for _, stmt := range statements {
		specifier := stmt.Specifier()
		rid, rerr := res.Resolve(ctx, specifier)
		if rerr != nil {
			depErrors = append(depErrors, annotateResolveError(rerr, t.rid.ID, specifier))
			dependencies = append(dependencies, graph.Dependency{Specifier: specifier, Kind: declKind(stmt), Order: stmt.Pos()})
			continue
		}
		dependencies = append(dependencies, graph.Dependency{Specifier: specifier, Kind: declKind(stmt), ResolvedID: rid, Order: stmt.Pos()})
		t.ctx.Spawn(ctx, rid, false)
	}

	// Step 6: full scan over the entire body.
	requireCalls, dynamicCalls := fullScan(program)

	// Step 7: dynamic dependencies resolved & spawned before static
	// require() calls, per spec.md's ordering (step 7 precedes step 8).
	for _, call := range dynamicCalls {
		if call.ArgLiteral == nil {
			// Opaque dynamic dependency: recorded, not resolved, no spawn,
			// no error (spec.md boundary case).
			dynImports = append(dynImports, graph.Dependency{Kind: graph.DynamicImport, Order: call.Order})
			continue
		}
		specifier := *call.ArgLiteral
		rid, rerr := res.Resolve(ctx, specifier)
		if rerr != nil {
			depErrors = append(depErrors, annotateResolveError(rerr, t.rid.ID, specifier))
			dynImports = append(dynImports, graph.Dependency{Specifier: specifier, Kind: graph.DynamicImport, Order: call.Order})
			continue
		}
		dynImports = append(dynImports, graph.Dependency{Specifier: specifier, Kind: graph.DynamicImport, ResolvedID: rid, Order: call.Order})
		t.ctx.Spawn(ctx, rid, false)
	}

	// Step 8: static require() dependencies; cache hit in the common case
	// since step 5 already resolved re-export targets.
	for _, call := range requireCalls {
		if call.ArgLiteral == nil {
			continue
		}
		specifier := *call.ArgLiteral
		rid, rerr := res.Resolve(ctx, specifier)
		if rerr != nil {
			depErrors = append(depErrors, annotateResolveError(rerr, t.rid.ID, specifier))
			dependencies = append(dependencies, graph.Dependency{Specifier: specifier, Kind: graph.Require, Order: call.Order})
			continue
		}
		dependencies = append(dependencies, graph.Dependency{Specifier: specifier, Kind: graph.Require, ResolvedID: rid, Order: call.Order})
		t.ctx.Spawn(ctx, rid, false)
	}

	// Step 9: construct the finished module.
	module := &graph.Module{
		ID:           t.rid.ID,
		AST:          program,
		Dependencies: dependencies,
		DynImports:   dynImports,
		ResolvedIDs:  res.ResolvedIDs(),
		IsEntry:      t.isEntry,
	}

	return Result{Module: module, DepErrors: depErrors}
}

func declKind(stmt ast.Statement) graph.DependencyKind {
	switch stmt.(type) {
	case ast.ExportAllDecl:
		return graph.ExportAll
	case ast.ExportFromDecl:
		return graph.ExportNamed
	default:
		return graph.StaticImport
	}
}

func annotateResolveError(err error, importerURI, specifier string) error {
	if be, ok := err.(*bundlererr.Error); ok {
		return bundlererr.New(be.Code, importerURI, be.Message+" (specifier "+strconv.Quote(specifier)+")", be.Cause)
	}
	return err
}
