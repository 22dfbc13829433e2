package bundler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/go-lynx/bundler/bundlererr"
	"github.com/go-lynx/bundler/graph"
	"github.com/go-lynx/bundler/internal/trace"
	"github.com/go-lynx/bundler/task"
)

// BuildResult is what Build and Rebuild return to downstream code-gen:
// the module graph plus every per-module error encountered, keyed by the
// URI it was recorded against, per spec.md §7's "surfaced in the build
// result" propagation rule. BuildID correlates this result's log lines
// and trace events with one build/rebuild invocation.
type BuildResult struct {
	BuildID string
	Graph   *graph.ModuleGraph
	Errors  map[string][]error
}

// Err aggregates every per-module error into one hashicorp/go-multierror
// value, for callers that want a single error to check rather than
// walking the Errors map themselves. Returns nil when the build had no
// per-module failures.
func (r *BuildResult) Err() error {
	var merr *multierror.Error
	for _, errsForURI := range r.Errors {
		merr = multierror.Append(merr, errsForURI...)
	}
	return merr.ErrorOrNil()
}

// Build runs build_start, seeds one Task per entry, drains the result
// channel to quiescence, finalizes exec_order, and runs build_end. Per
// spec.md §4.4.
func (b *Bundler) Build(ctx context.Context) (*BuildResult, error) {
	buildID := uuid.NewString()
	started := time.Now()
	b.logger.Infof("build %s: starting", buildID)
	b.driver.BuildStart(ctx)
	defer b.driver.BuildEnd(ctx)

	// A fresh build starts with an empty visited-set: it lives for one
	// build, per spec.md §3. Rebuild reuses this same Context afterward.
	tctx := task.NewContext(b.driver, b.parser, task.NewPool(b.opts.MaxWorkers), b.opts.ResolverDedup, b.logger, b.metric)
	b.tctx = tctx

	errs := make(map[string][]error)
	entryRids := b.resolveEntries(ctx, errs)

	for _, rid := range entryRids {
		tctx.Spawn(ctx, rid, true)
	}

	if err := b.drain(ctx, tctx, errs); err != nil {
		return nil, err
	}

	b.entryURIs = make(map[string]bool, len(entryRids))
	var entries []*graph.Module
	for _, rid := range entryRids {
		b.entryURIs[rid.ID] = true
		if m := b.graph.ModuleByID(rid.ID); m != nil {
			entries = append(entries, m)
		}
	}
	graph.Finalize(b.graph, entries)

	b.metric.BuildDuration.Observe(time.Since(started).Seconds())
	b.logger.Infof("build %s: finished, %d modules, %d uris with errors", buildID, b.graph.Len(), len(errs))

	return &BuildResult{BuildID: buildID, Graph: b.graph, Errors: errs}, nil
}

// resolveEntries resolves every configured entry specifier concurrently,
// under an errgroup so that one entry's ResolveFailure doesn't block
// resolving and spawning the others (SPEC_FULL's errgroup addition to
// spec.md §4.4 step 2). Per-entry errors are collected into errs rather
// than aborting the whole build.
func (b *Bundler) resolveEntries(ctx context.Context, errs map[string][]error) []*graph.ResolvedId {
	type entryResult struct {
		specifier string
		rid       *graph.ResolvedId
		err       error
	}
	results := make([]entryResult, len(b.opts.Entries))

	g, gctx := errgroup.WithContext(ctx)
	for i, specifier := range b.opts.Entries {
		i, specifier := i, specifier
		g.Go(func() error {
			rid, err := b.driver.ResolveID(gctx, specifier, "", true)
			results[i] = entryResult{specifier: specifier, rid: rid, err: err}
			return nil
		})
	}
	_ = g.Wait() // errors are per-entry results, never a group-level error

	var rids []*graph.ResolvedId
	for _, r := range results {
		if r.err != nil {
			errs[r.specifier] = append(errs[r.specifier], r.err)
			continue
		}
		if r.rid == nil || r.rid.External || r.rid.Ignored {
			continue
		}
		rids = append(rids, r.rid)
	}
	return rids
}

// drain consumes task.Result values until quiescence: the in-flight
// counter is zero and the channel holds nothing more to receive. Per
// spec.md §4.4's termination-correctness argument, checking InFlight==0
// and then performing one more non-blocking receive is sufficient,
// because every increment strictly precedes its spawn and every
// decrement strictly follows the corresponding receive.
func (b *Bundler) drain(ctx context.Context, tctx *task.Context, errs map[string][]error) error {
	for {
		if tctx.Quiescent() {
			select {
			case r := <-tctx.Results:
				if err := b.consume(tctx, r, errs); err != nil {
					return err
				}
				continue
			default:
				return nil
			}
		}

		select {
		case r := <-tctx.Results:
			if err := b.consume(tctx, r, errs); err != nil {
				return err
			}
		case <-ctx.Done():
			return bundlererr.Fatal(bundlererr.HostFailure, "build cancelled", ctx.Err())
		}
	}
}

// consume inserts a finished module into the graph (or records a
// per-module failure), then decrements the in-flight counter strictly
// after the result has been consumed, per spec.md §4.4.
func (b *Bundler) consume(tctx *task.Context, r task.Result, errs map[string][]error) error {
	defer tctx.Finish()

	if r.Err != nil {
		errs[r.URI] = append(errs[r.URI], r.Err)
		b.recordErrorMetric(r.Err)
		trace.Emit("task-finished:"+r.URI, "i", 0, map[string]any{"error": true})
		return nil
	}

	if err := b.graph.Insert(r.Module); err != nil {
		return err // InvariantViolation: fatal, aborts the build
	}
	for _, de := range r.DepErrors {
		errs[r.URI] = append(errs[r.URI], de)
		b.recordErrorMetric(de)
	}
	trace.Emit("task-finished:"+r.URI, "i", 0, nil)
	return nil
}

func (b *Bundler) recordErrorMetric(err error) {
	if be, ok := err.(*bundlererr.Error); ok {
		b.metric.TaskErrors.WithLabelValues(be.Code.String()).Inc()
	}
}
