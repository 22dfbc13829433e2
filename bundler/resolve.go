package bundler

import "context"

// ResolveResult is the host-facing result of Resolve, per spec.md §6:
// `{ ok: bool, path: string? }`.
type ResolveResult struct {
	OK   bool
	Path string
}

// Resolve directly delegates to the plugin driver's resolve_id hook,
// exposed for host-language consumers that want the resolver without a
// full build. Per spec.md §4.4 and §7: non-Path results (external,
// ignored) report {ok:false, path:nil}; a default-resolver failure
// surfaces as a ResolveFailure error.
func (b *Bundler) Resolve(ctx context.Context, specifier, fromDir string) (ResolveResult, error) {
	rid, err := b.driver.ResolveID(ctx, specifier, fromDir, false)
	if err != nil {
		return ResolveResult{}, err
	}
	if rid == nil || rid.External || rid.Ignored {
		return ResolveResult{OK: false}, nil
	}
	return ResolveResult{OK: true, Path: rid.ID}, nil
}
