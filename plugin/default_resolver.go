package plugin

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-lynx/bundler/graph"
)

// DefaultResolver is the node-style path resolver the driver falls back
// to when no configured plugin claims a specifier: it consults alias
// prefixes, tries a fixed extension list, and falls back to an
// index.<ext> file for directory specifiers.
type DefaultResolver struct {
	Root       string
	Alias      map[string]string
	Extensions []string // tried in order, e.g. [".ts", ".tsx", ".js", ".jsx", ".json"]
}

// NewDefaultResolver builds a DefaultResolver rooted at root with the
// given alias table. A zero-value Extensions falls back to a sensible
// JS/TS default set.
func NewDefaultResolver(root string, alias map[string]string, extensions []string) *DefaultResolver {
	if len(extensions) == 0 {
		extensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".json"}
	}
	if alias == nil {
		alias = map[string]string{}
	}
	return &DefaultResolver{Root: root, Alias: alias, Extensions: extensions}
}

func (r *DefaultResolver) Name() string { return "default-resolver" }

// ResolveID implements ResolverPlugin. External (bare, non-relative,
// non-aliased) specifiers are reported as external rather than failing,
// so that e.g. "react" resolves to an external edge instead of a
// ResolveFailure.
func (r *DefaultResolver) ResolveID(_ context.Context, specifier, importer string, isEntry bool) (*graph.ResolvedId, error) {
	resolved := specifier
	aliased := false
	for prefix, replacement := range r.Alias {
		if strings.HasPrefix(specifier, prefix) {
			resolved = replacement + strings.TrimPrefix(specifier, prefix)
			aliased = true
			break
		}
	}

	if !aliased && !isRelative(resolved) {
		// Bare specifier with no matching alias: treat as an external
		// package reference rather than attempting filesystem resolution.
		return &graph.ResolvedId{ID: specifier, External: true, Kind: graph.StaticImport}, nil
	}

	base := resolved
	if !filepath.IsAbs(base) {
		dir := importer
		if dir == "" || isEntry {
			dir = r.Root
		} else {
			dir = filepath.Dir(importer)
		}
		base = filepath.Join(dir, resolved)
	}

	if path, ok := r.tryFile(base); ok {
		return &graph.ResolvedId{ID: path, External: false, Kind: graph.StaticImport}, nil
	}
	return nil, nil
}

func (r *DefaultResolver) tryFile(base string) (string, bool) {
	if fileExists(base) {
		return base, true
	}
	for _, ext := range r.Extensions {
		if candidate := base + ext; fileExists(candidate) {
			return candidate, true
		}
	}
	for _, ext := range r.Extensions {
		if candidate := filepath.Join(base, "index"+ext); fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") || filepath.IsAbs(specifier)
}
