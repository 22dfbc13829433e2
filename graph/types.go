// Package graph holds the bundler's core data model: resolved ids,
// dependencies, finished modules, and the accumulating module graph keyed
// by URI. See original_source/crates/rspack_core/src/module.rs for the
// shape this generalizes from.
package graph

import "github.com/go-lynx/bundler/ast"

// DependencyKind classifies how a module referenced another.
type DependencyKind int

const (
	StaticImport DependencyKind = iota
	DynamicImport
	ExportAll
	ExportNamed
	Require
)

func (k DependencyKind) String() string {
	switch k {
	case StaticImport:
		return "StaticImport"
	case DynamicImport:
		return "DynamicImport"
	case ExportAll:
		return "ExportAll"
	case ExportNamed:
		return "ExportNamed"
	case Require:
		return "Require"
	default:
		return "Unknown"
	}
}

// ResolvedId is the immutable result of resolving a specifier. Created by
// the resolve_id hook; shared freely thereafter.
type ResolvedId struct {
	ID       string // canonical URI
	External bool
	Kind     DependencyKind
	Ignored  bool
}

// ModuleSource is what the load hook produces: raw text keyed by URI. It
// is consumed by the parser and then dropped; the finished Module never
// retains it.
type ModuleSource struct {
	Content string
	ID      string
}

// Dependency is one specifier a module referenced, discovered by the
// scanner and attached to the finished module.
type Dependency struct {
	Specifier  string
	Kind       DependencyKind
	ResolvedID *ResolvedId // filled in after resolution; nil for unresolved/opaque
	Order      int         // source position, used as the exec_order tie-break
}

// Module is a finished, processed module: the result of one Task.
type Module struct {
	ID   string
	AST  *ast.Program
	// Dependencies holds every static reference (imports, export-from,
	// literal require); one whose resolution failed has a nil ResolvedID.
	// DynImports holds every import(...) site: literal ones, and opaque
	// ones with an empty Specifier and a nil ResolvedID.
	Dependencies []Dependency
	DynImports   []Dependency
	// ResolvedIDs maps every specifier in this module that resolved to its
	// ResolvedId, including ones that turned out external or ignored;
	// specifiers whose resolution failed are absent.
	ResolvedIDs map[string]*ResolvedId
	IsEntry     bool
	// ExecOrder is assigned by the finalize pass after quiescence; zero
	// until then.
	ExecOrder int
}
