// Package ast defines the minimal syntax-tree shape the bundler core needs
// in order to scan a module for dependencies. The actual parser and code
// generator are external services (parse(source, id) -> AST); this package
// only fixes the contract a parser must populate and a transform plugin may
// rewrite.
package ast

// Node is the generic tree shape a transform plugin may mutate or replace.
// The dependency scanner only ever looks at Statements (top level) and
// Children (everywhere else); a plugin is free to attach arbitrary children
// under any node.
type Node struct {
	Kind     string
	Children []*Node

	// Call is non-nil when this node is a require(...) or import(...)
	// call-expression site; the full scan (spec step 6) looks for it
	// while walking Children. Every other node leaves it nil.
	Call *Call
}

// Call describes a require(...) or import(...) call-expression site.
type Call struct {
	// Callee names which form this call takes.
	Callee string // CalleeRequire | CalleeImport
	// ArgLiteral is the string-literal argument, or nil when the argument
	// is not a literal (an opaque dynamic dependency: recorded, not
	// resolved, per spec.md step 6).
	ArgLiteral *string
	// Order is the call's position in source order.
	Order int
}

// Program is the root of a module's syntax tree.
type Program struct {
	// Statements holds the module's top-level declarations in source order.
	// The pre-scan (spec step 5) walks only this slice.
	Statements []Statement

	// Body holds everything else the full scan walks looking for call
	// expressions such as require(...) and import(...). Kept separate from
	// Statements so the pre-scan never has to filter non-declaration nodes.
	Body []*Node
}

// Statement is a top-level module declaration: an import, or a re-export
// that itself behaves like an import for graph purposes.
type Statement interface {
	statement()
	// Specifier returns the literal module reference this declaration names.
	Specifier() string
	// Pos is the declaration's position in source order, used as the
	// deterministic exec_order tie-break.
	Pos() int
}

// ImportDecl is `import ... from "specifier"`.
type ImportDecl struct {
	Source string
	Order  int
}

func (ImportDecl) statement()          {}
func (d ImportDecl) Specifier() string { return d.Source }
func (d ImportDecl) Pos() int          { return d.Order }

// ExportFromDecl is `export { x } from "specifier"`.
type ExportFromDecl struct {
	Source string
	Order  int
}

func (ExportFromDecl) statement()          {}
func (d ExportFromDecl) Specifier() string { return d.Source }
func (d ExportFromDecl) Pos() int          { return d.Order }

// ExportAllDecl is `export * from "specifier"`.
type ExportAllDecl struct {
	Source string
	Order  int
}

func (ExportAllDecl) statement()          {}
func (d ExportAllDecl) Specifier() string { return d.Source }
func (d ExportAllDecl) Pos() int          { return d.Order }

const (
	CalleeRequire = "require"
	CalleeImport  = "import"
)

// Walk visits n and every descendant in pre-order.
func Walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.Children {
		Walk(c, visit)
	}
}
