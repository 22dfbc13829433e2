package task

import "github.com/go-lynx/bundler/ast"

// preScan walks only the top-level module declarations, per spec.md's
// step 5 "fast fan-out": static import / export-from / export-all.
func preScan(program *ast.Program) []ast.Statement {
	if program == nil {
		return nil
	}
	return program.Statements
}

// fullScan walks the entire body collecting require(...) and import(...)
// call-expression sites, per spec.md's step 6. requires are importer-
// position static dependencies; dynamicImports are import(...) sites,
// literal or opaque.
func fullScan(program *ast.Program) (requires []*ast.Call, dynamicImports []*ast.Call) {
	if program == nil {
		return nil, nil
	}
	for _, n := range program.Body {
		ast.Walk(n, func(node *ast.Node) {
			if node.Call == nil {
				return
			}
			switch node.Call.Callee {
			case ast.CalleeRequire:
				requires = append(requires, node.Call)
			case ast.CalleeImport:
				dynamicImports = append(dynamicImports, node.Call)
			}
		})
	}
	return requires, dynamicImports
}
