package patch

import (
	"fmt"

	"github.com/aqlang/aql/ast"
	"github.com/aqlang/aql/optimize"
)

// ApplyProgram applies an edit program to an old program, statement by
// statement. Statements that are not plain expression statements cannot
// be merged; they are passed through from the edit and reported in the
// returned diagnostics. The result is always best-effort, never a hard
// failure.
func ApplyProgram(old, edit *ast.Program) (*ast.Program, []string) {
	var diags []string
	var stmts []ast.Stmt
	for i, es := range edit.Stmts {
		if i >= len(old.Stmts) {
			stmts = append(stmts, es)
			continue
		}
		newStmt, ok := es.(*ast.ExprStmt)
		if !ok {
			diags = append(diags, fmt.Sprintf("statement %d: %T is not mergeable, kept as written", i, es))
			stmts = append(stmts, es)
			continue
		}
		oldStmt, ok := old.Stmts[i].(*ast.ExprStmt)
		if !ok {
			diags = append(diags, fmt.Sprintf("statement %d: cannot merge into %T, kept as written", i, old.Stmts[i]))
			stmts = append(stmts, es)
			continue
		}
		merged, err := Apply(oldStmt.Chain, &ast.Edit{Stages: newStmt.Chain, Op: ast.RefineOp})
		if err != nil {
			diags = append(diags, fmt.Sprintf("statement %d: %v, kept as written", i, err))
			stmts = append(stmts, es)
			continue
		}
		if merged == nil {
			diags = append(diags, fmt.Sprintf("statement %d: merged pipeline can produce no results, dropped", i))
			continue
		}
		stmts = append(stmts, &ast.ExprStmt{Chain: merged})
	}
	return &ast.Program{Stmts: stmts}, diags
}

// Same is a pure equality probe: it reports whether two pipelines are
// structurally equal, become equal after independent canonicalization,
// or agree on everything except filter content. No conflict analysis is
// performed.
func Same(e1, e2 *ast.Chain) bool {
	if ast.EqualExpr(e1, e2) {
		return true
	}
	o1 := optimize.Chain(ast.CloneChain(e1))
	o2 := optimize.Chain(ast.CloneChain(e2))
	if o1 != nil && o2 != nil && ast.EqualExpr(o1, o2) {
		return true
	}
	s1 := optimize.Chain(stripFilters(ast.CloneChain(e1)))
	s2 := optimize.Chain(stripFilters(ast.CloneChain(e2)))
	return s1 != nil && s2 != nil && ast.EqualExpr(s1, s2)
}

// stripFilters neutralizes every filter predicate in place. The chain
// must be an owned clone.
func stripFilters(c *ast.Chain) *ast.Chain {
	ast.Walk(c, func(n ast.Expr) bool {
		if f, ok := n.(*ast.Filter); ok {
			f.Pred = &ast.TruePred{}
		}
		return true
	})
	return c
}
