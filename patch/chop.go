package patch

import (
	"fmt"

	"github.com/aqlang/aql/ast"
)

// Chop cuts an old pipeline segment into the operators to keep above the
// graft point and the record-producing core to keep below, based on
// where the first filter conflicting with the incoming predicates
// occurs. The returned top contains a placeholder at the cut; the bottom
// always returns records.
func Chop(e ast.Expr, incoming []ast.Pred) (top, bottom ast.Expr, conflict bool) {
	switch n := e.(type) {
	case *ast.Invocation, *ast.FunctionCall, *ast.Join:
		// schema leaf: nothing above, the leaf itself is the core
		return &ast.Placeholder{}, e, false
	case *ast.Filter:
		c, rem := Resolve(n.Pred, incoming)
		node := rewriteFilter(n, c, rem)
		if c {
			return &ast.Placeholder{}, locateBottom(node, incoming), true
		}
		return chopAbove(node, incoming)
	case *ast.Projection, *ast.Sort, *ast.Index, *ast.Slice, *ast.Alias,
		*ast.Monitor, *ast.BooleanQuestion, *ast.Aggregation:
		return chopAbove(e, incoming)
	default:
		panic(fmt.Sprintf("patch: chop on unexpected expression %T", e))
	}
}

// rewriteFilter applies a resolution outcome to a filter node: a partial
// conflict keeps the surviving remainder, a full conflict drops the
// filter, a pure redundancy is neutralized to True (the optimizer
// removes it later).
func rewriteFilter(f *ast.Filter, conflict bool, remainder ast.Pred) ast.Expr {
	switch {
	case remainder != nil:
		return &ast.Filter{Inner: f.Inner, Pred: remainder, Schema: f.Schema}
	case conflict:
		return f.Inner
	default:
		return &ast.Filter{Inner: f.Inner, Pred: &ast.TruePred{}, Schema: f.Schema}
	}
}

// chopAbove handles a node with no local conflict: the cut happens
// somewhere below, and this node lands above the cut when it does not
// return records (or when a conflict surfaced below), or on the retained
// core otherwise.
func chopAbove(e ast.Expr, incoming []ast.Pred) (ast.Expr, ast.Expr, bool) {
	inner, ok := ast.Inner(e)
	if !ok {
		return Chop(e, incoming)
	}
	subTop, subBottom, subConflict := Chop(inner, incoming)
	if ast.KindOf(e) != ast.Records || subConflict {
		return ast.WithInner(e, subTop), subBottom, subConflict
	}
	return subTop, ast.WithInner(e, subBottom), false
}

// locateBottom walks the spine below a conflicting filter, re-resolving
// every filter it passes, and returns the subtree below the last
// conflicting one: everything between the first and last conflict is
// inside the disputed region and dropped.
func locateBottom(e ast.Expr, incoming []ast.Pred) ast.Expr {
	bottom, _ := descend(e, incoming)
	return recordsCore(bottom)
}

func descend(e ast.Expr, incoming []ast.Pred) (ast.Expr, bool) {
	switch n := e.(type) {
	case *ast.Invocation, *ast.FunctionCall, *ast.Join:
		return e, false
	case *ast.Filter:
		c, rem := Resolve(n.Pred, incoming)
		sub, subConflict := descend(n.Inner, incoming)
		if subConflict || c {
			// the good bottom starts below the last conflicting filter
			return sub, true
		}
		node := rewriteFilter(&ast.Filter{Inner: sub, Pred: n.Pred, Schema: n.Schema}, false, rem)
		return node, false
	default:
		inner, ok := ast.Inner(e)
		if !ok {
			panic(fmt.Sprintf("patch: locate bottom on unexpected expression %T", e))
		}
		sub, subConflict := descend(inner, incoming)
		if subConflict {
			return sub, true
		}
		return ast.WithInner(n, sub), false
	}
}

// recordsCore unwraps attribute- or number-returning nodes so that the
// retained bottom always produces records.
func recordsCore(e ast.Expr) ast.Expr {
	for ast.KindOf(e) != ast.Records {
		inner, ok := ast.Inner(e)
		if !ok {
			panic(fmt.Sprintf("patch: no record-producing core below %T", e))
		}
		e = inner
	}
	return e
}
