package ast

// Walk visits e and every expression below it in pre-order, including
// join sides and chain stages. If fn returns false the children of the
// current node are skipped.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *Join:
		Walk(n.LHS, fn)
		Walk(n.RHS, fn)
	case *Chain:
		for _, s := range n.Stages {
			Walk(s, fn)
		}
	default:
		if inner, ok := Inner(e); ok {
			Walk(inner, fn)
		}
	}
}

// WalkPred visits p and every predicate below it in pre-order,
// descending into the sub-filters of existence predicates.
func WalkPred(p Pred, fn func(Pred) bool) {
	if p == nil || !fn(p) {
		return
	}
	switch n := p.(type) {
	case *AndPred:
		for _, op := range n.Operands {
			WalkPred(op, fn)
		}
	case *OrPred:
		for _, op := range n.Operands {
			WalkPred(op, fn)
		}
	case *NotPred:
		WalkPred(n.Inner, fn)
	case *ExternalPred:
		WalkPred(n.Filter, fn)
	}
}
