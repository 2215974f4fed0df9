// Package optimize canonicalizes pipeline expressions and filter
// predicates through a confluent set of local rewriting rules. Both
// ordinary pipeline construction and incremental patching run their
// trees through this package before comparing or splicing them.
package optimize

import (
	"fmt"
	"sort"

	"github.com/aqlang/aql/ast"
)

// Pred reduces a predicate to normal form: associative operators are
// flattened, tautologies and contradictions folded, duplicates dropped,
// disjunctions of equalities collapsed into set membership, and operands
// ordered deterministically. Pred is idempotent and total.
func Pred(p ast.Pred) ast.Pred {
	switch n := p.(type) {
	case *ast.TruePred, *ast.FalsePred, *ast.DontCarePred:
		return p
	case *ast.AndPred:
		return optimizeAnd(n)
	case *ast.OrPred:
		return optimizeOr(n)
	case *ast.NotPred:
		return optimizeNot(n)
	case *ast.ExternalPred:
		return optimizeExternal(n)
	case *ast.ComputePred:
		return optimizeCompute(n)
	case *ast.AtomPred:
		return optimizeAtom(n)
	default:
		panic(fmt.Sprintf("optimize: unknown predicate %T", p))
	}
}

func optimizeAnd(p *ast.AndPred) ast.Pred {
	operands := make([]ast.Pred, 0, len(p.Operands))
	seen := make(map[string]bool)
	for _, op := range flattenAnd(p.Operands) {
		q := Pred(op)
		switch q.(type) {
		case *ast.TruePred:
			continue
		case *ast.FalsePred:
			return &ast.FalsePred{}
		case *ast.AndPred:
			// optimizing an operand can re-introduce nesting
			for _, sub := range q.(*ast.AndPred).Operands {
				if key := ast.PredString(sub); !seen[key] {
					seen[key] = true
					operands = append(operands, sub)
				}
			}
			continue
		}
		if key := ast.PredString(q); !seen[key] {
			seen[key] = true
			operands = append(operands, q)
		}
	}
	switch len(operands) {
	case 0:
		return &ast.TruePred{}
	case 1:
		return operands[0]
	}
	sortPreds(operands)
	return &ast.AndPred{Operands: operands}
}

func optimizeOr(p *ast.OrPred) ast.Pred {
	operands := make([]ast.Pred, 0, len(p.Operands))
	seen := make(map[string]bool)
	for _, op := range flattenOr(p.Operands) {
		q := Pred(op)
		switch q.(type) {
		case *ast.FalsePred:
			continue
		case *ast.TruePred:
			return &ast.TruePred{}
		case *ast.OrPred:
			for _, sub := range q.(*ast.OrPred).Operands {
				if key := ast.PredString(sub); !seen[key] {
					seen[key] = true
					operands = append(operands, sub)
				}
			}
			continue
		}
		if key := ast.PredString(q); !seen[key] {
			seen[key] = true
			operands = append(operands, q)
		}
	}
	operands = collapseMembership(operands)
	switch len(operands) {
	case 0:
		return &ast.FalsePred{}
	case 1:
		return operands[0]
	}
	sortPreds(operands)
	return &ast.OrPred{Operands: operands}
}

// collapseMembership folds two or more equality (or like) atoms on the
// same field into a single set-membership atom. Singletons stay as
// plain atoms.
func collapseMembership(operands []ast.Pred) []ast.Pred {
	type group struct {
		values []ast.Value
		first  int
	}
	groups := make(map[string]*group)
	for i, op := range operands {
		atom, ok := op.(*ast.AtomPred)
		if !ok || (atom.Op != ast.OpEq && atom.Op != ast.OpLike) {
			continue
		}
		key := atom.Name + "\x00" + atom.Op
		g := groups[key]
		if g == nil {
			g = &group{first: i}
			groups[key] = g
		}
		g.values = append(g.values, atom.Value)
	}

	out := make([]ast.Pred, 0, len(operands))
	emitted := make(map[string]bool)
	for _, op := range operands {
		atom, ok := op.(*ast.AtomPred)
		if !ok || (atom.Op != ast.OpEq && atom.Op != ast.OpLike) {
			out = append(out, op)
			continue
		}
		key := atom.Name + "\x00" + atom.Op
		g := groups[key]
		if len(g.values) < 2 {
			out = append(out, op)
			continue
		}
		if emitted[key] {
			continue
		}
		emitted[key] = true
		setOp := ast.OpIn
		if atom.Op == ast.OpLike {
			setOp = ast.OpInLike
		}
		out = append(out, &ast.AtomPred{Name: atom.Name, Op: setOp, Value: ast.ArrVal(g.values...)})
	}
	return out
}

func optimizeNot(p *ast.NotPred) ast.Pred {
	inner := Pred(p.Inner)
	switch q := inner.(type) {
	case *ast.NotPred:
		return q.Inner
	case *ast.TruePred:
		return &ast.FalsePred{}
	case *ast.FalsePred:
		return &ast.TruePred{}
	}
	return &ast.NotPred{Inner: inner}
}

func optimizeExternal(p *ast.ExternalPred) ast.Pred {
	filter := Pred(p.Filter)
	// An unsatisfiable sub-filter means no row can ever match. A True
	// sub-filter does not make the whole predicate True: the external
	// call may still return zero rows.
	if _, ok := filter.(*ast.FalsePred); ok {
		return &ast.FalsePred{}
	}
	return &ast.ExternalPred{
		Selector: p.Selector.Clone(),
		Channel:  p.Channel,
		Params:   ast.CloneParams(p.Params),
		Filter:   filter,
		Schema:   p.Schema,
	}
}

func optimizeCompute(p *ast.ComputePred) ast.Pred {
	lhs, op, rhs := p.LHS, p.Op, p.RHS
	if !lhs.IsRef() && rhs.IsRef() {
		lhs, rhs = rhs, lhs
		op = flipOp(op)
	}
	if lhs.Equal(rhs) && foldsOnSelf(op) {
		return &ast.TruePred{}
	}
	if lhs.IsConstant() && rhs.IsConstant() && op == ast.OpEq {
		return &ast.FalsePred{}
	}
	if lhs.IsRef() && !rhs.IsRef() {
		// a reference compared against a constant is a plain atom
		return optimizeAtom(&ast.AtomPred{Name: lhs.Ref, Op: op, Value: rhs})
	}
	return &ast.ComputePred{LHS: lhs.Clone(), Op: op, RHS: rhs.Clone()}
}

func optimizeAtom(p *ast.AtomPred) ast.Pred {
	if p.Value.IsRef() && p.Value.Ref == p.Name && foldsOnSelf(p.Op) {
		return &ast.TruePred{}
	}
	return &ast.AtomPred{Name: p.Name, Op: p.Op, Value: p.Value.Clone()}
}

// foldsOnSelf reports whether "x op x" always holds.
func foldsOnSelf(op string) bool {
	switch op {
	case ast.OpEq, ast.OpLike, ast.OpGe, ast.OpLe:
		return true
	}
	return false
}

func flipOp(op string) string {
	switch op {
	case ast.OpLt:
		return ast.OpGt
	case ast.OpGt:
		return ast.OpLt
	case ast.OpLe:
		return ast.OpGe
	case ast.OpGe:
		return ast.OpLe
	}
	return op
}

func flattenAnd(operands []ast.Pred) []ast.Pred {
	out := make([]ast.Pred, 0, len(operands))
	for _, op := range operands {
		if and, ok := op.(*ast.AndPred); ok {
			out = append(out, flattenAnd(and.Operands)...)
			continue
		}
		out = append(out, op)
	}
	return out
}

func flattenOr(operands []ast.Pred) []ast.Pred {
	out := make([]ast.Pred, 0, len(operands))
	for _, op := range operands {
		if or, ok := op.(*ast.OrPred); ok {
			out = append(out, flattenOr(or.Operands)...)
			continue
		}
		out = append(out, op)
	}
	return out
}

// sortPreds orders operands by their printed form so that equal
// predicates print identically regardless of construction order.
func sortPreds(operands []ast.Pred) {
	sort.SliceStable(operands, func(i, j int) bool {
		return ast.PredString(operands[i]) < ast.PredString(operands[j])
	})
}
