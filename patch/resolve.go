// Package patch merges a previously-accepted pipeline with a partial
// edit expression from the next conversational turn: it matches edit
// stages to old stages by invoked function, cuts each matched old stage
// at the first conflicting filter, grafts the retained core under the
// edit stage and reattaches the compatible old operators on top.
package patch

import (
	"github.com/aqlang/aql/ast"
)

// Resolve decides how one old predicate relates to the incoming
// constraints of an edit. It returns:
//
//	conflict  remainder  meaning
//	true      nil        old is fully superseded, drop it
//	true      non-nil    only part of old survives; use remainder
//	false     nil        old exactly restates an incoming constraint; drop it
//	false     non-nil    old is independent; keep as-is
func Resolve(old ast.Pred, incoming []ast.Pred) (conflict bool, remainder ast.Pred) {
	switch o := old.(type) {
	case *ast.AndPred:
		// one incompatible conjunct poisons the conjunction, but the
		// compatible conjuncts survive
		var rem []ast.Pred
		for _, op := range o.Operands {
			c, r := Resolve(op, incoming)
			conflict = conflict || c
			if r != nil {
				rem = append(rem, r)
			}
		}
		return conflict, rebuildJunction(rem, true)
	case *ast.OrPred:
		// satisfying any one disjunct keeps the disjunction alive
		conflict = true
		var rem []ast.Pred
		for _, op := range o.Operands {
			c, r := Resolve(op, incoming)
			conflict = conflict && c
			if r != nil {
				rem = append(rem, r)
			}
		}
		return conflict, rebuildJunction(rem, false)
	case *ast.NotPred:
		// negated compounds resolve through their De Morgan expansion
		switch inner := o.Inner.(type) {
		case *ast.AndPred:
			return Resolve(&ast.OrPred{Operands: negateAll(inner.Operands)}, incoming)
		case *ast.OrPred:
			return Resolve(&ast.AndPred{Operands: negateAll(inner.Operands)}, incoming)
		}
		return resolveLeaf(old, incoming)
	default:
		return resolveLeaf(old, incoming)
	}
}

// resolveLeaf resolves an atomic old predicate (atom, negated atom,
// existence or scalar comparison) against every incoming constraint.
func resolveLeaf(old ast.Pred, incoming []ast.Pred) (bool, ast.Pred) {
	redundant := false
	for _, in := range incoming {
		c, r := leafAgainst(old, in)
		if c {
			return true, nil
		}
		redundant = redundant || r
	}
	if redundant {
		return false, nil
	}
	return false, old
}

// leafAgainst compares an atomic old predicate to one incoming
// constraint, reporting conflict and redundancy.
func leafAgainst(old, in ast.Pred) (conflict, redundant bool) {
	if ast.EqualPred(old, in) {
		return false, true
	}
	switch m := in.(type) {
	case *ast.AndPred:
		// everything in the incoming conjunction must jointly hold, so
		// one incompatible conjunct makes the whole constraint
		// incompatible with old
		for _, op := range m.Operands {
			c, r := leafAgainst(old, op)
			conflict = conflict || c
			redundant = redundant || r
		}
		if conflict {
			return true, false
		}
		return false, redundant
	case *ast.OrPred:
		// old survives as long as one incoming disjunct is compatible
		conflict, redundant = true, true
		for _, op := range m.Operands {
			c, r := leafAgainst(old, op)
			conflict = conflict && c
			redundant = redundant && r
		}
		return conflict, !conflict && redundant
	case *ast.NotPred:
		if ast.EqualPred(old, m.Inner) {
			return true, false
		}
	case *ast.AtomPred:
		if oa, ok := old.(*ast.AtomPred); ok {
			if oa.Op == ast.OpEq && m.Op == ast.OpEq && oa.Name == m.Name && !oa.Value.Equal(m.Value) {
				return true, false
			}
		}
		if on, ok := old.(*ast.NotPred); ok && ast.EqualPred(on.Inner, in) {
			return true, false
		}
	}
	return false, false
}

func negateAll(operands []ast.Pred) []ast.Pred {
	out := make([]ast.Pred, len(operands))
	for i, op := range operands {
		if not, ok := op.(*ast.NotPred); ok {
			out[i] = not.Inner
			continue
		}
		out[i] = &ast.NotPred{Inner: op}
	}
	return out
}

func rebuildJunction(rem []ast.Pred, conjunction bool) ast.Pred {
	switch len(rem) {
	case 0:
		return nil
	case 1:
		return rem[0]
	}
	if conjunction {
		return &ast.AndPred{Operands: rem}
	}
	return &ast.OrPred{Operands: rem}
}
