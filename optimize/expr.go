package optimize

import (
	"fmt"

	"github.com/aqlang/aql/ast"
)

// Chain canonicalizes a whole pipeline: nested chains are flattened and
// every stage is optimized. Only the last stage may keep projections;
// earlier stages feed later ones and must retain all fields. Returns nil
// when some stage is proven to produce no results, starving the rest of
// the chain.
func Chain(c *ast.Chain) *ast.Chain {
	stages := flattenStages(c.Stages)
	out := make([]ast.Expr, 0, len(stages))
	for i, s := range stages {
		e := Expr(s, i == len(stages)-1)
		if e == nil {
			return nil
		}
		out = append(out, e)
	}
	return &ast.Chain{Stages: out, Schema: c.Schema}
}

// Expr canonicalizes one expression. allowProjection grants the right to
// keep field-pruning projections; when false, pure projections are
// dropped (no constraint-relevant information is lost once downstream no
// longer needs pruning). Returns nil when the expression is proven to
// produce no results.
func Expr(e ast.Expr, allowProjection bool) ast.Expr {
	switch n := e.(type) {
	case *ast.Invocation, *ast.FunctionCall, *ast.Placeholder:
		return e
	case *ast.Filter:
		return optimizeFilter(n, allowProjection)
	case *ast.Projection:
		return optimizeProjection(n, allowProjection)
	case *ast.Monitor:
		return optimizeMonitor(n, allowProjection)
	case *ast.Sort:
		inner := Expr(n.Inner, false)
		if inner == nil {
			return nil
		}
		return &ast.Sort{Inner: inner, Field: n.Field, Desc: n.Desc, Schema: n.Schema}
	case *ast.Index:
		inner := Expr(n.Inner, false)
		if inner == nil {
			return nil
		}
		return &ast.Index{Inner: inner, N: n.N, Schema: n.Schema}
	case *ast.Slice:
		inner := Expr(n.Inner, false)
		if inner == nil {
			return nil
		}
		if n.Limit == 1 {
			return &ast.Index{Inner: inner, N: n.Base, Schema: n.Schema}
		}
		return &ast.Slice{Inner: inner, Base: n.Base, Limit: n.Limit, Schema: n.Schema}
	case *ast.Alias:
		inner := Expr(n.Inner, false)
		if inner == nil {
			return nil
		}
		return &ast.Alias{Inner: inner, Name: n.Name, Schema: n.Schema}
	case *ast.BooleanQuestion:
		inner := Expr(n.Inner, false)
		if inner == nil {
			return nil
		}
		return &ast.BooleanQuestion{Inner: inner, Pred: Pred(n.Pred), Schema: n.Schema}
	case *ast.Aggregation:
		inner := Expr(n.Inner, false)
		if inner == nil {
			return nil
		}
		return &ast.Aggregation{Inner: inner, Op: n.Op, Field: n.Field, GroupBy: n.GroupBy, Schema: n.Schema}
	case *ast.Join:
		return optimizeJoin(n)
	case *ast.Chain:
		c := Chain(n)
		if c == nil {
			return nil
		}
		if len(c.Stages) == 1 {
			return c.Stages[0]
		}
		return c
	default:
		panic(fmt.Sprintf("optimize: unknown expression %T", e))
	}
}

func optimizeFilter(f *ast.Filter, allowProjection bool) ast.Expr {
	pred := Pred(f.Pred)
	switch pred.(type) {
	case *ast.FalsePred:
		return nil
	case *ast.TruePred:
		return Expr(f.Inner, allowProjection)
	}
	inner := Expr(f.Inner, allowProjection)
	if inner == nil {
		return nil
	}
	switch in := inner.(type) {
	case *ast.Filter:
		merged := Pred(&ast.AndPred{Operands: []ast.Pred{in.Pred, pred}})
		return optimizeFilter(&ast.Filter{Inner: in.Inner, Pred: merged, Schema: in.Schema}, allowProjection)
	case *ast.Projection:
		// Filters commute with pure field projections; projections
		// with computations stay put since the filter may reference a
		// computed field.
		if len(in.Computations) == 0 {
			filtered := optimizeFilter(&ast.Filter{Inner: in.Inner, Pred: pred, Schema: f.Schema}, false)
			if filtered == nil {
				return nil
			}
			if !allowProjection {
				return filtered
			}
			return &ast.Projection{
				Inner:  filtered,
				Fields: in.Fields,
				Schema: in.Schema,
			}
		}
	}
	return &ast.Filter{Inner: inner, Pred: pred, Schema: f.Schema}
}

func optimizeProjection(p *ast.Projection, allowProjection bool) ast.Expr {
	inner := Expr(p.Inner, false)
	if inner == nil {
		return nil
	}
	if !allowProjection && len(p.Computations) == 0 {
		return inner
	}
	// A projection identical to one already produced on this branch is
	// redundant.
	if hasIdenticalProjection(inner, p) {
		return inner
	}
	if in, ok := inner.(*ast.Projection); ok {
		return collapseProjections(p, in)
	}
	return &ast.Projection{
		Inner:        inner,
		Fields:       p.Fields,
		Computations: p.Computations,
		Schema:       p.Schema,
	}
}

// collapseProjections merges an outer projection into the inner one.
// Inner computations shadowed by a same-named outer computation are
// dropped; inner computations still referenced by the outer projection
// survive in a residual inner projection.
func collapseProjections(outer, inner *ast.Projection) ast.Expr {
	shadowed := make(map[string]bool)
	for _, c := range outer.Computations {
		shadowed[c.Name] = true
	}
	referenced := make(map[string]bool)
	for _, f := range outer.Fields {
		referenced[f] = true
	}
	for _, c := range outer.Computations {
		for _, a := range c.Args {
			if a.IsRef() {
				referenced[a.Ref] = true
			}
		}
	}

	var keep []ast.Computation
	for _, c := range inner.Computations {
		if !shadowed[c.Name] && referenced[c.Name] {
			keep = append(keep, c)
		}
	}
	if len(keep) == 0 {
		return &ast.Projection{
			Inner:        inner.Inner,
			Fields:       outer.Fields,
			Computations: outer.Computations,
			Schema:       outer.Schema,
		}
	}
	residual := &ast.Projection{
		Inner:        inner.Inner,
		Fields:       inner.Fields,
		Computations: keep,
		Schema:       inner.Schema,
	}
	return &ast.Projection{
		Inner:        residual,
		Fields:       outer.Fields,
		Computations: outer.Computations,
		Schema:       outer.Schema,
	}
}

// optimizeMonitor commutes a monitor below a pure projection: change
// detection must observe every field that matters before the projection
// discards the rest. The inner expression keeps its projections here so
// the commuted monitor can inherit their fields; the projection itself
// floats above the monitor only where projections are allowed.
func optimizeMonitor(m *ast.Monitor, allowProjection bool) ast.Expr {
	inner := Expr(m.Inner, true)
	if inner == nil {
		return nil
	}
	if p, ok := inner.(*ast.Projection); ok && len(p.Computations) == 0 {
		fields := m.Fields
		if len(fields) == 0 {
			fields = p.Fields
		}
		mon := &ast.Monitor{Inner: p.Inner, Fields: fields, Schema: m.Schema}
		if !allowProjection {
			return mon
		}
		return &ast.Projection{Inner: mon, Fields: p.Fields, Schema: p.Schema}
	}
	return &ast.Monitor{Inner: inner, Fields: m.Fields, Schema: m.Schema}
}

func optimizeJoin(j *ast.Join) ast.Expr {
	lhs := Expr(j.LHS, false)
	rhs := Expr(j.RHS, false)
	if lhs == nil || rhs == nil {
		return nil
	}
	lhs = unwrapSingleton(lhs)
	rhs = unwrapSingleton(rhs)
	return &ast.Join{LHS: lhs, RHS: rhs, Params: j.Params, Schema: j.Schema}
}

func unwrapSingleton(e ast.Expr) ast.Expr {
	if c, ok := e.(*ast.Chain); ok && len(c.Stages) == 1 {
		return c.Stages[0]
	}
	return e
}

// hasIdenticalProjection looks down the unary spine for a projection
// equal to p. The search never crosses a join, alias or aggregation:
// those change what parameter references mean.
func hasIdenticalProjection(e ast.Expr, p *ast.Projection) bool {
	for {
		switch n := e.(type) {
		case *ast.Projection:
			if sameProjectionShape(n, p) {
				return true
			}
			e = n.Inner
		case *ast.Filter, *ast.Sort, *ast.Index, *ast.Slice, *ast.Monitor, *ast.BooleanQuestion:
			inner, _ := ast.Inner(e)
			e = inner
		default:
			return false
		}
	}
}

func sameProjectionShape(a, b *ast.Projection) bool {
	stripped := &ast.Projection{Fields: a.Fields, Computations: a.Computations, Inner: &ast.Placeholder{}}
	other := &ast.Projection{Fields: b.Fields, Computations: b.Computations, Inner: &ast.Placeholder{}}
	return ast.EqualExpr(stripped, other)
}

func flattenStages(stages []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, 0, len(stages))
	for _, s := range stages {
		if c, ok := s.(*ast.Chain); ok {
			out = append(out, flattenStages(c.Stages)...)
			continue
		}
		out = append(out, s)
	}
	return out
}
