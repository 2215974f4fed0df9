package ast

import "fmt"

// CloneExpr returns a deep copy of an expression. Schemas are immutable
// and stay shared between the copy and the original.
func CloneExpr(e Expr) Expr {
	switch n := e.(type) {
	case *Invocation:
		return &Invocation{
			Selector: n.Selector.Clone(),
			Channel:  n.Channel,
			Params:   CloneParams(n.Params),
			Schema:   n.Schema,
		}
	case *FunctionCall:
		return &FunctionCall{Name: n.Name, Params: CloneParams(n.Params), Schema: n.Schema}
	case *Filter:
		return &Filter{Inner: CloneExpr(n.Inner), Pred: ClonePred(n.Pred), Schema: n.Schema}
	case *Projection:
		return &Projection{
			Inner:        CloneExpr(n.Inner),
			Fields:       cloneStrings(n.Fields),
			Computations: CloneComputations(n.Computations),
			Schema:       n.Schema,
		}
	case *Sort:
		return &Sort{Inner: CloneExpr(n.Inner), Field: n.Field, Desc: n.Desc, Schema: n.Schema}
	case *Index:
		return &Index{Inner: CloneExpr(n.Inner), N: n.N, Schema: n.Schema}
	case *Slice:
		return &Slice{Inner: CloneExpr(n.Inner), Base: n.Base, Limit: n.Limit, Schema: n.Schema}
	case *Alias:
		return &Alias{Inner: CloneExpr(n.Inner), Name: n.Name, Schema: n.Schema}
	case *Monitor:
		return &Monitor{Inner: CloneExpr(n.Inner), Fields: cloneStrings(n.Fields), Schema: n.Schema}
	case *BooleanQuestion:
		return &BooleanQuestion{Inner: CloneExpr(n.Inner), Pred: ClonePred(n.Pred), Schema: n.Schema}
	case *Aggregation:
		return &Aggregation{
			Inner:   CloneExpr(n.Inner),
			Op:      n.Op,
			Field:   n.Field,
			GroupBy: cloneStrings(n.GroupBy),
			Schema:  n.Schema,
		}
	case *Join:
		return &Join{
			LHS:    CloneExpr(n.LHS),
			RHS:    CloneExpr(n.RHS),
			Params: CloneParams(n.Params),
			Schema: n.Schema,
		}
	case *Chain:
		stages := make([]Expr, len(n.Stages))
		for i, s := range n.Stages {
			stages[i] = CloneExpr(s)
		}
		return &Chain{Stages: stages, Schema: n.Schema}
	case *Placeholder:
		return &Placeholder{}
	default:
		panic(fmt.Sprintf("ast: CloneExpr on unknown expression %T", e))
	}
}

// CloneChain returns a deep copy of a chain.
func CloneChain(c *Chain) *Chain {
	return CloneExpr(c).(*Chain)
}

// ClonePred returns a deep copy of a predicate.
func ClonePred(p Pred) Pred {
	switch n := p.(type) {
	case *TruePred:
		return &TruePred{}
	case *FalsePred:
		return &FalsePred{}
	case *DontCarePred:
		return &DontCarePred{Name: n.Name}
	case *AtomPred:
		return &AtomPred{Name: n.Name, Op: n.Op, Value: n.Value.Clone()}
	case *AndPred:
		return &AndPred{Operands: clonePreds(n.Operands)}
	case *OrPred:
		return &OrPred{Operands: clonePreds(n.Operands)}
	case *NotPred:
		return &NotPred{Inner: ClonePred(n.Inner)}
	case *ExternalPred:
		return &ExternalPred{
			Selector: n.Selector.Clone(),
			Channel:  n.Channel,
			Params:   CloneParams(n.Params),
			Filter:   ClonePred(n.Filter),
			Schema:   n.Schema,
		}
	case *ComputePred:
		return &ComputePred{LHS: n.LHS.Clone(), Op: n.Op, RHS: n.RHS.Clone()}
	default:
		panic(fmt.Sprintf("ast: ClonePred on unknown predicate %T", p))
	}
}

// CloneComputations returns a deep copy of a computation list.
func CloneComputations(cs []Computation) []Computation {
	if cs == nil {
		return nil
	}
	out := make([]Computation, len(cs))
	for i, c := range cs {
		args := make([]Value, len(c.Args))
		for j, a := range c.Args {
			args[j] = a.Clone()
		}
		out[i] = Computation{Name: c.Name, Fn: c.Fn, Args: args}
	}
	return out
}

func clonePreds(ps []Pred) []Pred {
	out := make([]Pred, len(ps))
	for i, p := range ps {
		out[i] = ClonePred(p)
	}
	return out
}

func cloneStrings(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, len(ss))
	copy(out, ss)
	return out
}
