package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// ExprString returns the canonical surface-syntax form of an expression.
// The printed form is injective on canonical trees: the optimizer and the
// patch engine use it both as the structural-equality key and as the
// deterministic ordering key for predicate operands.
func ExprString(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

// PredString returns the canonical surface-syntax form of a predicate.
func PredString(p Pred) string {
	var b strings.Builder
	writePred(&b, p)
	return b.String()
}

// EqualExpr reports structural equality of two expressions.
func EqualExpr(a, b Expr) bool {
	return ExprString(a) == ExprString(b)
}

// EqualPred reports structural equality of two predicates.
func EqualPred(a, b Pred) bool {
	return PredString(a) == PredString(b)
}

func (p *Program) String() string {
	parts := make([]string, len(p.Stmts))
	for i, s := range p.Stmts {
		parts[i] = StmtString(s)
	}
	return strings.Join(parts, "; ")
}

// StmtString returns the surface-syntax form of a statement.
func StmtString(s Stmt) string {
	switch st := s.(type) {
	case *ExprStmt:
		return ExprString(st.Chain)
	case *LetStmt:
		return "let " + st.Name + " = " + ExprString(st.Chain)
	default:
		panic(fmt.Sprintf("ast: StmtString on unknown statement %T", s))
	}
}

func writeExpr(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *Invocation:
		writeSelector(b, n.Selector)
		b.WriteByte('.')
		b.WriteString(n.Channel)
		writeParams(b, n.Params)
	case *FunctionCall:
		b.WriteString(n.Name)
		writeParams(b, n.Params)
	case *Filter:
		writeExpr(b, n.Inner)
		b.WriteString(" | filter { ")
		writePred(b, n.Pred)
		b.WriteString(" }")
	case *Projection:
		writeExpr(b, n.Inner)
		b.WriteString(" | project ")
		items := make([]string, 0, len(n.Fields)+len(n.Computations))
		items = append(items, n.Fields...)
		for _, c := range n.Computations {
			items = append(items, computationString(c))
		}
		b.WriteString(strings.Join(items, ", "))
	case *Sort:
		writeExpr(b, n.Inner)
		b.WriteString(" | sort ")
		b.WriteString(n.Field)
		if n.Desc {
			b.WriteString(" desc")
		} else {
			b.WriteString(" asc")
		}
	case *Index:
		writeExpr(b, n.Inner)
		b.WriteString(" | index ")
		b.WriteString(strconv.Itoa(n.N))
	case *Slice:
		writeExpr(b, n.Inner)
		fmt.Fprintf(b, " | slice %d %d", n.Base, n.Limit)
	case *Alias:
		writeExpr(b, n.Inner)
		b.WriteString(" | as ")
		b.WriteString(n.Name)
	case *Monitor:
		writeExpr(b, n.Inner)
		b.WriteString(" | monitor")
		if len(n.Fields) > 0 {
			b.WriteString(" on ")
			b.WriteString(strings.Join(n.Fields, ", "))
		}
	case *BooleanQuestion:
		writeExpr(b, n.Inner)
		b.WriteString(" | ask { ")
		writePred(b, n.Pred)
		b.WriteString(" }")
	case *Aggregation:
		writeExpr(b, n.Inner)
		b.WriteString(" | agg ")
		b.WriteString(n.Op)
		if n.Field != "" {
			b.WriteByte(' ')
			b.WriteString(n.Field)
		}
		if len(n.GroupBy) > 0 {
			b.WriteString(" by ")
			b.WriteString(strings.Join(n.GroupBy, ", "))
		}
	case *Join:
		writeExpr(b, n.LHS)
		b.WriteString(" | join (")
		writeExpr(b, n.RHS)
		b.WriteByte(')')
		if len(n.Params) > 0 {
			b.WriteString(" on ")
			writeParams(b, n.Params)
		}
	case *Chain:
		for i, s := range n.Stages {
			if i > 0 {
				b.WriteString(" => ")
			}
			writeExpr(b, s)
		}
	case *Placeholder:
		b.WriteString("$?")
	default:
		panic(fmt.Sprintf("ast: print on unknown expression %T", e))
	}
}

func writePred(b *strings.Builder, p Pred) {
	switch n := p.(type) {
	case *TruePred:
		b.WriteString("true")
	case *FalsePred:
		b.WriteString("false")
	case *DontCarePred:
		b.WriteByte('*')
		b.WriteString(n.Name)
	case *AtomPred:
		b.WriteString(n.Name)
		b.WriteByte(' ')
		b.WriteString(surfaceOp(n.Op))
		b.WriteByte(' ')
		b.WriteString(n.Value.String())
	case *AndPred:
		writeJunction(b, n.Operands, " and ")
	case *OrPred:
		writeJunction(b, n.Operands, " or ")
	case *NotPred:
		b.WriteString("not (")
		writePred(b, n.Inner)
		b.WriteByte(')')
	case *ExternalPred:
		b.WriteString("exists ")
		writeSelector(b, n.Selector)
		b.WriteByte('.')
		b.WriteString(n.Channel)
		writeParams(b, n.Params)
		b.WriteString(" { ")
		writePred(b, n.Filter)
		b.WriteString(" }")
	case *ComputePred:
		b.WriteString(n.LHS.String())
		b.WriteByte(' ')
		b.WriteString(surfaceOp(n.Op))
		b.WriteByte(' ')
		b.WriteString(n.RHS.String())
	default:
		panic(fmt.Sprintf("ast: print on unknown predicate %T", p))
	}
}

func writeJunction(b *strings.Builder, operands []Pred, sep string) {
	b.WriteByte('(')
	for i, op := range operands {
		if i > 0 {
			b.WriteString(sep)
		}
		writePred(b, op)
	}
	b.WriteByte(')')
}

func writeSelector(b *strings.Builder, s Selector) {
	b.WriteByte('@')
	b.WriteString(s.Kind)
	if s.ID == "" && len(s.Attributes) == 0 {
		return
	}
	b.WriteByte('[')
	sep := false
	if s.ID != "" {
		b.WriteString(s.ID)
		sep = true
	}
	for _, a := range s.Attributes {
		if sep {
			b.WriteString(", ")
		}
		b.WriteString(a.Name)
		b.WriteByte('=')
		b.WriteString(a.Value.String())
		sep = true
	}
	b.WriteByte(']')
}

func writeParams(b *strings.Builder, params []Param) {
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(p.Value.String())
	}
	b.WriteByte(')')
}

func computationString(c Computation) string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Name + " = " + c.Fn + "(" + strings.Join(args, ", ") + ")"
}

func surfaceOp(op string) string {
	switch op {
	case OpIn:
		return "in"
	case OpInLike:
		return "in~"
	}
	return op
}
