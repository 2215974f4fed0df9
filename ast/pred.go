package ast

// Predicate operators. Disjunctions of equalities and likes on one field
// collapse into the set-membership forms.
const (
	OpEq     = "=="
	OpLike   = "=~"
	OpGt     = ">"
	OpLt     = "<"
	OpGe     = ">="
	OpLe     = "<="
	OpIn     = "in_array"
	OpInLike = "in_array~"
)

// Pred is a boolean filter predicate. And/Or are kept flattened
// (no And directly inside And) once a predicate has been through the
// optimizer.
type Pred interface {
	predNode()
}

// TruePred is the predicate that always holds.
type TruePred struct{}

func (p *TruePred) predNode() {}

// FalsePred is the predicate that never holds.
type FalsePred struct{}

func (p *FalsePred) predNode() {}

// DontCarePred marks a field the user explicitly has no constraint on.
type DontCarePred struct {
	Name string
}

func (p *DontCarePred) predNode() {}

// AtomPred compares a field against a value.
type AtomPred struct {
	Name  string
	Op    string
	Value Value
}

func (p *AtomPred) predNode() {}

// AndPred is a flattened conjunction.
type AndPred struct {
	Operands []Pred
}

func (p *AndPred) predNode() {}

// OrPred is a flattened disjunction.
type OrPred struct {
	Operands []Pred
}

func (p *OrPred) predNode() {}

// NotPred negates its operand.
type NotPred struct {
	Inner Pred
}

func (p *NotPred) predNode() {}

// ExternalPred is a sub-query existence filter: it holds when the
// invoked function returns at least one record satisfying Filter.
type ExternalPred struct {
	Selector Selector
	Channel  string
	Params   []Param
	Filter   Pred
	Schema   *Schema
}

func (p *ExternalPred) predNode() {}

// ComputePred compares two scalar operands, at least one of which is
// not a plain field reference against a constant (those are atoms).
type ComputePred struct {
	LHS Value
	Op  string
	RHS Value
}

func (p *ComputePred) predNode() {}
