package ast

import "fmt"

// Expr is a pipeline expression. Every variant wraps at most one record
// stream (unary stages), two (joins), or none (invocations), and carries
// the resolved signature of the function it ultimately invokes.
type Expr interface {
	exprNode()
}

// Invocation is a device function call: @kind[id].channel(params).
type Invocation struct {
	Selector Selector
	Channel  string
	Params   []Param
	Schema   *Schema
}

func (e *Invocation) exprNode() {}

// FunctionCall is a call to a user-level macro.
type FunctionCall struct {
	Name   string
	Params []Param
	Schema *Schema
}

func (e *FunctionCall) exprNode() {}

// Filter keeps only the records satisfying a predicate.
type Filter struct {
	Inner  Expr
	Pred   Pred
	Schema *Schema
}

func (e *Filter) exprNode() {}

// Computation is a named computed field inside a projection.
type Computation struct {
	Name string
	Fn   string
	Args []Value
}

// Projection restricts the output to the named fields plus any computed
// fields. A projection returns attributes, not records.
type Projection struct {
	Inner        Expr
	Fields       []string
	Computations []Computation
	Schema       *Schema
}

func (e *Projection) exprNode() {}

// Sort orders records by one field.
type Sort struct {
	Inner  Expr
	Field  string
	Desc   bool
	Schema *Schema
}

func (e *Sort) exprNode() {}

// Index picks the n-th record (1-based).
type Index struct {
	Inner  Expr
	N      int
	Schema *Schema
}

func (e *Index) exprNode() {}

// Slice picks Limit records starting at Base (1-based).
type Slice struct {
	Inner  Expr
	Base   int
	Limit  int
	Schema *Schema
}

func (e *Slice) exprNode() {}

// Alias gives the wrapped stream a name that parameter references in
// later stages can use.
type Alias struct {
	Inner  Expr
	Name   string
	Schema *Schema
}

func (e *Alias) exprNode() {}

// Monitor turns a query into a stream of change notifications. Fields,
// when set, limits change detection to those fields.
type Monitor struct {
	Inner  Expr
	Fields []string
	Schema *Schema
}

func (e *Monitor) exprNode() {}

// BooleanQuestion asks whether any record satisfies the predicate.
// It returns attributes, not records.
type BooleanQuestion struct {
	Inner  Expr
	Pred   Pred
	Schema *Schema
}

func (e *BooleanQuestion) exprNode() {}

// Aggregation reduces the stream to a number.
type Aggregation struct {
	Inner   Expr
	Op      string // count, sum, avg, min, max
	Field   string // empty for count
	GroupBy []string
	Schema  *Schema
}

func (e *Aggregation) exprNode() {}

// Join combines two record streams on the given parameters.
type Join struct {
	LHS    Expr
	RHS    Expr
	Params []Param
	Schema *Schema
}

func (e *Join) exprNode() {}

// Chain is an ordered sequential composition: stage i's output scope is
// visible to parameter references in stage i+1. A chain of length 1 is
// equivalent to its single stage.
type Chain struct {
	Stages []Expr
	Schema *Schema
}

func (e *Chain) exprNode() {}

// Placeholder is the splice marker used while a pipeline is cut apart
// and regrafted. It must never appear in a value handed to a caller.
type Placeholder struct{}

func (e *Placeholder) exprNode() {}

// RefineOp marks an edit as a refinement of the prior turn's pipeline.
const RefineOp = "+"

// Edit is a partial pipeline representing the next conversational turn,
// to be applied as an incremental modification of the accepted pipeline.
type Edit struct {
	Stages *Chain
	Op     string
}

// Stmt is a top-level statement.
type Stmt interface {
	stmtNode()
}

// ExprStmt is a plain executable pipeline statement.
type ExprStmt struct {
	Chain *Chain
}

func (s *ExprStmt) stmtNode() {}

// LetStmt binds a pipeline to a name. Let bindings are not mergeable.
type LetStmt struct {
	Name  string
	Chain *Chain
}

func (s *LetStmt) stmtNode() {}

// Program is a sequence of statements.
type Program struct {
	Stmts []Stmt
}

// Inner returns the wrapped expression of a unary stage, or false for
// invocations, joins, chains and placeholders.
func Inner(e Expr) (Expr, bool) {
	switch n := e.(type) {
	case *Filter:
		return n.Inner, true
	case *Projection:
		return n.Inner, true
	case *Sort:
		return n.Inner, true
	case *Index:
		return n.Inner, true
	case *Slice:
		return n.Inner, true
	case *Alias:
		return n.Inner, true
	case *Monitor:
		return n.Inner, true
	case *BooleanQuestion:
		return n.Inner, true
	case *Aggregation:
		return n.Inner, true
	}
	return nil, false
}

// WithInner returns a shallow copy of a unary stage with its wrapped
// expression replaced. It panics on non-unary variants.
func WithInner(e Expr, inner Expr) Expr {
	switch n := e.(type) {
	case *Filter:
		c := *n
		c.Inner = inner
		return &c
	case *Projection:
		c := *n
		c.Inner = inner
		return &c
	case *Sort:
		c := *n
		c.Inner = inner
		return &c
	case *Index:
		c := *n
		c.Inner = inner
		return &c
	case *Slice:
		c := *n
		c.Inner = inner
		return &c
	case *Alias:
		c := *n
		c.Inner = inner
		return &c
	case *Monitor:
		c := *n
		c.Inner = inner
		return &c
	case *BooleanQuestion:
		c := *n
		c.Inner = inner
		return &c
	case *Aggregation:
		c := *n
		c.Inner = inner
		return &c
	default:
		panic(fmt.Sprintf("ast: WithInner on non-unary expression %T", e))
	}
}

// ReturnKind classifies what a stage conceptually outputs.
type ReturnKind int

const (
	Records ReturnKind = iota
	Attributes
	Number
)

func (k ReturnKind) String() string {
	switch k {
	case Records:
		return "records"
	case Attributes:
		return "attributes"
	case Number:
		return "number"
	}
	return fmt.Sprintf("ReturnKind(%d)", int(k))
}

// KindOf computes the return kind of an expression structurally.
// A chain returns whatever its last stage returns.
func KindOf(e Expr) ReturnKind {
	switch n := e.(type) {
	case *Projection, *BooleanQuestion:
		return Attributes
	case *Aggregation:
		return Number
	case *Chain:
		if len(n.Stages) == 0 {
			return Records
		}
		return KindOf(n.Stages[len(n.Stages)-1])
	default:
		return Records
	}
}
