package ast

import "fmt"

// FunctionKind tags what a function does when invoked.
type FunctionKind int

const (
	Stream FunctionKind = iota
	Query
	Action
)

func (k FunctionKind) String() string {
	switch k {
	case Stream:
		return "stream"
	case Query:
		return "query"
	case Action:
		return "action"
	}
	return fmt.Sprintf("FunctionKind(%d)", int(k))
}

// Arg is one named argument of a function signature.
type Arg struct {
	Name string
	Type string
}

// Schema is a resolved function signature. Trees handed to the engine
// always carry a non-nil schema on every node; the engine never infers
// or looks up signatures itself.
type Schema struct {
	Kind  FunctionKind
	InReq []Arg
	InOpt []Arg
	Out   []Arg
}

// HasInput reports whether the signature declares the named input
// argument, required or optional.
func (s *Schema) HasInput(name string) bool {
	for _, a := range s.InReq {
		if a.Name == name {
			return true
		}
	}
	for _, a := range s.InOpt {
		if a.Name == name {
			return true
		}
	}
	return false
}

// HasOutput reports whether the signature declares the named output
// argument.
func (s *Schema) HasOutput(name string) bool {
	for _, a := range s.Out {
		if a.Name == name {
			return true
		}
	}
	return false
}

// SchemaOf returns the resolved signature an expression carries.
// Chains report their last stage; placeholders carry none.
func SchemaOf(e Expr) *Schema {
	switch n := e.(type) {
	case *Invocation:
		return n.Schema
	case *FunctionCall:
		return n.Schema
	case *Filter:
		return n.Schema
	case *Projection:
		return n.Schema
	case *Sort:
		return n.Schema
	case *Index:
		return n.Schema
	case *Slice:
		return n.Schema
	case *Alias:
		return n.Schema
	case *Monitor:
		return n.Schema
	case *BooleanQuestion:
		return n.Schema
	case *Aggregation:
		return n.Schema
	case *Join:
		return n.Schema
	case *Chain:
		if len(n.Stages) == 0 {
			return nil
		}
		return SchemaOf(n.Stages[len(n.Stages)-1])
	default:
		return nil
	}
}
