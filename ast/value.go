package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueType represents the type of a Value.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeInt
	TypeFloat
	TypeString
	TypeBool
	TypeArray
	TypeRef // reference to a field or out-argument in scope
)

// Value is a dynamically-typed constant or reference appearing in
// invocation parameters, predicate atoms and computations.
type Value struct {
	Type  ValueType
	Int   int64
	Float float64
	Str   string
	Bool  bool
	Arr   []Value
	Ref   string
}

// Null returns a null value.
func Null() Value {
	return Value{Type: TypeNull}
}

// IntVal creates an integer value.
func IntVal(v int64) Value {
	return Value{Type: TypeInt, Int: v}
}

// FloatVal creates a float value.
func FloatVal(v float64) Value {
	return Value{Type: TypeFloat, Float: v}
}

// StrVal creates a string value.
func StrVal(v string) Value {
	return Value{Type: TypeString, Str: v}
}

// BoolVal creates a boolean value.
func BoolVal(v bool) Value {
	return Value{Type: TypeBool, Bool: v}
}

// ArrVal creates an array value.
func ArrVal(vs ...Value) Value {
	return Value{Type: TypeArray, Arr: vs}
}

// RefVal creates a reference to a field or out-argument.
func RefVal(name string) Value {
	return Value{Type: TypeRef, Ref: name}
}

// IsRef reports whether the value is a reference rather than a constant.
func (v Value) IsRef() bool {
	return v.Type == TypeRef
}

// IsConstant reports whether the value contains no references.
func (v Value) IsConstant() bool {
	if v.Type == TypeRef {
		return false
	}
	for _, e := range v.Arr {
		if !e.IsConstant() {
			return false
		}
	}
	return true
}

// Equal reports structural equality.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeNull:
		return true
	case TypeInt:
		return v.Int == o.Int
	case TypeFloat:
		return v.Float == o.Float
	case TypeString:
		return v.Str == o.Str
	case TypeBool:
		return v.Bool == o.Bool
	case TypeRef:
		return v.Ref == o.Ref
	case TypeArray:
		if len(v.Arr) != len(o.Arr) {
			return false
		}
		for i := range v.Arr {
			if !v.Arr[i].Equal(o.Arr[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	c := v
	if v.Type == TypeArray {
		c.Arr = make([]Value, len(v.Arr))
		for i, e := range v.Arr {
			c.Arr[i] = e.Clone()
		}
	}
	return c
}

// String returns the surface-syntax form of the value.
func (v Value) String() string {
	switch v.Type {
	case TypeNull:
		return "null"
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TypeString:
		return strconv.Quote(v.Str)
	case TypeBool:
		return strconv.FormatBool(v.Bool)
	case TypeRef:
		return v.Ref
	case TypeArray:
		parts := make([]string, len(v.Arr))
		for i, e := range v.Arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprintf("Value(%d)", int(v.Type))
}

// Param is a named argument of an invocation, macro call or join.
type Param struct {
	Name  string
	Value Value
}

// FindParam returns the index of the named parameter, or -1.
func FindParam(params []Param, name string) int {
	for i, p := range params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// CloneParams returns a deep copy of a parameter list.
func CloneParams(params []Param) []Param {
	if params == nil {
		return nil
	}
	out := make([]Param, len(params))
	for i, p := range params {
		out[i] = Param{Name: p.Name, Value: p.Value.Clone()}
	}
	return out
}

// Selector identifies a concrete device: its class kind, an optional
// device id, and discovery attributes.
type Selector struct {
	Kind       string
	ID         string
	Attributes []Param
}

// Equals compares kind, id and attributes.
func (s Selector) Equals(o Selector) bool {
	if s.Kind != o.Kind || s.ID != o.ID || len(s.Attributes) != len(o.Attributes) {
		return false
	}
	for i, a := range s.Attributes {
		if a.Name != o.Attributes[i].Name || !a.Value.Equal(o.Attributes[i].Value) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the selector.
func (s Selector) Clone() Selector {
	return Selector{Kind: s.Kind, ID: s.ID, Attributes: CloneParams(s.Attributes)}
}
