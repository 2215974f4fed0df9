package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqlang/aql/ast"
)

func atom(name, op string, v ast.Value) *ast.AtomPred {
	return &ast.AtomPred{Name: name, Op: op, Value: v}
}

func eq(name, s string) *ast.AtomPred {
	return atom(name, ast.OpEq, ast.StrVal(s))
}

func TestResolveIndependent(t *testing.T) {
	old := atom("price", ast.OpLt, ast.IntVal(20))
	conflict, rem := Resolve(old, []ast.Pred{atom("rating", ast.OpGt, ast.IntVal(4))})
	assert.False(t, conflict)
	require.NotNil(t, rem)
	assert.True(t, ast.EqualPred(old, rem))
}

func TestResolveRedundant(t *testing.T) {
	old := eq("cuisine", "italian")
	conflict, rem := Resolve(old, []ast.Pred{eq("cuisine", "italian")})
	assert.False(t, conflict)
	assert.Nil(t, rem)
}

func TestResolveSuperseded(t *testing.T) {
	conflict, rem := Resolve(eq("cuisine", "italian"), []ast.Pred{eq("cuisine", "mexican")})
	assert.True(t, conflict)
	assert.Nil(t, rem)
}

func TestResolveNegationConflicts(t *testing.T) {
	// old asserts what the edit negates
	conflict, rem := Resolve(eq("open", "yes"),
		[]ast.Pred{&ast.NotPred{Inner: eq("open", "yes")}})
	assert.True(t, conflict)
	assert.Nil(t, rem)

	// old negates what the edit asserts
	conflict, rem = Resolve(&ast.NotPred{Inner: eq("open", "yes")},
		[]ast.Pred{eq("open", "yes")})
	assert.True(t, conflict)
	assert.Nil(t, rem)
}

func TestResolvePartialConjunction(t *testing.T) {
	old := &ast.AndPred{Operands: []ast.Pred{
		eq("cuisine", "italian"),
		atom("price", ast.OpLt, ast.IntVal(20)),
	}}
	conflict, rem := Resolve(old, []ast.Pred{eq("cuisine", "mexican")})
	assert.True(t, conflict)
	require.NotNil(t, rem)
	assert.Equal(t, "price < 20", ast.PredString(rem))
}

func TestResolveDisjunction(t *testing.T) {
	old := &ast.OrPred{Operands: []ast.Pred{
		eq("cuisine", "italian"),
		eq("cuisine", "thai"),
	}}

	// one disjunct restates the incoming constraint: the disjunction is
	// already covered and drops away without conflict
	conflict, rem := Resolve(old, []ast.Pred{eq("cuisine", "thai")})
	assert.False(t, conflict)
	assert.Nil(t, rem)

	// every disjunct refuted: the whole disjunction is superseded
	conflict, rem = Resolve(old, []ast.Pred{eq("cuisine", "mexican")})
	assert.True(t, conflict)
	assert.Nil(t, rem)

	// a disjunct the edit says nothing about survives
	mixed := &ast.OrPred{Operands: []ast.Pred{
		eq("cuisine", "italian"),
		atom("price", ast.OpLt, ast.IntVal(20)),
	}}
	conflict, rem = Resolve(mixed, []ast.Pred{eq("cuisine", "mexican")})
	assert.False(t, conflict)
	require.NotNil(t, rem)
	assert.Equal(t, "price < 20", ast.PredString(rem))
}

func TestResolveNegatedCompound(t *testing.T) {
	// not (a or b) resolves as (not a and not b)
	old := &ast.NotPred{Inner: &ast.OrPred{Operands: []ast.Pred{
		eq("cuisine", "italian"),
		eq("cuisine", "thai"),
	}}}
	conflict, rem := Resolve(old, []ast.Pred{eq("cuisine", "italian")})
	assert.True(t, conflict)
	require.NotNil(t, rem)
	assert.Equal(t, `not (cuisine == "thai")`, ast.PredString(rem))
}

func TestResolveAgainstIncomingConjunction(t *testing.T) {
	incoming := []ast.Pred{&ast.AndPred{Operands: []ast.Pred{
		eq("cuisine", "mexican"),
		atom("rating", ast.OpGt, ast.IntVal(4)),
	}}}
	conflict, rem := Resolve(eq("cuisine", "italian"), incoming)
	assert.True(t, conflict)
	assert.Nil(t, rem)
}

func TestResolveAgainstIncomingDisjunction(t *testing.T) {
	// compatible with one incoming disjunct: old survives
	incoming := []ast.Pred{&ast.OrPred{Operands: []ast.Pred{
		eq("cuisine", "mexican"),
		atom("rating", ast.OpGt, ast.IntVal(4)),
	}}}
	old := eq("cuisine", "italian")
	conflict, rem := Resolve(old, incoming)
	assert.False(t, conflict)
	require.NotNil(t, rem)
	assert.True(t, ast.EqualPred(old, rem))
}
