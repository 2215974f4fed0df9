package optimize

import (
	"testing"

	"github.com/aqlang/aql/ast"
)

func search(params ...ast.Param) *ast.Invocation {
	return &ast.Invocation{
		Selector: ast.Selector{Kind: "restaurant"},
		Channel:  "search",
		Params:   params,
	}
}

func checkExpr(t *testing.T, got ast.Expr, want string) {
	t.Helper()
	if got == nil {
		t.Errorf("optimized to nil, want %q", want)
		return
	}
	if s := ast.ExprString(got); s != want {
		t.Errorf("optimized to %q, want %q", s, want)
	}
}

func TestFilterFolding(t *testing.T) {
	// a True filter disappears
	e := Expr(&ast.Filter{Inner: search(), Pred: &ast.TruePred{}}, true)
	checkExpr(t, e, `@restaurant.search()`)

	// a False filter starves the pipeline
	if e := Expr(&ast.Filter{Inner: search(), Pred: &ast.FalsePred{}}, true); e != nil {
		t.Errorf("false filter survived: %s", ast.ExprString(e))
	}
}

func TestFilterFusion(t *testing.T) {
	e := Expr(&ast.Filter{
		Inner: &ast.Filter{
			Inner: search(),
			Pred:  &ast.AtomPred{Name: "price", Op: ast.OpLt, Value: ast.IntVal(20)},
		},
		Pred: &ast.AtomPred{Name: "rating", Op: ast.OpGt, Value: ast.IntVal(4)},
	}, true)
	checkExpr(t, e, `@restaurant.search() | filter { (price < 20 and rating > 4) }`)
}

func TestFilterCommutesWithProjection(t *testing.T) {
	filtered := &ast.Filter{
		Inner: &ast.Projection{Inner: search(), Fields: []string{"name", "price"}},
		Pred:  &ast.AtomPred{Name: "price", Op: ast.OpLt, Value: ast.IntVal(20)},
	}
	// in last position the projection floats above the filter
	checkExpr(t, Expr(filtered, true),
		`@restaurant.search() | filter { price < 20 } | project name, price`)
	// elsewhere the pure projection is dropped entirely
	checkExpr(t, Expr(filtered, false),
		`@restaurant.search() | filter { price < 20 }`)
}

func TestFilterKeepsComputedProjection(t *testing.T) {
	e := Expr(&ast.Filter{
		Inner: &ast.Projection{
			Inner:        search(),
			Computations: []ast.Computation{{Name: "dist", Fn: "distance", Args: []ast.Value{ast.RefVal("geo")}}},
		},
		Pred: &ast.AtomPred{Name: "dist", Op: ast.OpLt, Value: ast.IntVal(5)},
	}, false)
	checkExpr(t, e, `@restaurant.search() | project dist = distance(geo) | filter { dist < 5 }`)
}

func TestProjectionCollapse(t *testing.T) {
	inner := &ast.Projection{Inner: search(), Fields: []string{"name", "price", "rating"}}
	outer := &ast.Projection{Inner: inner, Fields: []string{"name"}}
	checkExpr(t, Expr(outer, true), `@restaurant.search() | project name`)
}

func TestProjectionCollapseKeepsReferencedComputation(t *testing.T) {
	inner := &ast.Projection{
		Inner:        search(),
		Computations: []ast.Computation{{Name: "dist", Fn: "distance", Args: []ast.Value{ast.RefVal("geo")}}},
	}
	outer := &ast.Projection{Inner: inner, Fields: []string{"dist"}}
	checkExpr(t, Expr(outer, true),
		`@restaurant.search() | project dist = distance(geo) | project dist`)
}

func TestIdenticalProjectionDropped(t *testing.T) {
	dist := ast.Computation{Name: "dist", Fn: "distance", Args: []ast.Value{ast.RefVal("geo")}}
	inner := &ast.Projection{Inner: search(), Computations: []ast.Computation{dist}}
	outer := &ast.Projection{
		Inner:        &ast.Sort{Inner: inner, Field: "dist"},
		Computations: []ast.Computation{dist},
	}
	checkExpr(t, Expr(outer, true),
		`@restaurant.search() | project dist = distance(geo) | sort dist asc`)
}

func TestMonitorCommutesWithProjection(t *testing.T) {
	e := Expr(&ast.Monitor{
		Inner: &ast.Projection{Inner: search(), Fields: []string{"price"}},
	}, true)
	checkExpr(t, e, `@restaurant.search() | monitor on price | project price`)
}

func TestSliceOfOneBecomesIndex(t *testing.T) {
	checkExpr(t, Expr(&ast.Slice{Inner: search(), Base: 3, Limit: 1}, true),
		`@restaurant.search() | index 3`)
	checkExpr(t, Expr(&ast.Slice{Inner: search(), Base: 1, Limit: 5}, true),
		`@restaurant.search() | slice 1 5`)
}

func TestChainFlattening(t *testing.T) {
	inner := &ast.Chain{Stages: []ast.Expr{search(), search()}}
	c := Chain(&ast.Chain{Stages: []ast.Expr{inner, search()}})
	if c == nil {
		t.Fatal("chain optimized to nil")
	}
	if len(c.Stages) != 3 {
		t.Fatalf("chain has %d stages, want 3: %s", len(c.Stages), ast.ExprString(c))
	}
}

func TestChainProjectionOnlyOnLastStage(t *testing.T) {
	proj := func() ast.Expr {
		return &ast.Projection{Inner: search(), Fields: []string{"name"}}
	}
	c := Chain(&ast.Chain{Stages: []ast.Expr{proj(), proj()}})
	if c == nil {
		t.Fatal("chain optimized to nil")
	}
	checkExpr(t, c, `@restaurant.search() => @restaurant.search() | project name`)
}

func TestChainStarvedByFalseStage(t *testing.T) {
	c := Chain(&ast.Chain{Stages: []ast.Expr{
		search(),
		&ast.Filter{Inner: search(), Pred: &ast.FalsePred{}},
	}})
	if c != nil {
		t.Errorf("starved chain survived: %s", ast.ExprString(c))
	}
}

func TestJoinNilPropagation(t *testing.T) {
	j := &ast.Join{
		LHS: search(),
		RHS: &ast.Filter{Inner: search(), Pred: &ast.FalsePred{}},
	}
	if e := Expr(j, true); e != nil {
		t.Errorf("join with starved side survived: %s", ast.ExprString(e))
	}
}

func TestExprIdempotent(t *testing.T) {
	exprs := []ast.Expr{
		&ast.Filter{
			Inner: &ast.Projection{Inner: search(), Fields: []string{"name", "price"}},
			Pred:  &ast.AtomPred{Name: "price", Op: ast.OpLt, Value: ast.IntVal(20)},
		},
		&ast.Monitor{Inner: &ast.Projection{Inner: search(), Fields: []string{"price"}}},
		&ast.Slice{Inner: search(), Base: 3, Limit: 1},
	}
	for _, e := range exprs {
		once := Expr(e, true)
		twice := Expr(once, true)
		if !ast.EqualExpr(once, twice) {
			t.Errorf("not idempotent: %q then %q", ast.ExprString(once), ast.ExprString(twice))
		}
	}
}
