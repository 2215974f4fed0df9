package ast

import "testing"

func restaurantSchema() *Schema {
	return &Schema{
		Kind:  Query,
		InOpt: []Arg{{Name: "cuisine", Type: "string"}},
		Out: []Arg{
			{Name: "name", Type: "string"},
			{Name: "cuisine", Type: "string"},
			{Name: "price", Type: "number"},
		},
	}
}

func restaurantCall() *Invocation {
	return &Invocation{
		Selector: Selector{Kind: "restaurant"},
		Channel:  "search",
		Params:   []Param{{Name: "cuisine", Value: StrVal("italian")}},
		Schema:   restaurantSchema(),
	}
}

func TestExprString(t *testing.T) {
	tests := []struct {
		expr Expr
		want string
	}{
		{
			restaurantCall(),
			`@restaurant.search(cuisine="italian")`,
		},
		{
			&Filter{
				Inner: restaurantCall(),
				Pred:  &AtomPred{Name: "price", Op: OpLt, Value: IntVal(20)},
			},
			`@restaurant.search(cuisine="italian") | filter { price < 20 }`,
		},
		{
			&Projection{Inner: restaurantCall(), Fields: []string{"name", "price"}},
			`@restaurant.search(cuisine="italian") | project name, price`,
		},
		{
			&Projection{
				Inner: restaurantCall(),
				Computations: []Computation{
					{Name: "dist", Fn: "distance", Args: []Value{RefVal("geo"), StrVal("home")}},
				},
			},
			`@restaurant.search(cuisine="italian") | project dist = distance(geo, "home")`,
		},
		{
			&Slice{Inner: restaurantCall(), Base: 2, Limit: 3},
			`@restaurant.search(cuisine="italian") | slice 2 3`,
		},
		{
			&Monitor{Inner: restaurantCall(), Fields: []string{"price"}},
			`@restaurant.search(cuisine="italian") | monitor on price`,
		},
		{
			&Chain{Stages: []Expr{
				restaurantCall(),
				&Invocation{Selector: Selector{Kind: "light"}, Channel: "set_power",
					Params: []Param{{Name: "power", Value: StrVal("on")}}},
			}},
			`@restaurant.search(cuisine="italian") => @light.set_power(power="on")`,
		},
		{
			&Invocation{
				Selector: Selector{Kind: "light", ID: "kitchen",
					Attributes: []Param{{Name: "name", Value: StrVal("main")}}},
				Channel: "set_power",
			},
			`@light[kitchen, name="main"].set_power()`,
		},
	}
	for _, tt := range tests {
		got := ExprString(tt.expr)
		if got != tt.want {
			t.Errorf("ExprString = %q, want %q", got, tt.want)
		}
	}
}

func TestPredString(t *testing.T) {
	tests := []struct {
		pred Pred
		want string
	}{
		{&TruePred{}, "true"},
		{&DontCarePred{Name: "cuisine"}, "*cuisine"},
		{
			&AndPred{Operands: []Pred{
				&AtomPred{Name: "price", Op: OpLt, Value: IntVal(20)},
				&AtomPred{Name: "rating", Op: OpGt, Value: IntVal(4)},
			}},
			"(price < 20 and rating > 4)",
		},
		{
			&NotPred{Inner: &AtomPred{Name: "cuisine", Op: OpEq, Value: StrVal("thai")}},
			`not (cuisine == "thai")`,
		},
		{
			&AtomPred{Name: "cuisine", Op: OpIn, Value: ArrVal(StrVal("italian"), StrVal("mexican"))},
			`cuisine in ["italian", "mexican"]`,
		},
		{
			&ComputePred{LHS: RefVal("price"), Op: OpLe, RHS: RefVal("budget")},
			"price <= budget",
		},
	}
	for _, tt := range tests {
		got := PredString(tt.pred)
		if got != tt.want {
			t.Errorf("PredString = %q, want %q", got, tt.want)
		}
	}
}

func TestCloneIndependence(t *testing.T) {
	orig := &Filter{
		Inner: restaurantCall(),
		Pred: &AndPred{Operands: []Pred{
			&AtomPred{Name: "price", Op: OpLt, Value: IntVal(20)},
			&AtomPred{Name: "cuisine", Op: OpIn, Value: ArrVal(StrVal("thai"))},
		}},
	}
	clone := CloneExpr(orig).(*Filter)

	if !EqualExpr(orig, clone) {
		t.Fatalf("clone differs: %s vs %s", ExprString(orig), ExprString(clone))
	}

	clone.Pred.(*AndPred).Operands[0].(*AtomPred).Value = IntVal(99)
	clone.Inner.(*Invocation).Params[0].Value = StrVal("mexican")

	inner := orig.Inner.(*Invocation)
	if inner.Params[0].Value.Str != "italian" {
		t.Errorf("mutating clone params leaked into original: %s", ExprString(orig))
	}
	if orig.Pred.(*AndPred).Operands[0].(*AtomPred).Value.Int != 20 {
		t.Errorf("mutating clone predicate leaked into original: %s", PredString(orig.Pred))
	}
}

func TestCloneSharesSchema(t *testing.T) {
	orig := restaurantCall()
	clone := CloneExpr(orig).(*Invocation)
	if clone.Schema != orig.Schema {
		t.Error("clone copied the schema instead of sharing it")
	}
}

func TestKindOf(t *testing.T) {
	call := restaurantCall()
	tests := []struct {
		expr Expr
		want ReturnKind
	}{
		{call, Records},
		{&Filter{Inner: call, Pred: &TruePred{}}, Records},
		{&Projection{Inner: call, Fields: []string{"name"}}, Attributes},
		{&BooleanQuestion{Inner: call, Pred: &TruePred{}}, Attributes},
		{&Aggregation{Inner: call, Op: "count"}, Number},
		{&Chain{Stages: []Expr{call, &Projection{Inner: call, Fields: []string{"name"}}}}, Attributes},
		{&Chain{Stages: []Expr{&Projection{Inner: call, Fields: []string{"name"}}, call}}, Records},
	}
	for _, tt := range tests {
		if got := KindOf(tt.expr); got != tt.want {
			t.Errorf("KindOf(%s) = %v, want %v", ExprString(tt.expr), got, tt.want)
		}
	}
}

func TestWithInner(t *testing.T) {
	f := &Filter{Inner: restaurantCall(), Pred: &TruePred{}}
	repl := WithInner(f, &Placeholder{}).(*Filter)
	if _, ok := repl.Inner.(*Placeholder); !ok {
		t.Fatalf("WithInner did not replace inner: %s", ExprString(repl))
	}
	if _, ok := f.Inner.(*Invocation); !ok {
		t.Error("WithInner mutated the original stage")
	}

	defer func() {
		if recover() == nil {
			t.Error("WithInner on an invocation did not panic")
		}
	}()
	WithInner(restaurantCall(), &Placeholder{})
}

func TestValueEqualAndClone(t *testing.T) {
	arr := ArrVal(IntVal(1), StrVal("x"), RefVal("f"))
	clone := arr.Clone()
	if !arr.Equal(clone) {
		t.Fatalf("clone not equal: %s vs %s", arr, clone)
	}
	clone.Arr[0] = IntVal(2)
	if arr.Arr[0].Int != 1 {
		t.Error("mutating cloned array leaked into original")
	}
	if IntVal(3).Equal(FloatVal(3)) {
		t.Error("int and float values compared equal")
	}
	if arr.IsConstant() {
		t.Error("array holding a reference reported constant")
	}
}

func TestWalkVisitsJoinAndChain(t *testing.T) {
	join := &Join{LHS: restaurantCall(), RHS: restaurantCall()}
	chain := &Chain{Stages: []Expr{join, restaurantCall()}}
	count := 0
	Walk(chain, func(e Expr) bool {
		if _, ok := e.(*Invocation); ok {
			count++
		}
		return true
	})
	if count != 3 {
		t.Errorf("walk visited %d invocations, want 3", count)
	}
}
