package parser

import (
	"strings"
	"testing"

	"github.com/aqlang/aql/ast"
	"github.com/aqlang/aql/schema"
)

func parseOK(t *testing.T, input string) *ast.Program {
	t.Helper()
	prog, err := Parse(input, schema.Builtin())
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", input, err)
	}
	return prog
}

// roundTrip checks that the canonical printed form of a parsed program
// parses back to itself.
func roundTrip(t *testing.T, input, want string) {
	t.Helper()
	prog := parseOK(t, input)
	if got := prog.String(); got != want {
		t.Errorf("Parse(%q) printed as %q, want %q", input, got, want)
	}
	again := parseOK(t, want)
	if again.String() != want {
		t.Errorf("canonical form %q is not a fixed point, got %q", want, again.String())
	}
}

func TestParsePipelines(t *testing.T) {
	tests := []struct{ input, want string }{
		{
			`@restaurant.search()`,
			`@restaurant.search()`,
		},
		{
			`@restaurant.search(cuisine = "italian") | filter { price < 20 }`,
			`@restaurant.search(cuisine="italian") | filter { price < 20 }`,
		},
		{
			`@restaurant.search() | filter { price < 20 and rating > 4 }`,
			`@restaurant.search() | filter { (price < 20 and rating > 4) }`,
		},
		{
			`@restaurant.search() | filter { cuisine in ["italian", "thai"] }`,
			`@restaurant.search() | filter { cuisine in ["italian", "thai"] }`,
		},
		{
			`@restaurant.search() | project name, price`,
			`@restaurant.search() | project name, price`,
		},
		{
			`@restaurant.search() | project dist = distance(geo, "home")`,
			`@restaurant.search() | project dist = distance(geo, "home")`,
		},
		{
			`@restaurant.search() | sort rating desc | index 1`,
			`@restaurant.search() | sort rating desc | index 1`,
		},
		{
			`@restaurant.search() | slice 2 3`,
			`@restaurant.search() | slice 2 3`,
		},
		{
			`@restaurant.search() | as candidates`,
			`@restaurant.search() | as candidates`,
		},
		{
			`@weather.current() | monitor on temperature`,
			`@weather.current() | monitor on temperature`,
		},
		{
			`@restaurant.search() | ask { price < 20 }`,
			`@restaurant.search() | ask { price < 20 }`,
		},
		{
			`@restaurant.search() | agg count`,
			`@restaurant.search() | agg count`,
		},
		{
			`@restaurant.search() | agg avg price by cuisine`,
			`@restaurant.search() | agg avg price by cuisine`,
		},
		{
			`@restaurant.search() | join (@weather.current()) on (city = geo)`,
			`@restaurant.search() | join (@weather.current()) on (city=geo)`,
		},
		{
			`@security_camera.current_event() => @light.set_power(power = "on")`,
			`@security_camera.current_event() => @light.set_power(power="on")`,
		},
		{
			`favorites() | filter { rating >= 4 }`,
			`favorites() | filter { rating >= 4 }`,
		},
		{
			`@light["kitchen", name = "main"].set_power(power = "on")`,
			`@light[kitchen, name="main"].set_power(power="on")`,
		},
	}
	for _, tt := range tests {
		roundTrip(t, tt.input, tt.want)
	}
}

func TestParsePredicates(t *testing.T) {
	tests := []struct{ input, want string }{
		{`not cuisine == "thai"`, `not (cuisine == "thai")`},
		{`cuisine != "thai"`, `not (cuisine == "thai")`},
		{`*cuisine`, `*cuisine`},
		{`price <= budget`, `price <= budget`},
		{`5 < price`, `5 < price`},
		{`true or false`, `(true or false)`},
		{`a == 1 and (b == 2 or c == 3)`, `(a == 1 and (b == 2 or c == 3))`},
		{
			`exists @restaurant.search() { cuisine == "thai" }`,
			`exists @restaurant.search() { cuisine == "thai" }`,
		},
	}
	for _, tt := range tests {
		input := `@restaurant.search() | filter { ` + tt.input + ` }`
		prog := parseOK(t, input)
		es := prog.Stmts[0].(*ast.ExprStmt)
		f := es.Chain.Stages[0].(*ast.Filter)
		if got := ast.PredString(f.Pred); got != tt.want {
			t.Errorf("predicate %q parsed as %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseProgram(t *testing.T) {
	prog := parseOK(t, `let fav = @restaurant.search() | filter { rating > 4 }; @weather.current();`)
	if len(prog.Stmts) != 2 {
		t.Fatalf("got %d statements, want 2", len(prog.Stmts))
	}
	let, ok := prog.Stmts[0].(*ast.LetStmt)
	if !ok {
		t.Fatalf("first statement is %T, want let", prog.Stmts[0])
	}
	if let.Name != "fav" {
		t.Errorf("let name = %q, want %q", let.Name, "fav")
	}
	if _, ok := prog.Stmts[1].(*ast.ExprStmt); !ok {
		t.Errorf("second statement is %T, want expression", prog.Stmts[1])
	}
}

func TestParseChainFunc(t *testing.T) {
	c, err := ParseChain(`@restaurant.search() | filter { price < 20 }`, schema.Builtin())
	if err != nil {
		t.Fatalf("ParseChain failed: %v", err)
	}
	if len(c.Stages) != 1 {
		t.Fatalf("got %d stages, want 1", len(c.Stages))
	}
}

func TestParseResolvesSchemas(t *testing.T) {
	prog := parseOK(t, `@restaurant.search() | filter { price < 20 }`)
	f := prog.Stmts[0].(*ast.ExprStmt).Chain.Stages[0].(*ast.Filter)
	inv := f.Inner.(*ast.Invocation)
	if inv.Schema == nil {
		t.Fatal("invocation carries no schema")
	}
	if inv.Schema.Kind != ast.Query {
		t.Errorf("schema kind = %v, want query", inv.Schema.Kind)
	}
	if f.Schema != inv.Schema {
		t.Error("filter does not propagate its inner schema")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input   string
		wantErr string
	}{
		{`@nosuch.thing()`, "unknown function"},
		{`nosuchmacro()`, "unknown macro"},
		{`@restaurant.search(table = 4)`, "unknown parameter"},
		{`@light.set_power(brightness = 1)`, "unknown parameter"},
		{`@restaurant.search() | explode`, "unknown operator"},
		{`@restaurant.search() | filter { price < }`, "expected value"},
		{`@restaurant.search() | filter { "a" in ["a"] }`, "left side of 'in'"},
		{`@restaurant.search() | filter { cuisine in "a" }`, "right side of 'in'"},
		{`@restaurant.search() | agg median price`, "unknown aggregation"},
		{`@restaurant.search() | agg sum`, "needs a field"},
		{`@restaurant.search() | index`, "in index"},
		{`let = @restaurant.search()`, "let binding"},
		{`@restaurant.search() extra`, "end of input"},
	}
	for _, tt := range tests {
		_, err := Parse(tt.input, schema.Builtin())
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want error containing %q", tt.input, tt.wantErr)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("Parse(%q) error = %q, want it to contain %q", tt.input, err.Error(), tt.wantErr)
		}
	}
}
