package schema

import "github.com/aqlang/aql/ast"

// Builtin returns a registry with a small set of demo devices, used by
// the CLI when no manifest is given and by tests.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register("restaurant", "search", &ast.Schema{
		Kind: ast.Query,
		InOpt: []ast.Arg{
			{Name: "cuisine", Type: "string"},
			{Name: "query", Type: "string"},
		},
		Out: []ast.Arg{
			{Name: "name", Type: "string"},
			{Name: "cuisine", Type: "string"},
			{Name: "price", Type: "number"},
			{Name: "rating", Type: "number"},
			{Name: "geo", Type: "location"},
		},
	})
	r.Register("weather", "current", &ast.Schema{
		Kind:  ast.Query,
		InOpt: []ast.Arg{{Name: "city", Type: "string"}},
		Out: []ast.Arg{
			{Name: "city", Type: "string"},
			{Name: "temperature", Type: "number"},
			{Name: "humidity", Type: "number"},
			{Name: "status", Type: "string"},
		},
	})
	r.Register("light", "set_power", &ast.Schema{
		Kind:  ast.Action,
		InReq: []ast.Arg{{Name: "power", Type: "string"}},
		InOpt: []ast.Arg{{Name: "color", Type: "string"}},
	})
	r.Register("security_camera", "current_event", &ast.Schema{
		Kind: ast.Stream,
		Out: []ast.Arg{
			{Name: "start_time", Type: "number"},
			{Name: "has_person", Type: "bool"},
			{Name: "picture_url", Type: "string"},
		},
	})
	r.RegisterMacro("favorites", &ast.Schema{
		Kind: ast.Query,
		Out: []ast.Arg{
			{Name: "name", Type: "string"},
			{Name: "cuisine", Type: "string"},
			{Name: "price", Type: "number"},
			{Name: "rating", Type: "number"},
		},
	})
	return r
}
