// Package schema resolves device function signatures. The engine itself
// never looks signatures up: the parser consults a Registry once, while
// building trees, so that every node crossing into the engine already
// carries its resolved schema.
package schema

import (
	"fmt"
	"sort"

	"github.com/aqlang/aql/ast"
)

// Registry maps device kind + channel, and macro names, to resolved
// function signatures.
type Registry struct {
	funcs  map[string]*ast.Schema
	macros map[string]*ast.Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs:  make(map[string]*ast.Schema),
		macros: make(map[string]*ast.Schema),
	}
}

// Register adds a device channel signature.
func (r *Registry) Register(kind, channel string, s *ast.Schema) {
	r.funcs[kind+"."+channel] = s
}

// RegisterMacro adds a user-level macro signature.
func (r *Registry) RegisterMacro(name string, s *ast.Schema) {
	r.macros[name] = s
}

// Lookup resolves a device channel signature.
func (r *Registry) Lookup(kind, channel string) (*ast.Schema, error) {
	s, ok := r.funcs[kind+"."+channel]
	if !ok {
		return nil, fmt.Errorf("unknown function @%s.%s", kind, channel)
	}
	return s, nil
}

// LookupMacro resolves a macro signature.
func (r *Registry) LookupMacro(name string) (*ast.Schema, error) {
	s, ok := r.macros[name]
	if !ok {
		return nil, fmt.Errorf("unknown macro %s", name)
	}
	return s, nil
}

// Functions returns the registered device function names, sorted.
func (r *Registry) Functions() []string {
	names := make([]string, 0, len(r.funcs))
	for k := range r.funcs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Macros returns the registered macro names, sorted.
func (r *Registry) Macros() []string {
	names := make([]string, 0, len(r.macros))
	for k := range r.macros {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
