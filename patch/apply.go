package patch

import (
	"fmt"

	"github.com/aqlang/aql/ast"
	"github.com/aqlang/aql/optimize"
)

// Apply merges an edit into the previously-accepted pipeline. Every
// constraint of the edit is satisfied; structure of the old pipeline
// that is still compatible is reused; predicate conflicts are resolved
// in favor of the edit. Returns nil when the merged pipeline is proven
// to produce no results.
func Apply(old *ast.Chain, edit *ast.Edit) (*ast.Chain, error) {
	if edit.Stages == nil {
		return nil, fmt.Errorf("apply: edit has no stages")
	}
	editChain := optimize.Chain(ast.CloneChain(edit.Stages))
	if editChain == nil {
		return optimize.Chain(ast.CloneChain(old)), nil
	}

	oldStages := flattenStages(old.Stages)
	used := make([]bool, len(oldStages))
	out := make([]ast.Expr, 0, len(editChain.Stages))
	for _, stage := range editChain.Stages {
		keys := invocationKeys(stage)
		idx := -1
		for i, oldStage := range oldStages {
			if !used[i] && overlaps(keys, invocationKeys(oldStage)) {
				idx = i
				break
			}
		}
		if idx < 0 {
			// no old stage invokes the same functions: the edit stage
			// stands alone
			out = append(out, stage)
			continue
		}
		used[idx] = true

		preds := filterPreds(stage)
		top, bottom, _ := Chop(ast.CloneExpr(oldStages[idx]), preds)
		merged := graft(stage, bottom, invocationKeys(oldStages[idx]))
		if ast.KindOf(stage) == ast.Records {
			// compatible old operators (sort, slice, alias) survive on
			// top of the new record stream
			merged = splice(top, merged)
		}
		out = append(out, merged)
	}

	result := optimize.Chain(&ast.Chain{Stages: out, Schema: old.Schema})
	if result != nil {
		assertNoPlaceholder(result)
	}
	return result, nil
}

// graft substitutes the retained old core for the schema leaf of an
// edit stage. oldKeys is the invocation signature of the matched old
// stage: when the edit stage contains a join, the core lands on the
// side that invokes those functions, preferring the left one.
func graft(e ast.Expr, bottom ast.Expr, oldKeys map[string]bool) ast.Expr {
	switch n := e.(type) {
	case *ast.Invocation, *ast.FunctionCall:
		return mergeLeaf(e, bottom)
	case *ast.Join:
		c := *n
		if overlaps(oldKeys, invocationKeys(n.LHS)) || !overlaps(oldKeys, invocationKeys(n.RHS)) {
			c.LHS = graft(n.LHS, bottom, oldKeys)
		} else {
			c.RHS = graft(n.RHS, bottom, oldKeys)
		}
		return &c
	default:
		inner, ok := ast.Inner(e)
		if !ok {
			panic(fmt.Sprintf("patch: graft through unexpected expression %T", e))
		}
		return ast.WithInner(e, graft(inner, bottom, oldKeys))
	}
}

// mergeLeaf replaces the schema leaf of the retained core with the
// edit's invocation carrying the merged parameter list: new values win
// on name collision, old values fill the gaps the edit left unspecified.
func mergeLeaf(newCall ast.Expr, bottom ast.Expr) ast.Expr {
	switch b := bottom.(type) {
	case *ast.Invocation, *ast.FunctionCall:
		return mergedCall(newCall, bottom)
	case *ast.Join:
		// follow the side that invokes the edit's function; the left
		// side continues the old record stream on ties
		c := *b
		newKeys := invocationKeys(newCall)
		if overlaps(newKeys, invocationKeys(b.LHS)) || !overlaps(newKeys, invocationKeys(b.RHS)) {
			c.LHS = mergeLeaf(newCall, b.LHS)
		} else {
			c.RHS = mergeLeaf(newCall, b.RHS)
		}
		return &c
	default:
		inner, ok := ast.Inner(bottom)
		if !ok {
			panic(fmt.Sprintf("patch: merge through unexpected expression %T", bottom))
		}
		return ast.WithInner(bottom, mergeLeaf(newCall, inner))
	}
}

func mergedCall(newCall, oldCall ast.Expr) ast.Expr {
	switch n := newCall.(type) {
	case *ast.Invocation:
		o, ok := oldCall.(*ast.Invocation)
		if !ok || o.Selector.Kind != n.Selector.Kind || o.Channel != n.Channel {
			return oldCall
		}
		return &ast.Invocation{
			Selector: n.Selector.Clone(),
			Channel:  n.Channel,
			Params:   mergeParams(n.Params, o.Params),
			Schema:   n.Schema,
		}
	case *ast.FunctionCall:
		o, ok := oldCall.(*ast.FunctionCall)
		if !ok || o.Name != n.Name {
			return oldCall
		}
		return &ast.FunctionCall{Name: n.Name, Params: mergeParams(n.Params, o.Params), Schema: n.Schema}
	default:
		panic(fmt.Sprintf("patch: merge of non-call expression %T", newCall))
	}
}

func mergeParams(newParams, oldParams []ast.Param) []ast.Param {
	out := ast.CloneParams(newParams)
	for _, p := range oldParams {
		if ast.FindParam(out, p.Name) < 0 {
			out = append(out, ast.Param{Name: p.Name, Value: p.Value.Clone()})
		}
	}
	return out
}

// splice reattaches the retained top operators above a grafted subtree,
// at the placeholder the chopper left behind.
func splice(top, sub ast.Expr) ast.Expr {
	if _, ok := top.(*ast.Placeholder); ok {
		return sub
	}
	inner, ok := ast.Inner(top)
	if !ok {
		panic(fmt.Sprintf("patch: splice through unexpected expression %T", top))
	}
	return ast.WithInner(top, splice(inner, sub))
}

// invocationKeys collects the identity of every function invoked
// anywhere within an expression. Device invocations are identified by
// selector kind and channel, irrespective of parameters.
func invocationKeys(e ast.Expr) map[string]bool {
	keys := make(map[string]bool)
	ast.Walk(e, func(n ast.Expr) bool {
		switch v := n.(type) {
		case *ast.Invocation:
			keys["@"+v.Selector.Kind+"."+v.Channel] = true
		case *ast.FunctionCall:
			keys[v.Name+"()"] = true
		}
		return true
	})
	return keys
}

func overlaps(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

// flattenStages expands nested chains into one stage sequence without
// rewriting the stages themselves. Old pipelines arrive as the caller
// built them and may still nest.
func flattenStages(stages []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, 0, len(stages))
	for _, s := range stages {
		if c, ok := s.(*ast.Chain); ok {
			out = append(out, flattenStages(c.Stages)...)
			continue
		}
		out = append(out, s)
	}
	return out
}

// filterPreds collects every filter predicate occurring within an
// expression.
func filterPreds(e ast.Expr) []ast.Pred {
	var preds []ast.Pred
	ast.Walk(e, func(n ast.Expr) bool {
		if f, ok := n.(*ast.Filter); ok {
			preds = append(preds, f.Pred)
		}
		return true
	})
	return preds
}

// assertNoPlaceholder panics if a splice marker leaked into a value
// about to cross the package boundary.
func assertNoPlaceholder(e ast.Expr) {
	ast.Walk(e, func(n ast.Expr) bool {
		if _, ok := n.(*ast.Placeholder); ok {
			panic("patch: splice placeholder leaked into a result")
		}
		return true
	})
}
