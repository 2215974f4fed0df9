package parser

import (
	"fmt"
	"strconv"

	"github.com/aqlang/aql/ast"
	"github.com/aqlang/aql/lexer"
)

// parseOp parses one pipeline operator and wraps it around inner.
func (p *Parser) parseOp(inner ast.Expr) (ast.Expr, error) {
	tok := p.advance()
	if tok.Type == lexer.TokenAs {
		name, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, fmt.Errorf("in as: %w", err)
		}
		return &ast.Alias{Inner: inner, Name: name.Val, Schema: ast.SchemaOf(inner)}, nil
	}
	if tok.Type != lexer.TokenIdent {
		return nil, fmt.Errorf("expected operator name, got %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
	}
	switch tok.Val {
	case "filter":
		pred, err := p.parseBracedPred()
		if err != nil {
			return nil, fmt.Errorf("in filter: %w", err)
		}
		return &ast.Filter{Inner: inner, Pred: pred, Schema: ast.SchemaOf(inner)}, nil
	case "project":
		return p.parseProjection(inner)
	case "sort":
		field, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, fmt.Errorf("in sort: %w", err)
		}
		desc := false
		switch p.peek().Type {
		case lexer.TokenAsc:
			p.advance()
		case lexer.TokenDesc:
			p.advance()
			desc = true
		}
		return &ast.Sort{Inner: inner, Field: field.Val, Desc: desc, Schema: ast.SchemaOf(inner)}, nil
	case "index":
		n, err := p.parseInt("index")
		if err != nil {
			return nil, err
		}
		return &ast.Index{Inner: inner, N: n, Schema: ast.SchemaOf(inner)}, nil
	case "slice":
		base, err := p.parseInt("slice")
		if err != nil {
			return nil, err
		}
		limit, err := p.parseInt("slice")
		if err != nil {
			return nil, err
		}
		return &ast.Slice{Inner: inner, Base: base, Limit: limit, Schema: ast.SchemaOf(inner)}, nil
	case "monitor":
		var fields []string
		if p.peek().Type == lexer.TokenOn {
			p.advance()
			var err error
			fields, err = p.parseFieldList("monitor")
			if err != nil {
				return nil, err
			}
		}
		return &ast.Monitor{Inner: inner, Fields: fields, Schema: ast.SchemaOf(inner)}, nil
	case "ask":
		pred, err := p.parseBracedPred()
		if err != nil {
			return nil, fmt.Errorf("in ask: %w", err)
		}
		return &ast.BooleanQuestion{Inner: inner, Pred: pred, Schema: ast.SchemaOf(inner)}, nil
	case "agg":
		return p.parseAggregation(inner)
	case "join":
		return p.parseJoin(inner)
	default:
		return nil, fmt.Errorf("unknown operator %q at position %d", tok.Val, tok.Pos)
	}
}

func (p *Parser) parseProjection(inner ast.Expr) (ast.Expr, error) {
	var fields []string
	var comps []ast.Computation
	for {
		name, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, fmt.Errorf("in project: %w", err)
		}
		if p.peek().Type == lexer.TokenEquals {
			p.advance() // consume =
			comp, err := p.parseComputation(name.Val)
			if err != nil {
				return nil, fmt.Errorf("in project: %w", err)
			}
			comps = append(comps, comp)
		} else {
			fields = append(fields, name.Val)
		}
		if p.peek().Type != lexer.TokenComma {
			break
		}
		p.advance() // consume ,
	}
	return &ast.Projection{Inner: inner, Fields: fields, Computations: comps, Schema: ast.SchemaOf(inner)}, nil
}

func (p *Parser) parseComputation(name string) (ast.Computation, error) {
	fn, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return ast.Computation{}, err
	}
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return ast.Computation{}, fmt.Errorf("in computation %q: %w", name, err)
	}
	var args []ast.Value
	if p.peek().Type != lexer.TokenRParen {
		for {
			v, err := p.parseValue()
			if err != nil {
				return ast.Computation{}, fmt.Errorf("in computation %q: %w", name, err)
			}
			args = append(args, v)
			if p.peek().Type != lexer.TokenComma {
				break
			}
			p.advance() // consume ,
		}
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return ast.Computation{}, fmt.Errorf("in computation %q: %w", name, err)
	}
	return ast.Computation{Name: name, Fn: fn.Val, Args: args}, nil
}

func (p *Parser) parseAggregation(inner ast.Expr) (ast.Expr, error) {
	op, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, fmt.Errorf("in agg: %w", err)
	}
	switch op.Val {
	case "count", "sum", "avg", "min", "max":
	default:
		return nil, fmt.Errorf("unknown aggregation %q at position %d", op.Val, op.Pos)
	}
	field := ""
	if p.peek().Type == lexer.TokenIdent {
		field = p.advance().Val
	}
	if op.Val != "count" && field == "" {
		return nil, fmt.Errorf("aggregation %q needs a field at position %d", op.Val, op.Pos)
	}
	var groupBy []string
	if p.peek().Type == lexer.TokenBy {
		p.advance()
		var err error
		groupBy, err = p.parseFieldList("agg by")
		if err != nil {
			return nil, err
		}
	}
	outName := field
	if outName == "" {
		outName = "count"
	}
	sch := &ast.Schema{Kind: ast.Query, Out: []ast.Arg{{Name: outName, Type: "number"}}}
	return &ast.Aggregation{Inner: inner, Op: op.Val, Field: field, GroupBy: groupBy, Schema: sch}, nil
}

func (p *Parser) parseJoin(inner ast.Expr) (ast.Expr, error) {
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return nil, fmt.Errorf("in join: %w", err)
	}
	rhs, err := p.parseStage()
	if err != nil {
		return nil, fmt.Errorf("in join: %w", err)
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, fmt.Errorf("in join: %w", err)
	}
	var params []ast.Param
	if p.peek().Type == lexer.TokenOn {
		p.advance()
		if _, err := p.expect(lexer.TokenLParen); err != nil {
			return nil, fmt.Errorf("in join on: %w", err)
		}
		params, err = p.parseParams(lexer.TokenRParen)
		if err != nil {
			return nil, fmt.Errorf("in join on: %w", err)
		}
	}
	sch := joinSchema(ast.SchemaOf(inner), ast.SchemaOf(rhs))
	return &ast.Join{LHS: inner, RHS: rhs, Params: params, Schema: sch}, nil
}

// joinSchema combines the output scopes of the two sides.
func joinSchema(lhs, rhs *ast.Schema) *ast.Schema {
	s := &ast.Schema{Kind: ast.Query}
	if lhs != nil {
		s.Out = append(s.Out, lhs.Out...)
	}
	if rhs != nil {
		for _, a := range rhs.Out {
			if !s.HasOutput(a.Name) {
				s.Out = append(s.Out, a)
			}
		}
	}
	return s
}

func (p *Parser) parseFieldList(ctx string) ([]string, error) {
	var fields []string
	for {
		name, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, fmt.Errorf("in %s: %w", ctx, err)
		}
		fields = append(fields, name.Val)
		if p.peek().Type != lexer.TokenComma {
			break
		}
		p.advance() // consume ,
	}
	return fields, nil
}

func (p *Parser) parseInt(ctx string) (int, error) {
	tok, err := p.expect(lexer.TokenInt)
	if err != nil {
		return 0, fmt.Errorf("in %s: %w", ctx, err)
	}
	n, err := strconv.Atoi(tok.Val)
	if err != nil {
		return 0, fmt.Errorf("in %s: invalid integer %q: %w", ctx, tok.Val, err)
	}
	return n, nil
}
