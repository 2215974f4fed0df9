// Package parser turns surface syntax into typed expression trees.
// Every invocation is resolved against a schema registry while parsing,
// so downstream consumers never see a node without a signature.
package parser

import (
	"fmt"
	"strconv"

	"github.com/aqlang/aql/ast"
	"github.com/aqlang/aql/lexer"
	"github.com/aqlang/aql/schema"
)

// Parser converts a token stream into an AST.
type Parser struct {
	tokens []lexer.Token
	pos    int
	reg    *schema.Registry
}

// Parse parses a full program: statements separated by semicolons.
func Parse(input string, reg *schema.Registry) (*ast.Program, error) {
	p, err := newParser(input, reg)
	if err != nil {
		return nil, err
	}
	return p.parseProgram()
}

// ParseChain parses a single pipeline.
func ParseChain(input string, reg *schema.Registry) (*ast.Chain, error) {
	p, err := newParser(input, reg)
	if err != nil {
		return nil, err
	}
	c, err := p.parseChain()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != lexer.TokenEOF {
		return nil, p.unexpected("end of input")
	}
	return c, nil
}

func newParser(input string, reg *schema.Registry) (*Parser, error) {
	tokens, err := lexer.Lex(input)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}
	return &Parser{tokens: tokens, reg: reg}, nil
}

func (p *Parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, fmt.Errorf("expected %s, got %s (%q) at position %d", tt, tok.Type, tok.Val, tok.Pos)
	}
	return tok, nil
}

func (p *Parser) unexpected(want string) error {
	tok := p.peek()
	return fmt.Errorf("expected %s, got %s (%q) at position %d", want, tok.Type, tok.Val, tok.Pos)
}

func (p *Parser) parseProgram() (*ast.Program, error) {
	var stmts []ast.Stmt
	for {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if p.peek().Type != lexer.TokenSemi {
			break
		}
		p.advance() // consume ;
		if p.peek().Type == lexer.TokenEOF {
			break // trailing semicolon
		}
	}
	if p.peek().Type != lexer.TokenEOF {
		return nil, p.unexpected("';' or end of input")
	}
	return &ast.Program{Stmts: stmts}, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	if p.peek().Type == lexer.TokenLet {
		p.advance()
		name, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, fmt.Errorf("in let binding: %w", err)
		}
		if _, err := p.expect(lexer.TokenEquals); err != nil {
			return nil, fmt.Errorf("in let binding for %q: %w", name.Val, err)
		}
		chain, err := p.parseChain()
		if err != nil {
			return nil, fmt.Errorf("in let binding for %q: %w", name.Val, err)
		}
		return &ast.LetStmt{Name: name.Val, Chain: chain}, nil
	}
	chain, err := p.parseChain()
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Chain: chain}, nil
}

func (p *Parser) parseChain() (*ast.Chain, error) {
	var stages []ast.Expr
	for {
		stage, err := p.parseStage()
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
		if p.peek().Type != lexer.TokenArrow {
			break
		}
		p.advance() // consume =>
	}
	return &ast.Chain{Stages: stages, Schema: ast.SchemaOf(stages[len(stages)-1])}, nil
}

func (p *Parser) parseStage() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == lexer.TokenPipe {
		p.advance() // consume |
		expr, err = p.parseOp(expr)
		if err != nil {
			return nil, err
		}
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.peek().Type {
	case lexer.TokenAt:
		return p.parseInvocation()
	case lexer.TokenIdent:
		name := p.advance()
		if _, err := p.expect(lexer.TokenLParen); err != nil {
			return nil, fmt.Errorf("in call to %s: %w", name.Val, err)
		}
		params, err := p.parseParams(lexer.TokenRParen)
		if err != nil {
			return nil, fmt.Errorf("in call to %s: %w", name.Val, err)
		}
		sch, err := p.reg.LookupMacro(name.Val)
		if err != nil {
			return nil, fmt.Errorf("at position %d: %w", name.Pos, err)
		}
		call := &ast.FunctionCall{Name: name.Val, Params: params, Schema: sch}
		if err := p.checkParams(call.Params, sch, name.Val); err != nil {
			return nil, err
		}
		return call, nil
	case lexer.TokenLParen:
		p.advance() // consume (
		stage, err := p.parseStage()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return stage, nil
	default:
		return nil, p.unexpected("'@', a macro call or '('")
	}
}

func (p *Parser) parseInvocation() (*ast.Invocation, error) {
	if _, err := p.expect(lexer.TokenAt); err != nil {
		return nil, err
	}
	kind, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, fmt.Errorf("in device selector: %w", err)
	}
	sel := ast.Selector{Kind: kind.Val}
	if p.peek().Type == lexer.TokenLBracket {
		if err := p.parseSelectorSuffix(&sel); err != nil {
			return nil, fmt.Errorf("in device selector @%s: %w", kind.Val, err)
		}
	}
	if _, err := p.expect(lexer.TokenDot); err != nil {
		return nil, fmt.Errorf("after device selector @%s: %w", kind.Val, err)
	}
	channel, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, fmt.Errorf("after device selector @%s: %w", kind.Val, err)
	}
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return nil, fmt.Errorf("in @%s.%s: %w", kind.Val, channel.Val, err)
	}
	params, err := p.parseParams(lexer.TokenRParen)
	if err != nil {
		return nil, fmt.Errorf("in @%s.%s: %w", kind.Val, channel.Val, err)
	}
	sch, err := p.reg.Lookup(kind.Val, channel.Val)
	if err != nil {
		return nil, fmt.Errorf("at position %d: %w", kind.Pos, err)
	}
	name := fmt.Sprintf("@%s.%s", kind.Val, channel.Val)
	if err := p.checkParams(params, sch, name); err != nil {
		return nil, err
	}
	return &ast.Invocation{Selector: sel, Channel: channel.Val, Params: params, Schema: sch}, nil
}

// parseSelectorSuffix reads "[id, attr=value, ...]": a bare identifier
// or string first is the device id, everything else is an attribute.
func (p *Parser) parseSelectorSuffix(sel *ast.Selector) error {
	p.advance() // consume [
	first := true
	for {
		tok := p.advance()
		switch {
		case tok.Type == lexer.TokenString && first:
			sel.ID = tok.Val
		case tok.Type == lexer.TokenIdent && p.peek().Type == lexer.TokenEquals:
			p.advance() // consume =
			val, err := p.parseValue()
			if err != nil {
				return err
			}
			sel.Attributes = append(sel.Attributes, ast.Param{Name: tok.Val, Value: val})
		case tok.Type == lexer.TokenIdent && first:
			sel.ID = tok.Val
		default:
			return fmt.Errorf("expected device id or attribute, got %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
		}
		first = false
		if p.peek().Type != lexer.TokenComma {
			break
		}
		p.advance() // consume ,
	}
	_, err := p.expect(lexer.TokenRBracket)
	return err
}

func (p *Parser) parseParams(closing lexer.TokenType) ([]ast.Param, error) {
	var params []ast.Param
	if p.peek().Type == closing {
		p.advance()
		return params, nil
	}
	for {
		name, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenEquals); err != nil {
			return nil, fmt.Errorf("in parameter %q: %w", name.Val, err)
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, fmt.Errorf("in parameter %q: %w", name.Val, err)
		}
		params = append(params, ast.Param{Name: name.Val, Value: val})
		if p.peek().Type != lexer.TokenComma {
			break
		}
		p.advance() // consume ,
	}
	if _, err := p.expect(closing); err != nil {
		return nil, err
	}
	return params, nil
}

// checkParams verifies named arguments against the declared inputs,
// when the signature declares any.
func (p *Parser) checkParams(params []ast.Param, sch *ast.Schema, name string) error {
	if len(sch.InReq) == 0 && len(sch.InOpt) == 0 {
		return nil
	}
	for _, param := range params {
		if !sch.HasInput(param.Name) {
			return fmt.Errorf("unknown parameter %q for %s", param.Name, name)
		}
	}
	return nil
}

func (p *Parser) parseValue() (ast.Value, error) {
	tok := p.advance()
	switch tok.Type {
	case lexer.TokenInt:
		v, err := strconv.ParseInt(tok.Val, 10, 64)
		if err != nil {
			return ast.Null(), fmt.Errorf("invalid integer %q: %w", tok.Val, err)
		}
		return ast.IntVal(v), nil
	case lexer.TokenFloat:
		v, err := strconv.ParseFloat(tok.Val, 64)
		if err != nil {
			return ast.Null(), fmt.Errorf("invalid float %q: %w", tok.Val, err)
		}
		return ast.FloatVal(v), nil
	case lexer.TokenString:
		return ast.StrVal(tok.Val), nil
	case lexer.TokenTrue:
		return ast.BoolVal(true), nil
	case lexer.TokenFalse:
		return ast.BoolVal(false), nil
	case lexer.TokenNull:
		return ast.Null(), nil
	case lexer.TokenIdent:
		return ast.RefVal(tok.Val), nil
	case lexer.TokenLBracket:
		var elems []ast.Value
		if p.peek().Type == lexer.TokenRBracket {
			p.advance()
			return ast.ArrVal(elems...), nil
		}
		for {
			v, err := p.parseValue()
			if err != nil {
				return ast.Null(), err
			}
			elems = append(elems, v)
			if p.peek().Type != lexer.TokenComma {
				break
			}
			p.advance() // consume ,
		}
		if _, err := p.expect(lexer.TokenRBracket); err != nil {
			return ast.Null(), err
		}
		return ast.ArrVal(elems...), nil
	default:
		return ast.Null(), fmt.Errorf("expected value, got %s (%q) at position %d", tok.Type, tok.Val, tok.Pos)
	}
}
