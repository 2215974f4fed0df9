package parser

import (
	"fmt"

	"github.com/aqlang/aql/ast"
	"github.com/aqlang/aql/lexer"
)

func (p *Parser) parseBracedPred() (ast.Pred, error) {
	if _, err := p.expect(lexer.TokenLBrace); err != nil {
		return nil, err
	}
	pred, err := p.parsePred()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenRBrace); err != nil {
		return nil, err
	}
	return pred, nil
}

func (p *Parser) parsePred() (ast.Pred, error) {
	left, err := p.parseAndPred()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != lexer.TokenOr {
		return left, nil
	}
	operands := []ast.Pred{left}
	for p.peek().Type == lexer.TokenOr {
		p.advance() // consume or
		right, err := p.parseAndPred()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}
	return &ast.OrPred{Operands: operands}, nil
}

func (p *Parser) parseAndPred() (ast.Pred, error) {
	left, err := p.parseUnaryPred()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != lexer.TokenAnd {
		return left, nil
	}
	operands := []ast.Pred{left}
	for p.peek().Type == lexer.TokenAnd {
		p.advance() // consume and
		right, err := p.parseUnaryPred()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}
	return &ast.AndPred{Operands: operands}, nil
}

func (p *Parser) parseUnaryPred() (ast.Pred, error) {
	switch p.peek().Type {
	case lexer.TokenNot:
		p.advance()
		inner, err := p.parseUnaryPred()
		if err != nil {
			return nil, err
		}
		return &ast.NotPred{Inner: inner}, nil
	case lexer.TokenLParen:
		p.advance()
		pred, err := p.parsePred()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return pred, nil
	case lexer.TokenTrue:
		p.advance()
		return &ast.TruePred{}, nil
	case lexer.TokenFalse:
		p.advance()
		return &ast.FalsePred{}, nil
	case lexer.TokenStar:
		p.advance()
		name := ""
		if p.peek().Type == lexer.TokenIdent {
			name = p.advance().Val
		}
		return &ast.DontCarePred{Name: name}, nil
	case lexer.TokenExists:
		return p.parseExistsPred()
	default:
		return p.parseComparison()
	}
}

func (p *Parser) parseExistsPred() (ast.Pred, error) {
	p.advance() // consume exists
	inv, err := p.parseInvocation()
	if err != nil {
		return nil, fmt.Errorf("in exists: %w", err)
	}
	filter, err := p.parseBracedPred()
	if err != nil {
		return nil, fmt.Errorf("in exists: %w", err)
	}
	return &ast.ExternalPred{
		Selector: inv.Selector,
		Channel:  inv.Channel,
		Params:   inv.Params,
		Filter:   filter,
		Schema:   inv.Schema,
	}, nil
}

func (p *Parser) parseComparison() (ast.Pred, error) {
	lhs, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	// set membership: field in [...] or field in~ [...]
	if p.peek().Type == lexer.TokenIn {
		inTok := p.advance()
		op := ast.OpIn
		if p.peek().Type == lexer.TokenTilde {
			p.advance()
			op = ast.OpInLike
		}
		if !lhs.IsRef() {
			return nil, fmt.Errorf("left side of 'in' must be a field name at position %d", inTok.Pos)
		}
		rhs, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if rhs.Type != ast.TypeArray {
			return nil, fmt.Errorf("right side of 'in' must be an array at position %d", inTok.Pos)
		}
		return &ast.AtomPred{Name: lhs.Ref, Op: op, Value: rhs}, nil
	}

	opTok := p.advance()
	var op string
	negated := false
	switch opTok.Type {
	case lexer.TokenEq:
		op = ast.OpEq
	case lexer.TokenNeq:
		op = ast.OpEq
		negated = true
	case lexer.TokenLike:
		op = ast.OpLike
	case lexer.TokenLt:
		op = ast.OpLt
	case lexer.TokenGt:
		op = ast.OpGt
	case lexer.TokenLte:
		op = ast.OpLe
	case lexer.TokenGte:
		op = ast.OpGe
	default:
		return nil, fmt.Errorf("expected comparison operator, got %s (%q) at position %d", opTok.Type, opTok.Val, opTok.Pos)
	}
	rhs, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	var pred ast.Pred
	if lhs.IsRef() && !rhs.IsRef() {
		pred = &ast.AtomPred{Name: lhs.Ref, Op: op, Value: rhs}
	} else {
		pred = &ast.ComputePred{LHS: lhs, Op: op, RHS: rhs}
	}
	if negated {
		return &ast.NotPred{Inner: pred}, nil
	}
	return pred, nil
}
