package parser

import (
	"strconv"

	"cscc/internal/ast"
	"cscc/internal/errors"
	"cscc/internal/token"
)

// Operator precedence, lowest to highest.
const (
	lowest = iota
	orOr
	andAnd
	bitOr
	bitXor
	bitAnd
	equality
	relational
	additive
	multiplicative
	unary
	postfix
)

var precedences = map[token.Type]int{
	token.OR_OR:   orOr,
	token.AND_AND: andAnd,
	token.PIPE:    bitOr,
	token.CARET:   bitXor,
	token.AMP:     bitAnd,
	token.EQ:      equality,
	token.NOT_EQ:  equality,
	token.LT:      relational,
	token.GT:      relational,
	token.LE:      relational,
	token.GE:      relational,
	token.PLUS:    additive,
	token.MINUS:   additive,
	token.STAR:    multiplicative,
	token.SLASH:   multiplicative,
	token.PERCENT: multiplicative,
}

// parseExpr implements precedence climbing: parse a unary/primary term,
// then fold in infix operators whose precedence is at least minPrec.
func (p *Parser) parseExpr(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		prec, ok := precedences[p.cur.Type]
		if !ok || prec < minPrec {
			break
		}
		op := p.cur
		p.next()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Position: op.Pos, Op: op.Literal, Left: left, Right: right}
	}

	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.cur.Type {
	case token.MINUS, token.BANG, token.TILDE:
		op := p.cur
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Position: op.Pos, Op: op.Literal, Operand: operand}, nil
	case token.LPAREN:
		// Disambiguate a cast "(int)x" from a parenthesized expr "(x + 1)"
		// by looking one token past '(' for a type keyword.
		if isTypeToken(p.pk.Type) {
			pos := p.cur.Pos
			p.next()
			ty, err := p.parseType()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &ast.Cast{Position: pos, Target: ty, Operand: operand}, nil
		}
	}
	return p.parsePostfix()
}

func isTypeToken(t token.Type) bool {
	return t == token.INT_KW || t == token.CHAR_KW || t == token.VOID_KW
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.cur.Type {
	case token.INT:
		tok := p.cur
		v, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, p.errorf(errors.ErrorExpectedExpr, "invalid integer literal %q", tok.Literal)
		}
		p.next()
		return &ast.IntLit{Position: tok.Pos, Value: v}, nil

	case token.IDENT:
		tok := p.cur
		p.next()
		switch p.cur.Type {
		case token.LPAREN:
			return p.finishCall(tok)
		case token.LBRACKET:
			p.next()
			idx, err := p.parseExpr(lowest)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return nil, err
			}
			return &ast.Index{Position: tok.Pos, Base: tok.Literal, Idx: idx}, nil
		default:
			return &ast.Ident{Position: tok.Pos, Name: tok.Literal}, nil
		}

	case token.LPAREN:
		p.next()
		expr, err := p.parseExpr(lowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, p.errorf(errors.ErrorExpectedExpr, "expected an expression, found %q", p.cur.Literal)
	}
}

func (p *Parser) finishCall(callee token.Token) (ast.Expr, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for p.cur.Type != token.RPAREN {
		if len(args) > 0 {
			if _, err := p.expect(token.COMMA); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseExpr(lowest)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return &ast.Call{Position: callee.Pos, Callee: callee.Literal, Args: args}, nil
}
