// Package parser implements a hand-written recursive-descent parser for the
// C subset, with a precedence-climbing (Pratt) expression parser.
package parser

import (
	"fmt"

	"cscc/internal/ast"
	"cscc/internal/errors"
	"cscc/internal/lexer"
	"cscc/internal/token"
)

// Parser turns a token stream into an ast.Program. It stops at the first
// error it encounters rather than attempting error recovery — the front
// end is a collaborator, not the subject of this repository.
type Parser struct {
	l   *lexer.Lexer
	cur token.Token
	pk  token.Token

	filename string
}

func New(filename, source string) *Parser {
	p := &Parser{l: lexer.New(filename, source), filename: filename}
	p.next()
	p.next()
	return p
}

func ParseSource(filename, source string) (*ast.Program, error) {
	p := New(filename, source)
	prog, err := p.ParseProgram()
	if err != nil {
		return nil, err
	}
	return prog, nil
}

func (p *Parser) next() {
	p.cur = p.pk
	p.pk = p.l.NextToken()
}

func (p *Parser) errorf(code, format string, args ...interface{}) error {
	return &errors.CompilerError{
		Level:    errors.Error,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Position: p.cur.Pos,
		Length:   max(1, len(p.cur.Literal)),
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (p *Parser) expect(t token.Type) (token.Token, error) {
	if p.cur.Type != t {
		return token.Token{}, p.errorf(errors.ErrorUnexpectedToken,
			"expected %s, found %q", t, p.cur.Literal)
	}
	tok := p.cur
	p.next()
	return tok, nil
}

// ParseProgram parses a sequence of function declarations until EOF.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for p.cur.Type != token.EOF {
		fn, err := p.parseFuncDecl()
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fn)
	}
	return prog, nil
}

func (p *Parser) parseFuncDecl() (*ast.FuncDecl, error) {
	pos := p.cur.Pos
	retType, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	var params []*ast.Param
	for p.cur.Type != token.RPAREN {
		if len(params) > 0 {
			if _, err := p.expect(token.COMMA); err != nil {
				return nil, err
			}
		}
		pt, err := p.parseType()
		if err != nil {
			return nil, err
		}
		pname, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		params = append(params, &ast.Param{Position: pname.Pos, Name: pname.Literal, Type: pt})
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &ast.FuncDecl{Position: pos, Name: name.Literal, Params: params, ReturnType: retType, Body: body}, nil
}

// parseType parses a base type keyword followed by zero or more '*'.
func (p *Parser) parseType() (ast.Type, error) {
	var base ast.Type
	switch p.cur.Type {
	case token.INT_KW:
		base = &ast.IntType{Bits: 32}
	case token.CHAR_KW:
		base = &ast.CharType{}
	case token.VOID_KW:
		base = &ast.VoidType{}
	default:
		return nil, p.errorf(errors.ErrorExpectedType, "expected a type, found %q", p.cur.Literal)
	}
	p.next()
	for p.cur.Type == token.STAR {
		base = &ast.PointerType{Elem: base}
		p.next()
	}
	return base, nil
}

func (p *Parser) isTypeStart() bool {
	switch p.cur.Type {
	case token.INT_KW, token.CHAR_KW, token.VOID_KW:
		return true
	default:
		return false
	}
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	open, err := p.expect(token.LBRACE)
	if err != nil {
		return nil, err
	}
	block := &ast.Block{Position: open.Pos}
	for p.cur.Type != token.RBRACE {
		if p.cur.Type == token.EOF {
			return nil, p.errorf(errors.ErrorUnexpectedToken, "unterminated block")
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch {
	case p.isTypeStart():
		return p.parseVarDecl()
	case p.cur.Type == token.LBRACE:
		return p.parseBlock()
	case p.cur.Type == token.IF:
		return p.parseIf()
	case p.cur.Type == token.WHILE:
		return p.parseWhile()
	case p.cur.Type == token.RETURN:
		return p.parseReturn()
	case p.cur.Type == token.BREAK:
		pos := p.cur.Pos
		p.next()
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.Break{Position: pos}, nil
	case p.cur.Type == token.CONTINUE:
		pos := p.cur.Pos
		p.next()
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.Continue{Position: pos}, nil
	case p.cur.Type == token.IDENT && p.pk.Type == token.ASSIGN:
		return p.parseAssign()
	case p.cur.Type == token.IDENT && p.pk.Type == token.LBRACKET:
		return p.parseIndexAssign()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseVarDecl() (ast.Stmt, error) {
	pos := p.cur.Pos
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}

	if p.cur.Type == token.LBRACKET {
		p.next()
		lenTok, err := p.expect(token.INT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		var n int
		fmt.Sscanf(lenTok.Literal, "%d", &n)
		ty = &ast.ArrayType{Elem: ty, Len: n}
	}

	var init ast.Expr
	if p.cur.Type == token.ASSIGN {
		p.next()
		init, err = p.parseExpr(lowest)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.VarDecl{Position: pos, Name: name.Literal, Type: ty, Init: init}, nil
}

func (p *Parser) parseAssign() (ast.Stmt, error) {
	name, _ := p.expect(token.IDENT)
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	val, err := p.parseExpr(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.Assign{Position: name.Pos, Name: name.Literal, Value: val}, nil
}

func (p *Parser) parseIndexAssign() (ast.Stmt, error) {
	name, _ := p.expect(token.IDENT)
	if _, err := p.expect(token.LBRACKET); err != nil {
		return nil, err
	}
	idx, err := p.parseExpr(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	val, err := p.parseExpr(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.IndexAssign{Position: name.Pos, Name: name.Literal, Index: idx, Value: val}, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	pos := p.cur.Pos
	p.next()
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBlock *ast.Block
	if p.cur.Type == token.ELSE {
		p.next()
		elseBlock, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Position: pos, Cond: cond, Then: then, Else: elseBlock}, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	pos := p.cur.Pos
	p.next()
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Position: pos, Cond: cond, Body: body}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	pos := p.cur.Pos
	p.next()
	if p.cur.Type == token.SEMICOLON {
		p.next()
		return &ast.Return{Position: pos}, nil
	}
	val, err := p.parseExpr(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.Return{Position: pos, Value: val}, nil
}

func (p *Parser) parseExprStmt() (ast.Stmt, error) {
	pos := p.cur.Pos
	expr, err := p.parseExpr(lowest)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Position: pos, Expr: expr}, nil
}
