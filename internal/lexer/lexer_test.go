package lexer

import (
	"testing"

	"cscc/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `int add(int a, int b) {
	// sum two ints
	return a + b;
}
while (a <= b && a != 0) { a = a - 1; }
`

	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.INT_KW, "int"},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.INT_KW, "int"},
		{token.IDENT, "a"},
		{token.COMMA, ","},
		{token.INT_KW, "int"},
		{token.IDENT, "b"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.IDENT, "a"},
		{token.PLUS, "+"},
		{token.IDENT, "b"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.WHILE, "while"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.LE, "<="},
		{token.IDENT, "b"},
		{token.AND_AND, "&&"},
		{token.IDENT, "a"},
		{token.NOT_EQ, "!="},
		{token.INT, "0"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "a"},
		{token.ASSIGN, "="},
		{token.IDENT, "a"},
		{token.MINUS, "-"},
		{token.INT, "1"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	}

	l := New("t.c", input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (literal %q)", i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestBlockComment(t *testing.T) {
	input := `/* ignored */ int /* also */ x;`
	l := New("t.c", input)

	expected := []token.Type{token.INT_KW, token.IDENT, token.SEMICOLON, token.EOF}
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected %q, got %q", i, want, tok.Type)
		}
	}
}

func TestIllegalToken(t *testing.T) {
	l := New("t.c", "int x = @;")
	var tok token.Token
	for tok.Type != token.ILLEGAL && tok.Type != token.EOF {
		tok = l.NextToken()
	}
	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL token, got %q", tok.Type)
	}
	if tok.Literal != "@" {
		t.Fatalf("expected literal '@', got %q", tok.Literal)
	}
}
