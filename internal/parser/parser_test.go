package parser

import (
	"testing"

	"cscc/internal/ast"
)

func TestParseSimpleFunction(t *testing.T) {
	src := `int add(int a, int b) {
		return a + b;
	}`

	prog, err := ParseSource("t.c", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prog.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(prog.Functions))
	}
	fn := prog.Functions[0]
	if fn.Name != "add" {
		t.Errorf("expected name 'add', got %q", fn.Name)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(fn.Body.Stmts))
	}
	ret, ok := fn.Body.Stmts[0].(*ast.Return)
	if !ok {
		t.Fatalf("expected Return statement, got %T", fn.Body.Stmts[0])
	}
	bin, ok := ret.Value.(*ast.Binary)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected a + binary expr, got %#v", ret.Value)
	}
}

func TestParseIfElseAndWhile(t *testing.T) {
	src := `int f(int x) {
		int y;
		if (x < 10) {
			y = 1;
		} else {
			y = 2;
		}
		while (y != 0) {
			y = y - 1;
		}
		return y;
	}`

	prog, err := ParseSource("t.c", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn := prog.Functions[0]
	if len(fn.Body.Stmts) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(fn.Body.Stmts))
	}
	ifStmt, ok := fn.Body.Stmts[1].(*ast.If)
	if !ok {
		t.Fatalf("expected If, got %T", fn.Body.Stmts[1])
	}
	if ifStmt.Else == nil {
		t.Fatal("expected else branch")
	}
	if _, ok := fn.Body.Stmts[2].(*ast.While); !ok {
		t.Fatalf("expected While, got %T", fn.Body.Stmts[2])
	}
}

func TestParseArrayAndCast(t *testing.T) {
	src := `int f() {
		int a[4];
		a[0] = (int)1;
		return a[0];
	}`

	prog, err := ParseSource("t.c", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn := prog.Functions[0]
	decl, ok := fn.Body.Stmts[0].(*ast.VarDecl)
	if !ok {
		t.Fatalf("expected VarDecl, got %T", fn.Body.Stmts[0])
	}
	arrType, ok := decl.Type.(*ast.ArrayType)
	if !ok || arrType.Len != 4 {
		t.Fatalf("expected ArrayType len 4, got %#v", decl.Type)
	}
	assign, ok := fn.Body.Stmts[1].(*ast.IndexAssign)
	if !ok {
		t.Fatalf("expected IndexAssign, got %T", fn.Body.Stmts[1])
	}
	if _, ok := assign.Value.(*ast.Cast); !ok {
		t.Fatalf("expected Cast value, got %#v", assign.Value)
	}
}

func TestParseErrorOnMalformedInput(t *testing.T) {
	_, err := ParseSource("t.c", `int f( {`)
	if err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestParsePrecedence(t *testing.T) {
	src := `int f() { return 1 + 2 * 3 == 7 && 1 < 2; }`
	prog, err := ParseSource("t.c", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ret := prog.Functions[0].Body.Stmts[0].(*ast.Return)
	top, ok := ret.Value.(*ast.Binary)
	if !ok || top.Op != "&&" {
		t.Fatalf("expected top-level &&, got %#v", ret.Value)
	}
}
