// Package semantic attaches types to the AST and performs the narrow set
// of checks needed to hand well-formed input to the IR builder. It is a
// deliberately partial analyzer — no struct/union types, no multi-file
// linkage, no const-correctness — matching the degree of completeness a
// front-end collaborator needs to have for the SCCP pass to receive
// realistic, well-typed IR, and no more.
package semantic

import (
	"cscc/internal/ast"
	"cscc/internal/errors"
	"cscc/internal/token"
)

// Analyzer walks a Program, resolving names and assigning a Type to every
// expression node it visits.
type Analyzer struct {
	funcs *FuncTable
	fn    *ast.FuncDecl // function currently being analyzed
	scope *Scope
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{funcs: NewFuncTable()}
}

// Analyze type-checks the whole program and returns the first error found,
// or a nil error if the program is well-formed. On success the returned
// FuncTable can be reused by the IR builder to resolve call sites without
// re-deriving signatures from the AST.
func (a *Analyzer) Analyze(prog *ast.Program) (*FuncTable, error) {
	for _, fn := range prog.Functions {
		sig := &FuncSig{Name: fn.Name, ReturnType: fn.ReturnType}
		for _, p := range fn.Params {
			sig.Params = append(sig.Params, p.Type)
		}
		if !a.funcs.Declare(sig) {
			return nil, &errors.CompilerError{
				Level: errors.Error, Code: errors.ErrorDuplicateDeclaration,
				Message: "function '" + fn.Name + "' is already declared", Position: fn.Position,
			}
		}
	}

	for _, fn := range prog.Functions {
		if err := a.analyzeFunc(fn); err != nil {
			return nil, err
		}
	}
	return a.funcs, nil
}

func (a *Analyzer) analyzeFunc(fn *ast.FuncDecl) error {
	a.fn = fn
	a.scope = newScope(nil)

	for _, p := range fn.Params {
		if !a.scope.declare(&Symbol{Name: p.Name, Type: p.Type}) {
			return &errors.CompilerError{
				Level: errors.Error, Code: errors.ErrorDuplicateDeclaration,
				Message: "parameter '" + p.Name + "' already declared", Position: p.Position,
			}
		}
	}

	if err := a.analyzeBlock(fn.Body); err != nil {
		return err
	}

	if !isVoid(fn.ReturnType) && !blockAlwaysReturns(fn.Body) {
		return &errors.CompilerError{
			Level: errors.Error, Code: errors.ErrorMissingReturn,
			Message: "function '" + fn.Name + "' does not return a value on every path", Position: fn.Position,
		}
	}
	return nil
}

func (a *Analyzer) analyzeBlock(b *ast.Block) error {
	a.scope = newScope(a.scope)
	defer func() { a.scope = a.scope.parent }()

	for _, stmt := range b.Stmts {
		if err := a.analyzeStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) analyzeStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		if s.Init != nil {
			if err := a.analyzeExpr(s.Init); err != nil {
				return err
			}
		}
		if !a.scope.declare(&Symbol{Name: s.Name, Type: s.Type}) {
			return &errors.CompilerError{
				Level: errors.Error, Code: errors.ErrorDuplicateDeclaration,
				Message: "variable '" + s.Name + "' already declared in this scope", Position: s.Position,
			}
		}
		return nil

	case *ast.Assign:
		if _, ok := a.scope.resolve(s.Name); !ok {
			return a.undefinedVariable(s.Name, s.Position)
		}
		return a.analyzeExpr(s.Value)

	case *ast.IndexAssign:
		sym, ok := a.scope.resolve(s.Name)
		if !ok {
			return a.undefinedVariable(s.Name, s.Position)
		}
		if _, ok := sym.Type.(*ast.ArrayType); !ok {
			if _, ok := sym.Type.(*ast.PointerType); !ok {
				return &errors.CompilerError{
					Level: errors.Error, Code: errors.ErrorNotAnArray,
					Message: "'" + s.Name + "' is not an array or pointer", Position: s.Position,
				}
			}
		}
		if err := a.analyzeExpr(s.Index); err != nil {
			return err
		}
		return a.analyzeExpr(s.Value)

	case *ast.If:
		if err := a.analyzeExpr(s.Cond); err != nil {
			return err
		}
		if err := a.analyzeBlock(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			return a.analyzeBlock(s.Else)
		}
		return nil

	case *ast.While:
		if err := a.analyzeExpr(s.Cond); err != nil {
			return err
		}
		return a.analyzeBlock(s.Body)

	case *ast.Return:
		if s.Value != nil {
			return a.analyzeExpr(s.Value)
		}
		return nil

	case *ast.Break, *ast.Continue:
		return nil

	case *ast.ExprStmt:
		return a.analyzeExpr(s.Expr)

	case *ast.Block:
		return a.analyzeBlock(s)

	default:
		return nil
	}
}

func (a *Analyzer) analyzeExpr(expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.IntLit:
		e.SetType(&ast.IntType{Bits: 32})
		return nil

	case *ast.Ident:
		sym, ok := a.scope.resolve(e.Name)
		if !ok {
			return a.undefinedVariable(e.Name, e.Position)
		}
		e.SetType(sym.Type)
		return nil

	case *ast.Unary:
		if err := a.analyzeExpr(e.Operand); err != nil {
			return err
		}
		e.SetType(e.Operand.ExprType())
		return nil

	case *ast.Binary:
		if err := a.analyzeExpr(e.Left); err != nil {
			return err
		}
		if err := a.analyzeExpr(e.Right); err != nil {
			return err
		}
		e.SetType(promote(e.Left.ExprType(), e.Right.ExprType()))
		return nil

	case *ast.Call:
		sig, ok := a.funcs.Lookup(e.Callee)
		if !ok {
			return &errors.CompilerError{
				Level: errors.Error, Code: errors.ErrorUndefinedFunction,
				Message: "call to undefined function '" + e.Callee + "'", Position: e.Position,
			}
		}
		if len(sig.Params) != len(e.Args) {
			return &errors.CompilerError{
				Level: errors.Error, Code: errors.ErrorArityMismatch,
				Message: "function '" + e.Callee + "' expects " + itoa(len(sig.Params)) + " arguments", Position: e.Position,
			}
		}
		for _, arg := range e.Args {
			if err := a.analyzeExpr(arg); err != nil {
				return err
			}
		}
		if isVoid(sig.ReturnType) {
			e.SetType(&ast.VoidType{})
		} else {
			e.SetType(sig.ReturnType)
		}
		return nil

	case *ast.Index:
		sym, ok := a.scope.resolve(e.Base)
		if !ok {
			return a.undefinedVariable(e.Base, e.Position)
		}
		var elem ast.Type
		switch t := sym.Type.(type) {
		case *ast.ArrayType:
			elem = t.Elem
		case *ast.PointerType:
			elem = t.Elem
		default:
			return &errors.CompilerError{
				Level: errors.Error, Code: errors.ErrorNotAnArray,
				Message: "'" + e.Base + "' is not an array or pointer", Position: e.Position,
			}
		}
		if err := a.analyzeExpr(e.Idx); err != nil {
			return err
		}
		e.SetType(elem)
		return nil

	case *ast.Cast:
		if err := a.analyzeExpr(e.Operand); err != nil {
			return err
		}
		e.SetType(e.Target)
		return nil

	default:
		return nil
	}
}

func (a *Analyzer) undefinedVariable(name string, pos token.Position) error {
	return &errors.CompilerError{
		Level: errors.Error, Code: errors.ErrorUndefinedVariable,
		Message: "undefined variable '" + name + "'", Position: pos,
	}
}

func isVoid(t ast.Type) bool {
	_, ok := t.(*ast.VoidType)
	return ok
}

// promote implements the C subset's one implicit conversion: mixed integer
// widths promote to the wider type, with char counted as an 8-bit integer.
// Non-integer operands fall back to the left operand's type (no further
// conversions are modeled).
func promote(a, b ast.Type) ast.Type {
	if _, ok := a.(*ast.CharType); ok {
		a = &ast.IntType{Bits: 8}
	}
	if _, ok := b.(*ast.CharType); ok {
		b = &ast.IntType{Bits: 8}
	}
	ai, aok := a.(*ast.IntType)
	bi, bok := b.(*ast.IntType)
	if aok && bok {
		if ai.Bits >= bi.Bits {
			return ai
		}
		return bi
	}
	return a
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
