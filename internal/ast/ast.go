// Package ast defines the abstract syntax tree for the C subset.
package ast

import (
	"fmt"
	"strings"

	"cscc/internal/token"
)

// Node is implemented by every AST node for positional diagnostics.
type Node interface {
	Pos() token.Position
	String() string
}

// Type is the closed set of types the C subset supports.
type Type interface {
	String() string
	Equal(Type) bool
}

type IntType struct{ Bits int }

func (t *IntType) String() string { return fmt.Sprintf("int%d", t.Bits) }
func (t *IntType) Equal(o Type) bool {
	ot, ok := o.(*IntType)
	return ok && ot.Bits == t.Bits
}

type CharType struct{}

func (t *CharType) String() string  { return "char" }
func (t *CharType) Equal(o Type) bool { _, ok := o.(*CharType); return ok }

type VoidType struct{}

func (t *VoidType) String() string  { return "void" }
func (t *VoidType) Equal(o Type) bool { _, ok := o.(*VoidType); return ok }

type PointerType struct{ Elem Type }

func (t *PointerType) String() string { return t.Elem.String() + "*" }
func (t *PointerType) Equal(o Type) bool {
	ot, ok := o.(*PointerType)
	return ok && ot.Elem.Equal(t.Elem)
}

type ArrayType struct {
	Elem Type
	Len  int
}

func (t *ArrayType) String() string { return fmt.Sprintf("%s[%d]", t.Elem, t.Len) }
func (t *ArrayType) Equal(o Type) bool {
	ot, ok := o.(*ArrayType)
	return ok && ot.Elem.Equal(t.Elem) && ot.Len == t.Len
}

// Program is the root node: a sequence of function declarations.
type Program struct {
	Functions []*FuncDecl
}

func (p *Program) Pos() token.Position { return token.Position{} }
func (p *Program) String() string {
	var sb strings.Builder
	for _, f := range p.Functions {
		sb.WriteString(f.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Param is a function parameter.
type Param struct {
	Position token.Position
	Name     string
	Type     Type
}

func (p *Param) Pos() token.Position { return p.Position }
func (p *Param) String() string      { return fmt.Sprintf("%s %s", p.Type, p.Name) }

// FuncDecl is a top-level function definition.
type FuncDecl struct {
	Position   token.Position
	Name       string
	Params     []*Param
	ReturnType Type
	Body       *Block
}

func (f *FuncDecl) Pos() token.Position { return f.Position }
func (f *FuncDecl) String() string {
	var params []string
	for _, p := range f.Params {
		params = append(params, p.String())
	}
	return fmt.Sprintf("%s %s(%s) %s", f.ReturnType, f.Name, strings.Join(params, ", "), f.Body)
}

// Statements

type Stmt interface {
	Node
	stmtNode()
}

type Block struct {
	Position token.Position
	Stmts    []Stmt
}

func (b *Block) Pos() token.Position { return b.Position }
func (b *Block) stmtNode()           {}
func (b *Block) String() string {
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, s := range b.Stmts {
		sb.WriteString("  " + s.String() + "\n")
	}
	sb.WriteString("}")
	return sb.String()
}

type VarDecl struct {
	Position token.Position
	Name     string
	Type     Type
	Init     Expr // may be nil
}

func (v *VarDecl) Pos() token.Position { return v.Position }
func (v *VarDecl) stmtNode()           {}
func (v *VarDecl) String() string {
	if v.Init != nil {
		return fmt.Sprintf("%s %s = %s;", v.Type, v.Name, v.Init)
	}
	return fmt.Sprintf("%s %s;", v.Type, v.Name)
}

// Assign assigns to a plain variable: name = Value.
type Assign struct {
	Position token.Position
	Name     string
	Value    Expr
}

func (a *Assign) Pos() token.Position { return a.Position }
func (a *Assign) stmtNode()           {}
func (a *Assign) String() string      { return fmt.Sprintf("%s = %s;", a.Name, a.Value) }

// IndexAssign assigns to an array element: name[Index] = Value.
type IndexAssign struct {
	Position token.Position
	Name     string
	Index    Expr
	Value    Expr
}

func (a *IndexAssign) Pos() token.Position { return a.Position }
func (a *IndexAssign) stmtNode()           {}
func (a *IndexAssign) String() string {
	return fmt.Sprintf("%s[%s] = %s;", a.Name, a.Index, a.Value)
}

type If struct {
	Position token.Position
	Cond     Expr
	Then     *Block
	Else     *Block // may be nil
}

func (i *If) Pos() token.Position { return i.Position }
func (i *If) stmtNode()           {}
func (i *If) String() string {
	if i.Else != nil {
		return fmt.Sprintf("if (%s) %s else %s", i.Cond, i.Then, i.Else)
	}
	return fmt.Sprintf("if (%s) %s", i.Cond, i.Then)
}

type While struct {
	Position token.Position
	Cond     Expr
	Body     *Block
}

func (w *While) Pos() token.Position { return w.Position }
func (w *While) stmtNode()           {}
func (w *While) String() string      { return fmt.Sprintf("while (%s) %s", w.Cond, w.Body) }

type Return struct {
	Position token.Position
	Value    Expr // may be nil for void
}

func (r *Return) Pos() token.Position { return r.Position }
func (r *Return) stmtNode()           {}
func (r *Return) String() string {
	if r.Value != nil {
		return fmt.Sprintf("return %s;", r.Value)
	}
	return "return;"
}

type Break struct{ Position token.Position }

func (b *Break) Pos() token.Position { return b.Position }
func (b *Break) stmtNode()           {}
func (b *Break) String() string      { return "break;" }

type Continue struct{ Position token.Position }

func (c *Continue) Pos() token.Position { return c.Position }
func (c *Continue) stmtNode()           {}
func (c *Continue) String() string      { return "continue;" }

type ExprStmt struct {
	Position token.Position
	Expr     Expr
}

func (e *ExprStmt) Pos() token.Position { return e.Position }
func (e *ExprStmt) stmtNode()           {}
func (e *ExprStmt) String() string      { return e.Expr.String() + ";" }

// Expressions

type Expr interface {
	Node
	exprNode()
	ExprType() Type
	SetType(Type)
}

// typed is embedded by every expression node to carry its resolved Type.
type typed struct{ Type Type }

func (t *typed) ExprType() Type  { return t.Type }
func (t *typed) SetType(ty Type) { t.Type = ty }

type IntLit struct {
	typed
	Position token.Position
	Value    int64
}

func (e *IntLit) Pos() token.Position { return e.Position }
func (e *IntLit) exprNode()           {}
func (e *IntLit) String() string      { return fmt.Sprintf("%d", e.Value) }

type Ident struct {
	typed
	Position token.Position
	Name     string
}

func (e *Ident) Pos() token.Position { return e.Position }
func (e *Ident) exprNode()           {}
func (e *Ident) String() string      { return e.Name }

type Unary struct {
	typed
	Position token.Position
	Op       string // "-", "!", "~"
	Operand  Expr
}

func (e *Unary) Pos() token.Position { return e.Position }
func (e *Unary) exprNode()           {}
func (e *Unary) String() string      { return fmt.Sprintf("(%s%s)", e.Op, e.Operand) }

type Binary struct {
	typed
	Position token.Position
	Op       string
	Left     Expr
	Right    Expr
}

func (e *Binary) Pos() token.Position { return e.Position }
func (e *Binary) exprNode()           {}
func (e *Binary) String() string      { return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right) }

type Call struct {
	typed
	Position token.Position
	Callee   string
	Args     []Expr
}

func (e *Call) Pos() token.Position { return e.Position }
func (e *Call) exprNode()           {}
func (e *Call) String() string {
	var args []string
	for _, a := range e.Args {
		args = append(args, a.String())
	}
	return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(args, ", "))
}

type Index struct {
	typed
	Position token.Position
	Base     string
	Idx      Expr
}

func (e *Index) Pos() token.Position { return e.Position }
func (e *Index) exprNode()           {}
func (e *Index) String() string      { return fmt.Sprintf("%s[%s]", e.Base, e.Idx) }

type Cast struct {
	typed
	Position token.Position
	Target   Type
	Operand  Expr
}

func (e *Cast) Pos() token.Position { return e.Position }
func (e *Cast) exprNode()           {}
func (e *Cast) String() string      { return fmt.Sprintf("(%s)%s", e.Target, e.Operand) }
