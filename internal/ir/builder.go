package ir

import (
	"fmt"

	"cscc/internal/ast"
	"cscc/internal/semantic"
)

var binOps = map[string]BinOp{
	"+": Add, "-": Sub, "*": Mul,
	"&": And, "&&": And,
	"|": Or, "||": Or,
	"/": Div, "%": Mod, "^": Xor,
}

var cmpOps = map[string]ICmpPred{
	"==": Eq, "!=": Ne, "<": Slt, ">": Sgt, "<=": Sle, ">=": Sge,
}

func convType(t ast.Type) Type {
	switch tt := t.(type) {
	case *ast.IntType:
		return &IntType{Bits: tt.Bits}
	case *ast.CharType:
		return &IntType{Bits: 8}
	case *ast.VoidType:
		return &VoidType{}
	case *ast.PointerType:
		return &PointerType{Elem: convType(tt.Elem)}
	case *ast.ArrayType:
		return &ArrayType{Elem: convType(tt.Elem), Len: tt.Len}
	default:
		return &VoidType{}
	}
}

func elemOf(t ast.Type) ast.Type {
	switch tt := t.(type) {
	case *ast.ArrayType:
		return tt.Elem
	case *ast.PointerType:
		return tt.Elem
	default:
		return t
	}
}

// Builder lowers a type-checked AST into the SSA IR. Every local and
// parameter gets a stack slot (alloca-every-local); reads and writes go
// through Load/Store against that slot. The one exception is an if/else
// whose two arms directly assign the same local at their top level — there
// the builder also threads the two arm values through a Phi at the join
// block and stores the phi's result back into the slot, so the IR exposes
// at least one genuine register-form merge point for SCCP to fold across
// rather than relying entirely on the memory model. This is a deliberately
// partial substitute for real dominance-frontier phi placement.
type Builder struct {
	funcs *semantic.FuncTable
	fn    *Function
	cur   *BasicBlock
	entry *BasicBlock

	vars  map[string]*Value
	types map[string]ast.Type

	breakTargets []*BasicBlock
	contTargets  []*BasicBlock
	blockSeq     int
}

// Build lowers every function in prog to IR. funcs must be the table
// produced by a successful semantic.Analyze of the same program.
func Build(prog *ast.Program, funcs *semantic.FuncTable) *Program {
	p := &Program{}
	for _, fd := range prog.Functions {
		p.Functions = append(p.Functions, buildFunction(fd, funcs))
	}
	return p
}

func buildFunction(fd *ast.FuncDecl, funcs *semantic.FuncTable) *Function {
	fn := &Function{Name: fd.Name, ReturnType: convType(fd.ReturnType)}
	bd := &Builder{
		funcs: funcs,
		fn:    fn,
		vars:  map[string]*Value{},
		types: map[string]ast.Type{},
	}
	bd.entry = fn.NewBlock("entry")
	bd.cur = bd.entry

	for _, p := range fd.Params {
		pv := fn.NewValue(p.Name, convType(p.Type))
		fn.Params = append(fn.Params, pv)
		slot := bd.declareLocal(p.Name, p.Type)
		bd.emitStore(slot, pv)
	}

	bd.lowerBlock(fd.Body)

	if bd.cur.Term == nil {
		if _, void := fd.ReturnType.(*ast.VoidType); void {
			bd.cur.SetTerminator(&ReturnInst{termBase: termBase{base{IDNum: bd.fn.nextID()}}})
		} else {
			zero := bd.emitConst(convType(fd.ReturnType), 0)
			bd.cur.SetTerminator(&ReturnInst{termBase: termBase{base{IDNum: bd.fn.nextID()}}, Val: zero})
		}
	}
	return fn
}

func (bd *Builder) freshLabel(prefix string) string {
	bd.blockSeq++
	return fmt.Sprintf("%s%d", prefix, bd.blockSeq)
}

func (bd *Builder) declareLocal(name string, ty ast.Type) *Value {
	irTy := convType(ty)
	res := bd.fn.NewValue(name+".addr", &PointerType{Elem: irTy})
	inst := &AllocaInst{base: base{IDNum: bd.fn.nextID()}, Res: res, ElemType: irTy}
	bd.entry.Append(inst)
	bd.vars[name] = res
	bd.types[name] = ty
	return res
}

func (bd *Builder) emitLoad(addr *Value, ty Type) *Value {
	res := bd.fn.NewValue("", ty)
	inst := &LoadInst{base: base{IDNum: bd.fn.nextID()}, Res: res, Addr: addr}
	bd.cur.Append(inst)
	return res
}

func (bd *Builder) emitStore(addr, val *Value) {
	inst := &StoreInst{base: base{IDNum: bd.fn.nextID()}, Addr: addr, Val: val}
	bd.cur.Append(inst)
}

func (bd *Builder) emitBinary(op BinOp, l, r *Value, ty Type) *Value {
	res := bd.fn.NewValue("", ty)
	inst := &BinaryInst{base: base{IDNum: bd.fn.nextID()}, Res: res, Op: op, Left: l, Right: r}
	bd.cur.Append(inst)
	return res
}

func (bd *Builder) emitICmp(pred ICmpPred, l, r *Value) *Value {
	res := bd.fn.NewValue("", &IntType{Bits: 1})
	inst := &ICmpInst{base: base{IDNum: bd.fn.nextID()}, Res: res, Pred: pred, Left: l, Right: r}
	bd.cur.Append(inst)
	return res
}

func (bd *Builder) emitCast(v *Value, ty Type) *Value {
	res := bd.fn.NewValue("", ty)
	inst := &CastInst{base: base{IDNum: bd.fn.nextID()}, Res: res, Operand: v}
	bd.cur.Append(inst)
	return res
}

func (bd *Builder) emitCall(callee string, args []*Value, ty Type) *Value {
	res := bd.fn.NewValue("", ty)
	inst := &CallInst{base: base{IDNum: bd.fn.nextID()}, Res: res, Callee: callee, Args: args}
	bd.cur.Append(inst)
	return res
}

func (bd *Builder) emitGEP(basePtr, idx *Value, elemTy Type) *Value {
	res := bd.fn.NewValue("", &PointerType{Elem: elemTy})
	inst := &GEPInst{base: base{IDNum: bd.fn.nextID()}, Res: res, Base: basePtr, Index: idx}
	bd.cur.Append(inst)
	return res
}

func (bd *Builder) emitConst(ty Type, k int64) *Value {
	res := bd.fn.NewValue("", ty)
	inst := &ConstInst{base: base{IDNum: bd.fn.nextID()}, Res: res, Value: k}
	bd.cur.Append(inst)
	return res
}

func (bd *Builder) coerceValue(v *Value, from, to Type) *Value {
	if from.String() == to.String() {
		return v
	}
	return bd.emitCast(v, to)
}

func (bd *Builder) coerce(v *Value, from, to ast.Type) *Value {
	return bd.coerceValue(v, convType(from), convType(to))
}

func (bd *Builder) lowerBlock(b *ast.Block) {
	for _, stmt := range b.Stmts {
		bd.lowerStmt(stmt)
	}
}

// doAssign lowers the right-hand side of a plain assignment, coerces it to
// the variable's declared type, stores it, and returns the stored value so
// callers tracking phi candidates can use it directly.
func (bd *Builder) doAssign(name string, value ast.Expr) *Value {
	v := bd.lowerExpr(value)
	v = bd.coerce(v, value.ExprType(), bd.types[name])
	bd.emitStore(bd.vars[name], v)
	return v
}

// lowerArmTrackingAssigns lowers an if/else arm's top-level statements,
// recording the stored value of every plain top-level assignment so the
// caller can detect vars assigned on both arms and phi them.
func (bd *Builder) lowerArmTrackingAssigns(b *ast.Block) map[string]*Value {
	assigned := map[string]*Value{}
	for _, stmt := range b.Stmts {
		if a, ok := stmt.(*ast.Assign); ok {
			assigned[a.Name] = bd.doAssign(a.Name, a.Value)
			continue
		}
		bd.lowerStmt(stmt)
	}
	return assigned
}

func (bd *Builder) lowerStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		slot := bd.declareLocal(s.Name, s.Type)
		if s.Init != nil {
			v := bd.lowerExpr(s.Init)
			v = bd.coerce(v, s.Init.ExprType(), s.Type)
			bd.emitStore(slot, v)
		}

	case *ast.Assign:
		bd.doAssign(s.Name, s.Value)

	case *ast.IndexAssign:
		addr := bd.vars[s.Name]
		idx := bd.lowerExpr(s.Index)
		elemTy := elemOf(bd.types[s.Name])
		gep := bd.emitGEP(addr, idx, convType(elemTy))
		v := bd.lowerExpr(s.Value)
		v = bd.coerce(v, s.Value.ExprType(), elemTy)
		bd.emitStore(gep, v)

	case *ast.If:
		bd.lowerIf(s)

	case *ast.While:
		bd.lowerWhile(s)

	case *ast.Return:
		if s.Value != nil {
			v := bd.lowerExpr(s.Value)
			bd.cur.SetTerminator(&ReturnInst{termBase: termBase{base{IDNum: bd.fn.nextID()}}, Val: v})
		} else {
			bd.cur.SetTerminator(&ReturnInst{termBase: termBase{base{IDNum: bd.fn.nextID()}}})
		}
		bd.cur = bd.fn.NewBlock(bd.freshLabel("after_return"))

	case *ast.Break:
		if n := len(bd.breakTargets); n > 0 {
			bd.cur.SetTerminator(&JumpInst{termBase: termBase{base{IDNum: bd.fn.nextID()}}, Target: bd.breakTargets[n-1]})
		}
		bd.cur = bd.fn.NewBlock(bd.freshLabel("after_break"))

	case *ast.Continue:
		if n := len(bd.contTargets); n > 0 {
			bd.cur.SetTerminator(&JumpInst{termBase: termBase{base{IDNum: bd.fn.nextID()}}, Target: bd.contTargets[n-1]})
		}
		bd.cur = bd.fn.NewBlock(bd.freshLabel("after_continue"))

	case *ast.ExprStmt:
		bd.lowerExpr(s.Expr)

	case *ast.Block:
		bd.lowerBlock(s)
	}
}

func (bd *Builder) lowerIf(s *ast.If) {
	cond := bd.lowerExpr(s.Cond)

	thenBlock := bd.fn.NewBlock(bd.freshLabel("if_then"))
	joinBlock := bd.fn.NewBlock(bd.freshLabel("if_end"))
	elseBlock := joinBlock
	hasElse := s.Else != nil
	if hasElse {
		elseBlock = bd.fn.NewBlock(bd.freshLabel("if_else"))
	}
	bd.cur.SetTerminator(&BranchInst{termBase: termBase{base{IDNum: bd.fn.nextID()}}, Cond: cond, True: thenBlock, False: elseBlock})

	bd.cur = thenBlock
	thenAssigns := bd.lowerArmTrackingAssigns(s.Then)
	thenEnd := bd.cur
	if bd.cur.Term == nil {
		bd.cur.SetTerminator(&JumpInst{termBase: termBase{base{IDNum: bd.fn.nextID()}}, Target: joinBlock})
	}

	var elseAssigns map[string]*Value
	var elseEnd *BasicBlock
	if hasElse {
		bd.cur = elseBlock
		elseAssigns = bd.lowerArmTrackingAssigns(s.Else)
		elseEnd = bd.cur
		if bd.cur.Term == nil {
			bd.cur.SetTerminator(&JumpInst{termBase: termBase{base{IDNum: bd.fn.nextID()}}, Target: joinBlock})
		}
	}

	bd.cur = joinBlock
	if hasElse {
		for name, tv := range thenAssigns {
			ev, ok := elseAssigns[name]
			if !ok {
				continue
			}
			res := bd.fn.NewValue(name, convType(bd.types[name]))
			phi := &PhiInst{
				base: base{IDNum: bd.fn.nextID()},
				Res:  res,
				Incoming: []PhiEdge{
					{Pred: thenEnd, Value: tv},
					{Pred: elseEnd, Value: ev},
				},
			}
			bd.cur.Append(phi)
			bd.emitStore(bd.vars[name], res)
		}
	}
}

func (bd *Builder) lowerWhile(s *ast.While) {
	headBlock := bd.fn.NewBlock(bd.freshLabel("while_head"))
	bodyBlock := bd.fn.NewBlock(bd.freshLabel("while_body"))
	exitBlock := bd.fn.NewBlock(bd.freshLabel("while_end"))

	bd.cur.SetTerminator(&JumpInst{termBase: termBase{base{IDNum: bd.fn.nextID()}}, Target: headBlock})

	bd.cur = headBlock
	cond := bd.lowerExpr(s.Cond)
	bd.cur.SetTerminator(&BranchInst{termBase: termBase{base{IDNum: bd.fn.nextID()}}, Cond: cond, True: bodyBlock, False: exitBlock})

	bd.breakTargets = append(bd.breakTargets, exitBlock)
	bd.contTargets = append(bd.contTargets, headBlock)

	bd.cur = bodyBlock
	bd.lowerBlock(s.Body)
	if bd.cur.Term == nil {
		bd.cur.SetTerminator(&JumpInst{termBase: termBase{base{IDNum: bd.fn.nextID()}}, Target: headBlock})
	}

	bd.breakTargets = bd.breakTargets[:len(bd.breakTargets)-1]
	bd.contTargets = bd.contTargets[:len(bd.contTargets)-1]
	bd.cur = exitBlock
}

func (bd *Builder) lowerExpr(e ast.Expr) *Value {
	switch ex := e.(type) {
	case *ast.IntLit:
		return bd.emitConst(convType(ex.ExprType()), ex.Value)

	case *ast.Ident:
		addr := bd.vars[ex.Name]
		return bd.emitLoad(addr, convType(ex.ExprType()))

	case *ast.Unary:
		v := bd.lowerExpr(ex.Operand)
		ty := convType(ex.ExprType())
		switch ex.Op {
		case "-":
			zero := bd.emitConst(ty, 0)
			return bd.emitBinary(Sub, zero, bd.coerceValue(v, convType(ex.Operand.ExprType()), ty), ty)
		case "!":
			zero := bd.emitConst(convType(ex.Operand.ExprType()), 0)
			cmp := bd.emitICmp(Eq, v, zero)
			return bd.coerceValue(cmp, &IntType{Bits: 1}, ty)
		case "~":
			negOne := bd.emitConst(ty, -1)
			return bd.emitBinary(Xor, bd.coerceValue(v, convType(ex.Operand.ExprType()), ty), negOne, ty)
		}
		return v

	case *ast.Binary:
		ty := convType(ex.ExprType())
		if pred, ok := cmpOps[ex.Op]; ok {
			l := bd.lowerExpr(ex.Left)
			r := bd.lowerExpr(ex.Right)
			cmp := bd.emitICmp(pred, l, r)
			return bd.coerceValue(cmp, &IntType{Bits: 1}, ty)
		}
		op := binOps[ex.Op]
		l := bd.coerceValue(bd.lowerExpr(ex.Left), convType(ex.Left.ExprType()), ty)
		r := bd.coerceValue(bd.lowerExpr(ex.Right), convType(ex.Right.ExprType()), ty)
		return bd.emitBinary(op, l, r, ty)

	case *ast.Call:
		sig, _ := bd.funcs.Lookup(ex.Callee)
		args := make([]*Value, 0, len(ex.Args))
		for i, a := range ex.Args {
			v := bd.lowerExpr(a)
			if sig != nil && i < len(sig.Params) {
				v = bd.coerce(v, a.ExprType(), sig.Params[i])
			}
			args = append(args, v)
		}
		return bd.emitCall(ex.Callee, args, convType(ex.ExprType()))

	case *ast.Index:
		addr := bd.vars[ex.Base]
		idx := bd.lowerExpr(ex.Idx)
		elemTy := convType(ex.ExprType())
		gep := bd.emitGEP(addr, idx, elemTy)
		return bd.emitLoad(gep, elemTy)

	case *ast.Cast:
		v := bd.lowerExpr(ex.Operand)
		return bd.emitCast(v, convType(ex.Target))
	}
	return nil
}
