package ir

import "fmt"

// Instruction is implemented by every non-terminator and terminator IR
// instruction. Dispatch in the SCCP engine is a Go type switch over the
// concrete instruction types below rather than an opcode enum with a
// shared interpreter method; an instruction type the switch does not name
// falls to its default case, which sets any result to top.
type Instruction interface {
	ID() int
	Result() *Value // nil for instructions with no result (Store, Return, ...)
	Operands() []*Value
	Block() *BasicBlock
	SetBlock(*BasicBlock)
	IsTerminator() bool
	String() string
}

// Terminator is the subset of instructions that end a basic block.
type Terminator interface {
	Instruction
	Successors() []*BasicBlock
}

// BinOp is the binary arithmetic opcode set. Add, Sub, Mul, And, and Or are
// the ones the transition engine folds precisely, including the and/or
// short-circuit rule; Div, Mod, and Xor exist so the parsed C subset's
// full operator set lowers to something, but SCCP never materializes a
// constant for them — division's undefined behavior on a zero divisor
// makes folding them unsafe without a trap model, so the engine's binary
// transfer function sends them to its default case and they always
// produce top for non-bottom operands.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	And
	Or
	Div
	Mod
	Xor
)

func (op BinOp) String() string {
	return [...]string{"add", "sub", "mul", "and", "or", "div", "mod", "xor"}[op]
}

// ICmpPred is the set of integer-compare predicates. Eq, Ne, and Slt are
// the ones SCCP's transfer function folds to a constant; the others exist
// so the engine's "unsupported predicate promotes to top" rule (spec.md
// §4.2, §7) has something real to exercise.
type ICmpPred int

const (
	Eq ICmpPred = iota
	Ne
	Slt
	Sgt
	Sle
	Sge
)

func (p ICmpPred) String() string {
	return [...]string{"eq", "ne", "slt", "sgt", "sle", "sge"}[p]
}

type base struct {
	IDNum int
	Blk   *BasicBlock
}

func (b *base) ID() int             { return b.IDNum }
func (b *base) Block() *BasicBlock  { return b.Blk }
func (b *base) SetBlock(bb *BasicBlock) { b.Blk = bb }
func (b *base) IsTerminator() bool  { return false }

// AllocaInst reserves a stack slot; its result is an opaque address.
type AllocaInst struct {
	base
	Res      *Value
	ElemType Type
}

func (i *AllocaInst) Result() *Value     { return i.Res }
func (i *AllocaInst) Operands() []*Value { return nil }
func (i *AllocaInst) String() string {
	return fmt.Sprintf("%s = alloca %s", i.Res, i.ElemType)
}

// BinaryInst applies one BinOp to two integer operands.
type BinaryInst struct {
	base
	Res   *Value
	Op    BinOp
	Left  *Value
	Right *Value
}

func (i *BinaryInst) Result() *Value     { return i.Res }
func (i *BinaryInst) Operands() []*Value { return []*Value{i.Left, i.Right} }
func (i *BinaryInst) String() string {
	return fmt.Sprintf("%s = %s %s, %s", i.Res, i.Op, i.Left, i.Right)
}

// ICmpInst is an integer comparison.
type ICmpInst struct {
	base
	Res   *Value
	Pred  ICmpPred
	Left  *Value
	Right *Value
}

func (i *ICmpInst) Result() *Value     { return i.Res }
func (i *ICmpInst) Operands() []*Value { return []*Value{i.Left, i.Right} }
func (i *ICmpInst) String() string {
	return fmt.Sprintf("%s = icmp %s %s, %s", i.Res, i.Pred, i.Left, i.Right)
}

// CastInst copies its operand's bit pattern into a differently-typed result.
type CastInst struct {
	base
	Res     *Value
	Operand *Value
}

func (i *CastInst) Result() *Value     { return i.Res }
func (i *CastInst) Operands() []*Value { return []*Value{i.Operand} }
func (i *CastInst) String() string {
	return fmt.Sprintf("%s = cast %s to %s", i.Res, i.Operand, i.Res.Type)
}

// CallInst calls another function; intraprocedural analysis treats the
// result as opaque regardless of callee.
type CallInst struct {
	base
	Res    *Value
	Callee string
	Args   []*Value
}

func (i *CallInst) Result() *Value     { return i.Res }
func (i *CallInst) Operands() []*Value { return i.Args }
func (i *CallInst) String() string {
	return fmt.Sprintf("%s = call @%s(%v)", i.Res, i.Callee, i.Args)
}

// GEPInst computes the address of one element of an array given a base
// pointer and an index; no memory modeling is performed.
type GEPInst struct {
	base
	Res   *Value
	Base  *Value
	Index *Value
}

func (i *GEPInst) Result() *Value     { return i.Res }
func (i *GEPInst) Operands() []*Value { return []*Value{i.Base, i.Index} }
func (i *GEPInst) String() string {
	return fmt.Sprintf("%s = gep %s, %s", i.Res, i.Base, i.Index)
}

// LoadInst reads through a pointer.
type LoadInst struct {
	base
	Res  *Value
	Addr *Value
}

func (i *LoadInst) Result() *Value     { return i.Res }
func (i *LoadInst) Operands() []*Value { return []*Value{i.Addr} }
func (i *LoadInst) String() string     { return fmt.Sprintf("%s = load %s", i.Res, i.Addr) }

// StoreInst writes through a pointer; it has no result.
type StoreInst struct {
	base
	Addr *Value
	Val  *Value
}

func (i *StoreInst) Result() *Value     { return nil }
func (i *StoreInst) Operands() []*Value { return []*Value{i.Addr, i.Val} }
func (i *StoreInst) String() string     { return fmt.Sprintf("store %s, %s", i.Val, i.Addr) }

// PhiEdge is one incoming value of a PhiInst, tagged with the predecessor
// block the edge comes from.
type PhiEdge struct {
	Pred  *BasicBlock
	Value *Value
}

// PhiInst selects a value based on which predecessor edge was taken.
type PhiInst struct {
	base
	Res      *Value
	Incoming []PhiEdge
}

func (i *PhiInst) Result() *Value { return i.Res }
func (i *PhiInst) Operands() []*Value {
	ops := make([]*Value, 0, len(i.Incoming))
	for _, e := range i.Incoming {
		ops = append(ops, e.Value)
	}
	return ops
}
func (i *PhiInst) String() string {
	s := fmt.Sprintf("%s = phi ", i.Res)
	for idx, e := range i.Incoming {
		if idx > 0 {
			s += ", "
		}
		s += fmt.Sprintf("[%s, %s]", e.Value, e.Pred.Label)
	}
	return s
}

// RemoveIncoming drops the edge from pred, if present. Used by the
// dead-block sweep when pred is removed from the function.
func (i *PhiInst) RemoveIncoming(pred *BasicBlock) {
	kept := i.Incoming[:0]
	for _, e := range i.Incoming {
		if e.Pred != pred {
			kept = append(kept, e)
		}
	}
	i.Incoming = kept
}

// ConstInst materializes a syntactic integer constant.
type ConstInst struct {
	base
	Res   *Value
	Value int64
}

func (i *ConstInst) Result() *Value     { return i.Res }
func (i *ConstInst) Operands() []*Value { return nil }
func (i *ConstInst) String() string     { return fmt.Sprintf("%s = const %d", i.Res, i.Value) }

// Terminators

type termBase struct{ base }

func (b *termBase) IsTerminator() bool { return true }
func (b *termBase) Result() *Value     { return nil }

// JumpInst is an unconditional branch.
type JumpInst struct {
	termBase
	Target *BasicBlock
}

func (i *JumpInst) Operands() []*Value        { return nil }
func (i *JumpInst) Successors() []*BasicBlock { return []*BasicBlock{i.Target} }
func (i *JumpInst) String() string            { return fmt.Sprintf("jump %s", i.Target.Label) }

// BranchInst is a two-way conditional branch: successor 0 is taken when
// Cond is nonzero, successor 1 otherwise.
type BranchInst struct {
	termBase
	Cond  *Value
	True  *BasicBlock
	False *BasicBlock
}

func (i *BranchInst) Operands() []*Value { return []*Value{i.Cond} }
func (i *BranchInst) Successors() []*BasicBlock {
	return []*BasicBlock{i.True, i.False}
}
func (i *BranchInst) String() string {
	return fmt.Sprintf("branch %s, %s, %s", i.Cond, i.True.Label, i.False.Label)
}

// ReturnInst ends a function. It never has CFG successors within the
// function, so the engine must not enqueue anything from it.
type ReturnInst struct {
	termBase
	Val *Value // nil for void return
}

func (i *ReturnInst) Operands() []*Value {
	if i.Val == nil {
		return nil
	}
	return []*Value{i.Val}
}
func (i *ReturnInst) Successors() []*BasicBlock { return nil }
func (i *ReturnInst) String() string {
	if i.Val == nil {
		return "return"
	}
	return fmt.Sprintf("return %s", i.Val)
}
