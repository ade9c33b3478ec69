// Package ir implements the LLVM-like SSA intermediate representation that
// the SCCP pass (package sccp) consumes: functions made of basic blocks of
// typed, opcode-tagged instructions with operand and use lists.
package ir

import "fmt"

// Type is the IR's own small type lattice: integers, a pointer (used for
// stack slots and array element addresses), fixed-size arrays (the element
// type of an array local's stack slot), and void (calls and stores with no
// observable result).
type Type interface {
	String() string
}

type IntType struct{ Bits int }

func (t *IntType) String() string { return fmt.Sprintf("i%d", t.Bits) }

type PointerType struct{ Elem Type }

func (t *PointerType) String() string { return t.Elem.String() + "*" }

type VoidType struct{}

func (t *VoidType) String() string { return "void" }

type ArrayType struct {
	Elem Type
	Len  int
}

func (t *ArrayType) String() string { return fmt.Sprintf("[%d x %s]", t.Len, t.Elem) }

// Value is an SSA handle: every value has exactly one defining instruction
// (or is a function parameter, with DefInst nil) and a use-list of every
// instruction that reads it. The use-list is a plain lookup table refreshed
// by this package's own mutator helpers (AddUse/RemoveUsesBy) — never an
// ownership edge from value to user.
type Value struct {
	ID      int
	Name    string
	Type    Type
	DefInst Instruction // nil for function parameters
	Uses    []*Use
}

func (v *Value) String() string { return "%" + v.Name }

// Use records one instruction reading one value, and which block that
// read happens in — the information the transition engine's CFG-successor
// enqueueing needs without walking the whole function.
type Use struct {
	Value *Value
	User  Instruction
	Block *BasicBlock
}

// AddUse registers that user reads value, in block block.
func AddUse(value *Value, user Instruction, block *BasicBlock) {
	if value == nil {
		return
	}
	value.Uses = append(value.Uses, &Use{Value: value, User: user, Block: block})
}

// RemoveUsesBy deletes every Use entry whose User is inst. Called when an
// instruction is removed from its block so it stops appearing as a user of
// its own operands' use-lists.
func RemoveUsesBy(value *Value, inst Instruction) {
	if value == nil {
		return
	}
	kept := value.Uses[:0]
	for _, u := range value.Uses {
		if u.User != inst {
			kept = append(kept, u)
		}
	}
	value.Uses = kept
}

// IsConst reports whether v is a syntactic integer constant and, if so,
// its value — true for anything defined by a ConstInst, independent of
// whether any lattice analysis has run.
func IsConst(v *Value) (int64, bool) {
	if v == nil {
		return 0, false
	}
	if c, ok := v.DefInst.(*ConstInst); ok {
		return c.Value, true
	}
	return 0, false
}
