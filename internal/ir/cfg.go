package ir

import "fmt"

// BasicBlock is a maximal straight-line sequence of instructions ending in
// exactly one terminator. Preds/Succs are kept in sync by SetTerminator and
// by the CFG-changing mutation helpers below rather than recomputed on
// demand; the dead-block sweep relies on them to unlink removed blocks.
type BasicBlock struct {
	Label   string
	Insts   []Instruction
	Term    Terminator
	Preds   []*BasicBlock
	Succs   []*BasicBlock
	Func    *Function
}

func (b *BasicBlock) addSucc(s *BasicBlock) {
	b.Succs = append(b.Succs, s)
	s.Preds = append(s.Preds, b)
}

// AllInsts returns the block's body followed by its terminator, the order
// the transition engine walks a block in.
func (b *BasicBlock) AllInsts() []Instruction {
	if b.Term == nil {
		return b.Insts
	}
	return append(append([]Instruction{}, b.Insts...), b.Term)
}

// Function is one compiled function: a parameter list, a return type, and
// an ordered slice of basic blocks whose first element is the entry block.
type Function struct {
	Name       string
	Params     []*Value
	ReturnType Type
	Blocks     []*BasicBlock

	nextValueID int
	nextInstID  int
}

func (f *Function) Entry() *BasicBlock { return f.Blocks[0] }

// NewValue allocates a fresh SSA value owned by this function.
func (f *Function) NewValue(name string, t Type) *Value {
	f.nextValueID++
	if name == "" {
		name = fmt.Sprintf("v%d", f.nextValueID)
	}
	return &Value{ID: f.nextValueID, Name: name, Type: t}
}

func (f *Function) nextID() int {
	f.nextInstID++
	return f.nextInstID
}

// NewBlock creates and appends a new, otherwise unconnected basic block.
func (f *Function) NewBlock(label string) *BasicBlock {
	b := &BasicBlock{Label: label, Func: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

// Program is the whole translation unit.
type Program struct {
	Functions []*Function
}

// Append adds inst to the end of b's instruction list (before its
// terminator, which is set separately via SetTerminator) and registers it
// as a user of each of its operands.
func (b *BasicBlock) Append(inst Instruction) {
	inst.SetBlock(b)
	if res := inst.Result(); res != nil {
		res.DefInst = inst
	}
	b.Insts = append(b.Insts, inst)
	for _, op := range inst.Operands() {
		AddUse(op, inst, b)
	}
}

// SetTerminator installs t as b's terminator and wires up the CFG edges to
// its successors.
func (b *BasicBlock) SetTerminator(t Terminator) {
	t.(Instruction).SetBlock(b)
	b.Term = t
	for _, op := range t.Operands() {
		AddUse(op, t.(Instruction), b)
	}
	for _, s := range t.Successors() {
		if s != nil {
			b.addSucc(s)
		}
	}
}

// --- Mutation primitives used by the SCCP rewrite phase ---

// ReplaceWithConstant overwrites inst's slot in its block with a ConstInst
// holding k, reusing inst's own result Value so every existing use of it
// stays valid without a separate replace-all-uses-with pass. inst's
// operands lose their use-list entry for it, since it no longer reads
// anything.
func ReplaceWithConstant(inst Instruction, k int64) *ConstInst {
	b := inst.Block()
	res := inst.Result()
	c := &ConstInst{base: base{IDNum: inst.ID(), Blk: b}, Res: res, Value: k}
	res.DefInst = c

	for _, op := range inst.Operands() {
		RemoveUsesBy(op, inst)
	}
	for idx, cur := range b.Insts {
		if cur == inst {
			b.Insts[idx] = c
			return c
		}
	}
	return c
}

// ReplaceBranchWithJump turns a conditional branch whose condition is
// known into an unconditional jump to the live successor, dropping the CFG
// edge to the other one.
func ReplaceBranchWithJump(br *BranchInst, target *BasicBlock) *JumpInst {
	b := br.Block()
	j := &JumpInst{termBase: termBase{base: base{IDNum: br.IDNum, Blk: b}}, Target: target}

	RemoveUsesBy(br.Cond, br)

	dead := br.False
	if target == br.False {
		dead = br.True
	}
	b.Succs = removeBlock(b.Succs, dead)
	dead.Preds = removeBlock(dead.Preds, b)

	b.Term = j
	return j
}

// RemoveInstruction deletes inst from its block's instruction list and
// drops it from its operands' use-lists. It must not be a terminator.
func RemoveInstruction(inst Instruction) {
	b := inst.Block()
	for _, op := range inst.Operands() {
		RemoveUsesBy(op, inst)
	}
	for idx, cur := range b.Insts {
		if cur == inst {
			b.Insts = append(b.Insts[:idx], b.Insts[idx+1:]...)
			return
		}
	}
}

// RemoveBlock deletes b from fn entirely: it is dropped from fn.Blocks,
// unlinked from every remaining predecessor/successor, and any Phi in a
// surviving successor loses its incoming edge from b. Used by the
// dead-block sweep once SCCP has determined b is unreachable.
func RemoveBlock(fn *Function, b *BasicBlock) {
	for _, s := range b.Succs {
		s.Preds = removeBlock(s.Preds, b)
		for _, inst := range s.Insts {
			if phi, ok := inst.(*PhiInst); ok {
				phi.RemoveIncoming(b)
			}
		}
	}
	for _, p := range b.Preds {
		p.Succs = removeBlock(p.Succs, b)
	}
	kept := fn.Blocks[:0]
	for _, blk := range fn.Blocks {
		if blk != b {
			kept = append(kept, blk)
		}
	}
	fn.Blocks = kept
}

func removeBlock(blocks []*BasicBlock, target *BasicBlock) []*BasicBlock {
	kept := blocks[:0]
	for _, b := range blocks {
		if b != target {
			kept = append(kept, b)
		}
	}
	return kept
}

// NewConstant builds a detached constant instruction of type t and value k,
// registered under fn's id/value counters but not yet inserted into any
// block. Callers that need it live must Append it themselves.
func NewConstant(fn *Function, t Type, k int64) *ConstInst {
	res := fn.NewValue("", t)
	c := &ConstInst{base: base{IDNum: fn.nextID()}, Res: res, Value: k}
	res.DefInst = c
	return c
}
