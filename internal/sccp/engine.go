package sccp

import "cscc/internal/ir"

// engine holds one function's lattice stores and work queue. All of it is
// discarded when Run returns; nothing persists across functions.
type engine struct {
	fn *ir.Function

	values map[*ir.Value]ValueState
	reach  map[*ir.BasicBlock]reachState

	// Branch and return instructions have no SSA result, so their own
	// lattice entries (used for branch folding, and for return as a purely
	// informational annotation) live in a side table rather than the value
	// store. Store entries are not tracked at all: per the resolved open
	// question, they have no downstream users and participate in nothing.
	branches map[*ir.BranchInst]ValueState
	returns  map[*ir.ReturnInst]ValueState

	queue []*ir.BasicBlock
}

func newEngine(fn *ir.Function) *engine {
	e := &engine{
		fn:       fn,
		values:   make(map[*ir.Value]ValueState),
		reach:    make(map[*ir.BasicBlock]reachState),
		branches: make(map[*ir.BranchInst]ValueState),
		returns:  make(map[*ir.ReturnInst]ValueState),
	}
	for _, b := range fn.Blocks {
		e.reach[b] = unreachable
	}
	return e
}

// lookupValue returns v's current lattice element. Syntactic integer
// constants report value(k) directly without touching the store. Any other
// value not yet seen is seeded at bottom, per §4.1.
func (e *engine) lookupValue(v *ir.Value) ValueState {
	if v == nil {
		return Bottom
	}
	if k, ok := ir.IsConst(v); ok {
		return Known(k)
	}
	if st, ok := e.values[v]; ok {
		return st
	}
	e.values[v] = Bottom
	return Bottom
}

// updateValue raises v's entry to at least newState, returning whether the
// store actually changed.
func (e *engine) updateValue(v *ir.Value, newState ValueState) bool {
	old := e.values[v]
	joined, changed := raise(old, newState)
	e.values[v] = joined
	return changed
}

func (e *engine) markReachable(b *ir.BasicBlock) bool {
	if e.reach[b] == reachable {
		return false
	}
	e.reach[b] = reachable
	return true
}

func (e *engine) isReachable(b *ir.BasicBlock) bool {
	return e.reach[b] == reachable
}

func (e *engine) enqueue(b *ir.BasicBlock) {
	e.queue = append(e.queue, b)
}

// enqueueUsers enqueues the block of every instruction that reads v, the
// CFG-successor-enqueueing rule from §4.2: a changed value wakes up every
// block that contains a user, reachable or not.
func (e *engine) enqueueUsers(v *ir.Value) {
	if v == nil {
		return
	}
	for _, u := range v.Uses {
		e.enqueue(u.Block)
	}
}

func (e *engine) setResult(v *ir.Value, newState ValueState) {
	if v == nil {
		return
	}
	if e.updateValue(v, newState) {
		e.enqueueUsers(v)
	}
}

// run drains the work queue to a fixpoint.
func (e *engine) run() {
	entry := e.fn.Entry()
	e.markReachable(entry)
	e.enqueue(entry)

	for len(e.queue) > 0 {
		b := e.queue[0]
		e.queue = e.queue[1:]
		if !e.isReachable(b) {
			continue
		}
		for _, inst := range b.AllInsts() {
			if term, ok := inst.(ir.Terminator); ok {
				e.visitTerm(term)
				continue
			}
			e.visit(inst)
		}
	}
}

func (e *engine) visit(inst ir.Instruction) {
	switch in := inst.(type) {
	case *ir.AllocaInst:
		// addresses are not modeled; always top.
		e.setResult(in.Res, Top)
	case *ir.BinaryInst:
		e.transferBinary(in)
	case *ir.ICmpInst:
		e.transferICmp(in)
	case *ir.CastInst:
		e.setResult(in.Res, e.lookupValue(in.Operand))
	case *ir.CallInst:
		e.setResult(in.Res, Top)
	case *ir.GEPInst:
		e.setResult(in.Res, Top)
	case *ir.LoadInst:
		e.setResult(in.Res, Top)
	case *ir.StoreInst:
		// dropped from the lattice entirely; see the engine doc comment.
	case *ir.PhiInst:
		e.transferPhi(in)
	case *ir.ConstInst:
		// lookupValue already recognizes this via ir.IsConst with no store
		// entry needed; storing a duplicate Known(in.Value) here would make
		// rewriteBlock see it as "known" and replace it with an identical
		// ConstInst on every run, breaking the modified-flag and idempotence.
	default:
		if r := inst.Result(); r != nil {
			e.setResult(r, Top)
		}
	}
}

func isNonZeroConst(s ValueState) bool { return s.IsKnown() && s.K != 0 }
func isZeroConst(s ValueState) bool    { return s.IsKnown() && s.K == 0 }

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func wrap32(v int64) int64 { return int64(int32(v)) }

func evalBinary(op ir.BinOp, a, b int64) int64 {
	switch op {
	case ir.Add:
		return wrap32(a + b)
	case ir.Sub:
		return wrap32(a - b)
	case ir.Mul:
		return wrap32(a * b)
	case ir.And:
		return boolToInt(a != 0 && b != 0)
	case ir.Or:
		return boolToInt(a != 0 || b != 0)
	}
	return 0
}

// transferBinary implements §4.2's add/sub/mul/and/or transfer, including
// the short-circuit rules: the decisive operand must be a known constant
// and the other exactly top, never bottom (an operand at bottom means the
// operation has not executed on any reachable path yet, so no conclusion
// can be drawn). Div, Mod, and Xor are not part of this closed opcode
// class; they fall through to the generic bottom/top handling with no
// constant materialized.
func (e *engine) transferBinary(in *ir.BinaryInst) {
	l := e.lookupValue(in.Left)
	r := e.lookupValue(in.Right)

	if l.IsBottom() || r.IsBottom() {
		e.setResult(in.Res, Bottom)
		return
	}

	switch in.Op {
	case ir.Or:
		if (isNonZeroConst(l) && r.IsTop()) || (isNonZeroConst(r) && l.IsTop()) {
			e.setResult(in.Res, Known(1))
			return
		}
	case ir.And:
		if (isZeroConst(l) && r.IsTop()) || (isZeroConst(r) && l.IsTop()) {
			e.setResult(in.Res, Known(0))
			return
		}
	}

	if l.IsTop() || r.IsTop() {
		e.setResult(in.Res, Top)
		return
	}

	switch in.Op {
	case ir.Add, ir.Sub, ir.Mul, ir.And, ir.Or:
		e.setResult(in.Res, Known(evalBinary(in.Op, l.K, r.K)))
	default:
		e.setResult(in.Res, Top)
	}
}

// transferICmp handles each predicate independently; the source's bug of
// falling through switch cases to the last predicate's result must not be
// reproduced here.
func (e *engine) transferICmp(in *ir.ICmpInst) {
	l := e.lookupValue(in.Left)
	r := e.lookupValue(in.Right)

	if l.IsBottom() || r.IsBottom() {
		e.setResult(in.Res, Bottom)
		return
	}
	if l.IsTop() || r.IsTop() {
		e.setResult(in.Res, Top)
		return
	}

	switch in.Pred {
	case ir.Eq:
		e.setResult(in.Res, Known(boolToInt(l.K == r.K)))
	case ir.Ne:
		e.setResult(in.Res, Known(boolToInt(l.K != r.K)))
	case ir.Slt:
		e.setResult(in.Res, Known(boolToInt(l.K < r.K)))
	default:
		e.setResult(in.Res, Top)
	}
}

// transferPhi joins the lattice elements of every incoming value whose
// edge originates in a currently-reachable predecessor; contributions from
// unreachable predecessors are ignored outright rather than folded in as
// bottom, so they can never drag an otherwise-known phi back down.
func (e *engine) transferPhi(in *ir.PhiInst) {
	result := Bottom
	for _, edge := range in.Incoming {
		if !e.isReachable(edge.Pred) {
			continue
		}
		result = joinValue(result, e.lookupValue(edge.Value))
	}
	e.setResult(in.Res, result)
}

func (e *engine) visitTerm(term ir.Terminator) {
	switch t := term.(type) {
	case *ir.JumpInst:
		if e.markReachable(t.Target) {
			e.enqueue(t.Target)
		}
	case *ir.BranchInst:
		e.transferBranch(t)
	case *ir.ReturnInst:
		e.transferReturn(t)
	}
}

func (e *engine) recordBranch(t *ir.BranchInst, next ValueState) {
	old := e.branches[t]
	joined, _ := raise(old, next)
	e.branches[t] = joined
}

// transferBranch never enqueues anything itself when cond is bottom: the
// block containing cond's producer will, once it resolves, enqueue this
// block's users (including this branch's own block, via the use-list), so
// it gets revisited naturally.
func (e *engine) transferBranch(t *ir.BranchInst) {
	cond := e.lookupValue(t.Cond)
	switch {
	case cond.IsKnown():
		e.recordBranch(t, cond)
		taken := t.True
		if cond.K == 0 {
			taken = t.False
		}
		if e.markReachable(taken) {
			e.enqueue(taken)
		}
	case cond.IsTop():
		e.recordBranch(t, Top)
		if e.markReachable(t.True) {
			e.enqueue(t.True)
		}
		if e.markReachable(t.False) {
			e.enqueue(t.False)
		}
	default:
		e.recordBranch(t, Bottom)
	}
}

// transferReturn never enqueues successors: there are none within the
// function, and crossing into callers is out of scope for an
// intraprocedural pass.
func (e *engine) transferReturn(t *ir.ReturnInst) {
	val := Bottom
	if t.Val != nil {
		val = e.lookupValue(t.Val)
	}
	old := e.returns[t]
	joined, _ := raise(old, val)
	e.returns[t] = joined
}
