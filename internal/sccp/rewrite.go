package sccp

import "cscc/internal/ir"

// rewriteFunction consumes the fixpoint state recorded in e and mutates
// e.fn in place per §4.3, then sweeps blocks that never became reachable.
func rewriteFunction(e *engine) bool {
	changed := false
	for _, b := range e.fn.Blocks {
		if rewriteBlock(e, b) {
			changed = true
		}
	}
	if sweepDeadBlocks(e) {
		changed = true
	}
	return changed
}

// rewriteBlock applies the four rewrite cases to one block: a known branch
// folds to a jump, a known non-branch instruction becomes a constant, a
// top instruction is left untouched, and a bottom instruction is deleted.
//
// The body is walked back-to-front over a snapshot of b.Insts so that
// deletions never shift the index of an instruction not yet visited. This
// approximates §4.3's "reverse use-order" requirement with reverse program
// order, which coincides with it for the straight-line blocks this front
// end's builder produces; RemoveInstruction only unlinks use-list entries
// rather than freeing anything, so no ordering of the deletions themselves
// can corrupt the result.
func rewriteBlock(e *engine, b *ir.BasicBlock) bool {
	changed := false

	if br, ok := b.Term.(*ir.BranchInst); ok {
		if st := e.branches[br]; st.IsKnown() {
			target := br.True
			if st.K == 0 {
				target = br.False
			}
			ir.ReplaceBranchWithJump(br, target)
			changed = true
		}
	}

	snapshot := append([]ir.Instruction{}, b.Insts...)
	for i := len(snapshot) - 1; i >= 0; i-- {
		inst := snapshot[i]
		res := inst.Result()
		if res == nil {
			continue // Store: no tracked entry, never rewritten here.
		}
		st, ok := e.values[res]
		if !ok {
			// Either never visited (its block stayed unreachable throughout)
			// or a ConstInst, which the engine never stores an entry for.
			continue
		}
		switch {
		case st.IsTop():
			// leave as-is.
		case st.IsKnown():
			ir.ReplaceWithConstant(inst, st.K)
			changed = true
		case st.IsBottom():
			ir.RemoveInstruction(inst)
			changed = true
		}
	}
	return changed
}

// sweepDeadBlocks removes every block the fixpoint never marked reachable,
// resolving §9's dead-block-sweep open question: eligibility is exactly
// "unreachable at the end of the pass", and removal drops the
// corresponding incoming edge from any phi in a surviving successor.
func sweepDeadBlocks(e *engine) bool {
	changed := false
	blocks := append([]*ir.BasicBlock{}, e.fn.Blocks...)
	for _, b := range blocks {
		if !e.isReachable(b) {
			ir.RemoveBlock(e.fn, b)
			changed = true
		}
	}
	return changed
}
