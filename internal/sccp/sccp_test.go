package sccp

import (
	"testing"

	"cscc/internal/ir"
)

var i32 = &ir.IntType{Bits: 32}

func constInst(fn *ir.Function, name string, v int64) *ir.ConstInst {
	return &ir.ConstInst{Res: fn.NewValue(name, i32), Value: v}
}

func TestConstantFoldAcrossPhi(t *testing.T) {
	fn := &ir.Function{Name: "f", ReturnType: i32}
	b0 := fn.NewBlock("b0")
	b1 := fn.NewBlock("b1")
	b2 := fn.NewBlock("b2")
	b3 := fn.NewBlock("b3")

	cond := constInst(fn, "cond", 1)
	b0.Append(cond)
	b0.SetTerminator(&ir.BranchInst{Cond: cond.Res, True: b1, False: b2})

	c3 := constInst(fn, "c3", 3)
	b1.Append(c3)
	b1.SetTerminator(&ir.JumpInst{Target: b3})

	c5 := constInst(fn, "c5", 5)
	b2.Append(c5)
	b2.SetTerminator(&ir.JumpInst{Target: b3})

	phiRes := fn.NewValue("p", i32)
	phi := &ir.PhiInst{Res: phiRes, Incoming: []ir.PhiEdge{
		{Pred: b1, Value: c3.Res},
		{Pred: b2, Value: c5.Res},
	}}
	b3.Append(phi)
	b3.SetTerminator(&ir.ReturnInst{Val: phiRes})

	if !Run(fn) {
		t.Fatal("expected Run to report a change")
	}

	if len(fn.Blocks) != 3 {
		t.Fatalf("expected b2 to be swept, got %d blocks", len(fn.Blocks))
	}
	jump, ok := b0.Term.(*ir.JumpInst)
	if !ok || jump.Target != b1 {
		t.Fatalf("expected b0's branch folded to an unconditional jump to b1, got %#v", b0.Term)
	}
	c, ok := phiRes.DefInst.(*ir.ConstInst)
	if !ok || c.Value != 3 {
		t.Fatalf("expected phi replaced by const 3, got %#v", phiRes.DefInst)
	}
}

func TestShortCircuitOr(t *testing.T) {
	fn := &ir.Function{Name: "f", ReturnType: i32}
	b0 := fn.NewBlock("entry")

	x := &ir.CallInst{Res: fn.NewValue("x", i32), Callee: "unknown"}
	b0.Append(x)
	one := constInst(fn, "one", 1)
	b0.Append(one)
	orInst := &ir.BinaryInst{Res: fn.NewValue("t", i32), Op: ir.Or, Left: x.Res, Right: one.Res}
	b0.Append(orInst)
	b0.SetTerminator(&ir.ReturnInst{Val: orInst.Res})

	if !Run(fn) {
		t.Fatal("expected Run to report a change")
	}
	c, ok := orInst.Res.DefInst.(*ir.ConstInst)
	if !ok || c.Value != 1 {
		t.Fatalf("expected or(x,1) to fold to const 1, got %#v", orInst.Res.DefInst)
	}
}

func TestShortCircuitAndWithZero(t *testing.T) {
	fn := &ir.Function{Name: "f", ReturnType: i32}
	b0 := fn.NewBlock("entry")

	x := &ir.CallInst{Res: fn.NewValue("x", i32), Callee: "unknown"}
	b0.Append(x)
	zero := constInst(fn, "zero", 0)
	b0.Append(zero)
	andInst := &ir.BinaryInst{Res: fn.NewValue("t", i32), Op: ir.And, Left: x.Res, Right: zero.Res}
	b0.Append(andInst)
	b0.SetTerminator(&ir.ReturnInst{Val: andInst.Res})

	if !Run(fn) {
		t.Fatal("expected Run to report a change")
	}
	c, ok := andInst.Res.DefInst.(*ir.ConstInst)
	if !ok || c.Value != 0 {
		t.Fatalf("expected and(x,0) to fold to const 0, got %#v", andInst.Res.DefInst)
	}
}

func TestDeadBranchEliminationSweepsDeadSuccessor(t *testing.T) {
	fn := &ir.Function{Name: "f", ReturnType: i32}
	b0 := fn.NewBlock("b0")
	b1 := fn.NewBlock("b1") // successor 0 ("true"), should die
	b2 := fn.NewBlock("b2") // successor 1 ("false"), should survive
	b3 := fn.NewBlock("b3")

	cond := constInst(fn, "cond", 0)
	b0.Append(cond)
	b0.SetTerminator(&ir.BranchInst{Cond: cond.Res, True: b1, False: b2})

	dead := constInst(fn, "dead", 99)
	b1.Append(dead)
	b1.SetTerminator(&ir.JumpInst{Target: b3})

	live := constInst(fn, "live", 42)
	b2.Append(live)
	b2.SetTerminator(&ir.JumpInst{Target: b3})

	b3.SetTerminator(&ir.ReturnInst{})

	if !Run(fn) {
		t.Fatal("expected Run to report a change")
	}
	for _, b := range fn.Blocks {
		if b == b1 {
			t.Fatal("expected dead successor b1 to be swept")
		}
	}
	jump, ok := b0.Term.(*ir.JumpInst)
	if !ok || jump.Target != b2 {
		t.Fatalf("expected b0 to jump directly to b2, got %#v", b0.Term)
	}
}

func TestUnknownCallPoisonsWithNoRewrite(t *testing.T) {
	fn := &ir.Function{Name: "f", ReturnType: i32}
	b0 := fn.NewBlock("entry")

	call := &ir.CallInst{Res: fn.NewValue("t", i32), Callee: "f"}
	b0.Append(call)
	one := constInst(fn, "one", 1)
	b0.Append(one)
	add := &ir.BinaryInst{Res: fn.NewValue("u", i32), Op: ir.Add, Left: call.Res, Right: one.Res}
	b0.Append(add)
	b0.SetTerminator(&ir.ReturnInst{Val: add.Res})

	if Run(fn) {
		t.Fatal("expected no rewrite when a call result stays top")
	}
	if _, ok := add.Res.DefInst.(*ir.ConstInst); ok {
		t.Fatal("add over an unknown call result must not be materialized")
	}
}

func TestBottomCascadeSweepsUnreachableBlock(t *testing.T) {
	fn := &ir.Function{Name: "f", ReturnType: i32}
	b0 := fn.NewBlock("b0")
	b1 := fn.NewBlock("b1")
	dead := fn.NewBlock("dead")

	cond := constInst(fn, "cond", 1)
	b0.Append(cond)
	b0.SetTerminator(&ir.BranchInst{Cond: cond.Res, True: b1, False: dead})
	b1.SetTerminator(&ir.ReturnInst{})

	// Two values that are never produced on any reachable path, combined
	// inside the block nothing ever reaches.
	phantomA := fn.NewValue("a", i32)
	phantomB := fn.NewValue("b", i32)
	op := &ir.BinaryInst{Res: fn.NewValue("sum", i32), Op: ir.Add, Left: phantomA, Right: phantomB}
	dead.Append(op)
	dead.SetTerminator(&ir.ReturnInst{Val: op.Res})

	if !Run(fn) {
		t.Fatal("expected Run to report a change")
	}
	for _, b := range fn.Blocks {
		if b == dead {
			t.Fatal("expected unreachable block to be swept")
		}
	}
}

func TestSingleBlockReturnConstantIsUnchanged(t *testing.T) {
	fn := &ir.Function{Name: "f", ReturnType: i32}
	b0 := fn.NewBlock("entry")
	seven := constInst(fn, "seven", 7)
	b0.Append(seven)
	b0.SetTerminator(&ir.ReturnInst{Val: seven.Res})

	if Run(fn) {
		t.Fatal("a function that already only returns a constant should need no rewrite")
	}
}

func TestICmpPredicatesDoNotFallThrough(t *testing.T) {
	cases := []struct {
		pred ir.ICmpPred
		want int64
	}{
		{ir.Eq, 0},
		{ir.Ne, 1},
		{ir.Slt, 1},
	}
	for _, c := range cases {
		fn := &ir.Function{Name: "f", ReturnType: i32}
		b0 := fn.NewBlock("entry")
		l := constInst(fn, "l", 3)
		r := constInst(fn, "r", 5)
		b0.Append(l)
		b0.Append(r)
		cmp := &ir.ICmpInst{Res: fn.NewValue("c", i32), Pred: c.pred, Left: l.Res, Right: r.Res}
		b0.Append(cmp)
		b0.SetTerminator(&ir.ReturnInst{Val: cmp.Res})

		Run(fn)
		got, ok := cmp.Res.DefInst.(*ir.ConstInst)
		if !ok {
			t.Fatalf("pred %v: expected constant result", c.pred)
		}
		if got.Value != c.want {
			t.Fatalf("pred %v: want %d, got %d", c.pred, c.want, got.Value)
		}
	}
}

func TestUnsupportedComparePredicateIsTop(t *testing.T) {
	fn := &ir.Function{Name: "f", ReturnType: i32}
	b0 := fn.NewBlock("entry")
	l := constInst(fn, "l", 3)
	r := constInst(fn, "r", 5)
	b0.Append(l)
	b0.Append(r)
	cmp := &ir.ICmpInst{Res: fn.NewValue("c", i32), Pred: ir.Sgt, Left: l.Res, Right: r.Res}
	b0.Append(cmp)
	b0.SetTerminator(&ir.ReturnInst{Val: cmp.Res})

	Run(fn)
	if _, ok := cmp.Res.DefInst.(*ir.ConstInst); ok {
		t.Fatal("an unsupported predicate must not be folded, even with known operands")
	}
}

func TestIdempotence(t *testing.T) {
	fn := &ir.Function{Name: "f", ReturnType: i32}
	b0 := fn.NewBlock("b0")
	b1 := fn.NewBlock("b1")
	b2 := fn.NewBlock("b2")
	b3 := fn.NewBlock("b3")

	cond := constInst(fn, "cond", 1)
	b0.Append(cond)
	b0.SetTerminator(&ir.BranchInst{Cond: cond.Res, True: b1, False: b2})
	c3 := constInst(fn, "c3", 3)
	b1.Append(c3)
	b1.SetTerminator(&ir.JumpInst{Target: b3})
	c5 := constInst(fn, "c5", 5)
	b2.Append(c5)
	b2.SetTerminator(&ir.JumpInst{Target: b3})
	phiRes := fn.NewValue("p", i32)
	phi := &ir.PhiInst{Res: phiRes, Incoming: []ir.PhiEdge{{Pred: b1, Value: c3.Res}, {Pred: b2, Value: c5.Res}}}
	b3.Append(phi)
	b3.SetTerminator(&ir.ReturnInst{Val: phiRes})

	if !Run(fn) {
		t.Fatal("first run should change the function")
	}
	before := ir.Print(fn)
	if Run(fn) {
		t.Fatal("second run should report no further change")
	}
	after := ir.Print(fn)
	if before != after {
		t.Fatalf("idempotence violated:\nbefore:\n%s\nafter:\n%s", before, after)
	}
}

func TestLatticeDescentPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected raise to panic on a lattice descent")
		}
	}()
	raise(Known(5), Bottom)
}

func TestJoinValueDifferingConstantsIsTop(t *testing.T) {
	got := joinValue(Known(3), Known(5))
	if !got.IsTop() {
		t.Fatalf("expected join of differing constants to be top, got %v", got)
	}
}
