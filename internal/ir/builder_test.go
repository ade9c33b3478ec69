package ir

import (
	"strings"
	"testing"

	"cscc/internal/parser"
	"cscc/internal/semantic"
)

func build(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := parser.ParseSource("t.c", src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	funcs, err := semantic.NewAnalyzer().Analyze(prog)
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}
	return Build(prog, funcs)
}

func findFunc(p *Program, name string) *Function {
	for _, fn := range p.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

func TestBuildSimpleFunctionHasEntryBlockAndReturn(t *testing.T) {
	p := build(t, `int add(int a, int b) { return a + b; }`)
	fn := findFunc(p, "add")
	if fn == nil {
		t.Fatal("function not found")
	}
	if len(fn.Blocks) == 0 {
		t.Fatal("expected at least one block")
	}
	entry := fn.Entry()
	if entry.Term == nil {
		t.Fatal("entry block has no terminator")
	}
	if _, ok := entry.Term.(*ReturnInst); !ok {
		t.Fatalf("expected straight-line function to end in return, got %T", entry.Term)
	}
}

func TestBuildIfElseProducesPhiAtJoin(t *testing.T) {
	p := build(t, `
		int pick(int c) {
			int x;
			if (c) {
				x = 1;
			} else {
				x = 2;
			}
			return x;
		}
	`)
	fn := findFunc(p, "pick")
	var sawPhi bool
	for _, b := range fn.Blocks {
		for _, inst := range b.Insts {
			if _, ok := inst.(*PhiInst); ok {
				sawPhi = true
			}
		}
	}
	if !sawPhi {
		t.Fatal("expected a phi at the if/else join block")
	}
}

func TestBuildWhileLoopHasBackEdge(t *testing.T) {
	p := build(t, `
		int count(int n) {
			int i;
			i = 0;
			while (i < n) {
				i = i + 1;
			}
			return i;
		}
	`)
	fn := findFunc(p, "count")
	var head *BasicBlock
	for _, b := range fn.Blocks {
		if strings.HasPrefix(b.Label, "while_head") {
			head = b
		}
	}
	if head == nil {
		t.Fatal("expected a while_head block")
	}
	found := false
	for _, p := range head.Preds {
		if strings.HasPrefix(p.Label, "while_body") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected while_body to be a predecessor of while_head (back edge)")
	}
}

func TestBuildCallArgumentsCoerceToParamType(t *testing.T) {
	p := build(t, `
		int inc(int a) { return a + 1; }
		int f(char c) { return inc(c); }
	`)
	fn := findFunc(p, "f")
	var sawCast, sawCall bool
	for _, b := range fn.Blocks {
		for _, inst := range b.Insts {
			switch inst.(type) {
			case *CastInst:
				sawCast = true
			case *CallInst:
				sawCall = true
			}
		}
	}
	if !sawCast || !sawCall {
		t.Fatalf("expected a widening cast feeding a call, sawCast=%v sawCall=%v", sawCast, sawCall)
	}
}

func TestPrintIsDeterministic(t *testing.T) {
	p := build(t, `int add(int a, int b) { return a + b; }`)
	fn := findFunc(p, "add")
	if Print(fn) != Print(fn) {
		t.Fatal("Print must be a pure function of the IR")
	}
}
