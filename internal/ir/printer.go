package ir

import (
	"fmt"
	"strings"
)

// Print renders fn in a stable textual form intended for the driver's
// before/after dump and for IR-equality assertions in tests — two runs over
// unmodified IR must produce byte-identical output.
func Print(fn *Function) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "func %s(", fn.Name)
	for i, p := range fn.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s %s", p, p.Type)
	}
	fmt.Fprintf(&sb, ") %s {\n", fn.ReturnType)

	for _, b := range fn.Blocks {
		fmt.Fprintf(&sb, "%s:\n", b.Label)
		for _, inst := range b.Insts {
			fmt.Fprintf(&sb, "  %s\n", inst)
		}
		if b.Term != nil {
			fmt.Fprintf(&sb, "  %s\n", b.Term.(Instruction))
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func PrintProgram(p *Program) string {
	var sb strings.Builder
	for _, fn := range p.Functions {
		sb.WriteString(Print(fn))
		sb.WriteString("\n")
	}
	return sb.String()
}
