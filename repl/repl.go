// Package repl SPDX-License-Identifier: Apache-2.0
package repl

import (
	"bufio"
	"fmt"
	"io"

	"cscc/internal/errors"
	"cscc/internal/ir"
	"cscc/internal/parser"
	"cscc/internal/sccp"
	"cscc/internal/semantic"
)

const PROMPT = ">> "

// Start reads one complete function declaration per line from in and runs
// it through the whole front end, printing the IR sccp settled on. It
// returns when in reaches EOF.
func Start(in io.Reader) {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Print(PROMPT)
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		prog, err := parser.ParseSource("<repl>", line)
		if err != nil {
			printErr(line, err)
			continue
		}

		funcs, err := semantic.NewAnalyzer().Analyze(prog)
		if err != nil {
			printErr(line, err)
			continue
		}

		module := ir.Build(prog, funcs)
		for _, fn := range module.Functions {
			sccp.Run(fn)
			fmt.Println(ir.Print(fn))
		}
	}
}

func printErr(src string, err error) {
	ce, ok := err.(*errors.CompilerError)
	if !ok {
		fmt.Printf("error: %s\n", err)
		return
	}
	fmt.Print(errors.NewErrorReporter("<repl>", src).FormatError(*ce))
}
