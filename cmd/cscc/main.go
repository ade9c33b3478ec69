// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"cscc/internal/errors"
	"cscc/internal/ir"
	"cscc/internal/parser"
	"cscc/internal/sccp"
	"cscc/internal/semantic"
)

func main() {
	commonlog.Configure(1, nil)

	if len(os.Args) < 2 {
		fmt.Println("Usage: cscc <file.c>")
		os.Exit(1)
	}

	path := os.Args[1]
	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read %s: %s", path, err)
		os.Exit(1)
	}

	prog, err := parser.ParseSource(path, string(source))
	if err != nil {
		reportFrontEndError(path, string(source), err)
		os.Exit(1)
	}
	log.Printf("parsed %s: %d function(s)", path, len(prog.Functions))

	funcs, err := semantic.NewAnalyzer().Analyze(prog)
	if err != nil {
		reportFrontEndError(path, string(source), err)
		os.Exit(1)
	}
	log.Printf("%s is well-typed", path)

	module := ir.Build(prog, funcs)
	for _, fn := range module.Functions {
		before := ir.Print(fn)
		changed := sccp.Run(fn)

		fmt.Printf("; ---- %s (before) ----\n%s\n", fn.Name, before)
		if changed {
			fmt.Printf("; ---- %s (after sccp) ----\n%s\n", fn.Name, ir.Print(fn))
		} else {
			fmt.Printf("; sccp made no changes to %s\n\n", fn.Name)
		}
		log.Printf("sccp finished on %s: changed=%v", fn.Name, changed)
	}

	color.Green("compiled %s", path)
}

// reportFrontEndError renders a caret-style diagnostic for any error
// surfaced by the lexer, parser, or semantic analyzer.
func reportFrontEndError(filename, source string, err error) {
	ce, ok := err.(*errors.CompilerError)
	if !ok {
		color.Red("error: %s", err)
		return
	}
	reporter := errors.NewErrorReporter(filename, source)
	fmt.Print(reporter.FormatError(*ce))
}
