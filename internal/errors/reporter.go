// Package errors provides Rust/Clang-style structured compiler diagnostics
// for the lexer, parser, and semantic analyzer.
package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"cscc/internal/token"
)

// Level represents the severity of a diagnostic.
type Level string

const (
	Error   Level = "error"
	Warning Level = "warning"
	Note    Level = "note"
	Help    Level = "help"
)

// CompilerError is a structured diagnostic with an optional code and notes.
type CompilerError struct {
	Level    Level
	Code     string // e.g. E1001 (lexical), E2003 (syntax), E3002 (semantic)
	Message  string
	Position token.Position
	Length   int
	Notes    []string
	HelpText string
}

func (e *CompilerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s[%s]: %s (%s:%d:%d)", e.Level, e.Code, e.Message, e.Position.Filename, e.Position.Line, e.Position.Column)
	}
	return fmt.Sprintf("%s: %s (%s:%d:%d)", e.Level, e.Message, e.Position.Filename, e.Position.Line, e.Position.Column)
}

// ErrorReporter renders CompilerErrors against the source they came from.
type ErrorReporter struct {
	filename string
	lines    []string
}

func NewErrorReporter(filename, source string) *ErrorReporter {
	return &ErrorReporter{filename: filename, lines: strings.Split(source, "\n")}
}

// FormatError renders a single caret-style diagnostic.
func (er *ErrorReporter) FormatError(err CompilerError) string {
	var result strings.Builder

	levelColor := er.getLevelColor(err.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if err.Code != "" {
		result.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(err.Level)), err.Code, err.Message))
	} else {
		result.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(err.Level)), err.Message))
	}

	width := er.lineNumberWidth(err.Position.Line)
	indent := strings.Repeat(" ", width)

	result.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n", indent, dim("-->"), er.filename, err.Position.Line, err.Position.Column))
	result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

	if err.Position.Line > 1 && err.Position.Line-1 <= len(er.lines) {
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			dim(fmt.Sprintf("%*d", width, err.Position.Line-1)), dim("│"), er.lines[err.Position.Line-2]))
	}

	if err.Position.Line > 0 && err.Position.Line <= len(er.lines) {
		line := er.lines[err.Position.Line-1]
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			bold(fmt.Sprintf("%*d", width, err.Position.Line)), dim("│"), line))
		result.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), er.marker(err.Position.Column, err.Length, err.Level)))
	}

	if err.Position.Line < len(er.lines) {
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			dim(fmt.Sprintf("%*d", width, err.Position.Line+1)), dim("│"), er.lines[err.Position.Line]))
	}

	for _, note := range err.Notes {
		noteColor := color.New(color.FgBlue).SprintFunc()
		result.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), noteColor("note:"), note))
	}

	if err.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		result.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), helpColor("help:"), err.HelpText))
	}

	result.WriteString("\n")
	return result.String()
}

func (er *ErrorReporter) getLevelColor(level Level) func(...interface{}) string {
	switch level {
	case Error:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case Help:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

func (er *ErrorReporter) marker(column, length int, level Level) string {
	if length <= 0 {
		length = 1
	}
	spaces := strings.Repeat(" ", max(0, column-1))

	markerColor := color.New(color.FgRed, color.Bold).SprintFunc()
	if level == Warning {
		markerColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	return spaces + markerColor(strings.Repeat("^", length))
}

func (er *ErrorReporter) lineNumberWidth(line int) int {
	width := len(fmt.Sprintf("%d", line))
	if width < 3 {
		width = 3
	}
	return width
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
