package compiler

import (
	"fmt"
	"strings"
)

// SyntaxError reports input that no grammar alternative accepts.
type SyntaxError struct {
	Line    int
	Col     int
	Offset  int
	Msg     string
	Snippet string // the offending source line, trimmed
}

func (e *SyntaxError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("syntax error at line %d, col %d: %s", e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("syntax error at line %d, col %d: %s\n  |> %s", e.Line, e.Col, e.Msg, e.Snippet)
}

// ReconstructionError reports a parse-tree shape the AST builder has no rule for.
type ReconstructionError struct {
	Rule     string // the grammar rule being rebuilt
	Fragment string // source text covered by the offending node
	Line     int
	Msg      string
}

func (e *ReconstructionError) Error() string {
	return fmt.Sprintf("cannot rebuild %s at line %d: %s\n  |> %s", e.Rule, e.Line, e.Msg, e.Fragment)
}

// CodegenError reports an AST node the generator cannot render.
type CodegenError struct {
	Line int
	Msg  string
}

func (e *CodegenError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("codegen error at line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("codegen error: %s", e.Msg)
}

// sourceLine returns line n (1-based) of src with surrounding space trimmed.
func sourceLine(src string, n int) string {
	lines := strings.Split(src, "\n")
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[n-1])
}

func newSyntaxError(src string, tok Token, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Line:    tok.Line,
		Col:     tok.Col,
		Offset:  tok.Offset,
		Msg:     fmt.Sprintf(format, args...),
		Snippet: sourceLine(src, tok.Line),
	}
}
