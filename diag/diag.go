// Package diag formats (line, col, message) diagnostics with a
// source-line caret pointer, and defines the small error-kind taxonomy
// shared by the lexer, parser, evaluator, and VM.
//
// Rendering is a header line, the offending source line, and a caret
// positioned under the reported column.
package diag

import (
	"fmt"
	"strings"

	"github.com/skx/raf/internal/reflines"
)

// Kind classifies a diagnostic for callers that want to react
// differently to lex/parse/runtime failures (e.g. picking an exit
// code, or asserting on the kind in tests).
type Kind int

const (
	// LexError reports a malformed token: an unterminated string or
	// an unrecognized character.
	LexError Kind = iota
	// ParseError reports an unexpected token, including a missing
	// separator or an unmatched brace/bracket/paren.
	ParseError
	// RuntimeError reports any failure raised during evaluation,
	// whether by the tree-walker or the VM.
	RuntimeError
)

func (k Kind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case ParseError:
		return "parse error"
	case RuntimeError:
		return "runtime error"
	default:
		return "error"
	}
}

// Error is a positioned diagnostic: a Kind, the (line, col) it is
// anchored at, the raw message, and an optional stack-trace block.
// The snippet-and-caret rendering is produced separately by Format,
// which needs the source text.
type Error struct {
	Kind    Kind
	Line    int
	Col     int
	Message string // the raw, unformatted message
	Trace   string // optional "Stack trace (most recent call last):" block
}

// Error implements the error interface, returning the raw message
// followed by the stack-trace block when one is attached. It carries
// no location header or source snippet; Format renders those.
func (e *Error) Error() string {
	return render(e.Message, e.Trace)
}

// New builds an Error of the given Kind anchored at (line, col).
func New(kind Kind, line, col int, msg string) *Error {
	return &Error{Kind: kind, Line: line, Col: col, Message: msg}
}

// WithTrace returns a copy of e with the given stack-trace block
// attached (used by the tree-walker to append call-stack frames).
func (e *Error) WithTrace(trace string) *Error {
	cp := *e
	cp.Trace = trace
	return &cp
}

// Format renders a diagnostic message of the shape:
//
//	[line L, col C] MSG
//	    <offending source line>
//	    <caret positioned under column C>
//
// If (line, col) is out of range for src, the snippet and caret are
// omitted but the message is still returned.
func Format(src string, line, col int, msg string) string {
	header := fmt.Sprintf("[line %d, col %d] %s", line, col, msg)

	snippet, ok := reflines.Line(src, line)
	if !ok {
		return header
	}

	return header + "\n    " + snippet + "\n    " + reflines.Caret(col)
}

// render joins a message with an optional trace block.
func render(msg, trace string) string {
	if trace == "" {
		return msg
	}
	return msg + "\n" + trace
}

// FormatStackTrace renders call frames as:
//
//	Stack trace (most recent call last):
//	  at NAME (line L, col C)
//
// Frames are given oldest-first (call order) and rendered
// most-recent-first.
func FormatStackTrace(frames []Frame) string {
	if len(frames) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Stack trace (most recent call last):")
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		fmt.Fprintf(&b, "\n  at %s (line %d, col %d)", f.Name, f.Line, f.Col)
	}
	return b.String()
}

// Frame is one entry in a call-stack trace: the callee's name and the
// call site's source location.
type Frame struct {
	Name string
	Line int
	Col  int
}
