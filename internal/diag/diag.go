// Package diag defines the CompileError taxonomy of §7: every recoverable
// compile-time failure carries its Kind, a human message and the span(s) it
// points at, and never aborts the program — it is collected and surfaced to
// the editor (or, headlessly, printed to stderr by the CLI).
package diag

import (
	"fmt"
	"strings"

	"github.com/resonance-lang/resonance/internal/dsl/token"
)

// Kind is the closed CompileError variant.
type Kind int

const (
	LexError Kind = iota
	ParseError
	ResolutionError
	SemanticError
)

func (k Kind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case ParseError:
		return "parse error"
	case ResolutionError:
		return "resolution error"
	case SemanticError:
		return "semantic error"
	default:
		return "compile error"
	}
}

// CompileError is one recoverable failure produced by the lexer, parser or
// compiler. It is never fatal: the pipeline keeps going to collect as many
// as it can in one pass (§4.D "recovers to the next top-level keyword").
type CompileError struct {
	Kind    Kind
	Message string
	Spans   []token.Span
}

func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if len(e.Spans) > 0 {
		s := e.Spans[0]
		fmt.Fprintf(&b, " at %d:%d", s.Line, s.Col)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// New constructs a CompileError with a single span.
func New(kind Kind, span token.Span, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Message: fmt.Sprintf(format, args...), Spans: []token.Span{span}}
}
