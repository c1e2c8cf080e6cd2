// Package lexer implements component C: tokenizing Resonance DSL source
// into a stream of token.Token with line/column spans (§4.C).
package lexer

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"

	"github.com/resonance-lang/resonance/internal/dsl/token"
)

// Error is a single lex-time failure with its span, matching the
// CompileError taxonomy's LexError kind (§7).
type Error struct {
	Message string
	Span    token.Span
}

func (e *Error) Error() string { return e.Message }

// Lexer scans DSL source text into tokens one at a time via Next.
type Lexer struct {
	src        []rune
	pos        int
	line, col  int
	errs       []Error
}

// New creates a Lexer over src. Source is first width-normalized (fullwidth
// digits/letters and smart quotes collapse to their ASCII forms) so text
// pasted from a phone note or a chat client still lexes; this is the one
// place golang.org/x/text/width earns its keep in a text-only DSL.
func New(src string) *Lexer {
	normalized := width.Narrow.String(src)
	normalized = strings.NewReplacer(
		"“", "\"", "”", "\"",
		"‘", "'", "’", "'",
	).Replace(normalized)
	return &Lexer{src: []rune(normalized), line: 1, col: 1}
}

// Errors returns the lex errors accumulated so far.
func (l *Lexer) Errors() []Error { return l.errs }

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) makeSpan(startLine, startCol, length int) token.Span {
	return token.Span{Line: startLine, Col: startCol, Len: length}
}

// Next returns the next token in the stream. Once EOF has been returned,
// subsequent calls keep returning EOF.
func (l *Lexer) Next() token.Token {
	l.skipSpaceAndComments()
	startLine, startCol := l.line, l.col

	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Span: l.makeSpan(startLine, startCol, 0)}
	}

	r := l.peek()

	switch {
	case r == '\n':
		l.advance()
		return token.Token{Kind: token.Newline, Literal: "\n", Span: l.makeSpan(startLine, startCol, 1)}
	case r == '{':
		l.advance()
		return token.Token{Kind: token.LBrace, Literal: "{", Span: l.makeSpan(startLine, startCol, 1)}
	case r == '}':
		l.advance()
		return token.Token{Kind: token.RBrace, Literal: "}", Span: l.makeSpan(startLine, startCol, 1)}
	case r == '[':
		l.advance()
		return token.Token{Kind: token.LBracket, Literal: "[", Span: l.makeSpan(startLine, startCol, 1)}
	case r == ']':
		l.advance()
		return token.Token{Kind: token.RBracket, Literal: "]", Span: l.makeSpan(startLine, startCol, 1)}
	case r == ':':
		l.advance()
		return token.Token{Kind: token.Colon, Literal: ":", Span: l.makeSpan(startLine, startCol, 1)}
	case r == '=':
		l.advance()
		return token.Token{Kind: token.Assign, Literal: "=", Span: l.makeSpan(startLine, startCol, 1)}
	case r == '-' && l.peekAt(1) == '>':
		l.advance()
		l.advance()
		return token.Token{Kind: token.Arrow, Literal: "->", Span: l.makeSpan(startLine, startCol, 2)}
	case r == '|' && l.peekAt(1) == '>':
		l.advance()
		l.advance()
		return token.Token{Kind: token.Pipe, Literal: "|>", Span: l.makeSpan(startLine, startCol, 2)}
	case r == '.' && l.peekAt(1) == '.':
		l.advance()
		l.advance()
		return token.Token{Kind: token.DotDot, Literal: "..", Span: l.makeSpan(startLine, startCol, 2)}
	case r == '.' && l.pos > 0 && isIdentTail(l.src[l.pos-1]) && isIdentStart(l.peekAt(1)):
		// A dot wedged directly between two identifier characters (no
		// surrounding space) qualifies a mapping target, e.g. "d.kick_gain".
		// A dot used as a pattern-grid rest cell is always set off by
		// whitespace or brackets, so this never misreads a step array.
		l.advance()
		return token.Token{Kind: token.Dot, Literal: ".", Span: l.makeSpan(startLine, startCol, 1)}
	case r == '.' && !unicode.IsDigit(l.peekAt(1)):
		l.advance()
		return token.Token{Kind: token.StepCell, Literal: ".", Span: l.makeSpan(startLine, startCol, 1)}
	case r == 'X' && !isIdentTail(l.peekAt(1)):
		l.advance()
		return token.Token{Kind: token.StepCell, Literal: "X", Span: l.makeSpan(startLine, startCol, 1)}
	case r == 'x' && !isIdentTail(l.peekAt(1)):
		l.advance()
		return token.Token{Kind: token.StepCell, Literal: "x", Span: l.makeSpan(startLine, startCol, 1)}
	case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(l.peekAt(1))):
		return l.lexNumber(startLine, startCol)
	case unicode.IsLetter(r) || r == '_':
		return l.lexWord(startLine, startCol)
	default:
		l.advance()
		err := Error{Message: "unexpected character '" + string(r) + "'", Span: l.makeSpan(startLine, startCol, 1)}
		l.errs = append(l.errs, err)
		return token.Token{Kind: token.Illegal, Literal: string(r), Span: l.makeSpan(startLine, startCol, 1)}
	}
}

func isIdentTail(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		r := l.peek()
		if r == ' ' || r == '\t' || r == '\r' {
			l.advance()
			continue
		}
		if r == '/' && l.peekAt(1) == '/' {
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
			continue
		}
		break
	}
}

func (l *Lexer) lexNumber(startLine, startCol int) token.Token {
	start := l.pos
	for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && unicode.IsDigit(l.peekAt(1)) {
		l.advance()
		for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}
	lit := string(l.src[start:l.pos])
	return token.Token{Kind: token.Number, Literal: lit, Span: l.makeSpan(startLine, startCol, l.pos-start)}
}

func (l *Lexer) lexWord(startLine, startCol int) token.Token {
	start := l.pos
	for l.pos < len(l.src) && isIdentTail(l.peek()) {
		l.advance()
	}
	// '#' is not an identifier character, so a sharp ("F#3", "F#-1") is
	// taken here when the word so far is a single note letter.
	if c := unicode.ToUpper(l.src[start]); l.pos-start == 1 && c >= 'A' && c <= 'G' && l.peek() == '#' &&
		(unicode.IsDigit(l.peekAt(1)) || (l.peekAt(1) == '-' && unicode.IsDigit(l.peekAt(2)))) {
		l.advance()
		for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}
	// A pitch literal may carry a trailing accidental+octave already
	// consumed above (Eb3), or a bare accidental with no digit yet
	// captured if the octave was negative, e.g. "C-1" (rare sub-audio
	// octave). Handle the "-<digits>" suffix explicitly.
	if l.peek() == '-' && unicode.IsDigit(l.peekAt(1)) {
		l.advance()
		for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}
	lit := string(l.src[start:l.pos])
	span := l.makeSpan(startLine, startCol, l.pos-start)

	if isPitchLiteral(lit) {
		return token.Token{Kind: token.PitchLiteral, Literal: lit, Span: span}
	}
	if kw, ok := token.Lookup(lit); ok {
		return token.Token{Kind: kw, Literal: lit, Span: span}
	}
	return token.Token{Kind: token.Ident, Literal: lit, Span: span}
}

// isPitchLiteral reports whether lit matches [A-Ga-g](#|b)?-?[0-9]+, the
// pitch-name grammar of §4.C (e.g. "C2", "Eb3", "F#-1").
func isPitchLiteral(lit string) bool {
	r := []rune(lit)
	if len(r) < 2 {
		return false
	}
	i := 0
	c := unicode.ToUpper(r[i])
	if c < 'A' || c > 'G' {
		return false
	}
	i++
	if i < len(r) && (r[i] == '#' || r[i] == 'b') {
		i++
	}
	if i < len(r) && r[i] == '-' {
		i++
	}
	if i >= len(r) {
		return false
	}
	for ; i < len(r); i++ {
		if !unicode.IsDigit(r[i]) {
			return false
		}
	}
	return true
}

// Tokenize is a convenience wrapper that runs the Lexer to EOF and returns
// the full token slice plus any lex errors.
func Tokenize(src string) ([]token.Token, []Error) {
	l := New(src)
	var toks []token.Token
	for {
		tk := l.Next()
		toks = append(toks, tk)
		if tk.Kind == token.EOF {
			break
		}
	}
	return toks, l.Errors()
}
