// Package token defines the lexical tokens of the Resonance DSL (§4.C).
package token

// Kind is a closed enumeration of the token vocabulary. New syntax means a
// new Kind here plus a lexer case, never an open-ended token type.
type Kind int

const (
	EOF Kind = iota
	Newline

	Ident
	Number
	PitchLiteral // C2, Eb3, ...
	StepCell     // X, x, .
	String

	// Keywords
	KwTempo
	KwTrack
	KwSection
	KwKit
	KwBass
	KwPoly
	KwPluck
	KwNoise
	KwMacro
	KwMap
	KwLayer
	KwVel
	KwBars
	KwHumanize
	KwLinear
	KwLog
	KwExp
	KwSmoothstep

	// Punctuation
	LBrace   // {
	RBrace   // }
	LBracket // [
	RBracket // ]
	Colon    // :
	Arrow    // ->
	Pipe     // |>
	Assign   // =
	DotDot   // ..
	Dot      // .

	Illegal
)

var keywords = map[string]Kind{
	"tempo":      KwTempo,
	"track":      KwTrack,
	"section":    KwSection,
	"kit":        KwKit,
	"bass":       KwBass,
	"poly":       KwPoly,
	"pluck":      KwPluck,
	"noise":      KwNoise,
	"macro":      KwMacro,
	"map":        KwMap,
	"layer":      KwLayer,
	"vel":        KwVel,
	"bars":       KwBars,
	"humanize":   KwHumanize,
	"linear":     KwLinear,
	"log":        KwLog,
	"exp":        KwExp,
	"smoothstep": KwSmoothstep,
}

// Lookup returns the keyword Kind for s, or (Ident, false) if s is not a
// keyword.
func Lookup(s string) (Kind, bool) {
	k, ok := keywords[s]
	return k, ok
}

// Span is the source-location metadata every token carries: a start line
// and column (1-indexed, matching how editors report position to a
// performer) and a byte length.
type Span struct {
	Line int
	Col  int
	Len  int
}

// Token is one lexed unit: its Kind, the literal text it came from, and its
// Span for error reporting.
type Token struct {
	Kind    Kind
	Literal string
	Span    Span
}

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Newline:
		return "newline"
	case Ident:
		return "identifier"
	case Number:
		return "number"
	case PitchLiteral:
		return "pitch literal"
	case StepCell:
		return "step cell"
	case String:
		return "string"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case Colon:
		return "':'"
	case Arrow:
		return "'->'"
	case Pipe:
		return "'|>'"
	case Assign:
		return "'='"
	case DotDot:
		return "'..'"
	case Dot:
		return "'.'"
	case Illegal:
		return "illegal token"
	default:
		for text, kw := range keywords {
			if kw == k {
				return "'" + text + "'"
			}
		}
		return "token"
	}
}
