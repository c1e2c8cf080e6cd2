// Package ast defines the single authoritative intermediate representation
// both DSL surface syntaxes (block-declarative and chain-functional) parse
// into (§4.D). No secondary syntax survives past the parser: the compiler
// only ever sees these node types.
package ast

import "github.com/resonance-lang/resonance/internal/dsl/token"

// Program is the root of a parsed DSL source file.
type Program struct {
	Tempo  *TempoDecl
	Tracks []*TrackDecl
	Macros []*MacroDecl
	Layers []*LayerDecl
	// Mappings declared at top level (not inside a track/section/layer body)
	// are the "base mappings" of §3's Compiled Bundle.
	Mappings []*MappingDecl
}

// TempoDecl is `tempo <number>`.
type TempoDecl struct {
	BPM  float64
	Span token.Span
}

// TrackDecl is a `track <ident> { ... }` (or its chain-functional
// equivalent, folded to the same shape by the parser).
type TrackDecl struct {
	Name       string
	Instrument InstrumentDecl
	Sections   []*SectionDecl
	Mappings   []*MappingDecl // mappings declared inside the track body
	Humanize   float64
	Span       token.Span
}

// InstrumentDecl is one of `kit: <ident>`, `bass`, `poly`, `pluck`, `noise`.
type InstrumentDecl struct {
	Kind    string // "kit", "bass", "poly", "pluck", "noise"
	KitName string // only set when Kind == "kit"
	Span    token.Span
}

// SectionDecl is `section <ident> [<n> bars] { pattern_line+ }`.
type SectionDecl struct {
	Name             string
	LengthBars       int
	Patterns         []*PatternLine
	MappingOverrides []*MappingDecl
	Span             token.Span
}

// StepKind is a closed variant of what a single grid cell can mean.
type StepKind int

const (
	StepRest StepKind = iota
	StepHit
	StepHalf
	StepPitch
)

// Step is one cell of a pattern line's step array.
type Step struct {
	Kind  StepKind
	Pitch string // set when Kind == StepPitch
	Span  token.Span
}

// PatternLine is `<ident> : [step_cell+] (vel [number|. ...])?`.
type PatternLine struct {
	Target       string // instrument-specific target: kit slot name or "note"
	Steps        []Step
	Velocities   []*float64 // nil entry = "." (preserve previous/default)
	Span         token.Span
}

// MacroDecl is `macro <ident> = <number>`.
type MacroDecl struct {
	Name  string
	Value float64
	Span  token.Span
}

// CurveKind mirrors resonance.Curve at the AST level so the parser package
// need not import the root package (kept dependency-light, like the
// teacher's compiler package depending only on sointu, never the reverse).
type CurveKind int

const (
	CurveLinear CurveKind = iota
	CurveLog
	CurveExp
	CurveSmoothstep
)

// MappingDecl is `map <ident> -> <track>.<param> : <lo>..<hi> [curve]`.
type MappingDecl struct {
	MacroName    string
	TargetTrack  string // "" means process-wide target
	TargetParam  string
	Low, High    float64
	Curve        CurveKind
	Span         token.Span
}

// LayerDecl is `layer <ident> { map_decl* }`.
type LayerDecl struct {
	Name     string
	Mappings []*MappingDecl
	Enabled  bool
	Span     token.Span
}
