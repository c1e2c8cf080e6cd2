// Package parser implements component D: a recursive-descent parser that
// folds both DSL surface syntaxes — block-declarative (`track X { ... }`)
// and chain-functional (`track X = kit: default |> section s [...] {...}`)
// — onto the same ast.Program shape via shared per-declaration constructors
// (parseInstrumentDecl, parseSectionDecl, parseMappingDecl, ...), so the two
// syntaxes are provably identical ASTs rather than independently built ones
// that merely happen to match (§4.D, tested in parser_test.go).
package parser

import (
	"strconv"

	"github.com/resonance-lang/resonance/internal/diag"
	"github.com/resonance-lang/resonance/internal/dsl/ast"
	"github.com/resonance-lang/resonance/internal/dsl/lexer"
	"github.com/resonance-lang/resonance/internal/dsl/token"
)

// Parser holds the token stream and accumulates errors so a single Parse
// call can report more than one mistake, recovering to the next top-level
// keyword after each (§4.D).
type Parser struct {
	toks []token.Token
	pos  int
	errs []*diag.CompileError
}

// Parse lexes and parses src, returning the Program and every CompileError
// collected along the way (lex errors first, then parse errors). A non-nil
// Program is still returned even when errors occurred, containing whatever
// declarations were recovered, so the editor can keep rendering something.
func Parse(src string) (*ast.Program, []*diag.CompileError) {
	toks, lexErrs := lexer.Tokenize(src)
	p := &Parser{toks: toks}
	for _, le := range lexErrs {
		p.errs = append(p.errs, diag.New(diag.LexError, le.Span, "%s", le.Message))
	}
	prog := p.parseProgram()
	return prog, p.errs
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// skipNewlines consumes any run of Newline tokens; newlines are only
// significant as a statement separator inside pattern bodies, never as
// syntax in their own right.
func (p *Parser) skipNewlines() {
	for p.at(token.Newline) {
		p.advance()
	}
}

func (p *Parser) errorf(kind diag.Kind, format string, args ...any) {
	p.errs = append(p.errs, diag.New(kind, p.cur().Span, format, args...))
}

func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.errorf(diag.ParseError, "expected %s, found %s %q", k, p.cur().Kind, p.cur().Literal)
	return token.Token{}, false
}

// recoverToTopLevel advances past tokens until it finds the start of the
// next top-level declaration (or EOF), so one bad declaration doesn't stop
// the whole program from being collected (§4.D).
func (p *Parser) recoverToTopLevel() {
	for !p.at(token.EOF) {
		switch p.cur().Kind {
		case token.KwTempo, token.KwTrack, token.KwMacro, token.KwLayer, token.KwMap:
			return
		}
		p.advance()
	}
}

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	p.skipNewlines()
	for !p.at(token.EOF) {
		switch p.cur().Kind {
		case token.KwTempo:
			prog.Tempo = p.parseTempoDecl()
		case token.KwTrack:
			if t := p.parseTrackDecl(); t != nil {
				prog.Tracks = append(prog.Tracks, t)
			}
		case token.KwMacro:
			if m := p.parseMacroDecl(); m != nil {
				prog.Macros = append(prog.Macros, m)
			}
		case token.KwLayer:
			if l := p.parseLayerDecl(); l != nil {
				prog.Layers = append(prog.Layers, l)
			}
		case token.KwMap:
			if m := p.parseMappingDecl(); m != nil {
				prog.Mappings = append(prog.Mappings, m)
			}
		case token.Newline:
			p.advance()
			continue
		default:
			p.errorf(diag.ParseError, "unexpected %s %q at top level", p.cur().Kind, p.cur().Literal)
			p.advance()
			p.recoverToTopLevel()
		}
		p.skipNewlines()
	}
	return prog
}

func (p *Parser) parseNumber() (float64, token.Span, bool) {
	tok, ok := p.expect(token.Number)
	if !ok {
		return 0, tok.Span, false
	}
	v, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.errs = append(p.errs, diag.New(diag.ParseError, tok.Span, "invalid number %q", tok.Literal))
		return 0, tok.Span, false
	}
	return v, tok.Span, true
}

func (p *Parser) parseIdent() (string, token.Span, bool) {
	tok, ok := p.expect(token.Ident)
	if !ok {
		return "", tok.Span, false
	}
	return tok.Literal, tok.Span, true
}

func (p *Parser) parseTempoDecl() *ast.TempoDecl {
	start := p.advance() // 'tempo'
	bpm, _, ok := p.parseNumber()
	if !ok {
		p.recoverToTopLevel()
		return &ast.TempoDecl{BPM: 120, Span: start.Span}
	}
	return &ast.TempoDecl{BPM: bpm, Span: start.Span}
}

func (p *Parser) parseMacroDecl() *ast.MacroDecl {
	start := p.advance() // 'macro'
	name, _, ok := p.parseIdent()
	if !ok {
		p.recoverToTopLevel()
		return nil
	}
	if _, ok := p.expect(token.Assign); !ok {
		p.recoverToTopLevel()
		return nil
	}
	v, _, ok := p.parseNumber()
	if !ok {
		p.recoverToTopLevel()
		return nil
	}
	return &ast.MacroDecl{Name: name, Value: v, Span: start.Span}
}

func (p *Parser) parseCurveKeyword() ast.CurveKind {
	switch p.cur().Kind {
	case token.KwLog:
		p.advance()
		return ast.CurveLog
	case token.KwExp:
		p.advance()
		return ast.CurveExp
	case token.KwSmoothstep:
		p.advance()
		return ast.CurveSmoothstep
	case token.KwLinear:
		p.advance()
		return ast.CurveLinear
	default:
		return ast.CurveLinear
	}
}

// parseMappingDecl parses `map <ident> -> [<track>.]<param> : <lo>..<hi> [curve]`.
// This single constructor is shared by top-level, section-body and
// layer-body mapping lines.
func (p *Parser) parseMappingDecl() *ast.MappingDecl {
	start := p.advance() // 'map'
	macroName, _, ok := p.parseIdent()
	if !ok {
		p.recoverToTopLevel()
		return nil
	}
	if _, ok := p.expect(token.Arrow); !ok {
		p.recoverToTopLevel()
		return nil
	}
	var firstIdent string
	if _, kw := token.Lookup(p.cur().Literal); kw && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.Dot {
		// A keyword such as "poly" may name the track of a qualified
		// target ("poly.filter").
		firstIdent = p.advance().Literal
	} else {
		firstIdent, _, ok = p.parseIdent()
		if !ok {
			p.recoverToTopLevel()
			return nil
		}
	}
	var trackName, paramName string
	if p.at(token.Dot) {
		p.advance()
		paramName, _, ok = p.parseIdent()
		if !ok {
			p.recoverToTopLevel()
			return nil
		}
		trackName = firstIdent
	} else {
		paramName = firstIdent
	}
	if _, ok := p.expect(token.Colon); !ok {
		p.recoverToTopLevel()
		return nil
	}
	lo, _, ok := p.parseNumber()
	if !ok {
		p.recoverToTopLevel()
		return nil
	}
	if _, ok := p.expect(token.DotDot); !ok {
		p.recoverToTopLevel()
		return nil
	}
	hi, _, ok := p.parseNumber()
	if !ok {
		p.recoverToTopLevel()
		return nil
	}
	curve := p.parseCurveKeyword()
	return &ast.MappingDecl{
		MacroName:   macroName,
		TargetTrack: trackName,
		TargetParam: paramName,
		Low:         lo,
		High:        hi,
		Curve:       curve,
		Span:        start.Span,
	}
}

func (p *Parser) parseLayerDecl() *ast.LayerDecl {
	start := p.advance() // 'layer'
	name, _, ok := p.parseIdent()
	if !ok {
		p.recoverToTopLevel()
		return nil
	}
	if _, ok := p.expect(token.LBrace); !ok {
		p.recoverToTopLevel()
		return nil
	}
	layer := &ast.LayerDecl{Name: name, Span: start.Span}
	p.skipNewlines()
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if p.at(token.KwMap) {
			if m := p.parseMappingDecl(); m != nil {
				layer.Mappings = append(layer.Mappings, m)
			}
		} else {
			p.errorf(diag.ParseError, "expected map declaration inside layer body, found %s", p.cur().Kind)
			p.advance()
		}
		p.skipNewlines()
	}
	p.expect(token.RBrace)
	return layer
}

// parseInstrumentDecl parses `("kit" ":" ident) | "bass" | "poly" | "pluck" | "noise"`.
// Shared by both surface syntaxes.
func (p *Parser) parseInstrumentDecl() ast.InstrumentDecl {
	switch p.cur().Kind {
	case token.KwKit:
		start := p.advance()
		p.expect(token.Colon)
		name, _, _ := p.parseIdent()
		return ast.InstrumentDecl{Kind: "kit", KitName: name, Span: start.Span}
	case token.KwBass:
		t := p.advance()
		return ast.InstrumentDecl{Kind: "bass", Span: t.Span}
	case token.KwPoly:
		t := p.advance()
		return ast.InstrumentDecl{Kind: "poly", Span: t.Span}
	case token.KwPluck:
		t := p.advance()
		return ast.InstrumentDecl{Kind: "pluck", Span: t.Span}
	case token.KwNoise:
		t := p.advance()
		return ast.InstrumentDecl{Kind: "noise", Span: t.Span}
	default:
		p.errorf(diag.ParseError, "expected instrument declaration (kit/bass/poly/pluck/noise), found %s", p.cur().Kind)
		return ast.InstrumentDecl{}
	}
}

func (p *Parser) parseStepArray() []ast.Step {
	p.expect(token.LBracket)
	var steps []ast.Step
	for !p.at(token.RBracket) && !p.at(token.EOF) {
		tok := p.cur()
		switch tok.Kind {
		case token.StepCell:
			switch tok.Literal {
			case "X":
				steps = append(steps, ast.Step{Kind: ast.StepHit, Span: tok.Span})
			case "x":
				steps = append(steps, ast.Step{Kind: ast.StepHalf, Span: tok.Span})
			case ".":
				steps = append(steps, ast.Step{Kind: ast.StepRest, Span: tok.Span})
			}
			p.advance()
		case token.PitchLiteral:
			steps = append(steps, ast.Step{Kind: ast.StepPitch, Pitch: tok.Literal, Span: tok.Span})
			p.advance()
		default:
			p.errorf(diag.ParseError, "expected step cell (X, x, . or a pitch), found %s %q", tok.Kind, tok.Literal)
			p.advance()
		}
	}
	p.expect(token.RBracket)
	return steps
}

func (p *Parser) parseVelArray() []*float64 {
	p.expect(token.LBracket)
	var vels []*float64
	for !p.at(token.RBracket) && !p.at(token.EOF) {
		if p.at(token.StepCell) && p.cur().Literal == "." {
			vels = append(vels, nil)
			p.advance()
			continue
		}
		v, _, ok := p.parseNumber()
		if !ok {
			p.advance()
			continue
		}
		val := v
		vels = append(vels, &val)
	}
	p.expect(token.RBracket)
	return vels
}

// parsePatternLine parses `ident ":" step_array ("vel" vel_array)?`.
func (p *Parser) parsePatternLine() *ast.PatternLine {
	name, span, ok := p.parseIdent()
	if !ok {
		return nil
	}
	if _, ok := p.expect(token.Colon); !ok {
		return nil
	}
	steps := p.parseStepArray()
	var vels []*float64
	if p.at(token.KwVel) {
		p.advance()
		vels = p.parseVelArray()
	}
	return &ast.PatternLine{Target: name, Steps: steps, Velocities: vels, Span: span}
}

// parseSectionDecl parses `"section" ident "[" number "bars" "]" "{" (pattern_line|mapping)+ "}"`.
// Shared by both surface syntaxes.
func (p *Parser) parseSectionDecl() *ast.SectionDecl {
	start := p.advance() // 'section'
	name, _, ok := p.parseIdent()
	if !ok {
		return nil
	}
	p.expect(token.LBracket)
	bars, _, _ := p.parseNumber()
	p.expect(token.KwBars)
	p.expect(token.RBracket)
	p.expect(token.LBrace)
	sec := &ast.SectionDecl{Name: name, LengthBars: int(bars), Span: start.Span}
	p.skipNewlines()
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		switch {
		case p.at(token.KwMap):
			if m := p.parseMappingDecl(); m != nil {
				sec.MappingOverrides = append(sec.MappingOverrides, m)
			}
		case p.at(token.Ident):
			if pl := p.parsePatternLine(); pl != nil {
				sec.Patterns = append(sec.Patterns, pl)
			}
		default:
			p.errorf(diag.ParseError, "expected pattern line or map declaration in section body, found %s", p.cur().Kind)
			p.advance()
		}
		p.skipNewlines()
	}
	p.expect(token.RBrace)
	return sec
}

// parseTrackDecl dispatches to block-declarative or chain-functional form
// based on whether the track name is followed by '{' or '='.
func (p *Parser) parseTrackDecl() *ast.TrackDecl {
	start := p.advance() // 'track'
	name, _, ok := p.parseIdent()
	if !ok {
		p.recoverToTopLevel()
		return nil
	}
	track := &ast.TrackDecl{Name: name, Span: start.Span}
	switch p.cur().Kind {
	case token.LBrace:
		p.advance()
		p.skipNewlines()
		track.Instrument = p.parseInstrumentDecl()
		p.skipNewlines()
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			switch p.cur().Kind {
			case token.KwSection:
				if s := p.parseSectionDecl(); s != nil {
					track.Sections = append(track.Sections, s)
				}
			case token.KwMap:
				if m := p.parseMappingDecl(); m != nil {
					track.Mappings = append(track.Mappings, m)
				}
			case token.KwHumanize:
				p.advance()
				v, _, _ := p.parseNumber()
				track.Humanize = v
			default:
				p.errorf(diag.ParseError, "expected section or map declaration in track body, found %s", p.cur().Kind)
				p.advance()
			}
			p.skipNewlines()
		}
		p.expect(token.RBrace)
	case token.Assign:
		p.advance()
		track.Instrument = p.parseInstrumentDecl()
		for p.at(token.Pipe) {
			p.advance()
			switch p.cur().Kind {
			case token.KwSection:
				if s := p.parseSectionDecl(); s != nil {
					track.Sections = append(track.Sections, s)
				}
			case token.KwMap:
				if m := p.parseMappingDecl(); m != nil {
					track.Mappings = append(track.Mappings, m)
				}
			case token.KwHumanize:
				p.advance()
				v, _, _ := p.parseNumber()
				track.Humanize = v
			default:
				p.errorf(diag.ParseError, "expected section or map declaration after '|>', found %s", p.cur().Kind)
				p.advance()
			}
		}
	default:
		p.errorf(diag.ParseError, "expected '{' or '=' after track name, found %s", p.cur().Kind)
		p.recoverToTopLevel()
		return nil
	}
	return track
}
