package parser

import (
	"reflect"
	"testing"

	"github.com/resonance-lang/resonance/internal/dsl/ast"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, errs := Parse(src)
	for _, e := range errs {
		t.Fatalf("unexpected parse error: %v", e)
	}
	return prog
}

func TestParseTempoDecl(t *testing.T) {
	prog := mustParse(t, "tempo 120\n")
	if prog.Tempo == nil || prog.Tempo.BPM != 120 {
		t.Fatalf("expected tempo 120, got %+v", prog.Tempo)
	}
}

func TestParseBlockTrackWithSection(t *testing.T) {
	src := `
track d {
  kit: default
  section groove [1 bars] {
    kick: [X . . x]
  }
}
`
	prog := mustParse(t, src)
	if len(prog.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(prog.Tracks))
	}
	tr := prog.Tracks[0]
	if tr.Name != "d" || tr.Instrument.Kind != "kit" || tr.Instrument.KitName != "default" {
		t.Fatalf("unexpected instrument decl: %+v", tr.Instrument)
	}
	if len(tr.Sections) != 1 || tr.Sections[0].Name != "groove" || tr.Sections[0].LengthBars != 1 {
		t.Fatalf("unexpected sections: %+v", tr.Sections)
	}
	pat := tr.Sections[0].Patterns
	if len(pat) != 1 || pat[0].Target != "kick" || len(pat[0].Steps) != 4 {
		t.Fatalf("unexpected patterns: %+v", pat)
	}
	wantKinds := []ast.StepKind{ast.StepHit, ast.StepRest, ast.StepRest, ast.StepHalf}
	for i, s := range pat[0].Steps {
		if s.Kind != wantKinds[i] {
			t.Fatalf("step %d: got %v want %v", i, s.Kind, wantKinds[i])
		}
	}
}

// TestBlockAndChainSyntaxYieldIdenticalAST is the §8 testable property:
// the two surface syntaxes must fold to the same AST shape.
func TestBlockAndChainSyntaxYieldIdenticalAST(t *testing.T) {
	block := `
track d {
  kit: default
  section groove [1 bars] {
    kick: [X . . x]
    snare: [. . X .] vel [1.0 . 0.5 .]
  }
}
`
	chain := `
track d = kit: default |> section groove [1 bars] {
    kick: [X . . x]
    snare: [. . X .] vel [1.0 . 0.5 .]
}
`
	blockProg := mustParse(t, block)
	chainProg := mustParse(t, chain)

	normalize := func(p *ast.Program) []*ast.TrackDecl {
		for _, tr := range p.Tracks {
			tr.Span = ast.TrackDecl{}.Span
			tr.Instrument.Span = ast.InstrumentDecl{}.Span
			for _, s := range tr.Sections {
				s.Span = ast.SectionDecl{}.Span
				for _, pl := range s.Patterns {
					pl.Span = ast.PatternLine{}.Span
					for i := range pl.Steps {
						pl.Steps[i].Span = ast.Step{}.Span
					}
				}
			}
		}
		return p.Tracks
	}

	if !reflect.DeepEqual(normalize(blockProg), normalize(chainProg)) {
		t.Fatalf("block and chain syntax produced different ASTs:\nblock=%+v\nchain=%+v", blockProg.Tracks, chainProg.Tracks)
	}
}

func TestParseMacroAndMapping(t *testing.T) {
	src := `
macro energy = 0.5
map energy -> poly.filter : 200..8000 log
`
	prog := mustParse(t, src)
	if len(prog.Macros) != 1 || prog.Macros[0].Name != "energy" || prog.Macros[0].Value != 0.5 {
		t.Fatalf("unexpected macros: %+v", prog.Macros)
	}
	if len(prog.Mappings) != 1 {
		t.Fatalf("expected 1 mapping, got %d", len(prog.Mappings))
	}
	m := prog.Mappings[0]
	if m.MacroName != "energy" || m.TargetTrack != "poly" || m.TargetParam != "filter" {
		t.Fatalf("unexpected mapping target: %+v", m)
	}
	if m.Low != 200 || m.High != 8000 || m.Curve != ast.CurveLog {
		t.Fatalf("unexpected mapping range/curve: %+v", m)
	}
}

func TestParseLayerDecl(t *testing.T) {
	src := `
layer intense {
  map energy -> d.kick_gain : 0.0..0.3
}
`
	prog := mustParse(t, src)
	if len(prog.Layers) != 1 || prog.Layers[0].Name != "intense" {
		t.Fatalf("unexpected layers: %+v", prog.Layers)
	}
	if len(prog.Layers[0].Mappings) != 1 || prog.Layers[0].Mappings[0].TargetTrack != "d" {
		t.Fatalf("unexpected layer mapping: %+v", prog.Layers[0].Mappings)
	}
}

func TestParsePitchLiteralSteps(t *testing.T) {
	src := `
track b {
  poly
  section verse [2 bars] {
    note: [C2 . Eb3 F#-1]
  }
}
`
	prog := mustParse(t, src)
	steps := prog.Tracks[0].Sections[0].Patterns[0].Steps
	if len(steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(steps))
	}
	if steps[0].Kind != ast.StepPitch || steps[0].Pitch != "C2" {
		t.Fatalf("unexpected step 0: %+v", steps[0])
	}
	if steps[3].Kind != ast.StepPitch || steps[3].Pitch != "F#-1" {
		t.Fatalf("unexpected step 3: %+v", steps[3])
	}
}

func TestParseErrorsRecoverToNextTopLevelDecl(t *testing.T) {
	src := `
track d {
  kit: default
  section groove [1 bars] {
    kick: [X @ . x]
  }
}

macro energy = 0.5
`
	prog, errs := Parse(src)
	if len(errs) == 0 {
		t.Fatalf("expected at least one error for illegal '@' cell")
	}
	if len(prog.Macros) != 1 || prog.Macros[0].Name != "energy" {
		t.Fatalf("expected recovery to still parse trailing macro decl, got %+v", prog.Macros)
	}
}

func TestSectionOverrideMappingParsedSeparatelyFromBaseMapping(t *testing.T) {
	src := `
map energy -> d.kick_gain : 0.0..0.2

track d {
  kit: default
  section drop [1 bars] {
    kick: [X . . .]
    map energy -> d.kick_gain : 0.0..0.6
  }
}
`
	prog := mustParse(t, src)
	if len(prog.Mappings) != 1 {
		t.Fatalf("expected 1 base mapping, got %d", len(prog.Mappings))
	}
	sec := prog.Tracks[0].Sections[0]
	if len(sec.MappingOverrides) != 1 || sec.MappingOverrides[0].High != 0.6 {
		t.Fatalf("expected 1 section override with high=0.6, got %+v", sec.MappingOverrides)
	}
}
