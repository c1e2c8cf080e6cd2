package compiler

import (
	"github.com/resonance-lang/resonance/internal/diag"
	"github.com/resonance-lang/resonance/internal/dsl/ast"
	"github.com/resonance-lang/resonance/internal/dsl/token"
)

// trackSymbol is one entry of the resolution pass's symbol table: a track's
// stable id (assigned in declaration order, mirroring the teacher's
// declaration-order voice numbering) alongside the declaration it came
// from.
type trackSymbol struct {
	id   int
	name string
	decl *ast.TrackDecl
}

// resolveTracks assigns stable ids to tracks in declaration order and
// rejects duplicate names.
func resolveTracks(prog *ast.Program) ([]trackSymbol, map[string]int, []*diag.CompileError) {
	var errs []*diag.CompileError
	byName := make(map[string]int, len(prog.Tracks))
	syms := make([]trackSymbol, 0, len(prog.Tracks))
	for i, td := range prog.Tracks {
		if _, dup := byName[td.Name]; dup {
			errs = append(errs, diag.New(diag.ResolutionError, td.Span, "duplicate track name %q", td.Name))
			continue
		}
		byName[td.Name] = i
		syms = append(syms, trackSymbol{id: i, name: td.Name, decl: td})
	}
	return syms, byName, errs
}

// resolveMacros collects declared macros in declaration order, rejecting
// duplicate names. The MaxMacros cap (§3) is not checked here; Compile
// enforces it through Bundle.Validate.
func resolveMacros(prog *ast.Program) ([]macroInfo, []*diag.CompileError) {
	var errs []*diag.CompileError
	seen := make(map[string]bool, len(prog.Macros))
	out := make([]macroInfo, 0, len(prog.Macros))
	for _, md := range prog.Macros {
		if seen[md.Name] {
			errs = append(errs, diag.New(diag.ResolutionError, md.Span, "duplicate macro name %q", md.Name))
			continue
		}
		seen[md.Name] = true
		out = append(out, macroInfo{name: md.Name, value: md.Value})
	}
	return out, errs
}

type macroInfo struct {
	name  string
	value float64
}

// resolveTargetTrack resolves a mapping's optional track qualifier to a
// track id, returning (nil, nil) for a process-wide target (no qualifier).
func resolveTargetTrack(byName map[string]int, m *ast.MappingDecl) (*int, *diag.CompileError) {
	if m.TargetTrack == "" {
		return nil, nil
	}
	id, ok := byName[m.TargetTrack]
	if !ok {
		return nil, diag.New(diag.ResolutionError, m.Span, "mapping references unknown track %q", m.TargetTrack)
	}
	return &id, nil
}

// zeroSpan is used where a CompileError must be attached to a span-less
// failure (e.g. one surfaced by Bundle.Validate after resolution finished).
var zeroSpan = token.Span{}
