// Package compiler implements component E: the three-pass compiler that
// turns a parsed ast.Program into a resonance.Bundle — resolve (symbol
// tables), expand (step-grid pattern lines to events) and bake (concatenate
// sections along the timeline, stable-sort by the composite key). It is
// grounded directly on the teacher's compiler package
// (compiler.go/patterns.go/song_macros.go), generalized from an
// asm-template codegen target to a plain Go data structure.
package compiler

import (
	"github.com/resonance-lang/resonance"
	"github.com/resonance-lang/resonance/internal/diag"
	"github.com/resonance-lang/resonance/internal/dsl/ast"
)

const defaultTempo = 120.0

// Compile runs all three passes over prog and returns the resulting Bundle
// plus every CompileError collected along the way. Compile never aborts
// early: it keeps going to collect as many errors as possible in one pass
// (§4.D/§7), the same recoverable-by-design posture as the parser. The
// returned Bundle is only safe to publish when the error slice is empty.
func Compile(prog *ast.Program, seed uint64) (*resonance.Bundle, []*diag.CompileError) {
	var errs []*diag.CompileError

	tempo := defaultTempo
	if prog.Tempo != nil {
		tempo = prog.Tempo.BPM
	}

	trackSyms, byName, terrs := resolveTracks(prog)
	errs = append(errs, terrs...)

	sections, offsets, serrs := computeGlobalSections(prog)
	errs = append(errs, serrs...)

	macros, merrs := resolveMacros(prog)
	errs = append(errs, merrs...)

	tracks := make([]resonance.Track, 0, len(trackSyms))
	var allEvents []resonance.Event
	for _, ts := range trackSyms {
		kind, ok := resonance.ParseInstrumentKind(ts.decl.Instrument.Kind)
		if !ok {
			errs = append(errs, diag.New(diag.SemanticError, ts.decl.Span, "track %q has no valid instrument declaration", ts.name))
			continue
		}
		tracks = append(tracks, resonance.Track{
			ID:              ts.id,
			Name:            ts.name,
			Instrument:      kind,
			KitName:         ts.decl.Instrument.KitName,
			ParamDefaults:   map[string]float64{},
			SectionsInOrder: sectionNamesInOrder(ts.decl.Sections),
			Humanize:        ts.decl.Humanize,
		})

		evs, eerrs := bakeTrackEvents(ts, kind, offsets, seed)
		errs = append(errs, eerrs...)
		allEvents = append(allEvents, evs...)
	}
	resonance.SortEvents(allEvents)

	bundleSections := make([]resonance.Section, 0, len(sections))
	for _, s := range sections {
		overrides, oerrs := resolveMappings(byName, s.overrides)
		errs = append(errs, oerrs...)
		bundleSections = append(bundleSections, resonance.Section{
			Name:             s.name,
			LengthBars:       s.lengthBars,
			MappingOverrides: overrides,
		})
	}

	baseMappings, berrs := resolveMappings(byName, prog.Mappings)
	errs = append(errs, berrs...)
	for _, ts := range trackSyms {
		trackMappings, tmerrs := resolveMappings(byName, ts.decl.Mappings)
		errs = append(errs, tmerrs...)
		baseMappings = append(baseMappings, trackMappings...)
	}

	layers, lerrs := resolveLayers(byName, prog.Layers)
	errs = append(errs, lerrs...)

	macroList := make([]resonance.Macro, 0, len(macros))
	for _, m := range macros {
		macroList = append(macroList, resonance.Macro{Name: m.name, Value: m.value})
	}

	bundle := &resonance.Bundle{
		Tempo:        tempo,
		Tracks:       tracks,
		Events:       allEvents,
		Sections:     bundleSections,
		Layers:       layers,
		Macros:       macroList,
		BaseMappings: baseMappings,
		Seed:         seed,
	}
	bundle.Finalize()

	if len(errs) == 0 {
		if verr := bundle.Validate(); verr != nil {
			errs = append(errs, diag.New(diag.SemanticError, zeroSpan, "%s", verr))
		}
	}

	return bundle, errs
}
