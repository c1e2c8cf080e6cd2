package compiler

import (
	"github.com/resonance-lang/resonance"
	"github.com/resonance-lang/resonance/internal/diag"
	"github.com/resonance-lang/resonance/internal/dsl/ast"
)

// sectionInfo is one entry of the global, cross-track section timeline: the
// declared length (first-seen wins, later mismatches are a SemanticError)
// and every mapping override declared for it, across every track that
// declares a section by this name.
type sectionInfo struct {
	name       string
	lengthBars int
	overrides  []*ast.MappingDecl
}

// computeGlobalSections walks every track's section declarations in
// program order and builds the single global section timeline every track's
// events get baked against: first appearance fixes the order and the
// length_bars, matching §4.E.3 ("concatenate section events along the song
// timeline in section order").
func computeGlobalSections(prog *ast.Program) ([]sectionInfo, map[string]resonance.Beat, []*diag.CompileError) {
	var errs []*diag.CompileError
	var order []sectionInfo
	index := make(map[string]int)

	for _, td := range prog.Tracks {
		for _, sd := range td.Sections {
			i, ok := index[sd.Name]
			if !ok {
				index[sd.Name] = len(order)
				order = append(order, sectionInfo{name: sd.Name, lengthBars: sd.LengthBars, overrides: append([]*ast.MappingDecl{}, sd.MappingOverrides...)})
				continue
			}
			if order[i].lengthBars != sd.LengthBars {
				errs = append(errs, diag.New(diag.SemanticError, sd.Span,
					"section %q declared with length_bars=%d on track %q but length_bars=%d elsewhere",
					sd.Name, sd.LengthBars, td.Name, order[i].lengthBars))
			}
			order[i].overrides = append(order[i].overrides, sd.MappingOverrides...)
		}
	}

	offsets := make(map[string]resonance.Beat, len(order))
	var cursor resonance.Beat
	for _, s := range order {
		offsets[s.name] = cursor
		cursor += resonance.Bars(int64(s.lengthBars))
	}
	return order, offsets, errs
}

// bakeTrackEvents expands and shifts every section a track participates in,
// producing that track's slice of the final composite-sorted timeline.
func bakeTrackEvents(ts trackSymbol, kind resonance.InstrumentKind, offsets map[string]resonance.Beat, seed uint64) ([]resonance.Event, []*diag.CompileError) {
	var events []resonance.Event
	var errs []*diag.CompileError
	for _, sd := range ts.decl.Sections {
		offset, ok := offsets[sd.Name]
		if !ok {
			// unreachable: computeGlobalSections seeds offsets from the same
			// declarations bakeTrackEvents iterates.
			continue
		}
		evs, eerrs := expandTrackSection(ts, kind, sd, offset, seed, ts.decl.Humanize)
		events = append(events, evs...)
		errs = append(errs, eerrs...)
	}
	return events, errs
}

func sectionNamesInOrder(sections []*ast.SectionDecl) []string {
	names := make([]string, 0, len(sections))
	for _, s := range sections {
		names = append(names, s.Name)
	}
	return names
}
