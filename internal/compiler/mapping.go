package compiler

import (
	"github.com/resonance-lang/resonance"
	"github.com/resonance-lang/resonance/internal/diag"
	"github.com/resonance-lang/resonance/internal/dsl/ast"
)

func curveFromAST(c ast.CurveKind) resonance.Curve {
	switch c {
	case ast.CurveLog:
		return resonance.CurveLog
	case ast.CurveExp:
		return resonance.CurveExp
	case ast.CurveSmoothstep:
		return resonance.CurveSmoothstep
	default:
		return resonance.CurveLinear
	}
}

// resolveMapping converts one ast.MappingDecl to a resonance.Mapping,
// resolving its optional track qualifier against byName.
func resolveMapping(byName map[string]int, m *ast.MappingDecl) (resonance.Mapping, *diag.CompileError) {
	trackID, err := resolveTargetTrack(byName, m)
	if err != nil {
		return resonance.Mapping{}, err
	}
	return resonance.Mapping{
		MacroName: m.MacroName,
		Target:    resonance.Target{TrackID: trackID, ParamID: m.TargetParam},
		Range:     [2]float64{m.Low, m.High},
		Curve:     curveFromAST(m.Curve),
	}, nil
}

func resolveMappings(byName map[string]int, decls []*ast.MappingDecl) ([]resonance.Mapping, []*diag.CompileError) {
	out := make([]resonance.Mapping, 0, len(decls))
	var errs []*diag.CompileError
	for _, d := range decls {
		mp, err := resolveMapping(byName, d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, mp)
	}
	return out, errs
}

func resolveLayers(byName map[string]int, decls []*ast.LayerDecl) ([]resonance.Layer, []*diag.CompileError) {
	out := make([]resonance.Layer, 0, len(decls))
	var errs []*diag.CompileError
	for _, d := range decls {
		additions, lerrs := resolveMappings(byName, d.Mappings)
		errs = append(errs, lerrs...)
		out = append(out, resonance.Layer{
			Name:             d.Name,
			MappingAdditions: additions,
			EnabledByDefault: d.Enabled,
		})
	}
	return out, errs
}
