// Package resolver implements component F: turning the current macro
// values plus a (section, active-layers) Context into concrete parameter
// values, by summing curve-shaped mapping contributions in normalized
// [0,1] space and only then mapping the clamped sum into a target's
// declared range (§4.F). It is grounded on the teacher's
// UnitParameter{CanModulate}/send-unit port model (sointu.go's UnitTypes):
// a Mapping plays the role of a send unit routing a macro to a target
// port, and Resolve replaces the teacher's runtime send/receive bytecode
// pair with a pure function since Resonance has no bytecode VM.
package resolver

import "github.com/resonance-lang/resonance"

// TargetKey is a comparable stand-in for resonance.Target: Target embeds a
// *int (nil for process-wide targets), and two Targets naming the same
// track can hold distinct pointer values, so Target is unsafe to use
// directly as a map key. TargetKey flattens that pointer into a plain
// (present, id) pair instead.
type TargetKey struct {
	HasTrack bool
	TrackID  int
	ParamID  string
}

// targetKeyOf builds a TargetKey from a Target.
func targetKeyOf(t resonance.Target) TargetKey {
	if t.TrackID == nil {
		return TargetKey{ParamID: t.ParamID}
	}
	return TargetKey{HasTrack: true, TrackID: *t.TrackID, ParamID: t.ParamID}
}

// TrackParam builds the TargetKey a caller (the audio engine, the
// control-rate poller) uses to look up a resolved value for a concrete
// track id and parameter name.
func TrackParam(trackID int, paramID string) TargetKey {
	return TargetKey{HasTrack: true, TrackID: trackID, ParamID: paramID}
}

// ProcessParam builds the TargetKey for a process-wide (not track-scoped)
// parameter.
func ProcessParam(paramID string) TargetKey {
	return TargetKey{ParamID: paramID}
}

// mappingKey identifies one mapping "slot": the (macro, target) pair that
// a section override replaces in place rather than stacking on top of
// (§4.F step 3).
type mappingKey struct {
	macro  string
	target TargetKey
}

type slot struct {
	key     mappingKey
	mapping resonance.Mapping
}

// Resolve computes the resolved value for every target with at least one
// contributing mapping, given the bundle's mapping tables, the current
// macro values (by name) and the active (section, layers) Context.
//
// Precedence (§4.F, highest last): base mappings sum in normalized space;
// a section override replaces the base mapping sharing its (macro,
// target) key in place, keeping that slot's position; enabled layers
// always add new slots, stacking additively with whatever survived above.
// Each slot's curve is applied before summation; the summed normalized
// value is clamped to [0,1] before being mapped into the target's
// declared range (the first contributing slot's range — by DSL
// convention, every mapping aimed at the same target shares one physical
// range, so "first" is as good as any).
func Resolve(bundle *resonance.Bundle, macroValues map[string]float64, ctx resonance.Context) map[TargetKey]float64 {
	slots := make([]slot, 0, len(bundle.BaseMappings))
	index := make(map[mappingKey]int, len(bundle.BaseMappings))

	for _, m := range bundle.BaseMappings {
		k := mappingKey{macro: m.MacroName, target: targetKeyOf(m.Target)}
		index[k] = len(slots)
		slots = append(slots, slot{key: k, mapping: m})
	}

	if ctx.Section >= 0 && ctx.Section < len(bundle.Sections) {
		for _, m := range bundle.Sections[ctx.Section].MappingOverrides {
			k := mappingKey{macro: m.MacroName, target: targetKeyOf(m.Target)}
			if i, ok := index[k]; ok {
				slots[i].mapping = m
			} else {
				index[k] = len(slots)
				slots = append(slots, slot{key: k, mapping: m})
			}
		}
	}

	for _, layerIdx := range ctx.ActiveLayers {
		if layerIdx < 0 || layerIdx >= len(bundle.Layers) {
			continue
		}
		for _, m := range bundle.Layers[layerIdx].MappingAdditions {
			k := mappingKey{macro: m.MacroName, target: targetKeyOf(m.Target)}
			slots = append(slots, slot{key: k, mapping: m})
		}
	}

	type aggregate struct {
		sum      float64
		lo, hi   float64
		hasRange bool
	}
	aggs := make(map[TargetKey]*aggregate)
	order := make([]TargetKey, 0, len(slots))

	for _, s := range slots {
		mv := macroValues[s.mapping.MacroName]
		tk := s.key.target
		a, ok := aggs[tk]
		if !ok {
			a = &aggregate{}
			aggs[tk] = a
			order = append(order, tk)
		}
		a.sum += s.mapping.Normalized(mv)
		if !a.hasRange {
			a.lo, a.hi = s.mapping.Range[0], s.mapping.Range[1]
			a.hasRange = true
		}
	}

	out := make(map[TargetKey]float64, len(order))
	for _, tk := range order {
		a := aggs[tk]
		clamped := resonance.Clamp01(a.sum)
		out[tk] = a.lo + clamped*(a.hi-a.lo)
	}
	return out
}
