package compiler

import (
	"github.com/resonance-lang/resonance"
	"github.com/resonance-lang/resonance/internal/diag"
	"github.com/resonance-lang/resonance/internal/dsl/ast"
	"github.com/resonance-lang/resonance/internal/rng"
)

// Default per-step-kind velocities, used whenever a pattern's vel array is
// absent or carries a "." at that position — the original implementation's
// "missing entries keep declared defaults" rule (never cycling), confirmed
// against original_source/src/dsl/compile.rs.
const (
	defaultHitVelocity  = float32(1.0)
	defaultHalfVelocity = float32(0.6)
	defaultNoteVelocity = float32(0.8)
)

// expandTrackSection expands one section's pattern lines for one track into
// timeline events with absolute Time (sectionOffset already applied),
// grounded on the teacher's fixPatternLength/flattenSequence/markDontCares
// (compiler/patterns.go): a step array is walked cell by cell, "don't care"
// cells (StepRest) produce no event, and every other cell resolves to one
// event whose velocity comes from the parallel vel array unless that slot is
// "." (default) or absent (shorter than the step array).
func expandTrackSection(track trackSymbol, kind resonance.InstrumentKind, sec *ast.SectionDecl, offset resonance.Beat, seed uint64, humanize float64) ([]resonance.Event, []*diag.CompileError) {
	var events []resonance.Event
	var errs []*diag.CompileError

	ticksTotal := int64(sec.LengthBars) * resonance.BeatsPerBar * resonance.TicksPerBeat

	for _, pl := range sec.Patterns {
		n := len(pl.Steps)
		if n == 0 {
			continue
		}
		stepTicks := ticksTotal / int64(n)
		for i, step := range pl.Steps {
			if step.Kind == ast.StepRest {
				continue
			}
			isDrumStep := step.Kind == ast.StepHit || step.Kind == ast.StepHalf
			isNoteStep := step.Kind == ast.StepPitch
			if kind == resonance.InstrumentDrumKit && isNoteStep {
				errs = append(errs, diag.New(diag.SemanticError, step.Span, "pitch literal %q used on drum-kit track %q; drum tracks use X/x/. cells", step.Pitch, track.name))
				continue
			}
			if kind != resonance.InstrumentDrumKit && isDrumStep {
				errs = append(errs, diag.New(diag.SemanticError, step.Span, "X/x cell used on melodic track %q; melodic tracks use pitch literals", track.name))
				continue
			}

			t := offset + resonance.Ticks(int64(i)*stepTicks)

			var vel float32
			switch step.Kind {
			case ast.StepHit:
				vel = defaultHitVelocity
			case ast.StepHalf:
				vel = defaultHalfVelocity
			case ast.StepPitch:
				vel = defaultNoteVelocity
			}
			if i < len(pl.Velocities) && pl.Velocities[i] != nil {
				vel = float32(*pl.Velocities[i])
			}

			if humanize > 0 {
				t, vel = applyHumanize(seed, track.id, t, vel, humanize)
			}

			switch {
			case kind == resonance.InstrumentDrumKit:
				events = append(events, resonance.Event{
					Time:    t,
					TrackID: track.id,
					Kind:    resonance.PayloadDrumHit,
					Drum:    resonance.DrumHit{KitSlot: pl.Target, Velocity: vel},
				})
			default:
				midi, err := parsePitch(step.Pitch)
				if err != nil {
					errs = append(errs, diag.New(diag.SemanticError, step.Span, "%s", err))
					continue
				}
				events = append(events, resonance.Event{
					Time:    t,
					TrackID: track.id,
					Kind:    resonance.PayloadPitchedNote,
					Note:    resonance.PitchedNote{MIDINumber: midi, Velocity: vel},
				})
			}
		}
	}
	return events, errs
}

// applyHumanize nudges an event's time and velocity by a deterministic
// per-(seed, track, tick) draw, off by default (humanize == 0) so it never
// perturbs a performance unless a track opts in (§9 "Supplemented
// features").
func applyHumanize(seed uint64, trackID int, t resonance.Beat, vel float32, humanize float64) (resonance.Beat, float32) {
	timingDraw := rng.Float01(seed, uint32(trackID), uint64(t), rng.RoleHumanizeTiming)
	maxSwingTicks := float64(resonance.TicksPerBeat) / 8 // up to a 32nd-note swing at humanize == 1
	jitterTicks := int64((timingDraw - 0.5) * 2 * humanize * maxSwingTicks)
	t += resonance.Ticks(jitterTicks)
	if t < 0 {
		t = 0
	}

	velDraw := rng.Float01(seed, uint32(trackID), uint64(t), rng.RoleHumanizeVelocity)
	velJitter := (velDraw - 0.5) * 2 * humanize * 0.2
	vel = float32(resonance.Clamp01(float64(vel) + velJitter))

	return t, vel
}
