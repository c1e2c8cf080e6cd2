package compiler

import (
	"reflect"
	"testing"

	"github.com/resonance-lang/resonance"
	"github.com/resonance-lang/resonance/internal/dsl/parser"
)

func mustCompile(t *testing.T, src string, seed uint64) *resonance.Bundle {
	t.Helper()
	prog, perrs := parser.Parse(src)
	if len(perrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", perrs)
	}
	bundle, cerrs := Compile(prog, seed)
	if len(cerrs) != 0 {
		t.Fatalf("unexpected compile errors: %v", cerrs)
	}
	return bundle
}

// TestOneKickPerBar is §8 scenario 1: a 4-step kick pattern with a single
// hit on the downbeat, one bar long, yields one drum-hit event per bar at
// the bar boundary.
func TestOneKickPerBar(t *testing.T) {
	src := `
tempo 120
track d {
  kit: default
  section groove [1 bars] {
    kick: [X . . .]
  }
}
`
	bundle := mustCompile(t, src, 42)
	if len(bundle.Events) != 1 {
		t.Fatalf("expected 1 event, got %d: %+v", len(bundle.Events), bundle.Events)
	}
	ev := bundle.Events[0]
	if ev.Time != resonance.ZeroBeat {
		t.Fatalf("expected kick at tick 0, got %v", ev.Time)
	}
	if ev.Kind != resonance.PayloadDrumHit || ev.Drum.KitSlot != "kick" {
		t.Fatalf("unexpected event payload: %+v", ev)
	}
	if ev.Drum.Velocity != 1.0 {
		t.Fatalf("expected default hit velocity 1.0, got %v", ev.Drum.Velocity)
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	src := `
tempo 128
track d {
  kit: default
  section groove [2 bars] {
    kick: [X . x . X . x .]
    snare: [. . X . . . X .] vel [. . 0.9 . . . 0.4 .]
  }
}
track b = bass |> section groove [2 bars] {
    note: [C2 . . . Eb2 . . .]
}
`
	b1 := mustCompile(t, src, 7)
	b2 := mustCompile(t, src, 7)
	if !reflect.DeepEqual(b1.Events, b2.Events) {
		t.Fatalf("compiling twice with the same seed produced different events:\n%+v\n%+v", b1.Events, b2.Events)
	}
	if !resonance.EventsAreOrdered(b1.Events) {
		t.Fatalf("events not ordered: %+v", b1.Events)
	}
}

func TestVelArrayOverridesAndDefaults(t *testing.T) {
	src := `
track d {
  kit: default
  section groove [1 bars] {
    snare: [X x . X] vel [0.2 . . .]
  }
}
`
	bundle := mustCompile(t, src, 1)
	if len(bundle.Events) != 3 {
		t.Fatalf("expected 3 events (rest cell dropped), got %d", len(bundle.Events))
	}
	if bundle.Events[0].Drum.Velocity != 0.2 {
		t.Fatalf("expected overridden velocity 0.2, got %v", bundle.Events[0].Drum.Velocity)
	}
	if bundle.Events[1].Drum.Velocity != defaultHalfVelocity {
		t.Fatalf("expected default half velocity for un-overridden 'x' cell, got %v", bundle.Events[1].Drum.Velocity)
	}
}

func TestSectionsConcatenateAlongTimeline(t *testing.T) {
	src := `
track d {
  kit: default
  section a [1 bars] {
    kick: [X . . .]
  }
  section b [1 bars] {
    kick: [X . . .]
  }
}
`
	bundle := mustCompile(t, src, 3)
	if len(bundle.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(bundle.Events))
	}
	if bundle.Events[0].Time != resonance.ZeroBeat {
		t.Fatalf("expected section a's kick at tick 0, got %v", bundle.Events[0].Time)
	}
	wantSecondStart := resonance.Bars(1)
	if bundle.Events[1].Time != wantSecondStart {
		t.Fatalf("expected section b's kick at %v, got %v", wantSecondStart, bundle.Events[1].Time)
	}
}

func TestMelodicTrackRejectsStepCells(t *testing.T) {
	src := `
track b {
  poly
  section verse [1 bars] {
    note: [X . . .]
  }
}
`
	prog, perrs := parser.Parse(src)
	if len(perrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", perrs)
	}
	_, cerrs := Compile(prog, 1)
	if len(cerrs) == 0 {
		t.Fatalf("expected a semantic error for X/x cells on a melodic track")
	}
}

func TestDuplicateTrackNameIsResolutionError(t *testing.T) {
	src := `
track d { kit: default }
track d { bass }
`
	prog, perrs := parser.Parse(src)
	if len(perrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", perrs)
	}
	_, cerrs := Compile(prog, 1)
	if len(cerrs) == 0 {
		t.Fatalf("expected a resolution error for duplicate track name")
	}
}

func TestMappingResolvesTrackQualifiedTarget(t *testing.T) {
	src := `
macro energy = 0.5
map energy -> d.kick_gain : 0.0..1.0

track d {
  kit: default
  section groove [1 bars] {
    kick: [X . . .]
  }
}
`
	bundle := mustCompile(t, src, 1)
	if len(bundle.BaseMappings) != 1 {
		t.Fatalf("expected 1 base mapping, got %d", len(bundle.BaseMappings))
	}
	m := bundle.BaseMappings[0]
	if m.Target.TrackID == nil || *m.Target.TrackID != 0 {
		t.Fatalf("expected mapping resolved to track id 0, got %+v", m.Target)
	}
}

func TestUnknownMappingTargetTrackIsResolutionError(t *testing.T) {
	src := `
macro energy = 0.5
map energy -> ghost.kick_gain : 0.0..1.0
track d { kit: default }
`
	prog, perrs := parser.Parse(src)
	if len(perrs) != 0 {
		t.Fatalf("unexpected parse errors: %v", perrs)
	}
	_, cerrs := Compile(prog, 1)
	if len(cerrs) == 0 {
		t.Fatalf("expected a resolution error for unknown mapping target track")
	}
}
