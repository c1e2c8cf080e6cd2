package resonance

import "sort"

// PayloadKind discriminates the three shapes an Event's payload can take.
// Ordinal order here *is* the tie-break order in the composite sort key
// (§3): drum hits, then pitched notes, then parameter points, for events
// sharing a (time, track) pair.
type PayloadKind int

const (
	PayloadDrumHit PayloadKind = iota
	PayloadPitchedNote
	PayloadParamPoint
)

// DrumHit is a kit-slot trigger at a given velocity.
type DrumHit struct {
	KitSlot  string
	Velocity float32
}

// PitchedNote is a MIDI-numbered note-on at a given velocity.
type PitchedNote struct {
	MIDINumber int
	Velocity   float32
}

// ParamPoint bakes a single parameter write, used to express LFO-like
// patterns as discrete timeline events rather than as continuous signals.
type ParamPoint struct {
	ParamID string
	Value   float64
}

// Event is the atomic unit of a compiled bundle's timeline.
type Event struct {
	Time    Beat
	Duration Beat // zero means one-shot
	TrackID int

	Kind  PayloadKind
	Drum  DrumHit
	Note  PitchedNote
	Param ParamPoint

	// ParamOverrides is a sparse set of (param_id -> value) written by the
	// pattern that produced this event, e.g. a per-step velocity array.
	// Keys not present here fall back to the track's declared defaults and
	// any resolver-driven mapping value.
	ParamOverrides map[string]float64
}

// SortEvents sorts events in place by the composite key (time, track_id,
// payload-kind-ordinal), the order §3 mandates. The sort must be stable so
// that two events landing on the exact same key (e.g. two param points from
// different mappings baked at the same tick) keep their declaration order.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.TrackID != b.TrackID {
			return a.TrackID < b.TrackID
		}
		return a.Kind < b.Kind
	})
}

// EventsAreOrdered reports whether events already satisfy the composite sort
// order; used by tests asserting the determinism/ordering invariant without
// mutating a copy.
func EventsAreOrdered(events []Event) bool {
	for i := 1; i < len(events); i++ {
		a, b := events[i-1], events[i]
		if a.Time > b.Time {
			return false
		}
		if a.Time == b.Time {
			if a.TrackID > b.TrackID {
				return false
			}
			if a.TrackID == b.TrackID && a.Kind > b.Kind {
				return false
			}
		}
	}
	return true
}
