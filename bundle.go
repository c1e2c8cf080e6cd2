package resonance

import "fmt"

// Bundle is the frozen product of a compile: everything the audio thread
// needs to render a performance, plus everything the resolver needs to turn
// macro moves into parameter values. A Bundle is immutable after
// publication; updates always publish a new Bundle rather than mutate one in
// place (§9 "hot reload").
type Bundle struct {
	Tempo        float64
	Tracks       []Track
	Events       []Event // sorted per SortEvents; invariant checked by Validate
	Sections     []Section
	Layers       []Layer
	Macros       []Macro
	BaseMappings []Mapping
	Seed         uint64

	paramIDs map[string]struct{}
	trackIdx map[int]int
}

// Context is the (section, active-layers) pair the resolver needs to
// evaluate section overrides and layer additions for a given moment.
type Context struct {
	Section       int
	ActiveLayers  []int
}

// Finalize indexes a freshly-compiled Bundle so later lookups (Validate,
// TrackByID) are O(1); it must be called once, by the compiler, before the
// Bundle is published.
func (b *Bundle) Finalize() {
	b.paramIDs = make(map[string]struct{})
	b.trackIdx = make(map[int]int)
	for i, t := range b.Tracks {
		b.trackIdx[t.ID] = i
		for p := range t.ParamDefaults {
			b.paramIDs[p] = struct{}{}
		}
	}
	for _, m := range b.BaseMappings {
		b.paramIDs[m.Target.ParamID] = struct{}{}
	}
	for _, s := range b.Sections {
		for _, m := range s.MappingOverrides {
			b.paramIDs[m.Target.ParamID] = struct{}{}
		}
	}
	for _, l := range b.Layers {
		for _, m := range l.MappingAdditions {
			b.paramIDs[m.Target.ParamID] = struct{}{}
		}
	}
}

// TrackByID returns the track with the given id, or false if none exists.
func (b *Bundle) TrackByID(id int) (Track, bool) {
	i, ok := b.trackIdx[id]
	if !ok {
		return Track{}, false
	}
	return b.Tracks[i], true
}

// Validate checks the invariants of §3: sorted events, non-negative
// time/duration, and that every referenced track_id/param_id exists.
func (b *Bundle) Validate() error {
	if !EventsAreOrdered(b.Events) {
		return fmt.Errorf("events are not sorted by (time, track_id, payload-kind)")
	}
	for i, e := range b.Events {
		if e.Time < 0 {
			return fmt.Errorf("event %d: negative time %v", i, e.Time)
		}
		if e.Duration < 0 {
			return fmt.Errorf("event %d: negative duration %v", i, e.Duration)
		}
		if _, ok := b.TrackByID(e.TrackID); !ok {
			return fmt.Errorf("event %d: references unknown track_id %d", i, e.TrackID)
		}
		for p := range e.ParamOverrides {
			if _, ok := b.paramIDs[p]; !ok {
				return fmt.Errorf("event %d: references unknown param_id %q", i, p)
			}
		}
	}
	if len(b.Macros) > MaxMacros {
		return fmt.Errorf("bundle declares %d macros, exceeding MaxMacros (%d)", len(b.Macros), MaxMacros)
	}
	return nil
}

// EventsInWindow returns the slice of b.Events with Time in [t0, t1), found
// by binary search over the sorted Events slice. This is the scheduler's
// event-cursor primitive (§4.H); it is re-run with a fresh t0 whenever a
// bundle swap occurs.
func (b *Bundle) EventsInWindow(t0, t1 Beat) []Event {
	lo := searchBeat(b.Events, t0)
	hi := searchBeat(b.Events, t1)
	return b.Events[lo:hi]
}

// searchBeat returns the index of the first event with Time >= target.
func searchBeat(events []Event, target Beat) int {
	lo, hi := 0, len(events)
	for lo < hi {
		mid := (lo + hi) / 2
		if events[mid].Time < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Synth is the uniform rendering contract every instrument kind implements
// on the audio thread: no allocation, no locks beyond what the caller
// already holds, voices addressed by index (§9 "dynamic dispatch").
type Synth interface {
	Render(out []float32, frames int) (rendered int, err error)
	Trigger(voice int, note PitchedNote)
	TriggerDrum(voice int, hit DrumHit)
	Release(voice int)
	SetParam(paramID string, value float64)
}

// AudioSink is the narrow interface the audio-thread runtime writes
// rendered frames to. Concrete implementations (a live device, a headless
// sink for --no-audio) live outside the core per §6.
type AudioSink interface {
	WriteAudio(buffer []float32) error
	Close() error
}

// AudioContext opens an AudioSink for a negotiated device.
type AudioContext interface {
	Output() (AudioSink, error)
	Close() error
}

// TasteStore is the narrow, opaque-bytes interface to the external taste
// collaborator (§6): the core never interprets the bytes it reads or
// writes.
type TasteStore interface {
	Load() ([]byte, bool, error)
	Save([]byte) error
}
