package scheduler

import (
	"testing"
	"time"

	"github.com/resonance-lang/resonance"
)

func TestTrySendFailsWhenRingFull(t *testing.T) {
	ch := make(chan int, 1)
	if !TrySend(ch, 1) {
		t.Fatalf("expected first send to succeed")
	}
	if TrySend(ch, 2) {
		t.Fatalf("expected second send on a full ring of capacity 1 to fail")
	}
}

func TestTimeoutReceiveReturnsFalseOnEmptyChannel(t *testing.T) {
	ch := make(chan int)
	_, ok := TimeoutReceive(ch, 5*time.Millisecond)
	if ok {
		t.Fatalf("expected timeout on an empty channel")
	}
}

func TestTimeoutReceiveGetsQueuedValue(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 42
	v, ok := TimeoutReceive(ch, 50*time.Millisecond)
	if !ok || v != 42 {
		t.Fatalf("got (%v, %v), want (42, true)", v, ok)
	}
}

// TestMacroTableCoalescesBursts is the §8 property: a burst of SetMacro
// writes to the same name between two reads never queues — only the most
// recent value is ever observed, and nothing stale survives.
func TestMacroTableCoalescesBursts(t *testing.T) {
	mt := NewMacroTable(nil)
	for i := 0; i < 100; i++ {
		mt.Set("energy", float64(i)/100)
	}
	snap := mt.Snapshot()
	if snap["energy"] != 0.99 {
		t.Fatalf("expected coalesced latest value 0.99, got %v", snap["energy"])
	}
}

func TestMacroTableNudgeClampsToUnitRange(t *testing.T) {
	mt := NewMacroTable([]resonance.Macro{{Name: "energy", Value: 0.9}})
	mt.Nudge("energy", 0.5)
	if got := mt.Snapshot()["energy"]; got != 1.0 {
		t.Fatalf("expected nudge to clamp at 1.0, got %v", got)
	}
	mt.Nudge("energy", -5)
	if got := mt.Snapshot()["energy"]; got != 0.0 {
		t.Fatalf("expected nudge to clamp at 0.0, got %v", got)
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	mt := NewMacroTable([]resonance.Macro{{Name: "energy", Value: 0.5}})
	snap := mt.Snapshot()
	snap["energy"] = 999
	if got := mt.Snapshot()["energy"]; got != 0.5 {
		t.Fatalf("mutating a snapshot leaked into the table: got %v", got)
	}
}

func TestPublishBundleSwapIsVisibleToEventsInWindow(t *testing.T) {
	trackID := 0
	b1 := &resonance.Bundle{
		Tracks: []resonance.Track{{ID: trackID, Name: "d"}},
		Events: []resonance.Event{{Time: resonance.Beats(1), TrackID: trackID}},
	}
	b1.Finalize()
	b2 := &resonance.Bundle{
		Tracks: []resonance.Track{{ID: trackID, Name: "d"}},
		Events: []resonance.Event{{Time: resonance.Beats(5), TrackID: trackID}},
	}
	b2.Finalize()

	s := New(8)
	s.PublishBundle(b1)
	got := s.EventsInWindow(resonance.ZeroBeat, resonance.Beats(2))
	if len(got) != 1 || got[0].Time != resonance.Beats(1) {
		t.Fatalf("expected one event at beat 1 from b1, got %v", got)
	}

	s.PublishBundle(b2)
	got = s.EventsInWindow(resonance.ZeroBeat, resonance.Beats(2))
	if len(got) != 0 {
		t.Fatalf("expected no events in [0,2) after swapping to b2, got %v", got)
	}
	got = s.EventsInWindow(resonance.Beats(4), resonance.Beats(6))
	if len(got) != 1 || got[0].Time != resonance.Beats(5) {
		t.Fatalf("expected one event at beat 5 from b2, got %v", got)
	}
}

func TestEventsInWindowBeforeAnyPublishIsEmpty(t *testing.T) {
	s := New(8)
	if got := s.EventsInWindow(resonance.ZeroBeat, resonance.Beats(10)); got != nil {
		t.Fatalf("expected nil before any bundle published, got %v", got)
	}
}

func TestPublishBundleSeedsMacroTableOnlyOnce(t *testing.T) {
	b1 := &resonance.Bundle{Macros: []resonance.Macro{{Name: "energy", Value: 0.3}}}
	b1.Finalize()
	b2 := &resonance.Bundle{Macros: []resonance.Macro{{Name: "energy", Value: 0.9}}}
	b2.Finalize()

	s := New(8)
	s.PublishBundle(b1)
	s.Macros.Set("energy", 0.7) // simulate a live performance tweak

	s.PublishBundle(b2) // a later hot reload must not clobber the live value
	if got := s.Macros.Snapshot()["energy"]; got != 0.7 {
		t.Fatalf("expected live macro value preserved across reload, got %v", got)
	}
}

func TestSendControlAndDrainControlPreserveOrder(t *testing.T) {
	s := New(4)
	msgs := []ControlMsg{
		{Kind: MsgSectionJump, SectionTarget: 1},
		{Kind: MsgLayerToggle, LayerIndex: 0, LayerEnabled: true},
		{Kind: MsgTempoSet, TempoBPM: 140},
	}
	for _, m := range msgs {
		if !s.SendControl(m) {
			t.Fatalf("expected control send to succeed within capacity")
		}
	}
	drained := s.DrainControl(nil, 0)
	if len(drained) != len(msgs) {
		t.Fatalf("expected %d drained messages, got %d", len(msgs), len(drained))
	}
	for i, m := range msgs {
		if drained[i] != m {
			t.Fatalf("drained[%d] = %+v, want %+v", i, drained[i], m)
		}
	}
	if more := s.DrainControl(nil, 0); len(more) != 0 {
		t.Fatalf("expected ring empty after full drain, got %v", more)
	}
}

// TestDrainControlReusesProvidedSlice is the allocation-free drain path a
// per-callback caller relies on: passing a slice with spare capacity must
// grow it in place rather than allocate a fresh backing array.
func TestDrainControlReusesProvidedSlice(t *testing.T) {
	s := New(4)
	s.SendControl(ControlMsg{Kind: MsgTempoSet, TempoBPM: 1})
	s.SendControl(ControlMsg{Kind: MsgTempoSet, TempoBPM: 2})
	dst := make([]ControlMsg, 0, 4)
	first := s.DrainControl(dst, 0)
	if len(first) != 2 {
		t.Fatalf("expected 2 drained messages, got %d", len(first))
	}
	if cap(first) != cap(dst) {
		t.Fatalf("expected DrainControl to reuse dst's backing array, got cap %d want %d", cap(first), cap(dst))
	}
}

func TestSendControlFailsWhenRingFull(t *testing.T) {
	s := New(1)
	if !s.SendControl(ControlMsg{Kind: MsgTempoSet, TempoBPM: 100}) {
		t.Fatalf("expected first send to succeed")
	}
	if s.SendControl(ControlMsg{Kind: MsgTempoSet, TempoBPM: 110}) {
		t.Fatalf("expected second send on a full ring of capacity 1 to fail")
	}
}

func TestDrainControlRespectsMaxLimit(t *testing.T) {
	s := New(8)
	for i := 0; i < 5; i++ {
		s.SendControl(ControlMsg{Kind: MsgTempoSet, TempoBPM: float64(i)})
	}
	first := s.DrainControl(nil, 2)
	if len(first) != 2 {
		t.Fatalf("expected 2 messages from a capped drain, got %d", len(first))
	}
	rest := s.DrainControl(nil, 0)
	if len(rest) != 3 {
		t.Fatalf("expected remaining 3 messages, got %d", len(rest))
	}
}
