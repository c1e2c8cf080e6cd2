// Package scheduler implements component H: the bridge between the
// control thread and the audio thread (§5). It is adapted directly from
// the teacher's tracker/broker.go: the same generic TrySend/TimeoutReceive
// helpers over a bounded channel, but the channel now carries a closed
// ControlMsg sum type (SectionJumpRequest, LayerToggle, TempoSet) instead
// of tracker.MsgToModel, and the bundle handoff is an atomic.Pointer swap
// rather than a channel send, since only the latest compiled Bundle is
// ever meaningful (§9 "hot reload": never mutate, always publish and
// swap).
package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/resonance-lang/resonance"
)

// MsgKind discriminates the control-ring message variants. Macro writes do
// not go through this ring at all — see MacroTable below — because they
// need "most recent value wins, no staleness" semantics that a FIFO queue
// does not give for free.
type MsgKind int

const (
	MsgSectionJump MsgKind = iota
	MsgLayerToggle
	MsgTempoSet
)

// ControlMsg is one control-rate instruction forwarded from the control
// thread to the audio thread's scheduler.
type ControlMsg struct {
	Kind MsgKind

	SectionTarget int
	LayerIndex    int
	LayerEnabled  bool
	TempoBPM      float64

	RequestedAt resonance.Beat
}

// TrySend attempts a non-blocking send on ch, returning false if the
// channel is full rather than blocking the caller. Adapted verbatim from
// tracker/broker.go's generic helper of the same name and signature.
func TrySend[T any](ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	default:
		return false
	}
}

// TimeoutReceive attempts to receive from ch, giving up after d. Adapted
// from tracker/broker.go's generic TimeoutReceive.
func TimeoutReceive[T any](ch <-chan T, d time.Duration) (T, bool) {
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(d):
		var zero T
		return zero, false
	}
}

// MacroTable is the coalescing mailbox for macro writes: every SetMacro or
// NudgeMacro overwrites the stored value in place under a single mutex, so
// a burst of writes between two audio callbacks never queues — the
// audio-thread's next read always observes the most recent value and
// nothing else (§8: "control-ring overflow of SetMacro coalesces such that
// the most recent value wins and no stale value is observed").
type MacroTable struct {
	mu     sync.Mutex
	values map[string]float64
}

// NewMacroTable seeds the table from a bundle's declared macro defaults.
func NewMacroTable(initial []resonance.Macro) *MacroTable {
	t := &MacroTable{values: make(map[string]float64, len(initial))}
	for _, m := range initial {
		t.values[m.Name] = resonance.Clamp01(m.Value)
	}
	return t
}

// Set overwrites name's value, clamped to the macro-legal range.
func (t *MacroTable) Set(name string, v float64) {
	t.mu.Lock()
	t.values[name] = resonance.Clamp01(v)
	t.mu.Unlock()
}

// Nudge adjusts name's value by delta, clamped.
func (t *MacroTable) Nudge(name string, delta float64) {
	t.mu.Lock()
	t.values[name] = resonance.Clamp01(t.values[name] + delta)
	t.mu.Unlock()
}

// Snapshot returns a copy of the current macro values, safe for the
// resolver to consume without holding the table's lock for the duration of
// resolution.
func (t *MacroTable) Snapshot() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]float64, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// Scheduler owns the published Bundle pointer and the control ring. The
// control thread is the sole producer; the audio thread is the sole
// consumer (§5 SPSC).
type Scheduler struct {
	bundle atomic.Pointer[resonance.Bundle]
	ring   chan ControlMsg
	Macros *MacroTable
}

// New creates a Scheduler with a control ring of the given capacity.
func New(ringCapacity int) *Scheduler {
	return &Scheduler{ring: make(chan ControlMsg, ringCapacity)}
}

// PublishBundle installs b as the current bundle and seeds the macro table
// from its declared defaults if one hasn't been created yet. Later calls
// keep the existing MacroTable, so macro values survive a hot reload.
func (s *Scheduler) PublishBundle(b *resonance.Bundle) {
	s.bundle.Store(b)
	if s.Macros == nil {
		s.Macros = NewMacroTable(b.Macros)
	}
}

// CurrentBundle returns the bundle currently installed, or nil if none has
// been published yet.
func (s *Scheduler) CurrentBundle() *resonance.Bundle {
	return s.bundle.Load()
}

// SendControl enqueues msg on the control ring without blocking. It
// returns false if the ring is full; the intent processor's Do methods
// discard that result, so a message sent to a full ring is dropped
// without any report, and the control thread is never blocked.
func (s *Scheduler) SendControl(msg ControlMsg) bool {
	return TrySend(s.ring, msg)
}

// DrainControl pulls every currently-queued control message off the ring
// without blocking — the audio thread's "drain at callback start" per
// §4.H — up to max messages (0 means unlimited). It appends into dst[:0],
// so a caller holding a reusable scratch slice across callbacks never
// allocates once that slice has grown to its steady-state size (§4.I "no
// allocation after init" applies just as much to the control-message
// drain as to the render path).
func (s *Scheduler) DrainControl(dst []ControlMsg, max int) []ControlMsg {
	out := dst[:0]
	for max <= 0 || len(out) < max {
		select {
		case msg := <-s.ring:
			out = append(out, msg)
		default:
			return out
		}
	}
	return out
}

// EventsInWindow returns the events in [t0, t1) from whatever bundle is
// currently installed. Bundle.EventsInWindow's binary search always starts
// fresh from index 0 of the *current* Bundle.Events slice, so a bundle
// swap re-seeds the search for free: there is no persistent cursor state
// to invalidate (§4.H).
func (s *Scheduler) EventsInWindow(t0, t1 resonance.Beat) []resonance.Event {
	b := s.bundle.Load()
	if b == nil {
		return nil
	}
	return b.EventsInWindow(t0, t1)
}
