package intent

import (
	"github.com/resonance-lang/resonance"
	"github.com/resonance-lang/resonance/internal/scheduler"
)

// Session is the shared context every performance intent validates
// against and forwards through: the currently-published bundle (for
// existence checks) and the scheduler that owns the macro mailbox and
// control ring.
type Session struct {
	Scheduler *scheduler.Scheduler
}

func (s *Session) bundle() *resonance.Bundle {
	return s.Scheduler.CurrentBundle()
}

// SetMacro assigns name's value directly, bypassing the control ring: see
// scheduler.MacroTable for why macro writes use a coalescing mailbox
// instead of a queued message.
type SetMacro struct {
	S     *Session
	Name  string
	Value float64
}

func (a *SetMacro) Enabled() bool {
	b := a.S.bundle()
	if b == nil {
		return false
	}
	for _, m := range b.Macros {
		if m.Name == a.Name {
			return true
		}
	}
	return false
}

func (a *SetMacro) Do() {
	a.S.Scheduler.Macros.Set(a.Name, a.Value)
}

// NudgeMacro adjusts name's value by a relative delta.
type NudgeMacro struct {
	S     *Session
	Name  string
	Delta float64
}

func (a *NudgeMacro) Enabled() bool {
	return (&SetMacro{S: a.S, Name: a.Name}).Enabled()
}

func (a *NudgeMacro) Do() {
	a.S.Scheduler.Macros.Nudge(a.Name, a.Delta)
}

// ToggleLayer requests layer idx be set to enabled at the next bar
// boundary. It is forwarded as a control-ring message; the audio thread's
// internal/control.Controller applies it once its commit boundary
// arrives (§4.G).
type ToggleLayer struct {
	S      *Session
	Index  int
	Enable bool
}

func (a *ToggleLayer) Enabled() bool {
	b := a.S.bundle()
	return b != nil && a.Index >= 0 && a.Index < len(b.Layers)
}

func (a *ToggleLayer) Do() {
	a.S.Scheduler.SendControl(scheduler.ControlMsg{
		Kind:         scheduler.MsgLayerToggle,
		LayerIndex:   a.Index,
		LayerEnabled: a.Enable,
	})
}

// JumpSection requests a jump to the target section index, quantized to a
// bar boundary with the §4.G grace window.
type JumpSection struct {
	S      *Session
	Target int
}

func (a *JumpSection) Enabled() bool {
	b := a.S.bundle()
	return b != nil && a.Target >= 0 && a.Target < len(b.Sections)
}

func (a *JumpSection) Do() {
	a.S.Scheduler.SendControl(scheduler.ControlMsg{
		Kind:          scheduler.MsgSectionJump,
		SectionTarget: a.Target,
	})
}

// SetTempo requests a tempo change, applied on the next bar boundary
// (§4.A: mid-bar tempo writes are rejected upstream of TimeBase).
type SetTempo struct {
	S   *Session
	BPM float64
}

// minTempo/maxTempo bound tempo changes to a musically sane range; a
// pathological BPM (0, negative, or absurdly fast) is rejected rather than
// silently clamped, since a mistyped tempo is more likely a typo than an
// intentional edge case.
const (
	minTempo = 20.0
	maxTempo = 400.0
)

func (a *SetTempo) Enabled() bool {
	return a.BPM >= minTempo && a.BPM <= maxTempo
}

func (a *SetTempo) Do() {
	a.S.Scheduler.SendControl(scheduler.ControlMsg{
		Kind:     scheduler.MsgTempoSet,
		TempoBPM: a.BPM,
	})
}
