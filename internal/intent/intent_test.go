package intent

import (
	"testing"

	"github.com/resonance-lang/resonance"
	"github.com/resonance-lang/resonance/internal/scheduler"
)

func newTestSession() *Session {
	s := scheduler.New(8)
	bundle := &resonance.Bundle{
		Macros:   []resonance.Macro{{Name: "energy", Value: 0.5}},
		Sections: []resonance.Section{{Name: "a", LengthBars: 1}, {Name: "b", LengthBars: 1}},
		Layers:   []resonance.Layer{{Name: "intense"}},
	}
	bundle.Finalize()
	s.PublishBundle(bundle)
	return &Session{Scheduler: s}
}

func TestSetMacroRejectsUnknownName(t *testing.T) {
	sess := newTestSession()
	a := &SetMacro{S: sess, Name: "nope", Value: 0.9}
	if a.Enabled() {
		t.Fatalf("expected SetMacro on unknown macro name to be disabled")
	}
	act := MakeAction(a)
	act.Do() // must be a no-op
	if _, ok := sess.Scheduler.Macros.Snapshot()["nope"]; ok {
		t.Fatalf("expected disabled action to never write a value")
	}
}

func TestSetMacroAppliesThroughAction(t *testing.T) {
	sess := newTestSession()
	a := &SetMacro{S: sess, Name: "energy", Value: 0.9}
	MakeAction(a).Do()
	if got := sess.Scheduler.Macros.Snapshot()["energy"]; got != 0.9 {
		t.Fatalf("got %v want 0.9", got)
	}
}

func TestNudgeMacroAdjustsRelativeToCurrent(t *testing.T) {
	sess := newTestSession()
	MakeAction(&SetMacro{S: sess, Name: "energy", Value: 0.5}).Do()
	MakeAction(&NudgeMacro{S: sess, Name: "energy", Delta: 0.2}).Do()
	if got := sess.Scheduler.Macros.Snapshot()["energy"]; got != 0.7 {
		t.Fatalf("got %v want 0.7", got)
	}
}

func TestJumpSectionRejectsOutOfRangeTarget(t *testing.T) {
	sess := newTestSession()
	a := &JumpSection{S: sess, Target: 99}
	if a.Enabled() {
		t.Fatalf("expected out-of-range section jump to be disabled")
	}
}

func TestJumpSectionEnqueuesControlMessage(t *testing.T) {
	sess := newTestSession()
	MakeAction(&JumpSection{S: sess, Target: 1}).Do()
	drained := sess.Scheduler.DrainControl(nil, 0)
	if len(drained) != 1 || drained[0].Kind != scheduler.MsgSectionJump || drained[0].SectionTarget != 1 {
		t.Fatalf("unexpected drained messages: %+v", drained)
	}
}

func TestToggleLayerRejectsOutOfRangeIndex(t *testing.T) {
	sess := newTestSession()
	a := &ToggleLayer{S: sess, Index: 5, Enable: true}
	if a.Enabled() {
		t.Fatalf("expected out-of-range layer toggle to be disabled")
	}
}

func TestSetTempoRejectsOutOfRangeBPM(t *testing.T) {
	sess := newTestSession()
	for _, bpm := range []float64{0, -10, 5000} {
		a := &SetTempo{S: sess, BPM: bpm}
		if a.Enabled() {
			t.Fatalf("expected bpm %v to be rejected", bpm)
		}
	}
	ok := &SetTempo{S: sess, BPM: 128}
	if !ok.Enabled() {
		t.Fatalf("expected a sane bpm to be accepted")
	}
}

func TestActionDoNoopsWithoutDoer(t *testing.T) {
	var a Action
	a.Do() // must not panic
	if a.Enabled() {
		t.Fatalf("expected a zero-value Action to be disabled")
	}
}

func TestStructuralProposalAcceptedFlow(t *testing.T) {
	p := NewStructuralProcessor(HashSource("tempo 120"))
	prop := &Proposal{BeforeASTHash: HashSource("tempo 120"), AfterSource: "tempo 140", Summary: "bump tempo"}
	if err := p.Propose(prop); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.State() != Proposed {
		t.Fatalf("expected Proposed, got %v", p.State())
	}
	accepted, err := p.Accept()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accepted.Summary != "bump tempo" {
		t.Fatalf("got wrong proposal back: %+v", accepted)
	}
	if p.State() != Applying {
		t.Fatalf("expected Applying, got %v", p.State())
	}
	newHash := HashSource("tempo 140")
	p.Applied(newHash)
	if p.State() != Idle || p.CurrentHash() != newHash {
		t.Fatalf("expected Idle with advanced hash, got state=%v hash=%v", p.State(), p.CurrentHash())
	}
}

// TestStaleProposalIsRejected is §8 scenario 5: a proposal built against
// H1 is rejected once the live program has moved on to H2.
func TestStaleProposalIsRejected(t *testing.T) {
	p := NewStructuralProcessor(HashSource("H1-source"))
	// Someone else's edit lands first, advancing the live hash.
	p.Applied(HashSource("H2-source"))

	stale := &Proposal{BeforeASTHash: HashSource("H1-source"), Summary: "based on old source"}
	if err := p.Propose(stale); err == nil {
		t.Fatalf("expected a stale proposal to be rejected")
	}
	if p.State() != Idle {
		t.Fatalf("expected state to remain Idle after a rejected proposal, got %v", p.State())
	}
}

func TestAcceptWithNoPendingProposalFails(t *testing.T) {
	p := NewStructuralProcessor(HashSource("x"))
	if _, err := p.Accept(); err == nil {
		t.Fatalf("expected Accept with no pending proposal to error")
	}
}

func TestRejectDiscardsPendingProposal(t *testing.T) {
	p := NewStructuralProcessor(HashSource("x"))
	p.Propose(&Proposal{BeforeASTHash: HashSource("x")})
	p.Reject()
	if p.State() != Idle {
		t.Fatalf("expected Idle after reject, got %v", p.State())
	}
	if _, err := p.Accept(); err == nil {
		t.Fatalf("expected Accept after Reject to fail")
	}
}
