package control

import (
	"testing"

	"github.com/resonance-lang/resonance"
)

func threeSections() []resonance.Section {
	return []resonance.Section{
		{Name: "a", LengthBars: 1},
		{Name: "b", LengthBars: 1},
		{Name: "c", LengthBars: 1},
	}
}

func TestNaturalAdvanceWrapsToFirstSection(t *testing.T) {
	c := New(threeSections(), nil, DefaultGraceWindow)
	if c.CurrentSection() != 0 {
		t.Fatalf("expected to start at section 0, got %d", c.CurrentSection())
	}
	// one bar at a time, no jumps requested
	c.Advance(resonance.Bars(1))
	if c.CurrentSection() != 1 {
		t.Fatalf("expected section 1 after one bar, got %d", c.CurrentSection())
	}
	c.Advance(resonance.Bars(2))
	if c.CurrentSection() != 2 {
		t.Fatalf("expected section 2 after two bars, got %d", c.CurrentSection())
	}
	c.Advance(resonance.Bars(3))
	if c.CurrentSection() != 0 {
		t.Fatalf("expected wraparound to section 0 after three bars, got %d", c.CurrentSection())
	}
}

// TestJumpWithinGraceAppliesAtNearBoundary and
// TestJumpOutsideGraceDefersOneBar exercise §4.G's grace-window rule as
// stated in the component description: a request arriving within
// graceWindow of the next boundary lands on that boundary; a request
// arriving earlier than that is deferred to the boundary after (there
// isn't guaranteed lead time to install it cleanly at the nearer one).
func TestJumpWithinGraceAppliesAtNearBoundary(t *testing.T) {
	c := New(threeSections(), nil, DefaultGraceWindow)
	now := resonance.Bars(1) - resonance.Ticks(resonance.TicksPerBeat/16) // well within grace (1/16 < 1/8 beat before boundary)
	commitAt := c.RequestSectionJump(2, now)
	if commitAt != resonance.Bars(1) {
		t.Fatalf("expected commit at bar 1, got %v", commitAt)
	}
	c.Advance(resonance.Bars(1))
	if c.CurrentSection() != 2 {
		t.Fatalf("expected jump to land at the near boundary, got section %d", c.CurrentSection())
	}
}

func TestJumpOutsideGraceDefersOneBar(t *testing.T) {
	c := New(threeSections(), nil, DefaultGraceWindow)
	now := resonance.Bars(1) - resonance.Beats(2) // far outside grace window
	commitAt := c.RequestSectionJump(2, now)
	if commitAt != resonance.Bars(2) {
		t.Fatalf("expected deferral to bar 2, got %v", commitAt)
	}
	c.Advance(resonance.Bars(1))
	if c.CurrentSection() != 1 {
		t.Fatalf("expected the deferred jump to not yet apply at bar 1, still natural-advanced to section 1, got %d", c.CurrentSection())
	}
	c.Advance(resonance.Bars(2))
	if c.CurrentSection() != 2 {
		t.Fatalf("expected the deferred jump to land at bar 2, got %d", c.CurrentSection())
	}
}

// TestSelfJumpIsNoop is the §8 idempotence property: a section jump to the
// currently-playing section at a bar boundary is a no-op on state.
func TestSelfJumpIsNoop(t *testing.T) {
	c := New(threeSections(), nil, DefaultGraceWindow)
	before := c.CurrentSection()
	commitAt := c.RequestSectionJump(before, resonance.ZeroBeat)
	c.Advance(commitAt)
	if c.CurrentSection() != before {
		t.Fatalf("self-jump changed section: got %d want %d", c.CurrentSection(), before)
	}
}

func TestLayerToggleCommitsAtNextBoundary(t *testing.T) {
	layers := []resonance.Layer{{Name: "intense", EnabledByDefault: false}}
	c := New(threeSections(), layers, DefaultGraceWindow)
	if c.LayerEnabled(0) {
		t.Fatalf("expected layer disabled by default")
	}
	c.RequestLayerToggle(0, true, resonance.Beats(1))
	c.Advance(resonance.Beats(2)) // still mid-bar, before the boundary
	if c.LayerEnabled(0) {
		t.Fatalf("layer toggle applied before its bar boundary")
	}
	c.Advance(resonance.Bars(1))
	if !c.LayerEnabled(0) {
		t.Fatalf("expected layer enabled after its commit boundary")
	}
	active := c.ActiveLayers()
	if len(active) != 1 || active[0] != 0 {
		t.Fatalf("unexpected ActiveLayers: %v", active)
	}
}

func TestApplyingSameSetMacroTwiceIsIdempotent(t *testing.T) {
	// §8: "Applying the same SetMacro(v) twice is equivalent to applying it
	// once." Macro state itself lives outside this package (it's a plain
	// map the scheduler owns), but the property is trivial by construction
	// since SetMacro is just an assignment — documented here as the
	// controller package's nearest neighbor to that property, since the
	// comparable section-jump idempotence (self-jump no-op) lives above.
	m := map[string]float64{}
	apply := func(v float64) { m["energy"] = v }
	apply(0.4)
	apply(0.4)
	if m["energy"] != 0.4 {
		t.Fatalf("expected idempotent SetMacro, got %v", m["energy"])
	}
}
