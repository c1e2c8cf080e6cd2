// Package control implements component G: the section/layer state machine.
// Requested changes are queued and only installed on a bar boundary — the
// same single-writer atomic-handoff idiom the teacher uses for
// tracker.Broker.ToPlayer, generalized from a channel handoff to an
// in-place pending-state commit since there is exactly one control-thread
// writer here (§5). The cursor arithmetic (natural section advance,
// wraparound) is grounded on the teacher's Score.Wrap/Score.Clamp
// bar-boundary helpers.
package control

import "github.com/resonance-lang/resonance"

// DefaultGraceWindow is the lead time (§4.G) a section-jump request must
// arrive before a bar boundary to land on that boundary rather than the
// one after.
const DefaultGraceWindow = resonance.Beat(resonance.TicksPerBeat / 8)

// Controller tracks the currently-playing section and which layers are
// enabled, and decides when a queued change is installed.
type Controller struct {
	sections []resonance.Section
	cur      int
	curStart resonance.Beat

	pendingSection  *int
	pendingCommitAt resonance.Beat

	layersEnabled       []bool
	pendingLayerIdx     *int
	pendingLayerValue   bool
	pendingLayerCommit  resonance.Beat

	graceWindow resonance.Beat
}

// New creates a Controller starting at section 0 (or an empty Controller
// if sections is empty), with layers defaulted per their EnabledByDefault
// flag.
func New(sections []resonance.Section, layers []resonance.Layer, graceWindow resonance.Beat) *Controller {
	c := &Controller{
		sections:    sections,
		graceWindow: graceWindow,
		layersEnabled: make([]bool, len(layers)),
	}
	for i, l := range layers {
		c.layersEnabled[i] = l.EnabledByDefault
	}
	return c
}

// CurrentSection returns the index of the section currently playing.
func (c *Controller) CurrentSection() int { return c.cur }

// SectionStart returns the beat at which the current section began.
func (c *Controller) SectionStart() resonance.Beat { return c.curStart }

// ActiveLayers returns the indices of currently-enabled layers, in
// ascending order, matching resonance.Context.ActiveLayers's expected
// shape.
func (c *Controller) ActiveLayers() []int {
	var out []int
	for i, on := range c.layersEnabled {
		if on {
			out = append(out, i)
		}
	}
	return out
}

// LayerEnabled reports whether layer idx is currently enabled.
func (c *Controller) LayerEnabled(idx int) bool {
	if idx < 0 || idx >= len(c.layersEnabled) {
		return false
	}
	return c.layersEnabled[idx]
}

// RequestSectionJump queues a jump to target section, to be installed at a
// bar boundary (§4.G). If now is within graceWindow of the next boundary,
// the jump commits at that boundary; otherwise it commits at the boundary
// after. A jump to the already-current section at a boundary is still
// queued and still a no-op once installed (idempotence, §8), since cur is
// simply reassigned to its own value. Returns the beat the jump will take
// effect at.
func (c *Controller) RequestSectionJump(target int, now resonance.Beat) resonance.Beat {
	boundary := now.NextBarBoundary()
	if boundary.Sub(now) > c.graceWindow {
		boundary = boundary.Add(resonance.Bars(1))
	}
	t := target
	c.pendingSection = &t
	c.pendingCommitAt = boundary
	return boundary
}

// RequestLayerToggle queues layer idx to be set to enabled at the next bar
// boundary. Layer toggles carry no grace window in §4.G — only section
// jumps do — so this always targets the very next boundary after now.
func (c *Controller) RequestLayerToggle(idx int, enabled bool, now resonance.Beat) resonance.Beat {
	boundary := now.NextBarBoundary()
	c.pendingLayerIdx = &idx
	c.pendingLayerValue = enabled
	c.pendingLayerCommit = boundary
	return boundary
}

// Advance installs any pending change whose commit beat has arrived, and
// performs the default natural advance (to the next declared section,
// wrapping to the first) once the current section's declared length has
// elapsed, unless a pending jump is due at that same boundary — a jump
// always replaces the default advance (§4.G).
func (c *Controller) Advance(now resonance.Beat) {
	if c.pendingLayerIdx != nil && now >= c.pendingLayerCommit {
		c.layersEnabled[*c.pendingLayerIdx] = c.pendingLayerValue
		c.pendingLayerIdx = nil
	}

	if len(c.sections) == 0 {
		return
	}
	naturalBoundary := c.curStart.Add(resonance.Bars(int64(c.sections[c.cur].LengthBars)))
	jumpDue := c.pendingSection != nil && now >= c.pendingCommitAt

	switch {
	case jumpDue:
		c.cur = *c.pendingSection
		c.curStart = c.pendingCommitAt
		c.pendingSection = nil
	case now >= naturalBoundary:
		c.cur = (c.cur + 1) % len(c.sections)
		c.curStart = naturalBoundary
	}
}
