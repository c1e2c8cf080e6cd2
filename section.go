package resonance

// Section is a named, fixed-length span of the song. Sections form an
// ordered list; playback advances through them in declaration order unless a
// jump intent overrides the default.
type Section struct {
	Name            string
	LengthBars      int
	MappingOverrides []Mapping
}

// Layer is a toggleable, named set of additive mappings, orthogonal to
// sections.
type Layer struct {
	Name             string
	MappingAdditions []Mapping
	EnabledByDefault bool
}

// Cursor is a playback position expressed in musical terms rather than raw
// beats: which section, which bar within it, and which beat within that bar.
type Cursor struct {
	SectionIndex int
	BarInSection int
	BeatInBar    int
}
