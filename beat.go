package resonance

// Beat is musical time, measured in integer ticks to avoid floating point
// accumulation error across a long-running performance. TicksPerBeat follows
// the 960 PPQN convention: it divides cleanly by 2, 3, 4, 5, 6, 8, 10, 12,
// 16, 20, 24 and 32, which covers every step-grid subdivision the DSL's
// pattern lines can express.
const TicksPerBeat = 960

// BeatsPerBar is fixed at 4 (4/4 time). Variable or re-targetable time
// signatures are a non-goal.
const BeatsPerBar = 4

// Beat is a fixed-point musical timestamp, counted in ticks from song start.
type Beat int64

// ZeroBeat is the start of the timeline.
const ZeroBeat Beat = 0

// Beats returns a Beat for a whole number of beats.
func Beats(n int64) Beat { return Beat(n * TicksPerBeat) }

// Bars returns a Beat for a whole number of bars.
func Bars(n int64) Beat { return Beat(n * BeatsPerBar * TicksPerBeat) }

// Ticks returns a Beat from a raw tick count.
func Ticks(n int64) Beat { return Beat(n) }

// Float64 converts a Beat to a floating point beat count, for display or for
// interop with components (curves, humanize jitter) that want a continuous
// value. Internal scheduling never uses this representation.
func (b Beat) Float64() float64 { return float64(b) / TicksPerBeat }

// BarIndex returns the 0-indexed bar that b falls in.
func (b Beat) BarIndex() int64 {
	return int64(b) / (BeatsPerBar * TicksPerBeat)
}

// IsBarBoundary reports whether b lands exactly on a bar line.
func (b Beat) IsBarBoundary() bool {
	return int64(b)%(BeatsPerBar*TicksPerBeat) == 0
}

// NextBarBoundary returns the first bar boundary strictly after b, unless b
// itself is a bar boundary, in which case the boundary after that is returned
// instead (this is always a *future* commit point, never "now").
func (b Beat) NextBarBoundary() Beat {
	const ticksPerBar = BeatsPerBar * TicksPerBeat
	bar := int64(b) / ticksPerBar
	return Beat((bar + 1) * ticksPerBar)
}

// Add returns b + other.
func (b Beat) Add(other Beat) Beat { return b + other }

// Sub returns b - other.
func (b Beat) Sub(other Beat) Beat { return b - other }

// Less reports whether b comes strictly before other.
func (b Beat) Less(other Beat) bool { return b < other }

// TimeBase maps wall-clock audio frames to musical beats at a tempo. Tempo
// changes are staged by the caller (the section/layer controller) and only
// committed on a bar boundary; TimeBase itself just does the arithmetic for
// whatever tempo is currently in effect.
type TimeBase struct {
	SampleRate int
	BPM        float64
	pos        Beat
}

// NewTimeBase creates a TimeBase at the given sample rate and initial tempo.
func NewTimeBase(sampleRate int, bpm float64) *TimeBase {
	return &TimeBase{SampleRate: sampleRate, BPM: bpm}
}

// Position returns the current musical position.
func (tb *TimeBase) Position() Beat { return tb.pos }

// SetPosition forces the musical position, used when a section jump or loop
// relocates playback.
func (tb *TimeBase) SetPosition(b Beat) { tb.pos = b }

// SetTempo changes the tempo used by future Advance calls. Callers are
// responsible for only calling this on a bar boundary (§4.A): the CLI's
// play loop holds a drained tempo message back until the next bar
// boundary is crossed before calling it.
func (tb *TimeBase) SetTempo(bpm float64) { tb.BPM = bpm }

// Advance moves the musical position forward by the beats corresponding to n
// audio frames at the current tempo and sample rate, and returns the new
// position. beats = n * bpm / (60 * sampleRate).
func (tb *TimeBase) Advance(frames int) Beat {
	if tb.SampleRate <= 0 {
		return tb.pos
	}
	beatsAdvanced := float64(frames) * tb.BPM / (60 * float64(tb.SampleRate))
	tb.pos += Beat(beatsAdvanced * TicksPerBeat)
	return tb.pos
}
