package audioengine

import (
	"math"

	"github.com/resonance-lang/resonance"
)

// DrumKit renders one-shot percussive hits: each kit slot is a short
// synthesized burst (noise for hats/snares, a pitched decaying sine for
// kicks) rather than a sample player, matching this package's no-file-IO
// scope. Voices are one-shot: each hit takes a free voice from the pool, or
// steals the oldest one when none is free, since drum hits have no explicit
// release.
type DrumKit struct {
	pool     voicePool
	sample   int
	rng      uint32
	gain     float32 // "gain": overall output level, default 1
	kickGain float32 // "kick_gain": scales only the pitched (kick/tom) slots
}

// NewDrumKit creates a DrumKit rendering at the given sample rate.
func NewDrumKit(sampleRate int) *DrumKit {
	return &DrumKit{sample: sampleRate, rng: 0x9e3779b9, gain: 1, kickGain: 1}
}

// SetParam applies a resolved mapping value (component F) to this voice's
// parameters. Unrecognized paramIDs are ignored, matching a track that
// simply has no mapping declared for this instrument's slots.
func (d *DrumKit) SetParam(paramID string, value float64) {
	switch paramID {
	case "gain":
		d.gain = float32(value)
	case "kick_gain":
		d.kickGain = float32(value)
	}
}

func (d *DrumKit) Trigger(voice int, note resonance.PitchedNote) {}

func (d *DrumKit) TriggerDrum(voiceIdx int, hit resonance.DrumHit) {
	idx := d.pool.allocate()
	freq := kitSlotFreq(hit.KitSlot)
	d.pool.trigger(idx, 0, hit.Velocity, freq)
	// Percussive hits skip the attack ramp: they start at full gain and
	// decay immediately, unlike a sustained melodic note.
	d.pool.voices[idx].phase = phaseDecay
	d.pool.voices[idx].gain = 1
}

func (d *DrumKit) Release(voice int) {}

func (d *DrumKit) Render(out []float32, frames int) (int, error) {
	for i := 0; i < frames; i++ {
		var mix float32
		for vi := range d.pool.voices {
			v := &d.pool.voices[vi]
			if v.phase == phaseIdle {
				continue
			}
			gain, live := advanceEnvelope(v, d.sample)
			if !live {
				continue
			}
			voiceGain := gain
			if v.freq > 0 {
				// A pitched slot (kick/tom): apply the kick_gain mapping
				// on top of the voice's own envelope.
				voiceGain *= d.kickGain
			}
			mix += d.oscillate(v) * voiceGain
		}
		mix *= d.gain
		if 2*i+1 < len(out) {
			out[2*i] = mix
			out[2*i+1] = mix
		}
	}
	return frames, nil
}

// oscillate produces one sample for a drum voice: a decaying sine for
// pitched slots (kick/tom), white noise for unpitched slots (hat/snare).
func (d *DrumKit) oscillate(v *voice) float32 {
	if v.freq <= 0 {
		d.rng = d.rng*1664525 + 1013904223
		return (float32(d.rng>>8) / float32(1<<24) - 0.5) * 2
	}
	v.phaseAcc += v.freq / float32(d.sample)
	if v.phaseAcc >= 1 {
		v.phaseAcc -= 1
	}
	return float32(math.Sin(2 * math.Pi * float64(v.phaseAcc)))
}

// kitSlotFreq assigns a fixed pitch to the pitched kit slots and 0 (noise)
// to everything else, matching the four canonical drum-kit slots the DSL's
// step-cell grammar addresses.
func kitSlotFreq(slot string) float32 {
	switch slot {
	case "kick":
		return 55
	case "tom":
		return 110
	default: // "snare", "hat", "clap", or any unrecognized slot
		return 0
	}
}

// MonoBass is a single-voice (monophonic) low oscillator: triggering a new
// note always retriggers voice 0, matching a classic mono-synth's
// last-note-priority behavior instead of drawing from the polyphonic pool.
type MonoBass struct {
	pool   voicePool
	sample int
	gain   float32 // "gain", default 1
	filter lowpass // "cutoff"/"filter"
}

func NewMonoBass(sampleRate int) *MonoBass {
	return &MonoBass{sample: sampleRate, gain: 1, filter: newLowpass()}
}

func (m *MonoBass) SetParam(paramID string, value float64) {
	switch paramID {
	case "gain":
		m.gain = float32(value)
	case "cutoff", "filter":
		m.filter.setCutoff01(value)
	}
}

func (m *MonoBass) Trigger(voiceIdx int, note resonance.PitchedNote) {
	m.pool.trigger(0, note.MIDINumber, note.Velocity, midiToFreq(note.MIDINumber))
}
func (m *MonoBass) TriggerDrum(voiceIdx int, hit resonance.DrumHit) {}
func (m *MonoBass) Release(voiceIdx int)                           { m.pool.release(0) }

func (m *MonoBass) Render(out []float32, frames int) (int, error) {
	v := &m.pool.voices[0]
	for i := 0; i < frames; i++ {
		var sample float32
		if v.phase != phaseIdle {
			if gain, live := advanceEnvelope(v, m.sample); live {
				v.phaseAcc += v.freq / float32(m.sample)
				if v.phaseAcc >= 1 {
					v.phaseAcc -= 1
				}
				// A rounded sawtooth: cheap and bass-appropriate, this
				// engine has no anti-aliasing pass.
				sample = (2*v.phaseAcc - 1) * gain
			}
		}
		sample = m.filter.process(sample) * m.gain
		if 2*i+1 < len(out) {
			out[2*i] = sample
			out[2*i+1] = sample
		}
	}
	return frames, nil
}

// PolyPad is a full polyphonic voice pool driving a soft, slow-attack
// oscillator suited to sustained pad textures.
type PolyPad struct {
	pool   voicePool
	sample int
	active map[int]int // note -> voice index, so Release can find the right voice
	gain   float32     // "gain", default 1
	filter lowpass     // "cutoff"/"filter"
}

func NewPolyPad(sampleRate int) *PolyPad {
	return &PolyPad{
		sample: sampleRate,
		// Pre-sized to the fixed voice-pool cap: a poly pad can never
		// have more concurrently active notes than voices to hold them,
		// so the map never grows past init (§4.I "no allocation after
		// init").
		active: make(map[int]int, resonance.MaxVoicesPerTrack),
		gain:   1,
		filter: newLowpass(),
	}
}

func (p *PolyPad) SetParam(paramID string, value float64) {
	switch paramID {
	case "gain":
		p.gain = float32(value)
	case "cutoff", "filter":
		p.filter.setCutoff01(value)
	}
}

func (p *PolyPad) Trigger(voiceIdx int, note resonance.PitchedNote) {
	idx := p.pool.allocate()
	p.pool.trigger(idx, note.MIDINumber, note.Velocity, midiToFreq(note.MIDINumber))
	p.active[note.MIDINumber] = idx
}
func (p *PolyPad) TriggerDrum(voiceIdx int, hit resonance.DrumHit) {}
func (p *PolyPad) Release(voiceIdx int) {
	// voiceIdx here is the DSL's abstract slot; instruments that don't map
	// 1:1 track-slot to internal voice track note identity in `active`
	// instead, so Release is invoked with the note number encoded as
	// voiceIdx by the caller (see engine.go's dispatch).
	for note, idx := range p.active {
		if note == voiceIdx {
			p.pool.release(idx)
			delete(p.active, note)
			return
		}
	}
}

func (p *PolyPad) Render(out []float32, frames int) (int, error) {
	for i := 0; i < frames; i++ {
		var mix float32
		for vi := range p.pool.voices {
			v := &p.pool.voices[vi]
			if v.phase == phaseIdle {
				continue
			}
			gain, live := advanceEnvelope(v, p.sample)
			if !live {
				continue
			}
			v.phaseAcc += v.freq / float32(p.sample)
			if v.phaseAcc >= 1 {
				v.phaseAcc -= 1
			}
			mix += float32(math.Sin(2*math.Pi*float64(v.phaseAcc))) * gain
		}
		// This voice has no panning, so both channels always carry the
		// same signal; filter and gain once and duplicate rather than
		// running two independent filter states that would only serve
		// to decorrelate an otherwise-mono signal.
		mix = p.filter.process(mix) * p.gain
		l, r := mix, mix
		if 2*i+1 < len(out) {
			out[2*i] = l
			out[2*i+1] = r
		}
	}
	return frames, nil
}

// Pluck is a plucked-string voice: a short, decaying, noise-excited
// resonator approximated here as a fast-decaying triangle oscillator per
// voice from the shared pool; there is no Karplus-Strong delay-line string
// model.
type Pluck struct {
	pool   voicePool
	sample int
	gain   float32 // "gain", default 1
}

func NewPluck(sampleRate int) *Pluck { return &Pluck{sample: sampleRate, gain: 1} }

func (p *Pluck) SetParam(paramID string, value float64) {
	if paramID == "gain" {
		p.gain = float32(value)
	}
}

func (p *Pluck) Trigger(voiceIdx int, note resonance.PitchedNote) {
	idx := p.pool.allocate()
	p.pool.trigger(idx, note.MIDINumber, note.Velocity, midiToFreq(note.MIDINumber))
	p.pool.voices[idx].phase = phaseDecay
	p.pool.voices[idx].gain = 1
}
func (p *Pluck) TriggerDrum(voiceIdx int, hit resonance.DrumHit) {}
func (p *Pluck) Release(voiceIdx int)                           {}

func (p *Pluck) Render(out []float32, frames int) (int, error) {
	for i := 0; i < frames; i++ {
		var mix float32
		for vi := range p.pool.voices {
			v := &p.pool.voices[vi]
			if v.phase == phaseIdle {
				continue
			}
			gain, live := advanceEnvelope(v, p.sample)
			if !live {
				continue
			}
			v.phaseAcc += v.freq / float32(p.sample)
			if v.phaseAcc >= 1 {
				v.phaseAcc -= 1
			}
			tri := 2*float32(math.Abs(float64(2*v.phaseAcc-1))) - 1
			mix += tri * gain
		}
		mix *= p.gain
		if 2*i+1 < len(out) {
			out[2*i] = mix
			out[2*i+1] = mix
		}
	}
	return frames, nil
}

// Noise renders filtered white noise, gated by the pool's envelope, for
// textural/percussive layers distinct from the fixed drum-kit slots.
type Noise struct {
	pool   voicePool
	sample int
	rng    uint32
	filter lowpass // "cutoff"/"filter", default a fixed 0.3 smoothing
	gain   float32 // "gain", default 1
}

func NewNoise(sampleRate int) *Noise {
	n := &Noise{sample: sampleRate, rng: 0x2545f491, gain: 1}
	n.filter.setCutoff01(0.3)
	return n
}

func (n *Noise) SetParam(paramID string, value float64) {
	switch paramID {
	case "gain":
		n.gain = float32(value)
	case "cutoff", "filter":
		n.filter.setCutoff01(value)
	}
}

func (n *Noise) Trigger(voiceIdx int, note resonance.PitchedNote) {
	idx := n.pool.allocate()
	n.pool.trigger(idx, note.MIDINumber, note.Velocity, 0)
}
func (n *Noise) TriggerDrum(voiceIdx int, hit resonance.DrumHit) {
	idx := n.pool.allocate()
	n.pool.trigger(idx, 0, hit.Velocity, 0)
	n.pool.voices[idx].phase = phaseDecay
	n.pool.voices[idx].gain = 1
}
func (n *Noise) Release(voiceIdx int) {}

func (n *Noise) Render(out []float32, frames int) (int, error) {
	for i := 0; i < frames; i++ {
		var mix float32
		for vi := range n.pool.voices {
			v := &n.pool.voices[vi]
			if v.phase == phaseIdle {
				continue
			}
			gain, live := advanceEnvelope(v, n.sample)
			if !live {
				continue
			}
			n.rng = n.rng*1664525 + 1013904223
			white := (float32(n.rng>>8)/float32(1<<24) - 0.5) * 2
			mix += n.filter.process(white) * gain
		}
		mix *= n.gain
		if 2*i+1 < len(out) {
			out[2*i] = mix
			out[2*i+1] = mix
		}
	}
	return frames, nil
}

// NewSynth builds the Synth implementation for kind at the given sample
// rate, the audio engine's only dispatch point over InstrumentKind (§9).
func NewSynth(kind resonance.InstrumentKind, sampleRate int) resonance.Synth {
	switch kind {
	case resonance.InstrumentDrumKit:
		return NewDrumKit(sampleRate)
	case resonance.InstrumentMonoBass:
		return NewMonoBass(sampleRate)
	case resonance.InstrumentPolyPad:
		return NewPolyPad(sampleRate)
	case resonance.InstrumentPluck:
		return NewPluck(sampleRate)
	case resonance.InstrumentNoise:
		return NewNoise(sampleRate)
	default:
		return NewDrumKit(sampleRate)
	}
}
