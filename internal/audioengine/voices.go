// Package audioengine renders a compiled Bundle's events into audio. It is
// grounded on the teacher's vm.GoSynth (vm/go_synth.go): a fixed-size
// [MaxVoicesPerTrack]voice array per instrument, Trigger resets a voice's
// state and starts it sustaining, Release flips it to its release phase,
// and Render walks every live voice each callback with no allocation.
// Sointu's bytecode-interpreted unit graph is replaced here by a small
// closed set of InstrumentKind-specific synthesis routines (§9 "no
// open-ended plugin dispatch"), since Resonance has no patch VM.
package audioengine

import (
	"math"

	"github.com/resonance-lang/resonance"
)

// envPhase is a voice's coarse envelope phase, mirroring the teacher's
// envStateAttack/Decay/Sustain/Release constants in go_synth.go.
type envPhase int

const (
	phaseIdle envPhase = iota
	phaseAttack
	phaseDecay
	phaseSustain
	phaseRelease
)

// voice is one polyphonic slot. Every instrument kind keeps a fixed array
// of these; an idle voice has phase == phaseIdle.
type voice struct {
	phase    envPhase
	note     int
	velocity float32
	gain     float32 // current envelope gain, updated once per sample
	startAt  uint64  // monotonic trigger ordinal, used to steal the oldest voice
	phaseAcc float32 // oscillator phase accumulator, cycles in [0,1)
	freq     float32
}

// voicePool is the fixed, non-growing allocator that every instrument kind
// in instruments.go (drum kit, mono-bass, poly-pad, pluck, noise) draws its
// voices from.
type voicePool struct {
	voices [resonance.MaxVoicesPerTrack]voice
	clock  uint64
}

// allocate finds a voice for a new trigger: the first idle voice if one
// exists, otherwise the oldest voice not in its release phase (lowest
// startAt), or the oldest voice overall when every voice is releasing,
// matching the teacher's "no dynamic growth, steal on exhaustion" voice
// model.
func (p *voicePool) allocate() int {
	for i := range p.voices {
		if p.voices[i].phase == phaseIdle {
			return i
		}
	}
	oldest, oldestAny := -1, 0
	for i := range p.voices {
		if p.voices[i].startAt < p.voices[oldestAny].startAt {
			oldestAny = i
		}
		if p.voices[i].phase != phaseRelease && (oldest < 0 || p.voices[i].startAt < p.voices[oldest].startAt) {
			oldest = i
		}
	}
	if oldest < 0 {
		return oldestAny
	}
	return oldest
}

// trigger resets voice idx's state and starts it attacking, mirroring
// GoSynth.Trigger's "s.state.voices[voiceIndex] = voice{}" reset-then-set
// pattern.
func (p *voicePool) trigger(idx int, note int, velocity float32, freq float32) {
	p.clock++
	p.voices[idx] = voice{
		phase:    phaseAttack,
		note:     note,
		velocity: velocity,
		startAt:  p.clock,
		freq:     freq,
	}
}

// release moves voice idx into its release phase, mirroring
// GoSynth.Release's sustain-flag flip.
func (p *voicePool) release(idx int) {
	if idx < 0 || idx >= len(p.voices) {
		return
	}
	if p.voices[idx].phase != phaseIdle {
		p.voices[idx].phase = phaseRelease
	}
}

// envelope constants shared by every melodic voice: short attack/decay,
// sustain at unity gain, and a release tail before the voice goes idle.
// expressed in samples-per-stage-at-48kHz-equivalent fractions rather than
// fixed sample counts, so a voice's stage advances at the same musical
// rate regardless of sample rate.
const (
	attackSeconds  = 0.004
	decaySeconds   = 0.05
	sustainLevel   = float32(0.8)
	releaseSeconds = 0.25
)

// advanceEnvelope steps voice v's envelope gain forward by one sample at
// the given sample rate, returning the new gain and whether the voice is
// still live (false once a released voice's tail has fully decayed).
func advanceEnvelope(v *voice, sampleRate int) (float32, bool) {
	if v.phase == phaseIdle {
		return 0, false
	}
	step := func(seconds float64) float32 {
		if sampleRate <= 0 || seconds <= 0 {
			return 1
		}
		return float32(1.0 / (seconds * float64(sampleRate)))
	}
	switch v.phase {
	case phaseAttack:
		v.gain += step(attackSeconds)
		if v.gain >= 1 {
			v.gain = 1
			v.phase = phaseDecay
		}
	case phaseDecay:
		v.gain -= step(decaySeconds) * (1 - sustainLevel)
		if v.gain <= sustainLevel {
			v.gain = sustainLevel
			v.phase = phaseSustain
		}
	case phaseSustain:
		v.gain = sustainLevel
	case phaseRelease:
		v.gain -= step(releaseSeconds) * sustainLevel
		if v.gain <= 0 {
			v.gain = 0
			v.phase = phaseIdle
			return 0, false
		}
	}
	return v.gain * v.velocity, true
}

// midiToFreq converts a MIDI note number to frequency in Hz, A4 (69) = 440Hz.
func midiToFreq(note int) float32 {
	return float32(440.0 * math.Exp2((float64(note)-69.0)/12.0))
}

// lowpass is a one-pole low-pass filter shared by the instrument kinds
// that expose a "cutoff"/"filter" parameter, so a resolved mapping value
// (component F) has somewhere to land on the audio thread. coeff of 1 is
// a full bypass; smaller values smooth (darken) the signal more.
type lowpass struct {
	state float32
	coeff float32
}

func newLowpass() lowpass { return lowpass{coeff: 1} }

// setCutoff01 maps a normalized [0,1] resolved value onto the filter
// coefficient: 0 is heavily smoothed, 1 is a bypass. Floored above zero so
// the filter never fully latches the signal at silence.
func (f *lowpass) setCutoff01(v float64) {
	c := float32(resonance.Clamp01(v))
	if c < 0.02 {
		c = 0.02
	}
	f.coeff = c
}

func (f *lowpass) process(x float32) float32 {
	f.state += (x - f.state) * f.coeff
	return f.state
}
