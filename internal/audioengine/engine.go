package audioengine

import (
	"github.com/resonance-lang/resonance"
	"github.com/resonance-lang/resonance/internal/resolver"
)

// Engine is the audio-thread runtime (component I): one Synth per compiled
// track, fed events by its caller through Dispatch, and a fixed FX chain
// plus limiter on the mix bus. Render allocates only to grow its scratch
// buffer, so once that buffer fits the block size it no longer allocates,
// mirroring the teacher's MultithreadSynth.Render's "no allocation in the
// hot path" contract (vm/multithread_synth.go), simplified here to a
// single-threaded mix since Resonance's polyphony budget is small enough
// not to need per-core sharding.
type Engine struct {
	sampleRate int
	tracks     []trackVoice
	trackIdx   map[int]int
	scratch    []float32

	Chain   *FXChain
	Limiter *Limiter
}

type trackVoice struct {
	trackID int
	synth   resonance.Synth
}

// New creates an Engine for the given bundle at sampleRate, instantiating
// one Synth per declared track (§9's closed InstrumentKind dispatch).
func New(bundle *resonance.Bundle, sampleRate int) *Engine {
	e := &Engine{
		sampleRate: sampleRate,
		trackIdx:   make(map[int]int, len(bundle.Tracks)),
		Chain:      NewFXChain(sampleRate),
		Limiter:    NewLimiter(sampleRate),
	}
	for _, t := range bundle.Tracks {
		e.trackIdx[t.ID] = len(e.tracks)
		e.tracks = append(e.tracks, trackVoice{trackID: t.ID, synth: NewSynth(t.Instrument, sampleRate)})
	}
	return e
}

// Dispatch applies one already-due event to the owning track's Synth. The
// caller (the audio callback loop) is responsible for calling this only
// for events whose Time has arrived, in the composite-sorted order
// Bundle.Events guarantees (§3).
func (e *Engine) Dispatch(ev resonance.Event) {
	i, ok := e.trackIdx[ev.TrackID]
	if !ok {
		return
	}
	synth := e.tracks[i].synth
	switch ev.Kind {
	case resonance.PayloadDrumHit:
		synth.TriggerDrum(0, ev.Drum)
	case resonance.PayloadPitchedNote:
		if ev.Duration == 0 {
			synth.Trigger(0, ev.Note)
		} else {
			synth.Trigger(ev.Note.MIDINumber, ev.Note)
		}
	case resonance.PayloadParamPoint:
		// Parameter automation points are consumed by the resolver's
		// per-callback poll, not by the Synth interface; nothing to
		// dispatch to the voice pool here.
	}
}

// ApplyParams pushes one callback's worth of resolved mapping values
// (component F's Resolve output) onto the render path: a track-scoped
// value reaches that track's Synth.SetParam, a process-wide value reaches
// a known FXChain control. This is what gives a `map x -> track.cutoff`
// declaration an audible effect, closing the loop from macro through
// resolver to render.
func (e *Engine) ApplyParams(values map[resolver.TargetKey]float64) {
	for k, v := range values {
		if k.HasTrack {
			if i, ok := e.trackIdx[k.TrackID]; ok {
				e.tracks[i].synth.SetParam(k.ParamID, v)
			}
			continue
		}
		switch k.ParamID {
		case "drive":
			e.Chain.Drive.Amount = v
		case "wet", "reverb":
			e.Chain.Reverb.mix = v
		case "delay", "delay_mix":
			e.Chain.Delay.mix = v
		case "sidechain":
			e.Chain.Sidechain.Depth = v
		}
	}
}

// ReleaseNote stops a sustained note on trackID, used when a pattern's
// note duration elapses; voiceIdx must be the MIDI note number for
// polyphonic instruments (see PolyPad.Release) or is ignored otherwise.
func (e *Engine) ReleaseNote(trackID, voiceIdx int) {
	i, ok := e.trackIdx[trackID]
	if !ok {
		return
	}
	e.tracks[i].synth.Release(voiceIdx)
}

// Render mixes every track's Synth into out (interleaved stereo, len ==
// 2*frames), runs the fixed FX chain, and applies the limiter, matching
// the teacher's "accumulate into a shared buffer, order doesn't affect
// correctness only float rounding" mixing model
// (vm/multithread_synth.go's Render).
func (e *Engine) Render(out []float32, frames int) (int, error) {
	need := 2 * frames
	if cap(e.scratch) < need {
		e.scratch = make([]float32, need)
	}
	scratch := e.scratch[:need]
	for i := range out[:need] {
		out[i] = 0
	}
	for _, tv := range e.tracks {
		clear(scratch)
		n, err := tv.synth.Render(scratch, frames)
		if err != nil {
			return n, err
		}
		for i := 0; i < 2*n && i < need; i++ {
			out[i] += scratch[i]
		}
	}
	e.Chain.Process(out[:need])
	e.Limiter.Process(out[:need])
	return frames, nil
}
