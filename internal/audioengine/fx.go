package audioengine

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// FXChain is the mix bus's fixed-order effects chain: drive, then delay,
// then reverb, then sidechain ducking, matching the fixed-order,
// no-reordering unit chain the teacher's patches express (a Sointu patch
// is itself an ordered instrument/unit list; this chain plays the same
// role at the mix-bus level rather than per-voice). Every stage processes
// the interleaved stereo buffer in place; gain scaling uses vek32 the way
// tracker/detector.go and tracker/spectrum.go use it for their per-block
// array math.
type FXChain struct {
	sampleRate int
	Drive      DriveStage
	Delay      *DelayLine
	Reverb     *Reverb
	Sidechain  SidechainStage
}

// NewFXChain builds the chain at sampleRate with a 0.45 s delay time; drive,
// sidechain depth and the delay and reverb wet mixes all start at 0, so the
// default chain leaves the signal dry.
func NewFXChain(sampleRate int) *FXChain {
	return &FXChain{
		sampleRate: sampleRate,
		Drive:      DriveStage{Amount: 0},
		Delay:      NewDelayLine(sampleRate, 0.45, 0.0),
		Reverb:     NewReverb(sampleRate, 0.0),
		Sidechain:  SidechainStage{Depth: 0},
	}
}

// Process runs buf (interleaved stereo) through the chain in fixed order.
func (c *FXChain) Process(buf []float32) {
	c.Drive.Process(buf)
	c.Delay.Process(buf)
	c.Reverb.Process(buf)
	c.Sidechain.Process(buf)
}

// DriveStage is a soft-clip saturator. Amount in [0,1]; 0 is a no-op pass
// through the buffer unmodified.
type DriveStage struct {
	Amount float64
}

func (d DriveStage) Process(buf []float32) {
	if d.Amount <= 0 {
		return
	}
	drive := float32(1 + 9*d.Amount)
	for i, s := range buf {
		x := s * drive
		buf[i] = float32(math.Tanh(float64(x))) / drive * (1 + float32(d.Amount))
	}
}

// DelayLine is a fixed-size, non-allocating feedback delay, grounded on
// the teacher's delayline struct in vm/go_synth.go (a fixed [65536]float32
// ring buffer with a write cursor and feedback state), generalized here to
// a stereo ring with configurable delay time and wet mix and a fixed
// feedback of 0.35.
type DelayLine struct {
	buffer   []float32 // interleaved stereo ring, length = 2*sampleRate*maxSeconds
	pos      int
	seconds  float64
	feedback float64
	mix      float64
}

const maxDelaySeconds = 2.0

// NewDelayLine creates a stereo delay of the given time (seconds) with its
// feedback fixed at 0.35; mix is the wet/dry blend in [0,1].
func NewDelayLine(sampleRate int, seconds, mix float64) *DelayLine {
	frames := int(maxDelaySeconds * float64(sampleRate))
	return &DelayLine{
		buffer:   make([]float32, 2*frames),
		seconds:  seconds,
		feedback: 0.35,
		mix:      mix,
	}
}

func (d *DelayLine) Process(buf []float32) {
	if d.mix <= 0 || len(d.buffer) == 0 {
		return
	}
	delayFrames := int(d.seconds * float64(len(d.buffer)/2) / maxDelaySeconds)
	if delayFrames <= 0 {
		return
	}
	n := len(d.buffer)
	for i := 0; i+1 < len(buf); i += 2 {
		readPos := (d.pos - 2*delayFrames + n) % n
		wetL := d.buffer[readPos]
		wetR := d.buffer[readPos+1]
		d.buffer[d.pos] = buf[i] + wetL*float32(d.feedback)
		d.buffer[d.pos+1] = buf[i+1] + wetR*float32(d.feedback)
		buf[i] = buf[i]*float32(1-d.mix) + wetL*float32(d.mix)
		buf[i+1] = buf[i+1]*float32(1-d.mix) + wetR*float32(d.mix)
		d.pos = (d.pos + 2) % n
	}
}

// Reverb is a cheap Schroeder-style reverb: a bank of comb filters summed
// in parallel, with no allpass diffusion stage. It reuses DelayLine's
// ring-buffer approach at a set of fixed, mutually-prime delay times so
// the comb resonances don't reinforce each other.
type Reverb struct {
	combs    []*DelayLine
	mix      float64
	tmp      []float32
	voiceBuf []float32
}

var combSeconds = []float64{0.0297, 0.0371, 0.0411, 0.0437}

// NewReverb creates a reverb at sampleRate with the given wet mix in
// [0,1].
func NewReverb(sampleRate int, mix float64) *Reverb {
	r := &Reverb{mix: mix}
	for _, s := range combSeconds {
		r.combs = append(r.combs, NewDelayLine(sampleRate, s, 1.0))
	}
	return r
}

func (r *Reverb) Process(buf []float32) {
	if r.mix <= 0 || len(r.combs) == 0 {
		return
	}
	if cap(r.tmp) < len(buf) {
		r.tmp = make([]float32, len(buf))
	}
	if cap(r.voiceBuf) < len(buf) {
		r.voiceBuf = make([]float32, len(buf))
	}
	sum := r.tmp[:len(buf)]
	voice := r.voiceBuf[:len(buf)]
	clear(sum)
	for _, comb := range r.combs {
		copy(voice, buf)
		comb.Process(voice)
		vek32.Add_Inplace(sum, voice)
	}
	vek32.MulNumber_Inplace(sum, float32(1.0/float64(len(r.combs))))
	dry := float32(1 - r.mix)
	wet := float32(r.mix)
	for i := range buf {
		buf[i] = buf[i]*dry + sum[i]*wet
	}
}

// SidechainStage ducks the mix bus's gain in proportion to Depth,
// approximating a kick-triggered sidechain compressor by ducking on every
// callback rather than tracking a real trigger track; a genuine
// event-triggered envelope follower is future work (kept out of scope:
// this stage exists to give the DSL's `sidechain` macro target a
// destination, per SPEC_FULL.md's domain-stack wiring).
type SidechainStage struct {
	Depth float64
}

func (s SidechainStage) Process(buf []float32) {
	if s.Depth <= 0 {
		return
	}
	gain := float32(1 - s.Depth)
	vek32.MulNumber_Inplace(buf, gain)
}
