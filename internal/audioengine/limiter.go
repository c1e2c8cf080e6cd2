package audioengine

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// Limiter is a look-ahead brickwall limiter on the mix bus: incoming
// samples are held in a fixed ring for lookaheadSeconds before being
// emitted, and the emitted sample's gain is derived from the peak
// anywhere within that whole lookahead window — including samples that
// haven't been emitted yet — so gain reduction is always already in
// effect by the time a transient reaches the output. The ring reuses the
// same fixed-buffer approach as DelayLine (grounded on vm/go_synth.go's
// delayline), sized once at construction and never reallocated.
type Limiter struct {
	ring    []float32 // interleaved stereo lookahead delay
	absRing []float32 // parallel per-sample |L|,|R| peaks for the window scan
	pos     int

	ceiling          float32
	releasePerSample float32
	gain             float32
}

const (
	lookaheadSeconds     = 0.005
	ceilingDBFS          = -0.3
	limiterReleaseSecond = 0.06 // >= the 50ms floor this engine guarantees
)

// NewLimiter creates a Limiter at sampleRate with the fixed ceiling and
// release time this package guarantees.
func NewLimiter(sampleRate int) *Limiter {
	frames := int(lookaheadSeconds * float64(sampleRate))
	if frames < 1 {
		frames = 1
	}
	ceiling := float32(math.Pow(10, ceilingDBFS/20))
	return &Limiter{
		ring:             make([]float32, 2*frames),
		absRing:          make([]float32, 2*frames),
		ceiling:          ceiling,
		releasePerSample: 1.0 / float32(limiterReleaseSecond*float64(sampleRate)),
		gain:             1,
	}
}

// Process applies look-ahead limiting to buf (interleaved stereo) in
// place.
func (l *Limiter) Process(buf []float32) {
	n := len(l.ring)
	if n == 0 {
		return
	}
	for i := 0; i+1 < len(buf); i += 2 {
		outL, outR := l.ring[l.pos], l.ring[l.pos+1]
		// Scan before this slot is overwritten so the window still holds
		// the sample being emitted, then fold in the incoming pair.
		windowMax := vek32.Max(l.absRing)
		inL, inR := absf(buf[i]), absf(buf[i+1])
		if inL > windowMax {
			windowMax = inL
		}
		if inR > windowMax {
			windowMax = inR
		}
		l.ring[l.pos], l.ring[l.pos+1] = buf[i], buf[i+1]
		l.absRing[l.pos], l.absRing[l.pos+1] = inL, inR
		l.pos = (l.pos + 2) % n

		targetGain := float32(1)
		if windowMax > l.ceiling {
			targetGain = l.ceiling / windowMax
		}
		if targetGain < l.gain {
			l.gain = targetGain // instantaneous attack: never let a peak through
		} else {
			l.gain += l.releasePerSample
			if l.gain > targetGain {
				l.gain = targetGain
			}
			if l.gain > 1 {
				l.gain = 1
			}
		}

		buf[i] = outL * l.gain
		buf[i+1] = outR * l.gain
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
