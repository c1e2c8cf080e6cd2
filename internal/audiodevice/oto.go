// Package audiodevice implements the two AudioContext/AudioSink pairs
// SPEC_FULL.md's CLI wires up: a live speaker output via
// github.com/ebitengine/oto/v3, and a headless sink for --no-audio runs. It is grounded on the teacher's oto/oto.go
// (OtoContext/OtoOutput.WriteAudio), generalized from oto v1's push-style
// Player.Write to oto v3's pull-style Player, which reads from an
// io.Reader the sink feeds through a small internal ring buffer.
package audiodevice

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/resonance-lang/resonance"
)

const sampleRate = 48000

// OtoContext opens the platform's default audio output; there is no
// device selection.
type OtoContext struct {
	ctx *oto.Context
}

// NewOtoContext blocks until the platform audio backend is ready, mirroring
// the teacher's OtoContext.Play/NewContext error-wrapping style.
func NewOtoContext() (*OtoContext, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{ctx: ctx}, nil
}

// Output opens a new AudioSink backed by an oto Player.
func (c *OtoContext) Output() (resonance.AudioSink, error) {
	r := newRingReader()
	player := c.ctx.NewPlayer(r)
	player.Play()
	return &OtoSink{player: player, ring: r}, nil
}

// Close is a no-op: oto.Context has no explicit close in v3 — its
// lifetime is tied to the process, mirroring how oto v3 is typically used.
func (c *OtoContext) Close() error { return nil }

// OtoSink pushes rendered float32 frames into the player's backing ring
// buffer.
type OtoSink struct {
	player *oto.Player
	ring   *ringReader
}

// WriteAudio pushes buffer (interleaved stereo float32) into the ring the
// player pulls from, mirroring the teacher's OtoOutput.WriteAudio.
func (s *OtoSink) WriteAudio(buffer []float32) error {
	return s.ring.pushFloat32(buffer)
}

// Close stops playback.
func (s *OtoSink) Close() error {
	return s.player.Close()
}

// ringReader is an unbounded byte queue implementing io.Reader so an
// oto.Player (a pull-based consumer) can be fed by a push-based render
// loop. It never blocks the writer: WriteAudio always appends, and Read
// returns silence if the queue underruns rather than blocking, so a slow
// render never stalls the audio callback thread.
type ringReader struct {
	mu  sync.Mutex
	buf []byte
}

func newRingReader() *ringReader {
	return &ringReader{}
}

func (r *ringReader) pushFloat32(samples []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range samples {
		bits := math.Float32bits(s)
		r.buf = append(r.buf, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}
	return nil
}

func (r *ringReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buf) == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	if n < len(p) {
		for i := n; i < len(p); i++ {
			p[i] = 0
		}
		return len(p), nil
	}
	return n, nil
}

var _ io.Reader = (*ringReader)(nil)
