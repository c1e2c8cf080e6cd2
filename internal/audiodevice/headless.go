package audiodevice

import "github.com/resonance-lang/resonance"

// HeadlessContext backs --no-audio runs: it opens sinks that discard or
// accumulate rendered frames instead of reaching a real audio device, so
// the compiler/scheduler/engine pipeline can run in CI without a sound
// card. (--eval renders no audio; it only dumps the event timeline.)
type HeadlessContext struct {
	Accumulate bool
}

// Output opens a HeadlessSink. When Accumulate is set, the sink retains
// every frame written so the caller can inspect it after the run;
// otherwise frames are discarded immediately. The CLI's --no-audio path
// leaves Accumulate unset.
func (c *HeadlessContext) Output() (resonance.AudioSink, error) {
	return &HeadlessSink{accumulate: c.Accumulate}, nil
}

func (c *HeadlessContext) Close() error { return nil }

// HeadlessSink implements resonance.AudioSink without touching any real
// device.
type HeadlessSink struct {
	accumulate bool
	Frames     []float32
	closed     bool
}

func (s *HeadlessSink) WriteAudio(buffer []float32) error {
	if s.accumulate {
		s.Frames = append(s.Frames, buffer...)
	}
	return nil
}

func (s *HeadlessSink) Close() error {
	s.closed = true
	return nil
}
