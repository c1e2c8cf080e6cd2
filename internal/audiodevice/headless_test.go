package audiodevice

import "testing"

func TestHeadlessSinkDiscardsByDefault(t *testing.T) {
	ctx := &HeadlessContext{}
	sink, err := ctx.Output()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sink.WriteAudio([]float32{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hs := sink.(*HeadlessSink)
	if len(hs.Frames) != 0 {
		t.Fatalf("expected discarded frames, got %v", hs.Frames)
	}
}

func TestHeadlessSinkAccumulatesWhenRequested(t *testing.T) {
	ctx := &HeadlessContext{Accumulate: true}
	sink, _ := ctx.Output()
	sink.WriteAudio([]float32{1, 2})
	sink.WriteAudio([]float32{3, 4})
	hs := sink.(*HeadlessSink)
	want := []float32{1, 2, 3, 4}
	if len(hs.Frames) != len(want) {
		t.Fatalf("got %v want %v", hs.Frames, want)
	}
	for i := range want {
		if hs.Frames[i] != want[i] {
			t.Fatalf("got %v want %v", hs.Frames, want)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hs.closed {
		t.Fatalf("expected Close to mark sink closed")
	}
}

func TestRingReaderReturnsSilenceOnUnderrun(t *testing.T) {
	r := newRingReader()
	p := make([]byte, 16)
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(p) {
		t.Fatalf("expected a full silent read on underrun, got %d bytes", n)
	}
	for _, b := range p {
		if b != 0 {
			t.Fatalf("expected silence, got %v", p)
		}
	}
}

func TestRingReaderDrainsPushedSamples(t *testing.T) {
	r := newRingReader()
	if err := r.pushFloat32([]float32{1, 0, -1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buf := make([]byte, 12) // 3 float32s
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 12 {
		t.Fatalf("expected 12 bytes read, got %d", n)
	}
}
