// ABOUTME: Tests for the streaming resampler
// ABOUTME: Verifies continuity across chunks, interpolation and the source wrapper
package resample

import "testing"

func TestResampleIdentityIsContinuous(t *testing.T) {
	r := New(48000, 48000, 1)

	out := make([]int32, 32)
	n := r.Resample([]int32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, out)
	if n != 9 {
		t.Fatalf("expected 9 samples, got %d", n)
	}
	for i := 0; i < n; i++ {
		if out[i] != int32(i) {
			t.Errorf("sample %d: expected %d, got %d", i, i, out[i])
		}
	}

	n = r.Resample([]int32{10, 11, 12}, out)
	expected := []int32{9, 10, 11}
	if n != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), n)
	}
	for i, want := range expected {
		if out[i] != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, out[i])
		}
	}
}

func TestResampleUpsample(t *testing.T) {
	r := New(24000, 48000, 1)

	out := make([]int32, 16)
	n := r.Resample([]int32{0, 100, 200}, out)

	expected := []int32{0, 50, 100, 150}
	if n != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), n)
	}
	for i, want := range expected {
		if out[i] != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, out[i])
		}
	}
}

func TestResampleDownsampleStereo(t *testing.T) {
	r := New(96000, 48000, 2)

	input := []int32{
		0, 0,
		10, -10,
		20, -20,
		30, -30,
		40, -40,
	}
	out := make([]int32, r.OutputSamplesNeeded(len(input)))
	n := r.Resample(input, out)

	expected := []int32{0, 0, 20, -20}
	if n != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), n)
	}
	for i, want := range expected {
		if out[i] != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, out[i])
		}
	}
}

func TestResampleReset(t *testing.T) {
	r := New(48000, 48000, 1)
	out := make([]int32, 8)
	r.Resample([]int32{5, 6, 7}, out)
	r.Reset()

	n := r.Resample([]int32{1, 2}, out)
	if n != 1 || out[0] != 1 {
		t.Errorf("expected restart from first frame, got n=%d out=%v", n, out[:n])
	}
}

func TestSamplesNeeded(t *testing.T) {
	r := New(44100, 48000, 2)

	if got := r.InputSamplesNeeded(960); got < 2*441 {
		t.Errorf("expected at least 882 input samples for 480 frames, got %d", got)
	}
	if got := r.OutputSamplesNeeded(882); got < 960 {
		t.Errorf("expected room for at least 960 output samples, got %d", got)
	}
}

type rampSource struct {
	rate     int
	next     int32
	channels int
	closed   bool
}

func (s *rampSource) Read(samples []int32) (int, error) {
	frames := len(samples) / s.channels
	for i := 0; i < frames; i++ {
		for c := 0; c < s.channels; c++ {
			samples[i*s.channels+c] = s.next
		}
		s.next += 100
	}
	return frames * s.channels, nil
}
func (s *rampSource) SampleRate() int { return s.rate }
func (s *rampSource) Channels() int   { return s.channels }
func (s *rampSource) Close() error    { s.closed = true; return nil }

func TestSourcePassthrough(t *testing.T) {
	src := &rampSource{rate: 48000, channels: 2}
	if wrapped := NewSource(src, 48000); wrapped != Reader(src) {
		t.Error("expected source at the target rate to be returned as is")
	}
}

func TestSourceFillsRequests(t *testing.T) {
	src := &rampSource{rate: 24000, channels: 2}
	s := NewSource(src, 48000)

	if s.SampleRate() != 48000 || s.Channels() != 2 {
		t.Errorf("expected 48000Hz stereo, got %dHz %dch", s.SampleRate(), s.Channels())
	}

	var all []int32
	for i := 0; i < 5; i++ {
		block := make([]int32, 64)
		n, err := s.Read(block)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != len(block) {
			t.Fatalf("expected full block of %d, got %d", len(block), n)
		}
		all = append(all, block...)
	}

	// a ramp upsampled by two rises by 50 per output frame
	for i := 2; i < len(all); i += 2 {
		if diff := all[i] - all[i-2]; diff != 50 {
			t.Fatalf("frame %d: expected step of 50, got %d", i/2, diff)
		}
		if all[i] != all[i+1] {
			t.Fatalf("frame %d: expected identical channels", i/2)
		}
	}

	s.Close()
	if !src.closed {
		t.Error("expected close to reach the wrapped source")
	}
}
