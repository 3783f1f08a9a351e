// ABOUTME: Tests for the buffer-switch engine
// ABOUTME: Verifies byte-exact routing per format, gating, mismatch aborts and acknowledgments
package loopback

import (
	"bytes"
	"math"
	"testing"
	"unsafe"

	"github.com/asiomic/asiomic-go/internal/asiotest"
	"github.com/asiomic/asiomic-go/pkg/asio"
)

func unsafePointer(b []byte) unsafe.Pointer {
	return unsafe.Pointer(&b[0])
}

// fill writes a recognizable byte pattern into buf
func fill(buf []byte, seed byte) {
	for i := range buf {
		buf[i] = seed + byte(i*7)
	}
}

func TestBufferSwitchCopiesEveryFormat(t *testing.T) {
	tests := []struct {
		name  string
		typ   asio.SampleType
		width int
	}{
		{"int16 lsb", asio.Int16LSB, 2},
		{"int16 msb", asio.Int16MSB, 2},
		{"int24 lsb", asio.Int24LSB, 3},
		{"int24 msb", asio.Int24MSB, 3},
		{"int32 lsb", asio.Int32LSB, 4},
		{"int32 msb", asio.Int32MSB, 4},
		{"int32 lsb24", asio.Int32LSB24, 4},
		{"int32 msb16", asio.Int32MSB16, 4},
		{"float32 lsb", asio.Float32LSB, 4},
		{"float32 msb", asio.Float32MSB, 4},
		{"float64 lsb", asio.Float64LSB, 8},
		{"float64 msb", asio.Float64MSB, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := asiotest.NewDriver()
			drv.DefaultType = tt.typ
			s := newTestSession(t, drv, Config{})

			for half := 0; half < 2; half++ {
				src := drv.Buffer(0, half)
				if len(src) != s.BlockFrames()*tt.width {
					t.Fatalf("expected %d byte buffer, got %d", s.BlockFrames()*tt.width, len(src))
				}
				fill(src, byte(10+half))
			}

			if err := s.SetRoute(0, 1, 1.0); err != nil {
				t.Fatalf("unexpected route error: %v", err)
			}

			drv.Callbacks().BufferSwitch(1, true)

			if !bytes.Equal(drv.Buffer(2+1, 1), drv.Buffer(0, 1)) {
				t.Error("expected output 1 to equal input 0 for half 1")
			}
			if !bytes.Equal(drv.Buffer(2+1, 0), make([]byte, len(drv.Buffer(0, 0)))) {
				t.Error("expected other half to stay untouched")
			}
			if !bytes.Equal(drv.Buffer(2+0, 1), make([]byte, len(drv.Buffer(0, 1)))) {
				t.Error("expected unrouted output 0 to stay untouched")
			}
		})
	}
}

func TestBufferSwitchIgnoresLevelMagnitude(t *testing.T) {
	for _, level := range []float64{0.001, 0.5, 1, 4} {
		drv := asiotest.NewDriver()
		drv.DefaultType = asio.Float32LSB
		s := newTestSession(t, drv, Config{})

		fill(drv.Buffer(0, 0), 3)
		s.SetRoute(0, 0, level)
		drv.Callbacks().BufferSwitch(0, false)

		if !bytes.Equal(drv.Buffer(2, 0), drv.Buffer(0, 0)) {
			t.Errorf("expected unscaled copy at level %v", level)
		}
	}
}

func TestBufferSwitchGateClosed(t *testing.T) {
	for _, level := range []float64{0, -1, math.NaN()} {
		drv := asiotest.NewDriver()
		s := newTestSession(t, drv, Config{})

		fill(drv.Buffer(0, 0), 1)
		out := drv.Buffer(2, 0)
		fill(out, 200)
		before := append([]byte(nil), out...)

		s.SetRoute(0, 0, level)
		drv.Callbacks().BufferSwitch(0, false)

		if !bytes.Equal(drv.Buffer(2, 0), before) {
			t.Errorf("expected output untouched at level %v", level)
		}
	}
}

func TestBufferSwitchMismatchAborts(t *testing.T) {
	drv := asiotest.NewDriver()
	// in0 Int32LSB, in1 Int32LSB, out0 Int16LSB, out1 Int32LSB
	drv.Types = []asio.SampleType{asio.Int32LSB, asio.Int32LSB, asio.Int16LSB, asio.Int32LSB}
	s := newTestSession(t, drv, Config{})

	fill(drv.Buffer(0, 0), 5)
	fill(drv.Buffer(1, 0), 9)

	s.SetRoute(0, 0, 1) // mismatched, aborts
	s.SetRoute(0, 1, 1) // later pair, must not run
	s.SetRoute(1, 1, 1)

	drv.Callbacks().BufferSwitch(0, false)

	if !bytes.Equal(drv.Buffer(3, 0), make([]byte, len(drv.Buffer(3, 0)))) {
		t.Error("expected no copy after the mismatched pair")
	}
	stats := s.Stats()
	if stats.FormatMismatches != 1 {
		t.Errorf("expected 1 mismatch, got %d", stats.FormatMismatches)
	}
	if stats.OutputReadyAcks != 0 || drv.OutputReadyCount() != 0 {
		t.Error("expected no output-ready acknowledgment on an aborted block")
	}

	if n := s.ResetFormatMismatches(); n != 1 {
		t.Errorf("expected reset to return 1, got %d", n)
	}
	if s.Stats().FormatMismatches != 0 {
		t.Error("expected mismatches to be cleared")
	}
}

func TestBufferSwitchEarlierPairsSurviveMismatch(t *testing.T) {
	drv := asiotest.NewDriver()
	drv.Types = []asio.SampleType{asio.Int32LSB, asio.Int32LSB, asio.Int32LSB, asio.Int16LSB}
	s := newTestSession(t, drv, Config{})

	fill(drv.Buffer(0, 0), 5)
	s.SetRoute(0, 0, 1)
	s.SetRoute(0, 1, 1)

	drv.Callbacks().BufferSwitch(0, false)

	if !bytes.Equal(drv.Buffer(2, 0), drv.Buffer(0, 0)) {
		t.Error("expected pair before the mismatch to be copied")
	}
	if s.Stats().FormatMismatches != 1 {
		t.Errorf("expected 1 mismatch, got %d", s.Stats().FormatMismatches)
	}
}

func TestBufferSwitchUnsupportedFormat(t *testing.T) {
	drv := asiotest.NewDriver()
	drv.DefaultType = asio.DSDInt8LSB1
	s := newTestSession(t, drv, Config{})

	fill(drv.Buffer(0, 0), 1)
	s.SetRoute(0, 0, 1)
	drv.Callbacks().BufferSwitch(0, false)

	if !bytes.Equal(drv.Buffer(2, 0), make([]byte, len(drv.Buffer(2, 0)))) {
		t.Error("expected unsupported format not to be copied")
	}
	stats := s.Stats()
	if stats.UnsupportedFormats != 1 {
		t.Errorf("expected 1 unsupported pair, got %d", stats.UnsupportedFormats)
	}
	if stats.OutputReadyAcks != 1 {
		t.Errorf("expected block to be acknowledged, got %d", stats.OutputReadyAcks)
	}
}

func TestBufferSwitchFanOutAndMix(t *testing.T) {
	drv := asiotest.NewDriver()
	s := newTestSession(t, drv, Config{})

	fill(drv.Buffer(0, 0), 1)
	fill(drv.Buffer(1, 0), 50)

	// one input to both outputs
	s.SetRoute(0, 0, 1)
	s.SetRoute(0, 1, 1)
	drv.Callbacks().BufferSwitch(0, false)

	if !bytes.Equal(drv.Buffer(2, 0), drv.Buffer(0, 0)) || !bytes.Equal(drv.Buffer(3, 0), drv.Buffer(0, 0)) {
		t.Error("expected input 0 on both outputs")
	}

	// two inputs to one output: later input wins
	s.Matrix().Clear()
	s.SetRoute(0, 0, 1)
	s.SetRoute(1, 0, 1)
	drv.Callbacks().BufferSwitch(0, false)

	if !bytes.Equal(drv.Buffer(2, 0), drv.Buffer(1, 0)) {
		t.Error("expected the higher-indexed input to overwrite the output")
	}
}

func TestBufferSwitchAcknowledges(t *testing.T) {
	drv := asiotest.NewDriver()
	s := newTestSession(t, drv, Config{})

	for i := 0; i < 10; i++ {
		drv.Callbacks().BufferSwitch(i%2, true)
	}

	stats := s.Stats()
	if stats.Cycles != 10 {
		t.Errorf("expected 10 cycles, got %d", stats.Cycles)
	}
	if stats.OutputReadyAcks != 10 || drv.OutputReadyCount() != 10 {
		t.Errorf("expected 10 acknowledgments, got %d/%d", stats.OutputReadyAcks, drv.OutputReadyCount())
	}
}

func TestBufferSwitchInvalidIndex(t *testing.T) {
	drv := asiotest.NewDriver()
	s := newTestSession(t, drv, Config{})
	s.SetRoute(0, 0, 1)

	drv.Callbacks().BufferSwitch(2, true)
	drv.Callbacks().BufferSwitch(-1, true)

	if s.Stats().Cycles != 0 {
		t.Errorf("expected invalid indices to be ignored, got %d cycles", s.Stats().Cycles)
	}
}

func TestBufferSwitchTimeInfo(t *testing.T) {
	drv := asiotest.NewDriver()
	s := newTestSession(t, drv, Config{})

	fill(drv.Buffer(1, 1), 42)
	s.SetRoute(1, 0, 1)

	result := drv.Callbacks().BufferSwitchTimeInfo(&asio.Time{SampleRate: 48000}, 1, true)
	if result != nil {
		t.Error("expected nil time result")
	}
	if !bytes.Equal(drv.Buffer(2, 1), drv.Buffer(1, 1)) {
		t.Error("expected timed switch to route")
	}
}

func TestCopyBlockWidths(t *testing.T) {
	tests := []struct {
		typ   asio.SampleType
		bytes int
	}{
		{asio.Int16LSB, 2 * 8},
		{asio.Int24LSB, 3 * 8},
		{asio.Int32LSB, 4 * 8},
		{asio.Float32LSB, 4 * 8},
		{asio.Float64LSB, 8 * 8},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			src := make([]byte, 128)
			dst := make([]byte, 128)
			fill(src, 1)

			if !copyBlock(tt.typ, unsafePointer(dst), unsafePointer(src), 8) {
				t.Fatal("expected copy to succeed")
			}
			if !bytes.Equal(dst[:tt.bytes], src[:tt.bytes]) {
				t.Error("expected copied prefix to match")
			}
			if !bytes.Equal(dst[tt.bytes:], make([]byte, 128-tt.bytes)) {
				t.Errorf("expected exactly %d bytes copied", tt.bytes)
			}
		})
	}

	if copyBlock(asio.DSDInt8NER8, unsafePointer(make([]byte, 8)), unsafePointer(make([]byte, 8)), 8) {
		t.Error("expected DSD copy to be rejected")
	}
}

func BenchmarkBufferSwitch(b *testing.B) {
	drv := asiotest.NewDriver()
	drv.Inputs = 8
	drv.Outputs = 8
	drv.BufferSize.Min = 256
	s, err := New(drv, Config{})
	if err != nil {
		b.Fatal(err)
	}
	defer s.Release()
	for i := 0; i < 8; i++ {
		s.SetRoute(i, i, 1)
	}
	bufferSwitch := drv.Callbacks().BufferSwitch

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bufferSwitch(i&1, true)
	}
}
