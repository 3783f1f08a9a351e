// ABOUTME: Tests for audio types
// ABOUTME: Tests 16-bit and packed 24-bit sample conversions
package audio

import "testing"

func TestInt16Conversions(t *testing.T) {
	tests := []struct {
		name   string
		int16  int16
		sample int32
	}{
		{"zero", 0, 0},
		{"positive", 100, 100 << 8},
		{"negative", -100, -100 << 8},
		{"max", 32767, 32767 << 8},
		{"min", -32768, Min24Bit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SampleFromInt16(tt.int16); got != tt.sample {
				t.Errorf("expected %d, got %d", tt.sample, got)
			}
			if got := SampleToInt16(tt.sample); got != tt.int16 {
				t.Errorf("expected %d, got %d", tt.int16, got)
			}
		})
	}
}

func TestSampleToInt16Truncates(t *testing.T) {
	// 1000000 >> 8 = 3906, -1000000 >> 8 rounds toward negative infinity
	if got := SampleToInt16(1000000); got != 3906 {
		t.Errorf("expected 3906, got %d", got)
	}
	if got := SampleToInt16(-1000000); got != -3907 {
		t.Errorf("expected -3907, got %d", got)
	}
}

func TestPacked24Bit(t *testing.T) {
	tests := []struct {
		name   string
		sample int32
		packed [3]byte
	}{
		{"zero", 0, [3]byte{0, 0, 0}},
		{"positive", 0x123456, [3]byte{0x56, 0x34, 0x12}},
		{"negative", -256, [3]byte{0x00, 0xFF, 0xFF}},
		{"max positive", Max24Bit, [3]byte{0xFF, 0xFF, 0x7F}},
		{"max negative", Min24Bit, [3]byte{0x00, 0x00, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SampleTo24Bit(tt.sample); got != tt.packed {
				t.Errorf("expected %v, got %v", tt.packed, got)
			}
			if got := SampleFrom24Bit(tt.packed); got != tt.sample {
				t.Errorf("expected %d, got %d", tt.sample, got)
			}
		})
	}
}

func TestSampleFromFloat(t *testing.T) {
	tests := []struct {
		in   float32
		want int32
	}{
		{0, 0},
		{1, Max24Bit},
		{-1, Min24Bit},
		{0.5, 4194304},
		{2, Max24Bit},
		{-2, Min24Bit},
	}
	for _, tt := range tests {
		if got := SampleFromFloat(tt.in); got != tt.want {
			t.Errorf("SampleFromFloat(%v): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}
