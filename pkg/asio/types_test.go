// ABOUTME: Tests for ASIO sample type table
// ABOUTME: Verifies copy families, element widths and endianness flags
package asio

import (
	"testing"
)

func TestSampleTypeWidth(t *testing.T) {
	tests := []struct {
		st    SampleType
		kind  Kind
		width int
	}{
		{Int16LSB, KindInt16, 2},
		{Int16MSB, KindInt16, 2},
		{Int24LSB, KindInt24, 3},
		{Int24MSB, KindInt24, 3},
		{Int32LSB, KindInt32, 4},
		{Int32MSB, KindInt32, 4},
		{Int32LSB16, KindInt32, 4},
		{Int32LSB18, KindInt32, 4},
		{Int32LSB20, KindInt32, 4},
		{Int32LSB24, KindInt32, 4},
		{Int32MSB16, KindInt32, 4},
		{Int32MSB18, KindInt32, 4},
		{Int32MSB20, KindInt32, 4},
		{Int32MSB24, KindInt32, 4},
		{Float32LSB, KindFloat32, 4},
		{Float32MSB, KindFloat32, 4},
		{Float64LSB, KindFloat64, 8},
		{Float64MSB, KindFloat64, 8},
		{DSDInt8LSB1, KindUnsupported, 0},
		{DSDInt8NER8, KindUnsupported, 0},
		{SampleType(99), KindUnsupported, 0},
	}

	for _, tt := range tests {
		if got := tt.st.Kind(); got != tt.kind {
			t.Errorf("%v.Kind() = %d, expected %d", tt.st, got, tt.kind)
		}
		if got := tt.st.Width(); got != tt.width {
			t.Errorf("%v.Width() = %d, expected %d", tt.st, got, tt.width)
		}
		if got := tt.st.Supported(); got != (tt.width > 0) {
			t.Errorf("%v.Supported() = %v", tt.st, got)
		}
	}
}

func TestSampleTypeEndianness(t *testing.T) {
	for _, st := range []SampleType{Int16MSB, Int24MSB, Int32MSB, Float32MSB, Float64MSB, Int32MSB24} {
		if !st.BigEndian() {
			t.Errorf("expected %v to be big endian", st)
		}
	}
	for _, st := range []SampleType{Int16LSB, Int24LSB, Int32LSB, Float32LSB, Float64LSB, Int32LSB24} {
		if st.BigEndian() {
			t.Errorf("expected %v to be little endian", st)
		}
	}
}

func TestSampleTypeAlignment(t *testing.T) {
	tests := []struct {
		st   SampleType
		bits int
	}{
		{Int32LSB16, 16},
		{Int32MSB18, 18},
		{Int32LSB20, 20},
		{Int32MSB24, 24},
		{Int32LSB, 0},
		{Int24LSB, 0},
	}

	for _, tt := range tests {
		if got := tt.st.AlignmentBits(); got != tt.bits {
			t.Errorf("%v.AlignmentBits() = %d, expected %d", tt.st, got, tt.bits)
		}
	}
}

func TestParseSampleType(t *testing.T) {
	st, err := ParseSampleType("Float32LSB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st != Float32LSB {
		t.Errorf("expected Float32LSB, got %v", st)
	}

	if _, err := ParseSampleType("Int12"); err == nil {
		t.Error("expected error for unknown sample type")
	}

	if got := SampleType(77).String(); got != "SampleType(77)" {
		t.Errorf("unexpected String() for unknown type: %q", got)
	}
}

func TestErrorMessages(t *testing.T) {
	if ErrNotPresent.Error() != "asio: not present" {
		t.Errorf("unexpected message: %q", ErrNotPresent.Error())
	}
	if Error(-1).Error() != "asio: error -1" {
		t.Errorf("unexpected message: %q", Error(-1).Error())
	}
}
