// ABOUTME: Tests for the diagnostics sink
// ABOUTME: Verifies pass-through, nil safety and UTF-16 encoding
package loopback

import (
	"reflect"
	"testing"
	"unicode/utf16"
)

func TestSinkForwards(t *testing.T) {
	var got []string
	sink := NewSink(func(message string) { got = append(got, message) })

	sink.Log("failed to start ASIO")
	sink.Logf("channel %d: %s", 3, "Mic")

	expected := []string{"failed to start ASIO", "channel 3: Mic"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestSinkNilSafe(t *testing.T) {
	var sink *Sink
	sink.Log("dropped")
	sink.Logf("dropped %d", 1)

	NewSink(nil).Log("dropped")
	NewWideSink(nil).Logf("dropped %s", "too")
}

func TestWideSink(t *testing.T) {
	var got []uint16
	sink := NewWideSink(func(message []uint16) {
		got = append([]uint16(nil), message...)
	})

	sink.Log("Mikrofon 🎤")

	if len(got) == 0 || got[len(got)-1] != 0 {
		t.Fatalf("expected NUL-terminated message, got %v", got)
	}
	if decoded := string(utf16.Decode(got[:len(got)-1])); decoded != "Mikrofon 🎤" {
		t.Errorf("expected round trip, got %q", decoded)
	}
}
