// ABOUTME: Diagnostics sink forwarding messages to the embedding host
// ABOUTME: Stateless pass-through with a UTF-16 adapter for wide-string hosts
package loopback

import (
	"fmt"
	"unicode/utf16"
)

// LogFunc receives one human-readable diagnostic message
type LogFunc func(message string)

// Sink forwards diagnostics to a single host-supplied function.
// A nil *Sink or a Sink without a function drops messages.
type Sink struct {
	fn LogFunc
}

// NewSink creates a sink that forwards to fn
func NewSink(fn LogFunc) *Sink {
	return &Sink{fn: fn}
}

// NewWideSink creates a sink for hosts that take NUL-terminated UTF-16
// strings. The slice passed to fn is only valid for the call.
func NewWideSink(fn func(message []uint16)) *Sink {
	if fn == nil {
		return &Sink{}
	}
	return &Sink{fn: func(message string) {
		fn(append(utf16.Encode([]rune(message)), 0))
	}}
}

// Log forwards message
func (s *Sink) Log(message string) {
	if s == nil || s.fn == nil {
		return
	}
	s.fn(message)
}

// Logf formats and forwards a message
func (s *Sink) Logf(format string, args ...interface{}) {
	if s == nil || s.fn == nil {
		return
	}
	s.fn(fmt.Sprintf(format, args...))
}
