// ABOUTME: Software ASIO driver package
// ABOUTME: Documents the in-process driver used by the CLI, examples and tests
// Package softdriver implements asio.Driver entirely in Go.
//
// The driver allocates its double buffers on the Go heap and runs a block
// clock goroutine that, once per block period:
//   - encodes the next block of its Source into every input channel
//   - invokes the host's buffer-switch callback for the current half
//   - decodes the output channels and queues them for its Sink
//
// Driver notifications (reset requests, latency changes, sample-rate
// changes) are raised on the caller's goroutine through RequestReset,
// SetLatencies and NotifySampleRate.
//
// Example:
//
//	drv := softdriver.New(softdriver.Config{
//	    Source: decode.NewTone(440, 48000, 2),
//	    Sink:   output.NewOto(),
//	})
//	session, err := loopback.New(drv, loopback.Config{})
package softdriver
