// ABOUTME: Real-time buffer-switch engine
// ABOUTME: Copies routed input blocks to output blocks verbatim on the driver thread
package loopback

import (
	"unsafe"

	"github.com/asiomic/asiomic-go/pkg/asio"
)

// bufferSwitch runs once per block on the driver's thread. It must not
// block, allocate, log or panic: every failure is a silent skip or abort
// recorded in the counters.
func (s *Session) bufferSwitch(doubleBufferIndex int, _ bool) {
	if !s.armed.Load() || doubleBufferIndex&^1 != 0 {
		return
	}
	s.cycles.Add(1)

	for in := 0; in < s.inputs; in++ {
		src := s.buffers[in].Buffers[doubleBufferIndex]
		srcType := s.channels[in].Type

		for out := 0; out < s.outputs; out++ {
			if !s.matrix.routed(in, out) {
				continue
			}

			o := s.inputs + out
			if s.channels[o].Type != srcType {
				// no format conversion: drop the rest of this block
				s.mismatches.Add(1)
				return
			}

			dst := s.buffers[o].Buffers[doubleBufferIndex]
			if src == nil || dst == nil {
				continue
			}
			if !copyBlock(srcType, dst, src, s.blockFrames) {
				s.unsupported.Add(1)
			}
		}
	}

	if s.outputReady {
		_ = s.driver.OutputReady()
		s.acks.Add(1)
	}
}

// bufferSwitchTimeInfo routes like bufferSwitch; timing is not consumed
func (s *Session) bufferSwitchTimeInfo(_ *asio.Time, doubleBufferIndex int, directProcess bool) *asio.Time {
	s.bufferSwitch(doubleBufferIndex, directProcess)
	return nil
}

// copyBlock copies frames samples of type t from src to dst using the
// element width of the type. Returns false for types it cannot copy.
func copyBlock(t asio.SampleType, dst, src unsafe.Pointer, frames int) bool {
	switch t.Kind() {
	case asio.KindInt16:
		copyAs[int16](dst, src, frames)
	case asio.KindInt24:
		// packed 3-byte samples have no Go element type
		copyAs[byte](dst, src, frames*3)
	case asio.KindInt32:
		copyAs[int32](dst, src, frames)
	case asio.KindFloat32:
		copyAs[float32](dst, src, frames)
	case asio.KindFloat64:
		copyAs[float64](dst, src, frames)
	default:
		return false
	}
	return true
}

func copyAs[T byte | int16 | int32 | float32 | float64](dst, src unsafe.Pointer, n int) {
	copy(unsafe.Slice((*T)(dst), n), unsafe.Slice((*T)(src), n))
}
