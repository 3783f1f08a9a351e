// ABOUTME: Per-format sample codec for ASIO buffers
// ABOUTME: Encodes and decodes 24-bit range samples in every routable asio.SampleType
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/asiomic/asiomic-go/pkg/asio"
)

// ErrUnsupportedType is returned for sample types that have no PCM layout
var ErrUnsupportedType = errors.New("unsupported sample type")

const fullScale = 8388608.0 // 2^23

func byteOrder(t asio.SampleType) binary.ByteOrder {
	if t.BigEndian() {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// EncodeSample writes one 24-bit range sample into dst using the layout
// of t. dst must hold at least t.Width() bytes.
func EncodeSample(t asio.SampleType, dst []byte, sample int32) error {
	width := t.Width()
	if width == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	if len(dst) < width {
		return fmt.Errorf("buffer too small for %s: %d bytes", t, len(dst))
	}

	order := byteOrder(t)
	switch t.Kind() {
	case asio.KindInt16:
		order.PutUint16(dst, uint16(SampleToInt16(sample)))
	case asio.KindInt24:
		b := SampleTo24Bit(sample)
		if t.BigEndian() {
			b[0], b[2] = b[2], b[0]
		}
		copy(dst, b[:])
	case asio.KindInt32:
		order.PutUint32(dst, uint32(toInt32(t, sample)))
	case asio.KindFloat32:
		order.PutUint32(dst, math.Float32bits(float32(float64(sample)/fullScale)))
	case asio.KindFloat64:
		order.PutUint64(dst, math.Float64bits(float64(sample)/fullScale))
	}
	return nil
}

// DecodeSample reads one sample of type t from src and returns it in the
// 24-bit range. Float samples outside [-1, 1] are clamped.
func DecodeSample(t asio.SampleType, src []byte) (int32, error) {
	width := t.Width()
	if width == 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	if len(src) < width {
		return 0, fmt.Errorf("buffer too small for %s: %d bytes", t, len(src))
	}

	order := byteOrder(t)
	switch t.Kind() {
	case asio.KindInt16:
		return SampleFromInt16(int16(order.Uint16(src))), nil
	case asio.KindInt24:
		b := [3]byte{src[0], src[1], src[2]}
		if t.BigEndian() {
			b[0], b[2] = b[2], b[0]
		}
		return SampleFrom24Bit(b), nil
	case asio.KindInt32:
		return fromInt32(t, int32(order.Uint32(src))), nil
	case asio.KindFloat32:
		return fromFloat(float64(math.Float32frombits(order.Uint32(src)))), nil
	default:
		return fromFloat(math.Float64frombits(order.Uint64(src))), nil
	}
}

// toInt32 places a 24-bit sample in a 32-bit container. Full-width types
// are MSB-justified; aligned types keep the sample in the low bits.
func toInt32(t asio.SampleType, sample int32) int32 {
	bits := t.AlignmentBits()
	if bits == 0 {
		return sample << 8
	}
	return sample >> (24 - bits)
}

func fromInt32(t asio.SampleType, v int32) int32 {
	bits := t.AlignmentBits()
	if bits == 0 {
		return v >> 8
	}
	// sign-extend the low bits first
	shift := 32 - bits
	v = (v << shift) >> shift
	return v << (24 - bits)
}

func fromFloat(f float64) int32 {
	if math.IsNaN(f) {
		return 0
	}
	return Clamp24(int64(math.Round(f * fullScale)))
}

// EncodeChannel writes one channel of interleaved samples into a block
// buffer of type t. frames samples are written; missing source frames
// are written as silence.
func EncodeChannel(t asio.SampleType, dst []byte, interleaved []int32, channels, channel, frames int) error {
	width := t.Width()
	if width == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	if len(dst) < frames*width {
		return fmt.Errorf("block too small: %d bytes for %d frames of %s", len(dst), frames, t)
	}

	for i := 0; i < frames; i++ {
		var sample int32
		if idx := i*channels + channel; channels > 0 && idx < len(interleaved) {
			sample = interleaved[idx]
		}
		if err := EncodeSample(t, dst[i*width:], sample); err != nil {
			return err
		}
	}
	return nil
}

// DecodeChannel reads frames samples of type t from a block buffer into
// one channel of an interleaved slice
func DecodeChannel(t asio.SampleType, src []byte, interleaved []int32, channels, channel, frames int) error {
	width := t.Width()
	if width == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	if len(src) < frames*width {
		return fmt.Errorf("block too small: %d bytes for %d frames of %s", len(src), frames, t)
	}
	if len(interleaved) < frames*channels {
		return fmt.Errorf("interleaved buffer too small: %d samples for %d frames", len(interleaved), frames)
	}

	for i := 0; i < frames; i++ {
		sample, err := DecodeSample(t, src[i*width:])
		if err != nil {
			return err
		}
		interleaved[i*channels+channel] = sample
	}
	return nil
}
