// ABOUTME: Audio fundamentals package providing formats and sample codecs
// ABOUTME: Converts between 24-bit range samples and ASIO buffer layouts
// Package audio provides the sample-level helpers shared by the software
// driver, its input sources and its output sinks.
//
// Samples travel through the module as int32 values in the 24-bit range.
// EncodeSample and DecodeSample translate them to and from the byte layout
// of any routable asio.SampleType:
//   - Int16, packed Int24, Int32 (full width or low-bit aligned)
//   - Float32 and Float64 normalized to [-1, 1]
//   - LSB and MSB byte orders
//
// Example:
//
//	block := make([]byte, frames*asio.Int24LSB.Width())
//	err := audio.EncodeChannel(asio.Int24LSB, block, interleaved, 2, 0, frames)
package audio
