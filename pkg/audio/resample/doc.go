// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts input sources to the driver's sample rate
// Package resample provides audio sample rate conversion for input sources.
//
// Uses linear interpolation and carries the last frame across chunks, so
// a stream resampled block by block has no discontinuities.
//
// Example:
//
//	src = resample.NewSource(src, 48000)
//	n, err := src.Read(block)
package resample
