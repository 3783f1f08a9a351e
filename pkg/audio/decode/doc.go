// ABOUTME: Audio input sources for the software driver
// ABOUTME: Provides the Source interface with tone, MP3, FLAC, WAV and Ogg implementations
// Package decode provides audio sources that feed driver input channels.
//
// Supports: test tone, silence, MP3, FLAC, WAV, Ogg Vorbis
//
// All sources implement the Source interface and output interleaved int32
// samples in the 24-bit range. File sources loop when they reach the end.
//
// Example:
//
//	src, err := decode.NewSource("speech.wav", 48000, 2)
//	n, err := src.Read(samples)
package decode
