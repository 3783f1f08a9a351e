// ABOUTME: Audio output package for rendering driver output
// ABOUTME: Provides the Output interface with speaker, WAV recorder and discard sinks
// Package output provides sinks for the software driver's output channels.
//
// Speaker playback uses oto (16-bit), recordings are written as 24-bit WAV
// through go-audio, and Discard swallows everything for headless runs.
//
// Example:
//
//	out, err := output.New("capture.wav")
//	err = out.Open(48000, 2)
//	err = out.Write(samples)
package output
