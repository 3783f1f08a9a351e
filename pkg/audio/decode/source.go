// ABOUTME: Audio source abstraction for feeding driver inputs
// ABOUTME: Opens test tones or MP3, FLAC, WAV and Ogg files by extension
package decode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source provides interleaved PCM samples in the 24-bit range
type Source interface {
	// Read fills samples and returns the number written. File sources
	// loop at end of stream.
	Read(samples []int32) (int, error)
	// SampleRate returns the sample rate of the audio
	SampleRate() int
	// Channels returns the number of channels
	Channels() int
	// Close closes the audio source
	Close() error
}

// NewSource creates a source from a file path. An empty path or "tone"
// returns a 440Hz test tone at sampleRate with the given channel count.
func NewSource(path string, sampleRate, channels int) (Source, error) {
	if path == "" || path == "tone" {
		return NewTone(DefaultToneFrequency, sampleRate, channels), nil
	}
	if path == "silence" {
		return NewTone(0, sampleRate, channels), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		return NewMP3Source(path)
	case ".flac":
		return NewFLACSource(path)
	case ".wav":
		return NewWAVSource(path)
	case ".ogg", ".oga":
		return NewOggSource(path)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac, .wav, .ogg)", ext)
	}
}

// titleOf derives a display title from a file name
func titleOf(path string) string {
	filename := filepath.Base(path)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// scaleTo24 moves a sample of the given bit depth into the 24-bit range
func scaleTo24(sample int32, bitDepth int) int32 {
	switch {
	case bitDepth == 24 || bitDepth <= 0:
		return sample
	case bitDepth > 24:
		return sample >> (bitDepth - 24)
	default:
		return sample << (24 - bitDepth)
	}
}
