// ABOUTME: Test tone generator for audio input
// ABOUTME: Generates a sine wave on every channel at half scale
package decode

import (
	"math"
	"sync"

	"github.com/asiomic/asiomic-go/pkg/audio"
)

// DefaultToneFrequency is the A4 test tone
const DefaultToneFrequency = 440.0

// Tone generates a sine test tone. A zero frequency produces silence.
type Tone struct {
	mu          sync.Mutex
	sampleIndex uint64
	frequency   float64
	sampleRate  int
	channels    int
}

// NewTone creates a tone generator
func NewTone(frequency float64, sampleRate, channels int) *Tone {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	if channels <= 0 {
		channels = 2
	}
	return &Tone{
		frequency:  frequency,
		sampleRate: sampleRate,
		channels:   channels,
	}
}

func (s *Tone) Read(samples []int32) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(samples) / s.channels
	for i := 0; i < frames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.sampleRate)
		value := int32(math.Sin(2*math.Pi*s.frequency*t) * audio.Max24Bit * 0.5) // 50% volume

		for ch := 0; ch < s.channels; ch++ {
			samples[i*s.channels+ch] = value
		}
	}

	s.sampleIndex += uint64(frames)

	return frames * s.channels, nil
}

func (s *Tone) SampleRate() int { return s.sampleRate }
func (s *Tone) Channels() int   { return s.channels }
func (s *Tone) Close() error    { return nil }
