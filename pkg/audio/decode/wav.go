// ABOUTME: WAV file source
// ABOUTME: Reads PCM WAV through go-audio and loops at end of file
package decode

import (
	"fmt"
	"io"
	"log"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSource reads from a PCM WAV file
type WAVSource struct {
	file       *os.File
	decoder    *wav.Decoder
	sampleRate int
	channels   int
	bitDepth   int
	title      string
	intBuf     *goaudio.IntBuffer
}

// NewWAVSource opens a WAV file
func NewWAVSource(path string) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("failed to decode WAV: invalid file %s", path)
	}

	s := &WAVSource{
		file:       f,
		decoder:    decoder,
		sampleRate: int(decoder.SampleRate),
		channels:   int(decoder.NumChans),
		bitDepth:   int(decoder.BitDepth),
		title:      titleOf(path),
	}

	log.Printf("Loaded WAV: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		s.title, s.sampleRate, s.channels, s.bitDepth)

	return s, nil
}

func (s *WAVSource) Read(samples []int32) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(samples) {
		s.intBuf = &goaudio.IntBuffer{
			Data:           make([]int, len(samples)),
			Format:         &goaudio.Format{NumChannels: s.channels, SampleRate: s.sampleRate},
			SourceBitDepth: s.bitDepth,
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(samples)]
	}

	n, err := s.decoder.PCMBuffer(s.intBuf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("wav decode error: %w", err)
	}

	for i := 0; i < n; i++ {
		samples[i] = s.convert(s.intBuf.Data[i])
	}

	if n < len(samples) {
		// Loop the audio
		if err := s.decoder.Rewind(); err != nil {
			return n, fmt.Errorf("failed to rewind: %w", err)
		}
	}

	return n, nil
}

// convert moves a decoded sample into the 24-bit range. 8-bit WAV is unsigned.
func (s *WAVSource) convert(v int) int32 {
	if s.bitDepth == 8 {
		return int32(v-128) << 16
	}
	return scaleTo24(int32(v), s.bitDepth)
}

func (s *WAVSource) SampleRate() int { return s.sampleRate }
func (s *WAVSource) Channels() int   { return s.channels }
func (s *WAVSource) Title() string   { return s.title }
func (s *WAVSource) Close() error {
	return s.file.Close()
}
