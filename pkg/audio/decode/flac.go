// ABOUTME: FLAC file source
// ABOUTME: Decodes FLAC frames to 24-bit range samples and loops at end of file
package decode

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

// FLACSource reads from a FLAC file
type FLACSource struct {
	file       *os.File
	stream     *flac.Stream
	sampleRate int
	channels   int
	bitDepth   int
	title      string

	// decoded samples of the current frame not yet returned
	pending []int32
}

// NewFLACSource opens a FLAC file
func NewFLACSource(path string) (*FLACSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	s := &FLACSource{
		file:       f,
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
		title:      titleOf(path),
	}

	log.Printf("Loaded FLAC: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		s.title, s.sampleRate, s.channels, s.bitDepth)

	return s, nil
}

func (s *FLACSource) Read(samples []int32) (int, error) {
	read := 0
	rewound := false

	for read < len(samples) {
		if len(s.pending) == 0 {
			f, err := s.stream.ParseNext()
			if err == io.EOF {
				if rewound {
					// empty stream
					break
				}
				if err := s.rewind(); err != nil {
					return read, err
				}
				rewound = true
				continue
			}
			if err != nil {
				return read, fmt.Errorf("flac decode error: %w", err)
			}
			s.pending = s.interleave(f)
		}

		n := copy(samples[read:], s.pending)
		s.pending = s.pending[n:]
		read += n
	}

	return read, nil
}

// interleave converts one frame's subframes into interleaved 24-bit samples
func (s *FLACSource) interleave(f *frame.Frame) []int32 {
	out := make([]int32, 0, int(f.BlockSize)*s.channels)
	for i := 0; i < int(f.BlockSize); i++ {
		for ch := 0; ch < s.channels; ch++ {
			out = append(out, scaleTo24(f.Subframes[ch].Samples[i], s.bitDepth))
		}
	}
	return out
}

func (s *FLACSource) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := flac.New(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new stream: %w", err)
	}
	s.stream = stream
	return nil
}

func (s *FLACSource) SampleRate() int { return s.sampleRate }
func (s *FLACSource) Channels() int   { return s.channels }
func (s *FLACSource) Title() string   { return s.title }
func (s *FLACSource) Close() error {
	return s.file.Close()
}
