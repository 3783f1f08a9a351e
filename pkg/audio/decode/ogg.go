// ABOUTME: Ogg Vorbis file source
// ABOUTME: Decodes Vorbis to 24-bit range samples and loops at end of file
package decode

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/asiomic/asiomic-go/pkg/audio"
	"github.com/jfreymuth/oggvorbis"
)

// OggSource reads from an Ogg Vorbis file
type OggSource struct {
	file       *os.File
	reader     *oggvorbis.Reader
	sampleRate int
	channels   int
	title      string
	buf        []float32
}

// NewOggSource opens an Ogg Vorbis file
func NewOggSource(path string) (*OggSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Ogg file: %w", err)
	}

	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode Ogg Vorbis: %w", err)
	}

	title := titleOf(path)
	log.Printf("Loaded Ogg Vorbis: %s (sample rate: %d Hz, channels: %d)", title, reader.SampleRate(), reader.Channels())

	return &OggSource{
		file:       f,
		reader:     reader,
		sampleRate: reader.SampleRate(),
		channels:   reader.Channels(),
		title:      title,
	}, nil
}

func (s *OggSource) Read(samples []int32) (int, error) {
	if cap(s.buf) < len(samples) {
		s.buf = make([]float32, len(samples))
	}
	buf := s.buf[:len(samples)]

	read := 0
	rewound := false
	for read < len(samples) {
		// n counts interleaved values, not frames
		n, err := s.reader.Read(buf[read:])
		for i := read; i < read+n; i++ {
			samples[i] = audio.SampleFromFloat(buf[i])
		}
		read += n
		if n > 0 {
			rewound = false
		}

		if err == io.EOF {
			if rewound {
				// empty stream
				break
			}
			if err := s.reader.SetPosition(0); err != nil {
				return read, fmt.Errorf("failed to seek to start: %w", err)
			}
			rewound = true
			continue
		}
		if err != nil {
			return read, fmt.Errorf("ogg decode error: %w", err)
		}
	}

	return read, nil
}

func (s *OggSource) SampleRate() int { return s.sampleRate }
func (s *OggSource) Channels() int   { return s.channels }
func (s *OggSource) Title() string   { return s.title }
func (s *OggSource) Close() error {
	return s.file.Close()
}
