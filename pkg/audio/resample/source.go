// ABOUTME: Resampling wrapper for audio sources
// ABOUTME: Presents a source at the driver's sample rate
package resample

// Reader is the source shape wrapped by Source
type Reader interface {
	Read(samples []int32) (int, error)
	SampleRate() int
	Channels() int
	Close() error
}

// Source reads from a Reader and resamples to a fixed output rate
type Source struct {
	src        Reader
	r          *Resampler
	outputRate int
	in         []int32
	out        []int32
	pending    []int32
}

// NewSource wraps src. A source already at outputRate is returned unwrapped.
func NewSource(src Reader, outputRate int) Reader {
	if src.SampleRate() == outputRate || outputRate <= 0 {
		return src
	}
	return &Source{
		src:        src,
		r:          New(src.SampleRate(), outputRate, src.Channels()),
		outputRate: outputRate,
	}
}

func (s *Source) Read(samples []int32) (int, error) {
	written := 0
	for written < len(samples) {
		if len(s.pending) == 0 {
			need := s.r.InputSamplesNeeded(len(samples)-written) + s.src.Channels()
			if cap(s.in) < need {
				s.in = make([]int32, need)
			}
			n, err := s.src.Read(s.in[:need])
			if err != nil {
				return written, err
			}
			if n == 0 {
				break
			}

			size := s.r.OutputSamplesNeeded(n)
			if cap(s.out) < size {
				s.out = make([]int32, size)
			}
			produced := s.r.Resample(s.in[:n], s.out[:size])
			s.pending = s.out[:produced]
			if produced == 0 {
				continue
			}
		}

		c := copy(samples[written:], s.pending)
		s.pending = s.pending[c:]
		written += c
	}
	return written, nil
}

func (s *Source) SampleRate() int { return s.outputRate }
func (s *Source) Channels() int   { return s.src.Channels() }
func (s *Source) Close() error    { return s.src.Close() }
