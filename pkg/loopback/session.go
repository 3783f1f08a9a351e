// ABOUTME: Driver session lifecycle
// ABOUTME: Negotiates buffers/format/channels with a driver and owns start, stop and release
package loopback

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/asiomic/asiomic-go/pkg/asio"
)

const (
	// DefaultSampleRate is committed when the driver reports an unusable rate
	DefaultSampleRate = 44100.0

	// MaxSampleRate is the highest driver-reported rate accepted as is
	MaxSampleRate = 96000.0

	// engineVersion is the host engine version reported to drivers
	engineVersion = 2
)

// Config holds optional session hooks
type Config struct {
	// OnError receives errors raised while handling driver events, such
	// as a failed restart after a reset request. Called on the driver's thread.
	OnError func(err error)

	// OnLatencyChange is called after latencies were refreshed
	OnLatencyChange func(input, output int)
}

// Channel describes one negotiated channel. Inputs come first in
// Session.Channels, followed by outputs.
type Channel struct {
	Index  int
	Input  bool
	Type   asio.SampleType
	Group  int
	Active bool
	Name   string
}

// Stats are the engine's out-of-band counters
type Stats struct {
	Cycles             uint64 // buffer switches processed
	FormatMismatches   uint64 // invocations aborted on a routed pair with differing sample types
	UnsupportedFormats uint64 // routed pairs skipped because the sample type cannot be copied
	OutputReadyAcks    uint64 // output-ready acknowledgments sent
}

// Session is one negotiated connection to a driver
type Session struct {
	driver asio.Driver
	config Config
	info   asio.DriverInfo

	// Immutable after New
	inputs      int
	outputs     int
	bufferSize  asio.BufferSize
	blockFrames int
	sampleRate  float64
	outputReady bool
	channels    []Channel
	buffers     []asio.BufferInfo
	matrix      *Matrix

	inputLatency  atomic.Int64
	outputLatency atomic.Int64

	// armed gates the engine until negotiation has completed
	armed atomic.Bool
	state atomic.Int32

	// mu serializes lifecycle transitions; the engine never takes it
	mu sync.Mutex

	// Acquired driver resources, for unwinding
	initialized    bool
	buffersCreated bool

	cycles      atomic.Uint64
	mismatches  atomic.Uint64
	unsupported atomic.Uint64
	acks        atomic.Uint64
}

// New negotiates a session with an already loaded driver. Steps run in a
// fixed order; the first failure returns a *NegotiationError and releases
// whatever the session had acquired from the driver so far.
func New(drv asio.Driver, config Config) (*Session, error) {
	if drv == nil {
		return nil, fmt.Errorf("driver is required")
	}

	s := &Session{
		driver: drv,
		config: config,
	}
	s.setState(StateNegotiating)

	if err := s.negotiate(); err != nil {
		s.unwind()
		s.setState(StateReleased)
		return nil, err
	}

	s.setState(StateReady)
	s.armed.Store(true)

	in, out := s.Latencies()
	log.Printf("ASIO session ready: %s, %d in / %d out, %d frames @ %.0fHz, latency %d/%d, output ready: %v",
		s.info.Name, s.inputs, s.outputs, s.blockFrames, s.sampleRate, in, out, s.outputReady)

	return s, nil
}

func (s *Session) negotiate() error {
	info, err := s.driver.Init()
	if err != nil {
		return &NegotiationError{Step: StepInit, Err: err}
	}
	s.initialized = true
	s.info = info

	inputs, outputs, err := s.driver.GetChannels()
	if err != nil {
		return &NegotiationError{Step: StepChannels, Err: err}
	}
	if inputs < 0 || outputs < 0 || inputs > asio.MaxChannels || outputs > asio.MaxChannels {
		return &NegotiationError{Step: StepChannels, Err: fmt.Errorf("%w: %d inputs, %d outputs (max %d each)",
			ErrTooManyChannels, inputs, outputs, asio.MaxChannels)}
	}
	s.inputs = inputs
	s.outputs = outputs

	bufferSize, err := s.driver.GetBufferSize()
	if err != nil {
		return &NegotiationError{Step: StepBufferSize, Err: err}
	}
	if bufferSize.Min <= 0 {
		return &NegotiationError{Step: StepBufferSize, Err: fmt.Errorf("%w: minimum %d", ErrInvalidBufferSize, bufferSize.Min)}
	}
	s.bufferSize = bufferSize
	s.blockFrames = bufferSize.Min

	rate, err := s.driver.GetSampleRate()
	if err != nil {
		return &NegotiationError{Step: StepSampleRate, Err: err}
	}
	if rate <= 0 || rate > MaxSampleRate {
		log.Printf("Driver reported sample rate %.0fHz, falling back to %.0fHz", rate, DefaultSampleRate)
		rate = DefaultSampleRate
		if err := s.driver.SetSampleRate(rate); err != nil {
			return &NegotiationError{Step: StepSampleRateFallback, Err: err}
		}
	}
	s.sampleRate = rate

	s.outputReady = s.driver.OutputReady() == nil

	s.buffers = make([]asio.BufferInfo, inputs+outputs)
	for i := 0; i < inputs; i++ {
		s.buffers[i] = asio.BufferInfo{IsInput: true, Channel: i}
	}
	for i := 0; i < outputs; i++ {
		s.buffers[inputs+i] = asio.BufferInfo{IsInput: false, Channel: i}
	}

	if err := s.driver.CreateBuffers(s.buffers, s.blockFrames, s.callbacks()); err != nil {
		return &NegotiationError{Step: StepCreateBuffers, Err: err}
	}
	s.buffersCreated = true

	s.channels = make([]Channel, len(s.buffers))
	for i, b := range s.buffers {
		info, err := s.driver.GetChannelInfo(b.Channel, b.IsInput)
		if err != nil {
			return &NegotiationError{Step: StepChannelInfo, Err: fmt.Errorf("channel %d (input: %v): %w", b.Channel, b.IsInput, err)}
		}
		s.channels[i] = Channel{
			Index:  b.Channel,
			Input:  b.IsInput,
			Type:   info.SampleType,
			Group:  info.ChannelGroup,
			Active: info.IsActive,
			Name:   asio.TruncateName(info.Name, asio.MaxChannelNameLength-1),
		}
	}

	inLatency, outLatency, err := s.driver.GetLatencies()
	if err != nil {
		return &NegotiationError{Step: StepLatencies, Err: err}
	}
	s.inputLatency.Store(int64(inLatency))
	s.outputLatency.Store(int64(outLatency))

	s.matrix = NewMatrix(inputs, outputs)

	return nil
}

// callbacks binds the driver entry points to this session
func (s *Session) callbacks() asio.Callbacks {
	return asio.Callbacks{
		BufferSwitch:         s.bufferSwitch,
		SampleRateDidChange:  s.sampleRateChanged,
		Message:              s.message,
		BufferSwitchTimeInfo: s.bufferSwitchTimeInfo,
	}
}

// unwind releases acquired driver resources in reverse order
func (s *Session) unwind() {
	if s.buffersCreated {
		if err := s.driver.DisposeBuffers(); err != nil {
			log.Printf("Warning: dispose buffers error: %v", err)
		}
		s.buffersCreated = false
	}
	if s.initialized {
		if err := s.driver.Exit(); err != nil {
			log.Printf("Warning: driver exit error: %v", err)
		}
		s.initialized = false
	}
}

// Start requests the driver to begin streaming. A driver rejection
// returns an error wrapping ErrStartFailed; the session is left as it
// was and the caller decides whether to release it.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start()
}

// start must be called with s.mu held
func (s *Session) start() error {
	state := s.State()
	switch {
	case state == StateStarted:
		return nil
	case state == StateReleased:
		return ErrReleased
	case !state.canStart():
		return fmt.Errorf("cannot start session in state %s", state)
	}

	if err := s.driver.Start(); err != nil {
		return fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	s.setState(StateStarted)
	log.Printf("ASIO streaming started")
	return nil
}

// Stop requests the driver to halt streaming. It never fails: driver
// errors are logged and the session is considered stopped.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
}

// stop must be called with s.mu held
func (s *Session) stop() {
	if s.State() != StateStarted {
		return
	}
	if err := s.driver.Stop(); err != nil {
		log.Printf("Warning: driver stop error: %v", err)
	}
	s.setState(StateStopped)
	log.Printf("ASIO streaming stopped")
}

// Release stops streaming and releases the driver connection. Safe to
// call more than once.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == StateReleased {
		return
	}

	s.stop()
	s.armed.Store(false)
	s.unwind()
	s.setState(StateReleased)
	log.Printf("ASIO session released")
}

// SetRoute sets the send level of one (input, output) pair
func (s *Session) SetRoute(input, output int, level float64) error {
	return s.matrix.Set(input, output, level)
}

// Route returns the send level of one (input, output) pair
func (s *Session) Route(input, output int) (float64, error) {
	return s.matrix.Get(input, output)
}

// ClearRoutes mutes every (input, output) pair
func (s *Session) ClearRoutes() {
	s.matrix.Clear()
}

// Matrix exposes the routing matrix
func (s *Session) Matrix() *Matrix {
	return s.matrix
}

// Latencies returns the last known input and output latency in frames
func (s *Session) Latencies() (input, output int) {
	return int(s.inputLatency.Load()), int(s.outputLatency.Load())
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}

// DriverInfo returns what the driver reported from Init
func (s *Session) DriverInfo() asio.DriverInfo { return s.info }

// Inputs returns the negotiated input channel count
func (s *Session) Inputs() int { return s.inputs }

// Outputs returns the negotiated output channel count
func (s *Session) Outputs() int { return s.outputs }

// BufferSize returns the driver-reported buffer geometry
func (s *Session) BufferSize() asio.BufferSize { return s.bufferSize }

// BlockFrames returns the committed block size in frames
func (s *Session) BlockFrames() int { return s.blockFrames }

// SampleRate returns the committed sample rate
func (s *Session) SampleRate() float64 { return s.sampleRate }

// OutputReady reports whether the engine acknowledges each block
func (s *Session) OutputReady() bool { return s.outputReady }

// Channels returns a copy of every channel descriptor, inputs first
func (s *Session) Channels() []Channel {
	channels := make([]Channel, len(s.channels))
	copy(channels, s.channels)
	return channels
}

// InputNames returns the input channel names in index order
func (s *Session) InputNames() []string {
	names := make([]string, s.inputs)
	for i := range names {
		names[i] = s.channels[i].Name
	}
	return names
}

// OutputNames returns the output channel names in index order
func (s *Session) OutputNames() []string {
	names := make([]string, s.outputs)
	for i := range names {
		names[i] = s.channels[s.inputs+i].Name
	}
	return names
}

// Stats returns a snapshot of the engine counters
func (s *Session) Stats() Stats {
	return Stats{
		Cycles:             s.cycles.Load(),
		FormatMismatches:   s.mismatches.Load(),
		UnsupportedFormats: s.unsupported.Load(),
		OutputReadyAcks:    s.acks.Load(),
	}
}

// ResetFormatMismatches clears the mismatch counter and returns its previous value
func (s *Session) ResetFormatMismatches() uint64 {
	return s.mismatches.Swap(0)
}
