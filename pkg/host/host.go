// ABOUTME: Embedding-host boundary around one driver session
// ABOUTME: Converts every internal error to a diagnostic plus a sentinel return value
package host

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/asiomic/asiomic-go/pkg/asio"
	"github.com/asiomic/asiomic-go/pkg/loopback"
)

// Sentinels returned by queries when no session exists
const (
	NoLatency    = -1
	NoSampleRate = 0
	NoChannels   = 0
)

// Status is a point-in-time snapshot of the host
type Status struct {
	Driver        string
	State         loopback.State
	Inputs        int
	Outputs       int
	BlockFrames   int
	SampleRate    float64
	InputLatency  int
	OutputLatency int
	OutputReady   bool
	InputNames    []string
	OutputNames   []string
	Routes        [][]float64
	Stats         loopback.Stats
}

// Host holds the single driver selection and session of an embedding
// application. Every method is safe to call before a session exists.
type Host struct {
	registry *asio.Registry
	sink     atomic.Pointer[loopback.Sink]

	mu      sync.Mutex
	session *loopback.Session
	driver  asio.Driver
	name    string
}

// New creates a host over registry
func New(registry *asio.Registry) *Host {
	h := &Host{registry: registry}
	h.sink.Store(loopback.NewSink(nil))
	return h
}

// Drivers lists the available driver names, each within DriverNameMaxLength
func (h *Host) Drivers() []string {
	return h.registry.Names(0)
}

// DriverNameMaxLength is the size of a driver name slot including its terminator
func (h *Host) DriverNameMaxLength() int {
	return asio.MaxDriverNameLength
}

// SetDiagnostics installs the function that receives diagnostics. fn
// may run on the driver thread or with the host locked, and must not
// call back into the Host.
func (h *Host) SetDiagnostics(fn func(message string)) {
	h.sink.Store(loopback.NewSink(fn))
}

// SetWideDiagnostics installs a diagnostics function taking NUL-terminated UTF-16
func (h *Host) SetWideDiagnostics(fn func(message []uint16)) {
	h.sink.Store(loopback.NewWideSink(fn))
}

// LoadDriver selects the named driver. Selecting a different driver
// releases the current session.
func (h *Host) LoadDriver(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load(name)
}

// load must be called with h.mu held
func (h *Host) load(name string) bool {
	drv, err := h.registry.Load(name)
	if err != nil {
		h.diagnose(err.Error())
		return false
	}

	if h.session != nil && drv != h.driver {
		h.releaseSession()
	}
	_, h.name, _ = h.registry.Current()
	h.driver = drv
	return true
}

// Initialize negotiates a session with the named driver, or with the
// currently loaded one when name is empty. An existing session is
// released first. On failure the driver selection is removed.
func (h *Host) Initialize(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.releaseSession()

	if name != "" {
		if !h.load(name) {
			return false
		}
	}

	drv, current, ok := h.registry.Current()
	if !ok {
		h.diagnose("No ASIO driver loaded")
		return false
	}
	h.driver, h.name = drv, current

	session, err := loopback.New(drv, loopback.Config{
		OnError: func(err error) {
			h.sink.Load().Log(err.Error())
		},
		OnLatencyChange: func(input, output int) {
			log.Printf("Latencies changed: input %d, output %d", input, output)
		},
	})
	if err != nil {
		h.diagnose(err.Error())
		h.forgetDriver()
		return false
	}

	h.session = session
	return true
}

// StartLoopback starts streaming. A failed start releases the session
// and the driver selection.
func (h *Host) StartLoopback() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.session == nil {
		h.diagnose(loopback.ErrNotInitialized.Error())
		return false
	}
	if err := h.session.Start(); err != nil {
		h.diagnose(err.Error())
		h.releaseSession()
		h.forgetDriver()
		return false
	}
	return true
}

// StopLoopback stops streaming
func (h *Host) StopLoopback() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.session == nil {
		h.diagnose(loopback.ErrNotInitialized.Error())
		return
	}
	h.session.Stop()
}

// Release tears down the session and forgets the driver selection
func (h *Host) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.releaseSession()
	h.forgetDriver()
}

// InputLatency returns the input latency in frames, or NoLatency
func (h *Host) InputLatency() int {
	s := h.current()
	if s == nil {
		return NoLatency
	}
	in, _ := s.Latencies()
	return in
}

// OutputLatency returns the output latency in frames, or NoLatency
func (h *Host) OutputLatency() int {
	s := h.current()
	if s == nil {
		return NoLatency
	}
	_, out := s.Latencies()
	return out
}

// SampleRate returns the committed sample rate, or NoSampleRate
func (h *Host) SampleRate() float64 {
	s := h.current()
	if s == nil {
		return NoSampleRate
	}
	return s.SampleRate()
}

// InputChannelCount returns the negotiated input count, or NoChannels
func (h *Host) InputChannelCount() int {
	s := h.current()
	if s == nil {
		return NoChannels
	}
	return s.Inputs()
}

// OutputChannelCount returns the negotiated output count, or NoChannels
func (h *Host) OutputChannelCount() int {
	s := h.current()
	if s == nil {
		return NoChannels
	}
	return s.Outputs()
}

// InputChannelNames returns the input channel names, or nil
func (h *Host) InputChannelNames() []string {
	s := h.current()
	if s == nil {
		return nil
	}
	return s.InputNames()
}

// OutputChannelNames returns the output channel names, or nil
func (h *Host) OutputChannelNames() []string {
	s := h.current()
	if s == nil {
		return nil
	}
	return s.OutputNames()
}

// SetInputSendLevel sets one routing cell. A positive level routes the
// input to the output; anything else mutes the pair.
func (h *Host) SetInputSendLevel(input, output int, level float64) bool {
	s := h.current()
	if s == nil {
		return false
	}
	if err := s.SetRoute(input, output, level); err != nil {
		h.diagnosef("failed to set send level %d -> %d: %v", input, output, err)
		return false
	}
	return true
}

// ClearRoutes mutes every pair of the current session
func (h *Host) ClearRoutes() bool {
	s := h.current()
	if s == nil {
		return false
	}
	s.ClearRoutes()
	log.Printf("Routes cleared")
	return true
}

// Routes returns a snapshot of the routing matrix, or nil
func (h *Host) Routes() [][]float64 {
	s := h.current()
	if s == nil {
		return nil
	}
	return s.Matrix().Snapshot()
}

// FormatMismatches returns how many buffer switches were aborted on a
// routed pair with differing sample types
func (h *Host) FormatMismatches() uint64 {
	s := h.current()
	if s == nil {
		return 0
	}
	return s.Stats().FormatMismatches
}

// ResetFormatMismatches clears the mismatch counter and returns its previous value
func (h *Host) ResetFormatMismatches() uint64 {
	s := h.current()
	if s == nil {
		return 0
	}
	return s.ResetFormatMismatches()
}

// Status returns a snapshot without emitting diagnostics. Without a
// session the snapshot carries the sentinels.
func (h *Host) Status() Status {
	h.mu.Lock()
	s, name := h.session, h.name
	h.mu.Unlock()

	if s == nil {
		return Status{
			Driver:        name,
			State:         loopback.StateUninitialized,
			InputLatency:  NoLatency,
			OutputLatency: NoLatency,
		}
	}

	in, out := s.Latencies()
	return Status{
		Driver:        name,
		State:         s.State(),
		Inputs:        s.Inputs(),
		Outputs:       s.Outputs(),
		BlockFrames:   s.BlockFrames(),
		SampleRate:    s.SampleRate(),
		InputLatency:  in,
		OutputLatency: out,
		OutputReady:   s.OutputReady(),
		InputNames:    s.InputNames(),
		OutputNames:   s.OutputNames(),
		Routes:        s.Matrix().Snapshot(),
		Stats:         s.Stats(),
	}
}

// Session exposes the live session, or nil
func (h *Host) Session() *loopback.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session
}

// current returns the session or reports that none exists
func (h *Host) current() *loopback.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == nil {
		h.diagnose(loopback.ErrNotInitialized.Error())
		return nil
	}
	return h.session
}

// releaseSession must be called with h.mu held
func (h *Host) releaseSession() {
	if h.session == nil {
		return
	}
	h.session.Release()
	h.session = nil
}

// forgetDriver must be called with h.mu held
func (h *Host) forgetDriver() {
	h.registry.RemoveCurrent()
	h.driver = nil
	h.name = ""
}

func (h *Host) diagnose(message string) {
	log.Printf("Diagnostic: %s", message)
	h.sink.Load().Log(message)
}

func (h *Host) diagnosef(format string, args ...interface{}) {
	h.diagnose(fmt.Sprintf(format, args...))
}
