// ABOUTME: Scriptable fake ASIO driver for tests
// ABOUTME: Records calls, injects per-method failures and owns Go-allocated double buffers
package asiotest

import (
	"strconv"
	"sync"
	"unsafe"

	"github.com/asiomic/asiomic-go/pkg/asio"
)

// Method names recorded by Driver
const (
	MethodInit           = "Init"
	MethodExit           = "Exit"
	MethodStart          = "Start"
	MethodStop           = "Stop"
	MethodGetChannels    = "GetChannels"
	MethodGetLatencies   = "GetLatencies"
	MethodGetBufferSize  = "GetBufferSize"
	MethodCanSampleRate  = "CanSampleRate"
	MethodGetSampleRate  = "GetSampleRate"
	MethodSetSampleRate  = "SetSampleRate"
	MethodGetChannelInfo = "GetChannelInfo"
	MethodCreateBuffers  = "CreateBuffers"
	MethodDisposeBuffers = "DisposeBuffers"
	MethodOutputReady    = "OutputReady"
)

// Driver is a fake asio.Driver. Configure the exported fields before
// handing it to a session.
type Driver struct {
	Inputs  int
	Outputs int

	// Types holds per-channel sample types, inputs first. Channels past
	// the end of Types use DefaultType.
	Types       []asio.SampleType
	DefaultType asio.SampleType

	// Names holds per-channel names, inputs first. Channels past the end
	// of Names are called "In n" or "Out n".
	Names []string

	BufferSize    asio.BufferSize
	SampleRate    float64
	InputLatency  int
	OutputLatency int

	// OutputReadySupported controls the OutputReady result
	OutputReadySupported bool

	mu            sync.Mutex
	failures      map[string]error
	calls         []string
	setRates      []float64
	callbacks     asio.Callbacks
	buffers       [][2][]byte
	outputReadies int
}

// NewDriver creates a 2-in/2-out Int32LSB fake with a 64 frame block
func NewDriver() *Driver {
	return &Driver{
		Inputs:               2,
		Outputs:              2,
		DefaultType:          asio.Int32LSB,
		BufferSize:           asio.BufferSize{Min: 64, Max: 1024, Preferred: 256, Granularity: -1},
		SampleRate:           48000,
		InputLatency:         64,
		OutputLatency:        128,
		OutputReadySupported: true,
		failures:             make(map[string]error),
	}
}

// FailOn makes method return err from now on. A nil err clears the failure.
func (d *Driver) FailOn(method string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failures, method)
		return
	}
	d.failures[method] = err
}

// Calls returns the recorded method names in call order
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	calls := make([]string, len(d.calls))
	copy(calls, d.calls)
	return calls
}

// CallCount returns how often method was called
func (d *Driver) CallCount(method string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c == method {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log
func (d *Driver) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

// SetRates returns every rate passed to SetSampleRate
func (d *Driver) SetRates() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]float64(nil), d.setRates...)
}

// Callbacks returns the callbacks registered by CreateBuffers
func (d *Driver) Callbacks() asio.Callbacks {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.callbacks
}

// Buffer returns one half of the buffer at position pos (inputs first)
func (d *Driver) Buffer(pos, half int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pos < 0 || pos >= len(d.buffers) {
		return nil
	}
	return d.buffers[pos][half]
}

// OutputReadyCount returns how often OutputReady was called after buffers were created
func (d *Driver) OutputReadyCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outputReadies
}

func (d *Driver) typeAt(pos int) asio.SampleType {
	if pos < len(d.Types) {
		return d.Types[pos]
	}
	return d.DefaultType
}

func (d *Driver) nameAt(pos int, fallback string) string {
	if pos < len(d.Names) {
		return d.Names[pos]
	}
	return fallback
}

// record logs a call and returns its injected failure
func (d *Driver) record(method string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, method)
	return d.failures[method]
}

func (d *Driver) Init() (asio.DriverInfo, error) {
	if err := d.record(MethodInit); err != nil {
		return asio.DriverInfo{}, err
	}
	return asio.DriverInfo{Name: "Test Driver", Version: 1}, nil
}

func (d *Driver) Exit() error { return d.record(MethodExit) }

func (d *Driver) Start() error { return d.record(MethodStart) }

func (d *Driver) Stop() error { return d.record(MethodStop) }

func (d *Driver) GetChannels() (int, int, error) {
	if err := d.record(MethodGetChannels); err != nil {
		return 0, 0, err
	}
	return d.Inputs, d.Outputs, nil
}

func (d *Driver) GetLatencies() (int, int, error) {
	if err := d.record(MethodGetLatencies); err != nil {
		return 0, 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.InputLatency, d.OutputLatency, nil
}

// SetLatencies changes what GetLatencies reports
func (d *Driver) SetLatencies(input, output int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.InputLatency = input
	d.OutputLatency = output
}

func (d *Driver) GetBufferSize() (asio.BufferSize, error) {
	if err := d.record(MethodGetBufferSize); err != nil {
		return asio.BufferSize{}, err
	}
	return d.BufferSize, nil
}

func (d *Driver) CanSampleRate(float64) error { return d.record(MethodCanSampleRate) }

func (d *Driver) GetSampleRate() (float64, error) {
	if err := d.record(MethodGetSampleRate); err != nil {
		return 0, err
	}
	return d.SampleRate, nil
}

func (d *Driver) SetSampleRate(rate float64) error {
	if err := d.record(MethodSetSampleRate); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setRates = append(d.setRates, rate)
	d.SampleRate = rate
	return nil
}

func (d *Driver) GetChannelInfo(channel int, isInput bool) (asio.ChannelInfo, error) {
	if err := d.record(MethodGetChannelInfo); err != nil {
		return asio.ChannelInfo{}, err
	}
	pos := channel
	prefix := "In"
	if !isInput {
		pos += d.Inputs
		prefix = "Out"
	}
	return asio.ChannelInfo{
		Channel:    channel,
		IsInput:    isInput,
		IsActive:   true,
		SampleType: d.typeAt(pos),
		Name:       d.nameAt(pos, prefix+" "+strconv.Itoa(channel+1)),
	}, nil
}

func (d *Driver) CreateBuffers(infos []asio.BufferInfo, bufferSize int, callbacks asio.Callbacks) error {
	if err := d.record(MethodCreateBuffers); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.callbacks = callbacks
	d.buffers = make([][2][]byte, len(infos))
	for i := range infos {
		pos := infos[i].Channel
		if !infos[i].IsInput {
			pos += d.Inputs
		}
		width := d.typeAt(pos).Width()
		if width == 0 {
			// unsupported types still get storage
			width = 4
		}
		for half := 0; half < 2; half++ {
			buf := make([]byte, bufferSize*width)
			d.buffers[i][half] = buf
			if len(buf) > 0 {
				infos[i].Buffers[half] = unsafe.Pointer(&buf[0])
			}
		}
	}
	return nil
}

func (d *Driver) DisposeBuffers() error {
	if err := d.record(MethodDisposeBuffers); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks = asio.Callbacks{}
	return nil
}

func (d *Driver) OutputReady() error {
	d.mu.Lock()
	if d.buffers != nil {
		// acknowledgments are counted, not logged
		d.outputReadies++
		d.mu.Unlock()
	} else {
		d.calls = append(d.calls, MethodOutputReady)
		d.mu.Unlock()
	}
	if !d.OutputReadySupported {
		return asio.ErrNotPresent
	}
	return nil
}
