// ABOUTME: In-process software ASIO driver
// ABOUTME: Owns Go-allocated double buffers, feeds inputs from a source and renders outputs to a sink
package softdriver

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/asiomic/asiomic-go/pkg/asio"
	"github.com/asiomic/asiomic-go/pkg/audio"
	"github.com/asiomic/asiomic-go/pkg/audio/decode"
	"github.com/asiomic/asiomic-go/pkg/audio/output"
	"github.com/asiomic/asiomic-go/pkg/audio/resample"
)

// DefaultName is the name the driver reports and registers under
const DefaultName = "Soft Loopback"

// sinkQueue is the number of output blocks buffered for the sink
const sinkQueue = 32

// Config configures a soft driver. Zero values are replaced by defaults.
type Config struct {
	Name       string
	Inputs     int
	Outputs    int
	SampleType asio.SampleType
	// InputTypes and OutputTypes override SampleType per channel
	InputTypes  []asio.SampleType
	OutputTypes []asio.SampleType
	BufferSize  asio.BufferSize
	SampleRate  float64

	// DisableOutputReady makes OutputReady report ErrNotPresent
	DisableOutputReady bool

	// Source feeds the input channels; input i takes source channel
	// i modulo the source's channel count. Nil inputs stay silent.
	Source decode.Source
	// Sink receives the interleaved output channels. Nil discards.
	Sink output.Output
}

func (c *Config) defaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Inputs == 0 {
		c.Inputs = 2
	}
	if c.Outputs == 0 {
		c.Outputs = 2
	}
	if c.SampleType == 0 && len(c.InputTypes) == 0 && len(c.OutputTypes) == 0 {
		c.SampleType = asio.Int32LSB
	}
	if c.BufferSize == (asio.BufferSize{}) {
		c.BufferSize = asio.BufferSize{Min: 256, Max: 2048, Preferred: 512, Granularity: 32}
	}
	if c.SampleRate == 0 {
		c.SampleRate = 48000
	}
}

// Stats are the driver's block counters
type Stats struct {
	Blocks        uint64 // buffer switches delivered
	OutputReadies uint64 // early output acknowledgments received
	SinkDrops     uint64 // output blocks dropped because the sink fell behind
	SinkErrors    uint64 // sink write failures
}

// Driver is a software asio.Driver
type Driver struct {
	config Config

	mu          sync.Mutex
	initialized bool
	sampleRate  float64
	inLatency   int
	outLatency  int

	// valid between CreateBuffers and DisposeBuffers
	buffers     [][2][]byte
	infos       []asio.BufferInfo
	callbacks   asio.Callbacks
	blockFrames int
	useTimeInfo bool
	source      resample.Reader
	srcBuf      []int32

	half     int
	position int64

	clock *clock

	sinkCh   chan []int32
	sinkDone chan struct{}
	pending  sync.WaitGroup

	blocks        atomic.Uint64
	outputReadies atomic.Uint64
	sinkDrops     atomic.Uint64
	sinkErrors    atomic.Uint64
}

// New creates a soft driver
func New(config Config) *Driver {
	config.defaults()
	return &Driver{config: config}
}

// Name returns the configured driver name
func (d *Driver) Name() string {
	return d.config.Name
}

func (d *Driver) Init() (asio.DriverInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.initialized = true
	d.sampleRate = d.config.SampleRate
	d.inLatency = d.config.BufferSize.Min
	d.outLatency = 2 * d.config.BufferSize.Min

	log.Printf("Soft driver initialized: %s, %d in / %d out", d.config.Name, d.config.Inputs, d.config.Outputs)
	return asio.DriverInfo{Name: d.config.Name, Version: 1}, nil
}

func (d *Driver) Exit() error {
	d.DisposeBuffers()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
	return nil
}

func (d *Driver) GetChannels() (int, int, error) {
	if !d.isInitialized() {
		return 0, 0, asio.ErrNotPresent
	}
	return d.config.Inputs, d.config.Outputs, nil
}

func (d *Driver) GetLatencies() (int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, 0, asio.ErrNotPresent
	}
	return d.inLatency, d.outLatency, nil
}

func (d *Driver) GetBufferSize() (asio.BufferSize, error) {
	if !d.isInitialized() {
		return asio.BufferSize{}, asio.ErrNotPresent
	}
	return d.config.BufferSize, nil
}

func (d *Driver) CanSampleRate(rate float64) error {
	if rate <= 0 {
		return asio.ErrNoClock
	}
	return nil
}

func (d *Driver) GetSampleRate() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, asio.ErrNotPresent
	}
	return d.sampleRate, nil
}

func (d *Driver) SetSampleRate(rate float64) error {
	if err := d.CanSampleRate(rate); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.clock != nil {
		return asio.ErrInvalidMode
	}
	d.sampleRate = rate
	return nil
}

func (d *Driver) GetChannelInfo(channel int, isInput bool) (asio.ChannelInfo, error) {
	count, prefix := d.config.Outputs, "Out"
	if isInput {
		count, prefix = d.config.Inputs, "In"
	}
	if channel < 0 || channel >= count {
		return asio.ChannelInfo{}, asio.ErrInvalidParameter
	}
	return asio.ChannelInfo{
		Channel:    channel,
		IsInput:    isInput,
		IsActive:   d.hasBuffers(),
		SampleType: d.typeOf(channel, isInput),
		Name:       fmt.Sprintf("%s %d", prefix, channel+1),
	}, nil
}

func (d *Driver) typeOf(channel int, isInput bool) asio.SampleType {
	types := d.config.OutputTypes
	if isInput {
		types = d.config.InputTypes
	}
	if channel < len(types) {
		return types[channel]
	}
	return d.config.SampleType
}

func (d *Driver) CreateBuffers(infos []asio.BufferInfo, bufferSize int, callbacks asio.Callbacks) error {
	if bufferSize <= 0 || bufferSize > d.config.BufferSize.Max {
		return asio.ErrInvalidParameter
	}
	if callbacks.BufferSwitch == nil && callbacks.BufferSwitchTimeInfo == nil {
		return asio.ErrInvalidParameter
	}

	// hosts that answer the time info query get the timed callback
	useTimeInfo := callbacks.BufferSwitchTimeInfo != nil &&
		(callbacks.BufferSwitch == nil ||
			(callbacks.Message != nil && callbacks.Message(asio.SupportsTimeInfo, 0) == 1))

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return asio.ErrNotPresent
	}
	if d.buffers != nil {
		return asio.ErrInvalidMode
	}

	buffers := make([][2][]byte, len(infos))
	for i := range infos {
		count := d.config.Outputs
		if infos[i].IsInput {
			count = d.config.Inputs
		}
		if infos[i].Channel < 0 || infos[i].Channel >= count {
			return asio.ErrInvalidParameter
		}

		width := d.typeOf(infos[i].Channel, infos[i].IsInput).Width()
		if width == 0 {
			width = 4
		}
		for half := 0; half < 2; half++ {
			buffers[i][half] = make([]byte, bufferSize*width)
			infos[i].Buffers[half] = unsafe.Pointer(&buffers[i][half][0])
		}
	}

	d.buffers = buffers
	d.infos = infos
	d.callbacks = callbacks
	d.blockFrames = bufferSize
	d.half = 0
	d.position = 0
	d.useTimeInfo = useTimeInfo

	if d.config.Source != nil {
		d.source = resample.NewSource(d.config.Source, int(d.sampleRate))
		d.srcBuf = make([]int32, bufferSize*d.source.Channels())
	}

	d.startSink()

	log.Printf("Soft driver buffers created: %d channels, %d frames @ %.0fHz", len(infos), bufferSize, d.sampleRate)
	return nil
}

func (d *Driver) DisposeBuffers() error {
	d.Stop()

	d.mu.Lock()
	if d.buffers == nil {
		d.mu.Unlock()
		return asio.ErrInvalidMode
	}
	d.buffers = nil
	d.infos = nil
	d.callbacks = asio.Callbacks{}
	d.source = nil
	sinkCh, sinkDone := d.sinkCh, d.sinkDone
	d.sinkCh, d.sinkDone = nil, nil
	d.mu.Unlock()

	if sinkCh != nil {
		close(sinkCh)
		<-sinkDone
	}
	return nil
}

func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.buffers == nil {
		return asio.ErrInvalidMode
	}
	if d.clock != nil {
		return nil
	}

	d.clock = newClock(d.blockFrames, d.sampleRate, d.Tick)
	d.clock.start()
	log.Printf("Soft driver started")
	return nil
}

// Stop halts the block clock and waits for an in-flight block to finish
func (d *Driver) Stop() error {
	d.mu.Lock()
	c := d.clock
	d.clock = nil
	d.mu.Unlock()

	if c == nil {
		return nil
	}
	c.stop()
	log.Printf("Soft driver stopped")
	return nil
}

func (d *Driver) OutputReady() error {
	if d.config.DisableOutputReady {
		return asio.ErrNotPresent
	}
	if d.hasBuffers() {
		d.outputReadies.Add(1)
	}
	return nil
}

// Tick processes one block: fill inputs, invoke the host callback,
// forward outputs to the sink and flip halves. The block clock calls it;
// tests may call it directly while the clock is stopped.
func (d *Driver) Tick() {
	d.mu.Lock()
	if d.buffers == nil {
		d.mu.Unlock()
		return
	}

	half := d.half
	d.fillInputs(half)
	callbacks := d.callbacks
	useTimeInfo := d.useTimeInfo
	timeInfo := asio.Time{SamplePosition: d.position, SampleRate: d.sampleRate}
	d.mu.Unlock()

	// the host callback runs without the driver lock, as on a real driver thread
	if useTimeInfo {
		callbacks.BufferSwitchTimeInfo(&timeInfo, half, true)
	} else {
		callbacks.BufferSwitch(half, true)
	}
	d.blocks.Add(1)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.buffers == nil {
		return
	}
	d.renderOutputs(half)
	d.half = 1 - half
	d.position += int64(d.blockFrames)
}

// fillInputs must be called with d.mu held
func (d *Driver) fillInputs(half int) {
	var srcChannels int
	if d.source != nil {
		srcChannels = d.source.Channels()
		n, err := d.source.Read(d.srcBuf)
		if err != nil {
			log.Printf("Soft driver source error: %v", err)
			n = 0
		}
		clear(d.srcBuf[n:])
	}

	for i, info := range d.infos {
		if !info.IsInput {
			continue
		}
		buf := d.buffers[i][half]
		if srcChannels == 0 {
			clear(buf)
			continue
		}
		t := d.typeOf(info.Channel, true)
		if err := audio.EncodeChannel(t, buf, d.srcBuf, srcChannels, info.Channel%srcChannels, d.blockFrames); err != nil {
			clear(buf)
		}
	}
}

// renderOutputs must be called with d.mu held
func (d *Driver) renderOutputs(half int) {
	if d.sinkCh == nil {
		return
	}

	outputs := d.config.Outputs
	block := make([]int32, d.blockFrames*outputs)
	for i, info := range d.infos {
		if info.IsInput {
			continue
		}
		t := d.typeOf(info.Channel, false)
		// unsupported output types render as silence
		_ = audio.DecodeChannel(t, d.buffers[i][half], block, outputs, info.Channel, d.blockFrames)
	}

	d.pending.Add(1)
	select {
	case d.sinkCh <- block:
	default:
		d.pending.Done()
		d.sinkDrops.Add(1)
	}
}

// startSink must be called with d.mu held
func (d *Driver) startSink() {
	sink := d.config.Sink
	if sink == nil {
		return
	}
	if err := sink.Open(int(d.sampleRate), d.config.Outputs); err != nil {
		log.Printf("Soft driver sink unavailable: %v", err)
		return
	}

	ch := make(chan []int32, sinkQueue)
	done := make(chan struct{})
	d.sinkCh, d.sinkDone = ch, done

	go func() {
		defer close(done)
		defer sink.Close()
		for block := range ch {
			if err := sink.Write(block); err != nil {
				d.sinkErrors.Add(1)
			}
			d.pending.Done()
		}
	}()
}

// Drain waits until every queued output block reached the sink
func (d *Driver) Drain() {
	d.pending.Wait()
}

// RequestReset asks the host to reset, as a driver does after a
// configuration change. Delivered on the calling goroutine.
func (d *Driver) RequestReset() int {
	return d.message(asio.ResetRequest, 0)
}

// SetLatencies changes the reported latencies and notifies the host
func (d *Driver) SetLatencies(input, output int) int {
	d.mu.Lock()
	d.inLatency = input
	d.outLatency = output
	d.mu.Unlock()
	return d.message(asio.LatenciesChanged, 0)
}

// NotifySampleRate reports an external clock change to the host
func (d *Driver) NotifySampleRate(rate float64) {
	d.mu.Lock()
	cb := d.callbacks.SampleRateDidChange
	d.mu.Unlock()
	if cb != nil {
		cb(rate)
	}
}

func (d *Driver) message(selector asio.Selector, value int) int {
	d.mu.Lock()
	cb := d.callbacks.Message
	d.mu.Unlock()
	if cb == nil {
		return 0
	}
	if cb(asio.SelectorSupported, int(selector)) != 1 {
		return 0
	}
	return cb(selector, value)
}

// Running reports whether the block clock is active
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clock != nil
}

// Stats returns a snapshot of the block counters
func (d *Driver) Stats() Stats {
	return Stats{
		Blocks:        d.blocks.Load(),
		OutputReadies: d.outputReadies.Load(),
		SinkDrops:     d.sinkDrops.Load(),
		SinkErrors:    d.sinkErrors.Load(),
	}
}

// Buffer returns one half of a channel's buffer for inspection. Only
// meaningful while the clock is stopped.
func (d *Driver) Buffer(channel int, isInput bool, half int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, info := range d.infos {
		if info.Channel == channel && info.IsInput == isInput {
			return d.buffers[i][half]
		}
	}
	return nil
}

func (d *Driver) isInitialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

func (d *Driver) hasBuffers() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buffers != nil
}
