// ABOUTME: ASIO driver type definitions
// ABOUTME: Defines sample types, buffer/channel descriptors, callbacks and selectors
package asio

import (
	"fmt"
	"unsafe"
)

const (
	// MaxChannels is the per-direction channel cap a session accepts
	MaxChannels = 32

	// MaxDriverNameLength is the fixed size of a driver name slot,
	// including room for a terminator
	MaxDriverNameLength = 32

	// MaxChannelNameLength is the fixed size of a channel name slot,
	// including room for a terminator
	MaxChannelNameLength = 32
)

// SampleType is the sample format tag a driver reports per channel.
// Values match the ASIO SDK.
type SampleType int32

const (
	Int16MSB   SampleType = 0
	Int24MSB   SampleType = 1 // used for 20 bits as well
	Int32MSB   SampleType = 2
	Float32MSB SampleType = 3
	Float64MSB SampleType = 4

	// 32 bit containers with the sample aligned to the low bits
	Int32MSB16 SampleType = 8
	Int32MSB18 SampleType = 9
	Int32MSB20 SampleType = 10
	Int32MSB24 SampleType = 11

	Int16LSB   SampleType = 16
	Int24LSB   SampleType = 17 // used for 20 bits as well
	Int32LSB   SampleType = 18
	Float32LSB SampleType = 19
	Float64LSB SampleType = 20

	Int32LSB16 SampleType = 24
	Int32LSB18 SampleType = 25
	Int32LSB20 SampleType = 26
	Int32LSB24 SampleType = 27

	// DSD formats are reported by some drivers but never routed
	DSDInt8LSB1 SampleType = 32
	DSDInt8MSB1 SampleType = 33
	DSDInt8NER8 SampleType = 40
)

// Kind groups sample types by how a block of them is copied
type Kind int

const (
	KindUnsupported Kind = iota
	KindInt16
	KindInt24
	KindInt32
	KindFloat32
	KindFloat64
)

// Kind returns the copy family of the sample type. The aligned 32-bit
// variants belong to KindInt32; their alignment is not interpreted.
func (t SampleType) Kind() Kind {
	switch t {
	case Int16LSB, Int16MSB:
		return KindInt16
	case Int24LSB, Int24MSB:
		return KindInt24
	case Int32LSB, Int32MSB,
		Int32LSB16, Int32LSB18, Int32LSB20, Int32LSB24,
		Int32MSB16, Int32MSB18, Int32MSB20, Int32MSB24:
		return KindInt32
	case Float32LSB, Float32MSB:
		return KindFloat32
	case Float64LSB, Float64MSB:
		return KindFloat64
	default:
		return KindUnsupported
	}
}

// Width returns the number of bytes one sample occupies, or 0 when the
// type cannot be routed.
func (t SampleType) Width() int {
	switch t.Kind() {
	case KindInt16:
		return 2
	case KindInt24:
		return 3
	case KindInt32, KindFloat32:
		return 4
	case KindFloat64:
		return 8
	default:
		return 0
	}
}

// Supported reports whether blocks of this type can be routed
func (t SampleType) Supported() bool {
	return t.Kind() != KindUnsupported
}

// BigEndian reports whether the type is one of the MSB variants
func (t SampleType) BigEndian() bool {
	return t < Int16LSB
}

// AlignmentBits returns the effective bit width of the aligned 32-bit
// variants and 0 for every other type.
func (t SampleType) AlignmentBits() int {
	switch t {
	case Int32LSB16, Int32MSB16:
		return 16
	case Int32LSB18, Int32MSB18:
		return 18
	case Int32LSB20, Int32MSB20:
		return 20
	case Int32LSB24, Int32MSB24:
		return 24
	default:
		return 0
	}
}

var sampleTypeNames = map[SampleType]string{
	Int16MSB:    "Int16MSB",
	Int24MSB:    "Int24MSB",
	Int32MSB:    "Int32MSB",
	Float32MSB:  "Float32MSB",
	Float64MSB:  "Float64MSB",
	Int32MSB16:  "Int32MSB16",
	Int32MSB18:  "Int32MSB18",
	Int32MSB20:  "Int32MSB20",
	Int32MSB24:  "Int32MSB24",
	Int16LSB:    "Int16LSB",
	Int24LSB:    "Int24LSB",
	Int32LSB:    "Int32LSB",
	Float32LSB:  "Float32LSB",
	Float64LSB:  "Float64LSB",
	Int32LSB16:  "Int32LSB16",
	Int32LSB18:  "Int32LSB18",
	Int32LSB20:  "Int32LSB20",
	Int32LSB24:  "Int32LSB24",
	DSDInt8LSB1: "DSDInt8LSB1",
	DSDInt8MSB1: "DSDInt8MSB1",
	DSDInt8NER8: "DSDInt8NER8",
}

func (t SampleType) String() string {
	if name, ok := sampleTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("SampleType(%d)", int32(t))
}

// ParseSampleType resolves a name such as "Int32LSB" to its tag
func ParseSampleType(name string) (SampleType, error) {
	for t, n := range sampleTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown sample type: %s", name)
}

// BufferSize is the driver-reported buffer geometry in frames
type BufferSize struct {
	Min         int
	Max         int
	Preferred   int
	Granularity int
}

// DriverInfo is returned by Driver.Init
type DriverInfo struct {
	Name         string
	Version      int
	ErrorMessage string
}

// ChannelInfo describes one driver channel
type ChannelInfo struct {
	Channel      int
	IsInput      bool
	IsActive     bool
	ChannelGroup int
	SampleType   SampleType
	Name         string
}

// BufferInfo names one channel for CreateBuffers. The driver fills
// Buffers with its ping/pong halves.
type BufferInfo struct {
	IsInput bool
	Channel int
	Buffers [2]unsafe.Pointer
}

// Time carries the optional timing block of BufferSwitchTimeInfo
type Time struct {
	SamplePosition int64
	SystemTime     int64
	SampleRate     float64
	Flags          uint32
}

// Selector identifies a driver message
type Selector int

const (
	SelectorSupported    Selector = 1
	EngineVersion        Selector = 2
	ResetRequest         Selector = 3
	BufferSizeChange     Selector = 4
	ResyncRequest        Selector = 5
	LatenciesChanged     Selector = 6
	SupportsTimeInfo     Selector = 7
	SupportsTimeCode     Selector = 8
	MMCCommand           Selector = 9
	SupportsInputMonitor Selector = 10
	SupportsInputGain    Selector = 11
	SupportsInputMeter   Selector = 12
	SupportsOutputGain   Selector = 13
	SupportsOutputMeter  Selector = 14
	Overload             Selector = 15
)

func (s Selector) String() string {
	switch s {
	case SelectorSupported:
		return "selector-supported"
	case EngineVersion:
		return "engine-version"
	case ResetRequest:
		return "reset-request"
	case BufferSizeChange:
		return "buffer-size-change"
	case ResyncRequest:
		return "resync-request"
	case LatenciesChanged:
		return "latencies-changed"
	case SupportsTimeInfo:
		return "supports-time-info"
	case SupportsTimeCode:
		return "supports-time-code"
	default:
		return fmt.Sprintf("selector(%d)", int(s))
	}
}

// Callbacks are the entry points a driver invokes on its own thread.
// They are closures, so each set carries its owning session.
type Callbacks struct {
	// BufferSwitch is called once per audio block with the half (0 or 1)
	// that is ready to be processed
	BufferSwitch func(doubleBufferIndex int, directProcess bool)

	// SampleRateDidChange reports a driver-side sample rate change
	SampleRateDidChange func(rate float64)

	// Message handles driver queries and notifications
	Message func(selector Selector, value int) int

	// BufferSwitchTimeInfo is the timed variant of BufferSwitch
	BufferSwitchTimeInfo func(params *Time, doubleBufferIndex int, directProcess bool) *Time
}

// Driver is the call surface of one loaded ASIO driver.
// Calls are made from the owning application goroutine.
type Driver interface {
	Init() (DriverInfo, error)
	Exit() error

	Start() error
	Stop() error

	GetChannels() (inputs, outputs int, err error)
	GetLatencies() (input, output int, err error)
	GetBufferSize() (BufferSize, error)

	CanSampleRate(rate float64) error
	GetSampleRate() (float64, error)
	SetSampleRate(rate float64) error

	GetChannelInfo(channel int, isInput bool) (ChannelInfo, error)

	// CreateBuffers allocates the double buffers for every entry of infos,
	// fills their Buffers field and registers callbacks
	CreateBuffers(infos []BufferInfo, bufferSize int, callbacks Callbacks) error
	DisposeBuffers() error

	// OutputReady tells the driver the output half is filled. Returns
	// nil when the driver supports the early acknowledgment.
	OutputReady() error
}
