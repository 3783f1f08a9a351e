// ABOUTME: Loopback error taxonomy
// ABOUTME: Defines sentinel errors and per-step negotiation failures
package loopback

import "errors"

var (
	// ErrNotInitialized is reported when an operation needs a session that does not exist
	ErrNotInitialized = errors.New("ASIO is not initialized")

	// ErrStartFailed wraps a driver rejection of Start
	ErrStartFailed = errors.New("failed to start ASIO")

	// ErrReleased is returned by operations on a released session
	ErrReleased = errors.New("session has been released")

	// ErrRouteOutOfRange is returned for matrix indices outside the negotiated channel counts
	ErrRouteOutOfRange = errors.New("route index out of range")

	// ErrTooManyChannels is returned when the driver reports more channels than asio.MaxChannels
	ErrTooManyChannels = errors.New("too many channels")

	// ErrInvalidBufferSize is returned when the driver reports a non-positive minimum buffer size
	ErrInvalidBufferSize = errors.New("invalid buffer size")
)

// Step identifies one phase of session negotiation
type Step int

const (
	StepInit Step = iota
	StepChannels
	StepBufferSize
	StepSampleRate
	StepSampleRateFallback
	StepCreateBuffers
	StepChannelInfo
	StepLatencies
)

func (s Step) String() string {
	switch s {
	case StepInit:
		return "failed to initialize ASIO"
	case StepChannels:
		return "failed to query channel count"
	case StepBufferSize:
		return "failed to query buffer size"
	case StepSampleRate:
		return "failed to query sample rate"
	case StepSampleRateFallback:
		return "failed to fall back to default sample rate 44100Hz"
	case StepCreateBuffers:
		return "failed to create ASIO buffers"
	case StepChannelInfo:
		return "failed to query channel info"
	case StepLatencies:
		return "failed to query latencies"
	default:
		return "negotiation failed"
	}
}

// NegotiationError reports which negotiation step failed
type NegotiationError struct {
	Step Step
	Err  error
}

func (e *NegotiationError) Error() string {
	if e.Err == nil {
		return e.Step.String()
	}
	return e.Step.String() + ": " + e.Err.Error()
}

func (e *NegotiationError) Unwrap() error {
	return e.Err
}
