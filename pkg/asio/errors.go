// ABOUTME: ASIO driver result codes
// ABOUTME: Maps ASE_* codes onto a Go error type
package asio

import (
	"errors"
	"fmt"
)

// Error is a non-OK driver result code
type Error int32

const (
	ErrNotPresent       Error = -1000 // hardware input or output is not present or available
	ErrHWMalfunction    Error = -999  // hardware is malfunctioning
	ErrInvalidParameter Error = -998  // input parameter invalid
	ErrInvalidMode      Error = -997  // hardware is in a bad mode or used in a bad mode
	ErrSPNotAdvancing   Error = -996  // hardware is not running when sample position is inquired
	ErrNoClock          Error = -995  // sample clock or rate cannot be determined or is not present
	ErrNoMemory         Error = -994  // not enough memory for completing the request
)

func (e Error) Error() string {
	switch e {
	case ErrNotPresent:
		return "asio: not present"
	case ErrHWMalfunction:
		return "asio: hardware malfunction"
	case ErrInvalidParameter:
		return "asio: invalid parameter"
	case ErrInvalidMode:
		return "asio: invalid mode"
	case ErrSPNotAdvancing:
		return "asio: sample position not advancing"
	case ErrNoClock:
		return "asio: no clock"
	case ErrNoMemory:
		return "asio: no memory"
	default:
		return fmt.Sprintf("asio: error %d", int32(e))
	}
}

// ErrUnknownDriver is returned by Registry.Load for an unregistered name
var ErrUnknownDriver = errors.New("asio: unknown driver")
