// ABOUTME: Session state machine
// ABOUTME: Uninitialized -> Negotiating -> Ready -> Started <-> Stopped -> Released
package loopback

import "fmt"

// State is the lifecycle state of a Session
type State int32

const (
	StateUninitialized State = iota
	StateNegotiating
	StateReady
	StateStarted
	StateStopped
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateNegotiating:
		return "negotiating"
	case StateReady:
		return "ready"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// canStart reports whether Start may move the session to StateStarted
func (s State) canStart() bool {
	return s == StateReady || s == StateStopped
}
