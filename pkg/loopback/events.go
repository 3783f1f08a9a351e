// ABOUTME: Driver event handlers
// ABOUTME: Answers capability queries and handles reset, latency and sample-rate notifications
package loopback

import (
	"log"

	"github.com/asiomic/asiomic-go/pkg/asio"
)

// message answers a driver message. Runs on a driver thread.
func (s *Session) message(selector asio.Selector, value int) int {
	switch selector {
	case asio.SelectorSupported:
		if supportsSelector(asio.Selector(value)) {
			return 1
		}
		return 0
	case asio.EngineVersion:
		return engineVersion
	case asio.ResetRequest:
		s.handleResetRequest()
		return 1
	case asio.LatenciesChanged:
		s.refreshLatencies()
		return 1
	case asio.SupportsTimeInfo, asio.SupportsTimeCode:
		return 0
	default:
		return 0
	}
}

func supportsSelector(selector asio.Selector) bool {
	switch selector {
	case asio.ResetRequest, asio.EngineVersion, asio.LatenciesChanged:
		return true
	default:
		return false
	}
}

// handleResetRequest restarts a streaming session in place. A session
// that is not streaming has nothing to restart.
func (s *Session) handleResetRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateStarted {
		log.Printf("Driver reset request ignored in state %s", s.State())
		return
	}

	log.Printf("Driver requested reset, restarting")
	s.stop()
	if err := s.start(); err != nil {
		log.Printf("Restart after reset failed: %v", err)
		if s.config.OnError != nil {
			s.config.OnError(err)
		}
	}
}

// refreshLatencies re-queries latencies. A failed query keeps the previous values.
func (s *Session) refreshLatencies() {
	in, out, err := s.driver.GetLatencies()
	if err != nil {
		log.Printf("Latency refresh failed, keeping previous values: %v", err)
		return
	}
	s.inputLatency.Store(int64(in))
	s.outputLatency.Store(int64(out))

	if s.config.OnLatencyChange != nil {
		s.config.OnLatencyChange(in, out)
	}
}

// sampleRateChanged is acknowledged only: the session keeps the rate it negotiated
func (s *Session) sampleRateChanged(rate float64) {
	log.Printf("Driver sample rate changed to %.0fHz (session stays at %.0fHz)", rate, s.sampleRate)
}
