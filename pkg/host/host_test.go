// ABOUTME: Tests for the embedding-host boundary
// ABOUTME: Covers sentinels before a session, failure cleanup and diagnostics delivery
package host

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/asiomic/asiomic-go/internal/asiotest"
	"github.com/asiomic/asiomic-go/pkg/asio"
	"github.com/asiomic/asiomic-go/pkg/loopback"
)

type recorder struct {
	messages []string
}

func (r *recorder) log(message string) {
	r.messages = append(r.messages, message)
}

func (r *recorder) contains(substr string) bool {
	for _, m := range r.messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func newTestHost(t *testing.T) (*Host, *asiotest.Driver, *recorder) {
	t.Helper()
	drv := asiotest.NewDriver()
	registry := asio.NewRegistry()
	registry.Register("Fake Driver", func() (asio.Driver, error) { return drv, nil })

	h := New(registry)
	rec := &recorder{}
	h.SetDiagnostics(rec.log)
	t.Cleanup(h.Release)
	return h, drv, rec
}

func TestSentinelsBeforeSession(t *testing.T) {
	h, _, rec := newTestHost(t)

	if got := h.InputLatency(); got != -1 {
		t.Errorf("expected input latency -1, got %d", got)
	}
	if got := h.OutputLatency(); got != -1 {
		t.Errorf("expected output latency -1, got %d", got)
	}
	if got := h.SampleRate(); got != 0 {
		t.Errorf("expected sample rate 0, got %f", got)
	}
	if got := h.InputChannelCount(); got != 0 {
		t.Errorf("expected 0 inputs, got %d", got)
	}
	if got := h.OutputChannelCount(); got != 0 {
		t.Errorf("expected 0 outputs, got %d", got)
	}
	if got := h.InputChannelNames(); got != nil {
		t.Errorf("expected nil input names, got %v", got)
	}
	if got := h.OutputChannelNames(); got != nil {
		t.Errorf("expected nil output names, got %v", got)
	}
	if h.SetInputSendLevel(0, 0, 1) {
		t.Error("expected send level to fail without a session")
	}
	if h.StartLoopback() {
		t.Error("expected start to fail without a session")
	}
	h.StopLoopback()
	if h.Routes() != nil {
		t.Error("expected nil routes")
	}

	// one diagnostic per call above
	if len(rec.messages) != 11 {
		t.Errorf("expected 11 diagnostics, got %d: %v", len(rec.messages), rec.messages)
	}
	for _, m := range rec.messages {
		if m != loopback.ErrNotInitialized.Error() {
			t.Errorf("unexpected diagnostic %q", m)
		}
	}

	status := h.Status()
	if status.State != loopback.StateUninitialized || status.InputLatency != -1 || status.OutputLatency != -1 {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestStatusDoesNotDiagnose(t *testing.T) {
	h, _, rec := newTestHost(t)
	h.Status()
	if len(rec.messages) != 0 {
		t.Errorf("expected no diagnostics, got %v", rec.messages)
	}
}

func TestInitializeAndQuery(t *testing.T) {
	h, drv, rec := newTestHost(t)

	if !h.Initialize("Fake Driver") {
		t.Fatalf("expected initialize to succeed, diagnostics: %v", rec.messages)
	}

	if h.InputLatency() != 64 || h.OutputLatency() != 128 {
		t.Errorf("expected latencies 64/128, got %d/%d", h.InputLatency(), h.OutputLatency())
	}
	if h.SampleRate() != 48000 {
		t.Errorf("expected 48000, got %f", h.SampleRate())
	}
	if h.InputChannelCount() != 2 || h.OutputChannelCount() != 2 {
		t.Error("expected 2x2 channels")
	}
	if names := h.OutputChannelNames(); len(names) != 2 || names[1] != "Out 2" {
		t.Errorf("unexpected output names %v", names)
	}

	if !h.SetInputSendLevel(1, 0, 0.5) {
		t.Error("expected send level to succeed")
	}
	if routes := h.Routes(); routes[1][0] != 0.5 {
		t.Errorf("expected route 1->0 at 0.5, got %v", routes)
	}

	if !h.StartLoopback() {
		t.Fatalf("expected start to succeed, diagnostics: %v", rec.messages)
	}
	if h.Status().State != loopback.StateStarted {
		t.Errorf("expected started, got %s", h.Status().State)
	}
	h.StopLoopback()
	if drv.CallCount(asiotest.MethodStop) != 1 {
		t.Errorf("expected one driver stop, got %d", drv.CallCount(asiotest.MethodStop))
	}

	status := h.Status()
	if status.Driver != "Fake Driver" || status.State != loopback.StateStopped || status.BlockFrames != 64 {
		t.Errorf("unexpected status %+v", status)
	}
	if len(rec.messages) != 0 {
		t.Errorf("expected no diagnostics, got %v", rec.messages)
	}
}

func TestInitializeCurrentDriver(t *testing.T) {
	h, _, _ := newTestHost(t)

	if h.Initialize("") {
		t.Error("expected initialize without a loaded driver to fail")
	}
	if !h.LoadDriver("Fake Driver") {
		t.Fatal("expected load to succeed")
	}
	if !h.Initialize("") {
		t.Error("expected initialize of the loaded driver to succeed")
	}
}

func TestLoadUnknownDriver(t *testing.T) {
	h, _, rec := newTestHost(t)
	if h.LoadDriver("Missing") {
		t.Error("expected unknown driver to fail")
	}
	if !rec.contains("Missing") {
		t.Errorf("expected diagnostic naming the driver, got %v", rec.messages)
	}
}

func TestInitializeFailureRemovesDriver(t *testing.T) {
	h, drv, rec := newTestHost(t)
	drv.FailOn(asiotest.MethodGetLatencies, asio.ErrHWMalfunction)

	if h.Initialize("Fake Driver") {
		t.Fatal("expected initialize to fail")
	}
	if !rec.contains("failed to query latencies") {
		t.Errorf("expected latency diagnostic, got %v", rec.messages)
	}
	if h.Status().Driver != "" {
		t.Error("expected driver selection removed")
	}
	if h.Session() != nil {
		t.Error("expected no session")
	}
}

func TestStartFailureReleases(t *testing.T) {
	h, drv, rec := newTestHost(t)
	if !h.Initialize("Fake Driver") {
		t.Fatal("expected initialize to succeed")
	}
	drv.FailOn(asiotest.MethodStart, asio.ErrHWMalfunction)
	drv.ResetCalls()

	if h.StartLoopback() {
		t.Fatal("expected start to fail")
	}
	if !rec.contains(loopback.ErrStartFailed.Error()) {
		t.Errorf("expected start failure diagnostic, got %v", rec.messages)
	}

	calls := drv.Calls()
	want := []string{asiotest.MethodStart, asiotest.MethodDisposeBuffers, asiotest.MethodExit}
	if len(calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], calls[i])
		}
	}

	if h.Session() != nil || h.Status().Driver != "" {
		t.Error("expected session and driver released")
	}
	if h.InputLatency() != -1 {
		t.Error("expected sentinel after release")
	}
}

func TestSendLevelOutOfRange(t *testing.T) {
	h, _, rec := newTestHost(t)
	h.Initialize("Fake Driver")

	tests := []struct {
		in, out int
	}{
		{-1, 0},
		{0, -1},
		{2, 0},
		{0, 2},
	}
	for _, tt := range tests {
		if h.SetInputSendLevel(tt.in, tt.out, 1) {
			t.Errorf("expected (%d, %d) to be rejected", tt.in, tt.out)
		}
	}
	if len(rec.messages) != len(tests) {
		t.Errorf("expected %d diagnostics, got %v", len(tests), rec.messages)
	}
	if !rec.contains(loopback.ErrRouteOutOfRange.Error()) {
		t.Errorf("expected out of range diagnostic, got %v", rec.messages)
	}
}

func TestFormatMismatchCounter(t *testing.T) {
	h, drv, _ := newTestHost(t)
	drv.Types = []asio.SampleType{asio.Int16LSB, asio.Int16LSB, asio.Int32LSB, asio.Int32LSB}
	h.Initialize("Fake Driver")
	h.SetInputSendLevel(0, 0, 1)

	drv.Callbacks().BufferSwitch(0, true)
	drv.Callbacks().BufferSwitch(1, true)

	if got := h.FormatMismatches(); got != 2 {
		t.Errorf("expected 2 mismatches, got %d", got)
	}
	if got := h.ResetFormatMismatches(); got != 2 {
		t.Errorf("expected reset to return 2, got %d", got)
	}
	if got := h.FormatMismatches(); got != 0 {
		t.Errorf("expected 0 after reset, got %d", got)
	}
}

func TestClearRoutes(t *testing.T) {
	h, _, rec := newTestHost(t)

	if h.ClearRoutes() {
		t.Error("expected clear to fail without a session")
	}
	if !rec.contains(loopback.ErrNotInitialized.Error()) {
		t.Errorf("expected not-initialized diagnostic, got %v", rec.messages)
	}

	h.Initialize("Fake Driver")
	h.SetInputSendLevel(0, 1, 1)
	h.SetInputSendLevel(1, 0, 1)

	if !h.ClearRoutes() {
		t.Fatal("expected clear to succeed")
	}
	for i, row := range h.Routes() {
		for o, level := range row {
			if level != 0 {
				t.Errorf("expected (%d, %d) muted, got %v", i, o, level)
			}
		}
	}
}

func TestDriverNames(t *testing.T) {
	registry := asio.NewRegistry()
	registry.Register("A Very Long Driver Name That Exceeds The Slot", func() (asio.Driver, error) {
		return asiotest.NewDriver(), nil
	})
	registry.Register("Short", func() (asio.Driver, error) {
		return nil, errors.New("not installed")
	})
	h := New(registry)

	if h.DriverNameMaxLength() != 32 {
		t.Errorf("expected 32, got %d", h.DriverNameMaxLength())
	}
	names := h.Drivers()
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %v", names)
	}
	if len(names[0]) != 31 {
		t.Errorf("expected name cut to 31 bytes, got %d", len(names[0]))
	}
	if !h.LoadDriver(names[0]) {
		t.Error("expected truncated name to load")
	}
	if h.LoadDriver("Short") {
		t.Error("expected failing factory to report false")
	}
}

func TestWideDiagnostics(t *testing.T) {
	h := New(asio.NewRegistry())
	var got string
	h.SetWideDiagnostics(func(message []uint16) {
		if message[len(message)-1] != 0 {
			t.Error("expected NUL terminator")
		}
		got = string(utf16.Decode(message[:len(message)-1]))
	})

	h.SampleRate()
	if got != loopback.ErrNotInitialized.Error() {
		t.Errorf("expected %q, got %q", loopback.ErrNotInitialized.Error(), got)
	}
}

func TestReinitializeReleasesPrevious(t *testing.T) {
	h, drv, _ := newTestHost(t)
	h.Initialize("Fake Driver")
	first := h.Session()

	h.Initialize("Fake Driver")
	if first.State() != loopback.StateReleased {
		t.Errorf("expected previous session released, got %s", first.State())
	}
	if drv.CallCount(asiotest.MethodInit) != 2 {
		t.Errorf("expected driver initialized twice, got %d", drv.CallCount(asiotest.MethodInit))
	}
}
