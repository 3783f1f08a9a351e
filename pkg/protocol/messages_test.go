// ABOUTME: Tests for control protocol message types
// ABOUTME: Verifies the wire field names controllers depend on
package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestStatusWireNames(t *testing.T) {
	status := Status{
		Driver:        "Soft Loopback",
		State:         "started",
		Inputs:        2,
		Outputs:       2,
		BlockFrames:   256,
		SampleRate:    48000,
		InputLatency:  256,
		OutputLatency: 512,
		Routes:        [][]float64{{1, 0}, {0, 0}},
		Counters:      Counters{Cycles: 10, FormatMismatches: 1},
	}

	data, err := json.Marshal(Message{Type: TypeServerStatus, Payload: status})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	for _, field := range []string{
		`"type":"server/status"`,
		`"block_frames":256`,
		`"input_latency":256`,
		`"output_latency":512`,
		`"routes":[[1,0],[0,0]]`,
		`"format_mismatches":1`,
	} {
		if !strings.Contains(string(data), field) {
			t.Errorf("expected %s in %s", field, data)
		}
	}
	if strings.Contains(string(data), "input_names") {
		t.Error("expected empty names to be omitted")
	}
}

func TestNoSessionStatusKeepsSentinels(t *testing.T) {
	data, err := json.Marshal(Status{State: "uninitialized", InputLatency: -1, OutputLatency: -1})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded Status
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if decoded.InputLatency != -1 || decoded.OutputLatency != -1 {
		t.Errorf("expected -1 latencies, got %d/%d", decoded.InputLatency, decoded.OutputLatency)
	}
}

func TestCommandDecoding(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Command
	}{
		{
			name: "route",
			json: `{"command":"route","input":1,"output":0,"level":0.5}`,
			want: Command{Command: CommandRoute, Input: 1, Output: 0, Level: 0.5},
		},
		{
			name: "initialize",
			json: `{"command":"initialize","driver":"Soft Loopback"}`,
			want: Command{Command: CommandInitialize, Driver: "Soft Loopback"},
		},
		{
			name: "start",
			json: `{"command":"start"}`,
			want: Command{Command: CommandStart},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd Command
			if err := json.Unmarshal([]byte(tt.json), &cmd); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if cmd != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, cmd)
			}
		})
	}
}
