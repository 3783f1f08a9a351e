// ABOUTME: Tests for the loopback application wiring
// ABOUTME: Tests route parsing, rig construction and route application
package app

import (
	"path/filepath"
	"testing"

	"github.com/asiomic/asiomic-go/pkg/asio"
	"github.com/asiomic/asiomic-go/pkg/host"
)

func TestParseRoutes(t *testing.T) {
	tests := []struct {
		name    string
		list    string
		want    []Route
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"single", "0:1", []Route{{0, 1, 1}}, false},
		{"list with spaces", "0:0, 1:1", []Route{{0, 0, 1}, {1, 1, 1}}, false},
		{"level", "1:0@0.5", []Route{{1, 0, 0.5}}, false},
		{"mute", "0:0@0", []Route{{0, 0, 0}}, false},
		{"missing output", "0", nil, true},
		{"bad input", "a:0", nil, true},
		{"bad level", "0:0@loud", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRoutes(tt.list)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d routes, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("route %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestNewRigDefaults(t *testing.T) {
	rig, err := NewRig(Config{})
	if err != nil {
		t.Fatalf("failed to create rig: %v", err)
	}
	defer rig.Close()

	names := rig.Registry.Names(0)
	if len(names) != 1 || names[0] != "Soft Loopback" {
		t.Errorf("expected the soft driver registered, got %v", names)
	}
}

func TestNewRigFormat(t *testing.T) {
	tests := []struct {
		format string
		want   asio.SampleType
	}{
		{"Int32LSB", asio.Int32LSB},
		{"Float32LSB", asio.Float32LSB},
		{"Int16MSB", asio.Int16MSB},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rig, err := NewRig(Config{Format: tt.format, Inputs: 2, Outputs: 2})
			if err != nil {
				t.Fatalf("failed to create rig: %v", err)
			}
			defer rig.Close()

			if _, err := rig.Driver.Init(); err != nil {
				t.Fatalf("failed to init driver: %v", err)
			}
			defer rig.Driver.Exit()

			info, err := rig.Driver.GetChannelInfo(1, false)
			if err != nil {
				t.Fatalf("failed to get channel info: %v", err)
			}
			if info.SampleType != tt.want {
				t.Errorf("expected %s, got %s", tt.want, info.SampleType)
			}
		})
	}
}

func TestNewRigErrors(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"unknown format", Config{Format: "Int12LSB"}},
		{"missing source", Config{Source: filepath.Join(t.TempDir(), "missing.mp3")}},
		{"bad recording", Config{Record: filepath.Join(t.TempDir(), "out.ogg")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRig(tt.config); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApplyRoutes(t *testing.T) {
	rig, err := NewRig(Config{Inputs: 2, Outputs: 2})
	if err != nil {
		t.Fatalf("failed to create rig: %v", err)
	}
	defer rig.Close()

	h := host.New(rig.Registry)
	defer h.Release()

	var diagnostics []string
	h.SetDiagnostics(func(message string) { diagnostics = append(diagnostics, message) })

	if !h.Initialize("Soft Loopback") {
		t.Fatal("expected initialize to succeed")
	}

	routes := []Route{{0, 0, 1}, {1, 1, 0.5}, {4, 0, 1}}
	if applied := ApplyRoutes(h, routes); applied != 2 {
		t.Errorf("expected 2 applied routes, got %d", applied)
	}
	if len(diagnostics) != 1 {
		t.Errorf("expected one diagnostic for the bad route, got %v", diagnostics)
	}

	matrix := h.Routes()
	if matrix[0][0] != 1 || matrix[1][1] != 0.5 {
		t.Errorf("unexpected matrix %v", matrix)
	}
}
