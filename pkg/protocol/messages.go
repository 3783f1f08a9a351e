// ABOUTME: Control protocol message type definitions
// ABOUTME: Defines JSON structs exchanged between controllers and a loopback server
package protocol

// Message types
const (
	TypeClientHello      = "client/hello"
	TypeClientCommand    = "client/command"
	TypeClientStatus     = "client/status"
	TypeClientGoodbye    = "client/goodbye"
	TypeServerHello      = "server/hello"
	TypeServerStatus     = "server/status"
	TypeServerResult     = "server/result"
	TypeServerDiagnostic = "server/diagnostic"
)

// Commands carried by client/command
const (
	CommandLoad            = "load"
	CommandInitialize      = "initialize"
	CommandStart           = "start"
	CommandStop            = "stop"
	CommandRelease         = "release"
	CommandRoute           = "route"
	CommandResetMismatches = "reset_mismatches"
	CommandClearRoutes     = "clear_routes"
)

// ProtocolVersion is the control protocol version spoken by this package
const ProtocolVersion = 1

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientHello is sent by controllers to initiate the handshake
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID            string   `json:"server_id"`
	Name                string   `json:"name"`
	Version             int      `json:"version"`
	SoftwareVersion     string   `json:"software_version"`
	Drivers             []string `json:"drivers"`
	DriverNameMaxLength int      `json:"driver_name_max_length"`
}

// Command asks the server to act on its host
type Command struct {
	Command string  `json:"command"`
	Driver  string  `json:"driver,omitempty"` // load, initialize
	Input   int     `json:"input,omitempty"`  // route
	Output  int     `json:"output,omitempty"` // route
	Level   float64 `json:"level,omitempty"`  // route; > 0 routes, anything else mutes
}

// CommandResult is sent as server/result for every client/command
type CommandResult struct {
	Command string `json:"command"`
	OK      bool   `json:"ok"`
}

// Diagnostic is a host diagnostic forwarded as server/diagnostic
type Diagnostic struct {
	Timestamp int64  `json:"timestamp"` // Unix microseconds
	Message   string `json:"message"`
}

// Status is sent as server/status on request and after every command
type Status struct {
	Driver        string      `json:"driver"`
	State         string      `json:"state"`
	Inputs        int         `json:"inputs"`
	Outputs       int         `json:"outputs"`
	BlockFrames   int         `json:"block_frames"`
	SampleRate    float64     `json:"sample_rate"`
	InputLatency  int         `json:"input_latency"`  // frames, -1 without a session
	OutputLatency int         `json:"output_latency"` // frames, -1 without a session
	OutputReady   bool        `json:"output_ready"`
	InputNames    []string    `json:"input_names,omitempty"`
	OutputNames   []string    `json:"output_names,omitempty"`
	Routes        [][]float64 `json:"routes,omitempty"` // [input][output]
	Counters      Counters    `json:"counters"`
}

// Counters mirrors the engine's out-of-band counters
type Counters struct {
	Cycles             uint64 `json:"cycles"`
	FormatMismatches   uint64 `json:"format_mismatches"`
	UnsupportedFormats uint64 `json:"unsupported_formats"`
	OutputReadyAcks    uint64 `json:"output_ready_acks"`
}

// ClientGoodbye is sent before graceful disconnect
type ClientGoodbye struct {
	Reason string `json:"reason"` // "shutdown", "user_request"
}
