// ABOUTME: Control server package documentation
// ABOUTME: Describes how remote controllers drive a loopback host
// Package control serves a host.Host to remote controllers over the
// WebSocket protocol defined in pkg/protocol.
//
// Every client/command is executed against the host, answered with a
// server/result and followed by a server/status broadcast. Host
// diagnostics are forwarded to all controllers as server/diagnostic.
// Status is also broadcast periodically, and the server can advertise
// itself via mDNS.
//
// Example:
//
//	srv, err := control.NewServer(h, control.Config{Port: 8937, EnableMDNS: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go srv.Start()
//	defer srv.Stop()
package control
