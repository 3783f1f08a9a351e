// ABOUTME: Control protocol package
// ABOUTME: Defines control messages and the WebSocket controller client
// Package protocol implements the loopback control protocol.
//
// Controllers connect over WebSocket to Path, exchange client/hello and
// server/hello, then send client/command messages. The server answers
// every command with server/result followed by server/status, and
// forwards host diagnostics as server/diagnostic.
//
// Example:
//
//	client := protocol.NewClient(protocol.Config{ServerAddr: "localhost:8937", Name: "ctl"})
//	if err := client.Connect(); err != nil {
//	    return err
//	}
//	client.SendCommand(protocol.Command{Command: protocol.CommandRoute, Input: 0, Output: 1, Level: 1})
package protocol
