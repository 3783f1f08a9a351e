// ABOUTME: WebSocket client for the loopback control protocol
// ABOUTME: Handles connection, handshake, commands and message routing
package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Path is the HTTP path the control server upgrades to WebSocket
const Path = "/asiomic"

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string
	Name       string
}

// Client is a controller connection to a loopback server
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	// Message channels
	Status      chan Status
	Results     chan CommandResult
	Diagnostics chan Diagnostic

	hello ServerHello

	// State
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:      config,
		Status:      make(chan Status, 10),
		Results:     make(chan CommandResult, 10),
		Diagnostics: make(chan Diagnostic, 100),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Connect establishes the WebSocket connection and performs the handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: Path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake sends client/hello and waits for server/hello
func (c *Client) handshake() error {
	hello := ClientHello{
		ClientID: c.config.ClientID,
		Name:     c.config.Name,
		Version:  ProtocolVersion,
	}

	if err := c.sendJSON(Message{Type: TypeClientHello, Payload: hello}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var serverMsg struct {
		Type    string      `json:"type"`
		Payload ServerHello `json:"payload"`
	}
	if err := json.Unmarshal(data, &serverMsg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	if serverMsg.Type != TypeServerHello {
		return fmt.Errorf("expected server/hello, got %s", serverMsg.Type)
	}

	c.mu.Lock()
	c.hello = serverMsg.Payload
	c.mu.Unlock()

	log.Printf("Handshake complete with server %s (%d drivers)", serverMsg.Payload.Name, len(serverMsg.Payload.Drivers))
	return nil
}

// ServerHello returns what the server announced during the handshake
func (c *Client) ServerHello() ServerHello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hello
}

// sendJSON sends a JSON message
func (c *Client) sendJSON(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.IsConnected() {
				log.Printf("Read error: %v", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			log.Printf("Unexpected WebSocket message type: %d", messageType)
			continue
		}
		c.handleJSONMessage(data)
	}
}

// handleJSONMessage routes JSON messages to their channels
func (c *Client) handleJSONMessage(data []byte) {
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return
	}

	switch msg.Type {
	case TypeServerStatus:
		var status Status
		if err := json.Unmarshal(msg.Payload, &status); err != nil {
			log.Printf("Failed to parse server/status: %v", err)
			return
		}
		select {
		case c.Status <- status:
		case <-time.After(100 * time.Millisecond):
			log.Printf("Status channel full, dropping message")
		}

	case TypeServerResult:
		var result CommandResult
		if err := json.Unmarshal(msg.Payload, &result); err != nil {
			log.Printf("Failed to parse server/result: %v", err)
			return
		}
		select {
		case c.Results <- result:
		case <-c.ctx.Done():
		}

	case TypeServerDiagnostic:
		var diag Diagnostic
		if err := json.Unmarshal(msg.Payload, &diag); err != nil {
			log.Printf("Failed to parse server/diagnostic: %v", err)
			return
		}
		select {
		case c.Diagnostics <- diag:
		default:
			log.Printf("Diagnostics channel full, dropping: %s", diag.Message)
		}

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// SendCommand sends a client/command message. The outcome arrives on Results.
func (c *Client) SendCommand(cmd Command) error {
	return c.sendJSON(Message{Type: TypeClientCommand, Payload: cmd})
}

// RequestStatus asks the server for a server/status message
func (c *Client) RequestStatus() error {
	return c.sendJSON(Message{Type: TypeClientStatus, Payload: struct{}{}})
}

// SendGoodbye sends a client/goodbye message before disconnecting
func (c *Client) SendGoodbye(reason string) error {
	return c.sendJSON(Message{Type: TypeClientGoodbye, Payload: ClientGoodbye{Reason: reason}})
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
