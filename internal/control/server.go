// ABOUTME: WebSocket control server for a loopback host
// ABOUTME: Executes controller commands, broadcasts status and diagnostics, advertises via mDNS
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/asiomic/asiomic-go/internal/discovery"
	"github.com/asiomic/asiomic-go/internal/version"
	"github.com/asiomic/asiomic-go/pkg/host"
	"github.com/asiomic/asiomic-go/pkg/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Config configures a control server
type Config struct {
	// Port to listen on (default: 8937)
	Port int

	// Name of the server for identification
	Name string

	// EnableMDNS enables mDNS service advertisement
	EnableMDNS bool

	// StatusInterval is the period of status broadcasts (default: 1s)
	StatusInterval time.Duration

	// Debug enables debug logging
	Debug bool
}

// Server exposes a host.Host to remote controllers
type Server struct {
	config   Config
	serverID string
	host     *host.Host

	upgrader websocket.Upgrader

	httpServer *http.Server
	mux        *http.ServeMux

	clients   map[string]*client
	clientsMu sync.RWMutex

	mdnsManager *discovery.Manager

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// client is one connected controller
type client struct {
	ID   string
	Name string
	Conn *websocket.Conn

	sendChan chan interface{}
}

// ClientInfo describes a connected controller
type ClientInfo struct {
	ID   string
	Name string
}

// NewServer creates a control server for h. The server installs itself
// as h's diagnostics function so controllers receive every diagnostic.
func NewServer(h *host.Host, config Config) (*Server, error) {
	if h == nil {
		return nil, fmt.Errorf("host is required")
	}
	if config.Port == 0 {
		config.Port = 8937
	}
	if config.Name == "" {
		config.Name = "asiomic Server"
	}
	if config.StatusInterval == 0 {
		config.StatusInterval = time.Second
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		host:     h,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// controllers run on the local network
				return true
			},
		},
		clients:  make(map[string]*client),
		stopChan: make(chan struct{}),
	}
	s.mux.HandleFunc(protocol.Path, s.handleWebSocket)

	h.SetDiagnostics(s.broadcastDiagnostic)

	return s, nil
}

// Handler returns the HTTP handler serving the control endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until Stop is called
func (s *Server) Start() error {
	log.Printf("Control server starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        protocol.Path,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.broadcastLoop()
	}()

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s", addr)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-s.stopChan:
		log.Printf("Server shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		s.Stop()
		s.wg.Wait()
		return err
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	log.Printf("Server stopped cleanly")

	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Clients returns the connected controllers
func (s *Server) Clients() []ClientInfo {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	clients := make([]ClientInfo, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, ClientInfo{ID: c.ID, Name: c.Name})
	}
	return clients
}

// broadcastLoop pushes status to every controller at StatusInterval
func (s *Server) broadcastLoop() {
	ticker := time.NewTicker(s.config.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.broadcastStatus()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection manages one controller connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	msgType, payload, err := readMessage(conn)
	if err != nil {
		log.Printf("Error reading hello: %v", err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	if msgType != protocol.TypeClientHello {
		log.Printf("Expected client/hello, got %s", msgType)
		return
	}

	var hello protocol.ClientHello
	if err := json.Unmarshal(payload, &hello); err != nil {
		log.Printf("Error unmarshaling client hello: %v", err)
		return
	}
	if hello.ClientID == "" {
		hello.ClientID = uuid.New().String()
	}
	if hello.Name == "" {
		hello.Name = "controller"
	}

	log.Printf("Client hello: %s (ID: %s, version %d)", hello.Name, hello.ClientID, hello.Version)

	c := &client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		sendChan: make(chan interface{}, 100),
	}

	s.clientsMu.Lock()
	if _, exists := s.clients[c.ID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected, rejecting duplicate", c.ID)
		return
	}
	s.clients[c.ID] = c
	s.clientsMu.Unlock()

	writerDone := make(chan struct{})
	defer func() {
		s.removeClient(c)
		<-writerDone
		log.Printf("Client disconnected: %s", c.Name)
	}()

	serverHello := protocol.ServerHello{
		ServerID:            s.serverID,
		Name:                s.config.Name,
		Version:             protocol.ProtocolVersion,
		SoftwareVersion:     version.Version,
		Drivers:             s.host.Drivers(),
		DriverNameMaxLength: s.host.DriverNameMaxLength(),
	}
	s.sendMessage(c, protocol.TypeServerHello, serverHello)
	s.sendMessage(c, protocol.TypeServerStatus, s.status())

	go func() {
		defer close(writerDone)
		s.clientWriter(c)
	}()

	for {
		msgType, payload, err := readMessage(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		if done := s.handleClientMessage(c, msgType, payload); done {
			return
		}
	}
}

// readMessage reads one JSON message and returns its type and raw payload
func readMessage(conn *websocket.Conn) (string, json.RawMessage, error) {
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		return "", nil, err
	}
	return msg.Type, msg.Payload, nil
}

// clientWriter sends queued messages and keepalive pings
func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			c.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage processes one controller message and reports
// whether the connection should close
func (s *Server) handleClientMessage(c *client, msgType string, payload json.RawMessage) bool {
	switch msgType {
	case protocol.TypeClientCommand:
		var cmd protocol.Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			log.Printf("Error unmarshaling command from %s: %v", c.Name, err)
			return false
		}
		s.handleCommand(c, cmd)

	case protocol.TypeClientStatus:
		s.sendMessage(c, protocol.TypeServerStatus, s.status())

	case protocol.TypeClientGoodbye:
		var goodbye protocol.ClientGoodbye
		json.Unmarshal(payload, &goodbye)
		log.Printf("Client %s goodbye: %s", c.Name, goodbye.Reason)
		return true

	default:
		if s.config.Debug {
			log.Printf("Unknown message type: %s", msgType)
		}
	}
	return false
}

// handleCommand executes cmd, answers the sender and broadcasts the new status
func (s *Server) handleCommand(c *client, cmd protocol.Command) {
	if s.config.Debug {
		log.Printf("Command from %s: %+v", c.Name, cmd)
	}

	ok := s.execute(cmd)
	s.sendMessage(c, protocol.TypeServerResult, protocol.CommandResult{Command: cmd.Command, OK: ok})
	s.broadcastStatus()
}

// execute runs one command against the host
func (s *Server) execute(cmd protocol.Command) bool {
	switch cmd.Command {
	case protocol.CommandLoad:
		return s.host.LoadDriver(cmd.Driver)
	case protocol.CommandInitialize:
		return s.host.Initialize(cmd.Driver)
	case protocol.CommandStart:
		return s.host.StartLoopback()
	case protocol.CommandStop:
		ok := s.host.Session() != nil
		s.host.StopLoopback()
		return ok
	case protocol.CommandRelease:
		s.host.Release()
		return true
	case protocol.CommandRoute:
		return s.host.SetInputSendLevel(cmd.Input, cmd.Output, cmd.Level)
	case protocol.CommandClearRoutes:
		return s.host.ClearRoutes()
	case protocol.CommandResetMismatches:
		ok := s.host.Session() != nil
		s.host.ResetFormatMismatches()
		return ok
	default:
		s.broadcastDiagnostic(fmt.Sprintf("unknown command: %s", cmd.Command))
		return false
	}
}

// status converts the host snapshot to its wire form
func (s *Server) status() protocol.Status {
	return StatusMessage(s.host.Status())
}

// StatusMessage converts a host snapshot to a protocol status
func StatusMessage(st host.Status) protocol.Status {
	return protocol.Status{
		Driver:        st.Driver,
		State:         st.State.String(),
		Inputs:        st.Inputs,
		Outputs:       st.Outputs,
		BlockFrames:   st.BlockFrames,
		SampleRate:    st.SampleRate,
		InputLatency:  st.InputLatency,
		OutputLatency: st.OutputLatency,
		OutputReady:   st.OutputReady,
		InputNames:    st.InputNames,
		OutputNames:   st.OutputNames,
		Routes:        st.Routes,
		Counters: protocol.Counters{
			Cycles:             st.Stats.Cycles,
			FormatMismatches:   st.Stats.FormatMismatches,
			UnsupportedFormats: st.Stats.UnsupportedFormats,
			OutputReadyAcks:    st.Stats.OutputReadyAcks,
		},
	}
}

func (s *Server) broadcastStatus() {
	s.broadcast(protocol.TypeServerStatus, s.status())
}

// broadcastDiagnostic is the host's diagnostics function. It never blocks.
func (s *Server) broadcastDiagnostic(message string) {
	s.broadcast(protocol.TypeServerDiagnostic, protocol.Diagnostic{
		Timestamp: time.Now().UnixMicro(),
		Message:   message,
	})
}

func (s *Server) broadcast(msgType string, payload interface{}) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, c := range s.clients {
		if err := s.sendMessage(c, msgType, payload); err != nil && s.config.Debug {
			log.Printf("Dropping %s for %s: %v", msgType, c.Name, err)
		}
	}
}

func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	delete(s.clients, c.ID)
	close(c.sendChan)
}

// sendMessage queues a JSON message for a client
func (s *Server) sendMessage(c *client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case c.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}
