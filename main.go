// ABOUTME: Entry point for the asiomic loopback monitor
// ABOUTME: Parses CLI flags, opens the driver session and runs the routing TUI
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asiomic/asiomic-go/internal/app"
	"github.com/asiomic/asiomic-go/internal/ui"
	"github.com/asiomic/asiomic-go/internal/version"
	"github.com/asiomic/asiomic-go/pkg/host"
)

var (
	driverName = flag.String("driver", "", "Driver name (default: Soft Loopback)")
	inputs     = flag.Int("inputs", 2, "Soft driver input channels")
	outputs    = flag.Int("outputs", 2, "Soft driver output channels")
	format     = flag.String("format", "Int32LSB", "Soft driver sample type")
	rate       = flag.Float64("rate", 48000, "Preferred sample rate")
	bufferSize = flag.Int("buffer", 0, "Buffer size in frames (default: driver minimum)")
	source     = flag.String("source", "tone", "Input source: tone, silence, or an MP3/FLAC/WAV/Ogg file")
	record     = flag.String("record", "", "Record the outputs to a WAV file")
	speaker    = flag.Bool("speaker", false, "Play the outputs on the default audio device")
	routes     = flag.String("route", "0:0,1:1", "Routes as in:out[@level], comma separated")
	logFile    = flag.String("log-file", "asiomic.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		multiWriter := io.MultiWriter(os.Stdout, f)
		log.SetOutput(multiWriter)
	}

	log.Printf("Starting %s", version.String())

	routeList, err := app.ParseRoutes(*routes)
	if err != nil {
		log.Fatalf("Invalid routes: %v", err)
	}

	rig, err := app.NewRig(app.Config{
		DriverName: *driverName,
		Inputs:     *inputs,
		Outputs:    *outputs,
		Format:     *format,
		SampleRate: *rate,
		BufferSize: *bufferSize,
		Source:     *source,
		Speaker:    *speaker,
		Record:     *record,
	})
	if err != nil {
		log.Fatalf("Failed to set up driver: %v", err)
	}
	defer func() { _ = rig.Close() }()

	h := host.New(rig.Registry)
	defer h.Release()

	if !h.Initialize(rig.Driver.Name()) {
		log.Fatalf("Failed to initialize %s", rig.Driver.Name())
	}

	applied := app.ApplyRoutes(h, routeList)
	log.Printf("Applied %d of %d routes", applied, len(routeList))
	logSession(h)

	if !h.StartLoopback() {
		log.Fatalf("Failed to start loopback")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if !useTUI {
		log.Printf("Loopback running, press Ctrl-C to stop")
		go statusLogLoop(h)
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down", sig)
		h.StopLoopback()
		log.Printf("Loopback stopped")
		return
	}

	controls := ui.NewControls()
	monitor := ui.NewMonitor(controls)
	h.SetDiagnostics(monitor.Diagnostic)

	go handleControls(h, controls, monitor)
	go statusUpdateLoop(h, monitor)
	go func() {
		<-sigChan
		log.Printf("Shutdown signal received")
		monitor.Stop()
	}()

	if err := monitor.Run(); err != nil {
		log.Printf("TUI error: %v", err)
	}

	h.StopLoopback()
	log.Printf("Loopback stopped")
}

// logSession logs the negotiated session the way a host reports it
func logSession(h *host.Host) {
	status := h.Status()
	log.Printf("Session: %s, %d in / %d out, %d frames @ %.0fHz",
		status.Driver, status.Inputs, status.Outputs, status.BlockFrames, status.SampleRate)
	log.Printf("Latency: input %s, output %s",
		latencySeconds(status.InputLatency, status.SampleRate),
		latencySeconds(status.OutputLatency, status.SampleRate))
	for i, n := range status.InputNames {
		log.Printf("  input %d: %s", i, n)
	}
	for i, n := range status.OutputNames {
		log.Printf("  output %d: %s", i, n)
	}
}

func latencySeconds(frames int, sampleRate float64) string {
	if frames == host.NoLatency || sampleRate <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d frames (%.4fs)", frames, float64(frames)/sampleRate)
}

// handleControls applies TUI actions to the host
func handleControls(h *host.Host, controls *ui.Controls, monitor *ui.Monitor) {
	for action := range controls.Actions {
		switch action.Kind {
		case ui.ActionRoute:
			log.Printf("Route %d -> %d at %.2f", action.Input, action.Output, action.Level)
			h.SetInputSendLevel(action.Input, action.Output, action.Level)
		case ui.ActionStart:
			h.StartLoopback()
		case ui.ActionStop:
			h.StopLoopback()
		case ui.ActionResetMismatches:
			h.ResetFormatMismatches()
		case ui.ActionClearRoutes:
			h.ClearRoutes()
		case ui.ActionQuit:
			return
		}
		monitor.Update(h.Status())
	}
}

// statusUpdateLoop periodically sends the host status to the TUI
func statusUpdateLoop(h *host.Host, monitor *ui.Monitor) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	monitor.Update(h.Status())
	for range ticker.C {
		monitor.Update(h.Status())
	}
}

// statusLogLoop logs the engine counters in streaming mode
func statusLogLoop(h *host.Host) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	var lastMismatches uint64
	for range ticker.C {
		status := h.Status()
		st := status.Stats
		log.Printf("Stats: state=%s cycles=%d acks=%d unsupported=%d mismatches=%d",
			status.State, st.Cycles, st.OutputReadyAcks, st.UnsupportedFormats, st.FormatMismatches)
		if st.FormatMismatches > lastMismatches {
			log.Printf("Warning: %d new format mismatches", st.FormatMismatches-lastMismatches)
		}
		lastMismatches = st.FormatMismatches
	}
}
