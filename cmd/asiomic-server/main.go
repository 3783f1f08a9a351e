// ABOUTME: Entry point for the asiomic control server
// ABOUTME: Parses CLI flags and serves a loopback host to remote controllers
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/asiomic/asiomic-go/internal/app"
	"github.com/asiomic/asiomic-go/internal/control"
	"github.com/asiomic/asiomic-go/internal/version"
	"github.com/asiomic/asiomic-go/pkg/host"
)

var (
	port       = flag.Int("port", 8937, "WebSocket server port")
	name       = flag.String("name", "", "Server friendly name (default: hostname-asiomic-server)")
	logFile    = flag.String("log-file", "asiomic-server.log", "Log file path")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	autoStart  = flag.Bool("start", false, "Initialize the driver and start the loopback at launch")
	driverName = flag.String("driver", "", "Driver name (default: Soft Loopback)")
	inputs     = flag.Int("inputs", 2, "Soft driver input channels")
	outputs    = flag.Int("outputs", 2, "Soft driver output channels")
	format     = flag.String("format", "Int32LSB", "Soft driver sample type")
	rate       = flag.Float64("rate", 48000, "Preferred sample rate")
	source     = flag.String("source", "tone", "Input source: tone, silence, or an MP3/FLAC/WAV/Ogg file")
	record     = flag.String("record", "", "Record the outputs to a WAV file")
	speaker    = flag.Bool("speaker", false, "Play the outputs on the default audio device")
	routes     = flag.String("route", "", "Routes applied with -start, as in:out[@level]")
)

func main() {
	flag.Parse()

	// Set up logging (both file and console)
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	multiWriter := io.MultiWriter(os.Stdout, f)
	log.SetOutput(multiWriter)

	// Determine server name
	serverName := *name
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-asiomic-server", hostname)
	}

	log.Printf("Starting %s server: %s on port %d", version.String(), serverName, *port)
	if *debug {
		log.Printf("Debug logging enabled")
	}
	log.Printf("Logging to: %s", *logFile)
	log.Printf("Press Ctrl-C to stop")

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
		Source:     *source,
		Speaker:    *speaker,
		Record:     *record,
	})
	if err != nil {
		log.Fatalf("Failed to set up driver: %v", err)
	}
	defer rig.Close()

	h := host.New(rig.Registry)
	defer h.Release()

	srv, err := control.NewServer(h, control.Config{
		Port:       *port,
		Name:       serverName,
		EnableMDNS: !*noMDNS,
		Debug:      *debug,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	if *autoStart {
		if h.Initialize(rig.Driver.Name()) {
			log.Printf("Applied %d of %d routes", app.ApplyRoutes(h, routeList), len(routeList))
			h.StartLoopback()
		}
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("\nReceived %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Printf("Server stopped")
}
