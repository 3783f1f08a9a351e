// ABOUTME: Command line controller for asiomic servers
// ABOUTME: Discovers or dials a server, sends one command and prints the result
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/asiomic/asiomic-go/internal/discovery"
	"github.com/asiomic/asiomic-go/pkg/protocol"
	"github.com/google/uuid"
)

var (
	serverAddr = flag.String("server", "", "Server address (default: first server found via mDNS)")
	name       = flag.String("name", "asiomic-ctl", "Controller name")
	timeout    = flag.Duration("timeout", 3*time.Second, "Discovery and reply timeout")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: asiomic-ctl [flags] <command> [args]

Commands:
  status                 Print the session status
  drivers                List the server's drivers
  load <driver>          Load a driver
  init [driver]          Initialize a session (default: loaded driver)
  start                  Start the loopback
  stop                   Stop the loopback
  release                Release the session
  route <in> <out> [lvl] Set a send level (default level 1)
  clear                  Mute every route
  reset                  Reset the format mismatch counter
  watch                  Stream status and diagnostics until interrupted

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	log.SetFlags(log.Ltime)

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	addr := *serverAddr
	if addr == "" {
		servers := discovery.Discover(*timeout)
		if len(servers) == 0 {
			log.Fatalf("No server found after %v", *timeout)
		}
		addr = servers[0].Addr()
		log.Printf("Discovered %s at %s", servers[0].Name, addr)
	}

	client := protocol.NewClient(protocol.Config{
		ServerAddr: addr,
		ClientID:   uuid.New().String(),
		Name:       *name,
	})
	if err := client.Connect(); err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer client.Close()

	// the server sends its status right after the hello
	initial, err := waitStatus(client)
	if err != nil {
		log.Fatalf("%v", err)
	}

	args := flag.Args()
	switch args[0] {
	case "status":
		printStatus(initial)
	case "drivers":
		hello := client.ServerHello()
		for _, d := range hello.Drivers {
			fmt.Println(d)
		}
	case "watch":
		watch(client)
	default:
		cmd, err := parseCommand(args)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := run(client, cmd); err != nil {
			log.Fatalf("%v", err)
		}
	}

	if err := client.SendGoodbye("user_request"); err != nil {
		log.Printf("Failed to send goodbye: %v", err)
	}
}

// parseCommand maps command line arguments to a protocol command
func parseCommand(args []string) (protocol.Command, error) {
	switch args[0] {
	case "load":
		if len(args) < 2 {
			return protocol.Command{}, fmt.Errorf("load needs a driver name")
		}
		return protocol.Command{Command: protocol.CommandLoad, Driver: strings.Join(args[1:], " ")}, nil
	case "init":
		return protocol.Command{Command: protocol.CommandInitialize, Driver: strings.Join(args[1:], " ")}, nil
	case "start":
		return protocol.Command{Command: protocol.CommandStart}, nil
	case "stop":
		return protocol.Command{Command: protocol.CommandStop}, nil
	case "release":
		return protocol.Command{Command: protocol.CommandRelease}, nil
	case "reset":
		return protocol.Command{Command: protocol.CommandResetMismatches}, nil
	case "clear":
		return protocol.Command{Command: protocol.CommandClearRoutes}, nil
	case "route":
		return parseRoute(args[1:])
	default:
		return protocol.Command{}, fmt.Errorf("unknown command: %s", args[0])
	}
}

func parseRoute(args []string) (protocol.Command, error) {
	if len(args) < 2 {
		return protocol.Command{}, fmt.Errorf("route needs an input and an output")
	}
	in, err := strconv.Atoi(args[0])
	if err != nil {
		return protocol.Command{}, fmt.Errorf("invalid input: %w", err)
	}
	out, err := strconv.Atoi(args[1])
	if err != nil {
		return protocol.Command{}, fmt.Errorf("invalid output: %w", err)
	}
	level := 1.0
	if len(args) > 2 {
		if level, err = strconv.ParseFloat(args[2], 64); err != nil {
			return protocol.Command{}, fmt.Errorf("invalid level: %w", err)
		}
	}
	return protocol.Command{Command: protocol.CommandRoute, Input: in, Output: out, Level: level}, nil
}

// run sends cmd and prints its result, then any diagnostics it raised
func run(client *protocol.Client, cmd protocol.Command) error {
	if err := client.SendCommand(cmd); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}

	select {
	case result := <-client.Results:
		drainDiagnostics(client)
		if !result.OK {
			return fmt.Errorf("%s failed", result.Command)
		}
		fmt.Printf("%s: ok\n", result.Command)
		return nil
	case <-time.After(*timeout):
		return fmt.Errorf("timed out waiting for %s", cmd.Command)
	}
}

func drainDiagnostics(client *protocol.Client) {
	for {
		select {
		case d := <-client.Diagnostics:
			fmt.Printf("diagnostic: %s\n", d.Message)
		default:
			return
		}
	}
}

func waitStatus(client *protocol.Client) (protocol.Status, error) {
	select {
	case status := <-client.Status:
		return status, nil
	case <-time.After(*timeout):
		return protocol.Status{}, fmt.Errorf("timed out waiting for status")
	}
}

// watch prints every status and diagnostic until interrupted
func watch(client *protocol.Client) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case status := <-client.Status:
			fmt.Printf("%s %s: cycles=%d acks=%d mismatches=%d unsupported=%d\n",
				time.Now().Format("15:04:05"), status.State, status.Counters.Cycles,
				status.Counters.OutputReadyAcks, status.Counters.FormatMismatches,
				status.Counters.UnsupportedFormats)
		case d := <-client.Diagnostics:
			fmt.Printf("diagnostic: %s\n", d.Message)
		case <-sigChan:
			return
		}
	}
}

func printStatus(status protocol.Status) {
	fmt.Printf("Driver:   %s\n", status.Driver)
	fmt.Printf("State:    %s\n", status.State)
	if status.InputLatency == -1 {
		return
	}
	fmt.Printf("Channels: %d in / %d out\n", status.Inputs, status.Outputs)
	fmt.Printf("Format:   %d frames @ %.0fHz\n", status.BlockFrames, status.SampleRate)
	fmt.Printf("Latency:  in %d, out %d frames\n", status.InputLatency, status.OutputLatency)
	for i, row := range status.Routes {
		for o, level := range row {
			if level > 0 {
				fmt.Printf("Route:    %s -> %s @ %.2f\n", nameAt(status.InputNames, i), nameAt(status.OutputNames, o), level)
			}
		}
	}
	c := status.Counters
	fmt.Printf("Counters: cycles=%d acks=%d mismatches=%d unsupported=%d\n",
		c.Cycles, c.OutputReadyAcks, c.FormatMismatches, c.UnsupportedFormats)
}

func nameAt(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return strconv.Itoa(i)
}
