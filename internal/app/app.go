// ABOUTME: Loopback application wiring shared by the CLI binaries
// ABOUTME: Builds the soft driver registry from options and applies route lists
package app

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/asiomic/asiomic-go/pkg/asio"
	"github.com/asiomic/asiomic-go/pkg/asio/softdriver"
	"github.com/asiomic/asiomic-go/pkg/audio/decode"
	"github.com/asiomic/asiomic-go/pkg/audio/output"
	"github.com/asiomic/asiomic-go/pkg/host"
)

// Config holds soft driver options
type Config struct {
	DriverName string
	Inputs     int
	Outputs    int
	Format     string
	SampleRate float64
	BufferSize int

	// Source is a file path, "tone" or "silence"
	Source string
	// Speaker plays the outputs on the default device
	Speaker bool
	// Record is a .wav path receiving the outputs
	Record string
}

// Route is one input -> output send
type Route struct {
	Input  int
	Output int
	Level  float64
}

// Rig owns the soft driver and the audio endpoints around it
type Rig struct {
	Registry *asio.Registry
	Driver   *softdriver.Driver

	source decode.Source
}

// NewRig creates the source, sink and soft driver and registers the
// driver under its name
func NewRig(config Config) (*Rig, error) {
	if config.DriverName == "" {
		config.DriverName = softdriver.DefaultName
	}

	driverConfig := softdriver.Config{
		Name:       config.DriverName,
		Inputs:     config.Inputs,
		Outputs:    config.Outputs,
		SampleRate: config.SampleRate,
	}

	if config.Format != "" {
		sampleType, err := asio.ParseSampleType(config.Format)
		if err != nil {
			return nil, fmt.Errorf("failed to parse format: %w", err)
		}
		driverConfig.SampleType = sampleType
		if sampleType == asio.Int16MSB {
			// the zero tag reads as unset, so spell it out per channel
			driverConfig.InputTypes = repeatType(sampleType, orDefault(config.Inputs, 2))
			driverConfig.OutputTypes = repeatType(sampleType, orDefault(config.Outputs, 2))
		}
	}

	if config.BufferSize > 0 {
		driverConfig.BufferSize = asio.BufferSize{
			Min:       config.BufferSize,
			Max:       config.BufferSize,
			Preferred: config.BufferSize,
		}
	}

	rate := int(config.SampleRate)
	if rate == 0 {
		rate = 48000
	}
	source, err := decode.NewSource(config.Source, rate, orDefault(config.Inputs, 2))
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	driverConfig.Source = source

	sink, err := newSink(config)
	if err != nil {
		source.Close()
		return nil, err
	}
	driverConfig.Sink = sink

	drv := softdriver.New(driverConfig)
	registry := asio.NewRegistry()
	registry.Register(drv.Name(), func() (asio.Driver, error) { return drv, nil })

	log.Printf("Soft driver registered: %s (source: %s)", drv.Name(), sourceName(config.Source))

	return &Rig{
		Registry: registry,
		Driver:   drv,
		source:   source,
	}, nil
}

// newSink combines the requested outputs. With neither a speaker nor a
// recording the outputs are discarded.
func newSink(config Config) (output.Output, error) {
	var outputs []output.Output
	if config.Speaker {
		outputs = append(outputs, output.NewOto())
	}
	if config.Record != "" {
		rec, err := output.New(config.Record)
		if err != nil {
			return nil, fmt.Errorf("failed to create recorder: %w", err)
		}
		outputs = append(outputs, rec)
	}

	switch len(outputs) {
	case 0:
		return output.NewDiscard(), nil
	case 1:
		return outputs[0], nil
	default:
		return output.NewMulti(outputs...), nil
	}
}

func repeatType(t asio.SampleType, n int) []asio.SampleType {
	types := make([]asio.SampleType, n)
	for i := range types {
		types[i] = t
	}
	return types
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func sourceName(source string) string {
	if source == "" {
		return "tone"
	}
	return source
}

// Close releases the source
func (r *Rig) Close() error {
	if r.source == nil {
		return nil
	}
	return r.source.Close()
}

// ParseRoutes parses a comma separated route list. Each entry is
// "in:out" or "in:out@level" with zero-based channel indices.
func ParseRoutes(list string) ([]Route, error) {
	var routes []Route
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		route := Route{Level: 1}
		pair, level, hasLevel := strings.Cut(entry, "@")
		if hasLevel {
			v, err := strconv.ParseFloat(level, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid level in route %q: %w", entry, err)
			}
			route.Level = v
		}

		in, out, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("invalid route %q (expected in:out)", entry)
		}
		var err error
		if route.Input, err = strconv.Atoi(in); err != nil {
			return nil, fmt.Errorf("invalid input in route %q: %w", entry, err)
		}
		if route.Output, err = strconv.Atoi(out); err != nil {
			return nil, fmt.Errorf("invalid output in route %q: %w", entry, err)
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// ApplyRoutes sets every route on the host and returns how many took
// effect. Rejected routes are reported through the host's diagnostics.
func ApplyRoutes(h *host.Host, routes []Route) int {
	applied := 0
	for _, r := range routes {
		if h.SetInputSendLevel(r.Input, r.Output, r.Level) {
			applied++
		}
	}
	return applied
}
