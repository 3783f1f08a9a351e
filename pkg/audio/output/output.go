// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for rendering driver output channels
package output

import (
	"errors"
	"fmt"
	"strings"
)

// Output consumes interleaved int32 samples in the 24-bit range
type Output interface {
	// Open initializes the output
	Open(sampleRate, channels int) error

	// Write outputs audio samples (blocks until written)
	Write(samples []int32) error

	// Close releases output resources
	Close() error
}

// New creates an output by name: "speaker", "discard", or a path ending
// in .wav for a recorder
func New(name string) (Output, error) {
	switch {
	case name == "" || name == "discard":
		return NewDiscard(), nil
	case name == "speaker":
		return NewOto(), nil
	case strings.HasSuffix(strings.ToLower(name), ".wav"):
		return NewWAV(name), nil
	default:
		return nil, fmt.Errorf("unknown output: %s (use speaker, discard or a .wav path)", name)
	}
}

// Multi writes to several outputs
type Multi struct {
	outputs []Output
}

// NewMulti creates an output that fans out to every given output
func NewMulti(outputs ...Output) *Multi {
	return &Multi{outputs: outputs}
}

func (m *Multi) Open(sampleRate, channels int) error {
	for i, out := range m.outputs {
		if err := out.Open(sampleRate, channels); err != nil {
			for _, opened := range m.outputs[:i] {
				opened.Close()
			}
			return err
		}
	}
	return nil
}

func (m *Multi) Write(samples []int32) error {
	var errs []error
	for _, out := range m.outputs {
		if err := out.Write(samples); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, out := range m.outputs {
		if err := out.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every sample and counts them
type Discard struct {
	samples int
	open    bool
}

// NewDiscard creates a discarding output
func NewDiscard() *Discard {
	return &Discard{}
}

func (d *Discard) Open(sampleRate, channels int) error {
	d.open = true
	return nil
}

func (d *Discard) Write(samples []int32) error {
	if !d.open {
		return fmt.Errorf("output not initialized")
	}
	d.samples += len(samples)
	return nil
}

func (d *Discard) Close() error {
	d.open = false
	return nil
}

// Samples returns how many samples were written
func (d *Discard) Samples() int {
	return d.samples
}
