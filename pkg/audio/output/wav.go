// ABOUTME: WAV recorder output
// ABOUTME: Captures driver output to a 24-bit PCM WAV file via go-audio
package output

import (
	"fmt"
	"log"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// recordBitDepth is the sample depth written by WAV
const recordBitDepth = 24

// WAV records samples to a file
type WAV struct {
	path    string
	file    *os.File
	encoder *wav.Encoder
	buf     *goaudio.IntBuffer
	frames  int
}

// NewWAV creates a recorder that writes to path when opened
func NewWAV(path string) *WAV {
	return &WAV{path: path}
}

// Open creates the file and writes the header
func (w *WAV) Open(sampleRate, channels int) error {
	if w.encoder != nil {
		return nil
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}

	w.file = f
	w.encoder = wav.NewEncoder(f, sampleRate, recordBitDepth, channels, 1)
	w.buf = &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: recordBitDepth,
	}

	log.Printf("Recording to %s: %dHz, %d channels, %d-bit", w.path, sampleRate, channels, recordBitDepth)
	return nil
}

func (w *WAV) Write(samples []int32) error {
	if w.encoder == nil {
		return fmt.Errorf("output not initialized")
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, s := range samples {
		w.buf.Data[i] = int(s)
	}

	if err := w.encoder.Write(w.buf); err != nil {
		return fmt.Errorf("failed to write recording: %w", err)
	}
	w.frames += len(samples) / w.buf.Format.NumChannels
	return nil
}

// Close finalizes the header and closes the file
func (w *WAV) Close() error {
	if w.encoder == nil {
		return nil
	}

	err := w.encoder.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.encoder = nil
	w.file = nil

	if err != nil {
		return fmt.Errorf("failed to finalize recording: %w", err)
	}
	log.Printf("Recording saved: %s (%d frames)", w.path, w.frames)
	return nil
}

// Frames returns how many frames were recorded
func (w *WAV) Frames() int {
	return w.frames
}
