// ABOUTME: Lock-free routing matrix
// ABOUTME: Stores per-pair send levels as atomically accessed float64 bits
package loopback

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Matrix maps (input, output) pairs to a send level. A level above zero
// routes the pair; zero, negative and NaN levels do not. The level is a
// gate only: routed samples are copied unscaled.
//
// Every cell is independently atomic, so the real-time reader observes
// either the previous or the new value of a concurrently written cell.
type Matrix struct {
	inputs  int
	outputs int
	cells   []atomic.Uint64
}

// NewMatrix creates a matrix sized to the given channel counts with
// every level at 0
func NewMatrix(inputs, outputs int) *Matrix {
	if inputs < 0 {
		inputs = 0
	}
	if outputs < 0 {
		outputs = 0
	}
	return &Matrix{
		inputs:  inputs,
		outputs: outputs,
		cells:   make([]atomic.Uint64, inputs*outputs),
	}
}

// Inputs returns the number of rows
func (m *Matrix) Inputs() int { return m.inputs }

// Outputs returns the number of columns
func (m *Matrix) Outputs() int { return m.outputs }

// Set overwrites one cell
func (m *Matrix) Set(input, output int, level float64) error {
	if err := m.check(input, output); err != nil {
		return err
	}
	m.cells[input*m.outputs+output].Store(math.Float64bits(level))
	return nil
}

// Get reads one cell
func (m *Matrix) Get(input, output int) (float64, error) {
	if err := m.check(input, output); err != nil {
		return 0, err
	}
	return m.level(input, output), nil
}

// routed is the engine's unchecked gate. NaN compares false and stays closed.
func (m *Matrix) routed(input, output int) bool {
	return m.level(input, output) > 0
}

// Clear sets every level back to 0
func (m *Matrix) Clear() {
	for i := range m.cells {
		m.cells[i].Store(0)
	}
}

// Snapshot copies the matrix row by row (one row per input)
func (m *Matrix) Snapshot() [][]float64 {
	rows := make([][]float64, m.inputs)
	for in := 0; in < m.inputs; in++ {
		rows[in] = make([]float64, m.outputs)
		for out := 0; out < m.outputs; out++ {
			rows[in][out] = m.level(in, out)
		}
	}
	return rows
}

// level is the unchecked read used by the engine
func (m *Matrix) level(input, output int) float64 {
	return math.Float64frombits(m.cells[input*m.outputs+output].Load())
}

func (m *Matrix) check(input, output int) error {
	if input < 0 || input >= m.inputs || output < 0 || output >= m.outputs {
		return fmt.Errorf("%w: input %d, output %d (matrix is %dx%d)",
			ErrRouteOutOfRange, input, output, m.inputs, m.outputs)
	}
	return nil
}
