// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the channel carrying user actions
package ui

import (
	"github.com/asiomic/asiomic-go/pkg/host"
	tea "github.com/charmbracelet/bubbletea"
)

// Controls carries user actions out of the TUI
type Controls struct {
	Actions chan Action
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Actions: make(chan Action, 10),
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls) Model {
	return Model{
		status:   host.Status{InputLatency: host.NoLatency, OutputLatency: host.NoLatency},
		controls: controls,
	}
}

// Monitor runs the TUI program
type Monitor struct {
	program *tea.Program
	updates chan tea.Msg
	done    chan struct{}
}

// NewMonitor creates a monitor whose actions arrive on controls
func NewMonitor(controls *Controls) *Monitor {
	return &Monitor{
		program: tea.NewProgram(NewModel(controls), tea.WithAltScreen()),
		updates: make(chan tea.Msg, 32),
		done:    make(chan struct{}),
	}
}

// Run blocks until the user quits
func (m *Monitor) Run() error {
	go func() {
		for {
			select {
			case msg := <-m.updates:
				m.program.Send(msg)
			case <-m.done:
				return
			}
		}
	}()

	_, err := m.program.Run()
	close(m.done)
	return err
}

// Update shows a new host status. Never blocks; updates are dropped
// while the program is behind.
func (m *Monitor) Update(status host.Status) {
	m.enqueue(StatusMsg(status))
}

// Diagnostic shows a host diagnostic. Never blocks.
func (m *Monitor) Diagnostic(message string) {
	m.enqueue(DiagnosticMsg(message))
}

func (m *Monitor) enqueue(msg tea.Msg) {
	select {
	case m.updates <- msg:
	default:
	}
}

// Stop ends the program
func (m *Monitor) Stop() {
	m.program.Quit()
}
