// ABOUTME: Bubbletea model for the loopback monitor TUI
// ABOUTME: Renders session status and the routing grid, turns keys into host actions
package ui

import (
	"fmt"
	"strings"

	"github.com/asiomic/asiomic-go/pkg/host"
	"github.com/asiomic/asiomic-go/pkg/loopback"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxDiagnostics is how many recent diagnostics the monitor keeps
const maxDiagnostics = 5

// ActionKind identifies a user request to the host
type ActionKind int

const (
	ActionRoute ActionKind = iota
	ActionStart
	ActionStop
	ActionResetMismatches
	ActionClearRoutes
	ActionQuit
)

// Action is sent on the Controls channel when the user acts
type Action struct {
	Kind   ActionKind
	Input  int
	Output int
	Level  float64
}

// StatusMsg replaces the displayed host status
type StatusMsg host.Status

// DiagnosticMsg appends a host diagnostic
type DiagnosticMsg string

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	routedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	cursorStyle = lipgloss.NewStyle().
			Reverse(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	faintStyle = lipgloss.NewStyle().Faint(true)
)

// Model represents the TUI state
type Model struct {
	status      host.Status
	diagnostics []string

	// Routing grid cursor
	cursorIn  int
	cursorOut int

	controls *Controls
	quitting bool

	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(host.Status(msg))
	case DiagnosticMsg:
		m.addDiagnostic(string(msg))
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping loopback...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("asiomic loopback"))
	b.WriteString("\n\n")
	b.WriteString(m.renderSession())
	b.WriteString("\n")
	b.WriteString(m.renderGrid())
	b.WriteString("\n")
	b.WriteString(m.renderCounters())
	b.WriteString(m.renderDiagnostics())
	b.WriteString("\n")
	b.WriteString(faintStyle.Render("arrows:Move  space:Route  c:Clear routes  s:Start/Stop  r:Reset counters  q:Quit"))
	return b.String()
}

// renderSession renders driver, format and latency
func (m Model) renderSession() string {
	var b strings.Builder

	driver := m.status.Driver
	if driver == "" {
		driver = "(none)"
	}
	field(&b, "Driver: ", driver)
	field(&b, "State:  ", m.status.State.String())

	if m.status.InputLatency == host.NoLatency {
		return b.String()
	}

	field(&b, "Format: ", fmt.Sprintf("%.0fHz, %d frames/block, %d in / %d out",
		m.status.SampleRate, m.status.BlockFrames, m.status.Inputs, m.status.Outputs))
	field(&b, "Latency:", fmt.Sprintf(" in %d (%s)  out %d (%s)",
		m.status.InputLatency, latencyMs(m.status.InputLatency, m.status.SampleRate),
		m.status.OutputLatency, latencyMs(m.status.OutputLatency, m.status.SampleRate)))
	return b.String()
}

func field(b *strings.Builder, name, value string) {
	b.WriteString(headerStyle.Render(name))
	b.WriteString(" ")
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

// renderGrid renders the routing matrix with inputs as rows
func (m Model) renderGrid() string {
	if len(m.status.Routes) == 0 {
		return valueStyle.Render("No routing matrix") + "\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s", "in \\ out")))
	for o := 0; o < m.status.Outputs; o++ {
		b.WriteString(headerStyle.Render(fmt.Sprintf(" %-8s", truncate(nameAt(m.status.OutputNames, o), 8))))
	}
	b.WriteString("\n")

	for i, row := range m.status.Routes {
		b.WriteString(valueStyle.Render(fmt.Sprintf("%-12s", truncate(nameAt(m.status.InputNames, i), 12))))
		for o, level := range row {
			cell := fmt.Sprintf(" %-8s", "·")
			style := valueStyle
			if level > 0 {
				cell = fmt.Sprintf(" %-8s", "●")
				style = routedStyle
			}
			if i == m.cursorIn && o == m.cursorOut {
				style = style.Inherit(cursorStyle)
			}
			b.WriteString(style.Render(cell))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderCounters renders the engine counters
func (m Model) renderCounters() string {
	st := m.status.Stats
	line := fmt.Sprintf("Cycles: %d  Acks: %d  Unsupported: %d  ", st.Cycles, st.OutputReadyAcks, st.UnsupportedFormats)
	mismatches := fmt.Sprintf("Format mismatches: %d", st.FormatMismatches)
	if st.FormatMismatches > 0 {
		return valueStyle.Render(line) + warnStyle.Render(mismatches) + "\n"
	}
	return valueStyle.Render(line+mismatches) + "\n"
}

// renderDiagnostics renders recent diagnostics
func (m Model) renderDiagnostics() string {
	if len(m.diagnostics) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Diagnostics"))
	b.WriteString("\n")
	for _, d := range m.diagnostics {
		b.WriteString(warnStyle.Render("  " + d))
		b.WriteString("\n")
	}
	return b.String()
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.send(Action{Kind: ActionQuit})
		return m, tea.Quit
	case "up", "k":
		if m.cursorIn > 0 {
			m.cursorIn--
		}
	case "down", "j":
		if m.cursorIn < m.status.Inputs-1 {
			m.cursorIn++
		}
	case "left", "h":
		if m.cursorOut > 0 {
			m.cursorOut--
		}
	case "right", "l":
		if m.cursorOut < m.status.Outputs-1 {
			m.cursorOut++
		}
	case " ", "enter":
		m.toggleRoute()
	case "s":
		if m.status.State == loopback.StateStarted {
			m.send(Action{Kind: ActionStop})
		} else {
			m.send(Action{Kind: ActionStart})
		}
	case "r":
		m.send(Action{Kind: ActionResetMismatches})
	case "c":
		m.send(Action{Kind: ActionClearRoutes})
	}

	return m, nil
}

// toggleRoute flips the cell under the cursor. The grid updates when
// the next status arrives.
func (m *Model) toggleRoute() {
	if m.cursorIn >= len(m.status.Routes) || m.cursorOut >= len(m.status.Routes[m.cursorIn]) {
		return
	}
	level := 1.0
	if m.status.Routes[m.cursorIn][m.cursorOut] > 0 {
		level = 0
	}
	m.send(Action{Kind: ActionRoute, Input: m.cursorIn, Output: m.cursorOut, Level: level})
}

func (m *Model) send(action Action) {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Actions <- action:
	default:
	}
}

// applyStatus updates the model and keeps the cursor inside the grid
func (m *Model) applyStatus(status host.Status) {
	m.status = status
	if m.cursorIn >= status.Inputs {
		m.cursorIn = max(status.Inputs-1, 0)
	}
	if m.cursorOut >= status.Outputs {
		m.cursorOut = max(status.Outputs-1, 0)
	}
}

func (m *Model) addDiagnostic(message string) {
	m.diagnostics = append(m.diagnostics, message)
	if len(m.diagnostics) > maxDiagnostics {
		m.diagnostics = m.diagnostics[len(m.diagnostics)-maxDiagnostics:]
	}
}

// latencyMs formats a latency in frames as milliseconds
func latencyMs(frames int, sampleRate float64) string {
	if sampleRate <= 0 {
		return "?"
	}
	return fmt.Sprintf("%.1fms", float64(frames)/sampleRate*1000)
}

func nameAt(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("#%d", i)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-1] + "…"
}
