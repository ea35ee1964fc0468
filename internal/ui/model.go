// ABOUTME: Bubbletea model for the player TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	ctrl *Control

	// Stream
	file       string
	sampleRate int
	channels   int
	bits       int

	// Playback
	state  string
	volume int
	muted  bool

	// Pipeline stats
	enqueued  int64
	submitted int64
	returned  int64
	inFlight  int
	pending   int

	// Dimensions
	width  int
	height int
}

// StatusMsg updates TUI state
type StatusMsg struct {
	File       string
	SampleRate int
	Channels   int
	Bits       int
	State      string
	Volume     int
	Enqueued   int64
	Submitted  int64
	Returned   int64
	InFlight   int
	Pending    int
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
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderStreamInfo()
	s += m.renderControls()
	s += m.renderStats()
	s += m.renderHelp()

	return s
}

// renderHeader renders the playback state line
func (m Model) renderHeader() string {
	return fmt.Sprintf(`┌─ Waveline Player ────────────────────────────────────┐
│ State: %-46s │
├──────────────────────────────────────────────────────┤
`, m.state)
}

// renderStreamInfo renders current file and format
func (m Model) renderStreamInfo() string {
	if m.file == "" {
		return "│ No stream                                            │\n"
	}

	s := fmt.Sprintf("│ File: %-47s │\n", truncate(m.file, 47))
	s += fmt.Sprintf("│ Format: %dHz %s %d-bit%-24s │\n",
		m.sampleRate, channelName(m.channels), m.bits, "")
	return s
}

// renderControls renders the volume bar
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " (muted)"
	}

	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: [%s] %d%%%s%-17s │\n",
		renderBar(m.volume, 100, 10), m.volume, muteIcon, "")
}

// renderStats renders pipeline counters
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Queued: %d  Sent: %d  Returned: %d%-12s │
│ In flight: %d  Pending: %d%-24s │
`, m.enqueued, m.submitted, m.returned, "", m.inFlight, m.pending, "")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  m:Mute  space:Pause  q:Quit              │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.notifyQuit()
		return m, tea.Quit
	case "up":
		m.volume += 5
		if m.volume > 100 {
			m.volume = 100
		}
		m.notifyVolume()
	case "down":
		m.volume -= 5
		if m.volume < 0 {
			m.volume = 0
		}
		m.notifyVolume()
	case "m":
		m.muted = !m.muted
		m.notifyVolume()
	case " ":
		m.notifyPause()
	}

	return m, nil
}

func (m Model) notifyVolume() {
	if m.ctrl == nil {
		return
	}
	select {
	case m.ctrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

func (m Model) notifyPause() {
	if m.ctrl == nil {
		return
	}
	select {
	case m.ctrl.Pauses <- PauseToggleMsg{}:
	default:
	}
}

func (m Model) notifyQuit() {
	if m.ctrl == nil {
		return
	}
	select {
	case m.ctrl.Quit <- QuitMsg{}:
	default:
	}
}

// applyStatus updates model from a status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.File != "" {
		m.file = msg.File
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.bits = msg.Bits
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Volume != 0 {
		m.volume = msg.Volume
	}
	if msg.Enqueued != 0 {
		m.enqueued = msg.Enqueued
		m.submitted = msg.Submitted
		m.returned = msg.Returned
		m.inFlight = msg.InFlight
		m.pending = msg.Pending
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}
