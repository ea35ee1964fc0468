// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the player UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// VolumeChangeMsg carries a volume adjustment from the TUI
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// PauseToggleMsg asks the player to toggle pause
type PauseToggleMsg struct{}

// QuitMsg asks the player to shut down
type QuitMsg struct{}

// Control holds channels for player control communication
type Control struct {
	Changes chan VolumeChangeMsg
	Pauses  chan PauseToggleMsg
	Quit    chan QuitMsg
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Changes: make(chan VolumeChangeMsg, 10),
		Pauses:  make(chan PauseToggleMsg, 4),
		Quit:    make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Control) Model {
	return Model{
		volume: 100,
		state:  "idle",
		ctrl:   ctrl,
	}
}

// Run starts the TUI
func Run(ctrl *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
