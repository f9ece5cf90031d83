package settings

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ToggleSpeechMsg asks the host to flip the speech preference.
type ToggleSpeechMsg struct{}

var (
	toggleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Faint(true)
	speakingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
)

// Model represents the settings panel state
type Model struct {
	Width   int
	Height  int
	Focused bool

	SpeechEnabled   bool
	Speaking        bool
	MicAvailable    bool
	CameraAvailable bool
	PlayerName      string
	ChatURL         string
	UserID          string
}

// New creates a new settings model
func New() Model {
	return Model{
		SpeechEnabled: true,
		PlayerName:    "none",
	}
}

// Init initializes the settings model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles updating the settings model
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width / 3
		m.Height = msg.Height
	case tea.KeyMsg:
		if !m.Focused {
			return m, nil
		}

		switch msg.String() {
		case "esc":
			m.Focused = false
		case "s", " ":
			return m, func() tea.Msg { return ToggleSpeechMsg{} }
		}
	}

	return m, nil
}

// ApplySpeech reflects the speech preference in the toggle control. A disabled
// preference also clears the speaking state.
func (m *Model) ApplySpeech(enabled bool) {
	m.SpeechEnabled = enabled
	if !enabled {
		m.Speaking = false
	}
}

// SetSpeaking reflects whether audio is playing.
func (m *Model) SetSpeaking(speaking bool) {
	m.Speaking = speaking && m.SpeechEnabled
}

// SpeechIcon returns the toggle icon for the current preference.
func (m Model) SpeechIcon() string {
	if m.SpeechEnabled {
		return "🔊"
	}
	return "🔇"
}

// SpeechLabel returns the toggle label for the current preference.
func (m Model) SpeechLabel() string {
	if m.SpeechEnabled {
		return "Turn speech off"
	}
	return "Turn speech on"
}

// ToggleView renders the compact speech toggle shown in the header.
func (m Model) ToggleView() string {
	text := m.SpeechIcon() + " " + m.SpeechLabel()
	switch {
	case !m.SpeechEnabled:
		return mutedStyle.Render(text)
	case m.Speaking:
		return speakingStyle.Render(m.SpeechIcon() + " speaking")
	default:
		return toggleStyle.Render(text)
	}
}

// View renders the settings panel
func (m Model) View() string {
	if !m.Focused {
		return ""
	}

	style := lipgloss.NewStyle().
		Width(m.Width).
		Height(m.Height).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2)

	content := fmt.Sprintf("Settings\n\nSpeech: %s\nSpeech Enabled: %t\nMicrophone: %s\nCamera: %s\nPlayer: %s\nServer: %s\nUser: %s\n\nPress S to toggle speech, ESC to close",
		m.ToggleView(), m.SpeechEnabled, availability(m.MicAvailable), availability(m.CameraAvailable),
		m.PlayerName, m.ChatURL, m.UserID)

	return style.Render(content)
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}

// Focus sets focus on the settings panel
func (m *Model) Focus() {
	m.Focused = true
}

// Blur removes focus from the settings panel
func (m *Model) Blur() {
	m.Focused = false
}

// IsFocused returns whether the settings panel is focused
func (m Model) IsFocused() bool {
	return m.Focused
}
