package aidos

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tmc/aidos/chat"
)

// headerView renders the title and the speech toggle.
func (m *Model) headerView() string {
	title := titleStyle.Render(aiAvatar + " AI-Dos")
	toggle := m.settingsPanel.ToggleView()

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(toggle)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + toggle + "\n"
}

// statusView describes what the client is doing right now, followed by a
// note about a rejected or held send.
func (m *Model) statusView() string {
	if m.statusNote == "" {
		return m.activityView()
	}
	return m.activityView() + "  " + noteStyle.Render(m.statusNote)
}

func (m *Model) activityView() string {
	switch {
	case m.recording:
		return inputModeStyle.Render("[Mic ON]") + " " + m.spinner.View() + " Listening..."
	case m.capturing:
		return m.spinner.View() + " Taking a picture..."
	case m.state == chat.Sending:
		return m.spinner.View() + " Sending..."
	case m.state == chat.Streaming:
		return m.spinner.View() + " AI-Dos is typing..."
	case m.activeAudioPlayer.IsPlaying():
		return m.activeAudioPlayer.View()
	}
	return statusStyle.Render("Ready.")
}

// helpView lists the shortcuts for the controls that are available.
func (m *Model) helpView() string {
	hints := []string{"Enter: Send", "Ctrl+U: Upload"}
	if m.camera != nil {
		hints = append(hints, "Ctrl+P: Camera")
	}
	if m.dictation.Available() {
		hints = append(hints, "Ctrl+R: Mic")
	}
	hints = append(hints,
		"Ctrl+G: Riddle",
		fmt.Sprintf("Ctrl+S: %s", m.settingsPanel.SpeechLabel()),
		"Ctrl+T: Settings",
		"Ctrl+C: Quit",
	)
	return statusStyle.Render(strings.Join(hints, " | "))
}

// footerView renders the input area, the status line and the help line.
func (m *Model) footerView() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.textarea.View(),
		lipgloss.NewStyle().MaxWidth(max(m.width, 1)).Render(m.statusView()),
		lipgloss.NewStyle().Width(max(m.width, 1)).Render(m.helpView()),
	)
}
