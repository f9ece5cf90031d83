package audioplayer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Constants for the audio player UI
const (
	progressBarWidth = 30
)

// State represents the state of the audio player
type State int

const (
	// Ready means audio is configured but not yet playing
	Ready State = iota
	// Playing means the audio is currently playing
	Playing
	// Stopped means playback was cut short
	Stopped
	// Ended means the audio has finished playing
	Ended
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Stopped:
		return "stopped"
	case Ended:
		return "ended"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// KeyMap defines the keybindings for the audio player
type KeyMap struct {
	Stop key.Binding
}

// DefaultKeyMap returns a set of default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Stop: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "stop speech"),
		),
	}
}

// PlayMsg tells the widget that playback started
type PlayMsg struct{}

// StopMsg tells the widget that playback was stopped
type StopMsg struct{}

// TickMsg is a message that updates the audio player's progress
type TickMsg time.Time

// AudioEndedMsg is a message that indicates the audio has finished playing
type AudioEndedMsg struct {
	MessageID string
}

// Model is the speaking-status widget shown while a reply is read aloud.
type Model struct {
	KeyMap      KeyMap
	State       State
	ElapsedTime float64
	TotalTime   float64
	Width       int
	MessageID   string
	Text        string
	StartTime   time.Time
}

// New creates a new audio player model
func New() Model {
	return Model{
		KeyMap: DefaultKeyMap(),
		State:  Ready,
		Width:  progressBarWidth,
	}
}

// Init initializes the audio player model
func (m Model) Init() tea.Cmd {
	return nil
}

// tickCmd returns a command that will send a tick message after a delay
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update handles updating the audio player model
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg.(type) {
	case PlayMsg:
		return m, m.Play()
	case StopMsg:
		m.Stop()
		return m, nil
	case TickMsg:
		if m.State != Playing {
			return m, nil
		}
		m.ElapsedTime = time.Since(m.StartTime).Seconds()
		// The estimate can run out before the player does; hold at the end
		// until the real Ended event arrives.
		if m.TotalTime > 0 && m.ElapsedTime > m.TotalTime {
			m.ElapsedTime = m.TotalTime
		}
		return m, tickCmd()
	}
	return m, nil
}

// View renders the audio player UI
func (m Model) View() string {
	var audioLine strings.Builder

	audioIcon := "🔈"
	switch m.State {
	case Playing:
		audioIcon = "🔊"
	case Stopped:
		audioIcon = "⏹"
	case Ended:
		audioIcon = "✓"
	}

	timestampStr := fmt.Sprintf("%s / %s", formatDuration(m.ElapsedTime), formatDuration(m.TotalTime))

	progress := 0.0
	if m.TotalTime > 0 {
		progress = m.ElapsedTime / m.TotalTime
	}
	progress = math.Min(1.0, math.Max(0.0, progress)) // Clamp progress [0, 1]
	filledWidth := int(progress * float64(m.Width))
	progressBar := strings.Repeat("━", filledWidth) + strings.Repeat("╌", m.Width-filledWidth)

	audioLine.WriteString(audioIcon)
	audioLine.WriteString(" ")
	audioLine.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(timestampStr))
	audioLine.WriteString(" ")
	audioLine.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render(progressBar))
	if m.State == Playing {
		audioLine.WriteString(" ")
		audioLine.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Render("[" + m.KeyMap.Stop.Help().Key + "] stop"))
	}

	return audioLine.String()
}

// Configure sets up the widget for one playback
func (m *Model) Configure(audioData []byte, text string, messageID string) {
	m.Text = text
	m.MessageID = messageID
	m.State = Ready
	m.ElapsedTime = 0
	m.TotalTime = EstimateDuration(audioData).Seconds()
}

// Play starts playback or resets if already ended
func (m *Model) Play() tea.Cmd {
	if m.State == Playing {
		return nil
	}
	m.State = Playing
	m.ElapsedTime = 0
	m.StartTime = time.Now()
	return tickCmd()
}

// Stop marks playback as cut short
func (m *Model) Stop() {
	if m.State == Playing || m.State == Ready {
		m.State = Stopped
	}
}

// End marks playback as finished and reports it
func (m *Model) End() tea.Cmd {
	if m.State != Playing {
		return nil
	}
	m.State = Ended
	m.ElapsedTime = m.TotalTime
	id := m.MessageID
	return func() tea.Msg {
		return AudioEndedMsg{MessageID: id}
	}
}

// IsPlaying returns whether the audio is playing
func (m Model) IsPlaying() bool {
	return m.State == Playing
}

// IsStopped returns whether playback was cut short
func (m Model) IsStopped() bool {
	return m.State == Stopped
}

// IsEnded returns whether the audio has ended
func (m Model) IsEnded() bool {
	return m.State == Ended
}

// IsReady returns whether the audio is ready to play
func (m Model) IsReady() bool {
	return m.State == Ready
}

// formatDuration formats a duration in seconds as MM:SS
func formatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}

	minutes := int(seconds) / 60
	remainingSeconds := int(seconds) % 60
	return fmt.Sprintf("%02d:%02d", minutes, remainingSeconds)
}
