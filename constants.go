package aidos

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RiddlePrompt is sent by the riddle action.
const RiddlePrompt = "Let's play riddles!"

// NotImageNotice is shown when a picked file is not an image.
const NotImageNotice = "Sorry, AI-Dos only understands images for now!"

// BusyNotice is shown when a send is rejected because a reply is streaming.
const BusyNotice = "AI-Dos is still answering. Try again in a moment."

// PictureWaitingNotice is shown while a picture waits for the running reply.
const PictureWaitingNotice = "AI-Dos is still answering. Your picture will be sent next."

// retryDelay spaces attempts to send a held picture.
const retryDelay = 250 * time.Millisecond

// aiAvatar prefixes every AI-Dos message.
const aiAvatar = "🤖"

// thinkingText stands in for a reply until its first chunk arrives.
const thinkingText = "thinking..."

// uiUpdateBuffer sizes the channel background work posts UI updates on.
const uiUpdateBuffer = 64

// Styles
var (
	senderUserStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")) // Cyan
	senderAIStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")) // Magenta
	thinkingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true) // Red
	statusStyle     = lipgloss.NewStyle().Faint(true)
	inputModeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true) // Bright Green
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	noteStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // Yellow
	thumbnailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Underline(true)
	noticeStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 3).
			Bold(true)
)
