package aidos

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/tmc/aidos/internal/helpers"
)

// Transcript is the scrolling message log.
type Transcript struct {
	viewport viewport.Model
	messages []Message
	index    map[string]int
	width    int
}

// NewTranscript returns an empty transcript sized width x height.
func NewTranscript(width, height int) *Transcript {
	vp := viewport.New(width, height)
	return &Transcript{
		viewport: vp,
		index:    make(map[string]int),
		width:    width,
	}
}

// Render builds a message for sender. The returned ID identifies it in later
// SetText and SetError calls.
func (t *Transcript) Render(sender Sender, text, imageDataURI string) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Content:   text,
		Timestamp: time.Now(),
	}
	if sender == SenderUser {
		msg.Image = imageDataURI
	}
	return msg
}

// AppendAndScroll adds msg to the log and scrolls to the bottom.
func (t *Transcript) AppendAndScroll(msg Message) {
	t.index[msg.ID] = len(t.messages)
	t.messages = append(t.messages, msg)
	t.refresh()
}

// SetText replaces the text of message id and clears its thinking
// indicator. It reports whether the message exists.
func (t *Transcript) SetText(id, text string) bool {
	i, ok := t.index[id]
	if !ok {
		return false
	}
	t.messages[i].Content = text
	t.messages[i].Thinking = false
	t.messages[i].Timestamp = time.Now()
	t.refresh()
	return true
}

// SetError replaces message id with an inline error.
func (t *Transcript) SetError(id, message string) bool {
	i, ok := t.index[id]
	if !ok {
		return false
	}
	t.messages[i].Content = message
	t.messages[i].Thinking = false
	t.messages[i].IsError = true
	t.refresh()
	return true
}

// Messages returns a copy of the log.
func (t *Transcript) Messages() []Message {
	return append([]Message(nil), t.messages...)
}

// Message returns message id.
func (t *Transcript) Message(id string) (Message, bool) {
	i, ok := t.index[id]
	if !ok {
		return Message{}, false
	}
	return t.messages[i], true
}

// LastImage returns the most recent attached image.
func (t *Transcript) LastImage() (string, bool) {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].HasImage() {
			return t.messages[i].Image, true
		}
	}
	return "", false
}

// SetSize resizes the viewport and rewraps the log.
func (t *Transcript) SetSize(width, height int) {
	t.width = width
	t.viewport.Width = width
	t.viewport.Height = max(height, 1)
	t.refresh()
}

// View renders the visible part of the log.
func (t *Transcript) View() string {
	return t.viewport.View()
}

func (t *Transcript) refresh() {
	t.viewport.SetContent(t.formatAll())
	t.viewport.GotoBottom()
}

func (t *Transcript) formatAll() string {
	var b strings.Builder
	for _, msg := range t.messages {
		b.WriteString(t.format(msg))
	}
	return b.String()
}

// format renders one message: a sender header, the text paragraph and an
// optional thumbnail line.
func (t *Transcript) format(msg Message) string {
	var b strings.Builder

	switch msg.Sender {
	case SenderAI:
		b.WriteString(senderAIStyle.Render(aiAvatar + " AI-Dos:"))
	default:
		b.WriteString(senderUserStyle.Render("You:"))
	}
	b.WriteString("\n")

	// An AI message always has a paragraph so streamed text has a home.
	if msg.Content != "" || msg.Sender == SenderAI {
		wrap := lipgloss.NewStyle()
		if t.width > 0 {
			wrap = wrap.Width(t.width)
		}
		switch {
		case msg.Thinking:
			b.WriteString(thinkingStyle.Render(thinkingText))
		case msg.IsError:
			b.WriteString(errorStyle.Render(wrap.Render(msg.Content)))
		default:
			b.WriteString(wrap.Render(msg.Content))
		}
		b.WriteString("\n")
	}

	if msg.HasImage() {
		b.WriteString(thumbnailLine(msg.Image))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	return b.String()
}

// thumbnailLine summarizes an attached image and how to open it.
func thumbnailLine(dataURI string) string {
	mimeType, data, err := helpers.DecodeImageDataURI(dataURI)
	if err != nil {
		return thumbnailStyle.Render("🖼  image")
	}
	return thumbnailStyle.Render(fmt.Sprintf("🖼  %s, %s", mimeType, formatSize(len(data)))) +
		statusStyle.Render(" [ctrl+o] open")
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
