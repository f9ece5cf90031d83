package aidos

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tmc/aidos/chat"
	"github.com/tmc/aidos/speech"
)

// Sender identifies who wrote a transcript message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one rendered transcript entry. ID is the live reference used to
// update a reply while it streams.
type Message struct {
	ID        string
	Sender    Sender
	Content   string
	Image     string // data URI of an attached image, user messages only
	Thinking  bool   // placeholder waiting for its first chunk
	IsError   bool
	Timestamp time.Time
}

// HasImage reports whether the message carries an image thumbnail.
func (m Message) HasImage() bool {
	return m.Image != ""
}

// --- Messages ---

// Messages posted to uiUpdateChan by dispatcher cycles and speech playback.
type messageAddedMsg struct{ msg Message }
type replyTextMsg struct {
	id   string
	text string
}
type replyErrorMsg struct {
	id      string
	message string
}
type inputEnabledMsg struct{ enabled bool }
type chatStateMsg struct{ state chat.State }
type speechEventMsg struct{ event speech.Event }

// uiUpdateMsg wraps a message read from uiUpdateChan so the listener is
// re-armed exactly once per delivered message.
type uiUpdateMsg struct{ msg tea.Msg }

// sendDoneMsg reports the end of a cycle. text and image are what was sent;
// restore marks sends that came from the input area.
type sendDoneMsg struct {
	err     error
	text    string
	image   string
	restore bool
}

// retryPendingMsg asks Update to send a held image again.
type retryPendingMsg struct{}

// imageLoadedMsg carries a picked or captured image ready to send.
type imageLoadedMsg struct {
	dataURI string
	source  string
}

// imageErrorMsg reports a picked file that could not be used.
type imageErrorMsg struct{ err error }

// dictationResultMsg carries the final transcript of one recording session.
type dictationResultMsg struct {
	text string
	err  error
}

// imageOpenedMsg reports the result of opening an image full size.
type imageOpenedMsg struct {
	path string
	err  error
}
