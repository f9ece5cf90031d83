// Package conversation holds the in-memory chat history sent to the backend
// with every request.
package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tmc/aidos/internal/helpers"
)

// Role attributes a turn to one side of the conversation.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// InlineImage is an image embedded in a turn.
type InlineImage struct {
	MIMEType   string `json:"mime_type"`
	Base64Data string `json:"data"`
}

// Part is one content fragment of a turn: text or an inline image.
// On the wire a text part is a bare JSON string and an image part is
// {"inline_data": {...}}.
type Part struct {
	Text  string
	Image *InlineImage
}

// TextPart returns a text part.
func TextPart(text string) Part { return Part{Text: text} }

// ImagePart returns an inline image part.
func ImagePart(mimeType, base64Data string) Part {
	return Part{Image: &InlineImage{MIMEType: mimeType, Base64Data: base64Data}}
}

// IsImage reports whether the part carries an image.
func (p Part) IsImage() bool { return p.Image != nil }

type imagePartJSON struct {
	InlineData *InlineImage `json:"inline_data"`
}

// MarshalJSON implements json.Marshaler.
func (p Part) MarshalJSON() ([]byte, error) {
	if p.Image != nil {
		return json.Marshal(imagePartJSON{InlineData: p.Image})
	}
	return json.Marshal(p.Text)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Part) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*p = Part{}
		return json.Unmarshal(data, &p.Text)
	}
	var img imagePartJSON
	if err := json.Unmarshal(data, &img); err != nil {
		return fmt.Errorf("decode part: %w", err)
	}
	if img.InlineData == nil {
		return fmt.Errorf("decode part: missing inline_data")
	}
	*p = Part{Image: img.InlineData}
	return nil
}

// Turn is one message-equivalent unit of the conversation.
type Turn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Text joins the text parts of the turn.
func (t Turn) Text() string {
	var buf bytes.Buffer
	for _, p := range t.Parts {
		if !p.IsImage() {
			buf.WriteString(p.Text)
		}
	}
	return buf.String()
}

// Session owns the ordered conversation history for the lifetime of the
// process. It is safe for concurrent use.
type Session struct {
	mu    sync.Mutex
	turns []Turn
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// AddUserTurn appends a user turn built from whichever of text and image are
// present. image is a data URI; one that is not a base64 image data URI is
// ignored. It reports whether a turn was appended.
func (s *Session) AddUserTurn(text, imageDataURI string) bool {
	var parts []Part
	if text != "" {
		parts = append(parts, TextPart(text))
	}
	if imageDataURI != "" {
		if mimeType, data, err := helpers.ParseImageDataURI(imageDataURI); err == nil {
			parts = append(parts, ImagePart(mimeType, data))
		}
	}
	if len(parts) == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{Role: RoleUser, Parts: parts})
	return true
}

// AddModelTurn appends a model turn with a single text part.
func (s *Session) AddModelTurn(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{Role: RoleModel, Parts: []Part{TextPart(text)}})
}

// RetractLastUserTurn removes the most recent turn if it is a user turn.
// It reports whether a turn was removed.
func (s *Session) RetractLastUserTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.turns)
	if n == 0 || s.turns[n-1].Role != RoleUser {
		return false
	}
	s.turns[n-1] = Turn{}
	s.turns = s.turns[:n-1]
	return true
}

// Turns returns a copy of the history.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}
