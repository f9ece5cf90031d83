package aidos

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/tmc/aidos/chat"
)

// tuiSurface drives the transcript from dispatcher goroutines. Every change
// is posted to uiUpdateChan so the Update loop stays the only writer.
type tuiSurface struct {
	m *Model
}

func (s tuiSurface) ShowUser(text, imageDataURI string) {
	s.m.post(messageAddedMsg{msg: s.m.transcript.Render(SenderUser, text, imageDataURI)})
}

func (s tuiSurface) BeginReply() chat.Reply {
	msg := s.m.transcript.Render(SenderAI, "", "")
	msg.Thinking = true
	s.m.post(messageAddedMsg{msg: msg})
	return tuiReply{m: s.m, id: msg.ID}
}

func (s tuiSurface) SetInputEnabled(enabled bool) {
	s.m.post(inputEnabledMsg{enabled: enabled})
}

// tuiReply is the live handle on one placeholder AI message.
type tuiReply struct {
	m  *Model
	id string
}

func (r tuiReply) SetText(text string) {
	r.m.post(replyTextMsg{id: r.id, text: text})
}

func (r tuiReply) SetError(message string) {
	r.m.post(replyErrorMsg{id: r.id, message: message})
}

// post delivers msg to the Update loop. It gives up once the model is closed
// so background work never blocks on an exited program, and drops msg in
// stdin mode where no loop runs.
func (m *Model) post(msg tea.Msg) {
	if m.headless.Load() {
		return
	}
	select {
	case m.uiUpdateChan <- msg:
	case <-m.done:
	}
}

// listenForUIUpdatesCmd returns a command that listens on the uiUpdateChan
// and forwards messages to the main Bubble Tea update loop.
func (m *Model) listenForUIUpdatesCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.uiUpdateChan:
			return uiUpdateMsg{msg: msg}
		case <-m.done:
			return nil
		}
	}
}

// sendCmd runs one chat cycle in the background.
func (m *Model) sendCmd(text, imageDataURI string) tea.Cmd {
	return m.send(text, imageDataURI, false)
}

// inputSendCmd is sendCmd for content taken from the input area. A rejected
// send is put back instead of dropped.
func (m *Model) inputSendCmd(text, imageDataURI string) tea.Cmd {
	return m.send(text, imageDataURI, true)
}

func (m *Model) send(text, imageDataURI string, restore bool) tea.Cmd {
	if text == "" && imageDataURI == "" {
		return nil
	}
	return func() tea.Msg {
		err := m.dispatcher.Send(m.rootCtx, text, imageDataURI)
		switch {
		case errors.Is(err, chat.ErrBusy):
			log.Info().Msg("send ignored, a reply is still streaming")
		case errors.Is(err, context.Canceled):
			log.Debug().Msg("send canceled")
		case err != nil:
			log.Warn().Err(err).Msg("send failed")
		}
		return sendDoneMsg{err: err, text: text, image: imageDataURI, restore: restore}
	}
}
