package aidos

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tmc/aidos/chat"
	"github.com/tmc/aidos/conversation"
	"github.com/tmc/aidos/internal/helpers"
)

func TestSendStreamsIntoTranscript(t *testing.T) {
	defer SetupTestLogging(t)()
	m, b := newTestModel(t)

	m.textarea.SetValue("  hello  ")
	msg := runCmd(t, m, m.submitText())
	if done, ok := msg.(sendDoneMsg); !ok || done.err != nil {
		t.Fatalf("send finished with %#v", msg)
	}
	if m.textarea.Value() != "" {
		t.Errorf("input not cleared: %q", m.textarea.Value())
	}

	msgs := m.Transcript().Messages()
	if len(msgs) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(msgs))
	}
	if msgs[0].Sender != SenderUser || msgs[0].Content != "hello" {
		t.Errorf("user message = %+v", msgs[0])
	}
	if msgs[1].Sender != SenderAI || msgs[1].Content != "Hi there" || msgs[1].Thinking || msgs[1].IsError {
		t.Errorf("reply = %+v", msgs[1])
	}
	if !m.inputEnabled {
		t.Error("input still disabled after the cycle")
	}
	if m.state != chat.Finalized {
		t.Errorf("state = %v, want finalized", m.state)
	}

	turns := m.Session().Turns()
	if len(turns) != 2 || turns[0].Text() != "hello" || turns[1].Role != conversation.RoleModel || turns[1].Text() != "Hi there" {
		t.Errorf("session turns = %+v", turns)
	}
	if req := b.lastRequest(); req.UserID != m.settingsPanel.UserID {
		t.Errorf("request user ID = %q, want %q", req.UserID, m.settingsPanel.UserID)
	}
}

func TestSendFailureShowsInlineError(t *testing.T) {
	defer SetupTestLogging(t)()
	m, _ := newTestModel(t)

	msg := runCmd(t, m, m.sendCmd("boom", ""))
	if done, ok := msg.(sendDoneMsg); !ok || done.err == nil {
		t.Fatalf("send finished with %#v, want an error", msg)
	}

	msgs := m.Transcript().Messages()
	if len(msgs) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(msgs))
	}
	reply := msgs[1]
	if !reply.IsError || reply.Content != "Oops, AI-Dos lost connection (server error 500)" {
		t.Errorf("reply = %+v", reply)
	}
	if n := m.Session().Len(); n != 0 {
		t.Errorf("session has %d turns after a failure, want 0", n)
	}
	if m.state != chat.Failed || !m.inputEnabled {
		t.Errorf("state = %v, input enabled = %v", m.state, m.inputEnabled)
	}

	// The next cycle carries only successful turns.
	runCmd(t, m, m.sendCmd("hello", ""))
	if n := m.Session().Len(); n != 2 {
		t.Errorf("session has %d turns, want 2", n)
	}
}

func TestSendEmptyIsIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	if cmd := m.sendCmd("", ""); cmd != nil {
		t.Error("sendCmd with no content returned a command")
	}
	m.textarea.SetValue("   ")
	if cmd := m.submitText(); cmd != nil {
		t.Error("submitText with blank input returned a command")
	}
}

func TestSubmitImageWithPendingText(t *testing.T) {
	defer SetupTestLogging(t)()
	m, b := newTestModel(t)
	img := helpers.EncodeDataURI("image/gif", []byte(gifImage))

	m.textarea.SetValue("what is this")
	runCmd(t, m, m.submitImage(img))

	msgs := m.Transcript().Messages()
	if len(msgs) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(msgs))
	}
	if msgs[0].Content != "what is this" || msgs[0].Image != img {
		t.Errorf("user message = %+v", msgs[0])
	}
	if msgs[1].Content != "What a nice picture!" {
		t.Errorf("reply = %q", msgs[1].Content)
	}
	parts := b.lastRequest().History[0].Parts
	if len(parts) != 2 || parts[0].Text != "what is this" || !parts[1].IsImage() || parts[1].Image.MIMEType != "image/gif" {
		t.Errorf("request parts = %+v", parts)
	}
}

func TestUIUpdateMsgRearmsListener(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(uiUpdateMsg{msg: inputEnabledMsg{enabled: false}})
	if cmd == nil {
		t.Fatal("uiUpdateMsg did not re-arm the listener")
	}
	if m.inputEnabled {
		t.Error("input still enabled")
	}

	go m.post(inputEnabledMsg{enabled: true})
	got := m.listenForUIUpdatesCmd()()
	wrapped, ok := got.(uiUpdateMsg)
	if !ok {
		t.Fatalf("listener returned %T", got)
	}
	if in, ok := wrapped.msg.(inputEnabledMsg); !ok || !in.enabled {
		t.Errorf("listener delivered %#v", wrapped.msg)
	}
}

func TestPostAfterCloseDoesNotBlock(t *testing.T) {
	m := New()
	m.Close()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < uiUpdateBuffer*2; i++ {
			m.post(inputEnabledMsg{})
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("post blocked after Close")
	}
}

func TestInputDisabledWhileStreaming(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(inputEnabledMsg{enabled: false})
	m.textarea.SetValue("queued")
	if cmd := m.handleKey(keyEnter()); cmd != nil {
		t.Error("enter while disabled returned a command")
	}
	if m.textarea.Value() != "queued" {
		t.Error("disabled input changed")
	}
}

func TestSendDoneBusyKeepsInput(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(sendDoneMsg{err: chat.ErrBusy})
	if !m.inputEnabled {
		t.Error("a rejected send disabled input")
	}
}

func TestBusyTextReturnsToInput(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(sendDoneMsg{err: chat.ErrBusy, text: "hello", restore: true})
	if got := m.textarea.Value(); got != "hello" {
		t.Errorf("input = %q, want the rejected text back", got)
	}
	if m.statusNote != BusyNotice {
		t.Errorf("note = %q, want %q", m.statusNote, BusyNotice)
	}

	m.textarea.SetValue("newer words")
	m.Update(sendDoneMsg{err: chat.ErrBusy, text: "hello", restore: true})
	if got := m.textarea.Value(); got != "newer words" {
		t.Errorf("input = %q, typed text was overwritten", got)
	}

	m.textarea.Reset()
	m.statusNote = ""
	m.Update(sendDoneMsg{err: chat.ErrBusy, text: RiddlePrompt})
	if got := m.textarea.Value(); got != "" {
		t.Errorf("input = %q, riddle prompt leaked into the input", got)
	}
	if m.statusNote != BusyNotice {
		t.Errorf("note = %q, want %q", m.statusNote, BusyNotice)
	}
}

func TestImageHeldWhileInputDisabled(t *testing.T) {
	defer SetupTestLogging(t)()
	m, _ := newTestModel(t)
	img := helpers.EncodeDataURI("image/gif", []byte(gifImage))

	m.Update(inputEnabledMsg{enabled: false})
	m.Update(imageLoadedMsg{dataURI: img, source: "camera"})
	if m.pendingImage != img {
		t.Fatal("picture not held while input is disabled")
	}
	if !strings.Contains(m.statusView(), PictureWaitingNotice) {
		t.Errorf("status = %q, want the waiting note", m.statusView())
	}
	if n := len(m.Transcript().Messages()); n != 0 {
		t.Fatalf("transcript has %d messages, want 0", n)
	}

	_, cmd := m.Update(inputEnabledMsg{enabled: true})
	if m.pendingImage != "" {
		t.Error("held picture not released")
	}
	runCmd(t, m, cmd)
	msgs := m.Transcript().Messages()
	if len(msgs) != 2 || msgs[0].Image != img || msgs[1].Content != "What a nice picture!" {
		t.Errorf("transcript = %+v", msgs)
	}
	if m.statusNote != "" {
		t.Errorf("note = %q after the picture was sent", m.statusNote)
	}
}

func TestBusyImageIsHeldAndSent(t *testing.T) {
	defer SetupTestLogging(t)()
	m, b := newTestModel(t)
	img := helpers.EncodeDataURI("image/gif", []byte(gifImage))

	first := make(chan tea.Msg, 1)
	cycle := m.sendCmd("wait", "")
	go func() { first <- cycle() }()
	waitFor(t, func() bool { return b.requestCount() == 1 })

	m.textarea.SetValue("what is this")
	done, ok := m.submitImage(img)().(sendDoneMsg)
	if !ok || !errors.Is(done.err, chat.ErrBusy) {
		t.Fatalf("second send = %#v, want ErrBusy", done)
	}
	m.Update(done)
	if got := m.textarea.Value(); got != "what is this" {
		t.Errorf("input = %q, want the typed text back", got)
	}
	if m.pendingImage != img {
		t.Fatal("rejected picture was dropped")
	}
	if !strings.Contains(m.statusView(), PictureWaitingNotice) {
		t.Errorf("status = %q, want the waiting note", m.statusView())
	}

	close(b.release)
	select {
	case <-first:
	case <-time.After(5 * time.Second):
		t.Fatal("first cycle did not finish")
	}

	var resend tea.Cmd
	for len(m.uiUpdateChan) > 0 {
		u := <-m.uiUpdateChan
		_, cmd := m.Update(u)
		if in, ok := u.(inputEnabledMsg); ok && in.enabled && cmd != nil {
			resend = cmd
		}
	}
	if resend == nil {
		t.Fatal("held picture not sent when input came back")
	}
	runCmd(t, m, resend)

	msgs := m.Transcript().Messages()
	if len(msgs) != 4 {
		t.Fatalf("transcript has %d messages, want 4", len(msgs))
	}
	if msgs[2].Content != "what is this" || msgs[2].Image != img || msgs[3].Content != "What a nice picture!" {
		t.Errorf("resent cycle = %+v, %+v", msgs[2], msgs[3])
	}
	if m.textarea.Value() != "" || m.pendingImage != "" {
		t.Errorf("input = %q, pending = %v after resend", m.textarea.Value(), m.pendingImage != "")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func keyEnter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}
