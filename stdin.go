package aidos

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tmc/aidos/chat"
	"github.com/tmc/aidos/conversation"
)

const stdinHelp = `Commands:
  /image <path> [text]  send an image, optionally with text
  /riddle               play riddles
  /speech               toggle speech
  /history              print the conversation
  /help                 show this help`

// ProcessStdinMode reads one message per line from in and prints replies to
// out as they stream, without running the TUI.
func (m *Model) ProcessStdinMode(ctx context.Context, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = m.rootCtx
	}
	m.headless.Store(true)

	surface := &stdinSurface{out: out}
	d := m.newDispatcher(surface)
	defer d.Wait()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := m.processStdinLine(ctx, d, surface, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (m *Model) processStdinLine(ctx context.Context, d *chat.Dispatcher, s *stdinSurface, line string) error {
	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var text, image string
	switch command {
	case "/help":
		s.println(stdinHelp)
		return nil

	case "/speech":
		enabled := m.preference.Toggle()
		m.settingsPanel.ApplySpeech(enabled)
		if !enabled {
			m.speech.StopAll()
		}
		if enabled {
			s.println("Speech on")
		} else {
			s.println("Speech off")
		}
		return nil

	case "/history":
		for _, turn := range m.session.Turns() {
			s.println(formatTurn(turn))
		}
		return nil

	case "/riddle":
		text = RiddlePrompt

	case "/image":
		path, caption, _ := strings.Cut(rest, " ")
		if path == "" {
			s.println("usage: /image <path> [text]")
			return nil
		}
		uri, err := LoadImage(path)
		if errors.Is(err, ErrNotImage) {
			s.println(NotImageNotice)
			return nil
		}
		if err != nil {
			s.println("error: " + err.Error())
			return nil
		}
		text, image = strings.TrimSpace(caption), uri

	default:
		text = line
	}

	err := d.Send(ctx, text, image)
	switch {
	case err == nil, errors.Is(err, chat.ErrBusy):
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		log.Warn().Err(err).Msg("stdin send failed")
	}
	return nil
}

func formatTurn(turn conversation.Turn) string {
	var b strings.Builder
	b.WriteString(string(turn.Role))
	b.WriteString(":")
	for _, p := range turn.Parts {
		if p.IsImage() {
			fmt.Fprintf(&b, " [%s]", p.Image.MIMEType)
			continue
		}
		b.WriteString(" ")
		b.WriteString(p.Text)
	}
	return b.String()
}

// stdinSurface prints a cycle as plain text. Streamed updates print only the
// suffix not yet written, so the printed reply equals the final text.
type stdinSurface struct {
	mu      sync.Mutex
	out     io.Writer
	printed string
	open    bool
}

func (s *stdinSurface) ShowUser(text, imageDataURI string) {}

func (s *stdinSurface) BeginReply() chat.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.printed = ""
	s.open = false
	return s
}

func (s *stdinSurface) SetInputEnabled(enabled bool) {
	if !enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		fmt.Fprintln(s.out)
		s.open = false
	}
}

func (s *stdinSurface) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		fmt.Fprint(s.out, "AI-Dos: ")
		s.open = true
	}
	if strings.HasPrefix(text, s.printed) {
		fmt.Fprint(s.out, text[len(s.printed):])
	} else {
		fmt.Fprint(s.out, "\n"+text)
	}
	s.printed = text
}

func (s *stdinSurface) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		fmt.Fprintln(s.out)
	}
	fmt.Fprint(s.out, "AI-Dos: "+message)
	s.open = true
}

func (s *stdinSurface) println(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, line)
}
