package aidos

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestProcessStdinMode(t *testing.T) {
	defer SetupTestLogging(t)()

	dir := t.TempDir()
	pic := filepath.Join(dir, "pic.gif")
	notes := filepath.Join(dir, "notes.gif")
	os.WriteFile(pic, []byte(gifImage), 0o644)
	os.WriteFile(notes, []byte("plain text"), 0o644)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "reply",
			input: "hello\n",
			want:  "AI-Dos: Hi there\n",
		},
		{
			name:  "blank lines skipped",
			input: "\n   \nhello\n\n",
			want:  "AI-Dos: Hi there\n",
		},
		{
			name:  "failure",
			input: "boom\n/history\n",
			want:  "AI-Dos: Oops, AI-Dos lost connection (server error 500)\n",
		},
		{
			name:  "history",
			input: "hello\n/history\n",
			want:  "AI-Dos: Hi there\nuser: hello\nmodel: Hi there\n",
		},
		{
			name:  "image",
			input: "/image " + pic + "\n/history\n",
			want:  "AI-Dos: What a nice picture!\nuser: [image/gif]\nmodel: What a nice picture!\n",
		},
		{
			name:  "not an image",
			input: "/image " + notes + "\n/history\n",
			want:  NotImageNotice + "\n",
		},
		{
			name:  "image usage",
			input: "/image\n",
			want:  "usage: /image <path> [text]\n",
		},
		{
			name:  "speech toggle",
			input: "/speech\n/speech\n",
			want:  "Speech off\nSpeech on\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t)
			var out bytes.Buffer
			if err := m.ProcessStdinMode(context.Background(), strings.NewReader(tt.input), &out); err != nil {
				t.Fatalf("ProcessStdinMode() error = %v", err)
			}
			if got := out.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProcessStdinModeMissingImage(t *testing.T) {
	m, _ := newTestModel(t)
	var out bytes.Buffer
	err := m.ProcessStdinMode(context.Background(), strings.NewReader("/image /no/such/file.gif\n"), &out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "error: ") {
		t.Errorf("output = %q, want an error line", out.String())
	}
}

func TestProcessStdinModeCanceled(t *testing.T) {
	m, _ := newTestModel(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.ProcessStdinMode(ctx, strings.NewReader("hello\n"), &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ProcessStdinMode() error = %v, want context.Canceled", err)
	}
	if n := m.Session().Len(); n != 0 {
		t.Errorf("session has %d turns, want 0", n)
	}
}

func TestStdinSurfacePrintsSuffixes(t *testing.T) {
	var out bytes.Buffer
	s := &stdinSurface{out: &out}
	s.SetInputEnabled(false)
	r := s.BeginReply()
	r.SetText("Hi")
	r.SetText("Hi there")
	r.SetText("Hi there!")
	s.SetInputEnabled(true)

	r = s.BeginReply()
	r.SetText("Oh")
	r.SetError("Oops")
	s.SetInputEnabled(true)

	want := "AI-Dos: Hi there!\nAI-Dos: Oh\nAI-Dos: Oops\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestFormatTurnOrder(t *testing.T) {
	m, _ := newTestModel(t)
	var out bytes.Buffer
	m.ProcessStdinMode(context.Background(), strings.NewReader("what is this\n"), &out)
	turns := m.Session().Turns()
	if len(turns) != 2 {
		t.Fatalf("got %d turns", len(turns))
	}
	if got := formatTurn(turns[0]); got != "user: what is this" {
		t.Errorf("formatTurn() = %q", got)
	}
}
