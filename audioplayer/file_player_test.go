package audioplayer

import (
	"context"
	"testing"
)

func TestNewFilePlayer(t *testing.T) {
	if _, err := NewFilePlayer(""); err == nil {
		t.Error("NewFilePlayer() with empty command should return an error")
	}
	if _, err := NewFilePlayer("aidos-no-such-player"); err == nil {
		t.Error("NewFilePlayer() with missing command should return an error")
	}

	player, err := NewFilePlayer("cat")
	if err != nil {
		t.Fatalf("NewFilePlayer(cat) returned error: %v", err)
	}
	if player.Name() != "cat" {
		t.Errorf("Name() = %s, want cat", player.Name())
	}
	if player.EstimatedLatency() <= 0 {
		t.Error("EstimatedLatency() should return a positive duration")
	}
	if err := player.Cleanup(); err != nil {
		t.Errorf("Cleanup() should return nil, got: %v", err)
	}
}

func TestFilePlayerPlay(t *testing.T) {
	player, err := NewFilePlayer("cat")
	if err != nil {
		t.Skip("cat not available")
	}

	if err := player.Play(context.Background(), nil); err == nil {
		t.Error("Play() with empty audio data should return an error")
	}

	if err := player.Play(context.Background(), []byte("ID3")); err != nil {
		t.Errorf("Play() returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := player.Play(ctx, []byte("ID3")); err != context.Canceled {
		t.Errorf("Play() with cancelled context should return context.Canceled, got: %v", err)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		command   string
		wantStdin bool
		wantErr   bool
	}{
		{name: "stdin command", command: "cat -", wantStdin: true},
		{name: "file command", command: "cat", wantStdin: false},
		{name: "missing command", command: "aidos-no-such-player -", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			player, err := Detect(tt.command)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Detect(%q) error = %v, wantErr %v", tt.command, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			_, isStdin := player.(*StdinPlayer)
			if isStdin != tt.wantStdin {
				t.Errorf("Detect(%q) = %T, want stdin player %t", tt.command, player, tt.wantStdin)
			}
		})
	}
}

func TestDetectAuto(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if _, err := Detect(""); err != ErrNoPlayer {
		t.Errorf("Detect(\"\") with empty PATH error = %v, want ErrNoPlayer", err)
	}
}
