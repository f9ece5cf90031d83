package audioplayer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/aidos/internal/helpers"
)

// StdinPlayer plays audio by piping MP3 data to the standard input of an
// external command (e.g., ffplay, mpv).
type StdinPlayer struct {
	command string // The full command string (e.g., "ffplay -autoexit ... -i -")
	cmdName string // Just the command name (e.g., "ffplay")
	cmdArgs []string
}

// NewStdinPlayer creates a new StdinPlayer instance.
// The command string should include a placeholder like '-' for stdin.
func NewStdinPlayer(command string) (*StdinPlayer, error) {
	if command == "" {
		return nil, errors.New("audio player command cannot be empty")
	}
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, errors.New("invalid audio player command format")
	}

	// Basic check if command exists
	if _, err := exec.LookPath(parts[0]); err != nil {
		return nil, fmt.Errorf("audio player command '%s' not found in PATH: %w", parts[0], err)
	}

	log.Debug().Str("command", command).Msg("stdin player initialized")
	return &StdinPlayer{
		command: command,
		cmdName: parts[0],
		cmdArgs: parts[1:],
	}, nil
}

// Play implements the Player interface by writing to the command's stdin.
func (p *StdinPlayer) Play(ctx context.Context, audioData []byte) error {
	if len(audioData) == 0 {
		return errors.New("cannot play empty audio data")
	}

	startTime := time.Now()
	cmd := exec.CommandContext(ctx, p.cmdName, p.cmdArgs...)
	cmd.Stdin = bytes.NewReader(audioData)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if helpers.IsAudioTraceEnabled() {
		log.Debug().Str("command", p.command).Int("bytes", len(audioData)).Msg("stdin player executing")
	}

	err := cmd.Run()
	duration := time.Since(startTime)

	if err != nil {
		if ctx.Err() != nil {
			log.Debug().Str("command", p.command).Dur("after", duration).Msg("playback cancelled")
			return ctx.Err()
		}
		errMsg := stderr.String()
		log.Error().Err(err).Str("command", p.command).Dur("duration", duration).Str("stderr", errMsg).Msg("audio player failed")
		return fmt.Errorf("audio player command failed: %w (stderr: %s)", err, errMsg)
	}

	if helpers.IsAudioTraceEnabled() {
		log.Debug().Str("command", p.command).Dur("duration", duration).Int("bytes", len(audioData)).Msg("playback completed")
	}
	return nil
}

// Cleanup implements the Player interface. No-op for StdinPlayer.
func (p *StdinPlayer) Cleanup() error {
	return nil
}

// Name implements the Player interface.
func (p *StdinPlayer) Name() string {
	return p.cmdName
}

// EstimatedLatency provides a rough estimate. Stdin players might have some startup overhead.
func (p *StdinPlayer) EstimatedLatency() time.Duration {
	return 50 * time.Millisecond
}
