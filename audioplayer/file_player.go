package audioplayer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/aidos/internal/helpers"
)

// FilePlayer plays audio by writing it to a temporary MP3 file and passing
// the path to an external command (e.g., afplay, mpg123).
type FilePlayer struct {
	cmdName string
	cmdArgs []string
}

// NewFilePlayer creates a FilePlayer. The file path is appended to command.
func NewFilePlayer(command string) (*FilePlayer, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, errors.New("audio player command cannot be empty")
	}
	if _, err := exec.LookPath(parts[0]); err != nil {
		return nil, fmt.Errorf("audio player command '%s' not found in PATH: %w", parts[0], err)
	}
	log.Debug().Str("command", command).Msg("file player initialized")
	return &FilePlayer{cmdName: parts[0], cmdArgs: parts[1:]}, nil
}

// Play implements the Player interface.
func (p *FilePlayer) Play(ctx context.Context, audioData []byte) error {
	if len(audioData) == 0 {
		return errors.New("cannot play empty audio data")
	}

	startTime := time.Now()

	// 1. Create Temp File
	tmpFile, err := os.CreateTemp("", "aidos-speech-*.mp3")
	if err != nil {
		return fmt.Errorf("%s failed to create temp file: %w", p.cmdName, err)
	}
	tempFilePath := tmpFile.Name()
	defer func() {
		if removeErr := os.Remove(tempFilePath); removeErr != nil {
			log.Warn().Err(removeErr).Str("path", tempFilePath).Msg("failed to remove temp file")
		}
	}()

	// 2. Write Data (use buffered writer)
	bufWriter := bufio.NewWriterSize(tmpFile, 32*1024)
	_, errData := bufWriter.Write(audioData)
	errFlush := bufWriter.Flush()
	errClose := tmpFile.Close() // Close file before playing

	if err = errors.Join(errData, errFlush, errClose); err != nil {
		return fmt.Errorf("%s failed writing temp file %s: %w", p.cmdName, tempFilePath, err)
	}
	fileWriteDuration := time.Since(startTime)

	// 3. Execute command with context
	args := append(append([]string(nil), p.cmdArgs...), tempFilePath)
	cmd := exec.CommandContext(ctx, p.cmdName, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if helpers.IsAudioTraceEnabled() {
		log.Debug().Str("command", p.cmdName).Str("path", tempFilePath).Int("bytes", len(audioData)).
			Dur("file_write", fileWriteDuration).Msg("file player executing")
	}

	err = cmd.Run()
	totalDuration := time.Since(startTime)

	// 4. Handle results
	if err != nil {
		if ctx.Err() != nil {
			log.Debug().Str("command", p.cmdName).Dur("after", totalDuration).Msg("playback cancelled")
			return ctx.Err()
		}
		errMsg := stderr.String()
		log.Error().Err(err).Str("command", p.cmdName).Str("stderr", errMsg).Msg("audio player failed")
		return fmt.Errorf("%s execution failed: %w (stderr: %s)", p.cmdName, err, errMsg)
	}

	if helpers.IsAudioTraceEnabled() {
		log.Debug().Str("command", p.cmdName).Dur("total", totalDuration).Msg("playback completed")
	}
	return nil
}

// Cleanup implements the Player interface. No-op needed as temp files are handled by Play.
func (p *FilePlayer) Cleanup() error {
	return nil
}

// Name implements the Player interface.
func (p *FilePlayer) Name() string {
	return p.cmdName
}

// EstimatedLatency provides a rough estimate. File I/O adds latency.
func (p *FilePlayer) EstimatedLatency() time.Duration {
	return 100 * time.Millisecond
}
