// Package dictation turns one spoken utterance into text.
package dictation

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultLanguage is the recognition language used when none is configured.
const DefaultLanguage = "ru-RU"

// ErrUnavailable is returned by providers that cannot recognize speech.
var ErrUnavailable = errors.New("dictation: speech recognition unavailable")

// ErrNoSpeech is returned when a session ends without a final transcript.
var ErrNoSpeech = errors.New("dictation: no speech recognized")

// Provider runs speech recognition sessions.
type Provider interface {
	// Available reports whether Listen can work. The mic control is hidden
	// when it returns false.
	Available() bool
	// Listen runs one recognition session and returns its final transcript.
	// Cancelling ctx ends the session; the last text heard by then is
	// returned as the transcript.
	Listen(ctx context.Context) (string, error)
}

// Unavailable is the provider used when no recognizer is installed.
type Unavailable struct{}

// Available implements Provider.
func (Unavailable) Available() bool { return false }

// Listen implements Provider.
func (Unavailable) Listen(context.Context) (string, error) { return "", ErrUnavailable }

// CommandProvider runs an external speech-to-text command. The command
// prints interim results one per line; the last non-empty line is the final
// transcript. The language is passed in DICTATION_LANG.
type CommandProvider struct {
	cmdName string
	cmdArgs []string
	lang    string
}

// NewCommandProvider returns a provider for command.
func NewCommandProvider(command, lang string) (*CommandProvider, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, errors.New("dictation command cannot be empty")
	}
	if _, err := exec.LookPath(parts[0]); err != nil {
		return nil, fmt.Errorf("dictation command '%s' not found in PATH: %w", parts[0], err)
	}
	if lang == "" {
		lang = DefaultLanguage
	}
	return &CommandProvider{cmdName: parts[0], cmdArgs: parts[1:], lang: lang}, nil
}

// Available implements Provider.
func (p *CommandProvider) Available() bool { return true }

// Listen implements Provider.
func (p *CommandProvider) Listen(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, p.cmdName, p.cmdArgs...)
	cmd.Env = append(os.Environ(), "DICTATION_LANG="+p.lang)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to get dictation stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start dictation: %w", err)
	}
	log.Debug().Str("command", p.cmdName).Str("lang", p.lang).Msg("dictation started")

	var final string
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if final != "" {
			log.Debug().Str("interim", final).Msg("dictation interim result")
		}
		final = line
	}
	scanErr := scanner.Err()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			if final != "" {
				log.Debug().Str("transcript", final).Msg("dictation stopped, keeping last result")
				return final, nil
			}
			return "", ctx.Err()
		}
		return "", fmt.Errorf("dictation command failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	if scanErr != nil {
		return "", fmt.Errorf("failed to read dictation output: %w", scanErr)
	}
	if final == "" {
		return "", ErrNoSpeech
	}
	return final, nil
}

// Detect returns a CommandProvider for command, or Unavailable when command
// is empty or not installed.
func Detect(command, lang string) Provider {
	if strings.TrimSpace(command) == "" {
		return Unavailable{}
	}
	p, err := NewCommandProvider(command, lang)
	if err != nil {
		log.Info().Err(err).Msg("speech recognition unavailable")
		return Unavailable{}
	}
	return p
}
