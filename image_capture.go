package aidos

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNoCamera is returned by DetectCamera when no capture tool is installed.
var ErrNoCamera = errors.New("no camera capture tool found")

// Camera takes a single still picture.
type Camera interface {
	Capture(ctx context.Context) ([]byte, error)
	Name() string
}

// CommandCamera runs an external capture command with the output file path
// appended as its last argument.
type CommandCamera struct {
	command string
	args    []string
}

// NewCommandCamera returns a camera for command, e.g. "fswebcam -q --no-banner".
func NewCommandCamera(command string) (*CommandCamera, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("empty camera command")
	}
	path, err := exec.LookPath(fields[0])
	if err != nil {
		return nil, fmt.Errorf("camera command %q not found: %w", fields[0], err)
	}
	return &CommandCamera{command: path, args: fields[1:]}, nil
}

// Capture runs the command once and returns the captured file's bytes.
func (c *CommandCamera) Capture(ctx context.Context) ([]byte, error) {
	f, err := os.CreateTemp("", "aidos-capture-*.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}
	filename := f.Name()
	f.Close()
	defer os.Remove(filename)

	args := append(append([]string(nil), c.args...), filename)
	cmd := exec.CommandContext(ctx, c.command, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("camera capture failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read captured file: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("camera produced an empty file")
	}
	log.Debug().Str("camera", c.Name()).Int("bytes", len(data)).Msg("captured still")
	return data, nil
}

// Name returns the capture command.
func (c *CommandCamera) Name() string {
	return strings.TrimSpace(c.command + " " + strings.Join(c.args, " "))
}

type cameraCandidate struct {
	name string
	args string
	goos string
}

var cameraCandidates = []cameraCandidate{
	{name: "imagesnap", args: "-q -w 1", goos: "darwin"},
	{name: "fswebcam", args: "-q --no-banner -r 640x480", goos: "linux"},
	{name: "ffmpeg", args: "-loglevel error -f v4l2 -i /dev/video0 -frames:v 1 -y", goos: "linux"},
}

// DetectCamera returns a camera for command, or the first installed capture
// tool when command is empty.
func DetectCamera(command string) (Camera, error) {
	if strings.TrimSpace(command) != "" {
		cam, err := NewCommandCamera(command)
		if err != nil {
			return nil, err
		}
		return cam, nil
	}
	for _, c := range cameraCandidates {
		if c.goos != runtime.GOOS {
			continue
		}
		if _, err := exec.LookPath(c.name); err != nil {
			continue
		}
		cam, err := NewCommandCamera(c.name + " " + c.args)
		if err != nil {
			continue
		}
		log.Info().Str("command", cam.Name()).Msg("auto-detected camera")
		return cam, nil
	}
	return nil, ErrNoCamera
}
