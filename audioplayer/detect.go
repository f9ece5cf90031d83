package audioplayer

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNoPlayer is returned by Detect when no usable player is installed.
var ErrNoPlayer = errors.New("no audio player found")

type candidate struct {
	name  string
	args  string
	stdin bool
	goos  string
}

// candidates in preference order. Stdin players avoid temp files.
var candidates = []candidate{
	{name: "ffplay", args: "-autoexit -nodisp -loglevel error -i -", stdin: true},
	{name: "mpv", args: "--no-video --really-quiet -", stdin: true},
	{name: "mpg123", args: "-q -", stdin: true},
	{name: "afplay", goos: "darwin"},
}

// Detect returns a player for command. A command reading stdin ("-" as an
// argument) gets a StdinPlayer; any other command gets a FilePlayer. With an
// empty command the first installed candidate is used.
func Detect(command string) (Player, error) {
	if command = strings.TrimSpace(command); command != "" {
		return newPlayer(command, readsStdin(command))
	}

	for _, c := range candidates {
		if c.goos != "" && c.goos != runtime.GOOS {
			continue
		}
		path, err := exec.LookPath(c.name)
		if err != nil {
			continue
		}
		cmd := strings.TrimSpace(path + " " + c.args)
		log.Info().Str("command", cmd).Msg("auto-detected audio player")
		return newPlayer(cmd, c.stdin)
	}
	if runtime.GOOS == "darwin" {
		log.Info().Msg("'ffplay' not found; for best audio on macOS, install FFmpeg (`brew install ffmpeg`)")
	}
	return nil, ErrNoPlayer
}

// newPlayer keeps a failed constructor from leaking a typed nil Player.
func newPlayer(command string, stdin bool) (Player, error) {
	if stdin {
		p, err := NewStdinPlayer(command)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	p, err := NewFilePlayer(command)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func readsStdin(command string) bool {
	for _, f := range strings.Fields(command)[1:] {
		if f == "-" {
			return true
		}
	}
	return false
}
