// Package logging routes the standard logger and zerolog to a file so the
// TUI owns the terminal.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Setup directs log output to path at the given level ("debug", "info",
// "warn", "error"). An empty path discards output. The returned closer
// releases the file.
func Setup(path, level string) (io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(lvl)

	if path == "" {
		zlog.Logger = zerolog.Nop()
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	// LogToFile also points the standard library logger at the file.
	f, err := tea.LogToFile(path, "aidos")
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	writer := zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: "15:04:05"}
	zlog.Logger = zerolog.New(writer).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &zlog.Logger
	zlog.Debug().Str("path", path).Str("level", lvl.String()).Msg("logging initialized")
	return f, nil
}

// ParseLevel maps a level name to a zerolog level. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
