package aidos

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/tmc/aidos/internal/testing/scripttest"
	"github.com/tmc/aidos/settings"
	"rsc.io/script"
)

// TestScripts runs the stdin mode scripts in testdata/script against a fake
// chat service.
func TestScripts(t *testing.T) {
	defer SetupTestLogging(t)()
	b := newFakeBackend(t)
	scripttest.Run(t, "testdata/script/*.txt", map[string]script.Cmd{
		"aidos": aidosCmd(b),
	})
}

// aidosCmd feeds a file to stdin mode and reports what it printed.
func aidosCmd(b *fakeBackend) script.Cmd {
	return script.Command(
		script.CmdUsage{
			Summary: "run the client in stdin mode",
			Args:    "input-file",
			Detail: []string{
				"Feeds input-file to stdin mode one line per message.",
				"Relative /image paths resolve against the script directory.",
				"State persists in state.db in the script directory.",
			},
		},
		func(s *script.State, args ...string) (script.WaitFunc, error) {
			if len(args) != 1 {
				return nil, script.ErrUsage
			}
			input, err := os.ReadFile(s.Path(args[0]))
			if err != nil {
				return nil, err
			}
			store, err := settings.OpenSQLite(s.Path("state.db"))
			if err != nil {
				return nil, err
			}

			m := New(WithClient(b.client()), WithStore(store))
			var out bytes.Buffer
			runErr := m.ProcessStdinMode(s.Context(), strings.NewReader(resolveImagePaths(s, string(input))), &out)
			closeErr := m.Close()
			return func(*script.State) (string, string, error) {
				return out.String(), "", errors.Join(runErr, closeErr)
			}, nil
		},
	)
}

func resolveImagePaths(s *script.State, input string) string {
	lines := strings.Split(input, "\n")
	for i, line := range lines {
		rest, ok := strings.CutPrefix(line, "/image ")
		if !ok {
			continue
		}
		path, caption, _ := strings.Cut(strings.TrimSpace(rest), " ")
		lines[i] = strings.TrimSpace("/image " + s.Path(path) + " " + caption)
	}
	return strings.Join(lines, "\n")
}
