package scripttest

import (
	"testing"

	"rsc.io/script"
)

func TestNewEngineAddsCommands(t *testing.T) {
	hello := script.Command(
		script.CmdUsage{Summary: "print hello"},
		func(s *script.State, args ...string) (script.WaitFunc, error) {
			return func(*script.State) (string, string, error) {
				return "hello\n", "", nil
			}, nil
		},
	)
	engine := NewEngine(map[string]script.Cmd{"hello": hello})
	if engine.Cmds["hello"] == nil {
		t.Fatal("hello command not registered")
	}
	for _, name := range []string{"cmp", "stdout", "exec"} {
		if engine.Cmds[name] == nil {
			t.Errorf("default command %q missing", name)
		}
	}
	if len(engine.Conds) == 0 {
		t.Error("default conditions missing")
	}
}
