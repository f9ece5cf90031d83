// Package scripttest runs rsc.io/script test scripts with the default
// commands plus the ones a test provides.
package scripttest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"rsc.io/script"
	rscscripttest "rsc.io/script/scripttest"
)

// NewEngine returns an engine with the default commands and conditions and
// cmds added on top. A command in cmds replaces a default of the same name.
func NewEngine(cmds map[string]script.Cmd) *script.Engine {
	engine := &script.Engine{
		Cmds:  rscscripttest.DefaultCmds(),
		Conds: rscscripttest.DefaultConds(),
		Quiet: !testing.Verbose(),
	}
	for name, cmd := range cmds {
		engine.Cmds[name] = cmd
	}
	return engine
}

// Run runs every script matching pattern as a subtest. Each script gets its
// own work directory holding the files of its txtar archive.
func Run(t *testing.T, pattern string, cmds map[string]script.Cmd) {
	t.Helper()
	files, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatalf("bad script pattern %q: %v", pattern, err)
	}
	if len(files) == 0 {
		t.Fatalf("no scripts match %q", pattern)
	}
	rscscripttest.Test(t, context.Background(), NewEngine(cmds), os.Environ(), pattern)
}
