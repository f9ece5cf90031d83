package dictation

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript creates an executable shell script in a temp dir.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dictate")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestUnavailable(t *testing.T) {
	var p Provider = Unavailable{}
	assert.False(t, p.Available())
	_, err := p.Listen(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDetect(t *testing.T) {
	_, ok := Detect("", "").(Unavailable)
	assert.True(t, ok, "empty command")

	_, ok = Detect("aidos-no-such-recognizer", "").(Unavailable)
	assert.True(t, ok, "missing command")

	p := Detect(writeScript(t, "echo hi"), "")
	assert.True(t, p.Available())
}

func TestListenReturnsLastLine(t *testing.T) {
	script := writeScript(t, `echo "how"
echo ""
echo "how many"
echo "how many legs does a spider have"`)
	p, err := NewCommandProvider(script, "")
	require.NoError(t, err)

	got, err := p.Listen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "how many legs does a spider have", got)
}

func TestListenPassesLanguage(t *testing.T) {
	script := writeScript(t, `echo "$DICTATION_LANG"`)

	p, err := NewCommandProvider(script, "")
	require.NoError(t, err)
	got, err := p.Listen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultLanguage, got)

	p, err = NewCommandProvider(script, "en-US")
	require.NoError(t, err)
	got, err = p.Listen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "en-US", got)
}

func TestListenErrors(t *testing.T) {
	silent, err := NewCommandProvider(writeScript(t, "exit 0"), "")
	require.NoError(t, err)
	_, err = silent.Listen(context.Background())
	assert.ErrorIs(t, err, ErrNoSpeech)

	failing, err := NewCommandProvider(writeScript(t, "echo mic busy >&2; exit 3"), "")
	require.NoError(t, err)
	_, err = failing.Listen(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mic busy")
}

func TestListenCancel(t *testing.T) {
	p, err := NewCommandProvider(writeScript(t, "exec sleep 10"), "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = p.Listen(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestListenCancelKeepsHeardText(t *testing.T) {
	p, err := NewCommandProvider(writeScript(t, "echo 'tell me'\necho 'tell me a joke'\nexec sleep 10"), "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	got, err := p.Listen(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tell me a joke", got)
}

func TestNewCommandProviderEmpty(t *testing.T) {
	_, err := NewCommandProvider("  ", "")
	assert.Error(t, err)
}
