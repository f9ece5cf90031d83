package aidos

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/h2non/filetype"
	"github.com/rs/zerolog/log"
	"github.com/tmc/aidos/internal/helpers"
)

// ErrNotImage is returned for picked files whose content is not an image.
var ErrNotImage = errors.New("file is not an image")

// LoadImage reads path and returns it as an image data URI. The MIME type is
// sniffed from the content, not the file name.
func LoadImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return imageDataURI(data)
}

func imageDataURI(data []byte) (string, error) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || kind.MIME.Type != "image" {
		return "", ErrNotImage
	}
	return helpers.EncodeDataURI(kind.MIME.Value, data), nil
}

// submitText trims the input field and sends it. Empty input is ignored.
func (m *Model) submitText() tea.Cmd {
	text := strings.TrimSpace(m.textarea.Value())
	if text == "" {
		return nil
	}
	m.textarea.Reset()
	return m.inputSendCmd(text, "")
}

// submitImage sends dataURI together with any pending typed text and clears
// the input field.
func (m *Model) submitImage(dataURI string) tea.Cmd {
	text := strings.TrimSpace(m.textarea.Value())
	m.textarea.Reset()
	return m.inputSendCmd(text, dataURI)
}

// holdImage keeps a picture until the running reply ends.
func (m *Model) holdImage(dataURI string) {
	m.pendingImage = dataURI
	m.statusNote = PictureWaitingNotice
}

// sendPendingImage sends the held picture with any typed text.
func (m *Model) sendPendingImage() tea.Cmd {
	uri := m.pendingImage
	m.pendingImage = ""
	return m.submitImage(uri)
}

// handleBusy puts back a send the dispatcher rejected. Typed text returns to
// an empty input field; a picture is held and sent once input is enabled.
func (m *Model) handleBusy(msg sendDoneMsg) tea.Cmd {
	if !msg.restore {
		m.statusNote = BusyNotice
		return nil
	}
	if msg.text != "" && m.textarea.Value() == "" {
		m.textarea.SetValue(msg.text)
	}
	if msg.image == "" {
		m.statusNote = BusyNotice
		return nil
	}
	m.holdImage(msg.image)
	if !m.inputEnabled {
		return nil
	}
	// Input may already be re-enabled while the cycle winds down.
	return tea.Tick(retryDelay, func(time.Time) tea.Msg { return retryPendingMsg{} })
}

// loadImageCmd reads a picked file in the background.
func loadImageCmd(path string) tea.Cmd {
	return func() tea.Msg {
		uri, err := LoadImage(path)
		if err != nil {
			return imageErrorMsg{err: err}
		}
		return imageLoadedMsg{dataURI: uri, source: "file"}
	}
}

// captureCmd takes a picture with the camera.
func (m *Model) captureCmd() tea.Cmd {
	cam := m.camera
	ctx := m.rootCtx
	return func() tea.Msg {
		data, err := cam.Capture(ctx)
		if err != nil {
			return imageErrorMsg{err: err}
		}
		uri, err := imageDataURI(data)
		if err != nil {
			return imageErrorMsg{err: err}
		}
		return imageLoadedMsg{dataURI: uri, source: "camera"}
	}
}

// listenCmd records one dictation session.
func (m *Model) listenCmd(ctx context.Context) tea.Cmd {
	provider := m.dictation
	return func() tea.Msg {
		text, err := provider.Listen(ctx)
		return dictationResultMsg{text: strings.TrimSpace(text), err: err}
	}
}

// handleImageError shows the blocking notice for non-image files and logs
// everything else.
func (m *Model) handleImageError(err error) {
	if errors.Is(err, ErrNotImage) {
		m.notice = NotImageNotice
		return
	}
	log.Warn().Err(err).Msg("image input failed")
}

// openImageCmd writes dataURI to a temp file and opens it with the platform
// image viewer.
func (m *Model) openImageCmd(dataURI string) tea.Cmd {
	opener := m.openerCommand
	return func() tea.Msg {
		path, err := writeImageFile(dataURI)
		if err != nil {
			return imageOpenedMsg{err: err}
		}
		args := strings.Fields(opener)
		if len(args) == 0 {
			args = defaultOpener()
		}
		cmd := exec.Command(args[0], append(args[1:], path)...)
		if err := cmd.Start(); err != nil {
			return imageOpenedMsg{path: path, err: fmt.Errorf("failed to start %s: %w", args[0], err)}
		}
		go cmd.Wait()
		return imageOpenedMsg{path: path}
	}
}

func writeImageFile(dataURI string) (string, error) {
	mimeType, data, err := helpers.DecodeImageDataURI(dataURI)
	if err != nil {
		return "", err
	}
	ext := "." + strings.TrimPrefix(mimeType, "image/")
	if kind := filetype.GetType(strings.TrimPrefix(ext, ".")); kind != filetype.Unknown {
		ext = "." + kind.Extension
	}
	f, err := os.CreateTemp("", "aidos-image-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), f.Close()
}

func defaultOpener() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}
	}
	return []string{"xdg-open"}
}
