// Package aidos is a terminal client for the AI-Dos kids' chat service. It
// streams replies into a scrolling transcript, reads them aloud and accepts
// text, image and voice input.
package aidos

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/tmc/aidos/api"
	"github.com/tmc/aidos/audioplayer"
	"github.com/tmc/aidos/chat"
	"github.com/tmc/aidos/conversation"
	"github.com/tmc/aidos/dictation"
	"github.com/tmc/aidos/settings"
	"github.com/tmc/aidos/speech"
)

// Model represents the state of the Bubble Tea application.
type Model struct {
	transcript *Transcript
	textarea   textarea.Model
	spinner    spinner.Model
	filepicker filepicker.Model

	settingsPanel     settings.Model
	activeAudioPlayer audioplayer.Model

	// Collaborators
	client     *api.Client
	store      settings.Store
	identity   *settings.Identity
	preference *settings.SpeechPreference
	player     audioplayer.Player
	speech     *speech.Controller
	dictation  dictation.Provider
	camera     Camera
	session    *conversation.Session
	dispatcher *chat.Dispatcher

	// Configuration
	requestTimeout time.Duration
	speechTimeout  time.Duration
	singleFlight   bool
	openerCommand  string

	// Channel for goroutines to send messages back to the UI loop
	uiUpdateChan chan tea.Msg
	done         chan struct{}
	closeOnce    sync.Once
	headless     atomic.Bool // no Update loop drains uiUpdateChan

	rootCtx    context.Context
	rootCancel context.CancelFunc

	width, height  int
	inputEnabled   bool
	state          chat.State
	recording      bool
	stopDictation  context.CancelFunc
	pendingImage   string // picture waiting for the running reply
	statusNote     string
	pickingFile    bool
	capturing      bool
	notice         string
	showSettings   bool
	quitting       bool
	lastOpenedPath string
}

// New creates a new Model instance with default settings and applies options.
func New(opts ...Option) *Model {
	ta := textarea.New()
	ta.Placeholder = "Ask AI-Dos something and press Enter..."
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		transcript:        NewTranscript(50, 5),
		textarea:          ta,
		spinner:           s,
		filepicker:        fp,
		settingsPanel:     settings.New(),
		activeAudioPlayer: audioplayer.New(),
		dictation:         dictation.Unavailable{},
		session:           conversation.NewSession(),
		requestTimeout:    chat.DefaultTimeout,
		speechTimeout:     speech.DefaultSynthesisTimeout,
		singleFlight:      true,
		uiUpdateChan:      make(chan tea.Msg, uiUpdateBuffer),
		done:              make(chan struct{}),
		rootCtx:           ctx,
		rootCancel:        cancel,
		inputEnabled:      true,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			log.Warn().Err(err).Msg("error applying option")
		}
	}

	if m.client == nil {
		m.client = api.NewClient("", "", "")
	}
	if m.store == nil {
		m.store = settings.NewMemoryStore()
	}
	m.identity = settings.NewIdentity(m.store)
	m.preference = settings.NewSpeechPreference(m.store)
	m.settingsPanel.ApplySpeech(m.preference.Load())

	m.speech = speech.New(m.client, m.player, m.preference,
		speech.WithSynthesisTimeout(m.speechTimeout),
		speech.WithEventHook(func(ev speech.Event) { m.post(speechEventMsg{event: ev}) }),
	)
	m.dispatcher = m.newDispatcher(tuiSurface{m: m},
		chat.WithStateHook(func(s chat.State) { m.post(chatStateMsg{state: s}) }),
	)

	m.settingsPanel.MicAvailable = m.dictation.Available()
	m.settingsPanel.CameraAvailable = m.camera != nil
	if m.player != nil {
		m.settingsPanel.PlayerName = m.player.Name()
	}
	m.settingsPanel.ChatURL = m.client.ChatURL
	m.settingsPanel.UserID = m.identity.GetOrCreateID()

	return m
}

// newDispatcher returns a dispatcher over the model's conversation that
// renders to surface.
func (m *Model) newDispatcher(surface chat.Surface, opts ...chat.Option) *chat.Dispatcher {
	base := []chat.Option{
		chat.WithIdentity(m.identity),
		chat.WithSpeaker(m.speech),
		chat.WithTimeout(m.requestTimeout),
		chat.WithSingleFlight(m.singleFlight),
	}
	return chat.New(m.session, m.client, surface, append(base, opts...)...)
}

// Init is the initial command called by Bubble Tea.
func (m *Model) Init() tea.Cmd {
	m.textarea.Focus()
	return tea.Batch(
		m.spinner.Tick,
		textarea.Blink,
		m.listenForUIUpdatesCmd(),
	)
}

// Update handles incoming messages and updates the model state.
// It acts as the main dispatcher.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case uiUpdateMsg:
		_, cmd := m.Update(msg.msg)
		return m, tea.Batch(cmd, m.listenForUIUpdatesCmd())

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 20)
		m.height = max(msg.Height, 10)
		m.settingsPanel, _ = m.settingsPanel.Update(msg)
		m.resize()
		if m.pickingFile {
			var cmd tea.Cmd
			m.filepicker, cmd = m.filepicker.Update(msg)
			cmds = append(cmds, cmd)
		}

	// --- Dispatcher messages (stream.go) ---
	case messageAddedMsg:
		m.transcript.AppendAndScroll(msg.msg)
		if msg.msg.Sender == SenderAI {
			m.activeAudioPlayer.Configure(nil, "", msg.msg.ID)
		}

	case replyTextMsg:
		m.transcript.SetText(msg.id, msg.text)

	case replyErrorMsg:
		m.transcript.SetError(msg.id, msg.message)

	case inputEnabledMsg:
		m.inputEnabled = msg.enabled
		if msg.enabled {
			m.textarea.Focus()
			if m.pendingImage != "" {
				cmds = append(cmds, m.sendPendingImage())
			}
		} else {
			m.textarea.Blur()
		}

	case chatStateMsg:
		m.state = msg.state
		if msg.state == chat.Sending {
			if m.pendingImage == "" {
				m.statusNote = ""
			}
			cmds = append(cmds, m.spinner.Tick)
		}

	case sendDoneMsg:
		// The surface already shows the outcome; only rejected sends need
		// handling here.
		if errors.Is(msg.err, chat.ErrBusy) {
			cmds = append(cmds, m.handleBusy(msg))
		}

	case retryPendingMsg:
		if m.pendingImage != "" && m.inputEnabled {
			cmds = append(cmds, m.sendPendingImage())
		}

	// --- Speech messages ---
	case speechEventMsg:
		cmds = append(cmds, m.handleSpeechEvent(msg.event))

	case audioplayer.TickMsg:
		var cmd tea.Cmd
		m.activeAudioPlayer, cmd = m.activeAudioPlayer.Update(msg)
		cmds = append(cmds, cmd)

	case audioplayer.AudioEndedMsg:
		log.Debug().Str("message", msg.MessageID).Msg("reply finished playing")

	case settings.ToggleSpeechMsg:
		m.toggleSpeech()

	// --- Input messages (input.go) ---
	case imageLoadedMsg:
		m.capturing = false
		log.Info().Str("source", msg.source).Msg("image attached")
		if !m.inputEnabled {
			m.holdImage(msg.dataURI)
			break
		}
		cmds = append(cmds, m.submitImage(msg.dataURI))

	case imageErrorMsg:
		m.capturing = false
		m.handleImageError(msg.err)

	case dictationResultMsg:
		m.recording = false
		m.stopDictation = nil
		switch {
		case msg.err != nil:
			log.Warn().Err(msg.err).Msg("dictation failed")
		case msg.text != "":
			cmds = append(cmds, m.inputSendCmd(msg.text, ""))
		}

	case imageOpenedMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("failed to open image")
		}
		m.lastOpenedPath = msg.path

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.busy() || m.recording || m.capturing {
			cmds = append(cmds, cmd)
		}

	default:
		if m.pickingFile {
			var cmd tea.Cmd
			m.filepicker, cmd = m.filepicker.Update(msg)
			cmds = append(cmds, cmd)
		}
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey routes a key press to the modal notice, the file picker, the
// settings panel or the main input, in that order.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		m.Close()
		return tea.Quit
	}

	// The notice blocks everything until dismissed.
	if m.notice != "" {
		m.notice = ""
		return nil
	}

	if m.pickingFile {
		if msg.String() == "esc" {
			m.pickingFile = false
			return nil
		}
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)
		if ok, path := m.filepicker.DidSelectFile(msg); ok {
			m.pickingFile = false
			return loadImageCmd(path)
		}
		if ok, path := m.filepicker.DidSelectDisabledFile(msg); ok {
			log.Debug().Str("path", path).Msg("disabled file selected")
		}
		return cmd
	}

	if m.showSettings && m.settingsPanel.IsFocused() {
		var cmd tea.Cmd
		m.settingsPanel, cmd = m.settingsPanel.Update(msg)
		if !m.settingsPanel.IsFocused() {
			m.showSettings = false
			m.textarea.Focus()
		}
		return cmd
	}

	switch msg.String() {
	case "ctrl+t": // Settings panel
		m.showSettings = !m.showSettings
		if m.showSettings {
			m.settingsPanel.Focus()
			m.textarea.Blur()
		} else {
			m.settingsPanel.Blur()
			m.textarea.Focus()
		}
		return nil

	case "ctrl+s": // Speech toggle
		m.toggleSpeech()
		return nil

	case "ctrl+x": // Stop speaking
		m.speech.StopAll()
		return nil

	case "ctrl+o": // Open last image
		if uri, ok := m.transcript.LastImage(); ok {
			return m.openImageCmd(uri)
		}
		return nil

	case "ctrl+g": // Riddle
		return m.sendCmd(RiddlePrompt, "")

	case "ctrl+u": // Upload
		m.pickingFile = true
		return m.filepicker.Init()

	case "ctrl+p": // Camera
		if m.camera == nil || m.capturing {
			return nil
		}
		m.capturing = true
		return tea.Batch(m.captureCmd(), m.spinner.Tick)

	case "ctrl+r": // Mic
		return m.toggleDictation()
	}

	// The input area is disabled while a reply streams.
	if !m.inputEnabled {
		return nil
	}
	if msg.String() == "enter" {
		return m.submitText()
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return cmd
}

// toggleDictation starts a recording session, or ends the running one. A
// session ended by the user still sends whatever was heard so far.
func (m *Model) toggleDictation() tea.Cmd {
	if !m.dictation.Available() {
		return nil
	}
	if m.recording {
		if m.stopDictation != nil {
			m.stopDictation()
		}
		return nil
	}
	ctx, cancel := context.WithCancel(m.rootCtx)
	m.recording = true
	m.stopDictation = cancel
	return tea.Batch(m.listenCmd(ctx), m.spinner.Tick)
}

// toggleSpeech flips and persists the speech preference. Disabling it also
// stops any playing reply.
func (m *Model) toggleSpeech() {
	enabled := m.preference.Toggle()
	m.settingsPanel.ApplySpeech(enabled)
	if !enabled {
		m.speech.StopAll()
		m.activeAudioPlayer.Stop()
	}
	log.Info().Bool("enabled", enabled).Msg("speech preference toggled")
}

func (m *Model) handleSpeechEvent(ev speech.Event) tea.Cmd {
	switch ev.Type {
	case speech.EventStarted:
		m.settingsPanel.SetSpeaking(true)
		m.activeAudioPlayer.Configure(ev.Audio, "", m.activeAudioPlayer.MessageID)
		return m.activeAudioPlayer.Play()
	case speech.EventStopped:
		m.settingsPanel.SetSpeaking(false)
		m.activeAudioPlayer.Stop()
	case speech.EventEnded:
		m.settingsPanel.SetSpeaking(false)
		return m.activeAudioPlayer.End()
	}
	return nil
}

func (m *Model) busy() bool {
	return m.state == chat.Sending || m.state == chat.Streaming
}

func (m *Model) resize() {
	width := m.width
	if m.showSettings {
		width -= m.width / 4
	}
	headerHeight := lipgloss.Height(m.headerView())
	footerHeight := lipgloss.Height(m.footerView())
	m.transcript.SetSize(width, m.height-headerHeight-footerHeight)
	m.textarea.SetWidth(width)
}

// View renders the UI.
func (m *Model) View() string {
	if m.quitting {
		return "Bye from AI-Dos!\n"
	}
	if m.width == 0 || m.height == 0 {
		m.width = 80
		m.height = 24
	}

	if m.notice != "" {
		box := noticeStyle.Render(m.notice + "\n\n" + statusStyle.Render("Press any key to continue"))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	if m.pickingFile {
		return titleStyle.Render("Pick an image") + "\n\n" + m.filepicker.View() + "\n" +
			statusStyle.Render("Enter: select | Esc: cancel")
	}

	var main strings.Builder
	main.WriteString(m.headerView())
	main.WriteString(m.transcript.View())
	main.WriteString("\n")
	main.WriteString(m.footerView())

	if m.showSettings {
		return lipgloss.JoinHorizontal(lipgloss.Top, m.settingsPanel.View(), " ", main.String())
	}
	return main.String()
}

// Transcript returns the message log.
func (m *Model) Transcript() *Transcript {
	return m.transcript
}

// Session returns the conversation history sent with each request.
func (m *Model) Session() *conversation.Session {
	return m.session
}

// Close stops background work and releases the player and the store. It
// does not wait for pending speech synthesis. It is safe to call more than
// once.
func (m *Model) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.done)
		m.rootCancel()
		err = errors.Join(m.speech.Close(), m.store.Close())
		log.Debug().Msg("cleanup finished")
	})
	return err
}
