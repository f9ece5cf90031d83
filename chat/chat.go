// Package chat runs request/response cycles against the chat backend: it
// records the user turn, streams the reply into the transcript, finalizes the
// model turn and hands the text to speech.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/aidos/api"
	"github.com/tmc/aidos/conversation"
	"github.com/tmc/aidos/internal/helpers"
)

// DefaultTimeout bounds one chat cycle.
const DefaultTimeout = 2 * time.Minute

// FallbackReply is shown and recorded when the backend sends an empty reply.
const FallbackReply = "Hmm... looks like I don't know what to say."

// ErrBusy is returned by Send while another cycle is in flight.
var ErrBusy = errors.New("chat: a message is already being answered")

// State is the phase of one request cycle.
type State int

const (
	Idle State = iota
	Sending
	Streaming
	Finalized
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Streaming:
		return "streaming"
	case Finalized:
		return "finalized"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Streamer opens a streamed chat call.
type Streamer interface {
	ChatStream(ctx context.Context, req *api.ChatRequest) (<-chan string, <-chan error)
}

// Speaker reads finalized replies aloud.
type Speaker interface {
	Speak(ctx context.Context, text string)
	StopAll()
}

// Identity supplies the client identifier sent with each call.
type Identity interface {
	GetOrCreateID() string
}

// Surface is the transcript and input area the dispatcher drives.
type Surface interface {
	// ShowUser renders the user's turn.
	ShowUser(text, imageDataURI string)
	// BeginReply renders a placeholder AI message with a thinking indicator.
	BeginReply() Reply
	SetInputEnabled(enabled bool)
}

// Reply is a live handle on a placeholder AI message. Each call replaces the
// displayed text and rescrolls the transcript; the first call clears the
// thinking indicator.
type Reply interface {
	SetText(text string)
	SetError(message string)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithIdentity sets the client identity sent as userId.
func WithIdentity(id Identity) Option {
	return func(d *Dispatcher) { d.identity = id }
}

// WithSpeaker sets where finalized replies are spoken.
func WithSpeaker(s Speaker) Option {
	return func(d *Dispatcher) { d.speaker = s }
}

// WithTimeout bounds each cycle. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

// WithSingleFlight controls whether overlapping sends are rejected with
// ErrBusy (the default) or run as independent cycles.
func WithSingleFlight(enabled bool) Option {
	return func(d *Dispatcher) { d.singleFlight = enabled }
}

// WithStateHook registers fn to observe state transitions.
func WithStateHook(fn func(State)) Option {
	return func(d *Dispatcher) { d.stateHook = fn }
}

// Dispatcher orchestrates chat cycles for one conversation.
type Dispatcher struct {
	session  *conversation.Session
	streamer Streamer
	surface  Surface

	identity     Identity
	speaker      Speaker
	timeout      time.Duration
	singleFlight bool
	stateHook    func(State)

	userIDOnce sync.Once
	userID     string

	inFlight atomic.Bool
	speechWG sync.WaitGroup
}

// New returns a Dispatcher.
func New(session *conversation.Session, streamer Streamer, surface Surface, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		session:      session,
		streamer:     streamer,
		surface:      surface,
		timeout:      DefaultTimeout,
		singleFlight: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send runs one cycle for the given text and image data URI. It is a no-op
// when both are empty. A failed cycle is rolled back and its error returned
// after the surface shows it.
func (d *Dispatcher) Send(ctx context.Context, text, imageDataURI string) error {
	if text == "" && imageDataURI == "" {
		return nil
	}
	if text == "" {
		if _, _, err := helpers.ParseImageDataURI(imageDataURI); err != nil {
			return err
		}
	}
	if d.singleFlight {
		if !d.inFlight.CompareAndSwap(false, true) {
			return ErrBusy
		}
		defer d.inFlight.Store(false)
	}

	d.setState(Sending)
	d.surface.ShowUser(text, imageDataURI)
	d.session.AddUserTurn(text, imageDataURI)
	d.surface.SetInputEnabled(false)
	defer d.surface.SetInputEnabled(true)
	if d.speaker != nil {
		d.speaker.StopAll()
	}
	reply := d.surface.BeginReply()

	cycleCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		cycleCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req := &api.ChatRequest{History: d.session.Turns(), UserID: d.clientID()}
	chunks, errs := d.streamer.ChatStream(cycleCtx, req)

	var full strings.Builder
	streaming := false
	for chunk := range chunks {
		if chunk == "" {
			continue
		}
		if !streaming {
			streaming = true
			d.setState(Streaming)
		}
		full.WriteString(chunk)
		reply.SetText(full.String())
	}
	if err := <-errs; err != nil {
		d.fail(reply, err)
		return fmt.Errorf("chat request failed: %w", err)
	}
	if !streaming {
		d.setState(Streaming)
	}

	text = full.String()
	if text == "" {
		text = FallbackReply
		reply.SetText(text)
	}
	d.session.AddModelTurn(text)
	d.setState(Finalized)
	log.Debug().Int("turns", d.session.Len()).Int("reply_bytes", len(text)).Msg("chat cycle finalized")

	d.speak(ctx, text)
	return nil
}

// Wait blocks until every spawned speech task has returned.
func (d *Dispatcher) Wait() {
	d.speechWG.Wait()
}

func (d *Dispatcher) fail(reply Reply, err error) {
	log.Warn().Err(err).Msg("chat cycle failed")
	reply.SetError(FailureText(err))
	d.session.RetractLastUserTurn()
	d.setState(Failed)
}

// speak runs speech detached from the cycle so that neither its duration nor
// its failures reach the chat state.
func (d *Dispatcher) speak(ctx context.Context, text string) {
	if d.speaker == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	d.speechWG.Add(1)
	go func() {
		defer d.speechWG.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("speech task panicked")
			}
		}()
		d.speaker.Speak(ctx, text)
	}()
}

func (d *Dispatcher) clientID() string {
	d.userIDOnce.Do(func() {
		if d.identity != nil {
			d.userID = d.identity.GetOrCreateID()
		}
	})
	return d.userID
}

func (d *Dispatcher) setState(s State) {
	if d.stateHook != nil {
		d.stateHook(s)
	}
}

// FailureText is the inline message shown when a cycle fails.
func FailureText(err error) string {
	reason := err.Error()
	var statusErr *api.StatusError
	switch {
	case errors.As(err, &statusErr):
		reason = statusErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timed out"
	}
	return fmt.Sprintf("Oops, AI-Dos lost connection (%s)", reason)
}
