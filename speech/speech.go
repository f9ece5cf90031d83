// Package speech reads finalized replies aloud, keeping at most one playback
// active at a time.
package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/aidos/audioplayer"
)

// DefaultSynthesisTimeout bounds one call to the speech backend.
const DefaultSynthesisTimeout = 30 * time.Second

// Synthesizer turns text into base64 encoded audio. An empty result means no
// audio is available.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// Preference reports whether speech is enabled.
type Preference interface {
	Enabled() bool
}

// EventType identifies a playback transition.
type EventType int

const (
	// EventStarted is emitted when a playback begins.
	EventStarted EventType = iota
	// EventStopped is emitted when a playback is stopped or fails.
	EventStopped
	// EventEnded is emitted when a playback runs to completion.
	EventEnded
)

func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventEnded:
		return "ended"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event describes a playback transition. Audio is set on EventStarted; Err is
// set when a playback failed.
type Event struct {
	Type  EventType
	Audio []byte
	Err   error
}

// Option configures a Controller.
type Option func(*Controller)

// WithEventHook sets the function receiving playback events. It is called
// from playback goroutines and must not block for long.
func WithEventHook(fn func(Event)) Option {
	return func(c *Controller) { c.hook = fn }
}

// WithSynthesisTimeout bounds synthesis calls. Zero disables the bound.
func WithSynthesisTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

type playback struct {
	cancel  context.CancelFunc
	stopped bool // set by StopAll, as opposed to being superseded
}

// Controller owns the active playback.
type Controller struct {
	synth   Synthesizer
	player  audioplayer.Player
	pref    Preference
	hook    func(Event)
	timeout time.Duration

	mu     sync.Mutex
	active *playback
	wg     sync.WaitGroup
}

// New returns a Controller. A nil player disables playback; synthesis
// results are then discarded.
func New(synth Synthesizer, player audioplayer.Player, pref Preference, opts ...Option) *Controller {
	c := &Controller{
		synth:   synth,
		player:  player,
		pref:    pref,
		timeout: DefaultSynthesisTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Speak synthesizes text and plays it. Every failure is logged and dropped.
func (c *Controller) Speak(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" || !c.pref.Enabled() {
		return
	}
	if c.synth == nil {
		return
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	audio, err := c.synth.Synthesize(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("speech synthesis failed")
		return
	}
	if audio == "" {
		log.Debug().Msg("no speech audio available")
		return
	}
	if err := c.Play(audio); err != nil {
		log.Warn().Err(err).Msg("speech playback failed")
	}
}

// Play stops the active playback and starts audioBase64. It is a no-op when
// speech is disabled or the payload is empty.
func (c *Controller) Play(audioBase64 string) error {
	if audioBase64 == "" || !c.pref.Enabled() {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return fmt.Errorf("failed to decode audio: %w", err)
	}
	if c.player == nil {
		return audioplayer.ErrNoPlayer
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &playback{cancel: cancel}

	c.mu.Lock()
	if c.active != nil {
		c.active.cancel()
	}
	c.active = p
	c.wg.Add(1)
	c.mu.Unlock()

	c.emit(Event{Type: EventStarted, Audio: data})
	go c.run(ctx, p, data)
	return nil
}

func (c *Controller) run(ctx context.Context, p *playback, data []byte) {
	defer c.wg.Done()

	err := c.player.Play(ctx, data)

	c.mu.Lock()
	var ev *Event
	switch {
	case c.active == p:
		c.active = nil
		if err != nil {
			ev = &Event{Type: EventStopped, Err: err}
		} else {
			ev = &Event{Type: EventEnded}
		}
	case p.stopped:
		ev = &Event{Type: EventStopped}
	}
	p.cancel()
	c.mu.Unlock()

	if ev != nil && ev.Err != nil {
		log.Warn().Err(err).Str("player", c.player.Name()).Msg("audio playback failed")
	}
	// A superseded playback stays silent; its successor already reported
	// EventStarted.
	if ev != nil {
		c.emit(*ev)
	}
}

// StopAll cancels and releases the active playback. It does not wait for the
// player to exit.
func (c *Controller) StopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return
	}
	c.active.stopped = true
	c.active.cancel()
	c.active = nil
}

// Speaking reports whether a playback is active.
func (c *Controller) Speaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Close stops playback, waits for player processes to exit and releases the
// player.
func (c *Controller) Close() error {
	c.StopAll()
	c.wg.Wait()
	if c.player == nil {
		return nil
	}
	return c.player.Cleanup()
}

func (c *Controller) emit(ev Event) {
	log.Debug().Stringer("event", ev.Type).Msg("speech playback")
	if c.hook != nil {
		c.hook(ev)
	}
}
