package aidos

import (
	"errors"
	"time"

	"github.com/tmc/aidos/api"
	"github.com/tmc/aidos/audioplayer"
	"github.com/tmc/aidos/dictation"
	"github.com/tmc/aidos/settings"
)

// Option defines a functional option for configuring the Model.
type Option func(*Model) error

// WithClient sets the chat and speech backend client.
func WithClient(client *api.Client) Option {
	return func(m *Model) error {
		if client == nil {
			return errors.New("nil client")
		}
		m.client = client
		return nil
	}
}

// WithStore sets the store holding the client identity and speech
// preference. Without it state lives in memory only.
func WithStore(store settings.Store) Option {
	return func(m *Model) error {
		m.store = store
		return nil
	}
}

// WithAudioPlayer sets the player speech is played through. A nil player
// disables playback.
func WithAudioPlayer(player audioplayer.Player) Option {
	return func(m *Model) error {
		m.player = player
		return nil
	}
}

// WithDictation sets the voice input provider.
func WithDictation(p dictation.Provider) Option {
	return func(m *Model) error {
		if p == nil {
			p = dictation.Unavailable{}
		}
		m.dictation = p
		return nil
	}
}

// WithCamera sets the still camera. A nil camera hides the camera control.
func WithCamera(c Camera) Option {
	return func(m *Model) error {
		m.camera = c
		return nil
	}
}

// WithRequestTimeout bounds each chat cycle. Zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Model) error {
		if d < 0 {
			return errors.New("negative request timeout")
		}
		m.requestTimeout = d
		return nil
	}
}

// WithSpeechTimeout bounds each synthesis call. Zero disables the bound.
func WithSpeechTimeout(d time.Duration) Option {
	return func(m *Model) error {
		if d < 0 {
			return errors.New("negative speech timeout")
		}
		m.speechTimeout = d
		return nil
	}
}

// WithSingleFlight controls whether a send is rejected while another reply is
// still streaming.
func WithSingleFlight(enabled bool) Option {
	return func(m *Model) error {
		m.singleFlight = enabled
		return nil
	}
}

// WithImageOpener sets the command used to open images full size. It
// receives the image file path as its last argument.
func WithImageOpener(command string) Option {
	return func(m *Model) error {
		m.openerCommand = command
		return nil
	}
}
