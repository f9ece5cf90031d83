package settings

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
)

// SpeechPreference is the persisted "speech enabled" flag. It defaults to
// true.
type SpeechPreference struct {
	mu      sync.Mutex
	store   Store
	enabled bool
}

// NewSpeechPreference returns a preference backed by store. Call Load to read
// the persisted value.
func NewSpeechPreference(store Store) *SpeechPreference {
	return &SpeechPreference{store: store, enabled: true}
}

// Load reads the persisted flag. Unset, unparseable and unreadable values
// all count as enabled.
func (p *SpeechPreference) Load() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.enabled = true
	v, ok, err := p.store.Get(KeySpeechEnabled)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read speech preference")
		return p.enabled
	}
	if !ok {
		return p.enabled
	}
	if b, err := strconv.ParseBool(v); err == nil {
		p.enabled = b
	}
	return p.enabled
}

// Toggle flips the flag, persists it and returns the new value.
func (p *SpeechPreference) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.enabled = !p.enabled
	if err := p.store.Set(KeySpeechEnabled, strconv.FormatBool(p.enabled)); err != nil {
		log.Warn().Err(err).Msg("failed to persist speech preference")
	}
	return p.enabled
}

// Enabled reports the current value.
func (p *SpeechPreference) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}
