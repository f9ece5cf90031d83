package audioplayer

import (
	"context"
	"time"
)

// Player is the interface for audio playback implementations.
type Player interface {
	// Play takes MP3 audio data and plays it, blocking until playback is
	// complete or an error occurs. Cancelling ctx stops playback.
	Play(ctx context.Context, audioData []byte) error

	// Cleanup performs any necessary resource cleanup for the player.
	Cleanup() error

	// Name is the external command backing the player.
	Name() string

	// EstimatedLatency returns an estimate of the player's startup latency.
	EstimatedLatency() time.Duration
}

// BytesPerSecond is the data rate of the speech backend's
// 16kHz 32kbit/s mono MP3 output.
const BytesPerSecond = 4000

// EstimateDuration returns the approximate play time of speech audio.
func EstimateDuration(audioData []byte) time.Duration {
	return time.Duration(len(audioData)) * time.Second / BytesPerSecond
}
