package audioplayer

import (
	"context"
	"testing"
	"time"
)

// MockPlayer implements the Player interface for testing
type MockPlayer struct {
	playFunc             func(ctx context.Context, audioData []byte) error
	cleanupFunc          func() error
	estimatedLatencyFunc func() time.Duration

	// For testing purposes
	audioData []byte
	played    bool
	cleaned   bool
}

func NewMockPlayer() *MockPlayer {
	return &MockPlayer{
		playFunc: func(ctx context.Context, audioData []byte) error {
			return nil
		},
		cleanupFunc: func() error {
			return nil
		},
		estimatedLatencyFunc: func() time.Duration {
			return 0
		},
	}
}

func (p *MockPlayer) Play(ctx context.Context, audioData []byte) error {
	p.audioData = audioData
	p.played = true
	return p.playFunc(ctx, audioData)
}

func (p *MockPlayer) Cleanup() error {
	p.cleaned = true
	return p.cleanupFunc()
}

func (p *MockPlayer) Name() string {
	return "mock"
}

func (p *MockPlayer) EstimatedLatency() time.Duration {
	return p.estimatedLatencyFunc()
}

// TestPlayerInterface tests that our implementations satisfy the Player interface
func TestPlayerInterface(t *testing.T) {
	var _ Player = (*StdinPlayer)(nil)
	var _ Player = (*FilePlayer)(nil)
	var _ Player = NewMockPlayer()

	mock := NewMockPlayer()
	var player Player = mock
	if err := player.Play(context.Background(), []byte{1, 2}); err != nil {
		t.Errorf("MockPlayer.Play() returned error: %v", err)
	}
	if !mock.played || len(mock.audioData) != 2 {
		t.Error("MockPlayer.Play() did not record the audio data")
	}
	if err := player.Cleanup(); err != nil || !mock.cleaned {
		t.Error("MockPlayer.Cleanup() did not run")
	}
}

func TestEstimateDuration(t *testing.T) {
	testCases := []struct {
		size int
		want time.Duration
	}{
		{0, 0},
		{BytesPerSecond, time.Second},
		{BytesPerSecond * 5 / 2, 2500 * time.Millisecond},
	}

	for _, tc := range testCases {
		got := EstimateDuration(make([]byte, tc.size))
		if got != tc.want {
			t.Errorf("EstimateDuration(%d bytes) = %v, want %v", tc.size, got, tc.want)
		}
	}
}
