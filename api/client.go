package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/tmc/aidos/conversation"
)

// Default endpoints of the hosted AI-Dos backend.
const (
	DefaultBaseURL   = "https://ai-dos.onrender.com"
	DefaultChatURL   = DefaultBaseURL + "/api/chat"
	DefaultSpeechURL = DefaultBaseURL + "/api/speech"
	DefaultHealthURL = DefaultBaseURL + "/api/health"
)

// readBufferSize is the size of one raw read from the chat response body.
const readBufferSize = 4096

// Client talks to the chat, speech and health endpoints.
type Client struct {
	ChatURL   string
	SpeechURL string
	HealthURL string

	httpTransport http.RoundTripper // Custom HTTP transport for testing
	httpClient    *http.Client
}

// NewClient returns a client for the given endpoints. Empty URLs fall back to
// the hosted defaults.
func NewClient(chatURL, speechURL, healthURL string) *Client {
	c := &Client{ChatURL: chatURL, SpeechURL: speechURL, HealthURL: healthURL}
	if c.ChatURL == "" {
		c.ChatURL = DefaultChatURL
	}
	if c.SpeechURL == "" {
		c.SpeechURL = DefaultSpeechURL
	}
	if c.HealthURL == "" {
		c.HealthURL = DefaultHealthURL
	}
	return c
}

// SetHTTPTransport sets a custom HTTP transport for testing purposes.
func (c *Client) SetHTTPTransport(transport http.RoundTripper) {
	c.httpTransport = transport
	c.httpClient = nil
}

func (c *Client) client() *http.Client {
	if c.httpClient == nil {
		transport := c.httpTransport
		if transport == nil {
			transport = http.DefaultTransport
		}
		c.httpClient = &http.Client{Transport: transport}
	}
	return c.httpClient
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error %d", e.StatusCode)
}

// ChatRequest is the body of a chat call.
type ChatRequest struct {
	History []conversation.Turn `json:"history"`
	UserID  string              `json:"userId"`
}

// SpeechRequest is the body of a speech call.
type SpeechRequest struct {
	Text string `json:"text"`
}

// SpeechResponse is the body returned by the speech endpoint. An empty
// AudioBase64 means no audio is available.
type SpeechResponse struct {
	AudioBase64 string `json:"audio_base64,omitempty"`
	Success     bool   `json:"success,omitempty"`
	Error       string `json:"error,omitempty"`
}

// HealthStatus is the body returned by the health endpoint.
type HealthStatus struct {
	Status                string `json:"status"`
	GeminiConfigured      bool   `json:"gemini_configured"`
	AzureSpeechConfigured bool   `json:"azure_speech_configured"`
	RedisConfigured       bool   `json:"redis_configured"`
}

func (c *Client) postJSON(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}

// ChatStream posts the conversation and streams the decoded reply text.
// Every value on the chunk channel is a non-empty piece of text; multi-byte
// characters split across reads are carried over to the next chunk. The chunk
// channel is closed when the stream ends; a failure is delivered on the error
// channel before that.
func (c *Client) ChatStream(ctx context.Context, req *ChatRequest) (<-chan string, <-chan error) {
	chunkChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		defer close(chunkChan)
		defer close(errChan)

		resp, err := c.postJSON(ctx, c.ChatURL, req)
		if err != nil {
			errChan <- err
			return
		}
		defer resp.Body.Close()

		dec := newStreamDecoder()
		buf := make([]byte, readBufferSize)
		emit := func(text string) bool {
			if text == "" {
				return true
			}
			select {
			case chunkChan <- text:
				return true
			case <-ctx.Done():
				errChan <- ctx.Err()
				return false
			}
		}

		for {
			n, readErr := resp.Body.Read(buf)
			if n > 0 {
				text, err := dec.decode(buf[:n], false)
				if err != nil {
					errChan <- fmt.Errorf("failed to decode response: %w", err)
					return
				}
				if !emit(text) {
					return
				}
			}

			if readErr != nil {
				if readErr == io.EOF {
					break
				}
				errChan <- fmt.Errorf("failed to read response: %w", readErr)
				return
			}
		}

		tail, err := dec.decode(nil, true)
		if err != nil {
			errChan <- fmt.Errorf("failed to decode response: %w", err)
			return
		}
		emit(tail)
	}()

	return chunkChan, errChan
}

// Synthesize requests speech audio for text and returns it base64 encoded.
// An empty result with a nil error means the backend had no audio.
func (c *Client) Synthesize(ctx context.Context, text string) (string, error) {
	resp, err := c.postJSON(ctx, c.SpeechURL, SpeechRequest{Text: text})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var speechResp SpeechResponse
	if err := json.NewDecoder(resp.Body).Decode(&speechResp); err != nil {
		return "", fmt.Errorf("failed to decode speech response: %w", err)
	}
	if speechResp.AudioBase64 == "" {
		log.Debug().Str("error", speechResp.Error).Msg("speech backend returned no audio")
	}
	return speechResp.AudioBase64, nil
}

// Health queries the backend health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.HealthURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &status, nil
}
