package helpers

import (
	"encoding/base64"
	"errors"
	"os"
	"regexp"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// --- Audio Tracing ---
var audioTraceEnabled int32 // Use atomic for safe check across goroutines

func init() {
	if os.Getenv("AIDOS_AUDIO_TRACE") == "1" {
		atomic.StoreInt32(&audioTraceEnabled, 1)
		log.Debug().Msg("detailed audio pipeline tracing enabled (AIDOS_AUDIO_TRACE=1)")
	}
}

// IsAudioTraceEnabled checks if detailed audio tracing is enabled via environment variable.
func IsAudioTraceEnabled() bool {
	return atomic.LoadInt32(&audioTraceEnabled) == 1
}

// --- Data URIs ---

// ErrInvalidDataURI is returned when a string is not a base64 image data URI.
var ErrInvalidDataURI = errors.New("not a base64 image data URI")

var imageDataURIPattern = regexp.MustCompile(`^data:(image/[\w.+-]+);base64,(.*)$`)

// EncodeDataURI builds a base64 data URI for the given MIME type and payload.
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseImageDataURI splits an image data URI into its MIME type and base64 payload.
// The payload is returned still encoded, which is the form the chat backend expects.
func ParseImageDataURI(uri string) (mimeType, base64Data string, err error) {
	match := imageDataURIPattern.FindStringSubmatch(uri)
	if match == nil {
		return "", "", ErrInvalidDataURI
	}
	return match[1], match[2], nil
}

// DecodeImageDataURI returns the MIME type and raw bytes of an image data URI.
func DecodeImageDataURI(uri string) (string, []byte, error) {
	mimeType, payload, err := ParseImageDataURI(uri)
	if err != nil {
		return "", nil, err
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return mimeType, data, nil
}
