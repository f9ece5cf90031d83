package api

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// streamDecoder turns raw body reads into UTF-8 text, holding back an
// incomplete trailing sequence until the next read completes it. Invalid
// bytes become U+FFFD.
type streamDecoder struct {
	t       transform.Transformer
	pending []byte
	dst     []byte
}

func newStreamDecoder() *streamDecoder {
	return &streamDecoder{t: unicode.UTF8.NewDecoder()}
}

// decode consumes chunk and returns the text that is complete so far. With
// atEOF set, any held-back bytes are flushed.
func (d *streamDecoder) decode(chunk []byte, atEOF bool) (string, error) {
	src := append(d.pending, chunk...)
	if len(src) == 0 {
		return "", nil
	}

	// Each invalid byte may expand to a three byte replacement character.
	if need := 3*len(src) + utf8.UTFMax; cap(d.dst) < need {
		d.dst = make([]byte, need)
	}
	dst := d.dst[:cap(d.dst)]

	nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
	if err != nil && !errors.Is(err, transform.ErrShortSrc) {
		return "", err
	}
	d.pending = append(d.pending[:0], src[nSrc:]...)
	return string(dst[:nDst]), nil
}
