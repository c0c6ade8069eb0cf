// Package wire implements the line-oriented framing used to stream an
// assistant reply over a single response body.
//
// Each frame is one line: a single-character type tag, a colon, the payload,
// and a terminating newline. Tag '0' carries one text fragment, JSON-quoted
// so fragments containing newlines, colons, or any UTF-8 sequence survive
// the line framing byte-exactly:
//
//	0:"Here are some "
//	0:"running shoes..."
//
// Other tags are reserved for future control frames; a decoder that does not
// recognize a tag skips the line instead of failing. End of transport is end
// of reply; there is no terminator frame.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// TagText marks a plain-text content fragment.
const TagText = '0'

// flusher matches http.Flusher without pulling net/http into the codec.
type flusher interface {
	Flush()
}

// Encoder serializes text fragments onto a byte stream in generation order.
// If the underlying writer supports flushing, every frame is flushed so the
// client can render fragments before generation finishes.
type Encoder struct {
	w io.Writer
	f flusher
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	e := &Encoder{w: w}
	if f, ok := w.(flusher); ok {
		e.f = f
	}
	return e
}

// WriteText emits one tag-0 frame carrying the fragment.
func (e *Encoder) WriteText(fragment string) error {
	payload, err := json.Marshal(fragment)
	if err != nil {
		return fmt.Errorf("encode fragment: %w", err)
	}
	if _, err := fmt.Fprintf(e.w, "%c:%s\n", TagText, payload); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if e.f != nil {
		e.f.Flush()
	}
	return nil
}

// Decoder is a restartable streaming state machine. Feed it raw transport
// chunks in arrival order; it buffers until a newline, decodes each complete
// line as one frame, and accumulates tag-0 payloads. Chunks may split lines
// anywhere, including mid-UTF-8-codepoint, because buffering happens at the
// byte level.
type Decoder struct {
	buf  bytes.Buffer
	text strings.Builder
}

// NewDecoder creates an empty decoder. One decoder serves exactly one
// response; use Reset (or a fresh decoder) for the next request.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes one transport chunk and decodes any lines it completes.
func (d *Decoder) Feed(p []byte) error {
	d.buf.Write(p)
	for {
		raw := d.buf.Bytes()
		i := bytes.IndexByte(raw, '\n')
		if i < 0 {
			return nil
		}
		line := make([]byte, i)
		copy(line, raw[:i])
		d.buf.Next(i + 1)
		if err := d.decodeLine(line); err != nil {
			return err
		}
	}
}

func (d *Decoder) decodeLine(line []byte) error {
	if len(line) < 2 || line[1] != ':' {
		// Not a tagged frame; skip.
		return nil
	}
	if line[0] != TagText {
		// Reserved tag; ignore rather than fail.
		return nil
	}
	var fragment string
	if err := json.Unmarshal(line[2:], &fragment); err != nil {
		return fmt.Errorf("decode fragment payload: %w", err)
	}
	d.text.WriteString(fragment)
	return nil
}

// Text returns the reply reconstructed so far: the ordered concatenation of
// every tag-0 payload decoded to this point.
func (d *Decoder) Text() string {
	return d.text.String()
}

// Buffered reports how many bytes are held waiting for a newline. Non-zero
// at end of transport means the stream was cut mid-frame.
func (d *Decoder) Buffered() int {
	return d.buf.Len()
}

// Reset clears all state so the decoder can serve a new response.
func (d *Decoder) Reset() {
	d.buf.Reset()
	d.text.Reset()
}

// ReadAll drains r through a fresh decoder and returns the reconstructed
// text. Transport errors surface as-is so callers treat a severed stream as
// failure, not as a short reply.
func ReadAll(r io.Reader) (string, error) {
	d := NewDecoder()
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if ferr := d.Feed(chunk[:n]); ferr != nil {
				return "", ferr
			}
		}
		if err == io.EOF {
			return d.Text(), nil
		}
		if err != nil {
			return "", err
		}
	}
}
