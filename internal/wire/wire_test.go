package wire

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type flushRecorder struct {
	bytes.Buffer
	flushes int
}

func (f *flushRecorder) Flush() {
	f.flushes++
}

func encodeFragments(t *testing.T, fragments []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, f := range fragments {
		require.NoError(t, enc.WriteText(f))
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		fragments []string
	}{
		{"simple", []string{"Here ", "are some ", "running shoes..."}},
		{"empty fragment", []string{"a", "", "b"}},
		{"embedded newlines", []string{"line one\nline two\n", "\n\n", "tail"}},
		{"colons and tags", []string{"0:not a frame", "1:also text", "::"}},
		{"multibyte", []string{"price: 42€ ", "サイズ 26.5cm", "👟👟"}},
		{"single fragment", []string{"whole reply in one piece"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := encodeFragments(t, tc.fragments)
			dec := NewDecoder()
			require.NoError(t, dec.Feed(raw))
			require.Equal(t, strings.Join(tc.fragments, ""), dec.Text())
			require.Zero(t, dec.Buffered())
		})
	}
}

func TestRoundTripArbitrarySplits(t *testing.T) {
	fragments := []string{"Here ", "are some\n", "running shoes… 👟", "€99"}
	raw := encodeFragments(t, fragments)
	want := strings.Join(fragments, "")

	// Every chunk size from 1 byte up slices the stream at different
	// boundaries, including mid-frame and mid-codepoint.
	for size := 1; size <= len(raw); size++ {
		dec := NewDecoder()
		for off := 0; off < len(raw); off += size {
			end := off + size
			if end > len(raw) {
				end = len(raw)
			}
			require.NoError(t, dec.Feed(raw[off:end]))
		}
		require.Equal(t, want, dec.Text(), "chunk size %d", size)
	}
}

func TestDecoderIgnoresUnknownTags(t *testing.T) {
	dec := NewDecoder()
	input := "0:\"hello\"\n8:{\"finishReason\":\"stop\"}\n0:\" world\"\nnot a frame\n"
	require.NoError(t, dec.Feed([]byte(input)))
	require.Equal(t, "hello world", dec.Text())
}

func TestDecoderRejectsMalformedPayload(t *testing.T) {
	dec := NewDecoder()
	require.Error(t, dec.Feed([]byte("0:unquoted\n")))
}

func TestDecoderIncrementalText(t *testing.T) {
	dec := NewDecoder()

	require.NoError(t, dec.Feed([]byte("0:\"par")))
	require.Equal(t, "", dec.Text(), "no newline yet, nothing decoded")
	require.NotZero(t, dec.Buffered())

	require.NoError(t, dec.Feed([]byte("tial\"\n0:\" more\"\n")))
	require.Equal(t, "partial more", dec.Text())
	require.Zero(t, dec.Buffered())
}

func TestDecoderBufferedAfterTruncation(t *testing.T) {
	dec := NewDecoder()
	require.NoError(t, dec.Feed([]byte("0:\"complete\"\n0:\"cut of")))
	require.Equal(t, "complete", dec.Text())
	require.NotZero(t, dec.Buffered(), "severed frame must be visible to the consumer")
}

func TestDecoderReset(t *testing.T) {
	dec := NewDecoder()
	require.NoError(t, dec.Feed([]byte("0:\"first request\"\n0:\"dangl")))
	dec.Reset()
	require.Zero(t, dec.Buffered())
	require.Empty(t, dec.Text())

	require.NoError(t, dec.Feed([]byte("0:\"second request\"\n")))
	require.Equal(t, "second request", dec.Text())
}

func TestEncoderFlushesPerFrame(t *testing.T) {
	rec := &flushRecorder{}
	enc := NewEncoder(rec)
	require.NoError(t, enc.WriteText("a"))
	require.NoError(t, enc.WriteText("b"))
	require.Equal(t, 2, rec.flushes)
}

func TestReadAll(t *testing.T) {
	raw := encodeFragments(t, []string{"one ", "two ", "three"})
	got, err := ReadAll(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "one two three", got)
}
