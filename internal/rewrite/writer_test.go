package rewrite

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterHoldsBackPartialMatch(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	_, err := w.Write([]byte("go to https:/"))
	require.NoError(t, err)
	assert.Equal(t, "go to ", buf.String())

	_, err = w.Write([]byte("/example.com or http"))
	require.NoError(t, err)
	assert.Equal(t, "go to http://example.com or ", buf.String())

	require.NoError(t, w.Close())
	assert.Equal(t, "go to http://example.com or http", buf.String())
	assert.Equal(t, 1, w.Replacements())
}

func TestWriterClose(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err := w.Write([]byte("x"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

type failingWriter struct{}

var errBroken = errors.New("broken")

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errBroken
}

func TestWriterPropagatesErrors(t *testing.T) {
	w := NewWriter(failingWriter{})

	_, err := w.Write([]byte("abc"))
	assert.ErrorIs(t, err, errBroken)
}

func TestWriterCopy(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	in := bytes.Repeat([]byte("see https://example.com/ "), 1000)
	_, err := io.Copy(w, bytes.NewReader(in))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	want := bytes.Repeat([]byte("see http://example.com/ "), 1000)
	assert.Equal(t, want, buf.Bytes())
	assert.Equal(t, 1000, w.Replacements())
}
