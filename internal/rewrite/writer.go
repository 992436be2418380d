package rewrite

import (
	"fmt"
	"io"
)

// Writer is a streaming front end for a Rewriter. Confirmed output is written
// to the underlying writer after every Write; bytes of an unfinished match
// are held back until the next Write or Close.
type Writer struct {
	dst    io.Writer
	rw     *Rewriter
	closed bool
}

func NewWriter(dst io.Writer) *Writer {
	return &Writer{
		dst: dst,
		rw:  New(),
	}
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	_, _ = w.rw.Write(p)
	if err := w.emit(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close flushes any pending partial match. It does not close the underlying
// writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.rw.Flush()
	return w.emit()
}

// Replacements reports how many "https://" sequences were rewritten so far.
func (w *Writer) Replacements() int {
	return w.rw.Replacements()
}

func (w *Writer) emit() error {
	out := w.rw.Drain()
	if len(out) == 0 {
		return nil
	}
	if _, err := w.dst.Write(out); err != nil {
		return fmt.Errorf("rewrite.Writer: %w", err)
	}
	return nil
}

var _ io.WriteCloser = (*Writer)(nil)
