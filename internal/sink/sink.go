// Package sink provides append-only line destinations for packed output.
package sink

import (
	"bufio"
	"io"
)

// Sink receives lines in final document order. Implementations keep call
// order exactly and never deduplicate.
type Sink interface {
	WriteLine(line string) error
}

// Writer appends newline-terminated lines to an io.Writer through a buffer.
// Call Flush when done.
type Writer struct {
	bw    *bufio.Writer
	count int
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 64*1024)}
}

// WriteLine writes line followed by "\n".
func (w *Writer) WriteLine(line string) error {
	if _, err := w.bw.WriteString(line); err != nil {
		return err
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return err
	}
	w.count++
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Count returns the number of lines written so far.
func (w *Writer) Count() int {
	return w.count
}

// Lines collects lines in memory.
type Lines []string

// WriteLine appends line.
func (l *Lines) WriteLine(line string) error {
	*l = append(*l, line)
	return nil
}

// Discard counts lines and drops them.
type Discard struct {
	Count int
}

// WriteLine counts line.
func (d *Discard) WriteLine(string) error {
	d.Count++
	return nil
}
