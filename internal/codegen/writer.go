package codegen

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/tinyrange/bfc/internal/diag"
)

// Stats counts what an emission produced.
type Stats struct {
	Instructions int
	Labels       int
	Lines        int
	Bytes        int64
}

// Writer emits assembly lines. The first sink error sticks: every later
// call is a no-op and Err/Flush report it.
type Writer struct {
	sink  *SinkWriter
	bw    *bufio.Writer
	err   error
	stats Stats
}

func NewWriter(w io.Writer) *Writer {
	sink := NewSinkWriter(w)
	return &Writer{sink: sink, bw: bufio.NewWriter(sink)}
}

func (w *Writer) line(s string) {
	if w.err != nil {
		return
	}
	if _, err := w.bw.WriteString(s); err != nil {
		w.err = err
		return
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		w.err = err
		return
	}
	w.stats.Lines++
}

// Ins writes one machine instruction.
func (w *Writer) Ins(format string, args ...any) {
	w.line("  " + fmt.Sprintf(format, args...))
	if w.err == nil {
		w.stats.Instructions++
	}
}

func (w *Writer) Label(name string) {
	w.line(name + ":")
	if w.err == nil {
		w.stats.Labels++
	}
}

// Directive writes an assembler directive at column 0.
func (w *Writer) Directive(format string, args ...any) {
	w.line(fmt.Sprintf(format, args...))
}

func (w *Writer) Comment(format string, args ...any) {
	w.line("  # " + fmt.Sprintf(format, args...))
}

func (w *Writer) Err() error { return w.err }

func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.bw.Flush()
	return w.err
}

func (w *Writer) Stats() Stats {
	s := w.stats
	s.Bytes = w.sink.Written()
	return s
}

// maxStalls bounds how often a sink may accept zero bytes without failing.
const maxStalls = 16

// SinkWriter retries short writes until everything is written. Any failure
// other than a short write is returned as a *diag.SinkWriteError.
type SinkWriter struct {
	w       io.Writer
	written int64
}

func NewSinkWriter(w io.Writer) *SinkWriter { return &SinkWriter{w: w} }

func (s *SinkWriter) Written() int64 { return s.written }

func (s *SinkWriter) Write(p []byte) (int, error) {
	total, stalls := 0, 0
	for len(p) > 0 {
		n, err := s.w.Write(p)
		if n < 0 || n > len(p) {
			return total, &diag.SinkWriteError{Written: s.written, Err: fmt.Errorf("invalid write count %d", n)}
		}
		total += n
		s.written += int64(n)
		p = p[n:]
		if err != nil && !errors.Is(err, io.ErrShortWrite) {
			return total, &diag.SinkWriteError{Written: s.written, Err: err}
		}
		if n > 0 {
			stalls = 0
			continue
		}
		stalls++
		if stalls > maxStalls {
			if err == nil {
				err = io.ErrNoProgress
			}
			return total, &diag.SinkWriteError{Written: s.written, Err: err}
		}
	}
	return total, nil
}
