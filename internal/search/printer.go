package search

import (
	"bytes"
	"io"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/kamusis/gfr/internal/ui"
)

// SyncWriter serializes writes to w. Each Write lands whole, so lines from
// different workers interleave but never mix.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncWriter wraps w.
func NewSyncWriter(w io.Writer) *SyncWriter {
	return &SyncWriter{w: w}
}

func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Printer renders matched lines. Each worker owns one; only the underlying
// SyncWriter is shared.
//
// With a path the format is "path:line:text", without it "line:text".
type Printer struct {
	out      *SyncWriter
	styles   ui.Styles
	withPath bool
	buf      bytes.Buffer
}

// NewPrinter returns a printer writing to out.
func NewPrinter(out *SyncWriter, styles ui.Styles, withPath bool) *Printer {
	return &Printer{out: out, styles: styles, withPath: withPath}
}

// Print writes one line. spans are [start, end) offsets into text and are
// highlighted in order; empty and overlapping spans are not highlighted.
func (p *Printer) Print(path string, lineNo int, text []byte, spans [][]int) error {
	p.buf.Reset()
	if p.withPath {
		p.buf.WriteString(p.render(p.styles.Path, path))
		p.buf.WriteByte(':')
	}
	p.buf.WriteString(p.render(p.styles.LineNo, strconv.Itoa(lineNo)))
	p.buf.WriteByte(':')

	last := 0
	for _, sp := range spans {
		start, end := sp[0], sp[1]
		if end <= start || start < last || end > len(text) {
			continue
		}
		p.buf.Write(text[last:start])
		p.buf.WriteString(p.render(p.styles.Match, string(text[start:end])))
		last = end
	}
	p.buf.Write(text[last:])
	p.buf.WriteByte('\n')

	_, err := p.out.Write(p.buf.Bytes())
	return err
}

func (p *Printer) render(st lipgloss.Style, s string) string {
	if !p.styles.Color {
		return s
	}
	return st.Render(s)
}
