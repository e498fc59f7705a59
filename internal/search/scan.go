package search

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
)

const readBufferSize = 64 * 1024

// scanner runs one matcher over one input at a time. Workers never share
// a scanner.
type scanner struct {
	m            Matcher
	p            *Printer
	detectBinary bool

	br   *bufio.Reader
	line []byte
}

func newScanner(m Matcher, p *Printer, detectBinary bool) *scanner {
	return &scanner{
		m:            m,
		p:            p,
		detectBinary: detectBinary,
		br:           bufio.NewReaderSize(nil, readBufferSize),
	}
}

// scan reports every matching line of r and returns how many lines
// matched. With binary detection on, scanning stops before the first line
// that holds a NUL byte.
func (s *scanner) scan(ctx context.Context, path string, r io.Reader) (int, error) {
	if s.m.Multiline() {
		return s.scanWhole(path, r)
	}

	s.br.Reset(r)
	matched, lineNo := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return matched, err
		}
		line, err := s.readLine()
		if len(line) > 0 {
			lineNo++
			if s.detectBinary && bytes.IndexByte(line, 0) >= 0 {
				return matched, nil
			}
			text := bytes.TrimSuffix(line, []byte{'\n'})
			if spans := s.m.FindAll(text); spans != nil {
				matched++
				if perr := s.p.Print(path, lineNo, text, spans); perr != nil {
					return matched, perr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return matched, nil
		}
		if err != nil {
			return matched, err
		}
	}
}

// readLine returns the next line including its newline. Lines longer than
// the reader buffer are accumulated. The returned slice is reused.
func (s *scanner) readLine() ([]byte, error) {
	s.line = s.line[:0]
	for {
		chunk, err := s.br.ReadSlice('\n')
		s.line = append(s.line, chunk...)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return s.line, err
	}
}

// scanWhole searches r as one buffer and prints every line a match spans.
func (s *scanner) scanWhole(path string, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if s.detectBinary {
		if i := bytes.IndexByte(data, 0); i >= 0 {
			data = data[:bytes.LastIndexByte(data[:i], '\n')+1]
		}
	}

	spans := s.m.FindAll(data)
	matched, lineNo, pos := 0, 1, 0
	for i := 0; i < len(spans); {
		// move to the line holding this match
		for {
			nl := bytes.IndexByte(data[pos:], '\n')
			if nl < 0 || pos+nl >= spans[i][0] {
				break
			}
			pos += nl + 1
			lineNo++
		}

		// extend the block over every match that starts inside it
		end := lineEnd(data, lastByte(spans[i]))
		j := i + 1
		for j < len(spans) && spans[j][0] < end {
			end = max(end, lineEnd(data, lastByte(spans[j])))
			j++
		}

		for ls := pos; ls < end; {
			le := lineEnd(data, ls)
			text := bytes.TrimSuffix(data[ls:le], []byte{'\n'})
			matched++
			if err := s.p.Print(path, lineNo, text, clip(spans[i:j], ls, ls+len(text))); err != nil {
				return matched, err
			}
			ls = le
			lineNo++
		}
		pos = end
		i = j
	}
	return matched, nil
}

// lineEnd returns the offset just past the newline of the line holding off.
func lineEnd(data []byte, off int) int {
	if off >= len(data) {
		return len(data)
	}
	if i := bytes.IndexByte(data[off:], '\n'); i >= 0 {
		return off + i + 1
	}
	return len(data)
}

func lastByte(span []int) int {
	return max(span[0], span[1]-1)
}

// clip maps spans onto the line [from, to) and drops the parts outside it.
func clip(spans [][]int, from, to int) [][]int {
	var out [][]int
	for _, sp := range spans {
		a, b := max(sp[0], from), min(sp[1], to)
		if a < b {
			out = append(out, []int{a - from, b - from})
		}
	}
	return out
}
