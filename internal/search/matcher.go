package search

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrCompile is returned when the combined expression is not a valid regex.
var ErrCompile = errors.New("failed to compile regex")

// Matcher finds matches of a compiled expression. It is immutable; each
// worker takes its own Clone.
type Matcher interface {
	// FindAll returns the [start, end) offsets of every match in b, or nil.
	FindAll(b []byte) [][]int
	// Multiline reports whether matches may span lines, in which case
	// input is searched whole instead of line by line.
	Multiline() bool
	Clone() Matcher
	String() string
}

type regexMatcher struct {
	re        *regexp.Regexp
	expr      string
	multiline bool
}

// NewMatcher compiles expr with Go's RE2 syntax. A multiline matcher runs
// over whole buffers, so it is compiled with the m flag to keep ^ and $
// anchored at line boundaries.
func NewMatcher(expr string, multiline bool) (Matcher, error) {
	src := expr
	if multiline {
		src = "(?m)" + expr
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	return &regexMatcher{re: re, expr: expr, multiline: multiline}, nil
}

func (m *regexMatcher) FindAll(b []byte) [][]int { return m.re.FindAllIndex(b, -1) }
func (m *regexMatcher) Multiline() bool          { return m.multiline }
func (m *regexMatcher) String() string           { return m.expr }

// Clone shares the compiled program, which regexp allows across goroutines.
func (m *regexMatcher) Clone() Matcher {
	return &regexMatcher{re: m.re, expr: m.expr, multiline: m.multiline}
}
