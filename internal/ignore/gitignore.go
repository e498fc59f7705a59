// Package ignore decides which paths a tree search visits.
//
// Rule files use gitignore syntax (https://git-scm.com/docs/gitignore).
// Every directory may carry .gfrignore, .ignore and .gitignore; within one
// directory they are consulted in that order and the first file with an
// opinion wins. Deeper directories take precedence over their ancestors.
// A negated rule ("!keep.log") whitelists a path instead of ignoring it.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strings"
)

// Result is the outcome of matching a path against a rule set.
type Result int

const (
	// None means no rule mentioned the path.
	None Result = iota
	// Ignore means the path should be skipped.
	Ignore
	// Whitelist means the path should be visited even if a lower
	// precedence rule would ignore it.
	Whitelist
)

func (r Result) String() string {
	switch r {
	case Ignore:
		return "ignore"
	case Whitelist:
		return "whitelist"
	default:
		return "none"
	}
}

// Matcher is the compiled content of one rule file. Paths passed to Match
// are slash-separated and relative to the directory that holds the file.
// A Matcher is read-only after construction.
type Matcher struct {
	rules []rule
}

type rule struct {
	source   string
	regex    *regexp.Regexp
	negation bool
	dirOnly  bool
	anchored bool
}

// NewMatcher compiles the given lines. Invalid lines are skipped and
// reported together in the returned error; the matcher is usable either way.
func NewMatcher(lines ...string) (*Matcher, error) {
	m := &Matcher{}
	var errs []error
	for _, line := range lines {
		if err := m.add(line); err != nil {
			errs = append(errs, err)
		}
	}
	return m, errors.Join(errs...)
}

// ParseMatcher reads rules from r, one per line.
func ParseMatcher(r io.Reader) (*Matcher, error) {
	m := &Matcher{}
	var errs []error
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := m.add(sc.Text()); err != nil {
			errs = append(errs, err)
		}
	}
	if err := sc.Err(); err != nil {
		errs = append(errs, err)
	}
	return m, errors.Join(errs...)
}

// LoadMatcher reads a rule file. A missing file yields a nil matcher and
// no error.
func LoadMatcher(file string) (*Matcher, error) {
	f, err := os.Open(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	m, err := ParseMatcher(f)
	if err != nil {
		return m, fmt.Errorf("%s: %w", file, err)
	}
	return m, nil
}

// Len returns the number of compiled rules.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

func (m *Matcher) add(line string) error {
	// "\ " at the end keeps one trailing space.
	escapedSpace := strings.HasSuffix(line, `\ `)
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	r := rule{source: line}
	pat := line
	switch {
	case strings.HasPrefix(pat, `\#`), strings.HasPrefix(pat, `\!`):
		pat = pat[1:]
	case strings.HasPrefix(pat, "!"):
		r.negation = true
		pat = pat[1:]
	}
	if escapedSpace && strings.HasSuffix(pat, `\`) {
		pat = strings.TrimSuffix(pat, `\`) + " "
	}

	if strings.HasSuffix(pat, "/") {
		r.dirOnly = true
		pat = strings.TrimSuffix(pat, "/")
	}
	if strings.HasPrefix(pat, "/") {
		r.anchored = true
		pat = strings.TrimPrefix(pat, "/")
	}
	// A slash anywhere else also anchors: "doc/frotz" means "/doc/frotz".
	if strings.Contains(pat, "/") && !strings.HasPrefix(pat, "**/") {
		r.anchored = true
	}
	if pat == "" {
		return nil
	}

	re, err := regexp.Compile("^" + globToRegex(pat) + "$")
	if err != nil {
		return fmt.Errorf("invalid ignore rule %q: %w", line, err)
	}
	r.regex = re
	m.rules = append(m.rules, r)
	return nil
}

// Match returns the verdict of the last rule that matches rel.
func (m *Matcher) Match(rel string, isDir bool) Result {
	if m == nil {
		return None
	}
	base := path.Base(rel)
	for i := len(m.rules) - 1; i >= 0; i-- {
		r := m.rules[i]
		if r.dirOnly && !isDir {
			continue
		}
		var hit bool
		if r.anchored {
			hit = r.regex.MatchString(rel)
		} else {
			hit = r.regex.MatchString(base) || r.regex.MatchString(rel)
		}
		if !hit {
			continue
		}
		if r.negation {
			return Whitelist
		}
		return Ignore
	}
	return None
}

// globToRegex translates one gitignore glob into a regular expression body.
func globToRegex(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				atSegmentStart := i == 0 || glob[i-1] == '/'
				switch {
				case atSegmentStart && i+2 < len(glob) && glob[i+2] == '/':
					b.WriteString("(?:.*/)?")
					i += 3
					continue
				case atSegmentStart && i+2 == len(glob):
					b.WriteString(".*")
					i += 2
					continue
				}
			}
			b.WriteString("[^/]*")
			i++
		case '?':
			b.WriteString("[^/]")
			i++
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				i++
				continue
			}
			class := glob[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += end + 2
		case '\\':
			if i+1 < len(glob) {
				b.WriteString(regexp.QuoteMeta(glob[i+1 : i+2]))
				i += 2
				continue
			}
			b.WriteString(`\\`)
			i++
		default:
			b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
			i++
		}
	}
	return b.String()
}
