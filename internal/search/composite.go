// Package search merges pattern records into one expression and runs it
// over a byte stream or a directory tree.
package search

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kamusis/gfr/internal/pattern"
)

// Composite is the merged form of one or more records, built per search.
type Composite struct {
	// Combined is every record's raw pattern joined with "|". No outer group
	// is added: list records are already wrapped in their own group.
	Combined   string
	IgnoreCase bool
	Multiline  bool
	// FileTypes is the sorted, lower-cased union of the records' extension
	// filters. Empty means no restriction.
	FileTypes []string
}

// Combine merges records in order. Flags are ORed and file types unioned.
func Combine(records []*pattern.Record) (*Composite, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no patterns selected", pattern.ErrMissingRegex)
	}

	lower := cases.Lower(language.Und)
	types := make(map[string]struct{})
	parts := make([]string, 0, len(records))
	c := &Composite{}
	for _, r := range records {
		raw, err := r.Raw()
		if err != nil {
			return nil, fmt.Errorf("pattern '%s': %w", r.Name, err)
		}
		parts = append(parts, raw)
		c.IgnoreCase = c.IgnoreCase || r.IgnoreCase
		c.Multiline = c.Multiline || r.Multiline
		for _, ft := range r.FileTypes {
			ft = lower.String(strings.TrimPrefix(strings.TrimSpace(ft), "."))
			if ft != "" {
				types[ft] = struct{}{}
			}
		}
	}

	c.Combined = strings.Join(parts, "|")
	for ft := range types {
		c.FileTypes = append(c.FileTypes, ft)
	}
	slices.Sort(c.FileTypes)
	return c, nil
}

// Expression returns Combined with an inline flag group in front when a
// flag is set: i for IgnoreCase, then s for Multiline.
func (c *Composite) Expression() string {
	var flags string
	if c.IgnoreCase {
		flags += "i"
	}
	if c.Multiline {
		flags += "s"
	}
	if flags == "" {
		return c.Combined
	}
	return "(?" + flags + ")" + c.Combined
}
