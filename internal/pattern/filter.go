package pattern

import (
	"fmt"
	"sort"
)

// Selector picks records either by exact name or by tag/author filters.
// Tags and Author are nil/empty when not given.
type Selector struct {
	Name   string
	Tags   []string
	Author string
}

func (s Selector) hasFilters() bool {
	return len(s.Tags) > 0 || s.Author != ""
}

// Select resolves a selector against the repository.
//
// A name resolves to exactly that record. Otherwise a record is kept when
// its author equals Author exactly (if given) and every requested tag is
// among its tags (if given). Files that fail to parse are skipped here;
// they only surface in a plain listing.
func Select(repo *Repository, sel Selector) ([]*Record, error) {
	if sel.Name != "" {
		if sel.hasFilters() {
			return nil, ErrConflictingFilters
		}
		rec, err := repo.Load(sel.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to load pattern '%s'; try 'gfr list' to see available patterns: %w", sel.Name, err)
		}
		return []*Record{rec}, nil
	}
	if !sel.hasFilters() {
		return nil, ErrNoFilterSpecified
	}

	entries, err := repo.Enumerate()
	if err != nil {
		return nil, err
	}
	var out []*Record
	for e := range entries {
		if e.Err != nil {
			continue
		}
		if sel.matches(e.Record) {
			out = append(out, e.Record)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoMatches
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s Selector) matches(r *Record) bool {
	if s.Author != "" && r.Author != s.Author {
		return false
	}
	if len(s.Tags) > 0 && !r.HasTags(s.Tags) {
		return false
	}
	return true
}
