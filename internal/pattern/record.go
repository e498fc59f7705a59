// Package pattern stores named regex search patterns as JSON files in a
// directory and selects them by name or by tag/author filters.
package pattern

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// DefaultVersion is assigned to records whose file omits "version".
const DefaultVersion = "1.0.0"

// DefaultSchemaURL is written into the "$schema" field of saved records.
const DefaultSchemaURL = "https://raw.githubusercontent.com/Kr1shna4garwal/gfr-patterns/refs/heads/main/schemas/pattern.schema.json"

// Record is one pattern file.
//
// Exactly one of Pattern or a non-empty Patterns must be set; Validate
// enforces this and Parse refuses bodies that violate it.
type Record struct {
	// Name comes from the file stem and is never serialized.
	Name string `json:"-"`

	Schema      string   `json:"$schema,omitempty"`
	Version     string   `json:"version"`
	Author      string   `json:"author,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Pattern     *string  `json:"pattern,omitempty"`
	Patterns    []string `json:"patterns,omitempty"`
	FileTypes   []string `json:"file_types,omitempty"`
	IgnoreCase  bool     `json:"ignore_case"`
	Multiline   bool     `json:"multiline"`
}

// Raw returns the record's regex source as one expression. A single pattern
// is returned verbatim; a list is wrapped as a non-capturing alternation.
// An empty single pattern counts as missing.
func (r *Record) Raw() (string, error) {
	switch {
	case r.Pattern != nil && *r.Pattern != "" && r.Patterns == nil:
		return *r.Pattern, nil
	case r.Pattern == nil && len(r.Patterns) > 0:
		return "(?:" + strings.Join(r.Patterns, "|") + ")", nil
	default:
		return "", ErrMissingRegex
	}
}

// Validate checks the exactly-one-regex-source invariant.
func (r *Record) Validate() error {
	_, err := r.Raw()
	return err
}

// HasTags reports whether every tag in want is present on the record.
// An empty want matches any record.
func (r *Record) HasTags(want []string) bool {
	for _, t := range want {
		if !slices.Contains(r.Tags, t) {
			return false
		}
	}
	return true
}

// Parse decodes and validates a pattern body. The returned record has no
// Name; callers assign it from the storage key.
func Parse(data []byte) (*Record, error) {
	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrInvalidFormat)
	}

	if rec.Version == "" {
		rec.Version = DefaultVersion
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return &rec, nil
}

// Marshal renders a record the way it is stored on disk.
func Marshal(r *Record) ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
