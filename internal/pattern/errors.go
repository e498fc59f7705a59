package pattern

import "errors"

// Sentinel errors returned by repository and selector operations.
var (
	// ErrNotFound is returned when no pattern file exists under a name.
	ErrNotFound = errors.New("pattern not found")

	// ErrInvalidFormat is returned when a pattern body fails schema
	// validation, JSON decoding, or the regex-source invariant.
	ErrInvalidFormat = errors.New("invalid pattern format")

	// ErrMissingRegex is returned when a pattern has neither 'pattern' nor a
	// non-empty 'patterns', or has both.
	ErrMissingRegex = errors.New("pattern file must contain either a 'pattern' key or a non-empty 'patterns' key")

	// ErrAlreadyExists is returned by Save when the name is taken.
	ErrAlreadyExists = errors.New("pattern already exists")

	// ErrInvalidName is returned for names that cannot map to a single file.
	ErrInvalidName = errors.New("invalid pattern name")

	// ErrConflictingFilters is returned when a name is combined with tag or
	// author filters.
	ErrConflictingFilters = errors.New("cannot combine pattern name with --tags or --author filters; use either a specific pattern name OR filters, not both")

	// ErrNoFilterSpecified is returned when no selector was given at all.
	ErrNoFilterSpecified = errors.New("search requires a filter; provide a pattern name, --tags, or --author")

	// ErrNoMatches is returned when tag/author filtering selects nothing.
	ErrNoMatches = errors.New("no patterns found matching the specified criteria")
)
