// Package install brings the local pattern directory up to date with a
// remote index. Entries are processed in index order and any failure aborts
// the whole pass; the manifest is written once, at the end.
package install

import (
	"errors"

	"github.com/kamusis/gfr/internal/fsutil"
)

var (
	// ErrMalformedRemoteVersion is returned when an index entry's version is
	// not a strict semantic version.
	ErrMalformedRemoteVersion = errors.New("malformed remote version")

	// ErrFetch is returned when the index or a pattern body cannot be
	// downloaded or the index cannot be decoded.
	ErrFetch = errors.New("fetch failed")

	// ErrRemoteValidation is returned when a downloaded pattern body or an
	// index entry name is not acceptable.
	ErrRemoteValidation = errors.New("remote pattern failed validation")

	// ErrLocked is returned when another process holds the repository lock.
	ErrLocked = fsutil.ErrLocked
)
