package install

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"

	"github.com/kamusis/gfr/internal/fsutil"
	"github.com/kamusis/gfr/internal/pattern"
)

// DefaultLockTimeout is how long Reconcile waits for the repository lock.
const DefaultLockTimeout = 30 * time.Second

// Result counts what a reconciliation changed.
type Result struct {
	Added   int
	Updated int
}

// EventKind identifies a progress event.
type EventKind int

const (
	EventFetchingIndex EventKind = iota
	EventIndexFetched
	EventInstalling
	EventInstalled
)

// Event reports progress. Count is set for EventIndexFetched; Entry and
// Update for the per-entry events.
type Event struct {
	Kind   EventKind
	URL    string
	Count  int
	Entry  IndexEntry
	Update bool
}

// Observer receives progress events synchronously.
type Observer func(Event)

// Reconciler installs new and upgraded patterns from a remote index.
type Reconciler struct {
	repo        *pattern.Repository
	fetcher     Fetcher
	observer    Observer
	logger      zerolog.Logger
	lockTimeout time.Duration
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithFetcher replaces the default HTTP fetcher.
func WithFetcher(f Fetcher) Option {
	return func(r *Reconciler) { r.fetcher = f }
}

// WithObserver sets a progress observer.
func WithObserver(o Observer) Option {
	return func(r *Reconciler) { r.observer = o }
}

// WithLogger sets a custom logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// WithLockTimeout sets how long to wait for the repository lock.
func WithLockTimeout(d time.Duration) Option {
	return func(r *Reconciler) { r.lockTimeout = d }
}

// NewReconciler creates a reconciler writing into repo.
func NewReconciler(repo *pattern.Repository, opts ...Option) *Reconciler {
	r := &Reconciler{
		repo:        repo,
		fetcher:     NewHTTPFetcher(30*time.Second, "gfr"),
		logger:      zerolog.Nop(),
		lockTimeout: DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ManifestPath returns where the installed manifest lives.
func (r *Reconciler) ManifestPath() string {
	return ManifestPath(r.repo.Dir())
}

// Reconcile fetches the index at indexURL and installs every entry that is
// missing locally, has an unparseable local version, or is older locally.
// It runs sequentially under the repository lock. The first failing entry
// aborts the pass and the manifest is left untouched.
func (r *Reconciler) Reconcile(ctx context.Context, indexURL string) (Result, error) {
	var res Result

	unlock, err := fsutil.Lock(r.repo.Dir(), r.lockTimeout)
	if err != nil {
		return res, err
	}
	defer unlock()

	r.emit(Event{Kind: EventFetchingIndex, URL: indexURL})
	body, err := r.fetcher.Fetch(ctx, indexURL)
	if err != nil {
		return res, fmt.Errorf("%w: pattern index %s: %w", ErrFetch, indexURL, err)
	}
	idx, err := ParseIndex(body)
	if err != nil {
		return res, fmt.Errorf("%w: pattern index %s: %w", ErrFetch, indexURL, err)
	}
	r.emit(Event{Kind: EventIndexFetched, URL: indexURL, Count: len(idx.Patterns)})

	manifestPath := r.ManifestPath()
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return res, err
	}

	changed := false
	for _, entry := range idx.Patterns {
		remote, err := semver.StrictNewVersion(entry.Version)
		if err != nil {
			return res, fmt.Errorf("%w: '%s' for pattern '%s': %w", ErrMalformedRemoteVersion, entry.Version, entry.Name, err)
		}

		local, present := manifest[entry.Name]
		if !shouldInstall(local, present, remote) {
			r.logger.Debug().Str("pattern", entry.Name).Str("local", local).Str("remote", entry.Version).Msg("up to date")
			continue
		}

		if err := r.install(ctx, entry, present); err != nil {
			return res, err
		}
		manifest[entry.Name] = entry.Version
		changed = true
		if present {
			res.Updated++
		} else {
			res.Added++
		}
	}

	if changed {
		if err := manifest.Save(manifestPath); err != nil {
			return res, err
		}
	}
	r.logger.Info().Int("added", res.Added).Int("updated", res.Updated).Msg("reconciliation complete")
	return res, nil
}

// shouldInstall is true when the name is not installed, its recorded
// version does not parse, or the recorded version is older than remote.
func shouldInstall(local string, present bool, remote *semver.Version) bool {
	if !present {
		return true
	}
	v, err := semver.StrictNewVersion(local)
	if err != nil {
		return true
	}
	return v.LessThan(remote)
}

func (r *Reconciler) install(ctx context.Context, entry IndexEntry, update bool) error {
	if err := pattern.ValidateName(entry.Name); err != nil {
		return fmt.Errorf("%w: %w", ErrRemoteValidation, err)
	}
	r.emit(Event{Kind: EventInstalling, Entry: entry, Update: update})

	body, err := r.fetcher.Fetch(ctx, entry.URL)
	if err != nil {
		return fmt.Errorf("%w: pattern '%s' from %s: %w", ErrFetch, entry.Name, entry.URL, err)
	}
	if _, err := pattern.Parse(body); err != nil {
		return fmt.Errorf("%w: pattern '%s' from %s: %w", ErrRemoteValidation, entry.Name, entry.URL, err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, bytes.TrimSpace(body), "", "  "); err != nil {
		return fmt.Errorf("%w: pattern '%s': %w", ErrRemoteValidation, entry.Name, err)
	}
	pretty.WriteByte('\n')
	if _, err := r.repo.Put(entry.Name, pretty.Bytes()); err != nil {
		return fmt.Errorf("cannot store pattern '%s': %w", entry.Name, err)
	}

	r.logger.Debug().Str("pattern", entry.Name).Str("version", entry.Version).Bool("update", update).Msg("installed")
	r.emit(Event{Kind: EventInstalled, Entry: entry, Update: update})
	return nil
}

func (r *Reconciler) emit(e Event) {
	if r.observer != nil {
		r.observer(e)
	}
}
