package install

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/kamusis/gfr/internal/fsutil"
	"github.com/kamusis/gfr/internal/pattern"
)

// ManifestPath returns the manifest location inside a pattern directory.
func ManifestPath(dir string) string {
	return filepath.Join(dir, pattern.ManifestFileName)
}

// Stale returns, sorted, the manifest names whose pattern file no longer
// exists in repo.
func Stale(repo *pattern.Repository, m Manifest) ([]string, error) {
	var out []string
	for name := range m {
		ok, err := repo.Exists(name)
		if err != nil {
			return nil, err
		}
		if !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Prune removes stale entries from the manifest under the repository lock,
// so the next reconciliation installs those patterns again. It returns the
// removed names. The manifest is rewritten only if something was removed.
func Prune(repo *pattern.Repository, lockTimeout time.Duration) ([]string, error) {
	unlock, err := fsutil.Lock(repo.Dir(), lockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	path := ManifestPath(repo.Dir())
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	stale, err := Stale(repo, m)
	if err != nil || len(stale) == 0 {
		return nil, err
	}
	for _, name := range stale {
		delete(m, name)
	}
	if err := m.Save(path); err != nil {
		return nil, err
	}
	return stale, nil
}
