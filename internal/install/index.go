package install

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kamusis/gfr/internal/fsutil"
	"github.com/kamusis/gfr/internal/pattern"
)

// DefaultIndexURL is the published pattern index.
const DefaultIndexURL = "https://raw.githubusercontent.com/Kr1shna4garwal/gfr-patterns/refs/heads/main/index.json"

// IndexEntry is one fetchable pattern.
type IndexEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	URL     string `json:"url"`
}

// Index is the remote list of patterns, in publication order.
type Index struct {
	Patterns []IndexEntry `json:"patterns"`
}

// ParseIndex decodes an index body.
func ParseIndex(data []byte) (*Index, error) {
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: cannot decode index: %w", pattern.ErrInvalidFormat, err)
	}
	return &idx, nil
}

// Manifest maps pattern name to installed version.
type Manifest map[string]string

// LoadManifest reads the manifest at path. A missing file is an empty
// manifest; a file that does not decode is ErrInvalidFormat.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, nil
		}
		return nil, fmt.Errorf("cannot read manifest %s: %w", path, err)
	}
	m := Manifest{}
	if len(bytes.TrimSpace(data)) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest %s: %w", pattern.ErrInvalidFormat, path, err)
	}
	if m == nil {
		m = Manifest{}
	}
	return m, nil
}

// Save writes the manifest atomically.
func (m Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode manifest: %w", err)
	}
	data = append(data, '\n')
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest %s: %w", path, err)
	}
	return nil
}
