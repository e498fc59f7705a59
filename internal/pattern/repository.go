package pattern

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/kamusis/gfr/internal/fsutil"
)

// ManifestFileName is reserved for the install manifest and is never
// treated as a pattern.
const ManifestFileName = "installed.json"

const fileExt = ".json"

// Entry is one file seen by Enumerate. Exactly one of Record or Err is set.
type Entry struct {
	Name   string
	Record *Record
	Err    error
}

// Repository is a flat directory of <name>.json pattern files.
type Repository struct {
	dir string
}

// NewRepository returns a repository rooted at dir. The directory does not
// need to exist yet.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string { return r.dir }

// Path returns the file that stores name.
func (r *Repository) Path(name string) string {
	return filepath.Join(r.dir, name+fileExt)
}

// ValidateName rejects names that would escape the directory or collide
// with the file extension.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, `./\`) {
		return fmt.Errorf("%w '%s': name cannot contain '.', '/', or '\\'", ErrInvalidName, name)
	}
	return nil
}

// Enumerate lists pattern files non-recursively. Files are parsed lazily as
// the sequence is consumed; parse failures are reported per entry. A
// missing directory yields nothing.
func (r *Repository) Enumerate() (iter.Seq[Entry], error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return func(func(Entry) bool) {}, nil
		}
		return nil, fmt.Errorf("cannot read pattern directory %s: %w", r.dir, err)
	}

	return func(yield func(Entry) bool) {
		for _, de := range entries {
			if de.IsDir() {
				continue
			}
			fileName := de.Name()
			if filepath.Ext(fileName) != fileExt || fileName == ManifestFileName {
				continue
			}
			name := strings.TrimSuffix(fileName, fileExt)
			rec, err := r.Load(name)
			e := Entry{Name: name, Record: rec, Err: err}
			if err != nil {
				e.Record = nil
			}
			if !yield(e) {
				return
			}
		}
	}, nil
}

// Exists reports whether a file is stored under name.
func (r *Repository) Exists(name string) (bool, error) {
	_, err := os.Stat(r.Path(name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Load reads and validates the pattern stored under name.
func (r *Repository) Load(name string) (*Record, error) {
	path := r.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: pattern file not found: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	rec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON from %s: %w", path, err)
	}
	rec.Name = name
	return rec, nil
}

// Save stores a new record. It never overwrites: an existing file under the
// same name fails with ErrAlreadyExists.
func (r *Repository) Save(name string, rec *Record) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("cannot create pattern directory %s: %w", r.dir, err)
	}
	data, err := Marshal(rec)
	if err != nil {
		return fmt.Errorf("cannot marshal pattern %s: %w", name, err)
	}

	path := r.Path(name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: '%s'", ErrAlreadyExists, name)
		}
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// Put validates raw and stores it under name, replacing any existing file.
// This is the install path; user saves go through Save.
func (r *Repository) Put(name string, raw []byte) (*Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	rec, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	rec.Name = name
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create pattern directory %s: %w", r.dir, err)
	}
	if err := fsutil.WriteFileAtomic(r.Path(name), raw, 0o644); err != nil {
		return nil, fmt.Errorf("cannot write %s: %w", r.Path(name), err)
	}
	return rec, nil
}
