package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockFileName is the lock file created inside the pattern directory.
const LockFileName = ".gfr.lock"

// ErrLocked is returned when another gfr process holds the repository lock
// past the timeout.
var ErrLocked = errors.New("another gfr process is modifying the pattern directory")

// Lock obtains the exclusive repository lock for dir, polling until timeout.
// The returned func releases it and is always safe to call.
func Lock(dir string, timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return func() {}, fmt.Errorf("cannot create %s: %w", dir, err)
	}
	lockPath := filepath.Join(dir, LockFileName)
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire lock %s: %w", lockPath, err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("%w (lock: %s)", ErrLocked, lockPath)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
