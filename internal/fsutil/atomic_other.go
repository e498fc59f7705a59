//go:build !windows

package fsutil

import (
	"os"

	"github.com/google/renameio"
)

// WriteFileAtomic replaces path with data so readers see either the old or
// the new content, never a partial write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(path, data, perm)
}
