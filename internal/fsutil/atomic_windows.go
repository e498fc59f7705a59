//go:build windows

package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// WriteFileAtomic replaces path with data so readers see either the old or
// the new content, never a partial write.
//
// renameio does not support Windows, so the temp file is moved into place
// with MoveFileEx, which replaces an existing destination in one step.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}

	from, err := windows.UTF16PtrFromString(tmpName)
	if err != nil {
		cleanup()
		return err
	}
	to, err := windows.UTF16PtrFromString(path)
	if err != nil {
		cleanup()
		return err
	}
	if err := windows.MoveFileEx(from, to, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH); err != nil {
		cleanup()
		return fmt.Errorf("cannot replace %s: %w", path, err)
	}
	return nil
}
