package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLock_ExclusiveWithinTimeout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gfr")

	unlock, err := Lock(dir, time.Second)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, LockFileName)); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}

	_, err = Lock(dir, 150*time.Millisecond)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	unlock()
	unlock2, err := Lock(dir, time.Second)
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	unlock2()
}

func TestWriteFileAtomic_Replaces(t *testing.T) {
	p := filepath.Join(t.TempDir(), "installed.json")
	if err := WriteFileAtomic(p, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(p, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "new" {
		t.Fatalf("got %q", b)
	}
}
