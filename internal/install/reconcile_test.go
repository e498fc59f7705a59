package install

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/gfr/internal/fsutil"
	"github.com/kamusis/gfr/internal/pattern"
)

// patternServer serves an index and pattern bodies and records every path
// requested.
type patternServer struct {
	*httptest.Server

	mu     sync.Mutex
	hits   []string
	index  []IndexEntry
	bodies map[string]string
}

func newPatternServer(t *testing.T) *patternServer {
	t.Helper()
	s := &patternServer{bodies: map[string]string{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits = append(s.hits, r.URL.Path)
		s.mu.Unlock()

		if r.URL.Path == "/index.json" {
			_ = json.NewEncoder(w).Encode(Index{Patterns: s.index})
			return
		}
		body, ok := s.bodies[r.URL.Path]
		if !ok {
			http.Error(w, "no such pattern", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *patternServer) add(name, version, body string) {
	p := "/patterns/" + name + ".json"
	s.index = append(s.index, IndexEntry{Name: name, Version: version, URL: s.URL + p})
	s.bodies[p] = body
}

func (s *patternServer) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.hits...)
}

func (s *patternServer) indexURL() string { return s.URL + "/index.json" }

func newTestReconciler(dir string, opts ...Option) *Reconciler {
	repo := pattern.NewRepository(dir)
	base := []Option{WithFetcher(NewHTTPFetcher(5*time.Second, "gfr-test")), WithLockTimeout(time.Second)}
	return NewReconciler(repo, append(base, opts...)...)
}

func writeManifest(t *testing.T, dir string, m Manifest) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, m.Save(filepath.Join(dir, pattern.ManifestFileName)))
}

func readManifest(t *testing.T, dir string) Manifest {
	t.Helper()
	m, err := LoadManifest(filepath.Join(dir, pattern.ManifestFileName))
	require.NoError(t, err)
	return m
}

func TestReconcile_AddsWhenManifestAbsent(t *testing.T) {
	srv := newPatternServer(t)
	srv.add("x", "2.0.0", `{"pattern":"abc","tags":["web"]}`)
	dir := filepath.Join(t.TempDir(), "gfr")

	var events []EventKind
	r := newTestReconciler(dir, WithObserver(func(e Event) { events = append(events, e.Kind) }))
	res, err := r.Reconcile(context.Background(), srv.indexURL())
	require.NoError(t, err)

	assert.Equal(t, Result{Added: 1}, res)
	assert.Equal(t, Manifest{"x": "2.0.0"}, readManifest(t, dir))
	assert.Equal(t, []EventKind{EventFetchingIndex, EventIndexFetched, EventInstalling, EventInstalled}, events)

	rec, err := pattern.NewRepository(dir).Load("x")
	require.NoError(t, err)
	assert.Equal(t, "abc", *rec.Pattern)

	raw, err := os.ReadFile(filepath.Join(dir, "x.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(raw), "}\n"))
	assert.Contains(t, string(raw), "\n  \"pattern\": \"abc\"")
}

func TestReconcile_EqualVersionDoesNotFetch(t *testing.T) {
	srv := newPatternServer(t)
	srv.add("x", "1.0.0", `{"pattern":"abc"}`)
	dir := t.TempDir()
	writeManifest(t, dir, Manifest{"x": "1.0.0"})
	manifestPath := filepath.Join(dir, pattern.ManifestFileName)
	before, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	res, err := newTestReconciler(dir).Reconcile(context.Background(), srv.indexURL())
	require.NoError(t, err)

	assert.Equal(t, Result{}, res)
	assert.Equal(t, []string{"/index.json"}, srv.requested())
	after, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReconcile_RemoteOlderDoesNotFetch(t *testing.T) {
	srv := newPatternServer(t)
	srv.add("x", "1.9.0", `{"pattern":"abc"}`)
	dir := t.TempDir()
	writeManifest(t, dir, Manifest{"x": "2.0.0"})

	res, err := newTestReconciler(dir).Reconcile(context.Background(), srv.indexURL())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, []string{"/index.json"}, srv.requested())
	assert.Equal(t, Manifest{"x": "2.0.0"}, readManifest(t, dir))
}

func TestReconcile_UpdatesOlderAndUnparseableLocal(t *testing.T) {
	srv := newPatternServer(t)
	srv.add("old", "1.10.0", `{"pattern":"new-old"}`)
	srv.add("weird", "1.0.0", `{"pattern":"new-weird"}`)
	srv.add("fresh", "0.1.0", `{"patterns":["a","b"]}`)
	dir := t.TempDir()
	writeManifest(t, dir, Manifest{"old": "1.9.0", "weird": "latest"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.json"), []byte(`{"pattern":"stale"}`), 0o644))

	var updates []string
	r := newTestReconciler(dir, WithObserver(func(e Event) {
		if e.Kind == EventInstalled {
			updates = append(updates, fmt.Sprintf("%s:%v", e.Entry.Name, e.Update))
		}
	}))
	res, err := r.Reconcile(context.Background(), srv.indexURL())
	require.NoError(t, err)

	assert.Equal(t, Result{Added: 1, Updated: 2}, res)
	assert.Equal(t, []string{"old:true", "weird:true", "fresh:false"}, updates)
	assert.Equal(t, Manifest{"old": "1.10.0", "weird": "1.0.0", "fresh": "0.1.0"}, readManifest(t, dir))

	rec, err := pattern.NewRepository(dir).Load("old")
	require.NoError(t, err)
	assert.Equal(t, "new-old", *rec.Pattern)
}

func TestReconcile_MalformedRemoteVersionAborts(t *testing.T) {
	srv := newPatternServer(t)
	srv.add("a", "1.0.0", `{"pattern":"a"}`)
	srv.add("b", "v2", `{"pattern":"b"}`)
	dir := t.TempDir()

	_, err := newTestReconciler(dir).Reconcile(context.Background(), srv.indexURL())
	require.ErrorIs(t, err, ErrMalformedRemoteVersion)

	_, statErr := os.Stat(filepath.Join(dir, pattern.ManifestFileName))
	assert.True(t, os.IsNotExist(statErr), "manifest must not be written on abort")
}

func TestReconcile_InvalidBodyAbortsBeforeWriting(t *testing.T) {
	srv := newPatternServer(t)
	srv.add("bad", "1.0.0", `{"patterns":[]}`)
	dir := t.TempDir()

	_, err := newTestReconciler(dir).Reconcile(context.Background(), srv.indexURL())
	require.ErrorIs(t, err, ErrRemoteValidation)
	assert.ErrorIs(t, err, pattern.ErrInvalidFormat)

	_, statErr := os.Stat(filepath.Join(dir, "bad.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestReconcile_UnsafeNameRejected(t *testing.T) {
	srv := newPatternServer(t)
	srv.add("../escape", "1.0.0", `{"pattern":"a"}`)

	_, err := newTestReconciler(t.TempDir()).Reconcile(context.Background(), srv.indexURL())
	require.ErrorIs(t, err, ErrRemoteValidation)
	assert.ErrorIs(t, err, pattern.ErrInvalidName)
}

func TestReconcile_FetchFailures(t *testing.T) {
	srv := newPatternServer(t)
	srv.add("gone", "1.0.0", `{"pattern":"a"}`)
	srv.index[0].URL = srv.URL + "/patterns/missing.json"

	_, err := newTestReconciler(t.TempDir()).Reconcile(context.Background(), srv.indexURL())
	require.ErrorIs(t, err, ErrFetch)
	assert.Contains(t, err.Error(), "404")

	_, err = newTestReconciler(t.TempDir()).Reconcile(context.Background(), srv.URL+"/nope.json")
	assert.ErrorIs(t, err, ErrFetch)
}

func TestReconcile_BadIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := newTestReconciler(t.TempDir()).Reconcile(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, pattern.ErrInvalidFormat)
}

func TestReconcile_MalformedManifest(t *testing.T) {
	srv := newPatternServer(t)
	srv.add("x", "1.0.0", `{"pattern":"a"}`)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, pattern.ManifestFileName), []byte(`["x"]`), 0o644))

	_, err := newTestReconciler(dir).Reconcile(context.Background(), srv.indexURL())
	assert.ErrorIs(t, err, pattern.ErrInvalidFormat)
}

func TestReconcile_Locked(t *testing.T) {
	dir := t.TempDir()
	unlock, err := fsutil.Lock(dir, time.Second)
	require.NoError(t, err)
	defer unlock()

	r := newTestReconciler(dir, WithLockTimeout(100*time.Millisecond))
	_, err = r.Reconcile(context.Background(), "http://127.0.0.1:0/index.json")
	assert.ErrorIs(t, err, ErrLocked)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	m, err := LoadManifest(filepath.Join(dir, "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, m)

	p := filepath.Join(dir, "m.json")
	require.NoError(t, os.WriteFile(p, []byte("  \n"), 0o644))
	m, err = LoadManifest(p)
	require.NoError(t, err)
	assert.Empty(t, m)

	require.NoError(t, os.WriteFile(p, []byte(`{"a": 1}`), 0o644))
	_, err = LoadManifest(p)
	assert.ErrorIs(t, err, pattern.ErrInvalidFormat)
}

func TestHTTPFetcher_SizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, "gfr-test")
	f.MaxBytes = 16
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.Error(t, err)

	f.MaxBytes = 64
	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, body, 64)
}
