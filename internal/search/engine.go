package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kamusis/gfr/internal/ignore"
	"github.com/kamusis/gfr/internal/ui"
)

// Engine compiles composites and runs them in stream or tree mode.
type Engine struct {
	workers int
	out     *SyncWriter
	diag    *SyncWriter
	styles  ui.Styles
	logger  zerolog.Logger

	open    func(string) (io.ReadCloser, error)
	walkDir func(string, fs.WalkDirFunc) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the tree-mode pool size. Values below 1 select
// runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = runtime.NumCPU()
		}
		e.workers = n
	}
}

// WithOutput sets where match lines go. Default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = NewSyncWriter(w) }
}

// WithDiagnostics sets where walk and scan errors go. Default is os.Stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(e *Engine) { e.diag = NewSyncWriter(w) }
}

// WithStyles sets match highlighting.
func WithStyles(s ui.Styles) Option {
	return func(e *Engine) { e.styles = s }
}

// WithLogger sets a custom logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine. Without options it prints plain text to stdout,
// diagnostics to stderr, and uses one worker per CPU.
func New(opts ...Option) *Engine {
	e := &Engine{
		workers: runtime.NumCPU(),
		out:     NewSyncWriter(os.Stdout),
		diag:    NewSyncWriter(os.Stderr),
		styles:  ui.NoColorStyles(),
		logger:  zerolog.Nop(),
		open:    func(p string) (io.ReadCloser, error) { return os.Open(p) },
		walkDir: filepath.WalkDir,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile builds the matcher for c. A failure wraps ErrCompile.
func (e *Engine) Compile(c *Composite) (Matcher, error) {
	expr := c.Expression()
	m, err := NewMatcher(expr, c.Multiline)
	if err != nil {
		return nil, err
	}
	e.logger.Debug().Str("expr", expr).Bool("multiline", c.Multiline).Msg("compiled matcher")
	return m, nil
}

// Stats summarizes a search.
type Stats struct {
	Files   int64 // files scanned
	Matches int64 // lines printed
	Errors  int64 // walk and scan errors reported to diagnostics
}

// SearchStream scans r once, sequentially, printing "line:text" for each
// matching line. Any read or write error is returned.
func (e *Engine) SearchStream(ctx context.Context, m Matcher, r io.Reader) (Stats, error) {
	s := newScanner(m.Clone(), NewPrinter(e.out, e.styles, false), false)
	n, err := s.scan(ctx, "", r)
	st := Stats{Files: 1, Matches: int64(n)}
	if err != nil {
		return st, fmt.Errorf("failed to search input: %w", err)
	}
	return st, nil
}

// TreeOptions controls a tree walk.
type TreeOptions struct {
	// FileTypes restricts the walk to these extensions. Ignored when
	// IncludeBinary is set.
	FileTypes []string
	// IncludeBinary disables binary detection and the FileTypes override.
	IncludeBinary bool
}

type treeStats struct {
	files, matches, errors atomic.Int64
}

func (t *treeStats) snapshot() Stats {
	return Stats{Files: t.files.Load(), Matches: t.matches.Load(), Errors: t.errors.Load()}
}

// SearchTree walks root and scans every visited regular file on a pool of
// workers. Entry and file errors are printed to diagnostics and never stop
// the walk; the returned error is non-nil only if the walk itself could not
// run.
func (e *Engine) SearchTree(ctx context.Context, m Matcher, root string, opts TreeOptions) (Stats, error) {
	var stats treeStats
	started := time.Now()

	rulesRoot := root
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		rulesRoot = filepath.Dir(root)
	}
	tree, err := ignore.NewTree(rulesRoot, 0)
	if err != nil {
		return Stats{}, err
	}
	tree.OnError = func(err error) {
		stats.errors.Add(1)
		e.report(err.Error())
	}

	var override *ignore.Override
	if len(opts.FileTypes) > 0 && !opts.IncludeBinary {
		override = ignore.NewOverride(opts.FileTypes)
	}

	pool, err := ants.NewPool(e.workers)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	// One scanner per pool slot. A task borrows one for the length of a file.
	scanners := make(chan *scanner, e.workers)
	for i := 0; i < e.workers; i++ {
		scanners <- newScanner(m.Clone(), NewPrinter(e.out, e.styles, true), !opts.IncludeBinary)
	}
	jobs := make(chan string, e.workers*4)

	e.logger.Debug().Str("root", root).Int("workers", e.workers).Strs("file_types", opts.FileTypes).
		Bool("include_binary", opts.IncludeBinary).Msg("walking")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		return e.walk(gctx, root, tree, override, jobs, &stats)
	})
	g.Go(func() error {
		return e.dispatch(gctx, pool, scanners, jobs, &stats)
	})
	err = g.Wait()

	st := stats.snapshot()
	e.logger.Info().Int64("files", st.Files).Int64("matches", st.Matches).Int64("errors", st.Errors).
		Dur("elapsed", time.Since(started)).Msg("search finished")
	return st, err
}

func (e *Engine) walk(ctx context.Context, root string, tree *ignore.Tree, override *ignore.Override, jobs chan<- string, stats *treeStats) error {
	return e.walkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			stats.errors.Add(1)
			e.report(err.Error())
			return nil
		}
		if path != root {
			if skip, dirSkip := e.skip(path, d, tree, override); skip {
				return dirSkip
			}
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		select {
		case jobs <- path:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// skip decides whether a walked entry is left out. The extension override
// comes first and beats every other rule, then hidden names, then the
// ignore files.
func (e *Engine) skip(path string, d fs.DirEntry, tree *ignore.Tree, override *ignore.Override) (bool, error) {
	isDir := d.IsDir()
	dirSkip := func() (bool, error) {
		if isDir {
			e.logger.Debug().Str("dir", path).Msg("skipping directory")
			return true, filepath.SkipDir
		}
		return true, nil
	}

	switch override.Match(d.Name(), isDir) {
	case ignore.Whitelist:
		return false, nil
	case ignore.Ignore:
		return dirSkip()
	}
	if strings.HasPrefix(d.Name(), ".") {
		return dirSkip()
	}
	if tree.Match(path, isDir) == ignore.Ignore {
		return dirSkip()
	}
	return false, nil
}

// dispatch submits one pool task per walked file and waits for all of them.
// Blocking submits leave the walker free to keep filling jobs.
func (e *Engine) dispatch(ctx context.Context, pool *ants.Pool, scanners chan *scanner, jobs <-chan string, stats *treeStats) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	for path := range jobs {
		if ctx.Err() != nil {
			continue
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			s := <-scanners
			defer func() { scanners <- s }()
			e.searchFile(ctx, s, path, stats)
		}); err != nil {
			wg.Done()
			return fmt.Errorf("failed to submit %s: %w", path, err)
		}
	}
	return nil
}

func (e *Engine) searchFile(ctx context.Context, s *scanner, path string, stats *treeStats) {
	n, err := e.scanFile(ctx, s, path)
	stats.files.Add(1)
	stats.matches.Add(int64(n))
	if err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			err = pe.Err
		}
		stats.errors.Add(1)
		e.report(path + ": " + err.Error())
	}
}

func (e *Engine) scanFile(ctx context.Context, s *scanner, path string) (int, error) {
	f, err := e.open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	return s.scan(ctx, path, f)
}

func (e *Engine) report(msg string) {
	_, _ = io.WriteString(e.diag, msg+"\n")
}
