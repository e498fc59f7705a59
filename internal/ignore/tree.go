package ignore

import (
	"fmt"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// File names consulted in every directory, highest precedence first.
const (
	GfrIgnoreFile = ".gfrignore"
	IgnoreFile    = ".ignore"
	GitIgnoreFile = ".gitignore"
)

var ruleFiles = []string{GfrIgnoreFile, IgnoreFile, GitIgnoreFile}

// DefaultCacheSize bounds the number of directories whose rules are kept.
const DefaultCacheSize = 1000

// Tree answers ignore queries for paths under a root directory. Rule files
// are read the first time a directory is consulted; evicted directories are
// simply read again.
//
// A Tree is meant to be driven by a single walker goroutine.
type Tree struct {
	root  string
	nodes *lru.Cache[string, *dirRules]
	// OnError receives rule files that could not be read or compiled.
	OnError func(error)
}

type dirRules struct {
	dir      string
	parent   *dirRules
	matchers []*Matcher
}

// NewTree prepares a tree rooted at root. cacheSize <= 0 selects
// DefaultCacheSize.
func NewTree(root string, cacheSize int) (*Tree, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *dirRules](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create ignore cache: %w", err)
	}
	return &Tree{root: filepath.Clean(root), nodes: cache}, nil
}

// Match decides whether p, a path under the root, is ignored. The rules of
// p's parent directory are consulted first, then each ancestor up to the
// root. The root itself is never ignored.
func (t *Tree) Match(p string, isDir bool) Result {
	p = filepath.Clean(p)
	if p == t.root {
		return None
	}
	for n := t.rulesFor(filepath.Dir(p)); n != nil; n = n.parent {
		rel, err := filepath.Rel(n.dir, p)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		for _, m := range n.matchers {
			if r := m.Match(rel, isDir); r != None {
				return r
			}
		}
	}
	return None
}

func (t *Tree) rulesFor(dir string) *dirRules {
	if n, ok := t.nodes.Get(dir); ok {
		return n
	}
	n := &dirRules{dir: dir}
	if dir != t.root {
		if up := filepath.Dir(dir); up != dir {
			n.parent = t.rulesFor(up)
		}
	}
	for _, name := range ruleFiles {
		t.load(n, filepath.Join(dir, name))
	}
	if dir == t.root {
		t.load(n, filepath.Join(dir, ".git", "info", "exclude"))
	}
	t.nodes.Add(dir, n)
	return n
}

func (t *Tree) load(n *dirRules, file string) {
	m, err := LoadMatcher(file)
	if err != nil && t.OnError != nil {
		t.OnError(err)
	}
	if m.Len() > 0 {
		n.matchers = append(n.matchers, m)
	}
}
