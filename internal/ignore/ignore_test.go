package ignore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name  string
		rules []string
		path  string
		isDir bool
		want  Result
	}{
		{name: "basename", rules: []string{"*.log"}, path: "a/b/err.log", want: Ignore},
		{name: "no match", rules: []string{"*.log"}, path: "err.txt", want: None},
		{name: "question mark", rules: []string{"file?.txt"}, path: "file1.txt", want: Ignore},
		{name: "question mark too long", rules: []string{"file?.txt"}, path: "file12.txt", want: None},
		{name: "anchored root only", rules: []string{"/build"}, path: "src/build", isDir: true, want: None},
		{name: "anchored at root", rules: []string{"/build"}, path: "build", isDir: true, want: Ignore},
		{name: "inner slash anchors", rules: []string{"doc/frotz"}, path: "a/doc/frotz", want: None},
		{name: "dir only skips files", rules: []string{"tmp/"}, path: "tmp", want: None},
		{name: "dir only matches dirs", rules: []string{"tmp/"}, path: "x/tmp", isDir: true, want: Ignore},
		{name: "double star prefix", rules: []string{"**/gen"}, path: "a/b/gen", isDir: true, want: Ignore},
		{name: "double star middle", rules: []string{"a/**/z.go"}, path: "a/b/c/z.go", want: Ignore},
		{name: "double star suffix", rules: []string{"out/**"}, path: "out/x/y", want: Ignore},
		{name: "negation wins when last", rules: []string{"*.log", "!keep.log"}, path: "keep.log", want: Whitelist},
		{name: "later ignore overrides negation", rules: []string{"!keep.log", "*.log"}, path: "keep.log", want: Ignore},
		{name: "escaped hash", rules: []string{`\#notes`}, path: "#notes", want: Ignore},
		{name: "comment", rules: []string{"# *.go"}, path: "main.go", want: None},
		{name: "char class", rules: []string{"*.[oa]"}, path: "lib.a", want: Ignore},
		{name: "negated char class", rules: []string{"v[!0-9]"}, path: "vx", want: Ignore},
		{name: "dots are literal", rules: []string{"a.c"}, path: "abc", want: None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.rules...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Match(tt.path, tt.isDir))
		})
	}
}

func TestMatcher_InvalidRuleIsSkipped(t *testing.T) {
	m, err := NewMatcher("[z-a]", "*.tmp")
	require.Error(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, Ignore, m.Match("x.tmp", false))
}

func TestParseMatcher(t *testing.T) {
	m, err := ParseMatcher(strings.NewReader("# vendored\nvendor/\n\n*.min.js\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, Ignore, m.Match("app.min.js", false))
}

func TestLoadMatcher_Missing(t *testing.T) {
	m, err := LoadMatcher(filepath.Join(t.TempDir(), ".gitignore"))
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, None, m.Match("anything", false))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestTree_Precedence(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, GitIgnoreFile), "*.log\nsecret.txt\n")
	writeFile(t, filepath.Join(root, IgnoreFile), "!debug.log\n")
	writeFile(t, filepath.Join(root, GfrIgnoreFile), "debug.log\n")
	writeFile(t, filepath.Join(root, "sub", GitIgnoreFile), "!secret.txt\n")
	writeFile(t, filepath.Join(root, ".git", "info", "exclude"), "*.bak\n")

	tree, err := NewTree(root, 0)
	require.NoError(t, err)

	tests := []struct {
		path string
		want Result
	}{
		{path: "app.log", want: Ignore},
		// .gfrignore beats the whitelist in .ignore
		{path: "debug.log", want: Ignore},
		{path: "secret.txt", want: Ignore},
		// deeper directory wins
		{path: "sub/secret.txt", want: Whitelist},
		{path: "sub/deeper/app.log", want: Ignore},
		{path: "old.bak", want: Ignore},
		{path: "sub/old.bak", want: Ignore},
		{path: "main.go", want: None},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, tree.Match(filepath.Join(root, filepath.FromSlash(tt.path)), false))
		})
	}
	assert.Equal(t, None, tree.Match(root, true))
}

func TestTree_ReloadsAfterEviction(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, GitIgnoreFile), "*.log\n")
	writeFile(t, filepath.Join(root, "a", GitIgnoreFile), "*.tmp\n")
	writeFile(t, filepath.Join(root, "b", GitIgnoreFile), "*.out\n")

	tree, err := NewTree(root, 1)
	require.NoError(t, err)
	assert.Equal(t, Ignore, tree.Match(filepath.Join(root, "a", "x.tmp"), false))
	assert.Equal(t, Ignore, tree.Match(filepath.Join(root, "b", "x.out"), false))
	assert.Equal(t, Ignore, tree.Match(filepath.Join(root, "a", "x.log"), false))
	assert.Equal(t, None, tree.Match(filepath.Join(root, "b", "x.tmp"), false))
}

func TestTree_ReportsBadRules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, GitIgnoreFile), "[z-a]\n*.log\n")

	tree, err := NewTree(root, 0)
	require.NoError(t, err)
	var got []error
	tree.OnError = func(err error) { got = append(got, err) }

	assert.Equal(t, Ignore, tree.Match(filepath.Join(root, "x.log"), false))
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), GitIgnoreFile)
	assert.False(t, errors.Is(got[0], os.ErrNotExist))
}

func TestOverride(t *testing.T) {
	o := NewOverride([]string{"go", ".YAML"})
	assert.Equal(t, Whitelist, o.Match("main.go", false))
	assert.Equal(t, Whitelist, o.Match("MAIN.GO", false))
	assert.Equal(t, Whitelist, o.Match("ci.yaml", false))
	assert.Equal(t, Ignore, o.Match("README.md", false))
	assert.Equal(t, Ignore, o.Match("Makefile", false))
	assert.Equal(t, None, o.Match("pkg", true))

	var none *Override
	assert.Nil(t, NewOverride(nil))
	assert.Equal(t, None, none.Match("main.go", false))
}
