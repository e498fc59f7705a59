package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/gfr/internal/pattern"
)

func single(name, re string) *pattern.Record {
	return &pattern.Record{Name: name, Version: pattern.DefaultVersion, Pattern: &re}
}

func list(name string, res ...string) *pattern.Record {
	return &pattern.Record{Name: name, Version: pattern.DefaultVersion, Patterns: res}
}

func TestCombine_Single(t *testing.T) {
	c, err := Combine([]*pattern.Record{single("a", "abc")})
	require.NoError(t, err)
	assert.Equal(t, "abc", c.Combined)
	assert.Equal(t, "abc", c.Expression())
	assert.Empty(t, c.FileTypes)
}

func TestCombine_List(t *testing.T) {
	c, err := Combine([]*pattern.Record{list("a", "a", "b")})
	require.NoError(t, err)
	assert.Equal(t, "(?:a|b)", c.Expression())
}

func TestCombine_Many(t *testing.T) {
	c, err := Combine([]*pattern.Record{single("x", "foo"), list("y", "a", "b"), single("z", "bar")})
	require.NoError(t, err)
	assert.Equal(t, "foo|(?:a|b)|bar", c.Combined)
}

func TestCombine_Flags(t *testing.T) {
	r := single("a", "abc")
	r.IgnoreCase = true
	r.Multiline = true
	c, err := Combine([]*pattern.Record{r})
	require.NoError(t, err)
	assert.Equal(t, "(?is)abc", c.Expression())

	onlyS := single("b", "x")
	onlyS.Multiline = true
	c, err = Combine([]*pattern.Record{single("a", "abc"), onlyS})
	require.NoError(t, err)
	assert.Equal(t, "(?s)abc|x", c.Expression())

	onlyI := single("c", "y")
	onlyI.IgnoreCase = true
	c, err = Combine([]*pattern.Record{onlyI, single("a", "abc")})
	require.NoError(t, err)
	assert.Equal(t, "(?i)y|abc", c.Expression())
}

func TestCombine_ExactlyOneFlagGroup(t *testing.T) {
	recs := []*pattern.Record{single("a", "a"), single("b", "b"), list("c", "c", "d")}
	for mask := 0; mask < 1<<(2*len(recs)); mask++ {
		for i, r := range recs {
			r.IgnoreCase = mask&(1<<(2*i)) != 0
			r.Multiline = mask&(1<<(2*i+1)) != 0
		}
		c, err := Combine(recs)
		require.NoError(t, err)
		expr := c.Expression()
		assert.NotEmpty(t, c.Combined)
		assert.NotContains(t, expr, "(?)")

		groups := strings.Count(expr, "(?i") + strings.Count(expr, "(?s")
		if c.IgnoreCase || c.Multiline {
			assert.Equal(t, 1, groups, expr)
			assert.True(t, strings.HasPrefix(expr, "(?"), expr)
		} else {
			assert.Zero(t, groups, expr)
		}
	}
}

func TestCombine_FileTypes(t *testing.T) {
	a := single("a", "x")
	a.FileTypes = []string{"go", "YAML"}
	b := single("b", "y")
	c := single("c", "z")
	c.FileTypes = []string{".yaml", "js"}

	comp, err := Combine([]*pattern.Record{a, b, c})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "js", "yaml"}, comp.FileTypes)
}

func TestCombine_Errors(t *testing.T) {
	_, err := Combine(nil)
	assert.ErrorIs(t, err, pattern.ErrMissingRegex)

	_, err = Combine([]*pattern.Record{single("ok", "a"), {Name: "bad"}})
	assert.ErrorIs(t, err, pattern.ErrMissingRegex)
	assert.Contains(t, err.Error(), "bad")

	_, err = Combine([]*pattern.Record{list("empty")})
	assert.ErrorIs(t, err, pattern.ErrMissingRegex)
}

func TestNewMatcher(t *testing.T) {
	m, err := NewMatcher("(?is)abc", true)
	require.NoError(t, err)
	assert.True(t, m.Multiline())
	assert.NotNil(t, m.FindAll([]byte("xxABC")))

	clone := m.Clone()
	assert.Equal(t, m.String(), clone.String())
	assert.Equal(t, [][]int{{1, 4}}, clone.FindAll([]byte("\nAbC")))

	_, err = NewMatcher("(unclosed", false)
	assert.ErrorIs(t, err, ErrCompile)
}
