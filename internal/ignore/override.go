package ignore

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Override restricts a walk to files with the given extensions. It takes
// precedence over every rule file: a listed extension is visited even when
// ignored, anything else is skipped. Directories are left to the rule files.
type Override struct {
	exts  map[string]struct{}
	caser cases.Caser
}

// NewOverride builds an override from extensions without the leading dot.
// Matching is case-insensitive. An empty list yields nil, which matches
// nothing.
func NewOverride(exts []string) *Override {
	if len(exts) == 0 {
		return nil
	}
	o := &Override{
		exts:  make(map[string]struct{}, len(exts)),
		caser: cases.Lower(language.Und),
	}
	for _, e := range exts {
		e = strings.TrimPrefix(e, ".")
		if e == "" {
			continue
		}
		o.exts[o.caser.String(e)] = struct{}{}
	}
	return o
}

// Match returns Whitelist for files with a listed extension, Ignore for
// other files and None for directories.
func (o *Override) Match(name string, isDir bool) Result {
	if o == nil || isDir {
		return None
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if _, ok := o.exts[o.caser.String(ext)]; ok && ext != "" {
		return Whitelist
	}
	return Ignore
}
