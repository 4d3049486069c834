package watcher

import (
	"path/filepath"
	"sort"
	"strings"
)

// ExtensionFilter gates which files inside watched directories are
// considered. Extensions are stored without the leading dot.
type ExtensionFilter map[string]struct{}

// NewExtensionFilter accepts extensions with or without a leading dot.
func NewExtensionFilter(exts []string) ExtensionFilter {
	f := make(ExtensionFilter, len(exts))
	for _, e := range exts {
		e = strings.TrimPrefix(e, ".")
		if e != "" {
			f[e] = struct{}{}
		}
	}
	return f
}

// Match reports whether the file name ends in one of the extensions.
// Compound extensions such as "tpl.php" match on the whole suffix.
func (f ExtensionFilter) Match(name string) bool {
	name = filepath.Base(name)
	for i := 0; i < len(name); i++ {
		if name[i] != '.' {
			continue
		}
		if _, ok := f[name[i+1:]]; ok {
			return true
		}
	}
	return false
}

func (f ExtensionFilter) String() string {
	exts := make([]string, 0, len(f))
	for e := range f {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return strings.Join(exts, ",")
}
