// Package snapshot holds observed file state across scan cycles.
package snapshot

import (
	"sort"
	"time"

	"github.com/raoulx24/pollwatch/internal/fs"
)

// Record is the observed state of a single file.
// Hash may be empty while a cycle is still deciding whether to compute it.
type Record struct {
	Path    string
	ModTime time.Time
	Hash    string
}

// FromFileInfo constructs a Record from a stat result and a content hash.
func FromFileInfo(path string, info fs.FileInfo, hash string) Record {
	return Record{
		Path:    path,
		ModTime: info.MTime,
		Hash:    hash,
	}
}

// Snapshot maps an absolute path to its record.
type Snapshot map[string]Record

// Paths returns the keys in lexical order.
func (s Snapshot) Paths() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Missing returns the paths present in s but absent from other, sorted.
func (s Snapshot) Missing(other Snapshot) []string {
	var out []string
	for p := range s {
		if _, ok := other[p]; !ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
