// Package fs defines the filesystem abstraction used by the scanner.
// It provides the FS interface and the FileInfo type shared across the system.
package fs

import (
	"context"
	"io/fs"
	"time"
)

type FileInfo struct {
	Path    string
	Size    int64
	MTime   time.Time
	IsDir   bool
	Regular bool

	// ID identifies the underlying file independent of the path used to
	// reach it. Zero when the platform does not expose one.
	ID FileID
}

// FileID is a device and inode pair.
type FileID struct {
	Dev   uint64
	Inode uint64
}

// Known reports whether the platform filled in the identity.
func (id FileID) Known() bool {
	return id.Inode != 0
}

type FS interface {
	// Stat follows symlinks.
	Stat(path string) (FileInfo, error)
	ReadDir(dir string) ([]fs.DirEntry, error)
	// RealPath returns the absolute path with every symlink resolved.
	RealPath(path string) (string, error)
	// Hash returns the hex digest of the full file content.
	Hash(ctx context.Context, path string) (string, error)
}
