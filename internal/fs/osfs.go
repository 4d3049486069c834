package fs

import (
	"context"
	iofs "io/fs"
	"os"
	"path/filepath"
)

// OSFS is the FS backed by the local filesystem.
// Platform-specific details (such as inode extraction) are handled in build-tagged files.
type OSFS struct {
	hasher Hasher
}

// New returns an OSFS hashing with h. A nil h means MD5.
func New(h Hasher) *OSFS {
	if h == nil {
		h = MD5
	}
	return &OSFS{hasher: h}
}

func (o *OSFS) Stat(path string) (FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return infoOf(path, st), nil
}

func (o *OSFS) ReadDir(dir string) ([]iofs.DirEntry, error) {
	return os.ReadDir(dir)
}

func (o *OSFS) RealPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func (o *OSFS) Hash(ctx context.Context, path string) (string, error) {
	return hashWithRetry(ctx, o, o.hasher, path)
}

func infoOf(path string, st os.FileInfo) FileInfo {
	return FileInfo{
		Path:    path,
		Size:    st.Size(),
		MTime:   st.ModTime(),
		IsDir:   st.IsDir(),
		Regular: st.Mode().IsRegular(),
		ID:      fileIDOf(st),
	}
}
