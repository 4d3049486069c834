//go:build unix

package fs

import (
	"os"
	"syscall"
)

// fileIDOf extracts device and inode from syscall.Stat_t on Unix systems.
// The scanner uses it to avoid walking the same directory twice through symlinks.

func fileIDOf(info os.FileInfo) FileID {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return FileID{}
	}
	return FileID{Dev: uint64(st.Dev), Inode: uint64(st.Ino)}
}
