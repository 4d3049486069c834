//go:build !unix && !windows

package fs

import "os"

func fileIDOf(info os.FileInfo) FileID {
	_ = info
	return FileID{}
}
