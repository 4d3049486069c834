package fs

import (
	"errors"
	"syscall"
)

// defines helpers for detecting transient filesystem errors.
// These determine whether a hash should be retried or fail the cycle immediately.

// errChangedDuringHash marks a file whose stat changed while it was being read.
var errChangedDuringHash = errors.New("file changed during hash")

func isTransient(err error) bool {
	if errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, errChangedDuringHash) {
		return true
	}

	// network mounts occasionally surface other codes; extend here when one is observed
	return false
}
