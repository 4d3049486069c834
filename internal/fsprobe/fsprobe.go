// Package fsprobe decides whether the event-driven watcher can be trusted on
// a set of directories. Some mounts (NFS, SMB, certain FUSE and container
// volumes) accept a watch and then never report anything, so a real file
// operation is performed and the resulting event awaited.
package fsprobe

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Timeout bounds how long Probe waits for the first event.
var Timeout = 200 * time.Millisecond

// Result reports whether fsnotify is usable and why.
type Result struct {
	FsnotifySupported bool   // true if events are delivered
	Reason            string // explanation when unsupported
}

// ProbeAll probes each directory and returns the first failure. No
// directories means nothing to rely on, which counts as unsupported.
func ProbeAll(dirs []string) Result {
	if len(dirs) == 0 {
		return unsupported("no directories to probe")
	}
	for _, d := range dirs {
		if res := Probe(d); !res.FsnotifySupported {
			res.Reason = d + ": " + res.Reason
			return res
		}
	}
	return Result{FsnotifySupported: true}
}

// Probe watches dir, renames a scratch file inside it and waits up to
// Timeout for fsnotify to say so.
func Probe(dir string) Result {
	if st, err := os.Stat(dir); err != nil {
		return unsupported("stat failed: %v", err)
	} else if !st.IsDir() {
		return unsupported("not a directory")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return unsupported("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return unsupported("cannot watch directory: %v", err)
	}

	cleanup, err := renameScratch(dir)
	if err != nil {
		return unsupported("%v", err)
	}
	defer cleanup()

	return awaitEvent(w, Timeout)
}

func unsupported(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// renameScratch creates a hidden file in dir and renames it, which is how
// editors and deploy tools usually replace watched files.
func renameScratch(dir string) (cleanup func(), err error) {
	f, err := os.CreateTemp(dir, ".pollwatch-probe-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp file: %w", err)
	}
	tmp := f.Name()
	f.Close()

	renamed := filepath.Join(dir, filepath.Base(tmp)+".done")
	if err := os.Rename(tmp, renamed); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("rename failed: %w", err)
	}
	return func() { os.Remove(renamed) }, nil
}

// awaitEvent succeeds on the first create, write or rename.
func awaitEvent(w *fsnotify.Watcher, timeout time.Duration) Result {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case ev := <-w.Events:
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename) {
				return Result{FsnotifySupported: true}
			}
		case err := <-w.Errors:
			return unsupported("watch error: %v", err)
		case <-deadline.C:
			return unsupported("no events within %s", timeout)
		}
	}
}
