package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/raoulx24/pollwatch/internal/logging"
	"github.com/raoulx24/pollwatch/internal/notify"
)

// Notifier is the event-driven variant. It relies on OS change
// notification instead of rescanning, so it sees changes sooner but does
// not work on every filesystem (network mounts in particular).
type Notifier struct {
	files    map[string]bool
	dirs     []string
	filter   ExtensionFilter
	debounce time.Duration
	log      logging.Logger

	// directories added as part of a watched tree, as opposed to parents of
	// explicit files
	tree map[string]bool
}

// NewNotifier creates an fsnotify based watcher.
func NewNotifier(files, dirs []string, filter ExtensionFilter, debounce time.Duration, log logging.Logger) *Notifier {
	fm := make(map[string]bool, len(files))
	for _, f := range files {
		fm[filepath.Clean(f)] = true
	}
	return &Notifier{
		files:    fm,
		dirs:     dirs,
		filter:   filter,
		debounce: debounce,
		log:      log,
		tree:     make(map[string]bool),
	}
}

// Watch pushes created and written files to sink until ctx is done.
func (n *Notifier) Watch(ctx context.Context, sink notify.Sink) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range n.dirs {
		if err := n.addTree(w, dir); err != nil {
			return err
		}
	}

	// explicit files are watched through their parent so that editors
	// replacing the file do not drop the watch
	for f := range n.files {
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("stat %s: %w", f, err)
		}
		if err := w.Add(filepath.Dir(f)); err != nil {
			return fmt.Errorf("watching %s: %w", f, err)
		}
	}

	d := newDebouncer(n.debounce, sink)
	defer d.stop()

	n.log.Info("fsnotify watcher started",
		"dirs", len(n.dirs),
		"files", len(n.files),
		"debounce", n.debounce.String(),
	)

	for {
		select {
		case <-ctx.Done():
			n.log.Info("fsnotify watcher stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				n.log.Error("events channel closed")
				return nil
			}
			n.handle(w, ev, d)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			n.log.Error("fsnotify error", "error", err.Error())
		}
	}
}

func (n *Notifier) handle(w *fsnotify.Watcher, ev fsnotify.Event, d *debouncer) {
	path := filepath.Clean(ev.Name)
	n.log.Debug("event", "name", path, "op", ev.Op.String())

	if ev.Has(fsnotify.Create) && n.tree[filepath.Dir(path)] {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := n.addTree(w, path); err != nil {
				n.log.Warn("failed to watch new directory", "path", path, "error", err.Error())
			}
			return
		}
	}

	if !n.relevant(path) {
		return
	}

	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		d.add(path)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		n.log.Warn("file deleted, restart manually for the change to take effect", "path", path)
	}
}

func (n *Notifier) relevant(path string) bool {
	if n.files[path] {
		return true
	}
	return n.tree[filepath.Dir(path)] && n.filter.Match(filepath.Base(path))
}

func (n *Notifier) addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, e os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}
		if !e.IsDir() {
			return nil
		}
		path = filepath.Clean(path)
		if n.tree[path] {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		n.tree[path] = true
		return nil
	})
}
