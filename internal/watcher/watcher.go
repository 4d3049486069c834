// Package watcher detects added and modified files under the configured
// targets and hands them to a notification sink.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/raoulx24/pollwatch/internal/config"
	"github.com/raoulx24/pollwatch/internal/fsprobe"
	"github.com/raoulx24/pollwatch/internal/logging"
	"github.com/raoulx24/pollwatch/internal/notify"
	"github.com/raoulx24/pollwatch/internal/schedule"
)

// Watcher delivers changed paths to sink until ctx is cancelled.
type Watcher interface {
	Watch(ctx context.Context, sink notify.Sink) error
}

var (
	_ Watcher = (*Poller)(nil)
	_ Watcher = (*Notifier)(nil)
)

// New chooses the watching strategy based on config. The polling variant
// seeds its baseline here, so a missing target fails startup.
func New(ctx context.Context, cfg config.WatchConfig, sched schedule.Scheduler, log logging.Logger) (Watcher, error) {
	switch cfg.Mode {
	case config.ModePoll:
		return NewPollerFromConfig(ctx, cfg, sched, log)

	case config.ModeFsnotify:
		return newNotifierFromConfig(cfg, log), nil

	case config.ModeAuto:
		res := fsprobe.ProbeAll(probeDirs(cfg))
		if res.FsnotifySupported {
			return newNotifierFromConfig(cfg, log), nil
		}
		log.Warn("fsnotify disabled, falling back to polling", "reason", res.Reason)
		return NewPollerFromConfig(ctx, cfg, sched, log)

	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

func newNotifierFromConfig(cfg config.WatchConfig, log logging.Logger) *Notifier {
	return NewNotifier(cfg.Files, cfg.Dirs, NewExtensionFilter(cfg.Extensions), cfg.Debounce, log)
}

// probeDirs lists every directory fsnotify would have to watch directly.
func probeDirs(cfg config.WatchConfig) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	for _, d := range cfg.Dirs {
		add(d)
	}
	for _, f := range cfg.Files {
		add(filepath.Dir(f))
	}
	return dirs
}
