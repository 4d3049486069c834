package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	pwfs "github.com/raoulx24/pollwatch/internal/fs"
)

// Normalize strips leading dots from extensions and resolves every watch
// path to an absolute, cleaned path. Explicit files and relative
// directories are taken relative to BasePath.
func Normalize(cfg *Config) error {
	w := &cfg.Watch

	w.Mode = strings.ToLower(strings.TrimSpace(w.Mode))
	w.Hash = strings.ToLower(strings.TrimSpace(w.Hash))

	base := w.BasePath
	if base == "" {
		base = "."
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return fmt.Errorf("resolving base path: %w", err)
	}
	w.BasePath = abs

	w.Extensions = NormalizeExtensions(w.Extensions)
	w.Dirs = resolveAll(abs, w.Dirs)
	w.Files = resolveAll(abs, w.Files)
	return nil
}

// NormalizeExtensions drops a single leading dot, empty entries and duplicates.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.TrimPrefix(strings.TrimSpace(e), ".")
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

func resolveAll(base string, paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		p = filepath.Clean(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Validate reports every problem found, joined.
func Validate(cfg *Config) error {
	var errs []error
	w := cfg.Watch

	switch w.Mode {
	case ModePoll, ModeFsnotify, ModeAuto:
	default:
		errs = append(errs, fmt.Errorf("watch.mode: unknown mode %q", w.Mode))
	}

	if w.ScanInterval <= 0 {
		errs = append(errs, fmt.Errorf("watch.scanInterval: must be positive, got %d", w.ScanInterval))
	}

	if _, err := pwfs.HasherByName(w.Hash); err != nil {
		errs = append(errs, fmt.Errorf("watch.hash: %w", err))
	}

	if w.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce: must not be negative"))
	}

	if len(w.Dirs) == 0 && len(w.Files) == 0 {
		errs = append(errs, errors.New("watch: at least one of dirs or files is required"))
	}

	if len(w.Dirs) > 0 && len(w.Extensions) == 0 {
		errs = append(errs, errors.New("watch.extensions: required when dirs are watched"))
	}

	return errors.Join(errs...)
}
