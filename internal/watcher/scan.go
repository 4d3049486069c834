package watcher

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"

	"github.com/raoulx24/pollwatch/internal/fs"
	"github.com/raoulx24/pollwatch/internal/snapshot"
)

// Result is the classification of one scan.
type Result struct {
	Total   int
	Changed []string
	Added   []string
	Deleted []string
}

func (r *Result) merge(o Result) {
	r.Changed = append(r.Changed, o.Changed...)
	r.Added = append(r.Added, o.Added...)
}

// Scanner walks the watch targets and classifies every file it finds
// against the baseline held in the store.
type Scanner struct {
	files  []string
	dirs   []string
	filter ExtensionFilter
	fs     fs.FS
	store  *snapshot.Store
}

// NewScanner creates a scanner over explicit files and directories.
func NewScanner(files, dirs []string, filter ExtensionFilter, fsys fs.FS, store *snapshot.Store) *Scanner {
	return &Scanner{
		files:  files,
		dirs:   dirs,
		filter: filter,
		fs:     fsys,
		store:  store,
	}
}

// Seed walks every target and installs the result as the baseline
// without classifying anything. A missing target is an error.
func (s *Scanner) Seed(ctx context.Context) error {
	var records []snapshot.Record
	seen := make(map[string]bool)

	visit := func(path string, info fs.FileInfo) error {
		if seen[path] {
			return nil
		}
		seen[path] = true

		hash, err := s.fs.Hash(ctx, path)
		if err != nil {
			return err
		}
		records = append(records, snapshot.FromFileInfo(path, info, hash))
		return nil
	}

	for _, path := range s.files {
		if err := s.visitFile(path, visit); err != nil {
			return fmt.Errorf("seeding %s: %w", path, err)
		}
	}
	for _, dir := range s.dirs {
		if err := s.walk(dir, visit); err != nil {
			return fmt.Errorf("seeding %s: %w", dir, err)
		}
	}

	s.store.Seed(records)
	return nil
}

// Scan runs one classification pass: explicit files first, then each
// directory. On error the store holds a partial current generation; the
// caller must Abort it.
func (s *Scanner) Scan(ctx context.Context) (Result, error) {
	s.store.BeginCycle()

	res, err := s.ScanFiles(ctx)
	if err != nil {
		return Result{}, err
	}

	for _, dir := range s.dirs {
		part, err := s.ScanDir(ctx, dir)
		if err != nil {
			return Result{}, err
		}
		res.merge(part)
	}

	res.Deleted = s.store.Deleted()
	res.Total = s.store.Len()
	return res, nil
}

// ScanFiles classifies the explicit files. No extension filter applies.
func (s *Scanner) ScanFiles(ctx context.Context) (Result, error) {
	var res Result
	for _, path := range s.files {
		err := s.visitFile(path, func(p string, info fs.FileInfo) error {
			return s.classify(ctx, p, info, &res)
		})
		if err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

// ScanDir classifies every matching file below dir.
func (s *Scanner) ScanDir(ctx context.Context, dir string) (Result, error) {
	var res Result
	err := s.walk(dir, func(p string, info fs.FileInfo) error {
		return s.classify(ctx, p, info, &res)
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// classify decides whether path is added, changed or unchanged.
//
// The mtime is compared first. The content is hashed only for paths
// missing from the baseline or whose mtime moved, and a moved mtime with
// an identical hash is not a change. The new mtime is still recorded.
func (s *Scanner) classify(ctx context.Context, path string, info fs.FileInfo, res *Result) error {
	// reachable twice through symlinks or an explicit file inside a watched dir
	if s.store.Observed(path) {
		return nil
	}

	s.store.Observe(path, info.MTime, "")

	last, ok := s.store.Last(path)
	if !ok {
		hash, err := s.fs.Hash(ctx, path)
		if err != nil {
			return err
		}
		s.store.SetHash(path, hash)
		res.Added = append(res.Added, path)
		return nil
	}

	if !last.ModTime.Equal(info.MTime) {
		hash, err := s.fs.Hash(ctx, path)
		if err != nil {
			return err
		}
		s.store.SetHash(path, hash)
		if hash != last.Hash {
			res.Changed = append(res.Changed, path)
		}
		return nil
	}

	s.store.SetHash(path, last.Hash)
	return nil
}

type visitFunc func(path string, info fs.FileInfo) error

func (s *Scanner) visitFile(path string, visit visitFunc) error {
	info, err := s.fs.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir {
		return fmt.Errorf("%s: is a directory", path)
	}

	real, err := s.fs.RealPath(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	return visit(real, info)
}

// walk enumerates the files below root with an explicit stack.
// Directories are entered once per cycle, so symlink loops terminate.
func (s *Scanner) walk(root string, visit visitFunc) error {
	visited := newVisitedSet()
	stack := []string{root}

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		info, err := s.fs.Stat(dir)
		if err != nil {
			return fmt.Errorf("stat %s: %w", dir, err)
		}
		if !info.IsDir {
			return fmt.Errorf("%s: not a directory", dir)
		}

		first, err := visited.add(s.fs, dir, info)
		if err != nil {
			return err
		}
		if !first {
			continue
		}

		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("reading %s: %w", dir, err)
		}

		var subdirs []string
		for _, e := range entries {
			name := e.Name()
			if name == "." || name == ".." {
				continue
			}
			full := filepath.Join(dir, name)

			fi, err := s.fs.Stat(full)
			if err != nil {
				// dangling symlink
				if e.Type()&iofs.ModeSymlink != 0 && errors.Is(err, iofs.ErrNotExist) {
					continue
				}
				return fmt.Errorf("stat %s: %w", full, err)
			}

			switch {
			case fi.IsDir:
				subdirs = append(subdirs, full)
			case fi.Regular:
				if !s.filter.Match(name) {
					continue
				}
				real, err := s.fs.RealPath(full)
				if err != nil {
					return fmt.Errorf("resolving %s: %w", full, err)
				}
				if err := visit(real, fi); err != nil {
					return err
				}
			}
		}

		// reversed so subdirectories are popped in enumeration order
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}
	return nil
}

// visitedSet remembers directories by device and inode, or by resolved
// path where the platform has no inode.
type visitedSet struct {
	ids   map[fs.FileID]struct{}
	paths map[string]struct{}
}

func newVisitedSet() *visitedSet {
	return &visitedSet{
		ids:   make(map[fs.FileID]struct{}),
		paths: make(map[string]struct{}),
	}
}

func (v *visitedSet) add(fsys fs.FS, dir string, info fs.FileInfo) (bool, error) {
	if info.ID.Known() {
		if _, ok := v.ids[info.ID]; ok {
			return false, nil
		}
		v.ids[info.ID] = struct{}{}
		return true, nil
	}

	real, err := fsys.RealPath(dir)
	if err != nil {
		return false, fmt.Errorf("resolving %s: %w", dir, err)
	}
	if _, ok := v.paths[real]; ok {
		return false, nil
	}
	v.paths[real] = struct{}{}
	return true, nil
}
