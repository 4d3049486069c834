package watcher

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raoulx24/pollwatch/internal/fs"
	"github.com/raoulx24/pollwatch/internal/logging"
	"github.com/raoulx24/pollwatch/internal/snapshot"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// tree is a scratch directory with a watched src/ below it.
type tree struct {
	t    *testing.T
	root string
	src  string
}

func newTree(t *testing.T) *tree {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	return &tree{t: t, root: root, src: src}
}

// write creates or overwrites rel (relative to root) and pins its mtime.
func (tr *tree) write(rel, content string, mtime time.Time) string {
	tr.t.Helper()
	p := filepath.Join(tr.root, rel)
	require.NoError(tr.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(tr.t, os.WriteFile(p, []byte(content), 0o644))
	require.NoError(tr.t, os.Chtimes(p, mtime, mtime))
	return p
}

func (tr *tree) touch(rel string, mtime time.Time) {
	tr.t.Helper()
	require.NoError(tr.t, os.Chtimes(filepath.Join(tr.root, rel), mtime, mtime))
}

func (tr *tree) remove(rel string) {
	tr.t.Helper()
	require.NoError(tr.t, os.Remove(filepath.Join(tr.root, rel)))
}

func (tr *tree) path(rel string) string {
	return filepath.Join(tr.root, rel)
}

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// rig is a seeded poller over a tree with a recording sink.
type rig struct {
	*tree
	store   *snapshot.Store
	scanner *Scanner
	poller  *Poller
	sink    *recorder
	logs    *bytes.Buffer
	fs      *faultFS
}

type rigOption func(*rigConfig)

type rigConfig struct {
	files []string
	exts  []string
}

func withFiles(rel ...string) rigOption {
	return func(c *rigConfig) { c.files = append(c.files, rel...) }
}

func withExtensions(exts ...string) rigOption {
	return func(c *rigConfig) { c.exts = exts }
}

// newRig seeds a poller; files named in withFiles must exist beforehand.
func newRig(tr *tree, opts ...rigOption) *rig {
	tr.t.Helper()
	c := rigConfig{exts: []string{"php"}}
	for _, o := range opts {
		o(&c)
	}

	files := make([]string, 0, len(c.files))
	for _, f := range c.files {
		files = append(files, tr.path(f))
	}

	logs := &bytes.Buffer{}
	log := logging.New("debug", "json", logs)

	fsys := &faultFS{FS: fs.New(nil)}
	store := snapshot.NewStore()
	scanner := NewScanner(files, []string{tr.src}, NewExtensionFilter(c.exts), fsys, store)
	require.NoError(tr.t, scanner.Seed(context.Background()))

	return &rig{
		tree:    tr,
		store:   store,
		scanner: scanner,
		poller:  NewPoller(scanner, store, &manualScheduler{}, time.Second, log),
		sink:    &recorder{},
		logs:    logs,
		fs:      fsys,
	}
}

func (r *rig) cycle() (Report, error) {
	r.sink.Reset()
	return r.poller.Cycle(context.Background(), r.sink)
}

func (r *rig) mustCycle() Report {
	r.t.Helper()
	rep, err := r.cycle()
	require.NoError(r.t, err)
	return rep
}

// faultFS injects failures into an otherwise real filesystem.
type faultFS struct {
	fs.FS

	mu         sync.Mutex
	hashErr    map[string]error
	readDirErr error
	panicOnDir bool
	hashCalls  map[string]int
}

func (f *faultFS) failHash(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hashErr == nil {
		f.hashErr = make(map[string]error)
	}
	if err == nil {
		delete(f.hashErr, path)
		return
	}
	f.hashErr[path] = err
}

func (f *faultFS) Hash(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	if f.hashCalls == nil {
		f.hashCalls = make(map[string]int)
	}
	f.hashCalls[path]++
	err := f.hashErr[path]
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	return f.FS.Hash(ctx, path)
}

func (f *faultFS) ReadDir(dir string) ([]os.DirEntry, error) {
	f.mu.Lock()
	err, boom := f.readDirErr, f.panicOnDir
	f.mu.Unlock()
	if boom {
		panic("directory iterator exploded")
	}
	if err != nil {
		return nil, err
	}
	return f.FS.ReadDir(dir)
}

func (f *faultFS) calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hashCalls[path]
}

// manualScheduler records the job and runs it only when told to.
type manualScheduler struct {
	mu        sync.Mutex
	job       func()
	interval  time.Duration
	cancelled bool
	err       error
}

func (m *manualScheduler) Every(interval time.Duration, job func()) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.job = job
	m.interval = interval
	return func() {
		m.mu.Lock()
		m.cancelled = true
		m.mu.Unlock()
	}, nil
}

func (m *manualScheduler) registered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.job != nil
}

func (m *manualScheduler) tick() {
	m.mu.Lock()
	job := m.job
	m.mu.Unlock()
	job()
}

// recorder is a sink that keeps every pushed path in order.
type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) Push(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recorder) Reset() {
	r.mu.Lock()
	r.paths = nil
	r.mu.Unlock()
}
