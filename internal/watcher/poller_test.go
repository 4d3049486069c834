package watcher

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/pollwatch/internal/config"
	"github.com/raoulx24/pollwatch/internal/logging"
	"github.com/raoulx24/pollwatch/internal/notify"
)

// Walks the four-cycle reload story: add, touch, edit, delete while editing.
func TestCycleScenario(t *testing.T) {
	tr := newTree(t)
	a := tr.write("src/a.php", "<?php return 1;", epoch)
	r := newRig(tr)

	rec, ok := r.store.Last(a)
	require.True(t, ok)
	assert.Equal(t, md5hex("<?php return 1;"), rec.Hash)

	// cycle 1: a new file appears
	b := tr.write("src/b.php", "<?php return 2;", epoch)
	rep := r.mustCycle()
	assert.Equal(t, []string{b}, rep.Added)
	assert.Empty(t, rep.Changed)
	assert.Equal(t, []string{b}, r.sink.Paths())

	// cycle 2: a is touched without changing bytes
	tr.touch("src/a.php", epoch.Add(time.Minute))
	rep = r.mustCycle()
	assert.Empty(t, rep.Changed)
	assert.Empty(t, r.sink.Paths())

	// cycle 3: a is edited
	tr.write("src/a.php", "<?php return 3;", epoch.Add(2*time.Minute))
	rep = r.mustCycle()
	assert.Equal(t, []string{a}, rep.Changed)
	assert.Equal(t, []string{a}, r.sink.Paths())

	// cycle 4: b is deleted while a is edited again
	tr.remove("src/b.php")
	tr.write("src/a.php", "<?php return 4;", epoch.Add(3*time.Minute))
	rep = r.mustCycle()
	assert.Equal(t, []string{b}, rep.Deleted)
	assert.Equal(t, []string{a}, rep.Changed, "classification still sees the change")
	assert.True(t, rep.Suppressed)
	assert.Empty(t, rep.Emitted)
	assert.Empty(t, r.sink.Paths())
	assert.Contains(t, r.logs.String(), "restart manually")

	rec, ok = r.store.Last(a)
	require.True(t, ok)
	assert.Equal(t, md5hex("<?php return 4;"), rec.Hash, "baseline advances even when changes are withheld")
	_, ok = r.store.Last(b)
	assert.False(t, ok)

	// cycle 5: quiet again
	rep = r.mustCycle()
	assert.Empty(t, rep.Changed)
	assert.Empty(t, rep.Added)
	assert.Empty(t, rep.Deleted)
	assert.False(t, rep.Suppressed)
}

func TestDeletionGatingStillEmitsAdditions(t *testing.T) {
	tr := newTree(t)
	tr.write("src/a.php", "a1", epoch)
	tr.write("src/old.php", "old", epoch)
	r := newRig(tr)

	tr.remove("src/old.php")
	tr.write("src/a.php", "a2", epoch.Add(time.Minute))
	added := tr.write("src/new.php", "new", epoch)

	rep := r.mustCycle()
	assert.Equal(t, []string{added}, r.sink.Paths())
	assert.Equal(t, []string{added}, rep.Emitted)
	assert.True(t, rep.Suppressed)
}

func TestPushOrderIsAddedThenChanged(t *testing.T) {
	tr := newTree(t)
	a := tr.write("src/a.php", "a1", epoch)
	r := newRig(tr)

	tr.write("src/a.php", "a2", epoch.Add(time.Minute))
	z := tr.write("src/z.php", "z", epoch)

	r.mustCycle()
	assert.Equal(t, []string{z, a}, r.sink.Paths())
}

func TestSummaryLoggedAtDebug(t *testing.T) {
	tr := newTree(t)
	tr.write("src/a.php", "a", epoch)
	r := newRig(tr)
	tr.write("src/b.php", "b", epoch)

	r.mustCycle()
	out := r.logs.String()
	assert.Contains(t, out, `"message":"watching"`)
	assert.Contains(t, out, `"total":2`)
	assert.Contains(t, out, `"added":1`)
	assert.Contains(t, out, `"changed":0`)
	assert.Contains(t, out, `"deleted":0`)
}

func TestFailedCycleKeepsBaselineAndEmitsNothing(t *testing.T) {
	tr := newTree(t)
	a := tr.write("src/a.php", "v1", epoch)
	r := newRig(tr)

	tr.write("src/a.php", "v2", epoch.Add(time.Minute))
	tr.write("src/new.php", "n", epoch)
	r.fs.failHash(a, errors.New("read: input/output error"))

	rep, err := r.cycle()
	require.Error(t, err)
	assert.Empty(t, rep.Emitted)
	assert.Empty(t, r.sink.Paths())
	assert.Contains(t, r.logs.String(), `"level":"fatal"`)
	assert.Equal(t, 0, r.store.Len())

	rec, ok := r.store.Last(a)
	require.True(t, ok)
	assert.Equal(t, md5hex("v1"), rec.Hash)
	assert.Equal(t, 1, r.store.LastLen())

	// next tick retries against the untouched baseline
	r.fs.failHash(a, nil)
	rep, err = r.cycle()
	require.NoError(t, err)
	assert.Equal(t, []string{a}, rep.Changed)
	assert.Len(t, rep.Added, 1)
}

func TestUnreadableDirectoryFailsCycle(t *testing.T) {
	tr := newTree(t)
	tr.write("src/a.php", "a", epoch)
	r := newRig(tr)

	r.fs.mu.Lock()
	r.fs.readDirErr = errors.New("permission denied")
	r.fs.mu.Unlock()

	_, err := r.cycle()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading")
	assert.Equal(t, 1, r.store.LastLen())
}

func TestPanicInScanIsContained(t *testing.T) {
	tr := newTree(t)
	tr.write("src/a.php", "a", epoch)
	r := newRig(tr)

	r.fs.mu.Lock()
	r.fs.panicOnDir = true
	r.fs.mu.Unlock()

	var err error
	assert.NotPanics(t, func() { _, err = r.cycle() })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
	assert.Equal(t, 1, r.store.LastLen())
}

func TestWatchRunsCyclesOnSchedulerTicks(t *testing.T) {
	tr := newTree(t)
	tr.write("src/a.php", "a", epoch)
	r := newRig(tr)
	sched := &manualScheduler{}
	r.poller.sched = sched

	ctx, cancel := context.WithCancel(context.Background())
	q := notify.NewQueue[string]()
	done := make(chan error, 1)
	go func() { done <- r.poller.Watch(ctx, q) }()

	require.Eventually(t, sched.registered, time.Second, 5*time.Millisecond)
	assert.Equal(t, time.Second, sched.interval)

	added := tr.write("src/b.php", "b", epoch)
	sched.tick()

	got, ok := q.TryTake()
	require.True(t, ok)
	assert.Equal(t, added, got)

	// a failing tick does not end Watch
	r.fs.failHash(tr.path("src/c.php"), errors.New("gone"))
	tr.write("src/c.php", "c", epoch)
	sched.tick()
	assert.Equal(t, 0, q.Len())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not return after cancel")
	}
	assert.True(t, sched.cancelled)
}

func TestWatchReportsSchedulerError(t *testing.T) {
	tr := newTree(t)
	tr.write("src/a.php", "a", epoch)
	r := newRig(tr)
	r.poller.sched = &manualScheduler{err: errors.New("no timers")}

	err := r.poller.Watch(context.Background(), &recorder{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no timers")
}

func TestNewSelectsVariantByMode(t *testing.T) {
	tr := newTree(t)
	tr.write("src/a.php", "a", epoch)

	cfg := config.WatchConfig{
		Mode:         config.ModePoll,
		Extensions:   []string{"php"},
		Dirs:         []string{tr.src},
		ScanInterval: 1,
		Hash:         "xxh3",
	}

	w, err := New(context.Background(), cfg, &manualScheduler{}, logging.Nop())
	require.NoError(t, err)
	p, ok := w.(*Poller)
	require.True(t, ok)
	assert.Equal(t, 1, p.Store().LastLen())
	assert.Equal(t, time.Second, p.interval)

	cfg.Mode = config.ModeFsnotify
	w, err = New(context.Background(), cfg, &manualScheduler{}, logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Notifier{}, w)

	cfg.Mode = "inotify"
	_, err = New(context.Background(), cfg, &manualScheduler{}, logging.Nop())
	assert.Error(t, err)
}

func TestNewPollFailsOnMissingDirectory(t *testing.T) {
	tr := newTree(t)
	cfg := config.WatchConfig{
		Mode:         config.ModePoll,
		Extensions:   []string{"php"},
		Dirs:         []string{tr.path("absent")},
		ScanInterval: 1,
		Hash:         "md5",
	}

	_, err := New(context.Background(), cfg, &manualScheduler{}, logging.Nop())
	require.Error(t, err)
}

func TestProbeDirsIncludesParentsOfFiles(t *testing.T) {
	cfg := config.WatchConfig{
		Dirs:  []string{"/srv/src", "/srv/conf"},
		Files: []string{"/srv/conf/app.ini", "/srv/.env"},
	}
	assert.Equal(t, []string{"/srv/src", "/srv/conf", "/srv"}, probeDirs(cfg))
}

// failingSink accepts pushes until it reaches limit, then panics.
type failingSink struct {
	limit  int
	pushed []string
}

func (s *failingSink) Push(path string) {
	if len(s.pushed) == s.limit {
		panic("sink closed")
	}
	s.pushed = append(s.pushed, path)
}

func TestSinkFailurePromotesAndDoesNotReplay(t *testing.T) {
	tr := newTree(t)
	tr.write("src/a.php", "a", epoch)
	r := newRig(tr)

	b := tr.write("src/b.php", "b", epoch)
	c := tr.write("src/c.php", "c", epoch)

	sink := &failingSink{limit: 1}
	rep, err := r.poller.Cycle(context.Background(), sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink panic")
	assert.Equal(t, []string{b}, sink.pushed)
	assert.Equal(t, []string{b}, rep.Emitted)
	assert.Equal(t, []string{b, c}, rep.Added)
	assert.NotContains(t, r.logs.String(), `"level":"fatal"`)
	assert.Contains(t, r.logs.String(), "notification sink failed")

	assert.Equal(t, 3, r.store.LastLen(), "scan succeeded, so the baseline advances")
	assert.Equal(t, 0, r.store.Len())

	rep = r.mustCycle()
	assert.Empty(t, rep.Added)
	assert.Empty(t, r.sink.Paths(), "delivered paths are not pushed again")
}

func TestCancelledCycleIsAbortedQuietly(t *testing.T) {
	tr := newTree(t)
	a := tr.write("src/a.php", "v1", epoch)
	r := newRig(tr)

	tr.write("src/a.php", "v2", epoch.Add(time.Minute))
	r.fs.failHash(a, fmt.Errorf("hash %s: %w", a, context.Canceled))

	rep, err := r.cycle()
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rep.Emitted)
	assert.Empty(t, r.sink.Paths())
	assert.NotContains(t, r.logs.String(), `"level":"fatal"`)
	assert.Contains(t, r.logs.String(), "watch cycle cancelled")

	rec, ok := r.store.Last(a)
	require.True(t, ok)
	assert.Equal(t, md5hex("v1"), rec.Hash)
}
