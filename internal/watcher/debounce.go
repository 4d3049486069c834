package watcher

import (
	"sync"
	"time"

	"github.com/raoulx24/pollwatch/internal/notify"
)

// debouncer coalesces bursts of events on the same path into one push.
type debouncer struct {
	window time.Duration
	sink   notify.Sink

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
}

func newDebouncer(window time.Duration, sink notify.Sink) *debouncer {
	return &debouncer{
		window:  window,
		sink:    sink,
		pending: make(map[string]*time.Timer),
	}
}

func (d *debouncer) add(path string) {
	if d.window <= 0 {
		d.sink.Push(path)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if t, ok := d.pending[path]; ok {
		t.Reset(d.window)
		return
	}
	d.pending[path] = time.AfterFunc(d.window, func() { d.fire(path) })
}

func (d *debouncer) fire(path string) {
	d.mu.Lock()
	_, ok := d.pending[path]
	delete(d.pending, path)
	stopped := d.stopped
	d.mu.Unlock()

	if ok && !stopped {
		d.sink.Push(path)
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for _, t := range d.pending {
		t.Stop()
	}
	d.pending = make(map[string]*time.Timer)
}
