package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raoulx24/pollwatch/internal/config"
	"github.com/raoulx24/pollwatch/internal/fs"
	"github.com/raoulx24/pollwatch/internal/logging"
	"github.com/raoulx24/pollwatch/internal/notify"
	"github.com/raoulx24/pollwatch/internal/schedule"
	"github.com/raoulx24/pollwatch/internal/snapshot"
)

// Poller detects changes by rescanning the targets on every scheduler tick.
type Poller struct {
	scanner  *Scanner
	store    *snapshot.Store
	sched    schedule.Scheduler
	interval time.Duration
	log      logging.Logger
}

// Report is what one cycle saw and what it pushed to the sink.
type Report struct {
	Result
	// Emitted lists the pushed paths in push order.
	Emitted []string
	// Suppressed is set when deletions gated changed files out of the cycle.
	Suppressed bool
}

// NewPoller wires a poller around an existing scanner and store.
// The store must already be seeded.
func NewPoller(scanner *Scanner, store *snapshot.Store, sched schedule.Scheduler, interval time.Duration, log logging.Logger) *Poller {
	return &Poller{
		scanner:  scanner,
		store:    store,
		sched:    sched,
		interval: interval,
		log:      log,
	}
}

// Store exposes the snapshot store, e.g. to print the seeded baseline.
func (p *Poller) Store() *snapshot.Store {
	return p.store
}

// Watch registers Cycle with the scheduler and blocks until ctx is done.
// A failing cycle never stops the schedule.
func (p *Poller) Watch(ctx context.Context, sink notify.Sink) error {
	cancel, err := p.sched.Every(p.interval, func() {
		_, _ = p.Cycle(ctx, sink)
	})
	if err != nil {
		return fmt.Errorf("scheduling scan: %w", err)
	}
	defer cancel()

	p.log.Info("polling watcher started",
		"interval", p.interval.String(),
		"files", len(p.scanner.files),
		"dirs", len(p.scanner.dirs),
		"extensions", p.scanner.filter.String(),
		"baseline", p.store.LastLen(),
	)

	<-ctx.Done()
	p.log.Info("polling watcher stopped")
	return nil
}

// Cycle scans once, promotes the snapshot and pushes the accepted changes
// to sink. Added files are always pushed. Changed files are withheld when
// anything was deleted, since a deletion usually needs a full restart.
//
// A failed scan is logged as critical, pushes nothing and leaves the
// baseline untouched for the next cycle. A scan cut short by cancellation
// is aborted the same way but only logged at info. The baseline is promoted
// before pushing, so a failing sink loses the rest of the cycle's paths
// instead of replaying them next time.
func (p *Poller) Cycle(ctx context.Context, sink notify.Sink) (Report, error) {
	id := uuid.NewString()

	res, err := p.scan(ctx)
	if err != nil {
		p.store.Abort()
		if errors.Is(err, context.Canceled) {
			p.log.Info("watch cycle cancelled, baseline kept", "cycle", id)
		} else {
			p.log.Critical("watch cycle failed, baseline kept", "cycle", id, "error", err.Error())
		}
		return Report{}, err
	}
	rep := Report{Result: res}

	p.log.Debug("watching",
		"cycle", id,
		"total", res.Total,
		"changed", len(res.Changed),
		"added", len(res.Added),
		"deleted", len(res.Deleted),
	)

	emit := append([]string(nil), res.Added...)
	if len(res.Deleted) == 0 {
		emit = append(emit, res.Changed...)
	} else {
		rep.Suppressed = true
		p.log.Warn("files deleted, restart manually for the change to take effect",
			"cycle", id,
			"deleted", res.Deleted,
			"withheld", len(res.Changed),
		)
	}

	p.store.Promote()

	rep.Emitted, err = push(sink, emit)
	if err != nil {
		p.log.Error("notification sink failed",
			"cycle", id,
			"pushed", len(rep.Emitted),
			"dropped", len(emit)-len(rep.Emitted),
			"error", err.Error(),
		)
		return rep, err
	}
	return rep, nil
}

// scan runs the scanner, turning a panic into an error.
func (p *Poller) scan(ctx context.Context) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.scanner.Scan(ctx)
}

// push hands paths to sink in order and reports the ones it accepted.
func push(sink notify.Sink, paths []string) (pushed []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	for _, path := range paths {
		sink.Push(path)
		pushed = append(pushed, path)
	}
	return pushed, nil
}

// NewPollerFromConfig builds the scanner stack and seeds the baseline.
// sched may be nil when the poller is only used for its baseline.
func NewPollerFromConfig(ctx context.Context, cfg config.WatchConfig, sched schedule.Scheduler, log logging.Logger) (*Poller, error) {
	h, err := fs.HasherByName(cfg.Hash)
	if err != nil {
		return nil, err
	}

	store := snapshot.NewStore()
	scanner := NewScanner(cfg.Files, cfg.Dirs, NewExtensionFilter(cfg.Extensions), fs.New(h), store)

	start := time.Now()
	if err := scanner.Seed(ctx); err != nil {
		return nil, err
	}
	log.Debug("baseline seeded", "files", store.LastLen(), "hash", h.Name(), "took", time.Since(start).String())

	return NewPoller(scanner, store, sched, cfg.Interval(), log), nil
}
