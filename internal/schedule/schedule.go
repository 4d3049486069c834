// Package schedule runs jobs at a fixed interval on top of robfig/cron.
package schedule

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raoulx24/pollwatch/internal/logging"
)

// Scheduler invokes a job once per interval until the returned cancel is called.
type Scheduler interface {
	Every(interval time.Duration, job func()) (cancel func(), err error)
}

// ErrInterval is returned for a non-positive interval.
var ErrInterval = errors.New("schedule: interval must be positive")

// Cron is a Scheduler backed by a cron.Cron.
//
// A run that is still going when the next tick arrives makes that tick skip,
// so jobs never overlap. Panics in a job are recovered and logged.
type Cron struct {
	mu      sync.Mutex
	c       *cron.Cron
	running bool
}

// New creates a stopped Cron scheduler. It starts on the first Every.
func New(log logging.Logger) *Cron {
	cl := cronLogger{log: log}
	return &Cron{
		c: cron.New(
			cron.WithLogger(cl),
			// Recover sits inside SkipIfStillRunning so a panicking run
			// still hands back the skip token
			cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
		),
	}
}

// Every registers job with an "@every" spec and starts the scheduler.
func (s *Cron) Every(interval time.Duration, job func()) (func(), error) {
	if interval <= 0 {
		return nil, ErrInterval
	}

	id, err := s.c.AddFunc(Spec(interval), job)
	if err != nil {
		return nil, fmt.Errorf("adding job: %w", err)
	}

	s.mu.Lock()
	if !s.running {
		s.c.Start()
		s.running = true
	}
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { s.c.Remove(id) }) }, nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Cron) Stop() {
	s.mu.Lock()
	running := s.running
	s.running = false
	s.mu.Unlock()

	if running {
		<-s.c.Stop().Done()
	}
}

// Spec renders interval as a cron "@every" descriptor.
func Spec(interval time.Duration) string {
	return "@every " + interval.String()
}

// cronLogger routes cron's internal logging into ours. Cron's info chatter
// (wake, run, next) is demoted to debug.
type cronLogger struct {
	log logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
