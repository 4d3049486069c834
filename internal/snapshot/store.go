package snapshot

import (
	"sync"
	"time"
)

// Store keeps two generations of records: last, confirmed by the previous
// successful cycle, and current, being assembled by the running one.
//
// Only the active scan mutates the store. The mutex makes the read accessors
// safe for observers on other goroutines.
type Store struct {
	mu      sync.RWMutex
	last    Snapshot
	current Snapshot
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		last:    Snapshot{},
		current: Snapshot{},
	}
}

// Seed loads the baseline. It replaces whatever was there and never
// produces classification results.
func (s *Store) Seed(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = make(Snapshot, len(records))
	for _, r := range records {
		s.last[r.Path] = r
	}
	s.current = Snapshot{}
}

// BeginCycle guarantees current starts empty.
func (s *Store) BeginCycle() {
	s.mu.Lock()
	if len(s.current) > 0 {
		s.current = Snapshot{}
	}
	s.mu.Unlock()
}

// Observe records path with its mtime in current. An empty hash is filled
// in later through SetHash.
func (s *Store) Observe(path string, mtime time.Time, hash string) {
	s.mu.Lock()
	s.current[path] = Record{Path: path, ModTime: mtime, Hash: hash}
	s.mu.Unlock()
}

// SetHash attaches a content hash to an already observed path.
func (s *Store) SetHash(path, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.current[path]
	if !ok {
		return
	}
	r.Hash = hash
	s.current[path] = r
}

// Observed reports whether path was already seen in this cycle.
func (s *Store) Observed(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.current[path]
	return ok
}

// Last returns the baseline record for path.
func (s *Store) Last(path string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.last[path]
	return r, ok
}

// Deleted returns the baseline paths not observed in this cycle.
func (s *Store) Deleted() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last.Missing(s.current)
}

// Promote makes current the new baseline and clears current.
// Call it only after a cycle completed without error.
func (s *Store) Promote() {
	s.mu.Lock()
	s.last = s.current
	s.current = Snapshot{}
	s.mu.Unlock()
}

// Abort drops the records of a failed cycle and leaves the baseline alone.
func (s *Store) Abort() {
	s.mu.Lock()
	s.current = Snapshot{}
	s.mu.Unlock()
}

// Len is the number of paths observed in the running cycle.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.current)
}

// LastLen is the number of paths in the baseline.
func (s *Store) LastLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.last)
}

// Baseline returns a copy of the last snapshot.
func (s *Store) Baseline() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last.clone()
}
