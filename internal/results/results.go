// Package results holds the most recently published dashboard snapshot.
// Date-range changes are not cancelled mid-flight; instead each
// computation takes a sequence number up front and an older computation
// that finishes late is discarded (last writer wins). This is not a
// cache: it never serves a result for a range that was not just computed.
package results

import (
	"sync"
	"time"

	"livegraphs/internal/models"
)

// Snapshot is one published dashboard computation
type Snapshot struct {
	Seq        uint64
	From, To   time.Time
	Dashboard  *models.Dashboard
	ComputedAt time.Time
}

// Store is a single-slot, sequence-guarded snapshot holder
type Store struct {
	mu     sync.Mutex
	seq    uint64
	latest *Snapshot
}

// New creates an empty result store
func New() *Store {
	return &Store{}
}

// Begin reserves a sequence number for a computation about to start
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Publish installs a finished computation unless a newer one has already
// been published. Returns false when the result was stale and dropped.
func (s *Store) Publish(seq uint64, from, to time.Time, d *models.Dashboard) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest != nil && s.latest.Seq > seq {
		return false
	}
	s.latest = &Snapshot{
		Seq:        seq,
		From:       from,
		To:         to,
		Dashboard:  d,
		ComputedAt: time.Now().UTC(),
	}
	return true
}

// Latest returns the most recently published snapshot, if any
func (s *Store) Latest() (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return nil, false
	}
	return s.latest, true
}

// Reset drops the published snapshot (used after a data clear)
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = nil
}
