package consolidate

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/josephfalocco/finance-consolidation-dashboard/pkg/contracts/domain"
)

// Store publishes consolidated datasets with replace-the-reference
// semantics: readers always see either the previous complete snapshot
// or the new complete one, never a half-built dataset, and the read
// path takes no lock.
type Store struct {
	current atomic.Pointer[domain.Dataset]

	mu     sync.Mutex
	status RunStatus
}

// RunStatus describes the most recent run attempt for the dashboard's
// staleness indicator.
type RunStatus struct {
	LastAttempt time.Time `json:"last_attempt,omitempty"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	Running     bool      `json:"running"`
}

// Stale reports whether the published dataset predates a failed run.
func (s RunStatus) Stale() bool {
	return s.LastError != "" && s.LastAttempt.After(s.LastSuccess)
}

// NewStore returns an empty store. Current returns nil until the first
// successful run publishes.
func NewStore() *Store {
	return &Store{}
}

// Current returns the latest published dataset, or nil before the
// first successful run. The returned snapshot is immutable.
func (s *Store) Current() *domain.Dataset {
	return s.current.Load()
}

// Status returns a copy of the run status.
func (s *Store) Status() RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// tryBegin marks a run as started. It returns false when another run
// is already in flight.
func (s *Store) tryBegin(at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Running {
		return false
	}
	s.status.Running = true
	s.status.LastAttempt = at
	return true
}

// publish atomically swaps in the finished dataset and clears any
// previous failure.
func (s *Store) publish(ds *domain.Dataset) {
	s.current.Store(ds)
	s.mu.Lock()
	s.status.Running = false
	s.status.LastSuccess = ds.GeneratedAt
	s.status.LastError = ""
	s.mu.Unlock()
}

// fail records a failed run. The previously published dataset stays.
func (s *Store) fail(err error) {
	s.mu.Lock()
	s.status.Running = false
	s.status.LastError = err.Error()
	s.mu.Unlock()
}
