package upload

import (
	"context"
	"sync"
	"time"

	"backend-trailforge/internal/progress"
)

// Job is one upload session: its tracker plus bookkeeping for
// eviction.
type Job struct {
	ID        string
	Filename  string
	UserID    string
	Tracker   *progress.Tracker
	CreatedAt time.Time
}

// Store maps upload ids to their jobs. Entries live for the process
// lifetime unless the implementation evicts them.
type Store interface {
	Put(job *Job)
	Get(id string) (*Job, bool)
	Delete(id string)
}

// MemoryStore is the in-process Store. With a positive TTL, Sweep
// drops jobs older than the TTL; abandoned uploads are eventually
// freed without any explicit cancellation path.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		jobs: map[string]*Job{},
		ttl:  ttl,
	}
}

func (s *MemoryStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *MemoryStore) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}

func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// Sweep removes jobs created before now minus the TTL and returns how
// many were dropped. A zero TTL disables eviction.
func (s *MemoryStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	cutoff := now.Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// Janitor sweeps on the given interval until the context is done.
func (s *MemoryStore) Janitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}
