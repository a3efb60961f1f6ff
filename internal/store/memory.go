// Package store provides an in-memory JobStore used by tests and small
// single-node deployments. The SQLite-backed store in internal/db is the
// durable one.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/secureprint/backend/internal/core"
)

// MemoryStore keeps jobs in a map and serializes updates per job id. A
// short-lived store-wide mutex guards the maps themselves; the actual
// read-modify-write of an update runs under that job's own lock, so
// concurrent updates to unrelated jobs do not contend.
type MemoryStore struct {
	mu    sync.RWMutex
	jobs  map[string]*core.Job
	locks map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:  make(map[string]*core.Job),
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) Create(ctx context.Context, job *core.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &core.StorageError{Op: "create", Err: err}
	}

	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*core.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, &core.StorageError{Op: "get", Err: err}
	}

	job, ok := s.jobs[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return job.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, mutate func(*core.Job) error) (*core.Job, error) {
	lock, err := s.jobLock(id)
	if err != nil {
		return nil, err
	}

	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &core.StorageError{Op: "update", Err: err}
	}

	s.mu.RLock()
	current, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		// Deleted between jobLock and here.
		return nil, core.ErrNotFound
	}

	updated := current.Clone()
	if err := mutate(updated); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.jobs[id] = updated
	s.mu.Unlock()

	return updated.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &core.StorageError{Op: "delete", Err: err}
	}

	if _, ok := s.jobs[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.jobs, id)
	delete(s.locks, id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, filter core.JobFilter) ([]*core.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, &core.StorageError{Op: "list", Err: err}
	}

	jobs := make([]*core.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if filter.OwnerID != "" && job.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobs = append(jobs, job.Clone())
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].SubmittedAt.After(jobs[j].SubmittedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(jobs) {
			return []*core.Job{}, nil
		}
		jobs = jobs[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(jobs) {
		jobs = jobs[:filter.Limit]
	}
	return jobs, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (*core.JobStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, &core.StorageError{Op: "stats", Err: err}
	}

	stats := &core.JobStats{}
	for _, job := range s.jobs {
		stats.Total++
		switch job.Status {
		case core.JobStatusPending:
			stats.Pending++
		case core.JobStatusPrinting:
			stats.Printing++
		case core.JobStatusCompleted:
			stats.Completed++
			stats.TotalCost += job.Cost
		case core.JobStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

func (s *MemoryStore) jobLock(id string) (*sync.Mutex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return nil, core.ErrNotFound
	}
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock, nil
}
