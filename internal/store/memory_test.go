package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/secureprint/backend/internal/core"
)

func makeJob(id, owner string, status core.JobStatus, cost float64, submitted time.Time) *core.Job {
	return &core.Job{
		ID:           id,
		OwnerID:      owner,
		DocumentName: id + ".pdf",
		Pages:        1,
		Copies:       1,
		Priority:     core.PriorityNormal,
		Status:       status,
		Cost:         cost,
		ReleaseToken: "tok-" + id,
		SubmittedAt:  submitted,
	}
}

func TestMemoryStore_CreateGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	job := makeJob("j1", "alice", core.JobStatusPending, 0.10, time.Now().UTC())
	if err := s.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.OwnerID != "alice" || got.ReleaseToken != "tok-j1" {
		t.Fatalf("wrong record: %+v", got)
	}

	// The store hands out copies; mutating one must not leak back.
	got.Status = core.JobStatusCompleted
	again, _ := s.Get(ctx, "j1")
	if again.Status != core.JobStatusPending {
		t.Fatal("Get must return an isolated copy")
	}

	if _, err := s.Get(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_Update(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Create(ctx, makeJob("j1", "alice", core.JobStatusPending, 0.10, time.Now().UTC())); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := s.Update(ctx, "j1", func(job *core.Job) error {
		job.Status = core.JobStatusPrinting
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != core.JobStatusPrinting {
		t.Fatalf("expected printing, got %s", updated.Status)
	}

	// A mutator error leaves the stored record untouched.
	boom := errors.New("boom")
	if _, err := s.Update(ctx, "j1", func(job *core.Job) error {
		job.Status = core.JobStatusCancelled
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected mutator error, got %v", err)
	}
	got, _ := s.Get(ctx, "j1")
	if got.Status != core.JobStatusPrinting {
		t.Fatalf("failed update must not persist, got %s", got.Status)
	}

	if _, err := s.Update(ctx, "nope", func(job *core.Job) error { return nil }); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_UpdateSerialized(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Create(ctx, makeJob("j1", "alice", core.JobStatusPending, 0.10, time.Now().UTC())); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Each goroutine increments pages by one inside the mutator. With
	// per-id serialization no increment can be lost.
	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "j1", func(job *core.Job) error {
				job.Pages++
				return nil
			})
			if err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := s.Get(ctx, "j1")
	if got.Pages != 1+n {
		t.Fatalf("lost updates: pages = %d, want %d", got.Pages, 1+n)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Create(ctx, makeJob("j1", "alice", core.JobStatusCompleted, 1.00, time.Now().UTC())); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete(ctx, "j1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "j1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "j1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestMemoryStore_List(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := []*core.Job{
		makeJob("j1", "alice", core.JobStatusPending, 0.10, base),
		makeJob("j2", "bob", core.JobStatusPending, 0.20, base.Add(1*time.Minute)),
		makeJob("j3", "alice", core.JobStatusCompleted, 0.30, base.Add(2*time.Minute)),
		makeJob("j4", "alice", core.JobStatusCancelled, 0.40, base.Add(3*time.Minute)),
	}
	for _, job := range seed {
		if err := s.Create(ctx, job); err != nil {
			t.Fatalf("Create %s: %v", job.ID, err)
		}
	}

	all, err := s.List(ctx, core.JobFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 jobs, got %d", len(all))
	}
	// Newest first.
	if all[0].ID != "j4" || all[3].ID != "j1" {
		t.Fatalf("wrong order: %s ... %s", all[0].ID, all[3].ID)
	}

	byOwner, _ := s.List(ctx, core.JobFilter{OwnerID: "alice"})
	if len(byOwner) != 3 {
		t.Fatalf("owner filter: expected 3, got %d", len(byOwner))
	}

	byStatus, _ := s.List(ctx, core.JobFilter{Status: core.JobStatusPending})
	if len(byStatus) != 2 {
		t.Fatalf("status filter: expected 2, got %d", len(byStatus))
	}

	both, _ := s.List(ctx, core.JobFilter{OwnerID: "alice", Status: core.JobStatusPending})
	if len(both) != 1 || both[0].ID != "j1" {
		t.Fatalf("combined filter: got %v", both)
	}

	page, _ := s.List(ctx, core.JobFilter{Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].ID != "j3" || page[1].ID != "j2" {
		t.Fatalf("pagination: got %v", page)
	}

	past, _ := s.List(ctx, core.JobFilter{Offset: 10})
	if len(past) != 0 {
		t.Fatalf("offset past end: expected empty, got %d", len(past))
	}
}

func TestMemoryStore_Stats(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	seed := []*core.Job{
		makeJob("j1", "alice", core.JobStatusPending, 0.10, now),
		makeJob("j2", "bob", core.JobStatusPrinting, 0.20, now),
		makeJob("j3", "alice", core.JobStatusCompleted, 1.50, now),
		makeJob("j4", "bob", core.JobStatusCompleted, 2.50, now),
		makeJob("j5", "alice", core.JobStatusCancelled, 0.40, now),
	}
	for _, job := range seed {
		if err := s.Create(ctx, job); err != nil {
			t.Fatalf("Create %s: %v", job.ID, err)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 5 || stats.Pending != 1 || stats.Printing != 1 || stats.Completed != 2 || stats.Cancelled != 1 {
		t.Fatalf("wrong counts: %+v", stats)
	}
	// Only completed jobs count toward revenue.
	if stats.TotalCost != 4.00 {
		t.Fatalf("total cost = %.2f, want 4.00", stats.TotalCost)
	}
}
