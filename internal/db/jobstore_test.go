package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/secureprint/backend/internal/core"
)

// testDB opens a throwaway database file and applies the schema,
// sidestepping the process-wide singleton.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	database, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	database.SetMaxOpenConns(1)
	database.SetMaxIdleConns(1)
	if err := runMigrations(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func seedJob(t *testing.T, s *JobStore, id string, status core.JobStatus, cost float64, submitted time.Time) *core.Job {
	t.Helper()
	job := &core.Job{
		ID:           id,
		OwnerID:      "alice",
		DocumentName: id + ".pdf",
		Pages:        2,
		Copies:       1,
		Priority:     core.PriorityNormal,
		Status:       status,
		Cost:         cost,
		ReleaseToken: "tok-" + id,
		SubmittedAt:  submitted,
	}
	if err := s.Create(context.Background(), job); err != nil {
		t.Fatalf("Create %s: %v", id, err)
	}
	return job
}

func TestJobStore_CreateGet(t *testing.T) {
	s := NewJobStore(testDB(t))
	ctx := context.Background()
	submitted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedJob(t, s, "j1", core.JobStatusPending, 0.20, submitted)

	got, err := s.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.OwnerID != "alice" || got.DocumentName != "j1.pdf" || got.Cost != 0.20 {
		t.Fatalf("wrong record: %+v", got)
	}
	if got.ReleaseToken != "tok-j1" {
		t.Fatalf("token not round-tripped: %q", got.ReleaseToken)
	}
	if !got.SubmittedAt.Equal(submitted) {
		t.Fatalf("submitted_at = %v, want %v", got.SubmittedAt, submitted)
	}
	if got.ReleasedAt != nil || got.CompletedAt != nil || got.CancelledAt != nil {
		t.Fatal("optional timestamps must be nil on a fresh job")
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJobStore_Update(t *testing.T) {
	s := NewJobStore(testDB(t))
	ctx := context.Background()

	seedJob(t, s, "j1", core.JobStatusPending, 0.20, time.Now().UTC())

	released := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	updated, err := s.Update(ctx, "j1", func(job *core.Job) error {
		job.Status = core.JobStatusPrinting
		job.ReleasedAt = &released
		job.PrinterID = "printer-1"
		job.ReleasedBy = "op"
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != core.JobStatusPrinting {
		t.Fatalf("expected printing, got %s", updated.Status)
	}

	got, _ := s.Get(ctx, "j1")
	if got.Status != core.JobStatusPrinting || got.PrinterID != "printer-1" || got.ReleasedBy != "op" {
		t.Fatalf("update not persisted: %+v", got)
	}
	if got.ReleasedAt == nil || !got.ReleasedAt.Equal(released) {
		t.Fatalf("released_at = %v, want %v", got.ReleasedAt, released)
	}
}

func TestJobStore_UpdateMutatorErrorRollsBack(t *testing.T) {
	s := NewJobStore(testDB(t))
	ctx := context.Background()

	seedJob(t, s, "j1", core.JobStatusPending, 0.20, time.Now().UTC())

	_, err := s.Update(ctx, "j1", func(job *core.Job) error {
		job.Status = core.JobStatusCancelled
		return core.ErrInvalidState
	})
	if !errors.Is(err, core.ErrInvalidState) {
		t.Fatalf("expected mutator error, got %v", err)
	}

	got, _ := s.Get(ctx, "j1")
	if got.Status != core.JobStatusPending {
		t.Fatalf("failed update must not persist, got %s", got.Status)
	}

	if _, err := s.Update(ctx, "missing", func(job *core.Job) error { return nil }); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJobStore_ConcurrentReleaseSingleWinner(t *testing.T) {
	s := NewJobStore(testDB(t))
	ctx := context.Background()

	job := seedJob(t, s, "j1", core.JobStatusPending, 0.20, time.Now().UTC())
	engine := core.NewEngine(s)

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Release(ctx, job.ID, job.ReleaseToken, "printer-1", "op")
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, core.ErrInvalidState):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one winner, got %d", successes)
	}

	got, _ := s.Get(ctx, job.ID)
	if got.Status != core.JobStatusPrinting {
		t.Fatalf("expected printing after the race, got %s", got.Status)
	}
}

func TestJobStore_Delete(t *testing.T) {
	s := NewJobStore(testDB(t))
	ctx := context.Background()

	seedJob(t, s, "j1", core.JobStatusCompleted, 1.00, time.Now().UTC())

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

func TestJobStore_ListAndStats(t *testing.T) {
	s := NewJobStore(testDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedJob(t, s, "j1", core.JobStatusPending, 0.10, base)
	seedJob(t, s, "j2", core.JobStatusPrinting, 0.20, base.Add(1*time.Minute))
	seedJob(t, s, "j3", core.JobStatusCompleted, 1.50, base.Add(2*time.Minute))
	seedJob(t, s, "j4", core.JobStatusCompleted, 2.50, base.Add(3*time.Minute))

	bob := &core.Job{
		ID: "j5", OwnerID: "bob", DocumentName: "b.pdf",
		Pages: 1, Copies: 1, Priority: core.PriorityNormal,
		Status: core.JobStatusCancelled, Cost: 0.10,
		ReleaseToken: "tok-j5", SubmittedAt: base.Add(4 * time.Minute),
	}
	if err := s.Create(ctx, bob); err != nil {
		t.Fatalf("Create j5: %v", err)
	}

	all, err := s.List(ctx, core.JobFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 jobs, got %d", len(all))
	}
	if all[0].ID != "j5" || all[4].ID != "j1" {
		t.Fatalf("wrong order: %s ... %s", all[0].ID, all[4].ID)
	}

	alice, _ := s.List(ctx, core.JobFilter{OwnerID: "alice"})
	if len(alice) != 4 {
		t.Fatalf("owner filter: expected 4, got %d", len(alice))
	}

	completed, _ := s.List(ctx, core.JobFilter{Status: core.JobStatusCompleted})
	if len(completed) != 2 {
		t.Fatalf("status filter: expected 2, got %d", len(completed))
	}

	page, _ := s.List(ctx, core.JobFilter{Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].ID != "j4" || page[1].ID != "j3" {
		t.Fatalf("pagination: got %v", page)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 5 || stats.Pending != 1 || stats.Printing != 1 || stats.Completed != 2 || stats.Cancelled != 1 {
		t.Fatalf("wrong counts: %+v", stats)
	}
	if stats.TotalCost != 4.00 {
		t.Fatalf("total cost = %.2f, want 4.00", stats.TotalCost)
	}
}
