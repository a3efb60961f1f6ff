package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/secureprint/backend/internal/core"
)

// JobStore is the SQLite-backed core.JobStore. Update runs the mutator
// inside a transaction so a concurrent release against the same job id
// either sees pending and wins, or sees the post-transition row and is
// rejected by the mutator's guard. The pool is configured single-writer
// (see Init), which SQLite requires anyway.
type JobStore struct {
	db *sql.DB
}

func NewJobStore(database *sql.DB) *JobStore {
	return &JobStore{db: database}
}

func (s *JobStore) Create(ctx context.Context, job *core.Job) error {
	_, err := s.db.ExecContext(ctx, InsertJob,
		job.ID, job.OwnerID, job.DocumentName, job.Pages, job.Copies,
		job.Color, job.Duplex, job.Stapling, string(job.Priority), job.Notes,
		string(job.Status), job.Cost, job.ReleaseToken, job.SubmittedAt,
		job.ReleasedAt, job.CompletedAt, job.CancelledAt,
		job.PrinterID, job.ReleasedBy)
	if err != nil {
		return &core.StorageError{Op: "create", Err: err}
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*core.Job, error) {
	row := s.db.QueryRowContext(ctx, GetJobByID, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, &core.StorageError{Op: "get", Err: err}
	}
	return job, nil
}

func (s *JobStore) Update(ctx context.Context, id string, mutate func(*core.Job) error) (*core.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &core.StorageError{Op: "update", Err: err}
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, GetJobByID, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, &core.StorageError{Op: "update", Err: err}
	}

	// Mutator errors roll the transaction back untouched.
	if err := mutate(job); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, UpdateJob,
		string(job.Status), job.ReleasedAt, job.CompletedAt, job.CancelledAt,
		job.PrinterID, job.ReleasedBy, job.ID)
	if err != nil {
		return nil, &core.StorageError{Op: "update", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &core.StorageError{Op: "update", Err: err}
	}
	return job, nil
}

func (s *JobStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, DeleteJob, id)
	if err != nil {
		return &core.StorageError{Op: "delete", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &core.StorageError{Op: "delete", Err: err}
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *JobStore) List(ctx context.Context, filter core.JobFilter) ([]*core.Job, error) {
	var conditions []string
	var args []interface{}

	if filter.OwnerID != "" {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := "SELECT " + jobColumns + " FROM jobs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY submitted_at DESC"

	limit := 100
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	var jobs []*core.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, &core.StorageError{Op: "list", Err: err}
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list", Err: err}
	}
	return jobs, nil
}

func (s *JobStore) Stats(ctx context.Context) (*core.JobStats, error) {
	rows, err := s.db.QueryContext(ctx, CountJobsByStatus)
	if err != nil {
		return nil, &core.StorageError{Op: "stats", Err: err}
	}
	defer rows.Close()

	stats := &core.JobStats{}
	for rows.Next() {
		var status string
		var count int
		var cost float64
		if err := rows.Scan(&status, &count, &cost); err != nil {
			return nil, &core.StorageError{Op: "stats", Err: err}
		}
		stats.Total += count
		switch core.JobStatus(status) {
		case core.JobStatusPending:
			stats.Pending = count
		case core.JobStatusPrinting:
			stats.Printing = count
		case core.JobStatusCompleted:
			stats.Completed = count
			stats.TotalCost = cost
		case core.JobStatusCancelled:
			stats.Cancelled = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "stats", Err: err}
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*core.Job, error) {
	job := &core.Job{}
	var priority, status string
	var releasedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&job.ID, &job.OwnerID, &job.DocumentName, &job.Pages, &job.Copies,
		&job.Color, &job.Duplex, &job.Stapling, &priority, &job.Notes,
		&status, &job.Cost, &job.ReleaseToken, &job.SubmittedAt,
		&releasedAt, &completedAt, &cancelledAt,
		&job.PrinterID, &job.ReleasedBy)
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	job.Priority = core.Priority(priority)
	job.Status = core.JobStatus(status)
	if releasedAt.Valid {
		job.ReleasedAt = &releasedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	if cancelledAt.Valid {
		job.CancelledAt = &cancelledAt.Time
	}
	return job, nil
}
