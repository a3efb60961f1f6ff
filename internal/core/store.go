package core

import "context"

// JobFilter narrows List results. Zero values mean "no filter".
type JobFilter struct {
	OwnerID string
	Status  JobStatus
	Limit   int
	Offset  int
}

// JobStats aggregates the queue for dashboards: per-status counts plus
// the total cost of completed jobs.
type JobStats struct {
	Total     int     `json:"total"`
	Pending   int     `json:"pending"`
	Printing  int     `json:"printing"`
	Completed int     `json:"completed"`
	Cancelled int     `json:"cancelled"`
	TotalCost float64 `json:"total_cost"`
}

// JobStore is the durable record of jobs. Update must be atomic per job
// id: concurrent mutators against the same id serialize, and each mutator
// observes the state left by the previous one. Cross-job locking is not
// required; unrelated jobs must not contend on a single lock.
//
// The mutator receives a copy of the current record. If it returns an
// error the stored record is left untouched and that error is returned
// as-is; otherwise the mutated copy replaces the record and is returned.
type JobStore interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Update(ctx context.Context, id string, mutate func(*Job) error) (*Job, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter JobFilter) ([]*Job, error)
	Stats(ctx context.Context) (*JobStats, error)
}
