package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SubmitRequest carries the validated print parameters for a new job.
// The owner id is opaque; authenticating the submitting user is the
// calling environment's job.
type SubmitRequest struct {
	OwnerID      string
	DocumentName string
	Pages        int
	Copies       int
	Color        bool
	Duplex       bool
	Stapling     bool
	Priority     Priority
	Notes        string
}

func (r *SubmitRequest) validate() error {
	if r.OwnerID == "" {
		return &ValidationError{Field: "owner_id", Reason: "required"}
	}
	if r.DocumentName == "" {
		return &ValidationError{Field: "document_name", Reason: "required"}
	}
	if r.Pages < 1 {
		return &ValidationError{Field: "pages", Reason: "must be a positive integer"}
	}
	if r.Copies < 1 {
		return &ValidationError{Field: "copies", Reason: "must be a positive integer"}
	}
	if r.Priority == "" {
		r.Priority = PriorityNormal
	}
	if !ValidPriority(r.Priority) {
		return &ValidationError{Field: "priority", Reason: "must be one of low, normal, high, urgent"}
	}
	return nil
}

// Engine enforces the job state machine:
//
//	pending -> printing -> completed
//	pending -> cancelled
//
// Release is the only transition gated by the capability token, because
// it is the only one performed by a weakly-authenticated party at the
// terminal. Completed and cancelled are absorbing; a printing job cannot
// be cancelled. Every rejected transition leaves the record unchanged.
type Engine struct {
	store    JobStore
	now      func() time.Time
	newToken func() (string, error)
}

func NewEngine(store JobStore) *Engine {
	return &Engine{
		store:    store,
		now:      time.Now,
		newToken: NewReleaseToken,
	}
}

// Submit validates the request, prices it, issues the release capability
// and persists the new pending job.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*Job, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	token, err := e.newToken()
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:           uuid.NewString(),
		OwnerID:      req.OwnerID,
		DocumentName: req.DocumentName,
		Pages:        req.Pages,
		Copies:       req.Copies,
		Color:        req.Color,
		Duplex:       req.Duplex,
		Stapling:     req.Stapling,
		Priority:     req.Priority,
		Notes:        req.Notes,
		Status:       JobStatusPending,
		Cost:         ComputeCost(req.Pages, req.Copies, req.Color, req.Duplex),
		ReleaseToken: token,
		SubmittedAt:  e.now().UTC(),
	}

	if err := e.store.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Release transitions pending -> printing if the presented token matches.
// The status guard runs before the token check so that a replay against
// an already-released job reports InvalidState, not Unauthorized, and
// release-time side effects can never fire twice.
func (e *Engine) Release(ctx context.Context, id, token, printerID, releasedBy string) (*Job, error) {
	return e.store.Update(ctx, id, func(job *Job) error {
		if job.Status != JobStatusPending {
			return ErrInvalidState
		}
		if !TokenMatches(token, job.ReleaseToken) {
			return ErrUnauthorized
		}
		now := e.now().UTC()
		job.Status = JobStatusPrinting
		job.ReleasedAt = &now
		job.PrinterID = printerID
		job.ReleasedBy = releasedBy
		return nil
	})
}

// Complete transitions printing -> completed. Not token-gated: it is a
// system trigger, fired by whatever scheduler the deployment uses. The
// engine deliberately owns no timer.
func (e *Engine) Complete(ctx context.Context, id string) (*Job, error) {
	return e.store.Update(ctx, id, func(job *Job) error {
		if job.Status != JobStatusPrinting {
			return ErrInvalidState
		}
		now := e.now().UTC()
		job.Status = JobStatusCompleted
		job.CompletedAt = &now
		return nil
	})
}

// Cancel transitions pending -> cancelled. Only the pre-release window
// allows cancellation; once a job is at the printer it runs to completion.
func (e *Engine) Cancel(ctx context.Context, id string) (*Job, error) {
	return e.store.Update(ctx, id, func(job *Job) error {
		if job.Status != JobStatusPending {
			return ErrInvalidState
		}
		now := e.now().UTC()
		job.Status = JobStatusCancelled
		job.CancelledAt = &now
		return nil
	})
}

// Fetch returns the full record when no token is supplied or the supplied
// token matches; a wrong token is rejected without revealing the record.
func (e *Engine) Fetch(ctx context.Context, id, token string) (*Job, error) {
	job, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if token != "" && !TokenMatches(token, job.ReleaseToken) {
		return nil, ErrUnauthorized
	}
	return job, nil
}
