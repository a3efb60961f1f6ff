package core

import (
	"context"
	"errors"
)

// Job lifecycle events published to webhook subscribers.
const (
	EventJobSubmitted = "job_submitted"
	EventJobReleased  = "job_released"
	EventJobCompleted = "job_completed"
	EventJobCancelled = "job_cancelled"
)

// EventNotifier receives lifecycle events after a transition commits.
// Implementations must not block the caller.
type EventNotifier interface {
	SendJobEvent(event string, job *Job)
}

// ReleaseRequest identifies one job in a batch release, paired with its
// capability token.
type ReleaseRequest struct {
	JobID string
	Token string
}

// ReleaseResult is the per-job outcome of a batch release.
type ReleaseResult struct {
	JobID   string
	Job     *Job
	Err     error
	ErrKind string
}

// Gateway is the boundary operation terminals and release links invoke.
// It composes token validation, the lifecycle engine and the store's
// atomic update, and publishes events once a transition has committed.
type Gateway struct {
	engine   *Engine
	notifier EventNotifier
}

func NewGateway(engine *Engine, notifier EventNotifier) *Gateway {
	return &Gateway{engine: engine, notifier: notifier}
}

// Submit creates a pending job and announces it.
func (g *Gateway) Submit(ctx context.Context, req SubmitRequest) (*Job, error) {
	job, err := g.engine.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	g.notify(EventJobSubmitted, job)
	return job, nil
}

// Release performs one token-gated release.
func (g *Gateway) Release(ctx context.Context, id, token, printerID, releasedBy string) (*Job, error) {
	job, err := g.engine.Release(ctx, id, token, printerID, releasedBy)
	if err != nil {
		return nil, err
	}
	g.notify(EventJobReleased, job)
	return job, nil
}

// ReleaseAll applies Release independently to each request. A failure on
// one job never blocks or rolls back the others; callers get one result
// per id, in request order.
func (g *Gateway) ReleaseAll(ctx context.Context, reqs []ReleaseRequest, printerID, releasedBy string) []ReleaseResult {
	results := make([]ReleaseResult, 0, len(reqs))
	for _, r := range reqs {
		job, err := g.Release(ctx, r.JobID, r.Token, printerID, releasedBy)
		results = append(results, ReleaseResult{
			JobID:   r.JobID,
			Job:     job,
			Err:     err,
			ErrKind: ErrorKind(err),
		})
	}
	return results
}

// Complete fires the system completion trigger.
func (g *Gateway) Complete(ctx context.Context, id string) (*Job, error) {
	job, err := g.engine.Complete(ctx, id)
	if err != nil {
		return nil, err
	}
	g.notify(EventJobCompleted, job)
	return job, nil
}

// Cancel withdraws a pending job on the owner's behalf.
func (g *Gateway) Cancel(ctx context.Context, id string) (*Job, error) {
	job, err := g.engine.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	g.notify(EventJobCancelled, job)
	return job, nil
}

func (g *Gateway) notify(event string, job *Job) {
	if g.notifier != nil {
		g.notifier.SendJobEvent(event, job)
	}
}

// ErrorKind names the failure taxonomy bucket for an error, for per-item
// batch reporting and HTTP mapping.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	default:
		var ve *ValidationError
		if errors.As(err, &ve) {
			return "validation_error"
		}
		return "storage_error"
	}
}
