package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/secureprint/backend/internal/core"
)

type SubmitJobRequest struct {
	OwnerID      string `json:"owner_id" binding:"required"`
	DocumentName string `json:"document_name" binding:"required"`
	Pages        int    `json:"pages" binding:"required"`
	Copies       int    `json:"copies"`
	Color        bool   `json:"color"`
	Duplex       bool   `json:"duplex"`
	Stapling     bool   `json:"stapling"`
	Priority     string `json:"priority"`
	Notes        string `json:"notes"`
}

type ReleaseJobRequest struct {
	Token      string `json:"token" binding:"required"`
	PrinterID  string `json:"printer_id"`
	ReleasedBy string `json:"released_by"`
}

type ReleaseAllRequest struct {
	Jobs       []ReleaseAllEntry `json:"jobs" binding:"required"`
	PrinterID  string            `json:"printer_id"`
	ReleasedBy string            `json:"released_by"`
}

type ReleaseAllEntry struct {
	ID    string `json:"id" binding:"required"`
	Token string `json:"token"`
}

type ReleaseAllResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type ListJobsQuery struct {
	OwnerID string `form:"owner_id"`
	Status  string `form:"status"`
	Limit   int    `form:"limit" binding:"max=100"`
	Offset  int    `form:"offset"`
}

type JobResponse struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	DocumentName string     `json:"document_name"`
	Pages        int        `json:"pages"`
	Copies       int        `json:"copies"`
	Color        bool       `json:"color"`
	Duplex       bool       `json:"duplex"`
	Stapling     bool       `json:"stapling"`
	Priority     string     `json:"priority"`
	Notes        string     `json:"notes,omitempty"`
	Status       string     `json:"status"`
	Cost         float64    `json:"cost"`
	ReleaseToken string     `json:"release_token,omitempty"`
	ReleaseLink  string     `json:"release_link,omitempty"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	ReleasedAt   *time.Time `json:"released_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	PrinterID    string     `json:"printer_id,omitempty"`
	ReleasedBy   string     `json:"released_by,omitempty"`
}

type JobHandler struct {
	store   core.JobStore
	engine  *core.Engine
	gateway *core.Gateway
	baseURL string
}

func NewJobHandler(store core.JobStore, engine *core.Engine, gateway *core.Gateway, baseURL string) *JobHandler {
	return &JobHandler{
		store:   store,
		engine:  engine,
		gateway: gateway,
		baseURL: baseURL,
	}
}

func (h *JobHandler) SubmitJob(c *gin.Context) {
	var req SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Copies == 0 {
		req.Copies = 1
	}

	job, err := h.gateway.Submit(c.Request.Context(), core.SubmitRequest{
		OwnerID:      req.OwnerID,
		DocumentName: req.DocumentName,
		Pages:        req.Pages,
		Copies:       req.Copies,
		Color:        req.Color,
		Duplex:       req.Duplex,
		Stapling:     req.Stapling,
		Priority:     core.Priority(req.Priority),
		Notes:        req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	// The one place the capability leaves the server: the submitter gets
	// the token and link back exactly once, at creation.
	c.JSON(http.StatusCreated, gin.H{"job": h.jobToResponse(job, true)})
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	var query ListJobsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 100 {
		query.Limit = 100
	}

	jobs, err := h.store.List(c.Request.Context(), core.JobFilter{
		OwnerID: query.OwnerID,
		Status:  core.JobStatus(query.Status),
		Limit:   query.Limit,
		Offset:  query.Offset,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Tokens are never exposed in bulk listings.
	responses := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, h.jobToResponse(job, false))
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":   responses,
		"limit":  query.Limit,
		"offset": query.Offset,
		"count":  len(responses),
	})
}

func (h *JobHandler) GetJob(c *gin.Context) {
	id := c.Param("id")
	token := c.Query("token")

	job, err := h.engine.Fetch(c.Request.Context(), id, token)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// A caller proving possession of the token gets the full record back;
	// anyone else sees the job without its capability.
	c.JSON(http.StatusOK, gin.H{"job": h.jobToResponse(job, token != "")})
}

func (h *JobHandler) ReleaseJob(c *gin.Context) {
	id := c.Param("id")

	var req ReleaseJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.gateway.Release(c.Request.Context(), id, req.Token, req.PrinterID, req.ReleasedBy)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job":     h.jobToResponse(job, false),
	})
}

func (h *JobHandler) ReleaseAllJobs(c *gin.Context) {
	var req ReleaseAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reqs := make([]core.ReleaseRequest, 0, len(req.Jobs))
	for _, entry := range req.Jobs {
		reqs = append(reqs, core.ReleaseRequest{JobID: entry.ID, Token: entry.Token})
	}

	outcomes := h.gateway.ReleaseAll(c.Request.Context(), reqs, req.PrinterID, req.ReleasedBy)

	results := make([]ReleaseAllResult, 0, len(outcomes))
	released := 0
	for _, o := range outcomes {
		r := ReleaseAllResult{ID: o.JobID, Success: o.Err == nil, Error: o.ErrKind}
		if r.Success {
			released++
		}
		results = append(results, r)
	}

	// Per-item failures do not fail the batch.
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"released": released,
		"results":  results,
	})
}

func (h *JobHandler) CancelJob(c *gin.Context) {
	id := c.Param("id")

	job, err := h.gateway.Cancel(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job":     h.jobToResponse(job, false),
	})
}

func (h *JobHandler) CompleteJob(c *gin.Context) {
	id := c.Param("id")

	job, err := h.gateway.Complete(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job":     h.jobToResponse(job, false),
	})
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	id := c.Param("id")

	job, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if !job.Status.Terminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "only completed or cancelled jobs can be deleted"})
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job deleted"})
}

func (h *JobHandler) GetJobStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *JobHandler) respondError(c *gin.Context, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "kind": "validation_error"})
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found", "kind": "not_found"})
	case errors.Is(err, core.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid release token", "kind": "unauthorized"})
	case errors.Is(err, core.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "illegal state transition", "kind": "invalid_state"})
	default:
		// Storage details stay server-side.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "kind": "storage_error"})
	}
}

func (h *JobHandler) jobToResponse(job *core.Job, includeToken bool) JobResponse {
	resp := JobResponse{
		ID:           job.ID,
		OwnerID:      job.OwnerID,
		DocumentName: job.DocumentName,
		Pages:        job.Pages,
		Copies:       job.Copies,
		Color:        job.Color,
		Duplex:       job.Duplex,
		Stapling:     job.Stapling,
		Priority:     string(job.Priority),
		Notes:        job.Notes,
		Status:       string(job.Status),
		Cost:         job.Cost,
		SubmittedAt:  job.SubmittedAt,
		ReleasedAt:   job.ReleasedAt,
		CompletedAt:  job.CompletedAt,
		CancelledAt:  job.CancelledAt,
		PrinterID:    job.PrinterID,
		ReleasedBy:   job.ReleasedBy,
	}
	if includeToken {
		resp.ReleaseToken = job.ReleaseToken
		resp.ReleaseLink = core.ReleaseLink(h.baseURL, job.ID, job.ReleaseToken)
	}
	return resp
}

func (h *JobHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/jobs", h.ListJobs)
	r.POST("/jobs", h.SubmitJob)
	r.GET("/jobs/stats", h.GetJobStats)
	r.POST("/jobs/release-all", h.ReleaseAllJobs)
	r.GET("/jobs/:id", h.GetJob)
	r.POST("/jobs/:id/release", h.ReleaseJob)
	r.POST("/jobs/:id/cancel", h.CancelJob)
}

func (h *JobHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/jobs/:id/complete", h.CompleteJob)
	r.DELETE("/jobs/:id", h.DeleteJob)
}
