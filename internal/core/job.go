package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusPrinting  JobStatus = "printing"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCancelled JobStatus = "cancelled"
)

func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Job is one print request from submission to a terminal state. Print
// parameters and the release token are fixed at submission; only Status
// and the transition timestamps change afterwards, and only through the
// Engine.
type Job struct {
	ID           string
	OwnerID      string
	DocumentName string
	Pages        int
	Copies       int
	Color        bool
	Duplex       bool
	Stapling     bool
	Priority     Priority
	Notes        string
	Status       JobStatus
	Cost         float64
	ReleaseToken string
	SubmittedAt  time.Time
	ReleasedAt   *time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	PrinterID    string
	ReleasedBy   string
}

// Clone returns a deep copy. Mutators receive copies so a rejected
// transition can never leak partial writes into a stored record.
func (j *Job) Clone() *Job {
	c := *j
	if j.ReleasedAt != nil {
		t := *j.ReleasedAt
		c.ReleasedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	if j.CancelledAt != nil {
		t := *j.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}

// ReleaseLink builds the out-of-band release URL for a job. The base
// address comes from the calling environment (public_base_url behind
// proxies); it is display data and is never stored.
func ReleaseLink(baseURL, jobID, token string) string {
	base := strings.TrimRight(baseURL, "/")
	return fmt.Sprintf("%s/release/%s?token=%s", base, jobID, url.QueryEscape(token))
}
