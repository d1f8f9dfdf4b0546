package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the tracked state of a job application. The aggregator
// stores the literal strings, so values must match exactly.
type Status string

const (
	StatusNotApplied Status = "Not Applied"
	StatusApplied    Status = "Applied"
	StatusInterview  Status = "Interview"
	StatusOffer      Status = "Offer"
	StatusRejected   Status = "Rejected"
)

// Statuses returns every known status in display order.
func Statuses() []Status {
	return []Status{StatusNotApplied, StatusApplied, StatusInterview, StatusOffer, StatusRejected}
}

// Known reports whether s is one of the statuses the aggregator accepts.
func (s Status) Known() bool {
	switch s {
	case StatusNotApplied, StatusApplied, StatusInterview, StatusOffer, StatusRejected:
		return true
	}
	return false
}

// Application is one tracked job application.
type Application struct {
	JobID     uuid.UUID  `json:"job_id"`
	Status    Status     `json:"status"`
	Notes     *string    `json:"notes"`
	UpdatedAt time.Time  `json:"updated_at"`
	Job       JobSummary `json:"job"`
}

// NotesText returns the notes, or "" when none were set.
func (a *Application) NotesText() string {
	if a.Notes == nil {
		return ""
	}
	return *a.Notes
}

// ApplicationDraft is the payload for creating or updating an
// application. A nil Notes leaves existing notes untouched on update.
type ApplicationDraft struct {
	Status Status  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

// StatusCounts tallies applications by status.
func StatusCounts(apps []Application) map[Status]int {
	counts := make(map[Status]int, len(Statuses()))
	for _, app := range apps {
		counts[app.Status]++
	}
	return counts
}
