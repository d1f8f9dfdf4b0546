package models

import (
	"time"

	"github.com/google/uuid"
)

// JobSource is one origin listing of an aggregated job.
type JobSource struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

// JobSummary is the job shape returned by search and embedded in
// application records. RelevanceScore is only set on scored searches,
// ApplicationStatus only when an application exists for the job.
type JobSummary struct {
	JobID             uuid.UUID   `json:"job_id"`
	Company           string      `json:"company"`
	Title             string      `json:"title"`
	Location          string      `json:"location"`
	DatePosted        time.Time   `json:"date_posted"`
	RelevanceScore    *float64    `json:"relevance_score,omitempty"`
	Sources           []JobSource `json:"sources"`
	ApplicationStatus *Status     `json:"application_status,omitempty"`
}

// Job is the full detail record for a single job.
type Job struct {
	JobID             uuid.UUID   `json:"job_id"`
	Company           string      `json:"company"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	Location          string      `json:"location"`
	DatePosted        time.Time   `json:"date_posted"`
	CreatedAt         time.Time   `json:"created_at"`
	Sources           []JobSource `json:"sources"`
	ApplicationStatus *Status     `json:"application_status,omitempty"`
	ApplicationNotes  *string     `json:"application_notes,omitempty"`
}

// Tracked reports whether an application exists for the job.
func (j *Job) Tracked() bool {
	return j.ApplicationStatus != nil
}

// SearchPage is one page of search results. Pages are 1-based.
type SearchPage struct {
	Results  []JobSummary `json:"results"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// LastPage returns the highest valid page number, ceil(total/page_size).
// A page of zero results has no valid pages and returns 0.
func (p *SearchPage) LastPage() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
