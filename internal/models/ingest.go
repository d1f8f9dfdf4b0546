package models

import "time"

// Known ingest sources accepted by the aggregator.
const (
	SourceLinkedIn   = "linkedin"
	SourceIndeed     = "indeed"
	SourceGreenhouse = "greenhouse"
	SourceLever      = "lever"
	SourceManual     = "manual"
)

// KnownSource reports whether the aggregator accepts source.
func KnownSource(source string) bool {
	switch source {
	case SourceLinkedIn, SourceIndeed, SourceGreenhouse, SourceLever, SourceManual:
		return true
	}
	return false
}

// SourcePosting is a raw scraped posting as published by a collector,
// keyed by the collector's own posting id.
type SourcePosting struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Company     string    `json:"company"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	URL         string    `json:"url"`
	DatePosted  time.Time `json:"date_posted"`
}

// Key returns the posting's dedup key, unique across sources.
func (p *SourcePosting) Key() string {
	return p.Source + ":" + p.ID
}

// IngestRequest is a batch of postings from a single source.
type IngestRequest struct {
	Source string          `json:"source"`
	Jobs   []SourcePosting `json:"jobs"`
}

// IngestReport summarizes one ingest batch: new jobs inserted, jobs
// merged into existing records by dedup, and the batch size processed.
type IngestReport struct {
	Inserted       int `json:"inserted"`
	Merged         int `json:"merged"`
	TotalProcessed int `json:"total_processed"`
}
