package aggregator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/higucxi/JobSearchApp/internal/config"
	"github.com/higucxi/JobSearchApp/internal/errors"
	"github.com/higucxi/JobSearchApp/internal/models"
)

func testClient(t *testing.T, handler http.Handler) (Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		AggregatorBaseURL: server.URL,
		APITimeout:        5 * time.Second,
	}
	return NewClient(zap.NewNop(), cfg), server
}

func TestSearchJobs_PassesFiltersThrough(t *testing.T) {
	var gotQuery map[string][]string
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/search", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"results": [], "total": 0, "page": 2, "page_size": 20}`))
	})
	c, _ := testClient(t, mux)

	_, err := c.SearchJobs(context.Background(), SearchParams{
		Query:    "python -senior",
		Company:  "Acme",
		Location: "Remote",
		Days:     7,
		Source:   "linkedin",
		Sort:     SortDate,
		Page:     2,
		PageSize: 20,
	})
	if err != nil {
		t.Fatalf("SearchJobs: %v", err)
	}

	// The free-text query must reach the server exactly as typed,
	// operators included.
	if got := gotQuery["q"]; len(got) != 1 || got[0] != "python -senior" {
		t.Fatalf("q = %v, want [python -senior]", got)
	}
	want := map[string]string{
		"company":   "Acme",
		"location":  "Remote",
		"days":      "7",
		"source":    "linkedin",
		"sort":      "date",
		"page":      "2",
		"page_size": "20",
	}
	for key, val := range want {
		if got := gotQuery[key]; len(got) != 1 || got[0] != val {
			t.Fatalf("%s = %v, want [%s]", key, gotQuery[key], val)
		}
	}
}

func TestSearchJobs_OmitsEmptyFilters(t *testing.T) {
	var gotQuery map[string][]string
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/search", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"results": [], "total": 0, "page": 1, "page_size": 20}`))
	})
	c, _ := testClient(t, mux)

	if _, err := c.SearchJobs(context.Background(), SearchParams{Page: 1, PageSize: 20}); err != nil {
		t.Fatalf("SearchJobs: %v", err)
	}
	for _, key := range []string{"q", "company", "location", "days", "source", "sort"} {
		if _, present := gotQuery[key]; present {
			t.Fatalf("empty filter %s must be omitted, query: %v", key, gotQuery)
		}
	}
}

func TestSearchJobs_DecodesPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"results": [{
				"job_id": "8f14e45f-ceea-467f-a9b2-07d135c6c9b1",
				"company": "Acme",
				"title": "Backend Engineer",
				"location": "Remote",
				"date_posted": "2025-01-01T10:00:00Z",
				"relevance_score": 1.5,
				"sources": [{"source": "linkedin", "url": "https://linkedin.com/jobs/1"}],
				"application_status": "Applied"
			}],
			"total": 57,
			"page": 3,
			"page_size": 20
		}`))
	})
	c, _ := testClient(t, mux)

	page, err := c.SearchJobs(context.Background(), SearchParams{Query: "go", Page: 3, PageSize: 20})
	if err != nil {
		t.Fatalf("SearchJobs: %v", err)
	}
	if page.Total != 57 || page.Page != 3 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.LastPage() != 3 {
		t.Fatalf("LastPage = %d, want 3", page.LastPage())
	}
	if len(page.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(page.Results))
	}
	job := page.Results[0]
	if job.Company != "Acme" || job.ApplicationStatus == nil || *job.ApplicationStatus != models.StatusApplied {
		t.Fatalf("unexpected result: %+v", job)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "Job not found"}`))
	})
	c, _ := testClient(t, mux)

	_, err := c.GetJob(context.Background(), uuid.New())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if got := errors.Display(err); got != "Job not found" {
		t.Fatalf("expected server detail to surface, got %q", got)
	}
}

func TestSearchJobs_ValidationErrorFallsBackToGenericMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": [{"loc": ["query", "page"], "msg": "Input should be greater than or equal to 1", "type": "greater_than_equal"}]}`))
	})
	c, _ := testClient(t, mux)

	_, err := c.SearchJobs(context.Background(), SearchParams{Page: 1})
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.TypeOf(err) != errors.ErrTypeInvalidInput {
		t.Fatalf("expected invalid input, got %v", err)
	}
	// Structured validation details are not a displayable string.
	if got := errors.Display(err); got != "invalid request" {
		t.Fatalf("expected generic message, got %q", got)
	}
}

func TestSearchJobs_ServerDownIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	cfg := &config.Config{AggregatorBaseURL: server.URL, APITimeout: time.Second}
	c := NewClient(zap.NewNop(), cfg)

	_, err := c.SearchJobs(context.Background(), SearchParams{Query: "go", Page: 1})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.IsUnavailable(err) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if got := errors.Display(err); got != "cannot reach the job aggregator" {
		t.Fatalf("unexpected display message: %q", got)
	}
}

func TestSearchJobs_ServerErrorPrefersDetail(t *testing.T) {
	status := http.StatusInternalServerError
	body := `{"detail": "search index offline"}`
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	c, _ := testClient(t, mux)

	_, err := c.SearchJobs(context.Background(), SearchParams{Query: "go"})
	if errors.TypeOf(err) != errors.ErrTypeInternal {
		t.Fatalf("expected internal, got %v", err)
	}
	if got := errors.Display(err); got != "search index offline" {
		t.Fatalf("expected detail to surface, got %q", got)
	}

	body = `no json here`
	_, err = c.SearchJobs(context.Background(), SearchParams{Query: "go"})
	if got := errors.Display(err); got != "request failed with status 500" {
		t.Fatalf("expected generic fallback, got %q", got)
	}
}

func TestSaveApplication_PostsDraft(t *testing.T) {
	jobID := uuid.New()
	var gotPath, gotContentType string
	var gotBody []byte

	mux := http.NewServeMux()
	mux.HandleFunc("/applications/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{
			"job_id": "` + jobID.String() + `",
			"status": "Interview",
			"notes": "phone screen Friday",
			"updated_at": "2025-02-01T09:00:00Z",
			"job": {
				"job_id": "` + jobID.String() + `",
				"company": "Acme",
				"title": "Backend Engineer",
				"location": "Remote",
				"date_posted": "2025-01-01T10:00:00Z",
				"sources": [],
				"application_status": "Interview"
			}
		}`))
	})
	c, _ := testClient(t, mux)

	notes := "phone screen Friday"
	app, err := c.SaveApplication(context.Background(), jobID, models.ApplicationDraft{
		Status: models.StatusInterview,
		Notes:  &notes,
	})
	if err != nil {
		t.Fatalf("SaveApplication: %v", err)
	}
	if gotPath != "/applications/"+jobID.String() {
		t.Fatalf("path = %s", gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type = %s", gotContentType)
	}

	var sent models.ApplicationDraft
	if err := json.Unmarshal(gotBody, &sent); err != nil {
		t.Fatalf("unmarshal sent body: %v", err)
	}
	if sent.Status != models.StatusInterview || sent.Notes == nil || *sent.Notes != notes {
		t.Fatalf("unexpected draft sent: %+v", sent)
	}
	if app.Status != models.StatusInterview || app.Job.Company != "Acme" {
		t.Fatalf("unexpected application: %+v", app)
	}
}

func TestDeleteApplication(t *testing.T) {
	jobID := uuid.New()
	var gotMethod string
	mux := http.NewServeMux()
	mux.HandleFunc("/applications/", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		_, _ = w.Write([]byte(`{"message": "Application deleted"}`))
	})
	c, _ := testClient(t, mux)

	if err := c.DeleteApplication(context.Background(), jobID); err != nil {
		t.Fatalf("DeleteApplication: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Fatalf("method = %s, want DELETE", gotMethod)
	}
}

func TestDeleteApplication_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/applications/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "Application not found"}`))
	})
	c, _ := testClient(t, mux)

	err := c.DeleteApplication(context.Background(), uuid.New())
	if !errors.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestIngestJobs(t *testing.T) {
	var gotBody []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/ingest", func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"inserted": 2, "merged": 1, "total_processed": 3}`))
	})
	c, _ := testClient(t, mux)

	report, err := c.IngestJobs(context.Background(), models.IngestRequest{
		Source: models.SourceLever,
		Jobs: []models.SourcePosting{
			{ID: "a1", Source: models.SourceLever, Company: "Acme", Title: "Backend Engineer"},
		},
	})
	if err != nil {
		t.Fatalf("IngestJobs: %v", err)
	}
	if report.Inserted != 2 || report.Merged != 1 || report.TotalProcessed != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}

	var sent models.IngestRequest
	if err := json.Unmarshal(gotBody, &sent); err != nil {
		t.Fatalf("unmarshal sent body: %v", err)
	}
	if sent.Source != models.SourceLever || len(sent.Jobs) != 1 || sent.Jobs[0].ID != "a1" {
		t.Fatalf("unexpected batch sent: %+v", sent)
	}
}

func TestHealth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "healthy"}`))
	})
	c, _ := testClient(t, mux)

	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
