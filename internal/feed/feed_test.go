package feed

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/higucxi/JobSearchApp/internal/aggregator"
	"github.com/higucxi/JobSearchApp/internal/cache"
	"github.com/higucxi/JobSearchApp/internal/config"
	"github.com/higucxi/JobSearchApp/internal/errors"
	"github.com/higucxi/JobSearchApp/internal/models"
	"github.com/higucxi/JobSearchApp/internal/telemetry"
)

type fakeAggregator struct {
	mu       sync.Mutex
	requests []models.IngestRequest
	failures int
}

func (f *fakeAggregator) IngestJobs(ctx context.Context, req models.IngestRequest) (*models.IngestReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return nil, errors.Unavailable("cannot reach the job aggregator", nil)
	}
	f.requests = append(f.requests, req)
	return &models.IngestReport{Inserted: len(req.Jobs), TotalProcessed: len(req.Jobs)}, nil
}

func (f *fakeAggregator) SearchJobs(context.Context, aggregator.SearchParams) (*models.SearchPage, error) {
	return nil, nil
}
func (f *fakeAggregator) GetJob(context.Context, uuid.UUID) (*models.Job, error) { return nil, nil }
func (f *fakeAggregator) ListApplications(context.Context) ([]models.Application, error) {
	return nil, nil
}
func (f *fakeAggregator) SaveApplication(context.Context, uuid.UUID, models.ApplicationDraft) (*models.Application, error) {
	return nil, nil
}
func (f *fakeAggregator) DeleteApplication(context.Context, uuid.UUID) error { return nil }
func (f *fakeAggregator) Health(context.Context) error                       { return nil }

func (f *fakeAggregator) got() []models.IngestRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.IngestRequest(nil), f.requests...)
}

type fakeCache struct {
	mu   sync.Mutex
	keys map[string]struct{}
	fail bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{keys: map[string]struct{}{}}
}

func (f *fakeCache) Add(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if f.fail {
		return false, stderrors.New("redis down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.keys[key]; ok {
		return false, nil
	}
	f.keys[key] = struct{}{}
	return true, nil
}

func (f *fakeCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (f *fakeCache) Get(context.Context, string, interface{}) error                { return cache.ErrNotFound }
func (f *fakeCache) Delete(context.Context, string) error                          { return nil }
func (f *fakeCache) Close() error                                                  { return nil }

func testConfig() *config.Config {
	return &config.Config{
		IngestBatchSize:  2,
		FlushInterval:    time.Hour,
		IngestSubject:    "jobs.postings",
		IngestQueueGroup: "ingest-bridge",
		SeenTTL:          time.Minute,
	}
}

func posting(source, id string) models.SourcePosting {
	return models.SourcePosting{
		ID:         id,
		Source:     source,
		Company:    "Acme",
		Title:      "Backend Engineer",
		Location:   "Remote",
		URL:        "https://example.com/" + id,
		DatePosted: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestSubmitter_FlushesFullBatches(t *testing.T) {
	agg := &fakeAggregator{}
	s := NewSubmitter(agg, zap.NewNop(), testConfig())
	ctx := context.Background()

	if err := s.Enqueue(ctx, posting(models.SourceLever, "a1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if got := agg.got(); len(got) != 0 {
		t.Fatalf("batch flushed early: %d calls", len(got))
	}

	if err := s.Enqueue(ctx, posting(models.SourceLever, "a2")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	got := agg.got()
	if len(got) != 1 {
		t.Fatalf("expected 1 ingest call, got %d", len(got))
	}
	if got[0].Source != models.SourceLever || len(got[0].Jobs) != 2 {
		t.Fatalf("unexpected batch: %+v", got[0])
	}

	if err := s.Enqueue(ctx, posting(models.SourceLever, "a3")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	got = agg.got()
	if len(got) != 2 || len(got[1].Jobs) != 1 {
		t.Fatalf("expected remainder flush, got %+v", got)
	}

	totals := s.Totals()
	if totals.TotalProcessed != 3 {
		t.Fatalf("totals = %+v, want 3 processed", totals)
	}
}

func TestSubmitter_GroupsBySource(t *testing.T) {
	agg := &fakeAggregator{}
	s := NewSubmitter(agg, zap.NewNop(), testConfig())
	ctx := context.Background()

	_ = s.Enqueue(ctx, posting(models.SourceLever, "a1"))
	_ = s.Enqueue(ctx, posting(models.SourceLinkedIn, "b1"))
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	got := agg.got()
	if len(got) != 2 {
		t.Fatalf("expected one batch per source, got %d", len(got))
	}
	for _, req := range got {
		for _, job := range req.Jobs {
			if job.Source != req.Source {
				t.Fatalf("batch %s carries job from %s", req.Source, job.Source)
			}
		}
	}
}

func TestSubmitter_RequeuesFailedBatch(t *testing.T) {
	agg := &fakeAggregator{failures: 1}
	s := NewSubmitter(agg, zap.NewNop(), testConfig())
	ctx := context.Background()

	_ = s.Enqueue(ctx, posting(models.SourceIndeed, "x1"))
	if err := s.Flush(ctx); err == nil {
		t.Fatalf("expected flush error")
	}
	if totals := s.Totals(); totals.TotalProcessed != 0 {
		t.Fatalf("failed flush must not count, got %+v", totals)
	}

	if err := s.Flush(ctx); err != nil {
		t.Fatalf("retry flush: %v", err)
	}
	got := agg.got()
	if len(got) != 1 || len(got[0].Jobs) != 1 || got[0].Jobs[0].ID != "x1" {
		t.Fatalf("requeued posting lost: %+v", got)
	}
}

func TestSubmitter_RejectsUnknownSource(t *testing.T) {
	s := NewSubmitter(&fakeAggregator{}, zap.NewNop(), testConfig())
	err := s.Enqueue(context.Background(), posting("craigslist", "z1"))
	if errors.TypeOf(err) != errors.ErrTypeInvalidInput {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func bridgeForTest(agg *fakeAggregator, seen cache.Cache) *Bridge {
	cfg := testConfig()
	s := NewSubmitter(agg, zap.NewNop(), cfg)
	return NewBridge(zap.NewNop(), nil, telemetry.GetTracer("test"), s, seen, cfg)
}

func TestBridge_DropsDuplicatePostings(t *testing.T) {
	agg := &fakeAggregator{}
	b := bridgeForTest(agg, newFakeCache())

	data, _ := json.Marshal(posting(models.SourceLever, "a1"))
	b.handlePosting(&nats.Msg{Subject: "jobs.postings", Data: data})
	b.handlePosting(&nats.Msg{Subject: "jobs.postings", Data: data})

	if err := b.submitter.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	got := agg.got()
	if len(got) != 1 || len(got[0].Jobs) != 1 {
		t.Fatalf("duplicate posting not dropped: %+v", got)
	}
}

func TestBridge_ForwardsWhenSeenSetDown(t *testing.T) {
	agg := &fakeAggregator{}
	seen := newFakeCache()
	seen.fail = true
	b := bridgeForTest(agg, seen)

	data, _ := json.Marshal(posting(models.SourceLever, "a1"))
	b.handlePosting(&nats.Msg{Subject: "jobs.postings", Data: data})

	if err := b.submitter.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := agg.got(); len(got) != 1 {
		t.Fatalf("posting dropped on cache failure: %+v", got)
	}
}

func TestBridge_IgnoresMalformedMessages(t *testing.T) {
	agg := &fakeAggregator{}
	b := bridgeForTest(agg, newFakeCache())

	b.handlePosting(&nats.Msg{Subject: "jobs.postings", Data: []byte("not json")})

	if err := b.submitter.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := agg.got(); len(got) != 0 {
		t.Fatalf("malformed message should be dropped, got %+v", got)
	}
}

func TestReadPostingsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postings.json")
	payload := `{
		"source": "greenhouse",
		"jobs": [
			{"id": "g1", "company": "Acme", "title": "Backend Engineer", "description": "Go services", "location": "Remote", "url": "https://example.com/g1", "date_posted": "2025-01-01T10:00:00Z"},
			{"id": "g2", "source": "greenhouse", "company": "Acme", "title": "SRE", "description": "infra", "location": "NYC", "url": "https://example.com/g2", "date_posted": "2025-01-02T10:00:00Z"}
		]
	}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	req, err := ReadPostingsFile(path, "")
	if err != nil {
		t.Fatalf("ReadPostingsFile: %v", err)
	}
	if req.Source != models.SourceGreenhouse || len(req.Jobs) != 2 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Jobs[0].Source != models.SourceGreenhouse {
		t.Fatalf("blank posting source should inherit the batch source, got %q", req.Jobs[0].Source)
	}
}

func TestReadPostingsFile_BareArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postings.json")
	payload := `[
		{"id": "m1", "company": "Acme", "title": "Backend Engineer", "description": "Go services", "location": "Remote", "url": "https://example.com/m1", "date_posted": "2025-01-01T10:00:00Z"}
	]`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	req, err := ReadPostingsFile(path, models.SourceManual)
	if err != nil {
		t.Fatalf("ReadPostingsFile: %v", err)
	}
	if req.Source != models.SourceManual || len(req.Jobs) != 1 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Jobs[0].Source != models.SourceManual {
		t.Fatalf("bare postings should take the flag source, got %q", req.Jobs[0].Source)
	}

	if _, err := ReadPostingsFile(path, ""); errors.TypeOf(err) != errors.ErrTypeInvalidInput {
		t.Fatalf("bare array without a source must be rejected, got %v", err)
	}
}

func TestReadPostingsFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	badSource := filepath.Join(dir, "bad_source.json")
	_ = os.WriteFile(badSource, []byte(`{"source": "craigslist", "jobs": [{"id": "1"}]}`), 0o600)
	if _, err := ReadPostingsFile(badSource, ""); errors.TypeOf(err) != errors.ErrTypeInvalidInput {
		t.Fatalf("expected invalid input for unknown source, got %v", err)
	}

	empty := filepath.Join(dir, "empty.json")
	_ = os.WriteFile(empty, []byte(`{"source": "manual", "jobs": []}`), 0o600)
	if _, err := ReadPostingsFile(empty, ""); errors.TypeOf(err) != errors.ErrTypeInvalidInput {
		t.Fatalf("expected invalid input for empty jobs, got %v", err)
	}

	if _, err := ReadPostingsFile(filepath.Join(dir, "missing.json"), ""); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
