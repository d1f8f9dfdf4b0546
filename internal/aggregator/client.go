package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/higucxi/JobSearchApp/internal/config"
	"github.com/higucxi/JobSearchApp/internal/errors"
	"github.com/higucxi/JobSearchApp/internal/models"
	"github.com/higucxi/JobSearchApp/internal/telemetry"
)

var tracer = telemetry.GetTracer("jobsearchapp/aggregator")

// Sort orders accepted by the search endpoint.
const (
	SortRelevance = "relevance"
	SortDate      = "date"
)

// SearchParams are the filters for a job search. Zero values are
// omitted from the request so the aggregator applies its defaults.
type SearchParams struct {
	Query    string
	Company  string
	Location string
	Days     int
	Source   string
	Sort     string
	Page     int
	PageSize int
}

func (p SearchParams) values() url.Values {
	v := url.Values{}
	if p.Query != "" {
		v.Set("q", p.Query)
	}
	if p.Company != "" {
		v.Set("company", p.Company)
	}
	if p.Location != "" {
		v.Set("location", p.Location)
	}
	if p.Days > 0 {
		v.Set("days", strconv.Itoa(p.Days))
	}
	if p.Source != "" {
		v.Set("source", p.Source)
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(p.PageSize))
	}
	return v
}

// Client talks to the job aggregator's HTTP API.
type Client interface {
	SearchJobs(ctx context.Context, params SearchParams) (*models.SearchPage, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	ListApplications(ctx context.Context) ([]models.Application, error)
	SaveApplication(ctx context.Context, jobID uuid.UUID, draft models.ApplicationDraft) (*models.Application, error)
	DeleteApplication(ctx context.Context, jobID uuid.UUID) error
	IngestJobs(ctx context.Context, req models.IngestRequest) (*models.IngestReport, error)
	Health(ctx context.Context) error
}

type client struct {
	client  *http.Client
	baseURL string
	logger  *zap.Logger
}

func NewClient(logger *zap.Logger, config *config.Config) Client {
	return &client{
		client: &http.Client{
			Timeout: config.APITimeout,
		},
		baseURL: config.AggregatorBaseURL,
		logger:  logger,
	}
}

func (c *client) SearchJobs(ctx context.Context, params SearchParams) (*models.SearchPage, error) {
	ctx, span := tracer.Start(ctx, "SearchJobs")
	defer span.End()

	url := fmt.Sprintf("%s/jobs/search?%s", c.baseURL, params.values().Encode())
	c.logger.Debug("searching jobs", zap.String("url", url), zap.Int("page", params.Page))
	span.SetAttributes(
		telemetry.String("http.url", url),
		telemetry.Int("search.page", params.Page),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Internal("creating request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		if stderrors.Is(err, context.Canceled) {
			return nil, err
		}
		c.logger.Error("failed to execute request", zap.Error(err))
		return nil, errors.Unavailable("cannot reach the job aggregator", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return nil, c.responseError(resp)
	}

	var page models.SearchPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		c.logger.Error("failed to decode response", zap.Error(err))
		return nil, errors.Internal("decoding response", err)
	}

	c.logger.Debug("search results",
		zap.Int("total", page.Total),
		zap.Int("count", len(page.Results)))
	span.SetAttributes(telemetry.Int("search.total", page.Total))

	return &page, nil
}

func (c *client) GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	ctx, span := tracer.Start(ctx, "GetJob")
	defer span.End()
	span.SetAttributes(telemetry.String("job.id", jobID.String()))

	url := fmt.Sprintf("%s/jobs/%s", c.baseURL, jobID)
	c.logger.Debug("fetching job", zap.String("job_id", jobID.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Internal("creating request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		if stderrors.Is(err, context.Canceled) {
			return nil, err
		}
		c.logger.Error("failed to execute request", zap.String("job_id", jobID.String()), zap.Error(err))
		return nil, errors.Unavailable("cannot reach the job aggregator", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return nil, c.responseError(resp)
	}

	var job models.Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		c.logger.Error("failed to decode response", zap.String("job_id", jobID.String()), zap.Error(err))
		return nil, errors.Internal("decoding response", err)
	}

	c.logger.Debug("fetched job",
		zap.String("job_id", jobID.String()),
		zap.String("title", job.Title))

	return &job, nil
}

func (c *client) ListApplications(ctx context.Context) ([]models.Application, error) {
	ctx, span := tracer.Start(ctx, "ListApplications")
	defer span.End()

	url := fmt.Sprintf("%s/applications", c.baseURL)
	c.logger.Debug("listing applications")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Internal("creating request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		if stderrors.Is(err, context.Canceled) {
			return nil, err
		}
		c.logger.Error("failed to execute request", zap.Error(err))
		return nil, errors.Unavailable("cannot reach the job aggregator", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return nil, c.responseError(resp)
	}

	var apps []models.Application
	if err := json.NewDecoder(resp.Body).Decode(&apps); err != nil {
		c.logger.Error("failed to decode response", zap.Error(err))
		return nil, errors.Internal("decoding response", err)
	}

	c.logger.Debug("listed applications", zap.Int("count", len(apps)))
	span.SetAttributes(telemetry.Int("applications.count", len(apps)))

	return apps, nil
}

func (c *client) SaveApplication(ctx context.Context, jobID uuid.UUID, draft models.ApplicationDraft) (*models.Application, error) {
	ctx, span := tracer.Start(ctx, "SaveApplication")
	defer span.End()
	span.SetAttributes(
		telemetry.String("job.id", jobID.String()),
		telemetry.String("application.status", string(draft.Status)),
	)

	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, errors.Internal("encoding application", err)
	}

	url := fmt.Sprintf("%s/applications/%s", c.baseURL, jobID)
	c.logger.Debug("saving application",
		zap.String("job_id", jobID.String()),
		zap.String("status", string(draft.Status)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Internal("creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		if stderrors.Is(err, context.Canceled) {
			return nil, err
		}
		c.logger.Error("failed to execute request", zap.String("job_id", jobID.String()), zap.Error(err))
		return nil, errors.Unavailable("cannot reach the job aggregator", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return nil, c.responseError(resp)
	}

	var app models.Application
	if err := json.NewDecoder(resp.Body).Decode(&app); err != nil {
		c.logger.Error("failed to decode response", zap.String("job_id", jobID.String()), zap.Error(err))
		return nil, errors.Internal("decoding response", err)
	}

	c.logger.Info("saved application",
		zap.String("job_id", jobID.String()),
		zap.String("status", string(app.Status)))

	return &app, nil
}

func (c *client) DeleteApplication(ctx context.Context, jobID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "DeleteApplication")
	defer span.End()
	span.SetAttributes(telemetry.String("job.id", jobID.String()))

	url := fmt.Sprintf("%s/applications/%s", c.baseURL, jobID)
	c.logger.Debug("deleting application", zap.String("job_id", jobID.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return errors.Internal("creating request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		if stderrors.Is(err, context.Canceled) {
			return err
		}
		c.logger.Error("failed to execute request", zap.String("job_id", jobID.String()), zap.Error(err))
		return errors.Unavailable("cannot reach the job aggregator", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return c.responseError(resp)
	}

	c.logger.Info("deleted application", zap.String("job_id", jobID.String()))
	return nil
}

func (c *client) IngestJobs(ctx context.Context, ingest models.IngestRequest) (*models.IngestReport, error) {
	ctx, span := tracer.Start(ctx, "IngestJobs")
	defer span.End()
	span.SetAttributes(
		telemetry.String("ingest.source", ingest.Source),
		telemetry.Int("ingest.count", len(ingest.Jobs)),
	)

	payload, err := json.Marshal(ingest)
	if err != nil {
		return nil, errors.Internal("encoding ingest batch", err)
	}

	url := fmt.Sprintf("%s/jobs/ingest", c.baseURL)
	c.logger.Debug("submitting ingest batch",
		zap.String("source", ingest.Source),
		zap.Int("count", len(ingest.Jobs)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Internal("creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		if stderrors.Is(err, context.Canceled) {
			return nil, err
		}
		c.logger.Error("failed to execute request", zap.String("source", ingest.Source), zap.Error(err))
		return nil, errors.Unavailable("cannot reach the job aggregator", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return nil, c.responseError(resp)
	}

	var report models.IngestReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		c.logger.Error("failed to decode response", zap.Error(err))
		return nil, errors.Internal("decoding response", err)
	}

	c.logger.Info("ingest batch accepted",
		zap.String("source", ingest.Source),
		zap.Int("inserted", report.Inserted),
		zap.Int("merged", report.Merged),
		zap.Int("total_processed", report.TotalProcessed))

	return &report, nil
}

func (c *client) Health(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Health")
	defer span.End()

	url := fmt.Sprintf("%s/health", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Internal("creating request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		if stderrors.Is(err, context.Canceled) {
			return err
		}
		return errors.Unavailable("cannot reach the job aggregator", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return c.responseError(resp)
	}
	return nil
}

// responseError translates a non-2xx aggregator response into a
// DomainError, preferring the server's detail string when the body
// carries one.
func (c *client) responseError(resp *http.Response) *errors.DomainError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.logger.Warn("failed to read error response body", zap.Error(err))
	}

	detail, ok := errorDetail(body)
	c.logger.Error("unexpected status code",
		zap.Int("status_code", resp.StatusCode),
		zap.String("detail", detail))

	switch resp.StatusCode {
	case http.StatusNotFound:
		if !ok {
			detail = "not found"
		}
		return errors.NotFound(detail, nil)
	case http.StatusUnprocessableEntity:
		if !ok {
			detail = "invalid request"
		}
		return errors.InvalidInput(detail, nil)
	default:
		if !ok {
			detail = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return errors.Internal(detail, nil)
	}
}

// errorDetail extracts the detail string from an aggregator error body.
// Validation errors carry a structured detail list instead of a string;
// those report not-ok so callers fall back to a generic message.
func errorDetail(body []byte) (string, bool) {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return "", false
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil || detail == "" {
		return "", false
	}
	return detail, true
}
