package feed

import (
	"encoding/json"
	"os"

	"github.com/higucxi/JobSearchApp/internal/errors"
	"github.com/higucxi/JobSearchApp/internal/models"
)

// ReadPostingsFile loads an ingest batch from a JSON file. Two shapes
// are accepted: the aggregator's ingest payload
// {"source": ..., "jobs": [...]} or a bare posting array, in which
// case source names the batch source.
func ReadPostingsFile(path, source string) (*models.IngestRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Internal("reading postings file", err)
	}

	var req models.IngestRequest
	if err := json.Unmarshal(data, &req); err != nil {
		var jobs []models.SourcePosting
		if err := json.Unmarshal(data, &jobs); err != nil {
			return nil, errors.InvalidInput("postings file is not valid JSON", err)
		}
		req = models.IngestRequest{Jobs: jobs}
	}

	if req.Source == "" {
		req.Source = source
	}
	if req.Source == "" {
		return nil, errors.InvalidInput("posting source required for a bare posting array", nil)
	}
	if !models.KnownSource(req.Source) {
		return nil, errors.InvalidInput("unknown posting source: "+req.Source, nil)
	}
	if len(req.Jobs) == 0 {
		return nil, errors.InvalidInput("postings file has no jobs", nil)
	}

	// Postings inherit the batch source when their own is blank.
	for i := range req.Jobs {
		if req.Jobs[i].Source == "" {
			req.Jobs[i].Source = req.Source
		}
	}

	return &req, nil
}
