package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/turtacn/geometax/internal/domain/annotation"
	"github.com/turtacn/geometax/internal/domain/sample"
)

// submitJobRequest mirrors the POST /jobs body.
type submitJobRequest struct {
	Mode    annotation.Mode `json:"mode"`
	Samples sample.Mapping  `json:"samples"`
}

// SubmitJob enqueues a batch extraction job and returns its pending record.
func (c *Client) SubmitJob(ctx context.Context, mode annotation.Mode, samples sample.Mapping) (*annotation.Job, error) {
	var job annotation.Job
	req := submitJobRequest{Mode: mode, Samples: samples}
	if err := c.do(ctx, http.MethodPost, "/api/v1/jobs", nil, req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJob fetches one job by id.
func (c *Client) GetJob(ctx context.Context, id string) (*annotation.Job, error) {
	var job annotation.Job
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs/"+url.PathEscape(id), nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs lists recent jobs.
func (c *Client) ListJobs(ctx context.Context, limit, offset int) ([]*annotation.Job, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var jobs []*annotation.Job
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs", query, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
