package client

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// ReferenceStatus summarises the server's live reference snapshot.
type ReferenceStatus struct {
	BuiltAt     time.Time `json:"built_at"`
	Genes       int       `json:"genes"`
	TFs         int       `json:"transcription_factors"`
	CRs         int       `json:"chromatin_remodelers"`
	Cellosaurus int       `json:"cellosaurus_terms"`
	EFO         int       `json:"efo_terms"`
	Uberon      int       `json:"uberon_terms"`
}

// ReferenceStatus fetches the live snapshot summary.
func (c *Client) ReferenceStatus(ctx context.Context) (*ReferenceStatus, error) {
	var status ReferenceStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/reference/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RebuildReference triggers an asynchronous reference rebuild.  With download
// set, the server re-fetches the corpus releases first.
func (c *Client) RebuildReference(ctx context.Context, download bool) error {
	query := url.Values{}
	if download {
		query.Set("download", "true")
	}
	return c.do(ctx, http.MethodPost, "/api/v1/reference/rebuild", query, nil, nil)
}
