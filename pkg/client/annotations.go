package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/turtacn/geometax/internal/domain/annotation"
)

// ListAnnotationsOptions narrows an annotation listing.
type ListAnnotationsOptions struct {
	SampleIDs []string
	Factor    string
	Limit     int
	Offset    int
}

// GetAnnotation fetches the annotation for one sample accession.
func (c *Client) GetAnnotation(ctx context.Context, sampleID string) (*annotation.Annotation, error) {
	var ann annotation.Annotation
	if err := c.do(ctx, http.MethodGet, "/api/v1/annotations/"+url.PathEscape(sampleID), nil, nil, &ann); err != nil {
		return nil, err
	}
	return &ann, nil
}

// ListAnnotations lists annotations matching opts.
func (c *Client) ListAnnotations(ctx context.Context, opts ListAnnotationsOptions) ([]*annotation.Annotation, error) {
	query := url.Values{}
	if len(opts.SampleIDs) > 0 {
		query.Set("sample_ids", strings.Join(opts.SampleIDs, ","))
	}
	if opts.Factor != "" {
		query.Set("factor", opts.Factor)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}

	var anns []*annotation.Annotation
	if err := c.do(ctx, http.MethodGet, "/api/v1/annotations", query, nil, &anns); err != nil {
		return nil, err
	}
	return anns, nil
}

// DeleteAnnotation removes the annotation for one sample accession.
func (c *Client) DeleteAnnotation(ctx context.Context, sampleID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/annotations/"+url.PathEscape(sampleID), nil, nil, nil)
}

// Search runs a full-text query over the annotation index.
func (c *Client) Search(ctx context.Context, queryText string, limit int) ([]*annotation.Annotation, error) {
	query := url.Values{"q": []string{queryText}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var anns []*annotation.Annotation
	if err := c.do(ctx, http.MethodGet, "/api/v1/search", query, nil, &anns); err != nil {
		return nil, err
	}
	return anns, nil
}
