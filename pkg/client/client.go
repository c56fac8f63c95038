// Package client is the Go client for the geometax HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/turtacn/geometax/pkg/errors"
)

// Client talks to one geometax API server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
}

// New creates a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New(errors.ErrCodeValidation, "invalid base URL").WithDetail(baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		userAgent:  "geometax-client/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope is the API response wrapper every endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *errorDetail    `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// do issues one request and decodes the enveloped response into out.  out may
// be nil for endpoints whose body is irrelevant.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to read response")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return errors.New(errors.ErrCodeExternalService,
				fmt.Sprintf("server returned %d", resp.StatusCode))
		}
		return errors.Wrap(err, errors.ErrCodeSerialization, "undecodable response")
	}

	if env.Error != nil {
		appErr := errors.New(errors.ErrorCode(env.Error.Code), env.Error.Message)
		if env.Error.Details != "" {
			appErr = appErr.WithDetail(env.Error.Details)
		}
		return appErr
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return errors.New(errors.ErrCodeExternalService,
			fmt.Sprintf("server returned %d", resp.StatusCode))
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "undecodable response payload")
		}
	}
	return nil
}

// Health probes the liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	u := *c.baseURL
	u.Path = "/healthz"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "health check failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.ErrCodeServiceUnavailable,
			fmt.Sprintf("server unhealthy: %d", resp.StatusCode))
	}
	return nil
}
