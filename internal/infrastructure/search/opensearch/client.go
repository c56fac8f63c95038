// Package opensearch backs the annotation search endpoint.  Every persisted
// annotation is mirrored into a single index as a flattened document, so a
// free-text query can hit factor symbols, ontology terms, and accessions
// without touching PostgreSQL.
package opensearch

import (
	"context"
	"strings"

	"github.com/opensearch-project/opensearch-go/v3"
	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

// DefaultIndex is the annotation index name.
const DefaultIndex = "geometax-annotations"

// Config holds connection settings for the search cluster.
type Config struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

func (c *Config) applyDefaults() {
	if c.Index == "" {
		c.Index = DefaultIndex
	}
}

// Client wraps the OpenSearch API client with the annotation index name.
type Client struct {
	api    *opensearchapi.Client
	index  string
	logger logging.Logger
}

// NewClient creates a Client.  No network call is made until the first
// request, so construction succeeds even while the cluster is down.
func NewClient(cfg Config, log logging.Logger) (*Client, error) {
	cfg.applyDefaults()
	if log == nil {
		log = logging.NewNopLogger()
	}

	api, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses: cfg.Addresses,
			Username:  cfg.Username,
			Password:  cfg.Password,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to create opensearch client")
	}

	return &Client{api: api, index: cfg.Index, logger: log}, nil
}

// indexMapping keeps identifiers exact-match while factor symbols and
// ontology terms stay full-text searchable.
const indexMapping = `{
  "mappings": {
    "properties": {
      "sample_id":  {"type": "keyword"},
      "factor":     {"type": "text"},
      "source":     {"type": "keyword"},
      "terms":      {"type": "text"},
      "accessions": {"type": "keyword"},
      "annotation": {"type": "object", "enabled": false},
      "updated_at": {"type": "date"}
    }
  }
}`

// EnsureIndex creates the annotation index if it does not exist yet.
func (c *Client) EnsureIndex(ctx context.Context) error {
	_, err := c.api.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: c.index,
		Body:  strings.NewReader(indexMapping),
	})
	if err != nil {
		if strings.Contains(err.Error(), "resource_already_exists_exception") {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeSearchUnavailable, "failed to create search index").
			WithDetail(c.index)
	}
	c.logger.Info("search index created", logging.String("index", c.index))
	return nil
}

// HealthCheck pings the cluster.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.api.Ping(ctx, nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchUnavailable, "opensearch ping failed")
	}
	return nil
}
