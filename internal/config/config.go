// Package config defines the configuration tree for the GEOMetaX services.
// Infrastructure sections reuse the config structs of the packages they feed,
// so a section unmarshals straight into the component that consumes it.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/geometax/internal/infrastructure/database/postgres"
	"github.com/turtacn/geometax/internal/infrastructure/database/redis"
	"github.com/turtacn/geometax/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/internal/infrastructure/search/opensearch"
	"github.com/turtacn/geometax/internal/infrastructure/storage/minio"
	"github.com/turtacn/geometax/internal/oracle"
	"github.com/turtacn/geometax/pkg/errors"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig is the postgres connection config plus the migrations
// location, which only the process bootstrap cares about.
type DatabaseConfig struct {
	postgres.Config `mapstructure:",squash"`

	MigrationsPath string `mapstructure:"migrations_path"`
}

// OracleConfig selects the extraction oracle provider and how long its
// responses stay cached.
type OracleConfig struct {
	oracle.Config `mapstructure:",squash"`

	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// WorkerConfig holds extraction worker tunables.
type WorkerConfig struct {
	// Workers is the per-batch sample concurrency.
	Workers int `mapstructure:"workers"`

	// SampleTimeout bounds one sample's pipeline, zero for no bound.
	SampleTimeout time.Duration `mapstructure:"sample_timeout"`

	// MappingPath points at the sample-to-series mapping JSON used by the
	// CLI extract command.
	MappingPath string `mapstructure:"mapping_path"`
}

// MetricsConfig holds the prometheus registry settings.
type MetricsConfig struct {
	Namespace            string `mapstructure:"namespace"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
}

// Config is the root configuration tree.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Log        logging.LogConfig `mapstructure:"log"`
	Database   DatabaseConfig    `mapstructure:"database"`
	Redis      redis.Config      `mapstructure:"redis"`
	Kafka      kafka.Config      `mapstructure:"kafka"`
	OpenSearch opensearch.Config `mapstructure:"opensearch"`
	MinIO      minio.Config      `mapstructure:"minio"`
	Oracle     OracleConfig      `mapstructure:"oracle"`
	Worker     WorkerConfig      `mapstructure:"worker"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
}

// SearchEnabled reports whether an OpenSearch cluster is configured.  Search
// is an optional surface; without addresses the search endpoint is disabled
// and annotations are only persisted to PostgreSQL.
func (c *Config) SearchEnabled() bool {
	return len(c.OpenSearch.Addresses) > 0
}

// Validate returns the first semantic problem found, or nil.  Callers treat
// any error as fatal.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return validationError(fmt.Sprintf("server.port %d is out of range [1, 65535]", c.Server.Port))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return validationError(fmt.Sprintf("server.mode %q is invalid; expected debug|release|test", c.Server.Mode))
	}

	if c.Database.Host == "" {
		return validationError("database.host is required")
	}
	if c.Database.Database == "" {
		return validationError("database.database is required")
	}
	if c.Database.Username == "" {
		return validationError("database.username is required")
	}

	if c.Redis.Addr == "" && c.Redis.Mode == "" {
		return validationError("redis.addr is required")
	}

	if len(c.Kafka.Brokers) == 0 {
		return validationError("kafka.brokers must contain at least one broker address")
	}

	if c.MinIO.Endpoint == "" {
		return validationError("minio.endpoint is required")
	}
	if c.MinIO.AccessKeyID == "" || c.MinIO.SecretAccessKey == "" {
		return validationError("minio.access_key_id and minio.secret_access_key are required")
	}

	switch c.Oracle.Provider {
	case oracle.ProviderOpenAI, oracle.ProviderAnthropic:
	default:
		return validationError(fmt.Sprintf("oracle.provider %q is invalid; expected %s|%s",
			c.Oracle.Provider, oracle.ProviderOpenAI, oracle.ProviderAnthropic))
	}
	if c.Oracle.APIKey == "" {
		return validationError("oracle.api_key is required")
	}

	if c.Worker.Workers < 1 {
		return validationError(fmt.Sprintf("worker.workers must be >= 1, got %d", c.Worker.Workers))
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return validationError(fmt.Sprintf("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level))
	}

	return nil
}

func validationError(detail string) error {
	return errors.New(errors.ErrCodeValidation, "invalid configuration").WithDetail(detail)
}
