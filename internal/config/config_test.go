package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/geometax/internal/config"
	"github.com/turtacn/geometax/internal/oracle"
	"github.com/turtacn/geometax/pkg/errors"
)

func validConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.MinIO.AccessKeyID = "minio"
	cfg.MinIO.SecretAccessKey = "minio123"
	cfg.Oracle.Provider = oracle.ProviderOpenAI
	cfg.Oracle.APIKey = "sk-test"
	return cfg
}

func TestValidate_OK(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad port", func(c *config.Config) { c.Server.Port = 0 }},
		{"bad mode", func(c *config.Config) { c.Server.Mode = "production" }},
		{"no db host", func(c *config.Config) { c.Database.Host = "" }},
		{"no db name", func(c *config.Config) { c.Database.Database = "" }},
		{"no redis", func(c *config.Config) { c.Redis.Addr = "" }},
		{"no kafka brokers", func(c *config.Config) { c.Kafka.Brokers = nil }},
		{"no minio endpoint", func(c *config.Config) { c.MinIO.Endpoint = "" }},
		{"no minio credentials", func(c *config.Config) { c.MinIO.AccessKeyID = "" }},
		{"bad oracle provider", func(c *config.Config) { c.Oracle.Provider = "bard" }},
		{"no oracle key", func(c *config.Config) { c.Oracle.APIKey = "" }},
		{"zero workers", func(c *config.Config) { c.Worker.Workers = -1 }},
		{"bad log level", func(c *config.Config) { c.Log.Level = "verbose" }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	assert.Equal(t, config.DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "geometax", cfg.Database.Database)
	assert.Equal(t, []string{config.DefaultKafkaBroker}, cfg.Kafka.Brokers)
	assert.Equal(t, config.DefaultWorkers, cfg.Worker.Workers)
	assert.Equal(t, config.DefaultSampleTimeout, cfg.Worker.SampleTimeout)
	assert.Equal(t, config.DefaultOracleCacheTTL, cfg.Oracle.CacheTTL)
	assert.Equal(t, "geometax", cfg.Metrics.Namespace)

	// Explicit values survive.
	cfg2 := &config.Config{}
	cfg2.Server.Port = 9090
	cfg2.Worker.Workers = 16
	config.ApplyDefaults(cfg2)
	assert.Equal(t, 9090, cfg2.Server.Port)
	assert.Equal(t, 16, cfg2.Worker.Workers)

	config.ApplyDefaults(nil)
}

func TestSearchEnabled(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	assert.False(t, cfg.SearchEnabled())

	cfg.OpenSearch.Addresses = []string{"http://localhost:9200"}
	assert.True(t, cfg.SearchEnabled())
}

const testYAML = `
server:
  port: 9090
  mode: debug
database:
  host: db.internal
  database: geometax
  username: svc
  password: secret
redis:
  addr: redis.internal:6379
kafka:
  brokers: ["kafka.internal:9092"]
minio:
  endpoint: minio.internal:9000
  access_key_id: minio
  secret_access_key: minio123
oracle:
  provider: anthropic
  api_key: sk-ant
  model: claude-3-5-sonnet-20241022
worker:
  workers: 8
  sample_timeout: 90s
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, oracle.ProviderAnthropic, cfg.Oracle.Provider)
	assert.Equal(t, 8, cfg.Worker.Workers)
	assert.Equal(t, 90*time.Second, cfg.Worker.SampleTimeout)

	// Defaults fill the gaps the file leaves.
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, config.DefaultOracleCacheTTL, cfg.Oracle.CacheTTL)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("GEOMETAX_DATABASE_HOST", "env.internal")

	cfg, err := config.Load(writeConfig(t, testYAML))
	require.NoError(t, err)
	assert.Equal(t, "env.internal", cfg.Database.Host)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidConfig(t *testing.T) {
	t.Parallel()

	bad := testYAML + "\nlog:\n  level: verbose\n"
	_, err := config.Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { config.MustLoad("/nonexistent/config.yaml") })
}
