package config

import "time"

// Well-known defaults.  Explicitly configured values always win; ApplyDefaults
// only fills zero-value fields.
const (
	DefaultServerPort      = 8080
	DefaultServerMode      = "release"
	DefaultShutdownTimeout = 30 * time.Second

	DefaultDBHost   = "localhost"
	DefaultDBName   = "geometax"
	DefaultDBUser   = "geometax"
	DefaultRedisAddr = "localhost:6379"
	DefaultKafkaBroker = "localhost:9092"
	DefaultMinIOEndpoint = "localhost:9000"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkers       = 4
	DefaultSampleTimeout = 2 * time.Minute
	DefaultOracleCacheTTL = 7 * 24 * time.Hour

	DefaultMetricsNamespace = "geometax"
)

// ApplyDefaults fills zero-value fields with platform defaults.  Sections
// whose consumer packages apply their own defaults at construction time
// (postgres pool sizing, kafka topics, minio buckets) are left to them.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Database == "" {
		cfg.Database.Database = DefaultDBName
	}
	if cfg.Database.Username == "" {
		cfg.Database.Username = DefaultDBUser
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = "migrations"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}

	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}

	if cfg.Oracle.CacheTTL == 0 {
		cfg.Oracle.CacheTTL = DefaultOracleCacheTTL
	}

	if cfg.Worker.Workers == 0 {
		cfg.Worker.Workers = DefaultWorkers
	}
	if cfg.Worker.SampleTimeout == 0 {
		cfg.Worker.SampleTimeout = DefaultSampleTimeout
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}
