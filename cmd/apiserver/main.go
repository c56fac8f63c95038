// Command apiserver runs the geometax HTTP API: annotation lookup and
// search, batch job submission, and reference data lifecycle.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/geometax/internal/application/refdata"
	"github.com/turtacn/geometax/internal/config"
	"github.com/turtacn/geometax/internal/domain/annotation"
	"github.com/turtacn/geometax/internal/domain/normalize"
	"github.com/turtacn/geometax/internal/infrastructure/database/postgres"
	"github.com/turtacn/geometax/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/geometax/internal/infrastructure/database/redis"
	"github.com/turtacn/geometax/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/prometheus"
	infraref "github.com/turtacn/geometax/internal/infrastructure/refdata"
	"github.com/turtacn/geometax/internal/infrastructure/search/opensearch"
	"github.com/turtacn/geometax/internal/infrastructure/storage/minio"
	apphttp "github.com/turtacn/geometax/internal/interfaces/http"
	"github.com/turtacn/geometax/internal/interfaces/http/handlers"
)

func main() {
	configPath := flag.String("config", "", "config file path")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableProcessMetrics: cfg.Metrics.EnableProcessMetrics,
		EnableGoMetrics:      cfg.Metrics.EnableGoMetrics,
	}, log)
	if err != nil {
		return err
	}
	metrics := prometheus.NewAppMetrics(collector)

	if err := postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsPath); err != nil {
		return err
	}
	db, err := postgres.NewConnection(ctx, cfg.Database.Config, log)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := redis.NewClient(&cfg.Redis, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	store, err := minio.NewClient(&cfg.MinIO, log)
	if err != nil {
		return err
	}
	defer store.Close()

	producer := kafka.NewProducer(cfg.Kafka, log)
	defer producer.Close()

	var searcher annotation.Searcher
	checks := []handlers.ComponentCheck{
		{Name: "postgres", Check: db.HealthCheck},
		{Name: "redis", Check: rdb.Ping},
		{Name: "minio", Check: store.HealthCheck},
	}
	if cfg.SearchEnabled() {
		osClient, err := opensearch.NewClient(cfg.OpenSearch, log)
		if err != nil {
			return err
		}
		if err := osClient.EnsureIndex(ctx); err != nil {
			return err
		}
		searcher = opensearch.NewSearcher(osClient, log)
		checks = append(checks, handlers.ComponentCheck{Name: "opensearch", Check: osClient.HealthCheck})
	}

	refStore := minio.NewReferenceStore(store, store.Buckets().Reference)
	refService := refdata.NewService(
		refStore,
		normalize.New(normalize.DefaultStopwords),
		refdata.WithDownloader(infraref.NewDownloader(refStore)),
		refdata.WithLocker(redis.NewLock(rdb, log, "refdata-rebuild")),
		refdata.WithLogger(log),
	)
	if err := refService.MustLoad(ctx); err != nil {
		return err
	}

	annotations := repositories.NewAnnotationRepository(db.Pool(), log)
	jobs := repositories.NewJobRepository(db.Pool(), log)

	router := apphttp.NewRouter(apphttp.RouterConfig{
		Mode:             cfg.Server.Mode,
		Annotations:      handlers.NewAnnotationHandler(annotations, searcher, log),
		Jobs:             handlers.NewJobHandler(jobs, producer, log),
		Reference:        handlers.NewReferenceHandler(refService, log),
		Health:           handlers.NewHealthHandler(log, checks...),
		Logger:           log,
		MetricsCollector: collector,
		Metrics:          metrics,
	})

	server := apphttp.NewServer(cfg.Server, router, log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat("./geometax.yaml"); err == nil {
		return config.Load("./geometax.yaml")
	}
	return config.LoadFromEnv()
}
