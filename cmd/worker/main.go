// Command worker consumes batch extraction jobs from the queue and runs the
// annotation pipeline for each one.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/geometax/internal/application/extraction"
	"github.com/turtacn/geometax/internal/application/refdata"
	"github.com/turtacn/geometax/internal/config"
	"github.com/turtacn/geometax/internal/domain/annotation"
	"github.com/turtacn/geometax/internal/domain/factor"
	"github.com/turtacn/geometax/internal/domain/normalize"
	"github.com/turtacn/geometax/internal/domain/ontology"
	"github.com/turtacn/geometax/internal/domain/sample"
	"github.com/turtacn/geometax/internal/infrastructure/database/postgres"
	"github.com/turtacn/geometax/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/geometax/internal/infrastructure/database/redis"
	"github.com/turtacn/geometax/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/internal/infrastructure/search/opensearch"
	"github.com/turtacn/geometax/internal/infrastructure/storage/minio"
	"github.com/turtacn/geometax/internal/oracle"
)

func main() {
	configPath := flag.String("config", "", "config file path")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
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
	log = log.Named("worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	var searcher annotation.Searcher
	if cfg.SearchEnabled() {
		osClient, err := opensearch.NewClient(cfg.OpenSearch, log)
		if err != nil {
			return err
		}
		if err := osClient.EnsureIndex(ctx); err != nil {
			return err
		}
		searcher = opensearch.NewSearcher(osClient, log)
	}

	refStore := minio.NewReferenceStore(store, store.Buckets().Reference)
	refService := refdata.NewService(
		refStore,
		normalize.New(normalize.DefaultStopwords),
		refdata.WithLocker(redis.NewLock(rdb, log, "refdata-rebuild")),
		refdata.WithLogger(log),
	)
	if err := refService.MustLoad(ctx); err != nil {
		return err
	}

	orc, err := oracle.New(cfg.Oracle.Config, log)
	if err != nil {
		return err
	}
	cached := oracle.NewCachedOracle(orc, redis.NewCache(rdb, log), log, cfg.Oracle.CacheTTL)

	annotations := repositories.NewAnnotationRepository(db.Pool(), log)
	jobs := repositories.NewJobRepository(db.Pool(), log)
	loader := sample.NewLoader(minio.NewRecordStore(store, store.Buckets().Records), log)
	norm := normalize.New(normalize.DefaultStopwords)

	handler := func(ctx context.Context, msg kafka.JobMessage) error {
		snap, err := refService.Provider().Current()
		if err != nil {
			return err
		}

		svc := extraction.NewService(
			cached,
			factor.NewResolver(snap.References, factor.DefaultHistoneGrammar(), cached, factor.WithLogger(log)),
			ontology.NewResolver(snap.Indexes, norm, cached),
			loader,
			extraction.WithWorkers(cfg.Worker.Workers),
			extraction.WithSampleTimeout(cfg.Worker.SampleTimeout),
			extraction.WithRepository(annotations),
			extraction.WithJobRepository(jobs),
			extraction.WithSearcher(searcher),
			extraction.WithLogger(log),
		)

		job, err := jobs.GetByID(ctx, msg.JobID)
		if err != nil {
			return err
		}
		return svc.RunJob(ctx, job, msg.Mapping)
	}

	consumer := kafka.NewConsumer(cfg.Kafka, handler, log)
	defer consumer.Close()

	log.Info("worker started",
		logging.Int("workers", cfg.Worker.Workers),
		logging.Bool("search", searcher != nil))
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("worker stopped")
	return nil
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
