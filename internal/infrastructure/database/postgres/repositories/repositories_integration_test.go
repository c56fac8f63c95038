//go:build integration

// Integration tests for the PostgreSQL repositories.  They require Docker
// and are gated behind the "integration" build tag.
package repositories_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/turtacn/geometax/internal/domain/annotation"
	"github.com/turtacn/geometax/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/geometax/pkg/errors"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "geometax_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/geometax_test?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("../../../../../migrations/000001_create_annotations.up.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	return pool
}

func TestAnnotationRepository_CRUD(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewAnnotationRepository(pool, nil)
	ctx := context.Background()

	ann := &annotation.Annotation{
		ID:        uuid.New(),
		SampleID:  "GSM1",
		Factor:    &annotation.Factor{ExtractedFactor: "CTCF", Source: "gene"},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Save(ctx, ann))

	got, err := repo.GetBySampleID(ctx, "GSM1")
	require.NoError(t, err)
	require.NotNil(t, got.Factor)
	assert.Equal(t, "CTCF", got.Factor.ExtractedFactor)
	assert.Nil(t, got.Ontology)

	// Re-saving the same sample replaces its annotation.
	ann.Factor.ExtractedFactor = "ESR1"
	ann.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.Save(ctx, ann))

	got, err = repo.GetBySampleID(ctx, "GSM1")
	require.NoError(t, err)
	assert.Equal(t, "ESR1", got.Factor.ExtractedFactor)

	list, err := repo.List(ctx, annotation.ListFilter{Factor: "ESR1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, "GSM1"))
	_, err = repo.GetBySampleID(ctx, "GSM1")
	assert.True(t, errors.IsCode(err, errors.ErrCodeAnnotationNotFound))
}

func TestJobRepository_Lifecycle(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewJobRepository(pool, nil)
	ctx := context.Background()

	job := &annotation.Job{
		ID:          uuid.New(),
		Mode:        annotation.ModeBoth,
		SampleIDs:   []string{"GSM1", "GSM2"},
		Status:      annotation.JobPending,
		SubmittedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, job))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, annotation.JobPending, got.Status)
	assert.True(t, got.StartedAt.IsZero())

	job.Status = annotation.JobCompleted
	job.Total = 2
	job.Completed = 2
	job.StartedAt = time.Now().UTC()
	job.FinishedAt = time.Now().UTC()
	require.NoError(t, repo.Update(ctx, job))

	got, err = repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, annotation.JobCompleted, got.Status)
	assert.Equal(t, 2, got.Completed)
	assert.False(t, got.FinishedAt.IsZero())

	jobs, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.True(t, errors.IsCode(err, errors.ErrCodeJobNotFound))
}
