package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/turtacn/geometax/internal/domain/annotation"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

// JobRepository persists batch jobs.
type JobRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewJobRepository constructs a ready-to-use JobRepository.
func NewJobRepository(pool *pgxpool.Pool, log logging.Logger) *JobRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &JobRepository{pool: pool, logger: log}
}

// Create inserts a new job row.
func (r *JobRepository) Create(ctx context.Context, j *annotation.Job) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO jobs (id, mode, sample_ids, status, total, completed, skipped, error,
			submitted_at, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		j.ID, string(j.Mode), j.SampleIDs, string(j.Status),
		j.Total, j.Completed, j.Skipped, j.Error,
		j.SubmittedAt, nullableTime(j.StartedAt), nullableTime(j.FinishedAt))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create job").
			WithDetail(j.ID.String())
	}
	return nil
}

// GetByID loads one job.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*annotation.Job, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, mode, sample_ids, status, total, completed, skipped, error,
			submitted_at, started_at, finished_at
		FROM jobs WHERE id = $1`, id)

	j, err := scanJob(row)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.ErrCodeJobNotFound, "job not found").
			WithDetail(id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load job").
			WithDetail(id.String())
	}
	return j, nil
}

// Update rewrites a job row's mutable fields.
func (r *JobRepository) Update(ctx context.Context, j *annotation.Job) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE jobs SET status = $2, total = $3, completed = $4, skipped = $5,
			error = $6, started_at = $7, finished_at = $8
		WHERE id = $1`,
		j.ID, string(j.Status), j.Total, j.Completed, j.Skipped, j.Error,
		nullableTime(j.StartedAt), nullableTime(j.FinishedAt))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update job").
			WithDetail(j.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrCodeJobNotFound, "job not found").
			WithDetail(j.ID.String())
	}
	return nil
}

// List returns jobs newest first.
func (r *JobRepository) List(ctx context.Context, limit, offset int) ([]*annotation.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, mode, sample_ids, status, total, completed, skipped, error,
			submitted_at, started_at, finished_at
		FROM jobs ORDER BY submitted_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list jobs")
	}
	defer rows.Close()

	var out []*annotation.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan job row")
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate job rows")
	}
	return out, nil
}

func scanJob(row pgx.Row) (*annotation.Job, error) {
	var (
		j          annotation.Job
		mode       string
		status     string
		startedAt  *time.Time
		finishedAt *time.Time
	)
	err := row.Scan(&j.ID, &mode, &j.SampleIDs, &status, &j.Total, &j.Completed,
		&j.Skipped, &j.Error, &j.SubmittedAt, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	j.Mode = annotation.Mode(mode)
	j.Status = annotation.JobStatus(status)
	if startedAt != nil {
		j.StartedAt = *startedAt
	}
	if finishedAt != nil {
		j.FinishedAt = *finishedAt
	}
	return &j, nil
}

// nullableTime maps zero times to SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
