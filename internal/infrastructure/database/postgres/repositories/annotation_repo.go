// Package repositories provides the PostgreSQL-backed implementations of the
// annotation domain's repository interfaces.
package repositories

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/turtacn/geometax/internal/domain/annotation"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

// AnnotationRepository persists annotations, one row per sample accession.
type AnnotationRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewAnnotationRepository constructs a ready-to-use AnnotationRepository.
func NewAnnotationRepository(pool *pgxpool.Pool, log logging.Logger) *AnnotationRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &AnnotationRepository{pool: pool, logger: log}
}

// Save upserts by sample accession: re-running a sample replaces its previous
// annotation and bumps updated_at, preserving the original row id.
func (r *AnnotationRepository) Save(ctx context.Context, a *annotation.Annotation) error {
	factorJSON, err := marshalNullable(a.Factor)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode factor block")
	}
	ontologyJSON, err := marshalNullable(a.Ontology)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode ontology block")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO annotations (id, sample_id, factor, ontology, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sample_id) DO UPDATE SET
			factor     = EXCLUDED.factor,
			ontology   = EXCLUDED.ontology,
			updated_at = EXCLUDED.updated_at`,
		a.ID, a.SampleID, factorJSON, ontologyJSON, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeAnnotationSaveFailed, "failed to save annotation").
			WithDetail(a.SampleID)
	}
	return nil
}

// GetBySampleID loads one annotation.
func (r *AnnotationRepository) GetBySampleID(ctx context.Context, sampleID string) (*annotation.Annotation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, sample_id, factor, ontology, created_at, updated_at
		FROM annotations WHERE sample_id = $1`, sampleID)

	a, err := scanAnnotation(row)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.ErrCodeAnnotationNotFound, "annotation not found").
			WithDetail(sampleID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load annotation").
			WithDetail(sampleID)
	}
	return a, nil
}

// List returns annotations matching the filter, newest first.
func (r *AnnotationRepository) List(ctx context.Context, filter annotation.ListFilter) ([]*annotation.Annotation, error) {
	query := `
		SELECT id, sample_id, factor, ontology, created_at, updated_at
		FROM annotations WHERE TRUE`
	args := []any{}

	if len(filter.SampleIDs) > 0 {
		args = append(args, filter.SampleIDs)
		query += ` AND sample_id = ANY($1)`
	}
	if filter.Factor != "" {
		args = append(args, filter.Factor)
		query += ` AND factor->>'extracted_factor' = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY updated_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list annotations")
	}
	defer rows.Close()

	var out []*annotation.Annotation
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan annotation row")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate annotation rows")
	}
	return out, nil
}

// Delete removes one sample's annotation.  Deleting an absent sample is not
// an error.
func (r *AnnotationRepository) Delete(ctx context.Context, sampleID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM annotations WHERE sample_id = $1`, sampleID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete annotation").
			WithDetail(sampleID)
	}
	return nil
}

func scanAnnotation(row pgx.Row) (*annotation.Annotation, error) {
	var (
		a            annotation.Annotation
		factorJSON   []byte
		ontologyJSON []byte
	)
	if err := row.Scan(&a.ID, &a.SampleID, &factorJSON, &ontologyJSON, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if len(factorJSON) > 0 {
		a.Factor = &annotation.Factor{}
		if err := json.Unmarshal(factorJSON, a.Factor); err != nil {
			return nil, err
		}
	}
	if len(ontologyJSON) > 0 {
		a.Ontology = &annotation.Ontology{}
		if err := json.Unmarshal(ontologyJSON, a.Ontology); err != nil {
			return nil, err
		}
	}
	return &a, nil
}

// marshalNullable encodes a block pointer, mapping nil to SQL NULL.
func marshalNullable(v any) ([]byte, error) {
	switch blk := v.(type) {
	case *annotation.Factor:
		if blk == nil {
			return nil, nil
		}
	case *annotation.Ontology:
		if blk == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

