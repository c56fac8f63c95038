package annotation

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows annotation listings.
type ListFilter struct {
	SampleIDs []string
	Factor    string
	Limit     int
	Offset    int
}

// Repository is the persistence contract for annotations.  Save is an
// upsert keyed on sample accession: a re-run of the same sample replaces its
// previous annotation.
type Repository interface {
	Save(ctx context.Context, a *Annotation) error
	GetBySampleID(ctx context.Context, sampleID string) (*Annotation, error)
	List(ctx context.Context, filter ListFilter) ([]*Annotation, error)
	Delete(ctx context.Context, sampleID string) error
}

// JobRepository is the persistence contract for batch jobs.
type JobRepository interface {
	Create(ctx context.Context, j *Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*Job, error)
	Update(ctx context.Context, j *Job) error
	List(ctx context.Context, limit, offset int) ([]*Job, error)
}

// Searcher is the full-text search contract behind the annotation search
// endpoint; implemented by the opensearch indexer.
type Searcher interface {
	Index(ctx context.Context, a *Annotation) error
	Search(ctx context.Context, query string, limit int) ([]*Annotation, error)
}
