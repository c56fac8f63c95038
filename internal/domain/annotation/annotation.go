// Package annotation holds the persisted outcome of a metadata extraction:
// per sample, the verified factor and the resolved ontology slots, plus the
// batch jobs that produced them.
package annotation

import (
	"time"

	"github.com/google/uuid"
	"github.com/turtacn/geometax/internal/domain/factor"
	"github.com/turtacn/geometax/internal/domain/ontology"
)

// Factor is the factor block of an annotation.  The block exists only for
// samples whose factor was verified against a reference; controls and
// exhausted resolutions carry no block at all.
type Factor struct {
	// ExtractedFactor is the verified symbol or histone mark.
	ExtractedFactor string `json:"extracted_factor"`

	// Source classifies the reference that verified the factor.
	Source factor.SourceKind `json:"source,omitempty"`
}

// Ontology is the ontology block of an annotation.
type Ontology struct {
	ExtractedOntologies ontology.Result `json:"extracted_ontologies"`
}

// Annotation is one sample's extraction outcome.  Factor and Ontology are
// nil when the corresponding mode was not run or produced nothing to report.
type Annotation struct {
	ID        uuid.UUID `json:"id"`
	SampleID  string    `json:"sample_id"`
	Factor    *Factor   `json:"factor,omitempty"`
	Ontology  *Ontology `json:"ontology,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Empty reports whether the annotation carries nothing worth emitting.
// Empty annotations are omitted from batch output rather than persisted.
func (a *Annotation) Empty() bool {
	return a.Factor == nil && a.Ontology == nil
}

// Mode selects which resolvers a job runs.
type Mode string

const (
	ModeFactor   Mode = "factor"
	ModeOntology Mode = "ontology"
	ModeBoth     Mode = "both"
)

// IsValid reports whether the mode is one of the three defined values.
func (m Mode) IsValid() bool {
	switch m {
	case ModeFactor, ModeOntology, ModeBoth:
		return true
	}
	return false
}

// JobStatus is the lifecycle state of a batch job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is one submitted extraction batch.
type Job struct {
	ID          uuid.UUID `json:"id"`
	Mode        Mode      `json:"mode"`
	SampleIDs   []string  `json:"sample_ids"`
	Status      JobStatus `json:"status"`
	Total       int       `json:"total"`
	Completed   int       `json:"completed"`
	Skipped     int       `json:"skipped"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
}
