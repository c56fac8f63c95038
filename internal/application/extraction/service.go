// Package extraction provides the application-level service that drives the
// full annotation pipeline for one sample or a batch: loading and simplifying
// the GEO records, running the factor and ontology resolvers, and assembling
// the output blocks.  This package sits between the HTTP/CLI/queue interfaces
// and the domain logic.
package extraction

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/turtacn/geometax/internal/domain/annotation"
	"github.com/turtacn/geometax/internal/domain/factor"
	"github.com/turtacn/geometax/internal/domain/ontology"
	"github.com/turtacn/geometax/internal/domain/sample"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/internal/oracle"
	"github.com/turtacn/geometax/pkg/errors"
)

// DefaultWorkers is the batch fan-out when none is configured.
const DefaultWorkers = 4

// Record is the per-sample block of a batch output document.  A nil Factor
// means the sample is a control or no factor could be verified; a nil
// Ontology means no slot resolved.
type Record struct {
	Factor   *annotation.Factor   `json:"factor,omitempty"`
	Ontology *annotation.Ontology `json:"ontology,omitempty"`
}

// Output maps sample accessions to their extraction blocks.  Samples that
// produced nothing at all are absent.
type Output map[string]Record

// BatchResult summarizes one batch run.
type BatchResult struct {
	Output    Output `json:"output"`
	Completed int    `json:"completed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// Service defines the interface for extraction operations.
type Service interface {
	// ProcessSample annotates one sample.  A nil annotation with a nil
	// error means the sample produced nothing worth emitting.
	ProcessSample(ctx context.Context, gsmID string, gseIDs []string, mode annotation.Mode) (*annotation.Annotation, error)

	// ProcessBatch annotates every sample in the mapping concurrently.
	ProcessBatch(ctx context.Context, mapping sample.Mapping, mode annotation.Mode) (*BatchResult, error)

	// RunJob executes a previously created job, keeping its repository
	// record's status and counters current.
	RunJob(ctx context.Context, job *annotation.Job, mapping sample.Mapping) error
}

type service struct {
	oracle     oracle.Oracle
	factors    *factor.Resolver
	ontologies *ontology.Resolver
	loader     *sample.Loader
	repo       annotation.Repository
	jobs       annotation.JobRepository
	searcher   annotation.Searcher
	logger     logging.Logger
	workers    int
	perSample  time.Duration
}

// Option customises the service.
type Option func(*service)

// WithWorkers sets the batch fan-out.  Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(s *service) {
		if n >= 1 {
			s.workers = n
		}
	}
}

// WithSampleTimeout bounds the wall-clock time spent on one sample,
// including every oracle round trip.  Zero disables the bound.
func WithSampleTimeout(d time.Duration) Option {
	return func(s *service) { s.perSample = d }
}

// WithRepository enables persistence of annotations.
func WithRepository(r annotation.Repository) Option {
	return func(s *service) { s.repo = r }
}

// WithJobRepository enables job bookkeeping for RunJob.
func WithJobRepository(r annotation.JobRepository) Option {
	return func(s *service) { s.jobs = r }
}

// WithSearcher enables search indexing of saved annotations.
func WithSearcher(sr annotation.Searcher) Option {
	return func(s *service) { s.searcher = sr }
}

// WithLogger sets the service logger.  Defaults to the nop logger.
func WithLogger(l logging.Logger) Option {
	return func(s *service) { s.logger = l }
}

// NewService wires the pipeline.  Repository, job repository, and searcher
// are optional; without them the service is a pure in-memory pipeline, which
// is how the CLI runs it.
func NewService(orc oracle.Oracle, factors *factor.Resolver, ontologies *ontology.Resolver, loader *sample.Loader, opts ...Option) Service {
	s := &service{
		oracle:     orc,
		factors:    factors,
		ontologies: ontologies,
		loader:     loader,
		logger:     logging.NewNopLogger(),
		workers:    DefaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ProcessSample(ctx context.Context, gsmID string, gseIDs []string, mode annotation.Mode) (*annotation.Annotation, error) {
	if !mode.IsValid() {
		return nil, errors.New(errors.ErrCodeBadRequest, "invalid extraction mode").WithDetail(string(mode))
	}
	if s.perSample > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.perSample)
		defer cancel()
	}

	sc, err := s.loader.Load(ctx, gsmID, gseIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ann := &annotation.Annotation{
		ID:        uuid.New(),
		SampleID:  gsmID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if mode == annotation.ModeFactor || mode == annotation.ModeBoth {
		ann.Factor = s.resolveFactor(ctx, sc)
	}
	if mode == annotation.ModeOntology || mode == annotation.ModeBoth {
		ann.Ontology = s.resolveOntology(ctx, sc)
	}

	if ann.Empty() {
		return nil, nil
	}
	s.persist(ctx, ann)
	return ann, nil
}

// resolveFactor produces the factor block for one sample.  Control samples,
// extraction failures, and candidates that exhausted resolution all yield no
// block at all; only a verified symbol is ever emitted.
func (s *service) resolveFactor(ctx context.Context, sc sample.Context) *annotation.Factor {
	isControl, err := s.oracle.IsControl(ctx, sc.Record, sc.Series)
	if err != nil {
		s.logger.Warn("control check failed",
			logging.String("gsm", sc.SampleID), logging.Err(err))
		return nil
	}
	if isControl {
		return nil
	}

	candidate, err := s.oracle.ExtractFactor(ctx, sc.Record, sc.Series)
	if err != nil {
		s.logger.Warn("factor extraction failed",
			logging.String("gsm", sc.SampleID), logging.Err(err))
		return nil
	}

	resolved := s.factors.Resolve(ctx, candidate, sc.Record, sc.Series)
	if !resolved.OK {
		return nil
	}
	return &annotation.Factor{ExtractedFactor: resolved.Symbol, Source: resolved.Source}
}

// resolveOntology produces the ontology block, or nil when extraction failed
// or every slot came back empty.
func (s *service) resolveOntology(ctx context.Context, sc sample.Context) *annotation.Ontology {
	candidates, err := s.oracle.ExtractOntology(ctx, sc.Record, sc.Series)
	if err != nil {
		s.logger.Warn("ontology extraction failed",
			logging.String("gsm", sc.SampleID), logging.Err(err))
		return nil
	}
	result := s.ontologies.Resolve(ctx, candidates)
	if result.Empty() {
		return nil
	}
	return &annotation.Ontology{ExtractedOntologies: result}
}

// persist writes the annotation through the optional repository and search
// index.  Persistence failures are logged, not returned: the caller already
// holds the in-memory result.
func (s *service) persist(ctx context.Context, ann *annotation.Annotation) {
	if s.repo != nil {
		if err := s.repo.Save(ctx, ann); err != nil {
			s.logger.Error("failed to save annotation",
				logging.String("gsm", ann.SampleID), logging.Err(err))
		}
	}
	if s.searcher != nil {
		if err := s.searcher.Index(ctx, ann); err != nil {
			s.logger.Warn("failed to index annotation",
				logging.String("gsm", ann.SampleID), logging.Err(err))
		}
	}
}

func (s *service) ProcessBatch(ctx context.Context, mapping sample.Mapping, mode annotation.Mode) (*BatchResult, error) {
	if !mode.IsValid() {
		return nil, errors.New(errors.ErrCodeBadRequest, "invalid extraction mode").WithDetail(string(mode))
	}

	ids := make([]string, 0, len(mapping))
	for id := range mapping {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := &BatchResult{Output: make(Output, len(ids))}
	var mu sync.Mutex

	queue := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range queue {
				ann, err := s.ProcessSample(ctx, id, mapping[id], mode)
				mu.Lock()
				switch {
				case errors.IsCode(err, errors.ErrCodeMissingContext):
					result.Skipped++
				case err != nil:
					result.Failed++
					s.logger.Warn("sample failed",
						logging.String("gsm", id), logging.Err(err))
				case ann == nil:
					result.Completed++
				default:
					result.Completed++
					result.Output[id] = Record{Factor: ann.Factor, Ontology: ann.Ontology}
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, id := range ids {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- id:
		}
	}
	close(queue)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return result, errors.Wrap(err, errors.ErrCodeTimeout, "batch interrupted")
	}
	return result, nil
}

func (s *service) RunJob(ctx context.Context, job *annotation.Job, mapping sample.Mapping) error {
	if s.jobs == nil {
		return errors.New(errors.ErrCodeInternal, "job repository not configured")
	}

	job.Status = annotation.JobRunning
	job.StartedAt = time.Now().UTC()
	job.Total = len(job.SampleIDs)
	if err := s.jobs.Update(ctx, job); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to mark job running")
	}

	// Restrict the mapping to the job's samples so a shared mapping file
	// can back many jobs.
	scoped := make(sample.Mapping, len(job.SampleIDs))
	for _, id := range job.SampleIDs {
		scoped[id] = mapping[id]
	}

	result, err := s.ProcessBatch(ctx, scoped, job.Mode)
	job.FinishedAt = time.Now().UTC()
	if result != nil {
		job.Completed = result.Completed
		job.Skipped = result.Skipped + result.Failed
	}
	if err != nil {
		job.Status = annotation.JobFailed
		job.Error = err.Error()
	} else {
		job.Status = annotation.JobCompleted
	}
	if uerr := s.jobs.Update(context.WithoutCancel(ctx), job); uerr != nil {
		s.logger.Error("failed to finalize job",
			logging.String("job", job.ID.String()), logging.Err(uerr))
	}
	return err
}
