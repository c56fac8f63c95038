// Package refdata provides the application-level service that keeps the
// resolver reference data current: downloading corpus releases, parsing and
// indexing them, and swapping the resulting snapshot in atomically so
// in-flight resolutions never observe a half-built index.
package refdata

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/turtacn/geometax/internal/domain/factor"
	"github.com/turtacn/geometax/internal/domain/normalize"
	"github.com/turtacn/geometax/internal/domain/ontology"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	infra "github.com/turtacn/geometax/internal/infrastructure/refdata"
	"github.com/turtacn/geometax/pkg/errors"
)

// Snapshot is one complete, immutable build of the reference data.  Consumers
// take the whole snapshot and use it for the duration of a resolution; they
// never mix structures from different builds.
type Snapshot struct {
	References *factor.References
	Indexes    *ontology.IndexSet
	BuiltAt    time.Time
}

// Provider hands out the current snapshot.  Reads are lock-free; Rebuild
// replaces the whole pointer at once.
type Provider struct {
	current atomic.Pointer[Snapshot]
}

// Current returns the latest snapshot, or an error when no build has
// completed yet.
func (p *Provider) Current() (*Snapshot, error) {
	if s := p.current.Load(); s != nil {
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeIndexNotLoaded, "reference data not loaded")
}

// Locker serializes rebuilds across processes.  The redis lock satisfies it.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// Service builds snapshots from the corpus store.
type Service struct {
	store      infra.Store
	downloader *infra.Downloader
	provider   *Provider
	norm       *normalize.Normalizer
	locker     Locker
	logger     logging.Logger
}

// Option customises the service.
type Option func(*Service)

// WithDownloader enables Update to fetch fresh corpus releases.
func WithDownloader(d *infra.Downloader) Option {
	return func(s *Service) { s.downloader = d }
}

// WithLocker serializes rebuilds across processes.  Without one, rebuilds
// rely on process-local exclusion only.
func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

// WithLogger sets the service logger.  Defaults to the nop logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService constructs a Service reading corpora from store.
func NewService(store infra.Store, norm *normalize.Normalizer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		provider: &Provider{},
		norm:     norm,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the snapshot provider consumers read from.
func (s *Service) Provider() *Provider { return s.provider }

// MustLoad performs the startup build.  A failure here is fatal: without
// reference data no identifier can be resolved meaningfully, so callers abort
// before accepting any work.
func (s *Service) MustLoad(ctx context.Context) error {
	if err := s.Rebuild(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeReferenceDataMissing, "startup reference build failed")
	}
	return nil
}

// Update downloads fresh corpus releases and rebuilds the snapshot.
func (s *Service) Update(ctx context.Context) error {
	if s.downloader == nil {
		return errors.New(errors.ErrCodeInternal, "downloader not configured")
	}
	if err := s.downloader.FetchAll(ctx); err != nil {
		return err
	}
	return s.Rebuild(ctx)
}

// Rebuild parses every corpus from the store and swaps the new snapshot in.
// When a cross-process lock is configured and already held elsewhere, the
// rebuild is skipped; the holder's swap will be picked up on the next build.
func (s *Service) Rebuild(ctx context.Context) error {
	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeCacheError, "failed to acquire rebuild lock")
		}
		if !ok {
			s.logger.Info("reference rebuild already in progress elsewhere, skipping")
			return nil
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release rebuild lock", logging.Err(err))
			}
		}()
	}

	start := time.Now()

	genes, err := parseCorpus(ctx, s.store, infra.CorpusGeneInfo, infra.ParseGeneInfo)
	if err != nil {
		return err
	}
	tfs, err := parseCorpus(ctx, s.store, infra.CorpusTFList, infra.ParseTFList)
	if err != nil {
		return err
	}
	crs, err := parseCorpus(ctx, s.store, infra.CorpusCRList, infra.ParseCRList)
	if err != nil {
		return err
	}
	cellosaurus, err := parseCorpus(ctx, s.store, infra.CorpusCellosaurus, infra.ParseCellosaurus)
	if err != nil {
		return err
	}
	efo, err := parseCorpus(ctx, s.store, infra.CorpusEFO, infra.ParseEFO)
	if err != nil {
		return err
	}
	uberon, err := parseCorpus(ctx, s.store, infra.CorpusUberon, infra.ParseUberon)
	if err != nil {
		return err
	}

	snapshot := &Snapshot{
		References: infra.BuildReferences(genes, tfs, crs),
		Indexes:    infra.BuildIndexSet(s.norm, cellosaurus, efo, uberon),
		BuiltAt:    time.Now().UTC(),
	}
	s.provider.current.Store(snapshot)

	s.logger.Info("reference snapshot rebuilt",
		logging.Int("genes", snapshot.References.Genes.Len()),
		logging.Int("cellosaurus_keys", snapshot.Indexes.Cellosaurus.Len()),
		logging.Int("efo_keys", snapshot.Indexes.EFO.Len()),
		logging.Int("uberon_keys", snapshot.Indexes.Uberon.Len()),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}

// parseCorpus fetches one corpus object and runs its parser over the stream.
func parseCorpus[T any](ctx context.Context, store infra.Store, name string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	rc, err := store.Get(ctx, name)
	if err != nil {
		return zero, errors.Wrap(err, errors.ErrCodeReferenceDataMissing, "corpus unavailable").
			WithDetail(name)
	}
	defer rc.Close()

	out, err := parse(rc)
	if err != nil {
		return zero, err
	}
	return out, nil
}
