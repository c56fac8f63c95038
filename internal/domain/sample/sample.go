// Package sample models GEO sample (GSM) and series (GSE) records: fetching
// their MINiML XML from the record store, simplifying them into the compact
// text form the extraction oracle consumes, and bundling one sample with its
// series context.
package sample

import (
	"context"

	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

// Store fetches raw MINiML XML blobs by accession.
type Store interface {
	Sample(ctx context.Context, gsmID string) ([]byte, error)
	Series(ctx context.Context, gseID string) ([]byte, error)
}

// Mapping associates each sample accession with its series accessions.
// Samples absent from the mapping have no context and are skipped.
type Mapping map[string][]string

// Context is everything the resolvers need for one identifier: the
// simplified sample record and its simplified series records.
type Context struct {
	SampleID string
	Record   string
	Series   []string
}

// Loader assembles Contexts from the store.
type Loader struct {
	store  Store
	logger logging.Logger
}

// NewLoader wraps a store.
func NewLoader(store Store, logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Loader{store: store, logger: logger}
}

// Load fetches and simplifies one sample with its series context.  A sample
// with no series accessions is a missing-context skip.  Individual series
// that fail to fetch or parse are dropped with a warning; losing some
// context degrades disambiguation quality but does not fail the sample.
func (l *Loader) Load(ctx context.Context, gsmID string, gseIDs []string) (Context, error) {
	if len(gseIDs) == 0 {
		return Context{}, errors.New(errors.ErrCodeMissingContext, "sample has no series mapping").
			WithDetail(gsmID)
	}

	raw, err := l.store.Sample(ctx, gsmID)
	if err != nil {
		return Context{}, errors.Wrap(err, errors.ErrCodeRecordFetchFailed, "failed to fetch sample record").
			WithDetail(gsmID)
	}
	record, err := SimplifySample(raw)
	if err != nil {
		return Context{}, errors.Wrap(err, errors.ErrCodeRecordParseFailed, "failed to parse sample record").
			WithDetail(gsmID)
	}

	series := make([]string, 0, len(gseIDs))
	for _, gseID := range gseIDs {
		blob, err := l.store.Series(ctx, gseID)
		if err != nil {
			l.logger.Warn("failed to fetch series record",
				logging.String("gsm", gsmID),
				logging.String("gse", gseID),
				logging.Err(err))
			continue
		}
		text, err := SimplifySeries(blob)
		if err != nil {
			l.logger.Warn("failed to parse series record",
				logging.String("gsm", gsmID),
				logging.String("gse", gseID),
				logging.Err(err))
			continue
		}
		series = append(series, text)
	}

	return Context{SampleID: gsmID, Record: record, Series: series}, nil
}
