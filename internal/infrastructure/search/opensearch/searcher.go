package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"
	"github.com/turtacn/geometax/internal/domain/annotation"
	"github.com/turtacn/geometax/internal/domain/ontology"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// document is the indexed form of an annotation.  The flattened fields feed
// the query; the embedded annotation rides along unindexed so hits can be
// returned without a database round trip.
type document struct {
	SampleID   string                 `json:"sample_id"`
	Factor     string                 `json:"factor,omitempty"`
	Source     string                 `json:"source,omitempty"`
	Terms      []string               `json:"terms,omitempty"`
	Accessions []string               `json:"accessions,omitempty"`
	Annotation *annotation.Annotation `json:"annotation"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

func newDocument(a *annotation.Annotation) document {
	doc := document{SampleID: a.SampleID, Annotation: a, UpdatedAt: a.UpdatedAt}
	if a.Factor != nil {
		doc.Factor = a.Factor.ExtractedFactor
		doc.Source = string(a.Factor.Source)
	}
	if a.Ontology != nil {
		r := a.Ontology.ExtractedOntologies
		for _, slot := range []ontology.SlotResult{r.CellLine, r.CellType, r.Tissue, r.Disease} {
			for _, m := range slot {
				doc.Terms = appendUnique(doc.Terms, m.OfficialTerm)
				doc.Terms = appendUnique(doc.Terms, m.Term...)
				doc.Accessions = appendUnique(doc.Accessions, m.Accession...)
			}
		}
	}
	return doc
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		seen := false
		for _, existing := range dst {
			if existing == v {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, v)
		}
	}
	return dst
}

// Searcher implements annotation.Searcher over the annotation index.
type Searcher struct {
	client *Client
	logger logging.Logger
}

// NewSearcher creates a Searcher.
func NewSearcher(client *Client, log logging.Logger) *Searcher {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Searcher{client: client, logger: log}
}

var _ annotation.Searcher = (*Searcher)(nil)

// Index upserts one annotation document, keyed by sample accession so a
// re-annotated sample replaces its previous document.
func (s *Searcher) Index(ctx context.Context, a *annotation.Annotation) error {
	payload, err := json.Marshal(newDocument(a))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode search document")
	}

	_, err = s.client.api.Index(ctx, opensearchapi.IndexReq{
		Index:      s.client.index,
		DocumentID: a.SampleID,
		Body:       bytes.NewReader(payload),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchIndexFailed, "failed to index annotation").
			WithDetail(a.SampleID)
	}

	s.logger.Debug("annotation indexed", logging.String("sample", a.SampleID))
	return nil
}

// Search runs a free-text query over sample accessions, factor symbols,
// ontology terms, and ontology accessions, best score first.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]*annotation.Annotation, error) {
	if query == "" {
		return nil, errors.New(errors.ErrCodeValidation, "search query is required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	body, err := json.Marshal(map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"sample_id^2", "factor^2", "terms", "accessions"},
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode search query")
	}

	resp, err := s.client.api.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{s.client.index},
		Body:    bytes.NewReader(body),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchQueryFailed, "search request failed")
	}

	results := make([]*annotation.Annotation, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var doc document
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			s.logger.Warn("skipping undecodable search hit",
				logging.String("id", hit.ID),
				logging.Err(err))
			continue
		}
		if doc.Annotation != nil {
			results = append(results, doc.Annotation)
		}
	}
	return results, nil
}
