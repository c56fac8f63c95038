package factor

import (
	"context"

	"github.com/turtacn/geometax/internal/domain/normalize"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
)

// SourceKind classifies which reference validated a resolved factor.
type SourceKind string

const (
	SourceGene                SourceKind = "gene"
	SourceTranscriptionFactor SourceKind = "transcription_factor"
	SourceChromatinRemodeler  SourceKind = "chromatin_remodeler"
	SourceHistoneMark         SourceKind = "histone_mark"
)

// Resolved is the outcome of one factor resolution.  The zero value is the
// unresolved result.
type Resolved struct {
	// Symbol is the verified official gene symbol, or the histone mark
	// string when Source is SourceHistoneMark.  Empty when unresolved.
	Symbol string

	// Source records which reference check satisfied the resolution.
	Source SourceKind

	// OK is true when Symbol carries a verified value.
	OK bool
}

// NoneCandidate is the sentinel the extraction oracle emits when no factor
// could be identified in the metadata.  It is never looked up against the
// gene table and never submitted for synonym expansion.
const NoneCandidate = "None"

// DefaultMaxRounds bounds the recheck loop.  Termination of Resolve is
// guaranteed by this bound, not by oracle behaviour.
const DefaultMaxRounds = 3

// Oracle is the disambiguation capability the resolver depends on.  All
// implementations must treat each call as a single attempt: the resolver owns
// retry policy, so a transient failure is returned, not retried internally.
type Oracle interface {
	// Disambiguate chooses one symbol from candidates given the sample
	// record and its series context.  The returned string should be one of
	// the candidates; the resolver verifies this and treats any other value
	// as a failed disambiguation.
	Disambiguate(ctx context.Context, candidates []string, record string, series []string) (string, error)

	// Synonyms returns alternative names for term.
	Synonyms(ctx context.Context, term string) ([]string, error)

	// Recheck re-extracts a candidate factor from the record, avoiding the
	// previously failed candidates in excluded.
	Recheck(ctx context.Context, record string, series []string, excluded []string) (string, error)
}

// Resolver verifies a candidate factor string against the gene, TF, CR, and
// histone references, with synonym expansion and a bounded recheck loop.
// It holds only read-only state and is safe for concurrent use.
type Resolver struct {
	refs      *References
	grammar   *HistoneGrammar
	oracle    Oracle
	logger    logging.Logger
	maxRounds int
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the resolver's logger.  Defaults to the nop logger.
func WithLogger(l logging.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// WithMaxRounds overrides the recheck budget.  Values below 1 are ignored.
func WithMaxRounds(n int) ResolverOption {
	return func(r *Resolver) {
		if n >= 1 {
			r.maxRounds = n
		}
	}
}

// NewResolver constructs a Resolver over the supplied references, grammar,
// and oracle.
func NewResolver(refs *References, grammar *HistoneGrammar, oracle Oracle, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		refs:      refs,
		grammar:   grammar,
		oracle:    oracle,
		logger:    logging.NewNopLogger(),
		maxRounds: DefaultMaxRounds,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs the verification state machine over candidate.
//
// Per round: a histone-grammar hit returns immediately; otherwise the
// candidate is looked up in the gene table and disambiguated through the
// TF → CR → histone-on-original → unfiltered-picker cascade; failing that,
// oracle synonyms are tried one by one through the same cascade; failing
// that, the oracle rechecks the record with all failed candidates excluded
// and the loop restarts with the new candidate.  After maxRounds rounds, or
// when a recheck call fails, the zero Resolved is returned.
//
// Callers must check the control-sample status of the record before calling
// Resolve; control samples have no target factor by definition.
func (r *Resolver) Resolve(ctx context.Context, candidate string, record string, series []string) Resolved {
	excluded := make([]string, 0, r.maxRounds)

	for round := 1; round <= r.maxRounds; round++ {
		if ctx.Err() != nil {
			r.logger.Warn("factor resolution aborted by deadline",
				logging.String("candidate", candidate),
				logging.Int("round", round))
			return Resolved{}
		}
		excluded = append(excluded, candidate)

		if r.grammar.Validate(candidate) {
			return Resolved{Symbol: candidate, Source: SourceHistoneMark, OK: true}
		}

		if candidate != NoneCandidate {
			if matches := r.refs.Genes.Lookup(candidate); len(matches) > 0 {
				if res, ok := r.disambiguate(ctx, candidate, record, series, matches); ok {
					return res
				}
			}
			if res, ok := r.synonymRetry(ctx, candidate, record, series); ok {
				return res
			}
		}

		next, err := r.oracle.Recheck(ctx, record, series, excluded)
		if err != nil {
			r.logger.Warn("factor recheck failed, giving up",
				logging.String("candidate", candidate),
				logging.Int("round", round),
				logging.Err(err))
			return Resolved{}
		}
		r.logger.Debug("factor recheck produced new candidate",
			logging.String("previous", candidate),
			logging.String("next", next),
			logging.Int("round", round))
		candidate = next
	}
	return Resolved{}
}

// disambiguate applies the tie-break cascade over a non-empty gene match set.
// The boolean result is false when no reference check was satisfied; oracle
// failures inside the cascade degrade to false rather than propagating.
func (r *Resolver) disambiguate(ctx context.Context, candidate, record string, series []string, matches []GeneRecord) (Resolved, bool) {
	if len(matches) == 1 {
		return Resolved{Symbol: matches[0].Symbol, Source: SourceGene, OK: true}, true
	}

	// Tier 1: transcription-factor filter.  A non-empty TF subset is
	// authoritative; there is no fall-through to the CR tier from here.
	if tf := r.refs.TFs.Filter(matches); len(tf) > 0 {
		if len(tf) == 1 {
			return Resolved{Symbol: tf[0].Symbol, Source: SourceTranscriptionFactor, OK: true}, true
		}
		if choice, ok := r.pick(ctx, tf, record, series); ok {
			for _, rec := range tf {
				if rec.Symbol == choice {
					return Resolved{Symbol: rec.Symbol, Source: SourceTranscriptionFactor, OK: true}, true
				}
			}
		}
		return Resolved{}, false
	}

	// Tier 2: chromatin-remodeler filter.
	if cr := r.refs.CRs.Filter(matches); len(cr) > 0 {
		if len(cr) == 1 {
			return Resolved{Symbol: cr[0].Symbol, Source: SourceChromatinRemodeler, OK: true}, true
		}
		if choice, ok := r.pick(ctx, cr, record, series); ok {
			for _, rec := range cr {
				if rec.Symbol == choice {
					return Resolved{Symbol: rec.Symbol, Source: SourceChromatinRemodeler, OK: true}, true
				}
			}
		}
		return Resolved{}, false
	}

	// Tier 3: the candidate itself may be a histone mark that collided with
	// a gene synonym.
	if r.grammar.Validate(candidate) {
		return Resolved{Symbol: candidate, Source: SourceHistoneMark, OK: true}, true
	}

	// Tier 4: unfiltered pick over the whole match set.  Acceptance is by
	// normalized equality, tolerating case/punctuation drift in the choice.
	if choice, ok := r.pick(ctx, matches, record, series); ok {
		want := normalize.Strict(choice)
		for _, rec := range matches {
			if normalize.Strict(rec.Symbol) == want {
				return Resolved{Symbol: rec.Symbol, Source: SourceGene, OK: true}, true
			}
		}
	}
	return Resolved{}, false
}

// pick asks the oracle to choose among the records' symbols.  A failing call
// is logged and reported as not-ok.
func (r *Resolver) pick(ctx context.Context, records []GeneRecord, record string, series []string) (string, bool) {
	symbols := make([]string, len(records))
	for i, rec := range records {
		symbols[i] = rec.Symbol
	}
	choice, err := r.oracle.Disambiguate(ctx, symbols, record, series)
	if err != nil {
		r.logger.Warn("disambiguation call failed",
			logging.Int("candidates", len(symbols)),
			logging.Err(err))
		return "", false
	}
	return choice, true
}

// synonymRetry expands the candidate through the oracle and re-runs the
// lookup + cascade for each synonym in order, stopping at the first success.
func (r *Resolver) synonymRetry(ctx context.Context, candidate, record string, series []string) (Resolved, bool) {
	synonyms, err := r.oracle.Synonyms(ctx, candidate)
	if err != nil {
		r.logger.Warn("synonym expansion failed",
			logging.String("candidate", candidate),
			logging.Err(err))
		return Resolved{}, false
	}
	for _, syn := range synonyms {
		matches := r.refs.Genes.Lookup(syn)
		if len(matches) == 0 {
			continue
		}
		if res, ok := r.disambiguate(ctx, syn, record, series, matches); ok {
			return res, true
		}
	}
	return Resolved{}, false
}
