package ontology

import (
	"context"
	"strings"

	"github.com/turtacn/geometax/internal/domain/normalize"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
)

// AlternateNameCount is the number of suggestions the oracle must return per
// unresolved slot.  Any other shape is a malformed response and degrades the
// slot to permanently unresolved.
const AlternateNameCount = 3

// AlternateNamer is the single oracle capability the ontology resolver
// depends on: suggesting rephrasings of a term no vocabulary matched.
type AlternateNamer interface {
	AlternateNames(ctx context.Context, term string) ([]string, error)
}

// Resolver walks each slot of a candidate object through the five-tier match
// waterfall, retries unresolved slots through alternate names, and collapses
// the matches.  It holds only read-only state and is safe for concurrent use.
type Resolver struct {
	indexes *IndexSet
	norm    *normalize.Normalizer
	scorer  Scorer
	oracle  AlternateNamer
	logger  logging.Logger
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the resolver's logger.  Defaults to the nop logger.
func WithLogger(l logging.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// WithScorer overrides the fuzzy-tier scorer.  Defaults to token-sort ratio.
func WithScorer(s Scorer) ResolverOption {
	return func(r *Resolver) { r.scorer = s }
}

// NewResolver constructs a Resolver over the supplied indexes and oracle.
// A nil oracle disables the alternate-name retry round.
func NewResolver(indexes *IndexSet, norm *normalize.Normalizer, oracle AlternateNamer, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		indexes: indexes,
		norm:    norm,
		scorer:  TokenSortScorer{},
		oracle:  oracle,
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve resolves all four slots of the candidate object.  Slots are
// isolated from each other: an oracle failure on one slot degrades only that
// slot.  A slot asserted absent upstream (the N/A sentinel) is null and never
// looked up or retried.
func (r *Resolver) Resolve(ctx context.Context, c Candidates) Result {
	var out Result
	for _, slot := range Slots {
		out.set(slot, r.resolveSlot(ctx, slot, c.slot(slot)))
	}
	return out
}

func (r *Resolver) resolveSlot(ctx context.Context, slot Slot, value string) SlotResult {
	if value == "" || value == NASentinel {
		return nil
	}
	matches := r.waterfall(slot, value)
	if len(matches) == 0 {
		matches = r.alternateRetry(ctx, slot, value)
	}
	if len(matches) == 0 {
		return nil
	}
	return Collapse(matches)
}

// waterfall runs the five tiers in fixed order and returns the first tier's
// matches, tagged with the query.  A value that normalizes to nothing cannot
// match any tier and resolves to nothing.
func (r *Resolver) waterfall(slot Slot, value string) []Match {
	key := r.norm.Key(value)
	if key == "" {
		return nil
	}
	reducedKey := r.norm.ReducedKey(value)
	sources := r.indexes.forSlot(slot)

	// Tier 1: full index, strict key.
	if entries := lookup(sources, key, (*Index).Exact); len(entries) > 0 {
		return tag(entries, slot, value)
	}
	// Tier 2: full index, stop-word-reduced query key.
	if entries := lookup(sources, reducedKey, (*Index).Exact); len(entries) > 0 {
		return tag(entries, slot, value)
	}
	// Tier 3: reduced index, strict key.
	if entries := lookup(sources, key, (*Index).Reduced); len(entries) > 0 {
		return tag(entries, slot, value)
	}
	// Tier 4: reduced index, reduced key.
	if entries := lookup(sources, reducedKey, (*Index).Reduced); len(entries) > 0 {
		return tag(entries, slot, value)
	}
	// Tier 5: fuzzy scoring over every fuzzy key of the slot's sources.
	if entries := r.fuzzy(sources, value); len(entries) > 0 {
		return tag(entries, slot, value)
	}
	return nil
}

func lookup(sources []*Index, key string, get func(*Index, string) []Entry) []Entry {
	var out []Entry
	for _, idx := range sources {
		out = append(out, get(idx, key)...)
	}
	return out
}

// fuzzy scores each source index independently and unions the winners, so a
// source whose own best key clears the threshold contributes its entries even
// when another source scores higher.  Within a source the maximum starts at
// the threshold: a key scoring exactly the threshold is kept, a strictly
// higher score replaces what that source accumulated, and further ties with
// it union.
func (r *Resolver) fuzzy(sources []*Index, value string) []Entry {
	query := r.norm.FuzzyKey(value)
	if strings.TrimSpace(query) == "" {
		return nil
	}
	var out []Entry
	for _, idx := range sources {
		best := FuzzyThreshold
		var found []Entry
		idx.EachFuzzy(func(key string, entries []Entry) {
			score := r.scorer.Score(query, key)
			switch {
			case score > best:
				best = score
				found = append(found[:0], entries...)
			case score == best:
				found = append(found, entries...)
			}
		})
		out = append(out, found...)
	}
	return out
}

func tag(entries []Entry, slot Slot, term string) []Match {
	out := make([]Match, len(entries))
	for i, e := range entries {
		out[i] = Match{
			Accession:    e.Accession,
			Source:       e.Source,
			OfficialTerm: e.OfficialTerm,
			Term:         term,
			TermIdentity: slot,
		}
	}
	return out
}

// alternateRetry asks the oracle for rephrasings of the unmatched value and
// re-runs the waterfall on each in order, accepting the first that matches.
// The response must be exactly AlternateNameCount strings; anything else is
// malformed and leaves the slot unresolved.
func (r *Resolver) alternateRetry(ctx context.Context, slot Slot, value string) []Match {
	if r.oracle == nil {
		return nil
	}
	names, err := r.oracle.AlternateNames(ctx, value)
	if err != nil {
		r.logger.Warn("alternate-name suggestion failed",
			logging.String("slot", string(slot)),
			logging.String("value", value),
			logging.Err(err))
		return nil
	}
	if len(names) != AlternateNameCount {
		r.logger.Warn("malformed alternate-name response",
			logging.String("slot", string(slot)),
			logging.Int("count", len(names)))
		return nil
	}
	for _, name := range names {
		if name == "" || name == NASentinel {
			continue
		}
		if matches := r.waterfall(slot, name); len(matches) > 0 {
			r.logger.Debug("alternate name matched",
				logging.String("slot", string(slot)),
				logging.String("original", value),
				logging.String("alternate", name))
			return matches
		}
	}
	return nil
}
