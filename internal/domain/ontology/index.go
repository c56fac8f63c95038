package ontology

import (
	"github.com/turtacn/geometax/internal/domain/normalize"
)

// Index is the per-source lookup structure in its three variants: exact
// (strict key), reduced (stop-word-stripped key), and fuzzy (space-preserving
// key, searched by similarity).  Built once by the reference-data loader and
// never mutated afterwards; concurrent reads need no locking.
type Index struct {
	source  Source
	norm    *normalize.Normalizer
	exact   map[string][]Entry
	reduced map[string][]Entry
	fuzzy   map[string][]Entry
}

// NewIndex returns an empty index for source, keyed through norm.  The same
// normalizer must be used at query time or reduced keys will disagree.
func NewIndex(source Source, norm *normalize.Normalizer) *Index {
	return &Index{
		source:  source,
		norm:    norm,
		exact:   make(map[string][]Entry),
		reduced: make(map[string][]Entry),
		fuzzy:   make(map[string][]Entry),
	}
}

// Source returns the vocabulary this index holds.
func (i *Index) Source() Source { return i.source }

// Add indexes one vocabulary row under its official term and every synonym.
// Rows without an official term are dropped: every entry handed back to a
// caller must carry one.
func (i *Index) Add(accession, officialTerm string, synonyms ...string) {
	if officialTerm == "" {
		return
	}
	entry := Entry{Accession: accession, Source: i.source, OfficialTerm: officialTerm}

	seenExact := make(map[string]struct{}, 1+len(synonyms))
	seenReduced := make(map[string]struct{}, 1+len(synonyms))
	seenFuzzy := make(map[string]struct{}, 1+len(synonyms))

	names := make([]string, 0, 1+len(synonyms))
	names = append(names, officialTerm)
	names = append(names, synonyms...)

	for _, name := range names {
		if key := i.norm.Key(name); key != "" {
			if _, dup := seenExact[key]; !dup {
				seenExact[key] = struct{}{}
				i.exact[key] = append(i.exact[key], entry)
			}
		}
		if key := i.norm.ReducedKey(name); key != "" {
			if _, dup := seenReduced[key]; !dup {
				seenReduced[key] = struct{}{}
				i.reduced[key] = append(i.reduced[key], entry)
			}
		}
		if key := i.norm.FuzzyKey(name); key != "" {
			if _, dup := seenFuzzy[key]; !dup {
				seenFuzzy[key] = struct{}{}
				i.fuzzy[key] = append(i.fuzzy[key], entry)
			}
		}
	}
}

// Exact returns the entries filed under the strict key, or nil.
func (i *Index) Exact(key string) []Entry {
	if key == "" {
		return nil
	}
	return i.exact[key]
}

// Reduced returns the entries filed under the stop-word-reduced key, or nil.
func (i *Index) Reduced(key string) []Entry {
	if key == "" {
		return nil
	}
	return i.reduced[key]
}

// EachFuzzy visits every fuzzy key with its entries.  Visit order is
// unspecified; fuzzy-tier scoring is order-independent because all keys at
// the maximum score are unioned.
func (i *Index) EachFuzzy(fn func(key string, entries []Entry)) {
	for key, entries := range i.fuzzy {
		fn(key, entries)
	}
}

// Len returns the number of distinct exact keys, a cheap size signal for
// startup logging.
func (i *Index) Len() int { return len(i.exact) }

// IndexSet bundles the three vocabulary indexes.  The EFO and Uberon indexes
// serve every slot; Cellosaurus is additionally consulted for the cell_line
// slot in every tier.
type IndexSet struct {
	Cellosaurus *Index
	EFO         *Index
	Uberon      *Index
}

func (s *IndexSet) forSlot(slot Slot) []*Index {
	out := make([]*Index, 0, 3)
	if slot == SlotCellLine && s.Cellosaurus != nil {
		out = append(out, s.Cellosaurus)
	}
	if s.EFO != nil {
		out = append(out, s.EFO)
	}
	if s.Uberon != nil {
		out = append(out, s.Uberon)
	}
	return out
}

// Complete reports whether all three vocabularies are loaded.  Resolution
// over an incomplete set is a reference-data failure surfaced at startup.
func (s *IndexSet) Complete() bool {
	return s.Cellosaurus != nil && s.EFO != nil && s.Uberon != nil
}
