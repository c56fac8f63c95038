// Package factor implements verification of candidate ChIP-seq target
// factors against authoritative gene references: the NCBI human gene table,
// the transcription-factor list, the chromatin-remodeler list, and the
// histone-modification grammar.
package factor

import (
	"github.com/turtacn/geometax/internal/domain/normalize"
)

// GeneRecord is one row of the human gene reference table.
type GeneRecord struct {
	// Symbol is the official NCBI gene symbol, unique within the table.
	Symbol string

	// Synonyms holds alternative names for the gene.  Matching against
	// synonyms uses strict normalization, so case and punctuation variants
	// of a synonym still hit.
	Synonyms []string
}

// GeneTable is the read-only lookup structure over the gene reference.
// It is built once at load time and shared by all concurrent resolutions;
// no method mutates it after construction.
type GeneTable struct {
	records []GeneRecord
	byKey   map[string][]int
}

// NewGeneTable indexes records by strict-normalized symbol and synonym keys.
// A key may map to several records: gene synonyms are not unique across the
// table, and that multiplicity is what drives the disambiguation step.
func NewGeneTable(records []GeneRecord) *GeneTable {
	t := &GeneTable{
		records: records,
		byKey:   make(map[string][]int, len(records)*2),
	}
	for i, rec := range records {
		t.add(normalize.Strict(rec.Symbol), i)
		for _, syn := range rec.Synonyms {
			t.add(normalize.Strict(syn), i)
		}
	}
	return t
}

func (t *GeneTable) add(key string, idx int) {
	if key == "" {
		return
	}
	ids := t.byKey[key]
	// A record whose symbol also appears among its own synonyms must be
	// indexed once.
	if len(ids) > 0 && ids[len(ids)-1] == idx {
		return
	}
	t.byKey[key] = append(ids, idx)
}

// Lookup returns every record whose symbol or any synonym strict-normalizes
// to the same key as candidate, in table order.  An empty or
// punctuation-only candidate matches nothing.
func (t *GeneTable) Lookup(candidate string) []GeneRecord {
	key := normalize.Strict(candidate)
	if key == "" {
		return nil
	}
	ids := t.byKey[key]
	if len(ids) == 0 {
		return nil
	}
	out := make([]GeneRecord, 0, len(ids))
	for _, i := range ids {
		out = append(out, t.records[i])
	}
	return out
}

// Len returns the number of records in the table.
func (t *GeneTable) Len() int { return len(t.records) }

// TFSet is the transcription-factor reference.  Membership is by exact
// official symbol, mirroring how the upstream TF list is published.
type TFSet struct {
	symbols map[string]struct{}
}

// NewTFSet builds the set from the official TF symbol list.
func NewTFSet(symbols []string) *TFSet {
	s := &TFSet{symbols: make(map[string]struct{}, len(symbols))}
	for _, sym := range symbols {
		s.symbols[sym] = struct{}{}
	}
	return s
}

// Contains reports exact-symbol membership.
func (s *TFSet) Contains(symbol string) bool {
	_, ok := s.symbols[symbol]
	return ok
}

// Filter returns the subset of records whose symbol is in the set,
// preserving order.
func (s *TFSet) Filter(records []GeneRecord) []GeneRecord {
	var out []GeneRecord
	for _, rec := range records {
		if s.Contains(rec.Symbol) {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of symbols in the set.
func (s *TFSet) Len() int { return len(s.symbols) }

// CRSet is the chromatin-remodeler reference.  Unlike TFSet, membership is
// by strict-normalized symbol or synonym, because the remodeler list carries
// loosely formatted synonyms.
type CRSet struct {
	keys map[string]struct{}
}

// NewCRSet builds the set from remodeler records, indexing both symbols and
// synonyms under strict normalization.
func NewCRSet(records []GeneRecord) *CRSet {
	s := &CRSet{keys: make(map[string]struct{}, len(records)*2)}
	for _, rec := range records {
		if key := normalize.Strict(rec.Symbol); key != "" {
			s.keys[key] = struct{}{}
		}
		for _, syn := range rec.Synonyms {
			if key := normalize.Strict(syn); key != "" {
				s.keys[key] = struct{}{}
			}
		}
	}
	return s
}

// Contains reports strict-normalized membership.
func (s *CRSet) Contains(symbol string) bool {
	_, ok := s.keys[normalize.Strict(symbol)]
	return ok
}

// Filter returns the subset of records whose symbol normalizes into the set,
// preserving order.
func (s *CRSet) Filter(records []GeneRecord) []GeneRecord {
	var out []GeneRecord
	for _, rec := range records {
		if s.Contains(rec.Symbol) {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of distinct normalized keys in the set.
func (s *CRSet) Len() int { return len(s.keys) }

// References bundles the three factor reference structures consumed by the
// resolver.  All members are read-only after construction.
type References struct {
	Genes *GeneTable
	TFs   *TFSet
	CRs   *CRSet
}
