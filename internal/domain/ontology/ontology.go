// Package ontology resolves candidate biosample descriptors against the
// Cellosaurus, EFO, and Uberon vocabularies.  Each of the four slots of a
// candidate (cell line, cell type, tissue, disease) walks a five-tier match
// waterfall from exact normalized lookup down to token-sort fuzzy scoring,
// with one alternate-name retry round for slots nothing matched.
package ontology

import "encoding/json"

// Source identifies the vocabulary an entry came from.
type Source string

const (
	SourceCellosaurus Source = "cellosaurus"
	SourceEFO         Source = "efo"
	SourceUberon      Source = "uberon"
)

// Slot is one of the four classification dimensions of a biosample.
type Slot string

const (
	SlotCellLine Slot = "cell_line"
	SlotCellType Slot = "cell_type"
	SlotTissue   Slot = "tissue"
	SlotDisease  Slot = "disease"
)

// Slots lists the four slots in resolution order.
var Slots = []Slot{SlotCellLine, SlotCellType, SlotTissue, SlotDisease}

// NASentinel is the literal the extraction oracle asserts when a slot is
// genuinely absent from the metadata.  It never enters the matching pipeline
// and is never retried.
const NASentinel = "N/A"

// Entry is one vocabulary row as stored in the indexes.  The same entry may
// be reachable through several keys (official term plus synonyms).
type Entry struct {
	Accession    string
	Source       Source
	OfficialTerm string
}

// Match is an Entry tagged with the query that produced it.
type Match struct {
	Accession    string
	Source       Source
	OfficialTerm string

	// Term is the candidate string that matched, which for an
	// alternate-name retry is the alternate, not the original slot value.
	Term string

	// TermIdentity is the slot the query targeted.
	TermIdentity Slot
}

// Candidates is the raw 4-slot object proposed by the extraction oracle.
// A slot holding NASentinel or the empty string is skipped entirely.
type Candidates struct {
	CellLine string `json:"cell_line"`
	CellType string `json:"cell_type"`
	Tissue   string `json:"tissue"`
	Disease  string `json:"disease"`
}

func (c Candidates) slot(s Slot) string {
	switch s {
	case SlotCellLine:
		return c.CellLine
	case SlotCellType:
		return c.CellType
	case SlotTissue:
		return c.Tissue
	case SlotDisease:
		return c.Disease
	}
	return ""
}

// Value is a merged field of a collapsed match.  It renders as a scalar when
// it holds one distinct value and as a list when the group diverged.
type Value []string

func (v Value) add(s string) Value {
	for _, existing := range v {
		if existing == s {
			return v
		}
	}
	return append(v, s)
}

// MarshalJSON renders null, a scalar, or a list depending on cardinality.
func (v Value) MarshalJSON() ([]byte, error) {
	switch len(v) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(v[0])
	default:
		return json.Marshal([]string(v))
	}
}

// UnmarshalJSON accepts the scalar, list, and null renderings symmetrically.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]string)(v))
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = Value{s}
	return nil
}

// CollapsedMatch is one merged object per distinct official term, produced by
// Collapse.  OfficialTerm is the grouping key and therefore always scalar.
type CollapsedMatch struct {
	Accession    Value  `json:"ontology_accession"`
	Source       Value  `json:"source"`
	OfficialTerm string `json:"official_term"`
	Term         Value  `json:"term"`
	TermIdentity Value  `json:"term_identity"`
}

// SlotResult is the resolved value of one slot: nil when the slot is null
// (asserted absent or never matched), otherwise one collapsed match per
// distinct official term.
type SlotResult []CollapsedMatch

// MarshalJSON renders null, a single object, or an array, so a slot that
// collapsed to one official term reads as a scalar object downstream.
func (r SlotResult) MarshalJSON() ([]byte, error) {
	switch len(r) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(r[0])
	default:
		return json.Marshal([]CollapsedMatch(r))
	}
}

// UnmarshalJSON accepts the object, array, and null renderings symmetrically.
func (r *SlotResult) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]CollapsedMatch)(r))
	}
	var m CollapsedMatch
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = SlotResult{m}
	return nil
}

// Result holds the four resolved slots of one candidate object.
type Result struct {
	CellLine SlotResult `json:"cell_line"`
	CellType SlotResult `json:"cell_type"`
	Tissue   SlotResult `json:"tissue"`
	Disease  SlotResult `json:"disease"`
}

func (r *Result) set(s Slot, v SlotResult) {
	switch s {
	case SlotCellLine:
		r.CellLine = v
	case SlotCellType:
		r.CellType = v
	case SlotTissue:
		r.Tissue = v
	case SlotDisease:
		r.Disease = v
	}
}

// Empty reports whether no slot resolved to anything.
func (r Result) Empty() bool {
	return len(r.CellLine) == 0 && len(r.CellType) == 0 &&
		len(r.Tissue) == 0 && len(r.Disease) == 0
}

// Collapse groups matches by official term, first-seen order, and merges the
// remaining fields per group.  A field with one distinct value across the
// group stays scalar; a diverging field becomes a list of distinct values.
func Collapse(matches []Match) []CollapsedMatch {
	if len(matches) == 0 {
		return nil
	}
	order := make([]string, 0, len(matches))
	groups := make(map[string]*CollapsedMatch, len(matches))
	for _, m := range matches {
		g, ok := groups[m.OfficialTerm]
		if !ok {
			g = &CollapsedMatch{OfficialTerm: m.OfficialTerm}
			groups[m.OfficialTerm] = g
			order = append(order, m.OfficialTerm)
		}
		g.Accession = g.Accession.add(m.Accession)
		g.Source = g.Source.add(string(m.Source))
		g.Term = g.Term.add(m.Term)
		g.TermIdentity = g.TermIdentity.add(string(m.TermIdentity))
	}
	out := make([]CollapsedMatch, 0, len(order))
	for _, term := range order {
		out = append(out, *groups[term])
	}
	return out
}
