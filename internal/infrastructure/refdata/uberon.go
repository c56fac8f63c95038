package refdata

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/turtacn/geometax/pkg/errors"
)

// uberonDoc mirrors the obographs JSON layout of uberon-full.json down to the
// fields the index consumes.
type uberonDoc struct {
	Graphs []struct {
		Nodes []uberonNode `json:"nodes"`
	} `json:"graphs"`
}

type uberonNode struct {
	ID    string `json:"id"`
	Label string `json:"lbl"`
	Meta  struct {
		Synonyms []struct {
			Pred string `json:"pred"`
			Val  string `json:"val"`
		} `json:"synonyms"`
	} `json:"meta"`
}

// uberonSynonymScopes lists the synonym predicates that should hit the entry.
var uberonSynonymScopes = map[string]struct{}{
	"hasExactSynonym":   {},
	"hasBroadSynonym":   {},
	"hasRelatedSynonym": {},
}

// ParseUberon parses the Uberon obographs JSON release into terms.  The
// accession is the last path segment of the node IRI; nodes without a label
// are skipped.
func ParseUberon(r io.Reader) ([]Term, error) {
	var doc uberonDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceParseFailed, "malformed uberon JSON document")
	}
	if len(doc.Graphs) == 0 {
		return nil, errors.New(errors.ErrCodeReferenceParseFailed, "uberon document has no graphs")
	}

	var terms []Term
	for _, node := range doc.Graphs[0].Nodes {
		label := strings.TrimSpace(node.Label)
		if label == "" {
			continue
		}
		term := Term{Accession: iriFragment(node.ID), Label: label}
		for _, syn := range node.Meta.Synonyms {
			if _, ok := uberonSynonymScopes[syn.Pred]; !ok {
				continue
			}
			if val := strings.TrimSpace(syn.Val); val != "" {
				term.Synonyms = append(term.Synonyms, val)
			}
		}
		terms = append(terms, term)
	}

	if len(terms) == 0 {
		return nil, errors.New(errors.ErrCodeReferenceParseFailed, "uberon document contains no labelled nodes")
	}
	return terms, nil
}
