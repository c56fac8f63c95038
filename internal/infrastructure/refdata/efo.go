package refdata

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/turtacn/geometax/pkg/errors"
)

const (
	owlNS      = "http://www.w3.org/2002/07/owl#"
	rdfNS      = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	oboInOwlNS = "http://www.geneontology.org/formats/oboInOwl#"
)

// owlClass is the subset of an owl:Class element the index needs: the IRI,
// the label, and the three synonym scopes that should all hit the entry.
type owlClass struct {
	About   string   `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# about,attr"`
	Labels  []string `xml:"http://www.w3.org/2000/01/rdf-schema# label"`
	Exact   []string `xml:"http://www.geneontology.org/formats/oboInOwl# hasExactSynonym"`
	Related []string `xml:"http://www.geneontology.org/formats/oboInOwl# hasRelatedSynonym"`
	Broad   []string `xml:"http://www.geneontology.org/formats/oboInOwl# hasBroadSynonym"`
}

// ParseEFO streams the EFO OWL release (RDF/XML) and extracts every labelled
// class as a term.  The accession is the last path segment of the class IRI
// (e.g. EFO_0000305).  Classes without a label carry no usable key and are
// skipped.
func ParseEFO(r io.Reader) ([]Term, error) {
	dec := xml.NewDecoder(r)

	var terms []Term
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeReferenceParseFailed, "malformed EFO OWL document")
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Space != owlNS || start.Name.Local != "Class" {
			continue
		}

		var cls owlClass
		if err := dec.DecodeElement(&cls, &start); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeReferenceParseFailed, "malformed EFO class element")
		}
		if len(cls.Labels) == 0 || strings.TrimSpace(cls.Labels[0]) == "" {
			continue
		}

		term := Term{
			Accession: iriFragment(cls.About),
			Label:     strings.TrimSpace(cls.Labels[0]),
		}
		for _, group := range [][]string{cls.Exact, cls.Related, cls.Broad} {
			for _, syn := range group {
				if syn = strings.TrimSpace(syn); syn != "" {
					term.Synonyms = append(term.Synonyms, syn)
				}
			}
		}
		terms = append(terms, term)
	}

	if len(terms) == 0 {
		return nil, errors.New(errors.ErrCodeReferenceParseFailed, "EFO OWL contains no labelled classes")
	}
	return terms, nil
}

// iriFragment reduces a class IRI to its trailing identifier segment.
func iriFragment(iri string) string {
	if i := strings.LastIndexAny(iri, "/#"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}
