package refdata

import (
	"bufio"
	"io"
	"strings"

	"github.com/turtacn/geometax/pkg/errors"
)

// humanTaxonLine marks the human entries in the Cellosaurus flat file; every
// other species is discarded.
const humanTaxonLine = "NCBI_TaxID=9606"

// ParseCellosaurus parses the Cellosaurus flat-text release into cell-line
// terms.  Entries are separated by "//" lines; within an entry, each line is
// a two-letter code, three spaces, and a value.  Only the ID (label), AC
// (accession), SY (semicolon-joined synonyms), and OX (taxon) codes matter
// here.
func ParseCellosaurus(r io.Reader) ([]Term, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		terms   []Term
		current Term
		human   bool
	)
	flush := func() {
		if human && current.Accession != "" && current.Label != "" {
			terms = append(terms, current)
		}
		current = Term{}
		human = false
	}

	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "//") {
			flush()
			continue
		}
		if len(line) < 5 {
			continue
		}
		code, value := line[:2], strings.TrimSpace(line[5:])
		switch code {
		case "ID":
			current.Label = value
		case "AC":
			current.Accession = value
		case "SY":
			for _, syn := range strings.Split(value, ";") {
				if syn = strings.TrimSpace(syn); syn != "" {
					current.Synonyms = append(current.Synonyms, syn)
				}
			}
		case "OX":
			if strings.Contains(value, humanTaxonLine) {
				human = true
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReferenceParseFailed, "failed to read cellosaurus file")
	}
	flush()

	if len(terms) == 0 {
		return nil, errors.New(errors.ErrCodeReferenceParseFailed, "cellosaurus contains no human cell lines")
	}
	return terms, nil
}
